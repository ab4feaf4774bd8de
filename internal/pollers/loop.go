package pollers

import (
	"context"
	"sync"
	"time"

	"github.com/rmitchellscott/ditherstudio/internal/logging"
)

// Loop runs a job once on start and then on every tick of its interval.
type Loop struct {
	config Config
	job    func(ctx context.Context) error

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop creates a stopped loop for job.
func NewLoop(config Config, job func(ctx context.Context) error) *Loop {
	return &Loop{config: config, job: job}
}

func (l *Loop) Name() string {
	return l.config.Name
}

// Start launches the loop. Starting a running or disabled loop does nothing.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done != nil {
		return nil
	}
	if !l.config.Enabled() {
		logging.InfoWithComponent(logging.ComponentPoller, "Poller disabled", "poller", l.config.Name)
		return nil
	}

	logging.InfoWithComponent(logging.ComponentPoller, "Starting poller", "poller", l.config.Name, "interval", l.config.Interval)

	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	go l.run(ctx, l.done)
	return nil
}

// Stop cancels the loop and waits for the current run to return.
func (l *Loop) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done == nil {
		return nil
	}
	l.cancel()
	<-l.done
	l.done = nil

	logging.InfoWithComponent(logging.ComponentPoller, "Poller stopped", "poller", l.config.Name)
	return nil
}

func (l *Loop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done != nil
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.config.Interval)
	defer ticker.Stop()

	for {
		l.tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick runs the job until it succeeds, the attempts are used up, or ctx ends.
func (l *Loop) tick(ctx context.Context) {
	attempts := max(l.config.Attempts, 1)
	for attempt := 1; ; attempt++ {
		runCtx, cancel := context.WithTimeout(ctx, l.config.Timeout)
		err := l.job(runCtx)
		cancel()
		if err == nil || ctx.Err() != nil {
			return
		}

		logging.WarnWithComponent(logging.ComponentPoller, "Poll attempt failed",
			"poller", l.config.Name, "attempt", attempt, "max_attempts", attempts, "error", err)
		if attempt >= attempts {
			logging.ErrorWithComponent(logging.ComponentPoller, "Poller gave up until next tick", "poller", l.config.Name)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.config.Backoff * time.Duration(attempt)):
		}
	}
}
