package pollers

import (
	"context"
	"sync"

	"github.com/rmitchellscott/ditherstudio/internal/logging"
)

// Manager starts and stops a set of pollers together.
type Manager struct {
	pollers []Poller
	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// NewManager creates a new poller manager
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a poller to the manager
func (m *Manager) Register(poller Poller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pollers = append(m.pollers, poller)
}

// Start starts all registered pollers
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.running = true

	for _, poller := range m.pollers {
		if err := poller.Start(ctx); err != nil {
			logging.ErrorWithComponent(logging.ComponentPoller, "Failed to start poller", "poller", poller.Name(), "error", err)
		}
	}
}

// Stop stops all pollers and waits for them to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	var wg sync.WaitGroup
	for _, poller := range m.pollers {
		if !poller.IsRunning() {
			continue
		}
		wg.Add(1)
		go func(p Poller) {
			defer wg.Done()
			if err := p.Stop(); err != nil {
				logging.ErrorWithComponent(logging.ComponentPoller, "Error stopping poller", "poller", p.Name(), "error", err)
			}
		}(poller)
	}

	wg.Wait()
	m.cancel()
	m.running = false
}
