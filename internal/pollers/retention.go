package pollers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rmitchellscott/ditherstudio/internal/database"
	"github.com/rmitchellscott/ditherstudio/internal/logging"
	"github.com/rmitchellscott/ditherstudio/internal/storage"
)

// RetentionPoller deletes render history and stored outputs older than the
// retention period.
type RetentionPoller struct {
	*Loop
	renders   *database.RenderService
	storage   *storage.RenderStorage
	retention time.Duration
	now       func() time.Time
}

// NewRetentionPoller prunes every interval. A zero retention or interval
// disables the poller. store may be nil when outputs are not kept.
func NewRetentionPoller(db *gorm.DB, store *storage.RenderStorage, retention, interval time.Duration) *RetentionPoller {
	p := &RetentionPoller{
		renders:   database.NewRenderService(db),
		storage:   store,
		retention: retention,
		now:       time.Now,
	}
	cfg := NewConfig("render-retention", interval)
	if retention <= 0 {
		cfg.Interval = 0
	}
	p.Loop = NewLoop(cfg, p.prune)
	return p
}

func (p *RetentionPoller) prune(ctx context.Context) error {
	cutoff := p.now().Add(-p.retention)

	ids, err := p.renders.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	files := 0
	if p.storage != nil {
		for _, id := range ids {
			if err := p.storage.Delete(id); err != nil {
				logging.WarnWithComponent(logging.ComponentPoller, "Failed to delete render output", "render_id", id, "error", err)
			}
		}
		// Outputs whose history row is already gone.
		if files, err = p.storage.CleanupOlderThan(p.retention); err != nil {
			return err
		}
	}

	if len(ids) > 0 || files > 0 {
		logging.InfoWithComponent(logging.ComponentPoller, "Pruned render history",
			"renders", len(ids), "orphaned_files", files, "cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}
