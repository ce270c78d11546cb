package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/trustreach/verifyd/internal/audit"
	"github.com/trustreach/verifyd/internal/verification"
	"github.com/trustreach/verifyd/pkg/logger"
	"github.com/trustreach/verifyd/pkg/metrics"
)

const (
	defaultAuditRetentionDays = 90
	defaultSweepSpec          = "@every 5m"
	defaultAuditSpec          = "@daily"
)

// Cleaner coordinates background maintenance: sweeping expired verification
// records and pruning old audit events. Sweeping is hygiene only; validation
// re-checks expiry lazily and never depends on the sweep running promptly.
type Cleaner struct {
	verifier  *verification.Service
	audit     *audit.Service
	cron      *cron.Cron
	log       *zap.Logger
	retention int

	sweepSchedule string
	auditSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithAuditRetentionDays adjusts how long audit events are retained.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithSweepInterval overrides how often expired records are swept.
func WithSweepInterval(interval time.Duration) Option {
	return func(cleaner *Cleaner) {
		if interval > 0 {
			cleaner.sweepSchedule = fmt.Sprintf("@every %s", interval)
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil audit service
// disables the retention job.
func NewCleaner(verifier *verification.Service, auditSvc *audit.Service, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		verifier:      verifier,
		audit:         auditSvc,
		retention:     defaultAuditRetentionDays,
		sweepSchedule: defaultSweepSpec,
		auditSchedule: defaultAuditSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.verifier != nil {
		if _, err := c.cron.AddFunc(c.sweepSchedule, func() {
			ctx := context.Background()
			removed, err := c.verifier.SweepExpired(ctx)
			if err != nil {
				c.log.Warn("record sweep failed", zap.Error(err))
				return
			}
			if removed > 0 {
				metrics.RecordsSwept.Add(float64(removed))
				c.log.Debug("swept expired records", zap.Int("removed", removed))
			}
		}); err != nil {
			return err
		}
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			ctx := context.Background()
			if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Used in
// tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.verifier != nil {
		if removed, err := c.verifier.SweepExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			metrics.RecordsSwept.Add(float64(removed))
		}
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
