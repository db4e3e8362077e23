// Package jobs holds periodic housekeeping tasks.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CodeCleaner removes recovery codes that expired before now.
type CodeCleaner interface {
	ClearExpiredRecoveryCodes(ctx context.Context, now time.Time) (int64, error)
}

// RecoveryCleaner purges expired recovery codes. Confirmation already rejects
// them, this only keeps the table tidy.
type RecoveryCleaner struct {
	store   CodeCleaner
	log     logrus.FieldLogger
	now     func() time.Time
	timeout time.Duration
}

func NewRecoveryCleaner(store CodeCleaner, log logrus.FieldLogger) *RecoveryCleaner {
	return &RecoveryCleaner{
		store:   store,
		log:     log,
		now:     time.Now,
		timeout: 30 * time.Second,
	}
}

// Run executes one purge. It satisfies cron.Job.
func (rc *RecoveryCleaner) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), rc.timeout)
	defer cancel()

	n, err := rc.store.ClearExpiredRecoveryCodes(ctx, rc.now())
	if err != nil {
		rc.log.WithError(err).Warn("Recovery Cleaner: purge failed")
		return
	}
	if n > 0 {
		rc.log.WithField("cleared", n).Info("Recovery Cleaner: expired codes removed")
	}
}

// NewScheduler registers the cleaner on the cron schedule. The caller starts and stops it.
func NewScheduler(schedule string, cleaner *RecoveryCleaner) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddJob(schedule, cleaner); err != nil {
		return nil, fmt.Errorf("schedule recovery cleaner %q: %w", schedule, err)
	}
	return c, nil
}
