package auction

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Sweeper settles expired auctions on a fixed interval. Settle is
// idempotent, so running a sweeper per process is safe.
type Sweeper struct {
	log      logrus.FieldLogger
	db       *sqlx.DB
	interval time.Duration
}

func NewSweeper(log logrus.FieldLogger, db *sqlx.DB, interval time.Duration) *Sweeper {
	return &Sweeper{
		log:      log,
		db:       db,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	report, err := Settle(ctx, s.db, time.Now().UTC())
	if err != nil {
		s.log.WithField("message", err).Error("settlement sweep failed")
		return
	}

	if len(report.Settled) > 0 || len(report.Expired) > 0 {
		s.log.WithFields(logrus.Fields{
			"settled": len(report.Settled),
			"expired": len(report.Expired),
		}).Info("settlement sweep completed")
	}
}
