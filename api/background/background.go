package background

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Background runs fire-and-forget tasks. Failures are logged, never
// propagated: a lost audit entry must not fail the request that
// spawned it.
type Background struct {
	log logrus.FieldLogger
	wg  sync.WaitGroup
}

func New(log logrus.FieldLogger) *Background {
	return &Background{log: log}
}

func (b *Background) Add(name string, task func(ctx context.Context) error) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		defer func() {
			if rec := recover(); rec != nil {
				b.log.WithFields(logrus.Fields{
					"task":    name,
					"message": fmt.Sprintf("PANIC [%v]", rec),
				}).Error("background task panicked")
			}
		}()

		if err := task(context.Background()); err != nil {
			b.log.WithFields(logrus.Fields{
				"task":    name,
				"message": err,
			}).Error("background task failed")
		}
	}()
}

// Shutdown waits for in-flight tasks, giving up when ctx expires.
func (b *Background) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background tasks still running: %w", ctx.Err())
	}
}
