package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestAddAndShutdown(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	bg := New(logger)

	var ran int32
	bg.Add("task", func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := bg.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if atomic.LoadInt32(&ran) != 1 {
		t.Fatal("task did not run")
	}
}

func TestFailuresAreLoggedNotPropagated(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	bg := New(logger)

	bg.Add("failing", func(ctx context.Context) error {
		return errors.New("boom")
	})
	bg.Add("panicking", func(ctx context.Context) error {
		panic("boom")
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := bg.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	var errorEntries int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			errorEntries++
		}
	}
	if errorEntries != 2 {
		t.Fatalf("expected 2 error log entries, got %d", errorEntries)
	}
}

func TestShutdownTimeout(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	bg := New(logger)

	release := make(chan struct{})
	bg.Add("slow", func(ctx context.Context) error {
		<-release
		return nil
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := bg.Shutdown(ctx); err == nil {
		t.Fatal("expected a timeout error while a task is stuck")
	}
}
