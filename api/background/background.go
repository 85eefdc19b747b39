// Package background runs fire-and-forget work, like notification
// emails, that must finish before the process exits.
package background

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

type Background struct {
	log logrus.FieldLogger
	wg  sync.WaitGroup
}

func New(log logrus.FieldLogger) *Background {
	return &Background{log: log}
}

// Run executes fn in its own goroutine. Panics and errors are logged.
func (b *Background) Run(name string, fn func() error) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				b.log.WithField("task", name).Error(fmt.Sprintf("background task panic: %v", rec))
			}
		}()

		if err := fn(); err != nil {
			b.log.WithField("task", name).WithError(err).Error("background task failed")
		}
	}()
}

// Shutdown waits for running tasks or for ctx to be done.
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
		return ctx.Err()
	}
}
