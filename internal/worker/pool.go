// Package worker runs fire-and-forget background tasks with an explicit
// lifecycle: spawning never blocks the caller, failures and panics are
// logged, and shutdown can wait for in-flight tasks.
package worker

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool() *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{ctx: ctx, cancel: cancel}
}

// Go schedules fn on its own goroutine and returns immediately. The task
// runs to completion independently of the caller; a panic is recovered and
// logged rather than taking the process down.
func (p *Pool) Go(name string, fn func(ctx context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("task %s panicked: %v", name, r)
			}
		}()
		log.Printf("task %s started", name)
		fn(p.ctx)
		log.Printf("task %s finished", name)
	}()
}

// Shutdown cancels the pool context and waits for running tasks, giving up
// when ctx expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.cancel()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
