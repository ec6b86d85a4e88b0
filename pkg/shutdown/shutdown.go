// Package shutdown turns OS termination signals into listener callbacks.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Signals notifies listeners when the process receives one of its signals.
type Signals struct {
	sigs []os.Signal
}

// New listens for sigs, or SIGINT and SIGTERM when none are given.
func New(sigs ...os.Signal) *Signals {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	return &Signals{sigs: sigs}
}

// Notify calls fn once, on its own goroutine, when a signal arrives. stop
// deregisters fn; it is safe to call from inside fn and more than once.
func (s *Signals) Notify(fn func()) (stop func()) {
	ch := make(chan os.Signal, 1)
	quit := make(chan struct{})
	signal.Notify(ch, s.sigs...)

	var once sync.Once
	stop = func() {
		once.Do(func() {
			signal.Stop(ch)
			close(quit)
		})
	}

	go func() {
		select {
		case <-ch:
			stop()
			fn()
		case <-quit:
		}
	}()
	return stop
}
