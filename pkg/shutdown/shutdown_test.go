//go:build unix

package shutdown

import (
	"syscall"
	"testing"
	"time"
)

func TestNotifyFiresOnSignal(t *testing.T) {
	s := New(syscall.SIGUSR1)
	fired := make(chan struct{})
	stop := s.Notify(func() { close(fired) })
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("listener not called")
	}
}

func TestStopDeregisters(t *testing.T) {
	s := New(syscall.SIGUSR2)
	called := make(chan struct{}, 1)
	stop := s.Notify(func() { called <- struct{}{} })
	stop()
	stop()

	// Keep a second listener so the signal is not fatal to the test binary.
	keep := make(chan struct{})
	stopKeep := s.Notify(func() { close(keep) })
	defer stopKeep()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR2); err != nil {
		t.Fatalf("kill: %v", err)
	}
	select {
	case <-keep:
	case <-time.After(2 * time.Second):
		t.Fatal("remaining listener not called")
	}
	select {
	case <-called:
		t.Error("stopped listener was called")
	case <-time.After(50 * time.Millisecond):
	}
}
