package cli

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// SignalContext is cancelled by the first SIGINT or SIGTERM and remembers
// which one arrived, so commands can report it on shutdown.
type SignalContext struct {
	context.Context
	Cancel context.CancelFunc

	received atomic.Value // os.Signal
}

// NewSignalContext derives a SignalContext from parent. Cancel releases the
// signal subscription.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{Context: ctx, Cancel: cancel}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go sc.await(sigs)
	return sc
}

func (sc *SignalContext) await(sigs chan os.Signal) {
	defer signal.Stop(sigs)
	select {
	case sig := <-sigs:
		sc.received.Store(sig)
		sc.Cancel()
	case <-sc.Done():
	}
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sig, _ := sc.received.Load().(os.Signal)
	return sig
}
