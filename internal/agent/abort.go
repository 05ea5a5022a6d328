package agent

import (
	"context"
	"sync"
)

// AbortToken is a one-shot, idempotent cancellation signal shared across the
// tasks of a single turn (stream reads, tool awaits, retry backoff). Calling
// Cancel more than once is a no-op; Cancelled and Done both observe the
// first call.
type AbortToken struct {
	once   sync.Once
	done   chan struct{}
	cancel context.CancelFunc
}

// NewAbortToken derives a cancellable context from parent and wraps its
// CancelFunc. Suspension points in the orchestrator should select on the
// returned context's Done channel (or call Cancelled) rather than holding a
// reference to the CancelFunc directly.
func NewAbortToken(parent context.Context) (*AbortToken, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	t := &AbortToken{
		done:   make(chan struct{}),
		cancel: cancel,
	}
	return t, ctx
}

// Cancel requests cancellation. Safe to call from any goroutine, any number
// of times.
func (t *AbortToken) Cancel() {
	t.once.Do(func() {
		close(t.done)
		t.cancel()
	})
}

// Cancelled reports whether Cancel has been called.
func (t *AbortToken) Cancelled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed the moment Cancel is first called.
func (t *AbortToken) Done() <-chan struct{} {
	return t.done
}
