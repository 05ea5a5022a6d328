package llm

import (
	"context"
	"io"
)

// eventStream adapts a producer function into the Stream interface,
// running the producer on its own goroutine and forwarding everything it
// sends on the events channel to Recv callers.
type eventStream struct {
	ch     chan Event
	cancel context.CancelFunc
	err    error
}

// newEventStream runs fn on a new goroutine with a channel it can send
// events on, and returns a Stream that yields them in order. fn's return
// error (if non-nil) is surfaced from Recv once the channel drains;
// otherwise Recv returns io.EOF.
func newEventStream(ctx context.Context, fn func(ctx context.Context, events chan<- Event) error) Stream {
	runCtx, cancel := context.WithCancel(ctx)
	s := &eventStream{
		ch:     make(chan Event, 16),
		cancel: cancel,
	}
	go func() {
		defer close(s.ch)
		s.err = fn(runCtx, s.ch)
	}()
	return s
}

func (s *eventStream) Recv() (Event, error) {
	event, ok := <-s.ch
	if !ok {
		if s.err != nil {
			return Event{}, s.err
		}
		return Event{}, io.EOF
	}
	return event, nil
}

func (s *eventStream) Close() error {
	s.cancel()
	return nil
}
