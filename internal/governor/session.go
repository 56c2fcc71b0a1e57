package governor

import (
	"context"
	"sync"
)

// Session is a running governor on its own goroutine. Stop requests exit and
// Wait joins the loop.
type Session struct {
	cancel context.CancelFunc
	stop   sync.Once
	done   chan struct{}
	err    error
}

// Start runs g on a new goroutine.
func Start(ctx context.Context, g *Governor) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		defer cancel()
		s.err = g.Run(ctx)
	}()
	return s
}

// Stop requests the loop to exit and waits for it.
func (s *Session) Stop() error {
	s.stop.Do(s.cancel)
	return s.Wait()
}

// Wait blocks until the loop has exited and returns its error.
func (s *Session) Wait() error {
	<-s.done
	return s.err
}

// Done is closed when the loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
