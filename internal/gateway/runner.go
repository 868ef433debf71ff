package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/slack-go/slack/socketmode"

	"github.com/keepmind9/slackmech/internal/logger"
	"github.com/keepmind9/slackmech/pkg/constants"
)

// Handler consumes socket-mode requests. Implemented by the dispatcher.
type Handler interface {
	Dispatch(ctx context.Context, req socketmode.Request)
}

// Run connects the socket-mode transport and feeds every request to the
// handler until the context is cancelled. Each request is dispatched on
// its own goroutine, so concurrently arriving events interleave freely;
// ordering within one event is the dispatcher's concern. After the loop
// stops, in-flight dispatches get a grace period to finish.
func (c *Client) Run(ctx context.Context, h Handler) error {
	var inflight sync.WaitGroup
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-c.socket.Events:
				if !ok {
					return
				}
				if evt.Request == nil {
					// connection lifecycle events (connecting, hello, ...)
					logger.WithField("socket_event", string(evt.Type)).Debug("socket-lifecycle-event")
					continue
				}
				req := *evt.Request
				inflight.Add(1)
				go func() {
					defer inflight.Done()
					h.Dispatch(ctx, req)
				}()
			}
		}
	}()

	logger.Info("socket-mode-loop-started")
	err := c.socket.RunContext(ctx)

	if !drainDispatches(&inflight, constants.DefaultShutdownTimeout) {
		logger.Warn("shutdown-drain-timed-out")
	}
	return err
}

// drainDispatches waits for in-flight dispatches to finish, up to the
// shutdown grace period. Reports whether all of them made it.
func drainDispatches(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
