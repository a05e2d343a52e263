package channels

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/soban-bot/soban/pkg/commands"
)

// Channel is one chat backend. Run connects and processes messages until ctx
// is cancelled or the connection fails.
type Channel interface {
	Name() string
	Run(ctx context.Context) error
	IsRunning() bool
}

// Dispatcher is implemented by *commands.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, origin commands.Origin, text string) commands.Result
}

type BaseChannel struct {
	name       string
	dispatcher Dispatcher
	running    atomic.Bool
	inflight   sync.WaitGroup
}

func NewBaseChannel(name string, dispatcher Dispatcher) *BaseChannel {
	return &BaseChannel{name: name, dispatcher: dispatcher}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

func (c *BaseChannel) setRunning(running bool) {
	c.running.Store(running)
}

// HandleMessage dispatches text on a new goroutine and returns immediately.
func (c *BaseChannel) HandleMessage(ctx context.Context, origin commands.Origin, text string) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.dispatcher.Dispatch(ctx, origin, text)
	}()
}

// waitInflight blocks until every dispatch started by HandleMessage returns.
func (c *BaseChannel) waitInflight() {
	c.inflight.Wait()
}
