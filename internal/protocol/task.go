package protocol

import (
	"context"

	"github.com/danmuck/msgchain/internal/message"
)

// Task is an in-flight asynchronous decode.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}

	chain message.Chain
	err   error
}

// DecodeAsync starts Decode on its own goroutine. Cancelling ctx or the
// task aborts any fetch in progress and the task fails.
func (f *Facade) DecodeAsync(ctx context.Context, req DecodeRequest) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer cancel()
		t.chain, t.err = f.Decode(ctx, req)
	}()
	return t
}

// Done is closed once the decode has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the decode finishes or ctx ends. A ctx that ends first
// does not cancel the task.
func (t *Task) Wait(ctx context.Context) (message.Chain, error) {
	select {
	case <-t.done:
		return t.chain, t.err
	case <-ctx.Done():
		return message.Chain{}, ctx.Err()
	}
}
