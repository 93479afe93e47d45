// Package fetch owns retrieval of supplementary message data for deep refinement.
//
// Ownership boundary:
// - the Fetcher contract consumed by deep refine
// - rate limiting and caching decorators
// - an in-memory fetcher for manual reconstruction and tests
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/danmuck/msgchain/internal/message"
	"github.com/danmuck/msgchain/internal/wire"
)

var (
	ErrNotFound     = errors.New("fetch: resource not found")
	ErrInvalidResID = errors.New("fetch: invalid resource id")
)

// Resource names what a placeholder refers to.
type Resource string

const (
	ResourceLong    Resource = "long"
	ResourceForward Resource = "forward"
)

// Request identifies one remote message body.
type Request struct {
	Resource Resource
	ResID    string
	Refine   message.RefineContext
}

func (r Request) Validate() error {
	if r.ResID == "" {
		return ErrInvalidResID
	}
	switch r.Resource {
	case ResourceLong, ResourceForward:
		return nil
	default:
		return fmt.Errorf("fetch: unknown resource %q", r.Resource)
	}
}

// Fetcher retrieves the wire messages behind a placeholder.
// Implementations must honor ctx cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]wire.Message, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req Request) ([]wire.Message, error)

func (f FetcherFunc) Fetch(ctx context.Context, req Request) ([]wire.Message, error) {
	return f(ctx, req)
}

// Static serves pre-registered bodies from memory.
type Static struct {
	mu    sync.RWMutex
	items map[string][]wire.Message
}

func NewStatic() *Static {
	return &Static{items: make(map[string][]wire.Message)}
}

func staticKey(res Resource, resID string) string {
	return string(res) + ":" + resID
}

func (s *Static) Put(res Resource, resID string, msgs []wire.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[staticKey(res, resID)] = msgs
}

func (s *Static) Fetch(ctx context.Context, req Request) ([]wire.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	msgs, ok := s.items[staticKey(req.Resource, req.ResID)]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, req.Resource, req.ResID)
	}
	return msgs, nil
}
