package fetch

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/danmuck/msgchain/internal/testutil/testlog"
	"github.com/danmuck/msgchain/internal/wire"
)

func body(text string) []wire.Message {
	return []wire.Message{{
		Head:  wire.Head{FromID: 7, Seq: 1, Time: 1700000000},
		Elems: []wire.Element{wire.Text{Str: text}},
	}}
}

func TestStaticFetch(t *testing.T) {
	testlog.Start(t)
	s := NewStatic()
	s.Put(ResourceLong, "res-1", body("hello"))

	got, err := s.Fetch(context.Background(), Request{Resource: ResourceLong, ResID: "res-1"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !reflect.DeepEqual(got, body("hello")) {
		t.Fatalf("unexpected body: %+v", got)
	}

	_, err = s.Fetch(context.Background(), Request{Resource: ResourceForward, ResID: "res-1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other resource, got %v", err)
	}
	_, err = s.Fetch(context.Background(), Request{Resource: ResourceLong})
	if !errors.Is(err, ErrInvalidResID) {
		t.Fatalf("expected ErrInvalidResID, got %v", err)
	}
}

func TestStaticFetchHonorsCancellation(t *testing.T) {
	testlog.Start(t)
	s := NewStatic()
	s.Put(ResourceLong, "res-1", body("x"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Fetch(ctx, Request{Resource: ResourceLong, ResID: "res-1"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRateLimitedCancelWhileWaiting(t *testing.T) {
	testlog.Start(t)
	var calls atomic.Int32
	next := FetcherFunc(func(ctx context.Context, req Request) ([]wire.Message, error) {
		calls.Add(1)
		return body("ok"), nil
	})
	r := NewRateLimited(next, 0.001, 1)
	req := Request{Resource: ResourceForward, ResID: "fwd"}

	if _, err := r.Fetch(context.Background(), req); err != nil {
		t.Fatalf("first fetch should use burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Fetch(ctx, req); err == nil {
		t.Fatalf("expected limiter wait to fail under deadline")
	}
	if calls.Load() != 1 {
		t.Fatalf("throttled fetch must not reach next, calls=%d", calls.Load())
	}
}

func TestRateLimitedUnlimited(t *testing.T) {
	testlog.Start(t)
	s := NewStatic()
	s.Put(ResourceLong, "a", body("a"))
	r := NewRateLimited(s, 0, 0)
	for i := 0; i < 5; i++ {
		if _, err := r.Fetch(context.Background(), Request{Resource: ResourceLong, ResID: "a"}); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
}

func TestRedisCacheStoresAndServes(t *testing.T) {
	testlog.Start(t)
	mr := miniredis.RunT(t)

	var calls atomic.Int32
	next := FetcherFunc(func(ctx context.Context, req Request) ([]wire.Message, error) {
		calls.Add(1)
		return body("cached body"), nil
	})
	c, err := NewRedisCache(RedisSettings{Addr: mr.Addr(), TTL: time.Minute}, next)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer c.Close()

	req := Request{Resource: ResourceLong, ResID: "res-9"}
	first, err := c.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := c.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", calls.Load())
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cached body differs:\n%+v\n%+v", first, second)
	}
	if !mr.Exists("msgchain:fetch:long:res-9") {
		t.Fatalf("expected cache key to be written")
	}
}

func TestRedisCacheUnreadableEntryFallsThrough(t *testing.T) {
	testlog.Start(t)
	mr := miniredis.RunT(t)
	if err := mr.Set("msgchain:fetch:forward:bad", "garbage"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := NewStatic()
	s.Put(ResourceForward, "bad", body("fresh"))
	c, err := NewRedisCache(RedisSettings{Addr: mr.Addr()}, s)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer c.Close()

	got, err := c.Fetch(context.Background(), Request{Resource: ResourceForward, ResID: "bad"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !reflect.DeepEqual(got, body("fresh")) {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestRedisCachePropagatesUpstreamError(t *testing.T) {
	testlog.Start(t)
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(RedisSettings{Addr: mr.Addr()}, NewStatic())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer c.Close()
	_, err = c.Fetch(context.Background(), Request{Resource: ResourceLong, ResID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mr.Exists("msgchain:fetch:long:missing") {
		t.Fatalf("failed fetch must not be cached")
	}
}

func TestNewRedisCacheRequiresAddr(t *testing.T) {
	testlog.Start(t)
	if _, err := NewRedisCache(RedisSettings{}, NewStatic()); err == nil {
		t.Fatalf("expected missing addr error")
	}
}
