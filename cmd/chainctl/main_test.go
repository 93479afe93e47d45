package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/danmuck/msgchain/internal/config"
	"github.com/danmuck/msgchain/internal/fetch"
	"github.com/danmuck/msgchain/internal/protocol"
	"github.com/danmuck/msgchain/internal/testutil/testlog"
	"github.com/danmuck/msgchain/internal/wire"
)

func writeBatch(t *testing.T, path string, msgs []wire.Message) {
	t.Helper()
	if err := os.WriteFile(path, wire.EncodeMessages(msgs), 0o600); err != nil {
		t.Fatalf("write batch: %v", err)
	}
}

func forwardBatch() []wire.Message {
	return []wire.Message{{
		Head: wire.Head{FromID: 5, GroupID: 900, Seq: 1, Time: 10},
		Elems: []wire.Element{
			wire.Text{Str: "see "},
			wire.RichMsg{ServiceID: 35, Template: `<msg m_resid="fw-1" m_fileName="bundle"></msg>`},
		},
	}}
}

func TestRunDecodeResolvesForwardFromBodies(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	bodies := filepath.Join(dir, "bodies")
	if err := os.Mkdir(bodies, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeBatch(t, filepath.Join(bodies, fetch.BodyFileName(fetch.ResourceForward, "fw-1")), []wire.Message{{
		Head:  wire.Head{FromID: 8, Time: 11},
		Elems: []wire.Element{wire.ExtraInfo{Nick: "Alice"}, wire.Text{Str: "inside"}},
	}})
	in := filepath.Join(dir, "batch.bin")
	writeBatch(t, in, forwardBatch())

	var out bytes.Buffer
	opts := options{in: in, bodies: bodies, kind: "group", group: 900, bot: 1, online: true}
	if err := runDecode(context.Background(), opts, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := out.String()
	for _, want := range []string{"source variant=online.group", `plain_text "see "`, "forward res=fw-1 nodes=1", `name="Alice"`, `plain_text "inside"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunDecodeOnlineWithoutBodiesFails(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "batch.bin")
	writeBatch(t, in, forwardBatch())

	err := runDecode(context.Background(), options{in: in, kind: "group", online: true}, &bytes.Buffer{})
	if !errors.Is(err, protocol.ErrNoFetcher) {
		t.Fatalf("expected ErrNoFetcher, got %v", err)
	}
}

func TestRunDecodeJSON(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "batch.bin")
	writeBatch(t, in, []wire.Message{{Elems: []wire.Element{wire.Text{Str: "hi"}, wire.Face{Index: 2}}}})

	var out bytes.Buffer
	if err := runDecode(context.Background(), options{in: in, kind: "friend", asJSON: true}, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], `"type":"plain_text"`) || !strings.Contains(lines[1], `"type":"face"`) {
		t.Fatalf("unexpected json output:\n%s", out.String())
	}
}

func TestRunDecodeRejectsBadInput(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.bin")
	if err := os.WriteFile(bad, []byte("nope"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := runDecode(context.Background(), options{in: bad, kind: "group"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for corrupt batch")
	}
	if err := runDecode(context.Background(), options{in: bad, kind: "channel"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if err := runDecode(context.Background(), options{kind: "group"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error without -in")
	}
}

func TestRunEncodeWritesBatch(t *testing.T) {
	testlog.Start(t)
	out := filepath.Join(t.TempDir(), "out.bin")
	var buf bytes.Buffer
	opts := options{text: "hello", kind: "group", group: 900, out: out, flags: true}
	if err := runEncode(context.Background(), opts, &buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(buf.String(), "elements=2") || !strings.Contains(buf.String(), `plain_text "hello"`) {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	batch, err := wire.DecodeMessages(data)
	if err != nil || len(batch) != 1 || len(batch[0].Elems) != 2 {
		t.Fatalf("unexpected batch: %+v, %v", batch, err)
	}
}

func TestBuildFacadeSelectsUnits(t *testing.T) {
	testlog.Start(t)
	cfg := config.DefaultConfig()
	cfg.Units = []string{"text", "flags"}
	f, err := buildFacade(cfg, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if names := f.Units(); len(names) != 2 || names[0] != "text" || names[1] != "flags" {
		t.Fatalf("unexpected units: %v", names)
	}
	cfg.Units = []string{"telepathy"}
	if _, err := buildFacade(cfg, nil); !errors.Is(err, protocol.ErrInvalidUnit) {
		t.Fatalf("expected ErrInvalidUnit, got %v", err)
	}
}

func TestBuildFetcherWithRedisCache(t *testing.T) {
	testlog.Start(t)
	mr := miniredis.RunT(t)
	bodies := t.TempDir()
	writeBatch(t, filepath.Join(bodies, fetch.BodyFileName(fetch.ResourceLong, "l1")), []wire.Message{{
		Elems: []wire.Element{wire.Text{Str: "cached"}},
	}})

	cfg := config.DefaultConfig()
	cfg.Fetch.Redis.Addr = mr.Addr()
	cfg.Fetch.RatePerSecond = 100
	cfg.Fetch.Burst = 10
	f, closer, err := buildFetcher(cfg, bodies)
	if err != nil {
		t.Fatalf("build fetcher: %v", err)
	}
	defer closer()

	req := fetch.Request{Resource: fetch.ResourceLong, ResID: "l1"}
	if _, err := f.Fetch(context.Background(), req); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if err := os.Remove(filepath.Join(bodies, fetch.BodyFileName(fetch.ResourceLong, "l1"))); err != nil {
		t.Fatalf("remove body: %v", err)
	}
	msgs, err := f.Fetch(context.Background(), req)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("expected cached body, got %+v, %v", msgs, err)
	}
}

func TestBuildFetcherWithoutBodies(t *testing.T) {
	testlog.Start(t)
	f, closer, err := buildFetcher(config.DefaultConfig(), "")
	if err != nil || f != nil {
		t.Fatalf("expected no fetcher, got %v, %v", f, err)
	}
	if err := closer(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
