package message

import (
	"errors"
	"testing"

	"github.com/danmuck/msgchain/internal/testutil/testlog"
)

func TestBuilderInsertRemoveSet(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder(PlainText{Text: "a"}, PlainText{Text: "c"})
	b.Insert(1, PlainText{Text: "b"})
	b.Insert(0, Face{ID: 1})
	if got := b.Build().ContentString(); got != "[face:1]abc" {
		t.Fatalf("unexpected content after insert: %q", got)
	}
	removed := b.Remove(0)
	if removed.Type() != TypeFace {
		t.Fatalf("unexpected removed component: %T", removed)
	}
	b.Set(2, PlainText{Text: "z"})
	if got := b.Build().ContentString(); got != "abz" {
		t.Fatalf("unexpected content after set: %q", got)
	}
	if b.IndexOf(TypePlainText, 1) != 1 || b.IndexOf(TypeAudio, 0) != -1 {
		t.Fatalf("unexpected IndexOf results")
	}
}

func TestBuilderSplice(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder(PlainText{Text: "a"}, LongMessageRef{ResID: "r"}, PlainText{Text: "d"})
	b.Splice(1, NewChain(PlainText{Text: "b"}, PlainText{Text: "c"}))
	if b.Len() != 4 || b.Build().ContentString() != "abcd" {
		t.Fatalf("unexpected splice result: %q", b.Build().ContentString())
	}
}

func TestChainIsImmutable(t *testing.T) {
	testlog.Start(t)
	src := []Component{PlainText{Text: "x"}}
	c := NewChain(src...)
	src[0] = PlainText{Text: "mutated"}
	if c.At(0).(PlainText).Text != "x" {
		t.Fatalf("chain must not alias constructor input")
	}

	b := c.Builder()
	b.Set(0, PlainText{Text: "y"})
	if c.At(0).(PlainText).Text != "x" {
		t.Fatalf("chain must not alias builder")
	}

	out := c.Components()
	out[0] = AtAll{}
	if c.At(0).Type() != TypePlainText {
		t.Fatalf("chain must not alias Components() copy")
	}
}

func TestChainSourceAndEqual(t *testing.T) {
	testlog.Start(t)
	src := MessageSource{Variant: VariantOnlineGroup, Kind: KindGroup, IDs: []int32{1}}
	c := NewChain(src, PlainText{Text: "hi"})
	got, ok := c.Source()
	if !ok || got.Variant != VariantOnlineGroup {
		t.Fatalf("expected source at index 0")
	}
	if !c.Equal(NewChain(MessageSource{Variant: VariantOnlineGroup, Kind: KindGroup, IDs: []int32{1}}, PlainText{Text: "hi"})) {
		t.Fatalf("expected structural equality")
	}
	if c.Equal(c.WithoutSource()) {
		t.Fatalf("chains of different length must differ")
	}
	if _, ok := c.WithoutSource().Source(); ok {
		t.Fatalf("WithoutSource must drop the source")
	}
	if !NewChain().Equal(Chain{}) {
		t.Fatalf("empty chains must be equal")
	}
}

func TestSelectSourceVariant(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		online bool
		kind   SourceKind
		want   SourceVariant
	}{
		{true, KindGroup, VariantOnlineGroup},
		{true, KindFriend, VariantOnlineFriend},
		{true, KindTemp, VariantOnlineTemp},
		{true, KindStranger, VariantOnlineStranger},
		{false, KindGroup, VariantOffline},
		{false, KindStranger, VariantOffline},
	}
	for _, tc := range cases {
		got, err := SelectSourceVariant(tc.online, tc.kind)
		if err != nil {
			t.Fatalf("select(%v,%s): %v", tc.online, tc.kind, err)
		}
		if got != tc.want {
			t.Fatalf("select(%v,%s): got %s want %s", tc.online, tc.kind, got, tc.want)
		}
	}
	for _, bad := range []SourceKind{0, 5, 200} {
		if _, err := SelectSourceVariant(true, bad); !errors.Is(err, ErrUnknownSourceKind) {
			t.Fatalf("expected ErrUnknownSourceKind for %d, got %v", bad, err)
		}
	}
}

func TestRefineContext(t *testing.T) {
	testlog.Start(t)
	rc := EmptyRefineContext
	if _, ok := Get(rc, KeyGroupID); ok {
		t.Fatalf("empty context must not hold values")
	}
	next := With(rc, KeyGroupID, int64(42))
	if v, ok := Get(next, KeyGroupID); !ok || v != 42 {
		t.Fatalf("unexpected group id: %d ok=%v", v, ok)
	}
	if rc.Len() != 0 {
		t.Fatalf("With must not mutate the receiver context")
	}
	if GetOr(next, KeyFetchDepth, 3) != 3 {
		t.Fatalf("GetOr must fall back to default")
	}
	other := NewKey[int64]("group_id")
	if _, ok := Get(next, other); ok {
		t.Fatalf("keys with equal names must stay distinct")
	}
}
