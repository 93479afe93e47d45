package protocol

import (
	"context"
	"time"

	"github.com/danmuck/msgchain/internal/fetch"
	"github.com/danmuck/msgchain/internal/message"
	"github.com/danmuck/msgchain/internal/observability"
	"github.com/danmuck/msgchain/internal/wire"
)

// Identity is the active account the chain is decoded for.
type Identity struct {
	ID   int64
	Nick string
}

// Target is where an encoded chain is delivered.
type Target struct {
	Kind message.SourceKind
	ID   int64
}

type EncodeOptions struct {
	WithGeneralFlags bool
	IsForward        bool
}

// Unit is one pluggable protocol unit. A unit contributes behavior by
// implementing any of ElementDecoder, ComponentEncoder, EncodeFinisher,
// LightRefiner and DeepRefiner.
type Unit interface {
	Name() string
}

// ElementDecoder appends components for elements it recognizes and
// reports whether it claimed e. It must not perform I/O.
type ElementDecoder interface {
	DecodeElement(dc *DecodeContext, e wire.Element) bool
}

// ComponentEncoder emits wire elements for components it recognizes and
// reports whether it claimed c.
type ComponentEncoder interface {
	EncodeComponent(ec *EncodeContext, c message.Component) (bool, error)
}

// EncodeFinisher runs once after every component was encoded.
type EncodeFinisher interface {
	FinishEncode(ec *EncodeContext) error
}

// LightRefiner rewrites a component from data already present.
// Returning ok=false leaves c in place; an empty chain removes it.
type LightRefiner interface {
	RefineLight(env *LightEnv, c message.Component) (message.Chain, bool)
}

// DeepRefiner resolves a component that needs remote data.
type DeepRefiner interface {
	RefineDeep(ctx context.Context, env *DeepEnv, c message.Component) (message.Chain, bool, error)
}

// DecodeContext is the per-element decode input and output.
type DecodeContext struct {
	GroupID int64
	Kind    message.SourceKind
	Bot     Identity
	Builder *message.Builder

	nested func(elems []wire.Element) message.Chain
}

// Add appends components to the chain under construction.
func (dc *DecodeContext) Add(components ...message.Component) {
	dc.Builder.Add(components...)
}

// DecodeNested decodes elements into a standalone chain (dispatch, cleanup
// and light refine, no source).
func (dc *DecodeContext) DecodeNested(elems []wire.Element) message.Chain {
	if dc.nested == nil {
		return message.Chain{}
	}
	return dc.nested(elems)
}

// EncodeContext is the per-chain encode state.
type EncodeContext struct {
	Chain   message.Chain
	Target  Target
	Options EncodeOptions

	out    []wire.Element
	nested func(c message.Chain) ([]wire.Element, error)
}

func (ec *EncodeContext) Emit(elems ...wire.Element) {
	ec.out = append(ec.out, elems...)
}

// Elements returns what has been emitted so far.
func (ec *EncodeContext) Elements() []wire.Element {
	return ec.out
}

// EncodeNested encodes c with the same target, as forward content.
func (ec *EncodeContext) EncodeNested(c message.Chain) ([]wire.Element, error) {
	if ec.nested == nil {
		return nil, nil
	}
	return ec.nested(c)
}

type LightEnv struct {
	Bot    Identity
	Refine message.RefineContext
}

type DeepEnv struct {
	Bot     Identity
	Kind    message.SourceKind
	GroupID int64
	Refine  message.RefineContext
	Fetcher fetch.Fetcher

	decode func(ctx context.Context, m wire.Message, rc message.RefineContext) (message.Chain, error)
}

// Fetch retrieves the body behind a placeholder.
func (env *DeepEnv) Fetch(ctx context.Context, res fetch.Resource, resID string) ([]wire.Message, error) {
	if env.Fetcher == nil {
		return nil, ErrNoFetcher
	}
	start := time.Now()
	msgs, err := env.Fetcher.Fetch(ctx, fetch.Request{Resource: res, ResID: resID, Refine: env.Refine})
	observability.RecordFetch(string(res), time.Since(start), err == nil)
	return msgs, err
}

// DecodeMessage decodes one retrieved message on the offline path. Nested
// placeholders are resolved while the fetch depth stays under the limit.
func (env *DeepEnv) DecodeMessage(ctx context.Context, m wire.Message) (message.Chain, error) {
	if env.decode == nil {
		return message.Chain{}, nil
	}
	return env.decode(ctx, m, env.Refine)
}
