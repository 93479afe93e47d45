package protocol

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/msgchain/internal/fetch"
	"github.com/danmuck/msgchain/internal/message"
	"github.com/danmuck/msgchain/internal/observability"
	"github.com/danmuck/msgchain/internal/wire"
)

// Config wires the facade's collaborators.
type Config struct {
	// TraceDecode and TraceEncode enable debug events per direction on Tracer.
	TraceDecode bool
	TraceEncode bool
	// Tracer receives trace events; nil uses the global logger.
	Tracer *zerolog.Logger

	Fetcher         fetch.Fetcher
	MaxForwardDepth int
}

// Facade aggregates protocol units and runs the decode and encode pipelines.
// It holds no per-call state and is safe for concurrent use.
type Facade struct {
	registry        *Registry
	fetcher         fetch.Fetcher
	maxForwardDepth int

	decodeTrace zerolog.Logger
	encodeTrace zerolog.Logger
}

// New builds a facade over units in the given order.
func New(cfg Config, units ...Unit) (*Facade, error) {
	reg := NewRegistry()
	for _, u := range units {
		if err := reg.Register(u); err != nil {
			return nil, err
		}
	}

	f := &Facade{
		registry:        reg,
		fetcher:         cfg.Fetcher,
		maxForwardDepth: cfg.MaxForwardDepth,
		decodeTrace:     zerolog.Nop(),
		encodeTrace:     zerolog.Nop(),
	}
	if f.maxForwardDepth <= 0 {
		f.maxForwardDepth = DefaultMaxForwardDepth
	}

	tracer := log.Logger
	if cfg.Tracer != nil {
		tracer = *cfg.Tracer
	}
	if cfg.TraceDecode {
		f.decodeTrace = tracer.With().Str("trace", "decode").Logger()
	}
	if cfg.TraceEncode {
		f.encodeTrace = tracer.With().Str("trace", "encode").Logger()
	}
	return f, nil
}

// Units returns installed unit names in dispatch order.
func (f *Facade) Units() []string {
	return f.registry.Names()
}

// DecodeRequest is one inbound batch plus the context it was delivered in.
type DecodeRequest struct {
	Messages []wire.Message
	GroupID  int64
	Kind     message.SourceKind
	Bot      Identity
	Source   SourceMode
	// Preset is prepended as-is and replaces source synthesis.
	Preset *message.MessageSource
	Refine message.RefineContext
}

// Decode runs dispatch, assembly, cleanup and light refine. Chains
// synthesized from a live delivery are then deep refined; a failed deep
// refine returns an error wrapping ErrDeepRefine and no chain.
func (f *Facade) Decode(ctx context.Context, req DecodeRequest) (message.Chain, error) {
	start := time.Now()
	chain, err := f.decode(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.RecordDecode(req.Source.String(), outcome, time.Since(start))
	if err != nil {
		f.decodeTrace.Debug().Err(err).Str("mode", req.Source.String()).Msg("decode failed")
		return message.Chain{}, err
	}
	f.decodeTrace.Debug().
		Str("mode", req.Source.String()).
		Int("messages", len(req.Messages)).
		Int("components", chain.Len()).
		Msg("decoded")
	return chain, nil
}

func (f *Facade) decode(ctx context.Context, req DecodeRequest) (message.Chain, error) {
	if req.Source > SourceOffline {
		return message.Chain{}, fmt.Errorf("%w: source mode %d", ErrInvalidRequest, req.Source)
	}
	if req.GroupID != 0 {
		req.Refine = message.With(req.Refine, message.KeyGroupID, req.GroupID)
	}

	chain, err := f.assemble(req)
	if err != nil {
		return message.Chain{}, err
	}
	chain = Cleanup(chain)
	chain = f.refineLight(chain, &LightEnv{Bot: req.Bot, Refine: req.Refine})

	if req.Source != SourceOnline || req.Preset != nil {
		return chain, nil
	}
	if message.GetOr(req.Refine, message.KeyNoDeepRefine, false) {
		return chain, nil
	}
	return f.refineDeep(ctx, chain, f.deepEnv(req))
}

// DecodeOnline decodes a live delivery.
func (f *Facade) DecodeOnline(ctx context.Context, msgs []wire.Message, groupID int64, kind message.SourceKind, bot Identity, rc message.RefineContext) (message.Chain, error) {
	return f.Decode(ctx, DecodeRequest{
		Messages: msgs,
		GroupID:  groupID,
		Kind:     kind,
		Bot:      bot,
		Source:   SourceOnline,
		Refine:   rc,
	})
}

// DecodeOffline is the manual reconstruction path. src, when non-nil, is
// used as the chain's source. Deep refine never runs.
func (f *Facade) DecodeOffline(src *message.MessageSource, msgs []wire.Message, groupID int64, kind message.SourceKind, bot Identity, rc message.RefineContext) (message.Chain, error) {
	return f.Decode(context.Background(), DecodeRequest{
		Messages: msgs,
		GroupID:  groupID,
		Kind:     kind,
		Bot:      bot,
		Source:   SourceNone,
		Preset:   src,
		Refine:   rc,
	})
}

// Encode converts a chain to wire elements in chain order. A component no
// unit claims is skipped when optional and fails the call when required.
func (f *Facade) Encode(c message.Chain, target Target, opts EncodeOptions) ([]wire.Element, error) {
	ec := &EncodeContext{Chain: c, Target: target, Options: opts}
	ec.nested = func(nc message.Chain) ([]wire.Element, error) {
		return f.Encode(nc, target, EncodeOptions{IsForward: true})
	}

	for i := 0; i < c.Len(); i++ {
		comp := c.At(i)
		claimed, err := f.encodeComponent(ec, comp)
		if err != nil {
			observability.RecordEncode(string(comp.Type()), "error")
			return nil, fmt.Errorf("%w: %s at index %d: %w", ErrEncode, comp.Type(), i, err)
		}
		if claimed {
			observability.RecordEncode(string(comp.Type()), "ok")
			continue
		}
		if comp.Type().Required() {
			observability.RecordEncode(string(comp.Type()), "unencodable")
			return nil, UnencodableError{Index: i, Type: comp.Type()}
		}
		observability.RecordEncode(string(comp.Type()), "skipped")
		f.encodeTrace.Debug().
			Str("type", string(comp.Type())).
			Int("index", i).
			Msg("optional component skipped")
	}

	for _, fin := range f.registry.finishers {
		if err := fin.FinishEncode(ec); err != nil {
			return nil, fmt.Errorf("%w: finish: %w", ErrEncode, err)
		}
	}
	f.encodeTrace.Debug().
		Int("components", c.Len()).
		Int("elements", len(ec.out)).
		Bool("forward", opts.IsForward).
		Msg("encoded")
	return ec.out, nil
}

func (f *Facade) encodeComponent(ec *EncodeContext, comp message.Component) (bool, error) {
	for _, enc := range f.registry.encoders {
		ok, err := enc.EncodeComponent(ec, comp)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}
