package protocol

import (
	"context"

	"github.com/danmuck/msgchain/internal/message"
	"github.com/danmuck/msgchain/internal/wire"
)

// DefaultMaxForwardDepth bounds nested long/forward resolution.
const DefaultMaxForwardDepth = 4

// refineLight rewrites components in chain order. A replacement is not
// offered to the light refiners again.
func (f *Facade) refineLight(c message.Chain, env *LightEnv) message.Chain {
	if len(f.registry.light) == 0 {
		return c
	}
	b := c.Builder()
	for i := 0; i < b.Len(); i++ {
		comp := b.At(i)
		for _, r := range f.registry.light {
			out, ok := r.RefineLight(env, comp)
			if !ok {
				continue
			}
			b.Remove(i)
			b.Splice(i, out)
			i += out.Len() - 1
			break
		}
	}
	return b.Build()
}

// refineDeep resolves placeholders one at a time in chain order. The
// first failure aborts the pass and the input chain is discarded.
func (f *Facade) refineDeep(ctx context.Context, c message.Chain, env *DeepEnv) (message.Chain, error) {
	if len(f.registry.deep) == 0 {
		return c, nil
	}
	b := c.Builder()
	for i := 0; i < b.Len(); i++ {
		comp := b.At(i)
		for _, r := range f.registry.deep {
			if err := ctx.Err(); err != nil {
				return message.Chain{}, RefineError{Index: i, Type: comp.Type(), Err: err}
			}
			out, ok, err := r.RefineDeep(ctx, env, comp)
			if err != nil {
				return message.Chain{}, RefineError{Index: i, Type: comp.Type(), Err: err}
			}
			if !ok {
				continue
			}
			f.decodeTrace.Debug().
				Str("type", string(comp.Type())).
				Int("index", i).
				Int("replacement_len", out.Len()).
				Msg("placeholder resolved")
			b.Remove(i)
			b.Splice(i, out)
			i += out.Len() - 1
			break
		}
	}
	// spliced bodies can border existing text
	compressPlainText(b)
	return b.Build(), nil
}

func (f *Facade) deepEnv(req DecodeRequest) *DeepEnv {
	env := &DeepEnv{
		Bot:     req.Bot,
		Kind:    req.Kind,
		GroupID: req.GroupID,
		Refine:  req.Refine,
		Fetcher: f.fetcher,
	}
	env.decode = f.decodeFetched(req)
	return env
}

// decodeFetched decodes a retrieved message without a source. Placeholders
// inside it are resolved one level deeper until the depth limit.
func (f *Facade) decodeFetched(req DecodeRequest) func(context.Context, wire.Message, message.RefineContext) (message.Chain, error) {
	return func(ctx context.Context, m wire.Message, rc message.RefineContext) (message.Chain, error) {
		depth := message.GetOr(rc, message.KeyFetchDepth, 0) + 1
		nested := req
		nested.Messages = []wire.Message{m}
		nested.Source = SourceNone
		nested.Preset = nil
		nested.Refine = message.With(rc, message.KeyFetchDepth, depth)

		chain, err := f.assemble(nested)
		if err != nil {
			return message.Chain{}, err
		}
		chain = Cleanup(chain)
		chain = f.refineLight(chain, &LightEnv{Bot: nested.Bot, Refine: nested.Refine})
		if depth >= f.maxForwardDepth {
			return chain, nil
		}
		return f.refineDeep(ctx, chain, f.deepEnv(nested))
	}
}
