package protocol

import (
	"fmt"

	"github.com/danmuck/msgchain/internal/message"
	"github.com/danmuck/msgchain/internal/observability"
	"github.com/danmuck/msgchain/internal/wire"
)

// SourceMode selects whether the assembler prepends a MessageSource.
type SourceMode uint8

const (
	// SourceNone is manual reconstruction: no source is inserted.
	SourceNone SourceMode = iota
	// SourceOnline synthesizes a live-delivery source and enables deep refine.
	SourceOnline
	// SourceOffline synthesizes an offline source for persisted or forwarded batches.
	SourceOffline
)

func (m SourceMode) String() string {
	switch m {
	case SourceNone:
		return "none"
	case SourceOnline:
		return "online"
	case SourceOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// SynthesizeSource builds the MessageSource for a batch. IDs and
// InternalIDs carry one entry per batch item; timing and sender come from
// the first item.
func SynthesizeSource(msgs []wire.Message, online bool, kind message.SourceKind, groupID int64, bot Identity) (message.MessageSource, error) {
	variant, err := message.SelectSourceVariant(online, kind)
	if err != nil {
		return message.MessageSource{}, err
	}
	if len(msgs) == 0 {
		return message.MessageSource{}, fmt.Errorf("%w: empty batch", ErrInvalidRequest)
	}

	src := message.MessageSource{
		Variant:     variant,
		Kind:        kind,
		IDs:         make([]int32, 0, len(msgs)),
		InternalIDs: make([]int32, 0, len(msgs)),
		Time:        msgs[0].Head.Time,
		FromID:      msgs[0].Head.FromID,
		BotID:       bot.ID,
	}
	for _, m := range msgs {
		src.IDs = append(src.IDs, m.Head.Seq)
		src.InternalIDs = append(src.InternalIDs, m.Head.Random)
	}

	if kind == message.KindGroup {
		src.TargetID = groupID
		if src.TargetID == 0 {
			src.TargetID = msgs[0].Head.GroupID
		}
	} else {
		src.TargetID = msgs[0].Head.ToID
	}
	return src, nil
}

// assemble produces the raw chain for a batch: optional source, every
// element in batch order, then the trailing audio fields.
func (f *Facade) assemble(req DecodeRequest) (message.Chain, error) {
	b := message.NewBuilder()

	switch {
	case req.Preset != nil:
		b.Add(*req.Preset)
	case req.Source != SourceNone:
		src, err := SynthesizeSource(req.Messages, req.Source == SourceOnline, req.Kind, req.GroupID, req.Bot)
		if err != nil {
			return message.Chain{}, err
		}
		b.Add(src)
	}

	dc := f.decodeContext(req.GroupID, req.Kind, req.Bot, b, req.Refine)
	for _, m := range req.Messages {
		for _, e := range m.Elems {
			f.dispatch(dc, e)
		}
	}
	for _, m := range req.Messages {
		if m.Ptt != nil {
			f.dispatch(dc, *m.Ptt)
		}
	}
	return b.Build(), nil
}

func (f *Facade) decodeContext(groupID int64, kind message.SourceKind, bot Identity, b *message.Builder, rc message.RefineContext) *DecodeContext {
	dc := &DecodeContext{
		GroupID: groupID,
		Kind:    kind,
		Bot:     bot,
		Builder: b,
	}
	dc.nested = func(elems []wire.Element) message.Chain {
		nb := message.NewBuilder()
		ndc := f.decodeContext(groupID, kind, bot, nb, rc)
		for _, e := range elems {
			f.dispatch(ndc, e)
		}
		cleanupBuilder(nb)
		return f.refineLight(nb.Build(), &LightEnv{Bot: bot, Refine: rc})
	}
	return dc
}

// dispatch offers e to every decoder in registration order until one
// claims it. Unclaimed elements are dropped.
func (f *Facade) dispatch(dc *DecodeContext, e wire.Element) {
	for _, d := range f.registry.decoders {
		if d.DecodeElement(dc, e) {
			return
		}
	}

	reason := "unclaimed"
	if wire.IsMetadata(e) {
		reason = "metadata"
	} else if _, ok := e.(wire.Unknown); ok {
		reason = "unknown"
	}
	f.decodeTrace.Debug().
		Str("tag", e.Tag().String()).
		Str("reason", reason).
		Msg("element ignored")
	if reason != "metadata" {
		observability.RecordIgnoredElement(e.Tag().String(), reason)
	}
}
