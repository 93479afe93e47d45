package units

import (
	"github.com/danmuck/msgchain/internal/message"
	"github.com/danmuck/msgchain/internal/protocol"
	"github.com/danmuck/msgchain/internal/wire"
)

// Quote decodes reply references into QuoteReply with an offline source.
type Quote struct{}

func (Quote) Name() string { return "quote" }

func (Quote) DecodeElement(dc *protocol.DecodeContext, e wire.Element) bool {
	s, ok := e.(wire.SourceMsg)
	if !ok {
		return false
	}
	target := s.GroupID
	if target == 0 {
		target = dc.GroupID
	}
	dc.Add(message.QuoteReply{Source: message.MessageSource{
		Variant:  message.VariantOffline,
		Kind:     dc.Kind,
		IDs:      s.OrigSeqs,
		Time:     s.Time,
		FromID:   s.SenderID,
		TargetID: target,
		BotID:    dc.Bot.ID,
		Original: dc.DecodeNested(s.Elems),
	}})
	return true
}

// EncodeComponent emits the reference and, for group targets outside a
// forward bundle, the mention of the quoted sender and a separating space
// that group clients expect.
func (Quote) EncodeComponent(ec *protocol.EncodeContext, c message.Component) (bool, error) {
	q, ok := c.(message.QuoteReply)
	if !ok {
		return false, nil
	}
	original, err := ec.EncodeNested(q.Source.Original)
	if err != nil {
		return true, err
	}
	ec.Emit(wire.SourceMsg{
		OrigSeqs: q.Source.IDs,
		SenderID: q.Source.FromID,
		GroupID:  q.Source.TargetID,
		Time:     q.Source.Time,
		Elems:    original,
	})
	if ec.Target.Kind == message.KindGroup && !ec.Options.IsForward {
		ec.Emit(mention(q.Source.FromID, ""), wire.Text{Str: " "})
	}
	return true, nil
}
