package units

import (
	"strconv"

	"github.com/danmuck/msgchain/internal/message"
	"github.com/danmuck/msgchain/internal/protocol"
	"github.com/danmuck/msgchain/internal/wire"
)

const atAllText = "@全体成员"

// Text decodes plain text and mentions.
type Text struct{}

func (Text) Name() string { return "text" }

func (Text) DecodeElement(dc *protocol.DecodeContext, e wire.Element) bool {
	t, ok := e.(wire.Text)
	if !ok {
		return false
	}
	switch {
	case t.Mention == nil:
		dc.Add(message.PlainText{Text: t.Str})
	case t.Mention.All:
		dc.Add(message.AtAll{})
	default:
		dc.Add(message.At{Target: t.Mention.TargetID, Display: t.Str})
	}
	return true
}

func (Text) EncodeComponent(ec *protocol.EncodeContext, c message.Component) (bool, error) {
	switch v := c.(type) {
	case message.PlainText:
		ec.Emit(wire.Text{Str: v.Text})
	case message.At:
		ec.Emit(mention(v.Target, v.Display))
	case message.AtAll:
		ec.Emit(wire.Text{Str: atAllText, Mention: &wire.MentionAttr{All: true}})
	default:
		return false, nil
	}
	return true, nil
}

func mention(target int64, display string) wire.Text {
	if display == "" {
		display = "@" + strconv.FormatInt(target, 10)
	}
	return wire.Text{Str: display, Mention: &wire.MentionAttr{TargetID: target}}
}
