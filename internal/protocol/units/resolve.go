package units

import (
	"context"
	"fmt"

	"github.com/danmuck/msgchain/internal/fetch"
	"github.com/danmuck/msgchain/internal/message"
	"github.com/danmuck/msgchain/internal/protocol"
	"github.com/danmuck/msgchain/internal/wire"
)

// RefineDeep fetches the bodies behind long and forward placeholders.
// A long message is replaced by its decoded content in place; a forward
// placeholder becomes a ForwardMessage with one node per fetched message.
func (Rich) RefineDeep(ctx context.Context, env *protocol.DeepEnv, c message.Component) (message.Chain, bool, error) {
	switch v := c.(type) {
	case message.LongMessageRef:
		msgs, err := fetchBody(ctx, env, fetch.ResourceLong, v.ResID)
		if err != nil {
			return message.Chain{}, false, err
		}
		b := message.NewBuilder()
		for _, m := range msgs {
			chain, err := env.DecodeMessage(ctx, m)
			if err != nil {
				return message.Chain{}, false, err
			}
			b.AddChain(chain)
		}
		return b.Build(), true, nil

	case message.ForwardMessageRef:
		msgs, err := fetchBody(ctx, env, fetch.ResourceForward, v.ResID)
		if err != nil {
			return message.Chain{}, false, err
		}
		fwd := message.ForwardMessage{ResID: v.ResID, Nodes: make([]message.ForwardNode, 0, len(msgs))}
		for _, m := range msgs {
			chain, err := env.DecodeMessage(ctx, m)
			if err != nil {
				return message.Chain{}, false, err
			}
			fwd.Nodes = append(fwd.Nodes, message.ForwardNode{
				SenderID:   m.Head.FromID,
				SenderName: senderName(m),
				Time:       m.Head.Time,
				Chain:      chain,
			})
		}
		return message.NewChain(fwd), true, nil

	default:
		return message.Chain{}, false, nil
	}
}

func fetchBody(ctx context.Context, env *protocol.DeepEnv, res fetch.Resource, resID string) ([]wire.Message, error) {
	msgs, err := env.Fetch(ctx, res, resID)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: %s %s is empty", fetch.ErrNotFound, res, resID)
	}
	return msgs, nil
}

func senderName(m wire.Message) string {
	for _, e := range m.Elems {
		if info, ok := e.(wire.ExtraInfo); ok && info.Nick != "" {
			return info.Nick
		}
	}
	return ""
}
