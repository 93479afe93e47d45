package units

import (
	"github.com/danmuck/msgchain/internal/message"
	"github.com/danmuck/msgchain/internal/protocol"
	"github.com/danmuck/msgchain/internal/wire"
)

// Flags appends the general flags element when the caller asks for it.
// Inbound flag elements carry no content and are left to the facade.
type Flags struct{}

func (Flags) Name() string { return "flags" }

func (Flags) FinishEncode(ec *protocol.EncodeContext) error {
	if !ec.Options.WithGeneralFlags {
		return nil
	}
	flags := wire.GeneralFlags{}
	for i := 0; i < ec.Chain.Len(); i++ {
		if ref, ok := ec.Chain.At(i).(message.LongMessageRef); ok {
			flags.LongTextResID = ref.ResID
			break
		}
	}
	ec.Emit(flags)
	return nil
}
