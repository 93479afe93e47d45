package units

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/msgchain/internal/message"
	"github.com/danmuck/msgchain/internal/protocol"
	"github.com/danmuck/msgchain/internal/wire"
	"github.com/danmuck/msgchain/internal/wire/tlv"
)

// Common element payload attributes.
const (
	attrPokeType uint16 = 1
	attrPokeID   uint16 = 2
	attrPokeName uint16 = 3

	attrVipID    uint16 = 1
	attrVipName  uint16 = 2
	attrVipCount uint16 = 3
)

const (
	diceTabID      int32 = 11464
	diceSubType    int32 = 3
	diceName             = "[骰子]"
	diceParamValue       = "value="
)

var diceFaceID, _ = hex.DecodeString("4823d3adb15df08014ce5d6796b76ee1")

// Special decodes pokes, vip faces and market faces. Dice are market
// faces refined from their parameter string.
type Special struct{}

func (Special) Name() string { return "special" }

func (Special) DecodeElement(dc *protocol.DecodeContext, e wire.Element) bool {
	switch v := e.(type) {
	case wire.CommonElem:
		return decodeCommon(dc, v)
	case wire.MarketFace:
		dc.Add(message.MarketFace{
			FaceID:  v.FaceID,
			TabID:   v.TabID,
			Name:    v.Name,
			SubType: v.SubType,
			Param:   v.Param,
		})
		return true
	default:
		return false
	}
}

func decodeCommon(dc *protocol.DecodeContext, c wire.CommonElem) bool {
	if c.ServiceType != wire.CommonServicePoke && c.ServiceType != wire.CommonServiceVipFace {
		return false
	}
	fields, err := tlv.DecodeFields(c.Payload)
	if err != nil {
		return false
	}
	r := tlv.NewReader(fields)

	var out message.Component
	if c.ServiceType == wire.CommonServicePoke {
		out = message.PokeMessage{
			Name:     r.String(attrPokeName),
			PokeType: int32(r.U32(attrPokeType)),
			ID:       int32(r.U32(attrPokeID)),
		}
	} else {
		out = message.VipFace{
			Kind:  message.VipFaceKind{ID: int32(r.U32(attrVipID)), Name: r.String(attrVipName)},
			Count: int32(r.U32(attrVipCount)),
		}
	}
	if r.Err() != nil {
		return false
	}
	dc.Add(out)
	return true
}

func (Special) EncodeComponent(ec *protocol.EncodeContext, c message.Component) (bool, error) {
	switch v := c.(type) {
	case message.PokeMessage:
		ec.Emit(
			wire.CommonElem{
				ServiceType:  wire.CommonServicePoke,
				BusinessType: v.PokeType,
				Payload: tlv.EncodeFields([]tlv.Field{
					tlv.U32(attrPokeType, uint32(v.PokeType)),
					tlv.U32(attrPokeID, uint32(v.ID)),
					tlv.String(attrPokeName, v.Name),
				}),
			},
			wire.Text{Str: protocol.UnsupportedPokeText},
		)
	case message.VipFace:
		ec.Emit(wire.CommonElem{
			ServiceType:  wire.CommonServiceVipFace,
			BusinessType: 1,
			Payload: tlv.EncodeFields([]tlv.Field{
				tlv.U32(attrVipID, uint32(v.Kind.ID)),
				tlv.String(attrVipName, v.Kind.Name),
				tlv.U32(attrVipCount, uint32(v.Count)),
			}),
		})
		// decoders strip the caption by length alone
		if caption, ok := protocol.VipFaceCaption(v); ok {
			ec.Emit(wire.Text{Str: caption})
		}
	case message.MarketFace:
		ec.Emit(wire.MarketFace{
			FaceID:  v.FaceID,
			TabID:   v.TabID,
			Name:    v.Name,
			SubType: v.SubType,
			Param:   v.Param,
		})
	case message.Dice:
		if v.Value < 1 || v.Value > 6 {
			return true, fmt.Errorf("dice value %d out of range", v.Value)
		}
		ec.Emit(wire.MarketFace{
			FaceID:  diceFaceID,
			TabID:   diceTabID,
			Name:    diceName,
			SubType: diceSubType,
			Param:   "rscType?1;" + diceParamValue + strconv.Itoa(int(v.Value-1)),
		})
	default:
		return false, nil
	}
	return true, nil
}

// RefineLight turns dice market faces into Dice.
func (Special) RefineLight(_ *protocol.LightEnv, c message.Component) (message.Chain, bool) {
	mf, ok := c.(message.MarketFace)
	if !ok || mf.TabID != diceTabID {
		return message.Chain{}, false
	}
	value, ok := diceValue(mf.Param)
	if !ok {
		return message.Chain{}, false
	}
	return message.NewChain(message.Dice{Value: value}), true
}

func diceValue(param string) (int32, bool) {
	i := strings.LastIndex(param, diceParamValue)
	if i < 0 {
		return 0, false
	}
	raw := param[i+len(diceParamValue):]
	if end := strings.IndexByte(raw, ';'); end >= 0 {
		raw = raw[:end]
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > 5 {
		return 0, false
	}
	return int32(n + 1), true
}
