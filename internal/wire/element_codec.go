package wire

import (
	"github.com/danmuck/msgchain/internal/wire/tlv"
)

// Element attribute ids, scoped per element tag.
const (
	attrStr        uint16 = 1
	attrMentionID  uint16 = 2
	attrMentionAll uint16 = 3

	attrIndex uint16 = 1

	attrResID  uint16 = 1
	attrWidth  uint16 = 2
	attrHeight uint16 = 3
	attrSize   uint16 = 4
	attrMD5    uint16 = 5

	attrOrigSeq  uint16 = 1
	attrSender   uint16 = 2
	attrGroup    uint16 = 3
	attrTime     uint16 = 4
	attrNestElem uint16 = 5

	attrFileName uint16 = 1
	attrPttMD5   uint16 = 2
	attrPttSize  uint16 = 3
	attrCodec    uint16 = 4
	attrSeconds  uint16 = 5
	attrURL      uint16 = 6

	attrData uint16 = 1

	attrServiceID uint16 = 1
	attrTemplate  uint16 = 2

	attrServiceType  uint16 = 1
	attrBusinessType uint16 = 2
	attrPayload      uint16 = 3

	attrFaceID  uint16 = 1
	attrTabID   uint16 = 2
	attrName    uint16 = 3
	attrSubType uint16 = 4
	attrParam   uint16 = 5

	attrLongTextResID uint16 = 1
	attrPbReserve     uint16 = 2

	attrRaw uint16 = 1

	attrNick  uint16 = 1
	attrLevel uint16 = 2
)

// EncodeElement renders e as a single nested TLV field keyed by its tag.
func EncodeElement(e Element) tlv.Field {
	id := uint16(e.Tag())
	switch v := e.(type) {
	case Text:
		fs := []tlv.Field{tlv.String(attrStr, v.Str)}
		if v.Mention != nil {
			fs = append(fs, tlv.U64(attrMentionID, uint64(v.Mention.TargetID)), tlv.Bool(attrMentionAll, v.Mention.All))
		}
		return tlv.Nested(id, fs)
	case Face:
		return tlv.Nested(id, []tlv.Field{tlv.U32(attrIndex, uint32(v.Index))})
	case Image:
		return tlv.Nested(id, []tlv.Field{
			tlv.String(attrResID, v.ResID),
			tlv.U32(attrWidth, uint32(v.Width)),
			tlv.U32(attrHeight, uint32(v.Height)),
			tlv.U64(attrSize, uint64(v.Size)),
			tlv.Bytes(attrMD5, v.MD5),
		})
	case SourceMsg:
		fs := make([]tlv.Field, 0, len(v.OrigSeqs)+len(v.Elems)+3)
		for _, seq := range v.OrigSeqs {
			fs = append(fs, tlv.U32(attrOrigSeq, uint32(seq)))
		}
		fs = append(fs,
			tlv.U64(attrSender, uint64(v.SenderID)),
			tlv.U64(attrGroup, uint64(v.GroupID)),
			tlv.U32(attrTime, uint32(v.Time)),
		)
		for _, inner := range v.Elems {
			fs = append(fs, tlv.Nested(attrNestElem, []tlv.Field{EncodeElement(inner)}))
		}
		return tlv.Nested(id, fs)
	case Ptt:
		return tlv.Nested(id, []tlv.Field{
			tlv.String(attrFileName, v.FileName),
			tlv.Bytes(attrPttMD5, v.MD5),
			tlv.U64(attrPttSize, uint64(v.Size)),
			tlv.U32(attrCodec, uint32(v.Codec)),
			tlv.U32(attrSeconds, uint32(v.Seconds)),
			tlv.String(attrURL, v.URL),
		})
	case LightApp:
		return tlv.Nested(id, []tlv.Field{tlv.Bytes(attrData, v.Data)})
	case RichMsg:
		return tlv.Nested(id, []tlv.Field{
			tlv.U32(attrServiceID, uint32(v.ServiceID)),
			tlv.String(attrTemplate, v.Template),
		})
	case CommonElem:
		return tlv.Nested(id, []tlv.Field{
			tlv.U32(attrServiceType, uint32(v.ServiceType)),
			tlv.U32(attrBusinessType, uint32(v.BusinessType)),
			tlv.Bytes(attrPayload, v.Payload),
		})
	case MarketFace:
		return tlv.Nested(id, []tlv.Field{
			tlv.Bytes(attrFaceID, v.FaceID),
			tlv.U32(attrTabID, uint32(v.TabID)),
			tlv.String(attrName, v.Name),
			tlv.U32(attrSubType, uint32(v.SubType)),
			tlv.String(attrParam, v.Param),
		})
	case GeneralFlags:
		return tlv.Nested(id, []tlv.Field{
			tlv.String(attrLongTextResID, v.LongTextResID),
			tlv.Bytes(attrPbReserve, v.PbReserve),
		})
	case ElemFlags2:
		return tlv.Nested(id, []tlv.Field{tlv.Bytes(attrRaw, v.Raw)})
	case ExtraInfo:
		return tlv.Nested(id, []tlv.Field{
			tlv.String(attrNick, v.Nick),
			tlv.U32(attrLevel, uint32(v.Level)),
		})
	case Unknown:
		return tlv.Field{ID: id, Type: tlv.TypeNested, Value: append([]byte(nil), v.Raw...)}
	default:
		return tlv.Field{ID: id, Type: tlv.TypeNested}
	}
}

// DecodeElement parses one element field. Unmodelled tags yield Unknown.
func DecodeElement(f tlv.Field) (Element, error) {
	if Tag(f.ID).String() == "unknown" {
		return Unknown{RawTag: Tag(f.ID), Raw: nilIfEmpty(f.Value)}, nil
	}
	if err := tlv.MustType(f, tlv.TypeNested); err != nil {
		return nil, err
	}
	fields, err := tlv.DecodeFields(f.Value)
	if err != nil {
		return nil, err
	}
	r := tlv.NewReader(fields)
	var e Element
	switch Tag(f.ID) {
	case TagText:
		t := Text{Str: r.String(attrStr)}
		if r.Has(attrMentionID) {
			t.Mention = &MentionAttr{TargetID: int64(r.U64(attrMentionID)), All: r.Bool(attrMentionAll)}
		}
		e = t
	case TagFace:
		e = Face{Index: int32(r.U32(attrIndex))}
	case TagImage:
		e = Image{
			ResID:  r.String(attrResID),
			Width:  int32(r.U32(attrWidth)),
			Height: int32(r.U32(attrHeight)),
			Size:   int64(r.U64(attrSize)),
			MD5:    nilIfEmpty(r.Bytes(attrMD5)),
		}
	case TagSourceMsg:
		s := SourceMsg{
			SenderID: int64(r.U64(attrSender)),
			GroupID:  int64(r.U64(attrGroup)),
			Time:     int32(r.U32(attrTime)),
		}
		for _, seq := range tlv.All(fields, attrOrigSeq) {
			v, err := tlv.U32FromBytes(seq.Value)
			if err != nil {
				return nil, err
			}
			s.OrigSeqs = append(s.OrigSeqs, int32(v))
		}
		for _, nested := range tlv.All(fields, attrNestElem) {
			inner, err := decodeWrapped(nested)
			if err != nil {
				return nil, err
			}
			s.Elems = append(s.Elems, inner)
		}
		e = s
	case TagPtt:
		e = Ptt{
			FileName: r.String(attrFileName),
			MD5:      nilIfEmpty(r.Bytes(attrPttMD5)),
			Size:     int64(r.U64(attrPttSize)),
			Codec:    int32(r.U32(attrCodec)),
			Seconds:  int32(r.U32(attrSeconds)),
			URL:      r.String(attrURL),
		}
	case TagLightApp:
		e = LightApp{Data: nilIfEmpty(r.Bytes(attrData))}
	case TagRichMsg:
		e = RichMsg{ServiceID: int32(r.U32(attrServiceID)), Template: r.String(attrTemplate)}
	case TagCommonElem:
		e = CommonElem{
			ServiceType:  int32(r.U32(attrServiceType)),
			BusinessType: int32(r.U32(attrBusinessType)),
			Payload:      nilIfEmpty(r.Bytes(attrPayload)),
		}
	case TagMarketFace:
		e = MarketFace{
			FaceID:  nilIfEmpty(r.Bytes(attrFaceID)),
			TabID:   int32(r.U32(attrTabID)),
			Name:    r.String(attrName),
			SubType: int32(r.U32(attrSubType)),
			Param:   r.String(attrParam),
		}
	case TagGeneralFlags:
		e = GeneralFlags{LongTextResID: r.String(attrLongTextResID), PbReserve: nilIfEmpty(r.Bytes(attrPbReserve))}
	case TagElemFlags2:
		e = ElemFlags2{Raw: nilIfEmpty(r.Bytes(attrRaw))}
	case TagExtraInfo:
		e = ExtraInfo{Nick: r.String(attrNick), Level: int32(r.U32(attrLevel))}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

func nilIfEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
