package wire

// Tag identifies a wire element variant on the binary contract.
type Tag uint16

// Element tags. Values are stable; new variants append.
const (
	TagText         Tag = 1
	TagFace         Tag = 2
	TagImage        Tag = 3
	TagSourceMsg    Tag = 4
	TagPtt          Tag = 5
	TagLightApp     Tag = 6
	TagRichMsg      Tag = 7
	TagCommonElem   Tag = 8
	TagMarketFace   Tag = 9
	TagGeneralFlags Tag = 10
	TagElemFlags2   Tag = 11
	TagExtraInfo    Tag = 12
)

func (t Tag) String() string {
	switch t {
	case TagText:
		return "text"
	case TagFace:
		return "face"
	case TagImage:
		return "image"
	case TagSourceMsg:
		return "source_msg"
	case TagPtt:
		return "ptt"
	case TagLightApp:
		return "light_app"
	case TagRichMsg:
		return "rich_msg"
	case TagCommonElem:
		return "common_elem"
	case TagMarketFace:
		return "market_face"
	case TagGeneralFlags:
		return "general_flags"
	case TagElemFlags2:
		return "elem_flags2"
	case TagExtraInfo:
		return "extra_info"
	default:
		return "unknown"
	}
}

// Element is one raw wire-format message fragment.
// The set of implementations is closed to this package.
type Element interface {
	Tag() Tag
	element()
}

// MentionAttr marks a Text element as a mention.
type MentionAttr struct {
	TargetID int64
	All      bool
}

type Text struct {
	Str     string
	Mention *MentionAttr
}

type Face struct {
	Index int32
}

type Image struct {
	ResID  string
	Width  int32
	Height int32
	Size   int64
	MD5    []byte
}

// SourceMsg references the message being replied to.
type SourceMsg struct {
	OrigSeqs []int32
	SenderID int64
	GroupID  int64
	Time     int32
	Elems    []Element
}

// Ptt is a voice fragment; it may also arrive as a batch item's trailing field.
type Ptt struct {
	FileName string
	MD5      []byte
	Size     int64
	Codec    int32
	Seconds  int32
	URL      string
}

// LightApp carries a JSON payload. Data[0] selects the encoding:
// 0 raw, 1 zlib.
type LightApp struct {
	Data []byte
}

type RichMsg struct {
	ServiceID int32
	Template  string
}

// Common element service types.
const (
	CommonServicePoke    int32 = 2
	CommonServiceVipFace int32 = 23
)

type CommonElem struct {
	ServiceType  int32
	BusinessType int32
	Payload      []byte
}

type MarketFace struct {
	FaceID  []byte
	TabID   int32
	Name    string
	SubType int32
	Param   string
}

type GeneralFlags struct {
	LongTextResID string
	PbReserve     []byte
}

type ElemFlags2 struct {
	Raw []byte
}

type ExtraInfo struct {
	Nick  string
	Level int32
}

// Unknown holds a tag this build does not model.
type Unknown struct {
	RawTag Tag
	Raw    []byte
}

func (Text) Tag() Tag         { return TagText }
func (Face) Tag() Tag         { return TagFace }
func (Image) Tag() Tag        { return TagImage }
func (SourceMsg) Tag() Tag    { return TagSourceMsg }
func (Ptt) Tag() Tag          { return TagPtt }
func (LightApp) Tag() Tag     { return TagLightApp }
func (RichMsg) Tag() Tag      { return TagRichMsg }
func (CommonElem) Tag() Tag   { return TagCommonElem }
func (MarketFace) Tag() Tag   { return TagMarketFace }
func (GeneralFlags) Tag() Tag { return TagGeneralFlags }
func (ElemFlags2) Tag() Tag   { return TagElemFlags2 }
func (ExtraInfo) Tag() Tag    { return TagExtraInfo }
func (u Unknown) Tag() Tag    { return u.RawTag }

func (Text) element()         {}
func (Face) element()         {}
func (Image) element()        {}
func (SourceMsg) element()    {}
func (Ptt) element()          {}
func (LightApp) element()     {}
func (RichMsg) element()      {}
func (CommonElem) element()   {}
func (MarketFace) element()   {}
func (GeneralFlags) element() {}
func (ElemFlags2) element()   {}
func (ExtraInfo) element()    {}
func (Unknown) element()      {}

// IsMetadata reports whether e carries only flags or metadata and
// never contributes a semantic component on its own.
func IsMetadata(e Element) bool {
	switch e.(type) {
	case GeneralFlags, ElemFlags2, ExtraInfo:
		return true
	default:
		return false
	}
}

// Head is the per-message header delivered with each batch item.
type Head struct {
	FromID  int64
	ToID    int64
	GroupID int64
	Seq     int32
	Random  int32
	Time    int32
}

// Message is one transport-delivered batch item.
type Message struct {
	Head  Head
	Elems []Element
	Ptt   *Ptt
}
