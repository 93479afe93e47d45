package message

import (
	"fmt"
	"strconv"
	"strings"
)

// ComponentType names a semantic component kind.
type ComponentType string

const (
	TypePlainText  ComponentType = "plain_text"
	TypeAt         ComponentType = "at"
	TypeAtAll      ComponentType = "at_all"
	TypeFace       ComponentType = "face"
	TypeImage      ComponentType = "image"
	TypeQuoteReply ComponentType = "quote_reply"
	TypeAudio      ComponentType = "audio"
	TypePoke       ComponentType = "poke"
	TypeVipFace    ComponentType = "vip_face"
	TypeMarketFace ComponentType = "market_face"
	TypeDice       ComponentType = "dice"
	TypeLightApp   ComponentType = "light_app"
	TypeService    ComponentType = "service"
	TypeMusicShare ComponentType = "music_share"
	TypeLongRef    ComponentType = "long_message_ref"
	TypeForwardRef ComponentType = "forward_message_ref"
	TypeForward    ComponentType = "forward"
	TypeSource     ComponentType = "source"
)

// Required reports whether encoding must fail when no unit can encode
// this kind. Optional kinds are skipped silently.
func (t ComponentType) Required() bool {
	switch t {
	case TypeSource, TypeForward:
		return false
	default:
		return true
	}
}

// Component is one semantic message part. The set is closed to this package.
type Component interface {
	Type() ComponentType
	// Content renders the component as user-visible text.
	Content() string
	component()
}

type PlainText struct {
	Text string
}

// At mentions one member.
type At struct {
	Target  int64
	Display string
}

type AtAll struct{}

type Face struct {
	ID int32
}

type Image struct {
	ResID  string
	Width  int32
	Height int32
	Size   int64
	MD5    []byte
}

// QuoteReply references an earlier message by its (offline) source.
type QuoteReply struct {
	Source MessageSource
}

type Audio struct {
	FileName string
	MD5      []byte
	Size     int64
	Codec    int32
	Seconds  int32
	URL      string
}

type PokeMessage struct {
	Name     string
	PokeType int32
	ID       int32
}

type VipFaceKind struct {
	ID   int32
	Name string
}

type VipFace struct {
	Kind  VipFaceKind
	Count int32
}

type MarketFace struct {
	FaceID  []byte
	TabID   int32
	Name    string
	SubType int32
	Param   string
}

// Dice is a market face whose id encodes a rolled value.
type Dice struct {
	Value int32
}

type LightApp struct {
	JSON string
}

// ServiceMessage is an XML rich message that no refinement claimed.
type ServiceMessage struct {
	ServiceID int32
	XML       string
}

type MusicShare struct {
	Kind       string
	Title      string
	Summary    string
	JumpURL    string
	PictureURL string
	MusicURL   string
}

// LongMessageRef is a placeholder for a long message body stored remotely.
type LongMessageRef struct {
	ResID string
}

// ForwardMessageRef is a placeholder for a forwarded bundle stored remotely.
type ForwardMessageRef struct {
	ResID    string
	FileName string
}

type ForwardNode struct {
	SenderID   int64
	SenderName string
	Time       int32
	Chain      Chain
}

// ForwardMessage is a resolved forwarded bundle.
type ForwardMessage struct {
	ResID string
	Nodes []ForwardNode
}

func (PlainText) Type() ComponentType         { return TypePlainText }
func (At) Type() ComponentType                { return TypeAt }
func (AtAll) Type() ComponentType             { return TypeAtAll }
func (Face) Type() ComponentType              { return TypeFace }
func (Image) Type() ComponentType             { return TypeImage }
func (QuoteReply) Type() ComponentType        { return TypeQuoteReply }
func (Audio) Type() ComponentType             { return TypeAudio }
func (PokeMessage) Type() ComponentType       { return TypePoke }
func (VipFace) Type() ComponentType           { return TypeVipFace }
func (MarketFace) Type() ComponentType        { return TypeMarketFace }
func (Dice) Type() ComponentType              { return TypeDice }
func (LightApp) Type() ComponentType          { return TypeLightApp }
func (ServiceMessage) Type() ComponentType    { return TypeService }
func (MusicShare) Type() ComponentType        { return TypeMusicShare }
func (LongMessageRef) Type() ComponentType    { return TypeLongRef }
func (ForwardMessageRef) Type() ComponentType { return TypeForwardRef }
func (ForwardMessage) Type() ComponentType    { return TypeForward }

func (PlainText) component()         {}
func (At) component()                {}
func (AtAll) component()             {}
func (Face) component()              {}
func (Image) component()             {}
func (QuoteReply) component()        {}
func (Audio) component()             {}
func (PokeMessage) component()       {}
func (VipFace) component()           {}
func (MarketFace) component()        {}
func (Dice) component()              {}
func (LightApp) component()          {}
func (ServiceMessage) component()    {}
func (MusicShare) component()        {}
func (LongMessageRef) component()    {}
func (ForwardMessageRef) component() {}
func (ForwardMessage) component()    {}

func (p PlainText) Content() string { return p.Text }

func (a At) Content() string {
	if a.Display != "" {
		return a.Display
	}
	return "@" + strconv.FormatInt(a.Target, 10)
}

func (AtAll) Content() string { return "@全体成员" }

func (f Face) Content() string { return fmt.Sprintf("[face:%d]", f.ID) }

func (i Image) Content() string { return "[image:" + i.ResID + "]" }

func (QuoteReply) Content() string { return "" }

func (Audio) Content() string { return "[audio]" }

func (p PokeMessage) Content() string { return "[poke:" + p.Name + "]" }

func (v VipFace) Content() string { return fmt.Sprintf("[%s]x%d", v.Kind.Name, v.Count) }

func (m MarketFace) Content() string { return m.Name }

func (d Dice) Content() string { return fmt.Sprintf("[dice:%d]", d.Value) }

func (l LightApp) Content() string { return l.JSON }

func (s ServiceMessage) Content() string { return s.XML }

func (m MusicShare) Content() string { return "[share]" + m.Title }

func (LongMessageRef) Content() string { return "[long message]" }

func (ForwardMessageRef) Content() string { return "[forward message]" }

func (f ForwardMessage) Content() string {
	var b strings.Builder
	b.WriteString("[forward message]")
	for _, n := range f.Nodes {
		b.WriteString("\n")
		b.WriteString(n.SenderName)
		b.WriteString(": ")
		b.WriteString(n.Chain.ContentString())
	}
	return b.String()
}
