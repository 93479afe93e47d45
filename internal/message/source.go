package message

import (
	"errors"
	"fmt"
)

var ErrUnknownSourceKind = errors.New("message: unknown source kind")

// SourceKind is the conversation kind a message belongs to.
type SourceKind uint8

const (
	KindGroup    SourceKind = 1
	KindFriend   SourceKind = 2
	KindTemp     SourceKind = 3
	KindStranger SourceKind = 4
)

func (k SourceKind) Valid() bool {
	return k >= KindGroup && k <= KindStranger
}

func (k SourceKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindFriend:
		return "friend"
	case KindTemp:
		return "temp"
	case KindStranger:
		return "stranger"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseSourceKind maps a config/CLI name to a kind.
func ParseSourceKind(s string) (SourceKind, error) {
	switch s {
	case "group":
		return KindGroup, nil
	case "friend":
		return KindFriend, nil
	case "temp":
		return KindTemp, nil
	case "stranger":
		return KindStranger, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSourceKind, s)
	}
}

// SourceVariant is the concrete source representation.
type SourceVariant uint8

const (
	VariantOnlineGroup SourceVariant = iota + 1
	VariantOnlineFriend
	VariantOnlineTemp
	VariantOnlineStranger
	VariantOffline
)

func (v SourceVariant) String() string {
	switch v {
	case VariantOnlineGroup:
		return "online.group"
	case VariantOnlineFriend:
		return "online.friend"
	case VariantOnlineTemp:
		return "online.temp"
	case VariantOnlineStranger:
		return "online.stranger"
	case VariantOffline:
		return "offline"
	default:
		return "invalid"
	}
}

// Online reports whether v came from a live delivery.
func (v SourceVariant) Online() bool {
	return v >= VariantOnlineGroup && v <= VariantOnlineStranger
}

// SelectSourceVariant picks the representation for an (online, kind) pair.
// An unrecognized kind is a protocol desynchronization and returns
// ErrUnknownSourceKind.
func SelectSourceVariant(online bool, kind SourceKind) (SourceVariant, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSourceKind, uint8(kind))
	}
	if !online {
		return VariantOffline, nil
	}
	switch kind {
	case KindGroup:
		return VariantOnlineGroup, nil
	case KindFriend:
		return VariantOnlineFriend, nil
	case KindTemp:
		return VariantOnlineTemp, nil
	default:
		return VariantOnlineStranger, nil
	}
}

// MessageSource identifies sender, target and timing of a message.
// When present in a chain it sits at index 0.
type MessageSource struct {
	Variant     SourceVariant
	Kind        SourceKind
	IDs         []int32
	InternalIDs []int32
	Time        int32
	FromID      int64
	TargetID    int64
	BotID       int64
	// Original is the referenced content for sources rebuilt from a quote.
	Original Chain
}

func (MessageSource) Type() ComponentType { return TypeSource }
func (MessageSource) Content() string     { return "" }
func (MessageSource) component()          {}

// IsOnline reports whether the source came from a live delivery.
func (s MessageSource) IsOnline() bool {
	return s.Variant.Online()
}
