package wire

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/msgchain/internal/wire/tlv"
)

func sampleBatch() []Message {
	return []Message{
		{
			Head: Head{FromID: 1001, ToID: 2002, GroupID: 3003, Seq: 17, Random: -5, Time: 1700000000},
			Elems: []Element{
				SourceMsg{
					OrigSeqs: []int32{9, 10},
					SenderID: 1002,
					GroupID:  3003,
					Time:     1699999999,
					Elems:    []Element{Text{Str: "quoted"}},
				},
				Text{Str: "@bob", Mention: &MentionAttr{TargetID: 1002}},
				Text{Str: " hi"},
				Face{Index: 14},
				Image{ResID: "{ABC}.png", Width: 64, Height: 32, Size: 2048, MD5: []byte{1, 2, 3}},
				CommonElem{ServiceType: CommonServicePoke, BusinessType: 1, Payload: []byte{0x08}},
				GeneralFlags{LongTextResID: "res-1"},
			},
			Ptt: &Ptt{FileName: "a.amr", Size: 99, Codec: 1, Seconds: 3},
		},
		{
			Head:  Head{FromID: 1001, Seq: 18},
			Elems: []Element{LightApp{Data: []byte{0, '{', '}'}}, RichMsg{ServiceID: 35, Template: "<msg/>"}},
		},
	}
}

func TestEncodeDecodeMessagesRoundTrip(t *testing.T) {
	in := sampleBatch()
	out, err := DecodeMessages(EncodeMessages(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in=%#v\nout=%#v", in, out)
	}
}

func TestDecodeMessagesInvalidMagic(t *testing.T) {
	b := EncodeMessages(sampleBatch())
	b[0] = 0
	if _, err := DecodeMessages(b); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestDecodeMessagesUnsupportedVersion(t *testing.T) {
	b := EncodeMessages(nil)
	binary.BigEndian.PutUint16(b[4:6], Version+1)
	if _, err := DecodeMessages(b); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestDecodeMessagesTruncated(t *testing.T) {
	if _, err := DecodeMessages([]byte{1, 2}); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	b := EncodeMessages(sampleBatch())
	if _, err := DecodeMessages(b[:len(b)-3]); !errors.Is(err, tlv.ErrShortFieldValue) {
		t.Fatalf("expected ErrShortFieldValue, got %v", err)
	}
}

func TestDecodeMessagesCountMismatch(t *testing.T) {
	b := EncodeMessages(sampleBatch())
	binary.BigEndian.PutUint32(b[6:10], 5)
	if _, err := DecodeMessages(b); !errors.Is(err, ErrCountMismatch) {
		t.Fatalf("expected ErrCountMismatch, got %v", err)
	}
}

func TestDecodeElementUnknownTagIsPreserved(t *testing.T) {
	f := tlv.Field{ID: 4242, Type: tlv.TypeBytes, Value: []byte{0xde, 0xad}}
	e, err := DecodeElement(f)
	if err != nil {
		t.Fatalf("unknown tag must not fail: %v", err)
	}
	u, ok := e.(Unknown)
	if !ok {
		t.Fatalf("expected Unknown, got %T", e)
	}
	if u.Tag() != 4242 || len(u.Raw) != 2 {
		t.Fatalf("unexpected unknown element: %+v", u)
	}
}

func TestIsMetadata(t *testing.T) {
	for _, e := range []Element{GeneralFlags{}, ElemFlags2{}, ExtraInfo{}} {
		if !IsMetadata(e) {
			t.Fatalf("expected %T to be metadata", e)
		}
	}
	if IsMetadata(Text{Str: "x"}) {
		t.Fatalf("text is not metadata")
	}
}
