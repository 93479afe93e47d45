package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/danmuck/msgchain/internal/wire/tlv"
)

const (
	Magic     uint32 = 0x4d435731 // "MCW1"
	Version   uint16 = 1
	HeaderLen        = 4 + 2 + 4
)

var (
	ErrInvalidMagic       = errors.New("wire: invalid magic")
	ErrUnsupportedVersion = errors.New("wire: unsupported version")
	ErrTruncated          = errors.New("wire: truncated data")
	ErrCountMismatch      = errors.New("wire: message count mismatch")
)

const (
	fieldMessage uint16 = 1

	fieldHead uint16 = 1
	fieldElem uint16 = 2
	fieldPtt  uint16 = 3

	fieldFromID  uint16 = 1
	fieldToID    uint16 = 2
	fieldGroupID uint16 = 3
	fieldSeq     uint16 = 4
	fieldRandom  uint16 = 5
	fieldTime    uint16 = 6
)

// EncodeMessages serializes a batch into the versioned binary envelope.
func EncodeMessages(msgs []Message) []byte {
	fields := make([]tlv.Field, 0, len(msgs))
	for _, m := range msgs {
		fields = append(fields, tlv.Nested(fieldMessage, encodeMessage(m)))
	}
	payload := tlv.EncodeFields(fields)
	buf := make([]byte, HeaderLen, HeaderLen+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], Magic)
	binary.BigEndian.PutUint16(buf[4:6], Version)
	binary.BigEndian.PutUint32(buf[6:10], uint32(len(msgs)))
	return append(buf, payload...)
}

// DecodeMessages parses a batch produced by EncodeMessages.
// Element tags this build does not model decode to Unknown.
func DecodeMessages(b []byte) ([]Message, error) {
	if len(b) < HeaderLen {
		return nil, ErrTruncated
	}
	if binary.BigEndian.Uint32(b[0:4]) != Magic {
		return nil, ErrInvalidMagic
	}
	if binary.BigEndian.Uint16(b[4:6]) != Version {
		return nil, ErrUnsupportedVersion
	}
	count := binary.BigEndian.Uint32(b[6:10])
	fields, err := tlv.DecodeFields(b[HeaderLen:])
	if err != nil {
		return nil, err
	}
	msgs := make([]Message, 0, len(fields))
	for _, f := range tlv.All(fields, fieldMessage) {
		inner, err := tlv.DecodeFields(f.Value)
		if err != nil {
			return nil, err
		}
		m, err := decodeMessage(inner)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if uint32(len(msgs)) != count {
		return nil, fmt.Errorf("%w: header=%d decoded=%d", ErrCountMismatch, count, len(msgs))
	}
	return msgs, nil
}

func encodeMessage(m Message) []tlv.Field {
	fields := []tlv.Field{
		tlv.Nested(fieldHead, []tlv.Field{
			tlv.U64(fieldFromID, uint64(m.Head.FromID)),
			tlv.U64(fieldToID, uint64(m.Head.ToID)),
			tlv.U64(fieldGroupID, uint64(m.Head.GroupID)),
			tlv.U32(fieldSeq, uint32(m.Head.Seq)),
			tlv.U32(fieldRandom, uint32(m.Head.Random)),
			tlv.U32(fieldTime, uint32(m.Head.Time)),
		}),
	}
	for _, e := range m.Elems {
		fields = append(fields, tlv.Nested(fieldElem, []tlv.Field{EncodeElement(e)}))
	}
	if m.Ptt != nil {
		fields = append(fields, tlv.Nested(fieldPtt, []tlv.Field{EncodeElement(*m.Ptt)}))
	}
	return fields
}

func decodeMessage(fields []tlv.Field) (Message, error) {
	var m Message
	r := tlv.NewReader(fields)
	if head, ok := r.Nested(fieldHead); ok {
		hr := tlv.NewReader(head)
		m.Head = Head{
			FromID:  int64(hr.U64(fieldFromID)),
			ToID:    int64(hr.U64(fieldToID)),
			GroupID: int64(hr.U64(fieldGroupID)),
			Seq:     int32(hr.U32(fieldSeq)),
			Random:  int32(hr.U32(fieldRandom)),
			Time:    int32(hr.U32(fieldTime)),
		}
		if err := hr.Err(); err != nil {
			return Message{}, err
		}
	}
	if err := r.Err(); err != nil {
		return Message{}, err
	}
	for _, f := range tlv.All(fields, fieldElem) {
		e, err := decodeWrapped(f)
		if err != nil {
			return Message{}, err
		}
		m.Elems = append(m.Elems, e)
	}
	if f, ok := tlv.GetField(fields, fieldPtt); ok {
		e, err := decodeWrapped(f)
		if err != nil {
			return Message{}, err
		}
		if p, ok := e.(Ptt); ok {
			m.Ptt = &p
		}
	}
	return m, nil
}

func decodeWrapped(f tlv.Field) (Element, error) {
	inner, err := tlv.DecodeFields(f.Value)
	if err != nil {
		return nil, err
	}
	if len(inner) != 1 {
		return nil, fmt.Errorf("wire: element wrapper holds %d fields", len(inner))
	}
	return DecodeElement(inner[0])
}
