package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const HeaderLen = 7

var (
	ErrShortFieldHeader = errors.New("tlv: short field header")
	ErrShortFieldValue  = errors.New("tlv: short field value")
)

// Type IDs from tlv contract.
const (
	TypeU8     uint8 = 1
	TypeU16    uint8 = 2
	TypeU32    uint8 = 3
	TypeU64    uint8 = 4
	TypeBool   uint8 = 5
	TypeString uint8 = 6
	TypeBytes  uint8 = 7
	TypeNested uint8 = 8
)

// Field is one decoded TLV field.
type Field struct {
	ID    uint16
	Type  uint8
	Value []byte
}

func EncodeField(f Field) []byte {
	buf := make([]byte, HeaderLen+len(f.Value))
	binary.BigEndian.PutUint16(buf[0:2], f.ID)
	buf[2] = f.Type
	binary.BigEndian.PutUint32(buf[3:7], uint32(len(f.Value)))
	copy(buf[7:], f.Value)
	return buf
}

func DecodeFields(payload []byte) ([]Field, error) {
	fields := make([]Field, 0)
	i := 0
	for i < len(payload) {
		if len(payload)-i < HeaderLen {
			return nil, ErrShortFieldHeader
		}
		id := binary.BigEndian.Uint16(payload[i : i+2])
		typeID := payload[i+2]
		l := binary.BigEndian.Uint32(payload[i+3 : i+7])
		i += HeaderLen
		if uint32(len(payload)-i) < l {
			return nil, ErrShortFieldValue
		}
		val := make([]byte, l)
		copy(val, payload[i:i+int(l)])
		i += int(l)
		fields = append(fields, Field{ID: id, Type: typeID, Value: val})
	}
	return fields, nil
}

func EncodeFields(fields []Field) []byte {
	size := 0
	for _, f := range fields {
		size += HeaderLen + len(f.Value)
	}
	out := make([]byte, 0, size)
	for _, f := range fields {
		out = append(out, EncodeField(f)...)
	}
	return out
}

func GetField(fields []Field, id uint16) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// All returns every field carrying id, in payload order.
func All(fields []Field, id uint16) []Field {
	var out []Field
	for _, f := range fields {
		if f.ID == id {
			out = append(out, f)
		}
	}
	return out
}

func MustType(f Field, expected uint8) error {
	if f.Type != expected {
		return fmt.Errorf("tlv: field %d type mismatch: got %d want %d", f.ID, f.Type, expected)
	}
	return nil
}

func U32(id uint16, v uint32) Field {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return Field{ID: id, Type: TypeU32, Value: buf}
}

func U64(id uint16, v uint64) Field {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return Field{ID: id, Type: TypeU64, Value: buf}
}

func Bool(id uint16, v bool) Field {
	b := byte(0)
	if v {
		b = 1
	}
	return Field{ID: id, Type: TypeBool, Value: []byte{b}}
}

func String(id uint16, v string) Field {
	return Field{ID: id, Type: TypeString, Value: []byte(v)}
}

func Bytes(id uint16, v []byte) Field {
	buf := make([]byte, len(v))
	copy(buf, v)
	return Field{ID: id, Type: TypeBytes, Value: buf}
}

func Nested(id uint16, fields []Field) Field {
	return Field{ID: id, Type: TypeNested, Value: EncodeFields(fields)}
}

func U32FromBytes(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("tlv: invalid u32 length: %d", len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

func U64FromBytes(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("tlv: invalid u64 length: %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// Reader reads optional typed values out of a decoded field set.
// The first failure sticks; later reads return zero values.
type Reader struct {
	fields []Field
	err    error
}

func NewReader(fields []Field) *Reader {
	return &Reader{fields: fields}
}

func (r *Reader) Err() error { return r.err }

func (r *Reader) lookup(id uint16, want uint8) (Field, bool) {
	if r.err != nil {
		return Field{}, false
	}
	f, ok := GetField(r.fields, id)
	if !ok {
		return Field{}, false
	}
	if err := MustType(f, want); err != nil {
		r.err = err
		return Field{}, false
	}
	return f, true
}

func (r *Reader) U32(id uint16) uint32 {
	f, ok := r.lookup(id, TypeU32)
	if !ok {
		return 0
	}
	v, err := U32FromBytes(f.Value)
	if err != nil {
		r.err = err
	}
	return v
}

func (r *Reader) U64(id uint16) uint64 {
	f, ok := r.lookup(id, TypeU64)
	if !ok {
		return 0
	}
	v, err := U64FromBytes(f.Value)
	if err != nil {
		r.err = err
	}
	return v
}

func (r *Reader) Bool(id uint16) bool {
	f, ok := r.lookup(id, TypeBool)
	if !ok {
		return false
	}
	if len(f.Value) != 1 {
		r.err = fmt.Errorf("tlv: invalid bool length: %d", len(f.Value))
		return false
	}
	return f.Value[0] == 1
}

func (r *Reader) String(id uint16) string {
	f, ok := r.lookup(id, TypeString)
	if !ok {
		return ""
	}
	return string(f.Value)
}

func (r *Reader) Bytes(id uint16) []byte {
	f, ok := r.lookup(id, TypeBytes)
	if !ok {
		return nil
	}
	return f.Value
}

// Has reports whether id is present.
func (r *Reader) Has(id uint16) bool {
	_, ok := GetField(r.fields, id)
	return ok
}

// Nested decodes the nested field set stored under id.
func (r *Reader) Nested(id uint16) ([]Field, bool) {
	f, ok := r.lookup(id, TypeNested)
	if !ok {
		return nil, false
	}
	inner, err := DecodeFields(f.Value)
	if err != nil {
		r.err = err
		return nil, false
	}
	return inner, true
}
