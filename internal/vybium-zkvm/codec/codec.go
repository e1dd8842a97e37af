// Package codec implements the encoding used on the host/guest channel and
// in the journal.
//
// Values are encoded as deterministic CBOR items. Decoding is strict: a
// segment must decode into the requested Go type without coercion, and an
// item must be consumed completely.
package codec

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	// ErrEncode is returned when a value cannot be represented on the channel.
	ErrEncode = errors.New("codec: value not representable")

	// ErrDecode is returned when bytes cannot be decoded as the requested type.
	ErrDecode = errors.New("codec: shape mismatch")

	// ErrTrailingData is returned when an item is followed by unread bytes.
	ErrTrailingData = errors.New("codec: trailing data")
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: invalid encoding options: %v", err))
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		IndefLength:       cbor.IndefLengthForbidden,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("codec: invalid decoding options: %v", err))
	}
}

// Marshal encodes v as a single channel item.
func Marshal(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %v", ErrEncode, v, err)
	}
	return data, nil
}

// Unmarshal decodes exactly one item from data into v.
func Unmarshal(data []byte, v any) error {
	rest, err := UnmarshalFirst(data, v)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: %d bytes after %T", ErrTrailingData, len(rest), v)
	}
	return nil
}

// UnmarshalFirst decodes the first item of data into v and returns the
// remaining bytes.
func UnmarshalFirst(data []byte, v any) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input for %T", ErrDecode, v)
	}
	if err := checkShape(data[0], v); err != nil {
		return nil, err
	}
	rest, err := decMode.UnmarshalFirst(data, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %v", ErrDecode, v, err)
	}
	return rest, nil
}

// Valid reports whether data is a sequence of well-formed items.
func Valid(data []byte) error {
	for len(data) > 0 {
		var raw cbor.RawMessage
		rest, err := decMode.UnmarshalFirst(data, &raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDecode, err)
		}
		data = rest
	}
	return nil
}

// CBOR major types.
const (
	majorUint     = 0
	majorNegInt   = 1
	majorSimple   = 7
	infoFloat16   = 25
	infoFloat64   = 27
	majorTypeBits = 5
)

var unmarshalerType = reflect.TypeOf((*cbor.Unmarshaler)(nil)).Elem()

// checkShape rejects numeric items whose CBOR major type does not match
// the kind of the target. The decoder would otherwise turn an integer into
// a float.
func checkShape(head byte, v any) error {
	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Pointer {
		return nil
	}
	t = t.Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return nil
	}

	major, info := head>>majorTypeBits, head&0x1f
	isInt := major == majorUint || major == majorNegInt
	isFloat := major == majorSimple && info >= infoFloat16 && info <= infoFloat64

	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		if isInt {
			return fmt.Errorf("%w: integer item into %v", ErrDecode, t)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if isFloat {
			return fmt.Errorf("%w: float item into %v", ErrDecode, t)
		}
	}
	return nil
}
