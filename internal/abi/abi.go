// Package abi implements the wire encoding used by synthesized entry
// points. Integers are big-endian and sized by their width, u256 and b256
// take 32 bytes, bool one byte. A string slice is a u64 length followed by
// its bytes; str[n] is exactly n bytes. Tuples, structs and arrays are the
// concatenation of their elements; an enum is a u64 tag followed by the
// variant payload.
package abi

import (
	"encoding/binary"
	"errors"
	"fmt"

	"fortio.org/safecast"

	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

var (
	ErrShortBuffer = errors.New("abi: buffer too short")
	ErrUnsupported = errors.New("abi: type cannot be encoded")
	ErrValue       = errors.New("abi: value does not match type")
)

// Word is a 32-byte big-endian value: u256 and b256.
type Word [32]byte

// WordFromUint64 places v in the low bytes of a word.
func WordFromUint64(v uint64) Word {
	var w Word
	binary.BigEndian.PutUint64(w[24:], v)
	return w
}

// Enum is a decoded enum value.
type Enum struct {
	Tag   uint64
	Value any
}

// Values are represented as:
//
//	u8..u64    uint64
//	u256, b256 Word
//	bool       bool
//	str, str[n] string
//	unit       struct{}
//	tuple, struct, array []any
//	enum       Enum

// Supported reports whether values of t can cross the ABI boundary.
func Supported(e ty.Engines, t types.TypeID) bool {
	return supported(e, t, 0)
}

func supported(e ty.Engines, t types.TypeID, depth int) bool {
	if depth > 32 {
		return false
	}
	tt, ok := e.Types.Lookup(e.Types.Unalias(t))
	if !ok {
		return false
	}
	switch tt.Kind {
	case types.KindUnit, types.KindBool, types.KindUint, types.KindB256,
		types.KindStringSlice, types.KindStringArray:
		return true
	case types.KindArray:
		return supported(e, tt.Elem, depth+1)
	case types.KindTuple:
		elems, _ := e.Types.TupleElems(t)
		for _, el := range elems {
			if !supported(e, el, depth+1) {
				return false
			}
		}
		return true
	case types.KindStruct:
		s, ok := e.StructOf(t)
		if !ok {
			return false
		}
		for _, f := range s.Fields {
			if !supported(e, f.TypeArgument.TypeID, depth+1) {
				return false
			}
		}
		return true
	case types.KindEnum:
		en, ok := e.EnumOf(t)
		if !ok {
			return false
		}
		for _, v := range en.Variants {
			if !supported(e, v.TypeArgument.TypeID, depth+1) {
				return false
			}
		}
		return true
	}
	return false
}

// Encode appends the encoding of v as a value of type t to dst.
func Encode(dst []byte, e ty.Engines, t types.TypeID, v any) ([]byte, error) {
	t = e.Types.Unalias(t)
	tt, ok := e.Types.Lookup(t)
	if !ok {
		return dst, fmt.Errorf("%w: invalid type %d", ErrUnsupported, t)
	}
	switch tt.Kind {
	case types.KindUnit:
		return dst, nil
	case types.KindBool:
		b, ok := v.(bool)
		if !ok {
			return dst, mismatch(e, t, v)
		}
		if b {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case types.KindUint:
		if tt.Width == types.Width256 {
			w, ok := v.(Word)
			if !ok {
				return dst, mismatch(e, t, v)
			}
			return append(dst, w[:]...), nil
		}
		n, ok := v.(uint64)
		if !ok {
			return dst, mismatch(e, t, v)
		}
		size := tt.Width.Bytes()
		if size < 8 && n>>(8*size) != 0 {
			return dst, fmt.Errorf("%w: %d overflows %s", ErrValue, n, e.DisplayType(t))
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], n)
		return append(dst, buf[8-size:]...), nil
	case types.KindB256:
		w, ok := v.(Word)
		if !ok {
			return dst, mismatch(e, t, v)
		}
		return append(dst, w[:]...), nil
	case types.KindStringSlice:
		s, ok := v.(string)
		if !ok {
			return dst, mismatch(e, t, v)
		}
		dst = binary.BigEndian.AppendUint64(dst, uint64(len(s)))
		return append(dst, s...), nil
	case types.KindStringArray:
		s, ok := v.(string)
		if !ok || len(s) != int(tt.Count) {
			return dst, mismatch(e, t, v)
		}
		return append(dst, s...), nil
	case types.KindTuple:
		elems, _ := e.Types.TupleElems(t)
		return encodeAll(dst, e, elems, v, t)
	case types.KindArray:
		elems := make([]types.TypeID, tt.Count)
		for i := range elems {
			elems[i] = tt.Elem
		}
		return encodeAll(dst, e, elems, v, t)
	case types.KindStruct:
		s, ok := e.StructOf(t)
		if !ok {
			return dst, fmt.Errorf("%w: %s", ErrUnsupported, e.DisplayType(t))
		}
		elems := make([]types.TypeID, len(s.Fields))
		for i, f := range s.Fields {
			elems[i] = f.TypeArgument.TypeID
		}
		return encodeAll(dst, e, elems, v, t)
	case types.KindEnum:
		en, ok := e.EnumOf(t)
		if !ok {
			return dst, fmt.Errorf("%w: %s", ErrUnsupported, e.DisplayType(t))
		}
		val, ok := v.(Enum)
		if !ok || val.Tag >= uint64(len(en.Variants)) {
			return dst, mismatch(e, t, v)
		}
		dst = binary.BigEndian.AppendUint64(dst, val.Tag)
		payload := val.Value
		if payload == nil {
			payload = struct{}{}
		}
		return Encode(dst, e, en.Variants[val.Tag].TypeArgument.TypeID, payload)
	}
	return dst, fmt.Errorf("%w: %s", ErrUnsupported, e.DisplayType(t))
}

func encodeAll(dst []byte, e ty.Engines, elems []types.TypeID, v any, t types.TypeID) ([]byte, error) {
	vals, ok := v.([]any)
	if !ok || len(vals) != len(elems) {
		return dst, mismatch(e, t, v)
	}
	var err error
	for i, el := range elems {
		if dst, err = Encode(dst, e, el, vals[i]); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func mismatch(e ty.Engines, t types.TypeID, v any) error {
	return fmt.Errorf("%w: %T for %s", ErrValue, v, e.DisplayType(t))
}

// Decode reads one value of type t from the start of data and returns it
// with the number of bytes consumed.
func Decode(e ty.Engines, t types.TypeID, data []byte) (any, int, error) {
	d := decoder{e: e, data: data}
	v, err := d.value(t, 0)
	return v, d.off, err
}

type decoder struct {
	e    ty.Engines
	data []byte
	off  int
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || len(d.data)-d.off < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, d.off, len(d.data)-d.off)
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) u64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (d *decoder) value(t types.TypeID, depth int) (any, error) {
	if depth > 64 {
		return nil, fmt.Errorf("%w: nesting too deep", ErrUnsupported)
	}
	e := d.e
	t = e.Types.Unalias(t)
	tt, ok := e.Types.Lookup(t)
	if !ok {
		return nil, fmt.Errorf("%w: invalid type %d", ErrUnsupported, t)
	}
	switch tt.Kind {
	case types.KindUnit:
		return struct{}{}, nil
	case types.KindBool:
		b, err := d.take(1)
		if err != nil {
			return nil, err
		}
		switch b[0] {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return nil, fmt.Errorf("%w: bool byte %#x", ErrValue, b[0])
	case types.KindUint:
		size := tt.Width.Bytes()
		b, err := d.take(size)
		if err != nil {
			return nil, err
		}
		if tt.Width == types.Width256 {
			var w Word
			copy(w[:], b)
			return w, nil
		}
		var buf [8]byte
		copy(buf[8-size:], b)
		return binary.BigEndian.Uint64(buf[:]), nil
	case types.KindB256:
		b, err := d.take(32)
		if err != nil {
			return nil, err
		}
		var w Word
		copy(w[:], b)
		return w, nil
	case types.KindStringSlice:
		n, err := d.u64()
		if err != nil {
			return nil, err
		}
		size, err := safecast.Conv[int](n)
		if err != nil {
			return nil, fmt.Errorf("%w: string length %d", ErrShortBuffer, n)
		}
		b, err := d.take(size)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case types.KindStringArray:
		b, err := d.take(int(tt.Count))
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case types.KindTuple:
		elems, _ := e.Types.TupleElems(t)
		return d.all(elems, depth)
	case types.KindArray:
		elems := make([]types.TypeID, tt.Count)
		for i := range elems {
			elems[i] = tt.Elem
		}
		return d.all(elems, depth)
	case types.KindStruct:
		s, ok := e.StructOf(t)
		if !ok {
			break
		}
		elems := make([]types.TypeID, len(s.Fields))
		for i, f := range s.Fields {
			elems[i] = f.TypeArgument.TypeID
		}
		return d.all(elems, depth)
	case types.KindEnum:
		en, ok := e.EnumOf(t)
		if !ok {
			break
		}
		tag, err := d.u64()
		if err != nil {
			return nil, err
		}
		if tag >= uint64(len(en.Variants)) {
			return nil, fmt.Errorf("%w: tag %d out of range for %s", ErrValue, tag, e.DisplayType(t))
		}
		v, err := d.value(en.Variants[tag].TypeArgument.TypeID, depth+1)
		if err != nil {
			return nil, err
		}
		return Enum{Tag: tag, Value: v}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, e.DisplayType(t))
}

func (d *decoder) all(elems []types.TypeID, depth int) ([]any, error) {
	out := make([]any, len(elems))
	for i, el := range elems {
		v, err := d.value(el, depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
