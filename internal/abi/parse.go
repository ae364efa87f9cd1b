package abi

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

// ParseValue reads a command-line literal as a value of type t. Integers
// accept decimal or 0x-prefixed hex, b256 takes exactly 64 hex digits,
// strings are taken verbatim. Aggregates are not parsed; callers pass
// pre-encoded bytes for those.
func ParseValue(e ty.Engines, t types.TypeID, text string) (any, error) {
	t = e.Types.Unalias(t)
	tt, ok := e.Types.Lookup(t)
	if !ok {
		return nil, fmt.Errorf("%w: invalid type %d", ErrUnsupported, t)
	}
	switch tt.Kind {
	case types.KindUnit:
		if text != "()" && text != "" {
			return nil, fmt.Errorf("%w: %q is not ()", ErrValue, text)
		}
		return struct{}{}, nil
	case types.KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a bool", ErrValue, text)
		}
		return b, nil
	case types.KindUint:
		if tt.Width == types.Width256 {
			n, ok := new(big.Int).SetString(text, 0)
			if !ok || n.Sign() < 0 || n.BitLen() > 256 {
				return nil, fmt.Errorf("%w: %q is not a u256", ErrValue, text)
			}
			var w Word
			n.FillBytes(w[:])
			return w, nil
		}
		n, err := strconv.ParseUint(text, 0, 8*tt.Width.Bytes())
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a %s", ErrValue, text, e.DisplayType(t))
		}
		return n, nil
	case types.KindB256:
		raw, err := hex.DecodeString(strings.TrimPrefix(text, "0x"))
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("%w: %q is not 32 hex bytes", ErrValue, text)
		}
		var w Word
		copy(w[:], raw)
		return w, nil
	case types.KindStringSlice:
		return text, nil
	case types.KindStringArray:
		if len(text) != int(tt.Count) {
			return nil, fmt.Errorf("%w: %q is not %d bytes long", ErrValue, text, tt.Count)
		}
		return text, nil
	}
	return nil, fmt.Errorf("%w: %s has no literal form", ErrUnsupported, e.DisplayType(t))
}

// ParseArgs parses one literal per element of the tuple args and encodes
// the tuple. args may be types.NoTypeID for an empty parameter list.
func ParseArgs(e ty.Engines, args types.TypeID, texts []string) ([]byte, error) {
	var elems []types.TypeID
	if args != types.NoTypeID {
		elems, _ = e.Types.TupleElems(args)
	}
	if len(texts) != len(elems) {
		return nil, fmt.Errorf("%w: want %d arguments, got %d", ErrValue, len(elems), len(texts))
	}
	if len(elems) == 0 {
		return nil, nil
	}
	vals := make([]any, len(elems))
	for i, el := range elems {
		v, err := ParseValue(e, el, texts[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		vals[i] = v
	}
	return Encode(nil, e, args, vals)
}
