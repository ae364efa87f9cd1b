// Package storage computes the initial storage slots of a contract.
package storage

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"slices"
	"strconv"

	"ledgerc/internal/abi"
	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/interp"
	"ledgerc/internal/parsed"
	"ledgerc/internal/ty"
)

// WordSize is the size of a slot key and of a slot value.
const WordSize = 32

// Slot is one initialized storage word.
type Slot struct {
	Key   [WordSize]byte
	Value [WordSize]byte
}

// Compare orders slots by key, then value.
func (s Slot) Compare(o Slot) int {
	if c := bytes.Compare(s.Key[:], o.Key[:]); c != 0 {
		return c
	}
	return bytes.Compare(s.Value[:], o.Value[:])
}

// Layout maps a storage declaration to slots.
type Layout interface {
	Slots(e ty.Engines, sd *ty.StorageDecl) ([]Slot, error)
}

// InitializeSlots returns the sorted initial slots of a contract. Other
// program kinds and contracts without storage yield no slots. Only the
// first declaration is laid out; validation rejects more than one. The
// declaration is then replaced by a copy that carries its slots.
func InitializeSlots(h *diag.Handler, e ty.Engines, kind parsed.TreeType, decls []decl.ID, layout Layout) ([]Slot, error) {
	if kind != parsed.Contract || len(decls) == 0 {
		return nil, nil
	}
	sd := decl.MustAs[*ty.StorageDecl](e.Decls, decls[0])
	slots, err := layout.Slots(e, sd)
	if err != nil {
		return nil, h.EmitErr(diag.NewError(diag.StorageLayoutFailure, sd.Span, err.Error()))
	}
	Sort(slots)
	published := *sd
	published.Slots = make([]ty.StorageSlot, len(slots))
	for i, s := range slots {
		published.Slots[i] = ty.StorageSlot(s)
	}
	e.Decls.Replace(decls[0], &published)
	return slots, nil
}

// Sort orders slots by (Key, Value) in place.
func Sort(slots []Slot) {
	slices.SortFunc(slots, Slot.Compare)
}

// WordLayout stores field i at sha256("storage_<i>"). A value longer than
// one word continues in the following keys, each the previous plus one.
// The last word is zero padded.
type WordLayout struct{}

func (WordLayout) Slots(e ty.Engines, sd *ty.StorageDecl) ([]Slot, error) {
	var out []Slot
	for i, f := range sd.Fields {
		if f.Initializer == nil {
			continue
		}
		v, err := interp.Const(e, f.Initializer)
		if err != nil {
			return nil, fmt.Errorf("storage field %s: %w", f.Name.Name, err)
		}
		data, err := abi.Encode(nil, e, f.TypeArgument.TypeID, v)
		if err != nil {
			return nil, fmt.Errorf("storage field %s: %w", f.Name.Name, err)
		}
		key := FieldKey(i)
		for off := 0; off == 0 || off < len(data); off += WordSize {
			var s Slot
			s.Key = key
			copy(s.Value[:], data[off:min(off+WordSize, len(data))])
			out = append(out, s)
			key = next(key)
		}
	}
	return out, nil
}

// FieldKey is the first slot key of field index i.
func FieldKey(i int) [WordSize]byte {
	return sha256.Sum256([]byte("storage_" + strconv.Itoa(i)))
}

func next(k [WordSize]byte) [WordSize]byte {
	for i := WordSize - 1; i >= 0; i-- {
		k[i]++
		if k[i] != 0 {
			break
		}
	}
	return k
}
