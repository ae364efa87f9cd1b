package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// DeclRef is an opaque declaration handle. Nominal descriptors point at
// their declaration through it; the declaration engine owns the bodies.
type DeclRef uint32

const NoDeclRef DeclRef = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindUnknown is an inference variable; resolved during finalization.
	KindUnknown
	// KindNumeric is an integer literal whose width is not fixed yet.
	KindNumeric
	KindPlaceholder
	KindTypeParam
	KindErrorRecovery
	KindNever
	KindUnit
	KindBool
	KindUint
	KindB256
	KindStringSlice
	KindStringArray
	KindTuple
	KindStruct
	KindEnum
	KindArray
	KindPtr
	KindSlice
	KindRawPtr
	KindRawSlice
	KindAlias
	KindContract
)

var kindNames = [...]string{
	KindInvalid:       "invalid",
	KindUnknown:       "unknown",
	KindNumeric:       "numeric",
	KindPlaceholder:   "placeholder",
	KindTypeParam:     "type_param",
	KindErrorRecovery: "error_recovery",
	KindNever:         "never",
	KindUnit:          "unit",
	KindBool:          "bool",
	KindUint:          "uint",
	KindB256:          "b256",
	KindStringSlice:   "str",
	KindStringArray:   "str_array",
	KindTuple:         "tuple",
	KindStruct:        "struct",
	KindEnum:          "enum",
	KindArray:         "array",
	KindPtr:           "ptr",
	KindSlice:         "slice",
	KindRawPtr:        "raw_ptr",
	KindRawSlice:      "raw_slice",
	KindAlias:         "alias",
	KindContract:      "contract",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsVariable reports kinds that are never deduplicated: every insert of
// such a descriptor is a distinct variable.
func (k Kind) IsVariable() bool {
	return k == KindUnknown || k == KindPlaceholder || k == KindTypeParam || k == KindNumeric
}

// Width captures the precision of unsigned integers.
type Width uint16

const (
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
	Width256 Width = 256
)

// Bytes returns the encoded size of an integer of this width.
func (w Width) Bytes() int {
	return int(w) / 8
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID // array, ptr, slice
	Count   uint32 // array length, str[n] length
	Width   Width  // uint
	Payload uint32 // slot in a side table (tuple, nominal, alias, param)
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeArray describes [elem; count].
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

func MakeStringArray(n uint32) Type {
	return Type{Kind: KindStringArray, Count: n}
}

func MakePtr(elem TypeID) Type {
	return Type{Kind: KindPtr, Elem: elem}
}

func MakeSlice(elem TypeID) Type {
	return Type{Kind: KindSlice, Elem: elem}
}
