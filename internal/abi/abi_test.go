package abi

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"ledgerc/internal/decl"
	"ledgerc/internal/source"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

func TestEncodeScalars(t *testing.T) {
	e := ty.NewEngines()
	b := e.Builtins()
	tests := []struct {
		name string
		typ  types.TypeID
		val  any
		want []byte
	}{
		{"u64", b.U64, uint64(42), []byte{0, 0, 0, 0, 0, 0, 0, 0x2a}},
		{"u8", b.U8, uint64(7), []byte{7}},
		{"u16", b.U16, uint64(0x0102), []byte{1, 2}},
		{"u32", b.U32, uint64(1), []byte{0, 0, 0, 1}},
		{"bool", b.Bool, true, []byte{1}},
		{"unit", b.Unit, struct{}{}, nil},
		{"str", b.Str, "hi", []byte{0, 0, 0, 0, 0, 0, 0, 2, 'h', 'i'}},
		{"str array", e.Types.Intern(types.MakeStringArray(3)), "abc", []byte("abc")},
		{"tuple", e.Types.RegisterTuple([]types.TypeID{b.U8, b.Bool}), []any{uint64(1), false}, []byte{1, 0}},
		{"array", e.Types.Intern(types.MakeArray(b.U16, 2)), []any{uint64(1), uint64(2)}, []byte{0, 1, 0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(nil, e, tt.typ, tt.val)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("encode = % x, want % x", got, tt.want)
			}
			back, n, err := Decode(e, tt.typ, got)
			if err != nil || n != len(got) {
				t.Fatalf("decode: %v (n=%d)", err, n)
			}
			if !reflect.DeepEqual(back, tt.val) {
				t.Fatalf("decode = %#v, want %#v", back, tt.val)
			}
		})
	}
}

func TestEncodeU256AndB256(t *testing.T) {
	e := ty.NewEngines()
	b := e.Builtins()
	w := WordFromUint64(5)
	for _, typ := range []types.TypeID{b.U256, b.B256} {
		got, err := Encode(nil, e, typ, w)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if len(got) != 32 || got[31] != 5 {
			t.Fatalf("encode = % x", got)
		}
	}
}

func TestEncodeStructAndEnum(t *testing.T) {
	e := ty.NewEngines()
	b := e.Builtins()
	s := &ty.StructDecl{
		CallPath: ty.NewCallPath(source.IdentNoSpan("Pair")),
		Fields: []ty.StructField{
			{Name: source.IdentNoSpan("a"), TypeArgument: ty.NewTypeArgument(b.U8, source.NoSpan)},
			{Name: source.IdentNoSpan("b"), TypeArgument: ty.NewTypeArgument(b.Bool, source.NoSpan)},
		},
	}
	sid := e.Decls.Insert(s)
	st := e.Types.RegisterStruct("Pair", sid, nil)

	en := &ty.EnumDecl{
		CallPath: ty.NewCallPath(source.IdentNoSpan("Opt")),
		Variants: []ty.EnumVariant{
			{Name: source.IdentNoSpan("None"), Tag: 0, TypeArgument: ty.NewTypeArgument(b.Unit, source.NoSpan)},
			{Name: source.IdentNoSpan("Some"), Tag: 1, TypeArgument: ty.NewTypeArgument(st, source.NoSpan)},
		},
	}
	eid := e.Decls.Insert(en)
	et := e.Types.RegisterEnum("Opt", eid, nil)

	val := Enum{Tag: 1, Value: []any{uint64(9), true}}
	got, err := Encode(nil, e, et, val)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0, 0, 0, 0, 0, 0, 0, 1, 9, 1}
	if !bytes.Equal(got, want) {
		t.Fatalf("encode = % x, want % x", got, want)
	}
	back, _, err := Decode(e, et, got)
	if err != nil || !reflect.DeepEqual(back, val) {
		t.Fatalf("decode = %#v, %v", back, err)
	}
	if !Supported(e, et) {
		t.Fatalf("enum of structs must be supported")
	}
	if decl.MustAs[*ty.EnumDecl](e.Decls, eid).Variants[1].Name.Name != "Some" {
		t.Fatalf("decl engine lost the enum")
	}
}

func TestEncodeErrors(t *testing.T) {
	e := ty.NewEngines()
	b := e.Builtins()
	if _, err := Encode(nil, e, b.U8, uint64(256)); !errors.Is(err, ErrValue) {
		t.Fatalf("overflow: %v", err)
	}
	if _, err := Encode(nil, e, b.U64, true); !errors.Is(err, ErrValue) {
		t.Fatalf("wrong value: %v", err)
	}
	if _, err := Encode(nil, e, b.RawPtr, uint64(0)); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("raw_ptr: %v", err)
	}
	if _, _, err := Decode(e, b.U64, []byte{1, 2}); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("short: %v", err)
	}
	if _, _, err := Decode(e, b.Bool, []byte{2}); !errors.Is(err, ErrValue) {
		t.Fatalf("bad bool: %v", err)
	}
}

func TestSupported(t *testing.T) {
	e := ty.NewEngines()
	b := e.Builtins()
	tests := []struct {
		typ  types.TypeID
		want bool
	}{
		{b.U64, true},
		{b.Str, true},
		{e.Types.RegisterTuple([]types.TypeID{b.U64, b.B256}), true},
		{b.RawPtr, false},
		{b.RawSlice, false},
		{b.Contract, false},
		{e.Types.RegisterTuple([]types.TypeID{b.U64, b.RawSlice}), false},
		{e.Types.Intern(types.MakeSlice(b.U8)), false},
	}
	for _, tt := range tests {
		if got := Supported(e, tt.typ); got != tt.want {
			t.Fatalf("Supported(%s) = %v", e.DisplayType(tt.typ), got)
		}
	}
}

func TestParseValue(t *testing.T) {
	e := ty.NewEngines()
	b := e.Builtins()
	tests := []struct {
		name string
		typ  types.TypeID
		text string
		want any
		err  error
	}{
		{"u64 decimal", b.U64, "42", uint64(42), nil},
		{"u64 hex", b.U64, "0x2a", uint64(42), nil},
		{"u8 overflow", b.U8, "256", nil, ErrValue},
		{"u256", b.U256, "5", WordFromUint64(5), nil},
		{"u256 negative", b.U256, "-1", nil, ErrValue},
		{"b256", b.B256, "0x" + strings.Repeat("00", 31) + "05", WordFromUint64(5), nil},
		{"b256 short", b.B256, "0x05", nil, ErrValue},
		{"bool", b.Bool, "true", true, nil},
		{"bool bad", b.Bool, "yes", nil, ErrValue},
		{"str", b.Str, "hi there", "hi there", nil},
		{"unit", b.Unit, "()", struct{}{}, nil},
		{"tuple", e.Types.RegisterTuple([]types.TypeID{b.U64}), "1", nil, ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(e, tt.typ, tt.text)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	e := ty.NewEngines()
	b := e.Builtins()
	args := e.Types.RegisterTuple([]types.TypeID{b.U8, b.Bool})
	got, err := ParseArgs(e, args, []string{"3", "true"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !bytes.Equal(got, []byte{3, 1}) {
		t.Fatalf("encoded = % x", got)
	}
	if _, err := ParseArgs(e, args, []string{"3"}); !errors.Is(err, ErrValue) {
		t.Fatalf("arity err = %v", err)
	}
	if got, err := ParseArgs(e, types.NoTypeID, nil); err != nil || got != nil {
		t.Fatalf("no args = % x, %v", got, err)
	}
}
