// Package corelib builds the core library namespace every program starts
// with: `core::codec` and `core::ops`, both imported as a prelude.
package corelib

import (
	"fmt"

	"ledgerc/internal/decl"
	"ledgerc/internal/namespace"
	"ledgerc/internal/source"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

// Names of the functions entry synthesis depends on.
const (
	Encode            = "encode"
	DecodeFirstParam  = "decode_first_param"
	DecodeSecondParam = "decode_second_param"
	DecodeScriptData  = "decode_script_data"
	Eq                = "eq"
	Ptr               = "ptr"
	NumberOfBytes     = "number_of_bytes"
)

type sig struct {
	name    string
	builtin ty.Builtin
	generic bool
	params  func(t types.TypeID, b types.Builtins) []types.TypeID
	ret     func(t types.TypeID, b types.Builtins) types.TypeID
}

var codecFns = []sig{
	{Encode, ty.BuiltinEncode, true,
		func(t types.TypeID, _ types.Builtins) []types.TypeID { return []types.TypeID{t} },
		func(_ types.TypeID, b types.Builtins) types.TypeID { return b.RawSlice }},
	{DecodeFirstParam, ty.BuiltinDecodeFirstParam, true, nothing, same},
	{DecodeSecondParam, ty.BuiltinDecodeSecondParam, true, nothing, same},
	{DecodeScriptData, ty.BuiltinDecodeScriptData, true, nothing, same},
}

var opsFns = []sig{
	{Eq, ty.BuiltinEq, true, pair, boolean},
	{"lt", ty.BuiltinLt, true, pair, boolean},
	{"gt", ty.BuiltinGt, true, pair, boolean},
	{"add", ty.BuiltinAdd, true, pair, same},
	{"sub", ty.BuiltinSub, true, pair, same},
	{"mul", ty.BuiltinMul, true, pair, same},
	{"not", ty.BuiltinNot, false,
		func(_ types.TypeID, b types.Builtins) []types.TypeID { return []types.TypeID{b.Bool} }, boolean},
	{Ptr, ty.BuiltinPtr, false,
		func(_ types.TypeID, b types.Builtins) []types.TypeID { return []types.TypeID{b.RawSlice} },
		func(_ types.TypeID, b types.Builtins) types.TypeID { return b.RawPtr }},
	{NumberOfBytes, ty.BuiltinNumberOfBytes, false,
		func(_ types.TypeID, b types.Builtins) []types.TypeID { return []types.TypeID{b.RawSlice} },
		func(_ types.TypeID, b types.Builtins) types.TypeID { return b.U64 }},
}

func nothing(types.TypeID, types.Builtins) []types.TypeID { return nil }

func pair(t types.TypeID, _ types.Builtins) []types.TypeID { return []types.TypeID{t, t} }

func same(t types.TypeID, _ types.Builtins) types.TypeID { return t }

func boolean(_ types.TypeID, b types.Builtins) types.TypeID { return b.Bool }

// Namespace returns a fresh root namespace with the core library
// attached as `core` and its modules imported as a prelude.
func Namespace(e ty.Engines) (*namespace.Module, error) {
	core := namespace.NewModule("core")
	codec, err := core.Child("codec")
	if err != nil {
		return nil, err
	}
	ops, err := core.Child("ops")
	if err != nil {
		return nil, err
	}
	if err := declare(e, codec, codecFns, "codec"); err != nil {
		return nil, err
	}
	if err := declare(e, ops, opsFns, "ops"); err != nil {
		return nil, err
	}
	root := namespace.NewModule("")
	root.Import(core)
	root.Import(codec)
	root.Import(ops)
	return root, nil
}

// WithoutOps builds the prelude with `core::ops` left out. Entry synthesis
// refuses to run against it.
func WithoutOps(e ty.Engines) (*namespace.Module, error) {
	core := namespace.NewModule("core")
	codec, err := core.Child("codec")
	if err != nil {
		return nil, err
	}
	if err := declare(e, codec, codecFns, "codec"); err != nil {
		return nil, err
	}
	root := namespace.NewModule("")
	root.Import(core)
	root.Import(codec)
	return root, nil
}

func declare(e ty.Engines, into *namespace.Module, sigs []sig, module string) error {
	b := e.Builtins()
	for _, s := range sigs {
		fn := &ty.FunctionDecl{
			Name:       source.IdentNoSpan(s.name),
			CallPath:   ty.NewCallPath(source.IdentNoSpan(s.name), "core", module),
			Visibility: ty.Public,
			Builtin:    s.builtin,
			Span:       source.NoSpan,
		}
		id := e.Decls.Insert(fn)
		t := types.NoTypeID
		if s.generic {
			t = e.Types.RegisterTypeParam("T", id, 0)
			fn.TypeParameters = []ty.TypeParameter{{Name: source.IdentNoSpan("T"), TypeID: t, InitialTypeID: t}}
		}
		for i, p := range s.params(t, b) {
			fn.Parameters = append(fn.Parameters, ty.FunctionParameter{
				Name:         source.IdentNoSpan(fmt.Sprintf("arg%d", i)),
				TypeArgument: ty.NewTypeArgument(p, source.NoSpan),
			})
		}
		fn.ReturnType = ty.NewTypeArgument(s.ret(t, b), source.NoSpan)
		if _, err := into.Insert(namespace.Symbol{Name: s.name, Kind: namespace.SymFunction, Decl: id}); err != nil {
			return err
		}
	}
	return nil
}

// HasOps reports whether `core::ops` is reachable from ns. Contract entry
// synthesis needs `eq`.
func HasOps(ns *namespace.Module) bool {
	_, ok := ns.Resolve("core::ops::" + Eq)
	return ok
}

// Lookup resolves a core function declaration by unqualified name.
func Lookup(e ty.Engines, ns *namespace.Module, name string) (decl.ID, *ty.FunctionDecl, bool) {
	sym, ok := ns.Resolve(name)
	if !ok || sym.Kind != namespace.SymFunction {
		return decl.NoID, nil, false
	}
	fn, ok := decl.As[*ty.FunctionDecl](e.Decls, sym.Decl)
	return sym.Decl, fn, ok
}
