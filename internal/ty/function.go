package ty

import (
	"cmp"
	"hash"
	"slices"

	"ledgerc/internal/decl"
	"ledgerc/internal/source"
	"ledgerc/internal/types"
)

// Builtin marks functions implemented by the runtime instead of a body.
type Builtin uint8

const (
	NotBuiltin Builtin = iota
	BuiltinEncode
	BuiltinDecodeFirstParam
	BuiltinDecodeSecondParam
	BuiltinDecodeScriptData
	BuiltinEq
	BuiltinPtr
	BuiltinNumberOfBytes
	BuiltinAdd
	BuiltinSub
	BuiltinMul
	BuiltinLt
	BuiltinGt
	BuiltinNot
)

// FunctionKind separates user functions from compiler-generated ones.
type FunctionKind uint8

const (
	FnNormal FunctionKind = iota
	// FnEntry is the synthesized program entry.
	FnEntry
	// FnContractMethod is an ABI method renamed for dispatch.
	FnContractMethod
)

type FunctionParameter struct {
	Name         source.Ident
	IsMutable    bool
	TypeArgument TypeArgument
}

func (p FunctionParameter) EqWithEngines(o FunctionParameter, ctx *CmpCtx) bool {
	return p.Name.Name == o.Name.Name && p.IsMutable == o.IsMutable && p.TypeArgument.EqWithEngines(o.TypeArgument, ctx)
}

func (p FunctionParameter) CmpWithEngines(o FunctionParameter, ctx *CmpCtx) int {
	if r := cmp.Compare(p.Name.Name, o.Name.Name); r != 0 {
		return r
	}
	return p.TypeArgument.CmpWithEngines(o.TypeArgument, ctx)
}

func (p FunctionParameter) HashWithEngines(h hash.Hash64, e Engines, seen Seen) {
	writeString(h, p.Name.Name)
	writeBool(h, p.IsMutable)
	p.TypeArgument.HashWithEngines(h, e, seen)
}

// FunctionDecl is a typed function. Bodies do not take part in equality,
// ordering or hashing; two functions are the same when their signatures
// are.
type FunctionDecl struct {
	Name           source.Ident
	CallPath       CallPath
	Parameters     []FunctionParameter
	ReturnType     TypeArgument
	Body           *Block
	TypeParameters []TypeParameter
	Visibility     Visibility
	Purity         Purity
	Kind           FunctionKind
	Builtin        Builtin
	Span           source.Span
	Attributes     Attributes
}

func (*FunctionDecl) DeclKind() decl.Kind { return decl.KindFunction }
func (f *FunctionDecl) DeclName() string  { return f.Name.Name }

// IsGeneric reports whether the function declares type parameters.
func (f *FunctionDecl) IsGeneric() bool { return len(f.TypeParameters) > 0 }

// ParamTypes returns the parameter types in declaration order.
func (f *FunctionDecl) ParamTypes() []types.TypeID {
	out := make([]types.TypeID, len(f.Parameters))
	for i, p := range f.Parameters {
		out[i] = p.TypeArgument.TypeID
	}
	return out
}

func (f *FunctionDecl) EqWithEngines(o *FunctionDecl, ctx *CmpCtx) bool {
	if f == o {
		return true
	}
	if f == nil || o == nil {
		return false
	}
	return f.Name.Name == o.Name.Name &&
		sliceEq(f.Parameters, o.Parameters, ctx) &&
		f.ReturnType.EqWithEngines(o.ReturnType, ctx) &&
		sliceEq(f.TypeParameters, o.TypeParameters, ctx) &&
		f.Visibility == o.Visibility &&
		f.Purity == o.Purity &&
		f.Kind == o.Kind
}

func (f *FunctionDecl) CmpWithEngines(o *FunctionDecl, ctx *CmpCtx) int {
	if r := cmp.Compare(f.Name.Name, o.Name.Name); r != 0 {
		return r
	}
	if r := sliceCmp(f.Parameters, o.Parameters, ctx); r != 0 {
		return r
	}
	if r := f.ReturnType.CmpWithEngines(o.ReturnType, ctx); r != 0 {
		return r
	}
	if r := sliceCmp(f.TypeParameters, o.TypeParameters, ctx); r != 0 {
		return r
	}
	if r := cmp.Compare(f.Visibility, o.Visibility); r != 0 {
		return r
	}
	if r := cmp.Compare(f.Purity, o.Purity); r != 0 {
		return r
	}
	return cmp.Compare(f.Kind, o.Kind)
}

func (f *FunctionDecl) HashWithEngines(h hash.Hash64, e Engines, seen Seen) {
	writeString(h, f.Name.Name)
	sliceHash(h, f.Parameters, e, seen)
	f.ReturnType.HashWithEngines(h, e, seen)
	sliceHash(h, f.TypeParameters, e, seen)
	writeUint(h, uint64(f.Visibility))
	writeUint(h, uint64(f.Purity))
	writeUint(h, uint64(f.Kind))
}

// SubstTypes rewrites the signature. Body types stay generic; callers
// carry the substitution alongside the body.
func (f *FunctionDecl) SubstTypes(m *TypeSubstMap, e Engines) bool {
	if m.IsEmpty() {
		return false
	}
	changed := false
	for i := range f.TypeParameters {
		changed = f.TypeParameters[i].SubstTypes(m, e) || changed
	}
	for i := range f.Parameters {
		changed = f.Parameters[i].TypeArgument.SubstTypes(m, e) || changed
	}
	changed = f.ReturnType.SubstTypes(m, e) || changed
	return changed
}

func (f *FunctionDecl) Clone() *FunctionDecl {
	out := *f
	out.Parameters = slices.Clone(f.Parameters)
	out.TypeParameters = slices.Clone(f.TypeParameters)
	out.Attributes = slices.Clone(f.Attributes)
	return &out
}

// SubstFor builds the map from this function's type parameters to args.
func (f *FunctionDecl) SubstFor(args []types.TypeID) *TypeSubstMap {
	return NewTypeSubstMap(typeParamIDs(f.TypeParameters), args)
}
