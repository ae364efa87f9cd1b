package ty

import (
	"cmp"
	"hash"
	"slices"
	"strings"

	"ledgerc/internal/source"
	"ledgerc/internal/types"
)

// CallPath is a fully qualified name: prefixes are module names.
type CallPath struct {
	Prefixes []string
	Suffix   source.Ident
}

func NewCallPath(suffix source.Ident, prefixes ...string) CallPath {
	return CallPath{Prefixes: slices.Clone(prefixes), Suffix: suffix}
}

func (p CallPath) String() string {
	if len(p.Prefixes) == 0 {
		return p.Suffix.Name
	}
	return strings.Join(p.Prefixes, "::") + "::" + p.Suffix.Name
}

type Visibility uint8

const (
	Private Visibility = iota
	Public
)

func (v Visibility) String() string {
	if v == Public {
		return "pub"
	}
	return "private"
}

// Purity is the storage access level of a function.
type Purity uint8

const (
	Pure Purity = iota
	Reads
	Writes
	ReadsWrites
)

func (p Purity) String() string {
	switch p {
	case Reads:
		return "reads"
	case Writes:
		return "writes"
	case ReadsWrites:
		return "reads, writes"
	}
	return "pure"
}

// Attribute is a `#[name(args)]` annotation. Provenance only.
type Attribute struct {
	Name string
	Args []string
	Span source.Span
}

type Attributes []Attribute

func (as Attributes) Has(name string) bool {
	for _, a := range as {
		if a.Name == name {
			return true
		}
	}
	return false
}

// TypeArgument is a type as written at a use site. InitialTypeID keeps the
// pre-substitution handle for diagnostics.
type TypeArgument struct {
	TypeID        types.TypeID
	InitialTypeID types.TypeID
	Span          source.Span
}

func NewTypeArgument(id types.TypeID, sp source.Span) TypeArgument {
	return TypeArgument{TypeID: id, InitialTypeID: id, Span: sp}
}

func (a TypeArgument) EqWithEngines(o TypeArgument, ctx *CmpCtx) bool {
	return ctx.TypesEqual(a.TypeID, o.TypeID)
}

func (a TypeArgument) CmpWithEngines(o TypeArgument, ctx *CmpCtx) int {
	return ctx.CompareTypes(a.TypeID, o.TypeID)
}

func (a TypeArgument) HashWithEngines(h hash.Hash64, e Engines, seen Seen) {
	e.HashType(h, a.TypeID, seen)
}

func (a *TypeArgument) SubstTypes(m *TypeSubstMap, e Engines) bool {
	next := m.Apply(a.TypeID, e)
	if next == a.TypeID {
		return false
	}
	a.TypeID = next
	return true
}

// TypeParameter is a generic parameter of a declaration. TypeID starts as
// a KindTypeParam handle and becomes the concrete argument once the
// declaration is instantiated.
type TypeParameter struct {
	Name          source.Ident
	TypeID        types.TypeID
	InitialTypeID types.TypeID
}

func (p TypeParameter) EqWithEngines(o TypeParameter, ctx *CmpCtx) bool {
	return p.Name.Name == o.Name.Name && ctx.TypesEqual(p.TypeID, o.TypeID)
}

func (p TypeParameter) CmpWithEngines(o TypeParameter, ctx *CmpCtx) int {
	if r := cmp.Compare(p.Name.Name, o.Name.Name); r != 0 {
		return r
	}
	return ctx.CompareTypes(p.TypeID, o.TypeID)
}

func (p TypeParameter) HashWithEngines(h hash.Hash64, e Engines, seen Seen) {
	writeString(h, p.Name.Name)
	e.HashType(h, p.TypeID, seen)
}

func (p *TypeParameter) SubstTypes(m *TypeSubstMap, e Engines) bool {
	next := m.Apply(p.TypeID, e)
	if next == p.TypeID {
		return false
	}
	p.TypeID = next
	return true
}

// sliceEq compares two slices element-wise with engine equality.
func sliceEq[T EqWithEngines[T]](a, b []T, ctx *CmpCtx) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].EqWithEngines(b[i], ctx) {
			return false
		}
	}
	return true
}

func sliceCmp[T OrdWithEngines[T]](a, b []T, ctx *CmpCtx) int {
	if r := cmp.Compare(len(a), len(b)); r != 0 {
		return r
	}
	for i := range a {
		if r := a[i].CmpWithEngines(b[i], ctx); r != 0 {
			return r
		}
	}
	return 0
}

func sliceHash[T HashWithEngines](h hash.Hash64, xs []T, e Engines, seen Seen) {
	writeUint(h, uint64(len(xs)))
	for _, x := range xs {
		x.HashWithEngines(h, e, seen)
	}
}

func typeParamIDs(ps []TypeParameter) []types.TypeID {
	out := make([]types.TypeID, len(ps))
	for i, p := range ps {
		out[i] = p.TypeID
	}
	return out
}
