package ty

import (
	"cmp"
	"hash"
	"slices"

	"ledgerc/internal/decl"
	"ledgerc/internal/source"
)

// EnumDecl is a typed enum declaration. Variant tags follow declaration
// order.
type EnumDecl struct {
	CallPath       CallPath
	Variants       []EnumVariant
	TypeParameters []TypeParameter
	Visibility     Visibility
	Span           source.Span
	Attributes     Attributes
	Origin         decl.ID
}

func (*EnumDecl) DeclKind() decl.Kind { return decl.KindEnum }
func (d *EnumDecl) DeclName() string  { return d.CallPath.Suffix.Name }

type EnumVariant struct {
	Name         source.Ident
	Tag          int
	TypeArgument TypeArgument
	Span         source.Span
}

func (v EnumVariant) EqWithEngines(o EnumVariant, ctx *CmpCtx) bool {
	return v.Name.Name == o.Name.Name && v.Tag == o.Tag && v.TypeArgument.EqWithEngines(o.TypeArgument, ctx)
}

func (v EnumVariant) CmpWithEngines(o EnumVariant, ctx *CmpCtx) int {
	if r := cmp.Compare(v.Tag, o.Tag); r != 0 {
		return r
	}
	if r := cmp.Compare(v.Name.Name, o.Name.Name); r != 0 {
		return r
	}
	return v.TypeArgument.CmpWithEngines(o.TypeArgument, ctx)
}

func (v EnumVariant) HashWithEngines(h hash.Hash64, e Engines, seen Seen) {
	writeString(h, v.Name.Name)
	writeUint(h, uint64(v.Tag)) //nolint:gosec // tags are small and non-negative
	v.TypeArgument.HashWithEngines(h, e, seen)
}

func (d *EnumDecl) EqWithEngines(o *EnumDecl, ctx *CmpCtx) bool {
	if d == o {
		return true
	}
	if d == nil || o == nil {
		return false
	}
	return d.CallPath.Suffix.Name == o.CallPath.Suffix.Name &&
		sliceEq(d.Variants, o.Variants, ctx) &&
		sliceEq(d.TypeParameters, o.TypeParameters, ctx) &&
		d.Visibility == o.Visibility
}

func (d *EnumDecl) CmpWithEngines(o *EnumDecl, ctx *CmpCtx) int {
	if r := cmp.Compare(d.CallPath.Suffix.Name, o.CallPath.Suffix.Name); r != 0 {
		return r
	}
	if r := sliceCmp(d.Variants, o.Variants, ctx); r != 0 {
		return r
	}
	if r := sliceCmp(d.TypeParameters, o.TypeParameters, ctx); r != 0 {
		return r
	}
	return cmp.Compare(d.Visibility, o.Visibility)
}

func (d *EnumDecl) HashWithEngines(h hash.Hash64, e Engines, seen Seen) {
	writeString(h, d.CallPath.Suffix.Name)
	sliceHash(h, d.Variants, e, seen)
	sliceHash(h, d.TypeParameters, e, seen)
	writeUint(h, uint64(d.Visibility))
}

func (d *EnumDecl) SubstTypes(m *TypeSubstMap, e Engines) bool {
	if m.IsEmpty() {
		return false
	}
	changed := false
	for i := range d.TypeParameters {
		changed = d.TypeParameters[i].SubstTypes(m, e) || changed
	}
	for i := range d.Variants {
		changed = d.Variants[i].TypeArgument.SubstTypes(m, e) || changed
	}
	return changed
}

func (d *EnumDecl) Clone() *EnumDecl {
	out := *d
	out.Variants = slices.Clone(d.Variants)
	out.TypeParameters = slices.Clone(d.TypeParameters)
	out.Attributes = slices.Clone(d.Attributes)
	return &out
}

// Variant looks a variant up by name.
func (d *EnumDecl) Variant(name string) (EnumVariant, bool) {
	for _, v := range d.Variants {
		if v.Name.Name == name {
			return v, true
		}
	}
	return EnumVariant{}, false
}
