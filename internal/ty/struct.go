package ty

import (
	"cmp"
	"fmt"
	"hash"
	"slices"
	"strings"

	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/source"
	"ledgerc/internal/types"
)

// StructDecl is a typed struct declaration. Field order is the memory
// layout order. Span and Attributes are provenance and excluded from
// equality, hashing and ordering.
type StructDecl struct {
	CallPath       CallPath
	Fields         []StructField
	TypeParameters []TypeParameter
	Visibility     Visibility
	Span           source.Span
	Attributes     Attributes

	// Origin is the generic declaration this one was instantiated from,
	// decl.NoID for declarations written by the user.
	Origin decl.ID
}

func (*StructDecl) DeclKind() decl.Kind { return decl.KindStruct }
func (s *StructDecl) DeclName() string  { return s.CallPath.Suffix.Name }

type StructField struct {
	Name         source.Ident
	Span         source.Span
	TypeArgument TypeArgument
	Attributes   Attributes
}

func (f StructField) EqWithEngines(o StructField, ctx *CmpCtx) bool {
	return f.Name.Name == o.Name.Name && f.TypeArgument.EqWithEngines(o.TypeArgument, ctx)
}

// CmpWithEngines orders fields by name, then by type.
func (f StructField) CmpWithEngines(o StructField, ctx *CmpCtx) int {
	if r := cmp.Compare(f.Name.Name, o.Name.Name); r != 0 {
		return r
	}
	return f.TypeArgument.CmpWithEngines(o.TypeArgument, ctx)
}

func (f StructField) HashWithEngines(h hash.Hash64, e Engines, seen Seen) {
	writeString(h, f.Name.Name)
	f.TypeArgument.HashWithEngines(h, e, seen)
}

func (s *StructDecl) EqWithEngines(o *StructDecl, ctx *CmpCtx) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	return s.CallPath.Suffix.Name == o.CallPath.Suffix.Name &&
		sliceEq(s.Fields, o.Fields, ctx) &&
		sliceEq(s.TypeParameters, o.TypeParameters, ctx) &&
		s.Visibility == o.Visibility
}

func (s *StructDecl) CmpWithEngines(o *StructDecl, ctx *CmpCtx) int {
	if r := cmp.Compare(s.CallPath.Suffix.Name, o.CallPath.Suffix.Name); r != 0 {
		return r
	}
	if r := sliceCmp(s.Fields, o.Fields, ctx); r != 0 {
		return r
	}
	if r := sliceCmp(s.TypeParameters, o.TypeParameters, ctx); r != 0 {
		return r
	}
	return cmp.Compare(s.Visibility, o.Visibility)
}

func (s *StructDecl) HashWithEngines(h hash.Hash64, e Engines, seen Seen) {
	writeString(h, s.CallPath.Suffix.Name)
	sliceHash(h, s.Fields, e, seen)
	sliceHash(h, s.TypeParameters, e, seen)
	writeUint(h, uint64(s.Visibility))
}

// SubstTypes rewrites every field and type parameter through m.
func (s *StructDecl) SubstTypes(m *TypeSubstMap, e Engines) bool {
	if m.IsEmpty() {
		return false
	}
	changed := false
	for i := range s.TypeParameters {
		changed = s.TypeParameters[i].SubstTypes(m, e) || changed
	}
	for i := range s.Fields {
		changed = s.Fields[i].TypeArgument.SubstTypes(m, e) || changed
	}
	return changed
}

// Clone returns a deep copy suitable for substitution.
func (s *StructDecl) Clone() *StructDecl {
	out := *s
	out.Fields = slices.Clone(s.Fields)
	out.TypeParameters = slices.Clone(s.TypeParameters)
	out.Attributes = slices.Clone(s.Attributes)
	return &out
}

// FieldNames returns the field names in declaration order.
func (s *StructDecl) FieldNames() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name.Name
	}
	return out
}

// FieldNotFoundError carries the details of a failed field lookup.
// AvailableFields is the newline separated list of field names in
// declaration order.
type FieldNotFoundError struct {
	AvailableFields string
	FieldName       source.Ident
	StructName      source.Ident
	Span            source.Span
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field %q not found on struct %q", e.FieldName.Name, e.StructName.Name)
}

// ExpectField returns the field called name or reports SemaFieldNotFound.
// The returned error matches both diag.ErrEmitted and *FieldNotFoundError.
func (s *StructDecl) ExpectField(h *diag.Handler, name source.Ident) (*StructField, error) {
	for i := range s.Fields {
		if s.Fields[i].Name.Name == name.Name {
			return &s.Fields[i], nil
		}
	}
	fnf := &FieldNotFoundError{
		AvailableFields: strings.Join(s.FieldNames(), "\n"),
		FieldName:       name,
		StructName:      s.CallPath.Suffix,
		Span:            name.Span,
	}
	d := diag.NewError(diag.SemaFieldNotFound, name.Span, fnf.Error())
	if len(s.Fields) > 0 {
		d = d.WithNote(s.Span, "available fields: "+strings.Join(s.FieldNames(), ", "))
	} else {
		d = d.WithNote(s.Span, "struct has no fields")
	}
	return nil, fmt.Errorf("%w: %w", h.EmitErr(d), fnf)
}

// FieldIndexAndType returns the zero-based declaration-order index of the
// field and its type. The index is the layout index.
func (s *StructDecl) FieldIndexAndType(name string) (int, types.TypeID, bool) {
	for i, f := range s.Fields {
		if f.Name.Name == name {
			return i, f.TypeArgument.TypeID, true
		}
	}
	return -1, types.NoTypeID, false
}
