package ty

import (
	"errors"
	"hash/fnv"
	"testing"

	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/source"
	"ledgerc/internal/types"
)

func ident(name string) source.Ident {
	return source.IdentNoSpan(name)
}

func field(name string, t types.TypeID) StructField {
	return StructField{Name: ident(name), TypeArgument: NewTypeArgument(t, source.NoSpan)}
}

func mkStruct(name string, fields ...StructField) *StructDecl {
	return &StructDecl{CallPath: NewCallPath(ident(name)), Fields: fields, Visibility: Public}
}

func TestStructProvenanceExcluded(t *testing.T) {
	e := NewEngines()
	b := e.Builtins()
	a := mkStruct("Point", field("x", b.U64), field("y", b.U64))
	c := mkStruct("Point", field("x", b.U64), field("y", b.U64))
	c.Span = source.Span{File: 3, Start: 10, End: 40}
	c.Attributes = Attributes{{Name: "doc", Args: []string{"a point"}}}
	c.Fields[0].Span = source.Span{File: 3, Start: 12, End: 13}
	c.Fields[1].Attributes = Attributes{{Name: "deprecated"}}

	if !Equal(a, c, e) {
		t.Fatalf("declarations differing only in provenance must be equal")
	}
	if Hash(a, e) != Hash(c, e) {
		t.Fatalf("declarations differing only in provenance must hash equal")
	}
	if Compare(a, c, e) != 0 {
		t.Fatalf("declarations differing only in provenance must compare equal")
	}
}

func TestStructEqualitySensitiveToShape(t *testing.T) {
	e := NewEngines()
	b := e.Builtins()
	base := mkStruct("S", field("a", b.U64), field("b", b.Bool))
	tests := []struct {
		name  string
		other *StructDecl
	}{
		{"field order", mkStruct("S", field("b", b.Bool), field("a", b.U64))},
		{"field type", mkStruct("S", field("a", b.U32), field("b", b.Bool))},
		{"name", mkStruct("T", field("a", b.U64), field("b", b.Bool))},
		{"visibility", func() *StructDecl {
			s := mkStruct("S", field("a", b.U64), field("b", b.Bool))
			s.Visibility = Private
			return s
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Equal(base, tt.other, e) {
				t.Fatalf("expected declarations to differ")
			}
		})
	}
}

func TestStructEqualitySeesThroughAliases(t *testing.T) {
	e := NewEngines()
	b := e.Builtins()
	balance := e.Types.RegisterAlias("Balance", b.U64)
	a := mkStruct("Account", field("amount", balance))
	c := mkStruct("Account", field("amount", b.U64))
	if !Equal(a, c, e) || Hash(a, e) != Hash(c, e) {
		t.Fatalf("aliases must be transparent for equality and hashing")
	}
}

func TestFieldIndexAndTypeKeepsDeclarationOrder(t *testing.T) {
	e := NewEngines()
	b := e.Builtins()
	s := mkStruct("S", field("a", b.U64), field("b", b.Bool), field("c", b.U64))
	for want, name := range []string{"a", "b", "c"} {
		idx, typ, ok := s.FieldIndexAndType(name)
		if !ok || idx != want {
			t.Fatalf("%s: index %d, want %d", name, idx, want)
		}
		if name == "b" && typ != b.Bool {
			t.Fatalf("b: wrong type %s", e.DisplayType(typ))
		}
	}
	if _, _, ok := s.FieldIndexAndType("d"); ok {
		t.Fatalf("missing field reported as found")
	}
}

func TestExpectFieldMissing(t *testing.T) {
	e := NewEngines()
	b := e.Builtins()
	s := mkStruct("Point", field("x", b.U64), field("y", b.U64))
	h := diag.NewHandler(0)

	f, err := s.ExpectField(h, ident("x"))
	if err != nil || f.Name.Name != "x" {
		t.Fatalf("ExpectField(x) = %v, %v", f, err)
	}

	_, err = s.ExpectField(h, ident("z"))
	if !errors.Is(err, diag.ErrEmitted) {
		t.Fatalf("expected ErrEmitted, got %v", err)
	}
	var fnf *FieldNotFoundError
	if !errors.As(err, &fnf) {
		t.Fatalf("expected FieldNotFoundError, got %T", err)
	}
	if fnf.AvailableFields != "x\ny" {
		t.Fatalf("available fields = %q", fnf.AvailableFields)
	}
	if fnf.StructName.Name != "Point" || fnf.FieldName.Name != "z" {
		t.Fatalf("unexpected names: %+v", fnf)
	}
	errs := h.Errors()
	if len(errs) != 1 || errs[0].Code != diag.SemaFieldNotFound {
		t.Fatalf("expected one SemaFieldNotFound, got %+v", errs)
	}
}

func genericNode(e Engines) (decl.ID, types.TypeID) {
	// struct Node<T> { value: T }
	s := &StructDecl{CallPath: NewCallPath(ident("Node")), Visibility: Public}
	id := e.Decls.Insert(s)
	tp := e.Types.RegisterTypeParam("T", id, 0)
	s.TypeParameters = []TypeParameter{{Name: ident("T"), TypeID: tp, InitialTypeID: tp}}
	s.Fields = []StructField{field("value", tp)}
	return id, tp
}

func TestSubstitutionWithoutMatchingEntriesIsIdentity(t *testing.T) {
	e := NewEngines()
	b := e.Builtins()
	id, _ := genericNode(e)
	orig := decl.MustAs[*StructDecl](e.Decls, id)
	clone := orig.Clone()

	unrelated := e.Types.RegisterTypeParam("U", decl.NoID, 0)
	m := NewTypeSubstMap([]types.TypeID{unrelated}, []types.TypeID{b.U64})
	if clone.SubstTypes(m, e) {
		t.Fatalf("substitution reported changes")
	}
	if !Equal(orig, clone, e) {
		t.Fatalf("substitution with no matching entries must keep the declaration equal")
	}
	if clone.SubstTypes(&TypeSubstMap{}, e) {
		t.Fatalf("empty map reported changes")
	}
}

func TestSubstitutionReplacesFieldsAndParams(t *testing.T) {
	e := NewEngines()
	b := e.Builtins()
	id, tp := genericNode(e)
	clone := decl.MustAs[*StructDecl](e.Decls, id).Clone()
	pair := e.Types.RegisterTuple([]types.TypeID{tp, b.Bool})
	clone.Fields = append(clone.Fields, field("pair", pair))

	m := NewTypeSubstMap([]types.TypeID{tp}, []types.TypeID{b.U64})
	if !clone.SubstTypes(m, e) {
		t.Fatalf("expected changes")
	}
	if clone.Fields[0].TypeArgument.TypeID != b.U64 || clone.TypeParameters[0].TypeID != b.U64 {
		t.Fatalf("field or type parameter not substituted")
	}
	want := e.Types.RegisterTuple([]types.TypeID{b.U64, b.Bool})
	if clone.Fields[1].TypeArgument.TypeID != want {
		t.Fatalf("nested tuple not substituted: %s", e.DisplayType(clone.Fields[1].TypeArgument.TypeID))
	}
	if clone.Fields[1].TypeArgument.InitialTypeID != pair {
		t.Fatalf("initial type must be kept")
	}
}

func TestHashTerminatesOnSelfReferentialGeneric(t *testing.T) {
	e := NewEngines()
	id, tp := genericNode(e)
	nodeT := e.InstantiateStruct(id, []types.TypeID{tp})
	nodeNodeT := e.InstantiateStruct(id, []types.TypeID{nodeT})
	if nodeNodeT == types.NoTypeID {
		t.Fatalf("instantiation failed")
	}
	inst, ok := e.StructOf(nodeNodeT)
	if !ok {
		t.Fatalf("instance declaration missing")
	}
	_ = Hash(inst, e)

	// a struct whose field refers back to the struct itself
	loop := &StructDecl{CallPath: NewCallPath(ident("Loop"))}
	loopID := e.Decls.Insert(loop)
	loopT := e.Types.RegisterStruct("Loop", loopID, nil)
	loop.Fields = []StructField{field("next", loopT)}
	other := &StructDecl{CallPath: NewCallPath(ident("Loop"))}
	otherID := e.Decls.Insert(other)
	otherT := e.Types.RegisterStruct("Loop", otherID, nil)
	other.Fields = []StructField{field("next", otherT)}

	if Hash(loop, e) != Hash(other, e) {
		t.Fatalf("structurally identical cyclic structs must hash equal")
	}
	if !e.TypesEqual(loopT, otherT) {
		t.Fatalf("structurally identical cyclic structs must be equal")
	}
	if e.CompareTypes(loopT, otherT) != 0 {
		t.Fatalf("structurally identical cyclic structs must compare equal")
	}
}

func TestInstantiationCacheSharesEqualDeclarations(t *testing.T) {
	e := NewEngines()
	b := e.Builtins()
	id, _ := genericNode(e)
	balance := e.Types.RegisterAlias("Balance", b.U64)

	a := e.InstantiateStruct(id, []types.TypeID{b.U64})
	c := e.InstantiateStruct(id, []types.TypeID{balance})
	ia, _ := e.Types.NominalInfo(a)
	ic, _ := e.Types.NominalInfo(c)
	if ia.Decl != ic.Decl {
		t.Fatalf("equal instantiations must share the declaration")
	}
	if hits, _ := e.StructCacheStats(); hits != 1 {
		t.Fatalf("expected one cache hit, got %d", hits)
	}
	if !e.TypesEqual(a, c) {
		t.Fatalf("Node<u64> and Node<Balance> must be equal")
	}
	if e.TypesEqual(a, e.InstantiateStruct(id, []types.TypeID{b.Bool})) {
		t.Fatalf("Node<u64> and Node<bool> must differ")
	}
	s, ok := e.StructOf(a)
	if !ok || s.Fields[0].TypeArgument.TypeID != b.U64 {
		t.Fatalf("instance fields not substituted")
	}
	if e.DisplayType(a) != "Node<u64>" {
		t.Fatalf("display = %q", e.DisplayType(a))
	}
}

func TestFieldOrdering(t *testing.T) {
	e := NewEngines()
	b := e.Builtins()
	ctx := NewCmpCtx(e)
	if field("a", b.U64).CmpWithEngines(field("b", b.Bool), ctx) >= 0 {
		t.Fatalf("fields order by name first")
	}
	if field("a", b.Bool).CmpWithEngines(field("a", b.U64), ctx) >= 0 {
		t.Fatalf("equal names order by type")
	}
}

func TestHashAgreesWithEqualityAcrossUnrolledCycles(t *testing.T) {
	e := NewEngines()
	declare := func() (*StructDecl, types.TypeID) {
		d := &StructDecl{CallPath: NewCallPath(ident("Loop"))}
		id := e.Decls.Insert(d)
		return d, e.Types.RegisterStruct("Loop", id, nil)
	}
	// w -> x -> y -> y against z -> z
	w, wT := declare()
	x, xT := declare()
	y, yT := declare()
	z, zT := declare()
	w.Fields = []StructField{field("next", xT)}
	x.Fields = []StructField{field("next", yT)}
	y.Fields = []StructField{field("next", yT)}
	z.Fields = []StructField{field("next", zT)}

	if !e.TypesEqual(wT, zT) {
		t.Fatalf("unrolled cycle must equal the plain cycle")
	}
	if Hash(w, e) != Hash(z, e) {
		t.Fatalf("equal declarations must hash equal")
	}
	hashType := func(id types.TypeID) uint64 {
		h := fnv.New64a()
		e.HashType(h, id, Seen{})
		return h.Sum64()
	}
	if hashType(wT) != hashType(zT) {
		t.Fatalf("equal types must hash equal")
	}

	// a different field name still separates the hashes
	other, otherT := declare()
	other.Fields = []StructField{field("prev", otherT)}
	if Hash(other, e) == Hash(z, e) {
		t.Fatalf("field names must contribute to the hash")
	}
}
