package ty

import (
	"cmp"
	"encoding/binary"
	"hash"

	"ledgerc/internal/decl"
	"ledgerc/internal/types"
)

// TypesEqual compares two handles structurally. Aliases are transparent.
func (e Engines) TypesEqual(a, b types.TypeID) bool {
	return NewCmpCtx(e).TypesEqual(a, b)
}

// CompareTypes orders two handles structurally.
func (e Engines) CompareTypes(a, b types.TypeID) int {
	return NewCmpCtx(e).CompareTypes(a, b)
}

// HashType writes the structural hash of id into h. A struct or enum is
// expanded only at the top; nominal types nested inside it contribute
// their name and arity, so equal types hash equal however far their
// cycles are unrolled.
func (e Engines) HashType(h hash.Hash64, id types.TypeID, seen Seen) {
	in := e.Types
	id = in.Unalias(id)
	tt, ok := in.Lookup(id)
	if !ok {
		writeUint(h, 0)
		return
	}
	writeUint(h, uint64(tt.Kind))
	switch tt.Kind {
	case types.KindUint:
		writeUint(h, uint64(tt.Width))
	case types.KindStringArray:
		writeUint(h, uint64(tt.Count))
	case types.KindArray:
		writeUint(h, uint64(tt.Count))
		e.HashType(h, tt.Elem, seen)
	case types.KindPtr, types.KindSlice:
		e.HashType(h, tt.Elem, seen)
	case types.KindTuple:
		elems, _ := in.TupleElems(id)
		writeUint(h, uint64(len(elems)))
		for _, el := range elems {
			e.HashType(h, el, seen)
		}
	case types.KindTypeParam:
		info, _ := in.TypeParamInfo(id)
		writeString(h, info.Name)
	case types.KindUnknown, types.KindPlaceholder, types.KindNumeric:
		// variables are only equal to themselves
		writeUint(h, uint64(id))
	case types.KindStruct, types.KindEnum:
		info, _ := in.NominalInfo(id)
		writeString(h, info.Name)
		writeUint(h, uint64(len(info.Args)))
		if len(seen) > 0 {
			// nested nominal: equality unrolls cycles to any depth, so
			// only the name and arity are stable
			return
		}
		key := SeenKey{Ref: info.Decl, Kind: tt.Kind}
		seen[key] = struct{}{}
		defer delete(seen, key)
		if body, ok := e.Decls.Lookup(info.Decl); ok {
			if hv, ok := body.(HashWithEngines); ok {
				hv.HashWithEngines(h, e, seen)
			}
		}
	}
}

// DisplayType renders id for diagnostics.
func (e Engines) DisplayType(id types.TypeID) string {
	return types.Label(e.Types, id)
}

// TypesEqual compares a and b inside this context.
func (c *CmpCtx) TypesEqual(a, b types.TypeID) bool {
	if a == b {
		return true
	}
	in := c.Engines.Types
	a, b = in.Unalias(a), in.Unalias(b)
	if a == b {
		return true
	}
	ta, okA := in.Lookup(a)
	tb, okB := in.Lookup(b)
	if !okA || !okB || ta.Kind != tb.Kind {
		return false
	}
	switch ta.Kind {
	case types.KindUnit, types.KindBool, types.KindB256, types.KindStringSlice,
		types.KindRawPtr, types.KindRawSlice, types.KindContract, types.KindNever,
		types.KindErrorRecovery:
		return true
	case types.KindUint:
		return ta.Width == tb.Width
	case types.KindStringArray:
		return ta.Count == tb.Count
	case types.KindArray:
		return ta.Count == tb.Count && c.TypesEqual(ta.Elem, tb.Elem)
	case types.KindPtr, types.KindSlice:
		return c.TypesEqual(ta.Elem, tb.Elem)
	case types.KindTuple:
		ea, _ := in.TupleElems(a)
		eb, _ := in.TupleElems(b)
		return c.typeListsEqual(ea, eb)
	case types.KindTypeParam:
		pa, _ := in.TypeParamInfo(a)
		pb, _ := in.TypeParamInfo(b)
		return pa.Name == pb.Name
	case types.KindStruct, types.KindEnum:
		pair := [2]types.TypeID{a, b}
		if _, busy := c.active[pair]; busy {
			return true
		}
		c.active[pair] = struct{}{}
		defer delete(c.active, pair)
		na, _ := in.NominalInfo(a)
		nb, _ := in.NominalInfo(b)
		if na.Decl == nb.Decl {
			return c.typeListsEqual(na.Args, nb.Args)
		}
		return c.declsEqual(ta.Kind, na.Decl, nb.Decl)
	}
	return false
}

func (c *CmpCtx) typeListsEqual(a, b []types.TypeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !c.TypesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func (c *CmpCtx) declsEqual(kind types.Kind, a, b decl.ID) bool {
	switch kind {
	case types.KindStruct:
		da, okA := decl.As[*StructDecl](c.Engines.Decls, a)
		db, okB := decl.As[*StructDecl](c.Engines.Decls, b)
		return okA && okB && da.EqWithEngines(db, c)
	case types.KindEnum:
		da, okA := decl.As[*EnumDecl](c.Engines.Decls, a)
		db, okB := decl.As[*EnumDecl](c.Engines.Decls, b)
		return okA && okB && da.EqWithEngines(db, c)
	}
	return false
}

// CompareTypes orders a and b inside this context.
func (c *CmpCtx) CompareTypes(a, b types.TypeID) int {
	if a == b {
		return 0
	}
	in := c.Engines.Types
	a, b = in.Unalias(a), in.Unalias(b)
	if a == b {
		return 0
	}
	ta, _ := in.Lookup(a)
	tb, _ := in.Lookup(b)
	if r := cmp.Compare(ta.Kind, tb.Kind); r != 0 {
		return r
	}
	switch ta.Kind {
	case types.KindUnit, types.KindBool, types.KindB256, types.KindStringSlice,
		types.KindRawPtr, types.KindRawSlice, types.KindContract, types.KindNever,
		types.KindErrorRecovery:
		return 0
	case types.KindUint:
		return cmp.Compare(ta.Width, tb.Width)
	case types.KindStringArray:
		return cmp.Compare(ta.Count, tb.Count)
	case types.KindArray:
		if r := cmp.Compare(ta.Count, tb.Count); r != 0 {
			return r
		}
		return c.CompareTypes(ta.Elem, tb.Elem)
	case types.KindPtr, types.KindSlice:
		return c.CompareTypes(ta.Elem, tb.Elem)
	case types.KindTuple:
		ea, _ := in.TupleElems(a)
		eb, _ := in.TupleElems(b)
		return c.compareTypeLists(ea, eb)
	case types.KindTypeParam:
		pa, _ := in.TypeParamInfo(a)
		pb, _ := in.TypeParamInfo(b)
		return cmp.Compare(pa.Name, pb.Name)
	case types.KindStruct, types.KindEnum:
		pair := [2]types.TypeID{a, b}
		if _, busy := c.active[pair]; busy {
			return 0
		}
		c.active[pair] = struct{}{}
		defer delete(c.active, pair)
		na, _ := in.NominalInfo(a)
		nb, _ := in.NominalInfo(b)
		if na.Decl == nb.Decl {
			return c.compareTypeLists(na.Args, nb.Args)
		}
		return c.compareDecls(ta.Kind, na.Decl, nb.Decl)
	}
	return cmp.Compare(a, b)
}

func (c *CmpCtx) compareTypeLists(a, b []types.TypeID) int {
	if r := cmp.Compare(len(a), len(b)); r != 0 {
		return r
	}
	for i := range a {
		if r := c.CompareTypes(a[i], b[i]); r != 0 {
			return r
		}
	}
	return 0
}

func (c *CmpCtx) compareDecls(kind types.Kind, a, b decl.ID) int {
	switch kind {
	case types.KindStruct:
		da, okA := decl.As[*StructDecl](c.Engines.Decls, a)
		db, okB := decl.As[*StructDecl](c.Engines.Decls, b)
		if okA && okB {
			return da.CmpWithEngines(db, c)
		}
	case types.KindEnum:
		da, okA := decl.As[*EnumDecl](c.Engines.Decls, a)
		db, okB := decl.As[*EnumDecl](c.Engines.Decls, b)
		if okA && okB {
			return da.CmpWithEngines(db, c)
		}
	}
	return cmp.Compare(a, b)
}

func writeUint(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

func writeString(h hash.Hash64, s string) {
	writeUint(h, uint64(len(s)))
	_, _ = h.Write([]byte(s))
}

func writeBool(h hash.Hash64, b bool) {
	if b {
		writeUint(h, 1)
		return
	}
	writeUint(h, 0)
}
