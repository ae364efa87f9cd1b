package sema

import (
	"ledgerc/internal/decl"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

// Inference variables are KindUnknown (any type) and KindNumeric (an
// unsuffixed integer literal, any unsigned width). Bindings are local to
// one body; zonk writes them back into the interned types at the end.

func (fc *fnChecker) shallow(t types.TypeID) types.TypeID {
	in := fc.c.engines.Types
	for range 256 {
		t = in.Unalias(t)
		next, ok := fc.bind[t]
		if !ok {
			return t
		}
		t = next
	}
	return t
}

func (fc *fnChecker) kindOf(t types.TypeID) types.Kind {
	tt, ok := fc.c.engines.Types.Lookup(t)
	if !ok {
		return types.KindInvalid
	}
	return tt.Kind
}

// unify makes a and b equal, binding variables on either side. It
// reports whether the two types are compatible.
func (fc *fnChecker) unify(a, b types.TypeID) bool {
	a, b = fc.shallow(a), fc.shallow(b)
	if a == b {
		return true
	}
	in := fc.c.engines.Types
	ta, okA := in.Lookup(a)
	tb, okB := in.Lookup(b)
	if !okA || !okB {
		return false
	}
	switch {
	case ta.Kind == types.KindNever || tb.Kind == types.KindNever,
		ta.Kind == types.KindErrorRecovery || tb.Kind == types.KindErrorRecovery:
		return true
	case ta.Kind == types.KindUnknown:
		return fc.bindVar(a, b)
	case tb.Kind == types.KindUnknown:
		return fc.bindVar(b, a)
	case ta.Kind == types.KindNumeric:
		if tb.Kind != types.KindUint && tb.Kind != types.KindNumeric {
			return false
		}
		fc.bind[a] = b
		return true
	case tb.Kind == types.KindNumeric:
		if ta.Kind != types.KindUint {
			return false
		}
		fc.bind[b] = a
		return true
	case ta.Kind != tb.Kind:
		return false
	}

	switch ta.Kind {
	case types.KindArray:
		return ta.Count == tb.Count && fc.unify(ta.Elem, tb.Elem)
	case types.KindPtr, types.KindSlice:
		return fc.unify(ta.Elem, tb.Elem)
	case types.KindTuple:
		ea, _ := in.TupleElems(a)
		eb, _ := in.TupleElems(b)
		return fc.unifyLists(ea, eb)
	case types.KindStruct, types.KindEnum:
		na, _ := in.NominalInfo(a)
		nb, _ := in.NominalInfo(b)
		if fc.c.origin(na.Decl) == fc.c.origin(nb.Decl) {
			return fc.unifyLists(na.Args, nb.Args)
		}
	}
	return fc.c.engines.TypesEqual(a, b)
}

func (fc *fnChecker) unifyLists(a, b []types.TypeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !fc.unify(a[i], b[i]) {
			return false
		}
	}
	return true
}

func (fc *fnChecker) bindVar(v, t types.TypeID) bool {
	if fc.occurs(v, t, 0) {
		return false
	}
	fc.bind[v] = t
	return true
}

// occurs reports whether v appears inside t.
func (fc *fnChecker) occurs(v, t types.TypeID, depth int) bool {
	t = fc.shallow(t)
	if t == v {
		return true
	}
	if depth > 32 {
		return false
	}
	for _, child := range fc.c.children(t) {
		if fc.occurs(v, child, depth+1) {
			return true
		}
	}
	return false
}

// zonk replaces bound variables inside t by their bindings.
func (fc *fnChecker) zonk(t types.TypeID) types.TypeID {
	return fc.zonkDepth(t, 0)
}

func (fc *fnChecker) zonkDepth(t types.TypeID, depth int) types.TypeID {
	if depth > 64 || t == types.NoTypeID {
		return t
	}
	e := fc.c.engines
	tt, ok := e.Types.Lookup(t)
	if !ok {
		return t
	}
	switch tt.Kind {
	case types.KindUnknown, types.KindNumeric:
		if next, ok := fc.bind[t]; ok {
			return fc.zonkDepth(next, depth+1)
		}
	case types.KindAlias:
		info, _ := e.Types.AliasInfo(t)
		if target := fc.zonkDepth(info.Target, depth+1); target != info.Target {
			return target
		}
	case types.KindArray, types.KindPtr, types.KindSlice:
		if elem := fc.zonkDepth(tt.Elem, depth+1); elem != tt.Elem {
			tt.Elem = elem
			return e.Types.Intern(tt)
		}
	case types.KindTuple:
		elems, _ := e.Types.TupleElems(t)
		if next, changed := fc.zonkList(elems, depth); changed {
			return e.Types.RegisterTuple(next)
		}
	case types.KindStruct, types.KindEnum:
		info, _ := e.Types.NominalInfo(t)
		next, changed := fc.zonkList(info.Args, depth)
		if !changed {
			return t
		}
		var inst types.TypeID
		if tt.Kind == types.KindStruct {
			inst = e.InstantiateStruct(info.Decl, next)
		} else {
			inst = e.InstantiateEnum(info.Decl, next)
		}
		if inst != types.NoTypeID {
			return inst
		}
	}
	return t
}

func (fc *fnChecker) zonkList(ids []types.TypeID, depth int) ([]types.TypeID, bool) {
	out := make([]types.TypeID, len(ids))
	changed := false
	for i, id := range ids {
		out[i] = fc.zonkDepth(id, depth+1)
		changed = changed || out[i] != id
	}
	return out, changed
}

// origin is the generic declaration behind an instantiation.
func (c *Checker) origin(id decl.ID) decl.ID {
	switch d := c.engines.Decls.Get(id).(type) {
	case *ty.StructDecl:
		if d.Origin != decl.NoID {
			return d.Origin
		}
	case *ty.EnumDecl:
		if d.Origin != decl.NoID {
			return d.Origin
		}
	}
	return id
}

// children lists the type handles directly inside t.
func (c *Checker) children(t types.TypeID) []types.TypeID {
	in := c.engines.Types
	t = in.Unalias(t)
	tt, ok := in.Lookup(t)
	if !ok {
		return nil
	}
	switch tt.Kind {
	case types.KindArray, types.KindPtr, types.KindSlice:
		return []types.TypeID{tt.Elem}
	case types.KindTuple:
		elems, _ := in.TupleElems(t)
		return elems
	case types.KindStruct, types.KindEnum:
		info, _ := in.NominalInfo(t)
		return info.Args
	}
	return nil
}

// containsKind reports whether t or any type nested in it has kind k.
func (c *Checker) containsKind(t types.TypeID, k types.Kind) bool {
	return c.containsKindDepth(t, k, 0)
}

func (c *Checker) containsKindDepth(t types.TypeID, k types.Kind, depth int) bool {
	if depth > 64 {
		return false
	}
	if c.engines.Types.IsKind(t, k) {
		return true
	}
	for _, child := range c.children(t) {
		if c.containsKindDepth(child, k, depth+1) {
			return true
		}
	}
	return false
}
