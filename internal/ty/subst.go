package ty

import (
	"ledgerc/internal/decl"
	"ledgerc/internal/types"
)

// TypeSubstMap maps generic parameter handles to concrete types.
type TypeSubstMap struct {
	mapping map[types.TypeID]types.TypeID
	cache   map[types.TypeID]types.TypeID
}

// NewTypeSubstMap pairs params with args positionally. Extra entries on
// either side are ignored.
func NewTypeSubstMap(params, args []types.TypeID) *TypeSubstMap {
	m := &TypeSubstMap{}
	for i := range min(len(params), len(args)) {
		m.Insert(params[i], args[i])
	}
	return m
}

func (m *TypeSubstMap) Insert(param, arg types.TypeID) {
	if param == arg || param == types.NoTypeID || arg == types.NoTypeID {
		return
	}
	if m.mapping == nil {
		m.mapping = make(map[types.TypeID]types.TypeID, 4)
	}
	m.mapping[param] = arg
	m.cache = nil
}

func (m *TypeSubstMap) IsEmpty() bool {
	return m == nil || len(m.mapping) == 0
}

func (m *TypeSubstMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.mapping)
}

// Lookup returns the direct replacement of param, if any.
func (m *TypeSubstMap) Lookup(param types.TypeID) (types.TypeID, bool) {
	if m.IsEmpty() {
		return types.NoTypeID, false
	}
	v, ok := m.mapping[param]
	return v, ok
}

// Apply substitutes recursively through tuples, arrays, pointers, slices,
// aliases and nominal type arguments. Handles not reachable from a mapped
// parameter come back unchanged.
func (m *TypeSubstMap) Apply(id types.TypeID, e Engines) types.TypeID {
	if m.IsEmpty() || id == types.NoTypeID {
		return id
	}
	if v, ok := m.mapping[id]; ok {
		return v
	}
	if cached, ok := m.cache[id]; ok {
		return cached
	}
	out := m.apply(id, e)
	if m.cache == nil {
		m.cache = make(map[types.TypeID]types.TypeID, 16)
	}
	m.cache[id] = out
	return out
}

func (m *TypeSubstMap) apply(id types.TypeID, e Engines) types.TypeID {
	in := e.Types
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch tt.Kind {
	case types.KindArray, types.KindPtr, types.KindSlice:
		elem := m.Apply(tt.Elem, e)
		if elem == tt.Elem {
			return id
		}
		clone := tt
		clone.Elem = elem
		return in.Intern(clone)
	case types.KindTuple:
		elems, _ := in.TupleElems(id)
		next, changed := m.applyList(elems, e)
		if !changed {
			return id
		}
		return in.RegisterTuple(next)
	case types.KindAlias:
		info, _ := in.AliasInfo(id)
		target := m.Apply(info.Target, e)
		if target == info.Target {
			return id
		}
		return in.RegisterAlias(info.Name, target)
	case types.KindStruct, types.KindEnum:
		info, _ := in.NominalInfo(id)
		next, changed := m.applyList(info.Args, e)
		if !changed {
			return id
		}
		var inst types.TypeID
		if tt.Kind == types.KindStruct {
			inst = e.InstantiateStruct(info.Decl, next)
		} else {
			inst = e.InstantiateEnum(info.Decl, next)
		}
		if inst == types.NoTypeID {
			return id
		}
		return inst
	}
	return id
}

func (m *TypeSubstMap) applyList(ids []types.TypeID, e Engines) ([]types.TypeID, bool) {
	out := make([]types.TypeID, len(ids))
	changed := false
	for i, el := range ids {
		out[i] = m.Apply(el, e)
		changed = changed || out[i] != el
	}
	return out, changed
}

// originOf returns the generic declaration behind an instantiation.
func originOf(d decl.Decl, id decl.ID) decl.ID {
	switch v := d.(type) {
	case *StructDecl:
		if v.Origin != decl.NoID {
			return v.Origin
		}
	case *EnumDecl:
		if v.Origin != decl.NoID {
			return v.Origin
		}
	}
	return id
}
