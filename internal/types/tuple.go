package types

import "slices"

// TupleInfo stores the element types for a tuple type.
type TupleInfo struct {
	Elems []TypeID
}

// RegisterTuple creates or finds the tuple type with the given elements.
// An empty element list yields the unit type.
func (in *Interner) RegisterTuple(elems []TypeID) TypeID {
	if len(elems) == 0 {
		return in.builtins.Unit
	}
	elems = slices.Clone(elems)
	return in.internComposite("tuple("+idsKey(elems)+")", KindTuple, func() uint32 {
		in.tuples = append(in.tuples, TupleInfo{Elems: elems})
		return slot(len(in.tuples)-1, "tuple info")
	})
}

// TupleInfo returns the element types for a tuple TypeID.
func (in *Interner) TupleInfo(id TypeID) (TupleInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTuple {
		return TupleInfo{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(tt.Payload) >= len(in.tuples) {
		return TupleInfo{}, false
	}
	return TupleInfo{Elems: slices.Clone(in.tuples[tt.Payload].Elems)}, true
}

// TupleElems returns the elements of a tuple; unit yields an empty slice.
func (in *Interner) TupleElems(id TypeID) ([]TypeID, bool) {
	id = in.Unalias(id)
	if id == in.builtins.Unit {
		return nil, true
	}
	info, ok := in.TupleInfo(id)
	return info.Elems, ok
}
