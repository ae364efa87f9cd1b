package types

// TypeParamInfo stores metadata about a generic type parameter.
type TypeParamInfo struct {
	Name  string
	Owner DeclRef
	Index uint32
}

// RegisterTypeParam allocates a new generic parameter. Parameters are never
// deduplicated: two `T`s of different declarations are distinct handles.
func (in *Interner) RegisterTypeParam(name string, owner DeclRef, index uint32) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.params = append(in.params, TypeParamInfo{Name: name, Owner: owner, Index: index})
	return in.appendLocked(Type{Kind: KindTypeParam, Payload: slot(len(in.params)-1, "type param")})
}

// TypeParamInfo returns metadata for the provided generic parameter.
func (in *Interner) TypeParamInfo(id TypeID) (TypeParamInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTypeParam {
		return TypeParamInfo{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if tt.Payload == 0 || int(tt.Payload) >= len(in.params) {
		return TypeParamInfo{}, false
	}
	return in.params[tt.Payload], true
}
