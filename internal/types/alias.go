package types

import "fmt"

// AliasInfo stores metadata for an alias type.
type AliasInfo struct {
	Name   string
	Target TypeID
}

// RegisterAlias creates or finds `type name = target`.
func (in *Interner) RegisterAlias(name string, target TypeID) TypeID {
	key := fmt.Sprintf("alias:%s=%d", name, target)
	return in.internComposite(key, KindAlias, func() uint32 {
		in.aliases = append(in.aliases, AliasInfo{Name: name, Target: target})
		return slot(len(in.aliases)-1, "alias info")
	})
}

// AliasInfo returns the alias metadata for id.
func (in *Interner) AliasInfo(id TypeID) (AliasInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindAlias {
		return AliasInfo{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if tt.Payload == 0 || int(tt.Payload) >= len(in.aliases) {
		return AliasInfo{}, false
	}
	return in.aliases[tt.Payload], true
}
