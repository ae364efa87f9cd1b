package types

import (
	"fmt"
	"slices"
)

// NominalInfo describes a struct or enum instantiation: the declaration it
// refers to plus the concrete type arguments.
type NominalInfo struct {
	Name string
	Decl DeclRef
	Args []TypeID
}

// RegisterStruct creates or finds the struct type for decl instantiated
// with args.
func (in *Interner) RegisterStruct(name string, decl DeclRef, args []TypeID) TypeID {
	return in.registerNominal(KindStruct, name, decl, args)
}

// RegisterEnum creates or finds the enum type for decl instantiated with args.
func (in *Interner) RegisterEnum(name string, decl DeclRef, args []TypeID) TypeID {
	return in.registerNominal(KindEnum, name, decl, args)
}

func (in *Interner) registerNominal(kind Kind, name string, decl DeclRef, args []TypeID) TypeID {
	args = slices.Clone(args)
	key := fmt.Sprintf("%s:%d<%s>", kind, decl, idsKey(args))
	return in.internComposite(key, kind, func() uint32 {
		in.nominals = append(in.nominals, NominalInfo{Name: name, Decl: decl, Args: args})
		return slot(len(in.nominals)-1, "nominal info")
	})
}

// NominalInfo returns metadata for a struct or enum TypeID.
func (in *Interner) NominalInfo(id TypeID) (NominalInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || (tt.Kind != KindStruct && tt.Kind != KindEnum) {
		return NominalInfo{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if tt.Payload == 0 || int(tt.Payload) >= len(in.nominals) {
		return NominalInfo{}, false
	}
	info := in.nominals[tt.Payload]
	info.Args = slices.Clone(info.Args)
	return info, true
}
