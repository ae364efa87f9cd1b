package types

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Unit          TypeID
	Never         TypeID
	ErrorRecovery TypeID
	Bool          TypeID
	U8            TypeID
	U16           TypeID
	U32           TypeID
	U64           TypeID
	U256          TypeID
	B256          TypeID
	Str           TypeID
	RawPtr        TypeID
	RawSlice      TypeID
	Contract      TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// It is append-only and safe for concurrent use: a returned TypeID always
// resolves to the same descriptor.
type Interner struct {
	mu        sync.RWMutex
	types     []Type
	index     map[typeKey]TypeID
	composite map[string]TypeID
	builtins  Builtins
	tuples    []TupleInfo
	nominals  []NominalInfo
	aliases   []AliasInfo
	params    []TypeParamInfo
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:     make(map[typeKey]TypeID, 64),
		composite: make(map[string]TypeID, 64),
	}
	// slot 0 of every table is the invalid sentinel
	in.types = append(in.types, Type{Kind: KindInvalid})
	in.tuples = append(in.tuples, TupleInfo{})
	in.nominals = append(in.nominals, NominalInfo{})
	in.aliases = append(in.aliases, AliasInfo{})
	in.params = append(in.params, TypeParamInfo{})

	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Never = in.Intern(Type{Kind: KindNever})
	in.builtins.ErrorRecovery = in.Intern(Type{Kind: KindErrorRecovery})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.U8 = in.Intern(MakeUint(Width8))
	in.builtins.U16 = in.Intern(MakeUint(Width16))
	in.builtins.U32 = in.Intern(MakeUint(Width32))
	in.builtins.U64 = in.Intern(MakeUint(Width64))
	in.builtins.U256 = in.Intern(MakeUint(Width256))
	in.builtins.B256 = in.Intern(Type{Kind: KindB256})
	in.builtins.Str = in.Intern(Type{Kind: KindStringSlice})
	in.builtins.RawPtr = in.Intern(Type{Kind: KindRawPtr})
	in.builtins.RawSlice = in.Intern(Type{Kind: KindRawSlice})
	in.builtins.Contract = in.Intern(Type{Kind: KindContract})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID. Variable
// kinds (unknown, placeholder, numeric) always get a fresh id.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if t.Kind.IsVariable() {
		return in.appendLocked(t)
	}
	key := typeKey{Kind: t.Kind, Elem: t.Elem, Count: t.Count, Width: t.Width}
	if id, ok := in.index[key]; ok {
		return id
	}
	id := in.appendLocked(t)
	in.index[key] = id
	return id
}

// Fresh allocates a new inference variable of the given kind.
func (in *Interner) Fresh(kind Kind) TypeID {
	if !kind.IsVariable() || kind == KindTypeParam {
		panic(fmt.Sprintf("types: %s is not an inference variable", kind))
	}
	return in.Intern(Type{Kind: kind})
}

func (in *Interner) appendLocked(t Type) TypeID {
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	in.types = append(in.types, t)
	return TypeID(n)
}

// internComposite dedups descriptors whose identity lives in a side table.
// alloc runs under the write lock and returns the payload slot.
func (in *Interner) internComposite(key string, kind Kind, alloc func() uint32) TypeID {
	in.mu.RLock()
	id, ok := in.composite[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.composite[key]; ok {
		return id
	}
	id = in.appendLocked(Type{Kind: kind, Payload: alloc()})
	in.composite[key] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("types: invalid TypeID %d", id))
	}
	return tt
}

// Len returns the number of interned descriptors, sentinel included.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.types)
}

// Unalias follows alias chains to the first non-alias type.
func (in *Interner) Unalias(id TypeID) TypeID {
	for range 64 {
		tt, ok := in.Lookup(id)
		if !ok || tt.Kind != KindAlias {
			return id
		}
		info, ok := in.AliasInfo(id)
		if !ok || info.Target == NoTypeID {
			return id
		}
		id = info.Target
	}
	return id
}

// IsKind resolves aliases and checks the kind.
func (in *Interner) IsKind(id TypeID, k Kind) bool {
	tt, ok := in.Lookup(in.Unalias(id))
	return ok && tt.Kind == k
}

type typeKey struct {
	Kind  Kind
	Elem  TypeID
	Count uint32
	Width Width
}

func slot(n int, what string) uint32 {
	s, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("%s overflow: %w", what, err))
	}
	return s
}

func idsKey(ids []TypeID) string {
	buf := make([]byte, 0, len(ids)*6)
	for i, id := range ids {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = fmt.Appendf(buf, "%d", id)
	}
	return string(buf)
}
