package ty

import (
	"fmt"
	"slices"
	"sync"

	"ledgerc/internal/decl"
	"ledgerc/internal/types"
)

type monoDecl interface {
	decl.Decl
	HashWithEngines
}

// MonoCache deduplicates instantiated declarations: a candidate is looked
// up by structural hash and confirmed with engine equality, so two
// instantiations that end up identical share one declaration.
type MonoCache[T interface {
	monoDecl
	EqWithEngines[T]
}] struct {
	mu      sync.Mutex
	buckets map[uint64][]monoEntry[T]
	hits    int
	misses  int
}

type monoEntry[T any] struct {
	val T
	id  decl.ID
}

func NewMonoCache[T interface {
	monoDecl
	EqWithEngines[T]
}]() *MonoCache[T] {
	return &MonoCache[T]{buckets: make(map[uint64][]monoEntry[T])}
}

// Intern returns the handle of a declaration equal to v, inserting v into
// the declaration engine when none exists. hit reports reuse.
func (c *MonoCache[T]) Intern(v T, e Engines) (id decl.ID, hit bool) {
	key := Hash(v, e)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.buckets[key] {
		if Equal(entry.val, v, e) {
			c.hits++
			return entry.id, true
		}
	}
	c.misses++
	id = e.Decls.Insert(v)
	c.buckets[key] = append(c.buckets[key], monoEntry[T]{val: v, id: id})
	return id, false
}

// Stats returns cache hit and miss counters.
func (c *MonoCache[T]) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

type instKey struct {
	origin decl.ID
	args   string
}

type monoState struct {
	mu      sync.Mutex
	structs *MonoCache[*StructDecl]
	enums   *MonoCache[*EnumDecl]
	byArgs  map[instKey]types.TypeID
}

func newMonoState() *monoState {
	return &monoState{
		structs: NewMonoCache[*StructDecl](),
		enums:   NewMonoCache[*EnumDecl](),
		byArgs:  make(map[instKey]types.TypeID),
	}
}

func (s *monoState) lookup(k instKey) (types.TypeID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byArgs[k]
	return id, ok
}

func (s *monoState) store(k instKey, id types.TypeID) {
	s.mu.Lock()
	s.byArgs[k] = id
	s.mu.Unlock()
}

// StructCacheStats exposes the struct instantiation cache counters.
func (e Engines) StructCacheStats() (hits, misses int) {
	return e.mono.structs.Stats()
}

// InstantiateStruct returns the struct type for the generic declaration
// behind id applied to args. A non-generic struct yields its plain type.
// Returns NoTypeID when the argument count does not match.
func (e Engines) InstantiateStruct(id decl.ID, args []types.TypeID) types.TypeID {
	id = originOf(e.Decls.Get(id), id)
	base := decl.MustAs[*StructDecl](e.Decls, id)
	if len(args) != len(base.TypeParameters) {
		return types.NoTypeID
	}
	name := base.CallPath.Suffix.Name
	if len(args) == 0 {
		return e.Types.RegisterStruct(name, id, nil)
	}
	if slices.Equal(args, typeParamIDs(base.TypeParameters)) {
		// the declaration applied to its own parameters
		return e.Types.RegisterStruct(name, id, args)
	}
	key := instKey{origin: id, args: fmt.Sprint(args)}
	if tid, ok := e.mono.lookup(key); ok {
		return tid
	}
	inst := base.Clone()
	inst.Origin = id
	inst.SubstTypes(NewTypeSubstMap(typeParamIDs(base.TypeParameters), args), e)
	ref, _ := e.mono.structs.Intern(inst, e)
	tid := e.Types.RegisterStruct(name, ref, args)
	e.mono.store(key, tid)
	return tid
}

// InstantiateEnum is InstantiateStruct for enums.
func (e Engines) InstantiateEnum(id decl.ID, args []types.TypeID) types.TypeID {
	id = originOf(e.Decls.Get(id), id)
	base := decl.MustAs[*EnumDecl](e.Decls, id)
	if len(args) != len(base.TypeParameters) {
		return types.NoTypeID
	}
	name := base.CallPath.Suffix.Name
	if len(args) == 0 {
		return e.Types.RegisterEnum(name, id, nil)
	}
	if slices.Equal(args, typeParamIDs(base.TypeParameters)) {
		// the declaration applied to its own parameters
		return e.Types.RegisterEnum(name, id, args)
	}
	key := instKey{origin: id, args: fmt.Sprint(args)}
	if tid, ok := e.mono.lookup(key); ok {
		return tid
	}
	inst := base.Clone()
	inst.Origin = id
	inst.SubstTypes(NewTypeSubstMap(typeParamIDs(base.TypeParameters), args), e)
	ref, _ := e.mono.enums.Intern(inst, e)
	tid := e.Types.RegisterEnum(name, ref, args)
	e.mono.store(key, tid)
	return tid
}

// StructOf resolves a struct type to its (instantiated) declaration.
func (e Engines) StructOf(id types.TypeID) (*StructDecl, bool) {
	id = e.Types.Unalias(id)
	info, ok := e.Types.NominalInfo(id)
	if !ok || !e.Types.IsKind(id, types.KindStruct) {
		return nil, false
	}
	return decl.As[*StructDecl](e.Decls, info.Decl)
}

// EnumOf resolves an enum type to its (instantiated) declaration.
func (e Engines) EnumOf(id types.TypeID) (*EnumDecl, bool) {
	id = e.Types.Unalias(id)
	info, ok := e.Types.NominalInfo(id)
	if !ok || !e.Types.IsKind(id, types.KindEnum) {
		return nil, false
	}
	return decl.As[*EnumDecl](e.Decls, info.Decl)
}
