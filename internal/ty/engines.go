package ty

import (
	"hash"
	"hash/fnv"

	"ledgerc/internal/decl"
	"ledgerc/internal/types"
)

// Engines bundles the shared tables of one compilation session.
type Engines struct {
	Types *types.Interner
	Decls *decl.Engine
	mono  *monoState
}

func NewEngines() Engines {
	return Engines{
		Types: types.NewInterner(),
		Decls: decl.NewEngine(),
		mono:  newMonoState(),
	}
}

// Builtins is a shortcut for e.Types.Builtins().
func (e Engines) Builtins() types.Builtins {
	return e.Types.Builtins()
}

// EqWithEngines is implemented by values whose equality depends on the
// engines.
type EqWithEngines[T any] interface {
	EqWithEngines(other T, ctx *CmpCtx) bool
}

// OrdWithEngines gives a total order relative to the engines.
type OrdWithEngines[T any] interface {
	CmpWithEngines(other T, ctx *CmpCtx) int
}

// HashWithEngines writes a structural hash. seen guards against cycles
// through nominal types and must be threaded through every nested call.
type HashWithEngines interface {
	HashWithEngines(h hash.Hash64, e Engines, seen Seen)
}

// SubstTypes replaces type handles in place and reports whether anything
// changed.
type SubstTypes interface {
	SubstTypes(m *TypeSubstMap, e Engines) bool
}

// SeenKey identifies a nominal declaration currently being hashed.
type SeenKey struct {
	Ref  types.DeclRef
	Kind types.Kind
}

// Seen is the set of declarations on the current hashing path.
type Seen map[SeenKey]struct{}

// CmpCtx carries the engines and the pairs of types under comparison, so
// that comparing recursive types terminates.
type CmpCtx struct {
	Engines Engines
	active  map[[2]types.TypeID]struct{}
}

func NewCmpCtx(e Engines) *CmpCtx {
	return &CmpCtx{Engines: e, active: make(map[[2]types.TypeID]struct{})}
}

// Equal compares a and b relative to e.
func Equal[T EqWithEngines[T]](a, b T, e Engines) bool {
	return a.EqWithEngines(b, NewCmpCtx(e))
}

// Compare orders a and b relative to e.
func Compare[T OrdWithEngines[T]](a, b T, e Engines) int {
	return a.CmpWithEngines(b, NewCmpCtx(e))
}

// Hash returns the 64-bit structural hash of v.
func Hash(v HashWithEngines, e Engines) uint64 {
	h := fnv.New64a()
	v.HashWithEngines(h, e, Seen{})
	return h.Sum64()
}
