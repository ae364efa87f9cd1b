// Package decl holds the declaration engine: an append-only table mapping
// handles to declaration bodies shared by every module of a compilation.
package decl

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"ledgerc/internal/types"
)

// ID is a declaration handle. It is the same value type nominal type
// descriptors carry, so a struct type can name its declaration.
type ID = types.DeclRef

const NoID ID = types.NoDeclRef

type Kind uint8

const (
	KindInvalid Kind = iota
	KindFunction
	KindStruct
	KindEnum
	KindStorage
	KindImplTrait
	KindConfigurable
	KindAbi
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindStorage:
		return "storage"
	case KindImplTrait:
		return "impl"
	case KindConfigurable:
		return "configurable"
	case KindAbi:
		return "abi"
	}
	return "invalid"
}

// Decl is implemented by every declaration body stored in the engine.
type Decl interface {
	DeclKind() Kind
	DeclName() string
}

// Engine is safe for concurrent Insert and Get. Handles are never revoked.
type Engine struct {
	mu    sync.RWMutex
	decls []Decl
}

func NewEngine() *Engine {
	// slot 0 is NoID
	return &Engine{decls: make([]Decl, 1, 64)}
}

func (e *Engine) Insert(d Decl) ID {
	if d == nil {
		panic("decl: inserting nil declaration")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := safecast.Conv[uint32](len(e.decls))
	if err != nil {
		panic(fmt.Errorf("decl engine overflow: %w", err))
	}
	e.decls = append(e.decls, d)
	return ID(n)
}

// Lookup is the checked variant of Get.
func (e *Engine) Lookup(id ID) (Decl, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if id == NoID || int(id) >= len(e.decls) {
		return nil, false
	}
	return e.decls[id], true
}

// Get panics on an invalid handle: every handle comes from Insert.
func (e *Engine) Get(id ID) Decl {
	d, ok := e.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("decl: invalid ID %d", id))
	}
	return d
}

// Replace swaps the body behind id. Storage initialization uses it to
// publish a storage declaration together with its slots. Holders of the
// old body keep seeing it unchanged.
func (e *Engine) Replace(id ID, d Decl) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id == NoID || int(id) >= len(e.decls) {
		panic(fmt.Sprintf("decl: invalid ID %d", id))
	}
	e.decls[id] = d
}

func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.decls) - 1
}

// All returns a snapshot of every handle in insertion order.
func (e *Engine) All() []ID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]ID, 0, len(e.decls)-1)
	for i := 1; i < len(e.decls); i++ {
		out = append(out, ID(i)) //nolint:gosec // bounded by Insert
	}
	return out
}

// As fetches id and asserts its concrete type.
func As[T Decl](e *Engine, id ID) (T, bool) {
	var zero T
	d, ok := e.Lookup(id)
	if !ok {
		return zero, false
	}
	t, ok := d.(T)
	return t, ok
}

// MustAs is As that panics on a kind mismatch.
func MustAs[T Decl](e *Engine, id ID) T {
	t, ok := As[T](e, id)
	if !ok {
		panic(fmt.Sprintf("decl: %d is %T", id, e.Get(id)))
	}
	return t
}
