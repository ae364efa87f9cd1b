// Package namespace holds the symbol tables name resolution works against.
package namespace

import (
	"errors"
	"fmt"
	"strings"

	"ledgerc/internal/decl"
	"ledgerc/internal/types"
)

type SymbolKind uint8

const (
	SymFunction SymbolKind = iota
	SymStruct
	SymEnum
	SymAbi
	SymStorage
	SymConfigurable
	SymAlias
)

func (k SymbolKind) String() string {
	switch k {
	case SymFunction:
		return "function"
	case SymStruct:
		return "struct"
	case SymEnum:
		return "enum"
	case SymAbi:
		return "abi"
	case SymStorage:
		return "storage"
	case SymConfigurable:
		return "configurable"
	case SymAlias:
		return "type alias"
	}
	return "symbol"
}

// Symbol is a named entry. Type is set for aliases; Methods for ABIs.
type Symbol struct {
	Name    string
	Kind    SymbolKind
	Decl    decl.ID
	Type    types.TypeID
	Methods []string
}

// IsType reports whether the symbol names a type.
func (s Symbol) IsType() bool {
	return s.Kind == SymStruct || s.Kind == SymEnum || s.Kind == SymAlias
}

var ErrDuplicate = errors.New("duplicate symbol")

// Module is one level of the namespace tree.
type Module struct {
	Name       string
	symbols    map[string]Symbol
	order      []string
	submodules map[string]*Module
	subOrder   []string
	imports    []*Module
}

func NewModule(name string) *Module {
	return &Module{
		Name:       name,
		symbols:    make(map[string]Symbol),
		submodules: make(map[string]*Module),
	}
}

// Insert adds sym. Re-declaring a name in the same module fails with
// ErrDuplicate and returns the existing symbol.
func (m *Module) Insert(sym Symbol) (Symbol, error) {
	if prev, ok := m.symbols[sym.Name]; ok {
		return prev, fmt.Errorf("%w: %s %q", ErrDuplicate, prev.Kind, sym.Name)
	}
	m.symbols[sym.Name] = sym
	m.order = append(m.order, sym.Name)
	return sym, nil
}

// Local returns a symbol declared directly in m.
func (m *Module) Local(name string) (Symbol, bool) {
	s, ok := m.symbols[name]
	return s, ok
}

// Symbols lists local symbols in declaration order.
func (m *Module) Symbols() []Symbol {
	out := make([]Symbol, 0, len(m.order))
	for _, n := range m.order {
		out = append(out, m.symbols[n])
	}
	return out
}

// AddSubmodule attaches child under its name.
func (m *Module) AddSubmodule(child *Module) error {
	if _, ok := m.submodules[child.Name]; ok {
		return fmt.Errorf("%w: module %q", ErrDuplicate, child.Name)
	}
	m.submodules[child.Name] = child
	m.subOrder = append(m.subOrder, child.Name)
	return nil
}

func (m *Module) Submodule(name string) (*Module, bool) {
	s, ok := m.submodules[name]
	return s, ok
}

// Import makes every symbol of other visible unqualified in m.
func (m *Module) Import(other *Module) {
	for _, im := range m.imports {
		if im == other {
			return
		}
	}
	m.imports = append(m.imports, other)
}

// Resolve looks path up. A plain name is searched in m and then in its
// imports; a `a::b::name` path walks submodules first.
func (m *Module) Resolve(path string) (Symbol, bool) {
	if !strings.Contains(path, "::") {
		if s, ok := m.symbols[path]; ok {
			return s, true
		}
		for _, im := range m.imports {
			if s, ok := im.symbols[path]; ok {
				return s, true
			}
		}
		return Symbol{}, false
	}
	parts := strings.Split(path, "::")
	cur, ok := m.findModule(parts[0])
	if !ok {
		return Symbol{}, false
	}
	for _, p := range parts[1 : len(parts)-1] {
		if cur, ok = cur.submodules[p]; !ok {
			return Symbol{}, false
		}
	}
	s, ok := cur.symbols[parts[len(parts)-1]]
	return s, ok
}

func (m *Module) findModule(name string) (*Module, bool) {
	if sub, ok := m.submodules[name]; ok {
		return sub, true
	}
	for _, im := range m.imports {
		if sub, ok := im.submodules[name]; ok {
			return sub, true
		}
		if im.Name == name {
			return im, true
		}
	}
	return nil, false
}

// Child creates a namespace for a submodule that sees the same imports
// as m. The child is attached to m.
func (m *Module) Child(name string) (*Module, error) {
	child := NewModule(name)
	child.imports = append(child.imports, m.imports...)
	if err := m.AddSubmodule(child); err != nil {
		return nil, err
	}
	return child, nil
}
