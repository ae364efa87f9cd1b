package ty

import (
	"ledgerc/internal/decl"
	"ledgerc/internal/source"
)

// Module is a typed module: its own top-level nodes plus named submodules.
type Module struct {
	Name       string
	Nodes      []*Node
	Submodules []Submodule
	Span       source.Span
}

type Submodule struct {
	Name   string
	Module *Module
}

// Node is a top-level declaration of a module.
type Node struct {
	Decl Declaration
	Span source.Span
}

// Declaration is a handle into the declaration engine plus the name it was
// declared with.
type Declaration struct {
	Kind decl.Kind
	ID   decl.ID
	Name source.Ident
}

// SubmodulesRecursive returns every nested module in pre-order: a
// submodule comes before its own submodules.
func (m *Module) SubmodulesRecursive() []*Module {
	var out []*Module
	for _, sub := range m.Submodules {
		out = append(out, sub.Module)
		out = append(out, sub.Module.SubmodulesRecursive()...)
	}
	return out
}

// Submodule looks a direct child up by name.
func (m *Module) Submodule(name string) (*Module, bool) {
	for _, sub := range m.Submodules {
		if sub.Name == name {
			return sub.Module, true
		}
	}
	return nil, false
}

// AppendNode adds a node to the end of the module.
func (m *Module) AppendNode(n *Node) {
	m.Nodes = append(m.Nodes, n)
}

// DeclsOfKind lists this module's declarations of one kind in order.
func (m *Module) DeclsOfKind(k decl.Kind) []decl.ID {
	var out []decl.ID
	for _, n := range m.Nodes {
		if n.Decl.Kind == k {
			out = append(out, n.Decl.ID)
		}
	}
	return out
}

// ContractFns lists the ABI methods implemented in this module, in
// declaration order. Submodules are not visited.
func (m *Module) ContractFns(e Engines) []decl.ID {
	var out []decl.ID
	for _, id := range m.DeclsOfKind(decl.KindImplTrait) {
		impl, ok := decl.As[*ImplTraitDecl](e.Decls, id)
		if !ok || !impl.IsContractABI {
			continue
		}
		out = append(out, impl.Items...)
	}
	return out
}

// FindFunction returns the first function named name in this module.
func (m *Module) FindFunction(e Engines, name string) (decl.ID, *FunctionDecl, bool) {
	for _, id := range m.DeclsOfKind(decl.KindFunction) {
		fn, ok := decl.As[*FunctionDecl](e.Decls, id)
		if ok && fn.Name.Name == name {
			return id, fn, true
		}
	}
	return decl.NoID, nil, false
}

// Walk visits every node of m and of its submodules, submodules first.
func (m *Module) Walk(fn func(mod *Module, n *Node)) {
	for _, sub := range m.Submodules {
		sub.Module.Walk(fn)
	}
	for _, n := range m.Nodes {
		fn(m, n)
	}
}
