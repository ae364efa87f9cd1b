package ty

import (
	"hash"

	"ledgerc/internal/decl"
	"ledgerc/internal/source"
)

// StorageDecl is the single `storage { ... }` block of a contract.
type StorageDecl struct {
	Fields     []StorageField
	Span       source.Span
	Attributes Attributes
	// Slots is empty until storage initialization publishes the computed
	// initial words, sorted by key then value.
	Slots []StorageSlot
}

// StorageSlot is one initialized 32-byte storage word.
type StorageSlot struct {
	Key   [32]byte
	Value [32]byte
}

func (*StorageDecl) DeclKind() decl.Kind { return decl.KindStorage }
func (*StorageDecl) DeclName() string    { return "storage" }

type StorageField struct {
	Name         source.Ident
	TypeArgument TypeArgument
	Initializer  *Expr
	Span         source.Span
}

func (f StorageField) EqWithEngines(o StorageField, ctx *CmpCtx) bool {
	return f.Name.Name == o.Name.Name && f.TypeArgument.EqWithEngines(o.TypeArgument, ctx)
}

func (f StorageField) HashWithEngines(h hash.Hash64, e Engines, seen Seen) {
	writeString(h, f.Name.Name)
	f.TypeArgument.HashWithEngines(h, e, seen)
}

func (s *StorageDecl) EqWithEngines(o *StorageDecl, ctx *CmpCtx) bool {
	return sliceEq(s.Fields, o.Fields, ctx)
}

func (s *StorageDecl) HashWithEngines(h hash.Hash64, e Engines, seen Seen) {
	sliceHash(h, s.Fields, e, seen)
}

// Field returns the storage field called name and its index.
func (s *StorageDecl) Field(name string) (StorageField, int, bool) {
	for i, f := range s.Fields {
		if f.Name.Name == name {
			return f, i, true
		}
	}
	return StorageField{}, -1, false
}

// ConfigurableDecl is a `configurable { NAME: T = value }` entry.
type ConfigurableDecl struct {
	CallPath     CallPath
	TypeArgument TypeArgument
	Value        *Expr
	Visibility   Visibility
	Span         source.Span
	Attributes   Attributes
}

func (*ConfigurableDecl) DeclKind() decl.Kind { return decl.KindConfigurable }
func (c *ConfigurableDecl) DeclName() string  { return c.CallPath.Suffix.Name }

// ImplTraitDecl is an `impl Trait for Type` block. For contracts the trait
// is the ABI and the implementing type is `Contract`.
type ImplTraitDecl struct {
	TraitName       source.Ident
	ImplementingFor TypeArgument
	Items           []decl.ID
	IsContractABI   bool
	Span            source.Span
}

func (*ImplTraitDecl) DeclKind() decl.Kind { return decl.KindImplTrait }
func (d *ImplTraitDecl) DeclName() string  { return d.TraitName.Name }

// AbiDecl is a contract interface. Methods carry signatures only and are
// not inserted into the engine on their own.
type AbiDecl struct {
	CallPath CallPath
	Methods  []*FunctionDecl
	Span     source.Span
}

func (*AbiDecl) DeclKind() decl.Kind { return decl.KindAbi }
func (a *AbiDecl) DeclName() string  { return a.CallPath.Suffix.Name }

// Method returns the method declared under name.
func (a *AbiDecl) Method(name string) (*FunctionDecl, bool) {
	for _, m := range a.Methods {
		if m.Name.Name == name {
			return m, true
		}
	}
	return nil, false
}
