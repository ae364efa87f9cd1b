package parsed

import "ledgerc/internal/source"

type NodeKind uint8

const (
	NodeFunction NodeKind = iota
	NodeStruct
	NodeEnum
	NodeStorage
	NodeConfigurable
	NodeAbi
	NodeImpl
	NodeAlias
)

func (k NodeKind) String() string {
	switch k {
	case NodeFunction:
		return "fn"
	case NodeStruct:
		return "struct"
	case NodeEnum:
		return "enum"
	case NodeStorage:
		return "storage"
	case NodeConfigurable:
		return "configurable"
	case NodeAbi:
		return "abi"
	case NodeImpl:
		return "impl"
	case NodeAlias:
		return "type"
	}
	return "unknown"
}

// Node is a top-level item.
type Node struct {
	Kind NodeKind
	Span source.Span
	Data NodeData
}

type NodeData interface {
	nodeData()
}

type Attribute struct {
	Name string
	Args []string
	Span source.Span
}

type Param struct {
	Name  source.Ident
	Type  TypeExpr
	IsMut bool
}

// Purity as written in `#[storage(read, write)]`.
type Purity struct {
	Reads  bool
	Writes bool
}

type FunctionDecl struct {
	Name       source.Ident
	TypeParams []source.Ident
	Params     []Param
	ReturnType *TypeExpr // nil means unit
	Body       Block
	Public     bool
	Purity     Purity
	Attributes []Attribute
	Span       source.Span
}

func (*FunctionDecl) nodeData() {}

type FieldDecl struct {
	Name source.Ident
	Type TypeExpr
	Span source.Span
}

type StructDecl struct {
	Name       source.Ident
	TypeParams []source.Ident
	Fields     []FieldDecl
	Public     bool
	Attributes []Attribute
	Span       source.Span
}

func (*StructDecl) nodeData() {}

// EnumDecl variants without a payload have a unit TypeExpr.
type EnumDecl struct {
	Name       source.Ident
	TypeParams []source.Ident
	Variants   []FieldDecl
	Public     bool
	Attributes []Attribute
	Span       source.Span
}

func (*EnumDecl) nodeData() {}

type StorageField struct {
	Name source.Ident
	Type TypeExpr
	Init *Expr
	Span source.Span
}

type StorageDecl struct {
	Fields     []StorageField
	Attributes []Attribute
	Span       source.Span
}

func (*StorageDecl) nodeData() {}

type ConfigurableDecl struct {
	Name  source.Ident
	Type  TypeExpr
	Value *Expr
	Span  source.Span
}

func (*ConfigurableDecl) nodeData() {}

// AbiDecl declares the external interface of a contract.
type AbiDecl struct {
	Name    source.Ident
	Methods []FunctionDecl // bodies are empty
	Span    source.Span
}

func (*AbiDecl) nodeData() {}

// ImplDecl is `impl Trait for Type { ... }`. `impl MyAbi for Contract`
// implements a contract ABI.
type ImplDecl struct {
	Trait source.Ident
	For   TypeExpr
	Items []FunctionDecl
	Span  source.Span
}

func (*ImplDecl) nodeData() {}

// AliasDecl is `type Name = Target`.
type AliasDecl struct {
	Name   source.Ident
	Target TypeExpr
	Span   source.Span
}

func (*AliasDecl) nodeData() {}

// Constructors used by tests and by code synthesis.

func FnNode(fn *FunctionDecl) Node {
	return Node{Kind: NodeFunction, Span: fn.Span, Data: fn}
}

func StructNode(s *StructDecl) Node {
	return Node{Kind: NodeStruct, Span: s.Span, Data: s}
}

func EnumNode(e *EnumDecl) Node {
	return Node{Kind: NodeEnum, Span: e.Span, Data: e}
}

func StorageNode(s *StorageDecl) Node {
	return Node{Kind: NodeStorage, Span: s.Span, Data: s}
}

func ConfigurableNode(c *ConfigurableDecl) Node {
	return Node{Kind: NodeConfigurable, Span: c.Span, Data: c}
}

func AbiNode(a *AbiDecl) Node {
	return Node{Kind: NodeAbi, Span: a.Span, Data: a}
}

func ImplNode(i *ImplDecl) Node {
	return Node{Kind: NodeImpl, Span: i.Span, Data: i}
}

func AliasNode(a *AliasDecl) Node {
	return Node{Kind: NodeAlias, Span: a.Span, Data: a}
}
