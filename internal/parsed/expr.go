package parsed

import "ledgerc/internal/source"

type ExprKind uint8

const (
	ExprLiteral ExprKind = iota
	ExprVar
	ExprCall
	ExprStruct
	ExprEnum
	ExprTuple
	ExprArray
	ExprTupleIndex
	ExprField
	ExprIf
	ExprBlock
	ExprReturn
	ExprStorageRead
	ExprStorageWrite
)

type Expr struct {
	Kind ExprKind
	Span source.Span
	Data ExprData
}

type ExprData interface {
	exprData()
}

type LiteralKind uint8

const (
	LitInt LiteralKind = iota
	LitBool
	LitString
	LitB256
)

// LiteralData keeps the literal text; checking interprets it. Integer
// literals may carry a width suffix such as `42u8`.
type LiteralData struct {
	Kind LiteralKind
	Text string
}

func (LiteralData) exprData() {}

type VarData struct {
	Name source.Ident
}

func (VarData) exprData() {}

// CallData calls a function by path (`foo`, `core::codec::encode`).
// Names starting with `__` are intrinsics.
type CallData struct {
	Name     source.Ident
	TypeArgs []TypeExpr
	Args     []*Expr
}

func (CallData) exprData() {}

type FieldInit struct {
	Name  source.Ident
	Value *Expr
}

type StructData struct {
	Name     source.Ident
	TypeArgs []TypeExpr
	Fields   []FieldInit
}

func (StructData) exprData() {}

type EnumData struct {
	Enum     source.Ident
	Variant  source.Ident
	TypeArgs []TypeExpr
	Value    *Expr // nil for unit variants
}

func (EnumData) exprData() {}

type TupleData struct {
	Elems []*Expr
}

func (TupleData) exprData() {}

type ArrayData struct {
	Elems []*Expr
}

func (ArrayData) exprData() {}

type TupleIndexData struct {
	Prefix *Expr
	Index  int
}

func (TupleIndexData) exprData() {}

type FieldData struct {
	Object *Expr
	Field  source.Ident
}

func (FieldData) exprData() {}

type IfData struct {
	Cond *Expr
	Then Block
	Else *Block
}

func (IfData) exprData() {}

type BlockData struct {
	Block Block
}

func (BlockData) exprData() {}

type ReturnData struct {
	Value *Expr // nil returns unit
}

func (ReturnData) exprData() {}

type StorageData struct {
	Field source.Ident
	Value *Expr // write only
}

func (StorageData) exprData() {}

type StmtKind uint8

const (
	StmtLet StmtKind = iota
	StmtExpr
)

type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData
}

type StmtData interface {
	stmtData()
}

type LetData struct {
	Name  source.Ident
	Type  *TypeExpr
	Value *Expr
	IsMut bool
}

func (LetData) stmtData() {}

type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// Block is `{ stmts; tail }`.
type Block struct {
	Stmts []Stmt
	Tail  *Expr
	Span  source.Span
}

// Builders. Nodes built here carry source.NoSpan.

func Lit(kind LiteralKind, text string) *Expr {
	return &Expr{Kind: ExprLiteral, Span: source.NoSpan, Data: LiteralData{Kind: kind, Text: text}}
}

func StrLit(s string) *Expr {
	return Lit(LitString, s)
}

func Var(name string) *Expr {
	return &Expr{Kind: ExprVar, Span: source.NoSpan, Data: VarData{Name: source.IdentNoSpan(name)}}
}

func Call(name string, typeArgs []TypeExpr, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Span: source.NoSpan, Data: CallData{
		Name:     source.IdentNoSpan(name),
		TypeArgs: typeArgs,
		Args:     args,
	}}
}

func TupleIndex(prefix *Expr, idx int) *Expr {
	return &Expr{Kind: ExprTupleIndex, Span: source.NoSpan, Data: TupleIndexData{Prefix: prefix, Index: idx}}
}

func If(cond *Expr, then Block, els *Block) *Expr {
	return &Expr{Kind: ExprIf, Span: source.NoSpan, Data: IfData{Cond: cond, Then: then, Else: els}}
}

func Return(v *Expr) *Expr {
	return &Expr{Kind: ExprReturn, Span: source.NoSpan, Data: ReturnData{Value: v}}
}

func Let(name string, typ *TypeExpr, value *Expr) Stmt {
	return Stmt{Kind: StmtLet, Span: source.NoSpan, Data: LetData{Name: source.IdentNoSpan(name), Type: typ, Value: value}}
}

func ExprStmt(x *Expr) Stmt {
	return Stmt{Kind: StmtExpr, Span: source.NoSpan, Data: ExprStmtData{Expr: x}}
}
