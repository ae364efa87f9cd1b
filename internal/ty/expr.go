package ty

import (
	"ledgerc/internal/decl"
	"ledgerc/internal/source"
	"ledgerc/internal/types"
)

// ExprKind enumerates typed expression kinds.
type ExprKind uint8

const (
	ExprLiteral ExprKind = iota
	ExprVarRef
	ExprCall
	ExprIntrinsic
	ExprStructLit
	ExprEnumLit
	ExprTupleLit
	ExprArrayLit
	ExprTupleIndex
	ExprFieldAccess
	ExprIf
	ExprBlock
	ExprReturn
	ExprStorageRead
	ExprStorageWrite
	ExprConfigurableRef
)

var exprKindNames = [...]string{
	ExprLiteral:         "Literal",
	ExprVarRef:          "VarRef",
	ExprCall:            "Call",
	ExprIntrinsic:       "Intrinsic",
	ExprStructLit:       "StructLit",
	ExprEnumLit:         "EnumLit",
	ExprTupleLit:        "TupleLit",
	ExprArrayLit:        "ArrayLit",
	ExprTupleIndex:      "TupleIndex",
	ExprFieldAccess:     "FieldAccess",
	ExprIf:              "If",
	ExprBlock:           "Block",
	ExprReturn:          "Return",
	ExprStorageRead:     "StorageRead",
	ExprStorageWrite:    "StorageWrite",
	ExprConfigurableRef: "ConfigurableRef",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "Unknown"
}

// Expr is a typed expression.
type Expr struct {
	Kind ExprKind
	Type types.TypeID
	Span source.Span
	Data ExprData
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

type LiteralKind uint8

const (
	LiteralNumeric LiteralKind = iota
	LiteralBool
	LiteralString
	LiteralB256
)

type LiteralData struct {
	Kind   LiteralKind
	Uint   uint64
	Bool   bool
	String string
	B256   [32]byte
}

func (LiteralData) exprData() {}

type VarRefData struct {
	Name string
}

func (VarRefData) exprData() {}

// CallData is a call of a declared function. TypeArgs are the resolved
// generic arguments; they may mention the caller's own type parameters.
type CallData struct {
	Callee   decl.ID
	Name     string
	Args     []*Expr
	TypeArgs []types.TypeID
}

func (CallData) exprData() {}

type Intrinsic uint8

const (
	IntrinsicLog Intrinsic = iota + 1
	IntrinsicSmo
	IntrinsicContractRet
	IntrinsicRevert
)

var intrinsicNames = map[Intrinsic]string{
	IntrinsicLog:         "__log",
	IntrinsicSmo:         "__smo",
	IntrinsicContractRet: "__contract_ret",
	IntrinsicRevert:      "__revert",
}

func (i Intrinsic) String() string {
	return intrinsicNames[i]
}

// IntrinsicByName maps source spelling to the intrinsic.
func IntrinsicByName(name string) (Intrinsic, bool) {
	for k, v := range intrinsicNames {
		if v == name {
			return k, true
		}
	}
	return 0, false
}

type IntrinsicData struct {
	Kind     Intrinsic
	Args     []*Expr
	TypeArgs []types.TypeID
}

func (IntrinsicData) exprData() {}

type StructFieldInit struct {
	Name  source.Ident
	Value *Expr
}

type StructLitData struct {
	Fields []StructFieldInit // in declaration order after checking
}

func (StructLitData) exprData() {}

type EnumLitData struct {
	Variant string
	Tag     int
	Value   *Expr
}

func (EnumLitData) exprData() {}

type TupleLitData struct {
	Elems []*Expr
}

func (TupleLitData) exprData() {}

type ArrayLitData struct {
	Elems []*Expr
}

func (ArrayLitData) exprData() {}

type TupleIndexData struct {
	Prefix *Expr
	Index  int
}

func (TupleIndexData) exprData() {}

type FieldAccessData struct {
	Object    *Expr
	FieldName string
	FieldIdx  int
}

func (FieldAccessData) exprData() {}

// IfData: a missing Else makes the expression unit typed.
type IfData struct {
	Cond *Expr
	Then *Block
	Else *Block
}

func (IfData) exprData() {}

type BlockExprData struct {
	Block *Block
}

func (BlockExprData) exprData() {}

type ReturnData struct {
	Value *Expr
}

func (ReturnData) exprData() {}

type StorageAccessData struct {
	Field string
	Index int
	Value *Expr // write only
}

func (StorageAccessData) exprData() {}

type ConfigurableRefData struct {
	Decl decl.ID
	Name string
}

func (ConfigurableRefData) exprData() {}

// StmtKind enumerates typed statement kinds.
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
	Type  types.TypeID
	Value *Expr
	IsMut bool
}

func (LetData) stmtData() {}

type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// Block is a sequence of statements with an optional trailing value.
type Block struct {
	Stmts []Stmt
	Tail  *Expr
	Type  types.TypeID
	Span  source.Span
}

// Children returns the direct sub-expressions of x in evaluation order.
func (x *Expr) Children() []*Expr {
	switch d := x.Data.(type) {
	case CallData:
		return d.Args
	case IntrinsicData:
		return d.Args
	case StructLitData:
		out := make([]*Expr, 0, len(d.Fields))
		for _, f := range d.Fields {
			out = append(out, f.Value)
		}
		return out
	case EnumLitData:
		if d.Value != nil {
			return []*Expr{d.Value}
		}
	case TupleLitData:
		return d.Elems
	case ArrayLitData:
		return d.Elems
	case TupleIndexData:
		return []*Expr{d.Prefix}
	case FieldAccessData:
		return []*Expr{d.Object}
	case IfData:
		out := []*Expr{d.Cond}
		out = append(out, d.Then.exprs()...)
		if d.Else != nil {
			out = append(out, d.Else.exprs()...)
		}
		return out
	case BlockExprData:
		return d.Block.exprs()
	case ReturnData:
		if d.Value != nil {
			return []*Expr{d.Value}
		}
	case StorageAccessData:
		if d.Value != nil {
			return []*Expr{d.Value}
		}
	}
	return nil
}

func (b *Block) exprs() []*Expr {
	if b == nil {
		return nil
	}
	out := make([]*Expr, 0, len(b.Stmts)+1)
	for _, st := range b.Stmts {
		switch d := st.Data.(type) {
		case LetData:
			out = append(out, d.Value)
		case ExprStmtData:
			out = append(out, d.Expr)
		}
	}
	if b.Tail != nil {
		out = append(out, b.Tail)
	}
	return out
}

// WalkExpr visits x and its sub-expressions depth first, pre-order.
// Returning false from fn skips the children of that expression.
func WalkExpr(x *Expr, fn func(*Expr) bool) {
	if x == nil || !fn(x) {
		return
	}
	for _, c := range x.Children() {
		WalkExpr(c, fn)
	}
}

// WalkBlock visits every expression of b.
func WalkBlock(b *Block, fn func(*Expr) bool) {
	for _, x := range b.exprs() {
		WalkExpr(x, fn)
	}
}

// WalkLets visits every let binding in b and nested blocks.
func WalkLets(b *Block, fn func(*LetData)) {
	if b == nil {
		return
	}
	for i := range b.Stmts {
		if d, ok := b.Stmts[i].Data.(LetData); ok {
			fn(&d)
			b.Stmts[i].Data = d
		}
	}
	var visit func(*Expr) bool
	visit = func(x *Expr) bool {
		switch d := x.Data.(type) {
		case IfData:
			WalkExpr(d.Cond, visit)
			WalkLets(d.Then, fn)
			WalkLets(d.Else, fn)
			return false
		case BlockExprData:
			WalkLets(d.Block, fn)
			return false
		}
		return true
	}
	WalkBlock(b, visit)
}
