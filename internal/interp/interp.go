// Package interp evaluates typed function bodies directly. It runs the
// synthesized entry of a script or contract against raw call data, for
// `ledgerc call` and for tests observing the calling convention end to end.
package interp

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"ledgerc/internal/abi"
	"ledgerc/internal/decl"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

var (
	ErrNoReturn   = errors.New("interp: entry finished without returning data")
	ErrArithmetic = errors.New("interp: arithmetic overflow")
	ErrCallDepth  = errors.New("interp: call depth exceeded")
	ErrBadProgram = errors.New("interp: malformed typed tree")
)

// MaxCallDepth bounds nested calls.
const MaxCallDepth = 256

// CallFrame is the inbound call. Scripts read ScriptData; contracts read
// the method name from the first parameter slot and Args, an encoded
// argument tuple, from the second.
type CallFrame struct {
	ScriptData []byte
	MethodName string
	Args       []byte
}

// Log is one `__log` or `__smo` event, payload already encoded.
type Log struct {
	Type      types.TypeID
	Data      []byte
	Recipient *abi.Word // set for messages
}

// Outcome is how a run ended.
type Outcome struct {
	ReturnData []byte
	Returned   bool
	Reverted   bool
	RevertCode uint64
	Logs       []Log
}

// Machine holds the state shared by runs: contract storage survives
// between calls.
type Machine struct {
	e       ty.Engines
	storage []any
}

// New prepares a machine. Storage fields start at their initializers.
func New(e ty.Engines, storage *ty.StorageDecl) (*Machine, error) {
	m := &Machine{e: e}
	if storage == nil {
		return m, nil
	}
	m.storage = make([]any, len(storage.Fields))
	r := &run{m: m}
	for i, f := range storage.Fields {
		if f.Initializer == nil {
			continue
		}
		v, err := r.eval(&frame{vars: map[string]any{}}, f.Initializer)
		if err != nil {
			return nil, fmt.Errorf("storage field %s: %w", f.Name.Name, err)
		}
		m.storage[i] = v
	}
	return m, nil
}

// Const evaluates an expression that needs no variables, calls or
// storage, such as a storage initializer.
func Const(e ty.Engines, x *ty.Expr) (any, error) {
	r := &run{m: &Machine{e: e}, out: &Outcome{}}
	return r.eval(&frame{vars: map[string]any{}}, x)
}

// Storage returns the current value of field i.
func (m *Machine) Storage(i int) any {
	if i < 0 || i >= len(m.storage) {
		return nil
	}
	return m.storage[i]
}

// Run executes entry with call. A run that ends without `__contract_ret`
// reports ErrNoReturn together with the partial outcome.
func (m *Machine) Run(ctx context.Context, entry *ty.FunctionDecl, call CallFrame) (*Outcome, error) {
	r := &run{m: m, ctx: ctx, call: call, out: &Outcome{}}
	_, err := r.invoke(entry, nil, nil, 0)
	var h *halt
	switch {
	case errors.As(err, &h):
		return r.out, nil
	case err != nil:
		return r.out, err
	}
	return r.out, ErrNoReturn
}

// Call runs an ordinary function with already decoded arguments.
func (m *Machine) Call(ctx context.Context, fn *ty.FunctionDecl, args []any) (any, *Outcome, error) {
	r := &run{m: m, ctx: ctx, out: &Outcome{}}
	v, err := r.invoke(fn, args, nil, 0)
	var h *halt
	if errors.As(err, &h) {
		return nil, r.out, nil
	}
	return v, r.out, err
}

type run struct {
	m    *Machine
	ctx  context.Context
	call CallFrame
	out  *Outcome
}

// halt stops the whole run: contract return or revert.
type halt struct{}

func (*halt) Error() string { return "halt" }

// returned unwinds one function.
type returned struct{ value any }

func (*returned) Error() string { return "return" }

type frame struct {
	vars  map[string]any
	subst *ty.TypeSubstMap
	depth int
}

func (f *frame) typ(e ty.Engines, t types.TypeID) types.TypeID {
	if f.subst == nil {
		return t
	}
	return f.subst.Apply(t, e)
}

func (r *run) invoke(fn *ty.FunctionDecl, args []any, typeArgs []types.TypeID, depth int) (any, error) {
	if depth > MaxCallDepth {
		return nil, ErrCallDepth
	}
	if r.ctx != nil {
		if err := r.ctx.Err(); err != nil {
			return nil, err
		}
	}
	if fn.Body == nil {
		return nil, fmt.Errorf("%w: %s has no body", ErrBadProgram, fn.Name.Name)
	}
	f := &frame{vars: make(map[string]any, len(fn.Parameters)), depth: depth}
	if fn.IsGeneric() && len(typeArgs) == len(fn.TypeParameters) {
		f.subst = fn.SubstFor(typeArgs)
	}
	for i, p := range fn.Parameters {
		if i < len(args) {
			f.vars[p.Name.Name] = args[i]
		}
	}
	v, err := r.block(f, fn.Body)
	var ret *returned
	if errors.As(err, &ret) {
		return ret.value, nil
	}
	return v, err
}

func (r *run) block(f *frame, b *ty.Block) (any, error) {
	saved := make(map[string]any, len(f.vars))
	for k, v := range f.vars {
		saved[k] = v
	}
	defer func() { f.vars = saved }()

	for _, st := range b.Stmts {
		switch d := st.Data.(type) {
		case ty.LetData:
			v, err := r.eval(f, d.Value)
			if err != nil {
				return nil, err
			}
			f.vars[d.Name.Name] = v
		case ty.ExprStmtData:
			if _, err := r.eval(f, d.Expr); err != nil {
				return nil, err
			}
		}
	}
	if b.Tail == nil {
		return struct{}{}, nil
	}
	return r.eval(f, b.Tail)
}

func (r *run) eval(f *frame, x *ty.Expr) (any, error) {
	e := r.m.e
	switch d := x.Data.(type) {
	case ty.LiteralData:
		return r.literal(f, x.Type, d), nil
	case ty.VarRefData:
		v, ok := f.vars[d.Name]
		if !ok {
			return nil, fmt.Errorf("%w: unbound variable %s", ErrBadProgram, d.Name)
		}
		return v, nil
	case ty.CallData:
		args, err := r.evalAll(f, d.Args)
		if err != nil {
			return nil, err
		}
		fn, ok := decl.As[*ty.FunctionDecl](e.Decls, d.Callee)
		if !ok {
			return nil, fmt.Errorf("%w: call of %s", ErrBadProgram, d.Name)
		}
		typeArgs := make([]types.TypeID, len(d.TypeArgs))
		for i, t := range d.TypeArgs {
			typeArgs[i] = f.typ(e, t)
		}
		if fn.Builtin != ty.NotBuiltin {
			return r.builtin(fn.Builtin, f.typ(e, x.Type), typeArgs, args)
		}
		return r.invoke(fn, args, typeArgs, f.depth+1)
	case ty.IntrinsicData:
		args, err := r.evalAll(f, d.Args)
		if err != nil {
			return nil, err
		}
		typeArgs := make([]types.TypeID, len(d.TypeArgs))
		for i, t := range d.TypeArgs {
			typeArgs[i] = f.typ(e, t)
		}
		return r.intrinsic(d.Kind, typeArgs, args)
	case ty.StructLitData:
		out := make([]any, len(d.Fields))
		for i, fi := range d.Fields {
			v, err := r.eval(f, fi.Value)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case ty.EnumLitData:
		var payload any = struct{}{}
		if d.Value != nil {
			v, err := r.eval(f, d.Value)
			if err != nil {
				return nil, err
			}
			payload = v
		}
		return abi.Enum{Tag: uint64(d.Tag), Value: payload}, nil
	case ty.TupleLitData:
		if len(d.Elems) == 0 {
			return struct{}{}, nil
		}
		return r.evalAll(f, d.Elems)
	case ty.ArrayLitData:
		return r.evalAll(f, d.Elems)
	case ty.TupleIndexData:
		return r.index(f, d.Prefix, d.Index)
	case ty.FieldAccessData:
		return r.index(f, d.Object, d.FieldIdx)
	case ty.IfData:
		c, err := r.eval(f, d.Cond)
		if err != nil {
			return nil, err
		}
		if cond, _ := c.(bool); cond {
			return r.block(f, d.Then)
		}
		if d.Else != nil {
			return r.block(f, d.Else)
		}
		return struct{}{}, nil
	case ty.BlockExprData:
		return r.block(f, d.Block)
	case ty.ReturnData:
		var v any = struct{}{}
		if d.Value != nil {
			var err error
			if v, err = r.eval(f, d.Value); err != nil {
				return nil, err
			}
		}
		return nil, &returned{value: v}
	case ty.StorageAccessData:
		if d.Index < 0 || d.Index >= len(r.m.storage) {
			return nil, fmt.Errorf("%w: storage field %s", ErrBadProgram, d.Field)
		}
		if x.Kind == ty.ExprStorageRead {
			return r.m.storage[d.Index], nil
		}
		v, err := r.eval(f, d.Value)
		if err != nil {
			return nil, err
		}
		r.m.storage[d.Index] = v
		return struct{}{}, nil
	case ty.ConfigurableRefData:
		cd, ok := decl.As[*ty.ConfigurableDecl](e.Decls, d.Decl)
		if !ok || cd.Value == nil {
			return nil, fmt.Errorf("%w: configurable %s", ErrBadProgram, d.Name)
		}
		return r.eval(f, cd.Value)
	}
	return nil, fmt.Errorf("%w: %s expression", ErrBadProgram, x.Kind)
}

func (r *run) evalAll(f *frame, xs []*ty.Expr) ([]any, error) {
	out := make([]any, len(xs))
	for i, x := range xs {
		v, err := r.eval(f, x)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *run) index(f *frame, of *ty.Expr, i int) (any, error) {
	v, err := r.eval(f, of)
	if err != nil {
		return nil, err
	}
	vals, ok := v.([]any)
	if !ok || i < 0 || i >= len(vals) {
		return nil, fmt.Errorf("%w: index %d of %T", ErrBadProgram, i, v)
	}
	return vals[i], nil
}

func (r *run) literal(f *frame, t types.TypeID, d ty.LiteralData) any {
	switch d.Kind {
	case ty.LiteralBool:
		return d.Bool
	case ty.LiteralString:
		return d.String
	case ty.LiteralB256:
		return abi.Word(d.B256)
	}
	if r.isU256(f.typ(r.m.e, t)) {
		return abi.WordFromUint64(d.Uint)
	}
	return d.Uint
}

func (r *run) isU256(t types.TypeID) bool {
	tt, ok := r.m.e.Types.Lookup(r.m.e.Types.Unalias(t))
	return ok && tt.Kind == types.KindUint && tt.Width == types.Width256
}

// rawPtr is what `ptr` returns: a view of an encoded buffer.
type rawPtr struct{ data []byte }

func (r *run) builtin(b ty.Builtin, resType types.TypeID, typeArgs []types.TypeID, args []any) (any, error) {
	e := r.m.e
	decodeFrom := func(data []byte) (any, error) {
		if len(typeArgs) != 1 {
			return nil, fmt.Errorf("%w: decode without a type", ErrBadProgram)
		}
		v, _, err := abi.Decode(e, typeArgs[0], data)
		return v, err
	}
	switch b {
	case ty.BuiltinEncode:
		if len(typeArgs) != 1 || len(args) != 1 {
			return nil, fmt.Errorf("%w: encode arity", ErrBadProgram)
		}
		return abi.Encode(nil, e, typeArgs[0], args[0])
	case ty.BuiltinDecodeFirstParam:
		if len(typeArgs) == 1 && e.Types.IsKind(typeArgs[0], types.KindStringSlice) {
			return r.call.MethodName, nil
		}
		return nil, fmt.Errorf("%w: first parameter is the method name", ErrBadProgram)
	case ty.BuiltinDecodeSecondParam:
		return decodeFrom(r.call.Args)
	case ty.BuiltinDecodeScriptData:
		return decodeFrom(r.call.ScriptData)
	case ty.BuiltinEq:
		return reflect.DeepEqual(args[0], args[1]), nil
	case ty.BuiltinNot:
		v, _ := args[0].(bool)
		return !v, nil
	case ty.BuiltinPtr:
		data, _ := args[0].([]byte)
		return rawPtr{data: data}, nil
	case ty.BuiltinNumberOfBytes:
		data, _ := args[0].([]byte)
		return uint64(len(data)), nil
	case ty.BuiltinAdd, ty.BuiltinSub, ty.BuiltinMul, ty.BuiltinLt, ty.BuiltinGt:
		return r.arith(b, resType, args[0], args[1])
	}
	return nil, fmt.Errorf("%w: builtin %d", ErrBadProgram, b)
}

func toBig(v any) *big.Int {
	switch n := v.(type) {
	case uint64:
		return new(big.Int).SetUint64(n)
	case abi.Word:
		return new(big.Int).SetBytes(n[:])
	}
	return new(big.Int)
}

func (r *run) arith(b ty.Builtin, resType types.TypeID, a, c any) (any, error) {
	x, y := toBig(a), toBig(c)
	switch b {
	case ty.BuiltinLt:
		return x.Cmp(y) < 0, nil
	case ty.BuiltinGt:
		return x.Cmp(y) > 0, nil
	}
	z := new(big.Int)
	switch b {
	case ty.BuiltinAdd:
		z.Add(x, y)
	case ty.BuiltinSub:
		z.Sub(x, y)
	case ty.BuiltinMul:
		z.Mul(x, y)
	}
	width := 64
	if tt, ok := r.m.e.Types.Lookup(r.m.e.Types.Unalias(resType)); ok && tt.Kind == types.KindUint {
		width = int(tt.Width)
	}
	if z.Sign() < 0 || z.BitLen() > width {
		return nil, ErrArithmetic
	}
	if width == 256 {
		var w abi.Word
		z.FillBytes(w[:])
		return w, nil
	}
	return z.Uint64(), nil
}

func (r *run) intrinsic(k ty.Intrinsic, typeArgs []types.TypeID, args []any) (any, error) {
	e := r.m.e
	switch k {
	case ty.IntrinsicLog:
		data, err := abi.Encode(nil, e, typeArgs[0], args[0])
		if err != nil {
			return nil, err
		}
		r.out.Logs = append(r.out.Logs, Log{Type: typeArgs[0], Data: data})
		return struct{}{}, nil
	case ty.IntrinsicSmo:
		data, err := abi.Encode(nil, e, typeArgs[0], args[1])
		if err != nil {
			return nil, err
		}
		to, _ := args[0].(abi.Word)
		r.out.Logs = append(r.out.Logs, Log{Type: typeArgs[0], Data: data, Recipient: &to})
		return struct{}{}, nil
	case ty.IntrinsicContractRet:
		p, _ := args[0].(rawPtr)
		n, _ := args[1].(uint64)
		if n > uint64(len(p.data)) {
			return nil, fmt.Errorf("%w: return of %d bytes from a %d byte buffer", ErrBadProgram, n, len(p.data))
		}
		r.out.ReturnData = append([]byte(nil), p.data[:n]...)
		r.out.Returned = true
		return nil, &halt{}
	case ty.IntrinsicRevert:
		code, _ := args[0].(uint64)
		r.out.Reverted = true
		r.out.RevertCode = code
		return nil, &halt{}
	}
	return nil, fmt.Errorf("%w: intrinsic %s", ErrBadProgram, k)
}
