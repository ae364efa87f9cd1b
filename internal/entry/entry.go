// Package entry synthesizes the program entry point: the `__entry`
// function that decodes call data, runs user code and hands the encoded
// result back to the runtime.
//
// Synthesized code is built as a parse tree with no source locations and
// checked like user code. It is compiler-controlled, so any diagnostic
// from that check is an internal failure rather than a user error.
package entry

import (
	"context"
	"strings"

	"ledgerc/internal/abi"
	"ledgerc/internal/corelib"
	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/parsed"
	"ledgerc/internal/sema"
	"ledgerc/internal/source"
	"ledgerc/internal/trace"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

// Name of the synthesized entry function.
const Name = "__entry"

const (
	argsVar       = "args"
	resultVar     = "result"
	methodNameVar = "method_name"
)

// Options gates synthesis.
type Options struct {
	// NewEncoding enables synthesis; without it Synthesize is a no-op.
	NewEncoding bool
}

// Result describes the synthesized entry. Dispatch lists the contract
// methods in the order the dispatcher tests them.
type Result struct {
	ID       decl.ID
	Fn       *ty.FunctionDecl
	Dispatch []Method
}

// Method is one dispatcher branch.
type Method struct {
	Name string
	ID   decl.ID
	Args types.TypeID // decoded argument tuple, NoTypeID for no parameters
}

// Synthesize appends the entry function to root for scripts and
// contracts. Predicates and libraries are left untouched, as is every
// program when opts.NewEncoding is off; both return a nil Result.
func Synthesize(ctx context.Context, h *diag.Handler, c *sema.Checker, root *ty.Module, opts Options) (*Result, error) {
	if !opts.NewEncoding {
		return nil, nil
	}
	var (
		res *Result
		err error
	)
	switch c.Kind() {
	case parsed.Script:
		_, span := trace.Start(ctx, trace.ScopeStage, "synthesize-script-entry")
		res, err = script(h, c, root)
		span.End("")
	case parsed.Contract:
		_, span := trace.Start(ctx, trace.ScopeStage, "synthesize-contract-entry")
		res, err = contract(h, c, root)
		span.End("")
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	root.AppendNode(&ty.Node{
		Decl: ty.Declaration{Kind: decl.KindFunction, ID: res.ID, Name: res.Fn.Name},
		Span: source.NoSpan,
	})
	return res, nil
}

// script builds
//
//	let args: (A, B) = decode_script_data::<(A, B)>();
//	let result: raw_slice = encode(main(args.0, args.1));
//	__contract_ret(ptr(result), number_of_bytes(result));
func script(h *diag.Handler, c *sema.Checker, root *ty.Module) (*Result, error) {
	e := c.Engines()
	_, mainFn, ok := root.FindFunction(e, "main")
	if !ok {
		return nil, internalError(h, "script has no main function to wrap", nil)
	}
	argsType, err := argumentsType(h, e, mainFn)
	if err != nil {
		return nil, err
	}

	var body parsed.Block
	var args []*parsed.Expr
	if argsType != types.NoTypeID {
		t := parsed.ResolvedType(argsType)
		body.Stmts = append(body.Stmts,
			parsed.Let(argsVar, &t, parsed.Call(corelib.DecodeScriptData, []parsed.TypeExpr{t})))
		args = tupleArgs(len(mainFn.Parameters))
	}
	body.Stmts = append(body.Stmts, encodeAndReturn(parsed.Call("main", nil, args...))...)

	return finish(h, c, body, ty.Pure, nil)
}

// contract builds
//
//	let method_name: str = decode_first_param::<str>();
//	if eq(method_name, "foo") {
//	    let result: raw_slice = encode(__contract_entry_foo());
//	    __contract_ret(ptr(result), number_of_bytes(result));
//	}
//	if eq(method_name, "bar") {
//	    let args: (u64,) = decode_second_param::<(u64,)>();
//	    let result: raw_slice = encode(__contract_entry_bar(args.0));
//	    __contract_ret(ptr(result), number_of_bytes(result));
//	}
//
// Nothing is returned when no branch matches.
func contract(h *diag.Handler, c *sema.Checker, root *ty.Module) (*Result, error) {
	e := c.Engines()
	ns, ok := c.Namespace(root)
	if !ok || !corelib.HasOps(ns) {
		return nil, internalError(h, "core::ops is not reachable from the contract root", nil)
	}

	str := parsed.Named("str")
	body := parsed.Block{Stmts: []parsed.Stmt{
		parsed.Let(methodNameVar, &str, parsed.Call(corelib.DecodeFirstParam, []parsed.TypeExpr{str})),
	}}
	var dispatch []Method
	for _, id := range sema.ContractMethods(e, root) {
		fn := decl.MustAs[*ty.FunctionDecl](e.Decls, id)
		argsType, err := argumentsType(h, e, fn)
		if err != nil {
			return nil, err
		}
		name := strings.TrimPrefix(fn.Name.Name, sema.ContractEntryPrefix)

		var then parsed.Block
		var args []*parsed.Expr
		if argsType != types.NoTypeID {
			t := parsed.ResolvedType(argsType)
			then.Stmts = append(then.Stmts,
				parsed.Let(argsVar, &t, parsed.Call(corelib.DecodeSecondParam, []parsed.TypeExpr{t})))
			args = tupleArgs(len(fn.Parameters))
		}
		then.Stmts = append(then.Stmts, encodeAndReturn(parsed.Call(fn.CallPath.String(), nil, args...))...)

		cond := parsed.Call(corelib.Eq, nil, parsed.Var(methodNameVar), parsed.StrLit(name))
		body.Stmts = append(body.Stmts, parsed.ExprStmt(parsed.If(cond, then, nil)))
		dispatch = append(dispatch, Method{Name: name, ID: id, Args: argsType})
	}

	return finish(h, c, body, ty.ReadsWrites, dispatch)
}

// argumentsType mirrors the parameter list of fn as a tuple. A single
// parameter still becomes a one-element tuple.
func argumentsType(h *diag.Handler, e ty.Engines, fn *ty.FunctionDecl) (types.TypeID, error) {
	if len(fn.Parameters) == 0 {
		return types.NoTypeID, nil
	}
	elems := make([]types.TypeID, len(fn.Parameters))
	for i, p := range fn.Parameters {
		if !abi.Supported(e, p.TypeArgument.TypeID) {
			return types.NoTypeID, h.EmitErr(diag.NewError(diag.AbiUnsupportedParamType, p.TypeArgument.Span,
				"parameter "+p.Name.Name+" of "+fn.Name.Name+" has type "+e.DisplayType(p.TypeArgument.TypeID)+
					" which cannot be decoded from call data"))
		}
		elems[i] = p.TypeArgument.TypeID
	}
	return e.Types.RegisterTuple(elems), nil
}

func tupleArgs(n int) []*parsed.Expr {
	out := make([]*parsed.Expr, n)
	for i := range out {
		out[i] = parsed.TupleIndex(parsed.Var(argsVar), i)
	}
	return out
}

func encodeAndReturn(call *parsed.Expr) []parsed.Stmt {
	slice := parsed.Named("raw_slice")
	return []parsed.Stmt{
		parsed.Let(resultVar, &slice, parsed.Call(corelib.Encode, nil, call)),
		parsed.ExprStmt(parsed.Call("__contract_ret", nil,
			parsed.Call(corelib.Ptr, nil, parsed.Var(resultVar)),
			parsed.Call(corelib.NumberOfBytes, nil, parsed.Var(resultVar)),
		)),
	}
}

func finish(h *diag.Handler, c *sema.Checker, body parsed.Block, purity ty.Purity, dispatch []Method) (*Result, error) {
	body.Span = source.NoSpan
	unit := parsed.UnitType()
	fn := &parsed.FunctionDecl{
		Name:       source.IdentNoSpan(Name),
		ReturnType: &unit,
		Public:     true,
		Body:       body,
		Span:       source.NoSpan,
	}
	inner := diag.NewHandler(0)
	id, typed, err := c.CheckSynthetic(inner, fn, ty.FnEntry, purity)
	if err != nil || len(inner.Diagnostics()) > 0 {
		return nil, internalError(h, "generated entry failed to type-check", inner)
	}
	return &Result{ID: id, Fn: typed, Dispatch: dispatch}, nil
}

// internalError reports an AbiInternalSynthesisFailure carrying whatever
// the inner check found.
func internalError(h *diag.Handler, msg string, inner *diag.Handler) error {
	d := diag.NewError(diag.AbiInternalSynthesisFailure, source.NoSpan, msg)
	if inner != nil {
		for _, x := range inner.Diagnostics() {
			d = d.WithNote(x.Primary, x.Error())
		}
	}
	return h.EmitErr(d)
}
