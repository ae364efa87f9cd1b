package sema

import (
	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/namespace"
	"ledgerc/internal/parsed"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

func (fc *fnChecker) call(x *parsed.Expr, d parsed.CallData, expected types.TypeID) (*ty.Expr, error) {
	if kind, ok := ty.IntrinsicByName(d.Name.Name); ok {
		return fc.intrinsic(x, d, kind)
	}
	sym, ok := fc.ms.ns.Resolve(d.Name.Name)
	if !ok || sym.Kind != namespace.SymFunction {
		return nil, report(fc.h, diag.SemaUnknownSymbol, d.Name.Span, "unknown function %s", d.Name.Name)
	}
	callee := decl.MustAs[*ty.FunctionDecl](fc.c.engines.Decls, sym.Decl)
	if len(d.Args) != len(callee.Parameters) {
		return nil, report(fc.h, diag.SemaArgumentCount, x.Span, "%s takes %d arguments, got %d",
			d.Name.Name, len(callee.Parameters), len(d.Args))
	}

	params := callee.ParamTypes()
	ret := callee.ReturnType.TypeID
	var targs []types.TypeID
	if callee.IsGeneric() {
		switch {
		case len(d.TypeArgs) > 0 && len(d.TypeArgs) != len(callee.TypeParameters):
			return nil, report(fc.h, diag.SemaTypeArgumentCount, x.Span, "%s takes %d type arguments, got %d",
				d.Name.Name, len(callee.TypeParameters), len(d.TypeArgs))
		case len(d.TypeArgs) > 0:
			resolved, err := fc.c.resolveTypes(fc.h, fc.ms.ns, d.TypeArgs, fc.tparams)
			if err != nil {
				return nil, err
			}
			targs = resolved
		default:
			for range callee.TypeParameters {
				targs = append(targs, fc.c.engines.Types.Fresh(types.KindUnknown))
			}
		}
		m := callee.SubstFor(targs)
		for i, p := range params {
			params[i] = m.Apply(p, fc.c.engines)
		}
		ret = m.Apply(ret, fc.c.engines)
		fc.generics = append(fc.generics, genericUse{name: d.Name.Name, args: targs, span: x.Span})
	} else if len(d.TypeArgs) > 0 {
		return nil, report(fc.h, diag.SemaTypeArgumentCount, x.Span, "%s is not generic", d.Name.Name)
	}

	// the expected result type drives inference of arguments like
	// `decode_first_param()`; a mismatch is reported by the caller
	if expected != types.NoTypeID {
		fc.unify(ret, expected)
	}
	args := make([]*ty.Expr, len(d.Args))
	for i, a := range d.Args {
		arg, err := fc.checkExpr(a, params[i])
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return fc.newExpr(ty.ExprCall, ret, x.Span, ty.CallData{
		Callee:   sym.Decl,
		Name:     d.Name.Name,
		Args:     args,
		TypeArgs: targs,
	}), nil
}

func (fc *fnChecker) intrinsic(x *parsed.Expr, d parsed.CallData, kind ty.Intrinsic) (*ty.Expr, error) {
	b := fc.builtins()
	var params []types.TypeID
	ret := b.Unit
	switch kind {
	case ty.IntrinsicLog:
		params = []types.TypeID{types.NoTypeID}
	case ty.IntrinsicSmo:
		params = []types.TypeID{b.B256, types.NoTypeID}
	case ty.IntrinsicContractRet:
		params = []types.TypeID{b.RawPtr, b.U64}
		ret = b.Never
	case ty.IntrinsicRevert:
		params = []types.TypeID{b.U64}
		ret = b.Never
	}
	if len(d.Args) != len(params) {
		return nil, report(fc.h, diag.SemaArgumentCount, x.Span, "%s takes %d arguments, got %d",
			kind, len(params), len(d.Args))
	}
	args := make([]*ty.Expr, len(d.Args))
	for i, a := range d.Args {
		arg, err := fc.checkExpr(a, params[i])
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	data := ty.IntrinsicData{Kind: kind, Args: args}
	switch kind {
	case ty.IntrinsicLog:
		data.TypeArgs = []types.TypeID{args[0].Type}
	case ty.IntrinsicSmo:
		data.TypeArgs = []types.TypeID{args[1].Type}
	}
	return fc.newExpr(ty.ExprIntrinsic, ret, x.Span, data), nil
}
