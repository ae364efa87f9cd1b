package sema

import (
	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/namespace"
	"ledgerc/internal/parsed"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

// typeParams maps generic parameter names in scope to their handles.
type typeParams map[string]types.TypeID

func (c *Checker) builtinType(name string) (types.TypeID, bool) {
	b := c.engines.Builtins()
	switch name {
	case "u8":
		return b.U8, true
	case "u16":
		return b.U16, true
	case "u32":
		return b.U32, true
	case "u64":
		return b.U64, true
	case "u256":
		return b.U256, true
	case "bool":
		return b.Bool, true
	case "b256":
		return b.B256, true
	case "str":
		return b.Str, true
	case "raw_ptr":
		return b.RawPtr, true
	case "raw_slice":
		return b.RawSlice, true
	case "Contract":
		return b.Contract, true
	case "never":
		return b.Never, true
	}
	return types.NoTypeID, false
}

// resolveType interns a written type. Errors are emitted on h.
func (c *Checker) resolveType(h *diag.Handler, ns *namespace.Module, te parsed.TypeExpr, tps typeParams) (types.TypeID, error) {
	in := c.engines.Types
	switch te.Kind {
	case parsed.TypeResolved:
		return te.Resolved, nil
	case parsed.TypeTuple:
		elems, err := c.resolveTypes(h, ns, te.Args, tps)
		if err != nil {
			return types.NoTypeID, err
		}
		return in.RegisterTuple(elems), nil
	case parsed.TypeArray:
		elem, err := c.resolveType(h, ns, te.Args[0], tps)
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Intern(types.MakeArray(elem, te.Len)), nil
	case parsed.TypeStrArray:
		return in.Intern(types.MakeStringArray(te.Len)), nil
	}

	if t, ok := tps[te.Name]; ok && len(te.Args) == 0 {
		return t, nil
	}
	if t, ok := c.builtinType(te.Name); ok {
		if len(te.Args) != 0 {
			return types.NoTypeID, report(h, diag.SemaTypeArgumentCount, te.Span, "type %s takes no type arguments", te.Name)
		}
		return t, nil
	}
	switch te.Name {
	case "__ptr", "__slice":
		if len(te.Args) != 1 {
			return types.NoTypeID, report(h, diag.SemaTypeArgumentCount, te.Span, "%s takes exactly one type argument", te.Name)
		}
		elem, err := c.resolveType(h, ns, te.Args[0], tps)
		if err != nil {
			return types.NoTypeID, err
		}
		if te.Name == "__ptr" {
			return in.Intern(types.MakePtr(elem)), nil
		}
		return in.Intern(types.MakeSlice(elem)), nil
	}

	sym, ok := ns.Resolve(te.Name)
	if !ok || !sym.IsType() {
		return types.NoTypeID, report(h, diag.SemaUnknownType, te.Span, "unknown type %s", te.Name)
	}
	if sym.Kind == namespace.SymAlias {
		if len(te.Args) != 0 {
			return types.NoTypeID, report(h, diag.SemaTypeArgumentCount, te.Span, "type alias %s takes no type arguments", te.Name)
		}
		return sym.Type, nil
	}
	args, err := c.resolveTypes(h, ns, te.Args, tps)
	if err != nil {
		return types.NoTypeID, err
	}
	return c.instantiate(h, sym, args, te)
}

func (c *Checker) instantiate(h *diag.Handler, sym namespace.Symbol, args []types.TypeID, te parsed.TypeExpr) (types.TypeID, error) {
	if resolve, ok := c.unresolved[sym.Decl]; ok && len(args) > 0 {
		delete(c.unresolved, sym.Decl)
		resolve(h)
	}
	var id types.TypeID
	switch sym.Kind {
	case namespace.SymStruct:
		id = c.engines.InstantiateStruct(sym.Decl, args)
	case namespace.SymEnum:
		id = c.engines.InstantiateEnum(sym.Decl, args)
	default:
		return types.NoTypeID, report(h, diag.SemaUnknownType, te.Span, "%s is not a type", te.Name)
	}
	if id == types.NoTypeID {
		return types.NoTypeID, report(h, diag.SemaTypeArgumentCount, te.Span,
			"%s expects %d type arguments, got %d", te.Name, c.arity(sym.Decl), len(args))
	}
	return id, nil
}

func (c *Checker) arity(id decl.ID) int {
	switch d := c.engines.Decls.Get(id).(type) {
	case *ty.StructDecl:
		return len(d.TypeParameters)
	case *ty.EnumDecl:
		return len(d.TypeParameters)
	}
	return 0
}

func (c *Checker) resolveTypes(h *diag.Handler, ns *namespace.Module, tes []parsed.TypeExpr, tps typeParams) ([]types.TypeID, error) {
	if len(tes) == 0 {
		return nil, nil
	}
	out := make([]types.TypeID, len(tes))
	for i, te := range tes {
		t, err := c.resolveType(h, ns, te, tps)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
