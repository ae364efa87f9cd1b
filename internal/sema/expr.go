package sema

import (
	"encoding/hex"
	"strconv"
	"strings"

	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/namespace"
	"ledgerc/internal/parsed"
	"ledgerc/internal/source"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

// fnChecker checks one body: a function, a storage initializer list or a
// configurable value.
type fnChecker struct {
	c       *Checker
	h       *diag.Handler
	ms      *moduleScope
	fn      *ty.FunctionDecl // nil outside functions
	tparams typeParams

	scopes []map[string]types.TypeID
	bind   map[types.TypeID]types.TypeID

	exprs    []*ty.Expr
	blocks   []*ty.Block
	generics []genericUse

	reads, writes bool
}

// genericUse is a call site whose type arguments must be known once the
// whole body is checked.
type genericUse struct {
	name string
	args []types.TypeID
	span source.Span
}

func (c *Checker) newFnChecker(h *diag.Handler, ms *moduleScope, fn *ty.FunctionDecl, tps typeParams) *fnChecker {
	return &fnChecker{
		c:       c,
		h:       h,
		ms:      ms,
		fn:      fn,
		tparams: tps,
		scopes:  []map[string]types.TypeID{{}},
		bind:    make(map[types.TypeID]types.TypeID),
	}
}

func (fc *fnChecker) push() { fc.scopes = append(fc.scopes, map[string]types.TypeID{}) }

func (fc *fnChecker) pop() { fc.scopes = fc.scopes[:len(fc.scopes)-1] }

func (fc *fnChecker) define(name string, t types.TypeID) {
	fc.scopes[len(fc.scopes)-1][name] = t
}

func (fc *fnChecker) local(name string) (types.TypeID, bool) {
	for i := len(fc.scopes) - 1; i >= 0; i-- {
		if t, ok := fc.scopes[i][name]; ok {
			return t, true
		}
	}
	return types.NoTypeID, false
}

func (fc *fnChecker) builtins() types.Builtins { return fc.c.engines.Builtins() }

func (fc *fnChecker) newExpr(kind ty.ExprKind, t types.TypeID, sp source.Span, data ty.ExprData) *ty.Expr {
	x := &ty.Expr{Kind: kind, Type: t, Span: sp, Data: data}
	fc.exprs = append(fc.exprs, x)
	return x
}

// expect unifies the type of x with want and reports a mismatch.
func (fc *fnChecker) expect(x *ty.Expr, want types.TypeID) error {
	return fc.expectType(x.Type, want, x.Span)
}

func (fc *fnChecker) expectType(got, want types.TypeID, sp source.Span) error {
	if want == types.NoTypeID || fc.unify(got, want) {
		return nil
	}
	return report(fc.h, diag.SemaTypeMismatch, sp, "expected %s, found %s",
		fc.c.label(fc.zonk(want)), fc.c.label(fc.zonk(got)))
}

// checkExpr types x. expected guides literals and generic calls; a
// mismatch against it is reported.
func (fc *fnChecker) checkExpr(x *parsed.Expr, expected types.TypeID) (*ty.Expr, error) {
	out, err := fc.inferExpr(x, expected)
	if err != nil {
		return nil, err
	}
	if err := fc.expect(out, expected); err != nil {
		return nil, err
	}
	return out, nil
}

func (fc *fnChecker) inferExpr(x *parsed.Expr, expected types.TypeID) (*ty.Expr, error) {
	b := fc.builtins()
	switch d := x.Data.(type) {
	case parsed.LiteralData:
		return fc.literal(x, d, expected)
	case parsed.VarData:
		return fc.variable(x, d)
	case parsed.CallData:
		return fc.call(x, d, expected)
	case parsed.StructData:
		return fc.structLit(x, d)
	case parsed.EnumData:
		return fc.enumLit(x, d)
	case parsed.TupleData:
		var want []types.TypeID
		if elems, ok := fc.c.engines.Types.TupleElems(fc.shallow(expected)); ok && len(elems) == len(d.Elems) {
			want = elems
		}
		elems := make([]*ty.Expr, len(d.Elems))
		ts := make([]types.TypeID, len(d.Elems))
		for i, el := range d.Elems {
			exp := types.NoTypeID
			if want != nil {
				exp = want[i]
			}
			te, err := fc.checkExpr(el, exp)
			if err != nil {
				return nil, err
			}
			elems[i], ts[i] = te, te.Type
		}
		return fc.newExpr(ty.ExprTupleLit, fc.c.engines.Types.RegisterTuple(ts), x.Span, ty.TupleLitData{Elems: elems}), nil
	case parsed.ArrayData:
		elem := types.NoTypeID
		if tt, ok := fc.c.engines.Types.Lookup(fc.shallow(expected)); ok && tt.Kind == types.KindArray {
			elem = tt.Elem
		}
		if elem == types.NoTypeID {
			elem = fc.c.engines.Types.Fresh(types.KindUnknown)
		}
		elems := make([]*ty.Expr, len(d.Elems))
		for i, el := range d.Elems {
			te, err := fc.checkExpr(el, elem)
			if err != nil {
				return nil, err
			}
			elems[i] = te
		}
		t := fc.c.engines.Types.Intern(types.MakeArray(elem, index32(len(elems))))
		return fc.newExpr(ty.ExprArrayLit, t, x.Span, ty.ArrayLitData{Elems: elems}), nil
	case parsed.TupleIndexData:
		prefix, err := fc.checkExpr(d.Prefix, types.NoTypeID)
		if err != nil {
			return nil, err
		}
		pt := fc.zonk(fc.shallow(prefix.Type))
		elems, ok := fc.c.engines.Types.TupleElems(pt)
		if !ok || !fc.c.engines.Types.IsKind(pt, types.KindTuple) {
			return nil, report(fc.h, diag.SemaNotATuple, x.Span, "type %s is not a tuple", fc.c.label(pt))
		}
		if d.Index < 0 || d.Index >= len(elems) {
			return nil, report(fc.h, diag.SemaTupleIndexOutOfRange, x.Span,
				"index %d out of range for %s with %d elements", d.Index, fc.c.label(pt), len(elems))
		}
		return fc.newExpr(ty.ExprTupleIndex, elems[d.Index], x.Span, ty.TupleIndexData{Prefix: prefix, Index: d.Index}), nil
	case parsed.FieldData:
		obj, err := fc.checkExpr(d.Object, types.NoTypeID)
		if err != nil {
			return nil, err
		}
		ot := fc.zonk(fc.shallow(obj.Type))
		s, ok := fc.c.engines.StructOf(ot)
		if !ok {
			return nil, report(fc.h, diag.SemaNotAStruct, d.Field.Span, "type %s has no fields", fc.c.label(ot))
		}
		if _, err := s.ExpectField(fc.h, d.Field); err != nil {
			return nil, err
		}
		idx, ft, _ := s.FieldIndexAndType(d.Field.Name)
		return fc.newExpr(ty.ExprFieldAccess, ft, x.Span, ty.FieldAccessData{Object: obj, FieldName: d.Field.Name, FieldIdx: idx}), nil
	case parsed.IfData:
		return fc.ifExpr(x, d, expected)
	case parsed.BlockData:
		blk, err := fc.block(&d.Block, expected)
		if err != nil {
			return nil, err
		}
		return fc.newExpr(ty.ExprBlock, blk.Type, x.Span, ty.BlockExprData{Block: blk}), nil
	case parsed.ReturnData:
		if fc.fn == nil {
			return nil, report(fc.h, diag.SemaTypeMismatch, x.Span, "return outside of a function body")
		}
		want := fc.fn.ReturnType.TypeID
		var value *ty.Expr
		if d.Value != nil {
			v, err := fc.checkExpr(d.Value, want)
			if err != nil {
				return nil, err
			}
			value = v
		} else if err := fc.expectType(b.Unit, want, x.Span); err != nil {
			return nil, err
		}
		return fc.newExpr(ty.ExprReturn, b.Never, x.Span, ty.ReturnData{Value: value}), nil
	case parsed.StorageData:
		return fc.storageAccess(x, d)
	}
	return nil, report(fc.h, diag.SemaError, x.Span, "unsupported expression")
}

func (fc *fnChecker) literal(x *parsed.Expr, d parsed.LiteralData, expected types.TypeID) (*ty.Expr, error) {
	b := fc.builtins()
	switch d.Kind {
	case parsed.LitBool:
		v, err := strconv.ParseBool(d.Text)
		if err != nil {
			return nil, report(fc.h, diag.SemaTypeMismatch, x.Span, "invalid bool literal %q", d.Text)
		}
		return fc.newExpr(ty.ExprLiteral, b.Bool, x.Span, ty.LiteralData{Kind: ty.LiteralBool, Bool: v}), nil
	case parsed.LitString:
		return fc.newExpr(ty.ExprLiteral, b.Str, x.Span, ty.LiteralData{Kind: ty.LiteralString, String: d.Text}), nil
	case parsed.LitB256:
		raw, err := hex.DecodeString(strings.TrimPrefix(d.Text, "0x"))
		if err != nil || len(raw) != 32 {
			return nil, report(fc.h, diag.SemaTypeMismatch, x.Span, "b256 literal must be 32 hex bytes")
		}
		lit := ty.LiteralData{Kind: ty.LiteralB256}
		copy(lit.B256[:], raw)
		return fc.newExpr(ty.ExprLiteral, b.B256, x.Span, lit), nil
	}

	text := strings.ReplaceAll(d.Text, "_", "")
	t := types.NoTypeID
	for _, suffix := range []struct {
		s string
		t types.TypeID
	}{{"u256", b.U256}, {"u64", b.U64}, {"u32", b.U32}, {"u16", b.U16}, {"u8", b.U8}} {
		if strings.HasSuffix(text, suffix.s) && !strings.HasPrefix(text, "0x") {
			text, t = strings.TrimSuffix(text, suffix.s), suffix.t
			break
		}
	}
	v, err := strconv.ParseUint(text, 0, 64)
	if err != nil {
		return nil, report(fc.h, diag.SemaTypeMismatch, x.Span, "invalid integer literal %q", d.Text)
	}
	if t == types.NoTypeID {
		if fc.c.engines.Types.IsKind(fc.shallow(expected), types.KindUint) {
			t = fc.shallow(expected)
		} else {
			t = fc.c.engines.Types.Fresh(types.KindNumeric)
		}
	}
	return fc.newExpr(ty.ExprLiteral, t, x.Span, ty.LiteralData{Kind: ty.LiteralNumeric, Uint: v}), nil
}

func (fc *fnChecker) variable(x *parsed.Expr, d parsed.VarData) (*ty.Expr, error) {
	if t, ok := fc.local(d.Name.Name); ok {
		return fc.newExpr(ty.ExprVarRef, t, x.Span, ty.VarRefData{Name: d.Name.Name}), nil
	}
	if sym, ok := fc.ms.ns.Resolve(d.Name.Name); ok && sym.Kind == namespace.SymConfigurable {
		cd := decl.MustAs[*ty.ConfigurableDecl](fc.c.engines.Decls, sym.Decl)
		return fc.newExpr(ty.ExprConfigurableRef, cd.TypeArgument.TypeID, x.Span,
			ty.ConfigurableRefData{Decl: sym.Decl, Name: d.Name.Name}), nil
	}
	return nil, report(fc.h, diag.SemaUnknownSymbol, d.Name.Span, "unknown variable %s", d.Name.Name)
}

func (fc *fnChecker) ifExpr(x *parsed.Expr, d parsed.IfData, expected types.TypeID) (*ty.Expr, error) {
	b := fc.builtins()
	cond, err := fc.checkExpr(d.Cond, b.Bool)
	if err != nil {
		return nil, err
	}
	if d.Else == nil {
		then, err := fc.block(&d.Then, types.NoTypeID)
		if err != nil {
			return nil, err
		}
		if err := fc.expectType(then.Type, b.Unit, d.Then.Span); err != nil {
			return nil, err
		}
		return fc.newExpr(ty.ExprIf, b.Unit, x.Span, ty.IfData{Cond: cond, Then: then}), nil
	}
	then, err := fc.block(&d.Then, expected)
	if err != nil {
		return nil, err
	}
	els, err := fc.block(d.Else, expected)
	if err != nil {
		return nil, err
	}
	if err := fc.expectType(els.Type, then.Type, d.Else.Span); err != nil {
		return nil, err
	}
	t := then.Type
	if fc.kindOf(fc.shallow(t)) == types.KindNever {
		t = els.Type
	}
	return fc.newExpr(ty.ExprIf, t, x.Span, ty.IfData{Cond: cond, Then: then, Else: els}), nil
}

// block checks a braced block in a new scope. A block without a tail
// whose statements diverge has type never.
func (fc *fnChecker) block(pb *parsed.Block, expected types.TypeID) (*ty.Block, error) {
	fc.push()
	defer fc.pop()
	b := fc.builtins()
	out := &ty.Block{Span: pb.Span, Type: b.Unit}
	fc.blocks = append(fc.blocks, out)
	diverges := false
	for _, st := range pb.Stmts {
		switch d := st.Data.(type) {
		case parsed.LetData:
			want := types.NoTypeID
			if d.Type != nil {
				t, err := fc.c.resolveType(fc.h, fc.ms.ns, *d.Type, fc.tparams)
				if err != nil {
					return nil, err
				}
				want = t
			}
			value, err := fc.checkExpr(d.Value, want)
			if err != nil {
				return nil, err
			}
			t := want
			if t == types.NoTypeID {
				t = value.Type
			}
			fc.define(d.Name.Name, t)
			out.Stmts = append(out.Stmts, ty.Stmt{Kind: ty.StmtLet, Span: st.Span, Data: ty.LetData{
				Name: d.Name, Type: t, Value: value, IsMut: d.IsMut,
			}})
			diverges = diverges || fc.kindOf(fc.shallow(value.Type)) == types.KindNever
		case parsed.ExprStmtData:
			x, err := fc.checkExpr(d.Expr, types.NoTypeID)
			if err != nil {
				return nil, err
			}
			out.Stmts = append(out.Stmts, ty.Stmt{Kind: ty.StmtExpr, Span: st.Span, Data: ty.ExprStmtData{Expr: x}})
			diverges = diverges || fc.kindOf(fc.shallow(x.Type)) == types.KindNever
		}
	}
	if pb.Tail != nil {
		tail, err := fc.checkExpr(pb.Tail, expected)
		if err != nil {
			return nil, err
		}
		out.Tail = tail
		out.Type = tail.Type
	} else if diverges {
		out.Type = b.Never
	}
	return out, nil
}

func (fc *fnChecker) storageAccess(x *parsed.Expr, d parsed.StorageData) (*ty.Expr, error) {
	if len(fc.c.storage) == 0 {
		return nil, report(fc.h, diag.SemaUnknownSymbol, x.Span, "no storage is declared")
	}
	sd := decl.MustAs[*ty.StorageDecl](fc.c.engines.Decls, fc.c.storage[0])
	field, idx, ok := sd.Field(d.Field.Name)
	if !ok {
		return nil, report(fc.h, diag.SemaUnknownSymbol, d.Field.Span, "storage has no field %s", d.Field.Name)
	}
	ft := field.TypeArgument.TypeID
	if x.Kind == parsed.ExprStorageRead {
		fc.reads = true
		return fc.newExpr(ty.ExprStorageRead, ft, x.Span, ty.StorageAccessData{Field: d.Field.Name, Index: idx}), nil
	}
	fc.writes = true
	value, err := fc.checkExpr(d.Value, ft)
	if err != nil {
		return nil, err
	}
	return fc.newExpr(ty.ExprStorageWrite, fc.builtins().Unit, x.Span,
		ty.StorageAccessData{Field: d.Field.Name, Index: idx, Value: value}), nil
}

// resolveNominal finds a struct or enum by name, instantiating it with the
// written type arguments or with fresh variables.
func (fc *fnChecker) resolveNominal(name source.Ident, targs []parsed.TypeExpr, want namespace.SymbolKind) (types.TypeID, error) {
	sym, ok := fc.ms.ns.Resolve(name.Name)
	if !ok {
		return types.NoTypeID, report(fc.h, diag.SemaUnknownType, name.Span, "unknown type %s", name.Name)
	}
	if sym.Kind == namespace.SymAlias {
		kind := types.KindStruct
		if want == namespace.SymEnum {
			kind = types.KindEnum
		}
		if !fc.c.engines.Types.IsKind(sym.Type, kind) {
			return types.NoTypeID, report(fc.h, diag.SemaUnknownType, name.Span, "%s is not a %s", name.Name, want)
		}
		return fc.c.engines.Types.Unalias(sym.Type), nil
	}
	if sym.Kind != want {
		return types.NoTypeID, report(fc.h, diag.SemaUnknownType, name.Span, "%s is not a %s", name.Name, want)
	}
	var args []types.TypeID
	if len(targs) > 0 {
		resolved, err := fc.c.resolveTypes(fc.h, fc.ms.ns, targs, fc.tparams)
		if err != nil {
			return types.NoTypeID, err
		}
		args = resolved
	} else {
		for range fc.c.arity(sym.Decl) {
			args = append(args, fc.c.engines.Types.Fresh(types.KindUnknown))
		}
	}
	return fc.c.instantiate(fc.h, sym, args, parsed.TypeExpr{Name: name.Name, Span: name.Span})
}

func (fc *fnChecker) structLit(x *parsed.Expr, d parsed.StructData) (*ty.Expr, error) {
	t, err := fc.resolveNominal(d.Name, d.TypeArgs, namespace.SymStruct)
	if err != nil {
		return nil, err
	}
	s, _ := fc.c.engines.StructOf(t)
	values := make(map[string]*ty.Expr, len(d.Fields))
	for _, init := range d.Fields {
		field, err := s.ExpectField(fc.h, init.Name)
		if err != nil {
			return nil, err
		}
		if _, dup := values[init.Name.Name]; dup {
			return nil, report(fc.h, diag.SemaDuplicateDeclaration, init.Name.Span, "field %s initialized twice", init.Name.Name)
		}
		v, err := fc.checkExpr(init.Value, field.TypeArgument.TypeID)
		if err != nil {
			return nil, err
		}
		values[init.Name.Name] = v
	}
	var missing []string
	fields := make([]ty.StructFieldInit, 0, len(s.Fields))
	for _, f := range s.Fields {
		v, ok := values[f.Name.Name]
		if !ok {
			missing = append(missing, f.Name.Name)
			continue
		}
		fields = append(fields, ty.StructFieldInit{Name: f.Name, Value: v})
	}
	if len(missing) > 0 {
		return nil, report(fc.h, diag.SemaMissingStructField, x.Span, "missing fields in %s: %s",
			d.Name.Name, strings.Join(missing, ", "))
	}
	return fc.newExpr(ty.ExprStructLit, t, x.Span, ty.StructLitData{Fields: fields}), nil
}

func (fc *fnChecker) enumLit(x *parsed.Expr, d parsed.EnumData) (*ty.Expr, error) {
	t, err := fc.resolveNominal(d.Enum, d.TypeArgs, namespace.SymEnum)
	if err != nil {
		return nil, err
	}
	en, _ := fc.c.engines.EnumOf(t)
	v, ok := en.Variant(d.Variant.Name)
	if !ok {
		return nil, report(fc.h, diag.SemaUnknownSymbol, d.Variant.Span, "enum %s has no variant %s", d.Enum.Name, d.Variant.Name)
	}
	data := ty.EnumLitData{Variant: v.Name.Name, Tag: v.Tag}
	if d.Value == nil {
		if err := fc.expectType(fc.builtins().Unit, v.TypeArgument.TypeID, x.Span); err != nil {
			return nil, err
		}
	} else {
		value, err := fc.checkExpr(d.Value, v.TypeArgument.TypeID)
		if err != nil {
			return nil, err
		}
		data.Value = value
	}
	return fc.newExpr(ty.ExprEnumLit, t, x.Span, data), nil
}

// finish zonks every type recorded while checking the body and reports
// generic calls whose arguments stayed unknown.
func (fc *fnChecker) finish(body *ty.Block) error {
	for _, x := range fc.exprs {
		x.Type = fc.zonk(x.Type)
		switch d := x.Data.(type) {
		case ty.CallData:
			for i, t := range d.TypeArgs {
				d.TypeArgs[i] = fc.zonk(t)
			}
		case ty.IntrinsicData:
			for i, t := range d.TypeArgs {
				d.TypeArgs[i] = fc.zonk(t)
			}
		}
	}
	for _, b := range fc.blocks {
		b.Type = fc.zonk(b.Type)
	}
	ty.WalkLets(body, func(l *ty.LetData) {
		l.Type = fc.zonk(l.Type)
	})
	var err error
	for _, g := range fc.generics {
		for _, t := range g.args {
			if fc.c.containsKind(fc.zonk(t), types.KindUnknown) {
				err = report(fc.h, diag.SemaCannotInferGeneric, g.span, "cannot infer type arguments of %s", g.name)
				break
			}
		}
	}
	return err
}
