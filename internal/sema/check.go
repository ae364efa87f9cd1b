package sema

import (
	"context"
	"strconv"

	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/namespace"
	"ledgerc/internal/parsed"
	"ledgerc/internal/source"
	"ledgerc/internal/trace"
	"ledgerc/internal/ty"
)

// CheckModules type-checks every module in dependency order and assembles
// the typed root. Declarations of all modules are collected before any
// body is checked, so bodies see storage and functions of every module.
// Each body is checked in its own diagnostic scope; the typed root is
// returned even when some bodies failed.
func (c *Checker) CheckModules(ctx context.Context, h *diag.Handler) (*ty.Module, error) {
	if c.root == nil {
		return nil, ErrNotOrdered
	}
	ctx, span := trace.Start(ctx, trace.ScopeStage, "check-modules")
	defer span.End("")

	phases := []struct {
		name string
		run  func(*diag.Handler, *moduleScope)
	}{
		{"types", c.declareTypes},
		{"aliases", c.declareAliases},
		{"type-bodies", c.resolveTypeBodies},
		{"abis", c.declareAbis},
		{"items", c.declareItems},
	}
	for _, phase := range phases {
		for _, ms := range c.order {
			_, ps := trace.Start(ctx, trace.ScopeModule, phase.name)
			ps.WithExtra("module", ms.typed.Name)
			phase.run(h, ms)
			ps.End("")
		}
	}

	for _, p := range c.pending {
		_ = h.Scope(func(h *diag.Handler) error {
			return c.checkBody(h, p)
		})
	}
	span.WithExtra("bodies", strconv.Itoa(len(c.pending)))
	c.pending = nil

	for _, ms := range c.order {
		ms.typed.Nodes = ms.typed.Nodes[:0]
		for _, n := range ms.nodes {
			if n != nil {
				ms.typed.Nodes = append(ms.typed.Nodes, n)
			}
		}
	}
	if h.HasErrors() {
		return c.root.typed, diag.ErrEmitted
	}
	return c.root.typed, nil
}

func (c *Checker) checkBody(h *diag.Handler, p pendingBody) error {
	switch p.kind {
	case bodyFunction:
		fn := decl.MustAs[*ty.FunctionDecl](c.engines.Decls, p.id)
		return c.checkFunctionBody(h, p.ms, fn, p.fn, p.tps)
	case bodyStorage:
		sd := decl.MustAs[*ty.StorageDecl](c.engines.Decls, p.id)
		var firstErr error
		for i, f := range p.storage.Fields {
			if f.Init == nil {
				continue
			}
			fc := c.newFnChecker(h, p.ms, nil, nil)
			x, err := fc.checkExpr(f.Init, sd.Fields[i].TypeArgument.TypeID)
			if err == nil {
				err = fc.finish(nil)
			}
			if err == nil && !isConst(x) {
				err = report(h, diag.SemaStorageInitNotConst, f.Init.Span, "initializer of storage field %s is not a constant", f.Name.Name)
			}
			if err != nil {
				firstErr = err
				continue
			}
			sd.Fields[i].Initializer = x
		}
		return firstErr
	case bodyConfigurable:
		cd := decl.MustAs[*ty.ConfigurableDecl](c.engines.Decls, p.id)
		fc := c.newFnChecker(h, p.ms, nil, nil)
		x, err := fc.checkExpr(p.value, cd.TypeArgument.TypeID)
		if err != nil {
			return err
		}
		if err := fc.finish(nil); err != nil {
			return err
		}
		if !isConst(x) {
			return report(h, diag.SemaConfigurableNotConst, p.value.Span, "value of %s is not a constant", cd.CallPath.Suffix.Name)
		}
		cd.Value = x
	}
	return nil
}

func (c *Checker) checkFunctionBody(h *diag.Handler, ms *moduleScope, fn *ty.FunctionDecl, d *parsed.FunctionDecl, tps typeParams) error {
	fc := c.newFnChecker(h, ms, fn, tps)
	for _, p := range fn.Parameters {
		fc.define(p.Name.Name, p.TypeArgument.TypeID)
	}
	ret := fn.ReturnType.TypeID
	body, err := fc.block(&d.Body, ret)
	if err != nil {
		return err
	}
	sp := d.Body.Span
	if d.Body.Tail != nil {
		sp = d.Body.Tail.Span
	}
	if err := fc.expectType(body.Type, ret, sp); err != nil {
		return err
	}
	if err := fc.finish(body); err != nil {
		return err
	}
	fn.Body = body
	return nil
}

// isConst reports whether x is built from literals only.
func isConst(x *ty.Expr) bool {
	switch x.Kind {
	case ty.ExprLiteral:
		return true
	case ty.ExprTupleLit, ty.ExprArrayLit, ty.ExprStructLit, ty.ExprEnumLit:
		for _, child := range x.Children() {
			if !isConst(child) {
				return false
			}
		}
		return true
	}
	return false
}

// CheckSynthetic declares and checks a compiler-generated function in the
// root module. The caller appends the node; diagnostics go to h and any of
// them means the generated code is wrong.
func (c *Checker) CheckSynthetic(h *diag.Handler, d *parsed.FunctionDecl, kind ty.FunctionKind, purity ty.Purity) (decl.ID, *ty.FunctionDecl, error) {
	if c.root == nil {
		return decl.NoID, nil, ErrNotOrdered
	}
	ms := c.root
	fn := &ty.FunctionDecl{
		Name:       d.Name,
		CallPath:   ms.callPath(d.Name),
		Visibility: ty.Public,
		Purity:     purity,
		Kind:       kind,
		Span:       source.NoSpan,
	}
	id := c.engines.Decls.Insert(fn)
	c.signature(h, ms, d, fn, nil)
	if h.HasErrors() {
		return id, fn, diag.ErrEmitted
	}
	if err := c.insertSymbol(h, ms, namespace.Symbol{Name: d.Name.Name, Kind: namespace.SymFunction, Decl: id}, source.NoSpan); err != nil {
		return id, fn, err
	}
	err := h.Scope(func(h *diag.Handler) error {
		return c.checkFunctionBody(h, ms, fn, d, nil)
	})
	return id, fn, err
}
