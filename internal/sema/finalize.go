package sema

import (
	"context"
	"strconv"

	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/trace"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

// Finalized carries what finalization collects across the tree.
type Finalized struct {
	LoggedTypes  []types.TypeID
	MessageTypes []types.TypeID
}

// Finalize walks the nodes sequentially in declaration order. Every node
// settles its own remaining inference variables: unsuffixed integers
// become u64 and anything still unknown is an error. A failing node does
// not stop the nodes after it.
func Finalize(ctx context.Context, h *diag.Handler, e ty.Engines, root *ty.Module) (*Finalized, error) {
	ctx, span := trace.Start(ctx, trace.ScopeStage, "finalize")
	defer span.End("")

	out := &Finalized{}
	failed := 0
	for _, tl := range TopLevelNodes(root) {
		_, ns := trace.Start(ctx, trace.ScopeNode, tl.Node.Decl.Name.Name)
		err := h.Scope(func(h *diag.Handler) error {
			return finalizeNode(h, e, tl.Node, out)
		})
		if err != nil {
			failed++
			ns.WithExtra("failed", "true")
		}
		ns.End("")
	}
	span.WithExtra("failed", strconv.Itoa(failed))
	if failed > 0 {
		return out, diag.ErrEmitted
	}
	return out, nil
}

func finalizeNode(h *diag.Handler, e ty.Engines, n *ty.Node, out *Finalized) error {
	var bodies []*ty.Block
	var values []*ty.Expr
	switch n.Decl.Kind {
	case decl.KindFunction, decl.KindImplTrait:
		for _, id := range nodeFunctions(e, n) {
			if fn := decl.MustAs[*ty.FunctionDecl](e.Decls, id); fn.Body != nil {
				bodies = append(bodies, fn.Body)
			}
		}
	case decl.KindStorage:
		sd := decl.MustAs[*ty.StorageDecl](e.Decls, n.Decl.ID)
		for _, f := range sd.Fields {
			if f.Initializer != nil {
				values = append(values, f.Initializer)
			}
		}
	case decl.KindConfigurable:
		if cd := decl.MustAs[*ty.ConfigurableDecl](e.Decls, n.Decl.ID); cd.Value != nil {
			values = append(values, cd.Value)
		}
	}
	for _, x := range values {
		bodies = append(bodies, &ty.Block{Tail: x, Type: x.Type, Span: x.Span})
	}

	for _, b := range bodies {
		if err := finalizeBody(h, e, b, out); err != nil {
			return err
		}
	}
	return nil
}

func finalizeBody(h *diag.Handler, e ty.Engines, body *ty.Block, out *Finalized) error {
	var exprs []*ty.Expr
	var blocks []*ty.Block
	visitBlock(body, func(b *ty.Block) { blocks = append(blocks, b) }, func(x *ty.Expr) { exprs = append(exprs, x) })

	// unsuffixed integer literals default to u64
	m := &ty.TypeSubstMap{}
	u64 := e.Builtins().U64
	collect := func(t types.TypeID) {
		forEachVar(e, t, types.KindNumeric, func(v types.TypeID) { m.Insert(v, u64) })
	}
	for _, x := range exprs {
		collect(x.Type)
	}
	for _, b := range blocks {
		collect(b.Type)
	}
	ty.WalkLets(body, func(l *ty.LetData) { collect(l.Type) })

	if !m.IsEmpty() {
		for _, x := range exprs {
			x.Type = m.Apply(x.Type, e)
			switch d := x.Data.(type) {
			case ty.CallData:
				for i := range d.TypeArgs {
					d.TypeArgs[i] = m.Apply(d.TypeArgs[i], e)
				}
			case ty.IntrinsicData:
				for i := range d.TypeArgs {
					d.TypeArgs[i] = m.Apply(d.TypeArgs[i], e)
				}
			}
		}
		for _, b := range blocks {
			b.Type = m.Apply(b.Type, e)
		}
		ty.WalkLets(body, func(l *ty.LetData) { l.Type = m.Apply(l.Type, e) })
	}

	var unresolved error
	ty.WalkLets(body, func(l *ty.LetData) {
		if unresolved == nil && hasVar(e, l.Type) {
			unresolved = report(h, diag.SemaTypeNotFinalized, l.Name.Span,
				"type of %s could not be inferred: %s", l.Name.Name, e.DisplayType(l.Type))
		}
	})
	if unresolved != nil {
		return unresolved
	}
	for _, x := range exprs {
		if hasVar(e, x.Type) {
			return report(h, diag.SemaTypeNotFinalized, x.Span, "type of this expression could not be inferred: %s", e.DisplayType(x.Type))
		}
	}

	for _, x := range exprs {
		switch d := x.Data.(type) {
		case ty.LiteralData:
			if d.Kind != ty.LiteralNumeric {
				continue
			}
			tt, ok := e.Types.Lookup(e.Types.Unalias(x.Type))
			if ok && tt.Kind == types.KindUint && tt.Width < types.Width64 && d.Uint>>uint(tt.Width) != 0 {
				return report(h, diag.SemaTypeMismatch, x.Span, "literal %d does not fit in %s", d.Uint, e.DisplayType(x.Type))
			}
		case ty.IntrinsicData:
			switch d.Kind {
			case ty.IntrinsicLog:
				out.LoggedTypes = appendUnique(e, out.LoggedTypes, d.TypeArgs[0])
			case ty.IntrinsicSmo:
				out.MessageTypes = appendUnique(e, out.MessageTypes, d.TypeArgs[0])
			}
		}
	}
	return nil
}

func appendUnique(e ty.Engines, list []types.TypeID, t types.TypeID) []types.TypeID {
	for _, have := range list {
		if e.TypesEqual(have, t) {
			return list
		}
	}
	return append(list, t)
}

func hasVar(e ty.Engines, t types.TypeID) bool {
	found := false
	forEachVar(e, t, types.KindUnknown, func(types.TypeID) { found = true })
	return found
}

// forEachVar calls fn for every variable of kind k nested in t.
func forEachVar(e ty.Engines, t types.TypeID, k types.Kind, fn func(types.TypeID)) {
	var walk func(t types.TypeID, depth int)
	walk = func(t types.TypeID, depth int) {
		if depth > 64 {
			return
		}
		t = e.Types.Unalias(t)
		tt, ok := e.Types.Lookup(t)
		if !ok {
			return
		}
		switch tt.Kind {
		case k:
			fn(t)
		case types.KindArray, types.KindPtr, types.KindSlice:
			walk(tt.Elem, depth+1)
		case types.KindTuple:
			elems, _ := e.Types.TupleElems(t)
			for _, el := range elems {
				walk(el, depth+1)
			}
		case types.KindStruct, types.KindEnum:
			info, _ := e.Types.NominalInfo(t)
			for _, a := range info.Args {
				walk(a, depth+1)
			}
		}
	}
	walk(t, 0)
}

func visitBlock(b *ty.Block, onBlock func(*ty.Block), onExpr func(*ty.Expr)) {
	if b == nil {
		return
	}
	onBlock(b)
	for _, st := range b.Stmts {
		switch d := st.Data.(type) {
		case ty.LetData:
			visitExpr(d.Value, onBlock, onExpr)
		case ty.ExprStmtData:
			visitExpr(d.Expr, onBlock, onExpr)
		}
	}
	visitExpr(b.Tail, onBlock, onExpr)
}

func visitExpr(x *ty.Expr, onBlock func(*ty.Block), onExpr func(*ty.Expr)) {
	if x == nil {
		return
	}
	onExpr(x)
	switch d := x.Data.(type) {
	case ty.IfData:
		visitExpr(d.Cond, onBlock, onExpr)
		visitBlock(d.Then, onBlock, onExpr)
		visitBlock(d.Else, onBlock, onExpr)
		return
	case ty.BlockExprData:
		visitBlock(d.Block, onBlock, onExpr)
		return
	}
	for _, child := range x.Children() {
		visitExpr(child, onBlock, onExpr)
	}
}
