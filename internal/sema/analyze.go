package sema

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/project/dag"
	"ledgerc/internal/trace"
	"ledgerc/internal/ty"
)

// FnFacts is what analysis learns about one function body.
type FnFacts struct {
	ID      decl.ID
	Fn      *ty.FunctionDecl
	Callees []decl.ID
	Reads   bool
	Writes  bool
}

// Analysis is the result of the read-only pass over the typed tree.
type Analysis struct {
	Functions []FnFacts
	// Recursive holds every call cycle, each sorted by declaration order.
	Recursive [][]decl.ID
}

// TopLevel is a node together with the module that declares it.
type TopLevel struct {
	Module *ty.Module
	Node   *ty.Node
}

// TopLevelNodes lists every node of the tree, submodules first.
func TopLevelNodes(root *ty.Module) []TopLevel {
	var out []TopLevel
	root.Walk(func(m *ty.Module, n *ty.Node) {
		out = append(out, TopLevel{Module: m, Node: n})
	})
	return out
}

// nodeFunctions returns the function declarations a node owns.
func nodeFunctions(e ty.Engines, n *ty.Node) []decl.ID {
	switch n.Decl.Kind {
	case decl.KindFunction:
		return []decl.ID{n.Decl.ID}
	case decl.KindImplTrait:
		impl := decl.MustAs[*ty.ImplTraitDecl](e.Decls, n.Decl.ID)
		return impl.Items
	}
	return nil
}

// Analyze walks every top-level node without mutating it. Nodes are
// analyzed by up to jobs workers (0 means no limit); their diagnostics are
// merged back in declaration order. Call cycles are reported once the
// whole call graph is known.
func Analyze(ctx context.Context, h *diag.Handler, e ty.Engines, root *ty.Module, jobs int) (*Analysis, error) {
	ctx, span := trace.Start(ctx, trace.ScopeStage, "analyze")
	defer span.End("")

	nodes := TopLevelNodes(root)
	facts := make([][]FnFacts, len(nodes))
	handlers := make([]*diag.Handler, len(nodes))

	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, tl := range nodes {
		handlers[i] = h.Fork()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, ns := trace.Start(gctx, trace.ScopeNode, tl.Node.Decl.Name.Name)
			facts[i] = analyzeNode(handlers[i], e, tl.Node)
			ns.End("")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := false
	out := &Analysis{}
	for i := range nodes {
		failed = failed || handlers[i].HasErrors()
		h.Append(handlers[i])
		out.Functions = append(out.Functions, facts[i]...)
	}
	out.Recursive = callCycles(out.Functions)
	for _, cycle := range out.Recursive {
		names := make([]string, 0, len(cycle)+1)
		for _, id := range cycle {
			names = append(names, decl.MustAs[*ty.FunctionDecl](e.Decls, id).Name.Name)
		}
		names = append(names, names[0])
		first := decl.MustAs[*ty.FunctionDecl](e.Decls, cycle[0])
		_ = report(h, diag.SemaRecursiveCall, first.Span, "recursive call cycle: %s", strings.Join(names, " -> "))
		failed = true
	}
	if failed {
		return out, diag.ErrEmitted
	}
	return out, nil
}

func analyzeNode(h *diag.Handler, e ty.Engines, n *ty.Node) []FnFacts {
	var out []FnFacts
	for _, id := range nodeFunctions(e, n) {
		fn := decl.MustAs[*ty.FunctionDecl](e.Decls, id)
		if fn.Body == nil {
			continue
		}
		f := FnFacts{ID: id, Fn: fn}
		seen := make(map[decl.ID]bool)
		ty.WalkBlock(fn.Body, func(x *ty.Expr) bool {
			switch d := x.Data.(type) {
			case ty.CallData:
				callee, ok := decl.As[*ty.FunctionDecl](e.Decls, d.Callee)
				if !ok || callee.Builtin != ty.NotBuiltin {
					return true
				}
				if !seen[d.Callee] {
					seen[d.Callee] = true
					f.Callees = append(f.Callees, d.Callee)
				}
				if !allows(fn.Purity, callee.Purity) {
					warn(h, diag.SemaStoragePurity, x.Span, "%s calls %s which accesses storage (%s) but is declared %s",
						fn.Name.Name, callee.Name.Name, callee.Purity, fn.Purity)
				}
			case ty.StorageAccessData:
				if x.Kind == ty.ExprStorageRead {
					f.Reads = true
				} else {
					f.Writes = true
				}
			}
			return true
		})
		if f.Reads && !allows(fn.Purity, ty.Reads) {
			warn(h, diag.SemaStoragePurity, fn.Span, "%s reads storage but is not declared #[storage(read)]", fn.Name.Name)
		}
		if f.Writes && !allows(fn.Purity, ty.Writes) {
			warn(h, diag.SemaStoragePurity, fn.Span, "%s writes storage but is not declared #[storage(write)]", fn.Name.Name)
		}
		out = append(out, f)
	}
	return out
}

// allows reports whether a function declared have may do what need needs.
func allows(have, need ty.Purity) bool {
	switch need {
	case ty.Pure:
		return true
	case ty.Reads:
		return have == ty.Reads || have == ty.ReadsWrites
	case ty.Writes:
		return have == ty.Writes || have == ty.ReadsWrites
	}
	return have == ty.ReadsWrites
}

func callCycles(fns []FnFacts) [][]decl.ID {
	index := make(map[decl.ID]dag.ModuleID, len(fns))
	for i, f := range fns {
		index[f.ID] = dag.ModuleID(index32(i))
	}
	g := dag.NewGraph(len(fns))
	for i, f := range fns {
		for _, callee := range f.Callees {
			if to, ok := index[callee]; ok {
				g.AddEdge(dag.ModuleID(index32(i)), to)
			}
		}
	}
	var out [][]decl.ID
	for _, comp := range dag.StronglyConnected(g) {
		if len(comp) == 1 && !g.SelfLoop(comp[0]) {
			continue
		}
		cycle := make([]decl.ID, len(comp))
		for i, id := range comp {
			cycle[i] = fns[int(id)].ID
		}
		out = append(out, cycle)
	}
	return out
}
