package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"ledgerc/internal/decl"
	"ledgerc/internal/source"
	"ledgerc/internal/ty"
)

// CheckSpanInvariants runs a minimal set of span invariants on a typed tree:
// 1) every real span is ordered and within its file's content
// 2) every node span with a real module span lies inside it
// 3) synthesized declarations carry no position at all
func CheckSpanInvariants(fs *source.FileSet, e ty.Engines, root *ty.Module) error {
	if fs == nil || root == nil {
		return fmt.Errorf("nil file set or module")
	}
	var err error
	root.Walk(func(m *ty.Module, n *ty.Node) {
		if err != nil {
			return
		}
		if err = checkSpan(fs, n.Span, "node "+n.Decl.Name.Name); err != nil {
			return
		}
		if !n.Span.IsSynthetic() && !m.Span.IsSynthetic() && n.Span.File == m.Span.File {
			if n.Span.Start < m.Span.Start || n.Span.End > m.Span.End {
				err = fmt.Errorf("node %s span %v is outside module span %v", n.Decl.Name.Name, n.Span, m.Span)
				return
			}
		}
		switch n.Decl.Kind {
		case decl.KindFunction:
			err = checkFunction(fs, e, n.Decl.ID)
		case decl.KindImplTrait:
			impl, ok := decl.As[*ty.ImplTraitDecl](e.Decls, n.Decl.ID)
			if !ok {
				err = fmt.Errorf("impl %s not in engine", n.Decl.Name.Name)
				return
			}
			for _, id := range impl.Items {
				if err = checkFunction(fs, e, id); err != nil {
					return
				}
			}
		}
	})
	return err
}

func checkFunction(fs *source.FileSet, e ty.Engines, id decl.ID) error {
	fn, ok := decl.As[*ty.FunctionDecl](e.Decls, id)
	if !ok {
		return fmt.Errorf("function %d not in engine", id)
	}
	if fn.Body == nil {
		return nil
	}
	var err error
	ty.WalkBlock(fn.Body, func(x *ty.Expr) bool {
		if fn.Span.IsSynthetic() && !x.Span.IsSynthetic() {
			err = fmt.Errorf("synthesized function %s has positioned expression %v", fn.Name.Name, x.Span)
			return false
		}
		err = checkSpan(fs, x.Span, "expression in "+fn.Name.Name)
		return err == nil
	})
	return err
}

func checkSpan(fs *source.FileSet, sp source.Span, what string) error {
	if sp.IsSynthetic() {
		return nil
	}
	if sp.End < sp.Start {
		return fmt.Errorf("%s: inverted span %v", what, sp)
	}
	f := fs.Get(sp.File)
	if f == nil {
		return fmt.Errorf("%s: span points to unknown file %d", what, sp.File)
	}
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if sp.End > lenContent {
		return fmt.Errorf("%s: span end beyond content: %d > %d", what, sp.End, lenContent)
	}
	return nil
}
