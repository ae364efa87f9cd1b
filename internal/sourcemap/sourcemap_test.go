package sourcemap

import (
	"context"
	"testing"

	"ledgerc/internal/corelib"
	"ledgerc/internal/diag"
	"ledgerc/internal/entry"
	"ledgerc/internal/parsed"
	"ledgerc/internal/sema"
	"ledgerc/internal/source"
	"ledgerc/internal/ty"
)

const script = `kind: script
root:
  nodes:
    - fn:
        name: main
        params: [{name: a, type: u64}]
        returns: u64
        body:
          - let: {name: b, value: {var: a}}
          - tail: {var: b}
`

func TestInsertSkipsSynthesized(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.yaml", []byte("x\ny\n"))
	m := New()
	if m.Insert(fs, 0, source.NoSpan) {
		t.Fatalf("synthesized span must not be recorded")
	}
	if !m.Insert(fs, 1, source.Span{File: id, Start: 2, End: 3}) {
		t.Fatalf("real span must be recorded")
	}
	m.Insert(fs, 2, source.Span{File: id, Start: 0, End: 1})
	if len(m.Map) != 2 || len(m.Paths) != 1 {
		t.Fatalf("map = %v paths = %v", m.Map, m.Paths)
	}
}

func TestLineTableKeepsFirstInstruction(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.yaml", []byte("first\nsecond\n"))
	m := New()
	m.Insert(fs, 7, source.Span{File: id, Start: 6, End: 12})
	m.Insert(fs, 3, source.Span{File: id, Start: 8, End: 9})
	m.Insert(fs, 5, source.Span{File: id, Start: 0, End: 5})
	m.Paths = append(m.Paths, "gone.yaml")
	m.Map[9] = Entry{Path: 1}

	table, missing := m.LineTable(fs)
	lines := table["a.yaml"]
	if lines[1] != 5 || lines[2] != 3 {
		t.Fatalf("lines = %v", lines)
	}
	if len(missing) != 1 || missing[0] != "gone.yaml" {
		t.Fatalf("missing = %v", missing)
	}
}

func TestFromModule(t *testing.T) {
	ctx := context.Background()
	fs := source.NewFileSet()
	prog, err := parsed.LoadYAML(fs, "main.yaml", []byte(script))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	e := ty.NewEngines()
	ns, err := corelib.Namespace(e)
	if err != nil {
		t.Fatalf("prelude: %v", err)
	}
	c := sema.NewChecker(e, prog.Kind, ns)
	h := diag.NewHandler(10)
	if err := c.OrderModules(ctx, h, prog); err != nil {
		t.Fatalf("order: %v", err)
	}
	root, err := c.CheckModules(ctx, h)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	before := FromModule(fs, e, root)
	if _, err := entry.Synthesize(ctx, h, c, root, entry.Options{NewEncoding: true}); err != nil {
		t.Fatalf("entry: %v", err)
	}
	after := FromModule(fs, e, root)
	if len(before.Map) == 0 {
		t.Fatalf("user code must be mapped")
	}
	if len(after.Map) != len(before.Map) {
		t.Fatalf("synthesized entry added %d entries", len(after.Map)-len(before.Map))
	}
	table, missing := after.LineTable(fs)
	if len(missing) != 0 || len(table["main.yaml"]) == 0 {
		t.Fatalf("table = %v missing = %v", table, missing)
	}
}
