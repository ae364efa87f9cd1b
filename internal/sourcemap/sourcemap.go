// Package sourcemap maps instruction indexes back to source ranges and
// derives the per-line breakpoint table a debugger needs.
package sourcemap

import (
	"slices"

	"fortio.org/safecast"

	"ledgerc/internal/decl"
	"ledgerc/internal/source"
	"ledgerc/internal/ty"
)

// PathIndex indexes SourceMap.Paths.
type PathIndex uint32

// Entry is the source range of one instruction.
type Entry struct {
	Path  PathIndex `msgpack:"path"`
	Start uint32    `msgpack:"start"`
	End   uint32    `msgpack:"end"`
}

type SourceMap struct {
	Paths []string         `msgpack:"paths"`
	Map   map[uint64]Entry `msgpack:"map"`
}

func New() *SourceMap {
	return &SourceMap{Map: make(map[uint64]Entry)}
}

// Insert records span for instruction. Synthesized spans are never
// recorded since there is no source to stop at.
func (m *SourceMap) Insert(fs *source.FileSet, instruction uint64, span source.Span) bool {
	if span.IsSynthetic() {
		return false
	}
	f := fs.Get(span.File)
	if f == nil {
		return false
	}
	m.Map[instruction] = Entry{Path: m.pathIndex(f.Path), Start: span.Start, End: span.End}
	return true
}

func (m *SourceMap) pathIndex(path string) PathIndex {
	idx := slices.Index(m.Paths, path)
	if idx < 0 {
		idx = len(m.Paths)
		m.Paths = append(m.Paths, path)
	}
	n, err := safecast.Conv[uint32](idx)
	if err != nil {
		panic(err)
	}
	return PathIndex(n)
}

// FromModule numbers the expressions of every function body in visit
// order and maps each one with a real span.
func FromModule(fs *source.FileSet, e ty.Engines, root *ty.Module) *SourceMap {
	m := New()
	var next uint64
	visitFn := func(id decl.ID) {
		fn, ok := decl.As[*ty.FunctionDecl](e.Decls, id)
		if !ok || fn.Body == nil {
			return
		}
		ty.WalkBlock(fn.Body, func(x *ty.Expr) bool {
			m.Insert(fs, next, x.Span)
			next++
			return true
		})
	}
	root.Walk(func(_ *ty.Module, n *ty.Node) {
		switch n.Decl.Kind {
		case decl.KindFunction:
			visitFn(n.Decl.ID)
		case decl.KindImplTrait:
			if impl, ok := decl.As[*ty.ImplTraitDecl](e.Decls, n.Decl.ID); ok {
				for _, id := range impl.Items {
					visitFn(id)
				}
			}
		}
	})
	return m
}

// LineTable maps each file to line -> first instruction on that line.
// Lines are 1-based. Paths the file set does not know are returned in
// missing and left out of the table.
func (m *SourceMap) LineTable(fs *source.FileSet) (table map[string]map[uint32]uint64, missing []string) {
	table = make(map[string]map[uint32]uint64)
	for instruction, ent := range m.Map {
		if int(ent.Path) >= len(m.Paths) {
			continue
		}
		path := m.Paths[ent.Path]
		id, ok := fs.GetLatest(path)
		if !ok {
			if !slices.Contains(missing, path) {
				missing = append(missing, path)
			}
			continue
		}
		start, _, ok := fs.Resolve(source.Span{File: id, Start: ent.Start, End: ent.End})
		if !ok {
			continue
		}
		lines := table[path]
		if lines == nil {
			lines = make(map[uint32]uint64)
			table[path] = lines
		}
		if cur, seen := lines[start.Line]; !seen || instruction < cur {
			lines[start.Line] = instruction
		}
	}
	slices.Sort(missing)
	return table, missing
}
