package dag

import (
	"fmt"
	"slices"
	"strings"

	"ledgerc/internal/diag"
	"ledgerc/internal/project"
	"ledgerc/internal/source"
)

type Graph struct {
	Edges   [][]ModuleID // Edges[from] = deps of from
	Indeg   []int        // in-degree over present modules, for Kahn
	Present []bool       // declared, not merely referenced
}

// NewGraph returns an empty graph over n nodes, all present. It is the entry
// point for graphs that are not module graphs (the call graph in sema).
func NewGraph(n int) Graph {
	g := Graph{
		Edges:   make([][]ModuleID, n),
		Indeg:   make([]int, n),
		Present: make([]bool, n),
	}
	for i := range g.Present {
		g.Present[i] = true
	}
	return g
}

// AddEdge records from -> to once.
func (g *Graph) AddEdge(from, to ModuleID) {
	if slices.Contains(g.Edges[int(from)], to) {
		return
	}
	g.Edges[int(from)] = append(g.Edges[int(from)], to)
	if g.Present[int(to)] {
		g.Indeg[int(to)]++
	}
}

type ModuleNode struct {
	Meta     project.ModuleMeta
	Reporter diag.Reporter
}

type ModuleSlot struct {
	Meta     project.ModuleMeta
	Reporter diag.Reporter
	Present  bool
}

func BuildGraph(idx ModuleIndex, nodes []ModuleNode) (Graph, []ModuleSlot) {
	nodeCount := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]ModuleID, nodeCount),
		Indeg:   make([]int, nodeCount),
		Present: make([]bool, nodeCount),
	}
	slots := make([]ModuleSlot, nodeCount)
	for i, name := range idx.IDToName {
		slots[i].Meta.Path = name
	}

	for _, node := range nodes {
		meta := node.Meta
		id, ok := idx.NameToID[meta.Path]
		if !ok {
			continue
		}
		slot := &slots[int(id)]
		if slot.Present {
			if node.Reporter != nil {
				var notes []diag.Note
				if !slot.Meta.Span.IsSynthetic() {
					notes = append(notes, diag.Note{
						Span: slot.Meta.Span,
						Msg:  fmt.Sprintf("previous declaration of %q", slot.Meta.Path),
					})
				}
				node.Reporter.Report(diag.ProjDuplicateModule, diag.SevError, meta.Span,
					fmt.Sprintf("duplicate submodule %q", meta.Path), notes)
			}
			continue
		}
		slot.Meta = meta
		slot.Reporter = node.Reporter
		slot.Present = true
		g.Present[int(id)] = true
	}

	for from := range slots {
		slot := &slots[from]
		if !slot.Present || len(slot.Meta.Imports) == 0 {
			continue
		}
		seen := make(map[ModuleID]struct{}, len(slot.Meta.Imports))
		for _, dep := range slot.Meta.Imports {
			toID, ok := idx.NameToID[dep.Path]
			if !ok || dep.Path == "" {
				continue
			}
			if ModuleID(from) == toID { //nolint:gosec // from < len(slots)
				if slot.Reporter != nil {
					slot.Reporter.Report(diag.ProjSelfDependency, diag.SevError, dep.Span,
						fmt.Sprintf("submodule %q depends on itself", slot.Meta.Path), nil)
				}
				continue
			}
			if _, dup := seen[toID]; dup {
				continue
			}
			seen[toID] = struct{}{}

			if !g.Present[int(toID)] {
				if slot.Reporter != nil {
					slot.Reporter.Report(diag.ProjUnknownSubmodule, diag.SevError, dep.Span,
						fmt.Sprintf("submodule %q depends on unknown submodule %q", slot.Meta.Path, dep.Path), nil)
				}
				continue
			}
			g.Edges[from] = append(g.Edges[from], toID)
			g.Indeg[int(toID)]++
		}
		if len(g.Edges[from]) > 1 {
			slices.Sort(g.Edges[from])
		}
	}

	return g, slots
}

// ReportCycles reports every strongly connected component of more than one
// module once, on each member.
func ReportCycles(idx ModuleIndex, slots []ModuleSlot, g Graph) bool {
	found := false
	for _, comp := range StronglyConnected(g) {
		if len(comp) < 2 {
			continue
		}
		found = true
		names := make([]string, 0, len(comp)+1)
		for _, id := range comp {
			names = append(names, idx.IDToName[int(id)])
		}
		names = append(names, names[0])
		summary := strings.Join(names, " -> ")
		for _, id := range comp {
			slot := slots[int(id)]
			if !slot.Present || slot.Reporter == nil {
				continue
			}
			msg := fmt.Sprintf("submodule %q participates in a dependency cycle: %s", slot.Meta.Path, summary)
			slot.Reporter.Report(diag.ProjDependencyCycle, diag.SevError, slot.Meta.Span, msg, nil)
		}
	}
	return found
}

// SpanOf returns the declaration span recorded for id.
func SpanOf(slots []ModuleSlot, id ModuleID) source.Span {
	return slots[int(id)].Meta.Span
}
