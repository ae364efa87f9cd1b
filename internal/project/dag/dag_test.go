package dag

import (
	"testing"

	"ledgerc/internal/diag"
	"ledgerc/internal/project"
	"ledgerc/internal/source"
)

func idsToNames(idx ModuleIndex, ids []ModuleID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[int(id)]
	}
	return out
}

func sameNames(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func deps(paths ...string) []project.ImportMeta {
	out := make([]project.ImportMeta, len(paths))
	for i, p := range paths {
		out[i] = project.ImportMeta{Path: p, Span: source.Span{File: 1, Start: uint32(i), End: uint32(i + 1)}}
	}
	return out
}

func TestBuildIndexIncludesImports(t *testing.T) {
	metas := []project.ModuleMeta{
		{Path: "", Imports: deps("lib")},
		{Path: "lib", Imports: deps("lib::math")},
	}
	idx := BuildIndex(metas)
	want := []string{"", "lib", "lib::math"}
	if !sameNames(idx.IDToName, want) {
		t.Fatalf("IDToName = %q, want %q", idx.IDToName, want)
	}
}

func TestBuildGraphReportsUnknownAndSelf(t *testing.T) {
	bag := diag.NewBag(10)
	rep := diag.BagReporter{Bag: bag}
	metas := []project.ModuleMeta{
		{Path: "a", Imports: deps("a", "missing")},
	}
	idx := BuildIndex(metas)
	graph, _ := BuildGraph(idx, []ModuleNode{{Meta: metas[0], Reporter: rep}})

	if len(graph.Edges[int(idx.NameToID["a"])]) != 0 {
		t.Fatalf("no edges expected, got %v", graph.Edges)
	}
	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", bag.Len())
	}
	if bag.Items()[0].Code != diag.ProjSelfDependency || bag.Items()[1].Code != diag.ProjUnknownSubmodule {
		t.Fatalf("unexpected codes: %v, %v", bag.Items()[0].Code, bag.Items()[1].Code)
	}
}

func TestBuildGraphDuplicateModules(t *testing.T) {
	spanA := source.Span{File: 1, Start: 0, End: 5}
	spanB := source.Span{File: 1, Start: 9, End: 14}
	metaA := project.ModuleMeta{Path: "dup", Span: spanA}
	metaB := project.ModuleMeta{Path: "dup", Span: spanB}

	bagA, bagB := diag.NewBag(10), diag.NewBag(10)
	idx := BuildIndex([]project.ModuleMeta{metaA, metaB})
	_, slots := BuildGraph(idx, []ModuleNode{
		{Meta: metaA, Reporter: diag.BagReporter{Bag: bagA}},
		{Meta: metaB, Reporter: diag.BagReporter{Bag: bagB}},
	})

	if bagA.Len() != 0 || bagB.Len() != 1 {
		t.Fatalf("diagnostics: first=%d second=%d", bagA.Len(), bagB.Len())
	}
	if got := bagB.Items()[0]; got.Code != diag.ProjDuplicateModule || len(got.Notes) != 1 {
		t.Fatalf("unexpected duplicate diagnostic %+v", got)
	}
	if SpanOf(slots, idx.NameToID["dup"]) != spanA {
		t.Fatalf("slot must keep the first declaration")
	}
}

func TestDepsFirstOrder(t *testing.T) {
	metas := []project.ModuleMeta{
		{Path: "", Imports: deps("app")},
		{Path: "app", Imports: deps("math", "util")},
		{Path: "math", Imports: deps("util")},
		{Path: "util"},
		{Path: "zeta"},
	}
	nodes := make([]ModuleNode, len(metas))
	for i, m := range metas {
		nodes[i] = ModuleNode{Meta: m}
	}
	idx := BuildIndex(metas)
	graph, _ := BuildGraph(idx, nodes)
	topo := ToposortKahn(graph)
	if topo.Cyclic {
		t.Fatalf("expected acyclic graph")
	}
	got := idsToNames(idx, topo.DepsFirst())
	want := []string{"util", "math", "app", "", "zeta"}
	if !sameNames(got, want) {
		t.Fatalf("DepsFirst = %q, want %q", got, want)
	}
}

func TestReportCycles(t *testing.T) {
	bag := diag.NewBag(10)
	rep := diag.BagReporter{Bag: bag}
	metas := []project.ModuleMeta{
		{Path: "a", Imports: deps("b")},
		{Path: "b", Imports: deps("a")},
		{Path: "c", Imports: deps("a")},
	}
	nodes := make([]ModuleNode, len(metas))
	for i, m := range metas {
		nodes[i] = ModuleNode{Meta: m, Reporter: rep}
	}
	idx := BuildIndex(metas)
	graph, slots := BuildGraph(idx, nodes)

	topo := ToposortKahn(graph)
	if !topo.Cyclic {
		t.Fatalf("expected a cycle")
	}
	if !ReportCycles(idx, slots, graph) {
		t.Fatalf("ReportCycles found nothing")
	}
	if bag.Len() != 2 {
		t.Fatalf("only cycle members are reported, got %d diagnostics", bag.Len())
	}
	for _, d := range bag.Items() {
		if d.Code != diag.ProjDependencyCycle {
			t.Fatalf("unexpected code %v", d.Code)
		}
	}
}

func TestStronglyConnectedOnCallGraph(t *testing.T) {
	g := NewGraph(4)
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	g.AddEdge(2, 1)
	g.AddEdge(3, 3)
	g.AddEdge(3, 3)

	comps := StronglyConnected(g)
	if len(comps) != 3 {
		t.Fatalf("expected 3 components, got %v", comps)
	}
	if len(comps[1]) != 2 || comps[1][0] != 1 || comps[1][1] != 2 {
		t.Fatalf("expected {1,2} component, got %v", comps[1])
	}
	if !g.SelfLoop(3) || g.SelfLoop(0) {
		t.Fatalf("SelfLoop mismatch")
	}
	if len(g.Edges[3]) != 1 {
		t.Fatalf("AddEdge must dedupe, got %v", g.Edges[3])
	}
}
