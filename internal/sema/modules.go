package sema

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"ledgerc/internal/diag"
	"ledgerc/internal/namespace"
	"ledgerc/internal/parsed"
	"ledgerc/internal/project"
	"ledgerc/internal/project/dag"
	"ledgerc/internal/source"
	"ledgerc/internal/trace"
	"ledgerc/internal/ty"
)

// OrderModules builds the typed module skeleton and namespace tree for
// prog and computes the order modules are checked in: every submodule
// after the sibling submodules it depends on, and every module after its
// own submodules. Unknown deps and cycles are fatal.
func (c *Checker) OrderModules(ctx context.Context, h *diag.Handler, prog *parsed.Program) error {
	_, span := trace.Start(ctx, trace.ScopeStage, "order-modules")
	defer span.End("")

	if prog == nil || prog.Root == nil {
		return report(h, diag.ProjInfo, source.NoSpan, "program has no root module")
	}

	byPath := make(map[string]*moduleScope)
	var metas []project.ModuleMeta
	var nodes []dag.ModuleNode

	var visit func(pm *parsed.Module, path []string, ns *namespace.Module) *moduleScope
	visit = func(pm *parsed.Module, path []string, ns *namespace.Module) *moduleScope {
		ms := &moduleScope{
			path:   path,
			parsed: pm,
			typed:  &ty.Module{Name: pm.Name, Span: pm.Span},
			ns:     ns,
			nodes:  make([]*ty.Node, len(pm.Nodes)),
		}
		key := strings.Join(path, project.PathSep)
		byPath[key] = ms
		c.scopes[ms.typed] = ms

		meta := project.ModuleMeta{Path: key, Span: pm.Span, ContentHash: contentHash(key, pm)}
		parent := project.ParentPath(key)
		for _, dep := range pm.Deps {
			meta.Imports = append(meta.Imports, project.ImportMeta{
				Path: project.JoinPath(parent, dep.Name),
				Span: dep.Span,
			})
		}
		for _, sub := range pm.Submodules {
			meta.Imports = append(meta.Imports, project.ImportMeta{
				Path: project.JoinPath(key, sub.Name.Name),
				Span: sub.Name.Span,
			})
		}
		metas = append(metas, meta)
		nodes = append(nodes, dag.ModuleNode{Meta: meta, Reporter: h})

		for _, sub := range pm.Submodules {
			if sub.Module == nil {
				continue
			}
			if sub.Module.Name == "" {
				sub.Module.Name = sub.Name.Name
			}
			childNS, err := ns.Child(sub.Name.Name)
			if err != nil {
				// BuildGraph reports the duplicate against the second module
				meta := project.ModuleMeta{Path: project.JoinPath(key, sub.Name.Name), Span: sub.Name.Span}
				nodes = append(nodes, dag.ModuleNode{Meta: meta, Reporter: h})
				continue
			}
			childPath := append(append([]string(nil), path...), sub.Name.Name)
			child := visit(sub.Module, childPath, childNS)
			ms.typed.Submodules = append(ms.typed.Submodules, ty.Submodule{Name: sub.Name.Name, Module: child.typed})
		}
		return ms
	}
	c.root = visit(prog.Root, nil, c.prelude)

	idx := dag.BuildIndex(metas)
	graph, slots := dag.BuildGraph(idx, nodes)
	if dag.ReportCycles(idx, slots, graph) {
		return diag.ErrEmitted
	}
	if h.HasErrors() {
		return diag.ErrEmitted
	}
	topo := dag.ToposortKahn(graph)
	if topo.Cyclic {
		return report(h, diag.ProjDependencyCycle, prog.Root.Span, "submodule graph is cyclic")
	}

	// sibling deps are visible unqualified
	for _, ms := range byPath {
		parent := project.ParentPath(strings.Join(ms.path, project.PathSep))
		for _, dep := range ms.parsed.Deps {
			if target, ok := byPath[project.JoinPath(parent, dep.Name)]; ok && len(ms.path) > 0 {
				ms.ns.Import(target.ns)
			}
		}
	}

	content := make(map[string]project.Digest, len(metas))
	for _, meta := range metas {
		content[meta.Path] = meta.ContentHash
	}
	hashes := make([]project.Digest, len(idx.IDToName))
	c.order = c.order[:0]
	for _, id := range topo.DepsFirst() {
		name := idx.IDToName[int(id)]
		deps := slices.Clone(graph.Edges[int(id)])
		slices.SortFunc(deps, func(a, b dag.ModuleID) int {
			return strings.Compare(idx.IDToName[int(a)], idx.IDToName[int(b)])
		})
		depHashes := make([]project.Digest, len(deps))
		for i, dep := range deps {
			depHashes[i] = hashes[int(dep)]
		}
		hashes[int(id)] = project.Combine(content[name], depHashes...)
		if ms, ok := byPath[name]; ok {
			c.order = append(c.order, ms)
		}
	}
	if rootID, ok := idx.NameToID[""]; ok {
		c.fingerprint = hashes[int(rootID)]
	}
	span.WithExtra("modules", strconv.Itoa(len(c.order)))
	return nil
}

// contentHash digests what a module declares: its path and the kind and
// position of every node.
func contentHash(key string, pm *parsed.Module) project.Digest {
	var b strings.Builder
	b.WriteString(key)
	for _, n := range pm.Nodes {
		fmt.Fprintf(&b, "|%s@%d:%d-%d", n.Kind, n.Span.File, n.Span.Start, n.Span.End)
	}
	for _, dep := range pm.Deps {
		b.WriteString("|dep:")
		b.WriteString(dep.Name)
	}
	return project.HashString(b.String())
}

// ErrNotOrdered is returned by stages that need OrderModules first.
var ErrNotOrdered = errors.New("sema: modules are not ordered")
