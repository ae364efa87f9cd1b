package dag

import (
	"slices"

	"fortio.org/safecast"

	"ledgerc/internal/project"
)

type ModuleID uint32

// ModuleIndex numbers module paths. The root module has the empty path and
// therefore always gets id 0 when it is present.
type ModuleIndex struct {
	NameToID map[string]ModuleID
	IDToName []string
}

// BuildIndex numbers every declared or imported path in sorted order.
func BuildIndex(metas []project.ModuleMeta) ModuleIndex {
	var paths []string
	for _, meta := range metas {
		paths = append(paths, meta.Path)
		for _, dep := range meta.Imports {
			if dep.Path != "" {
				paths = append(paths, dep.Path)
			}
		}
	}
	slices.Sort(paths)
	paths = slices.Compact(paths)

	idx := ModuleIndex{NameToID: make(map[string]ModuleID, len(paths)), IDToName: paths}
	for i, path := range paths {
		id, err := safecast.Conv[ModuleID](i)
		if err != nil {
			panic(err)
		}
		idx.NameToID[path] = id
	}
	return idx
}
