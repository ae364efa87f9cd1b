package project

import (
	"strings"
	"unicode"

	"ledgerc/internal/source"
)

// PathSep joins submodule names into a module path: "lib::math".
const PathSep = "::"

type ImportMeta struct {
	Path string
	Span source.Span
}

// ModuleMeta is what the dependency graph needs to know about one module of
// a program: its path, where it was declared and the sibling submodules it
// depends on.
type ModuleMeta struct {
	Path    string
	Span    source.Span
	Imports []ImportMeta
	// ContentHash covers the module alone; Combine folds in its deps.
	ContentHash Digest
}

func IsValidModuleIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// JoinPath appends name to a module path. The root module has the empty path.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + PathSep + name
}

// ParentPath returns the path of the module that declares path.
func ParentPath(path string) string {
	if i := strings.LastIndex(path, PathSep); i >= 0 {
		return path[:i]
	}
	return ""
}
