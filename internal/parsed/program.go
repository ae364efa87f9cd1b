// Package parsed is the untyped input of the semantic core: the tree an
// external parser hands over, plus a YAML interchange loader for it.
package parsed

import (
	"fmt"
	"strings"

	"ledgerc/internal/source"
)

// TreeType is the program kind.
type TreeType uint8

const (
	Script TreeType = iota
	Predicate
	Contract
	Library
)

func (t TreeType) String() string {
	switch t {
	case Script:
		return "script"
	case Predicate:
		return "predicate"
	case Contract:
		return "contract"
	case Library:
		return "library"
	}
	return fmt.Sprintf("TreeType(%d)", t)
}

// ParseTreeType accepts the lowercase program kind.
func ParseTreeType(s string) (TreeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "script":
		return Script, nil
	case "predicate":
		return Predicate, nil
	case "contract":
		return Contract, nil
	case "library":
		return Library, nil
	}
	return 0, fmt.Errorf("unknown program kind %q", s)
}

// Program is a parsed compilation unit.
type Program struct {
	Kind TreeType
	Root *Module
}

// Module holds top-level nodes, nested submodules and the names of the
// sibling submodules it depends on.
type Module struct {
	Name       string
	Nodes      []Node
	Submodules []*Submodule
	Deps       []source.Ident
	Span       source.Span
}

type Submodule struct {
	Name   source.Ident
	Module *Module
}
