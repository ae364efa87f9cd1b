package sema

import (
	"fmt"

	"fortio.org/safecast"

	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/namespace"
	"ledgerc/internal/parsed"
	"ledgerc/internal/project"
	"ledgerc/internal/source"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

// ContractEntryPrefix is prepended to ABI method names so the implementation
// is told apart from user code and from the dispatcher that calls it.
const ContractEntryPrefix = "__contract_entry_"

// Checker holds the state shared by the checking stages of one program.
type Checker struct {
	engines ty.Engines
	kind    parsed.TreeType
	prelude *namespace.Module

	root   *moduleScope
	order  []*moduleScope // deps first
	scopes map[*ty.Module]*moduleScope

	fingerprint project.Digest

	storage       []decl.ID
	configurables []decl.ID
	pending       []pendingBody

	// generic struct and enum bodies not resolved yet, by declaration
	unresolved map[decl.ID]func(*diag.Handler)
}

type moduleScope struct {
	path   []string
	parsed *parsed.Module
	typed  *ty.Module
	ns     *namespace.Module
	nodes  []*ty.Node // indexed like parsed.Nodes; nil for items without a node
}

type bodyKind uint8

const (
	bodyFunction bodyKind = iota
	bodyStorage
	bodyConfigurable
)

// pendingBody is a declaration whose signature is known but whose
// expressions are checked in the body phase.
type pendingBody struct {
	kind bodyKind
	ms   *moduleScope
	id   decl.ID
	fn   *parsed.FunctionDecl
	tps  typeParams
	// storage fields and configurable values
	storage *parsed.StorageDecl
	value   *parsed.Expr
	span    source.Span
}

// NewChecker prepares a checker. prelude is the initial namespace with the
// library imports; it becomes the root module's namespace.
func NewChecker(e ty.Engines, kind parsed.TreeType, prelude *namespace.Module) *Checker {
	return &Checker{
		engines: e,
		kind:    kind,
		prelude: prelude,
		scopes:  make(map[*ty.Module]*moduleScope),

		unresolved: make(map[decl.ID]func(*diag.Handler)),
	}
}

func (c *Checker) Engines() ty.Engines { return c.engines }

func (c *Checker) Kind() parsed.TreeType { return c.kind }

// Root returns the typed root module, nil before OrderModules.
func (c *Checker) Root() *ty.Module {
	if c.root == nil {
		return nil
	}
	return c.root.typed
}

// Namespace returns the namespace a typed module was checked in.
func (c *Checker) Namespace(m *ty.Module) (*namespace.Module, bool) {
	ms, ok := c.scopes[m]
	if !ok {
		return nil, false
	}
	return ms.ns, true
}

// Fingerprint is the root module hash combined over the whole submodule
// tree. It is zero before OrderModules.
func (c *Checker) Fingerprint() project.Digest { return c.fingerprint }

// StorageDecls lists storage declarations in checking order.
func (c *Checker) StorageDecls() []decl.ID { return c.storage }

// Configurables lists configurable declarations in checking order.
func (c *Checker) Configurables() []decl.ID { return c.configurables }

func report(h *diag.Handler, code diag.Code, sp source.Span, format string, args ...any) error {
	return h.EmitErr(diag.NewError(code, sp, fmt.Sprintf(format, args...)))
}

func warn(h *diag.Handler, code diag.Code, sp source.Span, format string, args ...any) {
	h.EmitWarn(diag.NewWarning(code, sp, fmt.Sprintf(format, args...)))
}

func (c *Checker) label(id types.TypeID) string {
	return c.engines.DisplayType(id)
}

func convAttrs(in []parsed.Attribute) ty.Attributes {
	if len(in) == 0 {
		return nil
	}
	out := make(ty.Attributes, len(in))
	for i, a := range in {
		out[i] = ty.Attribute{Name: a.Name, Args: a.Args, Span: a.Span}
	}
	return out
}

func convPurity(p parsed.Purity) ty.Purity {
	switch {
	case p.Reads && p.Writes:
		return ty.ReadsWrites
	case p.Writes:
		return ty.Writes
	case p.Reads:
		return ty.Reads
	}
	return ty.Pure
}

func visibility(public bool) ty.Visibility {
	if public {
		return ty.Public
	}
	return ty.Private
}

func index32(i int) uint32 {
	n, err := safecast.Conv[uint32](i)
	if err != nil {
		panic(fmt.Errorf("index overflow: %w", err))
	}
	return n
}

func (ms *moduleScope) callPath(name source.Ident) ty.CallPath {
	return ty.NewCallPath(name, ms.path...)
}
