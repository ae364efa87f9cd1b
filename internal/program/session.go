// Package program drives one compilation unit from a parse tree to a
// typed program. A Session moves through its stages in a fixed order:
//
//	Parsed -> DependencyOrdered -> ModuleChecked -> [EntrySynthesized]
//	       -> Analyzed -> Finalized -> StorageInitialized
//
// Transitions are one-way. Once a transition fails the session is aborted
// and every later transition returns ErrAborted without doing work.
package program

import (
	"context"
	"errors"
	"fmt"

	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/entry"
	"ledgerc/internal/namespace"
	"ledgerc/internal/observ"
	"ledgerc/internal/parsed"
	"ledgerc/internal/project"
	"ledgerc/internal/sema"
	"ledgerc/internal/storage"
	"ledgerc/internal/trace"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

type Stage uint8

const (
	Parsed Stage = iota
	DependencyOrdered
	ModuleChecked
	EntrySynthesized
	Analyzed
	Finalized
	StorageInitialized
)

var stageNames = [...]string{
	Parsed:             "parsed",
	DependencyOrdered:  "dependency-ordered",
	ModuleChecked:      "module-checked",
	EntrySynthesized:   "entry-synthesized",
	Analyzed:           "analyzed",
	Finalized:          "finalized",
	StorageInitialized: "storage-initialized",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", s)
}

var (
	// ErrAborted is returned by every transition after one failed.
	ErrAborted = errors.New("program: session aborted by an earlier stage")
	// ErrStageOrder is returned for a transition from the wrong stage.
	ErrStageOrder = errors.New("program: stage transition out of order")
)

// Options configures a session.
type Options struct {
	// NewEncoding enables entry synthesis.
	NewEncoding bool
	// Jobs bounds analyze-pass workers; 0 means one per node.
	Jobs int
	// Layout computes storage slots; nil means storage.WordLayout.
	Layout storage.Layout
	// Timer receives one phase per transition when set.
	Timer *observ.Timer
	// OnStage is called after every successful transition.
	OnStage func(Stage)
}

// Session is one compilation unit.
type Session struct {
	h       *diag.Handler
	e       ty.Engines
	prog    *parsed.Program
	checker *sema.Checker
	opts    Options

	stage  Stage
	failed error

	root      *ty.Module
	entry     *entry.Result
	analysis  *sema.Analysis
	finalized *sema.Finalized
	slots     []storage.Slot
}

// NewSession starts a session in the Parsed stage. prelude is the initial
// namespace, normally corelib.Namespace(e).
func NewSession(h *diag.Handler, e ty.Engines, prog *parsed.Program, prelude *namespace.Module, opts Options) *Session {
	if opts.Layout == nil {
		opts.Layout = storage.WordLayout{}
	}
	return &Session{
		h:       h,
		e:       e,
		prog:    prog,
		checker: sema.NewChecker(e, prog.Kind, prelude),
		opts:    opts,
	}
}

func (s *Session) Stage() Stage             { return s.stage }
func (s *Session) Handler() *diag.Handler   { return s.h }
func (s *Session) Engines() ty.Engines      { return s.e }
func (s *Session) Kind() parsed.TreeType    { return s.prog.Kind }
func (s *Session) Checker() *sema.Checker   { return s.checker }
func (s *Session) Analysis() *sema.Analysis { return s.analysis }

// Err is the error that aborted the session, nil while it is healthy.
func (s *Session) Err() error { return s.failed }

func (s *Session) advance(ctx context.Context, to Stage, from []Stage, run func(context.Context) error) error {
	if s.failed != nil {
		return fmt.Errorf("%w: %s", ErrAborted, to)
	}
	ok := false
	for _, f := range from {
		ok = ok || s.stage == f
	}
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrStageOrder, s.stage, to)
	}
	ctx, span := trace.Start(ctx, trace.ScopeStage, to.String())
	idx := -1
	if s.opts.Timer != nil {
		idx = s.opts.Timer.Begin(to.String())
	}
	err := run(ctx)
	note := ""
	if err != nil {
		note = "failed"
	}
	if s.opts.Timer != nil {
		s.opts.Timer.End(idx, note)
	}
	span.End(note)
	if err != nil {
		s.failed = err
		return err
	}
	s.stage = to
	if s.opts.OnStage != nil {
		s.opts.OnStage(to)
	}
	return nil
}

// OrderDependencies builds the module skeleton and the order submodules
// are checked in. A dependency cycle is fatal.
func (s *Session) OrderDependencies(ctx context.Context) error {
	return s.advance(ctx, DependencyOrdered, []Stage{Parsed}, func(ctx context.Context) error {
		return s.checker.OrderModules(ctx, s.h, s.prog)
	})
}

// CheckModules type-checks every module and validates the root against
// the program kind.
func (s *Session) CheckModules(ctx context.Context) error {
	return s.advance(ctx, ModuleChecked, []Stage{DependencyOrdered}, func(ctx context.Context) error {
		root, err := s.checker.CheckModules(ctx, s.h)
		s.root = root
		if err != nil {
			return err
		}
		return s.checker.ValidateRoot(s.h, root)
	})
}

// SynthesizeEntry appends the program entry. Skipping this stage is the
// same as running it with NewEncoding off.
func (s *Session) SynthesizeEntry(ctx context.Context) error {
	return s.advance(ctx, EntrySynthesized, []Stage{ModuleChecked}, func(ctx context.Context) error {
		res, err := entry.Synthesize(ctx, s.h, s.checker, s.root, entry.Options{NewEncoding: s.opts.NewEncoding})
		s.entry = res
		return err
	})
}

// Analyze runs the read-only pass.
func (s *Session) Analyze(ctx context.Context) error {
	return s.advance(ctx, Analyzed, []Stage{ModuleChecked, EntrySynthesized}, func(ctx context.Context) error {
		a, err := sema.Analyze(ctx, s.h, s.e, s.root, s.opts.Jobs)
		s.analysis = a
		return err
	})
}

// Finalize runs the mutating pass. Every node is finalized even when an
// earlier one fails; the transition fails if any did.
func (s *Session) Finalize(ctx context.Context) error {
	return s.advance(ctx, Finalized, []Stage{Analyzed}, func(ctx context.Context) error {
		f, err := sema.Finalize(ctx, s.h, s.e, s.root)
		s.finalized = f
		return err
	})
}

// InitializeStorage computes the sorted initial storage slots.
func (s *Session) InitializeStorage(ctx context.Context) error {
	return s.advance(ctx, StorageInitialized, []Stage{Finalized}, func(context.Context) error {
		slots, err := storage.InitializeSlots(s.h, s.e, s.prog.Kind, s.checker.StorageDecls(), s.opts.Layout)
		s.slots = slots
		return err
	})
}

// Run performs every remaining transition and returns the program.
func (s *Session) Run(ctx context.Context) (*TypedProgram, error) {
	ctx, span := trace.Start(ctx, trace.ScopeSession, "session")
	defer span.End("")

	steps := []struct {
		at  Stage
		run func(context.Context) error
	}{
		{Parsed, s.OrderDependencies},
		{DependencyOrdered, s.CheckModules},
		{ModuleChecked, s.SynthesizeEntry},
		{EntrySynthesized, s.Analyze},
		{Analyzed, s.Finalize},
		{Finalized, s.InitializeStorage},
	}
	for _, step := range steps {
		if s.stage > step.at {
			continue
		}
		if err := step.run(ctx); err != nil {
			return nil, err
		}
	}
	return s.Program()
}

// Program returns the finished program. It fails before
// StorageInitialized.
func (s *Session) Program() (*TypedProgram, error) {
	if s.failed != nil {
		return nil, fmt.Errorf("%w: %w", ErrAborted, s.failed)
	}
	if s.stage != StorageInitialized {
		return nil, fmt.Errorf("%w: program requested at %s", ErrStageOrder, s.stage)
	}
	p := &TypedProgram{
		Kind:          s.prog.Kind,
		Root:          s.root,
		Configurables: s.checker.Configurables(),
		StorageSlots:  s.slots,
		Fingerprint:   s.checker.Fingerprint(),
	}
	for _, n := range s.root.Nodes {
		p.Declarations = append(p.Declarations, n.Decl.ID)
	}
	if ids := s.checker.StorageDecls(); len(ids) == 1 {
		p.Storage = ids[0]
	}
	if s.entry != nil {
		p.Entry = s.entry.ID
		p.Dispatch = s.entry.Dispatch
	}
	if s.finalized != nil {
		p.LoggedTypes = s.finalized.LoggedTypes
		p.MessageTypes = s.finalized.MessageTypes
	}
	return p, nil
}

// TypedProgram is what the semantic core hands to lowering.
type TypedProgram struct {
	Kind parsed.TreeType
	Root *ty.Module
	// Declarations are the root module's top-level declarations.
	Declarations  []decl.ID
	Configurables []decl.ID
	// Entry is the synthesized entry function, decl.NoID when none.
	Entry    decl.ID
	Dispatch []entry.Method
	// Storage is the contract's storage declaration, decl.NoID when none.
	Storage      decl.ID
	StorageSlots []storage.Slot
	LoggedTypes  []types.TypeID
	MessageTypes []types.TypeID
	// Fingerprint changes whenever any module's declarations or submodule
	// structure change.
	Fingerprint project.Digest
}
