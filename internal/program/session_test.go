package program

import (
	"context"
	"errors"
	"slices"
	"testing"

	"ledgerc/internal/corelib"
	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/observ"
	"ledgerc/internal/parsed"
	"ledgerc/internal/source"
	"ledgerc/internal/storage"
	"ledgerc/internal/ty"
)

func newSession(t *testing.T, src string, opts Options) *Session {
	t.Helper()
	prog, err := parsed.LoadYAML(source.NewFileSet(), "session.yaml", []byte(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	e := ty.NewEngines()
	ns, err := corelib.Namespace(e)
	if err != nil {
		t.Fatalf("prelude: %v", err)
	}
	return NewSession(diag.NewHandler(50), e, prog, ns, opts)
}

const counterContract = `kind: contract
root:
  nodes:
    - storage: {fields: [{name: n, type: u64, init: {lit: 7}}]}
    - abi:
        name: Counter
        methods:
          - {name: get, returns: u64, storage: [read]}
    - impl:
        trait: Counter
        for: Contract
        items:
          - {name: get, returns: u64, storage: [read], body: [{tail: {storage_read: n}}]}
`

const pairScript = `kind: script
root:
  nodes:
    - fn:
        name: main
        params: [{name: a, type: u64}]
        returns: u64
        body:
          - call: {name: __log, args: [{var: a}]}
          - tail: {var: a}
`

func TestRunContract(t *testing.T) {
	var seen []Stage
	timer := observ.NewTimer()
	s := newSession(t, counterContract, Options{
		NewEncoding: true,
		Timer:       timer,
		OnStage:     func(st Stage) { seen = append(seen, st) },
	})
	p, err := s.Run(context.Background())
	if err != nil {
		for _, d := range s.Handler().Diagnostics() {
			t.Logf("%s", d.Error())
		}
		t.Fatalf("run: %v", err)
	}
	want := []Stage{DependencyOrdered, ModuleChecked, EntrySynthesized, Analyzed, Finalized, StorageInitialized}
	if !slices.Equal(seen, want) {
		t.Fatalf("stages = %v, want %v", seen, want)
	}
	if len(timer.Report().Phases) != len(want) {
		t.Fatalf("timer phases = %d", len(timer.Report().Phases))
	}
	if p.Entry == decl.NoID || len(p.Dispatch) != 1 || p.Dispatch[0].Name != "get" {
		t.Fatalf("entry = %v dispatch = %v", p.Entry, p.Dispatch)
	}
	if len(p.StorageSlots) != 1 || p.StorageSlots[0].Key != storage.FieldKey(0) || p.StorageSlots[0].Value[7] != 7 {
		t.Fatalf("slots = %v", p.StorageSlots)
	}
	if sd, ok := decl.As[*ty.StorageDecl](s.Engines().Decls, p.Storage); !ok || len(sd.Slots) != 1 {
		t.Fatalf("storage decl %v does not carry its slots", p.Storage)
	}
	if !slices.Contains(p.Declarations, p.Entry) {
		t.Fatalf("entry must be a root declaration")
	}
}

func TestRunWithoutNewEncoding(t *testing.T) {
	s := newSession(t, pairScript, Options{})
	p, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if p.Entry != decl.NoID || p.Storage != decl.NoID || len(p.StorageSlots) != 0 {
		t.Fatalf("entry = %v slots = %v", p.Entry, p.StorageSlots)
	}
	if len(p.LoggedTypes) != 1 {
		t.Fatalf("logged types = %v", p.LoggedTypes)
	}
}

func TestEntrySynthesisIsOptional(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, pairScript, Options{NewEncoding: true})
	steps := []func(context.Context) error{s.OrderDependencies, s.CheckModules, s.Analyze, s.Finalize, s.InitializeStorage}
	for i, step := range steps {
		if err := step(ctx); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	p, err := s.Program()
	if err != nil || p.Entry != decl.NoID {
		t.Fatalf("program = %v, %v", p, err)
	}
}

func TestStageOrder(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, pairScript, Options{})
	if err := s.Analyze(ctx); !errors.Is(err, ErrStageOrder) {
		t.Fatalf("analyze from parsed: %v", err)
	}
	if s.Stage() != Parsed || s.Err() != nil {
		t.Fatalf("an out of order call must not change the session")
	}
	if _, err := s.Program(); !errors.Is(err, ErrStageOrder) {
		t.Fatalf("program before the last stage: %v", err)
	}
	if err := s.OrderDependencies(ctx); err != nil {
		t.Fatalf("order: %v", err)
	}
	if err := s.OrderDependencies(ctx); !errors.Is(err, ErrStageOrder) {
		t.Fatalf("transitions are one-way: %v", err)
	}
}

func TestFailureAbortsLaterStages(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, `kind: library
root:
  nodes:
    - fn: {name: f, params: [{name: a, type: Nope}], body: []}
`, Options{})
	if err := s.OrderDependencies(ctx); err != nil {
		t.Fatalf("order: %v", err)
	}
	if err := s.CheckModules(ctx); !errors.Is(err, diag.ErrEmitted) {
		t.Fatalf("check: %v", err)
	}
	if s.Stage() != DependencyOrdered {
		t.Fatalf("stage = %s", s.Stage())
	}
	for _, step := range []func(context.Context) error{s.SynthesizeEntry, s.Analyze, s.Finalize, s.InitializeStorage} {
		if err := step(ctx); !errors.Is(err, ErrAborted) {
			t.Fatalf("got %v, want ErrAborted", err)
		}
	}
	if _, err := s.Run(ctx); !errors.Is(err, ErrAborted) {
		t.Fatalf("run: %v", err)
	}
	if !s.Handler().HasErrors() {
		t.Fatalf("the failing stage must leave a diagnostic")
	}
}

type brokenLayout struct{}

func (brokenLayout) Slots(ty.Engines, *ty.StorageDecl) ([]storage.Slot, error) {
	return nil, errors.New("no room")
}

func TestStorageLayoutFailure(t *testing.T) {
	s := newSession(t, counterContract, Options{NewEncoding: true, Layout: brokenLayout{}})
	if _, err := s.Run(context.Background()); !errors.Is(err, diag.ErrEmitted) {
		t.Fatalf("run: %v", err)
	}
	if s.Stage() != Finalized {
		t.Fatalf("stage = %s", s.Stage())
	}
	if got := s.Handler().Errors()[0].Code; got != diag.StorageLayoutFailure {
		t.Fatalf("code = %v", got)
	}
}

func TestStageString(t *testing.T) {
	if StorageInitialized.String() != "storage-initialized" || Stage(42).String() != "Stage(42)" {
		t.Fatalf("unexpected names")
	}
}
