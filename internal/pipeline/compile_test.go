package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ledgerc/internal/artifact"
	"ledgerc/internal/config"
	"ledgerc/internal/diag"
	"ledgerc/internal/program"
	"ledgerc/internal/testkit"
)

const goodProgram = `kind: contract
root:
  nodes:
    - storage: {fields: [{name: n, type: u64, init: {lit: 1}}]}
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

const badProgram = `kind: library
root:
  nodes:
    - fn: {name: f, params: [{name: a, type: Nope}], body: []}
`

func writePackage(t *testing.T, name, prog string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := "[package]\nname = \"" + name + "\"\nprogram = \"main.yaml\"\n\n" +
		"[build]\nexperimental = [\"new_encoding\"]\n\n[output]\nartifact = \"out/" + name + ".lgc\"\n"
	if err := os.WriteFile(filepath.Join(dir, "ledger.toml"), []byte(manifest), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.yaml"), []byte(prog), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestCompileUnitsIndependently(t *testing.T) {
	good := writePackage(t, "good", goodProgram)
	bad := writePackage(t, "bad", badProgram)
	units, err := Resolve([]string{good, bad}, config.Overrides{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	sink := &RecordingSink{}
	results, err := Compile(context.Background(), &Request{Units: units, Jobs: 2, Progress: sink, Emit: true})
	if err == nil || !strings.Contains(err.Error(), "bad:") {
		t.Fatalf("joined error = %v", err)
	}
	if results[0].Err != nil || results[0].Program == nil {
		t.Fatalf("good unit: %v", results[0].Err)
	}
	if err := testkit.CheckSpanInvariants(results[0].FileSet, results[0].Engines, results[0].Program.Root); err != nil {
		t.Fatalf("span invariants: %v", err)
	}
	if results[1].Err == nil || !results[1].Handler.HasErrors() {
		t.Fatalf("bad unit must fail with diagnostics")
	}
	if results[1].Handler.Errors()[0].Code != diag.SemaUnknownType {
		t.Fatalf("bad unit code = %v", results[1].Handler.Errors()[0].Code)
	}

	a, err := artifact.Read(filepath.Join(good, "out", "good.lgc"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if a.Package != "good" || len(a.StorageSlots) != 1 || a.Timings == nil {
		t.Fatalf("artifact = %+v", a)
	}
	if _, err := os.Stat(filepath.Join(bad, "out")); !os.IsNotExist(err) {
		t.Fatalf("failed unit must not emit an artifact")
	}

	final := map[string]Status{}
	for _, ev := range sink.Events() {
		if ev.Unit != "" {
			final[ev.Unit] = ev.Status
		}
	}
	if final["good"] != StatusDone || final["bad"] != StatusError {
		t.Fatalf("final statuses = %v", final)
	}
}

func TestCompileRecordsStageTimings(t *testing.T) {
	dir := writePackage(t, "timed", goodProgram)
	units, err := Resolve([]string{dir}, config.Overrides{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	results, err := Compile(context.Background(), &Request{Units: units})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	r := results[0]
	for _, st := range []Stage{StageLoad, StageCheck, StageEntry, StageAnalyze, StageStorage} {
		if !r.Timings.Has(st) {
			t.Fatalf("no timing for %s", st)
		}
	}
	if len(r.Report.Phases) != 6 {
		t.Fatalf("session phases = %d", len(r.Report.Phases))
	}
	if r.Artifact != nil {
		t.Fatalf("artifact emitted without Emit")
	}
}

func TestResolveWithoutManifest(t *testing.T) {
	if _, err := Resolve([]string{t.TempDir()}, config.Overrides{}); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestStageOf(t *testing.T) {
	tests := map[program.Stage]Stage{
		program.Parsed:             StageLoad,
		program.DependencyOrdered:  StageCheck,
		program.ModuleChecked:      StageEntry,
		program.Analyzed:           StageAnalyze,
		program.Finalized:          StageStorage,
		program.StorageInitialized: StageEmit,
	}
	for in, want := range tests {
		if got := StageOf(in); got != want {
			t.Fatalf("StageOf(%s) = %s, want %s", in, got, want)
		}
	}
}
