package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

const counterProgram = `kind: contract
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

const brokenProgram = `kind: library
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
	manifest := "[package]\nname = \"" + name + "\"\nprogram = \"main.yaml\"\n"
	if err := os.WriteFile(filepath.Join(dir, "ledger.toml"), []byte(manifest), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.yaml"), []byte(prog), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	base := []string{"--ui=off", "--color=off", "--timings=false", "--max-diagnostics=0"}
	rootCmd.SetArgs(append(base, args...))
	resetFlags()
	err := rootCmd.ExecuteContext(context.Background())
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}
	return out.String(), err
}

// resetFlags restores subcommand flags between runs of the shared root.
func resetFlags() {
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
}

func TestSlotsCommand(t *testing.T) {
	dir := writePackage(t, "counter", counterProgram)
	out, err := execute(t, "slots", "--format=pretty", dir)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) != 2 || len(fields[0]) != 64 || fields[1][14:16] != "07" {
		t.Fatalf("unexpected slots output %q", out)
	}
}

func TestCheckReportsDiagnostics(t *testing.T) {
	dir := writePackage(t, "broken", brokenProgram)
	out, err := execute(t, "check", "--format=pretty", dir)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("check error = %v", err)
	}
	if !strings.Contains(out, "ERROR") {
		t.Fatalf("diagnostics missing from output %q", out)
	}
}

func TestBuildThenInspect(t *testing.T) {
	dir := writePackage(t, "counter", counterProgram)
	path := filepath.Join(t.TempDir(), "counter.lgc")
	if _, err := execute(t, "build", "--format=pretty", "--experimental=new_encoding", "-o", path, dir); err != nil {
		t.Fatalf("build: %v", err)
	}
	out, err := execute(t, "inspect", path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"package:  counter (contract)", "method:   get", "slot:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in      string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeAuto, false},
		{"AUTO", uiModeAuto, false},
		{"on", uiModeOn, false},
		{" off ", uiModeOff, false},
		{"maybe", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("readUIMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

const pickScript = `kind: script
root:
  nodes:
    - fn:
        name: main
        params: [{name: a, type: u64}, {name: b, type: bool}]
        returns: u64
        body:
          - tail: {if: {cond: {var: b}, then: [{tail: {var: a}}], else: [{tail: {lit: 0}}]}}
`

func TestCallCommand(t *testing.T) {
	counter := writePackage(t, "counter", counterProgram)
	pick := writePackage(t, "pick", pickScript)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"contract method", []string{counter, "get"}, "returned 0000000000000007"},
		{"script args", []string{pick, "--arg", "9", "--arg", "true"}, "returned 0000000000000009"},
		{"script data", []string{pick, "--data", "0x000000000000000901"}, "value u64 = 9"},
		{"script false", []string{pick, "--arg", "9", "--arg", "false"}, "value u64 = 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"call", "--format=pretty"}, tt.args...)...)
			if err != nil {
				t.Fatalf("call: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Fatalf("call output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestCallCommandErrors(t *testing.T) {
	counter := writePackage(t, "counter", counterProgram)
	pick := writePackage(t, "pick", pickScript)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing method", []string{counter}, "needs a method"},
		{"unknown method", []string{counter, "put"}, `unknown method "put"`},
		{"arity", []string{pick, "--arg", "9"}, "want 2 arguments"},
		{"exclusive", []string{pick, "--arg", "9", "--data", "00"}, "exclusive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"call", "--format=pretty"}, tt.args...)...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
