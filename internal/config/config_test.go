package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const manifest = `[package]
name = "counter"
program = "src/main.yaml"

[build]
experimental = ["new_encoding"]
max_diagnostics = 20

[output]
artifact = "out/counter.lgc"
`

func TestFindLoadsFromSubdirectory(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "ledger.toml"), []byte(manifest), 0o600); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	m, ok, err := Find(sub)
	if err != nil || !ok {
		t.Fatalf("find: %v %v", ok, err)
	}
	bc, err := m.BuildConfig(Overrides{})
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	if bc.Package != "counter" || !bc.Experimental.NewEncoding || bc.MaxDiagnostics != 20 {
		t.Fatalf("config = %+v", bc)
	}
	if bc.Program != filepath.Join(m.Root, "src", "main.yaml") || bc.Artifact != filepath.Join(m.Root, "out", "counter.lgc") {
		t.Fatalf("paths = %q %q", bc.Program, bc.Artifact)
	}
}

func TestFindWithoutManifest(t *testing.T) {
	_, ok, err := Find(t.TempDir())
	if err != nil || ok {
		t.Fatalf("got ok=%v err=%v", ok, err)
	}
}

func TestOverrides(t *testing.T) {
	m, err := Parse("/p/ledger.toml", "[package]\nname = \"p\"\nprogram = \"main.yaml\"\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bc, err := m.BuildConfig(Overrides{})
	if err != nil || bc.Experimental.NewEncoding || bc.MaxDiagnostics != DefaultMaxDiagnostics {
		t.Fatalf("defaults = %+v %v", bc, err)
	}
	bc, err = m.BuildConfig(Overrides{Experimental: []string{FeatureNewEncoding}, Jobs: 4, MaxDiagnostics: 3, Artifact: "x.lgc"})
	wantArtifact, _ := filepath.Abs("x.lgc")
	if err != nil || !bc.Experimental.NewEncoding || bc.Jobs != 4 || bc.MaxDiagnostics != 3 || bc.Artifact != wantArtifact {
		t.Fatalf("overridden = %+v %v", bc, err)
	}
	if _, err := m.BuildConfig(Overrides{Experimental: []string{"warp"}}); err == nil {
		t.Fatalf("unknown feature must fail")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name, doc, want string
	}{
		{"no package", "[build]\njobs = 1\n", "missing [package]"},
		{"no name", "[package]\nprogram = \"a\"\n", "missing [package].name"},
		{"bad name", "[package]\nname = \"1x\"\nprogram = \"a\"\n", "invalid [package].name"},
		{"no program", "[package]\nname = \"x\"\n", "missing [package].program"},
		{"unknown key", "[package]\nname = \"x\"\nprogram = \"a\"\nversion = 2\n", "unknown key"},
		{"unknown feature", "[package]\nname = \"x\"\nprogram = \"a\"\n[build]\nexperimental = [\"warp\"]\n", "unknown experimental feature"},
		{"negative jobs", "[package]\nname = \"x\"\nprogram = \"a\"\n[build]\njobs = -1\n", "jobs must not be negative"},
		{"broken toml", "[package\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("ledger.toml", tt.doc)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want %q", err, tt.want)
			}
		})
	}
}
