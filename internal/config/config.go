// Package config loads ledger.toml, the package manifest.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"ledgerc/internal/project"
)

const (
	// ManifestName is the file that marks a package root.
	ManifestName = "ledger.toml"

	// FeatureNewEncoding turns on entry synthesis.
	FeatureNewEncoding = "new_encoding"

	DefaultMaxDiagnostics = 100
)

var knownFeatures = []string{FeatureNewEncoding}

// Manifest is a loaded ledger.toml.
type Manifest struct {
	Path   string
	Root   string
	Config File
}

// File mirrors the TOML document.
type File struct {
	Package PackageSection `toml:"package"`
	Build   BuildSection   `toml:"build"`
	Output  OutputSection  `toml:"output"`
}

type PackageSection struct {
	Name    string `toml:"name"`
	Program string `toml:"program"`
}

type BuildSection struct {
	Experimental   []string `toml:"experimental"`
	MaxDiagnostics int      `toml:"max_diagnostics"`
	Jobs           int      `toml:"jobs"`
}

type OutputSection struct {
	Artifact string `toml:"artifact"`
}

// Experimental are opt-in compiler features.
type Experimental struct {
	NewEncoding bool
}

// BuildConfig is what one compilation needs from the manifest, after
// command line overrides.
type BuildConfig struct {
	Package        string
	Program        string // absolute path of the parse tree
	Artifact       string // absolute path, empty when not configured
	Experimental   Experimental
	MaxDiagnostics int
	Jobs           int
}

// Find locates ledger.toml upward from startDir and loads it. ok is false
// when there is no manifest.
func Find(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err = Load(path)
	return m, true, err
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		info, err := os.Stat(candidate)
		switch {
		case err == nil && !info.IsDir():
			return candidate, true, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load decodes and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	var cfg File
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := validate(path, meta, &cfg); err != nil {
		return nil, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, nil
}

// Parse is Load for an in-memory document.
func Parse(path, data string) (*Manifest, error) {
	var cfg File
	meta, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := validate(path, meta, &cfg); err != nil {
		return nil, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, nil
}

func validate(path string, meta toml.MetaData, cfg *File) error {
	if !meta.IsDefined("package") {
		return fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return fmt.Errorf("%s: missing [package].name", path)
	}
	if !project.IsValidModuleIdent(cfg.Package.Name) {
		return fmt.Errorf("%s: invalid [package].name %q", path, cfg.Package.Name)
	}
	if !meta.IsDefined("package", "program") || strings.TrimSpace(cfg.Package.Program) == "" {
		return fmt.Errorf("%s: missing [package].program", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	for _, f := range cfg.Build.Experimental {
		if !slices.Contains(knownFeatures, f) {
			return fmt.Errorf("%s: unknown experimental feature %q", path, f)
		}
	}
	if cfg.Build.MaxDiagnostics < 0 {
		return fmt.Errorf("%s: [build].max_diagnostics must not be negative", path)
	}
	if cfg.Build.Jobs < 0 {
		return fmt.Errorf("%s: [build].jobs must not be negative", path)
	}
	return nil
}

// Overrides are command line values; zero values keep the manifest's.
type Overrides struct {
	Experimental   []string
	MaxDiagnostics int
	Jobs           int
	Artifact       string
}

// BuildConfig resolves paths against the manifest root and applies o.
func (m *Manifest) BuildConfig(o Overrides) (BuildConfig, error) {
	cfg := m.Config
	bc := BuildConfig{
		Package:        cfg.Package.Name,
		Program:        m.resolve(cfg.Package.Program),
		MaxDiagnostics: cfg.Build.MaxDiagnostics,
		Jobs:           cfg.Build.Jobs,
	}
	if cfg.Output.Artifact != "" {
		bc.Artifact = m.resolve(cfg.Output.Artifact)
	}
	features := slices.Concat(cfg.Build.Experimental, o.Experimental)
	for _, f := range features {
		switch f {
		case FeatureNewEncoding:
			bc.Experimental.NewEncoding = true
		default:
			return BuildConfig{}, fmt.Errorf("unknown experimental feature %q", f)
		}
	}
	if o.MaxDiagnostics > 0 {
		bc.MaxDiagnostics = o.MaxDiagnostics
	}
	if bc.MaxDiagnostics == 0 {
		bc.MaxDiagnostics = DefaultMaxDiagnostics
	}
	if o.Jobs > 0 {
		bc.Jobs = o.Jobs
	}
	if o.Artifact != "" {
		abs, err := filepath.Abs(o.Artifact)
		if err != nil {
			return BuildConfig{}, err
		}
		bc.Artifact = abs
	}
	return bc, nil
}

func (m *Manifest) resolve(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(m.Root, filepath.FromSlash(rel))
}
