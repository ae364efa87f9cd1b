// Package artifact is the on-disk form of a checked program.
package artifact

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"ledgerc/internal/decl"
	"ledgerc/internal/observ"
	"ledgerc/internal/program"
	"ledgerc/internal/source"
	"ledgerc/internal/sourcemap"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

// SchemaVersion must be bumped whenever Artifact changes shape.
const SchemaVersion uint16 = 1

// ErrSchema is returned when reading an artifact of another schema.
var ErrSchema = errors.New("artifact: unsupported schema version")

type Slot struct {
	Key   []byte `msgpack:"key"`
	Value []byte `msgpack:"value"`
}

type Method struct {
	Name string `msgpack:"name"`
	// Args is the display form of the argument tuple, empty for none.
	Args string `msgpack:"args,omitempty"`
}

type Artifact struct {
	Schema    uint16    `msgpack:"schema"`
	BuildID   string    `msgpack:"build_id"`
	CreatedAt time.Time `msgpack:"created_at"`

	Package     string `msgpack:"package"`
	Kind        string `msgpack:"kind"`
	Fingerprint string `msgpack:"fingerprint"`
	// Entry is empty when no entry was synthesized.
	Entry         string   `msgpack:"entry,omitempty"`
	Dispatch      []Method `msgpack:"dispatch,omitempty"`
	Declarations  []string `msgpack:"declarations"`
	Configurables []string `msgpack:"configurables,omitempty"`
	StorageSlots  []Slot   `msgpack:"storage_slots,omitempty"`
	LoggedTypes   []string `msgpack:"logged_types,omitempty"`
	MessageTypes  []string `msgpack:"message_types,omitempty"`

	SourceMap *sourcemap.SourceMap `msgpack:"source_map"`
	Timings   *observ.Report       `msgpack:"timings,omitempty"`
}

// FromProgram describes p. The source map is built from fs, which must be
// the file set the program was loaded into.
func FromProgram(fs *source.FileSet, e ty.Engines, pkg string, p *program.TypedProgram) *Artifact {
	a := &Artifact{
		Schema:      SchemaVersion,
		BuildID:     uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Package:     pkg,
		Kind:        p.Kind.String(),
		Fingerprint: hex.EncodeToString(p.Fingerprint[:]),
		SourceMap:   sourcemap.FromModule(fs, e, p.Root),
	}
	if p.Entry != decl.NoID {
		a.Entry = declName(e, p.Entry)
	}
	for _, m := range p.Dispatch {
		method := Method{Name: m.Name}
		if m.Args != types.NoTypeID {
			method.Args = e.DisplayType(m.Args)
		}
		a.Dispatch = append(a.Dispatch, method)
	}
	for _, id := range p.Declarations {
		a.Declarations = append(a.Declarations, declName(e, id))
	}
	for _, id := range p.Configurables {
		a.Configurables = append(a.Configurables, declName(e, id))
	}
	for _, s := range p.StorageSlots {
		a.StorageSlots = append(a.StorageSlots, Slot{Key: s.Key[:], Value: s.Value[:]})
	}
	for _, t := range p.LoggedTypes {
		a.LoggedTypes = append(a.LoggedTypes, e.DisplayType(t))
	}
	for _, t := range p.MessageTypes {
		a.MessageTypes = append(a.MessageTypes, e.DisplayType(t))
	}
	return a
}

func declName(e ty.Engines, id decl.ID) string {
	d, ok := e.Decls.Lookup(id)
	if !ok {
		return fmt.Sprintf("<decl %d>", id)
	}
	return d.DeclName()
}

// Encode writes a to w.
func Encode(w io.Writer, a *Artifact) error {
	return msgpack.NewEncoder(w).Encode(a)
}

// Decode reads one artifact from r and checks its schema.
func Decode(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := msgpack.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	if a.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrSchema, a.Schema)
	}
	return &a, nil
}

// Write stores a at path, replacing any previous file atomically.
func Write(path string, a *Artifact) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if err = Encode(f, a); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Read loads the artifact at path.
func Read(path string) (*Artifact, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}
