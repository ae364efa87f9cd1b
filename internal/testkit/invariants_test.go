package testkit

import (
	"strings"
	"testing"

	"ledgerc/internal/source"
	"ledgerc/internal/ty"
)

func TestCheckSpanInvariants(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("m.yaml", []byte("0123456789"))
	e := ty.NewEngines()

	tests := []struct {
		name    string
		node    source.Span
		module  source.Span
		wantErr string
	}{
		{"inside", source.Span{File: id, Start: 2, End: 5}, source.Span{File: id, Start: 0, End: 10}, ""},
		{"synthesized", source.NoSpan, source.Span{File: id, Start: 0, End: 10}, ""},
		{"inverted", source.Span{File: id, Start: 5, End: 2}, source.NoSpan, "inverted"},
		{"beyond", source.Span{File: id, Start: 5, End: 20}, source.NoSpan, "beyond content"},
		{"outside module", source.Span{File: id, Start: 6, End: 9}, source.Span{File: id, Start: 0, End: 5}, "outside module"},
		{"unknown file", source.Span{File: id + 1, Start: 0, End: 1}, source.NoSpan, "unknown file"},
	}
	for _, tt := range tests {
		root := &ty.Module{Name: "root", Span: tt.module}
		root.AppendNode(&ty.Node{Decl: ty.Declaration{Name: source.IdentNoSpan("x")}, Span: tt.node})
		err := CheckSpanInvariants(fs, e, root)
		if tt.wantErr == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tt.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Fatalf("%s: error = %v, want %q", tt.name, err, tt.wantErr)
		}
	}
}
