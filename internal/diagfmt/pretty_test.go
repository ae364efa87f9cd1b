package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"ledgerc/internal/diag"
	"ledgerc/internal/source"
)

func fixture() (*source.FileSet, []diag.Diagnostic) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("/home/user/counter/src/main.yaml", []byte("kind: contract\n  type: Nope\n"))
	items := []diag.Diagnostic{
		diag.NewError(diag.SemaUnknownType, source.Span{File: id, Start: 23, End: 27}, "unknown type Nope").
			WithNote(source.Span{File: id, Start: 0, End: 4}, "program kind declared here"),
		diag.NewError(diag.AbiInternalSynthesisFailure, source.NoSpan, "entry could not be checked"),
	}
	return fs, items
}

func TestPretty(t *testing.T) {
	fs, items := fixture()
	var buf bytes.Buffer
	err := Pretty(&buf, items, fs, PrettyOpts{PathMode: PathModeRelative, BaseDir: "/home/user/counter", ShowNotes: true})
	if err != nil {
		t.Fatalf("pretty: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"src/main.yaml:2:9: ERROR SEM",
		"unknown type Nope",
		"\n    type: Nope\n          ^~~~\n",
		"note: program kind declared here",
		"<synthesized>: ERROR ICE",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("color disabled but escape codes printed")
	}
}

func TestPrettyMax(t *testing.T) {
	fs, items := fixture()
	var buf bytes.Buffer
	if err := Pretty(&buf, items, fs, PrettyOpts{Max: 1}); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	if !strings.Contains(buf.String(), "... and 1 more") {
		t.Fatalf("output = %s", buf.String())
	}
}

func TestPrettyColor(t *testing.T) {
	fs, items := fixture()
	var buf bytes.Buffer
	if err := Pretty(&buf, items, fs, PrettyOpts{Color: true}); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected escape codes")
	}
}

func TestUnderlineWideRunes(t *testing.T) {
	line := "名前: x"
	// "x" starts at byte 8
	got := underline(line, source.LineCol{Line: 1, Col: 9}, source.LineCol{Line: 1, Col: 10})
	if got != "      ^" {
		t.Fatalf("underline = %q", got)
	}
}

func TestPathModes(t *testing.T) {
	tests := []struct {
		mode PathMode
		base string
		want string
	}{
		{PathModeBasename, "", "main.yaml"},
		{PathModeRelative, "/home/user/counter", "src/main.yaml"},
		{PathModeAuto, "/elsewhere/deep/below", "/home/user/counter/src/main.yaml"},
		{PathModeAbsolute, "", "/home/user/counter/src/main.yaml"},
	}
	for _, tt := range tests {
		if got := formatPath("/home/user/counter/src/main.yaml", tt.mode, tt.base); got != tt.want {
			t.Fatalf("mode %d: got %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestJSON(t *testing.T) {
	fs, items := fixture()
	var buf bytes.Buffer
	if err := JSON(&buf, items, fs, JSONOpts{IncludePositions: true, IncludeNotes: true, PathMode: PathModeBasename}); err != nil {
		t.Fatalf("json: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 2 || out.Diagnostics[0].Location.StartLine != 2 || out.Diagnostics[0].Location.File != "main.yaml" {
		t.Fatalf("first = %+v", out.Diagnostics[0])
	}
	if len(out.Diagnostics[0].Notes) != 1 {
		t.Fatalf("notes = %+v", out.Diagnostics[0].Notes)
	}
	second := out.Diagnostics[1]
	if !second.Internal || second.Location.File != "" {
		t.Fatalf("second = %+v", second)
	}
}
