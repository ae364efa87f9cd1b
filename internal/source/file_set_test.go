package source

import "testing"

func TestFileSetStartsAtOne(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("main.yaml", []byte("a\nbb\nccc"))
	if id == NoFileID {
		t.Fatalf("first file must not get NoFileID")
	}
	if got, ok := fs.GetLatest("main.yaml"); !ok || got != id {
		t.Fatalf("GetLatest = %v, %v; want %v", got, ok, id)
	}
	if fs.Get(NoFileID) != nil {
		t.Fatalf("NoFileID must not resolve to a file")
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("x", []byte("a\nbb\nccc"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{1, LineCol{Line: 1, Col: 2}},
		{2, LineCol{Line: 2, Col: 1}},
		{3, LineCol{Line: 2, Col: 2}},
		{5, LineCol{Line: 3, Col: 1}},
		{7, LineCol{Line: 3, Col: 3}},
	}
	for _, tt := range tests {
		start, _, ok := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if !ok {
			t.Fatalf("resolve failed for %d", tt.off)
		}
		if start != tt.want {
			t.Fatalf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("x", []byte("first\nsecond\nthird")))
	for i, want := range []string{"first", "second", "third", ""} {
		if got := f.GetLine(uint32(i + 1)); got != want {
			t.Fatalf("line %d: got %q, want %q", i+1, got, want)
		}
	}
}

func TestLoadNormalizesCRLF(t *testing.T) {
	out, changed := normalizeCRLF([]byte("a\r\nb\rc"))
	if !changed || string(out) != "a\nb\rc" {
		t.Fatalf("unexpected normalization: %q changed=%v", out, changed)
	}
}

func TestFileOffsetRoundTrip(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.yaml", []byte("kind: script\nroot:\n  nodes: []\n"))
	f := fs.Get(id)
	tests := []struct {
		lc   LineCol
		want uint32
	}{
		{LineCol{Line: 1, Col: 1}, 0},
		{LineCol{Line: 2, Col: 1}, 13},
		{LineCol{Line: 3, Col: 3}, 21},
		{LineCol{Line: 99, Col: 1}, uint32(len(f.Content))},
	}
	for _, tt := range tests {
		if got := f.Offset(tt.lc); got != tt.want {
			t.Fatalf("Offset(%+v) = %d, want %d", tt.lc, got, tt.want)
		}
	}
}
