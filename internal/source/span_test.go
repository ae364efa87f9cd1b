package source

import "testing"

func TestNoSpanIsSynthetic(t *testing.T) {
	if !NoSpan.IsSynthetic() {
		t.Fatalf("NoSpan must be synthetic")
	}
	if (Span{File: 1, Start: 0, End: 4}).IsSynthetic() {
		t.Fatalf("real span reported as synthetic")
	}
	if IdentNoSpan("main").Span != NoSpan {
		t.Fatalf("IdentNoSpan must carry NoSpan")
	}
}

func TestSpanCover(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want Span
	}{
		{"extends both ends", Span{1, 5, 10}, Span{1, 2, 12}, Span{1, 2, 12}},
		{"other file ignored", Span{1, 5, 10}, Span{2, 0, 20}, Span{1, 5, 10}},
		{"synthetic receiver takes other", NoSpan, Span{1, 3, 4}, Span{1, 3, 4}},
		{"synthetic other ignored", Span{1, 3, 4}, NoSpan, Span{1, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Cover(tt.b); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentNormalization(t *testing.T) {
	composed := NewIdent("caf\u00e9", NoSpan)
	decomposed := NewIdent("cafe\u0301", Span{File: 1, Start: 0, End: 5})
	if !composed.SameName(decomposed) {
		t.Fatalf("NFC normalization should make %q and %q equal", composed.Name, decomposed.Name)
	}
}
