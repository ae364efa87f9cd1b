package parsed

import (
	"testing"

	"ledgerc/internal/source"
)

func TestParseTypeExpr(t *testing.T) {
	tests := []struct {
		in   string
		kind TypeExprKind
		want string
	}{
		{"u64", TypeNamed, "u64"},
		{"(u64, bool)", TypeTuple, "(u64, bool)"},
		{"(u64,)", TypeTuple, "(u64,)"},
		{"(u64)", TypeNamed, "u64"},
		{"()", TypeTuple, "()"},
		{"str[4]", TypeStrArray, "str[4]"},
		{"[u8; 3]", TypeArray, "[u8; 3]"},
		{"Node<Node<T>>", TypeNamed, "Node<Node<T>>"},
		{" Pair< u64 , (bool,) > ", TypeNamed, "Pair<u64, (bool,)>"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTypeExpr(tt.in, source.NoSpan)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got.Kind != tt.kind || got.String() != tt.want {
				t.Fatalf("got %v %q, want %v %q", got.Kind, got.String(), tt.kind, tt.want)
			}
		})
	}
}

func TestParseTypeExprErrors(t *testing.T) {
	for _, in := range []string{"", "(u64", "[u8 3]", "str[x]", "Node<u64", "u64 bool"} {
		if _, err := ParseTypeExpr(in, source.NoSpan); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}
