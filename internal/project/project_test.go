package project

import (
	"testing"
)

func TestModulePaths(t *testing.T) {
	tests := []struct {
		parent, name, want string
	}{
		{"", "lib", "lib"},
		{"lib", "math", "lib::math"},
		{"a::b", "c", "a::b::c"},
	}
	for _, tt := range tests {
		got := JoinPath(tt.parent, tt.name)
		if got != tt.want {
			t.Fatalf("JoinPath(%q, %q) = %q, want %q", tt.parent, tt.name, got, tt.want)
		}
		if p := ParentPath(got); p != tt.parent {
			t.Fatalf("ParentPath(%q) = %q, want %q", got, p, tt.parent)
		}
	}
}

func TestIsValidModuleIdent(t *testing.T) {
	for name, want := range map[string]bool{
		"lib": true, "_x1": true, "1x": false, "": false, "a-b": false, "модуль": false,
	} {
		if got := IsValidModuleIdent(name); got != want {
			t.Fatalf("IsValidModuleIdent(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestCombineDependsOnOrder(t *testing.T) {
	a, b, c := HashString("a"), HashString("b"), HashString("c")
	if Combine(a, b, c) == Combine(a, c, b) {
		t.Fatalf("dependency order must change the module hash")
	}
	if Combine(a, b) != Combine(a, b) {
		t.Fatalf("Combine must be deterministic")
	}
}
