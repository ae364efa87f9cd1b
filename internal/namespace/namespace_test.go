package namespace

import (
	"errors"
	"testing"
)

func TestResolvePlainAndPath(t *testing.T) {
	core := NewModule("core")
	codec, _ := core.Child("codec")
	if _, err := codec.Insert(Symbol{Name: "encode", Kind: SymFunction, Decl: 1}); err != nil {
		t.Fatal(err)
	}

	root := NewModule("")
	root.Import(core)
	root.Import(codec)
	util, err := root.Child("util")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := util.Insert(Symbol{Name: "double", Kind: SymFunction, Decl: 2}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		decl uint32
		ok   bool
	}{
		{"encode", 1, true},
		{"core::codec::encode", 1, true},
		{"util::double", 2, true},
		{"double", 0, false},
		{"core::ops::eq", 0, false},
	}
	for _, tt := range tests {
		s, ok := root.Resolve(tt.path)
		if ok != tt.ok || (ok && uint32(s.Decl) != tt.decl) {
			t.Errorf("Resolve(%q) = %+v, %v", tt.path, s, ok)
		}
	}
	// children inherit imports
	if _, ok := util.Resolve("encode"); !ok {
		t.Fatalf("submodule should see prelude imports")
	}
}

func TestInsertDuplicate(t *testing.T) {
	m := NewModule("m")
	if _, err := m.Insert(Symbol{Name: "x", Kind: SymStruct}); err != nil {
		t.Fatal(err)
	}
	prev, err := m.Insert(Symbol{Name: "x", Kind: SymFunction})
	if !errors.Is(err, ErrDuplicate) || prev.Kind != SymStruct {
		t.Fatalf("expected duplicate error, got %v (%+v)", err, prev)
	}
	if len(m.Symbols()) != 1 {
		t.Fatalf("duplicate must not be stored")
	}
}
