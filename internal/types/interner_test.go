package types

import (
	"sync"
	"testing"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Unit == NoTypeID || b.Bool == NoTypeID || b.U64 == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	u64, _ := in.Lookup(b.U64)
	if u64.Kind != KindUint || u64.Width != Width64 {
		t.Fatalf("expected u64, got %+v", u64)
	}
	if got := Label(in, b.U256); got != "u256" {
		t.Fatalf("label = %q", got)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	arr1 := in.Intern(MakeArray(b.U8, 3))
	arr2 := in.Intern(MakeArray(b.U8, 3))
	if arr1 != arr2 {
		t.Fatalf("array types should be deduplicated")
	}
	if in.Intern(MakeArray(b.U8, 4)) == arr1 {
		t.Fatalf("array length must affect identity")
	}
	t1 := in.RegisterTuple([]TypeID{b.U64, b.Bool})
	t2 := in.RegisterTuple([]TypeID{b.U64, b.Bool})
	if t1 != t2 {
		t.Fatalf("tuples should be deduplicated")
	}
	if in.RegisterTuple(nil) != b.Unit {
		t.Fatalf("empty tuple must be unit")
	}
	if got := Label(in, t1); got != "(u64, bool)" {
		t.Fatalf("label = %q", got)
	}
}

func TestVariablesAreNeverShared(t *testing.T) {
	in := NewInterner()
	if in.Fresh(KindUnknown) == in.Fresh(KindUnknown) {
		t.Fatalf("unknown types must be distinct")
	}
	a := in.RegisterTypeParam("T", 1, 0)
	b := in.RegisterTypeParam("T", 1, 0)
	if a == b {
		t.Fatalf("type params must be distinct handles")
	}
}

func TestNominalAndAlias(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	s1 := in.RegisterStruct("Point", 7, []TypeID{b.U64})
	s2 := in.RegisterStruct("Point", 7, []TypeID{b.U64})
	if s1 != s2 {
		t.Fatalf("same instantiation should dedup")
	}
	if in.RegisterStruct("Point", 7, []TypeID{b.Bool}) == s1 {
		t.Fatalf("type args must affect identity")
	}
	al := in.RegisterAlias("Balance", b.U64)
	al2 := in.RegisterAlias("Amount", al)
	if in.Unalias(al2) != b.U64 {
		t.Fatalf("unalias chain failed")
	}
	if !in.IsKind(al2, KindUint) {
		t.Fatalf("IsKind must see through aliases")
	}
	if got := Label(in, s1); got != "Point<u64>" {
		t.Fatalf("label = %q", got)
	}
}

func TestInternerConcurrentInserts(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	var wg sync.WaitGroup
	ids := make([]TypeID, 32)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = in.RegisterTuple([]TypeID{b.U64, b.Bool, b.Str})
		}(i)
	}
	wg.Wait()
	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("concurrent inserts produced different handles: %v", ids)
		}
	}
}

func TestInternKeysOnShape(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	tests := []struct {
		name string
		a, b Type
		same bool
	}{
		{"uint", MakeUint(Width32), MakeUint(Width32), true},
		{"uint width", MakeUint(Width32), MakeUint(Width64), false},
		{"ptr", MakePtr(b.U64), MakePtr(b.U64), true},
		{"ptr elem", MakePtr(b.U64), MakePtr(b.Bool), false},
		{"slice vs ptr", MakeSlice(b.U64), MakePtr(b.U64), false},
		{"str array", MakeStringArray(4), MakeStringArray(4), true},
		{"str array len", MakeStringArray(4), MakeStringArray(5), false},
	}
	for _, tt := range tests {
		if got := in.Intern(tt.a) == in.Intern(tt.b); got != tt.same {
			t.Fatalf("%s: same id = %v, want %v", tt.name, got, tt.same)
		}
	}
	if in.Intern(MakeUint(Width64)) != b.U64 {
		t.Fatalf("u64 must intern to the builtin")
	}
}
