package decl

import (
	"sync"
	"testing"
)

type fakeDecl struct{ name string }

func (f *fakeDecl) DeclKind() Kind   { return KindFunction }
func (f *fakeDecl) DeclName() string { return f.name }

type otherDecl struct{}

func (otherDecl) DeclKind() Kind   { return KindStruct }
func (otherDecl) DeclName() string { return "S" }

func TestEngineInsertGet(t *testing.T) {
	e := NewEngine()
	id := e.Insert(&fakeDecl{name: "main"})
	if id == NoID {
		t.Fatalf("handle must not be NoID")
	}
	got, ok := As[*fakeDecl](e, id)
	if !ok || got.name != "main" {
		t.Fatalf("As returned %v, %v", got, ok)
	}
	if _, ok := As[otherDecl](e, id); ok {
		t.Fatalf("As must reject wrong kinds")
	}
	if _, ok := e.Lookup(NoID); ok {
		t.Fatalf("NoID must not resolve")
	}
}

func TestGetPanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	NewEngine().Get(42)
}

func TestEngineConcurrentInsert(t *testing.T) {
	e := NewEngine()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Insert(&fakeDecl{name: "f"})
		}()
	}
	wg.Wait()
	if e.Len() != 50 || len(e.All()) != 50 {
		t.Fatalf("expected 50 decls, got %d", e.Len())
	}
}

func TestReplaceKeepsOldBody(t *testing.T) {
	e := NewEngine()
	old := &fakeDecl{name: "before"}
	id := e.Insert(old)
	e.Replace(id, &fakeDecl{name: "after"})
	if got := MustAs[*fakeDecl](e, id); got.name != "after" {
		t.Fatalf("Get after Replace = %q", got.name)
	}
	if old.name != "before" {
		t.Fatalf("old body must stay unchanged")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("Replace of an unknown handle must panic")
		}
	}()
	e.Replace(99, old)
}
