package corelib

import (
	"testing"

	"ledgerc/internal/ty"
)

func TestNamespaceDeclaresCodecAndOps(t *testing.T) {
	e := ty.NewEngines()
	ns, err := Namespace(e)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{Encode, DecodeFirstParam, DecodeSecondParam, DecodeScriptData, Eq, Ptr, NumberOfBytes} {
		_, fn, ok := Lookup(e, ns, name)
		if !ok {
			t.Fatalf("%s not declared", name)
		}
		if fn.Builtin == ty.NotBuiltin {
			t.Fatalf("%s must be a builtin", name)
		}
	}
	_, enc, _ := Lookup(e, ns, Encode)
	if !enc.IsGeneric() || enc.ReturnType.TypeID != e.Builtins().RawSlice {
		t.Fatalf("encode signature: %+v", enc)
	}
	if !HasOps(ns) {
		t.Fatalf("ops must be reachable")
	}
	if _, ok := ns.Resolve("core::codec::encode"); !ok {
		t.Fatalf("qualified path must resolve")
	}
}

func TestWithoutOps(t *testing.T) {
	ns, err := WithoutOps(ty.NewEngines())
	if err != nil {
		t.Fatal(err)
	}
	if HasOps(ns) {
		t.Fatalf("ops must be missing")
	}
}
