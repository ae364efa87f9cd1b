// Package ty holds the typed declaration model and the typed tree.
//
// Type identity is interned: a types.TypeID is only meaningful next to the
// interner that produced it, and a struct type only next to the
// declaration engine holding its body. Every equality, hash, ordering and
// substitution operation in this package therefore takes an Engines value
// explicitly instead of reaching for a global table.
//
// Provenance (spans, attributes) never takes part in those operations. Two
// physically distinct declarations that are structurally identical after
// substitution are the same declaration as far as MonoCache is concerned.
package ty
