// Package sema turns a parsed program into the typed tree.
//
// A Checker is used in stages that mirror the program builder:
//
//	OrderModules   submodule dependency graph, deps first
//	CheckModules   declarations, signatures, then bodies, module by module
//	CheckSynthetic type-checks compiler-generated functions (entry synthesis)
//	ValidateRoot   program-kind rules (main, storage, contract methods)
//
// Analyze and Finalize are the two whole-program passes that run once the
// tree is assembled. Analyze is read-only and parallel across top-level
// nodes; Finalize runs in declaration order and isolates each node's
// failure in its own diagnostic scope.
//
// Inference is local to a function body. Integer literals without a suffix
// or a typed context get a numeric variable; Finalize defaults the
// survivors to u64. Any other variable still unresolved at finalization is
// reported as SemaTypeNotFinalized.
package sema
