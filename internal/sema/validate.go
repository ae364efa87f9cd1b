package sema

import (
	"strings"

	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/parsed"
	"ledgerc/internal/source"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

// ValidateRoot checks the rules that depend on the program kind: where
// `main` must or must not exist, where storage may live and that contract
// method names are unique across the whole tree.
func (c *Checker) ValidateRoot(h *diag.Handler, root *ty.Module) error {
	return h.Scope(func(h *diag.Handler) error {
		e := c.engines
		_, mainFn, hasMain := root.FindFunction(e, "main")

		switch c.kind {
		case parsed.Script, parsed.Predicate:
			if !hasMain {
				_ = report(h, diag.SemaMissingMain, root.Span, "%s has no main function", c.kind)
				break
			}
			if mainFn.IsGeneric() {
				_ = report(h, diag.SemaGenericEntry, mainFn.Span, "main cannot be generic")
			}
			if c.kind == parsed.Predicate && !e.Types.IsKind(mainFn.ReturnType.TypeID, types.KindBool) {
				_ = report(h, diag.SemaPredicateMainNotBool, mainFn.ReturnType.Span,
					"predicate main must return bool, not %s", c.label(mainFn.ReturnType.TypeID))
			}
		case parsed.Contract:
			if hasMain {
				_ = report(h, diag.SemaUnexpectedMain, mainFn.Span, "contracts are called through their ABI and cannot declare main")
			}
		}

		if c.kind != parsed.Contract {
			for _, id := range c.storage {
				sd := decl.MustAs[*ty.StorageDecl](e.Decls, id)
				_ = report(h, diag.SemaStorageOutsideContract, sd.Span, "storage can only be declared in a contract, not a %s", c.kind)
			}
			forEachModule(root, func(m *ty.Module) {
				for _, id := range m.ContractFns(e) {
					fn := decl.MustAs[*ty.FunctionDecl](e.Decls, id)
					_ = report(h, diag.SemaContractImplOutsideABI, fn.Span, "ABI implementations are only allowed in a contract")
				}
			})
		} else if len(c.storage) > 1 {
			first := decl.MustAs[*ty.StorageDecl](e.Decls, c.storage[0])
			for _, id := range c.storage[1:] {
				sd := decl.MustAs[*ty.StorageDecl](e.Decls, id)
				_ = h.EmitErr(diag.NewError(diag.SemaMultipleStorage, sd.Span, "a contract has at most one storage declaration").
					WithNote(first.Span, "first storage declared here"))
			}
		}

		seen := make(map[string]source.Span)
		for _, id := range ContractMethods(e, root) {
			fn := decl.MustAs[*ty.FunctionDecl](e.Decls, id)
			name := strings.TrimPrefix(fn.Name.Name, ContractEntryPrefix)
			if prev, dup := seen[name]; dup {
				_ = h.EmitErr(diag.NewError(diag.SemaDuplicateContractMethod, fn.Span, "contract method "+name+" is declared more than once").
					WithNote(prev, "first declared here"))
				continue
			}
			seen[name] = fn.Span
		}
		return nil
	})
}

// ContractMethods lists ABI methods of the whole tree: every submodule in
// pre-order first, then the root.
func ContractMethods(e ty.Engines, root *ty.Module) []decl.ID {
	var out []decl.ID
	for _, sub := range root.SubmodulesRecursive() {
		out = append(out, sub.ContractFns(e)...)
	}
	return append(out, root.ContractFns(e)...)
}

func forEachModule(m *ty.Module, fn func(*ty.Module)) {
	fn(m)
	for _, sub := range m.SubmodulesRecursive() {
		fn(sub)
	}
}
