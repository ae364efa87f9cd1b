package sema

import (
	"errors"

	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/namespace"
	"ledgerc/internal/parsed"
	"ledgerc/internal/source"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

// typeOrRecover resolves te and falls back to the error-recovery type, so
// that one bad annotation does not cascade into every use of the item.
func (c *Checker) typeOrRecover(h *diag.Handler, ns *namespace.Module, te parsed.TypeExpr, tps typeParams) types.TypeID {
	t, err := c.resolveType(h, ns, te, tps)
	if err != nil {
		return c.engines.Builtins().ErrorRecovery
	}
	return t
}

func (c *Checker) insertSymbol(h *diag.Handler, ms *moduleScope, sym namespace.Symbol, sp source.Span) error {
	prev, err := ms.ns.Insert(sym)
	if errors.Is(err, namespace.ErrDuplicate) {
		d := diag.NewError(diag.SemaDuplicateDeclaration, sp, "duplicate declaration of "+sym.Name).
			WithNote(c.symbolSpan(prev), "previous "+prev.Kind.String()+" declared here")
		return h.EmitErr(d)
	}
	return err
}

func (c *Checker) symbolSpan(sym namespace.Symbol) source.Span {
	switch d := c.engines.Decls.Get(sym.Decl).(type) {
	case *ty.StructDecl:
		return d.Span
	case *ty.EnumDecl:
		return d.Span
	case *ty.FunctionDecl:
		return d.Span
	case *ty.AbiDecl:
		return d.Span
	case *ty.ConfigurableDecl:
		return d.Span
	case *ty.StorageDecl:
		return d.Span
	}
	return source.NoSpan
}

func (ms *moduleScope) setNode(i int, kind decl.Kind, id decl.ID, name source.Ident, sp source.Span) {
	ms.nodes[i] = &ty.Node{Decl: ty.Declaration{Kind: kind, ID: id, Name: name}, Span: sp}
}

// declareTypes inserts struct and enum shells with their type parameters.
// Fields and variants are filled in by resolveTypeBodies.
func (c *Checker) declareTypes(h *diag.Handler, ms *moduleScope) {
	for i, n := range ms.parsed.Nodes {
		switch d := n.Data.(type) {
		case *parsed.StructDecl:
			s := &ty.StructDecl{
				CallPath:   ms.callPath(d.Name),
				Visibility: visibility(d.Public),
				Span:       d.Span,
				Attributes: convAttrs(d.Attributes),
			}
			id := c.engines.Decls.Insert(s)
			tps := c.declareTypeParams(id, d.TypeParams, &s.TypeParameters)
			if c.insertSymbol(h, ms, namespace.Symbol{Name: d.Name.Name, Kind: namespace.SymStruct, Decl: id}, d.Name.Span) != nil {
				continue
			}
			ms.setNode(i, decl.KindStruct, id, d.Name, d.Span)
			c.unresolved[id] = func(h *diag.Handler) {
				for _, f := range d.Fields {
					t := c.typeOrRecover(h, ms.ns, f.Type, tps)
					s.Fields = append(s.Fields, ty.StructField{
						Name:         f.Name,
						Span:         f.Span,
						TypeArgument: ty.NewTypeArgument(t, f.Type.Span),
					})
				}
			}
		case *parsed.EnumDecl:
			en := &ty.EnumDecl{
				CallPath:   ms.callPath(d.Name),
				Visibility: visibility(d.Public),
				Span:       d.Span,
				Attributes: convAttrs(d.Attributes),
			}
			id := c.engines.Decls.Insert(en)
			tps := c.declareTypeParams(id, d.TypeParams, &en.TypeParameters)
			if c.insertSymbol(h, ms, namespace.Symbol{Name: d.Name.Name, Kind: namespace.SymEnum, Decl: id}, d.Name.Span) != nil {
				continue
			}
			ms.setNode(i, decl.KindEnum, id, d.Name, d.Span)
			c.unresolved[id] = func(h *diag.Handler) {
				for tag, v := range d.Variants {
					t := c.typeOrRecover(h, ms.ns, v.Type, tps)
					en.Variants = append(en.Variants, ty.EnumVariant{
						Name:         v.Name,
						Tag:          tag,
						TypeArgument: ty.NewTypeArgument(t, v.Type.Span),
						Span:         v.Span,
					})
				}
			}
		}
	}
}

func (c *Checker) declareTypeParams(owner decl.ID, names []source.Ident, into *[]ty.TypeParameter) typeParams {
	if len(names) == 0 {
		return nil
	}
	tps := make(typeParams, len(names))
	for i, name := range names {
		t := c.engines.Types.RegisterTypeParam(name.Name, owner, index32(i))
		tps[name.Name] = t
		*into = append(*into, ty.TypeParameter{Name: name, TypeID: t, InitialTypeID: t})
	}
	return tps
}

// declareAliases registers `type Name = Target` in declaration order.
func (c *Checker) declareAliases(h *diag.Handler, ms *moduleScope) {
	for _, n := range ms.parsed.Nodes {
		d, ok := n.Data.(*parsed.AliasDecl)
		if !ok {
			continue
		}
		target, err := c.resolveType(h, ms.ns, d.Target, nil)
		if err != nil {
			continue
		}
		alias := c.engines.Types.RegisterAlias(d.Name.Name, target)
		_, err = ms.ns.Insert(namespace.Symbol{Name: d.Name.Name, Kind: namespace.SymAlias, Type: alias})
		if errors.Is(err, namespace.ErrDuplicate) {
			_ = report(h, diag.SemaDuplicateDeclaration, d.Name.Span, "duplicate declaration of %s", d.Name.Name)
		}
	}
}

// resolveTypeBodies fills the fields and variants of this module's types
// that were not already resolved on demand.
func (c *Checker) resolveTypeBodies(h *diag.Handler, ms *moduleScope) {
	for _, n := range ms.nodes {
		if n == nil {
			continue
		}
		if resolve, ok := c.unresolved[n.Decl.ID]; ok {
			delete(c.unresolved, n.Decl.ID)
			resolve(h)
		}
	}
}

// signature fills the parameters and return type of fn from d.
func (c *Checker) signature(h *diag.Handler, ms *moduleScope, d *parsed.FunctionDecl, fn *ty.FunctionDecl, tps typeParams) {
	for _, p := range d.Params {
		t := c.typeOrRecover(h, ms.ns, p.Type, tps)
		fn.Parameters = append(fn.Parameters, ty.FunctionParameter{
			Name:         p.Name,
			IsMutable:    p.IsMut,
			TypeArgument: ty.NewTypeArgument(t, p.Type.Span),
		})
	}
	if d.ReturnType == nil {
		fn.ReturnType = ty.NewTypeArgument(c.engines.Builtins().Unit, d.Span)
		return
	}
	fn.ReturnType = ty.NewTypeArgument(c.typeOrRecover(h, ms.ns, *d.ReturnType, tps), d.ReturnType.Span)
}

// declareFunction inserts the signature of d under name and queues its body.
func (c *Checker) declareFunction(h *diag.Handler, ms *moduleScope, d *parsed.FunctionDecl, name source.Ident, kind ty.FunctionKind, vis ty.Visibility) (decl.ID, *ty.FunctionDecl) {
	fn := &ty.FunctionDecl{
		Name:       name,
		CallPath:   ms.callPath(name),
		Visibility: vis,
		Purity:     convPurity(d.Purity),
		Kind:       kind,
		Span:       d.Span,
		Attributes: convAttrs(d.Attributes),
	}
	id := c.engines.Decls.Insert(fn)
	tps := c.declareTypeParams(id, d.TypeParams, &fn.TypeParameters)
	c.signature(h, ms, d, fn, tps)
	c.pending = append(c.pending, pendingBody{kind: bodyFunction, ms: ms, id: id, fn: d, tps: tps, span: d.Span})
	return id, fn
}

// declareAbis registers ABI signatures. They are needed before any impl.
func (c *Checker) declareAbis(h *diag.Handler, ms *moduleScope) {
	for i, n := range ms.parsed.Nodes {
		d, ok := n.Data.(*parsed.AbiDecl)
		if !ok {
			continue
		}
		abi := &ty.AbiDecl{CallPath: ms.callPath(d.Name), Span: d.Span}
		methods := make([]string, 0, len(d.Methods))
		for j := range d.Methods {
			m := &d.Methods[j]
			if len(m.TypeParams) > 0 {
				_ = report(h, diag.SemaGenericEntry, m.Name.Span, "ABI method %s cannot be generic", m.Name.Name)
				continue
			}
			fn := &ty.FunctionDecl{
				Name:       m.Name,
				CallPath:   ty.NewCallPath(m.Name, append(append([]string(nil), ms.path...), d.Name.Name)...),
				Visibility: ty.Public,
				Purity:     convPurity(m.Purity),
				Kind:       ty.FnContractMethod,
				Span:       m.Span,
			}
			c.signature(h, ms, m, fn, nil)
			abi.Methods = append(abi.Methods, fn)
			methods = append(methods, m.Name.Name)
		}
		id := c.engines.Decls.Insert(abi)
		sym := namespace.Symbol{Name: d.Name.Name, Kind: namespace.SymAbi, Decl: id, Methods: methods}
		if c.insertSymbol(h, ms, sym, d.Name.Span) != nil {
			continue
		}
		ms.setNode(i, decl.KindAbi, id, d.Name, d.Span)
	}
}

// declareItems registers functions, ABI implementations, storage and
// configurables.
func (c *Checker) declareItems(h *diag.Handler, ms *moduleScope) {
	for i, n := range ms.parsed.Nodes {
		switch d := n.Data.(type) {
		case *parsed.FunctionDecl:
			id, _ := c.declareFunction(h, ms, d, d.Name, ty.FnNormal, visibility(d.Public))
			if c.insertSymbol(h, ms, namespace.Symbol{Name: d.Name.Name, Kind: namespace.SymFunction, Decl: id}, d.Name.Span) != nil {
				continue
			}
			ms.setNode(i, decl.KindFunction, id, d.Name, d.Span)
		case *parsed.ImplDecl:
			if id, err := c.declareImpl(h, ms, d); err == nil {
				ms.setNode(i, decl.KindImplTrait, id, d.Trait, d.Span)
			}
		case *parsed.StorageDecl:
			sd := &ty.StorageDecl{Span: d.Span, Attributes: convAttrs(d.Attributes)}
			for _, f := range d.Fields {
				sd.Fields = append(sd.Fields, ty.StorageField{
					Name:         f.Name,
					TypeArgument: ty.NewTypeArgument(c.typeOrRecover(h, ms.ns, f.Type, nil), f.Type.Span),
					Span:         f.Span,
				})
			}
			id := c.engines.Decls.Insert(sd)
			c.storage = append(c.storage, id)
			// a second storage block is reported by validation
			_, _ = ms.ns.Insert(namespace.Symbol{Name: "storage", Kind: namespace.SymStorage, Decl: id})
			ms.setNode(i, decl.KindStorage, id, source.NewIdent("storage", d.Span), d.Span)
			c.pending = append(c.pending, pendingBody{kind: bodyStorage, ms: ms, id: id, storage: d, span: d.Span})
		case *parsed.ConfigurableDecl:
			cd := &ty.ConfigurableDecl{
				CallPath:     ms.callPath(d.Name),
				TypeArgument: ty.NewTypeArgument(c.typeOrRecover(h, ms.ns, d.Type, nil), d.Type.Span),
				Visibility:   ty.Public,
				Span:         d.Span,
			}
			id := c.engines.Decls.Insert(cd)
			if c.insertSymbol(h, ms, namespace.Symbol{Name: d.Name.Name, Kind: namespace.SymConfigurable, Decl: id}, d.Name.Span) != nil {
				continue
			}
			c.configurables = append(c.configurables, id)
			ms.setNode(i, decl.KindConfigurable, id, d.Name, d.Span)
			c.pending = append(c.pending, pendingBody{kind: bodyConfigurable, ms: ms, id: id, value: d.Value, span: d.Span})
		}
	}
}

// declareImpl checks `impl Abi for Contract` against the ABI and registers
// every method under its contract entry name.
func (c *Checker) declareImpl(h *diag.Handler, ms *moduleScope, d *parsed.ImplDecl) (decl.ID, error) {
	sym, ok := ms.ns.Resolve(d.Trait.Name)
	if !ok || sym.Kind != namespace.SymAbi {
		return decl.NoID, report(h, diag.SemaUnknownSymbol, d.Trait.Span, "unknown ABI %s", d.Trait.Name)
	}
	forType, err := c.resolveType(h, ms.ns, d.For, nil)
	if err != nil {
		return decl.NoID, err
	}
	if !c.engines.Types.IsKind(forType, types.KindContract) {
		return decl.NoID, report(h, diag.SemaTypeMismatch, d.For.Span,
			"ABI %s can only be implemented for Contract, not %s", d.Trait.Name, c.label(forType))
	}
	abi := decl.MustAs[*ty.AbiDecl](c.engines.Decls, sym.Decl)
	impl := &ty.ImplTraitDecl{
		TraitName:       d.Trait,
		ImplementingFor: ty.NewTypeArgument(forType, d.For.Span),
		IsContractABI:   true,
		Span:            d.Span,
	}

	implemented := make(map[string]bool, len(d.Items))
	for j := range d.Items {
		item := &d.Items[j]
		want, ok := abi.Method(item.Name.Name)
		if !ok {
			_ = report(h, diag.SemaUnknownMethod, item.Name.Span, "%s is not a method of ABI %s", item.Name.Name, d.Trait.Name)
			continue
		}
		implemented[item.Name.Name] = true
		name := source.NewIdent(ContractEntryPrefix+item.Name.Name, item.Name.Span)
		id, fn := c.declareFunction(h, ms, item, name, ty.FnContractMethod, ty.Public)
		if !c.matchesAbi(fn, want) {
			mismatch := diag.NewError(diag.SemaTypeMismatch, item.Span, "method "+item.Name.Name+" does not match its ABI declaration").
				WithNote(want.Span, "declared here")
			_ = h.EmitErr(mismatch)
		}
		// duplicates across modules are reported by validation
		_, _ = ms.ns.Insert(namespace.Symbol{Name: name.Name, Kind: namespace.SymFunction, Decl: id})
		impl.Items = append(impl.Items, id)
	}
	for _, m := range abi.Methods {
		if !implemented[m.Name.Name] {
			_ = report(h, diag.SemaUnknownMethod, d.Span, "missing implementation of %s::%s", d.Trait.Name, m.Name.Name)
		}
	}
	return c.engines.Decls.Insert(impl), nil
}

func (c *Checker) matchesAbi(fn, want *ty.FunctionDecl) bool {
	if len(fn.Parameters) != len(want.Parameters) || fn.Purity != want.Purity {
		return false
	}
	for i := range fn.Parameters {
		if !c.engines.TypesEqual(fn.Parameters[i].TypeArgument.TypeID, want.Parameters[i].TypeArgument.TypeID) {
			return false
		}
	}
	return c.engines.TypesEqual(fn.ReturnType.TypeID, want.ReturnType.TypeID)
}
