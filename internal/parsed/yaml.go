package parsed

import (
	"fmt"
	"regexp"
	"strconv"

	"fortio.org/safecast"
	"gopkg.in/yaml.v3"

	"ledgerc/internal/source"
)

// The YAML interchange form of a parse tree. Every expression and
// statement is a single-key mapping:
//
//	kind: contract
//	root:
//	  deps: [util]
//	  submodules:
//	    - name: util
//	      module: {nodes: [...]}
//	  nodes:
//	    - type: {name: Amount, target: u64}
//	    - struct: {name: Point, type_params: [T], fields: [{name: x, type: u64}]}
//	    - storage: {fields: [{name: counter, type: u64, init: {lit: 0}}]}
//	    - abi: {name: Counter, methods: [{name: get, returns: u64}]}
//	    - impl: {trait: Counter, for: Contract, items: [{name: get, returns: u64, body: [...]}]}
//	    - fn:
//	        name: main
//	        params: [{name: a, type: u64}]
//	        returns: u64
//	        body:
//	          - let: {name: x, value: {lit: 1}}
//	          - tail: {var: a}
//
// Expressions: lit, str, b256, var, call, struct, enum, tuple, array,
// index, field, if, block, return, storage_read, storage_write.

var intLiteral = regexp.MustCompile(`^[0-9][0-9_]*(u8|u16|u32|u64|u256)?$`)

// LoadFile reads path into fs and decodes it.
func LoadFile(fs *source.FileSet, path string) (*Program, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return decodeFile(fs.Get(id))
}

// LoadYAML registers data as a virtual file named name and decodes it.
func LoadYAML(fs *source.FileSet, name string, data []byte) (*Program, error) {
	id := fs.AddVirtual(name, data)
	return decodeFile(fs.Get(id))
}

func decodeFile(f *source.File) (*Program, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(f.Content, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%s: empty document", f.Path)
	}
	l := &loader{file: f}
	return l.program(doc.Content[0])
}

type loader struct {
	file *source.File
}

func (l *loader) errorf(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%s:%d:%d: %s", l.file.Path, n.Line, n.Column, fmt.Sprintf(format, args...))
}

func (l *loader) pos(line, col int) uint32 {
	ln, err := safecast.Conv[uint32](line)
	if err != nil {
		ln = 0
	}
	cl, err := safecast.Conv[uint32](col)
	if err != nil {
		cl = 0
	}
	return l.file.Offset(source.LineCol{Line: ln, Col: cl})
}

// span covers n and everything nested in it.
func (l *loader) span(n *yaml.Node) source.Span {
	if n == nil {
		return source.NoSpan
	}
	start := l.pos(n.Line, n.Column)
	sp := source.Span{File: l.file.ID, Start: start, End: start}
	if n.Kind == yaml.ScalarNode {
		size, err := safecast.Conv[uint32](len(n.Value))
		if err != nil {
			return sp
		}
		sp.End = min(start+size, l.file.Offset(source.LineCol{Line: ^uint32(0)}))
		return sp
	}
	for _, c := range n.Content {
		sp = sp.Cover(l.span(c))
	}
	return sp
}

func (l *loader) ident(n *yaml.Node) (source.Ident, error) {
	if n == nil || n.Kind != yaml.ScalarNode || n.Value == "" {
		return source.Ident{}, l.errorf(orDoc(n), "expected a name")
	}
	return source.NewIdent(n.Value, l.span(n)), nil
}

func orDoc(n *yaml.Node) *yaml.Node {
	if n == nil {
		return &yaml.Node{}
	}
	return n
}

// fields returns the values of a mapping node by key.
func (l *loader) fields(n *yaml.Node) (map[string]*yaml.Node, error) {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, l.errorf(orDoc(n), "expected a mapping")
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out[n.Content[i].Value] = n.Content[i+1]
	}
	return out, nil
}

// single decodes a single-key mapping.
func (l *loader) single(n *yaml.Node) (string, *yaml.Node, error) {
	if n == nil || n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, l.errorf(orDoc(n), "expected a single-key mapping")
	}
	return n.Content[0].Value, n.Content[1], nil
}

func (l *loader) seq(n *yaml.Node) ([]*yaml.Node, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, l.errorf(n, "expected a sequence")
	}
	return n.Content, nil
}

func (l *loader) boolField(m map[string]*yaml.Node, key string) (bool, error) {
	n, ok := m[key]
	if !ok {
		return false, nil
	}
	var v bool
	if err := n.Decode(&v); err != nil {
		return false, l.errorf(n, "%s: %v", key, err)
	}
	return v, nil
}

func (l *loader) typeExpr(n *yaml.Node) (TypeExpr, error) {
	if n == nil || n.Kind != yaml.ScalarNode {
		return TypeExpr{}, l.errorf(orDoc(n), "expected a type")
	}
	t, err := ParseTypeExpr(n.Value, l.span(n))
	if err != nil {
		return TypeExpr{}, l.errorf(n, "%v", err)
	}
	return t, nil
}

func (l *loader) typeList(n *yaml.Node) ([]TypeExpr, error) {
	items, err := l.seq(n)
	if err != nil {
		return nil, err
	}
	out := make([]TypeExpr, 0, len(items))
	for _, it := range items {
		t, err := l.typeExpr(it)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (l *loader) identList(n *yaml.Node) ([]source.Ident, error) {
	items, err := l.seq(n)
	if err != nil {
		return nil, err
	}
	out := make([]source.Ident, 0, len(items))
	for _, it := range items {
		id, err := l.ident(it)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (l *loader) program(n *yaml.Node) (*Program, error) {
	m, err := l.fields(n)
	if err != nil {
		return nil, err
	}
	kindNode, ok := m["kind"]
	if !ok {
		return nil, l.errorf(n, "missing program kind")
	}
	kind, err := ParseTreeType(kindNode.Value)
	if err != nil {
		return nil, l.errorf(kindNode, "%v", err)
	}
	root, err := l.module(m["root"], "")
	if err != nil {
		return nil, err
	}
	return &Program{Kind: kind, Root: root}, nil
}

func (l *loader) module(n *yaml.Node, name string) (*Module, error) {
	mod := &Module{Name: name, Span: l.span(n)}
	if n == nil {
		return mod, nil
	}
	m, err := l.fields(n)
	if err != nil {
		return nil, err
	}
	if mod.Deps, err = l.identList(m["deps"]); err != nil {
		return nil, err
	}
	subs, err := l.seq(m["submodules"])
	if err != nil {
		return nil, err
	}
	for _, s := range subs {
		sm, err := l.fields(s)
		if err != nil {
			return nil, err
		}
		subName, err := l.ident(sm["name"])
		if err != nil {
			return nil, err
		}
		child, err := l.module(sm["module"], subName.Name)
		if err != nil {
			return nil, err
		}
		mod.Submodules = append(mod.Submodules, &Submodule{Name: subName, Module: child})
	}
	nodes, err := l.seq(m["nodes"])
	if err != nil {
		return nil, err
	}
	for _, nn := range nodes {
		node, err := l.node(nn)
		if err != nil {
			return nil, err
		}
		mod.Nodes = append(mod.Nodes, node)
	}
	return mod, nil
}

func (l *loader) node(n *yaml.Node) (Node, error) {
	key, body, err := l.single(n)
	if err != nil {
		return Node{}, err
	}
	switch key {
	case "fn":
		fn, err := l.function(body)
		if err != nil {
			return Node{}, err
		}
		return FnNode(fn), nil
	case "struct":
		s, err := l.structDecl(body)
		if err != nil {
			return Node{}, err
		}
		return StructNode(s), nil
	case "enum":
		e, err := l.enumDecl(body)
		if err != nil {
			return Node{}, err
		}
		return EnumNode(e), nil
	case "storage":
		s, err := l.storage(body)
		if err != nil {
			return Node{}, err
		}
		return StorageNode(s), nil
	case "configurable":
		c, err := l.configurable(body)
		if err != nil {
			return Node{}, err
		}
		return ConfigurableNode(c), nil
	case "abi":
		a, err := l.abi(body)
		if err != nil {
			return Node{}, err
		}
		return AbiNode(a), nil
	case "impl":
		i, err := l.impl(body)
		if err != nil {
			return Node{}, err
		}
		return ImplNode(i), nil
	case "type":
		a, err := l.alias(body)
		if err != nil {
			return Node{}, err
		}
		return AliasNode(a), nil
	}
	return Node{}, l.errorf(n, "unknown item %q", key)
}

func (l *loader) attributes(n *yaml.Node) ([]Attribute, error) {
	items, err := l.seq(n)
	if err != nil {
		return nil, err
	}
	out := make([]Attribute, 0, len(items))
	for _, it := range items {
		m, err := l.fields(it)
		if err != nil {
			return nil, err
		}
		name, err := l.ident(m["name"])
		if err != nil {
			return nil, err
		}
		var args []string
		if a, ok := m["args"]; ok {
			if err := a.Decode(&args); err != nil {
				return nil, l.errorf(a, "attribute args: %v", err)
			}
		}
		out = append(out, Attribute{Name: name.Name, Args: args, Span: l.span(it)})
	}
	return out, nil
}

func (l *loader) function(n *yaml.Node) (*FunctionDecl, error) {
	m, err := l.fields(n)
	if err != nil {
		return nil, err
	}
	fn := &FunctionDecl{Span: l.span(n)}
	if fn.Name, err = l.ident(m["name"]); err != nil {
		return nil, err
	}
	if fn.TypeParams, err = l.identList(m["type_params"]); err != nil {
		return nil, err
	}
	params, err := l.seq(m["params"])
	if err != nil {
		return nil, err
	}
	for _, p := range params {
		pm, err := l.fields(p)
		if err != nil {
			return nil, err
		}
		name, err := l.ident(pm["name"])
		if err != nil {
			return nil, err
		}
		typ, err := l.typeExpr(pm["type"])
		if err != nil {
			return nil, err
		}
		mut, err := l.boolField(pm, "mut")
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, Param{Name: name, Type: typ, IsMut: mut})
	}
	if r, ok := m["returns"]; ok {
		t, err := l.typeExpr(r)
		if err != nil {
			return nil, err
		}
		fn.ReturnType = &t
	}
	if fn.Public, err = l.boolField(m, "pub"); err != nil {
		return nil, err
	}
	if st, ok := m["storage"]; ok {
		var access []string
		if err := st.Decode(&access); err != nil {
			return nil, l.errorf(st, "storage: %v", err)
		}
		for _, a := range access {
			switch a {
			case "read":
				fn.Purity.Reads = true
			case "write":
				fn.Purity.Writes = true
			default:
				return nil, l.errorf(st, "unknown storage access %q", a)
			}
		}
	}
	if fn.Attributes, err = l.attributes(m["attributes"]); err != nil {
		return nil, err
	}
	if b, ok := m["body"]; ok {
		if fn.Body, err = l.block(b); err != nil {
			return nil, err
		}
	}
	return fn, nil
}

func (l *loader) fieldDecls(n *yaml.Node, requireType bool) ([]FieldDecl, error) {
	items, err := l.seq(n)
	if err != nil {
		return nil, err
	}
	out := make([]FieldDecl, 0, len(items))
	for _, it := range items {
		m, err := l.fields(it)
		if err != nil {
			return nil, err
		}
		name, err := l.ident(m["name"])
		if err != nil {
			return nil, err
		}
		f := FieldDecl{Name: name, Type: UnitType(), Span: l.span(it)}
		if t, ok := m["type"]; ok {
			if f.Type, err = l.typeExpr(t); err != nil {
				return nil, err
			}
		} else if requireType {
			return nil, l.errorf(it, "field %s has no type", name.Name)
		}
		out = append(out, f)
	}
	return out, nil
}

func (l *loader) structDecl(n *yaml.Node) (*StructDecl, error) {
	m, err := l.fields(n)
	if err != nil {
		return nil, err
	}
	s := &StructDecl{Span: l.span(n)}
	if s.Name, err = l.ident(m["name"]); err != nil {
		return nil, err
	}
	if s.TypeParams, err = l.identList(m["type_params"]); err != nil {
		return nil, err
	}
	if s.Fields, err = l.fieldDecls(m["fields"], true); err != nil {
		return nil, err
	}
	if s.Public, err = l.boolField(m, "pub"); err != nil {
		return nil, err
	}
	if s.Attributes, err = l.attributes(m["attributes"]); err != nil {
		return nil, err
	}
	return s, nil
}

func (l *loader) enumDecl(n *yaml.Node) (*EnumDecl, error) {
	m, err := l.fields(n)
	if err != nil {
		return nil, err
	}
	e := &EnumDecl{Span: l.span(n)}
	if e.Name, err = l.ident(m["name"]); err != nil {
		return nil, err
	}
	if e.TypeParams, err = l.identList(m["type_params"]); err != nil {
		return nil, err
	}
	if e.Variants, err = l.fieldDecls(m["variants"], false); err != nil {
		return nil, err
	}
	if e.Public, err = l.boolField(m, "pub"); err != nil {
		return nil, err
	}
	return e, nil
}

func (l *loader) storage(n *yaml.Node) (*StorageDecl, error) {
	m, err := l.fields(n)
	if err != nil {
		return nil, err
	}
	s := &StorageDecl{Span: l.span(n)}
	items, err := l.seq(m["fields"])
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		fm, err := l.fields(it)
		if err != nil {
			return nil, err
		}
		name, err := l.ident(fm["name"])
		if err != nil {
			return nil, err
		}
		typ, err := l.typeExpr(fm["type"])
		if err != nil {
			return nil, err
		}
		f := StorageField{Name: name, Type: typ, Span: l.span(it)}
		if init, ok := fm["init"]; ok {
			if f.Init, err = l.expr(init); err != nil {
				return nil, err
			}
		}
		s.Fields = append(s.Fields, f)
	}
	if s.Attributes, err = l.attributes(m["attributes"]); err != nil {
		return nil, err
	}
	return s, nil
}

func (l *loader) configurable(n *yaml.Node) (*ConfigurableDecl, error) {
	m, err := l.fields(n)
	if err != nil {
		return nil, err
	}
	c := &ConfigurableDecl{Span: l.span(n)}
	if c.Name, err = l.ident(m["name"]); err != nil {
		return nil, err
	}
	if c.Type, err = l.typeExpr(m["type"]); err != nil {
		return nil, err
	}
	v, ok := m["value"]
	if !ok {
		return nil, l.errorf(n, "configurable %s has no value", c.Name.Name)
	}
	if c.Value, err = l.expr(v); err != nil {
		return nil, err
	}
	return c, nil
}

func (l *loader) alias(n *yaml.Node) (*AliasDecl, error) {
	m, err := l.fields(n)
	if err != nil {
		return nil, err
	}
	a := &AliasDecl{Span: l.span(n)}
	if a.Name, err = l.ident(m["name"]); err != nil {
		return nil, err
	}
	if a.Target, err = l.typeExpr(m["target"]); err != nil {
		return nil, err
	}
	return a, nil
}

func (l *loader) functions(n *yaml.Node) ([]FunctionDecl, error) {
	items, err := l.seq(n)
	if err != nil {
		return nil, err
	}
	out := make([]FunctionDecl, 0, len(items))
	for _, it := range items {
		fn, err := l.function(it)
		if err != nil {
			return nil, err
		}
		out = append(out, *fn)
	}
	return out, nil
}

func (l *loader) abi(n *yaml.Node) (*AbiDecl, error) {
	m, err := l.fields(n)
	if err != nil {
		return nil, err
	}
	a := &AbiDecl{Span: l.span(n)}
	if a.Name, err = l.ident(m["name"]); err != nil {
		return nil, err
	}
	if a.Methods, err = l.functions(m["methods"]); err != nil {
		return nil, err
	}
	return a, nil
}

func (l *loader) impl(n *yaml.Node) (*ImplDecl, error) {
	m, err := l.fields(n)
	if err != nil {
		return nil, err
	}
	i := &ImplDecl{Span: l.span(n)}
	if i.Trait, err = l.ident(m["trait"]); err != nil {
		return nil, err
	}
	if i.For, err = l.typeExpr(m["for"]); err != nil {
		return nil, err
	}
	if i.Items, err = l.functions(m["items"]); err != nil {
		return nil, err
	}
	return i, nil
}

func (l *loader) block(n *yaml.Node) (Block, error) {
	b := Block{Span: l.span(n)}
	items, err := l.seq(n)
	if err != nil {
		return Block{}, err
	}
	for i, it := range items {
		key, body, err := l.single(it)
		if err != nil {
			return Block{}, err
		}
		switch key {
		case "tail":
			if i != len(items)-1 {
				return Block{}, l.errorf(it, "tail must be the last item of a block")
			}
			if b.Tail, err = l.expr(body); err != nil {
				return Block{}, err
			}
		case "let":
			st, err := l.let(it, body)
			if err != nil {
				return Block{}, err
			}
			b.Stmts = append(b.Stmts, st)
		default:
			x, err := l.expr(it)
			if err != nil {
				return Block{}, err
			}
			b.Stmts = append(b.Stmts, Stmt{Kind: StmtExpr, Span: x.Span, Data: ExprStmtData{Expr: x}})
		}
	}
	return b, nil
}

func (l *loader) let(stmt, n *yaml.Node) (Stmt, error) {
	m, err := l.fields(n)
	if err != nil {
		return Stmt{}, err
	}
	data := LetData{}
	if data.Name, err = l.ident(m["name"]); err != nil {
		return Stmt{}, err
	}
	if t, ok := m["type"]; ok {
		te, err := l.typeExpr(t)
		if err != nil {
			return Stmt{}, err
		}
		data.Type = &te
	}
	if data.IsMut, err = l.boolField(m, "mut"); err != nil {
		return Stmt{}, err
	}
	v, ok := m["value"]
	if !ok {
		return Stmt{}, l.errorf(n, "let %s has no value", data.Name.Name)
	}
	if data.Value, err = l.expr(v); err != nil {
		return Stmt{}, err
	}
	return Stmt{Kind: StmtLet, Span: l.span(stmt), Data: data}, nil
}

func (l *loader) exprList(n *yaml.Node) ([]*Expr, error) {
	items, err := l.seq(n)
	if err != nil {
		return nil, err
	}
	out := make([]*Expr, 0, len(items))
	for _, it := range items {
		x, err := l.expr(it)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

func (l *loader) expr(n *yaml.Node) (*Expr, error) {
	key, body, err := l.single(n)
	if err != nil {
		return nil, err
	}
	sp := l.span(n)
	mk := func(kind ExprKind, data ExprData) *Expr {
		return &Expr{Kind: kind, Span: sp, Data: data}
	}
	switch key {
	case "lit":
		if body.Kind != yaml.ScalarNode {
			return nil, l.errorf(body, "literal must be a scalar")
		}
		switch {
		case body.Tag == "!!bool":
			return mk(ExprLiteral, LiteralData{Kind: LitBool, Text: body.Value}), nil
		case intLiteral.MatchString(body.Value):
			return mk(ExprLiteral, LiteralData{Kind: LitInt, Text: body.Value}), nil
		}
		return nil, l.errorf(body, "bad literal %q (use str: for strings)", body.Value)
	case "str":
		return mk(ExprLiteral, LiteralData{Kind: LitString, Text: body.Value}), nil
	case "b256":
		return mk(ExprLiteral, LiteralData{Kind: LitB256, Text: body.Value}), nil
	case "var":
		name, err := l.ident(body)
		if err != nil {
			return nil, err
		}
		return mk(ExprVar, VarData{Name: name}), nil
	case "call":
		m, err := l.fields(body)
		if err != nil {
			return nil, err
		}
		data := CallData{}
		if data.Name, err = l.ident(m["name"]); err != nil {
			return nil, err
		}
		if data.TypeArgs, err = l.typeList(m["type_args"]); err != nil {
			return nil, err
		}
		if data.Args, err = l.exprList(m["args"]); err != nil {
			return nil, err
		}
		return mk(ExprCall, data), nil
	case "struct":
		m, err := l.fields(body)
		if err != nil {
			return nil, err
		}
		data := StructData{}
		if data.Name, err = l.ident(m["name"]); err != nil {
			return nil, err
		}
		if data.TypeArgs, err = l.typeList(m["type_args"]); err != nil {
			return nil, err
		}
		inits, err := l.seq(m["fields"])
		if err != nil {
			return nil, err
		}
		for _, it := range inits {
			fm, err := l.fields(it)
			if err != nil {
				return nil, err
			}
			name, err := l.ident(fm["name"])
			if err != nil {
				return nil, err
			}
			v, err := l.expr(fm["value"])
			if err != nil {
				return nil, err
			}
			data.Fields = append(data.Fields, FieldInit{Name: name, Value: v})
		}
		return mk(ExprStruct, data), nil
	case "enum":
		m, err := l.fields(body)
		if err != nil {
			return nil, err
		}
		data := EnumData{}
		if data.Enum, err = l.ident(m["name"]); err != nil {
			return nil, err
		}
		if data.Variant, err = l.ident(m["variant"]); err != nil {
			return nil, err
		}
		if data.TypeArgs, err = l.typeList(m["type_args"]); err != nil {
			return nil, err
		}
		if v, ok := m["value"]; ok {
			if data.Value, err = l.expr(v); err != nil {
				return nil, err
			}
		}
		return mk(ExprEnum, data), nil
	case "tuple":
		elems, err := l.exprList(body)
		if err != nil {
			return nil, err
		}
		return mk(ExprTuple, TupleData{Elems: elems}), nil
	case "array":
		elems, err := l.exprList(body)
		if err != nil {
			return nil, err
		}
		return mk(ExprArray, ArrayData{Elems: elems}), nil
	case "index":
		m, err := l.fields(body)
		if err != nil {
			return nil, err
		}
		prefix, err := l.expr(m["of"])
		if err != nil {
			return nil, err
		}
		idxNode, ok := m["i"]
		if !ok {
			return nil, l.errorf(body, "index without i")
		}
		idx, err := strconv.Atoi(idxNode.Value)
		if err != nil || idx < 0 {
			return nil, l.errorf(idxNode, "bad tuple index %q", idxNode.Value)
		}
		return mk(ExprTupleIndex, TupleIndexData{Prefix: prefix, Index: idx}), nil
	case "field":
		m, err := l.fields(body)
		if err != nil {
			return nil, err
		}
		obj, err := l.expr(m["of"])
		if err != nil {
			return nil, err
		}
		name, err := l.ident(m["name"])
		if err != nil {
			return nil, err
		}
		return mk(ExprField, FieldData{Object: obj, Field: name}), nil
	case "if":
		m, err := l.fields(body)
		if err != nil {
			return nil, err
		}
		data := IfData{}
		if data.Cond, err = l.expr(m["cond"]); err != nil {
			return nil, err
		}
		if data.Then, err = l.block(m["then"]); err != nil {
			return nil, err
		}
		if e, ok := m["else"]; ok {
			els, err := l.block(e)
			if err != nil {
				return nil, err
			}
			data.Else = &els
		}
		return mk(ExprIf, data), nil
	case "block":
		b, err := l.block(body)
		if err != nil {
			return nil, err
		}
		return mk(ExprBlock, BlockData{Block: b}), nil
	case "return":
		data := ReturnData{}
		if body.Kind != yaml.ScalarNode || body.Tag != "!!null" {
			if data.Value, err = l.expr(body); err != nil {
				return nil, err
			}
		}
		return mk(ExprReturn, data), nil
	case "storage_read":
		name, err := l.ident(body)
		if err != nil {
			return nil, err
		}
		return mk(ExprStorageRead, StorageData{Field: name}), nil
	case "storage_write":
		m, err := l.fields(body)
		if err != nil {
			return nil, err
		}
		name, err := l.ident(m["field"])
		if err != nil {
			return nil, err
		}
		v, err := l.expr(m["value"])
		if err != nil {
			return nil, err
		}
		return mk(ExprStorageWrite, StorageData{Field: name, Value: v}), nil
	}
	return nil, l.errorf(n, "unknown expression %q", key)
}
