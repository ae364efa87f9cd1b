package entry

import (
	"context"
	"errors"
	"testing"

	"ledgerc/internal/corelib"
	"ledgerc/internal/decl"
	"ledgerc/internal/diag"
	"ledgerc/internal/namespace"
	"ledgerc/internal/parsed"
	"ledgerc/internal/sema"
	"ledgerc/internal/source"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

const contractSrc = `kind: contract
root:
  nodes:
    - abi:
        name: Demo
        methods:
          - {name: foo, returns: u64}
          - {name: bar, params: [{name: x, type: u64}], returns: u64}
    - impl:
        trait: Demo
        for: Contract
        items:
          - {name: foo, returns: u64, body: [{tail: {lit: 1}}]}
          - {name: bar, params: [{name: x, type: u64}], returns: u64, body: [{tail: {var: x}}]}
`

const scriptSrc = `kind: script
root:
  nodes:
    - fn:
        name: main
        params: [{name: a, type: u64}, {name: b, type: bool}]
        returns: u64
        body:
          - tail: {if: {cond: {var: b}, then: [{tail: {var: a}}], else: [{tail: {lit: 0}}]}}
`

func load(t *testing.T, src string, prelude func(ty.Engines) (*namespace.Module, error)) (*sema.Checker, *ty.Module) {
	t.Helper()
	prog, err := parsed.LoadYAML(source.NewFileSet(), "entry.yaml", []byte(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	e := ty.NewEngines()
	ns, err := prelude(e)
	if err != nil {
		t.Fatalf("prelude: %v", err)
	}
	c := sema.NewChecker(e, prog.Kind, ns)
	h := diag.NewHandler(50)
	if err := c.OrderModules(context.Background(), h, prog); err != nil {
		t.Fatalf("order: %v", err)
	}
	root, err := c.CheckModules(context.Background(), h)
	if err != nil {
		for _, d := range h.Diagnostics() {
			t.Logf("%s", d.Error())
		}
		t.Fatalf("check: %v", err)
	}
	return c, root
}

func TestSynthesizeScript(t *testing.T) {
	c, root := load(t, scriptSrc, corelib.Namespace)
	h := diag.NewHandler(10)
	before := len(root.Nodes)
	res, err := Synthesize(context.Background(), h, c, root, Options{NewEncoding: true})
	if err != nil || res == nil {
		t.Fatalf("synthesize: %v %v", err, h.Diagnostics())
	}
	if len(root.Nodes) != before+1 || root.Nodes[before].Decl.ID != res.ID {
		t.Fatalf("entry node not appended")
	}
	if !res.Fn.Span.IsSynthetic() || res.Fn.Kind != ty.FnEntry || res.Fn.Name.Name != Name {
		t.Fatalf("entry = %+v", res.Fn)
	}

	e := c.Engines()
	b := e.Builtins()
	let := res.Fn.Body.Stmts[0].Data.(ty.LetData)
	elems, ok := e.Types.TupleElems(let.Type)
	if !ok || len(elems) != 2 || elems[0] != b.U64 || elems[1] != b.Bool {
		t.Fatalf("args type = %s", e.DisplayType(let.Type))
	}
	decode := let.Value.Data.(ty.CallData)
	if decode.Name != corelib.DecodeScriptData {
		t.Fatalf("decoded with %s", decode.Name)
	}

	// the main call gets args.0 and args.1 in order
	var mainCall *ty.CallData
	ty.WalkBlock(res.Fn.Body, func(x *ty.Expr) bool {
		if d, ok := x.Data.(ty.CallData); ok && d.Name == "main" {
			mainCall = &d
		}
		return true
	})
	if mainCall == nil || len(mainCall.Args) != 2 {
		t.Fatalf("main call = %+v", mainCall)
	}
	for i, a := range mainCall.Args {
		idx, ok := a.Data.(ty.TupleIndexData)
		if !ok || idx.Index != i {
			t.Fatalf("argument %d is %+v", i, a.Data)
		}
	}
}

func TestSynthesizeScriptWithoutParams(t *testing.T) {
	c, root := load(t, `kind: script
root:
  nodes:
    - fn: {name: main, body: []}
`, corelib.Namespace)
	h := diag.NewHandler(10)
	res, err := Synthesize(context.Background(), h, c, root, Options{NewEncoding: true})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	for _, st := range res.Fn.Body.Stmts {
		if let, ok := st.Data.(ty.LetData); ok && let.Name.Name == argsVar {
			t.Fatalf("decode step must be skipped for a main without parameters")
		}
	}
}

func TestSynthesizeContract(t *testing.T) {
	c, root := load(t, contractSrc, corelib.Namespace)
	h := diag.NewHandler(10)
	res, err := Synthesize(context.Background(), h, c, root, Options{NewEncoding: true})
	if err != nil {
		t.Fatalf("synthesize: %v %v", err, h.Diagnostics())
	}
	if res.Fn.Purity != ty.ReadsWrites {
		t.Fatalf("dispatcher purity = %s", res.Fn.Purity)
	}
	if len(res.Dispatch) != 2 || res.Dispatch[0].Name != "foo" || res.Dispatch[1].Name != "bar" {
		t.Fatalf("dispatch = %+v", res.Dispatch)
	}
	e := c.Engines()
	if res.Dispatch[0].Args != types.NoTypeID {
		t.Fatalf("foo takes no arguments")
	}
	elems, ok := e.Types.TupleElems(res.Dispatch[1].Args)
	if !ok || len(elems) != 1 || elems[0] != e.Builtins().U64 {
		t.Fatalf("bar args = %s", e.DisplayType(res.Dispatch[1].Args))
	}
	fn := decl.MustAs[*ty.FunctionDecl](e.Decls, res.Dispatch[1].ID)
	if fn.Name.Name != sema.ContractEntryPrefix+"bar" {
		t.Fatalf("dispatch target = %s", fn.Name.Name)
	}

	ifs := 0
	for _, st := range res.Fn.Body.Stmts {
		if x, ok := st.Data.(ty.ExprStmtData); ok && x.Expr.Kind == ty.ExprIf {
			if x.Expr.Data.(ty.IfData).Else != nil {
				t.Fatalf("dispatch branches have no else")
			}
			ifs++
		}
	}
	if ifs != 2 {
		t.Fatalf("want one branch per method, got %d", ifs)
	}
	if res.Fn.Body.Tail != nil {
		t.Fatalf("dispatcher must not return after the last branch")
	}
}

func TestSynthesizeContractSubmodulesFirst(t *testing.T) {
	c, root := load(t, `kind: contract
root:
  submodules:
    - name: inner
      module:
        nodes:
          - abi: {name: Inner, methods: [{name: ping, returns: bool}]}
          - impl: {trait: Inner, for: Contract, items: [{name: ping, returns: bool, body: [{tail: {lit: true}}]}]}
  nodes:
    - abi: {name: Outer, methods: [{name: pong}]}
    - impl: {trait: Outer, for: Contract, items: [{name: pong, body: []}]}
`, corelib.Namespace)
	res, err := Synthesize(context.Background(), diag.NewHandler(10), c, root, Options{NewEncoding: true})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if len(res.Dispatch) != 2 || res.Dispatch[0].Name != "ping" || res.Dispatch[1].Name != "pong" {
		t.Fatalf("dispatch = %+v", res.Dispatch)
	}
}

func TestSynthesizeNoOp(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts Options
	}{
		{"flag off", scriptSrc, Options{}},
		{"predicate", `kind: predicate
root:
  nodes:
    - fn: {name: main, returns: bool, body: [{tail: {lit: true}}]}
`, Options{NewEncoding: true}},
		{"library", `kind: library
root:
  nodes:
    - fn: {name: f, body: []}
`, Options{NewEncoding: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, root := load(t, tt.src, corelib.Namespace)
			before := len(root.Nodes)
			h := diag.NewHandler(10)
			res, err := Synthesize(context.Background(), h, c, root, tt.opts)
			if err != nil || res != nil || len(root.Nodes) != before || len(h.Diagnostics()) != 0 {
				t.Fatalf("want no-op, got %+v %v", res, err)
			}
		})
	}
}

func TestSynthesizeInternalFailures(t *testing.T) {
	t.Run("core ops missing", func(t *testing.T) {
		c, root := load(t, contractSrc, corelib.WithoutOps)
		h := diag.NewHandler(10)
		_, err := Synthesize(context.Background(), h, c, root, Options{NewEncoding: true})
		assertInternal(t, h, err)
	})
	t.Run("entry name taken", func(t *testing.T) {
		c, root := load(t, `kind: script
root:
  nodes:
    - fn: {name: main, body: []}
    - fn: {name: __entry, body: []}
`, corelib.Namespace)
		h := diag.NewHandler(10)
		_, err := Synthesize(context.Background(), h, c, root, Options{NewEncoding: true})
		assertInternal(t, h, err)
	})
}

func assertInternal(t *testing.T, h *diag.Handler, err error) {
	t.Helper()
	if !errors.Is(err, diag.ErrEmitted) {
		t.Fatalf("want ErrEmitted, got %v", err)
	}
	errs := h.Errors()
	if len(errs) != 1 || errs[0].Code != diag.AbiInternalSynthesisFailure || !errs[0].Code.IsInternal() {
		t.Fatalf("want one internal failure, got %v", errs)
	}
}

func TestUnsupportedParameterIsUserError(t *testing.T) {
	c, root := load(t, `kind: script
root:
  nodes:
    - fn: {name: main, params: [{name: p, type: raw_ptr}], body: []}
`, corelib.Namespace)
	h := diag.NewHandler(10)
	_, err := Synthesize(context.Background(), h, c, root, Options{NewEncoding: true})
	if !errors.Is(err, diag.ErrEmitted) {
		t.Fatalf("want error, got %v", err)
	}
	errs := h.Errors()
	if len(errs) != 1 || errs[0].Code != diag.AbiUnsupportedParamType || errs[0].Code.IsInternal() {
		t.Fatalf("got %v", errs)
	}
}
