package parsed

import (
	"strings"
	"testing"

	"ledgerc/internal/source"
)

const counterYAML = `kind: contract
root:
  submodules:
    - name: util
      module:
        nodes:
          - fn:
              name: double
              params: [{name: x, type: u64}]
              returns: u64
              body:
                - tail: {call: {name: add, args: [{var: x}, {var: x}]}}
  nodes:
    - storage:
        fields:
          - {name: counter, type: u64, init: {lit: 0}}
    - abi:
        name: Counter
        methods:
          - {name: get, returns: u64, storage: [read]}
    - impl:
        trait: Counter
        for: Contract
        items:
          - name: get
            returns: u64
            storage: [read]
            body:
              - let: {name: v, type: "(u64, bool)", value: {tuple: [{storage_read: counter}, {lit: true}]}}
              - tail: {index: {of: {var: v}, i: 0}}
`

func TestLoadYAMLContract(t *testing.T) {
	fs := source.NewFileSet()
	prog, err := LoadYAML(fs, "counter.yaml", []byte(counterYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if prog.Kind != Contract {
		t.Fatalf("kind = %v", prog.Kind)
	}
	if len(prog.Root.Submodules) != 1 || prog.Root.Submodules[0].Name.Name != "util" {
		t.Fatalf("submodules = %+v", prog.Root.Submodules)
	}
	if len(prog.Root.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(prog.Root.Nodes))
	}
	impl, ok := prog.Root.Nodes[2].Data.(*ImplDecl)
	if !ok {
		t.Fatalf("third node is %T", prog.Root.Nodes[2].Data)
	}
	get := impl.Items[0]
	if !get.Purity.Reads || get.Purity.Writes {
		t.Fatalf("purity = %+v", get.Purity)
	}
	let := get.Body.Stmts[0].Data.(LetData)
	if let.Type == nil || let.Type.String() != "(u64, bool)" {
		t.Fatalf("let type = %v", let.Type)
	}
	if get.Body.Tail == nil || get.Body.Tail.Kind != ExprTupleIndex {
		t.Fatalf("tail = %+v", get.Body.Tail)
	}

	// spans point back into the file
	start, _, ok := fs.Resolve(get.Name.Span)
	if !ok || start.Line != 25 {
		t.Fatalf("name span resolves to %+v (ok=%v)", start, ok)
	}
}

func TestLoadYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing kind", "root: {}\n", "missing program kind"},
		{"bad kind", "kind: wallet\n", "unknown program kind"},
		{"unknown item", "kind: script\nroot:\n  nodes:\n    - trait: {name: X}\n", `unknown item "trait"`},
		{"bad literal", "kind: script\nroot:\n  nodes:\n    - fn: {name: main, body: [{tail: {lit: abc}}]}\n", "bad literal"},
		{"tail not last", "kind: script\nroot:\n  nodes:\n    - fn: {name: main, body: [{tail: {lit: 1}}, {lit: 2}]}\n", "tail must be the last"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadYAML(source.NewFileSet(), "bad.yaml", []byte(tt.src))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
