package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ledgerc/internal/abi"
	"ledgerc/internal/decl"
	"ledgerc/internal/entry"
	"ledgerc/internal/interp"
	"ledgerc/internal/parsed"
	"ledgerc/internal/pipeline"
	"ledgerc/internal/ty"
	"ledgerc/internal/types"
)

var errReverted = errors.New("call reverted")

var callCmd = &cobra.Command{
	Use:   "call <package-dir> [method]",
	Short: "Compile a package and run its entry against call data",
	Long: `Call compiles a script or contract with new_encoding enabled and
evaluates the synthesized entry. Contracts need the method name. Arguments
are given one --arg per parameter, or already encoded with --data.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		texts, err := cmd.Flags().GetStringArray("arg")
		if err != nil {
			return err
		}
		data, err := cmd.Flags().GetString("data")
		if err != nil {
			return err
		}
		if data != "" && len(texts) > 0 {
			return fmt.Errorf("--arg and --data are exclusive")
		}
		results, err := compile(cmd, args[:1], compileOptions{title: "compiling", experimental: []string{"new_encoding"}})
		if err != nil {
			return err
		}
		if len(results) != 1 || results[0].Program == nil {
			return fmt.Errorf("%s: nothing to run", args[0])
		}
		method := ""
		if len(args) == 2 {
			method = args[1]
		}
		return runCall(cmd, results[0], method, texts, data)
	},
}

func init() {
	addCompileFlags(callCmd)
	callCmd.Flags().StringArray("arg", nil, "argument literal, one per parameter")
	callCmd.Flags().String("data", "", "hex encoded argument tuple")
}

func runCall(cmd *cobra.Command, r pipeline.UnitResult, method string, texts []string, data string) error {
	e, p := r.Engines, r.Program
	if p.Entry == decl.NoID {
		return fmt.Errorf("%s: a %s has no entry to call", r.Unit.Name, p.Kind)
	}

	var frame interp.CallFrame
	var argsType, retType types.TypeID
	switch p.Kind {
	case parsed.Contract:
		m, err := findMethod(p.Dispatch, method)
		if err != nil {
			return err
		}
		frame.MethodName = m.Name
		argsType = m.Args
		retType = decl.MustAs[*ty.FunctionDecl](e.Decls, m.ID).ReturnType.TypeID
	default:
		if method != "" {
			return fmt.Errorf("a %s takes no method name", p.Kind)
		}
		_, mainFn, ok := p.Root.FindFunction(e, "main")
		if !ok {
			return fmt.Errorf("%s: no main function", r.Unit.Name)
		}
		if len(mainFn.Parameters) > 0 {
			argsType = e.Types.RegisterTuple(mainFn.ParamTypes())
		}
		retType = mainFn.ReturnType.TypeID
	}

	encoded, err := callData(e, argsType, texts, data)
	if err != nil {
		return err
	}
	if p.Kind == parsed.Contract {
		frame.Args = encoded
	} else {
		frame.ScriptData = encoded
	}

	var storage *ty.StorageDecl
	if p.Storage != decl.NoID {
		storage = decl.MustAs[*ty.StorageDecl](e.Decls, p.Storage)
	}
	m, err := interp.New(e, storage)
	if err != nil {
		return err
	}
	fn := decl.MustAs[*ty.FunctionDecl](e.Decls, p.Entry)
	out, err := m.Run(cmd.Context(), fn, frame)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, l := range out.Logs {
		if l.Recipient != nil {
			fmt.Fprintf(w, "message %s to %s: %s\n", e.DisplayType(l.Type), hex.EncodeToString(l.Recipient[:]), hex.EncodeToString(l.Data))
			continue
		}
		fmt.Fprintf(w, "log %s: %s\n", e.DisplayType(l.Type), hex.EncodeToString(l.Data))
	}
	if out.Reverted {
		return fmt.Errorf("%w with code %d", errReverted, out.RevertCode)
	}
	fmt.Fprintf(w, "returned %s\n", hex.EncodeToString(out.ReturnData))
	if v, _, err := abi.Decode(e, retType, out.ReturnData); err == nil {
		fmt.Fprintf(w, "value %s = %v\n", e.DisplayType(retType), v)
	}
	return nil
}

func findMethod(dispatch []entry.Method, name string) (entry.Method, error) {
	names := make([]string, len(dispatch))
	for i, m := range dispatch {
		if m.Name == name {
			return m, nil
		}
		names[i] = m.Name
	}
	if name == "" {
		return entry.Method{}, fmt.Errorf("a contract call needs a method (one of %s)", strings.Join(names, ", "))
	}
	return entry.Method{}, fmt.Errorf("unknown method %q (one of %s)", name, strings.Join(names, ", "))
}

func callData(e ty.Engines, argsType types.TypeID, texts []string, data string) ([]byte, error) {
	if data != "" {
		raw, err := hex.DecodeString(strings.TrimPrefix(data, "0x"))
		if err != nil {
			return nil, fmt.Errorf("--data: %w", err)
		}
		return raw, nil
	}
	return abi.ParseArgs(e, argsType, texts)
}
