package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ledgerc/internal/config"
	"ledgerc/internal/diag"
	"ledgerc/internal/diagfmt"
	"ledgerc/internal/pipeline"
	"ledgerc/internal/ui"
)

var errDiagnostics = errors.New("diagnostics reported errors")

// addCompileFlags registers the flags shared by the compiling commands.
func addCompileFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("experimental", nil, "enable an experimental feature (new_encoding)")
	cmd.Flags().Int("jobs", 0, "analyze workers per package (0 keeps the manifest value)")
	cmd.Flags().Int("parallel", 0, "packages compiled at once (0 = GOMAXPROCS)")
	cmd.Flags().String("format", "pretty", "diagnostics format (pretty|json)")
}

type compileOptions struct {
	title  string
	emit   bool
	output string

	// experimental features enabled on top of --experimental
	experimental []string
}

// compile resolves dirs to units, runs the pipeline and prints every
// unit's diagnostics. Diagnostics with errors turn into errDiagnostics.
func compile(cmd *cobra.Command, dirs []string, opts compileOptions) ([]pipeline.UnitResult, error) {
	experimental, err := cmd.Flags().GetStringSlice("experimental")
	if err != nil {
		return nil, err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return nil, err
	}
	parallel, err := cmd.Flags().GetInt("parallel")
	if err != nil {
		return nil, err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}
	if format != "pretty" && format != "json" {
		return nil, fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	root := cmd.Root().PersistentFlags()
	maxDiagnostics, err := root.GetInt("max-diagnostics")
	if err != nil {
		return nil, err
	}
	uiValue, err := root.GetString("ui")
	if err != nil {
		return nil, err
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return nil, err
	}
	showTimings, err := root.GetBool("timings")
	if err != nil {
		return nil, err
	}
	colorize, err := colorEnabled(cmd)
	if err != nil {
		return nil, err
	}

	experimental = append(experimental, opts.experimental...)
	if opts.output != "" && len(dirs) > 1 {
		return nil, fmt.Errorf("--output needs exactly one package")
	}
	units, err := pipeline.Resolve(dirs, config.Overrides{
		Experimental:   experimental,
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
		Artifact:       opts.output,
	})
	if err != nil {
		return nil, err
	}
	req := &pipeline.Request{Units: units, Jobs: parallel, Emit: opts.emit}

	ctx := cmd.Context()
	var results []pipeline.UnitResult
	var runErr error
	if format == "pretty" && shouldUseTUI(uiModeValue) {
		results, runErr = ui.RunCompile(ctx, cmd.OutOrStdout(), opts.title, req)
	} else {
		results, runErr = pipeline.Compile(ctx, req)
	}

	out := cmd.OutOrStdout()
	failed := false
	for _, r := range results {
		if r.Handler == nil {
			continue
		}
		bag := r.Handler.Bag()
		if bag.HasErrors() {
			failed = true
		}
		if err := printDiagnostics(out, r, bag.Items(), format, colorize); err != nil {
			return results, err
		}
	}
	if showTimings {
		for _, r := range results {
			printStageTimings(cmd.ErrOrStderr(), r)
		}
	}
	if runErr != nil && !failed {
		return results, runErr
	}
	for _, r := range results {
		if r.Err != nil && (r.Handler == nil || !r.Handler.HasErrors()) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.Unit.Name, r.Err)
		}
	}
	if failed {
		return results, errDiagnostics
	}
	return results, nil
}

func printDiagnostics(out io.Writer, r pipeline.UnitResult, items []diag.Diagnostic, format string, colorize bool) error {
	if format == "json" {
		return diagfmt.JSON(out, items, r.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeNotes:     true,
			PathMode:         diagfmt.PathModeAuto,
			BaseDir:          workingDir(),
		})
	}
	if len(items) == 0 {
		return nil
	}
	return diagfmt.Pretty(out, items, r.FileSet, diagfmt.PrettyOpts{
		Color:     colorize,
		PathMode:  diagfmt.PathModeAuto,
		BaseDir:   workingDir(),
		ShowNotes: true,
		Max:       r.Unit.Config.MaxDiagnostics,
	})
}

func printStageTimings(out io.Writer, r pipeline.UnitResult) {
	stages := []pipeline.Stage{
		pipeline.StageLoad, pipeline.StageCheck, pipeline.StageEntry,
		pipeline.StageAnalyze, pipeline.StageStorage, pipeline.StageEmit,
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", r.Unit.Name)
	for _, st := range stages {
		if r.Timings.Has(st) {
			fmt.Fprintf(&b, " %s %.1f ms", st, toMillis(r.Timings.Duration(st)))
		}
	}
	fmt.Fprintln(out, b.String())
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

func colorEnabled(cmd *cobra.Command) (bool, error) {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "", "auto":
		return isTerminal(os.Stdout), nil
	}
	return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
}
