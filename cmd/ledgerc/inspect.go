package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"ledgerc/internal/artifact"
	"ledgerc/internal/source"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <artifact>",
	Short: "Summarize a built artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := artifact.Read(args[0])
		if err != nil {
			return err
		}
		lines, err := cmd.Flags().GetBool("lines")
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printArtifact(out, a)
		if lines {
			printLineTable(out, cmd.ErrOrStderr(), a)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().Bool("lines", false, "print the line table recovered from the source map")
}

func printArtifact(out io.Writer, a *artifact.Artifact) {
	fmt.Fprintf(out, "package:  %s (%s)\n", a.Package, a.Kind)
	fmt.Fprintf(out, "build:    %s at %s\n", a.BuildID, a.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Fprintf(out, "hash:     %s\n", a.Fingerprint)
	if a.Entry != "" {
		fmt.Fprintf(out, "entry:    %s\n", a.Entry)
	}
	for _, m := range a.Dispatch {
		fmt.Fprintf(out, "method:   %s%s\n", m.Name, m.Args)
	}
	fmt.Fprintf(out, "decls:    %s\n", strings.Join(a.Declarations, ", "))
	if len(a.Configurables) > 0 {
		fmt.Fprintf(out, "config:   %s\n", strings.Join(a.Configurables, ", "))
	}
	if len(a.LoggedTypes) > 0 {
		fmt.Fprintf(out, "logged:   %s\n", strings.Join(a.LoggedTypes, ", "))
	}
	if len(a.MessageTypes) > 0 {
		fmt.Fprintf(out, "messages: %s\n", strings.Join(a.MessageTypes, ", "))
	}
	for _, s := range a.StorageSlots {
		fmt.Fprintf(out, "slot:     %s = %s\n", hex.EncodeToString(s.Key), hex.EncodeToString(s.Value))
	}
	if a.Timings != nil {
		for _, ph := range a.Timings.Phases {
			fmt.Fprintf(out, "timing:   %s %.2f ms\n", ph.Name, ph.DurationMS)
		}
	}
}

func printLineTable(out, errOut io.Writer, a *artifact.Artifact) {
	if a.SourceMap == nil {
		return
	}
	fs := source.NewFileSet()
	for _, path := range a.SourceMap.Paths {
		if _, err := fs.Load(path); err != nil {
			fmt.Fprintf(errOut, "inspect: %v\n", err)
		}
	}
	table, missing := a.SourceMap.LineTable(fs)
	paths := make([]string, 0, len(table))
	for path := range table {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	for _, path := range paths {
		lines := make([]uint32, 0, len(table[path]))
		for line := range table[path] {
			lines = append(lines, line)
		}
		slices.Sort(lines)
		for _, line := range lines {
			fmt.Fprintf(out, "%s:%d -> %d\n", path, line, table[path][line])
		}
	}
	for _, path := range missing {
		fmt.Fprintf(out, "%s: source unavailable\n", path)
	}
}
