package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [package-dir...]",
	Short: "Check packages and write their artifacts",
	Long: `Build checks each package and writes the artifact configured by
[output].artifact in ledger.toml, or by --output for a single package.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}
		results, err := compile(cmd, args, compileOptions{title: "building", emit: true, output: output})
		if err != nil {
			return err
		}
		quiet, err := cmd.Flags().GetBool("quiet")
		if err != nil {
			return err
		}
		if quiet {
			return nil
		}
		for _, r := range results {
			if r.Artifact == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: checked (no artifact path configured)\n", r.Unit.Name)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: wrote %s (build %s)\n",
				r.Unit.Name, r.Unit.Config.Artifact, r.Artifact.BuildID)
		}
		return nil
	},
}

func init() {
	addCompileFlags(buildCmd)
	buildCmd.Flags().StringP("output", "o", "", "artifact path (single package only)")
	buildCmd.Flags().BoolP("quiet", "q", false, "do not list written artifacts")
}
