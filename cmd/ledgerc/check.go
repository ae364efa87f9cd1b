package main

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [package-dir...]",
	Short: "Type-check ledger packages",
	Long: `Check runs every semantic stage up to storage initialization for each
package and reports diagnostics. No artifact is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := compile(cmd, args, compileOptions{title: "checking"})
		return err
	},
}

func init() {
	addCompileFlags(checkCmd)
}
