package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var slotsCmd = &cobra.Command{
	Use:   "slots [package-dir...]",
	Short: "Print the initial storage slots of contract packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := compile(cmd, args, compileOptions{title: "storage"})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, r := range results {
			if r.Program == nil {
				continue
			}
			if len(results) > 1 {
				fmt.Fprintf(out, "# %s\n", r.Unit.Name)
			}
			if len(r.Program.StorageSlots) == 0 {
				fmt.Fprintln(out, "no storage")
				continue
			}
			for _, slot := range r.Program.StorageSlots {
				fmt.Fprintf(out, "%s %s\n", hex.EncodeToString(slot.Key[:]), hex.EncodeToString(slot.Value[:]))
			}
		}
		return nil
	},
}

func init() {
	addCompileFlags(slotsCmd)
}
