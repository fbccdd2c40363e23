package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skycoin/skylink/pkg/eventlog"
)

var (
	procs    int
	messages int
)

var validateCmd = &cobra.Command{
	Use:   "validate [output-path...]",
	Short: "Checks output files for in-order broadcast and FIFO delivery",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if procs > 0 && len(args) != procs {
			return fmt.Errorf("got %d output files for %d processes", len(args), procs)
		}

		failed := 0
		for _, path := range args {
			fmt.Printf("Checking %s\n", path)
			if err := eventlog.ValidateFIFOFile(path, messages); err != nil {
				fmt.Fprintf(os.Stderr, "Validation failed: %s\n", err)
				failed++
				continue
			}
			fmt.Println("Validation OK")
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed validation", failed, len(args))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().IntVar(&procs, "procs", 0, "total number of processes (0 skips the file count check)")
	validateCmd.Flags().IntVarP(&messages, "messages", "m", 0, "messages broadcast by every process (0 skips the count check)")
}
