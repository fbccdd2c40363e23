package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the version of the binary, set at link time.
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version",
	Run: func(*cobra.Command, []string) {
		fmt.Println("skylink-node", Version)
	},
}
