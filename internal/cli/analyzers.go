package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/patrol/internal/rules"
)

var analyzersCmd = &cobra.Command{
	Use:   "analyzers",
	Short: "List the available analyzers",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range rules.Names() {
			fmt.Fprintln(os.Stdout, name)
		}
	},
}
