// File: cmd/scripts.go
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/scalpel-stealth/internal/stealth"
	"github.com/xkilldash9x/scalpel-stealth/internal/stealth/scripts"
)

func newScriptsCmd() *cobra.Command {
	var flags stealthFlags

	scriptsCmd := &cobra.Command{
		Use:   "scripts",
		Short: "List the evasion scripts and whether the current profile enables them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newComponents(cmd, &flags, false)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFILE\tENABLED")
			for _, name := range []string{scripts.Utils, scripts.GenerateMagicArrays} {
				file, _ := scripts.FileName(name)
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, file, "always")
			}
			for _, name := range stealth.ToggleNames() {
				file, _ := scripts.FileName(name)
				enabled, err := c.Stealth.Scripts.Enabled(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%t\n", name, file, enabled)
			}
			return w.Flush()
		},
	}

	flags.register(scriptsCmd)
	return scriptsCmd
}
