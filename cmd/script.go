// File: cmd/script.go
package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-stealth/internal/stealth"
)

func newScriptCmd() *cobra.Command {
	var (
		flags  stealthFlags
		output string
		check  bool
	)

	scriptCmd := &cobra.Command{
		Use:   "script",
		Short: "Print the combined stealth init script",
		Long: `Derives the fingerprint properties for the selected browser profile, applies the
configured overrides and prints the script to register with
Page.addScriptToEvaluateOnNewDocument (or the driver's equivalent).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newComponents(cmd, &flags, check)
			if err != nil {
				return err
			}

			payload, err := c.Installer.Prepare(c.Stealth)
			if err != nil {
				return err
			}

			if check {
				opts, err := stealth.EvalOpts(cmd.Context(), payload.Properties)
				if err != nil {
					return fmt.Errorf("opts self-check failed: %w", err)
				}
				c.Logger.Info("Script self-check passed",
					zap.Int("script_bytes", len(payload.Script)),
					zap.Int("opts_keys", len(opts)),
				)
			}

			if output != "" {
				if err := os.WriteFile(output, []byte(payload.Script), 0o644); err != nil {
					return fmt.Errorf("failed to write script: %w", err)
				}
				c.Logger.Info("Stealth script written", zap.String("path", output))
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), payload.Script)
			return err
		},
	}

	flags.register(scriptCmd)
	scriptCmd.Flags().StringVarP(&output, "output", "o", "", "write the script to this file instead of stdout")
	scriptCmd.Flags().BoolVar(&check, "check", false, "compile the script and evaluate opts before printing")

	return scriptCmd
}

func newHeadersCmd() *cobra.Command {
	var flags stealthFlags

	headersCmd := &cobra.Command{
		Use:   "headers",
		Short: "Print the HTTP headers the profile sends, as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newComponents(cmd, &flags, false)
			if err != nil {
				return err
			}

			payload, err := c.Installer.Prepare(c.Stealth)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(payload.Headers, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to serialize headers to JSON: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	flags.register(headersCmd)
	return headersCmd
}
