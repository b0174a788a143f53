// File: cmd/open.go
package cmd

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-stealth/internal/browser"
)

func newOpenCmd() *cobra.Command {
	var (
		flags    stealthFlags
		driver   string
		headless bool
	)

	openCmd := &cobra.Command{
		Use:   "open <url>",
		Short: "Open a URL in a stealth browser and print what the page sees",
		Long: `Launches a browser through the configured driver (chromedp, rod or playwright),
installs the stealth profile before any document loads, navigates to the URL and
prints the navigator fingerprint observed by the page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			ctx := cmd.Context()

			c, err := newComponents(cmd, &flags, false)
			if err != nil {
				return err
			}

			bcfg := c.Config.Browser
			if cmd.Flags().Changed("driver") {
				bcfg.Driver = driver
			}
			if cmd.Flags().Changed("headless") {
				bcfg.Headless = headless
			}

			page, err := browser.Open(ctx, bcfg, c.Installer, c.Stealth, c.Logger)
			if err != nil {
				return fmt.Errorf("failed to open browser: %w", err)
			}
			defer func() {
				if err := page.Close(); err != nil {
					c.Logger.Warn("Error closing browser", zap.Error(err))
				}
			}()

			navCtx := ctx
			if bcfg.NavigationTimeout > 0 {
				var cancel context.CancelFunc
				navCtx, cancel = context.WithTimeout(ctx, bcfg.NavigationTimeout)
				defer cancel()
			}

			c.Logger.Info("Navigating", zap.String("url", target), zap.String("driver", bcfg.Driver))
			if err := page.Navigate(navCtx, target); err != nil {
				return fmt.Errorf("failed to navigate to %s: %w", target, err)
			}

			raw, err := page.Evaluate(navCtx, browser.FingerprintExpression)
			if err != nil {
				return fmt.Errorf("failed to read fingerprint: %w", err)
			}

			var fingerprint map[string]interface{}
			if err := json.Unmarshal([]byte(raw), &fingerprint); err != nil {
				return fmt.Errorf("page returned malformed fingerprint: %w", err)
			}
			out, err := json.MarshalIndent(fingerprint, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to serialize fingerprint to JSON: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	flags.register(openCmd)
	openCmd.Flags().StringVar(&driver, "driver", "", "browser driver: chromedp, rod or playwright (overrides browser.driver)")
	openCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless (overrides browser.headless)")

	return openCmd
}
