// File: cmd/factory.go

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-stealth/internal/config"
	"github.com/xkilldash9x/scalpel-stealth/internal/observability"
	"github.com/xkilldash9x/scalpel-stealth/internal/stealth"
	"github.com/xkilldash9x/scalpel-stealth/internal/stealth/scripts"
)

// Components holds what a command needs to compose or install a profile.
type Components struct {
	Config    *config.Config
	Stealth   *stealth.Config
	Registry  *scripts.Registry
	Installer *stealth.Installer
	Logger    *zap.Logger
}

// newComponents resolves the loaded configuration and the command flags into
// a validated composition request and an installer over the right registry.
func newComponents(cmd *cobra.Command, flags *stealthFlags, forceValidation bool) (*Components, error) {
	cfg := config.Get()
	logger := observability.GetLogger()

	scfg, err := flags.build(cmd, cfg.Stealth)
	if err != nil {
		return nil, fmt.Errorf("invalid stealth options: %w", err)
	}

	reg, err := cfg.Stealth.Registry()
	if err != nil {
		return nil, fmt.Errorf("failed to load stealth scripts: %w", err)
	}
	if cfg.Stealth.ScriptsDir != "" {
		logger.Debug("Using script payloads from directory", zap.String("dir", cfg.Stealth.ScriptsDir))
	}

	inst := stealth.NewInstaller(reg, logger,
		stealth.WithValidation(cfg.Stealth.Validate || forceValidation),
	)

	return &Components{
		Config:    cfg,
		Stealth:   scfg,
		Registry:  reg,
		Installer: inst,
		Logger:    logger,
	}, nil
}
