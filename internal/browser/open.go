package browser

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-stealth/internal/config"
	"github.com/xkilldash9x/scalpel-stealth/internal/stealth"
)

// managedPage closes the chromedp browser together with its only page.
type managedPage struct {
	*ChromedpPage
	manager *Manager
}

func (p *managedPage) Close() error {
	_ = p.ChromedpPage.Close()
	return p.manager.Shutdown(context.Background())
}

// Open launches a browser with the configured driver and returns a page that
// already carries the stealth profile. Closing the page closes the browser.
func Open(ctx context.Context, bcfg config.BrowserConfig, inst *stealth.Installer, scfg *stealth.Config, logger *zap.Logger) (Page, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	kind, err := ParseDriverKind(bcfg.Driver)
	if err != nil {
		return nil, err
	}

	switch kind {
	case DriverChromedp:
		m := NewManager(ctx, logger, bcfg, inst)
		p, err := m.NewPage(ctx, scfg)
		if err != nil {
			_ = m.Shutdown(context.Background())
			return nil, err
		}
		return &managedPage{ChromedpPage: p, manager: m}, nil

	case DriverRod:
		p, err := LaunchRod(ctx, bcfg, logger)
		if err != nil {
			return nil, err
		}
		return installOn(ctx, p, inst, scfg)

	default:
		bt := stealth.DefaultBrowserType
		if scfg != nil && scfg.BrowserType != "" {
			bt = scfg.BrowserType
		}
		p, err := LaunchPlaywright(bcfg, bt, logger)
		if err != nil {
			return nil, err
		}
		return installOn(ctx, p, inst, scfg)
	}
}

func installOn(ctx context.Context, p Page, inst *stealth.Installer, scfg *stealth.Config) (Page, error) {
	if err := inst.Install(ctx, p, scfg); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to install stealth profile: %w", err)
	}
	return p, nil
}
