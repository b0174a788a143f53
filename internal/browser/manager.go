package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-stealth/internal/config"
	"github.com/xkilldash9x/scalpel-stealth/internal/stealth"
)

// Manager owns a chromedp browser process and hands out stealth pages.
type Manager struct {
	logger    *zap.Logger
	cfg       config.BrowserConfig
	installer *stealth.Installer

	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	pages map[string]*ChromedpPage
	mu    sync.Mutex
}

// NewManager creates the allocator. The browser process starts with the first page.
func NewManager(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig, inst *stealth.Installer) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		logger:    logger.Named("browser_manager"),
		cfg:       cfg,
		installer: inst,
		pages:     make(map[string]*ChromedpPage),
	}
	m.allocatorCtx, m.allocatorCancel = chromedp.NewExecAllocator(ctx, AllocatorOptions(cfg, m.logger)...)

	m.logger.Info("Browser manager initialized",
		zap.Bool("headless", cfg.Headless),
		zap.String("proxy", cfg.Proxy),
	)
	return m
}

// AllocatorOptions translates the browser config into chromedp flags.
func AllocatorOptions(cfg config.BrowserConfig, logger *zap.Logger) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	// DefaultExecAllocatorOptions is headless; the flag has to be cleared explicitly.
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false), chromedp.Flag("hide-scrollbars", false), chromedp.Flag("mute-audio", false))
	}

	opts = append(opts,
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", cfg.Headless),
		chromedp.Flag("ignore-certificate-errors", cfg.IgnoreTLSErrors),
	)

	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	if cfg.Proxy != "" {
		proxyURL := cfg.Proxy
		if u, err := url.Parse(proxyURL); err != nil || u.Host == "" {
			proxyURL = "http://" + cfg.Proxy
		}
		if _, err := url.Parse(proxyURL); err == nil {
			opts = append(opts, chromedp.ProxyServer(proxyURL))
		} else if logger != nil {
			logger.Error("Invalid proxy address in config, cannot set proxy", zap.String("proxy", cfg.Proxy))
		}
	}

	for _, arg := range cfg.Args {
		opts = append(opts, chromedp.Flag(strings.TrimLeft(arg, "-"), true))
	}
	return opts
}

// NewPage opens a tab and installs the stealth profile before anything is loaded.
func (m *Manager) NewPage(ctx context.Context, cfg *stealth.Config) (*ChromedpPage, error) {
	tabCtx, cancel := chromedp.NewContext(m.allocatorCtx,
		chromedp.WithLogf(m.logger.Sugar().Debugf),
		chromedp.WithErrorf(m.logger.Sugar().Errorf),
	)

	// The first Run starts the browser and must use the tab context itself,
	// a derived context would tie the browser lifetime to it.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start browser tab: %w", err)
	}

	p := NewChromedpPage(tabCtx, cancel)
	if err := p.run(ctx, StealthAction(m.installer, cfg)); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to install stealth profile: %w", err)
	}

	id := uuid.NewString()
	m.mu.Lock()
	m.pages[id] = p
	m.mu.Unlock()

	m.logger.Debug("Opened stealth page", zap.String("page_id", id))
	return p, nil
}

// Shutdown closes all pages and terminates the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager...")

	m.mu.Lock()
	pages := m.pages
	m.pages = make(map[string]*ChromedpPage)
	m.mu.Unlock()

	for id, p := range pages {
		if err := p.Close(); err != nil {
			m.logger.Warn("Error closing page during shutdown", zap.String("page_id", id), zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.allocatorCancel()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(10 * time.Second):
		m.logger.Warn("Browser process did not exit in time")
	}

	m.logger.Info("Browser manager shutdown complete.")
	return nil
}
