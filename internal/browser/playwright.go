package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-stealth/internal/config"
	"github.com/xkilldash9x/scalpel-stealth/internal/stealth"
)

// PlaywrightPage adapts a playwright page to the stealth driver contract.
// Playwright calls are not context aware; the context is checked before each call.
type PlaywrightPage struct {
	page    playwright.Page
	browser playwright.Browser
	pw      *playwright.Playwright
	timeout float64
}

var _ Page = (*PlaywrightPage)(nil)

// NewPlaywrightPage wraps an existing page. Close only closes the page.
func NewPlaywrightPage(page playwright.Page) *PlaywrightPage {
	return &PlaywrightPage{page: page}
}

// LaunchPlaywright starts the playwright driver and a browser engine that
// matches the impersonated browser: Firefox for firefox, WebKit for safari
// and Chromium otherwise.
func LaunchPlaywright(cfg config.BrowserConfig, bt stealth.BrowserType, logger *zap.Logger) (*PlaywrightPage, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	engine := pw.Chromium
	switch bt {
	case stealth.BrowserFirefox:
		engine = pw.Firefox
	case stealth.BrowserSafari:
		engine = pw.WebKit
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     cfg.Args,
	}
	if engine == pw.Chromium {
		opts.Args = append([]string{"--disable-blink-features=AutomationControlled"}, cfg.Args...)
	}
	if cfg.ExecPath != "" {
		opts.ExecutablePath = playwright.String(cfg.ExecPath)
	}
	if cfg.Proxy != "" {
		opts.Proxy = &playwright.Proxy{Server: cfg.Proxy}
	}

	b, err := engine.Launch(opts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch %s: %w", engine.Name(), err)
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(cfg.IgnoreTLSErrors),
	})
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if logger != nil {
		logger.Debug("Launched playwright browser", zap.String("engine", engine.Name()))
	}
	return &PlaywrightPage{
		page:    page,
		browser: b,
		pw:      pw,
		timeout: float64(cfg.NavigationTimeout.Milliseconds()),
	}, nil
}

func (p *PlaywrightPage) SetExtraHTTPHeaders(ctx context.Context, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.SetExtraHTTPHeaders(headers)
}

func (p *PlaywrightPage) AddInitScript(ctx context.Context, script string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.AddInitScript(playwright.Script{Content: playwright.String(script)})
}

func (p *PlaywrightPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateLoad}
	if p.timeout > 0 {
		opts.Timeout = playwright.Float(p.timeout)
	}
	_, err := p.page.Goto(url, opts)
	return err
}

func (p *PlaywrightPage) Evaluate(ctx context.Context, expression string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res, err := p.page.Evaluate(expression)
	if err != nil {
		return "", err
	}
	s, ok := res.(string)
	if !ok {
		return "", fmt.Errorf("expression returned %T, want string", res)
	}
	return s, nil
}

func (p *PlaywrightPage) Close() error {
	if p.browser == nil {
		return p.page.Close()
	}
	err := p.browser.Close()
	if stopErr := p.pw.Stop(); err == nil {
		err = stopErr
	}
	return err
}
