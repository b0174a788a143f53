package browser

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-stealth/internal/config"
)

// RodPage adapts a rod page to the stealth driver contract.
type RodPage struct {
	page    *rod.Page
	browser *rod.Browser
}

var _ Page = (*RodPage)(nil)

// NewRodPage wraps an existing page. Close only closes the page.
func NewRodPage(page *rod.Page) *RodPage {
	return &RodPage{page: page}
}

// LaunchRod starts a browser with the rod launcher and opens a blank page.
// Close on the returned page also closes the browser.
func LaunchRod(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*RodPage, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled")
	if cfg.ExecPath != "" {
		l = l.Bin(cfg.ExecPath)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}
	if cfg.IgnoreTLSErrors {
		l = l.Set("ignore-certificate-errors")
	}
	for _, arg := range cfg.Args {
		l = l.Set(flags.Flag(strings.TrimLeft(arg, "-")))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if logger != nil {
		logger.Debug("Launched rod browser", zap.String("control_url", controlURL))
	}
	return &RodPage{page: page, browser: b}, nil
}

// headerPairs flattens headers into the key, value list rod expects. Keys
// are sorted so the CDP call is deterministic.
func headerPairs(headers map[string]string) []string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, headers[k])
	}
	return pairs
}

func (p *RodPage) SetExtraHTTPHeaders(ctx context.Context, headers map[string]string) error {
	// The returned cleanup func would remove the headers again; they stay for the page lifetime.
	_, err := p.page.Context(ctx).SetExtraHeaders(headerPairs(headers))
	return err
}

func (p *RodPage) AddInitScript(ctx context.Context, script string) error {
	_, err := p.page.Context(ctx).EvalOnNewDocument(script)
	return err
}

func (p *RodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return err
	}
	return pg.WaitLoad()
}

func (p *RodPage) Evaluate(ctx context.Context, expression string) (string, error) {
	res, err := p.page.Context(ctx).Eval("() => " + expression)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (p *RodPage) Close() error {
	if p.browser != nil {
		return p.browser.Close()
	}
	return p.page.Close()
}
