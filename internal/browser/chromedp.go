package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/scalpel-stealth/internal/stealth"
)

// executorDriver issues the CDP commands directly. It only works with a
// context that carries a chromedp executor, i.e. inside chromedp.Run.
type executorDriver struct{}

func (executorDriver) SetExtraHTTPHeaders(ctx context.Context, headers map[string]string) error {
	if err := network.Enable().Do(ctx); err != nil {
		return fmt.Errorf("failed to enable network domain: %w", err)
	}
	return network.SetExtraHTTPHeaders(toNetworkHeaders(headers)).Do(ctx)
}

func (executorDriver) AddInitScript(ctx context.Context, script string) error {
	_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
	return err
}

func toNetworkHeaders(headers map[string]string) network.Headers {
	out := make(network.Headers, len(headers))
	for k, v := range headers {
		out[k] = v
	}
	return out
}

// StealthAction is the scheduled form of Installer.Install: the profile is
// composed and installed when the action runs inside chromedp.Run.
func StealthAction(inst *stealth.Installer, cfg *stealth.Config) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return inst.Install(ctx, executorDriver{}, cfg)
	})
}

// ChromedpPage is a tab in a chromedp browser context.
type ChromedpPage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

var _ Page = (*ChromedpPage)(nil)

// NewChromedpPage wraps a context created by chromedp.NewContext. cancel
// closes the tab.
func NewChromedpPage(ctx context.Context, cancel context.CancelFunc) *ChromedpPage {
	return &ChromedpPage{ctx: ctx, cancel: cancel}
}

// run executes actions on the tab, stopping early when the caller's ctx ends.
func (p *ChromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *ChromedpPage) SetExtraHTTPHeaders(ctx context.Context, headers map[string]string) error {
	return p.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		return executorDriver{}.SetExtraHTTPHeaders(c, headers)
	}))
}

func (p *ChromedpPage) AddInitScript(ctx context.Context, script string) error {
	return p.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		return executorDriver{}.AddInitScript(c, script)
	}))
}

func (p *ChromedpPage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *ChromedpPage) Evaluate(ctx context.Context, expression string) (string, error) {
	var res string
	if err := p.run(ctx, chromedp.Evaluate(expression, &res)); err != nil {
		return "", err
	}
	return res, nil
}

func (p *ChromedpPage) Close() error {
	p.cancel()
	return nil
}
