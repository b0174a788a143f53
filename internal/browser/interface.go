package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/scalpel-stealth/internal/stealth"
)

// Page is a single browser tab the stealth profile is installed on.
type Page interface {
	stealth.Driver
	Navigate(ctx context.Context, url string) error
	// Evaluate runs a JavaScript expression and returns its JSON encoded result.
	Evaluate(ctx context.Context, expression string) (string, error)
	Close() error
}

// DriverKind selects the automation library behind a Page.
type DriverKind string

const (
	DriverChromedp   DriverKind = "chromedp"
	DriverRod        DriverKind = "rod"
	DriverPlaywright DriverKind = "playwright"
)

// ParseDriverKind parses a driver name case-insensitively.
func ParseDriverKind(s string) (DriverKind, error) {
	switch kind := DriverKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case DriverChromedp, DriverRod, DriverPlaywright:
		return kind, nil
	case "":
		return DriverChromedp, nil
	default:
		return "", fmt.Errorf("unknown browser driver %q (want chromedp, rod or playwright)", s)
	}
}

// FingerprintExpression reads back the values the stealth profile overrides.
const FingerprintExpression = `JSON.stringify({
  userAgent: navigator.userAgent,
  appVersion: navigator.appVersion,
  platform: navigator.platform,
  vendor: navigator.vendor,
  languages: navigator.languages,
  hardwareConcurrency: navigator.hardwareConcurrency,
  webdriver: navigator.webdriver
})`
