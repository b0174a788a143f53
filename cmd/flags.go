package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/corpix/uarand"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/scalpel-stealth/internal/config"
	"github.com/xkilldash9x/scalpel-stealth/internal/stealth"
)

// stealthFlags are the per-invocation overrides shared by script, headers,
// scripts and open. Only flags the user actually set override the config file.
type stealthFlags struct {
	browser              string
	userAgent            string
	randomUserAgent      bool
	acceptLanguage       string
	languages            []string
	platform             string
	vendor               string
	hardwareConcurrency  int
	deviceMemory         int
	viewport             string
	webGLVendor          string
	webGLRenderer        string
	runOnInsecureOrigins bool
	headers              []string
	disable              []string
	prependFiles         []string
	appendFiles          []string
}

func (f *stealthFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.browser, "browser", "b", "", "browser profile to impersonate (chrome, edge, firefox, safari)")
	fs.StringVar(&f.userAgent, "user-agent", "", "User-Agent override; platform, vendor and appVersion are derived from it")
	fs.BoolVar(&f.randomUserAgent, "random-user-agent", false, "pick a random real-world User-Agent")
	fs.StringVar(&f.acceptLanguage, "accept-language", "", "Accept-Language header value")
	fs.StringSliceVar(&f.languages, "languages", nil, "navigator.languages, most preferred first")
	fs.StringVar(&f.platform, "platform", "", "navigator.platform override")
	fs.StringVar(&f.vendor, "vendor", "", "navigator.vendor override")
	fs.IntVar(&f.hardwareConcurrency, "hardware-concurrency", 0, "navigator.hardwareConcurrency override")
	fs.IntVar(&f.deviceMemory, "device-memory", 0, "navigator.deviceMemory override")
	fs.StringVar(&f.viewport, "viewport", "", "window size as WIDTHxHEIGHT")
	fs.StringVar(&f.webGLVendor, "webgl-vendor", "", "unmasked WebGL vendor")
	fs.StringVar(&f.webGLRenderer, "webgl-renderer", "", "unmasked WebGL renderer")
	fs.BoolVar(&f.runOnInsecureOrigins, "run-on-insecure-origins", false, "install chrome.runtime on http origins too")
	fs.StringArrayVarP(&f.headers, "header", "H", nil, `extra header as "Name: value", wins over derived headers (repeatable)`)
	fs.StringSliceVar(&f.disable, "disable", nil, "scripts to leave out, by name (see the scripts command)")
	fs.StringArrayVar(&f.prependFiles, "prepend", nil, "file with a script to run before the evasions (repeatable)")
	fs.StringArrayVar(&f.appendFiles, "append", nil, "file with a script to run after the evasions (repeatable)")
}

// build merges the config file profile with the flags into a composition request.
func (f *stealthFlags) build(cmd *cobra.Command, sc config.StealthConfig) (*stealth.Config, error) {
	cfg, err := sc.ToStealthConfig()
	if err != nil {
		return nil, err
	}
	o := cfg.Options
	changed := cmd.Flags().Changed

	if changed("browser") {
		bt, err := stealth.ParseBrowserType(f.browser)
		if err != nil {
			return nil, err
		}
		cfg.BrowserType = bt
	}

	switch {
	case changed("user-agent"):
		o.UserAgent = stealth.Some(f.userAgent)
	case f.randomUserAgent:
		o.UserAgent = stealth.Some(uarand.GetRandom())
	}
	if changed("accept-language") {
		o.AcceptLanguage = stealth.Some(f.acceptLanguage)
	}
	if changed("languages") {
		o.Languages = stealth.Some(f.languages)
	}
	if changed("platform") {
		o.Platform = stealth.Some(f.platform)
	}
	if changed("vendor") {
		o.Vendor = stealth.Some(f.vendor)
	}
	if changed("hardware-concurrency") {
		o.HardwareConcurrency = stealth.Some(f.hardwareConcurrency)
	}
	if changed("device-memory") {
		o.DeviceMemory = stealth.Some(f.deviceMemory)
	}
	if changed("viewport") {
		vp, err := parseViewport(f.viewport)
		if err != nil {
			return nil, err
		}
		o.Viewport = stealth.Some(vp)
	}
	if changed("webgl-vendor") {
		o.WebGLVendor = stealth.Some(f.webGLVendor)
	}
	if changed("webgl-renderer") {
		o.WebGLRenderer = stealth.Some(f.webGLRenderer)
	}
	if changed("run-on-insecure-origins") {
		o.RunOnInsecureOrigins = stealth.Some(f.runOnInsecureOrigins)
	}

	for _, h := range f.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, want \"Name: value\"", h)
		}
		if o.ExtraHeaders == nil {
			o.ExtraHeaders = make(map[string]string)
		}
		o.ExtraHeaders[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	for _, name := range f.disable {
		if err := cfg.Scripts.Set(strings.TrimSpace(name), false); err != nil {
			return nil, err
		}
	}

	if cfg.Prepend, err = readScripts(f.prependFiles); err != nil {
		return nil, err
	}
	if cfg.Append, err = readScripts(f.appendFiles); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseViewport(s string) (stealth.Viewport, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return stealth.Viewport{}, fmt.Errorf("invalid viewport %q, want WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return stealth.Viewport{}, fmt.Errorf("invalid viewport width %q: %w", w, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return stealth.Viewport{}, fmt.Errorf("invalid viewport height %q: %w", h, err)
	}
	return stealth.Viewport{Width: width, Height: height}, nil
}

func readScripts(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	bodies := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read script file: %w", err)
		}
		bodies = append(bodies, string(data))
	}
	return bodies, nil
}
