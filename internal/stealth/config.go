package stealth

import (
	"fmt"

	"github.com/xkilldash9x/scalpel-stealth/internal/stealth/scripts"
)

// Toggles enables or disables each feature script. The infrastructure
// scripts (utils and the magic array helpers) are not toggleable.
type Toggles struct {
	ChromeApp                    bool
	ChromeCSI                    bool
	ChromeLoadTimes              bool
	ChromeRuntime                bool
	IframeContentWindow          bool
	MediaCodecs                  bool
	NavigatorHardwareConcurrency bool
	NavigatorLanguages           bool
	NavigatorPermissions         bool
	NavigatorPlugins             bool
	NavigatorUserAgent           bool
	NavigatorVendor              bool
	Webdriver                    bool
	OuterDimensions              bool
	WebGLVendor                  bool
}

// featureScripts fixes the emission order of the feature scripts.
var featureScripts = []struct {
	name   string
	toggle func(*Toggles) *bool
}{
	{scripts.ChromeApp, func(t *Toggles) *bool { return &t.ChromeApp }},
	{scripts.ChromeCSI, func(t *Toggles) *bool { return &t.ChromeCSI }},
	{scripts.ChromeLoadTimes, func(t *Toggles) *bool { return &t.ChromeLoadTimes }},
	{scripts.ChromeRuntime, func(t *Toggles) *bool { return &t.ChromeRuntime }},
	{scripts.IframeContentWindow, func(t *Toggles) *bool { return &t.IframeContentWindow }},
	{scripts.MediaCodecs, func(t *Toggles) *bool { return &t.MediaCodecs }},
	{scripts.NavigatorHardwareConcurrency, func(t *Toggles) *bool { return &t.NavigatorHardwareConcurrency }},
	{scripts.NavigatorLanguages, func(t *Toggles) *bool { return &t.NavigatorLanguages }},
	{scripts.NavigatorPermissions, func(t *Toggles) *bool { return &t.NavigatorPermissions }},
	{scripts.NavigatorPlugins, func(t *Toggles) *bool { return &t.NavigatorPlugins }},
	{scripts.NavigatorUserAgent, func(t *Toggles) *bool { return &t.NavigatorUserAgent }},
	{scripts.NavigatorVendor, func(t *Toggles) *bool { return &t.NavigatorVendor }},
	{scripts.Webdriver, func(t *Toggles) *bool { return &t.Webdriver }},
	{scripts.OuterDimensions, func(t *Toggles) *bool { return &t.OuterDimensions }},
	{scripts.WebGLVendor, func(t *Toggles) *bool { return &t.WebGLVendor }},
}

// infrastructureScripts are always emitted, in this order, before any feature script.
var infrastructureScripts = []string{scripts.Utils, scripts.GenerateMagicArrays}

// AllScripts returns toggles with every feature script enabled.
func AllScripts() Toggles {
	var t Toggles
	for _, fs := range featureScripts {
		*fs.toggle(&t) = true
	}
	return t
}

// ToggleNames returns the toggleable script names in emission order.
func ToggleNames() []string {
	names := make([]string, len(featureScripts))
	for i, fs := range featureScripts {
		names[i] = fs.name
	}
	return names
}

// Set enables or disables the script with the given registry name.
func (t *Toggles) Set(name string, enabled bool) error {
	for _, fs := range featureScripts {
		if fs.name == name {
			*fs.toggle(t) = enabled
			return nil
		}
	}
	return fmt.Errorf("%w: unknown script toggle %q", ErrInvalidConfig, name)
}

// Enabled reports whether the named script is enabled.
func (t Toggles) Enabled(name string) (bool, error) {
	for _, fs := range featureScripts {
		if fs.name == name {
			return *fs.toggle(&t), nil
		}
	}
	return false, fmt.Errorf("%w: unknown script toggle %q", ErrInvalidConfig, name)
}

// Config is a single composition request: which browser to impersonate, the
// overrides to apply, and which scripts to emit. Use NewConfig; the zero
// value has every feature script disabled.
type Config struct {
	BrowserType BrowserType
	Options     *Options
	Scripts     Toggles

	// Prepend bodies are emitted right after the infrastructure scripts,
	// Append bodies after the last feature script.
	Prepend []string
	Append  []string
}

// NewConfig returns a config for the default browser with all scripts enabled.
func NewConfig() *Config {
	return &Config{
		BrowserType: DefaultBrowserType,
		Scripts:     AllScripts(),
	}
}

func (c *Config) browserType() BrowserType {
	if c == nil || c.BrowserType == "" {
		return DefaultBrowserType
	}
	return c.BrowserType
}

// Validate checks the browser type and the option values.
func (c *Config) Validate() error {
	if _, ok := defaultProfiles[c.browserType()]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedBrowser, string(c.BrowserType))
	}
	if c == nil {
		return nil
	}
	return c.Options.Validate()
}
