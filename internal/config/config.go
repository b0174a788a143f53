// Configuration for the stealth CLI: logging, the browser used by `open`,
// and the stealth profile itself.
package config

import (
	"fmt"
	"net/textproto"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/scalpel-stealth/internal/stealth"
	"github.com/xkilldash9x/scalpel-stealth/internal/stealth/scripts"
)

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger"`
	Browser BrowserConfig `mapstructure:"browser"`
	Stealth StealthConfig `mapstructure:"stealth"`
}

// ColorConfig maps log levels to terminal color names.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" json:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" json:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" json:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" json:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" json:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" json:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" json:"fatal" yaml:"fatal"`
}

// LoggerConfig holds the logger settings.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" json:"level" yaml:"level"`
	Format      string      `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" json:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" json:"colors" yaml:"colors"`
}

// BrowserConfig controls the browser launched by the open command.
type BrowserConfig struct {
	Driver            string        `mapstructure:"driver"`
	Headless          bool          `mapstructure:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors"`
	ExecPath          string        `mapstructure:"exec_path"`
	Proxy             string        `mapstructure:"proxy"`
	Args              []string      `mapstructure:"args"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
}

// StealthConfig is the stealth profile. Scripts maps registry names to an
// enabled flag; names that are not listed stay enabled.
type StealthConfig struct {
	BrowserType string          `mapstructure:"browser_type"`
	ScriptsDir  string          `mapstructure:"scripts_dir"`
	Validate    bool            `mapstructure:"validate"`
	Scripts     map[string]bool `mapstructure:"scripts"`
	Options     OptionsConfig   `mapstructure:"options"`
}

// OptionsConfig mirrors stealth.Options. Pointer fields keep "not configured"
// apart from an explicit zero value.
type OptionsConfig struct {
	UserAgent            *string           `mapstructure:"user_agent"`
	AcceptLanguage       *string           `mapstructure:"accept_language"`
	Languages            []string          `mapstructure:"languages"`
	Platform             *string           `mapstructure:"platform"`
	Vendor               *string           `mapstructure:"vendor"`
	HardwareConcurrency  *int              `mapstructure:"hardware_concurrency"`
	DeviceMemory         *int              `mapstructure:"device_memory"`
	Viewport             *ViewportConfig   `mapstructure:"viewport"`
	WebGLVendor          *string           `mapstructure:"webgl_vendor"`
	WebGLRenderer        *string           `mapstructure:"webgl_renderer"`
	RunOnInsecureOrigins *bool             `mapstructure:"run_on_insecure_origins"`
	ExtraHeaders         map[string]string `mapstructure:"extra_headers"`
}

// ViewportConfig is the configured window size.
type ViewportConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// SetDefaults registers the default values. Stealth options have no
// defaults on purpose: an absent option keeps the browser profile value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "scalpel-stealth")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("browser.driver", "chromedp")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.navigation_timeout", 30*time.Second)

	v.SetDefault("stealth.browser_type", string(stealth.DefaultBrowserType))
	v.SetDefault("stealth.validate", false)
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Browser.NavigationTimeout < 0 {
		return fmt.Errorf("browser.navigation_timeout must not be negative")
	}
	if _, err := c.Stealth.ToStealthConfig(); err != nil {
		return fmt.Errorf("invalid stealth configuration: %w", err)
	}
	return nil
}

// ToOptions converts the configured options into stealth.Options.
func (o OptionsConfig) ToOptions() *stealth.Options {
	opts := &stealth.Options{
		UserAgent:            stealth.FromPtr(o.UserAgent),
		AcceptLanguage:       stealth.FromPtr(o.AcceptLanguage),
		Platform:             stealth.FromPtr(o.Platform),
		Vendor:               stealth.FromPtr(o.Vendor),
		HardwareConcurrency:  stealth.FromPtr(o.HardwareConcurrency),
		DeviceMemory:         stealth.FromPtr(o.DeviceMemory),
		WebGLVendor:          stealth.FromPtr(o.WebGLVendor),
		WebGLRenderer:        stealth.FromPtr(o.WebGLRenderer),
		RunOnInsecureOrigins: stealth.FromPtr(o.RunOnInsecureOrigins),
	}
	if o.Languages != nil {
		opts.Languages = stealth.Some(append([]string(nil), o.Languages...))
	}
	if o.Viewport != nil {
		opts.Viewport = stealth.Some(stealth.Viewport{Width: o.Viewport.Width, Height: o.Viewport.Height})
	}
	if len(o.ExtraHeaders) > 0 {
		// Viper lowercases map keys, so header names are restored here.
		opts.ExtraHeaders = make(map[string]string, len(o.ExtraHeaders))
		for k, v := range o.ExtraHeaders {
			opts.ExtraHeaders[canonicalHeader(k)] = v
		}
	}
	return opts
}

// ToStealthConfig builds a composition request from the stealth section.
func (s StealthConfig) ToStealthConfig() (*stealth.Config, error) {
	cfg := stealth.NewConfig()
	if s.BrowserType != "" {
		bt, err := stealth.ParseBrowserType(s.BrowserType)
		if err != nil {
			return nil, err
		}
		cfg.BrowserType = bt
	}
	for name, enabled := range s.Scripts {
		if err := cfg.Scripts.Set(name, enabled); err != nil {
			return nil, err
		}
	}
	cfg.Options = s.Options.ToOptions()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Registry returns the payload registry: the embedded one, or the payloads
// from ScriptsDir when it is set.
func (s StealthConfig) Registry() (*scripts.Registry, error) {
	if s.ScriptsDir == "" {
		return scripts.Default(), nil
	}
	return scripts.LoadDir(s.ScriptsDir)
}

var knownHeaders = []string{
	stealth.HeaderUserAgent,
	stealth.HeaderAcceptLanguage,
	stealth.HeaderAccept,
	stealth.HeaderAcceptEncoding,
	stealth.HeaderSecChUa,
	stealth.HeaderSecChUaMobile,
	stealth.HeaderSecChUaPlatform,
}

// canonicalHeader restores the spelling of the headers the profile sets, so
// an override replaces the profile value instead of sitting next to it.
func canonicalHeader(name string) string {
	for _, h := range knownHeaders {
		if textproto.CanonicalMIMEHeaderKey(h) == textproto.CanonicalMIMEHeaderKey(name) {
			return h
		}
	}
	return textproto.CanonicalMIMEHeaderKey(name)
}

// Load initializes the configuration singleton from Viper.
func Load(v *viper.Viper) error {
	once.Do(func() {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			loadErr = fmt.Errorf("error unmarshaling config: %w", err)
			return
		}
		instance = &cfg
	})
	return loadErr
}

// Set replaces the configuration singleton. Used by tests and embedding callers.
func Set(cfg *Config) {
	once.Do(func() {})
	instance = cfg
}

// Get returns the loaded configuration instance.
func Get() *Config {
	if instance == nil {
		panic("Configuration not initialized. Call config.Load() in the root command.")
	}
	return instance
}
