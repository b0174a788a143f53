package stealth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-stealth/internal/stealth/scripts"
)

// Driver is the part of a browser automation page the installer needs. Both
// calls must take effect before the next navigation.
type Driver interface {
	SetExtraHTTPHeaders(ctx context.Context, headers map[string]string) error
	AddInitScript(ctx context.Context, script string) error
}

// Payload is everything that gets handed to a driver for one install.
type Payload struct {
	Properties *Properties
	Script     string
	Headers    map[string]string
}

// Installer builds stealth payloads and installs them on pages.
type Installer struct {
	registry *scripts.Registry
	logger   *zap.Logger
	validate bool
}

// InstallerOption configures an Installer.
type InstallerOption func(*Installer)

// WithValidation compiles every combined script with goja before it is
// handed to a driver.
func WithValidation(enabled bool) InstallerOption {
	return func(i *Installer) {
		i.validate = enabled
	}
}

// NewInstaller creates an installer. A nil registry means scripts.Default(),
// a nil logger disables logging.
func NewInstaller(reg *scripts.Registry, logger *zap.Logger, opts ...InstallerOption) *Installer {
	if reg == nil {
		reg = scripts.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	i := &Installer{
		registry: reg,
		logger:   logger.Named("stealth"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// FinalHeaders returns the header defaults of p overlaid by the extra headers of o.
func FinalHeaders(p *Properties, o *Options) map[string]string {
	headers := p.Header.AsMap()
	if o != nil {
		for k, v := range o.ExtraHeaders {
			headers[k] = v
		}
	}
	return headers
}

// Prepare builds fresh properties for cfg, composes the script and computes
// the final headers. A nil cfg behaves like NewConfig().
func (i *Installer) Prepare(cfg *Config) (*Payload, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	props, err := NewProperties(cfg.browserType())
	if err != nil {
		return nil, err
	}

	script, err := CombineScripts(i.registry, props, cfg)
	if err != nil {
		return nil, err
	}
	if i.validate {
		if err := ValidateScript(script); err != nil {
			return nil, err
		}
	}

	i.logger.Debug("Composed stealth script",
		zap.String("browser_type", string(props.BrowserType)),
		zap.Int("script_bytes", len(script)),
	)

	return &Payload{
		Properties: props,
		Script:     script,
		Headers:    FinalHeaders(props, cfg.Options),
	}, nil
}

// Install prepares a payload for cfg and installs it on drv.
func (i *Installer) Install(ctx context.Context, drv Driver, cfg *Config) error {
	payload, err := i.Prepare(cfg)
	if err != nil {
		return err
	}
	return i.InstallPayload(ctx, drv, payload)
}

// InstallPayload sets the headers and then registers the init script. There
// is no rollback: if the second call fails the page keeps the headers, and the
// caller is expected to retry the whole install on a fresh page.
func (i *Installer) InstallPayload(ctx context.Context, drv Driver, payload *Payload) error {
	log := i.logger.With(zap.String("install_id", uuid.NewString()))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("stealth: install aborted: %w", err)
	}
	if err := drv.SetExtraHTTPHeaders(ctx, payload.Headers); err != nil {
		log.Error("Failed to set extra HTTP headers", zap.Error(err))
		return fmt.Errorf("stealth: failed to set extra HTTP headers: %w", err)
	}
	if err := drv.AddInitScript(ctx, payload.Script); err != nil {
		log.Error("Failed to register init script", zap.Error(err))
		return fmt.Errorf("stealth: failed to register init script: %w", err)
	}

	log.Info("Stealth profile installed",
		zap.String("user_agent", payload.Properties.Navigator.UserAgent),
		zap.Int("headers", len(payload.Headers)),
	)
	return nil
}
