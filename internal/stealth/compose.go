package stealth

import (
	"strings"

	"github.com/xkilldash9x/scalpel-stealth/internal/stealth/scripts"
)

// OptsIdentifier is the global every evasion script reads its settings from.
const OptsIdentifier = "opts"

// applyOptions folds the overrides into p. The order matters: the user agent
// is applied first so that explicit platform and vendor values can win over
// the ones derived from it.
func (c *Config) applyOptions(p *Properties) {
	o := c.Options
	ua, hasUA := o.userAgent()

	if hasUA {
		p.Navigator.UserAgent = ua
		p.Header.UserAgent = ua
		p.Navigator.AppVersion = AppVersion(ua)
		p.Navigator.Platform = o.Platform.OrElse(PlatformFromUserAgent(ua, p.platformDefault()))
		p.Navigator.Vendor = o.Vendor.OrElse(VendorFromUserAgent(ua, p.vendorDefault()))

		// Client hints have to name the same browser and OS as the UA.
		if hints, ok := ClientHintsFromUserAgent(ua, p.Navigator.Platform); ok {
			p.Header.SecChUa = hints.Brands
			p.Header.SecChUaMobile = hints.Mobile
			p.Header.SecChUaPlatform = hints.Platform
		} else {
			p.Header.SecChUa = ""
			p.Header.SecChUaMobile = ""
			p.Header.SecChUaPlatform = ""
		}
	}

	if langs, ok := o.NavigatorLanguages(); ok {
		p.Navigator.Languages = langs
	}
	if header, ok := o.AcceptLanguageHeader(); ok {
		p.Header.AcceptLanguage = header
	}

	if platform, ok := o.Platform.Get(); ok && !hasUA {
		p.Navigator.Platform = platform
	}
	if vendor, ok := o.Vendor.Get(); ok && !hasUA {
		p.Navigator.Vendor = vendor
	}

	if hc, ok := o.HardwareConcurrency.Get(); ok {
		p.Navigator.HardwareConcurrency = hc
	}
	if dm, ok := o.DeviceMemory.Get(); ok {
		p.Navigator.DeviceMemory = dm
	}

	if vendor, ok := o.WebGLVendor.Get(); ok {
		p.WebGL.Vendor = vendor
	}
	if renderer, ok := o.WebGLRenderer.Get(); ok {
		p.WebGL.Renderer = renderer
	}

	if run, ok := o.RunOnInsecureOrigins.Get(); ok {
		p.RunOnInsecureOrigins = run
	}

	if vp, ok := o.Viewport.Get(); ok {
		p.Viewport = &vp
	}
}

// EnabledScripts applies the options to p (mutating it) and returns the
// script bodies in injection order: the opts declaration, the infrastructure
// scripts, then every enabled feature script. The declaration is rendered
// from p on every call.
func (c *Config) EnabledScripts(reg *scripts.Registry, p *Properties) ([]string, error) {
	if reg == nil {
		reg = scripts.Default()
	}
	if c.Options != nil {
		if err := c.Options.Validate(); err != nil {
			return nil, err
		}
		c.applyOptions(p)
	}

	decl, err := optsDeclaration(p)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, 1+len(infrastructureScripts)+len(featureScripts)+len(c.Prepend)+len(c.Append))
	out = append(out, decl)
	for _, name := range infrastructureScripts {
		out = append(out, reg.MustGet(name))
	}
	out = append(out, c.Prepend...)

	toggles := c.Scripts
	for _, fs := range featureScripts {
		if *fs.toggle(&toggles) {
			out = append(out, reg.MustGet(fs.name))
		}
	}
	out = append(out, c.Append...)
	return out, nil
}

// CombineScripts joins the enabled scripts into one init script body.
// A nil cfg behaves like NewConfig().
func CombineScripts(reg *scripts.Registry, p *Properties, cfg *Config) (string, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	parts, err := cfg.EnabledScripts(reg, p)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, "\n"), nil
}

func optsDeclaration(p *Properties) (string, error) {
	data, err := p.JSON()
	if err != nil {
		return "", err
	}
	return "const " + OptsIdentifier + " = " + string(data) + ";", nil
}
