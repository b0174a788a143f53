package stealth

import (
	"fmt"
	"math"
	"strings"
)

// Header names produced by the derivation helpers and the browser profiles.
const (
	HeaderUserAgent       = "User-Agent"
	HeaderAcceptLanguage  = "Accept-Language"
	HeaderAccept          = "Accept"
	HeaderAcceptEncoding  = "Accept-Encoding"
	HeaderSecChUa         = "Sec-CH-UA"
	HeaderSecChUaMobile   = "Sec-CH-UA-Mobile"
	HeaderSecChUaPlatform = "Sec-CH-UA-Platform"
)

// Viewport is the window size reported to page scripts.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Options holds user overrides for the generated fingerprint. Every field is
// independently present or absent; absent fields keep the browser defaults.
//
// UserAgent and AcceptLanguage treat an empty string as absent. All other
// fields honour an explicit empty or zero value, e.g. Vendor set to "" is the
// correct value for Firefox and beats the vendor derived from the user agent.
type Options struct {
	UserAgent            Optional[string]
	AcceptLanguage       Optional[string]
	Languages            Optional[[]string]
	Platform             Optional[string]
	Vendor               Optional[string]
	HardwareConcurrency  Optional[int]
	DeviceMemory         Optional[int]
	Viewport             Optional[Viewport]
	WebGLVendor          Optional[string]
	WebGLRenderer        Optional[string]
	RunOnInsecureOrigins Optional[bool]
	ExtraHeaders         map[string]string
}

func (o *Options) userAgent() (string, bool) {
	if o == nil {
		return "", false
	}
	ua, ok := o.UserAgent.Get()
	// Whitespace-only counts as absent; see Open Question 2 in DESIGN.md.
	if !ok || strings.TrimSpace(ua) == "" {
		return "", false
	}
	return ua, true
}

// acceptLanguage returns the explicit Accept-Language value when it names at
// least one language. Empty or malformed values count as absent.
func (o *Options) acceptLanguage() (string, bool) {
	if o == nil {
		return "", false
	}
	header, ok := o.AcceptLanguage.Get()
	if !ok || len(parseAcceptLanguage(header)) == 0 {
		return "", false
	}
	return header, true
}

// NavigatorLanguages derives navigator.languages. Languages wins when non-empty;
// otherwise the language tags of AcceptLanguage are used in header order.
// The second return value is false when nothing can be derived, in which case
// navigator.languages must be left alone.
func (o *Options) NavigatorLanguages() ([]string, bool) {
	if o == nil {
		return nil, false
	}
	if langs, ok := o.Languages.Get(); ok && len(langs) > 0 {
		return append([]string(nil), langs...), true
	}
	header, ok := o.acceptLanguage()
	if !ok {
		return nil, false
	}
	return parseAcceptLanguage(header), true
}

// AcceptLanguageHeader derives the Accept-Language header. An explicit
// AcceptLanguage is returned verbatim; otherwise the header is synthesized
// from Languages with quality factors decreasing by 0.1 per position and
// floored at 0.1.
func (o *Options) AcceptLanguageHeader() (string, bool) {
	if o == nil {
		return "", false
	}
	if header, ok := o.acceptLanguage(); ok {
		return header, true
	}
	langs, ok := o.Languages.Get()
	if !ok || len(langs) == 0 {
		return "", false
	}
	return formatAcceptLanguage(langs), true
}

// Headers returns User-Agent and Accept-Language as far as they can be
// derived, with ExtraHeaders applied last so they win on collision.
func (o *Options) Headers() map[string]string {
	headers := make(map[string]string)
	if o == nil {
		return headers
	}
	if ua, ok := o.userAgent(); ok {
		headers[HeaderUserAgent] = ua
	}
	if al, ok := o.AcceptLanguageHeader(); ok {
		headers[HeaderAcceptLanguage] = al
	}
	for k, v := range o.ExtraHeaders {
		headers[k] = v
	}
	return headers
}

// Validate rejects values that cannot be rendered into a consistent fingerprint.
func (o *Options) Validate() error {
	if o == nil {
		return nil
	}
	if vp, ok := o.Viewport.Get(); ok && (vp.Width <= 0 || vp.Height <= 0) {
		return fmt.Errorf("%w: viewport must be positive, got %dx%d", ErrInvalidConfig, vp.Width, vp.Height)
	}
	if hc, ok := o.HardwareConcurrency.Get(); ok && hc < 0 {
		return fmt.Errorf("%w: hardware_concurrency must not be negative, got %d", ErrInvalidConfig, hc)
	}
	if dm, ok := o.DeviceMemory.Get(); ok && dm < 0 {
		return fmt.Errorf("%w: device_memory must not be negative, got %d", ErrInvalidConfig, dm)
	}
	return nil
}

// parseAcceptLanguage returns the language tags of an Accept-Language value
// in order, without quality parameters. Empty entries are dropped.
func parseAcceptLanguage(header string) []string {
	var langs []string
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(part, ";")
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		langs = append(langs, tag)
	}
	return langs
}

func formatAcceptLanguage(langs []string) string {
	if len(langs) == 1 {
		return langs[0]
	}
	var b strings.Builder
	b.WriteString(langs[0])
	for i, lang := range langs[1:] {
		fmt.Fprintf(&b, ", %s;q=%.1f", lang, quality(i+1))
	}
	return b.String()
}

// quality is the q-factor for the language at position i (0-based).
func quality(i int) float64 {
	return math.Max(0.1, 1.0-0.1*float64(i))
}
