package stealth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// BrowserType selects the default fingerprint profile.
type BrowserType string

const (
	BrowserChrome  BrowserType = "chrome"
	BrowserFirefox BrowserType = "firefox"
	BrowserSafari  BrowserType = "safari"
	BrowserEdge    BrowserType = "edge"
)

// DefaultBrowserType is used when a config does not name one.
const DefaultBrowserType = BrowserChrome

// ParseBrowserType parses a browser name case-insensitively.
func ParseBrowserType(s string) (BrowserType, error) {
	bt := BrowserType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := defaultProfiles[bt]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBrowser, s)
	}
	return bt, nil
}

// BrowserTypes lists the supported browser types in sorted order.
func BrowserTypes() []BrowserType {
	types := make([]BrowserType, 0, len(defaultProfiles))
	for bt := range defaultProfiles {
		types = append(types, bt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// NavigatorProperties mirror the navigator.* values seen by page scripts.
type NavigatorProperties struct {
	UserAgent           string   `json:"userAgent"`
	AppVersion          string   `json:"appVersion"`
	Platform            string   `json:"platform"`
	Vendor              string   `json:"vendor"`
	Languages           []string `json:"languages"`
	HardwareConcurrency int      `json:"hardwareConcurrency"`
	DeviceMemory        int      `json:"deviceMemory"`
}

// HeaderProperties are the request headers that must agree with the navigator values.
type HeaderProperties struct {
	UserAgent       string `json:"userAgent"`
	AcceptLanguage  string `json:"acceptLanguage"`
	Accept          string `json:"accept,omitempty"`
	AcceptEncoding  string `json:"acceptEncoding,omitempty"`
	SecChUa         string `json:"secChUa,omitempty"`
	SecChUaMobile   string `json:"secChUaMobile,omitempty"`
	SecChUaPlatform string `json:"secChUaPlatform,omitempty"`
}

// AsMap renders the non-empty header values keyed by HTTP header name.
func (h HeaderProperties) AsMap() map[string]string {
	out := make(map[string]string, 7)
	add := func(name, value string) {
		if value != "" {
			out[name] = value
		}
	}
	add(HeaderUserAgent, h.UserAgent)
	add(HeaderAcceptLanguage, h.AcceptLanguage)
	add(HeaderAccept, h.Accept)
	add(HeaderAcceptEncoding, h.AcceptEncoding)
	add(HeaderSecChUa, h.SecChUa)
	add(HeaderSecChUaMobile, h.SecChUaMobile)
	add(HeaderSecChUaPlatform, h.SecChUaPlatform)
	return out
}

// WebGLProperties are the unmasked vendor and renderer strings.
type WebGLProperties struct {
	Vendor   string `json:"vendor"`
	Renderer string `json:"renderer"`
}

// Properties is the complete fingerprint handed to the evasion scripts as
// the `opts` constant. It is mutated in place while options are applied.
type Properties struct {
	BrowserType          BrowserType         `json:"-"`
	Navigator            NavigatorProperties `json:"navigator"`
	Header               HeaderProperties    `json:"header"`
	WebGL                WebGLProperties     `json:"webgl"`
	Viewport             *Viewport           `json:"viewport,omitempty"`
	RunOnInsecureOrigins bool                `json:"runOnInsecureOrigins"`
}

// profile is one row of the per-browser default table.
type profile struct {
	userAgent           string
	platform            string
	vendor              string
	languages           []string
	acceptLanguage      string
	accept              string
	acceptEncoding      string
	secChUa             string
	secChUaPlatform     string
	webGLVendor         string
	webGLRenderer       string
	hardwareConcurrency int
	deviceMemory        int
}

var defaultProfiles = map[BrowserType]profile{
	BrowserChrome: {
		userAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		platform:            "Win32",
		vendor:              "Google Inc.",
		languages:           []string{"en-US", "en"},
		acceptLanguage:      "en-US,en;q=0.9",
		accept:              "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
		acceptEncoding:      "gzip, deflate, br",
		secChUa:             `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`,
		secChUaPlatform:     `"Windows"`,
		webGLVendor:         "Google Inc. (NVIDIA)",
		webGLRenderer:       "ANGLE (NVIDIA, NVIDIA GeForce GTX 1080 Direct3D11 vs_5_0 ps_5_0, D3D11)",
		hardwareConcurrency: 8,
		deviceMemory:        8,
	},
	BrowserEdge: {
		userAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
		platform:            "Win32",
		vendor:              "Google Inc.",
		languages:           []string{"en-US", "en"},
		acceptLanguage:      "en-US,en;q=0.9",
		accept:              "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
		acceptEncoding:      "gzip, deflate, br",
		secChUa:             `"Not_A Brand";v="8", "Chromium";v="120", "Microsoft Edge";v="120"`,
		secChUaPlatform:     `"Windows"`,
		webGLVendor:         "Google Inc. (Intel)",
		webGLRenderer:       "ANGLE (Intel, Intel(R) UHD Graphics 630 Direct3D11 vs_5_0 ps_5_0, D3D11)",
		hardwareConcurrency: 8,
		deviceMemory:        8,
	},
	BrowserFirefox: {
		userAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
		platform:            "Win32",
		vendor:              "",
		languages:           []string{"en-US", "en"},
		acceptLanguage:      "en-US,en;q=0.5",
		accept:              "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		acceptEncoding:      "gzip, deflate, br",
		webGLVendor:         "Mozilla",
		webGLRenderer:       "ANGLE (NVIDIA, NVIDIA GeForce GTX 1080 Direct3D11 vs_5_0 ps_5_0)",
		hardwareConcurrency: 8,
		deviceMemory:        8,
	},
	BrowserSafari: {
		userAgent:           "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
		platform:            "MacIntel",
		vendor:              "Apple Computer, Inc.",
		languages:           []string{"en-US", "en"},
		acceptLanguage:      "en-US,en;q=0.9",
		accept:              "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		acceptEncoding:      "gzip, deflate, br",
		webGLVendor:         "Apple Inc.",
		webGLRenderer:       "Apple GPU",
		hardwareConcurrency: 8,
		deviceMemory:        8,
	},
}

// NewProperties returns a fresh fingerprint populated from the defaults for bt.
// The result shares no memory with the default table or with other calls.
func NewProperties(bt BrowserType) (*Properties, error) {
	p, ok := defaultProfiles[bt]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBrowser, string(bt))
	}

	props := &Properties{
		BrowserType: bt,
		Navigator: NavigatorProperties{
			UserAgent:           p.userAgent,
			AppVersion:          AppVersion(p.userAgent),
			Platform:            p.platform,
			Vendor:              p.vendor,
			Languages:           append([]string(nil), p.languages...),
			HardwareConcurrency: p.hardwareConcurrency,
			DeviceMemory:        p.deviceMemory,
		},
		Header: HeaderProperties{
			UserAgent:      p.userAgent,
			AcceptLanguage: p.acceptLanguage,
			Accept:         p.accept,
			AcceptEncoding: p.acceptEncoding,
			SecChUa:        p.secChUa,
		},
		WebGL: WebGLProperties{
			Vendor:   p.webGLVendor,
			Renderer: p.webGLRenderer,
		},
	}
	// Client hints are only sent by Chromium based browsers.
	if p.secChUa != "" {
		props.Header.SecChUaMobile = "?0"
		props.Header.SecChUaPlatform = p.secChUaPlatform
	}
	return props, nil
}

// marshalJSON is swapped in tests to exercise the encoder failure path.
var marshalJSON = json.Marshal

// JSON serializes the properties into the object literal assigned to opts.
func (p *Properties) JSON() ([]byte, error) {
	snapshot := *p
	if snapshot.Navigator.Languages == nil {
		snapshot.Navigator.Languages = []string{}
	}
	data, err := marshalJSON(snapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeProperties, err)
	}
	return data, nil
}

// platformDefault and vendorDefault are the fallbacks used by UA derivation.
func (p *Properties) platformDefault() string {
	if prof, ok := defaultProfiles[p.BrowserType]; ok {
		return prof.platform
	}
	return p.Navigator.Platform
}

func (p *Properties) vendorDefault() string {
	if prof, ok := defaultProfiles[p.BrowserType]; ok {
		return prof.vendor
	}
	return p.Navigator.Vendor
}
