package stealth

import "strings"

type uaToken struct {
	token string
	value string
}

// platformTokens is checked in order; the first token found in the UA wins.
// Android UAs also carry "Linux" and therefore resolve to the Linux entry.
var platformTokens = []uaToken{
	{"Windows", "Win32"},
	{"Macintosh", "MacIntel"},
	{"Linux", "Linux x86_64"},
	{"iPhone", "iPhone"},
	{"Android", "Linux armv8l"},
}

// vendorTokens is checked in order. Chromium derivatives carry both "Chrome"
// and "Safari", so Chrome has to come first.
var vendorTokens = []uaToken{
	{"Chrome", "Google Inc."},
	{"Firefox", ""},
	{"Safari", "Apple Computer, Inc."},
}

// AppVersion returns navigator.appVersion for a user agent: the UA without its
// leading product token, e.g. "Mozilla/5.0 (X11)" becomes "5.0 (X11)".
// A UA that does not start with a product token is returned unchanged.
func AppVersion(ua string) string {
	slash := strings.IndexByte(ua, '/')
	if slash <= 0 || strings.ContainsAny(ua[:slash], " ;()") {
		return ua
	}
	return ua[slash+1:]
}

// PlatformFromUserAgent maps a UA to navigator.platform, or returns fallback
// when no known platform token is present.
func PlatformFromUserAgent(ua, fallback string) string {
	return firstMatch(ua, platformTokens, fallback)
}

// VendorFromUserAgent maps a UA to navigator.vendor, or returns fallback.
func VendorFromUserAgent(ua, fallback string) string {
	return firstMatch(ua, vendorTokens, fallback)
}

func firstMatch(ua string, tokens []uaToken, fallback string) string {
	for _, t := range tokens {
		if strings.Contains(ua, t.token) {
			return t.value
		}
	}
	return fallback
}

// ClientHints holds the Sec-CH-UA* header values of a Chromium based browser.
type ClientHints struct {
	Brands   string
	Mobile   string
	Platform string
}

// clientHintPlatforms maps navigator.platform to the Sec-CH-UA-Platform name.
var clientHintPlatforms = map[string]string{
	"Win32":        "Windows",
	"MacIntel":     "macOS",
	"Linux x86_64": "Linux",
	"Linux armv8l": "Android",
}

// ClientHintsFromUserAgent derives the client hints a browser with this UA
// would send. Only UAs with a Chrome/NNN token send them; ok is false
// otherwise. platform is the navigator.platform already chosen for the UA.
func ClientHintsFromUserAgent(ua, platform string) (ClientHints, bool) {
	version, ok := majorVersion(ua, "Chrome/")
	if !ok {
		return ClientHints{}, false
	}

	brand := "Google Chrome"
	brandVersion := version
	if edge, ok := majorVersion(ua, "Edg/"); ok {
		brand, brandVersion = "Microsoft Edge", edge
	}

	hints := ClientHints{
		Brands: `"Not_A Brand";v="8", "Chromium";v="` + version + `", "` + brand + `";v="` + brandVersion + `"`,
		Mobile: "?0",
	}
	if strings.Contains(ua, "Mobile") {
		hints.Mobile = "?1"
	}

	name, known := clientHintPlatforms[platform]
	switch {
	case strings.Contains(ua, "Android"):
		name = "Android"
	case !known:
		name = "Unknown"
	}
	hints.Platform = `"` + name + `"`
	return hints, true
}

// majorVersion returns the digits following token, e.g. "120" for "Chrome/120.0.0.0".
func majorVersion(ua, token string) (string, bool) {
	i := strings.Index(ua, token)
	if i < 0 {
		return "", false
	}
	rest := ua[i+len(token):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return "", false
	}
	return rest[:end], true
}
