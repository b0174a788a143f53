package stealth

import "errors"

var (
	// ErrUnsupportedBrowser is returned for a BrowserType without a default profile.
	ErrUnsupportedBrowser = errors.New("stealth: unsupported browser type")
	// ErrInvalidConfig marks option values that cannot produce a consistent fingerprint.
	ErrInvalidConfig = errors.New("stealth: invalid configuration")
	// ErrEncodeProperties is returned when the properties cannot be serialized into the opts blob.
	ErrEncodeProperties = errors.New("stealth: cannot encode properties")
	// ErrInvalidScript is returned when the combined script does not compile as one program.
	ErrInvalidScript = errors.New("stealth: combined script does not compile")
)
