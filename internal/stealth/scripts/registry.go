// internal/stealth/scripts/registry.go

// Package scripts holds the evasion payloads injected ahead of page scripts.
// The payloads are opaque to the rest of the module; their only contract is
// that they read the global `opts` constant emitted by the composer.
package scripts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
)

// Script names. These are the keys of the registry and the names accepted by
// the toggle configuration.
const (
	ChromeApp                    = "chrome_app"
	ChromeCSI                    = "chrome_csi"
	ChromeLoadTimes              = "chrome_load_times"
	ChromeRuntime                = "chrome_runtime"
	GenerateMagicArrays          = "generate_magic_arrays"
	IframeContentWindow          = "iframe_content_window"
	MediaCodecs                  = "media_codecs"
	NavigatorHardwareConcurrency = "navigator_hardware_concurrency"
	NavigatorLanguages           = "navigator_languages"
	NavigatorPermissions         = "navigator_permissions"
	NavigatorPlugins             = "navigator_plugins"
	NavigatorUserAgent           = "navigator_user_agent"
	NavigatorVendor              = "navigator_vendor"
	OuterDimensions              = "outerdimensions"
	Utils                        = "utils"
	Webdriver                    = "webdriver"
	WebGLVendor                  = "webgl_vendor"
)

// files maps every script name to its payload file.
var files = map[string]string{
	ChromeApp:                    "chrome.app.js",
	ChromeCSI:                    "chrome.csi.js",
	ChromeLoadTimes:              "chrome.load.times.js",
	ChromeRuntime:                "chrome.runtime.js",
	GenerateMagicArrays:          "generate.magic.arrays.js",
	IframeContentWindow:          "iframe.contentWindow.js",
	MediaCodecs:                  "media.codecs.js",
	NavigatorHardwareConcurrency: "navigator.hardwareConcurrency.js",
	NavigatorLanguages:           "navigator.languages.js",
	NavigatorPermissions:         "navigator.permissions.js",
	NavigatorPlugins:             "navigator.plugins.js",
	NavigatorUserAgent:           "navigator.userAgent.js",
	NavigatorVendor:              "navigator.vendor.js",
	OuterDimensions:              "window.outerdimensions.js",
	Utils:                        "utils.js",
	Webdriver:                    "navigator.webdriver.js",
	WebGLVendor:                  "webgl.vendor.js",
}

// ErrMissingScript is returned when a payload cannot be read at load time.
var ErrMissingScript = errors.New("scripts: missing payload")

//go:embed js/*.js
var embedded embed.FS

// Registry is an immutable name to source mapping. It is never modified after
// Load returns, so it is safe for any number of concurrent readers.
type Registry struct {
	sources map[string]string
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide registry built from the embedded payloads.
// A missing payload is a broken build, so it panics rather than handing out a
// partial registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "js")
		if err != nil {
			panic(fmt.Sprintf("scripts: embedded payloads unavailable: %v", err))
		}
		reg, err := Load(sub)
		if err != nil {
			panic(err.Error())
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}

// LoadDir reads the payloads from a directory on disk, for installs that ship
// their own copies of the scripts.
func LoadDir(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scripts: cannot open payload directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scripts: %q is not a directory", dir)
	}
	return Load(os.DirFS(dir))
}

// Load reads every known payload from fsys. Either all payloads are present
// and a registry is returned, or an error wrapping ErrMissingScript is.
func Load(fsys fs.FS) (*Registry, error) {
	sources := make(map[string]string, len(files))
	var missing []string

	for name, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			missing = append(missing, file)
			continue
		}
		sources[name] = string(data)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %v", ErrMissingScript, missing)
	}
	return &Registry{sources: sources}, nil
}

// Get returns the source for name.
func (r *Registry) Get(name string) (string, bool) {
	src, ok := r.sources[name]
	return src, ok
}

// MustGet returns the source for name and panics if the name is unknown.
// Names are compile-time constants, so an unknown one is a programming error.
func (r *Registry) MustGet(name string) string {
	src, ok := r.sources[name]
	if !ok {
		panic(fmt.Sprintf("scripts: unknown script %q", name))
	}
	return src
}

// Names returns the registered script names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileName returns the payload file backing a script name.
func FileName(name string) (string, bool) {
	f, ok := files[name]
	return f, ok
}
