package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/scalpel-stealth/internal/config"
	"github.com/xkilldash9x/scalpel-stealth/internal/mocks"
	"github.com/xkilldash9x/scalpel-stealth/internal/stealth"
)

func TestParseDriverKind(t *testing.T) {
	tests := []struct {
		in      string
		want    DriverKind
		wantErr bool
	}{
		{"chromedp", DriverChromedp, false},
		{"  Rod ", DriverRod, false},
		{"PLAYWRIGHT", DriverPlaywright, false},
		{"", DriverChromedp, false},
		{"selenium", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDriverKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeaderPairs(t *testing.T) {
	pairs := headerPairs(map[string]string{
		"User-Agent":      "UA",
		"Accept-Language": "de",
		"X-B":             "2",
	})
	assert.Equal(t, []string{"Accept-Language", "de", "User-Agent", "UA", "X-B", "2"}, pairs)
	assert.Empty(t, headerPairs(nil))
}

func TestToNetworkHeaders(t *testing.T) {
	h := toNetworkHeaders(map[string]string{"Accept": "*/*"})
	assert.Equal(t, "*/*", h["Accept"])
	assert.Len(t, h, 1)
}

func TestAllocatorOptions(t *testing.T) {
	base := AllocatorOptions(config.BrowserConfig{Headless: true}, nil)
	require.NotEmpty(t, base)

	withExtras := AllocatorOptions(config.BrowserConfig{
		Headless: true,
		Proxy:    "127.0.0.1:8080",
		ExecPath: "/usr/bin/chromium",
		Args:     []string{"--no-sandbox"},
	}, nil)
	assert.Len(t, withExtras, len(base)+3)

	headful := AllocatorOptions(config.BrowserConfig{Headless: false}, nil)
	assert.Len(t, headful, len(base)+3)
}

func TestInstallOn(t *testing.T) {
	ctx := context.Background()
	inst := stealth.NewInstaller(nil, nil)

	t.Run("Installs Profile", func(t *testing.T) {
		page := mocks.NewMockPage()
		page.On("SetExtraHTTPHeaders", mock.Anything, mock.Anything).Return(nil)
		page.On("AddInitScript", mock.Anything, mock.Anything).Return(nil)

		got, err := installOn(ctx, page, inst, stealth.NewConfig())
		require.NoError(t, err)
		assert.Same(t, page, got)
		assert.Equal(t, []string{"SetExtraHTTPHeaders", "AddInitScript"}, page.CallOrder())
		page.AssertNotCalled(t, "Close")
	})

	t.Run("Closes Page On Failure", func(t *testing.T) {
		page := mocks.NewMockPage()
		page.On("SetExtraHTTPHeaders", mock.Anything, mock.Anything).Return(errors.New("detached"))
		page.On("Close").Return(nil)

		got, err := installOn(ctx, page, inst, stealth.NewConfig())
		assert.Nil(t, got)
		assert.ErrorContains(t, err, "detached")
		assert.Equal(t, []string{"SetExtraHTTPHeaders", "Close"}, page.CallOrder())
	})
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.BrowserConfig{Driver: "phantomjs"}, stealth.NewInstaller(nil, nil), nil, nil)
	assert.ErrorContains(t, err, "unknown browser driver")
}

// TestChromedpStealthPage needs a local Chrome; it is skipped otherwise.
func TestChromedpStealthPage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if !chromeAvailable() {
		t.Skip("no Chrome/Chromium binary found")
	}

	var (
		mu      sync.Mutex
		gotLang string
		gotUA   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotLang = r.Header.Get("Accept-Language")
		gotUA = r.Header.Get("User-Agent")
		mu.Unlock()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, "<html><body>ok</body></html>")
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg := stealth.NewConfig()
	cfg.Options = &stealth.Options{
		UserAgent: stealth.Some("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		Languages: stealth.Some([]string{"de-DE", "de"}),
	}

	logger := zaptest.NewLogger(t)
	page, err := Open(ctx, config.BrowserConfig{Driver: "chromedp", Headless: true, Args: []string{"no-sandbox"}},
		stealth.NewInstaller(nil, logger), cfg, logger)
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Navigate(ctx, server.URL))

	mu.Lock()
	assert.Equal(t, "de-DE, de;q=0.9", gotLang)
	assert.Contains(t, gotUA, "X11; Linux x86_64")
	mu.Unlock()

	res, err := page.Evaluate(ctx, `typeof opts === "object" ? opts.navigator.languages.join(",") : "missing"`)
	require.NoError(t, err)
	assert.Equal(t, "de-DE,de", res)
}

func chromeAvailable() bool {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}
