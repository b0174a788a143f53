package stealth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/scalpel-stealth/internal/mocks"
)

func TestFinalHeaders(t *testing.T) {
	p := chromeProps(t)
	o := &Options{ExtraHeaders: map[string]string{
		"User-Agent": "Overridden",
		"Accept":     "*/*",
		"X-Trace":    "abc",
	}}

	h := FinalHeaders(p, o)
	assert.Equal(t, "Overridden", h["User-Agent"])
	assert.Equal(t, "*/*", h["Accept"])
	assert.Equal(t, "abc", h["X-Trace"])
	assert.Equal(t, p.Header.AcceptLanguage, h["Accept-Language"])
	assert.Equal(t, p.Header.SecChUa, h["Sec-CH-UA"])

	assert.Equal(t, p.Header.AsMap(), FinalHeaders(p, nil))
}

func TestInstaller_Prepare(t *testing.T) {
	inst := NewInstaller(nil, nil, WithValidation(true))

	t.Run("Default Config", func(t *testing.T) {
		payload, err := inst.Prepare(nil)
		require.NoError(t, err)
		assert.Equal(t, BrowserChrome, payload.Properties.BrowserType)
		assert.True(t, strings.HasPrefix(payload.Script, "const opts = {"))
		assert.Equal(t, payload.Properties.Header.UserAgent, payload.Headers["User-Agent"])
	})

	t.Run("Headers Agree With Navigator", func(t *testing.T) {
		cfg := NewConfig()
		cfg.BrowserType = BrowserFirefox
		cfg.Options = &Options{
			UserAgent: Some("Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"),
			Languages: Some([]string{"de-DE", "de", "en-US", "en"}),
			ExtraHeaders: map[string]string{
				"Accept": "text/html",
			},
		}
		payload, err := inst.Prepare(cfg)
		require.NoError(t, err)

		p := payload.Properties
		assert.Equal(t, p.Navigator.UserAgent, payload.Headers["User-Agent"])
		assert.Equal(t, "de-DE, de;q=0.9, en-US;q=0.8, en;q=0.7", payload.Headers["Accept-Language"])
		assert.Equal(t, []string{"de-DE", "de", "en-US", "en"}, p.Navigator.Languages)
		assert.Equal(t, "text/html", payload.Headers["Accept"])
		assert.NotContains(t, payload.Headers, "Sec-CH-UA")
	})

	t.Run("Each Call Builds Fresh Properties", func(t *testing.T) {
		a, err := inst.Prepare(nil)
		require.NoError(t, err)
		a.Properties.Navigator.Platform = "tampered"

		b, err := inst.Prepare(nil)
		require.NoError(t, err)
		assert.Equal(t, "Win32", b.Properties.Navigator.Platform)
	})

	t.Run("Unsupported Browser", func(t *testing.T) {
		cfg := NewConfig()
		cfg.BrowserType = "mosaic"
		_, err := inst.Prepare(cfg)
		assert.ErrorIs(t, err, ErrUnsupportedBrowser)
	})

	t.Run("Validation Rejects Colliding Bodies", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Append = []string{"const languages = [];"}
		_, err := inst.Prepare(cfg)
		assert.ErrorIs(t, err, ErrInvalidScript)

		_, err = NewInstaller(nil, nil).Prepare(cfg)
		assert.NoError(t, err, "validation is opt-in")
	})
}

func TestInstaller_Install(t *testing.T) {
	ctx := context.Background()

	t.Run("Headers Before Script", func(t *testing.T) {
		core, observedLogs := observer.New(zap.DebugLevel)
		inst := NewInstaller(nil, zap.New(core))

		drv := mocks.NewMockDriver()
		drv.On("SetExtraHTTPHeaders", mock.Anything, mock.MatchedBy(func(h map[string]string) bool {
			return h["User-Agent"] != "" && h["Accept-Language"] != ""
		})).Return(nil).Once()
		drv.On("AddInitScript", mock.Anything, mock.MatchedBy(func(s string) bool {
			return strings.HasPrefix(s, "const opts = ")
		})).Return(nil).Once()

		require.NoError(t, inst.Install(ctx, drv, nil))
		drv.AssertExpectations(t)
		assert.Equal(t, []string{"SetExtraHTTPHeaders", "AddInitScript"}, drv.CallOrder())

		installed := observedLogs.FilterMessage("Stealth profile installed").All()
		require.Len(t, installed, 1)
		assert.Equal(t, "stealth", installed[0].LoggerName)
		fields := installed[0].ContextMap()
		assert.NotEmpty(t, fields["install_id"])
		assert.Contains(t, fields["user_agent"], "Chrome/")
		assert.Equal(t, 1, observedLogs.FilterMessage("Composed stealth script").Len())
	})

	t.Run("Header Failure Stops Before Script", func(t *testing.T) {
		core, observedLogs := observer.New(zap.DebugLevel)
		inst := NewInstaller(nil, zap.New(core))

		boom := errors.New("cdp: target closed")
		drv := mocks.NewMockDriver()
		drv.On("SetExtraHTTPHeaders", mock.Anything, mock.Anything).Return(boom)

		err := inst.Install(ctx, drv, nil)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "extra HTTP headers")
		drv.AssertNotCalled(t, "AddInitScript", mock.Anything, mock.Anything)
		assert.Equal(t, 1, observedLogs.FilterLevelExact(zap.ErrorLevel).Len())
	})

	t.Run("Script Failure Leaves Headers In Place", func(t *testing.T) {
		inst := NewInstaller(nil, nil)
		boom := errors.New("page crashed")

		drv := mocks.NewMockDriver()
		drv.On("SetExtraHTTPHeaders", mock.Anything, mock.Anything).Return(nil)
		drv.On("AddInitScript", mock.Anything, mock.Anything).Return(boom)

		err := inst.Install(ctx, drv, nil)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "init script")
		assert.Equal(t, []string{"SetExtraHTTPHeaders", "AddInitScript"}, drv.CallOrder())
	})

	t.Run("Canceled Context", func(t *testing.T) {
		inst := NewInstaller(nil, nil)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		drv := mocks.NewMockDriver()
		err := inst.Install(cctx, drv, nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, drv.CallOrder())
	})

	t.Run("Invalid Config Never Touches The Page", func(t *testing.T) {
		inst := NewInstaller(nil, nil)
		cfg := NewConfig()
		cfg.Options = &Options{Viewport: Some(Viewport{Width: -1, Height: 10})}

		drv := mocks.NewMockDriver()
		err := inst.Install(ctx, drv, cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Empty(t, drv.CallOrder())
	})
}
