package stealth

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_NavigatorLanguages(t *testing.T) {
	t.Run("Derived From Accept-Language", func(t *testing.T) {
		o := &Options{AcceptLanguage: Some("en-US,en;q=0.8")}
		langs, ok := o.NavigatorLanguages()
		require.True(t, ok)
		assert.Equal(t, []string{"en-US", "en"}, langs)
	})

	t.Run("Whitespace And Empty Entries Are Dropped", func(t *testing.T) {
		o := &Options{AcceptLanguage: Some(" fr-CH , fr;q=0.9,, en;q=0.8 ")}
		langs, ok := o.NavigatorLanguages()
		require.True(t, ok)
		assert.Equal(t, []string{"fr-CH", "fr", "en"}, langs)
	})

	t.Run("Languages Win Over Accept-Language", func(t *testing.T) {
		o := &Options{
			Languages:      Some([]string{"de-DE", "de"}),
			AcceptLanguage: Some("en-US,en;q=0.8"),
		}
		langs, ok := o.NavigatorLanguages()
		require.True(t, ok)
		assert.Equal(t, []string{"de-DE", "de"}, langs)
	})

	t.Run("Empty Languages Fall Back To Accept-Language", func(t *testing.T) {
		o := &Options{
			Languages:      Some([]string{}),
			AcceptLanguage: Some("nl"),
		}
		langs, ok := o.NavigatorLanguages()
		require.True(t, ok)
		assert.Equal(t, []string{"nl"}, langs)
	})

	t.Run("Result Does Not Alias Input", func(t *testing.T) {
		in := []string{"en-US", "en"}
		o := &Options{Languages: Some(in)}
		langs, _ := o.NavigatorLanguages()
		langs[0] = "xx"
		assert.Equal(t, "en-US", in[0])
	})

	t.Run("No Value", func(t *testing.T) {
		cases := map[string]*Options{
			"nil options":       nil,
			"nothing set":       {},
			"empty header":      {AcceptLanguage: Some("")},
			"malformed header":  {AcceptLanguage: Some(" ,;q=0.5, ")},
			"empty languages":   {Languages: Some([]string{})},
			"unrelated options": {Platform: Some("Win32")},
		}
		for name, o := range cases {
			t.Run(name, func(t *testing.T) {
				langs, ok := o.NavigatorLanguages()
				assert.False(t, ok)
				assert.Nil(t, langs)
			})
		}
	})
}

func TestOptions_AcceptLanguageHeader(t *testing.T) {
	t.Run("Synthesized From Languages", func(t *testing.T) {
		o := &Options{Languages: Some([]string{"en-US", "en", "de"})}
		header, ok := o.AcceptLanguageHeader()
		require.True(t, ok)
		assert.Equal(t, "en-US, en;q=0.9, de;q=0.8", header)
	})

	t.Run("Single Language Is Returned Unchanged", func(t *testing.T) {
		o := &Options{Languages: Some([]string{"ja"})}
		header, ok := o.AcceptLanguageHeader()
		require.True(t, ok)
		assert.Equal(t, "ja", header)
	})

	t.Run("Quality Is Floored At 0.1", func(t *testing.T) {
		langs := make([]string, 12)
		for i := range langs {
			langs[i] = fmt.Sprintf("l%d", i)
		}
		o := &Options{Languages: Some(langs)}
		header, ok := o.AcceptLanguageHeader()
		require.True(t, ok)

		parts := strings.Split(header, ", ")
		require.Len(t, parts, 12)
		assert.Equal(t, "l0", parts[0])
		assert.Equal(t, "l1;q=0.9", parts[1])
		assert.Equal(t, "l9;q=0.1", parts[9])
		assert.Equal(t, "l10;q=0.1", parts[10], "11th entry must be clamped, not 0.0")
		assert.Equal(t, "l11;q=0.1", parts[11])
		assert.NotContains(t, header, "q=0.0")
		assert.NotContains(t, header, "q=-")
	})

	t.Run("Explicit Header Wins Over Languages", func(t *testing.T) {
		o := &Options{
			Languages:      Some([]string{"de-DE", "de"}),
			AcceptLanguage: Some("en-GB,en;q=0.7"),
		}
		header, ok := o.AcceptLanguageHeader()
		require.True(t, ok)
		assert.Equal(t, "en-GB,en;q=0.7", header)
	})

	t.Run("Malformed Header Is Treated As Absent", func(t *testing.T) {
		o := &Options{
			Languages:      Some([]string{"de-DE", "de"}),
			AcceptLanguage: Some(" , "),
		}
		header, ok := o.AcceptLanguageHeader()
		require.True(t, ok)
		assert.Equal(t, "de-DE, de;q=0.9", header)
	})

	t.Run("No Value", func(t *testing.T) {
		var nilOpts *Options
		_, ok := nilOpts.AcceptLanguageHeader()
		assert.False(t, ok)

		_, ok = (&Options{}).AcceptLanguageHeader()
		assert.False(t, ok)
	})
}

func TestQuality(t *testing.T) {
	for i := 0; i < 20; i++ {
		q := quality(i)
		assert.GreaterOrEqual(t, q, 0.1, "position %d", i)
		if i > 0 {
			assert.LessOrEqual(t, q, quality(i-1), "position %d", i)
		}
	}
	assert.Equal(t, 1.0, quality(0))
}

func TestOptions_Headers(t *testing.T) {
	t.Run("Derived Headers", func(t *testing.T) {
		o := &Options{
			UserAgent: Some("UA_X"),
			Languages: Some([]string{"en-US", "en"}),
		}
		assert.Equal(t, map[string]string{
			HeaderUserAgent:      "UA_X",
			HeaderAcceptLanguage: "en-US, en;q=0.9",
		}, o.Headers())
	})

	t.Run("Extra Headers Win On Collision", func(t *testing.T) {
		o := &Options{
			UserAgent:      Some("UA_X"),
			AcceptLanguage: Some("en-US"),
			ExtraHeaders: map[string]string{
				HeaderUserAgent:      "UA_EXTRA",
				HeaderAcceptLanguage: "fr",
				"X-Custom":           "1",
			},
		}
		assert.Equal(t, map[string]string{
			HeaderUserAgent:      "UA_EXTRA",
			HeaderAcceptLanguage: "fr",
			"X-Custom":           "1",
		}, o.Headers())
	})

	t.Run("Empty User Agent Is Omitted", func(t *testing.T) {
		o := &Options{UserAgent: Some("")}
		assert.Empty(t, o.Headers())
	})

	t.Run("Whitespace User Agent Is Omitted", func(t *testing.T) {
		o := &Options{UserAgent: Some("   ")}
		assert.Empty(t, o.Headers())
	})

	t.Run("Nil Options", func(t *testing.T) {
		var o *Options
		h := o.Headers()
		assert.NotNil(t, h)
		assert.Empty(t, h)
	})
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    *Options
		wantErr bool
	}{
		{"nil", nil, false},
		{"empty", &Options{}, false},
		{"valid viewport", &Options{Viewport: Some(Viewport{Width: 1920, Height: 1080})}, false},
		{"zero width", &Options{Viewport: Some(Viewport{Width: 0, Height: 1080})}, true},
		{"negative height", &Options{Viewport: Some(Viewport{Width: 800, Height: -1})}, true},
		{"zero hardware concurrency", &Options{HardwareConcurrency: Some(0)}, false},
		{"negative hardware concurrency", &Options{HardwareConcurrency: Some(-2)}, true},
		{"negative device memory", &Options{DeviceMemory: Some(-8)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOptional(t *testing.T) {
	none := None[bool]()
	assert.False(t, none.IsSet())
	assert.True(t, none.OrElse(true))

	f := Some(false)
	v, ok := f.Get()
	assert.True(t, ok)
	assert.False(t, v)
	assert.False(t, f.OrElse(true), "explicit false must not fall back")

	var nilPtr *string
	assert.False(t, FromPtr(nilPtr).IsSet())
	s := "Win32"
	assert.Equal(t, Some("Win32"), FromPtr(&s))
}
