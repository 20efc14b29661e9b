package config

import (
	"net/http/httptest"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "markdown", cfg.Render.Dialect)
	assert.Equal(t, "/attachments", cfg.Render.AttachmentsPath)
	assert.True(t, cfg.Render.UseHTMLWhitelist)
	assert.True(t, cfg.Render.CacheTokens)
	assert.Equal(t, []string{"toc", "syntaxhighlight"}, cfg.Render.Plugins)
	assert.Equal(t, 500*time.Millisecond, cfg.Render.WatchDebounce())
	assert.Equal(t, "./data/pages.db", cfg.Pages.Database)
	assert.Equal(t, "Menu", cfg.Pages.MenuTitle)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"baseUrl": "https://wiki.example/",
		"render": {
			"dialect": " CommonMark ",
			"useHtmlWhitelist": false,
			"plugins": ["Minify", "toc", "minify", ""],
			"whitelistPath": "whitelist.yaml",
			"watchResources": true
		}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "https://wiki.example", cfg.BaseURL)
	assert.Equal(t, "commonmark", cfg.Render.Dialect)
	assert.False(t, cfg.Render.UseHTMLWhitelist)
	assert.Equal(t, []string{"minify", "toc"}, cfg.Render.Plugins)
	assert.Equal(t, "https://wiki.example/attachments", cfg.Render.AttachmentsPath)
}

func TestParseEmptyPluginList(t *testing.T) {
	cfg, err := Parse([]byte(`{"render": {"plugins": []}}`))
	require.NoError(t, err)
	assert.Empty(t, cfg.Render.Plugins)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"syntax":    `{`,
		"log level": `{"logLevel": "chatty"}`,
		"tls":       `{"enableTLS": true}`,
		"proxy":     `{"trustedProxies": ["not-an-ip"]}`,
		"watch":     `{"render": {"watchResources": true}}`,
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listen": "unix:/tmp/wiki.sock"}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "unix:/tmp/wiki.sock", cfg.Listen)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestRemoteAddrFromRequest(t *testing.T) {
	cfg, err := Parse([]byte(`{"trustedProxies": ["10.0.0.0/8", "::1"]}`))
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.1.2.3:4567"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.7")
	assert.Equal(t, netip.MustParseAddr("198.51.100.7"), cfg.RemoteAddrFromRequest(r))

	r.RemoteAddr = "192.0.2.1:80"
	assert.Equal(t, netip.MustParseAddr("192.0.2.1"), cfg.RemoteAddrFromRequest(r))

	assert.True(t, cfg.IsTrustedProxy(netip.MustParseAddr("::1")))
}
