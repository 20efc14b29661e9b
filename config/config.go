package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RenderConfig selects the markup dialect and the render resources.
type RenderConfig struct {
	Dialect                  string   `json:"dialect"`
	AttachmentsPath          string   `json:"attachmentsPath"`
	UseHTMLWhitelist         bool     `json:"useHtmlWhitelist"`
	WhitelistPath            string   `json:"whitelistPath"`
	TokensPath               string   `json:"tokensPath"`
	CacheTokens              bool     `json:"cacheTokens"`
	ExternalLinksInNewWindow bool     `json:"externalLinksInNewWindow"`
	Plugins                  []string `json:"plugins"`
	WatchResources           bool     `json:"watchResources"`
	WatchDebounceMs          int      `json:"watchDebounceMs"`
}

// PagesConfig describes the page database.
type PagesConfig struct {
	Database  string `json:"database"`
	MenuTitle string `json:"menuTitle"`
}

// Config encapsulates runtime options.
type Config struct {
	Listen                 string         `json:"listen"`
	LogLevel               string         `json:"logLevel"`
	BaseURL                string         `json:"baseUrl"`
	ServerHeader           string         `json:"serverHeader"`
	EnableTLS              bool           `json:"enableTLS"`
	TLSCert                string         `json:"tlsCert"`
	TLSKey                 string         `json:"tlsKey"`
	TrustedProxies         []string       `json:"trustedProxies"`
	TrustedRemoteAddrLevel int            `json:"trustedRemoteAddrLevel"`
	Render                 RenderConfig   `json:"render"`
	Pages                  PagesConfig    `json:"pages"`
	trustedProxyPrefixes   []netip.Prefix `json:"-"`
}

// Default returns the configuration used for keys absent from the file.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			UseHTMLWhitelist: true,
			CacheTokens:      true,
			Plugins:          []string{"toc", "syntaxhighlight"},
		},
	}
}

// Load reads configuration from disk and applies sane defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(bytes)
}

// Parse decodes a JSON configuration document.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WatchDebounce is the delay between a resource change and its reload.
func (r RenderConfig) WatchDebounce() time.Duration {
	return time.Duration(r.WatchDebounceMs) * time.Millisecond
}

func (c *Config) applyDefaults() error {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.TrustedRemoteAddrLevel <= 0 {
		c.TrustedRemoteAddrLevel = 1
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")

	r := &c.Render
	r.Dialect = strings.ToLower(strings.TrimSpace(r.Dialect))
	if r.Dialect == "" {
		r.Dialect = "markdown"
	}
	r.AttachmentsPath = strings.TrimSpace(r.AttachmentsPath)
	if r.AttachmentsPath == "" {
		r.AttachmentsPath = c.BaseURL + "/attachments"
	}
	r.WhitelistPath = strings.TrimSpace(r.WhitelistPath)
	r.TokensPath = strings.TrimSpace(r.TokensPath)
	if r.WatchDebounceMs <= 0 {
		r.WatchDebounceMs = 500
	}
	plugins := r.Plugins[:0]
	seen := map[string]struct{}{}
	for _, id := range r.Plugins {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		plugins = append(plugins, id)
	}
	r.Plugins = plugins

	c.Pages.Database = strings.TrimSpace(c.Pages.Database)
	if c.Pages.Database == "" {
		c.Pages.Database = "./data/pages.db"
	}
	c.Pages.MenuTitle = strings.TrimSpace(c.Pages.MenuTitle)
	if c.Pages.MenuTitle == "" {
		c.Pages.MenuTitle = "Menu"
	}

	return c.compileTrustedProxies()
}

func (c *Config) validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logLevel %q", c.LogLevel)
	}
	if c.EnableTLS {
		if c.TLSCert == "" || c.TLSKey == "" {
			return fmt.Errorf("tls enabled but certificates missing")
		}
	}
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return fmt.Errorf("invalid baseUrl: %w", err)
		}
	}
	if c.Render.WatchResources && c.Render.WhitelistPath == "" && c.Render.TokensPath == "" {
		return fmt.Errorf("render.watchResources set but no whitelistPath or tokensPath configured")
	}
	return nil
}

func (c *Config) compileTrustedProxies() error {
	if c.trustedProxyPrefixes != nil {
		c.trustedProxyPrefixes = c.trustedProxyPrefixes[:0]
	}
	for _, entry := range c.TrustedProxies {
		token := strings.TrimSpace(entry)
		if token == "" {
			continue
		}
		if strings.Contains(token, "/") {
			prefix, err := netip.ParsePrefix(token)
			if err != nil {
				return fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
			}
			c.trustedProxyPrefixes = append(c.trustedProxyPrefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(token)
		if err != nil {
			return fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		c.trustedProxyPrefixes = append(c.trustedProxyPrefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return nil
}

// IsTrustedProxy reports whether the provided address is within the trusted proxy list.
func (c *Config) IsTrustedProxy(addr netip.Addr) bool {
	for _, prefix := range c.trustedProxyPrefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// RemoteAddrFromRequest determines the originating client address,
// walking X-Forwarded-For back through at most TrustedRemoteAddrLevel
// trusted proxies.
func (c *Config) RemoteAddrFromRequest(r *http.Request) netip.Addr {
	chain := remoteAddrChain(r)
	if len(chain) == 0 {
		return netip.Addr{}
	}

	allowed := max(c.TrustedRemoteAddrLevel, 0)
	idx := len(chain) - 1
	for idx > 0 && allowed > 0 && c.IsTrustedProxy(chain[idx]) {
		idx--
		allowed--
	}
	return chain[idx]
}

func remoteAddrChain(r *http.Request) []netip.Addr {
	chain := make([]netip.Addr, 0, 4)

	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, raw := range strings.Split(header, ",") {
			if addr, err := netip.ParseAddr(strings.TrimSpace(raw)); err == nil {
				chain = append(chain, addr)
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(host)); err == nil {
		chain = append(chain, addr)
	}
	return chain
}
