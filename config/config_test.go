package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/newswire"
)

// Test helper: write a config file into a temp dir and return its path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoad_MissingFile verifies that an absent config file yields defaults.
func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultInitialBatchSize, cfg.InitialBatchSize)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultRecencyWindow, cfg.RecencyWindow)
	assert.Equal(t, newswire.DatePolicyUTC, cfg.DatePolicy)
	assert.Equal(t, DefaultJSONProxyURL, cfg.JSONProxyURL)
	assert.Empty(t, cfg.XMLProxyURL, "XML proxy should be disabled by default")
	assert.NotEmpty(t, cfg.Sources, "defaults should seed a source list")
}

// TestLoad_FileOverrides verifies that file settings override defaults while
// unset fields keep their default values.
func TestLoad_FileOverrides(t *testing.T) {
	path := writeTestConfig(t, `
initial_batch_size: 12
poll_interval: 90s
recency_window: 24h
date_policy: local
json_proxy_url: https://proxy.example.com/api
xml_proxy_url: https://raw.example.com/get?url=
sources:
  - url: https://example.com/rss
    name: example
    label: Example Wire
  - url: https://example.org/feed.xml
    name: org
    encoding: windows-1252
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.InitialBatchSize)
	assert.Equal(t, 90*time.Second, cfg.PollInterval)
	assert.Equal(t, 24*time.Hour, cfg.RecencyWindow)
	assert.Equal(t, newswire.DatePolicyLocal, cfg.DatePolicy)
	assert.Equal(t, "https://proxy.example.com/api", cfg.JSONProxyURL)
	assert.Equal(t, "https://raw.example.com/get?url=", cfg.XMLProxyURL)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr, "unset http_addr should keep default")

	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "Example Wire", cfg.Sources[0].DisplayName())
	assert.Equal(t, "org", cfg.Sources[1].DisplayName(), "label falls back to name")
	assert.Equal(t, "windows-1252", cfg.Sources[1].Encoding)
}

// TestLoad_InvalidFiles verifies parse and validation failures are surfaced.
func TestLoad_InvalidFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "sources: ["},
		{"bad poll interval", "poll_interval: soon"},
		{"bad recency window", "recency_window: -1h"},
		{"bad date policy", "date_policy: guess"},
		{"source without url", "sources:\n  - name: broken"},
		{"source without name", "sources:\n  - url: https://example.com/rss"},
		{"duplicate source names", `
sources:
  - url: https://a.example.com/rss
    name: dup
  - url: https://b.example.com/rss
    name: dup
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTestConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

// TestLoad_EnvPath verifies the NEWSWIRE_CONFIG environment fallback.
func TestLoad_EnvPath(t *testing.T) {
	path := writeTestConfig(t, "initial_batch_size: 3")
	t.Setenv("NEWSWIRE_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.InitialBatchSize)
}
