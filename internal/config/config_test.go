package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	for _, key := range []string{"PORT", "REFRESH_INTERVAL", "PRICE_SOURCE", "CURRENCY",
		"HISTORY_ENABLED", "HISTORY_RETENTION_DAYS", "R2_BUCKET", "R2_ACCESS_KEY_ID"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8050, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval)
	assert.Equal(t, PriceSourceYahoo, cfg.PriceSource)
	assert.Equal(t, "INR", cfg.Currency)
	assert.True(t, cfg.HistoryEnabled)
	assert.Equal(t, 30, cfg.HistoryRetentionDays)
	assert.Equal(t, dir, cfg.DataDir)
	assert.False(t, cfg.Backup.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9100")
	t.Setenv("REFRESH_INTERVAL", "30s")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("HISTORY_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "USD", cfg.Currency)
	assert.False(t, cfg.HistoryEnabled)
}

func TestLoad_RefreshIntervalInSeconds(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("REFRESH_INTERVAL", "12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, cfg.RefreshInterval)
}

func TestLoad_InvalidRefreshInterval(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("REFRESH_INTERVAL", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Port: 8050, RefreshInterval: time.Second, PriceSource: PriceSourceYahoo}
	}

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero port", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"zero interval", func(c *Config) { c.RefreshInterval = 0 }, true},
		{"unknown source", func(c *Config) { c.PriceSource = "bloomberg" }, true},
		{"static without file", func(c *Config) { c.PriceSource = PriceSourceStatic }, true},
		{"static with file", func(c *Config) {
			c.PriceSource = PriceSourceStatic
			c.StaticPricesFile = "prices.json"
		}, false},
		{"negative retention", func(c *Config) { c.HistoryRetentionDays = -1 }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			err := c.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBackupConfig(t *testing.T) {
	var nilCfg *BackupConfig
	assert.False(t, nilCfg.Enabled())

	b := &BackupConfig{AccountID: "abc", AccessKeyID: "k", SecretAccessKey: "s", Bucket: "ltp"}
	assert.True(t, b.Enabled())
	assert.Equal(t, "https://abc.r2.cloudflarestorage.com", b.ResolvedEndpoint())

	b.Endpoint = "http://localhost:9000"
	assert.Equal(t, "http://localhost:9000", b.ResolvedEndpoint())

	b.Bucket = ""
	assert.False(t, b.Enabled())
}
