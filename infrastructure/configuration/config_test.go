package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationDefaults(t *testing.T) {
	t.Run("limits_have_defaults", func(t *testing.T) {
		cfg := &Config{}
		initLimits(cfg)
		assert.Equal(t, int64(10<<20), cfg.Ingest.MaxBytes)
		assert.Equal(t, 20, cfg.Ingest.TimeoutSeconds)
		assert.Equal(t, int64(10), cfg.Entitlement.MaxFailedAttempts)
		assert.Equal(t, 900, cfg.Entitlement.FailWindowSeconds)
	})

	t.Run("app_port_and_public_url", func(t *testing.T) {
		t.Setenv("APP_PORT", "8088")
		t.Setenv("PUBLIC_BASE_URL", "https://shop.example.com/c/")
		cfg := &Config{}
		initApp(cfg)
		assert.Equal(t, 8088, cfg.App.Port)
		assert.Equal(t, "https://shop.example.com/c", cfg.App.PublicBaseURL)
	})

	t.Run("commerce_enabled_requires_endpoints", func(t *testing.T) {
		assert.False(t, Commerce{}.Enabled())
		assert.True(t, Commerce{APIBaseURL: "https://api", TokenURL: "https://tok", ClientID: "id"}.Enabled())
	})
}

func TestGetConfigValuePrecedence(t *testing.T) {
	t.Setenv("COURSEMINT_TEST_KEY", "")
	assert.Equal(t, "fallback", getConfigValue("", "COURSEMINT_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", getConfigValue("YOUR_KEY", "COURSEMINT_TEST_KEY", "fallback"))
	assert.Equal(t, "file", getConfigValue("file", "COURSEMINT_TEST_KEY", "fallback"))
	t.Setenv("COURSEMINT_TEST_KEY", "env")
	assert.Equal(t, "env", getConfigValue("file", "COURSEMINT_TEST_KEY", "fallback"))
}

func TestLoadEnvFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.env")
	content := "# comment\nexport CM_ONE=1\nCM_TWO=\"two words\"\nCM_THREE=3 # trailing\nCM_KEEP=file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CM_KEEP", "env")
	os.Unsetenv("CM_ONE")
	os.Unsetenv("CM_TWO")
	os.Unsetenv("CM_THREE")
	t.Cleanup(func() {
		os.Unsetenv("CM_ONE")
		os.Unsetenv("CM_TWO")
		os.Unsetenv("CM_THREE")
	})

	loaded := LoadEnvFromFile(path, filepath.Join(dir, "missing.env"))
	assert.Equal(t, []string{path}, loaded)
	assert.Equal(t, "1", os.Getenv("CM_ONE"))
	assert.Equal(t, "two words", os.Getenv("CM_TWO"))
	assert.Equal(t, "3", os.Getenv("CM_THREE"))
	assert.Equal(t, "env", os.Getenv("CM_KEEP"))
}
