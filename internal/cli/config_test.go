package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// unsetenv clears key for the duration of the test, restoring any prior
// value afterwards.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func clearLauncherEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PHONE_AGENT_VENV",
		"PHONE_AGENT_ADB",
		"PHONE_AGENT_BASE_URL",
		"PHONE_AGENT_MODEL",
		"PHONE_AGENT_API_KEY",
		"PHONE_AGENT_LOG_LEVEL",
		"PHONE_AGENT_NO_COLOR",
		"NO_COLOR",
	} {
		unsetenv(t, key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearLauncherEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, Config{
		BaseURL:  "http://localhost:8000/v1",
		Model:    "autoglm-phone-9b",
		APIKey:   "EMPTY",
		LogLevel: "warn",
	}, cfg)
}

func TestLoadConfigReadsOverrides(t *testing.T) {
	clearLauncherEnv(t)
	t.Setenv("PHONE_AGENT_VENV", "env")
	t.Setenv("PHONE_AGENT_ADB", "/opt/platform-tools/adb")
	t.Setenv("PHONE_AGENT_BASE_URL", "https://api.example.com/v1")
	t.Setenv("PHONE_AGENT_MODEL", "autoglm-phone-32b")
	t.Setenv("PHONE_AGENT_API_KEY", "sk-test")
	t.Setenv("PHONE_AGENT_LOG_LEVEL", "debug")
	t.Setenv("PHONE_AGENT_NO_COLOR", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, Config{
		VenvDir:  "env",
		ADBPath:  "/opt/platform-tools/adb",
		BaseURL:  "https://api.example.com/v1",
		Model:    "autoglm-phone-32b",
		APIKey:   "sk-test",
		LogLevel: "debug",
		NoColor:  true,
	}, cfg)
}

func TestLoadConfigHonorsNoColorConvention(t *testing.T) {
	clearLauncherEnv(t)
	t.Setenv("NO_COLOR", "1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.NoColor)
}

func TestLoadConfigRejectsMalformedBooleans(t *testing.T) {
	clearLauncherEnv(t)
	t.Setenv("PHONE_AGENT_NO_COLOR", "definitely")

	_, err := LoadConfig()
	require.Error(t, err)
}
