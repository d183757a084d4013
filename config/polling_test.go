package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPollingConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadPollingConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPollingConfig(), cfg)
}

func TestLoadPollingConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polling.yaml")
	content := `
location: UTC
peak_interval: 2s
quiet_threshold: 4
peak_windows:
  - name: lunch
    start: "11:30"
    end: "14:30"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadPollingConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.PeakInterval)
	assert.Equal(t, 10*time.Second, cfg.QuietInterval)
	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Equal(t, 4, cfg.QuietThreshold)
	require.Len(t, cfg.PeakWindows, 1)
	assert.Equal(t, "11:30", cfg.PeakWindows[0].Start)

	loc, err := cfg.TimeLocation()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadPollingConfig_RejectsNonPositiveInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polling.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: 0s\n"), 0o644))

	_, err := LoadPollingConfig(path)
	assert.Error(t, err)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("CAMPUS_EATS_TEST_VALUE", "x")
	assert.Equal(t, "x", GetEnv("CAMPUS_EATS_TEST_VALUE", "y"))
	assert.Equal(t, "y", GetEnv("CAMPUS_EATS_TEST_UNSET", "y"))

	t.Setenv("CAMPUS_EATS_TEST_TTL", "90m")
	assert.Equal(t, 90*time.Minute, GetEnvDuration("CAMPUS_EATS_TEST_TTL", time.Hour))
	t.Setenv("CAMPUS_EATS_TEST_TTL", "soon")
	assert.Equal(t, time.Hour, GetEnvDuration("CAMPUS_EATS_TEST_TTL", time.Hour))
}

func TestGetEnvPositiveDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"unset", "", time.Hour},
		{"valid", "15m", 15 * time.Minute},
		{"zero", "0s", time.Hour},
		{"negative", "-1h", time.Hour},
		{"garbage", "later", time.Hour},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Setenv("CAMPUS_EATS_TEST_IDLE", testCase.value)
			assert.Equal(t, testCase.want, GetEnvPositiveDuration("CAMPUS_EATS_TEST_IDLE", time.Hour))
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CAMPUS_EATS_TEST_SIZE", "512")
	assert.Equal(t, 512, GetEnvInt("CAMPUS_EATS_TEST_SIZE", 256))
	t.Setenv("CAMPUS_EATS_TEST_SIZE", "big")
	assert.Equal(t, 256, GetEnvInt("CAMPUS_EATS_TEST_SIZE", 256))
}
