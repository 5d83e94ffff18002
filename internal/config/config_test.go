package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/memescout/memescout/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDefault(t *testing.T) {
	cfg, err := config.WithDefault().Build()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port())
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.Equal(t, "memescout/1.0", cfg.UserAgent())
	assert.Equal(t, 3, cfg.MaxAttempt())
	assert.Equal(t, 12, cfg.ChunkSize())
	assert.True(t, cfg.IncludeNSFW())
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL())
	assert.Equal(t, time.Hour, cfg.CacheSweepInterval())
	assert.Equal(t, time.Minute, cfg.RateLimitWindow())
	assert.Equal(t, 60, cfg.RateLimitMax())
	assert.Equal(t, 5*time.Minute, cfg.RateLimitSweepInterval())
	assert.NotZero(t, cfg.RandomSeed())
}

func TestBuilderChaining(t *testing.T) {
	cfg, err := config.WithDefault().
		WithPort(9090).
		WithUserAgent("memescout-test/0.1").
		WithTimeout(3 * time.Second).
		WithChunkSize(4).
		WithIncludeNSFW(false).
		WithCacheTTL(time.Hour).
		WithRateLimitMax(10).
		WithMaxAttempt(5).
		Build()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port())
	assert.Equal(t, "memescout-test/0.1", cfg.UserAgent())
	assert.Equal(t, 3*time.Second, cfg.Timeout())
	assert.Equal(t, 4, cfg.ChunkSize())
	assert.False(t, cfg.IncludeNSFW())
	assert.Equal(t, time.Hour, cfg.CacheTTL())
	assert.Equal(t, 10, cfg.RateLimitMax())
	assert.Equal(t, 5, cfg.MaxAttempt())
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config) *config.Config
	}{
		{"port zero", func(c *config.Config) *config.Config { return c.WithPort(0) }},
		{"port too large", func(c *config.Config) *config.Config { return c.WithPort(70000) }},
		{"chunk size zero", func(c *config.Config) *config.Config { return c.WithChunkSize(0) }},
		{"no attempts", func(c *config.Config) *config.Config { return c.WithMaxAttempt(0) }},
		{"rate limit zero", func(c *config.Config) *config.Config { return c.WithRateLimitMax(0) }},
		{"cache ttl zero", func(c *config.Config) *config.Config { return c.WithCacheTTL(0) }},
		{"rate window zero", func(c *config.Config) *config.Config { return c.WithRateLimitWindow(0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.mutate(config.WithDefault()).Build()
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"port": 3000,
		"userAgent": "memescout-file/1.0",
		"chunkSize": 6,
		"includeNsfw": false,
		"rateLimitMax": 30
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.WithConfigFile(path)

	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port())
	assert.Equal(t, "memescout-file/1.0", cfg.UserAgent())
	assert.Equal(t, 6, cfg.ChunkSize())
	assert.False(t, cfg.IncludeNSFW())
	assert.Equal(t, 30, cfg.RateLimitMax())
	// Untouched fields keep their defaults.
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL())
	assert.Equal(t, 3, cfg.MaxAttempt())
}

func TestWithConfigFileNSFWAbsentKeepsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": 3000}`), 0o644))

	cfg, err := config.WithConfigFile(path)

	require.NoError(t, err)
	assert.True(t, cfg.IncludeNSFW())
}

func TestWithConfigFileMissing(t *testing.T) {
	_, err := config.WithConfigFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, config.ErrFileDoesNotExist)
}

func TestWithConfigFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := config.WithConfigFile(path)
	assert.ErrorIs(t, err, config.ErrConfigParsingFail)
}

func TestWithEnvOverrides(t *testing.T) {
	t.Setenv("MEMESCOUT_PORT", "4000")
	t.Setenv("MEMESCOUT_USER_AGENT", "memescout-env/1.0")
	t.Setenv("MEMESCOUT_TIMEOUT", "5s")
	t.Setenv("MEMESCOUT_INCLUDE_NSFW", "false")
	t.Setenv("MEMESCOUT_RATE_LIMIT_MAX", "15")

	cfg, err := config.WithDefault().WithEnvOverrides().Build()

	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port())
	assert.Equal(t, "memescout-env/1.0", cfg.UserAgent())
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.False(t, cfg.IncludeNSFW())
	assert.Equal(t, 15, cfg.RateLimitMax())
}

func TestWithEnvOverridesIgnoresGarbage(t *testing.T) {
	t.Setenv("MEMESCOUT_PORT", "not-a-number")
	t.Setenv("MEMESCOUT_TIMEOUT", "soon")

	cfg, err := config.WithDefault().WithEnvOverrides().Build()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port())
	assert.Equal(t, 10*time.Second, cfg.Timeout())
}

func TestRetryParam(t *testing.T) {
	cfg, err := config.WithDefault().
		WithBaseDelay(100 * time.Millisecond).
		WithJitter(50 * time.Millisecond).
		WithRandomSeed(42).
		WithMaxAttempt(4).
		WithBackoffInitialDuration(200 * time.Millisecond).
		WithBackoffMultiplier(3.0).
		WithBackoffMaxDuration(2 * time.Second).
		Build()
	require.NoError(t, err)

	param := cfg.RetryParam()

	assert.Equal(t, 100*time.Millisecond, param.BaseDelay)
	assert.Equal(t, 50*time.Millisecond, param.Jitter)
	assert.Equal(t, int64(42), param.RandomSeed)
	assert.Equal(t, 4, param.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, param.BackoffParam.InitialDuration())
	assert.Equal(t, 3.0, param.BackoffParam.Multiplier())
	assert.Equal(t, 2*time.Second, param.BackoffParam.MaxDuration())
}
