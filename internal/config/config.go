package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/memescout/memescout/pkg/retry"
	"github.com/memescout/memescout/pkg/timeutil"
)

type Config struct {
	//===============
	// Serving
	//===============
	// TCP port the HTTP API listens on
	port int
	// Grace period for in-flight requests during shutdown
	shutdownTimeout time.Duration

	//===============
	// Upstream fetch
	//===============
	// Maximum time of a single fetch request
	timeout time.Duration
	// User agent that will be used in the request header. In raw string
	userAgent string
	// Base delay before the first retry
	baseDelay time.Duration
	// Randomized variation added on top of the backoff delay
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// Maximum attempts per fetch, including the first
	maxAttempt int
	// Initial delay for backoff
	backoffInitialDuration time.Duration
	// Multiplier during exponential backoff
	backoffMultiplier float64
	// Capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration

	//===============
	// Scraping
	//===============
	// How many detail pages are fetched concurrently per chunk
	chunkSize int
	// Whether search requests include NSFW results
	includeNSFW bool

	//===============
	// Cache
	//===============
	// How long a cached search result stays valid
	cacheTTL time.Duration
	// How often expired cache entries are swept
	cacheSweepInterval time.Duration

	//===============
	// Rate limiting
	//===============
	// Length of each client's fixed window
	rateLimitWindow time.Duration
	// Requests allowed per client per window
	rateLimitMax int
	// How often idle client windows are swept
	rateLimitSweepInterval time.Duration
}

type configDTO struct {
	Port            int           `json:"port,omitempty"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout,omitempty"`

	Timeout                time.Duration `json:"timeout,omitempty"`
	UserAgent              string        `json:"userAgent,omitempty"`
	BaseDelay              time.Duration `json:"baseDelay,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty"`
	MaxAttempt             int           `json:"maxAttempt,omitempty"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty"`

	ChunkSize   int   `json:"chunkSize,omitempty"`
	IncludeNSFW *bool `json:"includeNsfw,omitempty"`

	CacheTTL           time.Duration `json:"cacheTtl,omitempty"`
	CacheSweepInterval time.Duration `json:"cacheSweepInterval,omitempty"`

	RateLimitWindow        time.Duration `json:"rateLimitWindow,omitempty"`
	RateLimitMax           int           `json:"rateLimitMax,omitempty"`
	RateLimitSweepInterval time.Duration `json:"rateLimitSweepInterval,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {

	// Start with default config
	cfg, err := WithDefault().Build()
	if err != nil {
		return Config{}, err
	}

	// Only override where a non-zero value is provided
	if dto.Port != 0 {
		cfg.port = dto.Port
	}
	if dto.ShutdownTimeout != 0 {
		cfg.shutdownTimeout = dto.ShutdownTimeout
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.BaseDelay != 0 {
		cfg.baseDelay = dto.BaseDelay
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.ChunkSize != 0 {
		cfg.chunkSize = dto.ChunkSize
	}
	// IncludeNSFW defaults to true, so a plain bool could not express
	// "explicitly off". The DTO uses a pointer to keep absence distinct.
	if dto.IncludeNSFW != nil {
		cfg.includeNSFW = *dto.IncludeNSFW
	}
	if dto.CacheTTL != 0 {
		cfg.cacheTTL = dto.CacheTTL
	}
	if dto.CacheSweepInterval != 0 {
		cfg.cacheSweepInterval = dto.CacheSweepInterval
	}
	if dto.RateLimitWindow != 0 {
		cfg.rateLimitWindow = dto.RateLimitWindow
	}
	if dto.RateLimitMax != 0 {
		cfg.rateLimitMax = dto.RateLimitMax
	}
	if dto.RateLimitSweepInterval != 0 {
		cfg.rateLimitSweepInterval = dto.RateLimitSweepInterval
	}

	return cfg, nil
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg, err := newConfigFromDTO(cfgDTO)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDefault creates a new Config with default values for all fields.
func WithDefault() *Config {
	defaultConfig := Config{
		port:                   8080,
		shutdownTimeout:        10 * time.Second,
		timeout:                10 * time.Second,
		userAgent:              "memescout/1.0",
		baseDelay:              200 * time.Millisecond,
		jitter:                 100 * time.Millisecond,
		randomSeed:             time.Now().UnixNano(),
		maxAttempt:             3,
		backoffInitialDuration: 500 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     5 * time.Second,
		chunkSize:              12,
		includeNSFW:            true,
		cacheTTL:               24 * time.Hour,
		cacheSweepInterval:     time.Hour,
		rateLimitWindow:        time.Minute,
		rateLimitMax:           60,
		rateLimitSweepInterval: 5 * time.Minute,
	}
	return &defaultConfig
}

func (c *Config) WithPort(port int) *Config {
	c.port = port
	return c
}

func (c *Config) WithShutdownTimeout(timeout time.Duration) *Config {
	c.shutdownTimeout = timeout
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithChunkSize(size int) *Config {
	c.chunkSize = size
	return c
}

func (c *Config) WithIncludeNSFW(include bool) *Config {
	c.includeNSFW = include
	return c
}

func (c *Config) WithCacheTTL(ttl time.Duration) *Config {
	c.cacheTTL = ttl
	return c
}

func (c *Config) WithCacheSweepInterval(interval time.Duration) *Config {
	c.cacheSweepInterval = interval
	return c
}

func (c *Config) WithRateLimitWindow(window time.Duration) *Config {
	c.rateLimitWindow = window
	return c
}

func (c *Config) WithRateLimitMax(max int) *Config {
	c.rateLimitMax = max
	return c
}

func (c *Config) WithRateLimitSweepInterval(interval time.Duration) *Config {
	c.rateLimitSweepInterval = interval
	return c
}

// WithEnvOverrides applies MEMESCOUT_* environment variables on top of
// the current values. Unset or unparsable variables are ignored.
func (c *Config) WithEnvOverrides() *Config {
	if v, ok := envInt("MEMESCOUT_PORT"); ok {
		c.port = v
	}
	if v := os.Getenv("MEMESCOUT_USER_AGENT"); v != "" {
		c.userAgent = v
	}
	if v, ok := envDuration("MEMESCOUT_TIMEOUT"); ok {
		c.timeout = v
	}
	if v, ok := envInt("MEMESCOUT_CHUNK_SIZE"); ok {
		c.chunkSize = v
	}
	if v, ok := envBool("MEMESCOUT_INCLUDE_NSFW"); ok {
		c.includeNSFW = v
	}
	if v, ok := envDuration("MEMESCOUT_CACHE_TTL"); ok {
		c.cacheTTL = v
	}
	if v, ok := envDuration("MEMESCOUT_RATE_LIMIT_WINDOW"); ok {
		c.rateLimitWindow = v
	}
	if v, ok := envInt("MEMESCOUT_RATE_LIMIT_MAX"); ok {
		c.rateLimitMax = v
	}
	return c
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envBool(key string) (bool, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func envDuration(key string) (time.Duration, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (c *Config) Build() (Config, error) {
	if c.port < 1 || c.port > 65535 {
		return Config{}, fmt.Errorf("%w: port must be between 1 and 65535", ErrInvalidConfig)
	}
	if c.chunkSize < 1 {
		return Config{}, fmt.Errorf("%w: chunkSize must be positive", ErrInvalidConfig)
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}
	if c.rateLimitMax < 1 {
		return Config{}, fmt.Errorf("%w: rateLimitMax must be positive", ErrInvalidConfig)
	}
	if c.cacheTTL <= 0 {
		return Config{}, fmt.Errorf("%w: cacheTtl must be positive", ErrInvalidConfig)
	}
	if c.rateLimitWindow <= 0 {
		return Config{}, fmt.Errorf("%w: rateLimitWindow must be positive", ErrInvalidConfig)
	}

	return *c, nil
}

func (c Config) Port() int {
	return c.port
}

func (c Config) ShutdownTimeout() time.Duration {
	return c.shutdownTimeout
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) ChunkSize() int {
	return c.chunkSize
}

func (c Config) IncludeNSFW() bool {
	return c.includeNSFW
}

func (c Config) CacheTTL() time.Duration {
	return c.cacheTTL
}

func (c Config) CacheSweepInterval() time.Duration {
	return c.cacheSweepInterval
}

func (c Config) RateLimitWindow() time.Duration {
	return c.rateLimitWindow
}

func (c Config) RateLimitMax() int {
	return c.rateLimitMax
}

func (c Config) RateLimitSweepInterval() time.Duration {
	return c.rateLimitSweepInterval
}

// RetryParam assembles the retry settings into the shape the fetch
// layer consumes.
func (c Config) RetryParam() retry.RetryParam {
	return retry.NewRetryParam(
		c.baseDelay,
		c.jitter,
		c.randomSeed,
		c.maxAttempt,
		timeutil.NewBackoffParam(
			c.backoffInitialDuration,
			c.backoffMultiplier,
			c.backoffMaxDuration,
		),
	)
}
