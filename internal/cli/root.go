package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/memescout/memescout/internal/build"
	"github.com/memescout/memescout/internal/config"
)

var (
	cfgFile      string
	port         int
	userAgent    string
	timeout      time.Duration
	chunkSize    int
	noNSFW       bool
	cacheTTL     time.Duration
	rateLimitMax int
	maxAttempt   int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "memescout",
	Short: "A blank meme template catalogue built on imgflip.",
	Long: `memescout scrapes imgflip search results and detail pages to build a
searchable catalogue of blank meme templates, with the official imgflip
API as a fast path for popular templates.

Run "memescout serve" to expose the catalogue over HTTP, or
"memescout search" for a one-shot lookup on the command line.`,
	Version: build.FullVersion(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "TCP port for the HTTP API")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for upstream requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for upstream HTTP requests")
	rootCmd.PersistentFlags().IntVar(&chunkSize, "chunk-size", 0, "detail pages fetched concurrently per chunk")
	rootCmd.PersistentFlags().BoolVar(&noNSFW, "no-nsfw", false, "exclude NSFW results from searches")
	rootCmd.PersistentFlags().DurationVar(&cacheTTL, "cache-ttl", 0, "how long search results stay cached")
	rootCmd.PersistentFlags().IntVar(&rateLimitMax, "rate-limit-max", 0, "requests allowed per client per minute")
	rootCmd.PersistentFlags().IntVar(&maxAttempt, "max-attempt", 0, "attempts per upstream fetch, including the first")
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() config.Config {
	cfg, err := InitConfigWithError()
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// InitConfigWithError reads in config file and ENV variables if set, returning any errors.
// This makes it easier to test error cases.
func InitConfigWithError() (config.Config, error) {
	// A .env file is optional; a missing one is not an error.
	_ = godotenv.Load()

	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	// Build config from env and CLI flags using the With... functions
	// with method chaining. Flags win over environment variables.
	configBuilder := config.WithDefault().WithEnvOverrides()

	if port > 0 {
		configBuilder = configBuilder.WithPort(port)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if chunkSize > 0 {
		configBuilder = configBuilder.WithChunkSize(chunkSize)
	}

	if noNSFW {
		configBuilder = configBuilder.WithIncludeNSFW(false)
	}

	if cacheTTL > 0 {
		configBuilder = configBuilder.WithCacheTTL(cacheTTL)
	}

	if rateLimitMax > 0 {
		configBuilder = configBuilder.WithRateLimitMax(rateLimitMax)
	}

	if maxAttempt > 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func ResetFlags() {
	cfgFile = ""
	port = 0
	userAgent = ""
	timeout = 0
	chunkSize = 0
	noNSFW = false
	cacheTTL = 0
	rateLimitMax = 0
	maxAttempt = 0
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetPortForTest(p int) {
	port = p
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetChunkSizeForTest(size int) {
	chunkSize = size
}

func SetNoNSFWForTest(no bool) {
	noNSFW = no
}

func SetCacheTTLForTest(ttl time.Duration) {
	cacheTTL = ttl
}

func SetRateLimitMaxForTest(max int) {
	rateLimitMax = max
}

func SetMaxAttemptForTest(attempts int) {
	maxAttempt = attempts
}
