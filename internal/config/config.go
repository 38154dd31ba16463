package config

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the knowledge hub API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Search    SearchConfig    `yaml:"search"`
	Topics    TopicsConfig    `yaml:"topics"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings for write routes.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis Stack connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds ranking and pagination settings.
type SearchConfig struct {
	KeywordWeight     float64 `yaml:"keyword_weight"`
	SemanticWeight    float64 `yaml:"semantic_weight"`
	DefaultPageSize   int     `yaml:"default_page_size"`
	MaxPageSize       int     `yaml:"max_page_size"`
	CandidatePool     int     `yaml:"candidate_pool"`
	SemanticScanLimit int     `yaml:"semantic_scan_limit"`
}

// TopicsConfig holds topic activity cache settings.
type TopicsConfig struct {
	RefreshIntervalSec int `yaml:"refresh_interval_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings. An empty api_key disables embeddings.
type EmbeddingConfig struct {
	Provider            string  `yaml:"provider"`
	APIKey              string  `yaml:"api_key"`
	BaseURL             string  `yaml:"base_url"`
	Model               string  `yaml:"model"`
	Dimensions          int     `yaml:"dimensions"`
	DocumentInstruction string  `yaml:"document_instruction"`
	RequestsPerSecond   float64 `yaml:"requests_per_second"` // 0 = unlimited
	Burst               int     `yaml:"burst"`
	CacheTTLHours       int     `yaml:"cache_ttl_hours"`
	MaxInputRunes       int     `yaml:"max_input_runes"` // 0 = openai.DefaultMaxInputRunes
}

// Enabled reports whether an embedding provider is configured.
func (e EmbeddingConfig) Enabled() bool { return e.APIKey != "" }

// ReadTimeout bounds reading a request.
func (h HTTPConfig) ReadTimeout() time.Duration { return seconds(h.ReadTimeoutSec) }

// WriteTimeout bounds writing a response.
func (h HTTPConfig) WriteTimeout() time.Duration { return seconds(h.WriteTimeoutSec) }

// ShutdownTimeout bounds graceful shutdown.
func (h HTTPConfig) ShutdownTimeout() time.Duration { return seconds(h.ShutdownSec) }

// Readiness bounds how long startup waits for the database.
func (d DatabaseConfig) Readiness() time.Duration { return seconds(d.ReadinessTimeout) }

// RefreshInterval is the topic cache TTL.
func (t TopicsConfig) RefreshInterval() time.Duration { return seconds(t.RefreshIntervalSec) }

// CacheTTL is the embedding cache expiry.
func (e EmbeddingConfig) CacheTTL() time.Duration { return time.Duration(e.CacheTTLHours) * time.Hour }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

var logLevels = []string{"", "debug", "info", "warn", "error"}

// Load reads config/<env>.yaml, or the file named by CONFIG_PATH when set.
func Load(env string) (Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = findConfigPath(env)
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", configPath, err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills unset fields. Search weights default as a pair so an explicit
// keyword-only or semantic-only split survives.
func (c *Config) ApplyDefaults() {
	orDefault(&c.HTTP.ReadTimeoutSec, 10)
	orDefault(&c.HTTP.WriteTimeoutSec, 10)
	orDefault(&c.HTTP.ShutdownSec, 10)
	orDefault(&c.Database.ReadinessTimeout, 10)

	if c.Search.KeywordWeight == 0 && c.Search.SemanticWeight == 0 {
		c.Search.KeywordWeight, c.Search.SemanticWeight = 0.6, 0.4
	}
	orDefault(&c.Search.DefaultPageSize, 20)
	orDefault(&c.Search.MaxPageSize, 100)
	orDefault(&c.Search.CandidatePool, 100)
	orDefault(&c.Search.SemanticScanLimit, 1000)
	orDefault(&c.Topics.RefreshIntervalSec, 60)

	orDefault(&c.Embedding.Provider, "openai")
	orDefault(&c.Embedding.Model, "text-embedding-3-small")
	orDefault(&c.Embedding.Burst, 1)
	orDefault(&c.Embedding.CacheTTLHours, 30*24)
	orDefault(&c.Storage.KeyPrefix, "ckh:")
}

// orDefault sets *v to def when *v is the zero value or, for numbers, negative.
func orDefault[T cmp.Ordered](v *T, def T) {
	var zero T
	if *v <= zero {
		*v = def
	}
}

// Validate reports every problem in the configuration, not just the first.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.HTTP.Port > 0 && c.HTTP.Port <= 65535, "http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	check(len(c.Database.Addrs) > 0, "database.addrs is required")
	check(c.Search.KeywordWeight >= 0 && c.Search.SemanticWeight >= 0,
		"search weights must not be negative, got %g/%g", c.Search.KeywordWeight, c.Search.SemanticWeight)
	check(!math.IsInf(c.Search.KeywordWeight, 0) && !math.IsInf(c.Search.SemanticWeight, 0),
		"search weights must be finite, got %g/%g", c.Search.KeywordWeight, c.Search.SemanticWeight)
	check(c.Search.DefaultPageSize <= c.Search.MaxPageSize,
		"search.default_page_size (%d) exceeds search.max_page_size (%d)", c.Search.DefaultPageSize, c.Search.MaxPageSize)
	check(c.Embedding.RequestsPerSecond >= 0,
		"embedding.requests_per_second must not be negative, got %g", c.Embedding.RequestsPerSecond)
	check(c.Embedding.Dimensions >= 0, "embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	check(c.Embedding.MaxInputRunes >= 0, "embedding.max_input_runes must not be negative, got %d", c.Embedding.MaxInputRunes)
	check(slices.Contains(logLevels, strings.ToLower(c.Logging.Level)),
		"logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)

	return errors.Join(errs...)
}

// findConfigPath prefers ./config, then the repo's config dir next to this source file
// (go run and tests from a package dir).
func findConfigPath(env string) string {
	local := filepath.Join("config", env+".yaml")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	_, src, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(src), "..", "..")
	if repo := filepath.Join(root, "config", env+".yaml"); fileExists(repo) {
		return repo
	}
	return local
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
