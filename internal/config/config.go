package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/discovery/internal/domain/category"
)

// Config holds the discovery service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Cache      CacheConfig      `yaml:"cache"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Breaker    BreakerConfig    `yaml:"breaker"`
	Search     SearchConfig     `yaml:"search"`
	RAG        RAGConfig        `yaml:"rag"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
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

// Catalog drivers.
const (
	CatalogPostgres = "postgres"
	CatalogMemory   = "memory"
)

// CatalogConfig selects and configures the entity store.
type CatalogConfig struct {
	Driver             string `yaml:"driver"` // postgres, memory (default: memory)
	DSN                string `yaml:"dsn"`
	FixturePath        string `yaml:"fixture_path"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
	ReadinessTimeout   int    `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds the Redis connection used for embedding, enhancement and budget keys.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	EmbeddingTTLSec  int      `yaml:"embedding_ttl_sec"` // 0 = no expiry
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// EmbeddingConfig configures the query embedding provider.
type EmbeddingConfig struct {
	Enabled          bool         `yaml:"enabled"`
	Provider         string       `yaml:"provider"` // label for metrics and budget keys
	APIKey           string       `yaml:"api_key"`
	BaseURL          string       `yaml:"base_url"`
	Model            string       `yaml:"model"`
	Dimensions       int          `yaml:"dimensions"`
	QueryInstruction string       `yaml:"query_instruction"`
	TimeoutSec       int          `yaml:"timeout_sec"`
	Budget           BudgetConfig `yaml:"budget"`
}

// Completion backends.
const (
	BackendOpenAI    = "openai"
	BackendLangchain = "langchaingo"
)

// CompletionConfig configures the generative model used for enhancement.
type CompletionConfig struct {
	Enabled     bool         `yaml:"enabled"`
	Backend     string       `yaml:"backend"` // openai, langchaingo (default: openai)
	Provider    string       `yaml:"provider"`
	APIKey      string       `yaml:"api_key"`
	BaseURL     string       `yaml:"base_url"`
	Model       string       `yaml:"model"`
	Temperature float32      `yaml:"temperature"`
	MaxTokens   int          `yaml:"max_tokens"`
	TimeoutSec  int          `yaml:"timeout_sec"`
	Budget      BudgetConfig `yaml:"budget"`
}

// BreakerConfig configures the circuit breakers in front of model providers.
type BreakerConfig struct {
	MaxRequests    uint32  `yaml:"max_requests"` // probes allowed while half-open
	IntervalSec    int     `yaml:"interval_sec"` // closed-state counter reset period
	OpenTimeoutSec int     `yaml:"open_timeout_sec"`
	MinRequests    uint32  `yaml:"min_requests"`
	FailureRatio   float64 `yaml:"failure_ratio"`
}

// SearchConfig holds ranking and orchestration settings.
type SearchConfig struct {
	LexicalWeight      float64 `yaml:"lexical_weight"`
	SemanticWeight     float64 `yaml:"semantic_weight"`
	BufferMultiplier   int     `yaml:"buffer_multiplier"`
	MaxBuffer          int     `yaml:"max_buffer"`
	MaxDistance        float64 `yaml:"max_distance"`
	DefaultPerPage     int     `yaml:"default_per_page"`
	CategoryTimeoutSec int     `yaml:"category_timeout_sec"`
	SuggestMinLength   int     `yaml:"suggest_min_length"`
	SuggestPerPage     int     `yaml:"suggest_per_page"`
}

// RAGConfig holds enhancement settings.
type RAGConfig struct {
	Enabled     bool     `yaml:"enabled"`
	TopK        int      `yaml:"top_k"`
	Categories  []string `yaml:"categories"`
	Workers     int      `yaml:"workers"`
	CacheTTLSec int      `yaml:"cache_ttl_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Catalog.Driver == "" {
		c.Catalog.Driver = CatalogMemory
	}
	if c.Catalog.ReadinessTimeout <= 0 {
		c.Catalog.ReadinessTimeout = 10
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 5
	}

	if c.Completion.Backend == "" {
		c.Completion.Backend = BackendOpenAI
	}
	if c.Completion.Provider == "" {
		c.Completion.Provider = "openai"
	}
	if c.Completion.Model == "" {
		c.Completion.Model = "gpt-4o-mini"
	}
	if c.Completion.MaxTokens <= 0 {
		c.Completion.MaxTokens = 300
	}
	if c.Completion.TimeoutSec <= 0 {
		c.Completion.TimeoutSec = 10
	}

	c.applyBreakerDefaults()
	c.applySearchDefaults()

	if c.RAG.TopK <= 0 {
		c.RAG.TopK = 5
	}
	if len(c.RAG.Categories) == 0 {
		c.RAG.Categories = []string{category.Submissions.String()}
	}
	if c.RAG.Workers <= 0 {
		c.RAG.Workers = 4
	}
	if c.RAG.CacheTTLSec <= 0 {
		c.RAG.CacheTTLSec = 86400
	}
}

func (c *Config) applyBreakerDefaults() {
	if c.Breaker.MaxRequests == 0 {
		c.Breaker.MaxRequests = 1
	}
	if c.Breaker.IntervalSec <= 0 {
		c.Breaker.IntervalSec = 60
	}
	if c.Breaker.OpenTimeoutSec <= 0 {
		c.Breaker.OpenTimeoutSec = 30
	}
	if c.Breaker.MinRequests == 0 {
		c.Breaker.MinRequests = 5
	}
	if c.Breaker.FailureRatio <= 0 {
		c.Breaker.FailureRatio = 0.5
	}
}

func (c *Config) applySearchDefaults() {
	s := &c.Search
	if s.LexicalWeight == 0 && s.SemanticWeight == 0 {
		s.LexicalWeight, s.SemanticWeight = 0.6, 0.4
	}
	if s.BufferMultiplier <= 0 {
		s.BufferMultiplier = 10
	}
	if s.MaxBuffer <= 0 {
		s.MaxBuffer = 200
	}
	if s.MaxDistance <= 0 {
		s.MaxDistance = 0.8
	}
	if s.DefaultPerPage <= 0 {
		s.DefaultPerPage = 10
	}
	if s.CategoryTimeoutSec <= 0 {
		s.CategoryTimeoutSec = 8
	}
	if s.SuggestMinLength <= 0 {
		s.SuggestMinLength = 3
	}
	if s.SuggestPerPage <= 0 {
		s.SuggestPerPage = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Catalog.Driver {
	case CatalogPostgres:
		if c.Catalog.DSN == "" {
			return fmt.Errorf("catalog.dsn is required for driver %q", CatalogPostgres)
		}
	case CatalogMemory:
		if c.Catalog.FixturePath == "" {
			return fmt.Errorf("catalog.fixture_path is required for driver %q", CatalogMemory)
		}
	default:
		return fmt.Errorf("catalog.driver must be %q or %q, got %q", CatalogPostgres, CatalogMemory, c.Catalog.Driver)
	}

	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache is enabled")
	}

	if err := validateBudget("embedding", c.Embedding.Budget); err != nil {
		return err
	}
	if err := validateBudget("completion", c.Completion.Budget); err != nil {
		return err
	}

	switch c.Completion.Backend {
	case BackendOpenAI, BackendLangchain:
	default:
		return fmt.Errorf(
			"completion.backend must be %q or %q, got %q", BackendOpenAI, BackendLangchain, c.Completion.Backend,
		)
	}

	if err := c.validateSearch(); err != nil {
		return err
	}

	for _, name := range c.RAG.Categories {
		if _, err := category.Parse(name); err != nil {
			return fmt.Errorf("rag.categories: %w", err)
		}
	}
	if c.RAG.Enabled && !c.Completion.Enabled {
		return fmt.Errorf("rag.enabled requires completion.enabled")
	}
	return nil
}

func validateBudget(section string, b BudgetConfig) error {
	switch b.Action {
	case "", "warn", "reject":
		return nil
	default:
		return fmt.Errorf("%s.budget.action must be \"warn\" or \"reject\", got %q", section, b.Action)
	}
}

func (c *Config) validateSearch() error {
	s := c.Search
	if s.LexicalWeight < 0 || s.LexicalWeight > 1 || s.SemanticWeight < 0 || s.SemanticWeight > 1 {
		return fmt.Errorf("search weights must be within [0, 1]")
	}
	if math.Abs(s.LexicalWeight+s.SemanticWeight-1) > 1e-9 {
		return fmt.Errorf("search.lexical_weight + search.semantic_weight must equal 1, got %g",
			s.LexicalWeight+s.SemanticWeight)
	}
	if s.MaxDistance > 2 {
		return fmt.Errorf("search.max_distance must be at most 2 (cosine distance), got %g", s.MaxDistance)
	}
	return nil
}

// Seconds converts an integer seconds setting into a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
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
