package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/pdfchat/internal/db"
)

// Storage drivers.
const (
	DriverRedis   = "redis"
	DriverSQLite  = "sqlite"
	DriverChromem = "chromem"
	DriverQdrant  = "qdrant"
	DriverMemory  = "memory"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds the pdfchat service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Agent     AgentConfig     `yaml:"agent"`
	Index     IndexConfig     `yaml:"index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxUploadBytes  int64 `yaml:"max_upload_bytes"`
}

// DatabaseConfig holds Redis/Valkey connection settings, used when any store
// is redis-backed.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig selects a backend per store.
type StorageConfig struct {
	Vector          string       `yaml:"vector"`       // redis, chromem, qdrant, memory
	Conversation    string       `yaml:"conversation"` // redis, sqlite, memory
	Metadata        string       `yaml:"metadata"`     // redis, sqlite, memory
	SQLitePath      string       `yaml:"sqlite_path"`
	ChromemPath     string       `yaml:"chromem_path"` // empty keeps chromem in memory
	ChromemCompress bool         `yaml:"chromem_compress"`
	ThreadTTLHours  int          `yaml:"thread_ttl_hours"` // redis only, 0 = never expire
	Qdrant          QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
	Collection string `yaml:"collection"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider         string      `yaml:"provider"` // openai (any compatible API), gemini
	APIKey           string      `yaml:"api_key"`
	BaseURL          string      `yaml:"base_url"`
	Model            string      `yaml:"model"`
	Dimensions       int         `yaml:"dimensions"`
	QueryInstruction string       `yaml:"query_instruction"`
	Cache            CacheConfig  `yaml:"cache"`
	Budget           BudgetConfig `yaml:"budget"`
}

// CacheConfig controls the embedding cache. It needs the redis database.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled"`
	TTLHours int  `yaml:"ttl_hours"` // 0 = never expire
}

// ChatConfig holds chat model settings.
type ChatConfig struct {
	Provider    string  `yaml:"provider"` // openai (any compatible API), gemini
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32      `yaml:"temperature"`
	Budget      BudgetConfig `yaml:"budget"`
}

// BudgetConfig caps provider tokens. Counters persist in redis when it is configured.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Enabled reports whether any limit is set.
func (b BudgetConfig) Enabled() bool {
	return b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0
}

// ChunkerConfig sizes chunks in characters.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// AgentConfig bounds the agent loop and sizes tool results.
type AgentConfig struct {
	MaxRounds      int `yaml:"max_rounds"`
	ScopedK        int `yaml:"scoped_k"`
	DiscoveryK     int `yaml:"discovery_k"`
	DiscoveryLimit int `yaml:"discovery_limit"`
	TurnTimeoutSec int `yaml:"turn_timeout_sec"`
}

// IndexConfig holds vector index and listing settings.
type IndexConfig struct {
	Algorithm       string `yaml:"algorithm"` // hnsw or flat
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	MaxPageSize     int    `yaml:"max_page_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first; it never overrides
// variables already set.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment variables in data, decodes it and validates the result.
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
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		c.HTTP.MaxUploadBytes = 10 << 20
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Storage.Vector == "" {
		c.Storage.Vector = DriverMemory
	}
	if c.Storage.Conversation == "" {
		c.Storage.Conversation = DriverMemory
	}
	if c.Storage.Metadata == "" {
		c.Storage.Metadata = DriverMemory
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/pdfchat.db"
	}
	if c.Storage.Qdrant.Host == "" {
		c.Storage.Qdrant.Host = "localhost"
	}
	if c.Storage.Qdrant.Port <= 0 {
		c.Storage.Qdrant.Port = 6334
	}
	if c.Storage.Qdrant.Collection == "" {
		c.Storage.Qdrant.Collection = "pdfchat_chunks"
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOpenAI
	}
	if c.Embedding.Provider == ProviderOpenAI && c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = "https://api.mistral.ai/v1"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = defaultEmbeddingModel(c.Embedding.Provider)
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1024
	}

	if c.Chat.Provider == "" {
		c.Chat.Provider = ProviderGemini
	}
	if c.Chat.Model == "" {
		c.Chat.Model = defaultChatModel(c.Chat.Provider)
	}

	if c.Chunker.Size <= 0 {
		c.Chunker.Size = 1000
	}
	if c.Chunker.Overlap <= 0 {
		c.Chunker.Overlap = 200
	}

	if c.Agent.MaxRounds == 0 {
		c.Agent.MaxRounds = 5
	}
	if c.Agent.ScopedK <= 0 {
		c.Agent.ScopedK = 3
	}
	if c.Agent.DiscoveryK <= 0 {
		c.Agent.DiscoveryK = 10
	}
	if c.Agent.DiscoveryLimit <= 0 {
		c.Agent.DiscoveryLimit = 5
	}
	if c.Agent.TurnTimeoutSec <= 0 {
		c.Agent.TurnTimeoutSec = 90
	}

	if c.Index.Algorithm == "" {
		c.Index.Algorithm = "hnsw"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.MaxPageSize <= 0 {
		c.Index.MaxPageSize = 1000
	}
}

func defaultEmbeddingModel(provider string) string {
	if provider == ProviderGemini {
		return "text-embedding-004"
	}
	return "mistral-embed"
}

func defaultChatModel(provider string) string {
	if provider == ProviderGemini {
		return "gemini-1.5-flash"
	}
	return "mistral-large-latest"
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	return c.ValidateComponents()
}

// ValidateComponents checks everything except the HTTP listener, for
// in-process use without a server.
func (c *Config) ValidateComponents() error {
	if err := oneOf("storage.vector", c.Storage.Vector,
		DriverRedis, DriverChromem, DriverQdrant, DriverMemory); err != nil {
		return err
	}
	if err := oneOf("storage.conversation", c.Storage.Conversation,
		DriverRedis, DriverSQLite, DriverMemory); err != nil {
		return err
	}
	if err := oneOf("storage.metadata", c.Storage.Metadata,
		DriverRedis, DriverSQLite, DriverMemory); err != nil {
		return err
	}
	if c.UsesRedis() && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required when a redis store or the embedding cache is enabled")
	}

	if err := oneOf("embedding.provider", c.Embedding.Provider, ProviderOpenAI, ProviderGemini); err != nil {
		return err
	}
	if err := oneOf("chat.provider", c.Chat.Provider, ProviderOpenAI, ProviderGemini); err != nil {
		return err
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return fmt.Errorf("chat.temperature must be between 0 and 2, got %g", c.Chat.Temperature)
	}

	if _, err := db.ParseVectorAlgorithm(c.Index.Algorithm); err != nil {
		return fmt.Errorf("index.algorithm: %w", err)
	}

	if c.Chunker.Overlap >= c.Chunker.Size {
		return fmt.Errorf("chunker.overlap (%d) must be smaller than chunker.size (%d)",
			c.Chunker.Overlap, c.Chunker.Size)
	}
	for name, b := range map[string]BudgetConfig{"embedding": c.Embedding.Budget, "chat": c.Chat.Budget} {
		switch b.Action {
		case "", "warn", "reject":
		default:
			return fmt.Errorf("%s.budget.action must be \"warn\" or \"reject\", got %q", name, b.Action)
		}
		if b.DailyTokenLimit < 0 || b.MonthlyTokenLimit < 0 {
			return fmt.Errorf("%s.budget limits must not be negative", name)
		}
	}
	if c.Agent.MaxRounds < 1 {
		return fmt.Errorf("agent.max_rounds must be at least 1, got %d", c.Agent.MaxRounds)
	}
	return nil
}

// UsesRedis reports whether any component needs the redis database.
func (c *Config) UsesRedis() bool {
	return c.Storage.Vector == DriverRedis ||
		c.Storage.Conversation == DriverRedis ||
		c.Storage.Metadata == DriverRedis ||
		c.Embedding.Cache.Enabled
}

// UsesSQLite reports whether any store is sqlite-backed.
func (c *Config) UsesSQLite() bool {
	return c.Storage.Conversation == DriverSQLite || c.Storage.Metadata == DriverSQLite
}

func oneOf(field, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%s must be one of %s, got %q", field, strings.Join(allowed, ", "), value)
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
