package pdfchat

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/pdfchat/internal/config"
	agentuc "github.com/kailas-cloud/pdfchat/internal/usecase/agent"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	env      string
	settings []func(*config.Config)

	embedder Embedder
	model    agentuc.Model

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func (c *clientConfig) set(fn func(*config.Config)) {
	c.settings = append(c.settings, fn)
}

// WithConfigFile starts from the server's config/<env>.yaml instead of the
// built-in defaults. Later options override values from the file.
func WithConfigFile(env string) Option {
	return optionFunc(func(c *clientConfig) {
		c.env = env
	})
}

// WithRedis stores chunks, threads and document metadata in Redis 8+ and
// enables the embedding cache.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.set(func(cfg *config.Config) {
			cfg.Database.Addrs = []string{addr}
			cfg.Database.Password = password
			cfg.Storage.Vector = config.DriverRedis
			cfg.Storage.Conversation = config.DriverRedis
			cfg.Storage.Metadata = config.DriverRedis
			cfg.Embedding.Cache.Enabled = true
		})
	})
}

// WithSQLite keeps threads and document metadata in a SQLite file.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.set(func(cfg *config.Config) {
			cfg.Storage.Conversation = config.DriverSQLite
			cfg.Storage.Metadata = config.DriverSQLite
			cfg.Storage.SQLitePath = path
		})
	})
}

// WithChromem keeps the vector index in chromem-go. An empty path stays in
// memory; otherwise the index persists under path.
func WithChromem(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.set(func(cfg *config.Config) {
			cfg.Storage.Vector = config.DriverChromem
			cfg.Storage.ChromemPath = path
		})
	})
}

// WithQdrant keeps the vector index in a Qdrant collection.
func WithQdrant(host string, port int, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.set(func(cfg *config.Config) {
			cfg.Storage.Vector = config.DriverQdrant
			cfg.Storage.Qdrant.Host = host
			cfg.Storage.Qdrant.Port = port
			cfg.Storage.Qdrant.APIKey = apiKey
		})
	})
}

// WithOpenAIEmbeddings uses an OpenAI-compatible embeddings API (OpenAI,
// Mistral, Nebius).
func WithOpenAIEmbeddings(apiKey, baseURL, model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.set(func(cfg *config.Config) {
			cfg.Embedding.Provider = config.ProviderOpenAI
			cfg.Embedding.APIKey = apiKey
			cfg.Embedding.BaseURL = baseURL
			cfg.Embedding.Model = model
			cfg.Embedding.Dimensions = dimensions
		})
	})
}

// WithEmbedder sets a custom embedding provider. It takes precedence over
// the provider options.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAIChat uses an OpenAI-compatible chat completions API.
func WithOpenAIChat(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.set(func(cfg *config.Config) {
			cfg.Chat.Provider = config.ProviderOpenAI
			cfg.Chat.APIKey = apiKey
			cfg.Chat.BaseURL = baseURL
			cfg.Chat.Model = model
		})
	})
}

// WithGeminiChat uses the Gemini API.
func WithGeminiChat(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.set(func(cfg *config.Config) {
			cfg.Chat.Provider = config.ProviderGemini
			cfg.Chat.APIKey = apiKey
			cfg.Chat.Model = model
		})
	})
}

// WithChunking sets chunk size and overlap in characters.
// Defaults: 1000 and 200.
func WithChunking(size, overlap int) Option {
	return optionFunc(func(c *clientConfig) {
		c.set(func(cfg *config.Config) {
			cfg.Chunker.Size = size
			cfg.Chunker.Overlap = overlap
		})
	})
}

// WithMaxRounds caps tool-call rounds per question. Default: 5.
func WithMaxRounds(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.set(func(cfg *config.Config) {
			cfg.Agent.MaxRounds = n
		})
	})
}

// WithEmbeddingBudget caps embedding tokens per day and month (0 = unlimited).
// When reject is false an exhausted budget only logs a warning.
func WithEmbeddingBudget(daily, monthly int64, reject bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.set(func(cfg *config.Config) {
			cfg.Embedding.Budget = budgetConfig(daily, monthly, reject)
		})
	})
}

// WithChatBudget caps chat model tokens per day and month (0 = unlimited).
func WithChatBudget(daily, monthly int64, reject bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.set(func(cfg *config.Config) {
			cfg.Chat.Budget = budgetConfig(daily, monthly, reject)
		})
	})
}

func budgetConfig(daily, monthly int64, reject bool) config.BudgetConfig {
	bc := config.BudgetConfig{DailyTokenLimit: daily, MonthlyTokenLimit: monthly, Action: "warn"}
	if reject {
		bc.Action = "reject"
	}
	return bc
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// withModel replaces the chat model; used by tests.
func withModel(m agentuc.Model) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = m
	})
}
