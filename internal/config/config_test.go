package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.HTTP.MaxUploadBytes != 10<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.HTTP.MaxUploadBytes)
	}
	if cfg.Storage.Vector != DriverMemory || cfg.Storage.Conversation != DriverMemory || cfg.Storage.Metadata != DriverMemory {
		t.Errorf("storage drivers = %+v", cfg.Storage)
	}
	if cfg.Embedding.Provider != ProviderOpenAI || cfg.Embedding.Model != "mistral-embed" ||
		cfg.Embedding.BaseURL != "https://api.mistral.ai/v1" || cfg.Embedding.Dimensions != 1024 {
		t.Errorf("embedding = %+v", cfg.Embedding)
	}
	if cfg.Chat.Provider != ProviderGemini || cfg.Chat.Model != "gemini-1.5-flash" || cfg.Chat.Temperature != 0 {
		t.Errorf("chat = %+v", cfg.Chat)
	}
	if cfg.Chunker != (ChunkerConfig{Size: 1000, Overlap: 200}) {
		t.Errorf("chunker = %+v", cfg.Chunker)
	}
	if cfg.Agent.MaxRounds != 5 || cfg.Agent.ScopedK != 3 || cfg.Agent.DiscoveryK != 10 || cfg.Agent.DiscoveryLimit != 5 {
		t.Errorf("agent = %+v", cfg.Agent)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_ProviderSpecificModels(t *testing.T) {
	cfg := Config{
		Embedding: EmbeddingConfig{Provider: ProviderGemini},
		Chat:      ChatConfig{Provider: ProviderOpenAI},
	}
	cfg.ApplyDefaults()

	if cfg.Embedding.Model != "text-embedding-004" || cfg.Embedding.BaseURL != "" {
		t.Errorf("gemini embedding = %+v", cfg.Embedding)
	}
	if cfg.Chat.Model != "mistral-large-latest" {
		t.Errorf("openai chat model = %q", cfg.Chat.Model)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_UnknownDrivers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"vector", func(c *Config) { c.Storage.Vector = "pinecone" }, "storage.vector"},
		{"conversation", func(c *Config) { c.Storage.Conversation = "qdrant" }, "storage.conversation"},
		{"metadata", func(c *Config) { c.Storage.Metadata = "chromem" }, "storage.metadata"},
		{"embedding", func(c *Config) { c.Embedding.Provider = "cohere" }, "embedding.provider"},
		{"chat", func(c *Config) { c.Chat.Provider = "claude" }, "chat.provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil || !strings.HasPrefix(err.Error(), tt.field) {
				t.Errorf("error = %v, want one about %s", err, tt.field)
			}
		})
	}
}

func TestValidate_RedisAddrsRequired(t *testing.T) {
	for _, mutate := range []func(*Config){
		func(c *Config) { c.Storage.Vector = DriverRedis },
		func(c *Config) { c.Storage.Conversation = DriverRedis },
		func(c *Config) { c.Storage.Metadata = DriverRedis },
		func(c *Config) { c.Embedding.Cache.Enabled = true },
	} {
		cfg := validConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected missing addrs error for %+v", cfg.Storage)
		}
		cfg.Database.Addrs = []string{"localhost:6379"}
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error with addrs: %v", err)
		}
	}
}

func TestValidate_ChunkerAndAgent(t *testing.T) {
	cfg := validConfig()
	cfg.Chunker.Overlap = cfg.Chunker.Size
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for overlap >= size")
	}

	cfg = validConfig()
	cfg.Agent.MaxRounds = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative max_rounds")
	}

	cfg = validConfig()
	cfg.Chat.Temperature = 3
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for temperature out of range")
	}
}

func TestValidate_IndexAlgorithm(t *testing.T) {
	cfg := validConfig()
	if cfg.Index.Algorithm != "hnsw" {
		t.Errorf("default algorithm = %q", cfg.Index.Algorithm)
	}

	cfg.Index.Algorithm = "FLAT"
	if err := cfg.Validate(); err != nil {
		t.Errorf("flat should validate: %v", err)
	}

	cfg.Index.Algorithm = "ivf"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "index.algorithm") {
		t.Errorf("expected index.algorithm error, got %v", err)
	}
}

func TestValidate_Budget(t *testing.T) {
	cfg := validConfig()
	cfg.Chat.Budget = BudgetConfig{DailyTokenLimit: 1000, Action: "reject"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !cfg.Chat.Budget.Enabled() || cfg.Embedding.Budget.Enabled() {
		t.Error("Enabled() mismatch")
	}

	cfg.Embedding.Budget.Action = "block"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "embedding.budget.action") {
		t.Errorf("error = %v, want embedding.budget.action", err)
	}

	cfg = validConfig()
	cfg.Chat.Budget.MonthlyTokenLimit = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative limit")
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("PDFCHAT_TEST_PORT", "9090")
	t.Setenv("PDFCHAT_TEST_KEY", "secret")

	cfg, err := Parse([]byte(`
http:
  port: ${PDFCHAT_TEST_PORT}
embedding:
  api_key: ${PDFCHAT_TEST_KEY}
chat:
  api_key: ${PDFCHAT_TEST_UNSET:-fallback}
storage:
  vector: ${PDFCHAT_TEST_VECTOR:-chromem}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.Embedding.APIKey != "secret" || cfg.Chat.APIKey != "fallback" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Storage.Vector != DriverChromem {
		t.Errorf("storage.vector = %q", cfg.Storage.Vector)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected yaml error")
	}
	if _, err := Parse([]byte("http:\n  port: 70000\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoad_ReadsEnvFileAndConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yml := "http:\n  port: ${PDFCHAT_DOTENV_PORT}\n"
	if err := os.WriteFile(filepath.Join(dir, "config", "unittest.yaml"), []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PDFCHAT_DOTENV_PORT=7070\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("PDFCHAT_DOTENV_PORT") })

	cfg, err := Load("unittest")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 7070 {
		t.Errorf("port = %d, want 7070 from .env", cfg.HTTP.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load("does-not-exist"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if GetEnv() != "local" {
		t.Errorf("GetEnv() = %q, want local", GetEnv())
	}
	t.Setenv("ENV", "prod")
	if GetEnv() != "prod" {
		t.Errorf("GetEnv() = %q, want prod", GetEnv())
	}
}
