package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the answering service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	WebSearch WebSearchConfig `mapstructure:"web_search"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Grading   GradingConfig   `mapstructure:"grading"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Session   SessionConfig   `mapstructure:"session"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains the language-model provider configuration.
type LLMConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	CompletionModel string        `mapstructure:"completion_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// WebSearchConfig contains web search provider settings.
type WebSearchConfig struct {
	Provider    string        `mapstructure:"provider"` // serper, brave, google
	APIKey      string        `mapstructure:"api_key"`
	EngineID    string        `mapstructure:"engine_id"` // google custom search only
	MaxResults  int           `mapstructure:"max_results"`
	Timeout     time.Duration `mapstructure:"timeout"`
	FetchTopHit bool          `mapstructure:"fetch_top_hit"`
}

// RetrievalConfig controls chunking and index search behaviour.
type RetrievalConfig struct {
	ChunkSize           int     `mapstructure:"chunk_size"`
	ChunkOverlap        int     `mapstructure:"chunk_overlap"`
	DiversityK          int     `mapstructure:"diversity_k"`
	DiversityPool       int     `mapstructure:"diversity_pool"`
	DiversityLambda     float64 `mapstructure:"diversity_lambda"`
	SimilarityK         int     `mapstructure:"similarity_k"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
}

// GradingConfig controls the relevance grader and the conditional edge.
type GradingConfig struct {
	MaxFrontPage    int      `mapstructure:"max_front_page"`
	MinKept         int      `mapstructure:"min_kept"`
	MinSufficient   int      `mapstructure:"min_sufficient"`
	AnchorTerms     []string `mapstructure:"anchor_terms"`
	RecencyKeywords []string `mapstructure:"recency_keywords"`
}

// PipelineConfig bounds concurrent query processing.
type PipelineConfig struct {
	MaxInFlight int `mapstructure:"max_in_flight"`
	QueueSize   int `mapstructure:"queue_size"`
}

// SessionConfig selects the conversation store backend.
type SessionConfig struct {
	Store      string        `mapstructure:"store"` // inmemory, redis
	TTL        time.Duration `mapstructure:"ttl"`
	MaxHistory int           `mapstructure:"max_history"` // exchanges carried into synthesis
	Redis      RedisConfig   `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("session.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("session.redis.port required")
	}
	return nil
}

// TelemetryConfig contains metrics settings.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Validate checks cross-field invariants that viper cannot express.
func (c *Config) Validate() error {
	if c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf("retrieval.chunk_overlap (%d) must be smaller than retrieval.chunk_size (%d)",
			c.Retrieval.ChunkOverlap, c.Retrieval.ChunkSize)
	}
	if c.Retrieval.DiversityLambda < 0 || c.Retrieval.DiversityLambda > 1 {
		return fmt.Errorf("retrieval.diversity_lambda must be within [0,1]")
	}
	if c.Pipeline.MaxInFlight <= 0 {
		return fmt.Errorf("pipeline.max_in_flight must be > 0")
	}
	if c.Session.Store == "redis" {
		if err := c.Session.Redis.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.default_timeout", 30*time.Second)

	v.SetDefault("server.address", ":8080")

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.completion_model", "gpt-4")
	v.SetDefault("llm.embedding_model", "text-embedding-3-small")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("web_search.provider", "serper")
	v.SetDefault("web_search.max_results", 3)
	v.SetDefault("web_search.timeout", 10*time.Second)
	v.SetDefault("web_search.fetch_top_hit", false)

	v.SetDefault("retrieval.chunk_size", 1000)
	v.SetDefault("retrieval.chunk_overlap", 200)
	v.SetDefault("retrieval.diversity_k", 20)
	v.SetDefault("retrieval.diversity_pool", 40)
	v.SetDefault("retrieval.diversity_lambda", 0.5)
	v.SetDefault("retrieval.similarity_k", 10)
	v.SetDefault("retrieval.similarity_threshold", 0.5)

	v.SetDefault("grading.max_front_page", 5)
	v.SetDefault("grading.min_kept", 5)
	v.SetDefault("grading.min_sufficient", 3)
	v.SetDefault("grading.anchor_terms", []string{})
	v.SetDefault("grading.recency_keywords", []string{
		"latest", "recent", "current", "new",
		"compare", "vs", "versus", "difference",
		"review", "today", "now", "update",
	})

	v.SetDefault("pipeline.max_in_flight", 4)
	v.SetDefault("pipeline.queue_size", 64)

	v.SetDefault("session.store", "inmemory")
	v.SetDefault("session.ttl", 48*time.Hour)
	v.SetDefault("session.max_history", 5)

	v.SetDefault("telemetry.enabled", true)
}

// LoadConfig loads config from file, falling back to defaults when no file is
// present. Environment variables with the PATRICK_ prefix override file values.
func LoadConfig(path string) *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("PATRICK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	if err := config.Validate(); err != nil {
		panic(err)
	}
	return &config
}

// Default returns the built-in configuration without touching the filesystem.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("default config: %w", err))
	}
	return &config
}
