package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Embed     EmbedConfig     `yaml:"embed" mapstructure:"embed"`
	Memory    MemoryConfig    `yaml:"memory" mapstructure:"memory"`
	Workflow  WorkflowConfig  `yaml:"workflow" mapstructure:"workflow"`
	Scheduler SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
	Session   SessionConfig   `yaml:"session" mapstructure:"session"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "postgres" or "sqlite"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SearchConfig holds web search provider settings.
type SearchConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	MaxResults     int     `yaml:"max_results" mapstructure:"max_results"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries        int     `yaml:"retries" mapstructure:"retries"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// EmbedConfig holds the embeddings endpoint settings.
type EmbedConfig struct {
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	Model      string `yaml:"model" mapstructure:"model"`
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
}

// MemoryConfig configures the document index.
type MemoryConfig struct {
	TopK         int `yaml:"top_k" mapstructure:"top_k"`
	ChunkSize    int `yaml:"chunk_size" mapstructure:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap" mapstructure:"chunk_overlap"`
}

// WorkflowConfig configures engine behavior.
type WorkflowConfig struct {
	BranchTimeoutSecs int `yaml:"branch_timeout_secs" mapstructure:"branch_timeout_secs"`
}

// SchedulerConfig configures the standing-order scheduler.
type SchedulerConfig struct {
	OrdersFile    string `yaml:"orders_file" mapstructure:"orders_file"`
	IntervalMins  int    `yaml:"interval_mins" mapstructure:"interval_mins"`
	BaseDelaySecs int    `yaml:"base_delay_secs" mapstructure:"base_delay_secs"`
	StrideSecs    int    `yaml:"stride_secs" mapstructure:"stride_secs"`
}

// SessionConfig configures chat session handling.
type SessionConfig struct {
	MaxTurns int `yaml:"max_turns" mapstructure:"max_turns"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OSINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 7000)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("search.base_url", "https://s.jina.ai")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("search.retries", 1)
	v.SetDefault("search.requests_per_sec", 1)
	v.SetDefault("embed.base_url", "http://localhost:11434")
	v.SetDefault("embed.model", "nomic-embed-text")
	v.SetDefault("embed.dimensions", 768)
	v.SetDefault("memory.top_k", 3)
	v.SetDefault("memory.chunk_size", 1000)
	v.SetDefault("memory.chunk_overlap", 200)
	v.SetDefault("workflow.branch_timeout_secs", 60)
	v.SetDefault("scheduler.orders_file", "orders.yaml")
	v.SetDefault("scheduler.interval_mins", 120)
	v.SetDefault("scheduler.base_delay_secs", 10)
	v.SetDefault("scheduler.stride_secs", 45)
	v.SetDefault("session.max_turns", 6)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
