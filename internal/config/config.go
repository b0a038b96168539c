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
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	GLM       GLMConfig       `yaml:"glm" mapstructure:"glm"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer" mapstructure:"analyzer"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LLMConfig selects the completion provider and its rate limit.
type LLMConfig struct {
	Provider string  `yaml:"provider" mapstructure:"provider"`
	RPS      float64 `yaml:"rps" mapstructure:"rps"`
	Burst    int     `yaml:"burst" mapstructure:"burst"`
}

// GLMConfig holds Zhipu GLM API settings.
type GLMConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// FetchConfig configures the landing page fetcher.
type FetchConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnalyzerConfig configures pipeline behavior.
type AnalyzerConfig struct {
	Mode                string `yaml:"mode" mapstructure:"mode"`
	Workers             int    `yaml:"workers" mapstructure:"workers"`
	QuestionsPerSegment int    `yaml:"questions_per_segment" mapstructure:"questions_per_segment"`
	AnswersPerQuestion  int    `yaml:"answers_per_question" mapstructure:"answers_per_question"`
	PageTextLimit       int    `yaml:"page_text_limit" mapstructure:"page_text_limit"`
}

// RegistryConfig points at an optional category mapping override file.
type RegistryConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the query API server.
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
	v.SetEnvPrefix("BRANDSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("llm.provider", "glm")
	v.SetDefault("llm.rps", 5.0)
	v.SetDefault("llm.burst", 5)
	v.SetDefault("glm.base_url", "https://open.bigmodel.cn/api/paas/v4")
	v.SetDefault("glm.model", "glm-4")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("fetch.timeout_secs", 10)
	v.SetDefault("analyzer.mode", "rules")
	v.SetDefault("analyzer.workers", 5)
	v.SetDefault("analyzer.questions_per_segment", 3)
	v.SetDefault("analyzer.answers_per_question", 3)
	v.SetDefault("analyzer.page_text_limit", 10000)

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

// Validate checks that the configuration is usable for the given mode
// ("analyze" or "serve"). It collects all problems into a single error.
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "analyze", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	check(c.Store.DatabaseURL != "" || c.Store.Driver == "sqlite",
		"store.database_url is required for the postgres driver")
	check(c.Analyzer.Workers >= 1 && c.Analyzer.Workers <= 50,
		"analyzer.workers must be between 1 and 50")
	check(c.Analyzer.QuestionsPerSegment >= 1,
		"analyzer.questions_per_segment must be >= 1")
	check(c.Analyzer.AnswersPerQuestion >= 1,
		"analyzer.answers_per_question must be >= 1")

	switch c.Analyzer.Mode {
	case "rules", "model":
	default:
		problems = append(problems, "analyzer.mode must be rules or model")
	}

	// Question and answer generation always call the completion provider,
	// so a key is required even in rules mode.
	switch c.LLM.Provider {
	case "glm":
		check(c.GLM.Key != "", "glm.key is required")
	case "anthropic":
		check(c.Anthropic.Key != "", "anthropic.key is required")
	default:
		problems = append(problems, "llm.provider must be glm or anthropic")
	}

	if mode == "serve" {
		check(c.Server.Port > 0, "server.port must be > 0")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
