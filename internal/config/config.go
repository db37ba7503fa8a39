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
	BounceBan BounceBanConfig `yaml:"bounceban" mapstructure:"bounceban"`
	SMTP      SMTPConfig      `yaml:"smtp" mapstructure:"smtp"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Drafter   DrafterConfig   `yaml:"drafter" mapstructure:"drafter"`
	Run       RunConfig       `yaml:"run" mapstructure:"run"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BounceBanConfig holds the email verification API settings.
type BounceBanConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	DelaySecs    float64 `yaml:"delay_secs" mapstructure:"delay_secs"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	PollAttempts int     `yaml:"poll_attempts" mapstructure:"poll_attempts"`
}

// SMTPConfig configures the direct SMTP verification backend.
type SMTPConfig struct {
	DelaySecs   float64 `yaml:"delay_secs" mapstructure:"delay_secs"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	HelloDomain string  `yaml:"hello_domain" mapstructure:"hello_domain"`
	Sender      string  `yaml:"sender" mapstructure:"sender"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ScrapeConfig configures founder-page fetching.
type ScrapeConfig struct {
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// NotionConfig holds Notion API credentials and the lead database ID.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// DrafterConfig configures outreach draft generation.
type DrafterConfig struct {
	TemplateFile string `yaml:"template_file" mapstructure:"template_file"`
	SenderName   string `yaml:"sender_name" mapstructure:"sender_name"`
}

// RunConfig configures the pipeline run command.
type RunConfig struct {
	NewsletterDir  string `yaml:"newsletter_dir" mapstructure:"newsletter_dir"`
	MaxNewsletters int    `yaml:"max_newsletters" mapstructure:"max_newsletters"`
	Concurrency    int    `yaml:"concurrency" mapstructure:"concurrency"`
	Backend        string `yaml:"backend" mapstructure:"backend"`
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
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "outreach.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("bounceban.base_url", "https://api.bounceban.com")
	v.SetDefault("bounceban.delay_secs", 1.0)
	v.SetDefault("bounceban.timeout_secs", 30)
	v.SetDefault("bounceban.poll_attempts", 10)
	v.SetDefault("smtp.delay_secs", 2.0)
	v.SetDefault("smtp.timeout_secs", 10)
	v.SetDefault("smtp.hello_domain", "example.com")
	v.SetDefault("smtp.sender", "verify@example.com")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("scrape.rate_limit", 1.0)
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("drafter.sender_name", "The Sells Group")
	v.SetDefault("run.newsletter_dir", "newsletters")
	v.SetDefault("run.max_newsletters", 10)
	v.SetDefault("run.concurrency", 3)
	v.SetDefault("run.backend", "api")

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
