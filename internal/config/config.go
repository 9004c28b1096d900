package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Serper   SerperConfig   `mapstructure:"serper"`
	Mistral  MistralConfig  `mapstructure:"mistral"`
	Research ResearchConfig `mapstructure:"research"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// ServerConfig configures the read-only ops HTTP API.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type TelegramConfig struct {
	Token       string        `mapstructure:"token"`
	BaseURL     string        `mapstructure:"base_url"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

type SerperConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	Country        string        `mapstructure:"country"`
	Locale         string        `mapstructure:"locale"`
}

type MistralConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

// ResearchConfig holds the pipeline knobs. Pauses exist to stay under
// external rate limits and may be zero in tests.
type ResearchConfig struct {
	MaxConcurrentSearches int           `mapstructure:"max_concurrent_searches"`
	CallPause             time.Duration `mapstructure:"call_pause"`
	BatchPause            time.Duration `mapstructure:"batch_pause"`
	MaxQueries            int           `mapstructure:"max_queries"`
	MaxFindings           int           `mapstructure:"max_findings"`
	MinSnippetLength      int           `mapstructure:"min_snippet_length"`
	// PDFFontPath points at a UTF-8 TTF font. Empty disables Cyrillic
	// glyphs in the PDF, not PDF generation itself.
	PDFFontPath string `mapstructure:"pdf_font_path"`
}

// DefaultsConfig seeds per-chat settings on first access.
type DefaultsConfig struct {
	MaxResults   int    `mapstructure:"max_results"`
	DeepAnalysis bool   `mapstructure:"deep_analysis"`
	Lang         string `mapstructure:"lang"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/bot_state.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("telegram.poll_timeout", 30*time.Second)
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("serper.request_timeout", 15*time.Second)
	v.SetDefault("serper.max_retries", 3)
	v.SetDefault("serper.country", "us")
	v.SetDefault("serper.locale", "en")
	v.SetDefault("mistral.base_url", "https://api.mistral.ai/v1")
	v.SetDefault("mistral.model", "mistral-large-latest")
	v.SetDefault("mistral.request_timeout", 45*time.Second)
	v.SetDefault("mistral.max_retries", 3)
	v.SetDefault("research.max_concurrent_searches", 4)
	v.SetDefault("research.call_pause", 300*time.Millisecond)
	v.SetDefault("research.batch_pause", 1500*time.Millisecond)
	v.SetDefault("research.max_queries", 16)
	v.SetDefault("research.max_findings", 25)
	v.SetDefault("research.min_snippet_length", 20)
	v.SetDefault("research.pdf_font_path", "")
	v.SetDefault("defaults.max_results", 20)
	v.SetDefault("defaults.deep_analysis", true)
	v.SetDefault("defaults.lang", "ru")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("telegram.token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("serper.api_key", "SERPER_API_KEY")
	v.BindEnv("serper.request_timeout", "SERPER_REQ_TIMEOUT")
	v.BindEnv("mistral.api_key", "MISTRAL_API_KEY")
	v.BindEnv("mistral.request_timeout", "MISTRAL_REQ_TIMEOUT")
	v.BindEnv("database.path", "BOT_DB_PATH")
	v.BindEnv("database.dsn", "DATABASE_DSN")
	v.BindEnv("research.max_concurrent_searches", "MAX_CONCURRENT_SEARCHES")
	v.BindEnv("defaults.max_results", "MAX_RESULTS_PER_QUERY")
	v.BindEnv("defaults.deep_analysis", "DEEP_ANALYSIS_ENABLED")
	v.BindEnv("defaults.lang", "DEFAULT_LANG")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required credentials are present and bounded values
// are in range.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (TELEGRAM_BOT_TOKEN)")
	}
	if c.Serper.APIKey == "" {
		return fmt.Errorf("serper API key is required (SERPER_API_KEY)")
	}
	if c.Mistral.APIKey == "" {
		return fmt.Errorf("mistral API key is required (MISTRAL_API_KEY)")
	}
	if c.Research.MaxConcurrentSearches < 1 {
		return fmt.Errorf("research.max_concurrent_searches must be >= 1, got %d", c.Research.MaxConcurrentSearches)
	}
	if c.Defaults.MaxResults < 1 || c.Defaults.MaxResults > 50 {
		return fmt.Errorf("defaults.max_results must be in [1, 50], got %d", c.Defaults.MaxResults)
	}
	if c.Defaults.Lang != "ru" && c.Defaults.Lang != "en" {
		return fmt.Errorf("defaults.lang must be ru or en, got %q", c.Defaults.Lang)
	}
	return nil
}

// DSNString returns the effective DSN for the configured driver.
func (c *DatabaseConfig) DSNString() string {
	if c.Driver == "postgres" {
		return c.DSN
	}
	return c.Path
}
