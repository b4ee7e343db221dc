package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Fetch     FetchConfig
	S3        S3Config
	Extractor ExtractorConfig
	Assistant AssistantConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	Environment   string        `mapstructure:"environment"`
	MaxConcurrent int64         `mapstructure:"max_concurrent"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings. A single "*" entry allows any origin.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig holds per-client request rate settings.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// FetchConfig holds image download settings.
type FetchConfig struct {
	TimeoutSecs    int    `mapstructure:"timeout_secs"`
	MaxImageSizeMB int64  `mapstructure:"max_image_size_mb"`
	TempDir        string `mapstructure:"temp_dir"`
}

// S3Config holds AWS S3 settings for s3:// image sources.
type S3Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// ExtractorConfig holds document-analysis service settings.
type ExtractorConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	APIVersion   string        `mapstructure:"api_version"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	TimeoutSecs  int           `mapstructure:"timeout_secs"`
}

// AssistantConfig holds conversational-assistant service settings.
type AssistantConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	AssistantID  string        `mapstructure:"assistant_id"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
	TimeoutSecs  int           `mapstructure:"timeout_secs"`
}

// Validate reports the required settings that are missing.
func (c *Config) Validate() error {
	var missing []string
	if c.Extractor.Endpoint == "" {
		missing = append(missing, "extractor.endpoint (AZURE_FORM_RECOGNIZER_ENDPOINT)")
	}
	if c.Extractor.APIKey == "" {
		missing = append(missing, "extractor.api_key (AZURE_FORM_RECOGNIZER_KEY)")
	}
	if c.Assistant.APIKey == "" {
		missing = append(missing, "assistant.api_key (OPENAI_API_KEY)")
	}
	if c.Assistant.AssistantID == "" {
		missing = append(missing, "assistant.assistant_id (OPENAI_ASSISTANT_ID)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Assistant.PollInterval <= 0 {
		return errors.New("assistant.poll_interval must be positive")
	}
	return nil
}

// Load reads configuration from a .env file (if present) and environment variables
// with the OCRBRIDGE_ prefix. The unprefixed variable names of the legacy
// deployment (AZURE_FORM_RECOGNIZER_*, OPENAI_*, PORT) are accepted as fallbacks.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("OCRBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":5001")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "10m")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_concurrent", 0)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// CORS defaults (any origin)
	v.SetDefault("cors.allowed_origins", "*")

	// Rate limit defaults (off unless enabled)
	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests_per_second", 2.0)
	v.SetDefault("ratelimit.burst", 5)

	// Fetch defaults
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_image_size_mb", 20)
	v.SetDefault("fetch.temp_dir", "")

	// S3 defaults
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")

	// Extractor defaults
	v.SetDefault("extractor.model", "prebuilt-document")
	v.SetDefault("extractor.api_version", "2023-07-31")
	v.SetDefault("extractor.poll_interval", "1s")
	v.SetDefault("extractor.timeout_secs", 120)

	// Assistant defaults
	v.SetDefault("assistant.base_url", "https://api.openai.com/v1")
	v.SetDefault("assistant.poll_interval", "2s")
	v.SetDefault("assistant.max_wait", "5m")
	v.SetDefault("assistant.timeout_secs", 60)

	// Bind environment variables explicitly for nested keys. Later names are fallbacks.
	envBindings := map[string][]string{
		"server.port":                   {"OCRBRIDGE_SERVER_PORT"},
		"server.read_timeout":           {"OCRBRIDGE_SERVER_READ_TIMEOUT"},
		"server.write_timeout":          {"OCRBRIDGE_SERVER_WRITE_TIMEOUT"},
		"server.environment":            {"OCRBRIDGE_SERVER_ENVIRONMENT"},
		"server.max_concurrent":         {"OCRBRIDGE_SERVER_MAX_CONCURRENT"},
		"log.level":                     {"OCRBRIDGE_LOG_LEVEL"},
		"log.format":                    {"OCRBRIDGE_LOG_FORMAT"},
		"cors.allowed_origins":          {"OCRBRIDGE_CORS_ALLOWED_ORIGINS"},
		"ratelimit.enabled":             {"OCRBRIDGE_RATELIMIT_ENABLED"},
		"ratelimit.requests_per_second": {"OCRBRIDGE_RATELIMIT_REQUESTS_PER_SECOND"},
		"ratelimit.burst":               {"OCRBRIDGE_RATELIMIT_BURST"},
		"fetch.timeout_secs":            {"OCRBRIDGE_FETCH_TIMEOUT_SECS"},
		"fetch.max_image_size_mb":       {"OCRBRIDGE_FETCH_MAX_IMAGE_SIZE_MB"},
		"fetch.temp_dir":                {"OCRBRIDGE_FETCH_TEMP_DIR"},
		"s3.enabled":                    {"OCRBRIDGE_S3_ENABLED"},
		"s3.region":                     {"OCRBRIDGE_S3_REGION", "AWS_REGION"},
		"s3.endpoint":                   {"OCRBRIDGE_S3_ENDPOINT"},
		"s3.access_key":                 {"OCRBRIDGE_S3_ACCESS_KEY"},
		"s3.secret_key":                 {"OCRBRIDGE_S3_SECRET_KEY"},
		"extractor.endpoint":            {"OCRBRIDGE_EXTRACTOR_ENDPOINT", "AZURE_FORM_RECOGNIZER_ENDPOINT"},
		"extractor.api_key":             {"OCRBRIDGE_EXTRACTOR_API_KEY", "AZURE_FORM_RECOGNIZER_KEY"},
		"extractor.model":               {"OCRBRIDGE_EXTRACTOR_MODEL"},
		"extractor.api_version":         {"OCRBRIDGE_EXTRACTOR_API_VERSION"},
		"extractor.poll_interval":       {"OCRBRIDGE_EXTRACTOR_POLL_INTERVAL"},
		"extractor.timeout_secs":        {"OCRBRIDGE_EXTRACTOR_TIMEOUT_SECS"},
		"assistant.base_url":            {"OCRBRIDGE_ASSISTANT_BASE_URL"},
		"assistant.api_key":             {"OCRBRIDGE_ASSISTANT_API_KEY", "OPENAI_API_KEY"},
		"assistant.assistant_id":        {"OCRBRIDGE_ASSISTANT_ASSISTANT_ID", "OPENAI_ASSISTANT_ID"},
		"assistant.poll_interval":       {"OCRBRIDGE_ASSISTANT_POLL_INTERVAL"},
		"assistant.max_wait":            {"OCRBRIDGE_ASSISTANT_MAX_WAIT"},
		"assistant.timeout_secs":        {"OCRBRIDGE_ASSISTANT_TIMEOUT_SECS"},
	}
	for key, envs := range envBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if OCRBRIDGE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("OCRBRIDGE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:          serverPort,
		ReadTimeout:   v.GetDuration("server.read_timeout"),
		WriteTimeout:  v.GetDuration("server.write_timeout"),
		Environment:   v.GetString("server.environment"),
		MaxConcurrent: v.GetInt64("server.max_concurrent"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.RateLimit = RateLimitConfig{
		Enabled:           v.GetBool("ratelimit.enabled"),
		RequestsPerSecond: v.GetFloat64("ratelimit.requests_per_second"),
		Burst:             v.GetInt("ratelimit.burst"),
	}
	cfg.Fetch = FetchConfig{
		TimeoutSecs:    v.GetInt("fetch.timeout_secs"),
		MaxImageSizeMB: v.GetInt64("fetch.max_image_size_mb"),
		TempDir:        v.GetString("fetch.temp_dir"),
	}
	cfg.S3 = S3Config{
		Enabled:   v.GetBool("s3.enabled"),
		Region:    v.GetString("s3.region"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Extractor = ExtractorConfig{
		Endpoint:     strings.TrimRight(v.GetString("extractor.endpoint"), "/"),
		APIKey:       v.GetString("extractor.api_key"),
		Model:        v.GetString("extractor.model"),
		APIVersion:   v.GetString("extractor.api_version"),
		PollInterval: v.GetDuration("extractor.poll_interval"),
		TimeoutSecs:  v.GetInt("extractor.timeout_secs"),
	}
	cfg.Assistant = AssistantConfig{
		BaseURL:      strings.TrimRight(v.GetString("assistant.base_url"), "/"),
		APIKey:       v.GetString("assistant.api_key"),
		AssistantID:  v.GetString("assistant.assistant_id"),
		PollInterval: v.GetDuration("assistant.poll_interval"),
		MaxWait:      v.GetDuration("assistant.max_wait"),
		TimeoutSecs:  v.GetInt("assistant.timeout_secs"),
	}

	return cfg, nil
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
