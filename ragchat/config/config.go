package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
)

// Config is resolved once at startup and passed by value afterwards.
type Config struct {
	Addr   string `yaml:"addr"`
	LogDir string `yaml:"log_dir"`

	LLMProvider  string `yaml:"llm_provider"`
	LLMBaseURL   string `yaml:"llm_base_url"`
	LLMModel     string `yaml:"llm_model"`
	SystemPrompt string `yaml:"system_prompt"`

	StorageRemote  bool   `yaml:"storage_remote"`
	UploadDir      string `yaml:"upload_dir"`
	MinIOEndpoint  string `yaml:"minio_endpoint"`
	MinIOBucket    string `yaml:"minio_bucket"`
	MinIOSecure    bool   `yaml:"minio_secure"`
	MinIOAccessKey string `yaml:"-"`
	MinIOSecretKey string `yaml:"-"`

	SessionStore string        `yaml:"session_store"`
	SessionTTL   time.Duration `yaml:"session_ttl"`

	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBName     string `yaml:"db_name"`
	DBPassword string `yaml:"-"`

	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
	RateLimitBurst     int `yaml:"rate_limit_burst"`

	SecretsDir string `yaml:"secrets_dir"`

	// Filled from the secret source, never from the config file.
	OpenAIAPIKey     string `yaml:"-"`
	SessionSecretKey string `yaml:"-"`
}

func defaultConfig() Config {
	return Config{
		Addr:               ":8000",
		LogDir:             "./logs",
		LLMProvider:        ProviderOpenAI,
		LLMModel:           "gpt-4o-mini",
		SystemPrompt:       "You are a helpful assistant.",
		UploadDir:          "./uploads",
		MinIOBucket:        "ragchat",
		SessionStore:       SessionStoreMemory,
		SessionTTL:         24 * time.Hour,
		DBPort:             "5432",
		RateLimitPerMinute: 20,
		RateLimitBurst:     5,
	}
}

// LoadConfig layers defaults, the optional YAML file, .env and the process
// environment, in that order.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	path := getEnv("RAGCHAT_CONFIG", "ragchat.yaml")
	if err := loadFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.LLMProvider = getEnv("LLM_PROVIDER", cfg.LLMProvider)
	cfg.LLMBaseURL = getEnv("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)
	cfg.SystemPrompt = getEnv("SYSTEM_PROMPT", cfg.SystemPrompt)
	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)
	cfg.MinIOEndpoint = getEnv("MINIO_ENDPOINT", cfg.MinIOEndpoint)
	cfg.MinIOBucket = getEnv("MINIO_BUCKET", cfg.MinIOBucket)
	cfg.SessionStore = getEnv("SESSION_STORE", cfg.SessionStore)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.SecretsDir = getEnv("SECRETS_DIR", cfg.SecretsDir)

	// Hosted function deployments have no writable local disk worth keeping.
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		cfg.StorageRemote = true
	}

	var err error
	if cfg.StorageRemote, err = getBool("STORAGE_REMOTE", cfg.StorageRemote); err != nil {
		return err
	}
	if cfg.MinIOSecure, err = getBool("MINIO_SECURE", cfg.MinIOSecure); err != nil {
		return err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", cfg.SessionTTL); err != nil {
		return err
	}
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute); err != nil {
		return err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return err
	}
	return nil
}

// Validate rejects combinations the process cannot start with.
func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	switch c.SessionStore {
	case SessionStoreMemory, SessionStorePostgres:
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}
	if c.StorageRemote && c.MinIOEndpoint == "" {
		return errors.New("MINIO_ENDPOINT is required when remote storage is enabled")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("rate limit values must be positive")
	}
	return nil
}

// RequiredSecrets lists the secret names this configuration needs at startup.
func (c Config) RequiredSecrets() []string {
	names := []string{"SESSION_SECRET_KEY"}
	if c.LLMProvider == ProviderOpenAI {
		names = append(names, "OPENAI_API_KEY")
	}
	if c.StorageRemote {
		names = append(names, "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY")
	}
	if c.SessionStore == SessionStorePostgres {
		names = append(names, "DB_PASSWORD")
	}
	return names
}

// WithSecrets returns a copy carrying the resolved secret values.
func (c Config) WithSecrets(values map[string]string) Config {
	c.SessionSecretKey = values["SESSION_SECRET_KEY"]
	c.OpenAIAPIKey = values["OPENAI_API_KEY"]
	c.MinIOAccessKey = values["MINIO_ACCESS_KEY"]
	c.MinIOSecretKey = values["MINIO_SECRET_KEY"]
	c.DBPassword = values["DB_PASSWORD"]
	return c
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
