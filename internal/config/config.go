package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/refugee-resources/resource-locator/internal/search"
)

// Dataset source kinds.
const (
	SourceFile = "file"
	SourceHTTP = "http"
	SourceS3   = "s3"
)

// Config mirrors locator.yaml.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Redis   RedisConfig   `yaml:"redis"`
	Search  SearchConfig  `yaml:"search"`
	Chat    ChatConfig    `yaml:"chat"`
}

// DatasetConfig says where the resources CSV lives.
type DatasetConfig struct {
	Source string   `yaml:"source"` // file, http or s3
	Path   string   `yaml:"path"`
	URL    string   `yaml:"url"`
	S3     S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Key       string `yaml:"key"`
	AccessKey string `yaml:"access_key"` // supports ${VAR}
	SecretKey string `yaml:"secret_key"` // supports ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`
}

type OpenAIConfig struct {
	APIKey      string        `yaml:"api_key"` // supports ${VAR}
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	RateLimit   float64       `yaml:"rate_limit"` // requests per second
	Burst       int           `yaml:"burst"`
}

type RedisConfig struct {
	Host          string        `yaml:"host"`
	Port          string        `yaml:"port"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	ExtractionTTL time.Duration `yaml:"extraction_ttl"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	LockTTL       time.Duration `yaml:"lock_ttl"`
}

type SearchConfig struct {
	Threshold float64        `yaml:"threshold"`
	Weights   search.Weights `yaml:"weights"`
	// RefreshInterval bounds how often a running instance looks for a newer
	// dataset snapshot in Redis.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

type ChatConfig struct {
	MaxInput int `yaml:"max_input"`
}

// Load reads the YAML file, expands ${VAR} references and applies defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(rawBytes))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// FromEnv builds a config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := Config{
		Dataset: DatasetConfig{
			Source: os.Getenv("RESOURCES_SOURCE"),
			Path:   os.Getenv("RESOURCES_PATH"),
			URL:    os.Getenv("RESOURCES_URL"),
			S3: S3Config{
				Endpoint:  os.Getenv("S3_ENDPOINT"),
				Region:    os.Getenv("S3_REGION"),
				Bucket:    os.Getenv("S3_BUCKET"),
				Key:       os.Getenv("S3_KEY"),
				AccessKey: os.Getenv("S3_ACCESS_KEY"),
				SecretKey: os.Getenv("S3_SECRET_KEY"),
				UseSSL:    os.Getenv("S3_USE_SSL") == "true",
			},
		},
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   os.Getenv("OPENAI_MODEL"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     os.Getenv("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Redis.DB = n
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadOrEnv uses the file at path when given, the environment otherwise.
func LoadOrEnv(path string) (*Config, error) {
	if path == "" {
		return FromEnv()
	}
	return Load(path)
}

func (c *Config) applyDefaults() {
	c.Dataset = c.Dataset.GetDefaults()
	c.OpenAI = c.OpenAI.GetDefaults()
	c.Redis = c.Redis.GetDefaults()
	c.Search = c.Search.GetDefaults()
	c.Chat = c.Chat.GetDefaults()
}

// GetDefaults fills unset dataset fields.
func (d DatasetConfig) GetDefaults() DatasetConfig {
	if d.Source == "" {
		switch {
		case d.URL != "":
			d.Source = SourceHTTP
		case d.S3.Bucket != "":
			d.Source = SourceS3
		default:
			d.Source = SourceFile
		}
	}
	if d.Source == SourceFile && d.Path == "" {
		d.Path = "data/normalized_services.csv"
	}
	if d.S3.Key == "" {
		d.S3.Key = "normalized_services.csv"
	}
	return d
}

// GetDefaults fills unset OpenAI fields.
func (o OpenAIConfig) GetDefaults() OpenAIConfig {
	if o.Model == "" {
		o.Model = "gpt-3.5-turbo"
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = 3 * time.Second
	}
	if o.RateLimit == 0 {
		o.RateLimit = 3
	}
	if o.Burst == 0 {
		o.Burst = 5
	}
	return o
}

// GetDefaults fills unset Redis fields.
func (r RedisConfig) GetDefaults() RedisConfig {
	if r.Host == "" {
		r.Host = "localhost"
	}
	if r.Port == "" {
		r.Port = "6379"
	}
	if r.ExtractionTTL == 0 {
		r.ExtractionTTL = 24 * time.Hour
	}
	if r.SessionTTL == 0 {
		r.SessionTTL = 2 * time.Hour
	}
	if r.LockTTL == 0 {
		r.LockTTL = 2 * time.Minute
	}
	return r
}

// GetDefaults fills unset search fields.
func (s SearchConfig) GetDefaults() SearchConfig {
	if s.Threshold == 0 {
		s.Threshold = search.DefaultThreshold
	}
	if s.Weights == (search.Weights{}) {
		s.Weights = search.DefaultWeights
	}
	if s.RefreshInterval == 0 {
		s.RefreshInterval = 30 * time.Second
	}
	return s
}

// GetDefaults fills unset chat fields.
func (c ChatConfig) GetDefaults() ChatConfig {
	if c.MaxInput == 0 {
		c.MaxInput = 500
	}
	return c
}

func (c *Config) validate() error {
	switch c.Dataset.Source {
	case SourceFile:
		if c.Dataset.Path == "" {
			return fmt.Errorf("dataset.path is required for file source")
		}
	case SourceHTTP:
		if c.Dataset.URL == "" {
			return fmt.Errorf("dataset.url is required for http source")
		}
	case SourceS3:
		if c.Dataset.S3.Bucket == "" {
			return fmt.Errorf("dataset.s3.bucket is required")
		}
		if c.Dataset.S3.Endpoint == "" {
			return fmt.Errorf("dataset.s3.endpoint is required")
		}
	default:
		return fmt.Errorf("unknown dataset.source %q", c.Dataset.Source)
	}

	if c.Search.Threshold < 0 || c.Search.Threshold > 1 {
		return fmt.Errorf("search.threshold must be within [0, 1], got %v", c.Search.Threshold)
	}
	w := c.Search.Weights
	if w.Location < 0 || w.Service < 0 || w.Language < 0 || w.Location+w.Service+w.Language == 0 {
		return fmt.Errorf("search.weights must be non-negative and not all zero")
	}
	if c.Search.RefreshInterval < 0 {
		return fmt.Errorf("search.refresh_interval must not be negative")
	}
	if c.Chat.MaxInput < 0 {
		return fmt.Errorf("chat.max_input must be positive")
	}
	return nil
}
