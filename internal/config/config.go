// Package config loads docground settings from defaults, an optional config
// file, a .env file and DOCGROUND_* environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dshills/docground/internal/logger"
)

// EnvPrefix is prepended to every environment variable; nested keys are joined with "_"
const EnvPrefix = "DOCGROUND"

// EnvGoogleCredentials holds a service account JSON for the discovery provider
const EnvGoogleCredentials = "GOOGLE_CREDENTIALS_JSON"

// Cache backends
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

// Search providers
const (
	SearchLocal     = "local"
	SearchDiscovery = "discovery"
	SearchNone      = "none"
)

// Config is the full application configuration
type Config struct {
	DBPath    string          `mapstructure:"db_path"`
	Log       LogConfig       `mapstructure:"log"`
	Chunk     ChunkConfig     `mapstructure:"chunk"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Search    SearchConfig    `mapstructure:"search"`
	Indexer   IndexerConfig   `mapstructure:"indexer"`

	// ConfigFile is the file that was read, empty when none was found
	ConfigFile string `mapstructure:"-"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ChunkConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

// EmbeddingConfig selects and tunes the embedding provider. An empty provider
// is detected from the environment.
type EmbeddingConfig struct {
	Provider          string        `mapstructure:"provider"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	BaseURL           string        `mapstructure:"base_url"`
	CacheSize         int           `mapstructure:"cache_size"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
	FallbackProvider  string        `mapstructure:"fallback_provider"`
	FallbackAPIKey    string        `mapstructure:"fallback_api_key"`
}

type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	TTL           time.Duration `mapstructure:"ttl"`
	OpTimeout     time.Duration `mapstructure:"op_timeout"`
	Size          int           `mapstructure:"size"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

// SearchConfig selects the vector search provider. The discovery fields are
// only read when Provider is "discovery".
type SearchConfig struct {
	Provider        string  `mapstructure:"provider"`
	ProjectID       string  `mapstructure:"project_id"`
	Location        string  `mapstructure:"location"`
	EngineID        string  `mapstructure:"engine_id"`
	DataStoreID     string  `mapstructure:"data_store_id"`
	CredentialsJSON string  `mapstructure:"credentials_json"`
	Endpoint        string  `mapstructure:"endpoint"`
	PageSize        int     `mapstructure:"page_size"`
	MinRelevance    float64 `mapstructure:"min_relevance"`
}

type IndexerConfig struct {
	Workers      int `mapstructure:"workers"`
	EmbedRetries int `mapstructure:"embed_retries"`
}

// SetDefaults registers every key with its default. Keys without a default
// are invisible to AutomaticEnv during Unmarshal, so all of them are listed.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db_path", "~/.docground/docground.db")
	v.SetDefault("log.level", "info")

	v.SetDefault("chunk.size", 800)
	v.SetDefault("chunk.overlap", 100)

	v.SetDefault("embedding.provider", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.cache_size", 1000)
	v.SetDefault("embedding.requests_per_second", 0.0)
	v.SetDefault("embedding.timeout", 30*time.Second)
	v.SetDefault("embedding.fallback_provider", "")
	v.SetDefault("embedding.fallback_api_key", "")

	v.SetDefault("cache.backend", CacheSQLite)
	v.SetDefault("cache.ttl", 60*time.Second)
	v.SetDefault("cache.op_timeout", 250*time.Millisecond)
	v.SetDefault("cache.size", 1000)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("search.provider", SearchLocal)
	v.SetDefault("search.project_id", "")
	v.SetDefault("search.location", "global")
	v.SetDefault("search.engine_id", "")
	v.SetDefault("search.data_store_id", "")
	v.SetDefault("search.credentials_json", "")
	v.SetDefault("search.endpoint", "")
	v.SetDefault("search.page_size", 5)
	v.SetDefault("search.min_relevance", 0.0)

	v.SetDefault("indexer.workers", 0)
	v.SetDefault("indexer.embed_retries", 3)
}

// New returns a viper instance with defaults and environment binding applied
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration. path may be empty, in which case docground.yaml
// is looked up in the working directory and in ~/.docground; a missing file
// is not an error. A .env file in the working directory is loaded first and
// never overrides variables already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(New(), path)
}

// LoadFrom reads configuration through v. Callers may bind flags to v first.
func LoadFrom(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("docground")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".docground"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if cfg.Search.CredentialsJSON == "" {
		cfg.Search.CredentialsJSON = os.Getenv(EnvGoogleCredentials)
	}

	dbPath, err := ExpandPath(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	cfg.DBPath = dbPath

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that cannot be clamped into range
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheSQLite, CacheRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return errors.New("cache.redis_addr is required for the redis backend")
	}

	switch c.Search.Provider {
	case SearchLocal, SearchNone:
	case SearchDiscovery:
		if c.Search.EngineID == "" && c.Search.DataStoreID == "" {
			return errors.New("search.engine_id or search.data_store_id is required for the discovery provider")
		}
	default:
		return fmt.Errorf("unknown search provider %q", c.Search.Provider)
	}

	if c.Search.MinRelevance < 0 || c.Search.MinRelevance > 1 {
		return fmt.Errorf("search.min_relevance must be between 0 and 1, got %v", c.Search.MinRelevance)
	}
	return nil
}

// ExpandPath replaces a leading ~ with the user's home directory
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
