// Package config loads typed application configuration from a YAML file, a
// .env file, and environment variables, in that order of increasing
// precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        App        `mapstructure:"app"`
	Database   Database   `mapstructure:"database"`
	Queue      Queue      `mapstructure:"queue"`
	AI         AI         `mapstructure:"ai"`
	VectorStore VectorStore `mapstructure:"vector_store"`
	Clustering Clustering `mapstructure:"clustering"`
}

// App holds general application configuration.
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// Database holds Postgres connection configuration.
type Database struct {
	ConnectionString string `mapstructure:"connection_string"`
	MaxConnections   int    `mapstructure:"max_connections"`
	IdleConnections  int    `mapstructure:"idle_connections"`
}

// Queue holds NATS JetStream connection configuration for the
// content-processing and clustering work queues.
type Queue struct {
	URL                string        `mapstructure:"url"`
	ContentStreamName  string        `mapstructure:"content_stream_name"`
	ClusterStreamName  string        `mapstructure:"cluster_stream_name"`
	AckWait            time.Duration `mapstructure:"ack_wait"`
	MaxRedeliver       int           `mapstructure:"max_redeliver"`
}

// AI holds provider configuration for embedding, classification, and
// cluster-labelling calls.
type AI struct {
	Gemini        GeminiConfig `mapstructure:"gemini"`
	RateLimitRPS  float64      `mapstructure:"rate_limit_rps"`
	BreakerWindow time.Duration `mapstructure:"breaker_window"`
}

// GeminiConfig holds Google Gemini configuration.
type GeminiConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	ClassificationModel string       `mapstructure:"classification_model"`
	EmbeddingModel     string        `mapstructure:"embedding_model"`
	LabellingModel     string        `mapstructure:"labelling_model"`
	Timeout            time.Duration `mapstructure:"timeout"`
	EmbeddingDimensions int          `mapstructure:"embedding_dimensions"`
}

// VectorStore holds pgvector configuration.
type VectorStore struct {
	CollectionName      string  `mapstructure:"collection_name"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
}

// Clustering holds the auto-reenqueue policy applied after a successful
// pipeline run. The clustering engine itself uses the constants in
// internal/clustering; MinClusterSize here is validated but not read
// elsewhere.
type Clustering struct {
	MinItemsForClustering int  `mapstructure:"min_items_for_clustering"`
	MinClusterSize        int  `mapstructure:"min_cluster_size"`
	AutoEnqueueOnSuccess   bool `mapstructure:"auto_enqueue_on_success"`
}

var globalConfig *Config

// Load reads configuration from a YAML file (if configFile is non-empty or
// a default one is found), a .env file, and environment variables, in that
// order of increasing precedence, then validates the result.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("warning: error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".saveit")
		viper.SetConfigType("yaml")
	}

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration, loading it with defaults if it has
// not been loaded yet.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("failed to load configuration: %v", err))
		}
		return cfg
	}
	return globalConfig
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")

	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.idle_connections", 5)

	viper.SetDefault("queue.content_stream_name", "content-processing")
	viper.SetDefault("queue.cluster_stream_name", "clustering")
	viper.SetDefault("queue.ack_wait", "60s")
	viper.SetDefault("queue.max_redeliver", 5)

	viper.SetDefault("ai.gemini.classification_model", "gemini-flash-lite-latest")
	viper.SetDefault("ai.gemini.embedding_model", "text-embedding-004")
	viper.SetDefault("ai.gemini.labelling_model", "gemini-flash-lite-latest")
	viper.SetDefault("ai.gemini.timeout", "30s")
	viper.SetDefault("ai.gemini.embedding_dimensions", 1536)
	viper.SetDefault("ai.rate_limit_rps", 5.0)
	viper.SetDefault("ai.breaker_window", "60s")

	viper.SetDefault("vector_store.collection_name", "content_embeddings")
	viper.SetDefault("vector_store.similarity_threshold", 0.7)

	viper.SetDefault("clustering.min_items_for_clustering", 3)
	viper.SetDefault("clustering.min_cluster_size", 2)
	viper.SetDefault("clustering.auto_enqueue_on_success", true)
}

func validateConfig(cfg *Config) error {
	if cfg.Database.ConnectionString == "" {
		return fmt.Errorf("database.connection_string is required")
	}
	if cfg.Queue.URL == "" {
		return fmt.Errorf("queue.url is required")
	}
	if cfg.AI.Gemini.APIKey == "" {
		return fmt.Errorf("ai.gemini.api_key is required")
	}
	if cfg.Clustering.MinClusterSize < 1 {
		return fmt.Errorf("clustering.min_cluster_size must be >= 1")
	}
	return nil
}
