// Package config loads and validates pipeline configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Lexicon, Corpus, Classify, Sample, Postgres, Redis, Kafka, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level pipeline configuration.
type Config struct {
	Lexicon  LexiconConfig  `yaml:"lexicon"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Classify ClassifyConfig `yaml:"classify"`
	Sample   SampleConfig   `yaml:"sample"`
	Output   OutputConfig   `yaml:"output"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// LexiconConfig locates the SALDO LMF file and names the sense relation that
// forms the ancestry graph.
type LexiconConfig struct {
	Path     string   `yaml:"path"`
	Relation string   `yaml:"relation"`
	Roots    []string `yaml:"roots"`
}

// CorpusConfig controls the frequency-row source and row-level filtering.
// Source is "file" or "kafka".
type CorpusConfig struct {
	Source       string `yaml:"source"`
	Path         string `yaml:"path"`
	PosPrefix    string `yaml:"posPrefix"`
	MinFrequency int64  `yaml:"minFrequency"`
}

// ClassifyConfig bounds the ancestry traversal.
type ClassifyConfig struct {
	MaxDepth int `yaml:"maxDepth"`
}

// SampleConfig controls stratified sampling: sample size per animacy class,
// RNG seed, and number of frequency strata.
type SampleConfig struct {
	N           int   `yaml:"n"`
	Seed        int64 `yaml:"seed"`
	StrataCount int   `yaml:"strataCount"`
}

// OutputConfig names the files the pipeline writes.
type OutputConfig struct {
	Dir           string `yaml:"dir"`
	TableFile     string `yaml:"tableFile"`
	UnmatchedFile string `yaml:"unmatchedFile"`
	SamplePrefix  string `yaml:"samplePrefix"`
}

// PostgresConfig holds PostgreSQL connection parameters for the optional
// result store.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig holds connection parameters for the optional classification
// cache.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds broker and topic settings for the streaming corpus
// source.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	ConsumerGroup string   `yaml:"consumerGroup"`
	Topic         string   `yaml:"topic"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// defaultConfig returns a Config with defaults matching the reference SALDO
// run: NN rows only, depth-bounded traversal, 10 frequency strata.
func defaultConfig() *Config {
	return &Config{
		Lexicon: LexiconConfig{
			Path:     "data/saldo.xml",
			Relation: "primary",
			Roots:    []string{"människa", "person", "djur", "varelse"},
		},
		Corpus: CorpusConfig{
			Source:       "file",
			Path:         "data/stats_all.txt",
			PosPrefix:    "NN",
			MinFrequency: 1,
		},
		Classify: ClassifyConfig{
			MaxDepth: 50,
		},
		Sample: SampleConfig{
			N:           50,
			Seed:        42,
			StrataCount: 10,
		},
		Output: OutputConfig{
			Dir:           "out",
			TableFile:     "lemma_freq_animacy.tsv",
			UnmatchedFile: "unmatched_lemgrams.txt",
			SamplePrefix:  "sampled",
		},
		Postgres: PostgresConfig{
			Enabled:         false,
			Host:            "localhost",
			Port:            5432,
			Database:        "animacy",
			User:            "animacy",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "animacy-pipeline",
			Topic:         "corpus-rows",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SA_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SA_LEXICON_PATH"); v != "" {
		cfg.Lexicon.Path = v
	}
	if v := os.Getenv("SA_LEXICON_RELATION"); v != "" {
		cfg.Lexicon.Relation = v
	}
	if v := os.Getenv("SA_LEXICON_ROOTS"); v != "" {
		cfg.Lexicon.Roots = strings.Split(v, ",")
	}
	if v := os.Getenv("SA_CORPUS_SOURCE"); v != "" {
		cfg.Corpus.Source = v
	}
	if v := os.Getenv("SA_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("SA_CORPUS_POS_PREFIX"); v != "" {
		cfg.Corpus.PosPrefix = v
	}
	if v := os.Getenv("SA_CORPUS_MIN_FREQUENCY"); v != "" {
		if f, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Corpus.MinFrequency = f
		}
	}
	if v := os.Getenv("SA_CLASSIFY_MAX_DEPTH"); v != "" {
		if d, err := strconv.Atoi(v); err == nil {
			cfg.Classify.MaxDepth = d
		}
	}
	if v := os.Getenv("SA_SAMPLE_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sample.N = n
		}
	}
	if v := os.Getenv("SA_SAMPLE_SEED"); v != "" {
		if s, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Sample.Seed = s
		}
	}
	if v := os.Getenv("SA_SAMPLE_STRATA"); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			cfg.Sample.StrataCount = s
		}
	}
	if v := os.Getenv("SA_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("SA_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SA_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SA_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SA_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SA_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SA_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SA_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SA_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SA_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("SA_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SA_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate checks the fields the core stages depend on.
func (c *Config) Validate() error {
	if c.Sample.N < 0 {
		return fmt.Errorf("sample.n must be >= 0, got %d", c.Sample.N)
	}
	if c.Sample.StrataCount < 1 {
		return fmt.Errorf("sample.strataCount must be >= 1, got %d", c.Sample.StrataCount)
	}
	if c.Classify.MaxDepth < 1 {
		return fmt.Errorf("classify.maxDepth must be >= 1, got %d", c.Classify.MaxDepth)
	}
	if c.Corpus.Source != "file" && c.Corpus.Source != "kafka" {
		return fmt.Errorf("corpus.source must be %q or %q, got %q", "file", "kafka", c.Corpus.Source)
	}
	if len(c.Lexicon.Roots) == 0 {
		return fmt.Errorf("lexicon.roots must not be empty")
	}
	return nil
}
