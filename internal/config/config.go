package config

import (
	"time"

	pkgconfig "github.com/weiawesome/labor-market/pkg/config"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Search        SearchConfig
	Elasticsearch ElasticsearchConfig
	Redis         RedisConfig
	Cache         CacheConfig
	Views         ViewsConfig
	Kafka         KafkaConfig
	Expiry        ExpiryConfig
	Auth          AuthConfig
	Log           LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	TimeZone        string        `mapstructure:"timezone"`
	FilePath        string        `mapstructure:"file_path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime int           `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
}

// SearchConfig selects the store the search endpoints read from.
type SearchConfig struct {
	Backend      string        `mapstructure:"backend"` // "sql" | "elasticsearch"
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

type ElasticsearchConfig struct {
	Addresses      []string `mapstructure:"addresses"`
	IndexJobs      string   `mapstructure:"index_jobs"`
	ReindexOnStart bool     `mapstructure:"reindex_on_start"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Prefix      string        `mapstructure:"prefix"`
	TTL         time.Duration `mapstructure:"ttl"`
	EmployerTTL time.Duration `mapstructure:"employer_ttl"`
}

// ViewsConfig selects how view counts are recorded.
type ViewsConfig struct {
	Driver  string        `mapstructure:"driver"` // "direct" | "kafka" | "redis" | "none"
	Timeout time.Duration `mapstructure:"timeout"`
	Topic   string        `mapstructure:"topic"`
}

type KafkaConfig struct {
	Brokers    string `mapstructure:"brokers"`
	GroupID    string `mapstructure:"group_id"`
	Partitions int    `mapstructure:"partitions"`
}

type ExpiryConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Schedule string        `mapstructure:"schedule"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "labor_market")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.file_path", "./data/jobs.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_threshold", "200ms")
	v.SetDefault("search.backend", "sql")
	v.SetDefault("search.default_limit", 10)
	v.SetDefault("search.max_limit", 100)
	v.SetDefault("search.query_timeout", "5s")
	v.SetDefault("elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("elasticsearch.index_jobs", "jobs")
	v.SetDefault("elasticsearch.reindex_on_start", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.prefix", "jobs")
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("cache.employer_ttl", "5m")
	v.SetDefault("views.driver", "direct")
	v.SetDefault("views.timeout", "2s")
	v.SetDefault("views.topic", "job.views")
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.group_id", "job-views")
	v.SetDefault("kafka.partitions", 4)
	v.SetDefault("expiry.enabled", true)
	v.SetDefault("expiry.schedule", "@every 1h")
	v.SetDefault("expiry.max_age", "720h")
	v.SetDefault("auth.issuer", "labor-market")
	v.SetDefault("log.level", "info")

	// Bind environment variables
	if err := pkgconfig.BindEnvs(v, map[string]string{
		"server.port":                    "PORT",
		"database.driver":                "DB_DRIVER",
		"database.host":                  "DB_HOST",
		"database.port":                  "DB_PORT",
		"database.user":                  "DB_USER",
		"database.password":              "DB_PASSWORD",
		"database.dbname":                "DB_NAME",
		"database.sslmode":               "DB_SSLMODE",
		"database.file_path":             "DB_FILE_PATH",
		"search.backend":                 "SEARCH_BACKEND",
		"elasticsearch.addresses":        "ES_ADDRESSES",
		"elasticsearch.index_jobs":       "ES_INDEX_JOBS",
		"elasticsearch.reindex_on_start": "ES_REINDEX_ON_START",
		"redis.address":                  "REDIS_ADDRESS",
		"redis.password":                 "REDIS_PASSWORD",
		"cache.enabled":                  "CACHE_ENABLED",
		"views.driver":                   "VIEWS_DRIVER",
		"kafka.brokers":                  "KAFKA_BROKERS",
		"auth.jwt_secret":                "JWT_SECRET",
		"log.level":                      "LOG_LEVEL",
	}); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
