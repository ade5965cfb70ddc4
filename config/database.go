package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"rentdesk"`
	Password string `env:"PASSWORD"                envDefault:"rentdesk"`
	Name     string `env:"NAME"                    envDefault:"rentdesk"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration. Sessions and auth events live in Redis.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
	// KeyPrefix namespaces session keys and event channels.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"rentdesk:"`
}

// CacheConfig controls the in-process profile cache in front of Postgres.
type CacheConfig struct {
	ProfileSize int           `env:"CACHE_PROFILE_SIZE" envDefault:"1024"`
	ProfileTTL  time.Duration `env:"CACHE_PROFILE_TTL"  envDefault:"30s"`
}

// Sanitize replaces unusable cache settings with defaults.
func (c *CacheConfig) Sanitize() {
	if c.ProfileSize <= 0 {
		c.ProfileSize = 1024
	}
	if c.ProfileTTL <= 0 {
		c.ProfileTTL = 30 * time.Second
	}
}
