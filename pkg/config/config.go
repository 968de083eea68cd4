package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Humanitix    HumanitixConfig
	Eventbrite   EventbriteConfig
	Sync         SyncConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = "file:ticketsync.db?cache=shared"
		}
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TICKETSYNC_APP_ENV" required:"true"`
	Port         string `envconfig:"TICKETSYNC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TICKETSYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TICKETSYNC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TICKETSYNC_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TICKETSYNC_DB_DSN"`
	Driver string `envconfig:"TICKETSYNC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TICKETSYNC_DB_HOST"`
	LegacyPort     int    `envconfig:"TICKETSYNC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TICKETSYNC_DB_USER"`
	LegacyPassword string `envconfig:"TICKETSYNC_DB_PASSWORD"`
	LegacyName     string `envconfig:"TICKETSYNC_DB_NAME"`
	LegacySSLMode  string `envconfig:"TICKETSYNC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TICKETSYNC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TICKETSYNC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TICKETSYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TICKETSYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TICKETSYNC_REDIS_URL"`
	Address      string        `envconfig:"TICKETSYNC_REDIS_ADDR"`
	Password     string        `envconfig:"TICKETSYNC_REDIS_PASSWORD"`
	DB           int           `envconfig:"TICKETSYNC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TICKETSYNC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TICKETSYNC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TICKETSYNC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TICKETSYNC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TICKETSYNC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// HumanitixConfig carries credentials for the Humanitix API and webhook.
// The webhook secret is optional: when empty, signature verification is
// skipped and the skip is logged.
type HumanitixConfig struct {
	APIKey        string `envconfig:"TICKETSYNC_HUMANITIX_API_KEY"`
	BaseURL       string `envconfig:"TICKETSYNC_HUMANITIX_BASE_URL" default:"https://api.humanitix.com/v1"`
	WebhookSecret string `envconfig:"TICKETSYNC_HUMANITIX_WEBHOOK_SECRET"`
}

// EventbriteConfig carries credentials for the Eventbrite API and webhook.
type EventbriteConfig struct {
	APIToken       string `envconfig:"TICKETSYNC_EVENTBRITE_API_TOKEN"`
	BaseURL        string `envconfig:"TICKETSYNC_EVENTBRITE_BASE_URL" default:"https://www.eventbriteapi.com/v3"`
	OrganizationID string `envconfig:"TICKETSYNC_EVENTBRITE_ORGANIZATION_ID"`
	WebhookSecret  string `envconfig:"TICKETSYNC_EVENTBRITE_WEBHOOK_SECRET"`
	WebhookURL     string `envconfig:"TICKETSYNC_EVENTBRITE_WEBHOOK_URL"`
}

type SyncConfig struct {
	FreshnessWindow time.Duration `envconfig:"TICKETSYNC_SYNC_FRESHNESS_WINDOW" default:"24h"`
	Interval        time.Duration `envconfig:"TICKETSYNC_SYNC_INTERVAL" default:"15m"`
	BatchSize       int           `envconfig:"TICKETSYNC_SYNC_BATCH_SIZE" default:"50"`
	RateDelay       time.Duration `envconfig:"TICKETSYNC_SYNC_RATE_DELAY" default:"500ms"`
	LockTTL         time.Duration `envconfig:"TICKETSYNC_SYNC_LOCK_TTL" default:"30m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TICKETSYNC_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TICKETSYNC_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
