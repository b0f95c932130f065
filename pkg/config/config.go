package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
	Notifications NotificationsConfig
	Listings      ListingsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOOKTRADE_APP_ENV" required:"true"`
	Port         string `envconfig:"BOOKTRADE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BOOKTRADE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOOKTRADE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BOOKTRADE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BOOKTRADE_DB_DSN"`
	Driver string `envconfig:"BOOKTRADE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BOOKTRADE_DB_HOST"`
	LegacyPort     int    `envconfig:"BOOKTRADE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOOKTRADE_DB_USER"`
	LegacyPassword string `envconfig:"BOOKTRADE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOOKTRADE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOOKTRADE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOOKTRADE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOOKTRADE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOOKTRADE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOOKTRADE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOOKTRADE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BOOKTRADE_REDIS_ADDR"`
	Password     string        `envconfig:"BOOKTRADE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOOKTRADE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOOKTRADE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOOKTRADE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOOKTRADE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOOKTRADE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOOKTRADE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                  string `envconfig:"BOOKTRADE_JWT_SECRET" required:"true"`
	Issuer                  string `envconfig:"BOOKTRADE_JWT_ISSUER" required:"true"`
	ExpirationMinutes       int    `envconfig:"BOOKTRADE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes  int    `envconfig:"BOOKTRADE_JWT_REFRESH_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token lifetime as a duration.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BOOKTRADE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BOOKTRADE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BOOKTRADE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BOOKTRADE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BOOKTRADE_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BOOKTRADE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BOOKTRADE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BOOKTRADE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"BOOKTRADE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BOOKTRADE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"BOOKTRADE_PUBSUB_DOMAIN_TOPIC" default:"bt-domain-events"`
	DomainSubscription string `envconfig:"BOOKTRADE_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"BOOKTRADE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"BOOKTRADE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"BOOKTRADE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"BOOKTRADE_OUTBOX_IDEMPOTENCY_TTL" default:"24h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"BOOKTRADE_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"BOOKTRADE_CRON_LOCK_TTL" default:"65m"`
}

type NotificationsConfig struct {
	Retention time.Duration `envconfig:"BOOKTRADE_NOTIFICATION_RETENTION" default:"720h"`
}

type ListingsConfig struct {
	DefaultTTL time.Duration `envconfig:"BOOKTRADE_LISTING_DEFAULT_TTL" default:"1440h"`
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
