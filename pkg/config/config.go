package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full environment for any bookstore binary. One struct
// serves the API, the worker, and the outbox publisher; each binary reads
// the sections it needs.
type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Cart          CartConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"BOOKSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"BOOKSTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BOOKSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOOKSTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BOOKSTORE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BOOKSTORE_DB_DSN"`
	Driver string `envconfig:"BOOKSTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BOOKSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"BOOKSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOOKSTORE_DB_USER"`
	LegacyPassword string `envconfig:"BOOKSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOOKSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOOKSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOOKSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOOKSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOOKSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOOKSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOOKSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BOOKSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"BOOKSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOOKSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOOKSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOOKSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOOKSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOOKSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOOKSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BOOKSTORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BOOKSTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"BOOKSTORE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"BOOKSTORE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BOOKSTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BOOKSTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BOOKSTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BOOKSTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BOOKSTORE_ARGON_KEY_LEN" default:"32"`
}

type CartConfig struct {
	SnapshotTTL     time.Duration `envconfig:"BOOKSTORE_CART_SNAPSHOT_TTL" default:"720h"`
	CheckoutLockTTL time.Duration `envconfig:"BOOKSTORE_CART_CHECKOUT_LOCK_TTL" default:"30s"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"BOOKSTORE_AUTH_RL_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"BOOKSTORE_AUTH_RL_LOGIN_IP_LIMIT" default:"10"`
	LoginEmailLimit    int           `envconfig:"BOOKSTORE_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"BOOKSTORE_AUTH_RL_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"BOOKSTORE_AUTH_RL_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"BOOKSTORE_AUTH_RL_REGISTER_EMAIL_LIMIT" default:"3"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BOOKSTORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BOOKSTORE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BOOKSTORE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BOOKSTORE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BOOKSTORE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"BOOKSTORE_PUBSUB_ORDERS_TOPIC" default:"bookstore-order-events"`
	OrdersSubscription string `envconfig:"BOOKSTORE_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BOOKSTORE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BOOKSTORE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BOOKSTORE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// ensureDSN fills DB.DSN from the discrete BOOKSTORE_DB_* variables when
// no full DSN was provided. Deployments that moved to BOOKSTORE_DB_DSN
// never hit the legacy path.
func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	var missing []string
	for _, v := range []struct {
		env   string
		value string
	}{
		{EnvDBHost, db.LegacyHost},
		{EnvDBUser, db.LegacyUser},
		{EnvDBName, db.LegacyName},
	} {
		if v.value == "" {
			missing = append(missing, v.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	db.DSN = db.legacyDSN()
	return nil
}

func (db *DBConfig) legacyDSN() string {
	user := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		user = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   net.JoinHostPort(db.LegacyHost, strconv.Itoa(db.LegacyPort)),
		Path:   db.LegacyName,
	}
	if db.LegacySSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": []string{db.LegacySSLMode}}.Encode()
	}
	return dsn.String()
}
