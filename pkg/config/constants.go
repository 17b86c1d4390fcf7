package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// BOOKSTORE_ tags so the prefix is only a fallback for untagged fields.
const EnvPrefix = "BOOKSTORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv     = "BOOKSTORE_APP_ENV"
	EnvPort       = "BOOKSTORE_APP_PORT"
	EnvDBDSN      = "BOOKSTORE_DB_DSN"
	EnvDBHost     = "BOOKSTORE_DB_HOST"
	EnvDBUser     = "BOOKSTORE_DB_USER"
	EnvDBName     = "BOOKSTORE_DB_NAME"
	EnvRedisURL   = "BOOKSTORE_REDIS_URL"
	EnvJWTSecret  = "BOOKSTORE_JWT_SECRET"
	EnvJWTIssuer  = "BOOKSTORE_JWT_ISSUER"
	EnvJWTExpMins = "BOOKSTORE_JWT_EXPIRATION_MINUTES"
)
