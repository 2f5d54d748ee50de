package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is passed to envconfig; individual fields carry fully-qualified
// names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names reused by tests and tooling.
const (
	EnvAppEnv                 = "STROYCRM_APP_ENV"
	EnvPort                   = "STROYCRM_APP_PORT"
	EnvDBDSN                  = "STROYCRM_DB_DSN"
	EnvDBHost                 = "STROYCRM_DB_HOST"
	EnvDBUser                 = "STROYCRM_DB_USER"
	EnvDBName                 = "STROYCRM_DB_NAME"
	EnvRedisURL               = "STROYCRM_REDIS_URL"
	EnvJWTSecret              = "STROYCRM_JWT_SECRET"
	EnvJWTIssuer              = "STROYCRM_JWT_ISSUER"
	EnvJWTExpMins             = "STROYCRM_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "STROYCRM_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"STROYCRM_APP_ENV" required:"true"`
	Port         string `envconfig:"STROYCRM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STROYCRM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STROYCRM_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"STROYCRM_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	raw := strings.TrimSpace(a.CORSOrigins)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

type DBConfig struct {
	DSN    string `envconfig:"STROYCRM_DB_DSN"`
	Driver string `envconfig:"STROYCRM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STROYCRM_DB_HOST"`
	LegacyPort     int    `envconfig:"STROYCRM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STROYCRM_DB_USER"`
	LegacyPassword string `envconfig:"STROYCRM_DB_PASSWORD"`
	LegacyName     string `envconfig:"STROYCRM_DB_NAME"`
	LegacySSLMode  string `envconfig:"STROYCRM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STROYCRM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STROYCRM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STROYCRM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STROYCRM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STROYCRM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STROYCRM_REDIS_ADDR"`
	Password     string        `envconfig:"STROYCRM_REDIS_PASSWORD"`
	DB           int           `envconfig:"STROYCRM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STROYCRM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STROYCRM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STROYCRM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STROYCRM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STROYCRM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"STROYCRM_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"STROYCRM_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"STROYCRM_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"STROYCRM_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STROYCRM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STROYCRM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STROYCRM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STROYCRM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STROYCRM_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow       time.Duration `envconfig:"STROYCRM_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUserLimit    int           `envconfig:"STROYCRM_AUTH_RATE_LIMIT_LOGIN_USER_LIMIT" default:"5"`
	LoginIPLimit      int           `envconfig:"STROYCRM_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow    time.Duration `envconfig:"STROYCRM_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterUserLimit int           `envconfig:"STROYCRM_AUTH_RATE_LIMIT_REGISTER_USER_LIMIT" default:"3"`
	RegisterIPLimit   int           `envconfig:"STROYCRM_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STROYCRM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STROYCRM_AUTO_MIGRATE" default:"false"`
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
