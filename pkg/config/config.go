package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Checkout CheckoutConfig
	Migrate  MigrateConfig
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

const (
	EnvPrefix  = "VIETCART"
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type AppConfig struct {
	Env          string `envconfig:"VIETCART_APP_ENV" required:"true"`
	Port         string `envconfig:"VIETCART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"VIETCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VIETCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VIETCART_DB_DSN"`
	Driver string `envconfig:"VIETCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VIETCART_DB_HOST"`
	LegacyPort     int    `envconfig:"VIETCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VIETCART_DB_USER"`
	LegacyPassword string `envconfig:"VIETCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"VIETCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"VIETCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VIETCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VIETCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VIETCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VIETCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN builds a DSN from the discrete host/user fields when none is provided.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either VIETCART_DB_DSN or VIETCART_DB_HOST/USER/NAME must be set")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.LegacyUser, d.LegacyPassword),
		Host:   fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:   d.LegacyName,
	}
	q := u.Query()
	q.Set("sslmode", d.LegacySSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"VIETCART_REDIS_URL" required:"true"`
	Password     string        `envconfig:"VIETCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"VIETCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VIETCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VIETCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VIETCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VIETCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VIETCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"VIETCART_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"VIETCART_JWT_ISSUER" required:"true"`
}

type CheckoutConfig struct {
	// DraftTTL bounds how long an idle checkout draft is kept in memory.
	DraftTTL time.Duration `envconfig:"VIETCART_CHECKOUT_DRAFT_TTL" default:"30m"`
	// MergeGuardTTL bounds the once-per-login cart merge debounce window.
	MergeGuardTTL time.Duration `envconfig:"VIETCART_CART_MERGE_GUARD_TTL" default:"12h"`
	// LocalCartTTL bounds how long a guest device cart survives untouched.
	LocalCartTTL time.Duration `envconfig:"VIETCART_LOCAL_CART_TTL" default:"720h"`
}

type MigrateConfig struct {
	AutoRun bool   `envconfig:"VIETCART_MIGRATE_AUTORUN" default:"false"`
	Dir     string `envconfig:"VIETCART_MIGRATE_DIR" default:"pkg/migrate/migrations"`
}
