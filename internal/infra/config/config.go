package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type AppConfig struct {
	App      AppSettings      `mapstructure:"app"`
	Postgres PostgresSettings `mapstructure:"postgres"`
	Redis    RedisSettings    `mapstructure:"redis"`
	Kafka    KafkaSettings    `mapstructure:"kafka"`
	JWT      JWTSettings      `mapstructure:"jwt"`
	Mail     MailSettings     `mapstructure:"mail"`
	TOTP     TOTPSettings     `mapstructure:"totp"`
	Argon2   Argon2Settings   `mapstructure:"argon2"`
	Password PasswordSettings `mapstructure:"password"`
}

type AppSettings struct {
	Name        string `mapstructure:"name"`
	Env         string `mapstructure:"env"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// IsProduction reports whether the service runs in the production environment.
func (a AppSettings) IsProduction() bool {
	return a.Env == EnvProduction
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	RunMigrations     bool          `mapstructure:"run_migrations"`
}

// RedisSettings configures Redis connection and TLS
type RedisSettings struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	DB               int    `mapstructure:"db"`
	Password         string `mapstructure:"password"`
	TLSEnabled       bool   `mapstructure:"tls_enabled"`
	TOTPReplayPrefix string `mapstructure:"totp_replay_prefix"`
}

// KafkaSettings configures Kafka producer
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

// JWTSettings configures token signing and the session cookie lifetime.
type JWTSettings struct {
	Secret          string        `mapstructure:"secret"`
	Issuer          string        `mapstructure:"issuer"`
	ExpiresIn       time.Duration `mapstructure:"expires_in"`
	CookieExpiresIn int           `mapstructure:"cookie_expires_in"`
}

// CookieTTL returns the session cookie lifetime.
func (j JWTSettings) CookieTTL() time.Duration {
	return time.Duration(j.CookieExpiresIn) * 24 * time.Hour
}

// MailSettings selects and configures the outbound email driver.
type MailSettings struct {
	Driver       string `mapstructure:"driver"`
	From         string `mapstructure:"from"`
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
}

// TOTPSettings configures two-factor provisioning.
type TOTPSettings struct {
	Issuer           string `mapstructure:"issuer"`
	ReplayProtection bool   `mapstructure:"replay_protection"`
}

// Argon2Settings configures Argon2id password hashing parameters
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

// PasswordSettings configures signup password rules.
type PasswordSettings struct {
	MinLength   int `mapstructure:"min_length"`
	MinStrength int `mapstructure:"min_strength"`
}

var (
	errMissingSecret = errors.New("config: jwt.secret is required")
	errInvalidTTL    = errors.New("config: token lifetimes must be positive")
)

// Validate rejects configurations the service cannot start with.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errMissingSecret
	}
	if c.JWT.ExpiresIn <= 0 || c.JWT.CookieExpiresIn <= 0 {
		return errInvalidTTL
	}
	switch c.Mail.Driver {
	case "log", "smtp":
	default:
		return fmt.Errorf("config: unknown mail driver %q", c.Mail.Driver)
	}
	return nil
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("AUTH")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.frontend_url",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"postgres.run_migrations",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.totp_replay_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"jwt.secret",
		"jwt.issuer",
		"jwt.expires_in",
		"jwt.cookie_expires_in",
		"mail.driver",
		"mail.from",
		"mail.smtp_host",
		"mail.smtp_port",
		"mail.smtp_username",
		"mail.smtp_password",
		"totp.issuer",
		"totp.replay_protection",
		"argon2.memory",
		"argon2.iterations",
		"argon2.parallelism",
		"argon2.salt_length",
		"argon2.key_length",
		"password.min_length",
		"password.min_strength",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "account-auth")
	v.SetDefault("app.env", EnvDevelopment)
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.frontend_url", "http://localhost:3000")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "auth")
	v.SetDefault("postgres.password", "auth_password")
	v.SetDefault("postgres.database", "auth")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")
	v.SetDefault("postgres.run_migrations", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.totp_replay_prefix", "auth:totp_used")

	// Empty broker list selects the logging stub publisher.
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "auth")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "account-auth")
	v.SetDefault("jwt.expires_in", "2160h")
	v.SetDefault("jwt.cookie_expires_in", 90)

	v.SetDefault("mail.driver", "log")
	v.SetDefault("mail.from", "no-reply@localhost")
	v.SetDefault("mail.smtp_host", "localhost")
	v.SetDefault("mail.smtp_port", 587)

	v.SetDefault("totp.issuer", "account-auth")
	v.SetDefault("totp.replay_protection", false)

	v.SetDefault("argon2.memory", 65536) // 64 MB
	v.SetDefault("argon2.iterations", 3)
	v.SetDefault("argon2.parallelism", 4)
	v.SetDefault("argon2.salt_length", 16)
	v.SetDefault("argon2.key_length", 32)

	v.SetDefault("password.min_length", 8)
	v.SetDefault("password.min_strength", 0)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "AUTH_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
