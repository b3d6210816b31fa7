package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Search    SearchConfig
	Auth      AuthConfig
	Retention RetentionConfig
	Syslog    SyslogConfig
	Notify    NotifyConfig
	RateLimit RateLimitConfig
	TLS       TLSConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit. Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int

	// Stream is the log event stream name; CheckpointKey stores the consumer cursor.
	Stream        string
	CheckpointKey string
}

type SearchConfig struct {
	URL string
	// IndexPrefix names the daily partitions: <prefix>-YYYY-MM-DD.
	IndexPrefix string
}

type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
	// TokenTTL is the credential lifetime. Default 8h.
	TokenTTL time.Duration
}

type RetentionConfig struct {
	// Days is the retention horizon; partitions strictly older than
	// now minus Days are deleted by the sweeper.
	Days int
}

type SyslogConfig struct {
	Enabled bool
	UDPPort int
	TCPPort int
	// DefaultTenant owns events arriving over raw syslog (no credential on that path).
	DefaultTenant string
}

type NotifyConfig struct {
	// WebhookURL is optional; empty disables the webhook channel.
	WebhookURL string
	// SMTP settings are optional; empty host disables the email channel.
	SMTPHost string
	SMTPPort int
}

type RateLimitConfig struct {
	// Max requests per client IP per Window.
	Max    int
	Window time.Duration
}

type TLSConfig struct {
	Enabled  bool
	CertPath string
	KeyPath  string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}
	c.Redis.Stream = envDefault("QUEUE_STREAM", "soc-log-stream")
	c.Redis.CheckpointKey = envDefault("QUEUE_CHECKPOINT_KEY", "soc-log-stream:checkpoint")

	c.Search.URL = strings.TrimSpace(os.Getenv("OPENSEARCH_URL"))
	c.Search.IndexPrefix = envDefault("OPENSEARCH_INDEX", "soc-logs")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = envDefault("JWT_ISSUER", "soc-platform")
	c.Auth.TokenTTL = durationDefault("JWT_TOKEN_TTL", 8*time.Hour)

	c.Retention.Days = intDefault("RETENTION_DAYS", 30)

	c.Syslog.Enabled = boolEnv("SYSLOG_ENABLED")
	c.Syslog.UDPPort = intDefault("SYSLOG_UDP_PORT", 5514)
	c.Syslog.TCPPort = intDefault("SYSLOG_TCP_PORT", 5514)
	c.Syslog.DefaultTenant = envDefault("SYSLOG_DEFAULT_TENANT", "default")

	c.Notify.WebhookURL = strings.TrimSpace(os.Getenv("NOTIFY_WEBHOOK_URL"))
	c.Notify.SMTPHost = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	c.Notify.SMTPPort = intDefault("SMTP_PORT", 25)

	c.RateLimit.Max = intDefault("RATE_LIMIT_MAX", 300)
	c.RateLimit.Window = durationDefault("RATE_LIMIT_WINDOW", time.Minute)

	c.TLS.Enabled = boolEnv("HTTPS_ENABLED")
	c.TLS.CertPath = envDefault("HTTPS_CERT_PATH", "./certs/cert.pem")
	c.TLS.KeyPath = envDefault("HTTPS_KEY_PATH", "./certs/key.pem")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Search.URL == "" {
		errs = append(errs, errors.New("OPENSEARCH_URL is required"))
	}
	if c.Search.IndexPrefix == "" {
		errs = append(errs, errors.New("OPENSEARCH_INDEX must not be empty"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 8 * time.Hour
	}

	if c.Retention.Days <= 0 {
		errs = append(errs, fmt.Errorf("RETENTION_DAYS must be positive, got %d", c.Retention.Days))
	}

	if c.Syslog.Enabled {
		if c.Syslog.UDPPort <= 0 || c.Syslog.UDPPort > 65535 {
			errs = append(errs, fmt.Errorf("SYSLOG_UDP_PORT must be a valid port, got %d", c.Syslog.UDPPort))
		}
		if c.Syslog.TCPPort <= 0 || c.Syslog.TCPPort > 65535 {
			errs = append(errs, fmt.Errorf("SYSLOG_TCP_PORT must be a valid port, got %d", c.Syslog.TCPPort))
		}
		if c.Syslog.DefaultTenant == "" {
			errs = append(errs, errors.New("SYSLOG_DEFAULT_TENANT must not be empty"))
		}
	}

	if c.RateLimit.Max <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimit.Max))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}

	if c.TLS.Enabled && (c.TLS.CertPath == "" || c.TLS.KeyPath == "") {
		errs = append(errs, errors.New("HTTPS_CERT_PATH and HTTPS_KEY_PATH are required when HTTPS_ENABLED"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func intDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func boolEnv(key string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), "true")
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
