package utils

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite3"
)

type Config struct {
	ServerPort     string
	AppTitle       string
	AllowedOrigins []string
	Session        SessionConfig
	Database       DatabaseConfig
	LLM            LLMConfig
	Logging        LoggingConfig
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	TrustedConn     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
	QueryTimeout    time.Duration
	MaxRows         int
	SampleRows      int
	IncludeTables   []string
}

type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type LoggingConfig struct {
	Level        string
	Encoding     string
	Development  bool
	EnableCaller bool
	ServiceName  string
}

func LoadConfig() (*Config, error) {
	driver := strings.ToLower(envOrDefault("DB_DRIVER", DriverSQLServer))

	apiKey := strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	}

	cfg := &Config{
		ServerPort:     envOrDefault("PORT", "8080"),
		AppTitle:       envOrDefault("APP_TITLE", "Professional Secure AI Database Analyzer"),
		AllowedOrigins: parseList(envOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		Session: SessionConfig{
			Secret: envOrDefault("SESSION_SECRET", "dev-secret"),
			TTL:    parseDuration(envOrDefault("SESSION_TTL", "12h"), 12*time.Hour),
		},
		Database: DatabaseConfig{
			Driver:          driver,
			DSN:             os.Getenv("DB_DSN"),
			Host:            envOrDefault("DB_HOST", "localhost"),
			Port:            parseInt(envOrDefault("DB_PORT", strconv.Itoa(defaultPort(driver))), defaultPort(driver)),
			Name:            envOrDefault("DB_NAME", "Employee"),
			User:            os.Getenv("DB_USER"),
			Password:        os.Getenv("DB_PASSWORD"),
			TrustedConn:     parseBool(envOrDefault("DB_TRUSTED_CONNECTION", "true"), true),
			MaxOpenConns:    parseInt(envOrDefault("DB_MAX_OPEN_CONNS", "8"), 8),
			MaxIdleConns:    parseInt(envOrDefault("DB_MAX_IDLE_CONNS", "2"), 2),
			ConnMaxLifetime: parseDuration(envOrDefault("DB_CONN_MAX_LIFETIME", "30m"), 30*time.Minute),
			ConnectTimeout:  parseDuration(envOrDefault("DB_CONNECT_TIMEOUT", "5s"), 5*time.Second),
			QueryTimeout:    parseDuration(envOrDefault("DB_QUERY_TIMEOUT", "30s"), 30*time.Second),
			MaxRows:         parseInt(envOrDefault("DB_MAX_ROWS", "1000"), 1000),
			SampleRows:      parseInt(envOrDefault("DB_SAMPLE_ROWS", "3"), 3),
			IncludeTables:   parseList(os.Getenv("DB_INCLUDE_TABLES")),
		},
		LLM: LLMConfig{
			BaseURL:     strings.TrimRight(envOrDefault("LLM_BASE_URL", "https://api.groq.com/openai/v1"), "/"),
			APIKey:      apiKey,
			Model:       envOrDefault("LLM_MODEL", "llama-3.3-70b-versatile"),
			Temperature: parseFloat(envOrDefault("LLM_TEMPERATURE", "0"), 0),
			MaxTokens:   parseInt(envOrDefault("LLM_MAX_TOKENS", "1024"), 1024),
			Timeout:     parseDuration(envOrDefault("LLM_TIMEOUT", "30s"), 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:        strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
			Encoding:     strings.ToLower(envOrDefault("LOG_ENCODING", "console")),
			Development:  parseBool(envOrDefault("LOG_DEVELOPMENT", "false"), false),
			EnableCaller: parseBool(envOrDefault("LOG_CALLER", "false"), false),
			ServiceName:  envOrDefault("SERVICE_NAME", "sqlassist"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLServer, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.Database.MaxRows <= 0 {
		return fmt.Errorf("config: DB_MAX_ROWS must be positive")
	}
	if c.Database.SampleRows < 0 {
		return fmt.Errorf("config: DB_SAMPLE_ROWS must not be negative")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("config: LLM_TEMPERATURE must be between 0 and 2")
	}

	return nil
}

// BuildDSN returns DSN verbatim when set, otherwise composes one for the driver.
func (c DatabaseConfig) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}

	switch c.Driver {
	case DriverPostgres:
		u := &url.URL{
			Scheme: "postgres",
			Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
			Path:   "/" + c.Name,
		}
		if c.User != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}
		return u.String()
	case DriverSQLite:
		return c.Name
	}

	query := url.Values{}
	query.Set("database", c.Name)
	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		RawQuery: query.Encode(),
	}
	if c.TrustedConn && c.User == "" {
		// no credentials makes the driver use integrated (SSPI/Kerberos) auth
		return u.String()
	}
	u.User = url.UserPassword(c.User, c.Password)
	return u.String()
}

func defaultPort(driver string) int {
	switch driver {
	case DriverPostgres:
		return 5432
	case DriverSQLite:
		return 0
	}
	return 1433
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(value string, fallback int) int {
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return i
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(value string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}

func parseList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})

	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	return cleaned
}
