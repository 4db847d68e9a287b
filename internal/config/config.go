package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Logger    LoggerConfig
	Security  SecurityConfig
	Session   SessionConfig
	Dashboard DashboardConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DataConfig struct {
	Dir         string
	LoadTimeout time.Duration
}

type SessionConfig struct {
	CacheSize  int
	CookieName string
}

// DashboardConfig bounds the chart display width control.
type DashboardConfig struct {
	ChartWidth    int
	MinChartWidth int
	MaxChartWidth int
	WidthStep     int
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string

	// RateLimitClients bounds how many client IPs keep a limiter.
	RateLimitClients int
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8501),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Data: DataConfig{
			Dir:         getEnvString("DATA_DIR", "./data"),
			LoadTimeout: getEnvDuration("DATA_LOAD_TIMEOUT", 30*time.Second),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit:  getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:     getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:   getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			RateLimitClients: getEnvInt("SECURITY_RATE_LIMIT_CLIENTS", 4096),
			AllowedOrigins:   getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8501"}),
			TrustedProxies:   getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
		Session: SessionConfig{
			CacheSize:  getEnvInt("SESSION_CACHE_SIZE", 128),
			CookieName: getEnvString("SESSION_COOKIE_NAME", "dashboard_session"),
		},
		Dashboard: DashboardConfig{
			ChartWidth:    getEnvInt("CHART_WIDTH_DEFAULT", 800),
			MinChartWidth: 500,
			MaxChartWidth: 1200,
			WidthStep:     50,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "text"}
)

// validate reports every invalid setting at once.
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port >= 1 && c.Server.Port <= 65535, "server port must be between 1 and 65535, got %d", c.Server.Port)
	check(c.Server.ReadTimeout > 0, "server read timeout must be positive")
	check(c.Server.WriteTimeout > 0, "server write timeout must be positive")

	check(c.Data.Dir != "", "data directory cannot be empty")
	check(c.Data.LoadTimeout > 0, "data load timeout must be positive")

	check(slices.Contains(validLogLevels, c.Logger.Level),
		"invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	check(slices.Contains(validLogFormats, c.Logger.Format),
		"invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))

	check(c.Security.RateLimitRPS > 0, "rate limit RPS must be positive")
	check(c.Security.RateLimitBurst > 0, "rate limit burst must be positive")
	check(c.Security.RateLimitClients > 0, "rate limit client cache size must be positive")

	check(c.Session.CacheSize > 0, "session cache size must be positive")
	check(c.Session.CookieName != "", "session cookie name cannot be empty")

	if err := c.Dashboard.ValidateWidth(c.Dashboard.ChartWidth); err != nil {
		errs = append(errs, fmt.Errorf("default chart width: %w", err))
	}

	return errors.Join(errs...)
}

// getEnv parses key with parse, falling back to defaultValue when the variable
// is unset or does not parse.
func getEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	parsed, err := parse(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvString(key, defaultValue string) string {
	return getEnv(key, defaultValue, func(s string) (string, error) { return s, nil })
}

func getEnvInt(key string, defaultValue int) int {
	return getEnv(key, defaultValue, strconv.Atoi)
}

func getEnvBool(key string, defaultValue bool) bool {
	return getEnv(key, defaultValue, strconv.ParseBool)
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return getEnv(key, defaultValue, time.ParseDuration)
}

// getEnvStringSlice splits a comma separated list, dropping blank entries.
func getEnvStringSlice(key string, defaultValue []string) []string {
	return getEnv(key, defaultValue, func(s string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) == 0 {
			return nil, errors.New("empty list")
		}
		return out, nil
	})
}

// ValidateWidth accepts widths inside the slider range on a step boundary.
func (d DashboardConfig) ValidateWidth(width int) error {
	if width < d.MinChartWidth || width > d.MaxChartWidth {
		return fmt.Errorf("chart width must be between %d and %d, got %d", d.MinChartWidth, d.MaxChartWidth, width)
	}
	if d.WidthStep > 0 && (width-d.MinChartWidth)%d.WidthStep != 0 {
		return fmt.Errorf("chart width must be a multiple of %d from %d, got %d", d.WidthStep, d.MinChartWidth, width)
	}
	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
