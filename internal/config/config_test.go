package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Data.Dir != "./data" {
		t.Errorf("Data.Dir = %q, want %q", cfg.Data.Dir, "./data")
	}
	if cfg.Data.LoadTimeout != 30*time.Second {
		t.Errorf("Data.LoadTimeout = %v, want 30s", cfg.Data.LoadTimeout)
	}
	if cfg.Session.CacheSize != 128 {
		t.Errorf("Session.CacheSize = %d, want 128", cfg.Session.CacheSize)
	}
	if cfg.Dashboard.ChartWidth != 800 {
		t.Errorf("Dashboard.ChartWidth = %d, want 800", cfg.Dashboard.ChartWidth)
	}
	if got := cfg.Address(); got != "localhost:8501" {
		t.Errorf("Address() = %q, want %q", got, "localhost:8501")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/srv/olist")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SESSION_CACHE_SIZE", "4")
	t.Setenv("CHART_WIDTH_DEFAULT", "1000")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Data.Dir != "/srv/olist" {
		t.Errorf("Data.Dir = %q", cfg.Data.Dir)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Session.CacheSize != 4 {
		t.Errorf("Session.CacheSize = %d", cfg.Session.CacheSize)
	}
	if cfg.Dashboard.ChartWidth != 1000 {
		t.Errorf("Dashboard.ChartWidth = %d", cfg.Dashboard.ChartWidth)
	}
	if len(cfg.Security.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.Security.AllowedOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"zero session cache", "SESSION_CACHE_SIZE", "0"},
		{"chart width off step", "CHART_WIDTH_DEFAULT", "825"},
		{"chart width too wide", "CHART_WIDTH_DEFAULT", "1250"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s should fail", tt.key, tt.value)
			}
		})
	}
}

func TestDashboardConfig_ValidateWidth(t *testing.T) {
	d := DashboardConfig{MinChartWidth: 500, MaxChartWidth: 1200, WidthStep: 50}

	tests := []struct {
		width   int
		wantErr bool
	}{
		{500, false},
		{800, false},
		{1200, false},
		{450, true},
		{1250, true},
		{820, true},
	}

	for _, tt := range tests {
		if err := d.ValidateWidth(tt.width); (err != nil) != tt.wantErr {
			t.Errorf("ValidateWidth(%d) error = %v, wantErr %v", tt.width, err, tt.wantErr)
		}
	}
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("SESSION_CACHE_SIZE", "0")

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"server port", "log level", "session cache size"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestGetEnvStringSlice(t *testing.T) {
	t.Setenv("TEST_PROXIES", " 10.0.0.0/8, ,127.0.0.1 ")
	got := getEnvStringSlice("TEST_PROXIES", nil)
	if len(got) != 2 || got[0] != "10.0.0.0/8" || got[1] != "127.0.0.1" {
		t.Errorf("getEnvStringSlice() = %q", got)
	}

	t.Setenv("TEST_PROXIES", " , ")
	if got := getEnvStringSlice("TEST_PROXIES", []string{"127.0.0.1"}); len(got) != 1 {
		t.Errorf("blank list should fall back to the default, got %q", got)
	}
}

func TestGetEnvInt_Unparseable(t *testing.T) {
	t.Setenv("TEST_INT", "eight")
	if got := getEnvInt("TEST_INT", 8); got != 8 {
		t.Errorf("getEnvInt() = %d, want default 8", got)
	}
}
