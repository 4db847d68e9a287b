package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var testFiles = map[string]string{
	"populer_product.csv":   "product_category_name,Jumlah Pemesanan\ncama_mesa_banho,11115\nbeleza_saude,9670\n",
	"retensi_pembelian.csv": "order_id,order_purchase_timestamp\no1,2017-10-02 10:56:33\no2,2018-07-24 20:41:37\n",
	"cust_city.csv":         "geolocation_city,geolocation_lng,geolocation_lat,order_count\nsao paulo,-46.63,-23.55,15540\n",
}

func writeData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range testFiles {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_JSON(t *testing.T) {
	data := writeData(t)
	out := filepath.Join(t.TempDir(), "reports")

	filename, err := run(t.Context(), []string{
		"--data", data,
		"--output", out,
		"--start", "2018-01-01",
	}, discardLogger(), io.Discard)
	if err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(filename), "dashboard_") || filepath.Ext(filename) != ".json" {
		t.Errorf("unexpected file name %q", filename)
	}

	raw, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}

	var bundle map[string]any
	if err := json.Unmarshal(raw, &bundle); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	dailyRange := bundle["daily_range"].(map[string]any)
	if dailyRange["total"] != float64(1) {
		t.Errorf("expected 1 order from 2018-01-01, got %v", dailyRange["total"])
	}
	if dailyRange["end"] != "2018-07-24" {
		t.Errorf("expected range to end at the last order, got %v", dailyRange["end"])
	}

	// Tables without a file are reported, not fatal.
	errs := bundle["errors"].(map[string]any)
	if _, ok := errs["profit"]; !ok {
		t.Error("expected profit view to be recorded as failed")
	}
}

func TestRun_XLSX(t *testing.T) {
	out := t.TempDir()
	filename, err := run(t.Context(), []string{"--data", writeData(t), "--output", out, "--format", "XLSX"}, discardLogger(), io.Discard)
	if err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	if filepath.Ext(filename) != ".xlsx" {
		t.Errorf("expected .xlsx file, got %q", filename)
	}
	if _, err := os.Stat(filename); err != nil {
		t.Errorf("expected export file to exist: %v", err)
	}
}

func TestRun_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"--format", "csv"}},
		{"bad start", []string{"--start", "01/02/2018"}},
		{"bad end", []string{"--end", "tomorrow"}},
		{"unknown flag", []string{"--report", "rfm"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t.Context(), tt.args, discardLogger(), io.Discard); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
