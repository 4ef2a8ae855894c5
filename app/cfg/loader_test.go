package cfg

import (
	"os"
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_PATH", "SITES_DIR", "OUTPUT_DIR", "PORT", "WORKER_COUNT", "USER_AGENT", "RUN_ONCE", "FETCH_TIMEOUT", "PROBE_TIMEOUT", "TZ"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadArgs([]string{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.SitesDir != "./feeds" {
		t.Errorf("Expected sites dir './feeds', got '%s'", cfg.SitesDir)
	}
	if cfg.OutputDir != "./output" {
		t.Errorf("Expected output dir './output', got '%s'", cfg.OutputDir)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("Expected default user agent, got '%s'", cfg.UserAgent)
	}
	if cfg.FetchTimeout != 10 || cfg.ProbeTimeout != 5 {
		t.Errorf("Expected timeouts 10/5, got %d/%d", cfg.FetchTimeout, cfg.ProbeTimeout)
	}
	if cfg.Once {
		t.Error("Once mode should be off by default")
	}
	if Get() != cfg {
		t.Error("Get should return the loaded configuration")
	}
}

func TestLoadFlagsAndEnv(t *testing.T) {
	t.Setenv("WORKER_COUNT", "7")
	t.Setenv("USER_AGENT", "Test Agent")

	cfg, err := LoadArgs([]string{"--once", "--output-dir", "/tmp/out", "--port", "9090"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.WorkerCount != 7 {
		t.Errorf("Expected worker count 7, got %d", cfg.WorkerCount)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if !cfg.Once {
		t.Error("Expected once mode")
	}
	if cfg.OutputDir != "/tmp/out" || cfg.Port != "9090" {
		t.Errorf("Unexpected values: output %s, port %s", cfg.OutputDir, cfg.Port)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	if _, err := LoadArgs([]string{"--worker-count", "0"}); err == nil {
		t.Error("Expected error for zero workers")
	}
	if _, err := LoadArgs([]string{"--unknown-flag"}); err == nil {
		t.Error("Expected error for unknown flag")
	}
}
