package exitpass

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EP_TEST_DEPLOYMENT", "AKfycbx123")
	path := writeFile(t, dir, "exitpass.toml", `
[app]
name = "Plant 4 Gate"
verify_url = "https://passes.example.com/verify"

[endpoint]
url = "https://script.google.com/macros/s/${EP_TEST_DEPLOYMENT}/exec"

[session]
timeout_minutes = 30
backend = "sqlite"
sqlite_path = "/tmp/exitpass-test.db"

[logging]
level = "debug"
format = "json"
`)

	cfg, err := LoadConfig(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Endpoint.URL != "https://script.google.com/macros/s/AKfycbx123/exec" {
		t.Fatalf("expected expanded endpoint, got %q", cfg.Endpoint.URL)
	}
	if cfg.App.Name != "Plant 4 Gate" || cfg.Session.TimeoutMinutes != 30 || cfg.Session.Backend != BackendSQLite {
		t.Fatalf("unexpected config %+v", cfg)
	}
	// untouched keys keep their defaults
	if cfg.Session.Key != "ep_session" || cfg.App.PassPrefix != "EP" {
		t.Fatalf("expected defaults preserved, got %+v", cfg)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "exitpass.toml", `
[endpoint]
url = "https://file.example.com/exec"

[session]
timeout_minutes = 30
`)
	t.Setenv("EXITPASS_API_URL", "https://env.example.com/exec")
	t.Setenv("EXITPASS_SESSION_TIMEOUT_MINS", "0")

	cfg, err := LoadConfig(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Endpoint.URL != "https://env.example.com/exec" {
		t.Fatalf("expected env endpoint, got %q", cfg.Endpoint.URL)
	}
	if cfg.Session.TimeoutMinutes != 0 {
		t.Fatalf("expected timeout disabled by env, got %d", cfg.Session.TimeoutMinutes)
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "EXITPASS_API_URL=https://dotenv.example.com/exec\nEXITPASS_SESSION_BACKEND=memory\n")
	t.Cleanup(func() {
		os.Unsetenv("EXITPASS_API_URL")
		os.Unsetenv("EXITPASS_SESSION_BACKEND")
	})

	cfg, err := LoadConfig("", envFile)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Endpoint.URL != "https://dotenv.example.com/exec" || cfg.Session.Backend != BackendMemory {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.env")

	if _, err := LoadConfig(filepath.Join(dir, "nope.toml"), missing); err == nil {
		t.Fatal("expected error for missing config file")
	}

	bad := writeFile(t, dir, "bad.toml", "[endpoint\nurl=")
	if _, err := LoadConfig(bad, missing); err == nil {
		t.Fatal("expected parse error")
	}

	noEndpoint := writeFile(t, dir, "empty.toml", "[app]\nname = \"x\"\n")
	if _, err := LoadConfig(noEndpoint, missing); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	t.Setenv("EXITPASS_API_URL", "https://env.example.com/exec")
	t.Setenv("EXITPASS_SESSION_TIMEOUT_MINS", "soon")
	if _, err := LoadConfig("", missing); err == nil {
		t.Fatal("expected error for non-numeric timeout")
	}
}
