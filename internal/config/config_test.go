package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, `database:
  url: "postgres://localhost/oqapi"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != DefaultListenAddr {
		t.Errorf("listen_addr: got %q, want %q", cfg.Server.ListenAddr, DefaultListenAddr)
	}
	if cfg.Ohsome.API != DefaultOhsomeAPI {
		t.Errorf("ohsome.api: got %q, want %q", cfg.Ohsome.API, DefaultOhsomeAPI)
	}
	if cfg.Ohsome.Timeout != DefaultOhsomeTimeout {
		t.Errorf("ohsome.timeout: got %v, want %v", cfg.Ohsome.Timeout, DefaultOhsomeTimeout)
	}
	if cfg.GeomSizeLimitSqkm != DefaultGeomSizeLimitSqkm {
		t.Errorf("geom_size_limit_sqkm: got %g, want %g", cfg.GeomSizeLimitSqkm, DefaultGeomSizeLimitSqkm)
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `server:
  listen_addr: ":9000"
database:
  url: "postgres://localhost/oqapi"
ohsome:
  api: "https://example.org/v1"
  user_agent: "my-agent"
  timeout: 2m
geom_size_limit_sqkm: 250
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":9000" {
		t.Errorf("listen_addr: got %q", cfg.Server.ListenAddr)
	}
	if cfg.Ohsome.Timeout != 2*time.Minute {
		t.Errorf("ohsome.timeout: got %v", cfg.Ohsome.Timeout)
	}
	if cfg.GeomSizeLimitSqkm != 250 {
		t.Errorf("geom_size_limit_sqkm: got %g", cfg.GeomSizeLimitSqkm)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	p := writeConfig(t, `database:
  url: "postgres://file/db"
geom_size_limit_sqkm: 100
`)
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("GEOM_SIZE_LIMIT_SQKM", "42.5")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.URL != "postgres://env/db" {
		t.Errorf("database.url: got %q, want the env value", cfg.Database.URL)
	}
	if cfg.GeomSizeLimitSqkm != 42.5 {
		t.Errorf("geom_size_limit_sqkm: got %g, want 42.5", cfg.GeomSizeLimitSqkm)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing database url", `server:
  listen_addr: ":8080"
`},
		{"non-positive size limit", `database:
  url: "postgres://localhost/oqapi"
geom_size_limit_sqkm: -5
`},
		{"non-positive timeout", `database:
  url: "postgres://localhost/oqapi"
ohsome:
  timeout: -1s
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			if _, err := Load(writeConfig(t, tc.content)); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
