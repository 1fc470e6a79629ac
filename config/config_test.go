package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"JWT_SECRET", "JWT_PREVIOUS_SECRETS", "JWT_ACCESS_TTL", "JWT_REFRESH_TTL", "APP_PORT", "DB_DRIVER", "DB_PORT", "PAGE_SIZE", "CACHE_ENABLED"} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AppPort != "8000" {
		t.Errorf("AppPort = %q, want 8000", cfg.AppPort)
	}
	if cfg.AccessTokenTTL != 5*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want 5m", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 24*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want 24h", cfg.RefreshTokenTTL)
	}
	if cfg.PageSize != 10 || cfg.MaxPageSize != 100 {
		t.Errorf("page sizes = %d/%d, want 10/100", cfg.PageSize, cfg.MaxPageSize)
	}
	if cfg.CacheEnabled {
		t.Error("cache should be disabled by default")
	}
}

func TestLoad_DBPortFollowsDriver(t *testing.T) {
	tests := []struct {
		driver string
		port   string
		want   string
	}{
		{driver: "", want: "3306"},
		{driver: "mysql", want: "3306"},
		{driver: "postgres", want: "5432"},
		{driver: "postgres", port: "6543", want: "6543"},
	}
	for _, tt := range tests {
		t.Run(tt.driver+"/"+tt.port, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "env-secret")
			t.Setenv("DB_DRIVER", tt.driver)
			t.Setenv("DB_PORT", tt.port)

			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.DBPort != tt.want {
				t.Errorf("DBPort = %q, want %q", cfg.DBPort, tt.want)
			}
		})
	}
}

func TestLoad_RequiresSecret(t *testing.T) {
	clearEnv(t)

	if _, err := Load(""); err == nil {
		t.Fatal("Load() should fail without JWT secret")
	}
}

func TestLoad_YAMLFileAndEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("app_port: \"9000\"\njwt_secret: file-secret\njwt_previous_secrets:\n  - old-one\naccess_token_ttl: 10m\ndb_driver: sqlite\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APP_PORT", "9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AppPort != "9100" {
		t.Errorf("AppPort = %q, want env override 9100", cfg.AppPort)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want sqlite", cfg.DBDriver)
	}
	tc := cfg.TokenConfig()
	if tc.Secret != "file-secret" {
		t.Errorf("Secret = %q, want file-secret", tc.Secret)
	}
	if len(tc.PreviousSecrets) != 1 || tc.PreviousSecrets[0] != "old-one" {
		t.Errorf("PreviousSecrets = %v", tc.PreviousSecrets)
	}
	if tc.AccessTTL != 10*time.Minute {
		t.Errorf("AccessTTL = %v, want 10m", tc.AccessTTL)
	}
}

func TestLoad_JSONFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"jwt_secret":"json-secret","page_size":25}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PageSize != 25 {
		t.Errorf("PageSize = %d, want 25", cfg.PageSize)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		content string
	}{
		{name: "malformed json", file: "config.json", content: "{not json"},
		{name: "bad ttl", file: "config.json", content: `{"jwt_secret":"s"}`, env: map[string]string{"JWT_ACCESS_TTL": "soon"}},
		{name: "bad integer env", file: "config.json", content: `{"jwt_secret":"s"}`, env: map[string]string{"PAGE_SIZE": "ten"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() expected error")
			}
		})
	}
}

func TestSqliteDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "app.db", want: "app.db?_foreign_keys=on"},
		{in: "file:app.db?cache=shared", want: "file:app.db?cache=shared&_foreign_keys=on"},
		{in: "app.db?_foreign_keys=off", want: "app.db?_foreign_keys=off"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(AppConfig{DatabaseURI: tt.in}); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
