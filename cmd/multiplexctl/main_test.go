package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URI", filepath.Join(dir, "cli.db"))
	t.Setenv("LOG_LEVEL", "silent")
	return filepath.Join(dir, "absent.json")
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(args, &out)
	return out.String(), err
}

func TestRun(t *testing.T) {
	cfgPath := setupEnv(t)

	if out, err := runCmd(t, "migrate", "--config", cfgPath); err != nil || !strings.Contains(out, "migrations applied") {
		t.Fatalf("migrate = %q, %v", out, err)
	}
	if out, err := runCmd(t, "createuser", "--config", cfgPath, "--username", "root", "--password", "pw", "--staff"); err != nil || !strings.Contains(out, "created user root") {
		t.Fatalf("createuser = %q, %v", out, err)
	}
	if _, err := runCmd(t, "createuser", "--config", cfgPath, "--username", "root", "--password", "pw"); err == nil {
		t.Error("duplicate createuser succeeded")
	}

	fixture := filepath.Join(t.TempDir(), "users.yaml")
	if err := os.WriteFile(fixture, []byte("users:\n  - username: alice\n    password: pw\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if out, err := runCmd(t, "seed", "--config", cfgPath, "--file", fixture); err != nil || !strings.Contains(out, "seeded 1 users") {
		t.Fatalf("seed = %q, %v", out, err)
	}

	if out, err := runCmd(t, "setlevel", "--config", cfgPath, "--as", "root", "--level", "2", "2"); err != nil || !strings.Contains(out, "updated 1 profiles") {
		t.Fatalf("setlevel = %q, %v", out, err)
	}
	if _, err := runCmd(t, "setlevel", "--config", cfgPath, "--as", "alice", "--level", "2", "2"); err == nil {
		t.Error("setlevel as non-staff succeeded")
	}
	if out, err := runCmd(t, "publish", "--config", cfgPath, "--as", "root", "42"); err != nil || !strings.Contains(out, "updated 0 posts") {
		t.Fatalf("publish = %q, %v", out, err)
	}
}

func TestRun_Errors(t *testing.T) {
	cfgPath := setupEnv(t)
	tests := [][]string{
		{"bogus"},
		{"seed", "--config", cfgPath},
		{"publish", "--config", cfgPath, "1"},
		{"publish", "--config", cfgPath, "--as", "nobody", "1"},
		{"setlevel", "--config", cfgPath, "--as", "nobody", "x"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			if _, err := runCmd(t, args...); err == nil {
				t.Errorf("run(%v) expected error", args)
			}
		})
	}

	if out, err := runCmd(t); err != nil || !strings.Contains(out, "Usage:") {
		t.Errorf("no args = %q, %v", out, err)
	}
}
