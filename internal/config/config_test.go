package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store != BackendFile || cfg.Precision != 6 || cfg.MaxRetries != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RetryBackoff != 200*time.Millisecond {
		t.Fatalf("retry backoff = %s", cfg.RetryBackoff)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "amm.yaml")
	content := "store: sqlite\nsqlite-path: /tmp/from-file.db\nprecision: 9\nlog-level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("AMM_PRECISION", "4")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	if err := flags.Parse([]string{"--log-level", "warn"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store != BackendSQLite || cfg.SQLitePath != "/tmp/from-file.db" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Precision != 4 {
		t.Fatalf("env should override file: precision = %d", cfg.Precision)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("flag should override file: log level = %s", cfg.LogLevel)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cases := []Config{
		{Store: BackendPostgres, JournalBackend: BackendFile, Journal: "j.jsonl"},
		{Store: BackendSQLite, JournalBackend: BackendFile, Journal: "j.jsonl"},
		{Store: "redis", JournalBackend: BackendFile, Journal: "j.jsonl"},
		{Store: BackendFile, StateFile: "pools.json", JournalBackend: BackendFile},
		{Store: BackendFile, StateFile: "pools.json", JournalBackend: "kafka"},
		{Store: "memory", StateFile: "pools.json", JournalBackend: BackendFile, Journal: "j.jsonl"},
		{Store: BackendFile, StateFile: "pools.json", JournalBackend: "memory", Journal: "j.jsonl"},
		{Store: BackendFile, StateFile: "pools.json", JournalBackend: BackendFile, Journal: "j.jsonl", MaxRetries: -1},
	}
	for _, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}

	ok := Config{Store: BackendPostgres, PGDSN: "postgres://x", JournalBackend: BackendPostgres}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
