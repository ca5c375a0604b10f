package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Backends that persist across CLI runs.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Store          string
	StateFile      string
	PGDSN          string
	SQLitePath     string
	JournalBackend string
	Journal        string
	Precision      uint8
	MaxRetries     int
	RetryBackoff   time.Duration
	MetricsFile    string
	Caller         string
	LogLevel       string
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	// a missing .env is normal
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("AMM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", BackendFile)
	v.SetDefault("state-file", "./data/pools.json")
	v.SetDefault("sqlite-path", "./data/amm.db")
	v.SetDefault("journal-backend", BackendFile)
	v.SetDefault("journal", "./data/journal.jsonl")
	v.SetDefault("precision", 6)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 200*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	precision := v.GetUint("precision")
	if precision > 255 {
		return Config{}, fmt.Errorf("precision %d out of range", precision)
	}

	cfg := Config{
		Store:          strings.ToLower(v.GetString("store")),
		StateFile:      v.GetString("state-file"),
		PGDSN:          v.GetString("pg-dsn"),
		SQLitePath:     v.GetString("sqlite-path"),
		JournalBackend: strings.ToLower(v.GetString("journal-backend")),
		Journal:        v.GetString("journal"),
		Precision:      uint8(precision),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		MetricsFile:    v.GetString("metrics-file"),
		Caller:         v.GetString("caller"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate reports settings that the selected backends need but lack.
func (c Config) Validate() error {
	switch c.Store {
	case BackendFile:
		if c.StateFile == "" {
			return fmt.Errorf("state file is required for the file store")
		}
	case BackendPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required for the postgres store")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	switch c.JournalBackend {
	case BackendFile:
		if c.Journal == "" {
			return fmt.Errorf("journal path is required for the file journal")
		}
	case BackendPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required for the postgres journal")
		}
	default:
		return fmt.Errorf("unknown journal backend %q", c.JournalBackend)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0")
	}
	return nil
}
