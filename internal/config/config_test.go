package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	adminAddr = "0x00000000000000000000000000000000000000aa"
	poolAddr  = "0x00000000000000000000000000000000000000bb"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_PATH", "APP_PORT", "IDEMPOTENCY_TTL_SECONDS",
		"DB_DRIVER", "DB_DSN", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASS", "DB_LOG_LEVEL",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "EVENT_STREAM",
		"ADMIN_ADDRESS", "POOL_ADDRESS", "LATE_PENALTY_PCT",
		"REPAYMENT_PERIOD", "GRACE_PERIOD", "EARLY_THRESHOLD_WINDOW",
		"ZK_PROOF_VALIDITY", "WALLET_SCORE_CACHE_TTL",
	} {
		t.Setenv(k, "")
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	clearEnv(t)
	t.Setenv("ADMIN_ADDRESS", adminAddr)
	t.Setenv("POOL_ADDRESS", poolAddr)
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func TestLoad_Defaults(t *testing.T) {
	c := validConfig(t)

	if c.AppPort != "8080" || c.IdempTTLSecs != 300 {
		t.Fatalf("unexpected app defaults: %+v", c)
	}
	if c.Ledger.RepaymentPeriod != 7*24*time.Hour || c.Ledger.GracePeriod != 7*24*time.Hour {
		t.Fatalf("unexpected periods: %+v", c.Ledger)
	}
	if c.Ledger.EarlyThresholdWindow != 72*time.Hour || c.Ledger.LatePenaltyPct != 10 {
		t.Fatalf("unexpected scoring defaults: %+v", c.Ledger)
	}
	if c.Oracle.ZKProofValidity != 30*24*time.Hour {
		t.Fatalf("unexpected proof validity: %v", c.Oracle.ZKProofValidity)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_ADDRESS", adminAddr)
	t.Setenv("POOL_ADDRESS", poolAddr)
	t.Setenv("REPAYMENT_PERIOD", "720h")
	t.Setenv("LATE_PENALTY_PCT", "15")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DB_DRIVER", "Postgres")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Ledger.RepaymentPeriod != 30*24*time.Hour || c.Ledger.LatePenaltyPct != 15 || c.Redis.DB != 3 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.DB.Driver != "postgres" {
		t.Fatalf("driver = %q", c.DB.Driver)
	}
	if !strings.Contains(c.DSN(), "dbname=bnpl") {
		t.Fatalf("postgres DSN = %q", c.DSN())
	}
}

func TestLoad_BadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRACE_PERIOD", "a week")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for bad duration")
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
app_port: "9090"
db:
  driver: sqlite
  dsn: "file:test.db"
ledger:
  repayment_period: 48h
  early_threshold_window: 12h
  admin_address: "` + adminAddr + `"
  pool_address: "` + poolAddr + `"
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("APP_PORT", "7070")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.AppPort != "7070" {
		t.Fatalf("env should win over file, got %q", c.AppPort)
	}
	if c.DB.Driver != "sqlite" || c.DSN() != "file:test.db" {
		t.Fatalf("db from file not applied: %+v", c.DB)
	}
	if c.Ledger.RepaymentPeriod != 48*time.Hour || c.Ledger.GracePeriod != 7*24*time.Hour {
		t.Fatalf("ledger from file not merged with defaults: %+v", c.Ledger)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"no admin":          func(c *Config) { c.Ledger.AdminAddress = "" },
		"admin is pool":     func(c *Config) { c.Ledger.PoolAddress = adminAddr },
		"zero pool":         func(c *Config) { c.Ledger.PoolAddress = "0x0000000000000000000000000000000000000000" },
		"bad driver":        func(c *Config) { c.DB.Driver = "oracle" },
		"bad port":          func(c *Config) { c.DB.Port = "notaport" },
		"missing host":      func(c *Config) { c.DB.Host = "" },
		"penalty too high":  func(c *Config) { c.Ledger.LatePenaltyPct = 101 },
		"window too large":  func(c *Config) { c.Ledger.EarlyThresholdWindow = c.Ledger.RepaymentPeriod },
		"zero grace period": func(c *Config) { c.Ledger.GracePeriod = 0 },
		"zero idem ttl":     func(c *Config) { c.IdempTTLSecs = 0 },
		"no app port":       func(c *Config) { c.AppPort = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig(t)
			mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestDSN_MySQL(t *testing.T) {
	c := validConfig(t)
	want := "bnpl:bnpl@tcp(mysql:3306)/bnpl?parseTime=true&loc=UTC&charset=utf8mb4,utf8"
	if got := c.DSN(); got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
}
