package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"bnpl-ledger/pkg/address"

	"gopkg.in/yaml.v3"
)

type DB struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Pass     string `yaml:"pass"`
	LogLevel string `yaml:"log_level"`
}

type Redis struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	Stream       string `yaml:"stream"`
	StreamMaxLen int64  `yaml:"stream_max_len"`
}

type Ledger struct {
	RepaymentPeriod      time.Duration `yaml:"repayment_period"`
	GracePeriod          time.Duration `yaml:"grace_period"`
	EarlyThresholdWindow time.Duration `yaml:"early_threshold_window"`
	LatePenaltyPct       int64         `yaml:"late_penalty_pct"`
	AdminAddress         string        `yaml:"admin_address"`
	PoolAddress          string        `yaml:"pool_address"`
}

type Oracle struct {
	ZKProofValidity     time.Duration `yaml:"zk_proof_validity"`
	WalletScoreCacheTTL time.Duration `yaml:"wallet_score_cache_ttl"`
}

type Config struct {
	AppPort      string `yaml:"app_port"`
	IdempTTLSecs int    `yaml:"idempotency_ttl_seconds"`

	DB     DB     `yaml:"db"`
	Redis  Redis  `yaml:"redis"`
	Ledger Ledger `yaml:"ledger"`
	Oracle Oracle `yaml:"oracle"`
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func defaults() *Config {
	return &Config{
		AppPort:      "8080",
		IdempTTLSecs: 300,
		DB: DB{
			Driver:   "mysql",
			Host:     "mysql",
			Port:     "3306",
			Name:     "bnpl",
			User:     "bnpl",
			Pass:     "bnpl",
			LogLevel: "warn",
		},
		Redis: Redis{Addr: "redis:6379", StreamMaxLen: 100_000},
		Ledger: Ledger{
			RepaymentPeriod:      7 * 24 * time.Hour,
			GracePeriod:          7 * 24 * time.Hour,
			EarlyThresholdWindow: 3 * 24 * time.Hour,
			LatePenaltyPct:       10,
		},
		Oracle: Oracle{
			ZKProofValidity:     30 * 24 * time.Hour,
			WalletScoreCacheTTL: 10 * time.Minute,
		},
	}
}

// Load layers defaults, the YAML file at CONFIG_PATH (when set) and the
// environment, in that order.
func Load() (*Config, error) {
	c := defaults()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(c); err != nil {
		return nil, err
	}
	return c, nil
}

func applyEnvOverrides(c *Config) error {
	c.AppPort = getenv("APP_PORT", c.AppPort)
	c.IdempTTLSecs = atoiOr(c.IdempTTLSecs, os.Getenv("IDEMPOTENCY_TTL_SECONDS"))

	c.DB.Driver = strings.ToLower(getenv("DB_DRIVER", c.DB.Driver))
	c.DB.DSN = getenv("DB_DSN", c.DB.DSN)
	c.DB.Host = getenv("DB_HOST", c.DB.Host)
	c.DB.Port = getenv("DB_PORT", c.DB.Port)
	c.DB.Name = getenv("DB_NAME", c.DB.Name)
	c.DB.User = getenv("DB_USER", c.DB.User)
	c.DB.Pass = getenv("DB_PASS", c.DB.Pass)
	c.DB.LogLevel = getenv("DB_LOG_LEVEL", c.DB.LogLevel)

	c.Redis.Addr = getenv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getenv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = atoiOr(c.Redis.DB, os.Getenv("REDIS_DB"))
	c.Redis.Stream = getenv("EVENT_STREAM", c.Redis.Stream)

	c.Ledger.AdminAddress = getenv("ADMIN_ADDRESS", c.Ledger.AdminAddress)
	c.Ledger.PoolAddress = getenv("POOL_ADDRESS", c.Ledger.PoolAddress)
	if v := os.Getenv("LATE_PENALTY_PCT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid LATE_PENALTY_PCT %q: %w", v, err)
		}
		c.Ledger.LatePenaltyPct = n
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"REPAYMENT_PERIOD", &c.Ledger.RepaymentPeriod},
		{"GRACE_PERIOD", &c.Ledger.GracePeriod},
		{"EARLY_THRESHOLD_WINDOW", &c.Ledger.EarlyThresholdWindow},
		{"ZK_PROOF_VALIDITY", &c.Oracle.ZKProofValidity},
		{"WALLET_SCORE_CACHE_TTL", &c.Oracle.WalletScoreCacheTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.env, v, err)
		}
		*d.dst = parsed
	}
	return nil
}

func atoiOr(def int, v string) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DB.Driver {
	case "mysql", "postgres":
		if c.DB.DSN == "" {
			if c.DB.Host == "" || c.DB.Port == "" || c.DB.Name == "" || c.DB.User == "" {
				return errors.New("missing DB config (DB_HOST/PORT/NAME/USER or DB_DSN)")
			}
			// ensure port is valid
			if _, err := net.LookupPort("tcp", c.DB.Port); err != nil {
				return fmt.Errorf("invalid DB_PORT %q: %w", c.DB.Port, err)
			}
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.IdempTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS must be positive")
	}

	admin, err := address.Normalize(c.Ledger.AdminAddress)
	if err != nil {
		return fmt.Errorf("ADMIN_ADDRESS: %w", err)
	}
	pool, err := address.Normalize(c.Ledger.PoolAddress)
	if err != nil {
		return fmt.Errorf("POOL_ADDRESS: %w", err)
	}
	if admin == pool {
		return errors.New("ADMIN_ADDRESS and POOL_ADDRESS must differ")
	}
	if address.IsZero(admin) || address.IsZero(pool) {
		return errors.New("ADMIN_ADDRESS and POOL_ADDRESS must not be the zero address")
	}

	l := c.Ledger
	if l.RepaymentPeriod <= 0 || l.GracePeriod <= 0 {
		return errors.New("REPAYMENT_PERIOD and GRACE_PERIOD must be positive")
	}
	if l.EarlyThresholdWindow < 0 || l.EarlyThresholdWindow >= l.RepaymentPeriod {
		return errors.New("EARLY_THRESHOLD_WINDOW must be within the repayment period")
	}
	if l.LatePenaltyPct < 0 || l.LatePenaltyPct > 100 {
		return fmt.Errorf("LATE_PENALTY_PCT %d out of range [0,100]", l.LatePenaltyPct)
	}
	if c.Oracle.ZKProofValidity <= 0 {
		return errors.New("ZK_PROOF_VALIDITY must be positive")
	}
	return nil
}

// DSN returns DB_DSN when set, otherwise builds one for the driver.
func (c *Config) DSN() string {
	if c.DB.DSN != "" {
		return c.DB.DSN
	}
	switch c.DB.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.DB.Host, c.DB.Port, c.DB.User, c.DB.Pass, c.DB.Name)
	case "sqlite":
		return "file:bnpl.db?cache=shared&_busy_timeout=5000"
	default:
		// parseTime needed for DATETIME
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
			c.DB.User, c.DB.Pass, net.JoinHostPort(c.DB.Host, c.DB.Port), c.DB.Name)
	}
}
