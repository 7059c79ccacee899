package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 環境變數前綴，例如 LEDGER_GRPC_ADDR
const EnvPrefix = "LEDGER"

// LedgerMode 交易帳本實作
type LedgerMode string

const (
	// LedgerModeMutex 以 RWMutex 保護的帳本
	LedgerModeMutex LedgerMode = "mutex"
	// LedgerModeLMAX 單一 goroutine 輸送帶帳本
	LedgerModeLMAX LedgerMode = "lmax"
)

// Config 服務設定
type Config struct {
	Service         string        `yaml:"service" envconfig:"SERVICE"`
	LogLevel        string        `yaml:"log_level" envconfig:"LOG_LEVEL"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`

	GRPC    GRPCConfig    `yaml:"grpc" envconfig:"GRPC"`
	HTTP    HTTPConfig    `yaml:"http" envconfig:"HTTP"`
	Metrics MetricsConfig `yaml:"metrics" envconfig:"METRICS"`
	Ledger  LedgerConfig  `yaml:"ledger" envconfig:"LEDGER"`
	Email   EmailConfig   `yaml:"email" envconfig:"EMAIL"`
}

type GRPCConfig struct {
	Addr       string `yaml:"addr" envconfig:"ADDR"`
	Reflection *bool  `yaml:"reflection" envconfig:"REFLECTION"`
}

type HTTPConfig struct {
	Addr    string `yaml:"addr" envconfig:"ADDR"`
	Enabled *bool  `yaml:"enabled" envconfig:"ENABLED"`
}

type MetricsConfig struct {
	Addr    string `yaml:"addr" envconfig:"ADDR"`
	Enabled *bool  `yaml:"enabled" envconfig:"ENABLED"`
}

type LedgerConfig struct {
	Mode      LedgerMode `yaml:"mode" envconfig:"MODE"`
	QueueSize int        `yaml:"queue_size" envconfig:"QUEUE_SIZE"`
}

type EmailConfig struct {
	// AllowedDomains 空白時使用預設白名單
	AllowedDomains []string `yaml:"allowed_domains" envconfig:"ALLOWED_DOMAINS"`
}

// Load 載入設定
// 順序: YAML 檔 (不存在則略過) -> .env -> LEDGER_* 環境變數 -> 預設值
//
// 參數:
//
//	path: YAML 設定檔路徑，空字串表示不讀檔
//	logger: 用來記錄載入過程，可為 nil
//
// 回傳:
//
//	*Config: 設定
//	error: 讀檔 / 解析 / 驗證錯誤
func Load(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn("config file not found, using defaults and environment", "path", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err == nil {
		logger.Info("environment variables loaded from .env file")
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults 補全預設配置 (如果沒寫)
func (c *Config) applyDefaults() {
	if c.Service == "" {
		c.Service = "go-mem-bank"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":50051"
	}
	if c.GRPC.Reflection == nil {
		c.GRPC.Reflection = boolPtr(true)
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.Enabled == nil {
		c.HTTP.Enabled = boolPtr(true)
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	if c.Metrics.Enabled == nil {
		c.Metrics.Enabled = boolPtr(true)
	}
	if c.Ledger.Mode == "" {
		c.Ledger.Mode = LedgerModeMutex
	}
	if c.Ledger.QueueSize == 0 {
		c.Ledger.QueueSize = 1024
	}
}

// Validate 檢查設定值
func (c *Config) Validate() error {
	c.Ledger.Mode = LedgerMode(strings.ToLower(string(c.Ledger.Mode)))
	switch c.Ledger.Mode {
	case LedgerModeMutex, LedgerModeLMAX:
	default:
		return fmt.Errorf("invalid ledger mode %q (want %q or %q)", c.Ledger.Mode, LedgerModeMutex, LedgerModeLMAX)
	}
	if c.Ledger.QueueSize < 0 {
		return fmt.Errorf("invalid ledger queue size %d", c.Ledger.QueueSize)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel 將 log_level 轉為 slog.Level
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

func (c *Config) HTTPEnabled() bool       { return c.HTTP.Enabled != nil && *c.HTTP.Enabled }
func (c *Config) MetricsEnabled() bool    { return c.Metrics.Enabled != nil && *c.Metrics.Enabled }
func (c *Config) ReflectionEnabled() bool { return c.GRPC.Reflection != nil && *c.GRPC.Reflection }

func boolPtr(v bool) *bool { return &v }
