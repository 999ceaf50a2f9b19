package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 主配置结构
type Config struct {
	App       App       `yaml:"app"`
	Server    Server    `yaml:"server"`
	Database  DB        `yaml:"database"`
	Cache     Cache     `yaml:"cache"`
	Auth      Auth      `yaml:"auth"`
	RateLimit Limit     `yaml:"rate_limit"`
	Log       Log       `yaml:"log"`
	Links     Links     `yaml:"links"`
	Scheduler Scheduler `yaml:"scheduler"`
}

// 应用配置
type App struct {
	Name    string `yaml:"name"`
	Mode    string `yaml:"mode"`
	Version string `yaml:"version"`
}

// 服务器配置
type Server struct {
	Port         int `yaml:"port"`
	ReadTimeout  int `yaml:"read_timeout"`
	WriteTimeout int `yaml:"write_timeout"`
}

// 数据库配置，Driver 为 mysql 或 sqlite
type DB struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
	Path     string `yaml:"path"` // sqlite 文件路径
}

// 缓存配置（Redis）
type Cache struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// 认证配置
type Auth struct {
	Secret          string `yaml:"secret"`
	Issuer          string `yaml:"issuer"`
	ExpirationHours int    `yaml:"expiration_hours"`
}

// 限流配置
type Limit struct {
	Enabled   bool     `yaml:"enabled"`
	Requests  int64    `yaml:"requests_per_minute"`
	Burst     int64    `yaml:"burst"`
	SkipPaths []string `yaml:"skip_paths"`
}

// 日志配置
type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// 链接配置
type Links struct {
	ShortBaseURL string `yaml:"short_base_url"`
}

// 过期清理任务配置
type Scheduler struct {
	Enabled            bool          `yaml:"enabled"`
	Interval           time.Duration `yaml:"interval"`
	BatchSize          int           `yaml:"batch_size"`
	MaxRunInterval     time.Duration `yaml:"max_run_interval"`
	LockBuffer         time.Duration `yaml:"lock_buffer"`
	LockKey            string        `yaml:"lock_key"`
	LockAcquireTimeout time.Duration `yaml:"lock_acquire_timeout"`
	ExpirableStatuses  []string      `yaml:"expirable_statuses"`
}

// 加载配置
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Auth.ExpirationHours == 0 {
		c.Auth.ExpirationHours = 24
	}
	if c.Log.File == "" {
		c.Log.File = "./logs/app.log"
	}
	if c.Log.Level == "" {
		c.Log.Level = "debug"
	}

	s := &c.Scheduler
	if s.Interval <= 0 {
		s.Interval = time.Minute
	}
	if s.BatchSize <= 0 {
		s.BatchSize = 100
	}
	if s.MaxRunInterval <= 0 {
		s.MaxRunInterval = 30 * time.Second
	}
	if s.LockBuffer <= 0 {
		s.LockBuffer = 10 * time.Second
	}
	if s.LockKey == "" {
		s.LockKey = "jobs:expire-action-links"
	}
	if s.LockAcquireTimeout <= 0 {
		s.LockAcquireTimeout = 5 * time.Second
	}
	if len(s.ExpirableStatuses) == 0 {
		s.ExpirableStatuses = []string{"Active"}
	}
}
