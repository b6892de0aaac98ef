package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/logging"
	"github.com/rushteam/schemekit/schedule"
)

// App 是 schemekit 的进程级配置（YAML）。
type App struct {
	Log          LogConfig         `yaml:"log"`
	HTTP         HTTPConfig        `yaml:"http"`
	Catalog      CatalogConfig     `yaml:"catalog"`
	Matrix       MatrixConfig      `yaml:"matrix"`
	Redis        RedisConfig       `yaml:"redis"`
	Interactions InteractionConfig `yaml:"interactions"`
	Recommend    RecommendConfig   `yaml:"recommend"`

	// Pipeline 是可选的混合推荐 pipeline 配置文件（recommend 命令使用）
	Pipeline string `yaml:"pipeline"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type CatalogConfig struct {
	// Path 是 CRUD 侧导出的 scheme JSON 快照
	Path string `yaml:"path"`
}

// MatrixConfig 决定矩阵存在哪里、如何构建。Path 与 RedisKey 二选一，RedisKey 优先。
type MatrixConfig struct {
	Path          string        `yaml:"path"`
	RedisKey      string        `yaml:"redis_key"`
	Workers       int           `yaml:"workers"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	RebuildCron   string        `yaml:"rebuild_cron"`
	// ReloadCron 周期性地重新加载外部 build 写入的矩阵并刷新 catalog
	ReloadCron    string        `yaml:"reload_cron"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// 交互存储后端
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type InteractionConfig struct {
	Backend     string `yaml:"backend"`
	SQLitePath  string `yaml:"sqlite_path"`
	RedisPrefix string `yaml:"redis_prefix"`
}

type RecommendConfig struct {
	DefaultTopN       int           `yaml:"default_top_n"`
	MaxTopN           int           `yaml:"max_top_n"`
	CacheSize         int           `yaml:"cache_size"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	CollaborativeTopN int           `yaml:"collaborative_top_n"`
	MaxNeighbors      int           `yaml:"max_neighbors"`
	KeywordBoost      float64       `yaml:"keyword_boost"`
	KeywordsRestrict  bool          `yaml:"keywords_restrict"`
	MaxKeywords       int           `yaml:"max_keywords"`
	SourceTimeout     time.Duration `yaml:"source_timeout"`
	DefaultPageSize   int           `yaml:"default_page_size"`
	MaxPageSize       int           `yaml:"max_page_size"`
}

// Load 读取 YAML 配置，填充默认值并校验。
func Load(path string) (*App, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse 解析 YAML 内容。
func Parse(data []byte) (*App, error) {
	var cfg App
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *App) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Matrix.Path == "" && c.Matrix.RedisKey == "" {
		c.Matrix.Path = "data/similarity_matrix.gob.gz"
	}
	if c.Matrix.Workers <= 0 {
		c.Matrix.Workers = 4
	}
	if c.Matrix.RetryInterval == 0 {
		c.Matrix.RetryInterval = 30 * time.Second
	}
	if c.Interactions.Backend == "" {
		c.Interactions.Backend = BackendMemory
	}
	if c.Interactions.RedisPrefix == "" {
		c.Interactions.RedisPrefix = "schemekit:interaction"
	}

	defaults := &core.DefaultRecallConfig{}
	r := &c.Recommend
	if r.DefaultTopN <= 0 {
		r.DefaultTopN = defaults.DefaultTopN()
	}
	if r.MaxTopN <= 0 {
		r.MaxTopN = 100
	}
	if r.CollaborativeTopN <= 0 {
		r.CollaborativeTopN = defaults.DefaultCollaborativeTopN()
	}
	if r.CacheSize <= 0 {
		r.CacheSize = 10000
	}
	if r.CacheTTL <= 0 {
		r.CacheTTL = time.Hour
	}
	if r.MaxNeighbors <= 0 {
		r.MaxNeighbors = 50
	}
	if r.KeywordBoost <= 0 {
		r.KeywordBoost = 2.0
	}
	if r.SourceTimeout <= 0 {
		r.SourceTimeout = defaults.DefaultTimeout()
	}
	if r.DefaultPageSize <= 0 {
		r.DefaultPageSize = defaults.DefaultPageSize()
	}
	if r.MaxPageSize <= 0 {
		r.MaxPageSize = defaults.MaxPageSize()
	}
}

// Validate 校验必填项与取值范围。
func (c *App) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.Matrix.RebuildCron != "" {
		if err := schedule.ValidateSpec(c.Matrix.RebuildCron); err != nil {
			return fmt.Errorf("matrix.rebuild_cron: %w", err)
		}
	}
	if c.Matrix.ReloadCron != "" {
		if err := schedule.ValidateSpec(c.Matrix.ReloadCron); err != nil {
			return fmt.Errorf("matrix.reload_cron: %w", err)
		}
	}
	needRedis := c.Matrix.RedisKey != ""
	switch c.Interactions.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Interactions.SQLitePath == "" {
			return fmt.Errorf("interactions.sqlite_path is required for sqlite backend")
		}
	case BackendRedis:
		needRedis = true
	default:
		return fmt.Errorf("interactions.backend must be memory, sqlite or redis")
	}
	if needRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when matrix.redis_key or the redis interaction backend is used")
	}
	if c.Recommend.DefaultTopN > c.Recommend.MaxTopN {
		return fmt.Errorf("recommend.default_top_n %d exceeds max_top_n %d",
			c.Recommend.DefaultTopN, c.Recommend.MaxTopN)
	}
	if c.Recommend.DefaultPageSize > c.Recommend.MaxPageSize {
		return fmt.Errorf("recommend.default_page_size %d exceeds max_page_size %d",
			c.Recommend.DefaultPageSize, c.Recommend.MaxPageSize)
	}
	return nil
}
