package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// 重复加入策略
const (
	JoinPolicyReplace = "replace" // 顶替原有连接（默认，与原始行为一致）
	JoinPolicyReject  = "reject"  // 座位有活跃连接时拒绝加入
)

// Config 服务端配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Game   GameConfig   `yaml:"game"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string   `yaml:"host" env:"DUEL_HOST"`
	Port           int      `yaml:"port" env:"DUEL_PORT"`
	PublicURL      string   `yaml:"public_url" env:"DUEL_PUBLIC_URL"` // 生成房间链接用的对外地址
	MaxConnections int      `yaml:"max_connections" env:"DUEL_MAX_CONNECTIONS"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"DUEL_ALLOWED_ORIGINS"` // 为空表示允许所有来源
}

// RedisConfig Redis 配置（只用于对局统计，不做房间持久化）
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"DUEL_REDIS_ENABLED"`
	Addr     string `yaml:"addr" env:"DUEL_REDIS_ADDR"`
	Password string `yaml:"password" env:"DUEL_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"DUEL_REDIS_DB"`
}

// GameConfig 对局配置
type GameConfig struct {
	JoinPolicy  string `yaml:"join_policy" env:"DUEL_JOIN_POLICY"`   // replace / reject
	RoomTimeout int    `yaml:"room_timeout" env:"DUEL_ROOM_TIMEOUT"` // 空房间回收超时（分钟），0 表示不回收
}

// RoomTimeoutDuration 返回空房间回收超时时长
func (c *GameConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

// Load 加载配置文件，环境变量可覆盖文件中的值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if cfg.Game.JoinPolicy != JoinPolicyReplace && cfg.Game.JoinPolicy != JoinPolicyReject {
		return nil, fmt.Errorf("无效的 join_policy: %q", cfg.Game.JoinPolicy)
	}

	return &cfg, nil
}

// Default 返回默认配置（环境变量仍然生效）
func Default() *Config {
	cfg := &Config{}
	_ = applyEnv(cfg)
	applyDefaults(cfg)
	return cfg
}

// applyEnv 用环境变量覆盖配置
func applyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("解析环境变量失败: %w", err)
	}
	return nil
}

// applyDefaults 填充默认值
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.PublicURL == "" {
		cfg.Server.PublicURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = 1024
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Game.JoinPolicy == "" {
		cfg.Game.JoinPolicy = JoinPolicyReplace
	}
}
