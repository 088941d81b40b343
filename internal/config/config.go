package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Proxy   ProxyConfig   `mapstructure:"proxy"`
	Editor  EditorConfig  `mapstructure:"editor"`
	Cache   CacheConfig   `mapstructure:"cache"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Log     LogConfig     `mapstructure:"log"`
	History HistoryConfig `mapstructure:"history"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

// ProxyConfig describes the upstream text-generation proxy endpoint.
type ProxyConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	Provider    string        `mapstructure:"provider"`
	TenantID    string        `mapstructure:"tenant_id"`
	UserID      string        `mapstructure:"user_id"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// EditorConfig binds the widget to one host-page editor.
type EditorConfig struct {
	Type        string        `mapstructure:"type"`
	ID          string        `mapstructure:"id"`
	Context     string        `mapstructure:"context"`
	Language    string        `mapstructure:"language"`
	ReadyPoll   time.Duration `mapstructure:"ready_poll"`
	ReadyWithin time.Duration `mapstructure:"ready_within"`
}

type CacheConfig struct {
	MaxItems int           `mapstructure:"max_items"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HistoryConfig struct {
	Type      string `mapstructure:"type"`
	DataDir   string `mapstructure:"data_dir"`
	CacheSize int    `mapstructure:"cache_size"`
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("ENHANCER")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// Config file wins; fall back to the environment for the proxy endpoint.
	if cfg.Proxy.Endpoint == "" {
		if ep := os.Getenv("ENHANCER_PROXY_ENDPOINT"); ep != "" {
			cfg.Proxy.Endpoint = ep
		}
	}

	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.Proxy.Temperature == 0 {
		c.Proxy.Temperature = 0.7
	}
	if c.Proxy.Provider == "" {
		c.Proxy.Provider = "openai"
	}
	// Proxy.Timeout keeps its zero value when unset: streams run as long
	// as the upstream keeps sending, bounded only by transport timeouts.
	if c.Cache.MaxItems == 0 {
		c.Cache.MaxItems = 50
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 30 * time.Minute
	}
	if c.Editor.Type == "" {
		c.Editor.Type = "textarea"
	}
	if c.Editor.ReadyPoll == 0 {
		c.Editor.ReadyPoll = 100 * time.Millisecond
	}
	if c.Editor.ReadyWithin == 0 {
		c.Editor.ReadyWithin = 2 * time.Second
	}
	if c.History.Type == "" {
		c.History.Type = "memory"
	}
	if c.History.CacheSize == 0 {
		c.History.CacheSize = 100
	}
}

func Get() *Config {
	return cfg
}
