// Package config loads configuration with viper: defaults, then an optional
// config file, then CHAT_* environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the shared configuration for both binaries.
type Config struct {
	APIBaseURL       string        `mapstructure:"api_base_url"`
	CableURL         string        `mapstructure:"cable_url"`
	SnapshotPath     string        `mapstructure:"snapshot_path"`
	GatewayTimeout   time.Duration `mapstructure:"gateway_timeout"`
	PresenceInterval time.Duration `mapstructure:"presence_interval"`

	Proxy ProxyConfig `mapstructure:"proxy"`
	AMQP  AMQPConfig  `mapstructure:"amqp"`
	Log   LogConfig   `mapstructure:"log"`
}

// ProxyConfig configures the chatproxy binary.
type ProxyConfig struct {
	Listen       string `mapstructure:"listen"`
	UpstreamURL  string `mapstructure:"upstream_url"`
	Environment  string `mapstructure:"environment"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Debug        bool   `mapstructure:"debug"`
}

// AMQPConfig configures the audit event bus. An empty URL disables it.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIBaseURL:       "http://localhost:3000/api/v1",
		CableURL:         "ws://localhost:3000/cable",
		SnapshotPath:     "chat-state.db",
		GatewayTimeout:   15 * time.Second,
		PresenceInterval: 30 * time.Second,
		Proxy: ProxyConfig{
			Listen:      ":8080",
			UpstreamURL: "http://localhost:3000",
			Environment: "development",
		},
		AMQP: AMQPConfig{
			Exchange: "chat_events",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration with precedence defaults < file < env. The config
// file is optional unless a path is given explicitly.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetDefault("api_base_url", cfg.APIBaseURL)
	v.SetDefault("cable_url", cfg.CableURL)
	v.SetDefault("snapshot_path", cfg.SnapshotPath)
	v.SetDefault("gateway_timeout", cfg.GatewayTimeout)
	v.SetDefault("presence_interval", cfg.PresenceInterval)
	v.SetDefault("proxy.listen", cfg.Proxy.Listen)
	v.SetDefault("proxy.upstream_url", cfg.Proxy.UpstreamURL)
	v.SetDefault("proxy.environment", cfg.Proxy.Environment)
	v.SetDefault("proxy.otlp_endpoint", cfg.Proxy.OTLPEndpoint)
	v.SetDefault("proxy.debug", cfg.Proxy.Debug)
	v.SetDefault("amqp.url", cfg.AMQP.URL)
	v.SetDefault("amqp.exchange", cfg.AMQP.Exchange)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)

	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("chat-client")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		// Missing default config file is fine.
		_ = v.ReadInConfig()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations neither binary could run with.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("config: api_base_url is required")
	}
	if c.CableURL == "" {
		return fmt.Errorf("config: cable_url is required")
	}
	if c.Proxy.Listen == "" {
		return fmt.Errorf("config: proxy.listen is required")
	}
	if c.Proxy.UpstreamURL == "" {
		return fmt.Errorf("config: proxy.upstream_url is required")
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("config: gateway_timeout must be positive")
	}
	return nil
}
