package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Default relay configuration values.
const (
	DefaultListen          = ":8080"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultSendBuffer      = 256
	DefaultMaxMessageBytes = 64 * 1024
	DefaultPongWait        = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Flag names shared by RegisterServerFlags and LoadServer.
const (
	FlagConfig          = "config"
	FlagListen          = "listen"
	FlagAllowedOrigins  = "allowed-origins"
	FlagLogLevel        = "log-level"
	FlagLogFormat       = "log-format"
	FlagSendBuffer      = "send-buffer"
	FlagMaxMessageBytes = "max-message-bytes"
	FlagPongWait        = "pong-wait"
	FlagShutdownTimeout = "shutdown-timeout"
)

// ServerConfig holds the relay's runtime settings.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	SendBuffer      int           `yaml:"send_buffer"`
	MaxMessageBytes int64         `yaml:"max_message_bytes"`
	PongWait        time.Duration `yaml:"pong_wait"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DefaultServerConfig returns the built-in defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Listen:          DefaultListen,
		AllowedOrigins:  []string{"*"},
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		SendBuffer:      DefaultSendBuffer,
		MaxMessageBytes: DefaultMaxMessageBytes,
		PongWait:        DefaultPongWait,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// RegisterServerFlags defines the relay flags on fs.
func RegisterServerFlags(fs *pflag.FlagSet) {
	d := DefaultServerConfig()
	fs.StringP(FlagConfig, "c", "", "Path to a YAML config file")
	fs.StringP(FlagListen, "l", d.Listen, "Address to listen on")
	fs.StringSlice(FlagAllowedOrigins, d.AllowedOrigins, "Allowed CORS / websocket origins")
	fs.String(FlagLogLevel, d.LogLevel, "Log level (debug, info, warn, error)")
	fs.String(FlagLogFormat, d.LogFormat, "Log format (text, json)")
	fs.Int(FlagSendBuffer, d.SendBuffer, "Outbound queue length per connection")
	fs.Int64(FlagMaxMessageBytes, d.MaxMessageBytes, "Largest accepted inbound message")
	fs.Duration(FlagPongWait, d.PongWait, "Time allowed between pongs before a connection is dropped")
	fs.Duration(FlagShutdownTimeout, d.ShutdownTimeout, "Grace period for shutdown")
}

// LoadServer resolves the relay configuration with the following priority:
// 1. flags explicitly set on fs - highest priority
// 2. DUET_* environment variables
// 3. the YAML file named by --config or DUET_CONFIG
// 4. defaults - lowest priority
func LoadServer(fs *pflag.FlagSet) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	path := os.Getenv("DUET_CONFIG")
	if fs != nil && fs.Changed(FlagConfig) {
		path, _ = fs.GetString(FlagConfig)
	}
	if path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return ServerConfig{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return ServerConfig{}, err
	}

	if fs != nil {
		if err := applyFlags(fs, &cfg); err != nil {
			return ServerConfig{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}
	return nil
}

func applyEnv(cfg *ServerConfig) error {
	cfg.Listen = envString("DUET_LISTEN", cfg.Listen)
	cfg.LogLevel = envString("DUET_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envString("DUET_LOG_FORMAT", cfg.LogFormat)

	if raw := envString("DUET_ALLOWED_ORIGINS", ""); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}

	var err error
	if cfg.SendBuffer, err = envInt("DUET_SEND_BUFFER", cfg.SendBuffer); err != nil {
		return err
	}
	maxBytes, err := envInt("DUET_MAX_MESSAGE_BYTES", int(cfg.MaxMessageBytes))
	if err != nil {
		return err
	}
	cfg.MaxMessageBytes = int64(maxBytes)
	if cfg.PongWait, err = envDuration("DUET_PONG_WAIT", cfg.PongWait); err != nil {
		return err
	}
	if cfg.ShutdownTimeout, err = envDuration("DUET_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return err
	}
	return nil
}

func applyFlags(fs *pflag.FlagSet, cfg *ServerConfig) error {
	var err error
	if fs.Changed(FlagListen) {
		if cfg.Listen, err = fs.GetString(FlagListen); err != nil {
			return err
		}
	}
	if fs.Changed(FlagAllowedOrigins) {
		if cfg.AllowedOrigins, err = fs.GetStringSlice(FlagAllowedOrigins); err != nil {
			return err
		}
	}
	if fs.Changed(FlagLogLevel) {
		if cfg.LogLevel, err = fs.GetString(FlagLogLevel); err != nil {
			return err
		}
	}
	if fs.Changed(FlagLogFormat) {
		if cfg.LogFormat, err = fs.GetString(FlagLogFormat); err != nil {
			return err
		}
	}
	if fs.Changed(FlagSendBuffer) {
		if cfg.SendBuffer, err = fs.GetInt(FlagSendBuffer); err != nil {
			return err
		}
	}
	if fs.Changed(FlagMaxMessageBytes) {
		if cfg.MaxMessageBytes, err = fs.GetInt64(FlagMaxMessageBytes); err != nil {
			return err
		}
	}
	if fs.Changed(FlagPongWait) {
		if cfg.PongWait, err = fs.GetDuration(FlagPongWait); err != nil {
			return err
		}
	}
	if fs.Changed(FlagShutdownTimeout) {
		if cfg.ShutdownTimeout, err = fs.GetDuration(FlagShutdownTimeout); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks value ranges.
func (c ServerConfig) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return errors.New("listen address is required")
	}
	if len(c.AllowedOrigins) == 0 {
		return errors.New("at least one allowed origin is required")
	}
	if c.SendBuffer <= 0 {
		return errors.New("send_buffer must be > 0")
	}
	if c.MaxMessageBytes < 1024 {
		return errors.New("max_message_bytes must be >= 1024")
	}
	if c.PongWait < time.Second {
		return errors.New("pong_wait must be >= 1s")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be > 0")
	}
	return nil
}

// AllowsAnyOrigin reports whether the wildcard origin is configured.
func (c ServerConfig) AllowsAnyOrigin() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// envString returns an env override when present, otherwise a default.
func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt returns an int env override when present, otherwise a default.
func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be an integer", key)
	}
	return value, nil
}

// envDuration returns a duration env override when present, otherwise a default.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be a duration", key)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
