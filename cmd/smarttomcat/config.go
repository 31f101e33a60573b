package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/thawee/SmartTomcat/internal/core/domain"
	"github.com/thawee/SmartTomcat/internal/engine"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Project  ProjectConfig  `mapstructure:"project"`
	Profile  ProfileConfig  `mapstructure:"profile"`
	API      APIConfig      `mapstructure:"api"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProjectConfig describes the project that owns the workspace items.
type ProjectConfig struct {
	Name    string `mapstructure:"name"`
	SDKName string `mapstructure:"sdk_name"`
	SDKHome string `mapstructure:"sdk_home"`
}

// ProfileConfig holds the defaults of a newly created run profile.
type ProfileConfig struct {
	KindID          string `mapstructure:"kind_id"`
	Port            int    `mapstructure:"port"`
	AdminPort       int    `mapstructure:"admin_port"`
	CatalinaBaseDir string `mapstructure:"catalina_base_dir"`
	Server          string `mapstructure:"server"`
	ServerScope     string `mapstructure:"server_scope"`
}

// APIConfig holds HTTP API configuration for the serve command.
type APIConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Token guards /api/v1 when set.
	Token string `mapstructure:"token"`
}

// Address returns the API address in host:port format.
func (c APIConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// EngineConfig converts the project and profile sections into deployer settings.
func (c *Config) EngineConfig() engine.Config {
	ec := engine.Config{
		ProjectName: c.Project.Name,
		KindID:      c.Profile.KindID,
		Defaults: domain.ProfileDefaults{
			Port:            c.Profile.Port,
			AdminPort:       c.Profile.AdminPort,
			CatalinaBaseDir: c.Profile.CatalinaBaseDir,
			ProjectName:     c.Project.Name,
			ServerName:      c.Profile.Server,
		},
		ServerScope: domain.Scope(c.Profile.ServerScope),
	}
	if c.Project.SDKName != "" {
		ec.SDK = &domain.SDKRef{Name: c.Project.SDKName, Home: c.Project.SDKHome}
	}
	return ec
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment variables.
// Environment variables use the SMARTTOMCAT_ prefix, e.g.
// SMARTTOMCAT_PROFILE_PORT=9090.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.dsn", "./data/smarttomcat.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("project.name", "")
	v.SetDefault("project.sdk_name", "")
	v.SetDefault("project.sdk_home", "")
	v.SetDefault("profile.kind_id", domain.DefaultKindID)
	v.SetDefault("profile.port", domain.DefaultPort)
	v.SetDefault("profile.admin_port", domain.DefaultAdminPort)
	v.SetDefault("profile.catalina_base_dir", "~/.SmartTomcat")
	v.SetDefault("profile.server", "")
	v.SetDefault("profile.server_scope", string(domain.ScopeProvided))
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8765)
	v.SetDefault("api.read_timeout", "30s")
	v.SetDefault("api.write_timeout", "30s")
	v.SetDefault("api.shutdown_timeout", "10s")
	v.SetDefault("api.token", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("SMARTTOMCAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Project.Name == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine project name: %w", err)
		}
		cfg.Project.Name = filepath.Base(wd)
	}
	cfg.Profile.CatalinaBaseDir = expandHome(cfg.Profile.CatalinaBaseDir)

	scope, err := domain.ParseScope(cfg.Profile.ServerScope)
	if err != nil {
		return nil, fmt.Errorf("invalid profile.server_scope: %w", err)
	}
	cfg.Profile.ServerScope = string(scope)

	return &cfg, nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a structured logger writing to w.
func SetupLogger(cfg *Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
