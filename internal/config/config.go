package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Tasks     TasksConfig     `yaml:"tasks"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	// Mode is "http" or "stdio".
	Mode string `yaml:"mode"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// TasksConfig holds the task-handling behavior toggles.
type TasksConfig struct {
	// ConfirmDestructive gates multi-item clears behind a confirmation.
	ConfirmDestructive bool `yaml:"confirm_destructive"`
	// Partitions lists the workspace partition keys this server serves.
	// The first entry is treated as the active partition.
	Partitions []string         `yaml:"partitions"`
	AutoDelete AutoDeleteConfig `yaml:"auto_delete"`
}

// AutoDeleteConfig controls sweeping of completed items.
type AutoDeleteConfig struct {
	Enabled bool `yaml:"enabled"`
	DelayMs int  `yaml:"delay_ms"`
	FadeMs  int  `yaml:"fade_ms"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		DB: DBConfig{
			Path: "docket.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Tasks: TasksConfig{
			ConfirmDestructive: true,
			AutoDelete: AutoDeleteConfig{
				Enabled: true,
				DelayMs: 1500,
				FadeMs:  750,
			},
		},
	}

	if path := os.Getenv("DOCKET_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("DOCKET_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("DOCKET_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DOCKET_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("DOCKET_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if dbPath := os.Getenv("DOCKET_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("DOCKET_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if partitions := os.Getenv("DOCKET_PARTITIONS"); partitions != "" {
		cfg.Tasks.Partitions = splitList(partitions)
	}

	if cfg.Transport.Mode != "http" && cfg.Transport.Mode != "stdio" {
		return Config{}, fmt.Errorf("invalid transport mode %q (want http or stdio)", cfg.Transport.Mode)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
