// Package config handles daemon configuration loading and management.
package config

import (
	"path/filepath"
	"time"
)

// Config holds all daemon settings. The json tags exist for schema
// generation and must match the yaml tags.
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`
	Record     RecordConfig     `yaml:"record" json:"record"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// ServerConfig holds the observer endpoint settings.
type ServerConfig struct {
	Listen       string        `yaml:"listen" json:"listen"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// SimulationConfig holds world update settings.
type SimulationConfig struct {
	TickRate   int    `yaml:"tick_rate" json:"tick_rate"`
	Characters int    `yaml:"characters" json:"characters"`
	Scenario   string `yaml:"scenario" json:"scenario"`
	AnimSet    string `yaml:"anim_set" json:"anim_set"` // Path to anim set document; empty uses the built-in set
}

// RecordConfig holds session journal settings.
type RecordConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Dir       string `yaml:"dir" json:"dir"`
	IndexPath string `yaml:"index_path" json:"index_path"`
}

// Index returns the session index path, deriving one from the
// recording directory when none is configured.
func (r RecordConfig) Index() string {
	if r.IndexPath != "" {
		return r.IndexPath
	}
	return filepath.Join(r.Dir, "sessions.db")
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	LogFile    string `yaml:"log_file" json:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:       "127.0.0.1:7680",
			WriteTimeout: 10 * time.Second,
		},
		Simulation: SimulationConfig{
			TickRate:   60,
			Characters: 4,
			Scenario:   "turns",
			AnimSet:    "",
		},
		Record: RecordConfig{
			Enabled:   false,
			Dir:       "recordings",
			IndexPath: "",
		},
		Logging: LoggingConfig{
			Level:      "info",
			LogFile:    "",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}
