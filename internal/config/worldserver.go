package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// WorldServer holds all configuration for the world server.
type WorldServer struct {
	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
	DebugAI  bool   `yaml:"debug_ai"`  // per-tick AI decision logging

	// Simulation
	TickIntervalMS int     `yaml:"tick_interval_ms"` // AI decision cadence
	CellSize       float64 `yaml:"cell_size"`        // spatial grid cell edge

	// Data files
	RelationshipsPath string `yaml:"relationships_path"`
	TemplatesPath     string `yaml:"templates_path"`
	SpawnsPath        string `yaml:"spawns_path"`
	WatchData         bool   `yaml:"watch_data"` // hot-reload the relationship file

	// Inspection endpoint
	Inspect InspectConfig `yaml:"inspect"`

	// Database. Disabled means the server runs fully in-memory.
	Database DatabaseConfig `yaml:"database"`
}

// InspectConfig holds the debug HTTP/WebSocket endpoint settings.
type InspectConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
}

// Addr returns the listen address.
func (i InspectConfig) Addr() string {
	return fmt.Sprintf("%s:%d", i.BindAddress, i.Port)
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// TickInterval returns the AI tick cadence as a duration.
func (c WorldServer) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// DefaultWorldServer returns WorldServer config with sensible defaults.
func DefaultWorldServer() WorldServer {
	return WorldServer{
		LogLevel:          "info",
		TickIntervalMS:    200,
		CellSize:          16,
		RelationshipsPath: "data/relationships.yaml",
		TemplatesPath:     "data/templates.yaml",
		SpawnsPath:        "data/spawns.yaml",
		WatchData:         true,
		Inspect: InspectConfig{
			Enabled:     true,
			BindAddress: "127.0.0.1",
			Port:        8089,
		},
		Database: DatabaseConfig{
			Enabled:  false,
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "ravenfell",
			Password: "ravenfell",
			DBName:   "ravenfell",
			SSLMode:  "disable",
		},
	}
}

// LoadWorldServer loads world server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadWorldServer(path string) (WorldServer, error) {
	cfg := DefaultWorldServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
