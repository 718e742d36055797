package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"pokerroomd/internal/game"
)

// Config is the complete daemon configuration.
type Config struct {
	Server  *ServerSettings  `hcl:"server,block"`
	Storage *StorageSettings `hcl:"storage,block"`
	Metrics *MetricsSettings `hcl:"metrics,block"`
	Rooms   []RoomConfig     `hcl:"room,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// StorageSettings selects the hand history database.
type StorageSettings struct {
	Driver string `hcl:"driver,optional"`
	DSN    string `hcl:"dsn,optional"`
}

// MetricsSettings controls prometheus exposure.
type MetricsSettings struct {
	Enabled bool   `hcl:"enabled,optional"`
	Path    string `hcl:"path,optional"`
}

// RoomConfig declares one room.
type RoomConfig struct {
	ID                string `hcl:"id,label"`
	SmallBlind        int    `hcl:"small_blind,optional"`
	BigBlind          int    `hcl:"big_blind,optional"`
	StartingStack     int    `hcl:"starting_stack,optional"`
	TurnSeconds       int    `hcl:"turn_seconds,optional"`
	MaxSeats          int    `hcl:"max_seats,optional"`
	MinPlayers        int    `hcl:"min_players,optional"`
	InterHandPauseSec int    `hcl:"inter_hand_pause_seconds,optional"`
}

// GameConfig converts a room declaration to engine config, filling
// unset fields from the engine defaults.
func (rc RoomConfig) GameConfig() game.Config {
	cfg := game.DefaultConfig()
	if rc.SmallBlind != 0 {
		cfg.SmallBlind = rc.SmallBlind
	}
	if rc.BigBlind != 0 {
		cfg.BigBlind = rc.BigBlind
	}
	if rc.StartingStack != 0 {
		cfg.StartingStack = rc.StartingStack
	}
	if rc.TurnSeconds != 0 {
		cfg.TurnSeconds = rc.TurnSeconds
	}
	if rc.MaxSeats != 0 {
		cfg.MaxSeats = rc.MaxSeats
	}
	if rc.MinPlayers != 0 {
		cfg.MinPlayers = rc.MinPlayers
	}
	if rc.InterHandPauseSec != 0 {
		cfg.InterHandPause = time.Duration(rc.InterHandPauseSec) * time.Second
	}
	return cfg
}

// DefaultConfig returns the configuration used when no file is given:
// one default room on sqlite.
func DefaultConfig() *Config {
	cfg := &Config{
		Rooms: []RoomConfig{{ID: "main"}},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.Storage == nil {
		c.Storage = &StorageSettings{}
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite3"
	}
	if c.Storage.DSN == "" {
		c.Storage.DSN = "pokerroomd.db"
	}

	if c.Metrics == nil {
		c.Metrics = &MetricsSettings{Enabled: true}
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if len(c.Rooms) == 0 {
		c.Rooms = []RoomConfig{{ID: "main"}}
	}
}

// LoadConfig loads configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Storage.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	if len(c.Rooms) == 0 {
		return fmt.Errorf("at least one room must be configured")
	}
	seen := make(map[string]bool, len(c.Rooms))
	for _, room := range c.Rooms {
		if room.ID == "" {
			return fmt.Errorf("room id must not be empty")
		}
		if seen[room.ID] {
			return fmt.Errorf("duplicate room id %q", room.ID)
		}
		seen[room.ID] = true
		if err := room.GameConfig().Validate(); err != nil {
			return fmt.Errorf("room %s: %w", room.ID, err)
		}
	}

	return nil
}

// ListenAddress returns the host:port the server binds.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
