package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pokerroomd.hcl")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "localhost", cfg.Server.Address)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "localhost:8080", cfg.ListenAddress())
	require.Equal(t, "sqlite3", cfg.Storage.Driver)
	require.Equal(t, "pokerroomd.db", cfg.Storage.DSN)
	require.True(t, cfg.Metrics.Enabled)
	require.Equal(t, "/metrics", cfg.Metrics.Path)
	require.Len(t, cfg.Rooms, 1)
	require.Equal(t, "main", cfg.Rooms[0].ID)
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
server {
  address   = "0.0.0.0"
  port      = 9090
  log_level = "debug"
}

storage {
  driver = "postgres"
  dsn    = "postgres://localhost/poker?sslmode=disable"
}

metrics {
  enabled = true
  path    = "/stats"
}

room "high" {
  small_blind              = 50
  big_blind                = 100
  starting_stack           = 10000
  turn_seconds             = 15
  max_seats                = 6
  min_players              = 3
  inter_hand_pause_seconds = 5
}

room "low" {
  small_blind = 10
  big_blind   = 20
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "0.0.0.0:9090", cfg.ListenAddress())
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "postgres", cfg.Storage.Driver)
	require.Equal(t, "/stats", cfg.Metrics.Path)
	require.Len(t, cfg.Rooms, 2)

	high := cfg.Rooms[0].GameConfig()
	require.Equal(t, 50, high.SmallBlind)
	require.Equal(t, 100, high.BigBlind)
	require.Equal(t, 10000, high.StartingStack)
	require.Equal(t, 15, high.TurnSeconds)
	require.Equal(t, 6, high.MaxSeats)
	require.Equal(t, 3, high.MinPlayers)
	require.Equal(t, 5*time.Second, high.InterHandPause)

	low := cfg.Rooms[1].GameConfig()
	require.Equal(t, 10, low.SmallBlind)
	require.Equal(t, 20, low.BigBlind)
	require.Equal(t, 1500, low.StartingStack)
	require.Equal(t, 30, low.TurnSeconds)
	require.Equal(t, 10, low.MaxSeats)
	require.Equal(t, 2, low.MinPlayers)
}

func TestLoadConfigBadSyntax(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `server {`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse")
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 99999 }},
		{"bad driver", func(c *Config) { c.Storage.Driver = "mysql" }},
		{"no rooms", func(c *Config) { c.Rooms = nil }},
		{"empty room id", func(c *Config) { c.Rooms = []RoomConfig{{ID: ""}} }},
		{"duplicate room id", func(c *Config) {
			c.Rooms = []RoomConfig{{ID: "main"}, {ID: "main"}}
		}},
		{"blinds inverted", func(c *Config) {
			c.Rooms = []RoomConfig{{ID: "main", SmallBlind: 30}}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
