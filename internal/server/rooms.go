package server

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"pokerroomd/internal/game"
)

// Room is one configured table and its engine.
type Room struct {
	ID     string
	Config game.Config
	Engine *game.Engine
}

// Rooms is the registry of rooms declared in config. It is built once
// at startup and never mutated, so lookups need no locking.
type Rooms struct {
	logger *log.Logger
	rooms  map[string]*Room
}

// NewRooms builds an engine per configured room, wired to the server's
// broadcaster and the shared store.
func NewRooms(configs []RoomConfig, srv *Server, st game.Store, logger *log.Logger) (*Rooms, error) {
	r := &Rooms{
		logger: logger.WithPrefix("rooms"),
		rooms:  make(map[string]*Room, len(configs)),
	}
	for _, rc := range configs {
		cfg := rc.GameConfig()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		r.rooms[rc.ID] = &Room{
			ID:     rc.ID,
			Config: cfg,
			Engine: game.New(rc.ID, cfg, srv.RoomBroadcaster(rc.ID), st, logger),
		}
		r.logger.Info("room configured",
			"room", rc.ID,
			"small_blind", cfg.SmallBlind,
			"big_blind", cfg.BigBlind,
			"max_seats", cfg.MaxSeats)
	}
	return r, nil
}

// Get retrieves a room by ID, or nil.
func (r *Rooms) Get(id string) *Room {
	return r.rooms[id]
}

// IDs returns the room IDs in sorted order.
func (r *Rooms) IDs() []string {
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns per-room occupancy summaries for room_list.
func (r *Rooms) List(ctx context.Context) []RoomInfo {
	infos := make([]RoomInfo, 0, len(r.rooms))
	for _, id := range r.IDs() {
		room := r.rooms[id]
		info := RoomInfo{
			ID:         room.ID,
			MaxSeats:   room.Config.MaxSeats,
			SmallBlind: room.Config.SmallBlind,
			BigBlind:   room.Config.BigBlind,
		}
		if snap, err := room.Engine.Snapshot(ctx, ""); err == nil {
			info.Players = len(snap.Players)
			info.State = snap.State
			info.HandNumber = snap.HandNumber
		}
		infos = append(infos, info)
	}
	return infos
}

// Run drives every room engine until ctx is cancelled.
func (r *Rooms) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, room := range r.rooms {
		room := room
		g.Go(func() error {
			return room.Engine.Run(ctx)
		})
	}
	return g.Wait()
}
