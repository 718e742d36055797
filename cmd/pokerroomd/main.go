package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"pokerroomd/internal/server"
	"pokerroomd/internal/store"
)

var CLI struct {
	Config   string `short:"c" default:"pokerroomd.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Listen address host:port (overrides config)"`
	Driver   string `help:"Database driver, sqlite3 or postgres (overrides config)"`
	DSN      string `help:"Database DSN (overrides config)"`
	LogLevel string `short:"l" help:"Log level: debug, info, warn, error (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.Addr != "" {
		host, port, err := splitAddr(CLI.Addr)
		if err != nil {
			fmt.Printf("Invalid addr: %v\n", err)
			kctx.Exit(1)
		}
		cfg.Server.Address = host
		cfg.Server.Port = port
	}
	if CLI.Driver != "" {
		cfg.Storage.Driver = CLI.Driver
	}
	if CLI.DSN != "" {
		cfg.Storage.DSN = CLI.DSN
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	logger.Info("Starting pokerroomd",
		"addr", cfg.ListenAddress(),
		"rooms", len(cfg.Rooms),
		"driver", cfg.Storage.Driver)

	st, err := store.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		kctx.Exit(1)
	}
	defer st.Close()

	srv := server.NewServer(cfg.ListenAddress(), logger)
	if cfg.Metrics.Enabled {
		srv.SetMetrics(server.NewMetrics(), cfg.Metrics.Path)
	}

	rooms, err := server.NewRooms(cfg.Rooms, srv, st, logger)
	if err != nil {
		logger.Error("Failed to build rooms", "error", err)
		kctx.Exit(1)
	}
	srv.SetRooms(rooms)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigc
		logger.Info("Shutting down", "signal", sig)
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rooms.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		kctx.Exit(1)
	}
	logger.Info("Shutdown complete")
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	return host, port, nil
}
