package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"shapeview/internal/config"
	"shapeview/internal/logger"
	"shapeview/internal/observability"
	"shapeview/internal/repair"
	"shapeview/internal/server"
	"shapeview/internal/session"
	"shapeview/internal/shapefile"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	addrFlag := flag.String("addr", "", "listen address (overrides ADDR)")
	flag.Parse()

	// optional .env for local development
	_ = godotenv.Load()

	cfg := config.FromEnv()
	if *addrFlag != "" {
		cfg.Addr = strings.TrimSpace(*addrFlag)
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Component: "shapeview",
	}, os.Stdout)

	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting shapeview",
		"addr", cfg.Addr,
		"version", Version,
		"scratch_dir", cfg.ScratchDir,
		"session_ttl", cfg.SessionTTL.String())

	loader := &shapefile.Loader{
		ScratchBase: cfg.ScratchDir,
		Repairer:    repair.New(),
		Log:         appLog,
	}
	store := session.NewStore(cfg.SessionTTL, cfg.RenderCacheSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go store.Run(ctx, cfg.SessionSweep, appLog)

	if err := server.Run(ctx, cfg, appLog, loader, store); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
