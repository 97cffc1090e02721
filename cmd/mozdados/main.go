package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/mozdados/mozdados/internal/config"
)

type cli struct {
	EnvFile  []string `name:"env-file" type:"path" help:"Dotenv files to load before reading the environment." default:".env"`
	LogLevel string   `name:"log-level" env:"LOG_LEVEL" help:"Log level (debug, info, warn, error)."`

	Serve    serveCmd    `cmd:"" help:"Serve the local and World Bank dashboards over HTTP."`
	Export   exportCmd   `cmd:"" help:"Write a dashboard table to a CSV or Excel file."`
	Catalog  catalogCmd  `cmd:"" help:"Search World Bank topics, indicators or countries."`
	Manifest manifestCmd `cmd:"" help:"Create or check the local dashboard tab manifest."`
}

// runtime is bound into every command Run method.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	var root cli
	parser := kong.Parse(&root,
		kong.Name("mozdados"),
		kong.Description("Mozambique indicator dashboards: local spreadsheet and World Bank panels."),
		kong.UsageOnError(),
	)
	cfg, err := config.Load(root.EnvFile...)
	parser.FatalIfErrorf(err)
	if root.LogLevel != "" {
		cfg.LogLevel = root.LogLevel
		parser.FatalIfErrorf(cfg.Validate())
	}
	logger := config.NewLogger(cfg.Level())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	parser.BindTo(ctx, (*context.Context)(nil))
	err = parser.Run(&runtime{cfg: cfg, logger: logger})
	stop()
	if err != nil {
		logger.Error("mozdados: command failed", "command", parser.Command(), "error", err)
		os.Exit(1)
	}
}
