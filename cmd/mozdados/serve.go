package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	"github.com/mozdados/mozdados/components/dashboard"
	"github.com/mozdados/mozdados/components/dashboard/commands"
	"github.com/mozdados/mozdados/components/dashboard/gorouter"
)

type serveCmd struct {
	Addr     string `help:"Listen address." env:"MOZDADOS_ADDR"`
	Data     string `help:"Local spreadsheet (.xlsx or .csv)." type:"path" env:"MOZDADOS_DATA"`
	Manifest string `help:"Tab manifest YAML." type:"path" env:"MOZDADOS_MANIFEST"`
	ChatDB   string `name:"chat-db" help:"SQLite file for chat sessions; empty keeps them in memory." env:"MOZDADOS_CHAT_DB"`
	Warm     bool   `help:"Load the spreadsheet and World Bank catalog before serving."`
}

func (c *serveCmd) Run(ctx context.Context, rt *runtime) error {
	cfg := *rt.cfg
	overrideString(&cfg.Addr, c.Addr)
	overrideString(&cfg.DataPath, c.Data)
	overrideString(&cfg.ManifestPath, c.Manifest)
	overrideString(&cfg.ChatDBPath, c.ChatDB)
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := newApp(&cfg, rt.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	executor := a.Executor()
	if c.Warm {
		if err := executor.Refresh(ctx, commands.RefreshDataInput{Warm: true}); err != nil {
			rt.logger.Warn("mozdados: warm caches", "error", err)
		}
	}
	if sweeper, ok := a.Sessions.(dashboard.SessionSweeper); ok && cfg.ChatTTL > 0 {
		go sweepSessions(ctx, rt.logger, sweeper, cfg.ChatTTL)
	}

	renderer, err := dashboard.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("template renderer: %w", err)
	}
	controller := a.Controller(renderer)

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:     server.Router(),
		Controller: controller,
		API:        executor,
		Tabs:       a.Tabs,
	}); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	rt.logger.Info("mozdados: serving",
		"addr", cfg.Addr,
		"local", cfg.BasePath+"/local",
		"worldbank", cfg.BasePath+"/worldbank",
		"chat_store", chatStoreLabel(cfg.ChatDBPath),
	)
	return serveUntilDone(ctx, rt.logger, server, cfg.Addr, shutdownTimeout)
}

const shutdownTimeout = 10 * time.Second

type httpServer interface {
	Serve(address string) error
	Shutdown(ctx context.Context) error
}

// serveUntilDone serves addr until the server fails or ctx is cancelled,
// then shuts the server down within timeout.
func serveUntilDone(ctx context.Context, logger *slog.Logger, server httpServer, addr string, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("mozdados: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		logger.Warn("mozdados: server stopped", "error", err)
	}
	logger.Info("mozdados: stopped")
	return nil
}

// sweepSessions removes idle chat sessions until ctx is done.
func sweepSessions(ctx context.Context, logger *slog.Logger, store dashboard.SessionSweeper, ttl time.Duration) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupExpired(ctx, ttl)
			if err != nil {
				logger.Warn("mozdados: cleanup chat sessions", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("mozdados: cleaned chat sessions", "removed", removed)
			}
		}
	}
}

func chatStoreLabel(path string) string {
	if path == "" {
		return "memory"
	}
	return path
}

func overrideString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
