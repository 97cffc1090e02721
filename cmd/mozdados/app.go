package main

import (
	"log/slog"

	"github.com/mozdados/mozdados/internal/config"
	mozdados "github.com/mozdados/mozdados/pkg/dashboard"
)

func newApp(cfg *config.Config, logger *slog.Logger) (*mozdados.Bundle, error) {
	return mozdados.New(mozdados.Config{
		DataPath:     cfg.DataPath,
		ManifestPath: cfg.ManifestPath,
		BasePath:     cfg.BasePath,
		WorldBankURL: cfg.WorldBankURL,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		EChartsCDN:   cfg.EChartsCDN,
		ChatDBPath:   cfg.ChatDBPath,
		CacheTTL:     cfg.CacheTTL,
		Logger:       logger,
	})
}
