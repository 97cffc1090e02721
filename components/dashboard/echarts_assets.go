package dashboard

import (
	"os"
	"strings"
)

const (
	// DefaultEChartsAssetsHost serves the ECharts runtime and themes.
	DefaultEChartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"
	// EnvEChartsCDN overrides the assets host (e.g. a self-hosted bucket).
	EnvEChartsCDN = "MOZDADOS_ECHARTS_CDN"
)

// EChartsAssetsHost returns the configured assets host, respecting
// MOZDADOS_ECHARTS_CDN when set.
func EChartsAssetsHost() string {
	if host := strings.TrimSpace(os.Getenv(EnvEChartsCDN)); host != "" {
		return ensureTrailingSlash(host)
	}
	return DefaultEChartsAssetsHost
}

func ensureTrailingSlash(value string) string {
	if value == "" {
		return ""
	}
	if strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}
