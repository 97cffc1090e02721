package dashboard

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/mozdados/mozdados/components/dashboard"
)

func TestNewDefaults(t *testing.T) {
	bundle, err := New(Config{DataPath: filepath.Join(t.TempDir(), "none.xlsx")})
	require.NoError(t, err)
	t.Cleanup(func() { bundle.Close() })

	assert.Nil(t, bundle.Store)
	_, inMemory := bundle.Sessions.(*core.InMemorySessionStore)
	assert.True(t, inMemory)
	_, sweeps := bundle.Sessions.(core.SessionSweeper)
	assert.True(t, sweeps)
	require.Len(t, bundle.Tabs, 4)
	assert.Equal(t, "saude", bundle.Tabs[0].Code)
	assert.NotNil(t, bundle.Executor())
	assert.Equal(t, "/mozdados", bundle.Controller(nil).BasePath())
}

func TestNewWithManifestAndStore(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "tabs.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("version: 1\ntabs:\n  - name: Energia\n    columns: [Consumo]\n"), 0o600))
	data := filepath.Join(dir, "dados.csv")
	require.NoError(t, os.WriteFile(data, []byte("Mês,Consumo,Outro\n2024-01-01,10,1\n2024-02-01,12,2\n"), 0o600))

	bundle, err := New(Config{
		DataPath:     data,
		ManifestPath: manifest,
		ChatDBPath:   filepath.Join(dir, "chat", "sessions.db"),
		BasePath:     "/painel",
	})
	require.NoError(t, err)
	t.Cleanup(func() { bundle.Close() })

	require.NotNil(t, bundle.Store)
	assert.Same(t, bundle.Store, bundle.Sessions)
	require.Len(t, bundle.Tabs, 1)
	assert.Equal(t, "energia", bundle.Tabs[0].Code)
	assert.Equal(t, "/painel", bundle.Controller(nil).BasePath())

	layout, err := bundle.Service.LocalLayout(context.Background(), core.ViewerContext{}, core.LocalRequest{})
	require.NoError(t, err)
	_, ok := layout.Area("energia")
	assert.True(t, ok)
}

func TestNewRejectsBadManifest(t *testing.T) {
	_, err := New(Config{ManifestPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
