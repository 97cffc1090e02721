package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegistersDefaultDefinitions(t *testing.T) {
	reg := NewRegistry()

	defs := reg.Definitions()
	require.Len(t, defs, len(defaultWidgetDefinitions))
	for i := 1; i < len(defs); i++ {
		assert.Less(t, defs[i-1].Code, defs[i].Code)
	}
	_, ok := reg.Definition(WidgetChat)
	assert.True(t, ok)
}

func TestRegistryRejectsUnknownProvider(t *testing.T) {
	reg := NewRegistry()
	noop := ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) { return nil, nil })

	assert.Error(t, reg.RegisterProvider("mozdados.widget.unknown", noop))
	assert.Error(t, reg.RegisterProvider(WidgetAbout, nil))
	assert.Error(t, reg.RegisterDefinition(WidgetDefinition{}))
	require.NoError(t, reg.RegisterProvider(WidgetAbout, noop))

	_, ok := reg.Provider(WidgetAbout)
	assert.True(t, ok)
}

func TestRegistryCheckTabs(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterProviders(reg, nil))
	assert.NoError(t, reg.CheckTabs(DefaultTabs()))

	require.NoError(t, reg.RegisterDefinition(WidgetDefinition{Code: "mozdados.widget.gauge", Name: "Gauge"}))
	err := reg.CheckTabs([]TabDefinition{
		{Code: "energia", Widgets: []string{WidgetKPICards, "mozdados.widget.gauge"}},
		{Code: "agua", Widgets: []string{"mozdados.widget.map"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `energia: widget "mozdados.widget.gauge" has no provider`)
	assert.Contains(t, err.Error(), `agua: unknown widget "mozdados.widget.map"`)
}
