package dashboard

import "context"

// Provider fetches data required to render a widget instance.
type Provider interface {
	Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error)
}

// ProviderFunc adapts a function into a Provider.
type ProviderFunc func(ctx context.Context, meta WidgetContext) (WidgetData, error)

// Fetch calls f(ctx, meta).
func (f ProviderFunc) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	return f(ctx, meta)
}

// WidgetContext contains the metadata needed by providers.
type WidgetContext struct {
	Instance WidgetInstance
	Viewer   ViewerContext
	Frame    Frame
}

// Frame is the data a widget renders: either a slice of the local table for
// one tab or the reshaped World Bank panel.
type Frame struct {
	Local *LocalFrame
	Panel *PanelFrame
	Chat  *ChatFrame
}

// LocalFrame is the filtered local table for one tab.
type LocalFrame struct {
	Tab      TabDefinition
	Table    *IndicatorTable
	Selected []string
}

// PanelFrame is the reshaped panel with the selection that produced it.
type PanelFrame struct {
	Request    PanelRequest
	Panel      Panel
	SearchHint []string
}

// WidgetData is an opaque payload passed to templates.
type WidgetData map[string]any

// ChatFrame is the chat session shown next to the panel.
type ChatFrame struct {
	Session *ChatSession
	Notice  string
}
