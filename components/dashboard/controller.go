package dashboard

import (
	"context"
	"errors"
	"io"
	"net/url"
)

const (
	defaultLocalTemplate     = "local.html"
	defaultWorldBankTemplate = "worldbank.html"
	defaultBasePath          = "/mozdados"
)

type layoutResolver interface {
	LocalLayout(ctx context.Context, viewer ViewerContext, req LocalRequest) (Layout, error)
	WorldBankLayout(ctx context.Context, viewer ViewerContext, req PanelRequest, sessionID string) (Layout, error)
}

// ControllerOptions configures the HTML controller.
type ControllerOptions struct {
	Service           layoutResolver
	Renderer          Renderer
	LocalTemplate     string
	WorldBankTemplate string
	BasePath          string
}

// Controller renders the dashboards for HTTP transports.
type Controller struct {
	opts ControllerOptions
}

// NewController wires the service into a controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.LocalTemplate == "" {
		opts.LocalTemplate = defaultLocalTemplate
	}
	if opts.WorldBankTemplate == "" {
		opts.WorldBankTemplate = defaultWorldBankTemplate
	}
	if opts.BasePath == "" {
		opts.BasePath = defaultBasePath
	}
	return &Controller{opts: opts}
}

// BasePath returns the path prefix the dashboards are mounted on.
func (c *Controller) BasePath() string {
	return c.opts.BasePath
}

// LocalPayload resolves the local layout into the template payload.
func (c *Controller) LocalPayload(ctx context.Context, viewer ViewerContext, req LocalRequest) (map[string]any, error) {
	if c.opts.Service == nil {
		return nil, errors.New("dashboard: controller requires a service")
	}
	layout, err := c.opts.Service.LocalLayout(ctx, viewer, req)
	if err != nil {
		return nil, err
	}
	payload := c.payload(layout, EncodeLocalQuery(req))
	payload["export_base"] = c.opts.BasePath + "/local/export?" + payloadQuery(EncodeLocalQuery(req))
	return payload, nil
}

// WorldBankPayload resolves the World Bank layout into the template payload.
// Failures are reported on the page with a generic message.
func (c *Controller) WorldBankPayload(ctx context.Context, viewer ViewerContext, req PanelRequest, sessionID string) (map[string]any, error) {
	if c.opts.Service == nil {
		return nil, errors.New("dashboard: controller requires a service")
	}
	layout, err := c.opts.Service.WorldBankLayout(ctx, viewer, req, sessionID)
	if err != nil {
		layout.Errors = append(layout.Errors, GenericErrorMessage())
		layout.Areas = nil
	}
	query := EncodePanelQuery(req)
	payload := c.payload(layout, query)
	payload["export_base"] = c.opts.BasePath + "/worldbank/export?" + payloadQuery(query)
	payload["session_id"] = sessionFromLayout(layout, sessionID)
	return payload, nil
}

// RenderLocal writes the local dashboard page.
func (c *Controller) RenderLocal(ctx context.Context, viewer ViewerContext, req LocalRequest, out io.Writer) error {
	payload, err := c.LocalPayload(ctx, viewer, req)
	if err != nil {
		return err
	}
	return c.render(c.opts.LocalTemplate, payload, out)
}

// RenderWorldBank writes the World Bank dashboard page. Notices are shown
// with the page errors, e.g. a failed chat turn.
func (c *Controller) RenderWorldBank(ctx context.Context, viewer ViewerContext, req PanelRequest, sessionID string, out io.Writer, notices ...string) error {
	payload, err := c.WorldBankPayload(ctx, viewer, req, sessionID)
	if err != nil {
		return err
	}
	if len(notices) > 0 {
		errs, _ := payload["errors"].([]string)
		payload["errors"] = append(append([]string(nil), errs...), notices...)
	}
	return c.render(c.opts.WorldBankTemplate, payload, out)
}

func (c *Controller) render(name string, payload map[string]any, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("dashboard: controller requires a renderer")
	}
	_, err := c.opts.Renderer.Render(name, payload, out)
	return err
}

func (c *Controller) payload(layout Layout, query url.Values) map[string]any {
	return map[string]any{
		"layout":    layout,
		"title":     layout.Title,
		"caption":   layout.Caption,
		"warning":   layout.Warning,
		"errors":    layout.Errors,
		"areas":     layout.Areas,
		"filters":   layout.Filters,
		"base_path": c.opts.BasePath,
		"query":     query.Encode(),
	}
}

func payloadQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	return values.Encode() + "&"
}

// sessionFromLayout returns the chat session bound to the rendered layout.
func sessionFromLayout(layout Layout, fallback string) string {
	area, ok := layout.Area(AreaAssistant)
	if !ok {
		return fallback
	}
	for _, widget := range area.Widgets {
		data, ok := widget.Metadata["data"].(WidgetData)
		if !ok {
			continue
		}
		if id, ok := data["session_id"].(string); ok && id != "" {
			return id
		}
	}
	return fallback
}
