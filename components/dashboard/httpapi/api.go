package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mozdados/mozdados/components/dashboard"
	"github.com/mozdados/mozdados/components/dashboard/commands"
	"github.com/mozdados/mozdados/components/dashboard/queries"
)

// Handlers exposes HTTP endpoints backed by shared commands.
type Handlers struct {
	API    Executor
	Tabs   []dashboard.TabDefinition
	Viewer func(*http.Request) dashboard.ViewerContext
}

// ChatResponse is returned after a successful chat turn.
type ChatResponse struct {
	SessionID string                  `json:"session_id"`
	Reply     string                  `json:"reply"`
	Messages  []dashboard.ChatMessage `json:"messages"`
}

type resetPayload struct {
	SessionID string `json:"session_id"`
}

type refreshPayload struct {
	Warm bool `json:"warm"`
}

func (h *Handlers) HandleLocalLayout(w http.ResponseWriter, r *http.Request) {
	values, err := dashboard.ParseRawQuery(r.URL.RawQuery)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req, err := dashboard.ParseLocalQuery(values, h.tabs())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	layout, err := h.API.LocalLayout(r.Context(), queries.LocalLayoutInput{Viewer: h.viewer(r), Request: req})
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (h *Handlers) HandleWorldBankLayout(w http.ResponseWriter, r *http.Request) {
	values, err := dashboard.ParseRawQuery(r.URL.RawQuery)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req, err := dashboard.ParsePanelQuery(values)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	layout, err := h.API.WorldBankLayout(r.Context(), queries.WorldBankLayoutInput{
		Viewer:    h.viewer(r),
		Request:   req,
		SessionID: values.Get(dashboard.ParamSession),
	})
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (h *Handlers) HandleLocalExport(w http.ResponseWriter, r *http.Request) {
	values, err := dashboard.ParseRawQuery(r.URL.RawQuery)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req, err := dashboard.ParseLocalQuery(values, h.tabs())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	format, err := dashboard.ParseExportFormat(values.Get(dashboard.ParamFormat))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	download, err := h.API.ExportLocal(r.Context(), req, values.Get(dashboard.ParamTab), format)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeDownload(w, download)
}

func (h *Handlers) HandleWorldBankExport(w http.ResponseWriter, r *http.Request) {
	values, err := dashboard.ParseRawQuery(r.URL.RawQuery)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req, err := dashboard.ParsePanelQuery(values)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	format, err := dashboard.ParseExportFormat(values.Get(dashboard.ParamFormat))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	download, err := h.API.ExportPanel(r.Context(), req, format)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeDownload(w, download)
}

func (h *Handlers) HandleSendChat(w http.ResponseWriter, r *http.Request) {
	var payload dashboard.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var reply dashboard.ChatReply
	if err := h.API.SendChat(r.Context(), commands.SendChatInput{Request: payload, Result: &reply}); err != nil {
		writeJSON(w, StatusFor(err), map[string]string{"error": dashboard.ChatErrorMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, NewChatResponse(reply))
}

func (h *Handlers) HandleResetChat(w http.ResponseWriter, r *http.Request) {
	var payload resetPayload
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if payload.SessionID == "" {
		payload.SessionID = r.URL.Query().Get(dashboard.ParamSession)
	}
	if payload.SessionID == "" {
		writeError(w, http.StatusBadRequest, errors.New("session id is required"))
		return
	}
	if err := h.API.ResetChat(r.Context(), commands.ResetChatInput{SessionID: payload.SessionID}); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload refreshPayload
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if err := h.API.Refresh(r.Context(), commands.RefreshDataInput{Warm: payload.Warm}); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleCatalogSearch(w http.ResponseWriter, r *http.Request, kind string) {
	values := r.URL.Query()
	input, err := CatalogInput(kind, values.Get("q"), values.Get("limit"), values.Get("topic"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := h.API.SearchCatalog(r.Context(), input)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "entries": entries})
}

// NewChatResponse flattens a chat reply for clients.
func NewChatResponse(reply dashboard.ChatReply) ChatResponse {
	resp := ChatResponse{Reply: reply.Reply}
	if reply.Session != nil {
		resp.SessionID = reply.Session.ID
		resp.Messages = reply.Session.Messages
	}
	return resp
}

// CatalogInput builds a catalog search from raw query values.
func CatalogInput(kind, term, limit, topic string) (queries.CatalogSearchInput, error) {
	input := queries.CatalogSearchInput{Kind: kind, Term: term, TopicID: topic}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return input, fmt.Errorf("invalid limit %q", limit)
		}
		input.Limit = n
	}
	return input, nil
}

// StatusFor maps dashboard errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrEmptyPrompt),
		errors.Is(err, dashboard.ErrNoCountries),
		errors.Is(err, dashboard.ErrNoIndicators),
		errors.Is(err, dashboard.ErrUnknownCountry),
		errors.Is(err, dashboard.ErrUnknownIndicator):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrMissingAPIKey):
		return http.StatusUnauthorized
	case errors.Is(err, dashboard.ErrWorkbookNotFound):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrAssistantUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, errNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// ContentDisposition returns the attachment header for a download.
func ContentDisposition(download dashboard.Download) string {
	return fmt.Sprintf("attachment; filename=%q", download.FileName)
}

func (h *Handlers) tabs() []dashboard.TabDefinition {
	if len(h.Tabs) == 0 {
		return dashboard.DefaultTabs()
	}
	return h.Tabs
}

func (h *Handlers) viewer(r *http.Request) dashboard.ViewerContext {
	if h.Viewer != nil {
		return h.Viewer(r)
	}
	return dashboard.ViewerContext{Locale: r.Header.Get("Accept-Language")}
}

func writeDownload(w http.ResponseWriter, download dashboard.Download) {
	w.Header().Set("Content-Type", download.ContentType)
	w.Header().Set("Content-Disposition", ContentDisposition(download))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(download.Data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
