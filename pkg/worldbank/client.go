package worldbank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	dashboard "github.com/mozdados/mozdados/components/dashboard"
)

const (
	// DefaultBaseURL is the public v2 endpoint of the World Bank open-data API.
	DefaultBaseURL = "https://api.worldbank.org/v2"
	// WDISource is the World Development Indicators database id.
	WDISource = "2"

	defaultPerPage  = 1000
	aggregateRegion = "NA"
	maxPages        = 100
)

// ErrRemote is wrapped by failures reported inside a 200 response envelope.
var ErrRemote = errors.New("worldbank: remote error")

// Config configures the API client.
type Config struct {
	BaseURL    string
	PerPage    int
	HTTPClient *http.Client
}

// Client talks to the World Bank indicators API.
type Client struct {
	baseURL string
	perPage int
	client  *http.Client
}

var _ dashboard.IndicatorSource = (*Client)(nil)

// NewClient builds a client. Zero values fall back to the public endpoint.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, perPage: perPage, client: httpClient}
}

// Topics lists the catalog topics.
func (c *Client) Topics(ctx context.Context) ([]dashboard.CatalogEntry, error) {
	var out []dashboard.CatalogEntry
	err := c.each(ctx, "/topic", nil, func(raw json.RawMessage) error {
		var items []topicItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}
		for _, item := range items {
			out = append(out, dashboard.CatalogEntry{
				ID:   strings.TrimSpace(item.ID),
				Name: strings.TrimSpace(item.Value),
				Note: strings.TrimSpace(item.SourceNote),
			})
		}
		return nil
	})
	return out, err
}

// Indicators lists the WDI indicators of topicID, or every WDI indicator
// when topicID is empty.
func (c *Client) Indicators(ctx context.Context, topicID string) ([]dashboard.CatalogEntry, error) {
	path := "/indicator"
	params := url.Values{"source": {WDISource}}
	if topicID = strings.TrimSpace(topicID); topicID != "" {
		path = "/topic/" + url.PathEscape(topicID) + "/indicator"
		params = nil
	}
	var out []dashboard.CatalogEntry
	err := c.each(ctx, path, params, func(raw json.RawMessage) error {
		var items []indicatorItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}
		for _, item := range items {
			if item.Source.ID != "" && item.Source.ID != WDISource {
				continue
			}
			out = append(out, dashboard.CatalogEntry{
				ID:   strings.TrimSpace(item.ID),
				Name: strings.TrimSpace(item.Name),
				Note: strings.TrimSpace(item.SourceNote),
			})
		}
		return nil
	})
	return out, err
}

// Countries lists economies. Regional and income aggregates are flagged.
func (c *Client) Countries(ctx context.Context) ([]dashboard.CatalogEntry, error) {
	var out []dashboard.CatalogEntry
	err := c.each(ctx, "/country", nil, func(raw json.RawMessage) error {
		var items []countryItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}
		for _, item := range items {
			out = append(out, dashboard.CatalogEntry{
				ID:        strings.TrimSpace(item.ID),
				Name:      strings.TrimSpace(item.Name),
				Aggregate: strings.TrimSpace(item.Region.ID) == aggregateRegion,
			})
		}
		return nil
	})
	return out, err
}

// Observations fetches yearly values for every country and indicator of query.
// The API accepts one indicator per request, so indicators are fetched in turn.
func (c *Client) Observations(ctx context.Context, query dashboard.ObservationQuery) ([]dashboard.Observation, error) {
	if len(query.Countries) == 0 {
		return nil, dashboard.ErrNoCountries
	}
	if len(query.Indicators) == 0 {
		return nil, dashboard.ErrNoIndicators
	}
	escaped := make([]string, len(query.Countries))
	for i, id := range query.Countries {
		escaped[i] = url.PathEscape(id)
	}
	countries := strings.Join(escaped, ";")
	params := url.Values{"source": {WDISource}}
	if query.StartYear > 0 && query.EndYear > 0 {
		params.Set("date", fmt.Sprintf("%d:%d", query.StartYear, query.EndYear))
	}
	var out []dashboard.Observation
	for _, indicator := range query.Indicators {
		path := "/country/" + countries + "/indicator/" + url.PathEscape(indicator)
		err := c.each(ctx, path, params, func(raw json.RawMessage) error {
			var items []dataItem
			if err := json.Unmarshal(raw, &items); err != nil {
				return err
			}
			for _, item := range items {
				obs, ok := item.observation(indicator)
				if ok {
					out = append(out, obs)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// each walks every page of path and hands the data part of each page to fn.
func (c *Client) each(ctx context.Context, path string, params url.Values, fn func(json.RawMessage) error) error {
	for page := 1; page <= maxPages; page++ {
		var envelope []json.RawMessage
		if err := c.get(ctx, path, pageParams(params, page, c.perPage), &envelope); err != nil {
			return err
		}
		meta, data, err := splitEnvelope(envelope)
		if err != nil {
			return fmt.Errorf("worldbank: %s: %w", path, err)
		}
		if len(data) > 0 && string(data) != "null" {
			if err := fn(data); err != nil {
				return fmt.Errorf("worldbank: decode %s: %w", path, err)
			}
		}
		if int(meta.Page) >= int(meta.Pages) {
			return nil
		}
	}
	return fmt.Errorf("worldbank: %s: more than %d pages", path, maxPages)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, target any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("worldbank: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("worldbank: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("worldbank: remote error %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("worldbank: decode response: %w", err)
	}
	return nil
}

func pageParams(base url.Values, page, perPage int) url.Values {
	params := url.Values{}
	for key, values := range base {
		params[key] = append([]string(nil), values...)
	}
	params.Set("format", "json")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	return params
}

// splitEnvelope separates the paging header from the data array. Errors come
// back as a single element array holding a message list.
func splitEnvelope(envelope []json.RawMessage) (pageMeta, json.RawMessage, error) {
	if len(envelope) == 0 {
		return pageMeta{}, nil, fmt.Errorf("%w: empty response", ErrRemote)
	}
	var meta pageMeta
	if err := json.Unmarshal(envelope[0], &meta); err != nil {
		return pageMeta{}, nil, fmt.Errorf("decode paging header: %w", err)
	}
	if len(meta.Message) > 0 {
		parts := make([]string, 0, len(meta.Message))
		for _, msg := range meta.Message {
			parts = append(parts, strings.TrimSpace(msg.Key+" "+msg.Value))
		}
		return pageMeta{}, nil, fmt.Errorf("%w: %s", ErrRemote, strings.Join(parts, "; "))
	}
	if len(envelope) < 2 {
		return meta, nil, nil
	}
	return meta, envelope[1], nil
}
