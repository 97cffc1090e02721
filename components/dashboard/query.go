package dashboard

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Query parameter names shared by the transports.
const (
	ParamStart      = "start"
	ParamEnd        = "end"
	ParamCountries  = "countries"
	ParamIndicators = "indicators"
	ParamStartYear  = "start_year"
	ParamEndYear    = "end_year"
	ParamFormat     = "format"
	ParamTab        = "tab"
	ParamSession    = "session"

	// ParamFiltered marks a submitted filter form: absent lists then mean
	// an empty selection instead of the default one.
	ParamFiltered = "filtered"
	listSeparator = ";"
)

// ParseLocalQuery reads the local dashboard filters. Each tab code is a
// list parameter holding its selected columns; an absent parameter keeps
// the tab default while a present empty one selects nothing.
func ParseLocalQuery(values url.Values, tabs []TabDefinition) (LocalRequest, error) {
	submitted := values.Get(ParamFiltered) != ""
	req := LocalRequest{Selections: map[string][]string{}}
	var err error
	if req.Start, err = parseDateParam(values, ParamStart); err != nil {
		return LocalRequest{}, err
	}
	if req.End, err = parseDateParam(values, ParamEnd); err != nil {
		return LocalRequest{}, err
	}
	for _, tab := range tabs {
		if list, ok := listParam(values, tab.Code); ok {
			req.Selections[tab.Code] = list
		} else if submitted {
			req.Selections[tab.Code] = []string{}
		}
	}
	return req, nil
}

// EncodeLocalQuery is the inverse of ParseLocalQuery.
func EncodeLocalQuery(req LocalRequest) url.Values {
	values := url.Values{}
	if req.Start != nil {
		values.Set(ParamStart, req.Start.Format(time.DateOnly))
	}
	if req.End != nil {
		values.Set(ParamEnd, req.End.Format(time.DateOnly))
	}
	codes := make([]string, 0, len(req.Selections))
	for code := range req.Selections {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if req.Selections[code] != nil {
			values.Set(code, strings.Join(req.Selections[code], listSeparator))
		}
	}
	return values
}

// ParsePanelQuery reads the World Bank dashboard filters. Absent lists are
// left nil so NormalizePanelRequest applies the defaults.
func ParsePanelQuery(values url.Values) (PanelRequest, error) {
	var req PanelRequest
	submitted := values.Get(ParamFiltered) != ""
	if list, ok := listParam(values, ParamCountries); ok || submitted {
		req.Countries = nonNil(list)
	}
	if list, ok := listParam(values, ParamIndicators); ok || submitted {
		req.Indicators = nonNil(list)
	}
	var err error
	if req.StartYear, err = intParam(values, ParamStartYear); err != nil {
		return PanelRequest{}, err
	}
	if req.EndYear, err = intParam(values, ParamEndYear); err != nil {
		return PanelRequest{}, err
	}
	return req, nil
}

// EncodePanelQuery is the inverse of ParsePanelQuery.
func EncodePanelQuery(req PanelRequest) url.Values {
	values := url.Values{}
	if req.Countries != nil {
		values.Set(ParamCountries, strings.Join(req.Countries, listSeparator))
	}
	if req.Indicators != nil {
		values.Set(ParamIndicators, strings.Join(req.Indicators, listSeparator))
	}
	if req.StartYear != 0 {
		values.Set(ParamStartYear, strconv.Itoa(req.StartYear))
	}
	if req.EndYear != 0 {
		values.Set(ParamEndYear, strconv.Itoa(req.EndYear))
	}
	return values
}

// QueryKeys lists every parameter the dashboards read, for transports that
// expose single query values only.
func QueryKeys(tabs []TabDefinition) []string {
	keys := []string{ParamStart, ParamEnd, ParamFiltered, ParamCountries, ParamIndicators,
		ParamStartYear, ParamEndYear, ParamFormat, ParamTab, ParamSession}
	for _, tab := range tabs {
		keys = append(keys, tab.Code)
	}
	return keys
}

// ParseRawQuery parses a raw query string splitting pairs on '&' only, so
// ';' separated lists survive. Malformed escapes are reported.
func ParseRawQuery(raw string) (url.Values, error) {
	values := url.Values{}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, fmt.Errorf("dashboard: invalid query key %q: %w", key, err)
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("dashboard: invalid query value for %q: %w", k, err)
		}
		values.Add(k, v)
	}
	return values, nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// listParam accepts both repeated parameters and a single ';' separated value.
func listParam(values url.Values, key string) ([]string, bool) {
	raw, ok := values[key]
	if !ok {
		return nil, false
	}
	out := []string{}
	for _, item := range raw {
		for _, part := range strings.Split(item, listSeparator) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out, true
}

func parseDateParam(values url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("dashboard: invalid %s date %q: %w", key, raw, err)
	}
	return &t, nil
}

func intParam(values url.Values, key string) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("dashboard: invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}
