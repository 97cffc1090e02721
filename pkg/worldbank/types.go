package worldbank

import (
	"bytes"
	"strconv"
	"strings"

	dashboard "github.com/mozdados/mozdados/components/dashboard"
)

// flexInt decodes integers the API sometimes sends as strings.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*n = flexInt(v)
	return nil
}

// flexFloat decodes numbers, numeric strings and null.
type flexFloat struct {
	Value *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		f.Value = nil
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		f.Value = nil
		return nil
	}
	f.Value = &v
	return nil
}

type pageMeta struct {
	Page    flexInt      `json:"page"`
	Pages   flexInt      `json:"pages"`
	PerPage flexInt      `json:"per_page"`
	Total   flexInt      `json:"total"`
	Message []apiMessage `json:"message"`
}

type apiMessage struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type idValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type topicItem struct {
	ID         string `json:"id"`
	Value      string `json:"value"`
	SourceNote string `json:"sourceNote"`
}

type indicatorItem struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	SourceNote string  `json:"sourceNote"`
	Source     idValue `json:"source"`
}

type countryItem struct {
	ID       string  `json:"id"`
	ISO2Code string  `json:"iso2Code"`
	Name     string  `json:"name"`
	Region   idValue `json:"region"`
}

type dataItem struct {
	Indicator       idValue   `json:"indicator"`
	Country         idValue   `json:"country"`
	CountryISO3Code string    `json:"countryiso3code"`
	Date            string    `json:"date"`
	Value           flexFloat `json:"value"`
}

// observation converts a data row. Rows without a yearly date are skipped.
func (d dataItem) observation(fallbackIndicator string) (dashboard.Observation, bool) {
	year, err := strconv.Atoi(strings.TrimSpace(d.Date))
	if err != nil {
		return dashboard.Observation{}, false
	}
	country := strings.TrimSpace(d.CountryISO3Code)
	if country == "" {
		country = strings.TrimSpace(d.Country.ID)
	}
	indicator := strings.TrimSpace(d.Indicator.ID)
	if indicator == "" {
		indicator = fallbackIndicator
	}
	return dashboard.Observation{
		CountryID:   country,
		IndicatorID: indicator,
		Year:        year,
		Value:       d.Value.Value,
	}, true
}
