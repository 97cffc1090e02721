package dashboard

import (
	"fmt"
	"sort"
	"strings"
)

// Catalog kinds accepted by Catalog.Search.
const (
	CatalogTopics     = "topics"
	CatalogIndicators = "indicators"
	CatalogCountries  = "countries"
)

// Catalog bundles the indicator source lists, sorted by display name, with
// name to id lookups. When two entries share a name the later one wins.
type Catalog struct {
	Topics     []CatalogEntry `json:"topics"`
	Indicators []CatalogEntry `json:"indicators"`
	Countries  []CatalogEntry `json:"countries"`

	countryIDs   map[string]string
	indicatorIDs map[string]string
}

// NewCatalog indexes and sorts the lists.
func NewCatalog(topics, indicators, countries []CatalogEntry) Catalog {
	c := Catalog{
		countryIDs:   nameIndex(countries),
		indicatorIDs: nameIndex(indicators),
	}
	c.Topics = sortedByName(topics)
	c.Indicators = sortedByName(indicators)
	c.Countries = sortedByName(countries)
	return c
}

// CountryID returns the id of the named country.
func (c Catalog) CountryID(name string) (string, bool) {
	id, ok := c.countryIDs[name]
	return id, ok
}

// IndicatorID returns the id of the named indicator.
func (c Catalog) IndicatorID(name string) (string, bool) {
	id, ok := c.indicatorIDs[name]
	return id, ok
}

// ResolveCountries maps display names to ids, keeping selection order.
func (c Catalog) ResolveCountries(names []string) (NamedSelection, error) {
	return resolveNames(names, c.countryIDs, ErrUnknownCountry)
}

// ResolveIndicators maps display names to ids, keeping selection order.
func (c Catalog) ResolveIndicators(names []string) (NamedSelection, error) {
	return resolveNames(names, c.indicatorIDs, ErrUnknownIndicator)
}

// Search returns up to limit entries of kind whose name or id contains term,
// case insensitively. A non positive limit returns every match.
func (c Catalog) Search(kind, term string, limit int) ([]CatalogEntry, error) {
	var list []CatalogEntry
	switch kind {
	case CatalogTopics:
		list = c.Topics
	case CatalogIndicators:
		list = c.Indicators
	case CatalogCountries:
		list = c.Countries
	default:
		return nil, fmt.Errorf("dashboard: unknown catalog %q", kind)
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	var out []CatalogEntry
	for _, entry := range list {
		if needle != "" &&
			!strings.Contains(strings.ToLower(entry.Name), needle) &&
			!strings.Contains(strings.ToLower(entry.ID), needle) {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func resolveNames(names []string, index map[string]string, unknown error) (NamedSelection, error) {
	sel := NamedSelection{IDs: make([]string, 0, len(names)), Names: make([]string, 0, len(names))}
	for _, name := range names {
		id, ok := index[name]
		if !ok {
			return NamedSelection{}, fmt.Errorf("%w: %s", unknown, name)
		}
		sel.IDs = append(sel.IDs, id)
		sel.Names = append(sel.Names, name)
	}
	return sel, nil
}

func nameIndex(entries []CatalogEntry) map[string]string {
	index := make(map[string]string, len(entries))
	for _, entry := range entries {
		index[entry.Name] = entry.ID
	}
	return index
}

func sortedByName(entries []CatalogEntry) []CatalogEntry {
	out := append([]CatalogEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
