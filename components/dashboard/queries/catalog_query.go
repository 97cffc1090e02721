package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/mozdados/mozdados/components/dashboard"
)

const defaultSearchLimit = 50

// CatalogSearchInput filters one catalog list by name.
type CatalogSearchInput struct {
	Kind  string
	Term  string
	Limit int
	// TopicID narrows indicator searches to one topic.
	TopicID string
}

type catalogService interface {
	Catalog(ctx context.Context) (dashboard.Catalog, error)
	Indicators(ctx context.Context, topicID string) ([]dashboard.CatalogEntry, error)
}

// CatalogSearchQuery looks up countries, indicators and topics.
type CatalogSearchQuery struct {
	service catalogService
}

// NewCatalogSearchQuery builds the query.
func NewCatalogSearchQuery(service catalogService) *CatalogSearchQuery {
	return &CatalogSearchQuery{service: service}
}

var _ gocommand.Querier[CatalogSearchInput, []dashboard.CatalogEntry] = (*CatalogSearchQuery)(nil)

// Query searches the requested list. A zero limit uses the default page size.
func (q *CatalogSearchQuery) Query(ctx context.Context, input CatalogSearchInput) ([]dashboard.CatalogEntry, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	catalog, err := q.service.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if input.Kind == dashboard.CatalogIndicators && input.TopicID != "" {
		entries, err := q.service.Indicators(ctx, input.TopicID)
		if err != nil {
			return nil, err
		}
		catalog = dashboard.NewCatalog(catalog.Topics, entries, catalog.Countries)
	}
	return catalog.Search(input.Kind, input.Term, limit)
}
