package queries

import (
	"context"
	"testing"

	dashboard "github.com/mozdados/mozdados/components/dashboard"
)

type stubLayoutService struct {
	localCalls     int
	worldBankCalls int
	lastSession    string
}

func (s *stubLayoutService) LocalLayout(context.Context, dashboard.ViewerContext, dashboard.LocalRequest) (dashboard.Layout, error) {
	s.localCalls++
	return dashboard.Layout{Title: "local"}, nil
}

func (s *stubLayoutService) WorldBankLayout(_ context.Context, _ dashboard.ViewerContext, _ dashboard.PanelRequest, sessionID string) (dashboard.Layout, error) {
	s.worldBankCalls++
	s.lastSession = sessionID
	return dashboard.Layout{Title: "world bank"}, nil
}

type stubCatalogService struct {
	topicCalls []string
}

func (s *stubCatalogService) Catalog(context.Context) (dashboard.Catalog, error) {
	return dashboard.NewCatalog(
		nil,
		[]dashboard.CatalogEntry{{ID: "NY.GDP", Name: "GDP (current US$)"}, {ID: "FP.CPI", Name: "Inflation, consumer prices"}},
		[]dashboard.CatalogEntry{{ID: "MOZ", Name: "Mozambique"}, {ID: "MWI", Name: "Malawi"}},
	), nil
}

func (s *stubCatalogService) Indicators(_ context.Context, topicID string) ([]dashboard.CatalogEntry, error) {
	s.topicCalls = append(s.topicCalls, topicID)
	return []dashboard.CatalogEntry{{ID: "AG.LND", Name: "Agricultural land (sq. km)"}}, nil
}

func TestLocalLayoutQuery(t *testing.T) {
	service := &stubLayoutService{}
	query := NewLocalLayoutQuery(service)
	layout, err := query.Query(context.Background(), LocalLayoutInput{})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.localCalls != 1 || layout.Title != "local" {
		t.Fatalf("expected 1 call, got %d", service.localCalls)
	}
}

func TestWorldBankLayoutQuery(t *testing.T) {
	service := &stubLayoutService{}
	query := NewWorldBankLayoutQuery(service)
	_, err := query.Query(context.Background(), WorldBankLayoutInput{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.worldBankCalls != 1 || service.lastSession != "s1" {
		t.Fatalf("expected session to be forwarded, got %q", service.lastSession)
	}
}

func TestCatalogSearchQuery(t *testing.T) {
	service := &stubCatalogService{}
	query := NewCatalogSearchQuery(service)

	entries, err := query.Query(context.Background(), CatalogSearchInput{Kind: dashboard.CatalogCountries, Term: "moz"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "MOZ" {
		t.Fatalf("unexpected entries %#v", entries)
	}

	entries, err = query.Query(context.Background(), CatalogSearchInput{Kind: dashboard.CatalogIndicators, TopicID: "1"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(service.topicCalls) != 1 || len(entries) != 1 || entries[0].ID != "AG.LND" {
		t.Fatalf("expected topic indicators, got %#v", entries)
	}

	if _, err := query.Query(context.Background(), CatalogSearchInput{Kind: "regions"}); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
