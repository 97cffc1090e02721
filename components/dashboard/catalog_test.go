package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCatalog() Catalog {
	return NewCatalog(
		[]CatalogEntry{{ID: "1", Name: "Agriculture & Rural Development"}},
		[]CatalogEntry{
			{ID: "NY.GDP.MKTP.CD", Name: "GDP (current US$)"},
			{ID: "AG.LND.AGRI.K2", Name: "Agricultural land (sq. km)"},
			{ID: "AG.LND.AGRI.K2.OLD", Name: "Agricultural land (sq. km)"},
		},
		[]CatalogEntry{
			{ID: "MOZ", Name: "Mozambique"},
			{ID: "AGO", Name: "Angola"},
			{ID: "SSF", Name: "Sub-Saharan Africa", Aggregate: true},
		},
	)
}

func TestCatalogSortsAndIndexes(t *testing.T) {
	t.Parallel()
	catalog := sampleCatalog()

	assert.Equal(t, "Angola", catalog.Countries[0].Name)
	assert.Equal(t, "Agricultural land (sq. km)", catalog.Indicators[0].Name)

	id, ok := catalog.IndicatorID("Agricultural land (sq. km)")
	require.True(t, ok)
	assert.Equal(t, "AG.LND.AGRI.K2.OLD", id, "later duplicates win")

	_, ok = catalog.CountryID("Atlantis")
	assert.False(t, ok)
}

func TestCatalogResolve(t *testing.T) {
	t.Parallel()
	catalog := sampleCatalog()

	sel, err := catalog.ResolveCountries([]string{"Mozambique", "Angola"})
	require.NoError(t, err)
	assert.Equal(t, []string{"MOZ", "AGO"}, sel.IDs)
	assert.Equal(t, []string{"Mozambique", "Angola"}, sel.Names)

	_, err = catalog.ResolveCountries([]string{"Atlantis"})
	assert.ErrorIs(t, err, ErrUnknownCountry)

	_, err = catalog.ResolveIndicators([]string{"PIB"})
	assert.ErrorIs(t, err, ErrUnknownIndicator)
}

func TestCatalogSearch(t *testing.T) {
	t.Parallel()
	catalog := sampleCatalog()

	got, err := catalog.Search(CatalogCountries, "an", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = catalog.Search(CatalogIndicators, "ny.gdp", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "GDP (current US$)", got[0].Name)

	all, err := catalog.Search(CatalogTopics, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = catalog.Search("regions", "", 0)
	assert.Error(t, err)
}
