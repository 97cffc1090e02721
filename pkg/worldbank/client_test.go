package worldbank

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	dashboard "github.com/mozdados/mozdados/components/dashboard"
)

func TestClientTopics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/topic" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Fatalf("expected json format, got %q", got)
		}
		fmt.Fprint(w, `[{"page":1,"pages":1,"per_page":"1000","total":2},
			[{"id":"1","value":"Agriculture & Rural Development  ","sourceNote":"Farms"},
			 {"id":"5","value":"Energy & Mining","sourceNote":""}]]`)
	}))
	t.Cleanup(server.Close)

	topics, err := NewClient(Config{BaseURL: server.URL}).Topics(context.Background())
	if err != nil {
		t.Fatalf("topics: %v", err)
	}
	if len(topics) != 2 || topics[0].Name != "Agriculture & Rural Development" || topics[1].ID != "5" {
		t.Fatalf("unexpected topics: %#v", topics)
	}
}

func TestClientPaginates(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.URL.Query().Get("source"); got != WDISource {
			t.Fatalf("expected WDI source, got %q", got)
		}
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `[{"page":1,"pages":2,"per_page":1,"total":2},[{"id":"AG.LND.TOTL.K2","name":"Agricultural land (sq. km)","source":{"id":"2","value":"WDI"}}]]`)
		case "2":
			fmt.Fprint(w, `[{"page":"2","pages":"2","per_page":1,"total":2},[{"id":"X.ONLY","name":"Other source","source":{"id":"11","value":"Africa"}},{"id":"NY.GDP.MKTP.CD","name":"GDP (current US$)","source":{"id":"2","value":"WDI"}}]]`)
		default:
			t.Fatalf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	t.Cleanup(server.Close)

	indicators, err := NewClient(Config{BaseURL: server.URL, PerPage: 1}).Indicators(context.Background(), "")
	if err != nil {
		t.Fatalf("indicators: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected two page requests, got %d", calls)
	}
	if len(indicators) != 2 || indicators[1].ID != "NY.GDP.MKTP.CD" {
		t.Fatalf("expected non WDI rows dropped, got %#v", indicators)
	}
}

func TestClientTopicIndicatorsPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/topic/5/indicator" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `[{"page":1,"pages":1},[{"id":"EG.USE.ELEC.KH.PC","name":"Electric power consumption","source":{"id":"2"}}]]`)
	}))
	t.Cleanup(server.Close)

	indicators, err := NewClient(Config{BaseURL: server.URL}).Indicators(context.Background(), "5")
	if err != nil {
		t.Fatalf("indicators: %v", err)
	}
	if len(indicators) != 1 {
		t.Fatalf("unexpected indicators: %#v", indicators)
	}
}

func TestClientCountriesFlagsAggregates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"page":1,"pages":1},[
			{"id":"MOZ","iso2Code":"MZ","name":"Mozambique","region":{"id":"SSF","value":"Sub-Saharan Africa"}},
			{"id":"AFE","iso2Code":"ZH","name":"Africa Eastern and Southern","region":{"id":"NA","value":"Aggregates"}}]]`)
	}))
	t.Cleanup(server.Close)

	countries, err := NewClient(Config{BaseURL: server.URL}).Countries(context.Background())
	if err != nil {
		t.Fatalf("countries: %v", err)
	}
	if len(countries) != 2 || countries[0].Aggregate || !countries[1].Aggregate {
		t.Fatalf("unexpected countries: %#v", countries)
	}
}

func TestClientObservations(t *testing.T) {
	seen := map[string]bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[r.URL.Path] = true
		if got := r.URL.Query().Get("date"); got != "2019:2020" {
			t.Fatalf("expected date range, got %q", got)
		}
		switch r.URL.Path {
		case "/country/MOZ;ZAF/indicator/SP.POP.TOTL":
			fmt.Fprint(w, `[{"page":1,"pages":1},[
				{"indicator":{"id":"SP.POP.TOTL"},"country":{"id":"MZ"},"countryiso3code":"MOZ","date":"2020","value":31178239},
				{"indicator":{"id":"SP.POP.TOTL"},"country":{"id":"MZ"},"countryiso3code":"MOZ","date":"2019","value":null},
				{"indicator":{"id":"SP.POP.TOTL"},"country":{"id":"ZA"},"countryiso3code":"ZAF","date":"2020","value":"59308690"}]]`)
		case "/country/MOZ;ZAF/indicator/NY.GDP.MKTP.CD":
			fmt.Fprint(w, `[{"page":1,"pages":0,"total":0},null]`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	obs, err := NewClient(Config{BaseURL: server.URL}).Observations(context.Background(), dashboard.ObservationQuery{
		Countries:  []string{"MOZ", "ZAF"},
		Indicators: []string{"SP.POP.TOTL", "NY.GDP.MKTP.CD"},
		StartYear:  2019,
		EndYear:    2020,
	})
	if err != nil {
		t.Fatalf("observations: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected one request per indicator, got %v", seen)
	}
	if len(obs) != 3 {
		t.Fatalf("expected three observations, got %#v", obs)
	}
	if obs[0].CountryID != "MOZ" || obs[0].Year != 2020 || obs[0].Value == nil || *obs[0].Value != 31178239 {
		t.Fatalf("unexpected first observation: %#v", obs[0])
	}
	if obs[1].Value != nil {
		t.Fatalf("expected null value preserved as missing, got %v", *obs[1].Value)
	}
	if obs[2].Value == nil || *obs[2].Value != 59308690 {
		t.Fatalf("expected string number decoded, got %#v", obs[2])
	}
}

func TestClientObservationsRequiresSelection(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"})
	_, err := client.Observations(context.Background(), dashboard.ObservationQuery{Indicators: []string{"x"}})
	if !errors.Is(err, dashboard.ErrNoCountries) {
		t.Fatalf("expected ErrNoCountries, got %v", err)
	}
	_, err = client.Observations(context.Background(), dashboard.ObservationQuery{Countries: []string{"MOZ"}})
	if !errors.Is(err, dashboard.ErrNoIndicators) {
		t.Fatalf("expected ErrNoIndicators, got %v", err)
	}
}

func TestClientErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"message":[{"id":"120","key":"Invalid value","value":"The provided parameter value is not valid"}]}]`)
	}))
	t.Cleanup(server.Close)

	_, err := NewClient(Config{BaseURL: server.URL}).Topics(context.Background())
	if !errors.Is(err, ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
}

func TestClientHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	_, err := NewClient(Config{BaseURL: server.URL}).Countries(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
}
