package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const fixtureTable = ` #125
země|měna|množství|kód|kurz
EMU|euro|1|EUR|25,105
USA|dolar|1|USD|22,266
Maďarsko|forint|100|HUF|6,360
`

func fixtureServer(t *testing.T, publishedDate string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Write([]byte(publishedDate + fixtureTable))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testClient(srv *httptest.Server) *Client {
	return &Client{sourceURL: srv.URL, httpClient: srv.Client()}
}

func TestFetchDay_ParsesTable(t *testing.T) {
	day := time.Date(2026, 6, 26, 0, 0, 0, 0, time.UTC)
	srv := fixtureServer(t, "26.06.2026", nil)

	table, err := testClient(srv).FetchDay(context.Background(), day)
	if err != nil {
		t.Fatalf("FetchDay: %v", err)
	}
	if got := table["EUR"]; !got.Equal(decimal.RequireFromString("25.105")) {
		t.Fatalf("EUR expected 25.105, got %s", got)
	}
	// quoted per 100 units
	if got := table["HUF"]; !got.Equal(decimal.RequireFromString("0.0636")) {
		t.Fatalf("HUF expected 0.0636, got %s", got)
	}
}

func TestFetchDay_RejectsWrongDate(t *testing.T) {
	day := time.Date(2026, 6, 28, 0, 0, 0, 0, time.UTC)
	srv := fixtureServer(t, "26.06.2026", nil)

	if _, err := testClient(srv).FetchDay(context.Background(), day); err == nil {
		t.Fatal("expected error for mismatched table date")
	}
}

func TestProviderRate_BaseCurrencyNeedsNoFetch(t *testing.T) {
	var hits atomic.Int64
	srv := fixtureServer(t, "26.06.2026", &hits)
	provider := NewProvider(testClient(srv), NewCache(t.TempDir()), nil)

	rate, err := provider.Rate(context.Background(), "CZK", time.Now())
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if !rate.Equal(decimal.New(1, 0)) {
		t.Fatalf("CZK rate expected 1, got %s", rate)
	}
	if hits.Load() != 0 {
		t.Fatalf("base currency should not hit the source, got %d requests", hits.Load())
	}
}

func TestProviderRate_FallsBackToPreviousDay(t *testing.T) {
	// source only ever publishes Friday's table; a Sunday request must walk
	// back to it
	srv := fixtureServer(t, "26.06.2026", nil)
	provider := NewProvider(testClient(srv), NewCache(t.TempDir()), nil)

	sunday := time.Date(2026, 6, 28, 0, 0, 0, 0, time.UTC)
	rate, err := provider.Rate(context.Background(), "EUR", sunday)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("25.105")) {
		t.Fatalf("EUR expected 25.105, got %s", rate)
	}
}

func TestProviderRate_ExhaustedFallbackFails(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	provider := NewProvider(testClient(srv), NewCache(t.TempDir()), nil)

	_, err := provider.Rate(context.Background(), "EUR", time.Date(2026, 6, 28, 0, 0, 0, 0, time.UTC))
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Attempts != maxFallbackDays+1 {
		t.Fatalf("expected %d attempts, got %d", maxFallbackDays+1, fetchErr.Attempts)
	}
	if hits.Load() != int64(maxFallbackDays+1) {
		t.Fatalf("expected %d requests, got %d", maxFallbackDays+1, hits.Load())
	}
}

func TestProviderRate_DiskCacheSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2026, 6, 26, 0, 0, 0, 0, time.UTC)

	var hits atomic.Int64
	srv := fixtureServer(t, "26.06.2026", &hits)
	provider := NewProvider(testClient(srv), NewCache(dir), nil)
	if _, err := provider.Rate(context.Background(), "EUR", day); err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one source request, got %d", hits.Load())
	}

	// fresh cache over the same directory, source must stay untouched
	restarted := NewProvider(testClient(srv), NewCache(dir), nil)
	rate, err := restarted.Rate(context.Background(), "USD", day)
	if err != nil {
		t.Fatalf("Rate after restart: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("22.266")) {
		t.Fatalf("USD expected 22.266, got %s", rate)
	}
	if hits.Load() != 1 {
		t.Fatalf("disk cache miss caused extra request, got %d", hits.Load())
	}
}

func TestConvertAndCrossRate(t *testing.T) {
	srv := fixtureServer(t, "26.06.2026", nil)
	provider := NewProvider(testClient(srv), NewCache(t.TempDir()), nil)
	ctx := context.Background()
	day := time.Date(2026, 6, 26, 0, 0, 0, 0, time.UTC)

	// 100 EUR in CZK
	got, err := provider.Convert(ctx, decimal.RequireFromString("100"), "EUR", "CZK", day)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("2510.5")) {
		t.Fatalf("100 EUR expected 2510.5 CZK, got %s", got)
	}

	// price of one EUR in USD
	cross, err := provider.CrossRate(ctx, "USD", "EUR", day)
	if err != nil {
		t.Fatalf("CrossRate: %v", err)
	}
	expected := decimal.RequireFromString("25.105").Div(decimal.RequireFromString("22.266"))
	if !cross.Equal(expected) {
		t.Fatalf("CrossRate expected %s, got %s", expected, cross)
	}
}
