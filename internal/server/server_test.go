package server

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/shopspring/decimal"

    "transportquote/internal/quote"
    "transportquote/internal/rate"
)

func testRates() *rate.Table {
    return rate.NewTable([]rate.Row{
        {Origin: "Abu Dhabi", Destination: "Dubai", TruckType: "Flatbed", General: decimal.NewNullDecimal(decimal.RequireFromString("100.00"))},
        {Origin: "*", Destination: "Dubai", TruckType: "Flatbed", General: decimal.NewNullDecimal(decimal.RequireFromString("90.00"))},
        {Origin: "Dubai", Destination: "Sharjah", TruckType: "Box", General: decimal.NewNullDecimal(decimal.RequireFromString("40.00")), Chemical: decimal.NewNullDecimal(decimal.RequireFromString("52.50"))},
    })
}

func testHandler() http.Handler {
    return NewWithRates(nil, testRates(), quote.DefaultPolicy())
}

func TestHealthz(t *testing.T) {
    h := New(nil)
    req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    if body := rr.Body.String(); body != "ok" {
        t.Fatalf("expected body 'ok', got %q", body)
    }
}

func TestRequestIDHeaderPresent(t *testing.T) {
    h := New(nil)
    req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rid := rr.Header().Get("X-Request-ID"); rid == "" {
        t.Fatalf("expected X-Request-ID header to be set")
    }

    req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
    req.Header.Set("X-Request-ID", "abc-123")
    rr = httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rid := rr.Header().Get("X-Request-ID"); rid != "abc-123" {
        t.Fatalf("expected propagated request id, got %q", rid)
    }
}

func TestGetRate(t *testing.T) {
    h := testHandler()
    tests := []struct {
        name  string
        query string
        found bool
        price string
        tier  string
    }{
        {"exact", "origin=abu_dhabi&destination=DUBAI&truck_type=flat+bed", true, "100.00", "exact"},
        {"wildcard origin", "origin=Al+Ain&destination=Dubai&truck_type=flatbed", true, "90.00", "any_origin"},
        {"chemical", "origin=Dubai&destination=Sharjah&truck_type=curtainside&cargo_type=chemical", true, "52.50", "exact"},
        {"unpriced", "origin=Dubai&destination=Ajman&truck_type=flatbed", false, "", ""},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            req := httptest.NewRequest(http.MethodGet, "/rates?"+tt.query, nil)
            rr := httptest.NewRecorder()
            h.ServeHTTP(rr, req)
            if rr.Code != http.StatusOK {
                t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
            }
            var res RateResponse
            if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
                t.Fatalf("failed to unmarshal: %v", err)
            }
            if res.Found != tt.found || res.Price != tt.price || res.Tier != tt.tier || res.Currency != "AED" {
                t.Fatalf("unexpected response: %+v", res)
            }
        })
    }
}

func TestGetRateTable(t *testing.T) {
    h := testHandler()
    req := httptest.NewRequest(http.MethodGet, "/rates/table", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    var res RateTableResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
        t.Fatalf("failed to unmarshal: %v", err)
    }
    if res.Count != 3 || len(res.Rates) != 3 {
        t.Fatalf("unexpected table: %+v", res)
    }
    first := res.Rates[0]
    if first.Origin != "*" || first.GeneralPrice == nil || *first.GeneralPrice != "90.00" || first.ChemicalPrice != nil {
        t.Fatalf("unexpected first entry: %+v", first)
    }
}

func TestDecodeStoredLists(t *testing.T) {
    var res StoredQuotationResponse
    err := decodeStoredLists(`["Dubai",""]`, `[{"description":"Flatbed x1: Abu Dhabi > Dubai","truck_type":"flatbed","quantity":1,"priced_legs":1,"unit_rate":"100.00","amount":"100.00"}]`, &res)
    if err != nil {
        t.Fatalf("decodeStoredLists: %v", err)
    }
    if len(res.Stops) != 2 || len(res.LineItems) != 1 || res.LineItems[0].Amount != "100.00" {
        t.Fatalf("unexpected decode: %+v", res)
    }

    var empty StoredQuotationResponse
    if err := decodeStoredLists("null", "null", &empty); err != nil {
        t.Fatalf("decodeStoredLists(null): %v", err)
    }
    if empty.Stops == nil || empty.LineItems == nil {
        t.Fatalf("expected empty lists, got %+v", empty)
    }

    for _, tc := range []struct{ stops, items string }{
        {`{"not":"a list"}`, `[]`},
        {`[]`, `[{"quantity":"many"}]`},
        {`[`, `[]`},
    } {
        var r StoredQuotationResponse
        if err := decodeStoredLists(tc.stops, tc.items, &r); err == nil {
            t.Errorf("decodeStoredLists(%q, %q) should fail", tc.stops, tc.items)
        }
    }
}
