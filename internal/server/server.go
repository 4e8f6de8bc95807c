package server

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "net/http"
    "strings"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/google/uuid"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/shopspring/decimal"

    "transportquote/internal/quote"
    "transportquote/internal/rate"
)

const currency = "AED"

type Server struct {
    db     *pgxpool.Pool
    rates  *rate.Table
    policy quote.Policy
    calc   *quote.Calculator
    now    func() time.Time
}

// New returns a handler with an empty rate table and the default policy.
func New(db *pgxpool.Pool) http.Handler {
    return NewWithRates(db, nil, quote.DefaultPolicy())
}

// NewWithRates allows injecting the loaded rate table and pricing policy.
// db may be nil, in which case quotations are priced but not stored.
func NewWithRates(db *pgxpool.Pool, rates *rate.Table, policy quote.Policy) http.Handler {
    if rates == nil {
        rates = rate.NewTable(nil)
    }
    s := &Server{
        db:     db,
        rates:  rates,
        policy: policy,
        calc:   quote.NewCalculator(rates, policy),
        now:    time.Now,
    }
    r := chi.NewRouter()
    r.Use(requestIDMiddleware)
    r.Use(middleware.RealIP)
    r.Use(middleware.Logger)
    r.Use(middleware.Recoverer)
    r.Get("/healthz", s.handleHealth)
    r.Get("/rates", s.handleGetRate)
    r.Get("/rates/table", s.handleGetRateTable)
    r.Post("/quotations", s.handleCreateQuotation)
    r.Get("/quotations/{id}", s.handleGetQuotation)
    return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
    w.WriteHeader(http.StatusOK)
    w.Write([]byte("ok"))
}

// Rates
type RateResponse struct {
    Origin      string `json:"origin"`
    Destination string `json:"destination"`
    TruckType   string `json:"truck_type"`
    CargoType   string `json:"cargo_type"`
    Found       bool   `json:"found"`
    Price       string `json:"price,omitempty"`
    Tier        string `json:"tier,omitempty"`
    Currency    string `json:"currency"`
}

func (s *Server) handleGetRate(w http.ResponseWriter, r *http.Request) {
    q := r.URL.Query()
    origin := q.Get("origin")
    destination := q.Get("destination")
    truck := q.Get("truck_type")
    cargo := rate.ParseCargoType(q.Get("cargo_type"))
    if strings.TrimSpace(truck) == "" {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "truck_type required")
        return
    }

    res := RateResponse{
        Origin:      rate.NormalizeCity(origin),
        Destination: rate.NormalizeCity(destination),
        TruckType:   rate.NormalizeTruckType(truck),
        CargoType:   cargo.String(),
        Currency:    currency,
    }
    if m, ok := s.rates.Resolve(origin, destination, truck, cargo); ok {
        res.Found = true
        res.Price = quote.Money(m.Price)
        res.Tier = m.Tier.String()
    }
    writeJSON(w, http.StatusOK, res)
}

type RateTableEntry struct {
    Origin        string  `json:"origin"`
    Destination   string  `json:"destination"`
    TruckType     string  `json:"truck_type"`
    GeneralPrice  *string `json:"general_price"`
    ChemicalPrice *string `json:"chemical_price"`
}

type RateTableResponse struct {
    Count    int              `json:"count"`
    Currency string           `json:"currency"`
    Rates    []RateTableEntry `json:"rates"`
}

func (s *Server) handleGetRateTable(w http.ResponseWriter, r *http.Request) {
    rows := s.rates.Rows()
    res := RateTableResponse{Count: len(rows), Currency: currency, Rates: make([]RateTableEntry, 0, len(rows))}
    for _, row := range rows {
        res.Rates = append(res.Rates, RateTableEntry{
            Origin:        row.Origin,
            Destination:   row.Destination,
            TruckType:     row.TruckType,
            GeneralPrice:  moneyPtr(row.General),
            ChemicalPrice: moneyPtr(row.Chemical),
        })
    }
    writeJSON(w, http.StatusOK, res)
}

// Quotations
type LegResponse struct {
    From string `json:"from"`
    To   string `json:"to"`
}

type LineItemResponse struct {
    Description string `json:"description"`
    TruckType   string `json:"truck_type"`
    Quantity    int    `json:"quantity"`
    PricedLegs  int    `json:"priced_legs"`
    UnitRate    string `json:"unit_rate"`
    Amount      string `json:"amount"`
}

type RowResponse struct {
    Description string  `json:"description"`
    UnitRate    *string `json:"unit_rate,omitempty"`
    Amount      string  `json:"amount"`
}

type QuotationResponse struct {
    ID               string             `json:"id"`
    Reference        string             `json:"reference"`
    Date             string             `json:"date"`
    Origin           string             `json:"origin"`
    Destination      string             `json:"destination"`
    Stops            []string           `json:"stops"`
    TripType         string             `json:"trip_type"`
    TripTypeLabel    string             `json:"trip_type_label"`
    CargoType        string             `json:"cargo_type"`
    CargoTypeLabel   string             `json:"cargo_type_label"`
    CICPAPass        bool               `json:"cicpa_pass"`
    Email            string             `json:"email,omitempty"`
    Currency         string             `json:"currency"`
    Legs             []LegResponse      `json:"legs"`
    LineItems        []LineItemResponse `json:"line_items"`
    Rows             []RowResponse      `json:"rows"`
    TripTruckCount   int64              `json:"trip_truck_count"`
    Subtotal         string             `json:"subtotal"`
    EnvFee           string             `json:"env_fee"`
    EnvLevy          string             `json:"env_levy"`
    GrandTotal       string             `json:"grand_total"`
    GrandTotalFormat string             `json:"grand_total_display"`
    Stored           bool               `json:"stored"`
    CreatedAt        string             `json:"created_at"`
}

func (s *Server) handleCreateQuotation(w http.ResponseWriter, r *http.Request) {
    in, err := DecodeQuotationRequest(w, r)
    if err != nil {
        switch {
        case errors.Is(err, ErrUnsupportedMediaType):
            writeErrorJSON(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "body must be json or form encoded")
        case errors.Is(err, ErrInvalidForm):
            writeErrorJSON(w, http.StatusBadRequest, "invalid_form", "invalid form")
        default:
            writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
        }
        return
    }

    req := quote.Request{
        Origin:      in.Origin,
        Destination: in.Destination,
        Stops:       in.Stops,
        Trucks:      quote.NewTruckRequests(in.Trucks),
        Trip:        quote.ParseTripType(in.TripType),
        Cargo:       rate.ParseCargoType(in.CargoType),
    }
    q := s.calc.Compute(req)

    id := uuid.New()
    now := s.now().UTC()
    res := s.quotationResponse(id, now, in, req, q)

    if s.db != nil {
        if err := s.insertQuotation(r.Context(), res, q, now); err != nil {
            log.Println("insert quotation error:", err)
            writeErrorJSON(w, http.StatusInternalServerError, "db_error", "failed to store quotation")
            return
        }
        res.Stored = true
    }
    writeJSON(w, http.StatusCreated, res)
}

func (s *Server) quotationResponse(id uuid.UUID, now time.Time, in QuotationInput, req quote.Request, q quote.Quotation) QuotationResponse {
    res := QuotationResponse{
        ID:               id.String(),
        Reference:        reference(id, now),
        Date:             now.Format("02 January 2006"),
        Origin:           strings.TrimSpace(in.Origin),
        Destination:      strings.TrimSpace(in.Destination),
        Stops:            append([]string{}, req.Stops...),
        TripType:         req.Trip.String(),
        TripTypeLabel:    req.Trip.Label(),
        CargoType:        req.Cargo.String(),
        CargoTypeLabel:   req.Cargo.Label(),
        CICPAPass:        in.CICPAPass,
        Email:            in.Email,
        Currency:         currency,
        Legs:             make([]LegResponse, 0, len(q.Legs)),
        LineItems:        make([]LineItemResponse, 0, len(q.LineItems)),
        TripTruckCount:   q.TripTruckCount.IntPart(),
        Subtotal:         quote.Money(q.Subtotal),
        EnvFee:           quote.Money(q.EnvFee),
        EnvLevy:          quote.Money(q.EnvLevy),
        GrandTotal:       quote.Money(q.GrandTotal),
        GrandTotalFormat: quote.FormatAED(q.GrandTotal),
        CreatedAt:        now.Format(time.RFC3339),
    }
    for _, l := range q.Legs {
        res.Legs = append(res.Legs, LegResponse{From: l.From, To: l.To})
    }
    for _, li := range q.LineItems {
        res.LineItems = append(res.LineItems, LineItemResponse{
            Description: li.Description,
            TruckType:   li.TruckType,
            Quantity:    li.Quantity,
            PricedLegs:  li.PricedLegs,
            UnitRate:    quote.Money(li.UnitRate),
            Amount:      quote.Money(li.Amount),
        })
    }
    res.Rows = rowResponses(q.Rows(s.policy))
    return res
}

func rowResponses(rows []quote.Row) []RowResponse {
    out := make([]RowResponse, 0, len(rows))
    for _, row := range rows {
        out = append(out, RowResponse{
            Description: row.Description,
            UnitRate:    moneyPtr(row.UnitRate),
            Amount:      quote.Money(row.Amount),
        })
    }
    return out
}

// insertQuotation stores the issued quotation with full-precision totals.
func (s *Server) insertQuotation(ctx context.Context, res QuotationResponse, q quote.Quotation, createdAt time.Time) error {
    stops, err := json.Marshal(res.Stops)
    if err != nil {
        return err
    }
    items, err := json.Marshal(res.LineItems)
    if err != nil {
        return err
    }
    _, err = s.db.Exec(ctx, `
        INSERT INTO quotations (
            id, reference, origin, destination, stops, trip_type, cargo_type,
            cicpa_pass, email, line_items, subtotal, env_fee, env_levy, grand_total, created_at
        ) VALUES (
            $1, $2, $3, $4, $5::jsonb, $6, $7,
            $8, $9, $10::jsonb, $11::numeric, $12::numeric, $13::numeric, $14::numeric, $15
        )
    `,
        res.ID,
        res.Reference,
        res.Origin,
        res.Destination,
        string(stops),
        res.TripType,
        res.CargoType,
        res.CICPAPass,
        nullIfEmpty(res.Email),
        string(items),
        q.Subtotal.String(),
        q.EnvFee.String(),
        q.EnvLevy.String(),
        q.GrandTotal.String(),
        createdAt,
    )
    return err
}

type StoredQuotationResponse struct {
    ID          string             `json:"id"`
    Reference   string             `json:"reference"`
    Origin      string             `json:"origin"`
    Destination string             `json:"destination"`
    Stops       []string           `json:"stops"`
    TripType    string             `json:"trip_type"`
    CargoType   string             `json:"cargo_type"`
    CICPAPass   bool               `json:"cicpa_pass"`
    Email       string             `json:"email,omitempty"`
    Currency    string             `json:"currency"`
    LineItems   []LineItemResponse `json:"line_items"`
    Subtotal    string             `json:"subtotal"`
    EnvFee      string             `json:"env_fee"`
    EnvLevy     string             `json:"env_levy"`
    GrandTotal  string             `json:"grand_total"`
    CreatedAt   string             `json:"created_at"`
}

func (s *Server) handleGetQuotation(w http.ResponseWriter, r *http.Request) {
    raw := strings.TrimSpace(chi.URLParam(r, "id"))
    id, err := uuid.Parse(raw)
    if err != nil {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "id must be a uuid")
        return
    }
    if s.db == nil {
        writeErrorJSON(w, http.StatusServiceUnavailable, "storage_unavailable", "quotation storage is not configured")
        return
    }

    var (
        res                                   StoredQuotationResponse
        email                                 *string
        stops, items                          string
        subtotal, envFee, envLevy, grandTotal string
        createdAt                             time.Time
    )
    err = s.db.QueryRow(r.Context(), `
        SELECT id::text, reference, origin, destination, stops::text, trip_type, cargo_type,
               cicpa_pass, email, line_items::text,
               subtotal::text, env_fee::text, env_levy::text, grand_total::text, created_at
        FROM quotations
        WHERE id = $1
    `, id).Scan(
        &res.ID, &res.Reference, &res.Origin, &res.Destination, &stops, &res.TripType, &res.CargoType,
        &res.CICPAPass, &email, &items,
        &subtotal, &envFee, &envLevy, &grandTotal, &createdAt,
    )
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            writeErrorJSON(w, http.StatusNotFound, "resource_not_found", "quotation not found")
            return
        }
        log.Println("get quotation error:", err)
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }
    if email != nil {
        res.Email = *email
    }
    if err := decodeStoredLists(stops, items, &res); err != nil {
        log.Println("get quotation error:", err)
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "stored quotation is corrupt")
        return
    }
    res.Currency = currency
    res.Subtotal = moneyString(subtotal)
    res.EnvFee = moneyString(envFee)
    res.EnvLevy = moneyString(envLevy)
    res.GrandTotal = moneyString(grandTotal)
    res.CreatedAt = createdAt.UTC().Format(time.RFC3339)
    writeJSON(w, http.StatusOK, res)
}

// decodeStoredLists fills the JSONB stops and line items of a stored quotation.
func decodeStoredLists(stops, items string, res *StoredQuotationResponse) error {
    if err := json.Unmarshal([]byte(stops), &res.Stops); err != nil {
        return fmt.Errorf("decode stops: %w", err)
    }
    if err := json.Unmarshal([]byte(items), &res.LineItems); err != nil {
        return fmt.Errorf("decode line items: %w", err)
    }
    if res.Stops == nil {
        res.Stops = []string{}
    }
    if res.LineItems == nil {
        res.LineItems = []LineItemResponse{}
    }
    return nil
}

// reference builds a human-facing quotation number such as TQ-20261019-1A2B3C4D.
func reference(id uuid.UUID, t time.Time) string {
    return "TQ-" + t.Format("20060102") + "-" + strings.ToUpper(id.String()[:8])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    if err := json.NewEncoder(w).Encode(v); err != nil {
        log.Println("encode response error:", err)
    }
}

// writeErrorJSON writes a standardized JSON error response:
// {"error": {"code": string, "message": string}}
func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
    writeJSON(w, status, map[string]any{
        "error": map[string]string{
            "code":    code,
            "message": message,
        },
    })
}

// requestIDMiddleware ensures X-Request-ID is set on the response.
// If provided in the request header, it is propagated; otherwise a UUID is generated.
func requestIDMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
        if rid == "" {
            rid = uuid.New().String()
        }
        w.Header().Set("X-Request-ID", rid)
        next.ServeHTTP(w, r)
    })
}

func moneyPtr(d decimal.NullDecimal) *string {
    if !d.Valid {
        return nil
    }
    s := quote.Money(d.Decimal)
    return &s
}

// moneyString reformats a numeric column; unparseable values pass through.
func moneyString(s string) string {
    d, err := decimal.NewFromString(s)
    if err != nil {
        return s
    }
    return quote.Money(d)
}

func nullIfEmpty(s string) *string {
    if strings.TrimSpace(s) == "" {
        return nil
    }
    return &s
}

func orDefault(s, d string) string {
    if strings.TrimSpace(s) == "" {
        return d
    }
    return s
}
