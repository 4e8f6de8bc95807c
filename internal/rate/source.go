package rate

import (
    "context"
    "encoding/csv"
    "errors"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "strings"

    "github.com/jackc/pgx/v5"
    "github.com/shopspring/decimal"
    "github.com/xuri/excelize/v2"
)

var (
    // ErrUnknownSource is returned by NewByName for an unsupported source name.
    ErrUnknownSource = errors.New("unknown rate source")
    // ErrNoHeader is returned when a rate sheet has no header row.
    ErrNoHeader = errors.New("rate sheet has no header row")
    // ErrMissingColumn is returned when a required column is absent from the header.
    ErrMissingColumn = errors.New("rate sheet is missing a required column")
)

// Source loads raw rate rows from wherever the rate sheet lives.
type Source interface {
    Load(ctx context.Context) ([]Row, error)
}

// Querier is the subset of pgxpool.Pool used by PostgresSource.
type Querier interface {
    Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// NewByName returns a Source by name: "csv", "xlsx" or "postgres". An empty
// name picks csv or xlsx from the file extension of path.
func NewByName(name, path, sheet string, db Querier) (Source, error) {
    n := strings.ToLower(strings.TrimSpace(name))
    if n == "" {
        switch strings.ToLower(filepath.Ext(path)) {
        case ".xlsx", ".xlsm":
            n = "xlsx"
        default:
            n = "csv"
        }
    }
    switch n {
    case "csv":
        return &CSVSource{Path: path}, nil
    case "xlsx", "excel":
        return &XLSXSource{Path: path, Sheet: sheet}, nil
    case "postgres", "pg", "db":
        if db == nil {
            return nil, fmt.Errorf("rate source %q: database pool is not configured", n)
        }
        return &PostgresSource{DB: db}, nil
    default:
        return nil, fmt.Errorf("rate source %q: %w", name, ErrUnknownSource)
    }
}

// LoadTable reads every row from src and builds the lookup table.
func LoadTable(ctx context.Context, src Source) (*Table, BuildStats, error) {
    rows, err := src.Load(ctx)
    if err != nil {
        return nil, BuildStats{}, err
    }
    b := NewBuilder()
    for _, r := range rows {
        b.Add(r)
    }
    t, stats := b.Build()
    return t, stats, nil
}

// CSVSource reads a comma-separated rate sheet with a header row.
type CSVSource struct {
    Path string
}

func (s *CSVSource) Load(ctx context.Context) ([]Row, error) {
    f, err := os.Open(s.Path)
    if err != nil {
        return nil, fmt.Errorf("load csv rates: %w", err)
    }
    defer f.Close()
    rows, err := ReadCSV(f)
    if err != nil {
        return nil, fmt.Errorf("load csv rates %q: %w", s.Path, err)
    }
    return rows, nil
}

// ReadCSV parses rate rows from CSV text.
func ReadCSV(r io.Reader) ([]Row, error) {
    reader := csv.NewReader(r)
    reader.TrimLeadingSpace = true
    reader.LazyQuotes = true
    reader.FieldsPerRecord = -1

    records, err := reader.ReadAll()
    if err != nil {
        return nil, fmt.Errorf("parse csv: %w", err)
    }
    return parseRecords(records)
}

// XLSXSource reads a rate sheet from an Excel workbook. An empty Sheet means the first sheet.
type XLSXSource struct {
    Path  string
    Sheet string
}

func (s *XLSXSource) Load(ctx context.Context) ([]Row, error) {
    f, err := os.Open(s.Path)
    if err != nil {
        return nil, fmt.Errorf("load xlsx rates: %w", err)
    }
    defer f.Close()
    rows, err := ReadXLSX(f, s.Sheet)
    if err != nil {
        return nil, fmt.Errorf("load xlsx rates %q: %w", s.Path, err)
    }
    return rows, nil
}

// ReadXLSX parses rate rows from an xlsx workbook.
func ReadXLSX(r io.Reader, sheet string) ([]Row, error) {
    f, err := excelize.OpenReader(r)
    if err != nil {
        return nil, fmt.Errorf("open workbook: %w", err)
    }
    defer f.Close()

    if sheet == "" {
        sheet = f.GetSheetName(0)
    }
    records, err := f.GetRows(sheet)
    if err != nil {
        return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
    }
    return parseRecords(records)
}

// PostgresSource reads the transport_rates table.
type PostgresSource struct {
    DB Querier
}

func (s *PostgresSource) Load(ctx context.Context) ([]Row, error) {
    rows, err := s.DB.Query(ctx, `
        SELECT origin, destination, truck_type, general_price::text, chemical_price::text
        FROM transport_rates
        ORDER BY id`)
    if err != nil {
        return nil, fmt.Errorf("load postgres rates: query: %w", err)
    }
    defer rows.Close()

    var out []Row
    for rows.Next() {
        var (
            r                 Row
            general, chemical *string
        )
        if err := rows.Scan(&r.Origin, &r.Destination, &r.TruckType, &general, &chemical); err != nil {
            return nil, fmt.Errorf("load postgres rates: scan: %w", err)
        }
        if general != nil {
            r.General = ParsePrice(*general)
        }
        if chemical != nil {
            r.Chemical = ParsePrice(*chemical)
        }
        out = append(out, r)
    }
    if err := rows.Err(); err != nil {
        return nil, fmt.Errorf("load postgres rates: rows: %w", err)
    }
    return out, nil
}

type column int

const (
    colOrigin column = iota
    colDestination
    colTruck
    colGeneral
    colChemical
    numColumns
)

var headerAliases = map[string]column{
    "origin":         colOrigin,
    "from":           colOrigin,
    "pickup":         colOrigin,
    "destination":    colDestination,
    "to":             colDestination,
    "drop":           colDestination,
    "truck type":     colTruck,
    "truck":          colTruck,
    "vehicle":        colTruck,
    "vehicle type":   colTruck,
    "general price":  colGeneral,
    "general":        colGeneral,
    "price":          colGeneral,
    "rate":           colGeneral,
    "chemical price": colChemical,
    "chemical":       colChemical,
}

// mapHeader resolves header cells to column indexes. -1 marks an absent column.
func mapHeader(header []string) ([numColumns]int, error) {
    var idx [numColumns]int
    for i := range idx {
        idx[i] = -1
    }
    for i, h := range header {
        norm := clean(h)
        norm = strings.TrimSuffix(norm, " (aed)")
        norm = strings.TrimSuffix(norm, " aed")
        if c, ok := headerAliases[norm]; ok && idx[c] == -1 {
            idx[c] = i
        }
    }
    for _, c := range []column{colOrigin, colDestination, colTruck} {
        if idx[c] == -1 {
            return idx, ErrMissingColumn
        }
    }
    if idx[colGeneral] == -1 && idx[colChemical] == -1 {
        return idx, ErrMissingColumn
    }
    return idx, nil
}

func parseRecords(records [][]string) ([]Row, error) {
    start := -1
    for i, rec := range records {
        if !blankRecord(rec) {
            start = i
            break
        }
    }
    if start == -1 {
        return nil, ErrNoHeader
    }
    idx, err := mapHeader(records[start])
    if err != nil {
        return nil, fmt.Errorf("header %q: %w", records[start], err)
    }

    out := make([]Row, 0, len(records)-start-1)
    for _, rec := range records[start+1:] {
        if blankRecord(rec) {
            continue
        }
        out = append(out, Row{
            Origin:      cell(rec, idx[colOrigin]),
            Destination: cell(rec, idx[colDestination]),
            TruckType:   cell(rec, idx[colTruck]),
            General:     ParsePrice(cell(rec, idx[colGeneral])),
            Chemical:    ParsePrice(cell(rec, idx[colChemical])),
        })
    }
    return out, nil
}

func cell(rec []string, i int) string {
    if i < 0 || i >= len(rec) {
        return ""
    }
    return strings.TrimSpace(rec[i])
}

func blankRecord(rec []string) bool {
    for _, c := range rec {
        if strings.TrimSpace(c) != "" {
            return false
        }
    }
    return true
}

// ParsePrice reads a rate-sheet price cell such as "1,250.00 AED". Blank,
// unparseable or negative cells come back unset.
func ParsePrice(s string) decimal.NullDecimal {
    s = strings.TrimSpace(s)
    s = strings.TrimSuffix(strings.TrimPrefix(strings.ToUpper(s), "AED"), "AED")
    s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
    if s == "" {
        return decimal.NullDecimal{}
    }
    d, err := decimal.NewFromString(s)
    if err != nil || d.IsNegative() {
        return decimal.NullDecimal{}
    }
    return decimal.NewNullDecimal(d)
}
