package rate

import (
    "bytes"
    "context"
    "errors"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/shopspring/decimal"
    "github.com/xuri/excelize/v2"
)

const sampleCSV = `
Origin,Destination,Truck_Type,General Price (AED),Chemical Price (AED)
Abu Dhabi,Dubai,Flatbed,"1,100.00",1300
Abu Dhabi,Dubai,Curtainside,900,
*,Sharjah,7 Ton Pickup,AED 450.50,n/a
,,,,
Al Ain,Dubai,Lowbed,,
`

func TestReadCSV_TwoPriceColumns(t *testing.T) {
    rows, err := ReadCSV(strings.NewReader(sampleCSV))
    if err != nil {
        t.Fatalf("ReadCSV: %v", err)
    }
    if len(rows) != 4 {
        t.Fatalf("expected 4 rows, got %d", len(rows))
    }
    first := rows[0]
    if first.Origin != "Abu Dhabi" || first.TruckType != "Flatbed" {
        t.Fatalf("unexpected first row: %+v", first)
    }
    if !first.General.Valid || !first.General.Decimal.Equal(decimal.NewFromInt(1100)) {
        t.Fatalf("general = %+v, want 1100", first.General)
    }
    if !first.Chemical.Valid || !first.Chemical.Decimal.Equal(decimal.NewFromInt(1300)) {
        t.Fatalf("chemical = %+v, want 1300", first.Chemical)
    }
    if rows[1].Chemical.Valid {
        t.Fatalf("blank chemical cell should be unset")
    }
    if rows[2].Chemical.Valid || !rows[2].General.Decimal.Equal(decimal.RequireFromString("450.5")) {
        t.Fatalf("unexpected third row: %+v", rows[2])
    }

    tbl := NewTable(rows)
    if tbl.Len() != 3 {
        t.Fatalf("expected 3 entries (priceless row skipped), got %d", tbl.Len())
    }
    got, ok := tbl.Lookup("Ajman", "sharjah", "10 ton", CargoChemical)
    if !ok || !got.Equal(decimal.RequireFromString("450.50")) {
        t.Fatalf("wildcard lookup = %s (%v)", got, ok)
    }
}

func TestReadCSV_SinglePriceColumn(t *testing.T) {
    in := "from,to,vehicle,rate\nDubai,Abu Dhabi,Box,80\n"
    rows, err := ReadCSV(strings.NewReader(in))
    if err != nil {
        t.Fatalf("ReadCSV: %v", err)
    }
    if len(rows) != 1 || !rows[0].General.Decimal.Equal(decimal.NewFromInt(80)) || rows[0].Chemical.Valid {
        t.Fatalf("unexpected rows: %+v", rows)
    }
}

func TestReadCSV_HeaderErrors(t *testing.T) {
    if _, err := ReadCSV(strings.NewReader("\n\n")); !errors.Is(err, ErrNoHeader) {
        t.Fatalf("expected ErrNoHeader, got %v", err)
    }
    if _, err := ReadCSV(strings.NewReader("origin,destination,price\na,b,1\n")); !errors.Is(err, ErrMissingColumn) {
        t.Fatalf("expected ErrMissingColumn, got %v", err)
    }
}

func TestParsePrice(t *testing.T) {
    tests := []struct {
        input string
        valid bool
        value string
    }{
        {"100", true, "100"},
        {" 1,234.56 ", true, "1234.56"},
        {"AED 12.5", true, "12.5"},
        {"99 aed", true, "99"},
        {"", false, ""},
        {"-", false, ""},
        {"n/a", false, ""},
        {"-5", false, ""},
    }
    for _, tt := range tests {
        t.Run(tt.input, func(t *testing.T) {
            got := ParsePrice(tt.input)
            if got.Valid != tt.valid {
                t.Fatalf("ParsePrice(%q).Valid = %v, want %v", tt.input, got.Valid, tt.valid)
            }
            if tt.valid && !got.Decimal.Equal(decimal.RequireFromString(tt.value)) {
                t.Fatalf("ParsePrice(%q) = %s, want %s", tt.input, got.Decimal, tt.value)
            }
        })
    }
}

func buildWorkbook(t *testing.T, sheet string, rows [][]any) []byte {
    t.Helper()
    f := excelize.NewFile()
    defer f.Close()
    if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
        t.Fatalf("set sheet name: %v", err)
    }
    for i, r := range rows {
        cellRef, err := excelize.CoordinatesToCellName(1, i+1)
        if err != nil {
            t.Fatalf("cell name: %v", err)
        }
        if err := f.SetSheetRow(sheet, cellRef, &r); err != nil {
            t.Fatalf("set row: %v", err)
        }
    }
    buf, err := f.WriteToBuffer()
    if err != nil {
        t.Fatalf("write workbook: %v", err)
    }
    return buf.Bytes()
}

func TestReadXLSX(t *testing.T) {
    data := buildWorkbook(t, "Rates", [][]any{
        {"Origin", "Destination", "Truck Type", "General Price", "Chemical Price"},
        {"Abu Dhabi", "Dubai", "Flatbed", "100", "120"},
        {"Abu Dhabi", "Dubai", "Box/Curtainside", "85.25", ""},
    })
    rows, err := ReadXLSX(bytes.NewReader(data), "")
    if err != nil {
        t.Fatalf("ReadXLSX: %v", err)
    }
    tbl := NewTable(rows)
    got, ok := tbl.Lookup("abu dhabi", "dubai", "curtainside", CargoGeneral)
    if !ok || !got.Equal(decimal.RequireFromString("85.25")) {
        t.Fatalf("lookup = %s (%v)", got, ok)
    }
    if _, err := ReadXLSX(bytes.NewReader(data), "Missing"); err == nil {
        t.Fatalf("expected error for missing sheet")
    }
}

func TestNewByName(t *testing.T) {
    src, err := NewByName("", "rates/table.xlsx", "", nil)
    if err != nil {
        t.Fatalf("NewByName: %v", err)
    }
    if _, ok := src.(*XLSXSource); !ok {
        t.Fatalf("expected *XLSXSource for .xlsx path, got %T", src)
    }
    src, err = NewByName("", "rates.csv", "", nil)
    if err != nil {
        t.Fatalf("NewByName: %v", err)
    }
    if _, ok := src.(*CSVSource); !ok {
        t.Fatalf("expected *CSVSource, got %T", src)
    }
    if _, err := NewByName("postgres", "", "", nil); err == nil {
        t.Fatalf("expected error for postgres without pool")
    }
    if _, err := NewByName("ftp", "", "", nil); !errors.Is(err, ErrUnknownSource) {
        t.Fatalf("expected ErrUnknownSource, got %v", err)
    }
}

func TestLoadTable_CSVFile(t *testing.T) {
    path := filepath.Join(t.TempDir(), "rates.csv")
    if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
        t.Fatalf("write: %v", err)
    }
    src, err := NewByName("csv", path, "", nil)
    if err != nil {
        t.Fatalf("NewByName: %v", err)
    }
    tbl, stats, err := LoadTable(context.Background(), src)
    if err != nil {
        t.Fatalf("LoadTable: %v", err)
    }
    if tbl.Len() != 3 || stats.Rows != 4 || stats.Skipped != 1 {
        t.Fatalf("unexpected table/stats: len=%d stats=%+v", tbl.Len(), stats)
    }

    missing := &CSVSource{Path: filepath.Join(t.TempDir(), "nope.csv")}
    if _, _, err := LoadTable(context.Background(), missing); !errors.Is(err, os.ErrNotExist) {
        t.Fatalf("expected not-exist error, got %v", err)
    }
}
