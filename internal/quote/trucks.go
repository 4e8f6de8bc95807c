package quote

import (
    "errors"
    "strconv"
    "strings"

    "transportquote/internal/rate"
)

// RawTruck is a truck type and quantity as typed into a form.
type RawTruck struct {
    TruckType string
    Quantity  string
}

// TruckRequest asks for Quantity trucks of a normalized truck type.
type TruckRequest struct {
    TruckType string
    Quantity  int
}

// MaxQuantity caps the number of trucks of one type in a request.
const MaxQuantity = 10000

// ParseQuantity reads a form quantity. Malformed or non-positive values are 0
// and values above MaxQuantity are capped.
func ParseQuantity(raw string) int {
    n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
    if err != nil {
        if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(strings.TrimSpace(raw), "-") {
            return MaxQuantity
        }
        return 0
    }
    if n < 0 {
        return 0
    }
    return int(min(n, MaxQuantity))
}

// NewTruckRequests normalizes truck types and keeps only positive quantities.
// Repeated truck types are merged into the first occurrence.
func NewTruckRequests(raw []RawTruck) []TruckRequest {
    var out []TruckRequest
    pos := make(map[string]int)
    for _, r := range raw {
        qty := ParseQuantity(r.Quantity)
        truck := rate.NormalizeTruckType(r.TruckType)
        if qty <= 0 || truck == "" {
            continue
        }
        if i, ok := pos[truck]; ok {
            out[i].Quantity = min(out[i].Quantity+qty, MaxQuantity)
            continue
        }
        pos[truck] = len(out)
        out = append(out, TruckRequest{TruckType: truck, Quantity: qty})
    }
    return out
}

// TruckLabel renders a truck key for documents, e.g. "10_ton" as "10 Ton".
func TruckLabel(key string) string {
    words := strings.Fields(strings.ReplaceAll(key, "_", " "))
    for i, w := range words {
        r := []rune(w)
        words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
    }
    return strings.Join(words, " ")
}
