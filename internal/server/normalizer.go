package server

import (
    "encoding/json"
    "errors"
    "fmt"
    "mime"
    "net/http"
    "net/url"
    "sort"
    "strconv"
    "strings"

    "transportquote/internal/quote"
)

var (
    // ErrInvalidJSON is returned when a JSON body cannot be decoded.
    ErrInvalidJSON = errors.New("invalid json")
    // ErrInvalidForm is returned when a form body cannot be parsed.
    ErrInvalidForm = errors.New("invalid form")
    // ErrUnsupportedMediaType is returned for bodies that are neither JSON nor a form.
    ErrUnsupportedMediaType = errors.New("unsupported media type")
)

const maxBodyBytes = 1 << 20

// QuotationInput is a quotation request after field-name normalization, still
// holding raw strings for the calculator to interpret.
type QuotationInput struct {
    Origin      string
    Destination string
    Stops       []string
    TripType    string
    CargoType   string
    CICPAPass   bool
    Email       string
    Trucks      []quote.RawTruck
}

// Candidate keys, most specific first. Form posts and JSON clients name fields differently.
var (
    originKeys      = []string{"origin", "from", "pickup"}
    destinationKeys = []string{"destination", "to", "drop"}
    tripKeys        = []string{"trip_type", "trip"}
    cargoKeys       = []string{"cargo_type", "cargo"}
    cicpaKeys       = []string{"cicpa", "cicpa_pass"}
    emailKeys       = []string{"email", "contact.email"}
    stopsKeys       = []string{"stops", "intermediate_stops", "route.stops"}
    trucksKeys      = []string{"trucks", "truck_requests"}
    truckTypeKeys   = []string{"truck_type", "truck", "type"}
    quantityKeys    = []string{"quantity", "qty", "count"}
)

// DecodeQuotationRequest reads a JSON or form-encoded quotation request.
func DecodeQuotationRequest(w http.ResponseWriter, r *http.Request) (QuotationInput, error) {
    r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

    mediaType := "application/json"
    if ct := r.Header.Get("Content-Type"); ct != "" {
        mt, _, err := mime.ParseMediaType(ct)
        if err != nil {
            return QuotationInput{}, ErrUnsupportedMediaType
        }
        mediaType = mt
    }

    switch mediaType {
    case "application/json":
        var payload map[string]any
        dec := json.NewDecoder(r.Body)
        dec.UseNumber()
        if err := dec.Decode(&payload); err != nil {
            return QuotationInput{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
        }
        return fromJSON(payload), nil
    case "application/x-www-form-urlencoded", "multipart/form-data":
        var err error
        if mediaType == "multipart/form-data" {
            err = r.ParseMultipartForm(maxBodyBytes)
        } else {
            err = r.ParseForm()
        }
        if err != nil {
            return QuotationInput{}, fmt.Errorf("%w: %v", ErrInvalidForm, err)
        }
        return fromForm(r.PostForm), nil
    default:
        return QuotationInput{}, ErrUnsupportedMediaType
    }
}

func fromJSON(m map[string]any) QuotationInput {
    in := QuotationInput{
        Origin:      getString(m, originKeys),
        Destination: getString(m, destinationKeys),
        TripType:    getString(m, tripKeys),
        CargoType:   getString(m, cargoKeys),
        CICPAPass:   truthy(getAny(m, cicpaKeys)),
        Email:       strings.TrimSpace(getString(m, emailKeys)),
    }
    if list, ok := getAny(m, stopsKeys).([]any); ok {
        for _, v := range list {
            in.Stops = append(in.Stops, toString(v))
        }
    }
    in.Stops = trimEach(in.Stops)

    if list, ok := getAny(m, trucksKeys).([]any); ok {
        for _, v := range list {
            tm, ok := v.(map[string]any)
            if !ok {
                continue
            }
            in.Trucks = append(in.Trucks, quote.RawTruck{
                TruckType: getString(tm, truckTypeKeys),
                Quantity:  getString(tm, quantityKeys),
            })
        }
    } else if truck := getString(m, truckTypeKeys); truck != "" {
        in.Trucks = []quote.RawTruck{{TruckType: truck, Quantity: orDefault(getString(m, quantityKeys), "1")}}
    }
    return in
}

func fromForm(v url.Values) QuotationInput {
    in := QuotationInput{
        Origin:      firstValue(v, originKeys),
        Destination: firstValue(v, destinationKeys),
        TripType:    firstValue(v, tripKeys),
        CargoType:   firstValue(v, cargoKeys),
        CICPAPass:   truthy(firstValue(v, cicpaKeys)),
        Email:       strings.TrimSpace(firstValue(v, emailKeys)),
    }
    in.Stops = append(in.Stops, formList(v, "stops")...)
    in.Stops = append(in.Stops, numberedFields(v, "stop_")...)
    in.Stops = trimEach(in.Stops)

    trucks := formList(v, "truck_type")
    qtys := formList(v, "quantity")
    for i, t := range trucks {
        if strings.TrimSpace(t) == "" {
            continue
        }
        q := "1"
        if len(qtys) > 0 {
            q = ""
            if i < len(qtys) {
                q = qtys[i]
            }
        }
        in.Trucks = append(in.Trucks, quote.RawTruck{TruckType: t, Quantity: q})
    }
    return in
}

// formList returns the values of key and key[] in order.
func formList(v url.Values, key string) []string {
    out := append([]string{}, v[key]...)
    return append(out, v[key+"[]"]...)
}

// numberedFields collects prefix1, prefix2, ... ordered by number.
func numberedFields(v url.Values, prefix string) []string {
    type numbered struct {
        n int
        s string
    }
    var found []numbered
    for k, vals := range v {
        rest, ok := strings.CutPrefix(k, prefix)
        if !ok || len(vals) == 0 {
            continue
        }
        n, err := strconv.Atoi(rest)
        if err != nil {
            continue
        }
        found = append(found, numbered{n, vals[0]})
    }
    sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })
    out := make([]string, 0, len(found))
    for _, f := range found {
        out = append(out, f.s)
    }
    return out
}

func firstValue(v url.Values, keys []string) string {
    for _, k := range keys {
        if s := strings.TrimSpace(v.Get(k)); s != "" {
            return s
        }
    }
    return ""
}

// trimEach trims every stop in place. Blank stops stay so leg building can
// drop the pairs they break.
func trimEach(in []string) []string {
    for i, s := range in {
        in[i] = strings.TrimSpace(s)
    }
    return in
}

// truthy accepts true, "yes", "on", "1" and "true".
func truthy(v any) bool {
    switch t := v.(type) {
    case bool:
        return t
    case string:
        switch strings.ToLower(strings.TrimSpace(t)) {
        case "yes", "y", "on", "1", "true":
            return true
        }
    case json.Number:
        return t.String() == "1"
    }
    return false
}

// getString returns the first non-empty scalar from the candidate keys.
// Supports dot-path navigation for nested maps.
func getString(m map[string]any, keys []string) string {
    for _, k := range keys {
        if v := getPath(m, k); v != nil {
            if s := strings.TrimSpace(toString(v)); s != "" {
                return s
            }
        }
    }
    return ""
}

// getAny returns the first non-nil value from the candidate keys.
func getAny(m map[string]any, keys []string) any {
    for _, k := range keys {
        if v := getPath(m, k); v != nil {
            return v
        }
    }
    return nil
}

// getPath navigates a dot-separated key into nested maps.
func getPath(m map[string]any, path string) any {
    parts := strings.Split(path, ".")
    var cur any = m
    for _, p := range parts {
        mm, ok := cur.(map[string]any)
        if !ok {
            return nil
        }
        v, ok := mm[p]
        if !ok {
            return nil
        }
        cur = v
    }
    return cur
}

func toString(v any) string {
    switch t := v.(type) {
    case string:
        return t
    case json.Number:
        return t.String()
    case bool:
        return strconv.FormatBool(t)
    case float64:
        return strconv.FormatFloat(t, 'f', -1, 64)
    default:
        return ""
    }
}
