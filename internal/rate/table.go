package rate

import (
    "sort"
    "strings"

    "github.com/shopspring/decimal"
)

// Wildcard is the route key that stands for "any origin" or "any destination".
const Wildcard = "*"

// CargoType selects which price column of an Entry applies.
type CargoType int

const (
    CargoGeneral CargoType = iota
    CargoChemical
)

// ParseCargoType maps "chemical" to CargoChemical; anything else is general cargo.
func ParseCargoType(s string) CargoType {
    if strings.EqualFold(strings.TrimSpace(s), "chemical") {
        return CargoChemical
    }
    return CargoGeneral
}

func (c CargoType) String() string {
    if c == CargoChemical {
        return "chemical"
    }
    return "general"
}

// Label is the wording used on quotation documents.
func (c CargoType) Label() string {
    if c == CargoChemical {
        return "Chemical Load"
    }
    return "General Cargo"
}

// Tier identifies which route key answered a lookup.
type Tier int

const (
    TierExact Tier = iota + 1
    TierAnyOrigin
    TierAnyDestination
)

func (t Tier) String() string {
    switch t {
    case TierExact:
        return "exact"
    case TierAnyOrigin:
        return "any_origin"
    case TierAnyDestination:
        return "any_destination"
    default:
        return ""
    }
}

// Entry holds the prices for one (origin, destination, truck type).
type Entry struct {
    General  decimal.NullDecimal
    Chemical decimal.NullDecimal
}

// Valid reports whether at least one price is set.
func (e Entry) Valid() bool {
    return e.General.Valid || e.Chemical.Valid
}

// price picks the cargo price, falling back to general when no chemical price exists.
func (e Entry) price(cargo CargoType) (decimal.Decimal, bool) {
    if cargo == CargoChemical && e.Chemical.Valid {
        return e.Chemical.Decimal, true
    }
    if e.General.Valid {
        return e.General.Decimal, true
    }
    return decimal.Decimal{}, false
}

// Row is one line of a rate sheet before normalization.
type Row struct {
    Origin      string
    Destination string
    TruckType   string
    General     decimal.NullDecimal
    Chemical    decimal.NullDecimal
}

type routeKey struct {
    origin      string
    destination string
}

// Table is the read-only rate lookup built once at startup. The zero value and
// a nil *Table are both valid and price nothing.
type Table struct {
    routes map[routeKey]map[string]Entry
    size   int
}

// Match is a resolved price and the tier that produced it.
type Match struct {
    Price decimal.Decimal
    Tier  Tier
}

// Resolve finds the price for a leg, probing exact, any-origin and
// any-destination keys in that order. A tier that holds the truck type ends
// the search even when the wanted price is missing.
func (t *Table) Resolve(origin, destination, truckType string, cargo CargoType) (Match, bool) {
    if t == nil || len(t.routes) == 0 {
        return Match{}, false
    }
    o := NormalizeCity(origin)
    d := NormalizeCity(destination)
    truck := NormalizeTruckType(truckType)

    probes := []struct {
        key  routeKey
        tier Tier
    }{
        {routeKey{o, d}, TierExact},
        {routeKey{Wildcard, d}, TierAnyOrigin},
        {routeKey{o, Wildcard}, TierAnyDestination},
    }
    for _, p := range probes {
        trucks, ok := t.routes[p.key]
        if !ok {
            continue
        }
        entry, ok := trucks[truck]
        if !ok {
            continue
        }
        price, ok := entry.price(cargo)
        if !ok {
            return Match{}, false
        }
        return Match{Price: price, Tier: p.tier}, true
    }
    return Match{}, false
}

// Lookup returns the per-truck price for a leg, or false when the leg is unpriced.
func (t *Table) Lookup(origin, destination, truckType string, cargo CargoType) (decimal.Decimal, bool) {
    m, ok := t.Resolve(origin, destination, truckType, cargo)
    return m.Price, ok
}

// Len is the number of (origin, destination, truck type) entries.
func (t *Table) Len() int {
    if t == nil {
        return 0
    }
    return t.size
}

// Rows returns the normalized entries sorted by origin, destination and truck type.
func (t *Table) Rows() []Row {
    if t == nil {
        return nil
    }
    out := make([]Row, 0, t.size)
    for k, trucks := range t.routes {
        for truck, e := range trucks {
            out = append(out, Row{
                Origin:      k.origin,
                Destination: k.destination,
                TruckType:   truck,
                General:     e.General,
                Chemical:    e.Chemical,
            })
        }
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].Origin != out[j].Origin {
            return out[i].Origin < out[j].Origin
        }
        if out[i].Destination != out[j].Destination {
            return out[i].Destination < out[j].Destination
        }
        return out[i].TruckType < out[j].TruckType
    })
    return out
}

// BuildStats summarizes what a Builder did with its input rows.
type BuildStats struct {
    Rows       int
    Entries    int
    Skipped    int
    Overridden int
}

// Builder accumulates rows into a Table. It is not safe for concurrent use.
type Builder struct {
    routes map[routeKey]map[string]Entry
    stats  BuildStats
}

func NewBuilder() *Builder {
    return &Builder{routes: make(map[routeKey]map[string]Entry)}
}

// Add normalizes a row and stores it. Rows without any price, or without a
// truck type, are skipped. A later row for the same key replaces the earlier one.
func (b *Builder) Add(r Row) {
    b.stats.Rows++
    truck := NormalizeTruckType(r.TruckType)
    e := Entry{General: r.General, Chemical: r.Chemical}
    if truck == "" || !e.Valid() {
        b.stats.Skipped++
        return
    }
    k := routeKey{origin: routeCity(r.Origin), destination: routeCity(r.Destination)}
    trucks, ok := b.routes[k]
    if !ok {
        trucks = make(map[string]Entry)
        b.routes[k] = trucks
    }
    if _, dup := trucks[truck]; dup {
        b.stats.Overridden++
    }
    trucks[truck] = e
}

// Build returns the finished Table. The Builder must not be used afterwards.
func (b *Builder) Build() (*Table, BuildStats) {
    size := 0
    for _, trucks := range b.routes {
        size += len(trucks)
    }
    b.stats.Entries = size
    t := &Table{routes: b.routes, size: size}
    b.routes = nil
    return t, b.stats
}

// NewTable builds a Table from rows in one step.
func NewTable(rows []Row) *Table {
    b := NewBuilder()
    for _, r := range rows {
        b.Add(r)
    }
    t, _ := b.Build()
    return t
}

// routeCity normalizes a rate-sheet city cell, mapping wildcard spellings to Wildcard.
func routeCity(raw string) string {
    c := NormalizeCity(raw)
    switch c {
    case "", Wildcard, "any", "all":
        return Wildcard
    }
    return c
}
