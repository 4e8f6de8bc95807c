package quote

import (
    "fmt"
    "strings"

    "github.com/shopspring/decimal"

    "transportquote/internal/rate"
)

// RateLookup prices one truck over one leg. *rate.Table implements it.
type RateLookup interface {
    Lookup(origin, destination, truckType string, cargo rate.CargoType) (decimal.Decimal, bool)
}

// Policy holds the surcharge and multiplier constants.
type Policy struct {
    BackLoadMultiplier decimal.Decimal
    EnvFeePerTripTruck decimal.Decimal
    EnvLevyRate        decimal.Decimal
}

// DefaultPolicy is 1.60x for back loads, 10.00 AED per trip-truck and a 0.15% levy.
func DefaultPolicy() Policy {
    return Policy{
        BackLoadMultiplier: decimal.RequireFromString("1.60"),
        EnvFeePerTripTruck: decimal.RequireFromString("10.00"),
        EnvLevyRate:        decimal.RequireFromString("0.0015"),
    }
}

// Multiplier returns the per-leg rate factor for a trip type.
func (p Policy) Multiplier(t TripType) decimal.Decimal {
    if t == TripBackLoad {
        return p.BackLoadMultiplier
    }
    return decimal.NewFromInt(1)
}

// Request is everything needed to price one quotation.
type Request struct {
    Origin      string
    Destination string
    Stops       []string
    Trucks      []TruckRequest
    Trip        TripType
    Cargo       rate.CargoType
}

// LineItem is one row of an itemized quotation.
type LineItem struct {
    Description string
    TruckType   string
    Quantity    int
    PricedLegs  int
    UnitRate    decimal.Decimal
    Amount      decimal.Decimal
}

// Quotation is the priced result. Amounts keep full precision; use Money or
// Round when presenting them.
type Quotation struct {
    Legs           []Leg
    LineItems      []LineItem
    TripTruckCount decimal.Decimal
    Multiplier     decimal.Decimal
    Subtotal       decimal.Decimal
    EnvFee         decimal.Decimal
    EnvLevy        decimal.Decimal
    GrandTotal     decimal.Decimal
}

// Calculator prices quotations against a rate lookup. It holds no mutable
// state and may be shared between goroutines.
type Calculator struct {
    Rates  RateLookup
    Policy Policy
}

func NewCalculator(rates RateLookup, policy Policy) *Calculator {
    return &Calculator{Rates: rates, Policy: policy}
}

// Compute prices every requested truck type over every leg. Legs with no rate
// are skipped for that truck type, and truck types with no priced leg produce
// no line item. The environmental fee is charged on the requested trip-truck
// count whether or not legs were priced.
func (c *Calculator) Compute(req Request) Quotation {
    legs := BuildLegs(req.Origin, req.Stops, req.Destination)
    mult := c.Policy.Multiplier(req.Trip)

    q := Quotation{
        Legs:       legs,
        LineItems:  []LineItem{},
        Multiplier: mult,
        Subtotal:   decimal.Zero,
    }

    totalQty := decimal.Zero
    for _, tr := range req.Trucks {
        if tr.Quantity <= 0 {
            continue
        }
        qty := decimal.NewFromInt(int64(tr.Quantity))
        totalQty = totalQty.Add(qty)

        combined := decimal.Zero
        priced := 0
        for _, leg := range legs {
            unit, ok := c.lookup(leg, tr.TruckType, req.Cargo)
            if !ok {
                continue
            }
            combined = combined.Add(unit.Mul(mult).Mul(qty))
            priced++
        }
        if priced == 0 {
            continue
        }
        q.LineItems = append(q.LineItems, LineItem{
            Description: describe(tr, legs),
            TruckType:   tr.TruckType,
            Quantity:    tr.Quantity,
            PricedLegs:  priced,
            UnitRate:    combined.Div(qty),
            Amount:      combined,
        })
        q.Subtotal = q.Subtotal.Add(combined)
    }

    q.TripTruckCount = decimal.NewFromInt(int64(len(legs))).Mul(totalQty)
    q.EnvFee = c.Policy.EnvFeePerTripTruck.Mul(q.TripTruckCount)
    q.EnvLevy = q.Subtotal.Mul(c.Policy.EnvLevyRate)
    q.GrandTotal = q.Subtotal.Add(q.EnvFee).Add(q.EnvLevy)
    return q
}

func (c *Calculator) lookup(leg Leg, truck string, cargo rate.CargoType) (decimal.Decimal, bool) {
    if c.Rates == nil {
        return decimal.Decimal{}, false
    }
    return c.Rates.Lookup(leg.From, leg.To, truck, cargo)
}

func describe(tr TruckRequest, legs []Leg) string {
    stops := make([]string, 0, len(legs)+1)
    for i, l := range legs {
        if i == 0 || !strings.EqualFold(legs[i-1].To, l.From) {
            stops = append(stops, l.From)
        }
        stops = append(stops, l.To)
    }
    return fmt.Sprintf("%s x%d: %s", TruckLabel(tr.TruckType), tr.Quantity, strings.Join(stops, " > "))
}

// Row is a presentation row: an itemized truck line or a summary line.
type Row struct {
    Description string
    UnitRate    decimal.NullDecimal
    Amount      decimal.Decimal
}

// Rows lists line items followed by subtotal, fee, levy and grand total rows.
func (q Quotation) Rows(p Policy) []Row {
    rows := make([]Row, 0, len(q.LineItems)+4)
    for _, li := range q.LineItems {
        rows = append(rows, Row{
            Description: li.Description,
            UnitRate:    decimal.NewNullDecimal(li.UnitRate),
            Amount:      li.Amount,
        })
    }
    rows = append(rows,
        Row{Description: "Subtotal", Amount: q.Subtotal},
        Row{
            Description: fmt.Sprintf("Environmental Fee (%s x %s trip-trucks)", FormatAED(p.EnvFeePerTripTruck), q.TripTruckCount),
            UnitRate:    decimal.NewNullDecimal(p.EnvFeePerTripTruck),
            Amount:      q.EnvFee,
        },
        Row{
            Description: fmt.Sprintf("Environmental Levy (%s%%)", p.EnvLevyRate.Shift(2).String()),
            Amount:      q.EnvLevy,
        },
        Row{Description: "Grand Total", Amount: q.GrandTotal},
    )
    return rows
}
