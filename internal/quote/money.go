package quote

import (
    "strings"

    "github.com/shopspring/decimal"
)

// Round rounds half away from zero to two places.
func Round(d decimal.Decimal) decimal.Decimal {
    return d.Round(2)
}

// Money formats an amount with exactly two decimals, e.g. "12.35".
func Money(d decimal.Decimal) string {
    return Round(d).StringFixed(2)
}

// FormatAED formats an amount as "1,234.50 AED".
func FormatAED(d decimal.Decimal) string {
    s := Money(d)
    negative := strings.HasPrefix(s, "-")
    s = strings.TrimPrefix(s, "-")
    intPart, decPart, _ := strings.Cut(s, ".")
    out := groupThousands(intPart) + "." + decPart + " AED"
    if negative {
        out = "-" + out
    }
    return out
}

func groupThousands(s string) string {
    if len(s) <= 3 {
        return s
    }
    var b strings.Builder
    head := len(s) % 3
    if head > 0 {
        b.WriteString(s[:head])
    }
    for i := head; i < len(s); i += 3 {
        if b.Len() > 0 {
            b.WriteByte(',')
        }
        b.WriteString(s[i : i+3])
    }
    return b.String()
}
