package rate

import (
    "regexp"
    "strings"
)

// dashReplacer maps the dash variants found in pasted city names to an ASCII hyphen.
var dashReplacer = strings.NewReplacer(
    "‐", "-",
    "‑", "-",
    "‒", "-",
    "–", "-",
    "—", "-",
    "―", "-",
    "−", "-",
    "﹣", "-",
    "－", "-",
    "_", " ",
)

// clean lowercases, treats underscores as spaces, unifies dashes and collapses whitespace.
func clean(raw string) string {
    s := dashReplacer.Replace(strings.ToLower(raw))
    return strings.Join(strings.Fields(s), " ")
}

// NormalizeCity returns the comparison key for a free-text city name.
func NormalizeCity(raw string) string {
    return clean(raw)
}

type truckAlias struct {
    pattern *regexp.Regexp
    key     string
}

// truckAliases is evaluated in order; the first matching pattern wins.
var truckAliases = []truckAlias{
    {regexp.MustCompile(`^(box|curtain[ -]?side|box ?/ ?curtain[ -]?side)( truck| trailer)?$`), "box"},
    {regexp.MustCompile(`^flat[ -]?bed( truck| trailer)?$`), "flatbed"},
    {regexp.MustCompile(`^(40|45) ?(ft|feet) (flat[ -]?bed|trailer)$`), "flatbed"},
    {regexp.MustCompile(`^low[ -]?bed( truck| trailer)?$`), "lowbed"},
    {regexp.MustCompile(`^(reefer|refrigerated|chiller|freezer)( truck| trailer)?$`), "reefer"},
    {regexp.MustCompile(`^(7|10) ?-? ?(ton|tons|t)( pick ?-?up| truck)?$`), "10_ton"},
    {regexp.MustCompile(`^(1|3) ?-? ?(ton|tons|t)( pick ?-?up| truck)?$`), "3_ton"},
    {regexp.MustCompile(`^(tipper|dumper|dump truck)( truck)?$`), "tipper"},
    {regexp.MustCompile(`^((water|fuel|diesel) )?tanker( truck)?$`), "tanker"},
}

// NormalizeTruckType returns the canonical truck key for a label such as
// "Box/Curtainside" or "7 Ton Pickup". Unknown labels come back cleaned but
// otherwise unchanged, so they only miss later in lookup.
func NormalizeTruckType(raw string) string {
    s := clean(raw)
    for _, a := range truckAliases {
        if a.pattern.MatchString(s) {
            return a.key
        }
    }
    return s
}
