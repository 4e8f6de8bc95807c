package rate

import "testing"

func TestNormalizeCity_Variants(t *testing.T) {
    tests := []struct {
        name  string
        input string
    }{
        {"lower", "abu dhabi"},
        {"title", "Abu Dhabi"},
        {"upper", "ABU DHABI"},
        {"underscore", "abu_dhabi"},
        {"repeated spaces", "  Abu    Dhabi "},
        {"tabs", "Abu\tDhabi"},
        {"mixed", "ABU__ dhabi"},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            if got := NormalizeCity(tt.input); got != "abu dhabi" {
                t.Errorf("NormalizeCity(%q) = %q, want %q", tt.input, got, "abu dhabi")
            }
        })
    }
}

func TestNormalizeCity_Dashes(t *testing.T) {
    for _, in := range []string{"Jebel Ali – Free Zone", "Jebel Ali — Free Zone", "jebel ali - free zone", "Jebel Ali − Free Zone"} {
        if got := NormalizeCity(in); got != "jebel ali - free zone" {
            t.Errorf("NormalizeCity(%q) = %q", in, got)
        }
    }
}

func TestNormalizeTruckType_Aliases(t *testing.T) {
    tests := []struct {
        input  string
        expect string
    }{
        {"Curtainside", "box"},
        {"curtain side", "box"},
        {"Box/Curtainside", "box"},
        {"box / curtain-side", "box"},
        {"Box", "box"},
        {"Flatbed", "flatbed"},
        {"flat bed trailer", "flatbed"},
        {"40ft Flatbed", "flatbed"},
        {"Low Bed", "lowbed"},
        {"lowbed", "lowbed"},
        {"Reefer", "reefer"},
        {"Refrigerated Truck", "reefer"},
        {"7 Ton Pickup", "10_ton"},
        {"10 Ton", "10_ton"},
        {"10-ton truck", "10_ton"},
        {"10_ton", "10_ton"},
        {"3 ton pickup", "3_ton"},
        {"1 Ton Pick-up", "3_ton"},
        {"Tipper", "tipper"},
        {"Water Tanker", "tanker"},
        {"  Double   Trailer ", "double trailer"},
        {"", ""},
    }
    for _, tt := range tests {
        t.Run(tt.input, func(t *testing.T) {
            if got := NormalizeTruckType(tt.input); got != tt.expect {
                t.Errorf("NormalizeTruckType(%q) = %q, want %q", tt.input, got, tt.expect)
            }
        })
    }
}

func TestNormalizeTruckType_Idempotent(t *testing.T) {
    inputs := []string{
        "Curtainside", "box/curtainside", "7 ton pickup", "10 ton", "3_ton",
        "FLATBED", "Low-Bed Trailer", "chiller", "dump truck", "fuel tanker",
        "Mystery_Truck", "  odd   label ",
    }
    for _, in := range inputs {
        once := NormalizeTruckType(in)
        if twice := NormalizeTruckType(once); twice != once {
            t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
        }
    }
}
