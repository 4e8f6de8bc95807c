package config

import (
    "os"
    "strings"

    "github.com/shopspring/decimal"
)

type Config struct {
    DatabaseURL  string
    Port         string
    RateSource   string
    RatesPath    string
    RatesSheet   string

    BackLoadMultiplier decimal.Decimal
    EnvFeePerTripTruck decimal.Decimal
    EnvLevyRate        decimal.Decimal
}

func Load() Config {
    return Config{
        DatabaseURL: os.Getenv("DATABASE_URL"),
        Port:        getEnv("PORT", "8080"),
        RateSource:  os.Getenv("RATE_SOURCE"),
        RatesPath:   getEnv("RATES_PATH", "data/rates.csv"),
        RatesSheet:  os.Getenv("RATES_SHEET"),

        BackLoadMultiplier: getDecimal("BACK_LOAD_MULTIPLIER", "1.60"),
        EnvFeePerTripTruck: getDecimal("ENV_FEE_PER_TRIP_TRUCK", "10.00"),
        EnvLevyRate:        getDecimal("ENV_LEVY_RATE", "0.0015"),
    }
}

func getEnv(key, fallback string) string {
    if v := strings.TrimSpace(os.Getenv(key)); v != "" {
        return v
    }
    return fallback
}

// getDecimal falls back when the variable is unset, malformed or negative.
func getDecimal(key, fallback string) decimal.Decimal {
    if v := strings.TrimSpace(os.Getenv(key)); v != "" {
        if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
            return d
        }
    }
    return decimal.RequireFromString(fallback)
}
