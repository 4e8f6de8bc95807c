package main

import (
    "context"
    "log"
    "strings"
    "time"

    "github.com/joho/godotenv"

    "transportquote/internal/config"
    "transportquote/internal/db"
    "transportquote/internal/rate"
)

// dbtool creates the schema and replaces transport_rates with the rows of the
// rate sheet at RATES_PATH.
func main() {
    if err := godotenv.Load(); err != nil {
        log.Println("No .env file found (using environment variables)")
    }
    cfg := config.Load()
    if strings.TrimSpace(cfg.DatabaseURL) == "" {
        log.Fatal("DATABASE_URL is required")
    }

    ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
    defer cancel()

    pool, err := db.NewPool(ctx, cfg.DatabaseURL)
    if err != nil {
        log.Fatalf("failed to connect db: %v", err)
    }
    defer pool.Close()

    log.Println("Initializing database schema...")
    if err := db.InitSchema(ctx, pool); err != nil {
        log.Fatalf("schema initialization failed: %v", err)
    }
    log.Println("Schema ready.")

    // The database is the destination here, so only file sources make sense.
    name := cfg.RateSource
    if name == "postgres" {
        name = ""
    }
    src, err := rate.NewByName(name, cfg.RatesPath, cfg.RatesSheet, nil)
    if err != nil {
        log.Fatalf("rate source: %v", err)
    }
    rows, err := src.Load(ctx)
    if err != nil {
        log.Fatalf("reading rate sheet failed: %v", err)
    }

    log.Printf("Seeding transport_rates from %s...", cfg.RatesPath)
    n, err := db.ReplaceRates(ctx, pool, rows)
    if err != nil {
        log.Fatalf("seeding failed: %v", err)
    }
    log.Printf("Seeding complete: %d of %d rows written.", n, len(rows))
}
