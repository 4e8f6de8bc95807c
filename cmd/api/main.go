package main

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os"
    "strings"
    "time"

    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/joho/godotenv"

    "transportquote/internal/config"
    "transportquote/internal/db"
    "transportquote/internal/quote"
    "transportquote/internal/rate"
    "transportquote/internal/server"
)

func main() {
    if err := godotenv.Load(); err != nil {
        log.Println("No .env file found (using environment variables)")
    }
    cfg := config.Load()

    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    // Storage is optional: without DATABASE_URL quotations are priced but not stored.
    var pool *pgxpool.Pool
    if strings.TrimSpace(cfg.DatabaseURL) != "" {
        var err error
        pool, err = db.NewPool(ctx, cfg.DatabaseURL)
        if err != nil {
            log.Fatalf("failed to connect db: %v", err)
        }
        defer pool.Close()
        if err := pool.Ping(ctx); err != nil {
            log.Fatalf("database ping failed: %v", err)
        }
        if err := db.InitSchema(ctx, pool); err != nil {
            log.Fatalf("init schema: %v", err)
        }
    }

    var querier rate.Querier
    if pool != nil {
        querier = pool
    }
    src, err := rate.NewByName(cfg.RateSource, cfg.RatesPath, cfg.RatesSheet, querier)
    if err != nil {
        log.Fatalf("rate source: %v", err)
    }
    rates, stats, err := rate.LoadTable(ctx, src)
    switch {
    case errors.Is(err, os.ErrNotExist):
        log.Printf("rate sheet %s not found; serving with an empty rate table", cfg.RatesPath)
        rates = rate.NewTable(nil)
    case err != nil:
        log.Fatalf("load rates: %v", err)
    default:
        log.Printf("rates loaded: rows=%d entries=%d skipped=%d overridden=%d",
            stats.Rows, stats.Entries, stats.Skipped, stats.Overridden)
    }

    policy := quote.Policy{
        BackLoadMultiplier: cfg.BackLoadMultiplier,
        EnvFeePerTripTruck: cfg.EnvFeePerTripTruck,
        EnvLevyRate:        cfg.EnvLevyRate,
    }
    r := server.NewWithRates(pool, rates, policy)

    srv := &http.Server{
        Addr:              ":" + cfg.Port,
        Handler:           r,
        ReadTimeout:       10 * time.Second,
        ReadHeaderTimeout: 10 * time.Second,
        WriteTimeout:      20 * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    source := cfg.RateSource
    if source == "" {
        source = "auto"
    }
    log.Printf("api listening on :%s (RATE_SOURCE=%s, storage=%v)", cfg.Port, source, pool != nil)
    if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        log.Println("server error:", err)
        os.Exit(1)
    }
}
