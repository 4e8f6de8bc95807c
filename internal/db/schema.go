package db

import (
    "context"
    "fmt"

    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/shopspring/decimal"

    "transportquote/internal/rate"
)

var schema = []string{
    `CREATE TABLE IF NOT EXISTS transport_rates (
        id             BIGSERIAL PRIMARY KEY,
        origin         TEXT NOT NULL,
        destination    TEXT NOT NULL,
        truck_type     TEXT NOT NULL,
        general_price  NUMERIC,
        chemical_price NUMERIC,
        CHECK (general_price IS NOT NULL OR chemical_price IS NOT NULL)
    )`,
    `CREATE TABLE IF NOT EXISTS quotations (
        id           UUID PRIMARY KEY,
        reference    TEXT NOT NULL UNIQUE,
        origin       TEXT NOT NULL,
        destination  TEXT NOT NULL,
        stops        JSONB NOT NULL DEFAULT '[]'::jsonb,
        trip_type    TEXT NOT NULL,
        cargo_type   TEXT NOT NULL,
        cicpa_pass   BOOLEAN NOT NULL DEFAULT FALSE,
        email        TEXT,
        line_items   JSONB NOT NULL DEFAULT '[]'::jsonb,
        subtotal     NUMERIC NOT NULL,
        env_fee      NUMERIC NOT NULL,
        env_levy     NUMERIC NOT NULL,
        grand_total  NUMERIC NOT NULL,
        created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
    `CREATE INDEX IF NOT EXISTS idx_quotations_created_at ON quotations (created_at DESC)`,
}

// InitSchema creates the rate and quotation tables if they do not exist.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
    tx, err := pool.Begin(ctx)
    if err != nil {
        return fmt.Errorf("init schema: begin tx: %w", err)
    }
    defer func() { _ = tx.Rollback(ctx) }()

    for i, stmt := range schema {
        if _, err := tx.Exec(ctx, stmt); err != nil {
            return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
        }
    }
    if err := tx.Commit(ctx); err != nil {
        return fmt.Errorf("init schema: commit tx: %w", err)
    }
    return nil
}

// ReplaceRates swaps the contents of transport_rates for rows in one
// transaction. Rows without any price are skipped. It returns the number of
// rows written.
func ReplaceRates(ctx context.Context, pool *pgxpool.Pool, rows []rate.Row) (int, error) {
    tx, err := pool.Begin(ctx)
    if err != nil {
        return 0, fmt.Errorf("replace rates: begin tx: %w", err)
    }
    defer func() { _ = tx.Rollback(ctx) }()

    if _, err := tx.Exec(ctx, `DELETE FROM transport_rates`); err != nil {
        return 0, fmt.Errorf("replace rates: clear: %w", err)
    }

    batch := &pgx.Batch{}
    for _, r := range rows {
        if !r.General.Valid && !r.Chemical.Valid {
            continue
        }
        batch.Queue(`
            INSERT INTO transport_rates (origin, destination, truck_type, general_price, chemical_price)
            VALUES ($1, $2, $3, $4::numeric, $5::numeric)`,
            r.Origin, r.Destination, r.TruckType, nullPrice(r.General), nullPrice(r.Chemical))
    }
    n := batch.Len()
    if n > 0 {
        if err := tx.SendBatch(ctx, batch).Close(); err != nil {
            return 0, fmt.Errorf("replace rates: insert: %w", err)
        }
    }
    if err := tx.Commit(ctx); err != nil {
        return 0, fmt.Errorf("replace rates: commit tx: %w", err)
    }
    return n, nil
}

func nullPrice(d decimal.NullDecimal) *string {
    if !d.Valid {
        return nil
    }
    s := d.Decimal.String()
    return &s
}
