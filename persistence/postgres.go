// Package persistence records executed trades and order lifecycle events
// in PostgreSQL. Tables are insert-only; the book itself is never
// persisted here (see eventsourcing for recovery).
package persistence

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

// Connect opens a PostgreSQL connection from POSTGRES_* environment
// variables, pinging with bounded retries so the engine can start while
// the database is still coming up.
func Connect() (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		envOr("POSTGRES_HOST", "localhost"),
		envOr("POSTGRES_PORT", "5432"),
		envOr("POSTGRES_USER", "postgres"),
		os.Getenv("POSTGRES_PASSWORD"),
		envOr("POSTGRES_DB", "orderbook"),
	)

	maxRetries, _ := strconv.Atoi(os.Getenv("MAX_DB_ATTEMPTS"))
	if maxRetries == 0 {
		maxRetries = 10
	}

	var db *sql.DB
	var err error
	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", connStr)
		if err == nil {
			err = db.Ping()
			if err == nil {
				db.SetMaxOpenConns(10)
				db.SetMaxIdleConns(5)
				db.SetConnMaxLifetime(30 * time.Minute)
				return db, nil
			}
		}
		time.Sleep(2 * time.Second)
	}

	return nil, fmt.Errorf("could not connect to PostgreSQL after %d attempts: %w", maxRetries, err)
}

// InitSchema creates the trade and order-event tables if they do not
// exist. Intended for development; production schemas are migrated
// externally.
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		trade_id      UUID PRIMARY KEY,
		buy_order_id  BIGINT NOT NULL,
		sell_order_id BIGINT NOT NULL,
		buy_price     BIGINT NOT NULL,
		sell_price    BIGINT NOT NULL,
		quantity      BIGINT NOT NULL CHECK (quantity > 0),
		executed_at   TIMESTAMPTZ NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_trades_buy_order ON trades (buy_order_id);
	CREATE INDEX IF NOT EXISTS idx_trades_sell_order ON trades (sell_order_id);
	CREATE INDEX IF NOT EXISTS idx_trades_executed_at ON trades (executed_at);

	CREATE TABLE IF NOT EXISTS order_events (
		event_id   BIGSERIAL PRIMARY KEY,
		order_id   BIGINT NOT NULL,
		event_type TEXT NOT NULL,
		side       TEXT,
		order_type TEXT,
		price      BIGINT,
		quantity   BIGINT,
		status     TEXT,
		occurred_at TIMESTAMPTZ NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_order_events_order ON order_events (order_id);
	CREATE INDEX IF NOT EXISTS idx_order_events_type ON order_events (event_type);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
