package postgres

import (
	"context"
	"fmt"
)

// Migrate applies the schema. Statements are idempotent so the daemons
// can run it on every start.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			chat_id TEXT NOT NULL,
			origin CHAR(3) NOT NULL,
			destination CHAR(3) NOT NULL,
			departure_date TIMESTAMPTZ,
			return_date TIMESTAMPTZ,
			one_way BOOLEAN NOT NULL DEFAULT FALSE,
			target_price DOUBLE PRECISION NOT NULL,
			currency CHAR(3) NOT NULL DEFAULT 'USD',
			check_interval_seconds BIGINT NOT NULL,
			last_price DOUBLE PRECISION,
			lowest_price_found DOUBLE PRECISION,
			last_notified_price DOUBLE PRECISION,
			last_checked_at TIMESTAMPTZ,
			last_notified_at TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_user ON alerts (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_due ON alerts (status, last_checked_at)`,
		`CREATE TABLE IF NOT EXISTS price_history (
			id BIGSERIAL PRIMARY KEY,
			alert_id TEXT NOT NULL REFERENCES alerts(id) ON DELETE CASCADE,
			price DOUBLE PRECISION NOT NULL,
			currency CHAR(3) NOT NULL,
			observed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			raw_payload BYTEA
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_alert ON price_history (alert_id, observed_at DESC)`,
	}
	for _, q := range stmts {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
