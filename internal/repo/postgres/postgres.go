package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"farewatch/internal/domain"
	"farewatch/internal/repo"
)

var _ repo.AlertStore = (*Store)(nil)
var _ repo.HistoryStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// storeErr maps driver failures onto the repo taxonomy so the scheduler
// can tell "skip this tick" from real data errors.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, repo.ErrStoreUnavailable, err)
}

// ---- AlertStore ----

const alertColumns = `id, user_id, chat_id, origin, destination,
	departure_date, return_date, one_way,
	target_price, currency, check_interval_seconds,
	last_price, lowest_price_found, last_notified_price,
	last_checked_at, last_notified_at, status, created_at, updated_at`

func (s *Store) Create(ctx context.Context, a *domain.Alert) error {
	if a.ID == "" {
		a.ID = domain.AlertID(uuid.NewString())
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = domain.StatusActive
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO alerts (`+alertColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		string(a.ID), a.UserID, a.ChatID, a.Origin, a.Destination,
		a.DepartureDate, a.ReturnDate, a.OneWay,
		a.TargetPrice, a.Currency, int64(a.CheckInterval/time.Second),
		a.LastPrice, a.LowestPriceFound, a.LastNotifiedPrice,
		a.LastCheckedAt, a.LastNotifiedAt, string(a.Status), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id domain.AlertID) (*domain.Alert, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE id = $1`, string(id))
	a, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, storeErr("load alert", err)
	}
	return a, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]*domain.Alert, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+alertColumns+` FROM alerts
		  WHERE user_id = $1
		  ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, storeErr("list alerts", err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (s *Store) LoadDueAlerts(ctx context.Context, now time.Time) ([]*domain.Alert, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+alertColumns+` FROM alerts
		  WHERE status = $1
		    AND (last_checked_at IS NULL
		         OR last_checked_at + make_interval(secs => check_interval_seconds) <= $2)
		  ORDER BY last_checked_at NULLS FIRST, id`,
		string(domain.StatusActive), now)
	if err != nil {
		return nil, storeErr("load due alerts", err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (s *Store) UpdateAfterCheck(ctx context.Context, id domain.AlertID, price float64, checkedAt time.Time, lowestPrice float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE alerts
		    SET last_price = $2,
		        last_checked_at = $3,
		        lowest_price_found = $4,
		        updated_at = now()
		  WHERE id = $1`,
		string(id), price, checkedAt, lowestPrice)
	if err != nil {
		return storeErr("update after check", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Store) TouchChecked(ctx context.Context, id domain.AlertID, checkedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE alerts SET last_checked_at = $2, updated_at = now() WHERE id = $1`,
		string(id), checkedAt)
	if err != nil {
		return storeErr("touch checked", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Store) MarkNotified(ctx context.Context, id domain.AlertID, priceAtNotification float64, notifiedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE alerts
		    SET last_notified_price = $2,
		        last_notified_at = $3,
		        updated_at = now()
		  WHERE id = $1`,
		string(id), priceAtNotification, notifiedAt)
	if err != nil {
		return storeErr("mark notified", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id domain.AlertID, status domain.AlertStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE alerts SET status = $2, updated_at = now() WHERE id = $1`,
		string(id), string(status))
	if err != nil {
		return storeErr("update status", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id domain.AlertID) error {
	// price_history rows go with the alert via ON DELETE CASCADE
	tag, err := s.pool.Exec(ctx, `DELETE FROM alerts WHERE id = $1`, string(id))
	if err != nil {
		return storeErr("delete alert", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ---- HistoryStore ----

func (s *Store) Append(ctx context.Context, obs *domain.PriceObservation) error {
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO price_history (alert_id, price, currency, observed_at, raw_payload)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING id`,
		string(obs.AlertID), obs.Price, obs.Currency, obs.ObservedAt, obs.RawPayload,
	).Scan(&obs.ID)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

func (s *Store) ListByAlert(ctx context.Context, id domain.AlertID, limit int) ([]*domain.PriceObservation, error) {
	q := `SELECT id, alert_id, price, currency, observed_at, raw_payload
	        FROM price_history
	       WHERE alert_id = $1
	       ORDER BY observed_at DESC, id DESC`
	args := []any{string(id)}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, storeErr("list history", err)
	}
	defer rows.Close()

	var out []*domain.PriceObservation
	for rows.Next() {
		var obs domain.PriceObservation
		var aid string
		if err := rows.Scan(&obs.ID, &aid, &obs.Price, &obs.Currency, &obs.ObservedAt, &obs.RawPayload); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		obs.AlertID = domain.AlertID(aid)
		out = append(out, &obs)
	}
	return out, rows.Err()
}

// ---- scanning helpers ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*domain.Alert, error) {
	var (
		a        domain.Alert
		id       string
		status   string
		interval int64
	)
	err := row.Scan(
		&id, &a.UserID, &a.ChatID, &a.Origin, &a.Destination,
		&a.DepartureDate, &a.ReturnDate, &a.OneWay,
		&a.TargetPrice, &a.Currency, &interval,
		&a.LastPrice, &a.LowestPriceFound, &a.LastNotifiedPrice,
		&a.LastCheckedAt, &a.LastNotifiedAt, &status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ID = domain.AlertID(id)
	a.Status = domain.AlertStatus(status)
	a.CheckInterval = time.Duration(interval) * time.Second
	return &a, nil
}

func collectAlerts(rows pgx.Rows) ([]*domain.Alert, error) {
	var out []*domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
