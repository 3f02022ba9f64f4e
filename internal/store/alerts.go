package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "moneybot/internal/errors"
	"moneybot/internal/models"
)

const alertColumns = `id, user_id, symbol, alert_type, threshold, target_price, direction,
	reference_price, is_active, last_triggered, trigger_count, created_at`

// SaveAlert inserts or replaces an alert definition. A missing ID is generated.
func (s *SQLiteStore) SaveAlert(ctx context.Context, alert *models.PriceAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = s.now().UTC()
	}
	alert.Symbol = strings.ToUpper(alert.Symbol)

	var lastTriggered interface{}
	if alert.LastTriggered != nil {
		lastTriggered = alert.LastTriggered.UTC()
	}

	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO alerts (`+alertColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			symbol = excluded.symbol,
			alert_type = excluded.alert_type,
			threshold = excluded.threshold,
			target_price = excluded.target_price,
			direction = excluded.direction,
			reference_price = excluded.reference_price,
			is_active = excluded.is_active
	`, alert.ID, alert.UserID, alert.Symbol, string(alert.Type), alert.Threshold, alert.TargetPrice,
		string(alert.Direction), alert.ReferencePrice, boolToInt(alert.IsActive), lastTriggered,
		alert.TriggerCount, alert.CreatedAt)
	if err != nil {
		return persistErr("save_alert", err)
	}
	return nil
}

// GetAlert returns one alert by ID.
func (s *SQLiteStore) GetAlert(ctx context.Context, id string) (*models.PriceAlert, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)
	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewPersistenceError("sqlite", "get_alert", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, persistErr("get_alert", err)
	}
	return a, nil
}

// ListAlerts returns all alerts owned by a user, oldest first.
func (s *SQLiteStore) ListAlerts(ctx context.Context, userID string) ([]models.PriceAlert, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+alertColumns+` FROM alerts WHERE user_id = ? ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, persistErr("list_alerts", err)
	}
	defer rows.Close()
	return scanAlerts(rows, "list_alerts")
}

// ListActiveAlerts returns every active alert across users.
func (s *SQLiteStore) ListActiveAlerts(ctx context.Context) ([]models.PriceAlert, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+alertColumns+` FROM alerts WHERE is_active = 1 ORDER BY symbol, created_at, id
	`)
	if err != nil {
		return nil, persistErr("list_active_alerts", err)
	}
	defer rows.Close()
	return scanAlerts(rows, "list_active_alerts")
}

// SetAlertActive enables or disables an alert.
func (s *SQLiteStore) SetAlertActive(ctx context.Context, id string, active bool) error {
	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE alerts SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return persistErr("set_alert_active", err)
	}
	return checkAffected(res, "set_alert_active")
}

// DeleteAlert removes an alert.
func (s *SQLiteStore) DeleteAlert(ctx context.Context, id string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return persistErr("delete_alert", err)
	}
	return checkAffected(res, "delete_alert")
}

// RecordTrigger stamps the alert's last trigger time and increments its count.
func (s *SQLiteStore) RecordTrigger(ctx context.Context, id string, at time.Time) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE alerts SET last_triggered = ?, trigger_count = trigger_count + 1 WHERE id = ?
	`, at.UTC(), id)
	if err != nil {
		return persistErr("record_trigger", err)
	}
	return checkAffected(res, "record_trigger")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(row rowScanner) (*models.PriceAlert, error) {
	var (
		a             models.PriceAlert
		alertType     string
		direction     string
		active        int
		lastTriggered sql.NullTime
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Symbol, &alertType, &a.Threshold, &a.TargetPrice, &direction,
		&a.ReferencePrice, &active, &lastTriggered, &a.TriggerCount, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Type = models.AlertType(alertType)
	a.Direction = models.AlertDirection(direction)
	a.IsActive = active == 1
	if lastTriggered.Valid {
		t := lastTriggered.Time
		a.LastTriggered = &t
	}
	return &a, nil
}

func scanAlerts(rows *sql.Rows, op string) ([]models.PriceAlert, error) {
	var alerts []models.PriceAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, persistErr(op, err)
		}
		alerts = append(alerts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr(op, err)
	}
	return alerts, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
