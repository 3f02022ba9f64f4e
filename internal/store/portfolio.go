package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"moneybot/internal/models"
)

// GetHolding returns the user's position in symbol, or nil when there is none.
func (s *SQLiteStore) GetHolding(ctx context.Context, userID, symbol string) (*models.Holding, error) {
	h := models.Holding{UserID: userID}
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT symbol, name, quantity, avg_price, updated_at
		FROM holdings WHERE user_id = ? AND symbol = ?
	`, userID, strings.ToUpper(symbol)).Scan(&h.Symbol, &h.Name, &h.Quantity, &h.AvgPrice, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("get_holding", err)
	}
	return &h, nil
}

// SaveHolding inserts or replaces a position.
func (s *SQLiteStore) SaveHolding(ctx context.Context, h *models.Holding) error {
	h.Symbol = strings.ToUpper(h.Symbol)
	h.UpdatedAt = s.now().UTC()

	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO holdings (user_id, symbol, name, quantity, avg_price, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, symbol) DO UPDATE SET
			name = excluded.name,
			quantity = excluded.quantity,
			avg_price = excluded.avg_price,
			updated_at = excluded.updated_at
	`, h.UserID, h.Symbol, h.Name, h.Quantity.String(), h.AvgPrice.String(), h.UpdatedAt)
	if err != nil {
		return persistErr("save_holding", err)
	}
	return nil
}

// DeleteHolding removes a position. Deleting a missing position is not an error.
func (s *SQLiteStore) DeleteHolding(ctx context.Context, userID, symbol string) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		DELETE FROM holdings WHERE user_id = ? AND symbol = ?
	`, userID, strings.ToUpper(symbol))
	if err != nil {
		return persistErr("delete_holding", err)
	}
	return nil
}

// ListHoldings returns all positions of a user ordered by symbol.
func (s *SQLiteStore) ListHoldings(ctx context.Context, userID string) ([]models.Holding, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT symbol, name, quantity, avg_price, updated_at
		FROM holdings WHERE user_id = ?
		ORDER BY symbol
	`, userID)
	if err != nil {
		return nil, persistErr("list_holdings", err)
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		h := models.Holding{UserID: userID}
		if err := rows.Scan(&h.Symbol, &h.Name, &h.Quantity, &h.AvgPrice, &h.UpdatedAt); err != nil {
			return nil, persistErr("list_holdings", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list_holdings", err)
	}
	return holdings, nil
}

// ListHolders returns every user holding at least one position.
func (s *SQLiteStore) ListHolders(ctx context.Context) ([]string, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT DISTINCT user_id FROM holdings ORDER BY user_id
	`)
	if err != nil {
		return nil, persistErr("list_holders", err)
	}
	defer rows.Close()
	return scanStrings(rows, "list_holders")
}
