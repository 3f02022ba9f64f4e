package store

import (
	"context"
	"database/sql"
	"time"

	"moneybot/internal/models"
)

// AddEntry inserts a ledger entry and sets its ID.
func (s *SQLiteStore) AddEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	res, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO ledger (user_id, kind, amount, category, subcategory, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.UserID, string(entry.Kind), entry.Amount.String(), entry.Category,
		entry.Subcategory, entry.Note, entry.CreatedAt.UTC())
	if err != nil {
		return persistErr("add_entry", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return persistErr("add_entry", err)
	}
	entry.ID = id
	return nil
}

// RecentEntries returns the latest entries of one kind, newest first.
func (s *SQLiteStore) RecentEntries(ctx context.Context, userID string, kind models.EntryKind, limit int) ([]models.LedgerEntry, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT id, user_id, kind, amount, category, subcategory, note, created_at
		FROM ledger
		WHERE user_id = ? AND kind = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, string(kind), limit)
	if err != nil {
		return nil, persistErr("recent_entries", err)
	}
	defer rows.Close()
	return scanEntries(rows, "recent_entries")
}

// EntriesBetween returns entries created in [from, to), oldest first.
func (s *SQLiteStore) EntriesBetween(ctx context.Context, userID string, from, to time.Time) ([]models.LedgerEntry, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT id, user_id, kind, amount, category, subcategory, note, created_at
		FROM ledger
		WHERE user_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at ASC, id ASC
	`, userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, persistErr("entries_between", err)
	}
	defer rows.Close()
	return scanEntries(rows, "entries_between")
}

// LedgerUsersBetween returns users with at least one entry in [from, to).
func (s *SQLiteStore) LedgerUsersBetween(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT DISTINCT user_id FROM ledger
		WHERE created_at >= ? AND created_at < ?
		ORDER BY user_id
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, persistErr("ledger_users", err)
	}
	defer rows.Close()
	return scanStrings(rows, "ledger_users")
}

func scanEntries(rows *sql.Rows, op string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	for rows.Next() {
		var (
			e    models.LedgerEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &kind, &e.Amount, &e.Category, &e.Subcategory, &e.Note, &e.CreatedAt); err != nil {
			return nil, persistErr(op, err)
		}
		e.Kind = models.EntryKind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr(op, err)
	}
	return entries, nil
}

func scanStrings(rows *sql.Rows, op string) ([]string, error) {
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, persistErr(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr(op, err)
	}
	return out, nil
}
