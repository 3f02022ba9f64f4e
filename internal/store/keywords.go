package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"moneybot/internal/models"
)

// LookupKeyword finds a learned mapping for text. A keyword matches when text
// contains it; ties go to the most used, then the longest keyword.
func (s *SQLiteStore) LookupKeyword(ctx context.Context, userID, text string) (*models.KeywordMapping, error) {
	text = normalizeKeyword(text)
	if text == "" {
		return nil, nil
	}

	m := models.KeywordMapping{UserID: userID}
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT keyword, category, subcategory, usage_count, updated_at
		FROM keywords
		WHERE user_id = ? AND instr(?, keyword) > 0
		ORDER BY usage_count DESC, length(keyword) DESC
		LIMIT 1
	`, userID, text).Scan(&m.Keyword, &m.Category, &m.Subcategory, &m.UsageCount, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("lookup_keyword", err)
	}
	return &m, nil
}

// UpsertKeyword creates the mapping with a usage count of one, or points it at
// the new category and bumps the count.
func (s *SQLiteStore) UpsertKeyword(ctx context.Context, userID, keyword, category, subcategory string) error {
	keyword = normalizeKeyword(keyword)
	if keyword == "" {
		return nil
	}

	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO keywords (user_id, keyword, category, subcategory, usage_count, updated_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(user_id, keyword) DO UPDATE SET
			category = excluded.category,
			subcategory = excluded.subcategory,
			usage_count = keywords.usage_count + 1,
			updated_at = excluded.updated_at
	`, userID, keyword, category, subcategory, s.now().UTC())
	if err != nil {
		return persistErr("upsert_keyword", err)
	}
	return nil
}

func normalizeKeyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
