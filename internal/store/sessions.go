package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "moneybot/internal/errors"
	"moneybot/internal/models"
)

// GetSession loads the user's session. A user with no row gets a new IDLE session.
func (s *SQLiteStore) GetSession(ctx context.Context, userID string) (*models.Session, error) {
	var (
		state string
		raw   string
		sess  = models.Session{UserID: userID}
	)

	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT state, context, updated_at FROM sessions WHERE user_id = ?
	`, userID).Scan(&state, &raw, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewSession(userID), nil
	}
	if err != nil {
		return nil, persistErr("get_session", err)
	}

	sess.State = models.State(state)
	c, err := models.DecodeContext(sess.State, []byte(raw))
	if err != nil {
		return nil, apperrors.NewPersistenceError("sqlite", "get_session", fmt.Errorf("%w: %v", apperrors.ErrCorruptSession, err))
	}
	sess.Enter(c)
	return &sess, nil
}

// SetSession writes the whole session record, replacing any previous one.
func (s *SQLiteStore) SetSession(ctx context.Context, session *models.Session) error {
	raw, err := models.EncodeContext(session.Context)
	if err != nil {
		return persistErr("set_session", err)
	}
	state := session.State
	if session.Context == nil {
		state = models.StateIdle
	}
	session.UpdatedAt = s.now().UTC()

	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO sessions (user_id, state, context, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			state = excluded.state,
			context = excluded.context,
			updated_at = excluded.updated_at
	`, session.UserID, string(state), string(raw), session.UpdatedAt)
	if err != nil {
		return persistErr("set_session", err)
	}
	return nil
}
