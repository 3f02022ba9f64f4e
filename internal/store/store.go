// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"moneybot/internal/models"
)

// SessionStore persists one conversation session per user.
type SessionStore interface {
	// GetSession returns the user's session, or a fresh IDLE session if none exists.
	GetSession(ctx context.Context, userID string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
}

// KeywordStore is the per-user category learning store.
type KeywordStore interface {
	// LookupKeyword returns the most used mapping whose keyword text contains, or nil.
	LookupKeyword(ctx context.Context, userID, text string) (*models.KeywordMapping, error)
	// UpsertKeyword records a confirmed use, creating the mapping or incrementing its usage count.
	UpsertKeyword(ctx context.Context, userID, keyword, category, subcategory string) error
}

// LedgerStore records income and expense entries.
type LedgerStore interface {
	AddEntry(ctx context.Context, entry *models.LedgerEntry) error
	// RecentEntries returns up to limit entries of one kind, most recent first.
	RecentEntries(ctx context.Context, userID string, kind models.EntryKind, limit int) ([]models.LedgerEntry, error)
	EntriesBetween(ctx context.Context, userID string, from, to time.Time) ([]models.LedgerEntry, error)
	LedgerUsersBetween(ctx context.Context, from, to time.Time) ([]string, error)
}

// PortfolioStore holds equity positions.
type PortfolioStore interface {
	// GetHolding returns the position or nil if the user holds none.
	GetHolding(ctx context.Context, userID, symbol string) (*models.Holding, error)
	SaveHolding(ctx context.Context, holding *models.Holding) error
	DeleteHolding(ctx context.Context, userID, symbol string) error
	ListHoldings(ctx context.Context, userID string) ([]models.Holding, error)
	ListHolders(ctx context.Context) ([]string, error)
}

// AlertStore holds price alert definitions and their trigger bookkeeping.
type AlertStore interface {
	SaveAlert(ctx context.Context, alert *models.PriceAlert) error
	GetAlert(ctx context.Context, id string) (*models.PriceAlert, error)
	ListAlerts(ctx context.Context, userID string) ([]models.PriceAlert, error)
	ListActiveAlerts(ctx context.Context) ([]models.PriceAlert, error)
	SetAlertActive(ctx context.Context, id string, active bool) error
	DeleteAlert(ctx context.Context, id string) error
	RecordTrigger(ctx context.Context, id string, at time.Time) error
}

// NotificationStore records notifications owned by users.
type NotificationStore interface {
	SaveNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)
}

// Transactor runs fn atomically. Store calls made with the ctx passed to fn join the transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DataStore defines the interface for data persistence.
type DataStore interface {
	SessionStore
	KeywordStore
	LedgerStore
	PortfolioStore
	AlertStore
	NotificationStore
	Transactor

	// Lifecycle
	Close() error
}
