package alerts

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	apperrors "moneybot/internal/errors"
	"moneybot/internal/market"
	"moneybot/internal/models"
	"moneybot/internal/store"
)

// Defaults are the thresholds, in percent, of generated alerts.
type Defaults struct {
	DailyChange decimal.Decimal
	StopProfit  decimal.Decimal
	StopLoss    decimal.Decimal
}

// DefaultThresholds returns 5% daily move, 20% take-profit and 10% stop-loss.
func DefaultThresholds() Defaults {
	return Defaults{
		DailyChange: decimal.NewFromInt(5),
		StopProfit:  decimal.NewFromInt(20),
		StopLoss:    decimal.NewFromInt(10),
	}
}

// ServiceStore is the persistence alert management needs.
type ServiceStore interface {
	store.AlertStore
	store.PortfolioStore
}

// Service manages alert definitions on behalf of their owners.
type Service struct {
	store    ServiceStore
	defaults Defaults
	logger   zerolog.Logger
}

// NewService creates an alert Service.
func NewService(st ServiceStore, defaults Defaults, logger zerolog.Logger) *Service {
	return &Service{
		store:    st,
		defaults: defaults,
		logger:   logger.With().Str("component", "alert_service").Logger(),
	}
}

// Create validates and stores a new active alert.
func (s *Service) Create(ctx context.Context, a *models.PriceAlert) error {
	a.Symbol = market.NormalizeSymbol(a.Symbol)
	if err := a.Validate(); err != nil {
		return err
	}
	a.IsActive = true
	if err := s.store.SaveAlert(ctx, a); err != nil {
		return err
	}
	s.logger.Info().
		Str("alert_id", a.ID).
		Str("user_id", a.UserID).
		Str("condition", a.Describe()).
		Msg("Alert created")
	return nil
}

// List returns the user's alerts.
func (s *Service) List(ctx context.Context, userID string) ([]models.PriceAlert, error) {
	return s.store.ListAlerts(ctx, userID)
}

// SetActive enables or disables one of the user's alerts.
func (s *Service) SetActive(ctx context.Context, userID, id string, active bool) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.store.SetAlertActive(ctx, id, active)
}

// Delete removes one of the user's alerts.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteAlert(ctx, id)
}

// owned loads an alert and hides alerts of other users behind ErrNotFound.
func (s *Service) owned(ctx context.Context, userID, id string) (*models.PriceAlert, error) {
	a, err := s.store.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "alert %s", id)
	}
	return a, nil
}

// GenerateDefaults creates the standard alert set for each of the user's
// holdings, measured from the average cost. Types a symbol already has are skipped.
func (s *Service) GenerateDefaults(ctx context.Context, userID string) ([]models.PriceAlert, error) {
	holdings, err := s.store.ListHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.ListAlerts(ctx, userID)
	if err != nil {
		return nil, err
	}

	have := make(map[string]map[models.AlertType]bool)
	for _, a := range existing {
		if have[a.Symbol] == nil {
			have[a.Symbol] = make(map[models.AlertType]bool)
		}
		have[a.Symbol][a.Type] = true
	}

	var created []models.PriceAlert
	for _, h := range holdings {
		for _, a := range s.defaultsFor(h) {
			if have[h.Symbol][a.Type] {
				continue
			}
			if err := s.Create(ctx, &a); err != nil {
				return created, err
			}
			created = append(created, a)
		}
	}
	return created, nil
}

func (s *Service) defaultsFor(h models.Holding) []models.PriceAlert {
	ref := decimal.NewNullDecimal(h.AvgPrice)
	return []models.PriceAlert{
		{
			UserID:    h.UserID,
			Symbol:    h.Symbol,
			Type:      models.AlertDailyChange,
			Threshold: decimal.NewNullDecimal(s.defaults.DailyChange),
			Direction: models.DirectionBoth,
		},
		{
			UserID:         h.UserID,
			Symbol:         h.Symbol,
			Type:           models.AlertStopProfit,
			Threshold:      decimal.NewNullDecimal(s.defaults.StopProfit),
			ReferencePrice: ref,
		},
		{
			UserID:         h.UserID,
			Symbol:         h.Symbol,
			Type:           models.AlertStopLoss,
			Threshold:      decimal.NewNullDecimal(s.defaults.StopLoss),
			ReferencePrice: ref,
		},
	}
}
