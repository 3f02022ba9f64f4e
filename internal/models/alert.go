package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "moneybot/internal/errors"
)

// AlertType is the predicate an alert evaluates.
type AlertType string

const (
	// AlertDailyChange fires on the day's percent change versus prior close.
	AlertDailyChange AlertType = "DAILY_CHANGE"
	// AlertProfitLoss fires when the move from the reference price exceeds the threshold either way.
	AlertProfitLoss AlertType = "PROFIT_LOSS"
	// AlertStopProfit fires on gains at or above the threshold.
	AlertStopProfit AlertType = "STOP_PROFIT"
	// AlertStopLoss fires on losses at or beyond the threshold.
	AlertStopLoss AlertType = "STOP_LOSS"
	// AlertTargetPrice fires when the price reaches the target.
	AlertTargetPrice AlertType = "TARGET_PRICE"
)

// AlertDirection restricts which side of a daily move counts.
type AlertDirection string

const (
	DirectionUp   AlertDirection = "UP"
	DirectionDown AlertDirection = "DOWN"
	DirectionBoth AlertDirection = "BOTH"
)

// ParseAlertType parses a case-insensitive alert type.
func ParseAlertType(s string) (AlertType, error) {
	t := AlertType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case AlertDailyChange, AlertProfitLoss, AlertStopProfit, AlertStopLoss, AlertTargetPrice:
		return t, nil
	}
	return "", apperrors.NewValidationError("type", s, "unknown alert type")
}

// ParseAlertDirection parses a case-insensitive direction.
func ParseAlertDirection(s string) (AlertDirection, error) {
	d := AlertDirection(strings.ToUpper(strings.TrimSpace(s)))
	switch d {
	case DirectionUp, DirectionDown, DirectionBoth:
		return d, nil
	}
	return "", apperrors.NewValidationError("direction", s, "must be UP, DOWN or BOTH")
}

// PriceAlert is a persisted condition over a symbol's live price, owned by one user.
type PriceAlert struct {
	ID             string
	UserID         string
	Symbol         string
	Type           AlertType
	Threshold      decimal.NullDecimal // percent; all types except TARGET_PRICE
	TargetPrice    decimal.NullDecimal // TARGET_PRICE only
	Direction      AlertDirection      // DAILY_CHANGE only
	ReferencePrice decimal.NullDecimal // PROFIT_LOSS, STOP_PROFIT, STOP_LOSS
	IsActive       bool
	LastTriggered  *time.Time
	TriggerCount   int
	CreatedAt      time.Time
}

// NeedsReference reports whether the alert type is measured against a reference price.
func (t AlertType) NeedsReference() bool {
	return t == AlertProfitLoss || t == AlertStopProfit || t == AlertStopLoss
}

// Validate checks that exactly the fields the alert type depends on are present.
func (a *PriceAlert) Validate() error {
	if a.UserID == "" {
		return a.invalid("user_id", a.UserID, "owner is required")
	}
	if strings.TrimSpace(a.Symbol) == "" {
		return a.invalid("symbol", a.Symbol, "symbol is required")
	}
	if _, err := ParseAlertType(string(a.Type)); err != nil {
		return a.invalid("type", a.Type, "unknown alert type")
	}

	if a.Type == AlertTargetPrice {
		if !a.TargetPrice.Valid || !a.TargetPrice.Decimal.IsPositive() {
			return a.invalid("target_price", a.TargetPrice.Decimal, "TARGET_PRICE requires a positive target price")
		}
		return nil
	}

	if !a.Threshold.Valid || !a.Threshold.Decimal.IsPositive() {
		return a.invalid("threshold", a.Threshold.Decimal, fmt.Sprintf("%s requires a positive threshold", a.Type))
	}
	if a.Type.NeedsReference() {
		if !a.ReferencePrice.Valid || !a.ReferencePrice.Decimal.IsPositive() {
			return a.invalid("reference_price", a.ReferencePrice.Decimal, fmt.Sprintf("%s requires a positive reference price", a.Type))
		}
	}
	if a.Type == AlertDailyChange {
		if _, err := ParseAlertDirection(string(a.Direction)); err != nil {
			return a.invalid("direction", a.Direction, "DAILY_CHANGE requires UP, DOWN or BOTH")
		}
	}
	return nil
}

func (a *PriceAlert) invalid(field string, value interface{}, msg string) error {
	ve := apperrors.NewValidationError(field, value, msg)
	ve.Err = apperrors.ErrInvalidAlert
	return ve
}

// Describe returns a short human-readable form of the alert condition.
func (a *PriceAlert) Describe() string {
	switch a.Type {
	case AlertTargetPrice:
		return fmt.Sprintf("%s reaches %s", a.Symbol, a.TargetPrice.Decimal.StringFixed(2))
	case AlertDailyChange:
		return fmt.Sprintf("%s daily move %s %s%%", a.Symbol, a.Direction, a.Threshold.Decimal.String())
	default:
		return fmt.Sprintf("%s %s %s%% from %s", a.Symbol, a.Type, a.Threshold.Decimal.String(), a.ReferencePrice.Decimal.StringFixed(2))
	}
}
