package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// RecomputeRequest targets a client's ledger row. Month/Year zero means the
// current calendar period.
type RecomputeRequest struct {
	ClientID snowflake.ID
	Month    int
	Year     int
}

// AddChargeRequest records a one-off service charge, e.g. an ad-hoc pickup
// fee. The component does not deduplicate; callers own idempotency.
type AddChargeRequest struct {
	ClientID snowflake.ID
	Amount   decimal.Decimal
	Month    int
	Year     int
}

type Service interface {
	// Recompute re-derives the over-capacity charge for the period from the
	// current capacity snapshot. It returns the ledger row it wrote, or
	// (nil, nil) when usage is within limits and no row exists yet.
	Recompute(ctx context.Context, req RecomputeRequest) (*MonthlyChargeLedger, error)

	// AddCharge accumulates a service charge onto the period's ledger row,
	// creating it when absent. OverSpaceAmount and OverSpaceChargedAt are
	// never touched.
	AddCharge(ctx context.Context, req AddChargeRequest) (*MonthlyChargeLedger, error)
}

var (
	ErrInvalidClient    = errors.New("invalid_client")
	ErrInvalidPeriod    = errors.New("invalid_period")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrCapacityNotFound = errors.New("capacity_snapshot_not_found")
	ErrClientNotFound   = errors.New("client_not_found")
)
