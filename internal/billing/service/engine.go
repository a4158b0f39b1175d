package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	billingdomain "github.com/stackfreight/billing/internal/billing/domain"
	capacitydomain "github.com/stackfreight/billing/internal/capacity/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const week = 7 * 24 * time.Hour

// Recompute re-derives the over-capacity charge from the current capacity
// snapshot and writes it onto the period's ledger row.
//
// The charge is weekly pro-rata over the continuous over-capacity period:
// every started week bills in full, and the current overage is applied to
// all elapsed weeks rather than integrating overage over time.
func (s *Service) Recompute(ctx context.Context, req billingdomain.RecomputeRequest) (*billingdomain.MonthlyChargeLedger, error) {
	if req.ClientID == 0 {
		return nil, billingdomain.ErrInvalidClient
	}

	now := s.clock.Now().UTC()
	month, year, err := resolvePeriod(req.Month, req.Year, now)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.capacityRepo.FindOne(ctx, &capacitydomain.WarehouseCapacity{ClientID: req.ClientID})
	if err != nil {
		return nil, fmt.Errorf("load capacity snapshot: %w", err)
	}
	if snapshot == nil {
		return nil, billingdomain.ErrCapacityNotFound
	}

	row, err := s.loadLedgerRow(ctx, req.ClientID, month, year)
	if err != nil {
		return nil, err
	}

	effectiveLimit := snapshot.EffectiveLimit()
	if snapshot.UsedCbm.Cmp(effectiveLimit) <= 0 {
		return s.closePeriod(ctx, req.ClientID, month, year, row, now)
	}

	overage := snapshot.UsedCbm.Sub(effectiveLimit)

	// A period already open keeps its original start; otherwise the
	// overage begins now.
	periodStart := now
	if row != nil && row.OverSpaceChargedAt != nil {
		periodStart = row.OverSpaceChargedAt.UTC()
	}

	weeksElapsed := int64(now.Sub(periodStart) / week)
	if weeksElapsed < 0 {
		weeksElapsed = 0
	}
	// Every started week bills in full: never zero while over the limit.
	weeksCharged := weeksElapsed + 1

	rate := s.rates.Get().RatePerCbmPerWeek
	amount := overage.Mul(rate).Mul(decimal.NewFromInt(weeksCharged))

	entry := &billingdomain.MonthlyChargeLedger{
		ID:                       s.genID.Generate(),
		ClientID:                 req.ClientID,
		Month:                    month,
		Year:                     year,
		OverSpaceAmount:          amount,
		AdditionalServicesAmount: decimal.Zero,
		TotalAmount:              amount,
		OverSpaceChargedAt:       &periodStart,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	// The conflict branch overwrites the overage charge, rebuilds the total
	// from the services column in SQL so a concurrent AddCharge cannot be
	// lost, and preserves an already-open period start via COALESCE.
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "client_id"}, {Name: "month"}, {Name: "year"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"over_space_amount":     amount,
			"total_amount":          gorm.Expr("additional_services_amount + ?", amount),
			"over_space_charged_at": gorm.Expr("COALESCE(over_space_charged_at, ?)", periodStart),
			"updated_at":            now,
		}),
	}).Create(entry).Error
	if err != nil {
		s.log.Error("failed to persist over-capacity charge",
			zap.String("client_id", req.ClientID.String()),
			zap.Int("month", month),
			zap.Int("year", year),
			zap.Error(err),
		)
		s.obsMetrics.RecordRecompute(ctx, "write_failed")
		return nil, fmt.Errorf("persist over-capacity charge: %w", err)
	}

	updated, err := s.loadLedgerRow(ctx, req.ClientID, month, year)
	if err != nil {
		return nil, err
	}

	s.log.Info("over-capacity charge recomputed",
		zap.String("client_id", req.ClientID.String()),
		zap.Int("month", month),
		zap.Int("year", year),
		zap.String("overage_cbm", overage.String()),
		zap.Int64("weeks_charged", weeksCharged),
		zap.String("amount", amount.String()),
	)
	s.obsMetrics.RecordRecompute(ctx, "charged")
	return updated, nil
}

// closePeriod zeroes the over-capacity charge and ends an open period. When
// usage is within limits and no row exists, there is nothing chargeable and
// no row is created.
func (s *Service) closePeriod(ctx context.Context, clientID snowflake.ID, month, year int, row *billingdomain.MonthlyChargeLedger, now time.Time) (*billingdomain.MonthlyChargeLedger, error) {
	if row == nil {
		s.obsMetrics.RecordRecompute(ctx, "within_limit")
		return nil, nil
	}

	err := s.db.WithContext(ctx).
		Model(&billingdomain.MonthlyChargeLedger{}).
		Where("client_id = ? AND month = ? AND year = ?", clientID, month, year).
		Updates(map[string]interface{}{
			"over_space_amount":     decimal.Zero,
			"total_amount":          gorm.Expr("additional_services_amount"),
			"over_space_charged_at": nil,
			"updated_at":            now,
		}).Error
	if err != nil {
		s.log.Error("failed to clear over-capacity charge",
			zap.String("client_id", clientID.String()),
			zap.Int("month", month),
			zap.Int("year", year),
			zap.Error(err),
		)
		s.obsMetrics.RecordRecompute(ctx, "write_failed")
		return nil, fmt.Errorf("clear over-capacity charge: %w", err)
	}

	if row.OverSpaceChargedAt != nil {
		s.log.Info("over-capacity period closed",
			zap.String("client_id", clientID.String()),
			zap.Time("opened_at", *row.OverSpaceChargedAt),
		)
	}
	s.obsMetrics.RecordRecompute(ctx, "within_limit")
	return s.loadLedgerRow(ctx, clientID, month, year)
}
