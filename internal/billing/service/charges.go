package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	billingdomain "github.com/stackfreight/billing/internal/billing/domain"
	clientdomain "github.com/stackfreight/billing/internal/client/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddCharge accumulates a one-off service charge onto the period's ledger
// row. The whole write is a single upsert whose conflict branch adds in SQL,
// so interleaving with Recompute (or another AddCharge) cannot lose either
// contribution.
func (s *Service) AddCharge(ctx context.Context, req billingdomain.AddChargeRequest) (*billingdomain.MonthlyChargeLedger, error) {
	if req.ClientID == 0 {
		return nil, billingdomain.ErrInvalidClient
	}
	if req.Amount.Sign() <= 0 {
		return nil, billingdomain.ErrInvalidAmount
	}

	now := s.clock.Now().UTC()
	month, year, err := resolvePeriod(req.Month, req.Year, now)
	if err != nil {
		return nil, err
	}

	client, err := s.clientRepo.FindOne(ctx, &clientdomain.Client{ID: req.ClientID})
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	if client == nil {
		return nil, billingdomain.ErrClientNotFound
	}

	// A fresh row carries zero overage; the next engine run fills it in.
	entry := &billingdomain.MonthlyChargeLedger{
		ID:                       s.genID.Generate(),
		ClientID:                 req.ClientID,
		Month:                    month,
		Year:                     year,
		OverSpaceAmount:          decimal.Zero,
		AdditionalServicesAmount: req.Amount,
		TotalAmount:              req.Amount,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "client_id"}, {Name: "month"}, {Name: "year"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"additional_services_amount": gorm.Expr("additional_services_amount + ?", req.Amount),
			"total_amount":               gorm.Expr("total_amount + ?", req.Amount),
			"updated_at":                 now,
		}),
	}).Create(entry).Error
	if err != nil {
		s.log.Error("failed to record service charge",
			zap.String("client_id", req.ClientID.String()),
			zap.String("amount", req.Amount.String()),
			zap.Int("month", month),
			zap.Int("year", year),
			zap.Error(err),
		)
		s.obsMetrics.RecordServiceCharge(ctx, "write_failed")
		return nil, fmt.Errorf("record service charge: %w", err)
	}

	row, err := s.loadLedgerRow(ctx, req.ClientID, month, year)
	if err != nil {
		return nil, err
	}

	s.log.Info("service charge recorded",
		zap.String("client_id", req.ClientID.String()),
		zap.String("amount", req.Amount.String()),
		zap.Int("month", month),
		zap.Int("year", year),
	)
	s.obsMetrics.RecordServiceCharge(ctx, "recorded")
	return row, nil
}
