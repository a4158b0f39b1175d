package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	billingdomain "github.com/stackfreight/billing/internal/billing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCharge_CreatesLedgerRowLazily(t *testing.T) {
	f := setupBillingTest(t)
	clientID := f.addClient(t)

	row, err := f.svc.AddCharge(f.ctx, billingdomain.AddChargeRequest{
		ClientID: clientID,
		Amount:   decimal.RequireFromString("12.50"),
	})
	require.NoError(t, err)
	require.NotNil(t, row)

	requireAmount(t, "12.50", row.AdditionalServicesAmount)
	requireAmount(t, "12.50", row.TotalAmount)
	requireAmount(t, "0", row.OverSpaceAmount)
	assert.Nil(t, row.OverSpaceChargedAt)
	assert.Equal(t, f.month, row.Month)
	assert.Equal(t, f.year, row.Year)
}

func TestAddCharge_AccumulatesAdditively(t *testing.T) {
	f := setupBillingTest(t)
	clientID := f.addClient(t)

	_, err := f.svc.AddCharge(f.ctx, billingdomain.AddChargeRequest{
		ClientID: clientID,
		Amount:   decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	row, err := f.svc.AddCharge(f.ctx, billingdomain.AddChargeRequest{
		ClientID: clientID,
		Amount:   decimal.NewFromInt(15),
	})
	require.NoError(t, err)

	requireAmount(t, "25", row.AdditionalServicesAmount)
	requireAmount(t, "25", row.TotalAmount)
	requireAmount(t, "0", row.OverSpaceAmount)
}

func TestAddCharge_LeavesOverCapacityStateAlone(t *testing.T) {
	f := setupBillingTest(t)
	clientID := f.addClient(t)
	f.setCapacity(t, clientID, "12", "10", "0")

	opened, err := f.svc.Recompute(f.ctx, billingdomain.RecomputeRequest{ClientID: clientID})
	require.NoError(t, err)
	require.NotNil(t, opened.OverSpaceChargedAt)

	row, err := f.svc.AddCharge(f.ctx, billingdomain.AddChargeRequest{
		ClientID: clientID,
		Amount:   decimal.NewFromInt(7),
	})
	require.NoError(t, err)

	requireAmount(t, "10", row.OverSpaceAmount)
	requireAmount(t, "7", row.AdditionalServicesAmount)
	requireAmount(t, "17", row.TotalAmount)
	require.NotNil(t, row.OverSpaceChargedAt)
	assert.True(t, row.OverSpaceChargedAt.Equal(*opened.OverSpaceChargedAt))
}

func TestAddCharge_InterleavedWithRecomputeKeepsTotalsConsistent(t *testing.T) {
	f := setupBillingTest(t)
	clientID := f.addClient(t)
	f.setCapacity(t, clientID, "12", "10", "0")

	_, err := f.svc.Recompute(f.ctx, billingdomain.RecomputeRequest{ClientID: clientID})
	require.NoError(t, err)

	_, err = f.svc.AddCharge(f.ctx, billingdomain.AddChargeRequest{ClientID: clientID, Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	f.clk.Advance(8 * 24 * time.Hour)
	_, err = f.svc.Recompute(f.ctx, billingdomain.RecomputeRequest{ClientID: clientID})
	require.NoError(t, err)

	row, err := f.svc.AddCharge(f.ctx, billingdomain.AddChargeRequest{ClientID: clientID, Amount: decimal.NewFromInt(15)})
	require.NoError(t, err)

	requireAmount(t, "20", row.OverSpaceAmount)
	requireAmount(t, "25", row.AdditionalServicesAmount)
	requireAmount(t, "45", row.TotalAmount)
	assert.True(t, row.TotalAmount.Equal(row.OverSpaceAmount.Add(row.AdditionalServicesAmount)),
		"total = overspace + services must hold after every writer")
}

func TestAddCharge_ExplicitPeriodKeepsRowsSeparate(t *testing.T) {
	f := setupBillingTest(t)
	clientID := f.addClient(t)

	_, err := f.svc.AddCharge(f.ctx, billingdomain.AddChargeRequest{
		ClientID: clientID,
		Amount:   decimal.NewFromInt(10),
		Month:    2,
		Year:     2026,
	})
	require.NoError(t, err)

	row, err := f.svc.AddCharge(f.ctx, billingdomain.AddChargeRequest{
		ClientID: clientID,
		Amount:   decimal.NewFromInt(15),
	})
	require.NoError(t, err)
	requireAmount(t, "15", row.AdditionalServicesAmount)

	var count int64
	require.NoError(t, f.db.Model(&billingdomain.MonthlyChargeLedger{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestAddCharge_Validation(t *testing.T) {
	f := setupBillingTest(t)
	clientID := f.addClient(t)

	_, err := f.svc.AddCharge(f.ctx, billingdomain.AddChargeRequest{Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidClient)

	_, err = f.svc.AddCharge(f.ctx, billingdomain.AddChargeRequest{ClientID: clientID})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidAmount)

	_, err = f.svc.AddCharge(f.ctx, billingdomain.AddChargeRequest{
		ClientID: clientID,
		Amount:   decimal.NewFromInt(-5),
	})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidAmount)

	_, err = f.svc.AddCharge(f.ctx, billingdomain.AddChargeRequest{
		ClientID: f.node.Generate(),
		Amount:   decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, billingdomain.ErrClientNotFound)
}
