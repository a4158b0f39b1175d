package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/stackfreight/billing/internal/billing/domain"
	capacitydomain "github.com/stackfreight/billing/internal/capacity/domain"
	clientdomain "github.com/stackfreight/billing/internal/client/domain"
	"github.com/stackfreight/billing/internal/clock"
	"github.com/stackfreight/billing/internal/config"
	obsmetrics "github.com/stackfreight/billing/internal/observability/metrics"
	"github.com/stackfreight/billing/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Rates      *config.BillingConfigHolder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	rates *config.BillingConfigHolder

	ledgerRepo   repository.Repository[billingdomain.MonthlyChargeLedger]
	capacityRepo repository.Repository[capacitydomain.WarehouseCapacity]
	clientRepo   repository.Repository[clientdomain.Client]

	obsMetrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) billingdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("billing.service"),
		genID: p.GenID,
		clock: p.Clock,
		rates: p.Rates,

		ledgerRepo:   repository.ProvideStore[billingdomain.MonthlyChargeLedger](p.DB),
		capacityRepo: repository.ProvideStore[capacitydomain.WarehouseCapacity](p.DB),
		clientRepo:   repository.ProvideStore[clientdomain.Client](p.DB),

		obsMetrics: p.ObsMetrics,
	}
}

// resolvePeriod fills unset month/year from now.
func resolvePeriod(month, year int, now time.Time) (int, int, error) {
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 || year < 1 {
		return 0, 0, billingdomain.ErrInvalidPeriod
	}
	return month, year, nil
}

func (s *Service) loadLedgerRow(ctx context.Context, clientID snowflake.ID, month, year int) (*billingdomain.MonthlyChargeLedger, error) {
	row, err := s.ledgerRepo.FindOne(ctx, &billingdomain.MonthlyChargeLedger{
		ClientID: clientID,
		Month:    month,
		Year:     year,
	})
	if err != nil {
		return nil, fmt.Errorf("load charge ledger: %w", err)
	}
	return row, nil
}
