package migration

import (
	accountcodedomain "github.com/stackfreight/billing/internal/accountcode/domain"
	billingdomain "github.com/stackfreight/billing/internal/billing/domain"
	capacitydomain "github.com/stackfreight/billing/internal/capacity/domain"
	clientdomain "github.com/stackfreight/billing/internal/client/domain"
	"github.com/stackfreight/billing/internal/config"
	identitydomain "github.com/stackfreight/billing/internal/identity/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// mysql/sqlite run in dev and self-hosted setups; gorm's migrator
		// keeps them in step with the models without versioned SQL.
		return conn.AutoMigrate(
			&clientdomain.Client{},
			&identitydomain.User{},
			&capacitydomain.WarehouseCapacity{},
			&billingdomain.MonthlyChargeLedger{},
			&accountcodedomain.CodeSequence{},
		)
	}),
)
