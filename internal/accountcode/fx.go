package accountcode

import (
	"github.com/stackfreight/billing/internal/accountcode/service"
	"go.uber.org/fx"
)

var Module = fx.Module("accountcode.service",
	fx.Provide(service.NewService),
)
