package assignment

import (
	"github.com/stackfreight/billing/internal/assignment/repository"
	"github.com/stackfreight/billing/internal/assignment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("assignment.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
