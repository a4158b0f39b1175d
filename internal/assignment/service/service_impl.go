package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	assignmentdomain "github.com/stackfreight/billing/internal/assignment/domain"
	identitydomain "github.com/stackfreight/billing/internal/identity/domain"
	obsmetrics "github.com/stackfreight/billing/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	Repo       assignmentdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	repo       assignmentdomain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) assignmentdomain.Service {
	return &Service{
		log:        p.Log.Named("assignment.service"),
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Assign(ctx context.Context, clientID snowflake.ID, country string) (*snowflake.ID, error) {
	if clientID == 0 {
		return nil, assignmentdomain.ErrInvalidClient
	}

	client, err := s.repo.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	if client == nil {
		return nil, assignmentdomain.ErrClientNotFound
	}

	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		country = client.Country
	}

	candidates, err := s.repo.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if len(candidates) == 0 {
		s.log.Warn("no admin-tier representatives available",
			zap.String("client_id", clientID.String()),
			zap.String("country", country),
		)
		s.obsMetrics.RecordAssignment(ctx, "empty_pool")
		return nil, nil
	}

	// Candidates come ordered by creation time ascending, so keeping the
	// strictly-smaller workload preserves the earliest-registered rep on
	// ties.
	best := candidates[0]
	bestLoad, err := s.repo.CountAssigned(ctx, best.ID, country)
	if err != nil {
		return s.assignDegraded(ctx, clientID, country, best, err)
	}
	for _, candidate := range candidates[1:] {
		load, err := s.repo.CountAssigned(ctx, candidate.ID, country)
		if err != nil {
			return s.assignDegraded(ctx, clientID, country, candidates[0], err)
		}
		if load < bestLoad {
			best = candidate
			bestLoad = load
		}
	}

	return s.persist(ctx, clientID, country, best.ID, "balanced")
}

// assignDegraded falls back to the earliest-registered representative when
// workload counts cannot be read.
func (s *Service) assignDegraded(ctx context.Context, clientID snowflake.ID, country string, earliest identitydomain.User, cause error) (*snowflake.ID, error) {
	s.log.Warn("workload count unavailable, assigning earliest-registered representative",
		zap.String("client_id", clientID.String()),
		zap.String("rep_id", earliest.ID.String()),
		zap.Error(cause),
	)
	return s.persist(ctx, clientID, country, earliest.ID, "degraded")
}

func (s *Service) persist(ctx context.Context, clientID snowflake.ID, country string, repID snowflake.ID, mode string) (*snowflake.ID, error) {
	if err := s.repo.AssignOwner(ctx, clientID, repID); err != nil {
		s.log.Error("failed to persist sales owner",
			zap.String("client_id", clientID.String()),
			zap.String("rep_id", repID.String()),
			zap.Error(err),
		)
		s.obsMetrics.RecordAssignment(ctx, "write_failed")
		return nil, nil
	}

	s.log.Info("sales representative assigned",
		zap.String("client_id", clientID.String()),
		zap.String("rep_id", repID.String()),
		zap.String("country", country),
		zap.String("mode", mode),
	)
	s.obsMetrics.RecordAssignment(ctx, mode)
	return &repID, nil
}
