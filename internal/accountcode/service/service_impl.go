package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountcodedomain "github.com/stackfreight/billing/internal/accountcode/domain"
	clientdomain "github.com/stackfreight/billing/internal/client/domain"
	obsmetrics "github.com/stackfreight/billing/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	obsMetrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) accountcodedomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("accountcode.service"),
		genID:      p.GenID,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Allocate(ctx context.Context, repPrefix, country string) (string, error) {
	prefix := strings.ToUpper(strings.TrimSpace(repPrefix))
	country = strings.ToUpper(strings.TrimSpace(country))
	if prefix == "" {
		return "", accountcodedomain.ErrInvalidPrefix
	}
	if len(country) != 2 {
		return "", accountcodedomain.ErrInvalidCountry
	}

	var next int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.nextSuffix(ctx, tx, prefix, country)
		if err != nil {
			return err
		}
		next = n
		return nil
	})
	if err != nil {
		// Account creation must not be blocked by a transient store
		// failure. A random suffix risks a detectable collision on the
		// client table's unique code index; the caller retries there.
		next = int64(rand.IntN(999) + 1)
		code := formatCode(prefix, country, next)
		s.log.Warn("code sequence unavailable, degrading to random suffix",
			zap.String("code", code),
			zap.Error(err),
		)
		s.obsMetrics.RecordCodeAllocation(ctx, "fallback")
		return code, nil
	}

	code := formatCode(prefix, country, next)
	s.log.Info("account code allocated", zap.String("code", code))
	s.obsMetrics.RecordCodeAllocation(ctx, "sequence")
	return code, nil
}

// nextSuffix bumps the (prefix, country) sequence row inside tx and returns
// the new value. A missing row is seeded from the highest suffix already
// present on the client table, so legacy codes keep the sequence dense.
func (s *Service) nextSuffix(ctx context.Context, tx *gorm.DB, prefix, country string) (int64, error) {
	res := tx.Model(&accountcodedomain.CodeSequence{}).
		Where("rep_prefix = ? AND country = ?", prefix, country).
		Update("last_value", gorm.Expr("last_value + 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("bump code sequence: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		seed, err := s.maxExistingSuffix(ctx, tx, prefix, country)
		if err != nil {
			return 0, err
		}
		seq := &accountcodedomain.CodeSequence{
			ID:        s.genID.Generate(),
			RepPrefix: prefix,
			Country:   country,
			LastValue: seed + 1,
		}
		// Seeding must tolerate a rival allocator winning the first use:
		// DO NOTHING keeps the statement error-free on every dialect, so
		// the surrounding transaction stays healthy and the lost race is
		// just RowsAffected == 0.
		ins := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "rep_prefix"}, {Name: "country"}},
			DoNothing: true,
		}).Create(seq)
		if ins.Error != nil {
			return 0, fmt.Errorf("seed code sequence: %w", ins.Error)
		}
		if ins.RowsAffected == 0 {
			// The winner seeded the row; continue its sequence.
			bump := tx.Model(&accountcodedomain.CodeSequence{}).
				Where("rep_prefix = ? AND country = ?", prefix, country).
				Update("last_value", gorm.Expr("last_value + 1"))
			if bump.Error != nil {
				return 0, fmt.Errorf("bump code sequence: %w", bump.Error)
			}
		}
	}

	var seq accountcodedomain.CodeSequence
	if err := tx.Where("rep_prefix = ? AND country = ?", prefix, country).First(&seq).Error; err != nil {
		return 0, fmt.Errorf("read code sequence: %w", err)
	}
	return seq.LastValue, nil
}

func (s *Service) maxExistingSuffix(ctx context.Context, tx *gorm.DB, prefix, country string) (int64, error) {
	var codes []string
	like := fmt.Sprintf("%s-%s-%%", prefix, country)
	if err := tx.WithContext(ctx).Model(&clientdomain.Client{}).
		Where("account_code LIKE ?", like).
		Pluck("account_code", &codes).Error; err != nil {
		return 0, fmt.Errorf("scan existing codes: %w", err)
	}

	var max int64
	for _, code := range codes {
		suffix := code[strings.LastIndex(code, "-")+1:]
		n, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

func formatCode(prefix, country string, suffix int64) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, country, suffix)
}
