package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	assignmentdomain "github.com/stackfreight/billing/internal/assignment/domain"
	clientdomain "github.com/stackfreight/billing/internal/client/domain"
	identitydomain "github.com/stackfreight/billing/internal/identity/domain"
	"github.com/stackfreight/billing/pkg/repository"
	"gorm.io/gorm"
)

type store struct {
	db         *gorm.DB
	clientRepo repository.Repository[clientdomain.Client]
}

func NewRepository(db *gorm.DB) assignmentdomain.Repository {
	return &store{
		db:         db,
		clientRepo: repository.ProvideStore[clientdomain.Client](db),
	}
}

func (r *store) GetClient(ctx context.Context, id snowflake.ID) (*clientdomain.Client, error) {
	return r.clientRepo.FindOne(ctx, &clientdomain.Client{ID: id})
}

func (r *store) ListCandidates(ctx context.Context) ([]identitydomain.User, error) {
	var users []identitydomain.User
	err := r.db.WithContext(ctx).
		Where("role IN ?", identitydomain.AdminRoles).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *store) CountAssigned(ctx context.Context, repID snowflake.ID, country string) (int64, error) {
	return r.clientRepo.Count(ctx, &clientdomain.Client{SalesOwnerID: &repID, Country: country})
}

func (r *store) AssignOwner(ctx context.Context, clientID, repID snowflake.ID) error {
	res := r.db.WithContext(ctx).
		Model(&clientdomain.Client{}).
		Where("id = ?", clientID).
		Update("sales_owner_id", repID)
	if res.Error != nil {
		return res.Error
	}
	// The client can vanish between the lookup and this update; reporting
	// an owner that was never persisted would be worse than no owner.
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
