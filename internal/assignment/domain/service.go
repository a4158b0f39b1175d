// Package domain defines sales-rep assignment for new clients. Workload is
// scoped per country: a rep heavily loaded in one market is still a fair
// candidate in another.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/stackfreight/billing/internal/client/domain"
	identitydomain "github.com/stackfreight/billing/internal/identity/domain"
)

type Service interface {
	// Assign picks the least-loaded admin-tier representative for the
	// client's country and persists the assignment. It returns (nil, nil)
	// when no candidate exists or the write fails; the surrounding signup
	// workflow proceeds and the gap is surfaced to operators via logs.
	Assign(ctx context.Context, clientID snowflake.ID, country string) (*snowflake.ID, error)
}

// Repository is the persistence surface Assign needs. Split out so tests
// can inject read failures without touching the database.
type Repository interface {
	GetClient(ctx context.Context, id snowflake.ID) (*clientdomain.Client, error)
	// ListCandidates returns admin-tier users ordered by creation time
	// ascending; the ordering is the assignment tie-break.
	ListCandidates(ctx context.Context) ([]identitydomain.User, error)
	CountAssigned(ctx context.Context, repID snowflake.ID, country string) (int64, error)
	AssignOwner(ctx context.Context, clientID, repID snowflake.ID) error
}

var (
	ErrInvalidClient  = errors.New("invalid_client")
	ErrClientNotFound = errors.New("client_not_found")
)
