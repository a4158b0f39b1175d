package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"testing"

	"github.com/bwmarrin/snowflake"
	accountcodedomain "github.com/stackfreight/billing/internal/accountcode/domain"
	clientdomain "github.com/stackfreight/billing/internal/client/domain"
	dbpkg "github.com/stackfreight/billing/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupCodeTest(t *testing.T) (*gorm.DB, *Service, *snowflake.Node) {
	t.Helper()

	db, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&clientdomain.Client{}, &accountcodedomain.CodeSequence{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{DB: db, Log: zap.NewNop(), GenID: node})
	return db, svc.(*Service), node
}

func seedClient(t *testing.T, db *gorm.DB, node *snowflake.Node, country, code string) {
	t.Helper()
	require.NoError(t, db.Create(&clientdomain.Client{
		ID:          node.Generate(),
		Country:     country,
		AccountCode: code,
	}).Error)
}

func TestAllocate_FirstCodeStartsAtOne(t *testing.T) {
	_, svc, _ := setupCodeTest(t)

	code, err := svc.Allocate(context.Background(), "JD", "DE")
	require.NoError(t, err)
	assert.Equal(t, "JD-DE-001", code)
}

func TestAllocate_MonotonicGapFree(t *testing.T) {
	db, svc, node := setupCodeTest(t)

	for i := 1; i <= 5; i++ {
		code, err := svc.Allocate(context.Background(), "JD", "DE")
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("JD-DE-%03d", i), code)

		// The caller persists the client with the allocated code before
		// the next signup arrives.
		seedClient(t, db, node, "DE", code)
	}
}

func TestAllocate_SeedsFromExistingCodes(t *testing.T) {
	db, svc, node := setupCodeTest(t)

	seedClient(t, db, node, "DE", "JD-DE-007")
	seedClient(t, db, node, "DE", "JD-DE-002")
	// Non-numeric suffixes and other prefixes must not disturb the seed.
	seedClient(t, db, node, "DE", Placeholder("DE"))
	seedClient(t, db, node, "DE", "MW-DE-120")

	code, err := svc.Allocate(context.Background(), "JD", "DE")
	require.NoError(t, err)
	assert.Equal(t, "JD-DE-008", code)
}

func TestAllocate_SequencesAreScopedPerPrefixAndCountry(t *testing.T) {
	_, svc, _ := setupCodeTest(t)

	code, err := svc.Allocate(context.Background(), "JD", "DE")
	require.NoError(t, err)
	assert.Equal(t, "JD-DE-001", code)

	code, err = svc.Allocate(context.Background(), "JD", "FR")
	require.NoError(t, err)
	assert.Equal(t, "JD-FR-001", code)

	code, err = svc.Allocate(context.Background(), "MW", "DE")
	require.NoError(t, err)
	assert.Equal(t, "MW-DE-001", code)
}

func TestAllocate_NormalizesInput(t *testing.T) {
	_, svc, _ := setupCodeTest(t)

	code, err := svc.Allocate(context.Background(), " jd ", "de")
	require.NoError(t, err)
	assert.Equal(t, "JD-DE-001", code)
}

func TestAllocate_LostSeedingRaceContinuesWinnerSequence(t *testing.T) {
	db, svc, node := setupCodeTest(t)

	// A rival allocator wins the first use of the (prefix, country) pair:
	// by the time this allocator tries to seed the sequence row, the
	// rival's row is already there. The callback plants it on the same
	// transaction connection right before the seed insert runs.
	var raced bool
	err := db.Callback().Create().Before("gorm:create").Register("rival_seed", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*accountcodedomain.CodeSequence); !ok || raced {
			return
		}
		raced = true
		_, execErr := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"INSERT INTO code_sequences (id, rep_prefix, country, last_value) VALUES (?, ?, ?, ?)",
			int64(node.Generate()), "JD", "DE", 1)
		assert.NoError(t, execErr)
	})
	require.NoError(t, err)

	code, err := svc.Allocate(context.Background(), "JD", "DE")
	require.NoError(t, err)
	require.True(t, raced)
	assert.Equal(t, "JD-DE-002", code, "the loser of the seeding race must continue the winner's sequence, not fall back")

	var seq accountcodedomain.CodeSequence
	require.NoError(t, db.Where("rep_prefix = ? AND country = ?", "JD", "DE").First(&seq).Error)
	assert.Equal(t, int64(2), seq.LastValue)
}

func TestAllocate_FallsBackToRandomSuffixOnStoreFailure(t *testing.T) {
	db, svc, _ := setupCodeTest(t)

	require.NoError(t, db.Migrator().DropTable(&accountcodedomain.CodeSequence{}))
	require.NoError(t, db.Migrator().DropTable(&clientdomain.Client{}))

	code, err := svc.Allocate(context.Background(), "JD", "DE")
	require.NoError(t, err, "a store failure must not block account creation")

	re := regexp.MustCompile(`^JD-DE-(\d{3})$`)
	match := re.FindStringSubmatch(code)
	require.NotNil(t, match, "fallback code %q must keep the canonical shape", code)

	suffix, err := strconv.Atoi(match[1])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, suffix, 1)
	assert.LessOrEqual(t, suffix, 999)
}

func TestAllocate_ValidatesInput(t *testing.T) {
	_, svc, _ := setupCodeTest(t)

	_, err := svc.Allocate(context.Background(), "", "DE")
	assert.ErrorIs(t, err, accountcodedomain.ErrInvalidPrefix)

	_, err = svc.Allocate(context.Background(), "JD", "DEU")
	assert.ErrorIs(t, err, accountcodedomain.ErrInvalidCountry)
}
