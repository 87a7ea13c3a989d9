package group

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/farmsupport/vsla/internal/domain/group"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/infrastructure/persistence"
	"github.com/farmsupport/vsla/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return NewService(persistence.NewGormTransactionScope(db), zap.NewNop())
}

func TestService_Registry(t *testing.T) {
	svc := newTestService(t)
	ctx := t.Context()
	actor := shared.NewActor(uuid.New())

	g, err := svc.CreateGroup(ctx, actor, CreateGroupRequest{
		Name: gofakeit.Company(), Code: "kb-" + gofakeit.DigitN(4), District: "Gulu",
	})
	require.NoError(t, err)
	assert.Equal(t, string(group.CategoryVSLA), g.Category)
	assert.Equal(t, "Gulu", g.District)

	userID := uuid.New()
	chair, err := svc.AddMember(ctx, actor, g.ID, AddMemberRequest{
		Name: gofakeit.Name(), Role: "chairperson", UserID: userID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, userID, *chair.UserID)

	_, err = svc.AddMember(ctx, actor, g.ID, AddMemberRequest{Name: "Akello Grace"})
	require.NoError(t, err)

	members, err := svc.ListMembers(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	_, err = svc.AddMember(ctx, actor, uuid.New(), AddMemberRequest{Name: "Nobody"})
	assert.ErrorIs(t, err, shared.ErrGroupNotFound)

	_, err = svc.AddMember(ctx, actor, g.ID, AddMemberRequest{Name: "Someone", Role: "patron"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestService_OpenCycle(t *testing.T) {
	svc := newTestService(t)
	ctx := t.Context()
	actor := shared.NewActor(uuid.New())

	g, err := svc.CreateGroup(ctx, actor, CreateGroupRequest{Name: gofakeit.Company(), Code: gofakeit.DigitN(6)})
	require.NoError(t, err)

	req := OpenCycleRequest{
		Name:           "Cycle 2026",
		ShareUnitValue: testutil.Money("2000"),
		StartDate:      "2026-01-05",
		EndDate:        "2026-12-20",
	}
	c, err := svc.OpenCycle(ctx, actor, g.ID, req)
	require.NoError(t, err)
	assert.True(t, c.IsActiveCycle)
	assert.Equal(t, string(group.CycleTypeSavingsAssociation), c.CycleType)
	assert.Equal(t, string(group.SavingTypeFixedShare), c.SavingType)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), c.StartDate)

	_, err = svc.OpenCycle(ctx, actor, g.ID, req)
	assert.ErrorIs(t, err, shared.ErrCycleState, "one active cycle per group")

	_, err = svc.OpenCycle(ctx, actor, uuid.New(), req)
	assert.ErrorIs(t, err, shared.ErrGroupNotFound)

	bad := req
	bad.EndDate = "2025-12-31"
	_, err = svc.OpenCycle(ctx, actor, g.ID, bad)
	assert.ErrorIs(t, err, shared.ErrValidation)

	cycles, err := svc.ListCycles(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, c.ID, cycles[0].ID)
}

func TestOpenCycleRequest_Dates(t *testing.T) {
	_, _, err := OpenCycleRequest{StartDate: "05/01/2026", EndDate: "2026-12-20"}.Dates()
	assert.ErrorIs(t, err, shared.ErrValidation)

	start, end, err := OpenCycleRequest{StartDate: "2026-01-05", EndDate: "2026-12-20"}.Dates()
	require.NoError(t, err)
	assert.True(t, end.After(start))
}
