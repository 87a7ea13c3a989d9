package group

import (
	"context"
	"errors"

	"github.com/farmsupport/vsla/internal/application/txscope"
	"github.com/farmsupport/vsla/internal/domain/group"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the registry of groups, their members and cycles. Cycles are
// only closed by a completed shareout.
type Service struct {
	scope  txscope.TransactionScope
	logger *zap.Logger
}

// NewService creates a new group service
func NewService(scope txscope.TransactionScope, logger *zap.Logger) *Service {
	return &Service{scope: scope, logger: logger}
}

// CreateGroup registers a group. The category defaults to vsla.
func (s *Service) CreateGroup(ctx context.Context, actor shared.Actor, req CreateGroupRequest) (*GroupResponse, error) {
	category := group.Category(req.Category)
	if category == "" {
		category = group.CategoryVSLA
	}
	g, err := group.NewGroup(req.Name, req.Code, category)
	if err != nil {
		return nil, err
	}
	g.District = req.District
	if err := s.scope.Repositories().GroupRepo().Create(ctx, g); err != nil {
		return nil, err
	}
	s.logger.Info("group registered",
		zap.String("group_id", g.ID.String()),
		zap.String("code", g.Code),
		zap.String("actor", actor.UserID.String()))
	resp := ToGroupResponse(g)
	return &resp, nil
}

// AddMember adds a member to an existing group
func (s *Service) AddMember(ctx context.Context, actor shared.Actor, groupID uuid.UUID, req AddMemberRequest) (*MemberResponse, error) {
	userID, err := shared.ParseOptionalID("user_id", req.UserID)
	if err != nil {
		return nil, err
	}
	var m *group.Member
	err = s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		if _, err := repos.GroupRepo().FindByID(ctx, groupID); err != nil {
			return err
		}
		var err error
		m, err = group.NewMember(groupID, req.Name, req.Phone, group.Role(req.Role))
		if err != nil {
			return err
		}
		if userID != nil {
			m.LinkUser(*userID)
		}
		return repos.MemberRepo().Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("member added",
		zap.String("group_id", groupID.String()),
		zap.String("member_id", m.ID.String()),
		zap.String("role", string(m.Role)),
		zap.String("actor", actor.UserID.String()))
	resp := ToMemberResponse(m)
	return &resp, nil
}

// OpenCycle opens the group's next cycle. A group has at most one active
// cycle; the group row lock serializes concurrent openings.
func (s *Service) OpenCycle(ctx context.Context, actor shared.Actor, groupID uuid.UUID, req OpenCycleRequest) (*CycleResponse, error) {
	start, end, err := req.Dates()
	if err != nil {
		return nil, err
	}
	cycleType := group.CycleType(req.CycleType)
	if cycleType == "" {
		cycleType = group.CycleTypeSavingsAssociation
	}
	savingType := group.SavingType(req.SavingType)
	if savingType == "" {
		savingType = group.SavingTypeFixedShare
	}

	c, err := group.NewCycle(groupID, req.Name, cycleType, savingType, req.ShareUnitValue, start, end)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		if _, err := repos.GroupRepo().FindByIDForUpdate(ctx, groupID); err != nil {
			return err
		}
		active, err := repos.CycleRepo().FindActiveByGroup(ctx, groupID)
		switch {
		case err == nil:
			return shared.ErrCycleState.WithMessage("group %s already has active cycle %s", groupID, active.ID)
		case !errors.Is(err, shared.ErrCycleNotFound):
			return err
		}
		return repos.CycleRepo().Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("cycle opened",
		zap.String("group_id", groupID.String()),
		zap.Stringer("cycle", c),
		zap.String("actor", actor.UserID.String()))
	resp := ToCycleResponse(c)
	return &resp, nil
}

// GetGroup returns a group by ID
func (s *Service) GetGroup(ctx context.Context, groupID uuid.UUID) (*GroupResponse, error) {
	g, err := s.scope.Repositories().GroupRepo().FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	resp := ToGroupResponse(g)
	return &resp, nil
}

// ListMembers returns the group's members ordered by name
func (s *Service) ListMembers(ctx context.Context, groupID uuid.UUID) ([]MemberResponse, error) {
	members, err := s.scope.Repositories().MemberRepo().FindByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	resp := make([]MemberResponse, len(members))
	for i := range members {
		resp[i] = ToMemberResponse(&members[i])
	}
	return resp, nil
}

// ListCycles returns every cycle of the group
func (s *Service) ListCycles(ctx context.Context, groupID uuid.UUID) ([]CycleResponse, error) {
	cycles, err := s.scope.Repositories().CycleRepo().ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	resp := make([]CycleResponse, len(cycles))
	for i := range cycles {
		resp[i] = ToCycleResponse(&cycles[i])
	}
	return resp, nil
}
