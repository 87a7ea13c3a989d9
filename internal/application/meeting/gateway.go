package meeting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/farmsupport/vsla/internal/application/txscope"
	"github.com/farmsupport/vsla/internal/domain/meeting"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"go.uber.org/zap"
)

// IngestionGateway accepts meeting batches from offline clients. Each
// local_id is accepted once; resubmissions get the stored outcome back.
type IngestionGateway struct {
	scope     txscope.TransactionScope
	processor *Processor
	logger    *zap.Logger
}

// NewIngestionGateway creates a new ingestion gateway
func NewIngestionGateway(scope txscope.TransactionScope, processor *Processor, logger *zap.Logger) *IngestionGateway {
	return &IngestionGateway{scope: scope, processor: processor, logger: logger}
}

// Submit validates, registers and processes a batch. raw is the payload as
// received and is stored for reprocessing; when empty the batch is encoded.
func (g *IngestionGateway) Submit(ctx context.Context, actor shared.Actor, batch *meeting.Batch, raw []byte) (*meeting.Outcome, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	existing, err := g.scope.Repositories().MeetingRepo().FindByLocalID(ctx, batch.LocalID)
	switch {
	case err == nil:
		if existing.StalePending(g.processor.timeout, time.Now()) {
			return g.redrive(ctx, actor, existing)
		}
		g.logger.Info("duplicate meeting submission",
			zap.String("local_id", batch.LocalID),
			zap.String("meeting_id", existing.ID.String()))
		return meeting.OutcomeOf(existing, true), nil
	case !errors.Is(err, shared.ErrMeetingNotFound):
		return nil, err
	}

	if err := g.checkEligibility(ctx, batch); err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		if raw, err = json.Marshal(batch); err != nil {
			return nil, fmt.Errorf("encode batch: %w", err)
		}
	}
	m, duplicate, err := g.register(ctx, actor, batch, raw)
	if err != nil {
		return nil, err
	}
	if duplicate {
		g.logger.Info("meeting submission lost the local_id race",
			zap.String("local_id", batch.LocalID),
			zap.String("meeting_id", m.ID.String()))
		return meeting.OutcomeOf(m, true), nil
	}
	g.logger.Info("meeting registered",
		zap.Stringer("meeting", m),
		zap.String("actor", actor.UserID.String()))

	return g.processor.Process(ctx, actor, m.ID)
}

// redrive processes a stale pending meeting on resubmission. If a concurrent
// run got there first the stored outcome is returned as a duplicate.
func (g *IngestionGateway) redrive(ctx context.Context, actor shared.Actor, m *meeting.Meeting) (*meeting.Outcome, error) {
	g.logger.Warn("re-driving stale pending meeting",
		zap.Stringer("meeting", m),
		zap.Time("registered_at", m.UpdatedAt))
	outcome, err := g.processor.Process(ctx, actor, m.ID)
	if errors.Is(err, shared.ErrMeetingState) {
		current, ferr := g.scope.Repositories().MeetingRepo().FindByID(ctx, m.ID)
		if ferr != nil {
			return nil, ferr
		}
		return meeting.OutcomeOf(current, true), nil
	}
	return outcome, err
}

// checkEligibility rejects batches for cycles that cannot take a meeting.
// Nothing is written.
func (g *IngestionGateway) checkEligibility(ctx context.Context, batch *meeting.Batch) error {
	repos := g.scope.Repositories()
	cycle, err := repos.CycleRepo().FindByID(ctx, batch.CycleID)
	if err != nil {
		return err
	}
	groupID := cycle.GroupID
	if batch.GroupID != nil {
		groupID = *batch.GroupID
	}
	grp, err := repos.GroupRepo().FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if err := cycle.EnsureBelongsTo(grp.ID); err != nil {
		return err
	}
	if err := grp.EnsureAcceptsMeetings(); err != nil {
		return err
	}
	return cycle.EnsureAcceptsPostings()
}

// register inserts the meeting under the cycle row lock, numbering it after
// the cycle's last meeting. When a concurrent submission of the same local_id
// won, the winner's meeting is returned with duplicate set.
func (g *IngestionGateway) register(ctx context.Context, actor shared.Actor, batch *meeting.Batch, raw []byte) (*meeting.Meeting, bool, error) {
	var (
		m         *meeting.Meeting
		duplicate bool
	)
	err := g.scope.Execute(ctx, func(repos txscope.TransactionalRepositories) error {
		cycle, err := repos.CycleRepo().FindByIDForUpdate(ctx, batch.CycleID)
		if err != nil {
			return err
		}
		last, err := repos.MeetingRepo().MaxMeetingNumber(ctx, cycle.ID)
		if err != nil {
			return err
		}
		created, err := meeting.NewMeeting(batch, cycle.GroupID, last+1, raw, actor.UserID)
		if err != nil {
			return err
		}
		inserted, err := repos.MeetingRepo().CreateIfAbsent(ctx, created)
		if err != nil {
			return err
		}
		if !inserted {
			winner, err := repos.MeetingRepo().FindByLocalID(ctx, batch.LocalID)
			if err != nil {
				return err
			}
			m, duplicate = winner, true
			return nil
		}
		m, duplicate = created, false
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return m, duplicate, nil
}
