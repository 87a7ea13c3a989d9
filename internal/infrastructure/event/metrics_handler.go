package event

import (
	"context"

	"github.com/farmsupport/vsla/internal/domain/group"
	"github.com/farmsupport/vsla/internal/domain/loan"
	"github.com/farmsupport/vsla/internal/domain/meeting"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/farmsupport/vsla/internal/domain/shareout"
	"github.com/farmsupport/vsla/internal/domain/socialfund"
	"github.com/farmsupport/vsla/internal/infrastructure/telemetry"
)

// MetricsHandler turns domain events into business metrics
type MetricsHandler struct {
	metrics *telemetry.BusinessMetrics
}

// NewMetricsHandler creates a handler recording into metrics
func NewMetricsHandler(metrics *telemetry.BusinessMetrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// EventTypes lists every event the handler records
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		meeting.EventTypeMeetingProcessed,
		loan.EventTypeLoanDisbursed,
		loan.EventTypeLoanRepaid,
		loan.EventTypeLoanPaidOff,
		loan.EventTypeLoanDefaulted,
		socialfund.EventTypeSocialFundWithdrawn,
		shareout.EventTypeShareoutInitiated,
		shareout.EventTypeShareoutCalculated,
		shareout.EventTypeShareoutApproved,
		shareout.EventTypeShareoutCompleted,
		shareout.EventTypeShareoutCancelled,
		group.EventTypeCycleClosed,
	}
}

// Handle records evt. Unknown payload types are ignored.
func (h *MetricsHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	m := h.metrics
	switch e := evt.(type) {
	case *meeting.MeetingProcessedEvent:
		m.RecordMeetingProcessed(ctx, e.GroupID(), string(e.ProcessingStatus), e.ErrorCount, e.WarningCount, e.Totals.Savings)
	case *loan.LoanDisbursedEvent:
		m.RecordLoanDisbursed(ctx, e.GroupID(), e.Principal)
	case *loan.LoanRepaidEvent:
		m.RecordRepayment(ctx, e.GroupID(), e.Amount)
	case *loan.LoanPaidOffEvent:
		m.RecordLoanClosed(ctx, e.GroupID(), "paid_off")
	case *loan.LoanDefaultedEvent:
		m.RecordLoanClosed(ctx, e.GroupID(), "defaulted")
	case *socialfund.WithdrawnEvent:
		m.RecordSocialFundWithdrawal(ctx, e.GroupID(), e.Amount)
	case *shareout.ShareoutEvent:
		m.RecordShareoutTransition(ctx, e.GroupID(), string(e.Status), e.TotalActualPayout)
	case *group.CycleClosedEvent:
		m.RecordCycleClosed(ctx, e.GroupID())
	}
	return nil
}

var _ shared.EventHandler = (*MetricsHandler)(nil)
