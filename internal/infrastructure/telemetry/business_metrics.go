package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned by NewBusinessMetrics without a meter
var ErrMeterNil = errors.New("business metrics: meter cannot be nil")

// LoanExposure is the outstanding loan balance of one open cycle
type LoanExposure struct {
	GroupID     uuid.UUID
	CycleID     uuid.UUID
	Outstanding decimal.Decimal
	ActiveLoans int64
}

// LoanExposureProvider reads outstanding balances for the periodic gauge
type LoanExposureProvider interface {
	OutstandingByCycle(ctx context.Context, limit int) ([]LoanExposure, error)
}

// BusinessMetrics records savings-group activity
type BusinessMetrics struct {
	logger *zap.Logger

	meetingsProcessed  *Counter
	meetingIssues      *Counter
	meetingItems       *Histogram
	savingsAmount      *AmountCounter
	loansDisbursed     *Counter
	disbursedAmount    *AmountCounter
	repaymentsTotal    *Counter
	repaidAmount       *AmountCounter
	loansClosed        *Counter
	socialFundWithdraw *AmountCounter
	shareoutTransition *Counter
	payoutAmount       *AmountCounter
	cyclesClosed       *Counter

	loanOutstanding *FloatGauge
	activeLoans     *FloatGauge

	provider    LoanExposureProvider
	cycleLimit  int
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
	wg          sync.WaitGroup
}

// BusinessMetricsConfig configures BusinessMetrics
type BusinessMetricsConfig struct {
	Meter    metric.Meter
	Logger   *zap.Logger
	Provider LoanExposureProvider
	// CycleLimit caps the cycles sampled per refresh, default 500
	CycleLimit int
}

// NewBusinessMetrics registers every instrument on cfg.Meter
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := cfg.CycleLimit
	if limit <= 0 {
		limit = 500
	}

	bm := &BusinessMetrics{
		logger:     logger,
		provider:   cfg.Provider,
		cycleLimit: limit,
		stopChan:   make(chan struct{}),
	}
	m := cfg.Meter

	var err error
	counters := []struct {
		dst  **Counter
		name string
		desc string
		unit string
	}{
		{&bm.meetingsProcessed, "vsla_meetings_processed_total", "Meeting processing runs by resulting status", "{meetings}"},
		{&bm.meetingIssues, "vsla_meeting_issues_total", "Item errors and warnings recorded during meeting processing", "{issues}"},
		{&bm.loansDisbursed, "vsla_loans_disbursed_total", "Loans issued", "{loans}"},
		{&bm.repaymentsTotal, "vsla_loan_repayments_total", "Accepted loan repayments", "{repayments}"},
		{&bm.loansClosed, "vsla_loans_closed_total", "Loans paid off or defaulted", "{loans}"},
		{&bm.shareoutTransition, "vsla_shareout_transitions_total", "Shareout workflow steps by resulting status", "{shareouts}"},
		{&bm.cyclesClosed, "vsla_cycles_closed_total", "Savings cycles closed by a completed shareout", "{cycles}"},
	}
	for _, c := range counters {
		if *c.dst, err = NewCounter(m, c.name, c.desc, c.unit); err != nil {
			return nil, err
		}
	}

	amounts := []struct {
		dst  **AmountCounter
		name string
		desc string
	}{
		{&bm.savingsAmount, "vsla_meeting_savings_amount_total", "Savings posted through meetings"},
		{&bm.disbursedAmount, "vsla_loan_disbursed_amount_total", "Principal issued"},
		{&bm.repaidAmount, "vsla_loan_repaid_amount_total", "Repayments accepted"},
		{&bm.socialFundWithdraw, "vsla_social_fund_withdrawn_amount_total", "Social fund withdrawals"},
		{&bm.payoutAmount, "vsla_shareout_payout_amount_total", "Actual payouts of completed shareouts"},
	}
	for _, a := range amounts {
		if *a.dst, err = NewAmountCounter(m, a.name, a.desc); err != nil {
			return nil, err
		}
	}

	if bm.meetingItems, err = NewHistogram(m, HistogramOpts{
		Name:        "vsla_meeting_issue_count",
		Description: "Issues recorded per processed meeting",
		Unit:        "{issues}",
		Boundaries:  ItemCountBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.loanOutstanding, err = NewFloatGauge(m, "vsla_loan_outstanding_balance",
		"Outstanding loan balance per open cycle", "{currency}"); err != nil {
		return nil, err
	}
	if bm.activeLoans, err = NewFloatGauge(m, "vsla_loans_active",
		"Active or defaulted loans with a balance per open cycle", "{loans}"); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordMeetingProcessed records one processing run
func (bm *BusinessMetrics) RecordMeetingProcessed(ctx context.Context, groupID uuid.UUID, status string, errorCount, warningCount int, savings decimal.Decimal) {
	group := AttrGroupID.String(groupID.String())
	bm.meetingsProcessed.Inc(ctx, group, AttrProcessingStatus.String(status))
	if errorCount > 0 {
		bm.meetingIssues.Add(ctx, int64(errorCount), group, AttrIssueKind.String("error"))
	}
	if warningCount > 0 {
		bm.meetingIssues.Add(ctx, int64(warningCount), group, AttrIssueKind.String("warning"))
	}
	bm.meetingItems.Record(ctx, float64(errorCount+warningCount), AttrProcessingStatus.String(status))
	bm.savingsAmount.Add(ctx, savings.InexactFloat64(), group)
}

// RecordLoanDisbursed records an issued loan
func (bm *BusinessMetrics) RecordLoanDisbursed(ctx context.Context, groupID uuid.UUID, principal decimal.Decimal) {
	group := AttrGroupID.String(groupID.String())
	bm.loansDisbursed.Inc(ctx, group)
	bm.disbursedAmount.Add(ctx, principal.InexactFloat64(), group)
}

// RecordRepayment records an accepted repayment
func (bm *BusinessMetrics) RecordRepayment(ctx context.Context, groupID uuid.UUID, amount decimal.Decimal) {
	group := AttrGroupID.String(groupID.String())
	bm.repaymentsTotal.Inc(ctx, group)
	bm.repaidAmount.Add(ctx, amount.InexactFloat64(), group)
}

// RecordLoanClosed records a loan leaving the active state
func (bm *BusinessMetrics) RecordLoanClosed(ctx context.Context, groupID uuid.UUID, outcome string) {
	bm.loansClosed.Inc(ctx, AttrGroupID.String(groupID.String()), AttrLoanOutcome.String(outcome))
}

// RecordSocialFundWithdrawal records a social fund withdrawal
func (bm *BusinessMetrics) RecordSocialFundWithdrawal(ctx context.Context, groupID uuid.UUID, amount decimal.Decimal) {
	bm.socialFundWithdraw.Add(ctx, amount.InexactFloat64(), AttrGroupID.String(groupID.String()))
}

// RecordShareoutTransition records a shareout workflow step. The payout
// amount is counted only for completed shareouts.
func (bm *BusinessMetrics) RecordShareoutTransition(ctx context.Context, groupID uuid.UUID, status string, payout decimal.Decimal) {
	group := AttrGroupID.String(groupID.String())
	bm.shareoutTransition.Inc(ctx, group, AttrShareoutStatus.String(status))
	if status == "completed" {
		bm.payoutAmount.Add(ctx, payout.InexactFloat64(), group)
	}
}

// RecordCycleClosed records a closed cycle
func (bm *BusinessMetrics) RecordCycleClosed(ctx context.Context, groupID uuid.UUID) {
	bm.cyclesClosed.Inc(ctx, AttrGroupID.String(groupID.String()))
}

// RecordLoanExposure sets the outstanding gauges for one cycle
func (bm *BusinessMetrics) RecordLoanExposure(ctx context.Context, e LoanExposure) {
	attrs := []attribute.KeyValue{AttrGroupID.String(e.GroupID.String()), AttrCycleID.String(e.CycleID.String())}
	bm.loanOutstanding.Record(ctx, e.Outstanding.InexactFloat64(), attrs...)
	bm.activeLoans.Record(ctx, float64(e.ActiveLoans), attrs...)
}

// StartPeriodicCollection refreshes the loan gauges every interval until
// ctx is done or Stop is called. Only the first call starts the loop.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if bm.provider == nil {
		return
	}
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		bm.wg.Add(1)
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	defer bm.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.CollectLoanExposure(ctx)
	for {
		select {
		case <-bm.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.CollectLoanExposure(ctx)
		}
	}
}

// CollectLoanExposure refreshes the loan gauges once
func (bm *BusinessMetrics) CollectLoanExposure(ctx context.Context) {
	if bm.provider == nil {
		return
	}
	exposures, err := bm.provider.OutstandingByCycle(ctx, bm.cycleLimit)
	if err != nil {
		bm.logger.Warn("failed to read outstanding loan balances", zap.Error(err))
		return
	}
	for _, e := range exposures {
		bm.RecordLoanExposure(ctx, e)
	}
}

// Stop ends periodic collection and waits for the loop to exit
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
	bm.wg.Wait()
}
