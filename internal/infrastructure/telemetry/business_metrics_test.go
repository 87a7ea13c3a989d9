package telemetry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestMetrics(t *testing.T, provider LoanExposureProvider) (*BusinessMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader, zap.NewNop())
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	bm, err := NewBusinessMetrics(BusinessMetricsConfig{
		Meter:    mp.Meter("test"),
		Provider: provider,
	})
	require.NoError(t, err)
	return bm, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func intSum(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func floatSum(t *testing.T, data metricdata.Aggregation) float64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[float64])
	require.True(t, ok, "expected float64 sum, got %T", data)
	var total float64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := NewBusinessMetrics(BusinessMetricsConfig{})
	assert.ErrorIs(t, err, ErrMeterNil)
	assert.Nil(t, bm)
}

func TestBusinessMetrics_Counters(t *testing.T) {
	bm, reader := newTestMetrics(t, nil)
	ctx := context.Background()
	groupID := uuid.New()

	bm.RecordMeetingProcessed(ctx, groupID, "completed", 0, 0, decimal.NewFromInt(15000))
	bm.RecordMeetingProcessed(ctx, groupID, "needs_review", 2, 3, decimal.NewFromInt(5000))
	bm.RecordLoanDisbursed(ctx, groupID, decimal.NewFromInt(50000))
	bm.RecordRepayment(ctx, groupID, decimal.NewFromInt(20000))
	bm.RecordRepayment(ctx, groupID, decimal.NewFromInt(30000))
	bm.RecordLoanClosed(ctx, groupID, "paid_off")
	bm.RecordSocialFundWithdrawal(ctx, groupID, decimal.NewFromInt(800))
	bm.RecordShareoutTransition(ctx, groupID, "approved", decimal.NewFromInt(999))
	bm.RecordShareoutTransition(ctx, groupID, "completed", decimal.NewFromInt(1000000))
	bm.RecordCycleClosed(ctx, groupID)

	data := collect(t, reader)
	assert.Equal(t, int64(2), intSum(t, data["vsla_meetings_processed_total"]))
	assert.Equal(t, int64(5), intSum(t, data["vsla_meeting_issues_total"]))
	assert.InDelta(t, 20000, floatSum(t, data["vsla_meeting_savings_amount_total"]), 0.001)
	assert.Equal(t, int64(1), intSum(t, data["vsla_loans_disbursed_total"]))
	assert.InDelta(t, 50000, floatSum(t, data["vsla_loan_disbursed_amount_total"]), 0.001)
	assert.Equal(t, int64(2), intSum(t, data["vsla_loan_repayments_total"]))
	assert.InDelta(t, 50000, floatSum(t, data["vsla_loan_repaid_amount_total"]), 0.001)
	assert.Equal(t, int64(1), intSum(t, data["vsla_loans_closed_total"]))
	assert.InDelta(t, 800, floatSum(t, data["vsla_social_fund_withdrawn_amount_total"]), 0.001)
	assert.Equal(t, int64(2), intSum(t, data["vsla_shareout_transitions_total"]))
	assert.InDelta(t, 1000000, floatSum(t, data["vsla_shareout_payout_amount_total"]), 0.001,
		"only completed shareouts count towards payouts")
	assert.Equal(t, int64(1), intSum(t, data["vsla_cycles_closed_total"]))
}

type stubExposure struct {
	calls atomic.Int32
	rows  []LoanExposure
	err   error
}

func (s *stubExposure) OutstandingByCycle(context.Context, int) ([]LoanExposure, error) {
	s.calls.Add(1)
	return s.rows, s.err
}

func TestBusinessMetrics_CollectLoanExposure(t *testing.T) {
	cycleA, cycleB := uuid.New(), uuid.New()
	provider := &stubExposure{rows: []LoanExposure{
		{GroupID: uuid.New(), CycleID: cycleA, Outstanding: decimal.NewFromInt(120000), ActiveLoans: 3},
		{GroupID: uuid.New(), CycleID: cycleB, Outstanding: decimal.NewFromInt(5000), ActiveLoans: 1},
	}}
	bm, reader := newTestMetrics(t, provider)

	bm.CollectLoanExposure(context.Background())

	data := collect(t, reader)
	gauge, ok := data["vsla_loan_outstanding_balance"].(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 2)

	byCycle := map[string]float64{}
	for _, dp := range gauge.DataPoints {
		v, _ := dp.Attributes.Value(AttrCycleID)
		byCycle[v.AsString()] = dp.Value
	}
	assert.InDelta(t, 120000, byCycle[cycleA.String()], 0.001)
	assert.InDelta(t, 5000, byCycle[cycleB.String()], 0.001)
}

func TestBusinessMetrics_CollectLoanExposureError(t *testing.T) {
	provider := &stubExposure{err: errors.New("db down")}
	bm, reader := newTestMetrics(t, provider)

	bm.CollectLoanExposure(context.Background())

	data := collect(t, reader)
	_, recorded := data["vsla_loan_outstanding_balance"]
	assert.False(t, recorded)
}

func TestBusinessMetrics_PeriodicCollection(t *testing.T) {
	provider := &stubExposure{}
	bm, _ := newTestMetrics(t, provider)

	bm.StartPeriodicCollection(context.Background(), 10*time.Millisecond)
	bm.StartPeriodicCollection(context.Background(), 10*time.Millisecond)
	require.Eventually(t, func() bool { return provider.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	bm.Stop()
	bm.Stop()

	calls := provider.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, provider.calls.Load(), "no refresh after Stop")
}

func TestBusinessMetrics_NoProviderSkipsCollection(t *testing.T) {
	bm, _ := newTestMetrics(t, nil)
	bm.StartPeriodicCollection(context.Background(), time.Millisecond)
	bm.CollectLoanExposure(context.Background())
	bm.Stop()
}
