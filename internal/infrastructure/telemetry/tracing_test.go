package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func installRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return sr, tp
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestStartServiceSpan(t *testing.T) {
	sr, _ := installRecorder(t)

	ctx, span := StartServiceSpan(context.Background(), "shareout", "calculate",
		WithAttribute("shareout_id", "s-1"),
		WithAttribute("members", 12),
		WithSpanKind(trace.SpanKindServer),
	)
	assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
	SetAttributes(span, "fund", 1100000.0, "skipped", 7, 42)
	AddEvent(span, "distributions_replaced", "count", 3)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	got := spans[0]
	assert.Equal(t, "shareout.calculate", got.Name())
	assert.Equal(t, trace.SpanKindServer, got.SpanKind())

	attrs := attrMap(got.Attributes())
	assert.Equal(t, "s-1", attrs["shareout_id"].AsString())
	assert.Equal(t, int64(12), attrs["members"].AsInt64())
	assert.InDelta(t, 1100000.0, attrs["fund"].AsFloat64(), 0.001)
	_, skipped := attrs["skipped"]
	assert.False(t, skipped, "odd trailing values are dropped")

	require.Len(t, got.Events(), 1)
	assert.Equal(t, "distributions_replaced", got.Events()[0].Name)
}

func TestRecordError(t *testing.T) {
	sr, _ := installRecorder(t)

	_, span := StartSpan(context.Background(), "meeting.process")
	RecordError(span, errors.New("cycle closed"))
	RecordError(span, nil)
	span.End()

	got := sr.Ended()[0]
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "cycle closed", got.Status().Description)
}

func TestSamplerFor(t *testing.T) {
	assert.True(t, strings.HasPrefix(samplerFor(1).Description(), "AlwaysOn"))
	assert.True(t, strings.HasPrefix(samplerFor(0).Description(), "AlwaysOff"))
	assert.True(t, strings.HasPrefix(samplerFor(0.25).Description(), "TraceIDRatioBased"))
}

func TestProvidersDisabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("x"))
	assert.NoError(t, tp.Shutdown(context.Background()))

	mp, err := NewMeterProvider(context.Background(), MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("x"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

type tracedRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func newTracedDB(t *testing.T, cfg DBTracingConfig) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	require.NoError(t, NewDBTracingPlugin(cfg, zap.NewNop()).Register(db))
	return db
}

func TestDBTracingPlugin_AnnotatesSpans(t *testing.T) {
	sr, _ := installRecorder(t)
	db := newTracedDB(t, DBTracingConfig{Enabled: true, DBSystem: "sqlite", SlowQueryThresh: time.Hour})

	ctx, parent := StartSpan(context.Background(), "test")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
	var missing tracedRow
	err := db.WithContext(ctx).First(&missing, 999).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	parent.End()

	var dbSpans []sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		if s.Parent().SpanID() == parent.SpanContext().SpanID() {
			dbSpans = append(dbSpans, s)
		}
	}
	require.Len(t, dbSpans, 2)
	for _, s := range dbSpans {
		attrs := attrMap(s.Attributes())
		assert.Equal(t, "traced_rows", attrs["db.sql.table"].AsString())
		_, slow := attrs["db.slow_query"]
		assert.False(t, slow)
	}
}

func TestDBTracingPlugin_SlowQuery(t *testing.T) {
	sr, _ := installRecorder(t)
	db := newTracedDB(t, DBTracingConfig{Enabled: true, DBSystem: "sqlite", SlowQueryThresh: time.Nanosecond})

	ctx, parent := StartSpan(context.Background(), "test")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "slow"}).Error)
	parent.End()

	var found bool
	for _, s := range sr.Ended() {
		if attrMap(s.Attributes())["db.slow_query"].AsBool() {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	sr, _ := installRecorder(t)
	db := newTracedDB(t, DBTracingConfig{Enabled: false})

	require.NoError(t, db.Create(&tracedRow{Name: "x"}).Error)
	assert.Empty(t, sr.Ended())
}
