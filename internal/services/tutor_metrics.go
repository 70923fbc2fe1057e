package services

import (
	"context"

	"tutorapp/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the tutor metrics
const MeterName = "tutorapp/tutor"

// TutorMetrics counts question lifecycle events
type TutorMetrics struct {
	questionsGenerated metric.Int64Counter
	answersSubmitted   metric.Int64Counter
	feedbackDegraded   metric.Int64Counter
	oracleFailures     metric.Int64Counter
	feedbackScore      metric.Int64Histogram
}

// NewTutorMetrics registers the tutor instruments on meter (the global meter provider when nil)
func NewTutorMetrics(meter metric.Meter) (result0 *TutorMetrics, err error) {
	if meter == nil {
		meter = otel.Meter(MeterName)
	}

	m := &TutorMetrics{}
	if m.questionsGenerated, err = meter.Int64Counter("tutor.questions.generated",
		metric.WithDescription("Practice questions generated")); err != nil {
		return nil, err
	}
	if m.answersSubmitted, err = meter.Int64Counter("tutor.answers.submitted",
		metric.WithDescription("Answers recorded into session history")); err != nil {
		return nil, err
	}
	if m.feedbackDegraded, err = meter.Int64Counter("tutor.feedback.degraded",
		metric.WithDescription("Critiques that could not be interpreted")); err != nil {
		return nil, err
	}
	if m.oracleFailures, err = meter.Int64Counter("tutor.oracle.failures",
		metric.WithDescription("Failed language model calls")); err != nil {
		return nil, err
	}
	if m.feedbackScore, err = meter.Int64Histogram("tutor.feedback.score",
		metric.WithDescription("Critique scores (0-100)"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100)); err != nil {
		return nil, err
	}
	return m, nil
}

func preferenceAttributes(prefs models.Preferences) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("language", string(prefs.Language)),
		attribute.String("difficulty", string(prefs.Difficulty)),
	)
}

func (m *TutorMetrics) questionGenerated(ctx context.Context, prefs models.Preferences) {
	if m == nil {
		return
	}
	m.questionsGenerated.Add(ctx, 1, preferenceAttributes(prefs))
}

func (m *TutorMetrics) answerRecorded(ctx context.Context, prefs models.Preferences, fb models.FeedbackRecord, degraded bool) {
	if m == nil {
		return
	}
	attrs := preferenceAttributes(prefs)
	m.answersSubmitted.Add(ctx, 1, attrs)
	if degraded {
		m.feedbackDegraded.Add(ctx, 1, attrs)
		return
	}
	m.feedbackScore.Record(ctx, int64(fb.Score), attrs)
}

func (m *TutorMetrics) oracleFailed(ctx context.Context, prefs models.Preferences, stage string) {
	if m == nil {
		return
	}
	m.oracleFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("language", string(prefs.Language)),
		attribute.String("difficulty", string(prefs.Difficulty)),
		attribute.String("stage", stage),
	))
}
