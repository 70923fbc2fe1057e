package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockOracle is a mock implementation of Oracle
type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Generate(ctx context.Context, credential, prompt string) (string, error) {
	args := m.Called(ctx, credential, prompt)
	return args.String(0), args.Error(1)
}

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestTutor(t *testing.T) (*TutorService, *MockOracle) {
	t.Helper()
	oracle := &MockOracle{}
	svc := NewTutorService(oracle, MustNewPromptBuilder(), nil, WithClock(func() time.Time { return fixedNow }))
	return svc, oracle
}

func newTestSession(credential string) *models.TutorSession {
	prefs := models.Preferences{Language: models.LanguageGerman, Difficulty: models.DifficultyBeginner, Gamification: true}
	return models.NewTutorSession("sess-1", prefs, credential, fixedNow.Add(-time.Hour))
}

func isQuestionPrompt(prompt string) bool {
	return strings.Contains(prompt, "Generate a") && strings.Contains(prompt, "question")
}

func isCritiquePrompt(prompt string) bool {
	return strings.Contains(prompt, ScoreLabel) && strings.Contains(prompt, TipLabel)
}

func TestTutorService_NewQuestion(t *testing.T) {
	svc, oracle := newTestTutor(t)
	sess := newTestSession("key-123")

	oracle.On("Generate", mock.Anything, "key-123", mock.MatchedBy(isQuestionPrompt)).
		Return("  Was machst du gern am Wochenende?\n", nil).Once()

	question, err := svc.NewQuestion(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, "  Was machst du gern am Wochenende?\n", question, "question is stored verbatim")
	assert.Equal(t, question, sess.State.CurrentQuestion)
	assert.Equal(t, models.PhaseQuestionPosed, sess.State.Phase)
	assert.Equal(t, fixedNow, sess.LastSeenAt)
	oracle.AssertExpectations(t)
}

func TestTutorService_NewQuestion_KeepsLastFeedback(t *testing.T) {
	svc, oracle := newTestTutor(t)
	sess := newTestSession("key")
	sess.State.Phase = models.PhaseAnswerSubmitted
	sess.State.CurrentQuestion = "old"
	sess.State.LastFeedback = &models.FeedbackRecord{Score: 80}

	oracle.On("Generate", mock.Anything, "key", mock.Anything).Return("new", nil).Once()

	_, err := svc.NewQuestion(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "new", sess.State.CurrentQuestion)
	require.NotNil(t, sess.State.LastFeedback)
	assert.Equal(t, 80, sess.State.LastFeedback.Score)
}

func TestTutorService_NewQuestion_MissingCredential(t *testing.T) {
	svc, oracle := newTestTutor(t)
	sess := newTestSession("  ")

	_, err := svc.NewQuestion(context.Background(), sess)
	assert.ErrorIs(t, err, contextutils.ErrMissingCredential)
	assert.Equal(t, models.PhaseNoQuestion, sess.State.Phase)
	oracle.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestTutorService_NewQuestion_OracleFailureLeavesStateUnchanged(t *testing.T) {
	svc, oracle := newTestTutor(t)
	sess := newTestSession("key")
	sess.State.CurrentQuestion = "previous"
	sess.State.Phase = models.PhaseAnswerSubmitted

	oracle.On("Generate", mock.Anything, "key", mock.Anything).
		Return("", oracleUnavailable("openai request failed", errors.New("connection refused"))).Once()

	_, err := svc.NewQuestion(context.Background(), sess)
	assert.ErrorIs(t, err, contextutils.ErrOracleUnavailable)
	assert.Equal(t, "previous", sess.State.CurrentQuestion)
	assert.Equal(t, models.PhaseAnswerSubmitted, sess.State.Phase)
	assert.Equal(t, fixedNow.Add(-time.Hour), sess.LastSeenAt)
}

func TestTutorService_EnsureQuestion(t *testing.T) {
	svc, oracle := newTestTutor(t)
	sess := newTestSession("key")

	oracle.On("Generate", mock.Anything, "key", mock.Anything).Return("Wie heißt du?", nil).Once()

	first, err := svc.EnsureQuestion(context.Background(), sess)
	require.NoError(t, err)
	second, err := svc.EnsureQuestion(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, "Wie heißt du?", first)
	assert.Equal(t, first, second)
	oracle.AssertNumberOfCalls(t, "Generate", 1)
}

func TestTutorService_SubmitAnswer(t *testing.T) {
	svc, oracle := newTestTutor(t)
	sess := newTestSession("key")
	sess.State.CurrentQuestion = "Wohin gehst du?"
	sess.State.Phase = models.PhaseQuestionPosed

	oracle.On("Generate", mock.Anything, "key", mock.MatchedBy(isCritiquePrompt)).
		Return("Score: 85\nErrors: Minor article usage\nCorrected: Ich gehe zur Schule.\nTip: 'zur' = 'zu der'", nil).Once()

	result, err := svc.SubmitAnswer(context.Background(), sess, "Ich gehe zu Schule.")
	require.NoError(t, err)

	assert.False(t, result.Degraded)
	assert.Equal(t, 85, result.Feedback.Score)
	assert.Equal(t, 8, result.PointsAwarded)
	assert.Equal(t, 8, result.Score)
	assert.Equal(t, fixedNow, result.Interaction.Timestamp)
	assert.Equal(t, "Wohin gehst du?", result.Interaction.Question)
	assert.Equal(t, "Ich gehe zu Schule.", result.Interaction.Response)

	require.Len(t, sess.State.History, 1)
	assert.Equal(t, 8, sess.State.Score)
	assert.Equal(t, models.PhaseAnswerSubmitted, sess.State.Phase)
	require.NotNil(t, sess.State.LastFeedback)
	assert.Equal(t, "Ich gehe zur Schule.", sess.State.LastFeedback.Corrected)
}

func TestTutorService_SubmitAnswer_UnstructuredCritique(t *testing.T) {
	svc, oracle := newTestTutor(t)
	sess := newTestSession("key")
	sess.State.CurrentQuestion = "q"
	sess.State.Phase = models.PhaseQuestionPosed

	oracle.On("Generate", mock.Anything, "key", mock.Anything).
		Return("Great job! Your sentence is almost perfect.", nil).Once()

	result, err := svc.SubmitAnswer(context.Background(), sess, "Ich habe Hunger")
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Equal(t, FallbackFeedback("Ich habe Hunger"), result.Feedback)
	assert.Equal(t, 0, result.PointsAwarded)
	require.Len(t, sess.State.History, 1)
	assert.True(t, sess.State.History[0].Degraded)
	assert.Equal(t, models.PhaseAnswerSubmitted, sess.State.Phase)
}

func TestTutorService_SubmitAnswer_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		phase      models.Phase
		response   string
		expected   error
	}{
		{"blank answer", "key", models.PhaseQuestionPosed, "   ", contextutils.ErrEmptySubmission},
		{"blank answer wins over missing question", "key", models.PhaseNoQuestion, "", contextutils.ErrEmptySubmission},
		{"blank answer wins over missing credential", "", models.PhaseQuestionPosed, "\t", contextutils.ErrEmptySubmission},
		{"no question posed", "key", models.PhaseNoQuestion, "Hallo", contextutils.ErrNoQuestionPosed},
		{"missing credential", "", models.PhaseQuestionPosed, "Hallo", contextutils.ErrMissingCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, oracle := newTestTutor(t)
			sess := newTestSession(tt.credential)
			sess.State.Phase = tt.phase

			_, err := svc.SubmitAnswer(context.Background(), sess, tt.response)
			assert.ErrorIs(t, err, tt.expected)
			assert.Empty(t, sess.State.History)
			assert.Zero(t, sess.State.Score)
			assert.Equal(t, tt.phase, sess.State.Phase)
			oracle.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestTutorService_SubmitAnswer_OracleFailure(t *testing.T) {
	svc, oracle := newTestTutor(t)
	sess := newTestSession("key")
	sess.State.CurrentQuestion = "q"
	sess.State.Phase = models.PhaseQuestionPosed

	oracle.On("Generate", mock.Anything, "key", mock.Anything).
		Return("", oracleUnavailable("gemini request failed", errors.New("quota exceeded"))).Once()

	_, err := svc.SubmitAnswer(context.Background(), sess, "Hallo")
	assert.ErrorIs(t, err, contextutils.ErrOracleUnavailable)
	assert.Empty(t, sess.State.History)
	assert.Nil(t, sess.State.LastFeedback)
	assert.Equal(t, models.PhaseQuestionPosed, sess.State.Phase)
}

func TestTutorService_SubmitAnswer_Resubmission(t *testing.T) {
	svc, oracle := newTestTutor(t)
	sess := newTestSession("key")
	sess.State.CurrentQuestion = "q"
	sess.State.Phase = models.PhaseQuestionPosed

	oracle.On("Generate", mock.Anything, "key", mock.Anything).
		Return("Score: 50\nErrors: some\nCorrected: c\nTip: t", nil).Twice()

	_, err := svc.SubmitAnswer(context.Background(), sess, "first try")
	require.NoError(t, err)
	result, err := svc.SubmitAnswer(context.Background(), sess, "second try")
	require.NoError(t, err)

	assert.Equal(t, 10, result.Score)
	require.Len(t, sess.State.History, 2)
	assert.Equal(t, "q", sess.State.History[1].Question)
}

func TestTutorService_SerializesSessionActions(t *testing.T) {
	svc, oracle := newTestTutor(t)
	sess := newTestSession("key")
	sess.State.CurrentQuestion = "q"
	sess.State.Phase = models.PhaseQuestionPosed

	oracle.On("Generate", mock.Anything, "key", mock.Anything).
		Return("Score: 100\nErrors: none\nCorrected: c\nTip: t", nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.SubmitAnswer(context.Background(), sess, "answer")
		}()
	}
	wg.Wait()

	assert.Len(t, sess.State.History, 20)
	assert.Equal(t, 200, sess.State.Score)
}

func TestTutorService_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewTutorMetrics(provider.Meter(MeterName))
	require.NoError(t, err)

	oracle := &MockOracle{}
	svc := NewTutorService(oracle, MustNewPromptBuilder(), nil, WithMetrics(metrics))
	sess := newTestSession("key")

	oracle.On("Generate", mock.Anything, "key", mock.MatchedBy(isQuestionPrompt)).Return("q", nil).Once()
	oracle.On("Generate", mock.Anything, "key", mock.MatchedBy(isCritiquePrompt)).Return("not structured", nil).Once()

	_, err = svc.NewQuestion(context.Background(), sess)
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(context.Background(), sess, "answer")
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), sums["tutor.questions.generated"])
	assert.Equal(t, int64(1), sums["tutor.answers.submitted"])
	assert.Equal(t, int64(1), sums["tutor.feedback.degraded"])
	assert.Zero(t, sums["tutor.oracle.failures"])
}

func TestTutorService_DegradedCritiqueIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := &observability.Logger{Logger: zap.New(core)}

	oracle := &MockOracle{}
	svc := NewTutorService(oracle, MustNewPromptBuilder(), logger)
	sess := newTestSession("secret-api-key-987654")
	sess.State.CurrentQuestion = "q"
	sess.State.Phase = models.PhaseQuestionPosed

	oracle.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("no labels here", nil).Once()

	_, err := svc.SubmitAnswer(context.Background(), sess, "answer")
	require.NoError(t, err)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "Critique could not be interpreted")
	assert.Equal(t, "sess-1", warnings[0].ContextMap()["session_id"])

	for _, entry := range logs.All() {
		for _, v := range entry.ContextMap() {
			if str, ok := v.(string); ok {
				assert.NotContains(t, str, "secret-api-key-987654")
			}
		}
	}
}
