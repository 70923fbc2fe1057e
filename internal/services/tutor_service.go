package services

import (
	"context"
	"errors"
	"time"

	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// TutorServiceInterface defines the question lifecycle operations of one session
type TutorServiceInterface interface {
	NewQuestion(ctx context.Context, sess *models.TutorSession) (string, error)
	EnsureQuestion(ctx context.Context, sess *models.TutorSession) (string, error)
	SubmitAnswer(ctx context.Context, sess *models.TutorSession, response string) (*models.SubmissionResult, error)
}

// TutorService drives the question lifecycle:
// NoQuestion -> QuestionPosed -> AnswerSubmitted -> QuestionPosed ...
// Every action runs inline and holds the session lock for its whole oracle round trip.
type TutorService struct {
	prompts *PromptBuilder
	oracle  Oracle
	logger  *observability.Logger
	metrics *TutorMetrics
	now     func() time.Time
}

// TutorOption configures a TutorService
type TutorOption func(*TutorService)

// WithClock overrides the time source used for interaction timestamps
func WithClock(now func() time.Time) TutorOption {
	return func(s *TutorService) { s.now = now }
}

// WithMetrics records lifecycle metrics
func WithMetrics(m *TutorMetrics) TutorOption {
	return func(s *TutorService) { s.metrics = m }
}

// NewTutorService creates a tutor service
func NewTutorService(oracle Oracle, prompts *PromptBuilder, logger *observability.Logger, opts ...TutorOption) *TutorService {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	s := &TutorService{
		prompts: prompts,
		oracle:  oracle,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewQuestion generates a question for the session's current preferences and replaces
// the current one. Last feedback stays visible. On failure the session is unchanged.
func (s *TutorService) NewQuestion(ctx context.Context, sess *models.TutorSession) (string, error) {
	sess.Lock()
	defer sess.Unlock()
	return s.newQuestionLocked(ctx, sess)
}

// EnsureQuestion returns the current question, generating one only when none was posed yet
func (s *TutorService) EnsureQuestion(ctx context.Context, sess *models.TutorSession) (string, error) {
	sess.Lock()
	defer sess.Unlock()

	if sess.State.Phase != models.PhaseNoQuestion {
		sess.Touch(s.now())
		return sess.State.CurrentQuestion, nil
	}
	return s.newQuestionLocked(ctx, sess)
}

func (s *TutorService) newQuestionLocked(ctx context.Context, sess *models.TutorSession) (question string, err error) {
	prefs := sess.Preferences
	ctx, span := observability.TraceTutorFunction(ctx, "new_question",
		observability.AttributeSessionID(sess.ID),
		observability.AttributeLanguage(string(prefs.Language)),
		observability.AttributeDifficulty(string(prefs.Difficulty)),
	)
	defer observability.FinishSpan(span, &err)

	if !sess.HasCredential() {
		return "", contextutils.ErrMissingCredential
	}

	prompt, err := s.prompts.BuildQuestionPrompt(prefs.Difficulty, prefs.Language)
	if err != nil {
		return "", err
	}

	reply, err := s.oracle.Generate(ctx, sess.Credential, prompt)
	if err != nil {
		s.oracleFailed(ctx, prefs, "question", err)
		return "", err
	}

	sess.State.CurrentQuestion = reply
	sess.State.Phase = models.PhaseQuestionPosed
	sess.Touch(s.now())

	s.metrics.questionGenerated(ctx, prefs)
	s.logger.Info(ctx, "Practice question generated", map[string]interface{}{
		"session_id": sess.ID,
		"language":   string(prefs.Language),
		"difficulty": string(prefs.Difficulty),
	})
	return reply, nil
}

// SubmitAnswer critiques response against the current question and records the round.
// Blank responses and sessions without a question are rejected before any oracle call.
// An uninterpretable critique is recorded as fallback feedback and flagged Degraded.
func (s *TutorService) SubmitAnswer(ctx context.Context, sess *models.TutorSession, response string) (result *models.SubmissionResult, err error) {
	sess.Lock()
	defer sess.Unlock()

	prefs := sess.Preferences
	ctx, span := observability.TraceTutorFunction(ctx, "submit_answer",
		observability.AttributeSessionID(sess.ID),
		observability.AttributeLanguage(string(prefs.Language)),
		observability.AttributePhase(string(sess.State.Phase)),
	)
	defer observability.FinishSpan(span, &err)

	if contextutils.IsBlank(response) {
		return nil, contextutils.ErrEmptySubmission
	}
	if sess.State.Phase == models.PhaseNoQuestion {
		return nil, contextutils.ErrNoQuestionPosed
	}
	if !sess.HasCredential() {
		return nil, contextutils.ErrMissingCredential
	}

	prompt, err := s.prompts.BuildCritiquePrompt(prefs.Language, response)
	if err != nil {
		return nil, err
	}

	reply, err := s.oracle.Generate(ctx, sess.Credential, prompt)
	if err != nil {
		s.oracleFailed(ctx, prefs, "critique", err)
		return nil, err
	}

	fb, parseErr := InterpretFeedback(reply, response)
	degraded := parseErr != nil
	if degraded {
		span.SetAttributes(attribute.Bool("feedback.degraded", true))
		s.logger.Warn(ctx, "Critique could not be interpreted, recording fallback feedback", map[string]interface{}{
			"session_id":   sess.ID,
			"reason":       parseErr.Error(),
			"reply_length": len(reply),
		})
	}

	interaction := RecordInteraction(&sess.State, sess.State.CurrentQuestion, response, fb, degraded, s.now())
	sess.Touch(interaction.Timestamp)

	span.SetAttributes(attribute.Int("feedback.score", fb.Score))
	s.metrics.answerRecorded(ctx, prefs, fb, degraded)
	s.logger.Info(ctx, "Answer recorded", map[string]interface{}{
		"session_id":     sess.ID,
		"score":          fb.Score,
		"points_awarded": fb.Points(),
		"total_score":    sess.State.Score,
		"degraded":       degraded,
	})

	return &models.SubmissionResult{
		Interaction:   interaction,
		Feedback:      fb,
		Degraded:      degraded,
		PointsAwarded: fb.Points(),
		Score:         sess.State.Score,
	}, nil
}

func (s *TutorService) oracleFailed(ctx context.Context, prefs models.Preferences, stage string, err error) {
	if errors.Is(err, contextutils.ErrOracleUnavailable) {
		s.metrics.oracleFailed(ctx, prefs, stage)
	}
}
