package handlers

import (
	"net/http"
	"time"

	"tutorapp/internal/config"
	"tutorapp/internal/middleware"
	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	"tutorapp/internal/services"
	contextutils "tutorapp/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// CredentialRequest sets the learner's oracle API key
type CredentialRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// PreferencesRequest changes the practice language and level
type PreferencesRequest struct {
	Language     string `json:"language" binding:"required,tutor_language"`
	Difficulty   string `json:"difficulty" binding:"required,tutor_difficulty"`
	Gamification *bool  `json:"gamification"`
}

// AnswerRequest carries one free-text answer. Blank answers are rejected by the tutor service.
type AnswerRequest struct {
	Response string `json:"response"`
}

// QuestionResponse is the body of the question endpoints
type QuestionResponse struct {
	Question string       `json:"question"`
	Phase    models.Phase `json:"phase"`
}

// HistoryResponse lists interactions newest first
type HistoryResponse struct {
	History []models.HistoryEntry `json:"history"`
	Score   int                   `json:"score"`
}

// OptionsResponse lists the selectable languages and levels
type OptionsResponse struct {
	Languages    []models.Language   `json:"languages"`
	Difficulties []models.Difficulty `json:"difficulties"`
	Defaults     models.Preferences  `json:"defaults"`
}

// TutorHandler serves the tutor display boundary
type TutorHandler struct {
	tutor  services.TutorServiceInterface
	store  services.SessionStoreInterface
	cfg    *config.Config
	logger *observability.Logger
}

// NewTutorHandler creates a new TutorHandler instance
func NewTutorHandler(tutor services.TutorServiceInterface, store services.SessionStoreInterface, cfg *config.Config, logger *observability.Logger) *TutorHandler {
	return &TutorHandler{
		tutor:  tutor,
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// DefaultPreferences returns the preferences new sessions start with
func DefaultPreferences(cfg *config.Config) models.Preferences {
	return models.Preferences{
		Language:     models.Language(cfg.Tutor.DefaultLanguage),
		Difficulty:   models.Difficulty(cfg.Tutor.DefaultDifficulty),
		Gamification: cfg.Tutor.Gamification,
	}
}

// GetOptions lists languages, difficulties and the configured defaults
func (h *TutorHandler) GetOptions(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_options")
	defer observability.FinishSpan(span, nil)

	c.JSON(http.StatusOK, OptionsResponse{
		Languages:    models.Languages(),
		Difficulties: models.Difficulties(),
		Defaults:     DefaultPreferences(h.cfg),
	})
}

// GetState returns a snapshot of the session
func (h *TutorHandler) GetState(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_state")
	defer observability.FinishSpan(span, nil)

	sess, ok := h.session(c)
	if !ok {
		return
	}

	sess.Lock()
	view := sess.View()
	sess.Unlock()

	c.JSON(http.StatusOK, view)
}

// PutCredential stores the learner's API key on the session
func (h *TutorHandler) PutCredential(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "put_credential")
	defer observability.FinishSpan(span, nil)

	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req CredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	key := contextutils.NormalizeCredential(req.APIKey)
	if key == "" {
		HandleAppError(c, contextutils.WrapErrorf(contextutils.ErrMissingRequired, "api_key must not be blank"))
		return
	}

	sess.Lock()
	sess.Credential = key
	sess.Touch(time.Now())
	sess.Unlock()

	h.logger.Info(ctx, "Session credential set", map[string]interface{}{
		"session_id": sess.ID,
		"api_key":    contextutils.MaskAPIKey(key),
	})
	c.Status(http.StatusNoContent)
}

// DeleteCredential removes the session's API key
func (h *TutorHandler) DeleteCredential(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_credential")
	defer observability.FinishSpan(span, nil)

	sess, ok := h.session(c)
	if !ok {
		return
	}

	sess.Lock()
	sess.Credential = ""
	sess.Touch(time.Now())
	sess.Unlock()

	h.logger.Info(ctx, "Session credential cleared", map[string]interface{}{"session_id": sess.ID})
	c.Status(http.StatusNoContent)
}

// PutPreferences changes language, level and optionally the gamification toggle.
// The current question is kept; the next question uses the new preferences.
func (h *TutorHandler) PutPreferences(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "put_preferences")
	defer observability.FinishSpan(span, nil)

	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}
	span.SetAttributes(
		observability.AttributeLanguage(req.Language),
		observability.AttributeDifficulty(req.Difficulty),
	)

	sess.Lock()
	sess.Preferences.Language = models.Language(req.Language)
	sess.Preferences.Difficulty = models.Difficulty(req.Difficulty)
	if req.Gamification != nil {
		sess.Preferences.Gamification = *req.Gamification
	}
	sess.Touch(time.Now())
	view := sess.View()
	sess.Unlock()

	c.JSON(http.StatusOK, view)
}

// NewQuestion asks the oracle for a fresh question
func (h *TutorHandler) NewQuestion(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "new_question")
	defer observability.FinishSpan(span, nil)

	sess, ok := h.session(c)
	if !ok {
		return
	}

	question, err := h.tutor.NewQuestion(ctx, sess)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, QuestionResponse{Question: question, Phase: models.PhaseQuestionPosed})
}

// EnsureQuestion returns the current question, generating the first one on demand
func (h *TutorHandler) EnsureQuestion(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "ensure_question")
	defer observability.FinishSpan(span, nil)

	sess, ok := h.session(c)
	if !ok {
		return
	}

	question, err := h.tutor.EnsureQuestion(ctx, sess)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	sess.Lock()
	phase := sess.State.Phase
	sess.Unlock()

	c.JSON(http.StatusOK, QuestionResponse{Question: question, Phase: phase})
}

// SubmitAnswer critiques the learner's answer and records it
func (h *TutorHandler) SubmitAnswer(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_answer")
	defer observability.FinishSpan(span, nil)

	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleBindError(c, err)
		return
	}

	result, err := h.tutor.SubmitAnswer(ctx, sess, req.Response)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(attribute.Bool("feedback.degraded", result.Degraded))
	c.JSON(http.StatusOK, result)
}

// GetHistory lists the session's interactions newest first
func (h *TutorHandler) GetHistory(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_history")
	defer observability.FinishSpan(span, nil)

	sess, ok := h.session(c)
	if !ok {
		return
	}

	sess.Lock()
	resp := HistoryResponse{History: sess.State.NewestFirst(), Score: sess.State.Score}
	sess.Unlock()

	c.JSON(http.StatusOK, resp)
}

// DeleteSession discards the session; the next request starts from scratch
func (h *TutorHandler) DeleteSession(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_session")
	defer observability.FinishSpan(span, nil)

	sess, ok := h.session(c)
	if !ok {
		return
	}

	h.store.Delete(ctx, sess.ID)
	if err := middleware.ForgetTutorSession(c); err != nil {
		h.logger.Warn(ctx, "Failed to clear session cookie", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
	}
	c.Status(http.StatusNoContent)
}

func (h *TutorHandler) session(c *gin.Context) (*models.TutorSession, bool) {
	sess, ok := middleware.TutorSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrSessionNotFound)
		return nil, false
	}
	return sess, true
}
