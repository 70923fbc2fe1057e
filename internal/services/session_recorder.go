package services

import (
	"time"

	"tutorapp/internal/models"
)

// RecordInteraction applies one completed round to state: the interaction is appended,
// Score grows by fb.Points(), fb becomes the last feedback and the phase moves to
// AnswerSubmitted. Fallback feedback takes the same path. The caller holds the
// session lock so the four updates land together.
func RecordInteraction(state *models.SessionState, question, response string, fb models.FeedbackRecord, degraded bool, at time.Time) models.Interaction {
	interaction := models.Interaction{
		Timestamp: at,
		Question:  question,
		Response:  response,
		Feedback:  fb,
		Degraded:  degraded,
	}

	state.History = append(state.History, interaction)
	state.Score += fb.Points()
	last := fb
	state.LastFeedback = &last
	state.Phase = models.PhaseAnswerSubmitted

	return interaction
}
