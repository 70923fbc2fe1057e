package services

import (
	"fmt"
	"strconv"
	"strings"

	"tutorapp/internal/models"
	contextutils "tutorapp/internal/utils"
)

// FallbackFeedback is recorded when a critique cannot be interpreted
func FallbackFeedback(response string) models.FeedbackRecord {
	return models.FeedbackRecord{
		Score:     0,
		Errors:    models.FallbackErrors,
		Corrected: response,
		Tip:       models.FallbackTip,
	}
}

// InterpretFeedback is the best-effort structured extraction of a critique.
//
// The first line starting with each label wins; label order does not matter and
// surrounding text is ignored. The score is the text between the label and the next
// ':' and must be an integer in [0,100]. Any failure
// yields FallbackFeedback(response) together with a FEEDBACK_PARSE_FAILURE error that
// describes the reason; the returned record is always usable.
func InterpretFeedback(reply, response string) (record models.FeedbackRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			record = FallbackFeedback(response)
			err = parseFailure(fmt.Sprintf("panic: %v", r))
		}
	}()

	lines := strings.Split(reply, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	scoreText, ok := firstLabeledValue(lines, ScoreLabel)
	if !ok {
		return FallbackFeedback(response), parseFailure("missing " + ScoreLabel + " line")
	}
	// Only the text up to the next ':' is the score; anything after it is commentary
	scoreText, _, _ = strings.Cut(scoreText, ":")
	scoreText = strings.TrimSpace(scoreText)
	score, convErr := strconv.Atoi(scoreText)
	if convErr != nil {
		return FallbackFeedback(response), parseFailure(fmt.Sprintf("score %q is not an integer", scoreText))
	}
	if score < 0 || score > 100 {
		return FallbackFeedback(response), parseFailure(fmt.Sprintf("score %d out of range", score))
	}

	fields := make(map[string]string, 3)
	for _, label := range []string{ErrorsLabel, CorrectedLabel, TipLabel} {
		value, ok := firstLabeledValue(lines, label)
		if !ok {
			return FallbackFeedback(response), parseFailure("missing " + label + " line")
		}
		fields[label] = value
	}

	return models.FeedbackRecord{
		Score:     score,
		Errors:    fields[ErrorsLabel],
		Corrected: fields[CorrectedLabel],
		Tip:       fields[TipLabel],
	}, nil
}

// firstLabeledValue finds the first line with the exact, case-sensitive label prefix and
// returns everything after that line's first ':' trimmed. Later colons are kept.
func firstLabeledValue(lines []string, label string) (string, bool) {
	for _, line := range lines {
		if !strings.HasPrefix(line, label) {
			continue
		}
		_, value, _ := strings.Cut(line, ":")
		return strings.TrimSpace(value), true
	}
	return "", false
}

func parseFailure(details string) error {
	return contextutils.NewAppError(contextutils.ErrorCodeFeedbackParseFailure, contextutils.SeverityInfo,
		contextutils.ErrFeedbackParseFailure.Message, details)
}
