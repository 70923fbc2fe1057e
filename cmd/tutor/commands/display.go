package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"tutorapp/internal/models"
	contextutils "tutorapp/internal/utils"
)

const timestampLayout = "2006-01-02 15:04:05"

func renderQuestion(w io.Writer, question string) {
	fmt.Fprintf(w, "\nCurrent question:\n  %s\n\n", question)
}

func renderSubmission(w io.Writer, result *models.SubmissionResult, gamification bool) {
	renderFeedback(w, &result.Feedback, result.Degraded, gamification)
	if gamification {
		fmt.Fprintf(w, "+%d points, total score %d\n", result.PointsAwarded, result.Score)
	}
	fmt.Fprintln(w, "Answer again, or type :new for another question.")
}

func renderFeedback(w io.Writer, fb *models.FeedbackRecord, degraded, gamification bool) {
	if fb == nil {
		fmt.Fprintln(w, "Complete a practice question to see feedback here.")
		return
	}

	fmt.Fprintf(w, "Score: %d/100\n", fb.Score)
	if degraded {
		fmt.Fprintln(w, "The feedback could not be interpreted; nothing was scored for this answer.")
	}
	if fb.IsPerfect() {
		if gamification {
			fmt.Fprintln(w, "No errors found! Perfect response!")
		} else {
			fmt.Fprintln(w, "No errors found.")
		}
	} else {
		fmt.Fprintf(w, "Corrections: %s\n", fb.Errors)
		fmt.Fprintf(w, "Corrected version: %s\n", fb.Corrected)
	}
	fmt.Fprintf(w, "Vocabulary tip: %s\n", fb.Tip)
}

func renderHistory(w io.Writer, history []models.HistoryEntry) {
	if len(history) == 0 {
		fmt.Fprintln(w, "Your practice history will appear here.")
		return
	}
	for _, entry := range history {
		fb := entry.Feedback
		fmt.Fprintf(w, "Practice %d - %s\n", entry.Ordinal, entry.Timestamp.Format(timestampLayout))
		fmt.Fprintf(w, "  Question: %s\n", entry.Question)
		fmt.Fprintf(w, "  Your response: %s\n", entry.Response)
		fmt.Fprintf(w, "  Score: %d/100\n", fb.Score)
		if !fb.IsPerfect() {
			fmt.Fprintf(w, "  Corrections: %s\n", fb.Errors)
			fmt.Fprintf(w, "  Corrected version: %s\n", fb.Corrected)
		}
		fmt.Fprintf(w, "  Vocabulary tip: %s\n", fb.Tip)
	}
}

func renderScore(w io.Writer, view models.SessionView) {
	fmt.Fprintf(w, "Current score: %d\n", view.Score)
	fmt.Fprintf(w, "Questions completed: %d\n", len(view.History))
	if view.Stats == nil {
		return
	}
	if view.Stats.LastInteraction != nil {
		fmt.Fprintf(w, "Last interaction: %s\n", view.Stats.LastInteraction.Format("15:04"))
	}
	if len(view.Stats.VocabularyTips) > 0 {
		fmt.Fprintf(w, "Latest vocabulary tip: %s\n", view.Stats.VocabularyTips[0])
	}
}

func renderGoodbye(w io.Writer, view models.SessionView) {
	fmt.Fprintf(w, "Finished with %d answers and a score of %d.\n", len(view.History), view.Score)
}

func renderHelp(w io.Writer) {
	fmt.Fprint(w, `Type your answer and press Enter to get feedback.

Commands:
  :new            ask a new question
  :history        list your answers, newest first
  :score          show your score
  :feedback       show the last feedback again
  :lang <name>    change the language for the next question
  :level <name>   change the difficulty for the next question
  :help           show this help
  :quit           leave the session
`)
}

// renderActionError explains a failed action; the session is left as it was
func renderActionError(w io.Writer, action string, err error) {
	switch {
	case errors.Is(err, contextutils.ErrEmptySubmission):
		fmt.Fprintln(w, "Please enter a response before submitting.")
	case errors.Is(err, contextutils.ErrNoQuestionPosed):
		fmt.Fprintln(w, "There is no question yet. Type :new to get one.")
	case errors.Is(err, contextutils.ErrMissingCredential):
		fmt.Fprintln(w, "Please enter your API key to continue.")
	case errors.Is(err, contextutils.ErrOracleUnavailable):
		fmt.Fprintf(w, "Could not %s from the language model. Nothing was changed; try again.\n", action)
	default:
		fmt.Fprintf(w, "Could not %s: %v\n", action, err)
	}
}

func joinLanguages() string {
	names := make([]string, 0, len(models.Languages()))
	for _, l := range models.Languages() {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}

func joinDifficulties() string {
	names := make([]string, 0, len(models.Difficulties()))
	for _, d := range models.Difficulties() {
		names = append(names, string(d))
	}
	return strings.Join(names, ", ")
}
