package services

import (
	"testing"

	"tutorapp/internal/models"
	contextutils "tutorapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuestionPrompt(t *testing.T) {
	pb := MustNewPromptBuilder()

	prompt, err := pb.BuildQuestionPrompt(models.DifficultyBeginner, models.LanguageGerman)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Generate a beginner level question in German for language practice.")
	assert.Contains(t, prompt, "everyday situations")
	assert.Contains(t, prompt, "1-2 sentences")
	assert.Contains(t, prompt, "Return ONLY the question in German, nothing else.")

	prompt, err = pb.BuildQuestionPrompt(models.DifficultyAdvanced, models.LanguageJapanese)
	require.NoError(t, err)
	assert.Contains(t, prompt, "advanced level question in Japanese")
	assert.NotContains(t, prompt, "German")
}

func TestBuildCritiquePrompt(t *testing.T) {
	pb := MustNewPromptBuilder()

	prompt, err := pb.BuildCritiquePrompt(models.LanguageGerman, "Ich gehe zur Schule.")
	require.NoError(t, err)
	assert.Contains(t, prompt, "German sentence")
	assert.Contains(t, prompt, `"Ich gehe zur Schule."`)
	for _, label := range []string{ScoreLabel, ErrorsLabel, CorrectedLabel, TipLabel} {
		assert.Contains(t, prompt, label)
	}
	assert.Contains(t, prompt, `"none"`)
}

func TestBuildCritiquePrompt_KeepsResponseVerbatim(t *testing.T) {
	pb := MustNewPromptBuilder()

	// text/template does not escape; quotes and markup reach the model unchanged
	prompt, err := pb.BuildCritiquePrompt(models.LanguageFrench, `Il a dit "<bonjour>" & partit`)
	require.NoError(t, err)
	assert.Contains(t, prompt, `"Il a dit "<bonjour>" & partit"`)
}

func TestBuildCritiquePrompt_BlankResponse(t *testing.T) {
	pb := MustNewPromptBuilder()

	for _, response := range []string{"", "   ", "\n\t"} {
		_, err := pb.BuildCritiquePrompt(models.LanguageSpanish, response)
		assert.ErrorIs(t, err, contextutils.ErrEmptySubmission)
	}
}
