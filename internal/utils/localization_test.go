package contextutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocale(t *testing.T) {
	tests := []struct {
		input    string
		expected Locale
	}{
		{"en", LocaleEnglish},
		{"fr-CA", LocaleFrench},
		{"DE-de", LocaleGerman},
		{"de-DE,de;q=0.9,en;q=0.8", LocaleGerman},
		{"it;q=0.7", LocaleItalian},
		{"  es-MX ", LocaleSpanish},
		{"", LocaleEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLocale(tt.input))
		})
	}
}

func TestLocalizedMessages_FallbackChain(t *testing.T) {
	lm := NewLocalizedMessages()
	lm.AddMessage(ErrorCodeOracleUnavailable, LocaleEnglish, "Model is down")
	lm.AddMessage(ErrorCodeOracleUnavailable, LocaleFrench, "Modèle en panne")

	assert.Equal(t, "Modèle en panne", lm.GetMessage(ErrorCodeOracleUnavailable, LocaleFrench))
	assert.Equal(t, "Model is down", lm.GetMessage(ErrorCodeOracleUnavailable, LocaleItalian))
	assert.Equal(t, "Tutor session not found", lm.GetMessage(ErrorCodeSessionNotFound, LocaleItalian))
	assert.Equal(t, "An error occurred", lm.GetMessage(ErrorCode("NOPE"), LocaleEnglish))
}

func TestLocalizedMessages_WithDetails(t *testing.T) {
	lm := NewLocalizedMessages()
	assert.Equal(t, "Invalid input: language", lm.GetMessageWithDetails(ErrorCodeInvalidInput, LocaleEnglish, "language"))
	assert.Equal(t, "Invalid input", lm.GetMessageWithDetails(ErrorCodeInvalidInput, LocaleEnglish, ""))
}

func TestLocalizedMessages_LoadMessagesFromJSON(t *testing.T) {
	lm := NewLocalizedMessages()
	err := lm.LoadMessagesFromJSON(`{"NO_QUESTION_POSED": {"de": "Noch keine Frage gestellt", "en": "Ask for a question first"}}`)
	require.NoError(t, err)

	assert.Equal(t, "Noch keine Frage gestellt", lm.GetMessage(ErrorCodeNoQuestionPosed, LocaleGerman))
	assert.Equal(t, "Ask for a question first", lm.GetMessage(ErrorCodeNoQuestionPosed, LocaleSpanish))
	assert.ElementsMatch(t, []Locale{LocaleGerman, LocaleEnglish}, lm.GetSupportedLocales())

	assert.Error(t, lm.LoadMessagesFromJSON("{not json"))
}

func TestGlobalMessages(t *testing.T) {
	assert.Equal(t, "Das Sprachmodell ist nicht erreichbar", GetLocalizedMessage(ErrorCodeOracleUnavailable, LocaleGerman))
	assert.Equal(t, "Language model unavailable", GetLocalizedMessage(ErrorCodeOracleUnavailable, LocaleEnglish))
	assert.Equal(t, "Errore interno del server: boom", GetLocalizedMessageWithDetails(ErrorCodeInternalError, LocaleItalian, "boom"))
}

func TestSetGlobalLocalizedMessages(t *testing.T) {
	original := globalLocalizedMessages
	defer SetGlobalLocalizedMessages(original)

	custom := NewLocalizedMessages()
	custom.AddMessage(ErrorCodeEmptySubmission, LocaleFrench, "Vide")
	SetGlobalLocalizedMessages(custom)

	assert.Equal(t, "Vide", GetLocalizedMessage(ErrorCodeEmptySubmission, LocaleFrench))
}
