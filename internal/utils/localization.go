package contextutils

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Locale represents a language locale (e.g., "en", "es", "fr")
type Locale string

const (
	// LocaleEnglish represents English language
	LocaleEnglish Locale = "en"
	// LocaleSpanish represents Spanish language
	LocaleSpanish Locale = "es"
	// LocaleFrench represents French language
	LocaleFrench Locale = "fr"
	// LocaleGerman represents German language
	LocaleGerman Locale = "de"
	// LocaleItalian represents Italian language
	LocaleItalian Locale = "it"
)

// LocalizedMessages contains localized error messages for different locales
type LocalizedMessages struct {
	messages map[ErrorCode]map[Locale]string
}

// NewLocalizedMessages creates a new instance of localized messages
func NewLocalizedMessages() *LocalizedMessages {
	return &LocalizedMessages{
		messages: make(map[ErrorCode]map[Locale]string),
	}
}

// AddMessage adds a localized message for a specific error code and locale
func (lm *LocalizedMessages) AddMessage(code ErrorCode, locale Locale, message string) {
	if lm.messages[code] == nil {
		lm.messages[code] = make(map[Locale]string)
	}
	lm.messages[code][locale] = message
}

// GetMessage returns the localized message for an error code and locale
func (lm *LocalizedMessages) GetMessage(code ErrorCode, locale Locale) string {
	// Try to get the message for the specific locale
	if localeMessages, exists := lm.messages[code]; exists {
		if message, exists := localeMessages[locale]; exists {
			return message
		}

		// Fallback to English if the specific locale doesn't have a message
		if message, exists := localeMessages[LocaleEnglish]; exists {
			return message
		}
	}

	// Fallback to a default message
	return getDefaultMessage(code)
}

// GetMessageWithDetails returns a localized message with additional details
func (lm *LocalizedMessages) GetMessageWithDetails(code ErrorCode, locale Locale, details string) string {
	message := lm.GetMessage(code, locale)
	if details != "" {
		return fmt.Sprintf("%s: %s", message, details)
	}
	return message
}

// getDefaultMessage returns a default English message for error codes
func getDefaultMessage(code ErrorCode) string {
	switch code {
	case ErrorCodeInvalidInput:
		return "Invalid input"
	case ErrorCodeMissingRequired:
		return "Missing required field"
	case ErrorCodeValidationFailed:
		return "Validation failed"
	case ErrorCodeServiceUnavailable:
		return "Service temporarily unavailable"
	case ErrorCodeInternalError:
		return "Internal server error"
	case ErrorCodeMissingCredential:
		return "Please enter your API key to continue"
	case ErrorCodeOracleUnavailable:
		return "Language model unavailable"
	case ErrorCodeOracleConfigInvalid:
		return "Language model configuration invalid"
	case ErrorCodeFeedbackParseFailure:
		return "Feedback parsing failed"
	case ErrorCodeEmptySubmission:
		return "Please enter a response before submitting"
	case ErrorCodeNoQuestionPosed:
		return "No practice question has been asked yet"
	case ErrorCodeSessionNotFound:
		return "Tutor session not found"
	default:
		return "An error occurred"
	}
}

// LoadMessagesFromJSON loads localized messages from a JSON structure
func (lm *LocalizedMessages) LoadMessagesFromJSON(jsonData string) error {
	var data map[string]map[string]string
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		return WrapError(err, "failed to parse localization JSON")
	}

	for codeStr, localeMessages := range data {
		code := ErrorCode(codeStr)
		for localeStr, message := range localeMessages {
			locale := Locale(localeStr)
			lm.AddMessage(code, locale, message)
		}
	}

	return nil
}

// GetSupportedLocales returns a list of supported locales
func (lm *LocalizedMessages) GetSupportedLocales() []Locale {
	locales := make(map[Locale]bool)

	for _, localeMessages := range lm.messages {
		for locale := range localeMessages {
			locales[locale] = true
		}
	}

	result := make([]Locale, 0, len(locales))
	for locale := range locales {
		result = append(result, locale)
	}

	return result
}

// ParseLocale parses a locale string (e.g., "en-US", "fr-CA", "de-DE,de;q=0.9") and returns the language part
func ParseLocale(localeStr string) Locale {
	if i := strings.IndexAny(localeStr, ",;"); i >= 0 {
		localeStr = localeStr[:i]
	}
	parts := strings.Split(strings.TrimSpace(localeStr), "-")
	if len(parts) > 0 && parts[0] != "" {
		return Locale(strings.ToLower(parts[0]))
	}
	return LocaleEnglish // Default fallback
}

// Global instance of localized messages
var globalLocalizedMessages = NewLocalizedMessages()

// init loads default localized messages
func init() {
	globalLocalizedMessages.AddMessage(ErrorCodeInvalidInput, LocaleSpanish, "Entrada inválida")
	globalLocalizedMessages.AddMessage(ErrorCodeInvalidInput, LocaleFrench, "Entrée invalide")
	globalLocalizedMessages.AddMessage(ErrorCodeInvalidInput, LocaleGerman, "Ungültige Eingabe")
	globalLocalizedMessages.AddMessage(ErrorCodeInvalidInput, LocaleItalian, "Input non valido")

	globalLocalizedMessages.AddMessage(ErrorCodeEmptySubmission, LocaleSpanish, "Escribe una respuesta antes de enviarla")
	globalLocalizedMessages.AddMessage(ErrorCodeEmptySubmission, LocaleFrench, "Veuillez saisir une réponse avant de l'envoyer")
	globalLocalizedMessages.AddMessage(ErrorCodeEmptySubmission, LocaleGerman, "Bitte gib eine Antwort ein, bevor du sie abschickst")
	globalLocalizedMessages.AddMessage(ErrorCodeEmptySubmission, LocaleItalian, "Inserisci una risposta prima di inviarla")

	globalLocalizedMessages.AddMessage(ErrorCodeMissingCredential, LocaleSpanish, "Introduce tu clave de API para continuar")
	globalLocalizedMessages.AddMessage(ErrorCodeMissingCredential, LocaleFrench, "Veuillez saisir votre clé d'API pour continuer")
	globalLocalizedMessages.AddMessage(ErrorCodeMissingCredential, LocaleGerman, "Bitte gib deinen API-Schlüssel ein, um fortzufahren")
	globalLocalizedMessages.AddMessage(ErrorCodeMissingCredential, LocaleItalian, "Inserisci la tua chiave API per continuare")

	globalLocalizedMessages.AddMessage(ErrorCodeOracleUnavailable, LocaleSpanish, "El modelo de lenguaje no está disponible")
	globalLocalizedMessages.AddMessage(ErrorCodeOracleUnavailable, LocaleFrench, "Le modèle de langage est indisponible")
	globalLocalizedMessages.AddMessage(ErrorCodeOracleUnavailable, LocaleGerman, "Das Sprachmodell ist nicht erreichbar")
	globalLocalizedMessages.AddMessage(ErrorCodeOracleUnavailable, LocaleItalian, "Il modello linguistico non è disponibile")

	globalLocalizedMessages.AddMessage(ErrorCodeInternalError, LocaleSpanish, "Error interno del servidor")
	globalLocalizedMessages.AddMessage(ErrorCodeInternalError, LocaleFrench, "Erreur interne du serveur")
	globalLocalizedMessages.AddMessage(ErrorCodeInternalError, LocaleGerman, "Interner Serverfehler")
	globalLocalizedMessages.AddMessage(ErrorCodeInternalError, LocaleItalian, "Errore interno del server")
}

// GetLocalizedMessage returns a localized error message using the global instance
func GetLocalizedMessage(code ErrorCode, locale Locale) string {
	return globalLocalizedMessages.GetMessage(code, locale)
}

// GetLocalizedMessageWithDetails returns a localized error message with details
func GetLocalizedMessageWithDetails(code ErrorCode, locale Locale, details string) string {
	return globalLocalizedMessages.GetMessageWithDetails(code, locale, details)
}

// SetGlobalLocalizedMessages sets the global localized messages instance
func SetGlobalLocalizedMessages(messages *LocalizedMessages) {
	globalLocalizedMessages = messages
}
