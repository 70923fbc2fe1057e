package contextutils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation tags understood by RegisterTutorValidations
const (
	LanguageTag   = "tutor_language"
	DifficultyTag = "tutor_difficulty"
)

// Enumerations accepted by the tutor. They mirror the models package so that
// request validation does not need to import it.
var (
	supportedLanguages    = []string{"German", "French", "Spanish", "Italian", "Japanese", "Chinese"}
	supportedDifficulties = []string{"Beginner", "Intermediate", "Advanced"}
)

var validate = newTutorValidator()

func newTutorValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterTutorValidations(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterTutorValidations installs the tutor_language and tutor_difficulty tags on v.
// The router calls it with gin's binding engine so request structs can use the tags.
func RegisterTutorValidations(v *validator.Validate) error {
	if err := v.RegisterValidation(LanguageTag, func(fl validator.FieldLevel) bool {
		return IsSupportedLanguage(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation(DifficultyTag, func(fl validator.FieldLevel) bool {
		return IsSupportedDifficulty(fl.Field().String())
	})
}

// IsSupportedLanguage reports whether name is one of the six tutor languages (exact match)
func IsSupportedLanguage(name string) bool {
	return contains(supportedLanguages, name)
}

// IsSupportedDifficulty reports whether name is Beginner, Intermediate or Advanced (exact match)
func IsSupportedDifficulty(name string) bool {
	return contains(supportedDifficulties, name)
}

// IsBlank reports whether s is empty or whitespace only
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateVar runs a validator tag expression against a single value
func ValidateVar(value interface{}, tag string) error {
	return validate.Var(value, tag)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
