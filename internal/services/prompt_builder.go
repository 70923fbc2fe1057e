// Package services implements the tutor: prompt construction, language model
// access, critique interpretation and the question lifecycle.
package services

import (
	"embed"
	"strings"
	"text/template"

	"tutorapp/internal/models"
	contextutils "tutorapp/internal/utils"
)

//go:embed templates/*.tmpl
var promptTemplatesFS embed.FS

// Template names as constants
const (
	QuestionPromptTemplate = "question_prompt.tmpl"
	CritiquePromptTemplate = "critique_prompt.tmpl"
)

// Labels the critique prompt asks for and InterpretFeedback looks for
const (
	ScoreLabel     = "Score:"
	ErrorsLabel    = "Errors:"
	CorrectedLabel = "Corrected:"
	TipLabel       = "Tip:"
)

// PromptData holds data for rendering prompt templates
type PromptData struct {
	Language   string
	Difficulty string
	Response   string

	ScoreLabel     string
	ErrorsLabel    string
	CorrectedLabel string
	TipLabel       string
}

// PromptBuilder renders the question and critique instructions sent to the oracle
type PromptBuilder struct {
	templates *template.Template
}

// NewPromptBuilder parses the embedded prompt templates
func NewPromptBuilder() (result0 *PromptBuilder, err error) {
	templates, err := template.New("").
		Funcs(template.FuncMap{"lower": strings.ToLower}).
		ParseFS(promptTemplatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to parse prompt templates: %w", err)
	}
	return &PromptBuilder{templates: templates}, nil
}

// MustNewPromptBuilder is NewPromptBuilder for package-level wiring; the templates are embedded
func MustNewPromptBuilder() *PromptBuilder {
	pb, err := NewPromptBuilder()
	if err != nil {
		panic(err)
	}
	return pb
}

// BuildQuestionPrompt asks for one everyday-situation question at the given level
func (pb *PromptBuilder) BuildQuestionPrompt(difficulty models.Difficulty, language models.Language) (string, error) {
	return pb.render(QuestionPromptTemplate, PromptData{
		Language:   string(language),
		Difficulty: string(difficulty),
	})
}

// BuildCritiquePrompt asks for a four-line labeled critique of response.
// A blank response is rejected with ErrEmptySubmission.
func (pb *PromptBuilder) BuildCritiquePrompt(language models.Language, response string) (string, error) {
	if contextutils.IsBlank(response) {
		return "", contextutils.ErrEmptySubmission
	}
	return pb.render(CritiquePromptTemplate, PromptData{
		Language:       string(language),
		Response:       response,
		ScoreLabel:     ScoreLabel,
		ErrorsLabel:    ErrorsLabel,
		CorrectedLabel: CorrectedLabel,
		TipLabel:       TipLabel,
	})
}

func (pb *PromptBuilder) render(name string, data PromptData) (string, error) {
	var buf strings.Builder
	if err := pb.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
