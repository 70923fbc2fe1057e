// Package models defines data structures used throughout the tutor application.
package models

import (
	"strings"
	"time"
)

// Language is a target language the tutor can practice
type Language string

// Languages supported by the tutor
const (
	LanguageGerman   Language = "German"
	LanguageFrench   Language = "French"
	LanguageSpanish  Language = "Spanish"
	LanguageItalian  Language = "Italian"
	LanguageJapanese Language = "Japanese"
	LanguageChinese  Language = "Chinese"
)

// Difficulty is the level questions are generated at
type Difficulty string

// Difficulty levels supported by the tutor
const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Languages returns the supported languages in display order
func Languages() []Language {
	return []Language{
		LanguageGerman,
		LanguageFrench,
		LanguageSpanish,
		LanguageItalian,
		LanguageJapanese,
		LanguageChinese,
	}
}

// Difficulties returns the supported difficulty levels from easiest to hardest
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}
}

// IsValid reports whether l is one of the supported languages
func (l Language) IsValid() bool {
	for _, candidate := range Languages() {
		if l == candidate {
			return true
		}
	}
	return false
}

// IsValid reports whether d is one of the supported difficulty levels
func (d Difficulty) IsValid() bool {
	for _, candidate := range Difficulties() {
		if d == candidate {
			return true
		}
	}
	return false
}

// ParseLanguage matches name against the supported languages ignoring case.
func ParseLanguage(name string) (Language, bool) {
	name = strings.TrimSpace(name)
	for _, candidate := range Languages() {
		if strings.EqualFold(string(candidate), name) {
			return candidate, true
		}
	}
	return "", false
}

// ParseDifficulty matches name against the supported levels ignoring case.
func ParseDifficulty(name string) (Difficulty, bool) {
	name = strings.TrimSpace(name)
	for _, candidate := range Difficulties() {
		if strings.EqualFold(string(candidate), name) {
			return candidate, true
		}
	}
	return "", false
}

// Preferences are the learner's selections. Changes apply to the next generated question.
type Preferences struct {
	Language     Language   `json:"language" yaml:"language"`
	Difficulty   Difficulty `json:"difficulty" yaml:"difficulty"`
	Gamification bool       `json:"gamification" yaml:"gamification"`
}

// Values recorded when a critique cannot be interpreted
const (
	FallbackErrors = "Feedback parsing failed"
	FallbackTip    = "No tip available"
)

// FeedbackRecord is the structured critique of one submitted answer
type FeedbackRecord struct {
	Score     int    `json:"score"`
	Errors    string `json:"errors"`
	Corrected string `json:"corrected"`
	Tip       string `json:"tip"`
}

// Points returns the score contribution of this feedback (score/10, rounded down)
func (f FeedbackRecord) Points() int {
	return f.Score / 10
}

// IsPerfect reports whether the critique found no errors
func (f FeedbackRecord) IsPerfect() bool {
	return strings.EqualFold(strings.TrimSpace(f.Errors), "none")
}

// Interaction is one completed question/answer round
type Interaction struct {
	Timestamp time.Time      `json:"timestamp"`
	Question  string         `json:"question"`
	Response  string         `json:"response"`
	Feedback  FeedbackRecord `json:"feedback"`
	Degraded  bool           `json:"degraded"`
}

// Phase is the position of a session in the question lifecycle
type Phase string

// Question lifecycle phases
const (
	PhaseNoQuestion      Phase = "no_question"
	PhaseQuestionPosed   Phase = "question_posed"
	PhaseAnswerSubmitted Phase = "answer_submitted"
)

// SessionState is the mutable practice record of a single session.
// History is append-only and Score always equals the sum of Points over History.
type SessionState struct {
	History         []Interaction   `json:"history"`
	Score           int             `json:"score"`
	CurrentQuestion string          `json:"current_question"`
	LastFeedback    *FeedbackRecord `json:"last_feedback,omitempty"`
	Phase           Phase           `json:"phase"`
}

// NewSessionState returns an empty state waiting for its first question
func NewSessionState() SessionState {
	return SessionState{
		History: []Interaction{},
		Phase:   PhaseNoQuestion,
	}
}

// HistoryEntry is an interaction labeled with its position in the newest-first listing
type HistoryEntry struct {
	Ordinal int `json:"ordinal"`
	Interaction
}

// NewestFirst returns the history newest-first with 1-based ordinals
func (s *SessionState) NewestFirst() []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(s.History))
	for i := len(s.History) - 1; i >= 0; i-- {
		entries = append(entries, HistoryEntry{
			Ordinal:     len(entries) + 1,
			Interaction: s.History[i],
		})
	}
	return entries
}

// Stats summarizes progress for the gamification panel
type Stats struct {
	Score              int        `json:"score"`
	QuestionsCompleted int        `json:"questions_completed"`
	LastInteraction    *time.Time `json:"last_interaction"`
	VocabularyTips     []string   `json:"vocabulary_tips"`
}

// Stats computes the progress summary. Tips are newest first and exclude the fallback tip.
func (s *SessionState) Stats() Stats {
	stats := Stats{
		Score:              s.Score,
		QuestionsCompleted: len(s.History),
		VocabularyTips:     []string{},
	}
	if n := len(s.History); n > 0 {
		last := s.History[n-1].Timestamp
		stats.LastInteraction = &last
	}
	for i := len(s.History) - 1; i >= 0; i-- {
		h := s.History[i]
		if h.Degraded || h.Feedback.Tip == "" || h.Feedback.Tip == FallbackTip {
			continue
		}
		stats.VocabularyTips = append(stats.VocabularyTips, h.Feedback.Tip)
	}
	return stats
}

// SubmissionResult is returned to the caller after an answer has been recorded
type SubmissionResult struct {
	Interaction   Interaction    `json:"interaction"`
	Feedback      FeedbackRecord `json:"feedback"`
	Degraded      bool           `json:"degraded"`
	PointsAwarded int            `json:"points_awarded"`
	Score         int            `json:"score"`
}
