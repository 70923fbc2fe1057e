package models

import (
	"strings"
	"sync"
	"time"
)

// TutorSession is one learner's practice session. Actions on a session are
// serialized with Lock/Unlock; sessions never share state.
type TutorSession struct {
	ID          string
	Credential  string
	Preferences Preferences
	State       SessionState
	CreatedAt   time.Time
	LastSeenAt  time.Time

	mu sync.Mutex
}

// NewTutorSession creates a session with empty state
func NewTutorSession(id string, prefs Preferences, credential string, now time.Time) *TutorSession {
	return &TutorSession{
		ID:          id,
		Credential:  credential,
		Preferences: prefs,
		State:       NewSessionState(),
		CreatedAt:   now,
		LastSeenAt:  now,
	}
}

// Lock acquires the session for one action
func (s *TutorSession) Lock() { s.mu.Lock() }

// TryLock acquires the session only if no action is running
func (s *TutorSession) TryLock() bool { return s.mu.TryLock() }

// Unlock releases the session
func (s *TutorSession) Unlock() { s.mu.Unlock() }

// Touch records activity on the session. Caller holds the lock.
func (s *TutorSession) Touch(now time.Time) {
	s.LastSeenAt = now
}

// HasCredential reports whether an oracle credential is set
func (s *TutorSession) HasCredential() bool {
	return strings.TrimSpace(s.Credential) != ""
}

// SessionView is the snapshot rendered by the display layers
type SessionView struct {
	SessionID       string          `json:"session_id"`
	CurrentQuestion string          `json:"current_question"`
	LastFeedback    *FeedbackRecord `json:"last_feedback"`
	History         []HistoryEntry  `json:"history"`
	Score           int             `json:"score"`
	Phase           Phase           `json:"phase"`
	Preferences     Preferences     `json:"preferences"`
	HasCredential   bool            `json:"has_credential"`
	Stats           *Stats          `json:"stats,omitempty"`
}

// View builds a snapshot of the session. Caller holds the lock.
func (s *TutorSession) View() SessionView {
	view := SessionView{
		SessionID:       s.ID,
		CurrentQuestion: s.State.CurrentQuestion,
		History:         s.State.NewestFirst(),
		Score:           s.State.Score,
		Phase:           s.State.Phase,
		Preferences:     s.Preferences,
		HasCredential:   s.HasCredential(),
	}
	if s.State.LastFeedback != nil {
		fb := *s.State.LastFeedback
		view.LastFeedback = &fb
	}
	if s.Preferences.Gamification {
		stats := s.State.Stats()
		view.Stats = &stats
	}
	return view
}
