package services

import (
	"context"
	"sync"
	"time"

	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"github.com/google/uuid"
)

// SessionStoreInterface keeps tutor sessions addressable by id
type SessionStoreInterface interface {
	Create(ctx context.Context, prefs models.Preferences, credential string) *models.TutorSession
	Get(ctx context.Context, id string) (*models.TutorSession, error)
	Delete(ctx context.Context, id string)
	Len() int
}

// SessionStore is the in-memory registry of live sessions. Nothing is persisted;
// idle sessions are pruned lazily on Create.
type SessionStore struct {
	mu          sync.RWMutex
	sessions    map[string]*models.TutorSession
	idleTimeout time.Duration
	now         func() time.Time
	logger      *observability.Logger
}

// NewSessionStore creates an empty store. A zero idleTimeout keeps sessions forever.
func NewSessionStore(idleTimeout time.Duration, logger *observability.Logger) *SessionStore {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &SessionStore{
		sessions:    make(map[string]*models.TutorSession),
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      logger,
	}
}

// Create registers a fresh session with empty state
func (s *SessionStore) Create(ctx context.Context, prefs models.Preferences, credential string) *models.TutorSession {
	now := s.now()
	s.Prune(ctx, now)

	sess := models.NewTutorSession(uuid.NewString(), prefs, contextutils.NormalizeCredential(credential), now)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	total := len(s.sessions)
	s.mu.Unlock()

	s.logger.Info(ctx, "Tutor session created", map[string]interface{}{
		"session_id":     sess.ID,
		"language":       string(prefs.Language),
		"difficulty":     string(prefs.Difficulty),
		"has_credential": sess.HasCredential(),
		"live_sessions":  total,
	})
	return sess
}

// Get returns the session with id or ErrSessionNotFound
func (s *SessionStore) Get(_ context.Context, id string) (*models.TutorSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, contextutils.ErrSessionNotFound
	}
	return sess, nil
}

// Delete forgets a session; unknown ids are ignored
func (s *SessionStore) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		s.logger.Info(ctx, "Tutor session ended", map[string]interface{}{"session_id": id})
	}
}

// Len reports the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Prune drops sessions idle for longer than the idle timeout and returns how many were removed.
// Sessions busy with an action are skipped.
func (s *SessionStore) Prune(ctx context.Context, now time.Time) int {
	if s.idleTimeout <= 0 {
		return 0
	}

	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if !sess.TryLock() {
			continue
		}
		idle := now.Sub(sess.LastSeenAt) > s.idleTimeout
		sess.Unlock()
		if idle {
			delete(s.sessions, id)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Debug(ctx, "Pruned idle tutor sessions", map[string]interface{}{
			"removed":      removed,
			"idle_timeout": s.idleTimeout.String(),
		})
	}
	return removed
}
