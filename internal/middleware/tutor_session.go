// Package middleware provides tutor session and error recovery middleware for the Gin web framework.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"tutorapp/internal/config"
	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// TutorSessionKey is the gin context key holding the resolved *models.TutorSession
const TutorSessionKey = "tutor_session"

// SessionProvider looks up and creates tutor sessions
type SessionProvider interface {
	Create(ctx context.Context, prefs models.Preferences, credential string) *models.TutorSession
	Get(ctx context.Context, id string) (*models.TutorSession, error)
}

// SessionDefaults seeds new sessions
type SessionDefaults struct {
	Preferences models.Preferences
	Credential  string
}

// RequireTutorSession resolves the tutor session named by the cookie, creating a fresh one
// when the cookie is absent or names a session that no longer exists. Only the session id
// lives in the cookie.
func RequireTutorSession(store SessionProvider, defaults SessionDefaults, logger *observability.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cookie := sessions.Default(c)

		if id, ok := cookie.Get(config.SessionIDKey).(string); ok && id != "" {
			sess, err := store.Get(ctx, id)
			if err == nil {
				c.Set(TutorSessionKey, sess)
				c.Next()
				return
			}
			if !errors.Is(err, contextutils.ErrSessionNotFound) {
				logger.Error(ctx, "Failed to look up tutor session", err, map[string]interface{}{"session_id": id})
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, contextutils.ErrInternalError.ToJSON())
				return
			}
			logger.Debug(ctx, "Tutor session expired, starting a new one", map[string]interface{}{"session_id": id})
		}

		sess := store.Create(ctx, defaults.Preferences, defaults.Credential)
		cookie.Set(config.SessionIDKey, sess.ID)
		if err := cookie.Save(); err != nil {
			logger.Error(ctx, "Failed to save session cookie", err, map[string]interface{}{"session_id": sess.ID})
		}

		c.Set(TutorSessionKey, sess)
		c.Next()
	}
}

// TutorSession returns the session resolved by RequireTutorSession
func TutorSession(c *gin.Context) (*models.TutorSession, bool) {
	v, ok := c.Get(TutorSessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*models.TutorSession)
	return sess, ok
}

// ForgetTutorSession clears the session id from the cookie
func ForgetTutorSession(c *gin.Context) error {
	cookie := sessions.Default(c)
	cookie.Delete(config.SessionIDKey)
	return cookie.Save()
}
