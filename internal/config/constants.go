package config

import "time"

// Timeout constants
const (
	// HTTP timeouts
	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 30 * time.Second

	// Session timeouts
	SessionMaxAge = 24 * time.Hour

	// Tutor sessions idle longer than this are pruned
	DefaultSessionIdleTimeout = 2 * time.Hour
)

// Session configuration constants
const (
	SessionPath     = "/"
	SessionHTTPOnly = true
	SessionSecure   = false // Set to true in production with HTTPS

	// Session name
	SessionName = "tutor-session"

	// SessionIDKey is the cookie session key holding the tutor session id
	SessionIDKey = "tutor_session_id"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self'; img-src 'self' data:;"
)

// Environment variables read directly by the binaries
const (
	// APIKeyEnv supplies the learner's credential to the CLI
	APIKeyEnv = "TUTOR_API_KEY"
)
