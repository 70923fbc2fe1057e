// Package handlers exposes the tutor over HTTP with gin.
package handlers

import (
	"context"
	"net/http"
	"time"

	"tutorapp/internal/config"
	"tutorapp/internal/middleware"
	"tutorapp/internal/observability"
	"tutorapp/internal/services"
	contextutils "tutorapp/internal/utils"
	"tutorapp/internal/version"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// NewRouter creates the gin engine with all the necessary middleware and routes
func NewRouter(
	cfg *config.Config,
	tutorService services.TutorServiceInterface,
	sessionStore services.SessionStoreInterface,
	logger *observability.Logger,
) *gin.Engine {
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	// Setup Gin mode
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}
	if cfg.IsTest {
		gin.SetMode(gin.TestMode)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := contextutils.RegisterTutorValidations(v); err != nil {
			logger.Error(context.Background(), "Failed to register request validations", err)
		}
	}

	router := gin.New()
	router.Use(middleware.ErrorRecoveryMiddleware(logger, HandleAppError))

	// HTTP request logging using our observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}

		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}
		if statusCode >= 400 {
			fields["http.response_size"] = c.Writer.Size()
			if statusCode >= 500 {
				fields["http.error_type"] = "server_error"
			} else {
				fields["http.error_type"] = "client_error"
			}
		}

		if statusCode >= 500 {
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		} else if statusCode >= 400 {
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		} else {
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check endpoint (defined before any middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "tutor"})
	})

	serviceName := cfg.OpenTelemetry.ServiceName
	if serviceName == "" {
		serviceName = "tutor-server"
	}
	router.Use(observability.GinMiddlewareWithErrorHandling(serviceName)...)

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept-Language", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	if len(corsConfig.AllowOrigins) > 0 {
		router.Use(cors.New(corsConfig))
	}

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug || cfg.IsTest {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.IsDevelopment = cfg.Server.Debug || cfg.IsTest
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	tutorHandler := NewTutorHandler(tutorService, sessionStore, cfg, logger)
	sessionDefaults := middleware.SessionDefaults{
		Preferences: DefaultPreferences(cfg),
		Credential:  cfg.Oracle.APIKey,
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service":   "tutor",
				"version":   version.Version,
				"commit":    version.Commit,
				"buildTime": version.BuildTime,
			})
		})

		tutor := v1.Group("/tutor")
		tutor.GET("/options", tutorHandler.GetOptions)

		tutor.Use(middleware.RequireTutorSession(sessionStore, sessionDefaults, logger))
		{
			tutor.GET("/state", tutorHandler.GetState)
			tutor.PUT("/credential", tutorHandler.PutCredential)
			tutor.DELETE("/credential", tutorHandler.DeleteCredential)
			tutor.PUT("/preferences", tutorHandler.PutPreferences)
			tutor.POST("/question", tutorHandler.NewQuestion)
			tutor.POST("/question/ensure", tutorHandler.EnsureQuestion)
			tutor.POST("/answer", tutorHandler.SubmitAnswer)
			tutor.GET("/history", tutorHandler.GetHistory)
			tutor.DELETE("/session", tutorHandler.DeleteSession)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router
}
