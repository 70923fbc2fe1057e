// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"sync"

	"tutorapp/internal/config"
	"tutorapp/internal/observability"
	"tutorapp/internal/services"
	contextutils "tutorapp/internal/utils"
)

// Service names registered in the container
const (
	ServiceOracle   = "oracle"
	ServicePrompts  = "prompts"
	ServiceMetrics  = "metrics"
	ServiceTutor    = "tutor"
	ServiceSessions = "sessions"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetOracle() (services.Oracle, error)
	GetTutorService() (services.TutorServiceInterface, error)
	GetSessionStore() (*services.SessionStore, error)
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// Initialize sets up all services and their dependencies
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.initializeServices(ctx); err != nil {
		_ = sc.cleanup(ctx)
		return contextutils.WrapErrorf(err, "failed to initialize services")
	}
	return nil
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetOracle returns the configured language model client
func (sc *ServiceContainer) GetOracle() (services.Oracle, error) {
	return GetServiceAs[services.Oracle](sc, ServiceOracle)
}

// GetTutorService returns the question lifecycle service
func (sc *ServiceContainer) GetTutorService() (services.TutorServiceInterface, error) {
	return GetServiceAs[services.TutorServiceInterface](sc, ServiceTutor)
}

// GetSessionStore returns the live session registry
func (sc *ServiceContainer) GetSessionStore() (*services.SessionStore, error) {
	return GetServiceAs[*services.SessionStore](sc, ServiceSessions)
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup runs the registered shutdown functions in reverse order
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errors []error
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			errors = append(errors, err)
		}
	}
	sc.shutdownFuncs = nil

	if len(errors) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errors)
	}
	return nil
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices(ctx context.Context) error {
	oracle, err := services.NewOracle(sc.cfg.Oracle, sc.logger)
	if err != nil {
		return err
	}
	sc.services[ServiceOracle] = oracle

	prompts, err := services.NewPromptBuilder()
	if err != nil {
		return err
	}
	sc.services[ServicePrompts] = prompts

	// Instruments land on the global meter provider, a no-op unless metrics are enabled
	metrics, err := services.NewTutorMetrics(nil)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to register tutor metrics")
	}
	sc.services[ServiceMetrics] = metrics

	sc.services[ServiceTutor] = services.NewTutorService(oracle, prompts, sc.logger, services.WithMetrics(metrics))

	store := services.NewSessionStore(sc.cfg.Tutor.SessionIdleTimeout, sc.logger)
	sc.services[ServiceSessions] = store
	sc.discardSessionsOnShutdown(store)

	sc.logger.Info(ctx, "Tutor services initialized", map[string]interface{}{
		"provider":             sc.cfg.Oracle.Provider,
		"model":                sc.cfg.Oracle.Model,
		"session_idle_timeout": sc.cfg.Tutor.SessionIdleTimeout.String(),
		"operator_credential":  contextutils.HasCredential(sc.cfg.Oracle.APIKey),
	})
	return nil
}

// discardSessionsOnShutdown reports the sessions lost when the process stops; nothing is persisted
func (sc *ServiceContainer) discardSessionsOnShutdown(store *services.SessionStore) {
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(ctx context.Context) error {
		sc.logger.Info(ctx, "Discarding tutor sessions", map[string]interface{}{
			"live_sessions": store.Len(),
		})
		return nil
	})
}
