package di

import (
	"context"
	"testing"

	"tutorapp/internal/config"
	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	"tutorapp/internal/services"
	contextutils "tutorapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestServiceContainer_Initialize(t *testing.T) {
	cfg := config.Default()
	container := NewServiceContainer(cfg, nil)
	ctx := context.Background()

	require.NoError(t, container.Initialize(ctx))
	t.Cleanup(func() { _ = container.Shutdown(context.Background()) })

	assert.Same(t, cfg, container.GetConfig())
	assert.NotNil(t, container.GetLogger())

	oracle, err := container.GetOracle()
	require.NoError(t, err)
	assert.IsType(t, &services.GeminiOracle{}, oracle)

	tutor, err := container.GetTutorService()
	require.NoError(t, err)
	assert.NotNil(t, tutor)

	store, err := container.GetSessionStore()
	require.NoError(t, err)
	sess := store.Create(ctx, models.Preferences{Language: models.LanguageGerman}, "")
	assert.Equal(t, 1, store.Len())
	assert.NotEmpty(t, sess.ID)
}

func TestServiceContainer_UnknownService(t *testing.T) {
	container := NewServiceContainer(config.Default(), nil)

	_, err := container.GetService("story")
	require.Error(t, err)

	_, err = container.GetTutorService()
	require.Error(t, err)
}

func TestServiceContainer_InvalidProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Oracle.Provider = "carrier-pigeon"
	container := NewServiceContainer(cfg, nil)

	err := container.Initialize(context.Background())
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeOracleConfigInvalid, contextutils.GetErrorCode(err))
}

func TestServiceContainer_ShutdownDiscardsSessions(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	container := NewServiceContainer(config.Default(), &observability.Logger{Logger: zap.New(core)})
	ctx := context.Background()
	require.NoError(t, container.Initialize(ctx))

	store, err := container.GetSessionStore()
	require.NoError(t, err)
	store.Create(ctx, models.Preferences{Language: models.LanguageFrench}, "")
	store.Create(ctx, models.Preferences{Language: models.LanguageSpanish}, "")

	require.NoError(t, container.Shutdown(ctx))
	entries := logs.FilterMessage("Discarding tutor sessions").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 2, entries[0].ContextMap()["live_sessions"])

	// second shutdown has nothing left to run
	require.NoError(t, container.Shutdown(ctx))
	assert.Len(t, logs.FilterMessage("Discarding tutor sessions").All(), 1)
}
