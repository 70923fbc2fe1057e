package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"tutorapp/internal/config"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

// Oracle is the external generative text model: prompt in, free text out.
// One synchronous call per invocation; no retries and no timeout beyond ctx.
type Oracle interface {
	Generate(ctx context.Context, credential, prompt string) (string, error)
}

// NewOracle builds the oracle client selected by cfg.Provider
func NewOracle(cfg config.OracleConfig, logger *observability.Logger) (Oracle, error) {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderOpenAI:
		return NewOpenAIOracle(cfg, logger), nil
	case config.ProviderGemini:
		return NewGeminiOracle(cfg, logger), nil
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrOracleConfigInvalid, "unsupported oracle provider %q", cfg.Provider)
	}
}

// newOracleHTTPClient returns an HTTP client whose requests join the caller's trace
func newOracleHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

// oracleUnavailable wraps a failed or empty model call
func oracleUnavailable(details string, cause error) error {
	return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeOracleUnavailable, contextutils.SeverityError,
		contextutils.ErrOracleUnavailable.Message, details, cause)
}

// providerCall performs the provider-specific request and returns the raw text
type providerCall func(ctx context.Context) (string, error)

// generate wraps a provider call with the credential check, tracing and logging every oracle shares
func generate(ctx context.Context, logger *observability.Logger, provider, model, credential, prompt string, call providerCall) (result string, err error) {
	ctx, span := observability.TraceOracleFunction(ctx, "generate",
		observability.AttributeProvider(provider),
		observability.AttributeModel(model),
		attribute.Int("prompt.length", len(prompt)),
	)
	defer observability.FinishSpan(span, &err)

	if !contextutils.HasCredential(credential) {
		span.SetAttributes(attribute.String("call.result", "missing_credential"))
		return "", contextutils.ErrMissingCredential
	}

	fields := map[string]interface{}{
		"provider": provider,
		"model":    model,
		"api_key":  contextutils.MaskAPIKey(credential),
	}
	logger.Debug(ctx, "Starting oracle request", fields, map[string]interface{}{"prompt_length": len(prompt)})

	start := time.Now()
	text, err := call(ctx)
	duration := time.Since(start)
	span.SetAttributes(attribute.String("duration", duration.String()))

	if err != nil {
		span.SetAttributes(attribute.String("call.result", "request_failed"))
		logger.Error(ctx, "Oracle request failed", err, fields, map[string]interface{}{"duration": duration.String()})
		return "", oracleUnavailable(provider+" request failed", err)
	}
	if strings.TrimSpace(text) == "" {
		span.SetAttributes(attribute.String("call.result", "empty_text"))
		logger.Warn(ctx, "Oracle returned no text", fields)
		return "", oracleUnavailable(provider+" returned no text", nil)
	}

	span.SetAttributes(
		attribute.String("call.result", "success"),
		attribute.Int("response.length", len(text)),
	)
	logger.Info(ctx, "Oracle request completed", fields, map[string]interface{}{
		"duration":        duration.String(),
		"response_length": len(text),
	})
	return text, nil
}
