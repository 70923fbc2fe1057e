package services

import (
	"context"
	"net/http"

	"tutorapp/internal/config"
	"tutorapp/internal/observability"

	"google.golang.org/genai"
)

// GeminiOracle calls the Gemini API with the session's API key
type GeminiOracle struct {
	baseURL     string
	model       string
	temperature float32
	maxTokens   int
	httpClient  *http.Client
	logger      *observability.Logger
}

// NewGeminiOracle creates an oracle backed by google.golang.org/genai
func NewGeminiOracle(cfg config.OracleConfig, logger *observability.Logger) *GeminiOracle {
	return &GeminiOracle{
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  newOracleHTTPClient(),
		logger:      logger,
	}
}

// Generate runs one GenerateContent call and returns the concatenated candidate text
func (o *GeminiOracle) Generate(ctx context.Context, credential, prompt string) (string, error) {
	return generate(ctx, o.logger, config.ProviderGemini, o.model, credential, prompt, func(ctx context.Context) (string, error) {
		// The key is per session, so the client is too
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:      credential,
			Backend:     genai.BackendGeminiAPI,
			HTTPClient:  o.httpClient,
			HTTPOptions: genai.HTTPOptions{BaseURL: o.baseURL},
		})
		if err != nil {
			return "", err
		}

		genCfg := &genai.GenerateContentConfig{}
		if o.temperature > 0 {
			temp := o.temperature
			genCfg.Temperature = &temp
		}
		// Config.Validate bounds maxTokens to the int32 range
		if o.maxTokens > 0 {
			genCfg.MaxOutputTokens = int32(o.maxTokens)
		}

		res, err := client.Models.GenerateContent(ctx, o.model, genai.Text(prompt), genCfg)
		if err != nil {
			return "", err
		}
		return res.Text(), nil
	})
}
