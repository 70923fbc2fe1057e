package services

import (
	"context"
	"errors"
	"net/http"

	"tutorapp/internal/config"
	"tutorapp/internal/observability"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIOracle talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, Ollama, LM Studio, Gemini's compatibility endpoint).
type OpenAIOracle struct {
	baseURL     string
	model       string
	temperature float32
	maxTokens   int
	httpClient  *http.Client
	logger      *observability.Logger
}

// NewOpenAIOracle creates an oracle backed by go-openai
func NewOpenAIOracle(cfg config.OracleConfig, logger *observability.Logger) *OpenAIOracle {
	return &OpenAIOracle{
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  newOracleHTTPClient(),
		logger:      logger,
	}
}

// Generate sends prompt as a single user message and returns the first choice
func (o *OpenAIOracle) Generate(ctx context.Context, credential, prompt string) (string, error) {
	return generate(ctx, o.logger, config.ProviderOpenAI, o.model, credential, prompt, func(ctx context.Context) (string, error) {
		clientCfg := openai.DefaultConfig(credential)
		if o.baseURL != "" {
			clientCfg.BaseURL = o.baseURL
		}
		clientCfg.HTTPClient = o.httpClient
		client := openai.NewClientWithConfig(clientCfg)

		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: o.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: o.temperature,
			MaxTokens:   o.maxTokens,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("openai returned no choices")
		}
		return resp.Choices[0].Message.Content, nil
	})
}
