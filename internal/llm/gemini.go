// Package llm talks to the upstream text-generation API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/dtroode/gophchat-server/internal/model"
)

var _ model.Generator = (*GeminiClient)(nil)

// contentGenerator is the part of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type GeminiClient struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGeminiClient(client.Models, cfg.Model, cfg.Timeout), nil
}

func newGeminiClient(models contentGenerator, modelName string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		models:  models,
		model:   modelName,
		timeout: timeout,
	}
}

// Generate sends the prior turns followed by prompt. An empty string is
// returned when the upstream produced no text.
func (c *GeminiClient) Generate(ctx context.Context, history []model.ChatEntry, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, e := range history {
		role := genai.Role(genai.RoleUser)
		if e.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(e.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))

	res, err := c.models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", classify(err)
	}
	if res == nil {
		return "", nil
	}

	return res.Text(), nil
}

// classify maps upstream failures onto the model sentinels.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && isQuota(apiErr) {
		return fmt.Errorf("%w: %s", model.ErrQuotaExceeded, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && isQuota(*apiErrPtr) {
		return fmt.Errorf("%w: %s", model.ErrQuotaExceeded, apiErrPtr.Message)
	}

	return fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, err)
}

func isQuota(e genai.APIError) bool {
	return e.Code == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED"
}
