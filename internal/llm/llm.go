// Package llm wraps the Gemini API behind the Generator contract used by
// the retry loop. The model is sampled at a non-zero temperature, so
// identical requests may return materially different text; callers must
// treat the raw output as untrusted until validated.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"blogsmith/internal/core"
)

// DefaultModel is used when neither the request nor the configuration
// names a model.
const DefaultModel = "gemini-2.0-flash"

// TransportError reports a failed call to the model endpoint: network
// trouble or a service-side rejection. Retryable within the loop.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("generation transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FormatError reports a response envelope the client could not make
// sense of, e.g. an empty candidate list. Retryable within the loop.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("generation response malformed: %s", e.Reason)
}

// Client generates content through the Gemini API.
type Client struct {
	gClient *genai.Client
	model   string
	log     *slog.Logger
}

// NewClient builds a generator client. apiKey must be non-empty; model
// falls back to DefaultModel.
func NewClient(ctx context.Context, apiKey, model string, log *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required; set GEMINI_API_KEY or ai.api_key in the config file")
	}
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = slog.Default()
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{gClient: gClient, model: model, log: log}, nil
}

// ModelName returns the model this client sends requests to by default.
func (c *Client) ModelName() string { return c.model }

// Generate sends the request's conversation to the model and returns the
// raw text plus token usage. Token counts are logged as telemetry; the
// call never blocks on that emission.
func (c *Client) Generate(ctx context.Context, req core.GenerationRequest) (core.GenerationResult, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	contents, system := splitConversation(req.Messages)

	config := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(req.Temperature)
	}
	if req.JSONOutput {
		config.ResponseMIMEType = "application/json"
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return core.GenerationResult{}, &TransportError{Err: err}
	}

	text := resp.Text()
	if text == "" {
		return core.GenerationResult{}, &FormatError{Reason: "empty response from model"}
	}

	result := core.GenerationResult{RawText: text}
	if resp.UsageMetadata != nil {
		result.Usage = core.TokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	c.log.Debug("generated content",
		"model", model,
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens,
		"total_tokens", result.Usage.TotalTokens)

	return result, nil
}

// splitConversation converts messages to the API's content list. System
// messages become the system instruction; the assistant role maps to the
// API's "model" role. Relative order of user/assistant turns is preserved.
func splitConversation(messages []core.Message) ([]*genai.Content, string) {
	var contents []*genai.Content
	system := ""
	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem:
			if system != "" {
				system += "\n"
			}
			system += msg.Content
		case core.RoleAssistant:
			contents = append(contents, &genai.Content{
				Parts: []*genai.Part{{Text: msg.Content}},
				Role:  "model",
			})
		default:
			contents = append(contents, &genai.Content{
				Parts: []*genai.Part{{Text: msg.Content}},
				Role:  "user",
			})
		}
	}
	return contents, system
}
