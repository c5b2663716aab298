// Package gemini adapts the unified provider contract to the Google
// Generative Language HTTP API.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aimux/aimux/services/providers"
)

const (
	defaultBaseURL        = "https://generativelanguage.googleapis.com/v1"
	defaultModel          = "gemini-1.5-pro"
	defaultEmbeddingModel = "text-embedding-004"
	defaultMaxTokens      = 1000
	defaultTemperature    = 0.7
)

// Adapter implements providers.Adapter for Gemini-compatible APIs.
type Adapter struct {
	*providers.BaseAdapter
}

// New constructs a Gemini adapter. The API key is mandatory.
func New(cfg providers.ProviderConfig) (providers.Adapter, error) {
	a := &Adapter{}
	a.BaseAdapter = providers.NewBaseAdapter("gemini", cfg, a)
	a.BaseURL = cfg.BaseURL
	if a.BaseURL == "" {
		a.BaseURL = defaultBaseURL
	}
	if err := a.RequireConfig(providers.ConfigField{Key: "api_key", Value: cfg.APIKey}); err != nil {
		return nil, err
	}
	return a, nil
}

// Info implements providers.Adapter.
func (a *Adapter) Info() providers.AdapterInfo {
	return providers.AdapterInfo{
		Name: a.Name(),
		Type: "gemini",
		Capabilities: providers.Capabilities{
			Generate:   true,
			Chat:       true,
			Embeddings: true,
		},
	}
}

// BuildRequestOptions passes the API key as a query parameter; the API uses
// no auth header.
func (a *Adapter) BuildRequestOptions(method, endpoint string, payload map[string]interface{}, extraHeaders map[string]string) (*providers.RequestSpec, error) {
	spec, err := providers.NewRequestSpec(payload, extraHeaders)
	if err != nil {
		return nil, err
	}
	spec.Query = url.Values{"key": []string{a.Config.APIKey}}
	return spec, nil
}

// Generate issues a single-shot generateContent request with the prompt as
// the sole content part. No delegation to Chat.
func (a *Adapter) Generate(ctx context.Context, prompt string, opts *providers.GenerationOptions) (string, error) {
	model := providers.ResolveModel(opts, a.Config, defaultModel)
	payload := map[string]interface{}{
		"contents": []interface{}{
			map[string]interface{}{
				"role":  "user",
				"parts": []interface{}{map[string]interface{}{"text": prompt}},
			},
		},
		"generationConfig": a.generationConfig(opts),
	}
	providers.MergeExtra(payload, opts)

	resp, err := a.Execute(ctx, http.MethodPost, fmt.Sprintf("models/%s:generateContent", model), payload, nil)
	if err != nil {
		return "", err
	}
	return firstCandidateText(resp), nil
}

// Chat folds all system messages into the first non-system turn (the API has
// no separate system field on this endpoint), renames assistant to model on
// the wire, and normalizes the reply role back to assistant.
func (a *Adapter) Chat(ctx context.Context, messages []providers.Message, opts *providers.GenerationOptions) (*providers.ChatResult, error) {
	model := providers.ResolveModel(opts, a.Config, defaultModel)
	payload := map[string]interface{}{
		"contents":         formatMessages(messages),
		"generationConfig": a.generationConfig(opts),
	}
	providers.MergeExtra(payload, opts)

	resp, err := a.Execute(ctx, http.MethodPost, fmt.Sprintf("models/%s:generateContent", model), payload, nil)
	if err != nil {
		return nil, err
	}

	candidate := providers.ObjectAt(providers.SliceValue(resp, "candidates"), 0)

	usage := providers.MapValue(resp, "usageMetadata")
	promptTokens := providers.IntValue(usage, "promptTokenCount")
	completionTokens := providers.IntValue(usage, "candidatesTokenCount")

	return &providers.ChatResult{
		Message: providers.Message{
			Role:    providers.RoleAssistant,
			Content: candidateText(candidate),
		},
		Usage: providers.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		// The API assigns no stable response id; the candidate's index is
		// the only identifier it offers.
		ID: strconv.Itoa(providers.IntValue(candidate, "index")),
	}, nil
}

// Embeddings issues one batchEmbedContents request carrying one sub-request
// per input text, each tagged with the fully qualified model path. An empty
// input short-circuits to an empty result with no network call.
func (a *Adapter) Embeddings(ctx context.Context, input []string, opts *providers.GenerationOptions) (providers.EmbeddingResult, error) {
	if len(input) == 0 {
		return providers.EmbeddingResult{}, nil
	}

	model := providers.ResolveEmbeddingModel(opts, a.Config, defaultEmbeddingModel)
	requests := make([]interface{}, len(input))
	for i, text := range input {
		requests[i] = map[string]interface{}{
			"model": "models/" + model,
			"content": map[string]interface{}{
				"parts": []interface{}{map[string]interface{}{"text": text}},
			},
		}
	}
	payload := map[string]interface{}{"requests": requests}

	resp, err := a.Execute(ctx, http.MethodPost, fmt.Sprintf("models/%s:batchEmbedContents", model), payload, nil)
	if err != nil {
		return nil, err
	}

	// The embeddings array parallels the request order; zip it back onto
	// the input with sequential indices.
	embeddings := providers.SliceValue(resp, "embeddings")
	result := make(providers.EmbeddingResult, 0, len(input))
	for i := range input {
		result = append(result, providers.Embedding{
			Object:    "embedding",
			Embedding: providers.FloatSliceValue(providers.ObjectAt(embeddings, i), "values"),
			Index:     i,
		})
	}
	return result, nil
}

// generationConfig builds the shared generationConfig block.
func (a *Adapter) generationConfig(opts *providers.GenerationOptions) map[string]interface{} {
	return map[string]interface{}{
		"maxOutputTokens": providers.ResolveMaxTokens(opts, a.Config, defaultMaxTokens),
		"temperature":     providers.ResolveTemperature(opts, a.Config, defaultTemperature),
	}
}

// formatMessages converts a conversation to the wire contents array. All
// system messages are newline-joined in encounter order and prepended, with
// a blank-line separator, to the first non-system message only.
func formatMessages(messages []providers.Message) []interface{} {
	var systemParts []string
	for _, m := range messages {
		if m.Role == providers.RoleSystem {
			systemParts = append(systemParts, m.Content)
		}
	}
	systemText := strings.Join(systemParts, "\n")

	contents := make([]interface{}, 0, len(messages))
	injected := false
	for _, m := range messages {
		if m.Role == providers.RoleSystem {
			continue
		}
		role := "user"
		if m.Role == providers.RoleAssistant {
			role = "model"
		}
		text := m.Content
		if !injected && systemText != "" {
			text = systemText + "\n\n" + text
			injected = true
		}
		contents = append(contents, map[string]interface{}{
			"role":  role,
			"parts": []interface{}{map[string]interface{}{"text": text}},
		})
	}
	return contents
}

// firstCandidateText returns the first candidate's first text part, or "".
func firstCandidateText(resp map[string]interface{}) string {
	return candidateText(providers.ObjectAt(providers.SliceValue(resp, "candidates"), 0))
}

func candidateText(candidate map[string]interface{}) string {
	content := providers.MapValue(candidate, "content")
	part := providers.ObjectAt(providers.SliceValue(content, "parts"), 0)
	return providers.StringValue(part, "text")
}
