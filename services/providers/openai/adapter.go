// Package openai adapts the unified provider contract to the OpenAI
// chat/completions and embeddings HTTP API.
package openai

import (
	"context"
	"net/http"

	"github.com/aimux/aimux/services/providers"
)

const (
	defaultBaseURL        = "https://api.openai.com/v1"
	defaultModel          = "gpt-4o"
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultMaxTokens      = 1000
	defaultTemperature    = 0.7
)

// Adapter implements providers.Adapter for OpenAI-compatible APIs.
type Adapter struct {
	*providers.BaseAdapter
}

// New constructs an OpenAI adapter. The API key is mandatory; construction
// fails before any network activity when it is missing.
func New(cfg providers.ProviderConfig) (providers.Adapter, error) {
	a := &Adapter{}
	a.BaseAdapter = providers.NewBaseAdapter("openai", cfg, a)
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
		Type: "openai",
		Capabilities: providers.Capabilities{
			Generate:   true,
			Chat:       true,
			Embeddings: true,
		},
	}
}

// BuildRequestOptions attaches the bearer-token auth scheme.
func (a *Adapter) BuildRequestOptions(method, endpoint string, payload map[string]interface{}, extraHeaders map[string]string) (*providers.RequestSpec, error) {
	spec, err := providers.NewRequestSpec(payload, extraHeaders)
	if err != nil {
		return nil, err
	}
	spec.Header.Set("Authorization", "Bearer "+a.Config.APIKey)
	return spec, nil
}

// Generate wraps the prompt as a single user message and delegates to Chat.
func (a *Adapter) Generate(ctx context.Context, prompt string, opts *providers.GenerationOptions) (string, error) {
	result, err := a.Chat(ctx, []providers.Message{{Role: providers.RoleUser, Content: prompt}}, opts)
	if err != nil {
		return "", err
	}
	return result.Message.Content, nil
}

// Chat passes the conversation through unchanged to chat/completions and
// copies the provider's usage object verbatim.
func (a *Adapter) Chat(ctx context.Context, messages []providers.Message, opts *providers.GenerationOptions) (*providers.ChatResult, error) {
	wire := make([]interface{}, len(messages))
	for i, m := range messages {
		wire[i] = map[string]interface{}{"role": m.Role, "content": m.Content}
	}

	payload := map[string]interface{}{
		"model":       providers.ResolveModel(opts, a.Config, defaultModel),
		"messages":    wire,
		"max_tokens":  providers.ResolveMaxTokens(opts, a.Config, defaultMaxTokens),
		"temperature": providers.ResolveTemperature(opts, a.Config, defaultTemperature),
	}
	providers.MergeExtra(payload, opts)

	resp, err := a.Execute(ctx, http.MethodPost, "chat/completions", payload, nil)
	if err != nil {
		return nil, err
	}

	choice := providers.ObjectAt(providers.SliceValue(resp, "choices"), 0)
	message := providers.MapValue(choice, "message")

	usage := providers.MapValue(resp, "usage")
	result := &providers.ChatResult{
		Message: providers.Message{
			Role:    providers.RoleAssistant,
			Content: providers.StringValue(message, "content"),
		},
		Usage: providers.Usage{
			PromptTokens:     providers.IntValue(usage, "prompt_tokens"),
			CompletionTokens: providers.IntValue(usage, "completion_tokens"),
			TotalTokens:      providers.IntValue(usage, "total_tokens"),
		},
		ID: providers.StringValue(resp, "id"),
	}
	if result.Usage.TotalTokens == 0 {
		result.Usage.TotalTokens = result.Usage.PromptTokens + result.Usage.CompletionTokens
	}
	return result, nil
}

// Embeddings issues one batched request; the provider's data array is
// already in the uniform shape.
func (a *Adapter) Embeddings(ctx context.Context, input []string, opts *providers.GenerationOptions) (providers.EmbeddingResult, error) {
	payload := map[string]interface{}{
		"model": providers.ResolveEmbeddingModel(opts, a.Config, defaultEmbeddingModel),
		"input": input,
	}
	providers.MergeExtra(payload, opts)

	resp, err := a.Execute(ctx, http.MethodPost, "embeddings", payload, nil)
	if err != nil {
		return nil, err
	}

	data := providers.SliceValue(resp, "data")
	result := make(providers.EmbeddingResult, 0, len(data))
	for i := range data {
		entry := providers.ObjectAt(data, i)
		index := i
		if entry != nil {
			if _, present := entry["index"]; present {
				index = providers.IntValue(entry, "index")
			}
		}
		result = append(result, providers.Embedding{
			Object:    "embedding",
			Embedding: providers.FloatSliceValue(entry, "embedding"),
			Index:     index,
		})
	}
	return result, nil
}
