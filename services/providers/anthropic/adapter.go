// Package anthropic adapts the unified provider contract to the Anthropic
// messages HTTP API. The adapter has no embeddings capability.
package anthropic

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aimux/aimux/services/providers"
)

const (
	defaultBaseURL     = "https://api.anthropic.com/v1"
	defaultModel       = "claude-3-opus-20240229"
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
	defaultVersion     = "2023-06-01"
)

// Adapter implements providers.Adapter for Anthropic-compatible APIs.
type Adapter struct {
	*providers.BaseAdapter
}

// New constructs an Anthropic adapter. The API key is mandatory.
func New(cfg providers.ProviderConfig) (providers.Adapter, error) {
	a := &Adapter{}
	a.BaseAdapter = providers.NewBaseAdapter("anthropic", cfg, a)
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
		Type: "anthropic",
		Capabilities: providers.Capabilities{
			Generate:   true,
			Chat:       true,
			Embeddings: false,
		},
	}
}

// BuildRequestOptions attaches the x-api-key auth scheme and the API
// version header.
func (a *Adapter) BuildRequestOptions(method, endpoint string, payload map[string]interface{}, extraHeaders map[string]string) (*providers.RequestSpec, error) {
	spec, err := providers.NewRequestSpec(payload, extraHeaders)
	if err != nil {
		return nil, err
	}
	version := a.Config.Version
	if version == "" {
		version = defaultVersion
	}
	spec.Header.Set("x-api-key", a.Config.APIKey)
	spec.Header.Set("anthropic-version", version)
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

// Chat extracts the system prompt from the conversation and sends it as the
// API's separate top-level system field. Precedence: explicit option, then
// the first in-conversation system message, then the configured default.
// Only user and assistant turns are sent in the messages array.
func (a *Adapter) Chat(ctx context.Context, messages []providers.Message, opts *providers.GenerationOptions) (*providers.ChatResult, error) {
	system := ""
	wire := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case providers.RoleSystem:
			if system == "" {
				system = m.Content
			}
		case providers.RoleUser, providers.RoleAssistant:
			wire = append(wire, map[string]interface{}{"role": m.Role, "content": m.Content})
		}
	}
	if opts != nil && opts.System != "" {
		system = opts.System
	} else if system == "" {
		system = a.Config.SystemPrompt
	}

	payload := map[string]interface{}{
		"model":       providers.ResolveModel(opts, a.Config, defaultModel),
		"messages":    wire,
		"max_tokens":  providers.ResolveMaxTokens(opts, a.Config, defaultMaxTokens),
		"temperature": providers.ResolveTemperature(opts, a.Config, defaultTemperature),
	}
	if system != "" {
		payload["system"] = system
	}
	providers.MergeExtra(payload, opts)

	resp, err := a.Execute(ctx, http.MethodPost, "messages", payload, nil)
	if err != nil {
		return nil, err
	}

	block := providers.ObjectAt(providers.SliceValue(resp, "content"), 0)
	role := providers.RoleAssistant
	if providers.StringValue(block, "type") != "text" {
		role = "tool_use"
	}

	// The API reports input/output tokens without a total.
	usage := providers.MapValue(resp, "usage")
	promptTokens := providers.IntValue(usage, "input_tokens")
	completionTokens := providers.IntValue(usage, "output_tokens")

	return &providers.ChatResult{
		Message: providers.Message{
			Role:    role,
			Content: providers.StringValue(block, "text"),
		},
		Usage: providers.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		ID: providers.StringValue(resp, "id"),
	}, nil
}

// Embeddings is not supported by the Anthropic API. The failure is a static
// capability gap, distinct from any transport condition.
func (a *Adapter) Embeddings(ctx context.Context, input []string, opts *providers.GenerationOptions) (providers.EmbeddingResult, error) {
	return nil, providers.NewAPIError(providers.KindUnsupportedCapability,
		fmt.Sprintf("%s: embeddings not supported", a.Name()), 0, nil)
}
