package providers

import (
	"context"
	"time"
)

// Message roles understood by every adapter.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Adapter is the unified contract every LLM provider adapter implements.
// An adapter owns exactly one HTTP transport for its lifetime and holds no
// other mutable state across calls.
type Adapter interface {
	// Name returns the configured provider name, or the adapter type name
	// when no name was configured.
	Name() string

	// Info describes the adapter and the operations it supports.
	Info() AdapterInfo

	// Generate produces a completion for a single prompt.
	Generate(ctx context.Context, prompt string, opts *GenerationOptions) (string, error)

	// Chat performs a multi-turn chat completion.
	Chat(ctx context.Context, messages []Message, opts *GenerationOptions) (*ChatResult, error)

	// Embeddings produces one embedding vector per input string, in input
	// order. Adapters without the embeddings capability return an
	// UnsupportedCapability error without any network call.
	Embeddings(ctx context.Context, input []string, opts *GenerationOptions) (EmbeddingResult, error)
}

// Message is a single turn in a conversation. Order within a conversation is
// semantically significant.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// GenerationOptions is a sparse per-call override bag. Any unset field falls
// back to the provider configuration, then to the adapter's hard-coded
// default (call option > adapter config > default).
type GenerationOptions struct {
	// Model overrides the configured model name.
	Model string `json:"model,omitempty"`

	// Temperature overrides the configured sampling temperature. A nil
	// pointer means "not set"; zero is a valid temperature.
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens overrides the configured output token limit.
	MaxTokens int `json:"max_tokens,omitempty"`

	// System overrides any configured or in-conversation system prompt.
	System string `json:"system,omitempty"`

	// Extra carries provider-specific request fields merged verbatim into
	// the outbound payload.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Usage is the normalized token accounting for one chat call.
// TotalTokens equals PromptTokens + CompletionTokens.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResult is the uniform output of a chat call.
type ChatResult struct {
	// Message is the assistant reply.
	Message Message `json:"message"`

	// Usage is the provider-reported token accounting.
	Usage Usage `json:"usage"`

	// ID is the provider-assigned identifier, empty when the provider does
	// not supply one. For Gemini this is the responding candidate's index,
	// not a stable identifier; the API offers nothing better.
	ID string `json:"id,omitempty"`
}

// Embedding is one entry of an embeddings response.
type Embedding struct {
	// Object is the fixed entry tag, always "embedding".
	Object string `json:"object"`

	// Embedding is the vector for the input at Index.
	Embedding []float64 `json:"embedding"`

	// Index is the zero-based position of the input this vector belongs to.
	Index int `json:"index"`
}

// EmbeddingResult mirrors the input batch: entry i embeds input i.
type EmbeddingResult []Embedding

// Capabilities declares which operations an adapter implements. The set is
// fixed per adapter type, not probed at runtime.
type Capabilities struct {
	Generate   bool `json:"generate"`
	Chat       bool `json:"chat"`
	Embeddings bool `json:"embeddings"`
}

// AdapterInfo is the introspection record returned by Adapter.Info.
type AdapterInfo struct {
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	Capabilities Capabilities `json:"capabilities"`
}

// ProviderConfig is the named settings bag for one provider instance. It is
// read once at adapter construction and never mutated afterwards.
type ProviderConfig struct {
	// Name identifies the provider instance (e.g. "openai-eu").
	Name string `json:"name" yaml:"name"`

	// Adapter is the adapter identifier resolved by the Resolver
	// (e.g. "openai", "anthropic", "gemini").
	Adapter string `json:"adapter" yaml:"adapter"`

	// APIKey is the provider credential. Mandatory for all built-in adapters.
	APIKey string `json:"api_key" yaml:"api_key"`

	// BaseURL overrides the adapter's default API base URL.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the default model for generate/chat calls.
	Model string `json:"model" yaml:"model"`

	// EmbeddingModel is the default model for embeddings calls.
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`

	// MaxTokens is the default output token limit.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature is the default sampling temperature; nil means unset.
	Temperature *float64 `json:"temperature" yaml:"temperature"`

	// SystemPrompt is the default system prompt, overridable per call.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`

	// Version is the provider API version header value where the provider
	// requires one (Anthropic).
	Version string `json:"version" yaml:"version"`

	// Enabled gates inclusion in the dispatch provider map. Nil means true.
	Enabled *bool `json:"enabled" yaml:"enabled"`

	// Timeout is the whole-request HTTP timeout. Zero means 30s.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// ConnectTimeout bounds connection establishment. Zero means 10s.
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout"`
}

// IsEnabled reports whether the provider entry participates in dispatch.
func (c ProviderConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
