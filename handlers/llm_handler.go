package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aimux/aimux/services/providers"
)

// Dispatcher is the dispatch facade surface the HTTP layer depends on.
type Dispatcher interface {
	Generate(ctx context.Context, prompt string, opts *providers.GenerationOptions, provider string) (string, error)
	Chat(ctx context.Context, messages []providers.Message, opts *providers.GenerationOptions, provider string) (*providers.ChatResult, error)
	Embeddings(ctx context.Context, input []string, opts *providers.GenerationOptions, provider string) (providers.EmbeddingResult, error)
	Provider(name string) (providers.Adapter, error)
	ProviderNames() []string
}

// LLMHandler serves the generate/chat/embeddings endpoints.
type LLMHandler struct {
	dispatcher Dispatcher
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewLLMHandler creates the handler set.
func NewLLMHandler(dispatcher Dispatcher, logger *zap.Logger) *LLMHandler {
	return &LLMHandler{
		dispatcher: dispatcher,
		validate:   validator.New(),
		logger:     logger,
	}
}

// generationOptions is the wire form of per-call overrides.
type generationOptions struct {
	Model       string                 `json:"model,omitempty"`
	Temperature *float64               `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   int                    `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
	System      string                 `json:"system,omitempty"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

func (o *generationOptions) toOptions() *providers.GenerationOptions {
	if o == nil {
		return nil
	}
	return &providers.GenerationOptions{
		Model:       o.Model,
		Temperature: o.Temperature,
		MaxTokens:   o.MaxTokens,
		System:      o.System,
		Extra:       o.Extra,
	}
}

type generateRequest struct {
	Prompt   string             `json:"prompt" validate:"required"`
	Provider string             `json:"provider,omitempty"`
	Options  *generationOptions `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

type chatRequest struct {
	Messages []chatMessage      `json:"messages" validate:"required,min=1,dive"`
	Provider string             `json:"provider,omitempty"`
	Options  *generationOptions `json:"options,omitempty"`
}

// embeddingInput accepts either a single string or an array of strings,
// normalizing to a one-element batch in the single case.
type embeddingInput []string

func (e *embeddingInput) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*e = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("input must be a string or an array of strings")
	}
	*e = many
	return nil
}

type embeddingsRequest struct {
	Input    embeddingInput     `json:"input" validate:"required,min=1"`
	Provider string             `json:"provider,omitempty"`
	Options  *generationOptions `json:"options,omitempty"`
}

// Generate handles POST /v1/generate.
func (h *LLMHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	output, err := h.dispatcher.Generate(r.Context(), req.Prompt, req.Options.toOptions(), req.Provider)
	if err != nil {
		h.logger.Warn("generate failed", zap.String("provider", req.Provider), zap.Error(err))
		respondAPIError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Data: map[string]string{"output": output}})
}

// Chat handles POST /v1/chat.
func (h *LLMHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	messages := make([]providers.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = providers.Message{Role: m.Role, Content: m.Content}
	}

	result, err := h.dispatcher.Chat(r.Context(), messages, req.Options.toOptions(), req.Provider)
	if err != nil {
		h.logger.Warn("chat failed", zap.String("provider", req.Provider), zap.Error(err))
		respondAPIError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Data: result})
}

// Embeddings handles POST /v1/embeddings.
func (h *LLMHandler) Embeddings(w http.ResponseWriter, r *http.Request) {
	var req embeddingsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.dispatcher.Embeddings(r.Context(), req.Input, req.Options.toOptions(), req.Provider)
	if err != nil {
		h.logger.Warn("embeddings failed", zap.String("provider", req.Provider), zap.Error(err))
		respondAPIError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Data: result})
}

// Providers handles GET /v1/providers.
func (h *LLMHandler) Providers(w http.ResponseWriter, r *http.Request) {
	names := h.dispatcher.ProviderNames()
	infos := make([]providers.AdapterInfo, 0, len(names))
	for _, name := range names {
		adapter, err := h.dispatcher.Provider(name)
		if err != nil {
			h.logger.Error("provider introspection failed",
				zap.String("provider", name), zap.Error(err))
			continue
		}
		infos = append(infos, adapter.Info())
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Data: infos})
}

// decodeAndValidate parses the JSON body and enforces validation tags,
// rejecting malformed input before any adapter work happens.
func (h *LLMHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}
