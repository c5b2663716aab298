package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/aimux/aimux/services/providers"
)

// mockDispatcher returns canned results and records whether it was invoked.
type mockDispatcher struct {
	generateOut string
	chatOut     *providers.ChatResult
	embedOut    providers.EmbeddingResult
	err         error
	calls       int

	lastPrompt   string
	lastMessages []providers.Message
	lastInput    []string
	lastProvider string
	lastOptions  *providers.GenerationOptions
}

func (d *mockDispatcher) Generate(ctx context.Context, prompt string, opts *providers.GenerationOptions, provider string) (string, error) {
	d.calls++
	d.lastPrompt, d.lastOptions, d.lastProvider = prompt, opts, provider
	return d.generateOut, d.err
}

func (d *mockDispatcher) Chat(ctx context.Context, messages []providers.Message, opts *providers.GenerationOptions, provider string) (*providers.ChatResult, error) {
	d.calls++
	d.lastMessages, d.lastOptions, d.lastProvider = messages, opts, provider
	return d.chatOut, d.err
}

func (d *mockDispatcher) Embeddings(ctx context.Context, input []string, opts *providers.GenerationOptions, provider string) (providers.EmbeddingResult, error) {
	d.calls++
	d.lastInput, d.lastOptions, d.lastProvider = input, opts, provider
	return d.embedOut, d.err
}

func (d *mockDispatcher) Provider(name string) (providers.Adapter, error) { return nil, d.err }
func (d *mockDispatcher) ProviderNames() []string                        { return nil }

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestGenerate(t *testing.T) {
	d := &mockDispatcher{generateOut: "Hi!"}
	h := NewLLMHandler(d, zap.NewNop())

	rec := postJSON(t, h.Generate, `{"prompt":"Say hi","provider":"openai","options":{"max_tokens":5}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data["output"] != "Hi!" {
		t.Errorf("output = %q", resp.Data["output"])
	}
	if d.lastPrompt != "Say hi" || d.lastProvider != "openai" {
		t.Errorf("dispatched prompt=%q provider=%q", d.lastPrompt, d.lastProvider)
	}
	if d.lastOptions == nil || d.lastOptions.MaxTokens != 5 {
		t.Errorf("options = %+v", d.lastOptions)
	}
}

func TestGenerate_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"blank prompt", `{"prompt":""}`},
		{"unknown field", `{"prompt":"x","promt":"typo"}`},
		{"negative max_tokens", `{"prompt":"x","options":{"max_tokens":-1}}`},
		{"temperature out of range", `{"prompt":"x","options":{"temperature":3.5}}`},
		{"not json", `prompt=x`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDispatcher{}
			h := NewLLMHandler(d, zap.NewNop())

			rec := postJSON(t, h.Generate, tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if d.calls != 0 {
				t.Error("invalid request must be rejected before dispatch")
			}
		})
	}
}

func TestChat(t *testing.T) {
	d := &mockDispatcher{chatOut: &providers.ChatResult{
		Message: providers.Message{Role: providers.RoleAssistant, Content: "Hello"},
		Usage:   providers.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3},
	}}
	h := NewLLMHandler(d, zap.NewNop())

	rec := postJSON(t, h.Chat, `{"messages":[{"role":"system","content":"S"},{"role":"user","content":"Hi"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(d.lastMessages) != 2 || d.lastMessages[0].Role != providers.RoleSystem {
		t.Errorf("messages = %+v", d.lastMessages)
	}
}

func TestChat_UnknownRoleRejected(t *testing.T) {
	d := &mockDispatcher{}
	h := NewLLMHandler(d, zap.NewNop())

	rec := postJSON(t, h.Chat, `{"messages":[{"role":"robot","content":"Hi"}]}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if d.calls != 0 {
		t.Error("unknown role must be rejected before dispatch")
	}
}

func TestChat_EmptyMessagesRejected(t *testing.T) {
	h := NewLLMHandler(&mockDispatcher{}, zap.NewNop())

	rec := postJSON(t, h.Chat, `{"messages":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEmbeddings_InputShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"single string", `{"input":"hello"}`, []string{"hello"}},
		{"array", `{"input":["a","b"]}`, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDispatcher{embedOut: providers.EmbeddingResult{}}
			h := NewLLMHandler(d, zap.NewNop())

			rec := postJSON(t, h.Embeddings, tt.body)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if len(d.lastInput) != len(tt.want) {
				t.Fatalf("input = %v, want %v", d.lastInput, tt.want)
			}
			for i := range tt.want {
				if d.lastInput[i] != tt.want[i] {
					t.Errorf("input[%d] = %q, want %q", i, d.lastInput[i], tt.want[i])
				}
			}
		})
	}
}

func TestEmbeddings_BadInputRejected(t *testing.T) {
	h := NewLLMHandler(&mockDispatcher{}, zap.NewNop())

	rec := postJSON(t, h.Embeddings, `{"input":42}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		kind providers.ErrorKind
		want int
	}{
		{providers.KindProviderNotFound, http.StatusNotFound},
		{providers.KindBadRequest, http.StatusBadRequest},
		{providers.KindRateLimited, http.StatusTooManyRequests},
		{providers.KindTimeout, http.StatusGatewayTimeout},
		{providers.KindServerError, http.StatusBadGateway},
		{providers.KindUnauthenticated, http.StatusBadGateway},
		{providers.KindUnsupportedCapability, http.StatusNotImplemented},
		{providers.KindGeneric, http.StatusInternalServerError},
		{providers.KindConfiguration, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			d := &mockDispatcher{err: providers.NewAPIError(tt.kind, "boom", 0, nil)}
			h := NewLLMHandler(d, zap.NewNop())

			rec := postJSON(t, h.Generate, `{"prompt":"x"}`)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error != string(tt.kind) {
				t.Errorf("error code = %q, want %q", resp.Error, tt.kind)
			}
		})
	}
}

func TestErrorStatusMapping_PlainError(t *testing.T) {
	d := &mockDispatcher{err: context.DeadlineExceeded}
	h := NewLLMHandler(d, zap.NewNop())

	rec := postJSON(t, h.Generate, `{"prompt":"x"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for unclassified errors", rec.Code)
	}
}
