package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/aimux/aimux/services/providers"
)

// captureServer records the last request for payload assertions.
type captureServer struct {
	*httptest.Server
	lastPath    string
	lastAuth    string
	lastPayload map[string]interface{}
}

func newCaptureServer(t *testing.T, status int, responseBody string) *captureServer {
	t.Helper()
	cs := &captureServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.lastPath = r.URL.Path
		cs.lastAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if len(body) > 0 {
			_ = json.Unmarshal(body, &cs.lastPayload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(responseBody))
	}))
	return cs
}

func newTestAdapter(t *testing.T, baseURL string) providers.Adapter {
	t.Helper()
	adapter, err := New(providers.ProviderConfig{APIKey: "test-key", BaseURL: baseURL})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return adapter
}

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New(providers.ProviderConfig{})
	if !providers.IsKind(err, providers.KindConfiguration) {
		t.Fatalf("kind = %s, want %s", providers.KindOf(err), providers.KindConfiguration)
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Errorf("error %q should name api_key", err.Error())
	}
}

func TestAdapter_Info(t *testing.T) {
	adapter := newTestAdapter(t, "")
	info := adapter.Info()

	if info.Type != "openai" {
		t.Errorf("Type = %q", info.Type)
	}
	if info.Name != "openai" {
		t.Errorf("Name = %q, want type name fallback", info.Name)
	}
	want := providers.Capabilities{Generate: true, Chat: true, Embeddings: true}
	if info.Capabilities != want {
		t.Errorf("Capabilities = %+v", info.Capabilities)
	}
}

func TestAdapter_Chat(t *testing.T) {
	server := newCaptureServer(t, http.StatusOK, `{
		"id": "chatcmpl-123",
		"choices": [{"message": {"role": "assistant", "content": "Hello there"}}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`)
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)
	result, err := adapter.Chat(context.Background(), []providers.Message{
		{Role: providers.RoleUser, Content: "Hi"},
	}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if result.Message.Content != "Hello there" {
		t.Errorf("content = %q", result.Message.Content)
	}
	if result.Message.Role != providers.RoleAssistant {
		t.Errorf("role = %q", result.Message.Role)
	}
	if result.ID != "chatcmpl-123" {
		t.Errorf("id = %q", result.ID)
	}
	if result.Usage.TotalTokens != result.Usage.PromptTokens+result.Usage.CompletionTokens {
		t.Errorf("usage total %d != prompt %d + completion %d",
			result.Usage.TotalTokens, result.Usage.PromptTokens, result.Usage.CompletionTokens)
	}

	if server.lastPath != "/chat/completions" {
		t.Errorf("path = %q", server.lastPath)
	}
	if server.lastAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", server.lastAuth)
	}
}

func TestAdapter_Chat_OptionPrecedence(t *testing.T) {
	server := newCaptureServer(t, http.StatusOK, `{}`)
	defer server.Close()

	temp := 0.2
	adapter, err := New(providers.ProviderConfig{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		Model:     "gpt-4o-mini",
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = adapter.Chat(context.Background(),
		[]providers.Message{{Role: providers.RoleUser, Content: "x"}},
		&providers.GenerationOptions{Model: "gpt-4-turbo", Temperature: &temp})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if server.lastPayload["model"] != "gpt-4-turbo" {
		t.Errorf("model = %v, option should override config", server.lastPayload["model"])
	}
	if server.lastPayload["max_tokens"] != float64(256) {
		t.Errorf("max_tokens = %v, config should override default", server.lastPayload["max_tokens"])
	}
	if server.lastPayload["temperature"] != 0.2 {
		t.Errorf("temperature = %v", server.lastPayload["temperature"])
	}
}

func TestAdapter_Generate_EndToEnd(t *testing.T) {
	server := newCaptureServer(t, http.StatusOK, `{"choices":[{"message":{"content":"Hi!"}}]}`)
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)
	out, err := adapter.Generate(context.Background(), "Say hi", &providers.GenerationOptions{MaxTokens: 5})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "Hi!" {
		t.Errorf("output = %q, want %q", out, "Hi!")
	}

	if server.lastPath != "/chat/completions" {
		t.Errorf("generate must delegate to chat, path = %q", server.lastPath)
	}
	messages, _ := server.lastPayload["messages"].([]interface{})
	if len(messages) != 1 {
		t.Fatalf("messages = %v", server.lastPayload["messages"])
	}
	first, _ := messages[0].(map[string]interface{})
	if first["role"] != "user" || first["content"] != "Say hi" {
		t.Errorf("first message = %v", first)
	}
	if server.lastPayload["max_tokens"] != float64(5) {
		t.Errorf("max_tokens = %v", server.lastPayload["max_tokens"])
	}
}

func TestAdapter_Chat_EmptyResponseBody(t *testing.T) {
	server := newCaptureServer(t, http.StatusOK, ``)
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)
	result, err := adapter.Chat(context.Background(),
		[]providers.Message{{Role: providers.RoleUser, Content: "x"}}, nil)
	if err != nil {
		t.Fatalf("empty body must not fail: %v", err)
	}
	if result.Message.Content != "" || result.Usage.TotalTokens != 0 || result.ID != "" {
		t.Errorf("want zero-valued result, got %+v", result)
	}
}

func TestAdapter_Embeddings(t *testing.T) {
	server := newCaptureServer(t, http.StatusOK, `{
		"data": [
			{"object": "embedding", "embedding": [0.1, 0.2], "index": 0},
			{"object": "embedding", "embedding": [0.3, 0.4], "index": 1}
		]
	}`)
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)
	result, err := adapter.Embeddings(context.Background(), []string{"a", "b"}, nil)
	if err != nil {
		t.Fatalf("Embeddings: %v", err)
	}

	if server.lastPath != "/embeddings" {
		t.Errorf("path = %q", server.lastPath)
	}
	if len(result) != 2 {
		t.Fatalf("len = %d", len(result))
	}
	for i, e := range result {
		if e.Index != i {
			t.Errorf("entry %d: index = %d", i, e.Index)
		}
		if e.Object != "embedding" {
			t.Errorf("entry %d: object = %q", i, e.Object)
		}
		if len(e.Embedding) != 2 {
			t.Errorf("entry %d: vector = %v", i, e.Embedding)
		}
	}
	if server.lastPayload["model"] != defaultEmbeddingModel {
		t.Errorf("model = %v", server.lastPayload["model"])
	}
}

func TestAdapter_ErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		want   providers.ErrorKind
	}{
		{400, providers.KindBadRequest},
		{422, providers.KindBadRequest},
		{401, providers.KindUnauthenticated},
		{403, providers.KindUnauthenticated},
		{429, providers.KindRateLimited},
		{500, providers.KindServerError},
		{502, providers.KindServerError},
		{503, providers.KindServerError},
		{504, providers.KindServerError},
		{404, providers.KindGeneric},
		{418, providers.KindGeneric},
	}

	for _, tt := range tests {
		server := newCaptureServer(t, tt.status, `{"error":{"message":"provider rejected it"}}`)

		adapter := newTestAdapter(t, server.URL)
		_, err := adapter.Chat(context.Background(),
			[]providers.Message{{Role: providers.RoleUser, Content: "x"}}, nil)
		server.Close()

		if !providers.IsKind(err, tt.want) {
			t.Errorf("status %d: kind = %s, want %s", tt.status, providers.KindOf(err), tt.want)
			continue
		}
		msg := err.Error()
		if !strings.Contains(msg, "provider rejected it") || !strings.Contains(msg, strconv.Itoa(tt.status)) {
			t.Errorf("status %d: message %q", tt.status, msg)
		}
	}
}
