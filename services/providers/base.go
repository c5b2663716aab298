package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultConnectTimeout = 10 * time.Second
)

// RequestSpec is the provider-specific shape of one outbound HTTP request,
// produced by each adapter's BuildRequestOptions.
type RequestSpec struct {
	Header http.Header
	Query  url.Values
	Body   []byte
}

// RequestBuilder is the one translation hook every concrete adapter must
// implement: it attaches the provider's auth scheme (bearer header, custom
// header, or query parameter) and serializes the payload.
type RequestBuilder interface {
	BuildRequestOptions(method, endpoint string, payload map[string]interface{}, extraHeaders map[string]string) (*RequestSpec, error)
}

// BaseAdapter hosts the lifecycle shared by all provider adapters: transport
// setup, request execution, and error classification. Concrete adapters embed
// it and implement only translation.
type BaseAdapter struct {
	// Config is the immutable provider configuration.
	Config ProviderConfig

	// BaseURL must be set by the concrete adapter before the first Execute.
	BaseURL string

	// TypeName is the adapter's short name ("openai", "anthropic", "gemini").
	TypeName string

	// HTTPClient is the transport owned by this adapter for its lifetime.
	HTTPClient *http.Client

	builder RequestBuilder
}

// NewBaseAdapter stores the configuration and initializes the HTTP transport
// with the configured timeout (default 30s) and connect timeout (default
// 10s). Provider-specific mandatory fields are validated by the concrete
// adapter via RequireConfig, not here.
func NewBaseAdapter(typeName string, cfg ProviderConfig, builder RequestBuilder) *BaseAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}

	return &BaseAdapter{
		Config:   cfg,
		TypeName: typeName,
		builder:  builder,
		HTTPClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
	}
}

// Name returns the configured provider name, falling back to the adapter
// type name.
func (b *BaseAdapter) Name() string {
	if b.Config.Name != "" {
		return b.Config.Name
	}
	return b.TypeName
}

// ConfigField pairs a configuration key with its value for RequireConfig.
type ConfigField struct {
	Key   string
	Value string
}

// RequireConfig fails with a configuration error naming the first field
// whose value is empty. Every concrete adapter constructor calls this for
// its provider-mandatory fields.
func (b *BaseAdapter) RequireConfig(fields ...ConfigField) error {
	for _, f := range fields {
		if f.Value == "" {
			return NewAPIError(KindConfiguration,
				fmt.Sprintf("%s: missing required configuration %q", b.Name(), f.Key), 0, nil)
		}
	}
	return nil
}

// JoinURL joins a base URL and an endpoint with exactly one separating
// slash, regardless of trailing/leading slashes on either side.
func JoinURL(base, endpoint string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

// Execute performs one HTTP exchange against the provider and decodes the
// response body as JSON. An empty or malformed body on a successful exchange
// decodes to an empty object; interpretation is the caller's responsibility.
// Transport and HTTP failures are classified and returned as *APIError.
func (b *BaseAdapter) Execute(ctx context.Context, method, endpoint string, payload map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	if b.BaseURL == "" {
		return nil, NewAPIError(KindConfiguration,
			fmt.Sprintf("%s: api base URL not set", b.Name()), 0, nil)
	}

	spec, err := b.builder.BuildRequestOptions(method, endpoint, payload, extraHeaders)
	if err != nil {
		return nil, NewAPIError(KindGeneric,
			fmt.Sprintf("%s: %s", b.Name(), err.Error()), 0, err)
	}

	target := JoinURL(b.BaseURL, endpoint)
	if len(spec.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + spec.Query.Encode()
	}

	var body io.Reader
	if len(spec.Body) > 0 {
		body = bytes.NewReader(spec.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, NewAPIError(KindGeneric,
			fmt.Sprintf("%s: %s", b.Name(), err.Error()), 0, err)
	}
	for k, vs := range spec.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(b.Name(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(b.Name(), err)
	}

	decoded := decodeLenient(raw)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, classifyHTTPError(b.Name(), resp.StatusCode, decoded, strings.TrimSpace(string(raw)))
	}

	return decoded, nil
}

// NewRequestSpec builds the provider-agnostic part of a RequestSpec: the
// JSON body when the payload is non-empty, its content type, and any extra
// headers. Adapters add their auth scheme on top.
func NewRequestSpec(payload map[string]interface{}, extraHeaders map[string]string) (*RequestSpec, error) {
	spec := &RequestSpec{Header: http.Header{}}
	if len(payload) > 0 {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		spec.Body = encoded
		spec.Header.Set("Content-Type", "application/json")
	}
	for k, v := range extraHeaders {
		spec.Header.Set(k, v)
	}
	return spec, nil
}

// decodeLenient decodes raw JSON into an object, returning an empty object
// for empty or malformed bodies.
func decodeLenient(raw []byte) map[string]interface{} {
	decoded := map[string]interface{}{}
	if len(raw) == 0 {
		return decoded
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return map[string]interface{}{}
	}
	return decoded
}

// isTimeout reports whether a transport error is a connect or deadline
// timeout rather than some other transport failure.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
