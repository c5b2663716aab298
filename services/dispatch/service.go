// Package dispatch routes generate/chat/embeddings calls to the configured
// provider adapters, applying cache lookup, timing, and audit logging around
// each call. It holds no per-call state: only the enabled-provider map and
// its collaborators live across calls.
package dispatch

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/aimux/aimux/models"
	"github.com/aimux/aimux/services/providers"
)

// Cache is the response cache collaborator. Implementations must tolerate
// concurrent use; the dispatcher adds no locking of its own.
type Cache interface {
	Has(key string) bool
	Get(key string) (interface{}, bool)
	Put(key string, value interface{}, ttlMinutes int)
}

// AuditLogger is the audit collaborator. Record must never block the
// request path; failures stay inside the implementation.
type AuditLogger interface {
	Record(record *models.InteractionRecord)
}

// Config tunes the dispatcher.
type Config struct {
	// DefaultProvider is used when a call names no provider.
	DefaultProvider string

	// CacheEnabled turns response caching on. Off by default.
	CacheEnabled bool

	// CacheTTLMinutes is the cache entry lifetime. Zero means 1440 (24h).
	CacheTTLMinutes int

	// CachePrefix namespaces fingerprints in a shared store.
	CachePrefix string
}

// Service is the dispatch facade.
type Service struct {
	providers map[string]providers.ProviderConfig
	resolver  *providers.Resolver
	cache     Cache
	audit     AuditLogger
	logger    *zap.Logger
	config    Config
}

// New builds a dispatcher over the given provider configurations. An entry
// participates only when it declares an adapter identifier and is not
// explicitly disabled.
func New(configs map[string]providers.ProviderConfig, resolver *providers.Resolver, cache Cache, audit AuditLogger, logger *zap.Logger, config Config) *Service {
	if config.CacheTTLMinutes <= 0 {
		config.CacheTTLMinutes = 1440
	}

	enabled := make(map[string]providers.ProviderConfig, len(configs))
	for name, cfg := range configs {
		if cfg.Adapter == "" || !cfg.IsEnabled() {
			continue
		}
		if cfg.Name == "" {
			cfg.Name = name
		}
		enabled[name] = cfg
	}

	return &Service{
		providers: enabled,
		resolver:  resolver,
		cache:     cache,
		audit:     audit,
		logger:    logger,
		config:    config,
	}
}

// Provider resolves a provider name (or the default when name is empty) to a
// live adapter. A name with no enabled entry fails with provider-not-found;
// an entry whose adapter identifier is unknown fails with adapter-not-found.
func (s *Service) Provider(name string) (providers.Adapter, error) {
	name = s.effectiveProvider(name)
	cfg, ok := s.providers[name]
	if !ok {
		return nil, providers.NewAPIError(providers.KindProviderNotFound,
			fmt.Sprintf("provider %q not configured", name), 0, nil)
	}
	return s.resolver.Resolve(cfg.Adapter, cfg)
}

// ProviderNames lists the enabled provider names, sorted.
func (s *Service) ProviderNames() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate produces a completion for a single prompt.
func (s *Service) Generate(ctx context.Context, prompt string, opts *providers.GenerationOptions, providerName string) (string, error) {
	value, err := s.dispatch(ctx, models.OperationGenerate, providerName, prompt, opts,
		func(adapter providers.Adapter) (interface{}, int, error) {
			out, err := adapter.Generate(ctx, prompt, opts)
			if err != nil {
				return nil, 0, err
			}
			return out, estimateTokens(prompt) + estimateTokens(out), nil
		})
	if err != nil {
		return "", err
	}
	out, _ := value.(string)
	return out, nil
}

// Chat performs a chat completion over a conversation.
func (s *Service) Chat(ctx context.Context, messages []providers.Message, opts *providers.GenerationOptions, providerName string) (*providers.ChatResult, error) {
	value, err := s.dispatch(ctx, models.OperationChat, providerName, stableJSON(messages), opts,
		func(adapter providers.Adapter) (interface{}, int, error) {
			result, err := adapter.Chat(ctx, messages, opts)
			if err != nil {
				return nil, 0, err
			}
			tokens := result.Usage.TotalTokens
			if tokens == 0 {
				for _, m := range messages {
					tokens += estimateTokens(m.Content)
				}
				tokens += estimateTokens(result.Message.Content)
			}
			return result, tokens, nil
		})
	if err != nil {
		return nil, err
	}
	result, _ := value.(*providers.ChatResult)
	return result, nil
}

// Embeddings produces embedding vectors for a batch of input strings.
func (s *Service) Embeddings(ctx context.Context, input []string, opts *providers.GenerationOptions, providerName string) (providers.EmbeddingResult, error) {
	value, err := s.dispatch(ctx, models.OperationEmbeddings, providerName, stableJSON(input), opts,
		func(adapter providers.Adapter) (interface{}, int, error) {
			result, err := adapter.Embeddings(ctx, input, opts)
			if err != nil {
				return nil, 0, err
			}
			tokens := 0
			for _, text := range input {
				tokens += estimateTokens(text)
			}
			return result, tokens, nil
		})
	if err != nil {
		return nil, err
	}
	result, _ := value.(providers.EmbeddingResult)
	return result, nil
}

// dispatch runs the per-call sequence: cache check, adapter resolution,
// timed invocation, audit record, cache store. A cache hit returns
// immediately with no adapter call, no timing, and no audit entry. Errors
// are logged and propagated unchanged, never converted.
func (s *Service) dispatch(ctx context.Context, operation, providerName, inputRepr string, opts *providers.GenerationOptions,
	invoke func(providers.Adapter) (interface{}, int, error)) (interface{}, error) {

	name := s.effectiveProvider(providerName)
	key := s.fingerprint(operation, name, inputRepr, opts)

	if s.cacheEnabled() {
		if value, ok := s.cache.Get(key); ok {
			s.logger.Debug("cache hit",
				zap.String("operation", operation),
				zap.String("provider", name))
			return value, nil
		}
	}

	start := time.Now()
	var value interface{}
	var tokens int

	adapter, err := s.Provider(name)
	if err == nil {
		value, tokens, err = invoke(adapter)
	}
	duration := time.Since(start).Seconds()

	s.recordInteraction(ctx, operation, name, inputRepr, opts, value, tokens, duration, err)

	if err != nil {
		return nil, err
	}
	if s.cacheEnabled() {
		s.cache.Put(key, value, s.config.CacheTTLMinutes)
	}
	return value, nil
}

func (s *Service) cacheEnabled() bool {
	return s.config.CacheEnabled && s.cache != nil
}

func (s *Service) effectiveProvider(name string) string {
	if name == "" {
		return s.config.DefaultProvider
	}
	return name
}

// fingerprint derives the deterministic cache key
// {prefix}{operation}_{provider}_{md5(input)}_{md5(options)}.
func (s *Service) fingerprint(operation, provider, inputRepr string, opts *providers.GenerationOptions) string {
	return fmt.Sprintf("%s%s_%s_%x_%x",
		s.config.CachePrefix, operation, provider,
		md5.Sum([]byte(inputRepr)),
		md5.Sum([]byte(stableJSON(opts))))
}

func (s *Service) recordInteraction(ctx context.Context, operation, provider, inputRepr string, opts *providers.GenerationOptions,
	value interface{}, tokens int, duration float64, callErr error) {

	if s.audit == nil {
		return
	}

	record := models.NewInteractionRecord(provider, operation)
	record.Input = inputRepr
	record.Options = stableJSON(opts)
	record.DurationSecs = duration
	record.Success = callErr == nil

	if caller := CallerFromContext(ctx); caller != "" {
		record.CallerID = &caller
	}

	if callErr != nil {
		msg := callErr.Error()
		record.ErrorMessage = &msg
	} else {
		record.TokensUsed = tokens
		output := stableJSON(value)
		record.Output = &output
	}

	s.audit.Record(record)
}

// estimateTokens approximates one token per four characters of text.
func estimateTokens(text string) int {
	return len(text) / 4
}

// stableJSON renders v as compact JSON; map keys are sorted by
// encoding/json, so equal values always produce equal bytes.
func stableJSON(v interface{}) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(encoded)
}
