package providers

// Effective-value resolution for per-call options. Precedence is always
// call option > provider configuration > adapter hard-coded default.

// ResolveModel returns the effective model name.
func ResolveModel(opts *GenerationOptions, cfg ProviderConfig, fallback string) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	if cfg.Model != "" {
		return cfg.Model
	}
	return fallback
}

// ResolveEmbeddingModel returns the effective embedding model name.
func ResolveEmbeddingModel(opts *GenerationOptions, cfg ProviderConfig, fallback string) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	if cfg.EmbeddingModel != "" {
		return cfg.EmbeddingModel
	}
	return fallback
}

// ResolveMaxTokens returns the effective output token limit.
func ResolveMaxTokens(opts *GenerationOptions, cfg ProviderConfig, fallback int) int {
	if opts != nil && opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return fallback
}

// ResolveTemperature returns the effective sampling temperature. Zero is a
// valid setting at both override levels, hence the pointers.
func ResolveTemperature(opts *GenerationOptions, cfg ProviderConfig, fallback float64) float64 {
	if opts != nil && opts.Temperature != nil {
		return *opts.Temperature
	}
	if cfg.Temperature != nil {
		return *cfg.Temperature
	}
	return fallback
}

// MergeExtra copies provider-specific extras from the options into an
// outbound payload, overriding computed fields on key collision.
func MergeExtra(payload map[string]interface{}, opts *GenerationOptions) {
	if opts == nil {
		return
	}
	for k, v := range opts.Extra {
		payload[k] = v
	}
}
