package model

// GenerationResult is the normalized output of one completion call,
// regardless of which backend produced it. TokensPerSecond is nil for
// providers that do not report usage.
type GenerationResult struct {
	Response        string   `json:"response"`
	TokensPerSecond *float64 `json:"response_tokens_per_second,omitempty"`
}
