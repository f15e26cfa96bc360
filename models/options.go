package models

import "time"

// ExtractOptions tunes a single extraction.
type ExtractOptions struct {
	Mobile  bool
	Timeout time.Duration // zero means the configured timeout
	Debug   bool          // log the result after every stage
}

// EffectiveTimeout returns the request timeout, falling back to cfg.
func (o ExtractOptions) EffectiveTimeout(cfg Config) time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return cfg.Timeout
}
