// Package ai defines the pluggable AI augmentation boundary consumed by
// internal/quality's QualityScorer (spec §4.4). AIAdapter is optional: a
// nil adapter, a disabled adapter, or any failure from one is always
// handled by a deterministic fallback at the call site.
package ai

import "context"

// SummarizeResult is the summarizer sub-service's output.
type SummarizeResult struct {
	Summary string
}

// ClassifyResult is the classifier sub-service's output.
type ClassifyResult struct {
	Classification string
}

// RationaleInput carries the four dimension scores the rationale
// generator explains.
type RationaleInput struct {
	Credibility  float64
	Relevance    float64
	Freshness    float64
	Completeness float64
	Overall      float64
	Title        string
	Topic        string
}

// AIAdapter is the capability QualityScorer consults when AI augmentation
// is enabled and the AI circuit breaker admits (spec §4.4). Each method
// must respect ctx cancellation/deadline and return a single categorical
// error on failure — no partial results.
type AIAdapter interface {
	Summarize(ctx context.Context, title, description, combinedText string) (SummarizeResult, error)
	Classify(ctx context.Context, title, sourceType string) (ClassifyResult, error)
	Rationale(ctx context.Context, input RationaleInput) (string, error)
}
