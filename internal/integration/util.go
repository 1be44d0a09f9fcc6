package integration

import (
	"github.com/r3e-network/research-orchestrator/internal/domain"
)

func combinedText(source *domain.ContentSource) string {
	return source.CombinedText()
}

func description(source *domain.ContentSource) string {
	if v, ok := source.SourceMetadata["description"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
