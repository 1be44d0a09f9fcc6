package integration

import (
	"fmt"
	"sort"

	"github.com/r3e-network/research-orchestrator/internal/domain"
)

// ConnectionSuggester turns vector-store neighbors into ranked
// SuggestedConnections (spec §4.5 step 3), grounded on the original's
// similarity-band classification and templated rationale text.
type ConnectionSuggester struct{}

// NewConnectionSuggester constructs a ConnectionSuggester.
func NewConnectionSuggester() *ConnectionSuggester {
	return &ConnectionSuggester{}
}

// Suggest returns up to maxSuggestions connections for source given its
// neighbors, sorted by strength descending.
func (s *ConnectionSuggester) Suggest(source *domain.ContentSource, neighbors []Neighbor, maxSuggestions int) []domain.SuggestedConnection {
	connections := make([]domain.SuggestedConnection, 0, len(neighbors))
	for _, n := range neighbors {
		kind := domain.ConnectionKindForSimilarity(n.Similarity)
		strength := clamp01(n.Similarity * kind.StrengthMultiplier())
		rationale := s.rationale(source, n, kind)
		connections = append(connections, domain.SuggestedConnection{
			TargetID:  n.ID,
			Kind:      kind,
			Strength:  strength,
			Rationale: rationale,
		})
	}

	sort.Slice(connections, func(i, j int) bool { return connections[i].Strength > connections[j].Strength })
	if maxSuggestions > 0 && len(connections) > maxSuggestions {
		connections = connections[:maxSuggestions]
	}
	return connections
}

func (s *ConnectionSuggester) rationale(source *domain.ContentSource, neighbor Neighbor, kind domain.ConnectionKind) string {
	sourceTitle := source.Title
	if sourceTitle == "" {
		sourceTitle = "the source content"
	}
	targetTitle := neighbor.Title
	if targetTitle == "" {
		targetTitle = "the target content"
	}

	switch kind {
	case domain.ConnectionDirect:
		return fmt.Sprintf("High semantic similarity (%.2f) suggests %s is directly related to %s", neighbor.Similarity, sourceTitle, targetTitle)
	case domain.ConnectionThematic:
		return fmt.Sprintf("Strong thematic alignment (%.2f) indicates %s shares core themes with %s", neighbor.Similarity, sourceTitle, targetTitle)
	case domain.ConnectionContextual:
		return fmt.Sprintf("Moderate similarity (%.2f) suggests %s provides relevant context for %s", neighbor.Similarity, sourceTitle, targetTitle)
	default:
		return fmt.Sprintf("Basic similarity (%.2f) indicates potential loose connection between %s and %s", neighbor.Similarity, sourceTitle, targetTitle)
	}
}
