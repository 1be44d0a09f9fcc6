package integration

import (
	"context"

	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/internal/repository"
	"github.com/r3e-network/research-orchestrator/pkg/logging"
	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
)

const (
	neighborK             = 10
	minNeighborSimilarity = 0.5
	maxConnections        = 10
	maxTags               = 15
	strongSimilarity      = 0.7
)

// BatchResult is the per-source outcome of ProposeBatch, mirroring the
// original's generated/failed tally shape.
type BatchResult struct {
	ContentSourceID string
	ProposalID      string
	Confidence      float64
	Err             error
}

// BatchTally summarizes a ProposeBatch run.
type BatchTally struct {
	Total     int
	Generated []BatchResult
	Failed    []BatchResult
}

// Analyzer implements IntegrationAnalyzer (spec §4.5): for a given
// ContentSource it embeds the combined text, finds vector-store
// neighbors, and derives connections, tags, strategy, confidence, and
// estimated effort from them.
type Analyzer struct {
	embedder    Embedder
	vectorStore VectorStore
	connections *ConnectionSuggester
	tags        *TagSuggester
	proposals   repository.IntegrationProposalRepository
	log         *logging.Logger
}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer(embedder Embedder, vectorStore VectorStore, proposals repository.IntegrationProposalRepository, log *logging.Logger) *Analyzer {
	if log == nil {
		log = logging.Default()
	}
	return &Analyzer{
		embedder:    embedder,
		vectorStore: vectorStore,
		connections: NewConnectionSuggester(),
		tags:        NewTagSuggester(),
		proposals:   proposals,
		log:         log,
	}
}

// Propose generates (or returns the existing) IntegrationProposal for
// source. Idempotent: a second call for the same content_source_id
// returns the proposal created by the first (spec §4.5's idempotence
// invariant); callers must delete explicitly to force regeneration.
func (a *Analyzer) Propose(ctx context.Context, source *domain.ContentSource) (*domain.IntegrationProposal, error) {
	existing, err := a.proposals.GetProposalByContentSource(ctx, source.ID)
	if err != nil && !orcherrors.IsKind(err, orcherrors.KindNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	vector, err := a.embedder.Embed(ctx, source.CombinedText())
	if err != nil {
		return nil, orcherrors.Wrap(orcherrors.KindUnavailable, "embed content source", err)
	}

	neighbors, err := a.vectorStore.FindSimilar(ctx, vector, neighborK, minNeighborSimilarity)
	if err != nil {
		return nil, orcherrors.Wrap(orcherrors.KindUnavailable, "find similar vectors", err)
	}

	suggestedConnections := a.connections.Suggest(source, neighbors, maxConnections)
	suggestedTags := a.tags.Suggest(source, neighbors, maxTags)

	avgSimilarity := averageSimilarity(neighbors)
	strategy := strategyFor(source.SourceType, avgSimilarity)
	actions := proposedActionsFor(source.SourceType, suggestedConnections, suggestedTags)
	confidence := confidenceFor(avgSimilarity, suggestedConnections)

	proposal := domain.NewIntegrationProposal(source.ID, source.ResearchRunID, strategy, actions, confidence, suggestedConnections, suggestedTags)

	if err := a.proposals.CreateProposal(ctx, proposal); err != nil {
		return nil, err
	}

	if err := a.vectorStore.Upsert(ctx, source.ID, vector, source.Title, string(source.SourceType)); err != nil {
		a.log.WithError(err).WithField("content_source_id", source.ID).Warn("failed to index content source in vector store")
	}

	a.log.WithField("content_source_id", source.ID).WithField("proposal_id", proposal.ID).Info("generated integration proposal")
	return proposal, nil
}

// ProposeBatch generates proposals for every source, isolating per-source
// failures so one bad source does not abort the batch — grounded on
// batch_generate_proposals' generated/failed tally.
func (a *Analyzer) ProposeBatch(ctx context.Context, sources []*domain.ContentSource) BatchTally {
	tally := BatchTally{Total: len(sources)}
	for _, source := range sources {
		proposal, err := a.Propose(ctx, source)
		if err != nil {
			a.log.WithError(err).WithField("content_source_id", source.ID).Error("failed to generate integration proposal")
			tally.Failed = append(tally.Failed, BatchResult{ContentSourceID: source.ID, Err: err})
			continue
		}
		tally.Generated = append(tally.Generated, BatchResult{
			ContentSourceID: source.ID,
			ProposalID:      proposal.ID,
			Confidence:      proposal.Confidence,
		})
	}
	return tally
}

func averageSimilarity(neighbors []Neighbor) float64 {
	if len(neighbors) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, n := range neighbors {
		sum += n.Similarity
	}
	return sum / float64(len(neighbors))
}

func strategyFor(sourceType domain.SourceType, avgSimilarity float64) domain.IntegrationStrategy {
	if sourceType == domain.SourceAcademic {
		return domain.StrategyComprehensive
	}
	switch {
	case avgSimilarity >= 0.8:
		return domain.StrategyDeep
	case avgSimilarity >= 0.6:
		return domain.StrategyStandard
	default:
		return domain.StrategyBasic
	}
}

func proposedActionsFor(sourceType domain.SourceType, connections []domain.SuggestedConnection, tags []domain.SuggestedTag) map[string]bool {
	actions := map[string]bool{
		"create_summary":       true,
		"extract_key_concepts": true,
		"categorize_content":   true,
		"tag_with_suggestions": len(tags) > 0,
		"establish_connections": len(connections) > 0,
		"quality_annotation":   true,
	}
	if sourceType == domain.SourceAcademic {
		actions["extract_methodology"] = true
		actions["identify_findings"] = true
		actions["map_citations"] = true
	}
	return actions
}

func confidenceFor(avgSimilarity float64, connections []domain.SuggestedConnection) float64 {
	confidence := avgSimilarity
	for _, c := range connections {
		if c.Strength >= strongSimilarity {
			confidence += 0.1
			break
		}
	}
	return clamp01(confidence)
}
