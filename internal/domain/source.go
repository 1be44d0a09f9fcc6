package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
)

// SourceType classifies a discovered item by the kind of upstream it came
// from, which in turn drives credibility priors and freshness requirements.
type SourceType string

const (
	SourceWeb      SourceType = "WEB"
	SourceAcademic SourceType = "ACADEMIC"
	SourceNews     SourceType = "NEWS"
	SourceOther    SourceType = "OTHER"
)

// ContentSource is one discovered item, deduplicated within its run by
// ContentHash.
type ContentSource struct {
	ID            string
	ResearchRunID string
	SourceType    SourceType
	URL           string
	Title         string

	// SourceMetadata is the type-specific bag carrying fields like
	// description, author, published_at, excerpt, tags — whatever the
	// originating ExternalClient supplied.
	SourceMetadata map[string]interface{}

	RetrievalMethod    string
	RetrievalTimestamp time.Time
	ContentHash        string

	Provenance Provenance
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewContentSource constructs a ContentSource and computes its ContentHash
// from canonicalID — the normalized external identifier (typically the URL,
// or a DOI/arXiv id for academic sources) that dedup keys on.
func NewContentSource(runID string, sourceType SourceType, canonicalID, title, retrievalMethod string, metadata map[string]interface{}) (*ContentSource, error) {
	if err := validateNonEmpty("research_run_id", runID); err != nil {
		return nil, err
	}
	if err := validateNonEmpty("canonical_id", canonicalID); err != nil {
		return nil, err
	}
	if err := validateSourceType(sourceType); err != nil {
		return nil, err
	}
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	now := time.Now().UTC()
	return &ContentSource{
		ID:                 uuid.New().String(),
		ResearchRunID:      runID,
		SourceType:         sourceType,
		URL:                canonicalID,
		Title:              title,
		SourceMetadata:     metadata,
		RetrievalMethod:    retrievalMethod,
		RetrievalTimestamp: now,
		ContentHash:        ContentHash(canonicalID),
		Provenance:         Provenance{"retrieval_method": retrievalMethod},
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// ContentHash computes the SHA-256 digest of a normalized external
// identifier, used as the dedup key within a run.
func ContentHash(canonicalID string) string {
	sum := sha256.Sum256([]byte(canonicalID))
	return hex.EncodeToString(sum[:])
}

// CombinedText concatenates title, description, and excerpt for embedding
// and keyword extraction; source_metadata keys are read defensively since
// the bag is open-ended.
func (c *ContentSource) CombinedText() string {
	text := c.Title
	if desc, ok := c.SourceMetadata["description"].(string); ok && desc != "" {
		text += " " + desc
	}
	if excerpt, ok := c.SourceMetadata["excerpt"].(string); ok && excerpt != "" {
		text += " " + excerpt
	}
	return text
}

func validateSourceType(st SourceType) error {
	switch st {
	case SourceWeb, SourceAcademic, SourceNews, SourceOther:
		return nil
	default:
		return orcherrors.InvalidArgument("source_type", "unrecognized source type")
	}
}
