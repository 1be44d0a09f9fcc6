// Package discovery fans a research topic out to external content sources
// and turns their responses into deduplicated ContentSource entities.
//
// Grounded on original_source/src/services/content_discovery_service.py
// and original_source/src/services/external/{google_search,semantic_scholar,
// news_api}.py, reworked around a single ExternalClient capability (spec
// §4.3) instead of three bespoke service classes.
package discovery

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// RawItem is the uniform shape every ExternalClient adapts its upstream's
// response into.
type RawItem struct {
	// CanonicalID is the value hashed to produce a ContentSource's
	// content_hash — a URL for web/news items, a paper ID for academic
	// ones.
	CanonicalID string
	Title       string
	URL         string
	Description string
	Metadata    map[string]interface{}
}

// ExternalClient is the capability every discovery source implements. It
// does not consult a circuit breaker itself — that is the Coordinator's
// job (spec §4.3) — but must respect ctx cancellation/deadline.
type ExternalClient interface {
	Name() string
	SourceType() SourceKind
	Search(ctx context.Context, query string, limit int) ([]RawItem, error)
}

// SourceKind mirrors domain.SourceType without importing the domain
// package into the wire-format layer.
type SourceKind string

const (
	SourceWeb      SourceKind = "web"
	SourceAcademic SourceKind = "academic"
	SourceNews     SourceKind = "news"
)

// httpClient is the shared shape every concrete client builds requests
// with. Grounded on infrastructure/datafeed/client.go's plain
// *http.Client + context.Context usage rather than a generated SDK.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// errNotConfigured is returned by a client whose credentials are absent,
// mirroring the original's "log a warning, return empty" behavior — but
// as a categorical error, since spec §4.3 requires a single error per
// failed call rather than a silently empty result.
type errNotConfigured struct{ client string }

func (e *errNotConfigured) Error() string {
	return fmt.Sprintf("%s: not configured", e.client)
}
