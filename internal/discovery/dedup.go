package discovery

import "github.com/r3e-network/research-orchestrator/internal/domain"

// Deduper removes RawItems that hash to a content_hash already seen,
// mirroring original_source's ContentDiscoveryService._deduplicate_sources
// — but operating before persistence, on RawItems, rather than after
// converting every raw result into a ContentSourceCreate.
type Deduper struct {
	seen map[string]struct{}
}

// NewDeduper returns an empty Deduper.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Dedupe filters items in place-order, keeping the first occurrence of
// each content hash and dropping the rest.
func (d *Deduper) Dedupe(items []RawItem) []RawItem {
	out := make([]RawItem, 0, len(items))
	for _, item := range items {
		hash := domain.ContentHash(item.CanonicalID)
		if _, ok := d.seen[hash]; ok {
			continue
		}
		d.seen[hash] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Seen reports whether an item with this canonical identifier has already
// passed through Dedupe.
func (d *Deduper) Seen(canonicalID string) bool {
	_, ok := d.seen[domain.ContentHash(canonicalID)]
	return ok
}
