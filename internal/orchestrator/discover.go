package orchestrator

import (
	"context"

	"github.com/r3e-network/research-orchestrator/internal/discovery"
	"github.com/r3e-network/research-orchestrator/internal/domain"
	"github.com/r3e-network/research-orchestrator/pkg/orcherrors"
)

// discover runs the DISCOVER stage: fan the run's topic out across every
// ExternalClient, deduplicate by content_hash, and persist the survivors
// as ContentSources.
func (o *Orchestrator) discover(ctx context.Context, run *domain.ResearchRun) error {
	results := o.coordinator.DiscoverAll(ctx, run.Topic, defaultDiscoveryLimit)
	if discovery.AllUnavailable(results) {
		return orcherrors.Unavailable("discovery", "every external client unavailable", nil)
	}

	created := 0
	for _, result := range results {
		if result.Err != nil {
			o.emit(ctx, run.ID, domain.EventContentDiscovery, domain.LevelWarning, map[string]interface{}{
				"client": result.Client,
				"error":  result.Err.Error(),
			})
			continue
		}
		n, err := o.persistItems(ctx, run, result)
		if err != nil {
			return err
		}
		created += n
	}

	run.AdvanceDiscovered(created)
	o.emit(ctx, run.ID, domain.EventContentDiscovery, domain.LevelInfo, map[string]interface{}{
		"sources_discovered": created,
	})
	return nil
}

// persistItems converts one client's raw items into deduplicated
// ContentSources, skipping any whose content_hash already exists for
// this run.
func (o *Orchestrator) persistItems(ctx context.Context, run *domain.ResearchRun, result discovery.ClientResult) (int, error) {
	created := 0
	for _, item := range result.Items {
		hash := domain.ContentHash(item.CanonicalID)
		if _, err := o.sources.GetSourceByHash(ctx, run.ID, hash); err == nil {
			continue
		} else if !orcherrors.IsKind(err, orcherrors.KindNotFound) {
			return created, err
		}

		source, err := domain.NewContentSource(run.ID, sourceTypeFor(result.SourceType), item.CanonicalID, item.Title, result.Client, mergedMetadata(item))
		if err != nil {
			return created, err
		}
		if err := o.sources.CreateSource(ctx, source); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func sourceTypeFor(kind discovery.SourceKind) domain.SourceType {
	switch kind {
	case discovery.SourceWeb:
		return domain.SourceWeb
	case discovery.SourceAcademic:
		return domain.SourceAcademic
	case discovery.SourceNews:
		return domain.SourceNews
	default:
		return domain.SourceOther
	}
}

func mergedMetadata(item discovery.RawItem) map[string]interface{} {
	meta := make(map[string]interface{}, len(item.Metadata)+1)
	for k, v := range item.Metadata {
		meta[k] = v
	}
	if item.Description != "" {
		meta["description"] = item.Description
	}
	return meta
}

// recoverDiscover implements spec §4.1's two-step DISCOVER recovery:
// retry with a simplified topic, then fall back to a sequential,
// first-success scan across clients.
func (o *Orchestrator) recoverDiscover(ctx context.Context, run *domain.ResearchRun, cause error) error {
	simplified := simplifiedTopic(run.Topic)
	results := o.coordinator.DiscoverAll(ctx, simplified, defaultDiscoveryLimit)
	if !discovery.AllUnavailable(results) {
		created := 0
		for _, result := range results {
			if result.Err != nil {
				continue
			}
			n, err := o.persistItems(ctx, run, result)
			if err != nil {
				return err
			}
			created += n
		}
		if created > 0 {
			run.AdvanceDiscovered(created)
			return nil
		}
	}

	result, ok := o.coordinator.DiscoverSequential(ctx, run.Topic, defaultDiscoveryLimit)
	if !ok {
		return cause
	}
	created, err := o.persistItems(ctx, run, result)
	if err != nil {
		return err
	}
	if created == 0 {
		return cause
	}
	run.AdvanceDiscovered(created)
	return nil
}
