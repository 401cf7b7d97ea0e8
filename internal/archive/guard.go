package archive

import (
	"context"
	"fmt"
	"log/slog"

	"BookmarkSummarizer/internal/logging"
	"BookmarkSummarizer/internal/ports"
)

// DuplicateGuard checks the marker property before any expensive work is done.
type DuplicateGuard struct {
	store     ports.ArtifactStore
	markerKey string
	logger    *slog.Logger
}

// NewDuplicateGuard binds a store and the marker property name.
func NewDuplicateGuard(store ports.ArtifactStore, markerKey string, logger *slog.Logger) *DuplicateGuard {
	return &DuplicateGuard{store: store, markerKey: markerKey, logger: logging.Default(logger)}
}

// Exists reports whether containerID already holds an artifact for sourceItemID.
func (g *DuplicateGuard) Exists(ctx context.Context, containerID, sourceItemID string) (bool, error) {
	if g.store == nil {
		return false, fmt.Errorf("artifact store misconfigured")
	}
	found, err := g.store.HasArtifactWithMarker(ctx, containerID, g.markerKey, sourceItemID)
	if err != nil {
		return false, fmt.Errorf("query marker %s=%s: %w", g.markerKey, sourceItemID, err)
	}
	if found {
		g.logger.Debug("artifact already exists", "container", containerID, "source_item", sourceItemID)
	}
	return found, nil
}
