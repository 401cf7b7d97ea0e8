// Package archive places generated summaries into the destination store:
// it resolves the year/month/day container chain, guards against duplicates
// and writes artifacts in two phases.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"BookmarkSummarizer/internal/logging"
	"BookmarkSummarizer/internal/ports"
)

// ContainerKey identifies a container by name under its parent.
type ContainerKey struct {
	Name     string
	ParentID string
}

// ContainerCache memoizes resolved container ids for the lifetime of one run.
// It is not safe for concurrent use; runs process items sequentially.
type ContainerCache struct {
	ids map[ContainerKey]string
}

// NewContainerCache returns an empty cache.
func NewContainerCache() *ContainerCache {
	return &ContainerCache{ids: map[ContainerKey]string{}}
}

// Lookup returns the cached id for key.
func (c *ContainerCache) Lookup(key ContainerKey) (string, bool) {
	id, ok := c.ids[key]
	return id, ok
}

// Remember stores a resolved id.
func (c *ContainerCache) Remember(key ContainerKey, id string) {
	c.ids[key] = id
}

// Len reports how many containers have been resolved.
func (c *ContainerCache) Len() int {
	return len(c.ids)
}

// ContainerResolver maps a timestamp to its day container, creating missing levels.
type ContainerResolver struct {
	store    ports.ContainerStore
	rootID   string
	location *time.Location
	cache    *ContainerCache
	logger   *slog.Logger
}

// NewContainerResolver binds a store and a run-scoped cache. An empty rootID
// places the year containers at the top of the store.
func NewContainerResolver(store ports.ContainerStore, rootID string, loc *time.Location, cache *ContainerCache, logger *slog.Logger) *ContainerResolver {
	if loc == nil {
		loc = time.UTC
	}
	if cache == nil {
		cache = NewContainerCache()
	}
	return &ContainerResolver{
		store:    store,
		rootID:   rootID,
		location: loc,
		cache:    cache,
		logger:   logging.Default(logger),
	}
}

// PartitionNames returns the year, month and day container names for ts.
func PartitionNames(ts time.Time, loc *time.Location) [3]string {
	local := ts.In(loc)
	return [3]string{
		fmt.Sprintf("%04d", local.Year()),
		fmt.Sprintf("%02d", int(local.Month())),
		fmt.Sprintf("%02d", local.Day()),
	}
}

// ResolveDayContainer returns the id of the day container for ts.
func (r *ContainerResolver) ResolveDayContainer(ctx context.Context, ts time.Time) (string, error) {
	if r.store == nil {
		return "", fmt.Errorf("container store misconfigured")
	}

	parentID := r.rootID
	for _, name := range PartitionNames(ts, r.location) {
		id, err := r.resolveOrCreate(ctx, name, parentID)
		if err != nil {
			return "", err
		}
		parentID = id
	}
	return parentID, nil
}

func (r *ContainerResolver) resolveOrCreate(ctx context.Context, name, parentID string) (string, error) {
	key := ContainerKey{Name: name, ParentID: parentID}
	if id, ok := r.cache.Lookup(key); ok {
		return id, nil
	}

	id, found, err := r.store.FindContainer(ctx, name, parentID)
	if err != nil {
		return "", fmt.Errorf("find container %q: %w", name, err)
	}
	if !found {
		r.logger.Info("container missing, creating", "name", name, "parent", parentID)
		id, err = r.store.CreateContainer(ctx, name, parentID)
		if err != nil {
			return "", fmt.Errorf("create container %q: %w", name, err)
		}
	}

	r.cache.Remember(key, id)
	return id, nil
}
