package ports

import (
	"context"
	"time"

	"BookmarkSummarizer/internal/domain"
)

// MessageSource pulls raw posts created after a point in time.
type MessageSource interface {
	History(ctx context.Context, after time.Time, limit int) ([]domain.RawItem, error)
}

// TextModel performs a single prompt-in, text-out generation call.
type TextModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ContainerStore manages the folder hierarchy of the destination store.
type ContainerStore interface {
	// FindContainer returns the id of a non-trashed container named name under parentID.
	FindContainer(ctx context.Context, name, parentID string) (id string, found bool, err error)
	CreateContainer(ctx context.Context, name, parentID string) (string, error)
}

// ArtifactStore manages documents inside containers.
type ArtifactStore interface {
	// HasArtifactWithMarker reports whether a non-trashed artifact carrying key=value exists in containerID.
	HasArtifactWithMarker(ctx context.Context, containerID, key, value string) (bool, error)
	CreateArtifact(ctx context.Context, spec domain.NewArtifact) (domain.Artifact, error)
	WriteArtifactContent(ctx context.Context, artifact domain.Artifact, content string) (domain.Artifact, error)
}

// Store is the full hierarchical store surface used by the pipeline.
type Store interface {
	ContainerStore
	ArtifactStore
}

// Notifier delivers one text payload to a chat channel.
type Notifier interface {
	PublishDigest(ctx context.Context, displayName, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
