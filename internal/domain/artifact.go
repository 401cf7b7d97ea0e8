package domain

import (
	"errors"
	"time"
)

// Artifact is a document stored inside a day container.
type Artifact struct {
	ID           string
	Name         string
	ContainerID  string
	SourceItemID string
	MimeType     string
	LocationURL  string
	CreatedAt    time.Time
	ModifiedAt   time.Time
}

// NewArtifact describes a metadata-only artifact to create.
type NewArtifact struct {
	Name        string
	ContainerID string
	MimeType    string
	// Markers are out-of-band properties used for idempotency lookups.
	Markers map[string]string
}

// SummaryMetadata is one line of the batch report.
type SummaryMetadata struct {
	Title     string
	URL       string
	Timestamp time.Time
}

// ItemState enumerates the per-item pipeline milestones.
type ItemState string

const (
	StateFetched      ItemState = "fetched"
	StatePartitioned  ItemState = "partitioned"
	StateDedupChecked ItemState = "dedup_checked"
	StateNormalized   ItemState = "normalized"
	StateGenerated    ItemState = "generated"
	StateCreated      ItemState = "created"
	StateWritten      ItemState = "written"
	StateReported     ItemState = "reported"
	StateSkipped      ItemState = "skipped"
)

// Skip reasons produced by pipeline stages.
var (
	ErrNoContainer     = errors.New("container could not be resolved")
	ErrDuplicate       = errors.New("artifact already exists for item")
	ErrEmptyGeneration = errors.New("generation returned empty content")
	ErrCreateArtifact  = errors.New("artifact could not be created")
	ErrWriteContent    = errors.New("artifact content could not be written")
)
