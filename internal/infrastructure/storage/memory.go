package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"BookmarkSummarizer/internal/domain"
	"BookmarkSummarizer/internal/ports"
)

// Operation names used for call counting and failure injection.
const (
	OpFindContainer   = "FindContainer"
	OpCreateContainer = "CreateContainer"
	OpHasArtifact     = "HasArtifactWithMarker"
	OpCreateArtifact  = "CreateArtifact"
	OpWriteContent    = "WriteArtifactContent"
)

type memoryContainer struct {
	id       string
	name     string
	parentID string
}

type memoryArtifact struct {
	artifact domain.Artifact
	markers  map[string]string
	content  string
	trashed  bool
}

// FailFunc lets tests fail a store call. Returning nil lets the call through.
type FailFunc func(op string, subject string) error

// MemoryStore is an in-process ports.Store used for dry runs and tests.
type MemoryStore struct {
	mu         sync.Mutex
	seq        int
	now        func() time.Time
	containers []memoryContainer
	artifacts  []*memoryArtifact
	calls      map[string]int
	fail       FailFunc
}

var _ ports.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, calls: map[string]int{}}
}

// FailWith installs a failure hook consulted before every operation.
func (s *MemoryStore) FailWith(fn FailFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fn
}

// Calls returns how many times op was invoked.
func (s *MemoryStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// ResetCalls zeroes the call counters.
func (s *MemoryStore) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = map[string]int{}
}

func (s *MemoryStore) enter(op, subject string) error {
	s.calls[op]++
	if s.fail != nil {
		return s.fail(op, subject)
	}
	return nil
}

func (s *MemoryStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *MemoryStore) FindContainer(ctx context.Context, name, parentID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpFindContainer, name); err != nil {
		return "", false, err
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	for _, c := range s.containers {
		if c.name == name && c.parentID == parentID {
			return c.id, true, nil
		}
	}
	return "", false, nil
}

func (s *MemoryStore) CreateContainer(ctx context.Context, name, parentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpCreateContainer, name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := memoryContainer{id: s.nextID("folder"), name: name, parentID: parentID}
	s.containers = append(s.containers, c)
	return c.id, nil
}

func (s *MemoryStore) HasArtifactWithMarker(ctx context.Context, containerID, key, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpHasArtifact, value); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, a := range s.artifacts {
		if a.trashed || a.artifact.ContainerID != containerID {
			continue
		}
		if a.markers[key] == value {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) CreateArtifact(ctx context.Context, spec domain.NewArtifact) (domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpCreateArtifact, spec.Name); err != nil {
		return domain.Artifact{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Artifact{}, err
	}

	markers := make(map[string]string, len(spec.Markers))
	for k, v := range spec.Markers {
		markers[k] = v
	}
	id := s.nextID("file")
	now := s.now()
	a := &memoryArtifact{
		artifact: domain.Artifact{
			ID:          id,
			Name:        spec.Name,
			ContainerID: spec.ContainerID,
			MimeType:    spec.MimeType,
			LocationURL: "memory://" + id,
			CreatedAt:   now,
			ModifiedAt:  now,
		},
		markers: markers,
	}
	s.artifacts = append(s.artifacts, a)
	return a.artifact, nil
}

func (s *MemoryStore) WriteArtifactContent(ctx context.Context, artifact domain.Artifact, content string) (domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpWriteContent, artifact.Name); err != nil {
		return domain.Artifact{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Artifact{}, err
	}
	for _, a := range s.artifacts {
		if a.artifact.ID == artifact.ID {
			a.content = content
			a.artifact.ModifiedAt = s.now()
			return a.artifact, nil
		}
	}
	return domain.Artifact{}, fmt.Errorf("artifact %s not found", artifact.ID)
}

// Artifacts lists non-trashed artifacts in creation order.
func (s *MemoryStore) Artifacts() []domain.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Artifact, 0, len(s.artifacts))
	for _, a := range s.artifacts {
		if !a.trashed {
			out = append(out, a.artifact)
		}
	}
	return out
}

// Content returns the body written to an artifact.
func (s *MemoryStore) Content(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.artifacts {
		if a.artifact.ID == id {
			return a.content, true
		}
	}
	return "", false
}

// Trash hides an artifact from marker lookups, like moving a file to the bin.
func (s *MemoryStore) Trash(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.artifacts {
		if a.artifact.ID == id {
			a.trashed = true
		}
	}
}

// ContainerPaths returns every container as a slash-joined path from the top level.
func (s *MemoryStore) ContainerPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]memoryContainer, len(s.containers))
	for _, c := range s.containers {
		byID[c.id] = c
	}
	paths := make([]string, 0, len(s.containers))
	for _, c := range s.containers {
		path := c.name
		for parent, ok := byID[c.parentID]; ok; parent, ok = byID[parent.parentID] {
			path = parent.name + "/" + path
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
