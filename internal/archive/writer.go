package archive

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"BookmarkSummarizer/internal/domain"
	"BookmarkSummarizer/internal/logging"
	"BookmarkSummarizer/internal/ports"
)

const (
	// MarkdownMimeType is the content type of every artifact.
	MarkdownMimeType = "text/markdown"
	// UntitledName is used when no title can be derived from the content.
	UntitledName = "Untitled.md"
	// ErrorName is forced for sentinel error documents.
	ErrorName = "Error Generating Summary.md"

	maxTitleRunes = 100
)

var reservedNameChars = strings.NewReplacer(
	"/", " ", "\\", " ", ":", " ", "*", " ", "?", " ",
	"\"", " ", "<", " ", ">", " ", "|", " ",
)

// ArtifactName derives a file name from generated content.
func ArtifactName(content domain.GeneratedContent) string {
	if content.Failed {
		return ErrorName
	}

	title := strings.Join(strings.Fields(reservedNameChars.Replace(FirstLineTitle(content.Markdown))), " ")
	if title == "" {
		return UntitledName
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		title = strings.TrimSpace(string([]rune(title)[:maxTitleRunes]))
	}
	return title + ".md"
}

// FirstLineTitle returns the first non-blank line with leading header markers removed.
func FirstLineTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.TrimSpace(strings.TrimLeft(line, "#"))
	}
	return ""
}

// ArtifactWriter creates artifacts in two phases: an empty, marked record
// and then its body. A failed second phase leaves the empty record behind.
type ArtifactWriter struct {
	store     ports.ArtifactStore
	markerKey string
	logger    *slog.Logger
}

// NewArtifactWriter binds a store and the marker property name.
func NewArtifactWriter(store ports.ArtifactStore, markerKey string, logger *slog.Logger) *ArtifactWriter {
	return &ArtifactWriter{store: store, markerKey: markerKey, logger: logging.Default(logger)}
}

// CreateEmpty creates a metadata-only artifact carrying the source item marker.
func (w *ArtifactWriter) CreateEmpty(ctx context.Context, containerID, name, sourceItemID string) (domain.Artifact, error) {
	if w.store == nil {
		return domain.Artifact{}, fmt.Errorf("artifact store misconfigured")
	}

	spec := domain.NewArtifact{
		Name:        name,
		ContainerID: containerID,
		MimeType:    MarkdownMimeType,
	}
	if sourceItemID != "" {
		spec.Markers = map[string]string{w.markerKey: sourceItemID}
	}

	w.logger.Info("creating artifact", "name", name, "container", containerID)
	artifact, err := w.store.CreateArtifact(ctx, spec)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("create artifact %q: %w", name, err)
	}
	artifact.SourceItemID = sourceItemID
	return artifact, nil
}

// WriteContent uploads content as the artifact body and returns refreshed metadata.
func (w *ArtifactWriter) WriteContent(ctx context.Context, artifact domain.Artifact, content string) (domain.Artifact, error) {
	if w.store == nil {
		return domain.Artifact{}, fmt.Errorf("artifact store misconfigured")
	}
	if artifact.ID == "" {
		return domain.Artifact{}, fmt.Errorf("artifact has no id")
	}

	w.logger.Info("writing artifact content", "id", artifact.ID, "bytes", len(content))
	updated, err := w.store.WriteArtifactContent(ctx, artifact, content)
	if err != nil {
		w.logger.Warn("artifact left empty after failed write", "id", artifact.ID, "name", artifact.Name)
		return domain.Artifact{}, fmt.Errorf("write artifact %s: %w", artifact.ID, err)
	}
	if updated.SourceItemID == "" {
		updated.SourceItemID = artifact.SourceItemID
	}
	return updated, nil
}
