// Package report turns written artifacts into a single batch notification.
package report

import (
	"time"

	"BookmarkSummarizer/internal/archive"
	"BookmarkSummarizer/internal/domain"
)

const (
	// UntitledTitle is reported when the content yields no title.
	UntitledTitle = "Untitled"
	// MissingURL stands in for artifacts the store returned without a location.
	MissingURL = "#"
)

// Extract pairs the display title of content with the artifact location.
func Extract(artifact domain.Artifact, content string, now time.Time) domain.SummaryMetadata {
	title := archive.FirstLineTitle(content)
	if title == "" {
		title = UntitledTitle
	}
	url := artifact.LocationURL
	if url == "" {
		url = MissingURL
	}
	return domain.SummaryMetadata{Title: title, URL: url, Timestamp: now}
}
