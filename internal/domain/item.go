package domain

import (
	"strings"
	"time"
)

// Embed is a link preview attached to a source message.
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// RawItem is a post as delivered by the messaging source.
type RawItem struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Author      string    `json:"author"`
	AuthorIsBot bool      `json:"authorIsBot,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Attachments []string  `json:"attachments,omitempty"`
	Embeds      []Embed   `json:"embeds,omitempty"`
	// ExternalURLs is only set when the source already separated links from the text.
	ExternalURLs []string `json:"externalUrls,omitempty"`
}

// NormalizedItem is the cleaned record handed to the generator.
type NormalizedItem struct {
	ID           string
	Text         string
	MediaURLs    []string
	ExternalURLs []string
	CreatedAt    time.Time
}

// GeneratedContent is the markdown produced for one item.
// Failed marks the sentinel error document substituted when generation fails.
type GeneratedContent struct {
	Markdown string
	Failed   bool
}

// Empty reports whether a successful generation produced nothing usable.
func (g GeneratedContent) Empty() bool {
	return !g.Failed && strings.TrimSpace(g.Markdown) == ""
}
