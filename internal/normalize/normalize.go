// Package normalize turns raw source posts into the canonical record fed to generation.
package normalize

import (
	"regexp"
	"strings"

	"BookmarkSummarizer/internal/domain"
)

// shortLinkExpr matches the source's t.co short links, which carry no content of their own.
var shortLinkExpr = regexp.MustCompile(`https?://t\.co/\w+`)

// Normalize strips noise from the text and collects media references. It never fails.
func Normalize(raw domain.RawItem) domain.NormalizedItem {
	text := StripNoise(raw.Text)
	if text == "" {
		text = embedText(raw.Embeds)
	}

	return domain.NormalizedItem{
		ID:           raw.ID,
		Text:         text,
		MediaURLs:    mediaURLs(raw),
		ExternalURLs: append([]string(nil), raw.ExternalURLs...),
		CreatedAt:    raw.CreatedAt,
	}
}

// StripNoise removes every short link and trims surrounding whitespace.
func StripNoise(text string) string {
	return strings.TrimSpace(shortLinkExpr.ReplaceAllString(text, ""))
}

func mediaURLs(raw domain.RawItem) []string {
	urls := make([]string, 0, len(raw.Attachments)+len(raw.Embeds))
	urls = append(urls, raw.Attachments...)
	for _, embed := range raw.Embeds {
		if embed.ImageURL == "" {
			continue
		}
		urls = append(urls, embed.ImageURL)
	}
	return urls
}

// embedText is the fallback for link-only posts whose content lives in the preview.
func embedText(embeds []domain.Embed) string {
	parts := make([]string, 0, len(embeds))
	for _, embed := range embeds {
		if d := StripNoise(embed.Description); d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, "\n\n")
}
