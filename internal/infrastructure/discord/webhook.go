package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"BookmarkSummarizer/internal/ports"
)

// MaxMessageLength is the Discord content limit in characters.
const MaxMessageLength = 2000

// Webhook posts digests to a Discord incoming webhook.
type Webhook struct {
	url    string
	client *http.Client
}

var _ ports.Notifier = (*Webhook)(nil)

// NewWebhook registers the webhook URL.
func NewWebhook(url string) *Webhook {
	return &Webhook{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

// WithHTTPClient replaces the HTTP client.
func (w *Webhook) WithHTTPClient(client *http.Client) *Webhook {
	w.client = client
	return w
}

// PublishDigest executes the webhook once with the digest as content.
func (w *Webhook) PublishDigest(ctx context.Context, displayName, digest string) error {
	if w.url == "" || w.client == nil {
		return fmt.Errorf("discord webhook misconfigured")
	}

	body, err := json.Marshal(discordgo.WebhookParams{
		Content:  FitMessage(digest, MaxMessageLength),
		Username: displayName,
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord webhook error: %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// FitMessage keeps whole lines of digest within limit characters and
// replaces the remainder with a "... and N more" line.
func FitMessage(digest string, limit int) string {
	if utf8.RuneCountInString(digest) <= limit {
		return digest
	}

	lines := strings.SplitAfter(strings.TrimRight(digest, "\n"), "\n")
	var b strings.Builder
	used := 0
	for i, line := range lines {
		rest := len(lines) - i
		footer := fmt.Sprintf("... and %d more", rest)
		n := utf8.RuneCountInString(line)
		if i < len(lines)-1 && used+n+utf8.RuneCountInString(footer) > limit {
			b.WriteString(footer)
			return b.String()
		}
		if i == len(lines)-1 && used+n > limit {
			b.WriteString(footer)
			return b.String()
		}
		b.WriteString(line)
		used += n
	}
	return b.String()
}
