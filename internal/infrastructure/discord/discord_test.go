package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageCall struct {
	limit   int
	afterID string
}

type fakeLister struct {
	messages []*discordgo.Message
	calls    []pageCall
	err      error
}

// ChannelMessages mimics the API: messages with id > afterID, newest first, at most limit.
func (f *fakeLister) ChannelMessages(_ string, limit int, _, afterID, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.calls = append(f.calls, pageCall{limit: limit, afterID: afterID})
	if f.err != nil {
		return nil, f.err
	}
	after, _ := strconv.ParseUint(afterID, 10, 64)
	var matched []*discordgo.Message
	for _, m := range f.messages {
		id, _ := strconv.ParseUint(m.ID, 10, 64)
		if id > after {
			matched = append(matched, m)
		}
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]*discordgo.Message, 0, len(matched))
	for i := len(matched) - 1; i >= 0; i-- {
		out = append(out, matched[i])
	}
	return out, nil
}

func messagesFrom(start time.Time, n int) []*discordgo.Message {
	msgs := make([]*discordgo.Message, 0, n)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i+1) * time.Second)
		msgs = append(msgs, &discordgo.Message{
			ID:        SnowflakeAt(ts),
			Content:   fmt.Sprintf("post %d", i),
			Timestamp: ts,
			Author:    &discordgo.User{Username: "post", Bot: true},
		})
	}
	return msgs
}

func TestSnowflakeAt(t *testing.T) {
	t.Parallel()

	epoch := time.UnixMilli(discordEpochMS)
	assert.Equal(t, "0", SnowflakeAt(epoch))
	assert.Equal(t, strconv.FormatUint(1000<<22, 10), SnowflakeAt(epoch.Add(time.Second)))
	assert.Equal(t, "0", SnowflakeAt(epoch.Add(-time.Hour)))
}

func TestHistoryPagesWithAfterCursor(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{messages: messagesFrom(start, 150)}
	h := newHistory(lister, "chan", nil)

	items, err := h.History(context.Background(), start, 500)
	require.NoError(t, err)

	require.Len(t, items, 150)
	require.Len(t, lister.calls, 2)
	assert.Equal(t, afterCursor(start), lister.calls[0].afterID)
	assert.Equal(t, 100, lister.calls[0].limit)
	assert.Equal(t, lister.messages[99].ID, lister.calls[1].afterID)
}

func TestHistoryIncludesMessagesAtWindowStart(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{messages: []*discordgo.Message{
		{ID: SnowflakeAt(start), Content: "at start", Timestamp: start, Author: &discordgo.User{Username: "post", Bot: true}},
		{ID: SnowflakeAt(start.Add(time.Minute)), Content: "later", Timestamp: start.Add(time.Minute), Author: &discordgo.User{Username: "post", Bot: true}},
	}}

	items, err := newHistory(lister, "chan", nil).History(context.Background(), start, 10)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, SnowflakeAt(start), items[0].ID)
	assert.Equal(t, "later", items[1].Text)
}

func TestAfterCursor(t *testing.T) {
	t.Parallel()

	epoch := time.UnixMilli(discordEpochMS)
	assert.Empty(t, afterCursor(epoch))
	assert.Empty(t, afterCursor(epoch.Add(-time.Hour)))
	assert.Equal(t, strconv.FormatUint(1000<<22-1, 10), afterCursor(epoch.Add(time.Second)))
}

func TestHistoryStopsAtLimit(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{messages: messagesFrom(start, 30)}
	h := newHistory(lister, "chan", nil)

	items, err := h.History(context.Background(), start, 10)
	require.NoError(t, err)

	assert.Len(t, items, 10)
	require.Len(t, lister.calls, 1)
	assert.Equal(t, 10, lister.calls[0].limit)
}

func TestHistoryMapsMessageFields(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 9, 1, 10, 0, 5, 0, time.UTC)
	lister := &fakeLister{messages: []*discordgo.Message{{
		ID:          SnowflakeAt(ts),
		Content:     "https://x.com/someone/status/1",
		Timestamp:   ts,
		Author:      &discordgo.User{Username: "post", Bot: true},
		Attachments: []*discordgo.MessageAttachment{{URL: "https://cdn/a.png"}},
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "Someone on X",
			Description: "Long post text",
			URL:         "https://x.com/someone/status/1",
			Image:       &discordgo.MessageEmbedImage{URL: "https://cdn/embed.jpg"},
		}},
	}}}

	items, err := newHistory(lister, "chan", nil).History(context.Background(), ts.Add(-time.Minute), 50)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "post", item.Author)
	assert.True(t, item.AuthorIsBot)
	assert.Equal(t, ts, item.CreatedAt)
	assert.Equal(t, []string{"https://cdn/a.png"}, item.Attachments)
	require.Len(t, item.Embeds, 1)
	assert.Equal(t, "Long post text", item.Embeds[0].Description)
	assert.Equal(t, "https://cdn/embed.jpg", item.Embeds[0].ImageURL)
}

func TestHistoryErrors(t *testing.T) {
	t.Parallel()

	_, err := newHistory(&fakeLister{err: errors.New("401 Unauthorized")}, "chan", nil).
		History(context.Background(), time.Now(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	_, err = NewHistory("", "chan", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "misconfigured")
}

func TestWebhookPublishDigest(t *testing.T) {
	t.Parallel()

	var got map[string]any
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	hook := NewWebhook(server.URL).WithHTTPClient(server.Client())
	require.NoError(t, hook.PublishDigest(context.Background(), "X generate", "- [t](https://u)\n"))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "X generate", got["username"])
	assert.Equal(t, "- [t](https://u)\n", got["content"])
}

func TestWebhookErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "Cannot send an empty message"}`))
	}))
	defer server.Close()

	err := NewWebhook(server.URL).WithHTTPClient(server.Client()).PublishDigest(context.Background(), "x", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "empty message")
}

func TestWebhookMisconfigured(t *testing.T) {
	t.Parallel()

	err := NewWebhook("").PublishDigest(context.Background(), "x", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "misconfigured")
}

func TestFitMessage(t *testing.T) {
	t.Parallel()

	short := "- [a](u)\n"
	assert.Equal(t, short, FitMessage(short, MaxMessageLength))

	var b strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&b, "- [Summary title number %03d](https://drive.google.com/file/d/%03d/view)\n", i, i)
	}
	fitted := FitMessage(b.String(), MaxMessageLength)

	assert.LessOrEqual(t, utf8.RuneCountInString(fitted), MaxMessageLength)
	lines := strings.Split(fitted, "\n")
	last := lines[len(lines)-1]
	require.True(t, strings.HasPrefix(last, "... and "), last)

	var more int
	_, err := fmt.Sscanf(last, "... and %d more", &more)
	require.NoError(t, err)
	assert.Equal(t, 100, len(lines)-1+more)
}
