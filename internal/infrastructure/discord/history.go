// Package discord reads channel history and delivers webhook notifications.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"BookmarkSummarizer/internal/domain"
	"BookmarkSummarizer/internal/logging"
	"BookmarkSummarizer/internal/ports"
)

const (
	// SourceKind is the registry name of the history source.
	SourceKind = "discord"

	pageSize       = 100
	discordEpochMS = 1420070400000
)

// messageLister is the part of *discordgo.Session used for history reads.
type messageLister interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// History pages through a channel's messages over the REST API.
type History struct {
	channelID string
	lister    messageLister
	logger    *slog.Logger
}

var _ ports.MessageSource = (*History)(nil)

// NewHistory opens a bot session for channelID. No gateway connection is made.
func NewHistory(token, channelID string, logger *slog.Logger) (*History, error) {
	if token == "" || channelID == "" {
		return nil, fmt.Errorf("discord source misconfigured: token and channel id are required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Client = &http.Client{Timeout: 20 * time.Second}
	return newHistory(session, channelID, logger), nil
}

func newHistory(lister messageLister, channelID string, logger *slog.Logger) *History {
	return &History{channelID: channelID, lister: lister, logger: logging.Default(logger)}
}

// History returns up to limit messages created at or after the given time, oldest first.
func (h *History) History(ctx context.Context, after time.Time, limit int) ([]domain.RawItem, error) {
	if h.lister == nil {
		return nil, fmt.Errorf("discord source misconfigured")
	}
	if limit <= 0 {
		return nil, nil
	}

	cursor := afterCursor(after)
	var items []domain.RawItem
	for len(items) < limit {
		size := min(pageSize, limit-len(items))
		page, err := h.lister.ChannelMessages(h.channelID, size, "", cursor, "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("channel messages after %s: %w", cursor, err)
		}
		h.logger.Debug("fetched history page", "after", cursor, "messages", len(page))

		for _, msg := range page {
			if msg == nil {
				continue
			}
			items = append(items, toRawItem(msg))
			cursor = maxSnowflake(cursor, msg.ID)
		}
		if len(page) < size {
			break
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// SnowflakeAt encodes t as the smallest message id created at that millisecond.
func SnowflakeAt(t time.Time) string {
	ms := t.UnixMilli() - discordEpochMS
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatUint(uint64(ms)<<22, 10)
}

// afterCursor is the exclusive "after" id that still admits messages created at t.
func afterCursor(t time.Time) string {
	ms := t.UnixMilli() - discordEpochMS
	if ms <= 0 {
		return ""
	}
	return strconv.FormatUint(uint64(ms)<<22-1, 10)
}

func maxSnowflake(a, b string) string {
	av, errA := strconv.ParseUint(a, 10, 64)
	bv, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errB != nil:
		return a
	case errA != nil || bv > av:
		return b
	default:
		return a
	}
}

func toRawItem(msg *discordgo.Message) domain.RawItem {
	item := domain.RawItem{
		ID:        msg.ID,
		Text:      msg.Content,
		CreatedAt: msg.Timestamp,
	}
	if msg.Author != nil {
		item.Author = msg.Author.Username
		item.AuthorIsBot = msg.Author.Bot
	}
	for _, a := range msg.Attachments {
		if a != nil && a.URL != "" {
			item.Attachments = append(item.Attachments, a.URL)
		}
	}
	for _, e := range msg.Embeds {
		if e == nil {
			continue
		}
		embed := domain.Embed{Title: e.Title, Description: e.Description, URL: e.URL}
		if e.Image != nil {
			embed.ImageURL = e.Image.URL
		}
		item.Embeds = append(item.Embeds, embed)
	}
	return item
}
