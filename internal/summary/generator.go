// Package summary builds the generation prompt for a post and guards the
// pipeline against failed or leaky generations.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"BookmarkSummarizer/internal/domain"
	"BookmarkSummarizer/internal/logging"
	"BookmarkSummarizer/internal/ports"
)

// ErrorHeading opens every sentinel document.
const ErrorHeading = "# Error Generating Summary"

// PostPlaceholder in the preamble is replaced with the post text.
const PostPlaceholder = "{{post}}"

const (
	postSectionHeader        = "[Post text]"
	instructionSectionHeader = "[Instructions]"
)

// Options configure a Generator.
type Options struct {
	Preamble          string
	Language          string
	RequestsPerMinute int
	Timeout           time.Duration
}

// Generator turns a normalized item into markdown through a TextModel.
type Generator struct {
	model    ports.TextModel
	preamble string
	language string
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *slog.Logger
}

// NewGenerator wires a text model; a zero RequestsPerMinute disables pacing.
func NewGenerator(model ports.TextModel, opts Options, logger *slog.Logger) *Generator {
	g := &Generator{
		model:    model,
		preamble: strings.TrimSpace(opts.Preamble),
		language: strings.TrimSpace(opts.Language),
		timeout:  opts.Timeout,
		logger:   logging.Default(logger),
	}
	if g.language == "" {
		g.language = "English"
	}
	if opts.RequestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return g
}

// Generate never returns an error: failures become a sentinel document.
// A successful but blank response is returned as-is for the caller to skip.
func (g *Generator) Generate(ctx context.Context, item domain.NormalizedItem) domain.GeneratedContent {
	if g.model == nil {
		return sentinel(fmt.Errorf("generation service misconfigured"))
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			g.logger.Error("generation pacing interrupted", "id", item.ID, "error", err)
			return sentinel(err)
		}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.logger.Info("generating summary", "id", item.ID, "chars", len(item.Text))
	out, err := g.model.Complete(ctx, g.BuildPrompt(item.Text))
	if err != nil {
		g.logger.Error("generation failed", "id", item.ID, "error", err)
		return sentinel(err)
	}

	return domain.GeneratedContent{Markdown: g.stripEcho(out, item.Text)}
}

// BuildPrompt assembles preamble, post text and the fixed instructions.
func (g *Generator) BuildPrompt(text string) string {
	var b strings.Builder
	b.WriteString(g.renderPreamble(text))
	b.WriteString("\n\n")
	b.WriteString(postSectionHeader)
	b.WriteString("\n")
	b.WriteString(text)
	b.WriteString("\n\n")
	b.WriteString(g.instructions())
	return b.String()
}

func (g *Generator) renderPreamble(text string) string {
	return strings.ReplaceAll(g.preamble, PostPlaceholder, text)
}

func (g *Generator) instructions() string {
	return instructionSectionHeader + "\n" +
		"Write an accurate explanation based only on the [Post text] above.\n" +
		"Do not search for or rely on external information; treat the supplied text as the only source of truth.\n" +
		"Do not write about unrelated topics.\n" +
		"Write the final output in " + g.language + "."
}

// stripEcho removes prompt scaffolding the model repeated back.
func (g *Generator) stripEcho(out, text string) string {
	echoes := []string{g.renderPreamble(text), g.instructions(), instructionSectionHeader, postSectionHeader}
	for _, echo := range echoes {
		if echo == "" {
			continue
		}
		out = strings.ReplaceAll(out, echo, "")
	}
	return strings.TrimSpace(out)
}

func sentinel(err error) domain.GeneratedContent {
	reason := strings.Join(strings.Fields(err.Error()), " ")
	return domain.GeneratedContent{
		Markdown: ErrorHeading + "\n\nCould not generate summary due to an error.\n\n> " + reason + "\n",
		Failed:   true,
	}
}
