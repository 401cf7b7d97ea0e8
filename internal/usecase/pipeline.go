package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"BookmarkSummarizer/internal/archive"
	"BookmarkSummarizer/internal/domain"
	"BookmarkSummarizer/internal/logging"
	"BookmarkSummarizer/internal/normalize"
	"BookmarkSummarizer/internal/ports"
	"BookmarkSummarizer/internal/report"
)

// ItemReader returns the batch of posts for one run.
type ItemReader interface {
	Fetch(ctx context.Context, windowStart time.Time, maxCount int) []domain.RawItem
}

// SummaryGenerator turns a normalized post into markdown. It never fails;
// errors come back as a sentinel document.
type SummaryGenerator interface {
	Generate(ctx context.Context, item domain.NormalizedItem) domain.GeneratedContent
}

// DigestReporter delivers the run digest.
type DigestReporter interface {
	Report(ctx context.Context, items []domain.SummaryMetadata)
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Reader    ItemReader
	Generator SummaryGenerator
	Store     ports.Store
	Reporter  DigestReporter
	Logger    *slog.Logger

	// RootID is the store container holding the year folders.
	RootID    string
	MarkerKey string
	Location  *time.Location
	Window    time.Duration
	MaxItems  int

	Now func() time.Time
}

// ItemOutcome records how far one item got.
type ItemOutcome struct {
	ItemID string
	State  domain.ItemState
	// LastState is the last milestone reached before a skip.
	LastState domain.ItemState
	Reason    error
	Artifact  domain.Artifact
}

// RunSummary describes one pipeline execution.
type RunSummary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Fetched  int
	Outcomes []ItemOutcome
	Reported []domain.SummaryMetadata
	// Panic holds a recovered unexpected fault, if any.
	Panic any
}

// Count returns how many items ended in state.
func (s RunSummary) Count(state domain.ItemState) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}

// Pipeline implements the summarize-and-archive workflow.
type Pipeline struct {
	reader    ItemReader
	generator SummaryGenerator
	store     ports.Store
	reporter  DigestReporter
	guard     *archive.DuplicateGuard
	writer    *archive.ArtifactWriter
	logger    *slog.Logger

	rootID   string
	location *time.Location
	window   time.Duration
	maxItems int
	now      func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := logging.Default(deps.Logger)
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Pipeline{
		reader:    deps.Reader,
		generator: deps.Generator,
		store:     deps.Store,
		reporter:  deps.Reporter,
		guard:     archive.NewDuplicateGuard(deps.Store, deps.MarkerKey, logger.With("component", "guard")),
		writer:    archive.NewArtifactWriter(deps.Store, deps.MarkerKey, logger.With("component", "writer")),
		logger:    logger,
		rootID:    deps.RootID,
		location:  loc,
		window:    deps.Window,
		maxItems:  deps.MaxItems,
		now:       now,
	}
}

// Run processes one fetch window: every item is taken through the state
// machine sequentially, failures skip the item, and written items are
// reported once at the end.
func (p *Pipeline) Run(ctx context.Context) (summary RunSummary) {
	summary.RunID = uuid.NewString()
	summary.Started = p.now()
	logger := p.logger.With("run_id", summary.RunID)

	defer func() {
		if r := recover(); r != nil {
			summary.Panic = r
			logger.Error("unexpected failure during run", "panic", r)
		}
		summary.Finished = p.now()
		logger.Info("execution finished",
			"fetched", summary.Fetched,
			"reported", summary.Count(domain.StateReported),
			"skipped", summary.Count(domain.StateSkipped),
			"duration", summary.Finished.Sub(summary.Started).String(),
		)
	}()

	if p.reader == nil {
		logger.Warn("no source configured")
		return summary
	}

	windowStart := summary.Started.Add(-p.window)
	items := p.reader.Fetch(ctx, windowStart, p.maxItems)
	summary.Fetched = len(items)
	logger.Info("fetched items", "count", len(items), "window_start", windowStart.Format(time.RFC3339))

	resolver := archive.NewContainerResolver(p.store, p.rootID, p.location, archive.NewContainerCache(),
		logger.With("component", "resolver"))

	var written []domain.SummaryMetadata
	for _, raw := range items {
		outcome, meta := p.processItem(ctx, logger.With("item_id", raw.ID), resolver, raw)
		summary.Outcomes = append(summary.Outcomes, outcome)
		if meta != nil {
			written = append(written, *meta)
		}
	}

	if p.reporter != nil {
		p.reporter.Report(ctx, written)
		for i := range summary.Outcomes {
			if summary.Outcomes[i].State == domain.StateWritten {
				summary.Outcomes[i].State = domain.StateReported
			}
		}
	}
	summary.Reported = written
	return summary
}

func (p *Pipeline) processItem(ctx context.Context, logger *slog.Logger, resolver *archive.ContainerResolver, raw domain.RawItem) (ItemOutcome, *domain.SummaryMetadata) {
	outcome := ItemOutcome{ItemID: raw.ID, State: domain.StateFetched}
	skip := func(reason error) (ItemOutcome, *domain.SummaryMetadata) {
		outcome.LastState = outcome.State
		outcome.State = domain.StateSkipped
		outcome.Reason = reason
		logger.Warn("item skipped", "state", outcome.LastState, "reason", reason)
		return outcome, nil
	}

	containerID, err := resolver.ResolveDayContainer(ctx, raw.CreatedAt)
	if err != nil {
		return skip(fmt.Errorf("%w: %v", domain.ErrNoContainer, err))
	}
	outcome.State = domain.StatePartitioned

	exists, err := p.guard.Exists(ctx, containerID, raw.ID)
	if err != nil {
		return skip(fmt.Errorf("duplicate check: %w", err))
	}
	if exists {
		return skip(domain.ErrDuplicate)
	}
	outcome.State = domain.StateDedupChecked

	item := normalize.Normalize(raw)
	outcome.State = domain.StateNormalized

	if p.generator == nil {
		return skip(errors.New("generator not configured"))
	}
	content := p.generator.Generate(ctx, item)
	if content.Empty() {
		return skip(domain.ErrEmptyGeneration)
	}
	outcome.State = domain.StateGenerated

	artifact, err := p.writer.CreateEmpty(ctx, containerID, archive.ArtifactName(content), raw.ID)
	if err != nil {
		return skip(fmt.Errorf("%w: %v", domain.ErrCreateArtifact, err))
	}
	outcome.State = domain.StateCreated
	outcome.Artifact = artifact

	artifact, err = p.writer.WriteContent(ctx, artifact, content.Markdown)
	if err != nil {
		return skip(fmt.Errorf("%w: %v", domain.ErrWriteContent, err))
	}
	outcome.State = domain.StateWritten
	outcome.Artifact = artifact

	meta := report.Extract(artifact, content.Markdown, p.now())
	logger.Info("item written", "name", artifact.Name, "url", artifact.LocationURL, "sentinel", content.Failed)
	return outcome, &meta
}
