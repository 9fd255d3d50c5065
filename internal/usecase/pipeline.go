package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"TopicScanner/internal/domain"
	"TopicScanner/internal/ports"
	"TopicScanner/internal/scanner"
)

// DefaultDigestMinScore is the notification threshold when none is configured.
const DefaultDigestMinScore = 70

// SourceSetting is one configured source in display order.
type SourceSetting struct {
	Source  domain.Source
	Enabled bool
}

// PipelineDeps wires all driven adapters into the scan orchestrator.
type PipelineDeps struct {
	Registry       *scanner.Registry
	Sources        []SourceSetting
	Repository     ports.TopicRepository
	Notifier       ports.Notifier
	DigestMinScore int
	Logger         *slog.Logger
	Now            func() time.Time
}

// Pipeline runs every enabled source and persists their candidates. At most
// one scan is in flight; overlapping requests are acknowledged and dropped.
type Pipeline struct {
	registry   *scanner.Registry
	sources    []SourceSetting
	repository ports.TopicRepository
	notifier   ports.Notifier
	minScore   int
	logger     *slog.Logger
	now        func() time.Time

	running atomic.Bool
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.DigestMinScore <= 0 {
		deps.DigestMinScore = DefaultDigestMinScore
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Registry == nil {
		deps.Registry = scanner.NewRegistry()
	}
	return &Pipeline{
		registry:   deps.Registry,
		sources:    slices.Clone(deps.Sources),
		repository: deps.Repository,
		notifier:   deps.Notifier,
		minScore:   deps.DigestMinScore,
		logger:     deps.Logger,
		now:        deps.Now,
	}
}

// SourceReport is the outcome of one source within a scan.
type SourceReport struct {
	Source     domain.Source
	Skipped    bool
	ItemsFound int
	ItemsNew   int
	Error      string
	Duration   time.Duration
}

func (r SourceReport) String() string {
	if r.Skipped {
		return fmt.Sprintf("%s: skipped", r.Source)
	}
	line := fmt.Sprintf("%s: +%d new", r.Source, r.ItemsNew)
	if r.Error != "" {
		line += " (error: " + r.Error + ")"
	}
	return line
}

// ScanSummary aggregates one scan; reports follow the configured source order.
type ScanSummary struct {
	CycleID        string
	AlreadyRunning bool
	StartedAt      time.Time
	FinishedAt     time.Time
	Reports        []SourceReport
}

// NewTopics counts inserted topics across all sources.
func (s ScanSummary) NewTopics() int {
	total := 0
	for _, r := range s.Reports {
		total += r.ItemsNew
	}
	return total
}

func (s ScanSummary) String() string {
	if s.AlreadyRunning {
		return "scan already running"
	}
	lines := make([]string, len(s.Reports))
	for i, r := range s.Reports {
		lines[i] = r.String()
	}
	return strings.Join(lines, " | ")
}

// Running reports whether a scan is in flight.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// RunScan executes one scan cycle, or returns AlreadyRunning when another is in flight.
func (p *Pipeline) RunScan(ctx context.Context) ScanSummary {
	if !p.running.CompareAndSwap(false, true) {
		scanRunsTotal.WithLabelValues("coalesced").Inc()
		p.info("scan already running, request ignored")
		return ScanSummary{AlreadyRunning: true}
	}
	defer p.release()
	return p.run(ctx)
}

// TriggerAsync starts a scan in the background. It returns false when one is
// already running.
func (p *Pipeline) TriggerAsync(ctx context.Context) bool {
	if !p.running.CompareAndSwap(false, true) {
		scanRunsTotal.WithLabelValues("coalesced").Inc()
		return false
	}
	go func() {
		defer p.release()
		p.run(context.WithoutCancel(ctx))
	}()
	return true
}

func (p *Pipeline) release() {
	scanInFlight.Set(0)
	p.running.Store(false)
}

func (p *Pipeline) run(ctx context.Context) ScanSummary {
	scanInFlight.Set(1)
	summary := ScanSummary{CycleID: newCycleID(), StartedAt: p.now()}
	p.info("scan started", "cycle_id", summary.CycleID, "sources", len(p.sources))

	summary.Reports = make([]SourceReport, len(p.sources))
	inserted := make([][]domain.ScoredTopic, len(p.sources))

	var wg sync.WaitGroup
	for i, setting := range p.sources {
		if !setting.Enabled {
			summary.Reports[i] = SourceReport{Source: setting.Source, Skipped: true}
			continue
		}
		strategy, err := p.registry.Resolve(setting.Source)
		if err != nil {
			p.warn("source not registered", "source", setting.Source, "error", err)
			summary.Reports[i] = SourceReport{Source: setting.Source, Skipped: true}
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			summary.Reports[i], inserted[i] = p.runSource(ctx, summary.CycleID, strategy)
		}()
	}
	wg.Wait()

	summary.FinishedAt = p.now()
	scanRunsTotal.WithLabelValues("completed").Inc()
	p.info("scan finished", "cycle_id", summary.CycleID, "summary", summary.String())

	p.notify(ctx, slices.Concat(inserted...))
	return summary
}

func (p *Pipeline) runSource(ctx context.Context, cycleID string, strategy scanner.Scanner) (SourceReport, []domain.ScoredTopic) {
	started := time.Now()
	report := SourceReport{Source: strategy.Name()}
	label := string(report.Source)

	candidates, err := safeScan(ctx, strategy)
	var problems []string
	if err != nil {
		problems = append(problems, err.Error())
		p.warn("source failed", "source", label, "error", err, "partial", len(candidates))
	}
	report.ItemsFound = len(candidates)

	var fresh []domain.ScoredTopic
	for _, candidate := range candidates {
		if p.repository == nil {
			break
		}
		isNew, err := p.repository.Upsert(ctx, candidate)
		if err != nil {
			problems = append(problems, fmt.Sprintf("persist %s: %v", candidate.ID, err))
			continue
		}
		if isNew {
			report.ItemsNew++
			fresh = append(fresh, candidate)
		}
	}
	report.Error = strings.Join(problems, "; ")
	report.Duration = time.Since(started)

	if p.repository != nil {
		run := domain.ScanRun{
			CycleID:    cycleID,
			Source:     report.Source,
			ItemsFound: report.ItemsFound,
			ItemsNew:   report.ItemsNew,
			Error:      report.Error,
			Timestamp:  p.now(),
		}
		if err := p.repository.LogRun(ctx, run); err != nil {
			p.warn("log scan run", "source", label, "error", err)
		}
	}

	sourceItemsTotal.WithLabelValues(label, "found").Add(float64(report.ItemsFound))
	sourceItemsTotal.WithLabelValues(label, "new").Add(float64(report.ItemsNew))
	sourceDuration.WithLabelValues(label).Observe(report.Duration.Seconds())
	if report.Error != "" {
		sourceErrorsTotal.WithLabelValues(label).Inc()
	}
	p.debug("source done", "source", label, "found", report.ItemsFound, "new", report.ItemsNew)
	return report, fresh
}

// safeScan turns an adapter panic into a source error.
func safeScan(ctx context.Context, strategy scanner.Scanner) (topics []domain.ScoredTopic, err error) {
	defer func() {
		if r := recover(); r != nil {
			topics = nil
			err = fmt.Errorf("%w: %s panicked: %v", domain.ErrSourceUnavailable, strategy.Name(), r)
		}
	}()
	return strategy.Scan(ctx)
}

func (p *Pipeline) notify(ctx context.Context, inserted []domain.ScoredTopic) {
	if p.notifier == nil {
		return
	}
	var hot []domain.ScoredTopic
	for _, topic := range inserted {
		if topic.Score() >= p.minScore {
			hot = append(hot, topic)
		}
	}
	if len(hot) == 0 {
		return
	}
	slices.SortStableFunc(hot, func(a, b domain.ScoredTopic) int {
		return b.Score() - a.Score()
	})

	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(hot)); err != nil {
		p.warn("publish digest", "error", err)
	}
}

func buildDigestMessage(topics []domain.ScoredTopic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d new high-scoring topics\n\n", len(topics))
	for _, topic := range topics {
		fmt.Fprintf(&b, "- %s\nScore: %d | %s | %s\n%s\n%s\n\n",
			topic.Title,
			topic.Score(),
			topic.ContentType,
			topic.Niches,
			topic.Hook,
			topic.SourceURL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func newCycleID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
