package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"TopicScanner/internal/domain"
	"TopicScanner/internal/scanner"
)

const hnDiscussionBase = "https://news.ycombinator.com/item?id="

// HackerNewsOptions configures the discussion-site adapter.
type HackerNewsOptions struct {
	APIBase     string
	TopN        int
	Concurrency int
}

// HackerNewsScanner reads the front page through the Firebase API.
type HackerNewsScanner struct {
	deps        Deps
	apiBase     string
	topN        int
	concurrency int
}

var _ scanner.Scanner = (*HackerNewsScanner)(nil)

// NewHackerNewsScanner defaults to the top 30 stories and 10 parallel item fetches.
func NewHackerNewsScanner(deps Deps, opts HackerNewsOptions) *HackerNewsScanner {
	if opts.TopN <= 0 {
		opts.TopN = 30
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}
	return &HackerNewsScanner{
		deps:        deps,
		apiBase:     strings.TrimSuffix(opts.APIBase, "/"),
		topN:        opts.TopN,
		concurrency: opts.Concurrency,
	}
}

// Name identifies the adapter inside the registry.
func (h *HackerNewsScanner) Name() domain.Source {
	return domain.SourceHackerNews
}

type hnItem struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// Scan fetches the ranked ids, then every item concurrently. A failed item is
// skipped; only the id list failing aborts the run.
func (h *HackerNewsScanner) Scan(ctx context.Context) ([]domain.ScoredTopic, error) {
	var ids []int64
	if err := h.deps.Fetcher.GetJSON(ctx, h.apiBase+"/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("%w: hacker news top stories: %w", domain.ErrSourceUnavailable, err)
	}
	if len(ids) > h.topN {
		ids = ids[:h.topN]
	}

	items := make([]*hnItem, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			var item *hnItem
			url := fmt.Sprintf("%s/item/%d.json", h.apiBase, id)
			if err := h.deps.Fetcher.GetJSON(gctx, url, &item); err != nil {
				h.deps.debug("hacker news item unavailable", "id", id, "error", err)
				return nil
			}
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	now := h.deps.now()
	var candidates []domain.ScoredTopic
	for _, item := range items {
		if item == nil || item.Deleted || item.Dead || strings.TrimSpace(item.Title) == "" {
			continue
		}
		normalized, ok := h.normalize(item, now)
		if !ok {
			continue
		}
		candidates = append(candidates, h.deps.Scorer.Score(normalized))
	}

	if err := ctx.Err(); err != nil {
		return candidates, fmt.Errorf("%w: hacker news: %w", domain.ErrSourceUnavailable, err)
	}
	return candidates, nil
}

func (h *HackerNewsScanner) normalize(item *hnItem, now time.Time) (domain.NormalizedTopic, bool) {
	result := h.deps.Classifier.Classify(item.Title + " " + item.URL)
	if !result.Matched() {
		return domain.NormalizedTopic{}, false
	}

	discussion := fmt.Sprintf("%s%d", hnDiscussionBase, item.ID)
	sourceURL := item.URL
	if sourceURL == "" {
		sourceURL = discussion
	}

	return domain.NormalizedTopic{
		ID:            fmt.Sprintf("hn-%d", item.ID),
		Title:         item.Title,
		Source:        domain.SourceHackerNews,
		Niches:        result.Niches,
		ContentType:   result.ContentType,
		AgeHours:      ageHours(now, time.Unix(item.Time, 0)),
		Hook:          headline(item.Title) + ". I looked into the numbers.",
		PostIdea:      fmt.Sprintf("Reverse-engineer \"%s\" for LinkedIn. Tie to growth/AI/crypto trend.", item.Title),
		SourceURL:     sourceURL,
		SourceTitle:   "Hacker News",
		DiscussionURL: discussion,
		Metrics:       domain.DiscussionMetrics{Points: item.Score, Comments: item.Descendants},
	}, true
}

// headline keeps the first clause of a title, split at ':' or '.'.
func headline(title string) string {
	short := title
	if i := strings.IndexAny(title, ":."); i >= 0 {
		short = title[:i]
	}
	short = strings.TrimSpace(short)
	if short == "" {
		return strings.TrimSpace(title)
	}
	return short
}
