package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"TopicScanner/internal/domain"
	"TopicScanner/internal/scanner"
)

const productHuntHome = "https://www.producthunt.com"

// ProductHuntOptions configures the launch-feed adapter.
type ProductHuntOptions struct {
	FeedURL string
}

// ProductHuntScanner reads the launch feed and keeps AI and growth launches.
type ProductHuntScanner struct {
	deps    Deps
	feedURL string
	parser  *gofeed.Parser
}

var _ scanner.Scanner = (*ProductHuntScanner)(nil)

// NewProductHuntScanner builds the adapter around a shared feed parser.
func NewProductHuntScanner(deps Deps, opts ProductHuntOptions) *ProductHuntScanner {
	return &ProductHuntScanner{deps: deps, feedURL: opts.FeedURL, parser: gofeed.NewParser()}
}

// Name identifies the adapter inside the registry.
func (p *ProductHuntScanner) Name() domain.Source {
	return domain.SourceProductHunt
}

// Scan downloads the feed through the shared fetcher so retries and timeouts
// match the other adapters, then parses it in memory.
func (p *ProductHuntScanner) Scan(ctx context.Context) ([]domain.ScoredTopic, error) {
	body, err := p.deps.Fetcher.Get(ctx, p.feedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: product hunt feed: %w", domain.ErrSourceUnavailable, err)
	}
	feed, err := p.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse product hunt feed: %w", domain.ErrSourceUnavailable, err)
	}

	now := p.deps.now()
	var candidates []domain.ScoredTopic
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		normalized, ok := p.normalize(item, now)
		if !ok {
			continue
		}
		candidates = append(candidates, p.deps.Scorer.Score(normalized))
	}
	return candidates, nil
}

func (p *ProductHuntScanner) normalize(item *gofeed.Item, now time.Time) (domain.NormalizedTopic, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return domain.NormalizedTopic{}, false
	}

	snippet := item.Description
	if snippet == "" {
		snippet = item.Content
	}
	result := p.deps.Classifier.Classify(title + " " + snippetText(snippet))
	if !result.Matched() {
		return domain.NormalizedTopic{}, false
	}
	if !result.Niches.Contains(domain.NicheAIMarketing) && !result.Niches.Contains(domain.NicheGrowth) {
		return domain.NormalizedTopic{}, false
	}

	published := now
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	}

	key := item.Link
	if key == "" {
		key = title
	}
	sourceURL := item.Link
	if sourceURL == "" {
		sourceURL = productHuntHome
	}

	return domain.NormalizedTopic{
		ID:          "ph-" + slugify(key),
		Title:       title,
		Source:      domain.SourceProductHunt,
		Niches:      result.Niches.Prepend(domain.NicheAIMarketing),
		ContentType: domain.ContentTools,
		AgeHours:    ageHours(now, published),
		Hook:        title + ". I tested it and here's what happened.",
		PostIdea:    fmt.Sprintf("Review and breakdown of %s: what it does, who it's for, growth angle.", title),
		SourceURL:   sourceURL,
		SourceTitle: "Product Hunt",
		Metrics:     domain.LaunchMetrics{Upvotes: 50},
	}, true
}
