package usecase

import (
	"context"
	"fmt"

	"TopicScanner/internal/domain"
	"TopicScanner/internal/ports"
	"TopicScanner/internal/scoring"
)

// Seed is a curated topic supplied by configuration.
type Seed struct {
	Topic       domain.NormalizedTopic
	FactChecked bool
	FactNotes   string
}

// PlantSeeds scores the seeds with the regular scorer and inserts those whose
// ids are absent. Existing topics, curated or not, are never touched.
func PlantSeeds(ctx context.Context, store ports.SeedStore, scorer *scoring.Scorer, seeds []Seed) (int, error) {
	if store == nil || len(seeds) == 0 {
		return 0, nil
	}

	topics := make([]domain.Topic, 0, len(seeds))
	for _, seed := range seeds {
		normalized := seed.Topic
		normalized.Source = domain.SourceSeed
		if normalized.Metrics == nil {
			normalized.Metrics = domain.NoMetrics{}
		}
		topics = append(topics, domain.Topic{
			ScoredTopic: scorer.Score(normalized),
			FactChecked: seed.FactChecked,
			FactNotes:   seed.FactNotes,
			Status:      domain.StatusNew,
		})
	}

	added, err := store.EnsureSeeds(ctx, topics)
	if err != nil {
		return added, fmt.Errorf("plant seeds: %w", err)
	}
	return added, nil
}
