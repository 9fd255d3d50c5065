package ports

import (
	"context"
	"time"

	"TopicScanner/internal/domain"
)

// TopicRepository persists topics and scan history. Implementations must make
// the curated-lock check part of the same atomic write as the update.
type TopicRepository interface {
	Upsert(ctx context.Context, topic domain.ScoredTopic) (bool, error)
	LogRun(ctx context.Context, run domain.ScanRun) error
}

// TopicStore is the read and curation side used by the CLI and draft service.
type TopicStore interface {
	TopicRepository
	Query(ctx context.Context, filter domain.TopicFilter) ([]domain.Topic, error)
	GetByID(ctx context.Context, id string) (domain.Topic, error)
	SetStatus(ctx context.Context, id string, status string) error
	SetDraft(ctx context.Context, id string, draft string) error
	SetFactCheck(ctx context.Context, id string, checked bool, notes string) error
	Stats(ctx context.Context) (domain.Stats, error)
	LastRunPerSource(ctx context.Context) ([]domain.SourceHealth, error)
	RecentRuns(ctx context.Context, limit int) ([]domain.ScanRun, error)
}

// SeedStore inserts curated topics that are not stored yet.
type SeedStore interface {
	EnsureSeeds(ctx context.Context, seeds []domain.Topic) (int, error)
}

// DraftWriter turns a topic into long-form post text (LLM-backed).
type DraftWriter interface {
	WriteDraft(ctx context.Context, topic domain.Topic) (string, error)
}

// Notifier streams digests of fresh high-scoring topics to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when scans execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
