package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"TopicScanner/internal/domain"
	"TopicScanner/internal/ports"
)

type memStore struct {
	mu      sync.Mutex
	topics  map[string]domain.Topic
	runs    []domain.ScanRun
	failIDs map[string]bool
	drafts  int
}

var _ ports.TopicStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{topics: map[string]domain.Topic{}, failIDs: map[string]bool{}}
}

func (m *memStore) Upsert(_ context.Context, topic domain.ScoredTopic) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIDs[topic.ID] {
		return false, errors.New("constraint violated")
	}
	existing, ok := m.topics[topic.ID]
	if !ok {
		m.topics[topic.ID] = domain.Topic{ScoredTopic: topic, Status: domain.StatusNew}
		return true, nil
	}
	if !existing.Status.Locked() {
		existing.Scores = topic.Scores
		m.topics[topic.ID] = existing
	}
	return false, nil
}

func (m *memStore) LogRun(_ context.Context, run domain.ScanRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memStore) Query(context.Context, domain.TopicFilter) ([]domain.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Topic, 0, len(m.topics))
	for _, t := range m.topics {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (domain.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.topics[id]
	if !ok {
		return domain.Topic{}, fmt.Errorf("%w: %s", domain.ErrTopicNotFound, id)
	}
	return t, nil
}

func (m *memStore) SetStatus(_ context.Context, id string, status string) error {
	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return err
	}
	return m.mutate(id, func(t *domain.Topic) { t.Status = parsed })
}

func (m *memStore) SetDraft(_ context.Context, id string, draft string) error {
	return m.mutate(id, func(t *domain.Topic) {
		m.drafts++
		t.Draft = draft
		t.Status = domain.StatusDrafted
	})
}

func (m *memStore) SetFactCheck(_ context.Context, id string, checked bool, notes string) error {
	return m.mutate(id, func(t *domain.Topic) {
		t.FactChecked = checked
		t.FactNotes = notes
	})
}

func (m *memStore) Stats(context.Context) (domain.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.Stats{Total: len(m.topics)}, nil
}

func (m *memStore) LastRunPerSource(context.Context) ([]domain.SourceHealth, error) {
	return nil, nil
}

func (m *memStore) RecentRuns(context.Context, int) ([]domain.ScanRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ScanRun(nil), m.runs...), nil
}

func (m *memStore) mutate(id string, fn func(*domain.Topic)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.topics[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrTopicNotFound, id)
	}
	fn(&t)
	m.topics[id] = t
	return nil
}

func (m *memStore) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

type stubScanner struct {
	name    domain.Source
	topics  []domain.ScoredTopic
	err     error
	panics  bool
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (s *stubScanner) Name() domain.Source { return s.name }

func (s *stubScanner) Scan(ctx context.Context) ([]domain.ScoredTopic, error) {
	s.calls.Add(1)
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.panics {
		panic("unexpected payload")
	}
	return s.topics, s.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, digest)
	return nil
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func scored(id string, source domain.Source, score int) domain.ScoredTopic {
	return domain.ScoredTopic{
		NormalizedTopic: domain.NormalizedTopic{
			ID:          id,
			Title:       "Title " + id,
			Source:      source,
			Niches:      domain.NicheSet{domain.NicheAIMarketing},
			ContentType: domain.ContentExpert,
			Hook:        "hook " + id,
			SourceURL:   "https://example.com/" + id,
		},
		Scores: domain.Scores{Relevance: score},
	}
}

var fixedTime = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
