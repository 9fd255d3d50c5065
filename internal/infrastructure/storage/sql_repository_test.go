package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"

	"TopicScanner/internal/domain"
)

var testClock = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func openTestRepo(t *testing.T) *SQLRepository {
	t.Helper()

	repo, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "db", "topics.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	repo.now = func() time.Time { return testClock }
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func makeTopic(id string, relevance int, age float64, niches ...domain.Niche) domain.ScoredTopic {
	if len(niches) == 0 {
		niches = []domain.Niche{domain.NicheAIMarketing}
	}
	return domain.ScoredTopic{
		NormalizedTopic: domain.NormalizedTopic{
			ID:          id,
			Title:       "Topic " + id,
			Source:      domain.SourceHackerNews,
			Niches:      domain.NewNicheSet(niches...),
			ContentType: domain.ContentTools,
			AgeHours:    age,
			Hook:        "hook " + id,
			PostIdea:    "idea " + id,
			SourceURL:   "https://example.com/" + id,
			SourceTitle: "Hacker News",
			Metrics:     domain.DiscussionMetrics{Points: 10, Comments: 2},
		},
		Scores: domain.Scores{Relevance: relevance, Engagement: 10, Freshness: 5, Virality: 0},
	}
}

func TestOpenInMemorySharesOneDatabase(t *testing.T) {
	t.Parallel()

	for _, dsn := range []string{":memory:", "file:shared?mode=memory"} {
		repo, err := Open(context.Background(), DriverSQLite, dsn)
		if err != nil {
			t.Fatalf("open %s: %v", dsn, err)
		}
		if repo.read != repo.write {
			t.Fatalf("%s: expected one pool for an in-memory database", dsn)
		}
		if _, err := repo.Upsert(context.Background(), makeTopic("mem-1", 50, 2)); err != nil {
			t.Fatalf("%s: upsert: %v", dsn, err)
		}
		topics, err := repo.Query(context.Background(), domain.TopicFilter{})
		if err != nil {
			t.Fatalf("%s: query: %v", dsn, err)
		}
		if len(topics) != 1 || topics[0].ID != "mem-1" {
			t.Fatalf("%s: written topic not visible to reads: %+v", dsn, topics)
		}
		if err := repo.Close(); err != nil {
			t.Fatalf("%s: close: %v", dsn, err)
		}
	}
}

func TestIsMemoryDSN(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		":memory:":                     true,
		"file::memory:?cache=shared":   true,
		"file:topics?mode=memory":      true,
		"data/topics.db":               false,
		"file:data/topics.db?mode=rwc": false,
	}
	for dsn, want := range cases {
		if got := isMemoryDSN(dsn); got != want {
			t.Fatalf("isMemoryDSN(%q) = %v, want %v", dsn, got, want)
		}
	}
}

func TestUpsertReportsNewOnlyOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := openTestRepo(t)

	topic := makeTopic("hn-1", 20, 1.5, domain.NicheAIMarketing, domain.NicheGrowth)
	isNew, err := repo.Upsert(ctx, topic)
	if err != nil || !isNew {
		t.Fatalf("first upsert: new=%v err=%v", isNew, err)
	}
	isNew, err = repo.Upsert(ctx, topic)
	if err != nil || isNew {
		t.Fatalf("second upsert: new=%v err=%v", isNew, err)
	}

	got, err := repo.GetByID(ctx, "hn-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusNew || got.Score() != 35 || got.AgeHours != 1.5 {
		t.Fatalf("unexpected topic %+v", got)
	}
	if got.Niches.String() != "AI + Marketing, Growth Marketing" {
		t.Fatalf("niches round trip: %v", got.Niches)
	}
	if m, ok := got.Metrics.(domain.DiscussionMetrics); !ok || m.Points != 10 || m.Comments != 2 {
		t.Fatalf("metrics round trip: %#v", got.Metrics)
	}
	if !got.CreatedAt.Equal(testClock) {
		t.Fatalf("created_at = %v", got.CreatedAt)
	}
}

func TestUpsertRefreshesScanFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := openTestRepo(t)

	if _, err := repo.Upsert(ctx, makeTopic("hn-2", 10, 1)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	later := testClock.Add(time.Hour)
	repo.now = func() time.Time { return later }

	refreshed := makeTopic("hn-2", 30, 2)
	refreshed.Hook = "new hook"
	refreshed.Velocity = "+5.0%"
	if _, err := repo.Upsert(ctx, refreshed); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	got, err := repo.GetByID(ctx, "hn-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Scores.Relevance != 30 || got.AgeHours != 2 || got.Hook != "new hook" || got.Velocity != "+5.0%" {
		t.Fatalf("scan fields not refreshed: %+v", got)
	}
	if !got.UpdatedAt.Equal(later) || !got.CreatedAt.Equal(testClock) {
		t.Fatalf("timestamps created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestUpsertLeavesCuratedTopicsAlone(t *testing.T) {
	t.Parallel()

	for _, status := range []string{"starred", "published"} {
		t.Run(status, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			repo := openTestRepo(t)

			if _, err := repo.Upsert(ctx, makeTopic("hn-3", 10, 1)); err != nil {
				t.Fatalf("upsert: %v", err)
			}
			if err := repo.SetStatus(ctx, "hn-3", status); err != nil {
				t.Fatalf("set status: %v", err)
			}

			changed := makeTopic("hn-3", 40, 9)
			changed.Hook = "should not land"
			isNew, err := repo.Upsert(ctx, changed)
			if err != nil || isNew {
				t.Fatalf("locked upsert: new=%v err=%v", isNew, err)
			}

			got, err := repo.GetByID(ctx, "hn-3")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Hook != "hook hn-3" || got.Scores.Relevance != 10 || got.AgeHours != 1 {
				t.Fatalf("curated topic modified: %+v", got)
			}
			if string(got.Status) != status {
				t.Fatalf("status = %s", got.Status)
			}
		})
	}
}

func TestUpsertValidatesBeforeWriting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := openTestRepo(t)

	bad := makeTopic("", 10, 1)
	if _, err := repo.Upsert(ctx, bad); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("expected empty store, got %d", stats.Total)
	}
}

func TestConcurrentUpsertsOfSameID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := openTestRepo(t)

	var (
		wg    sync.WaitGroup
		fresh atomic.Int32
		fails atomic.Int32
	)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			isNew, err := repo.Upsert(ctx, makeTopic("hn-race", 10+i, 1))
			if err != nil {
				fails.Add(1)
				return
			}
			if isNew {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()

	if fails.Load() != 0 {
		t.Fatalf("%d upserts failed", fails.Load())
	}
	if fresh.Load() != 1 {
		t.Fatalf("expected exactly one insert, got %d", fresh.Load())
	}
}

func TestQueryOrderingAndFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := openTestRepo(t)

	seed := []domain.ScoredTopic{
		makeTopic("a", 10, 5, domain.NicheCrypto),
		makeTopic("b", 30, 10, domain.NicheAIMarketing),
		makeTopic("c", 0, 20, domain.NicheGrowth),
		makeTopic("d", 40, 1),
		makeTopic("e", 40, 1),
	}
	seed[0].Source = domain.SourceCoinGecko
	seed[0].Metrics = domain.MarketMetrics{Rank: 3}
	for _, topic := range seed {
		if _, err := repo.Upsert(ctx, topic); err != nil {
			t.Fatalf("upsert %s: %v", topic.ID, err)
		}
	}
	mustStatus(t, repo, "c", "starred")
	mustStatus(t, repo, "d", "published")
	mustStatus(t, repo, "e", "skipped")

	got, err := repo.Query(ctx, domain.TopicFilter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	assertIDs(t, got, "c", "b", "a")

	got, err = repo.Query(ctx, domain.TopicFilter{Sort: domain.SortFresh})
	if err != nil {
		t.Fatalf("fresh query: %v", err)
	}
	assertIDs(t, got, "c", "a", "b")

	got, err = repo.Query(ctx, domain.TopicFilter{Niche: domain.NicheCrypto})
	if err != nil {
		t.Fatalf("niche query: %v", err)
	}
	assertIDs(t, got, "a")
	if m, ok := got[0].Metrics.(domain.MarketMetrics); !ok || m.Rank != 3 {
		t.Fatalf("market metrics round trip: %#v", got[0].Metrics)
	}

	got, err = repo.Query(ctx, domain.TopicFilter{Source: domain.SourceHackerNews, ContentType: domain.ContentTools})
	if err != nil {
		t.Fatalf("source query: %v", err)
	}
	assertIDs(t, got, "c", "b")
}

func TestQueryCapsPageSize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := openTestRepo(t)

	for i := range PageSize + 5 {
		if _, err := repo.Upsert(ctx, makeTopic(fmt.Sprintf("t-%02d", i), i%40, 1)); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	got, err := repo.Query(ctx, domain.TopicFilter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != PageSize {
		t.Fatalf("expected %d topics, got %d", PageSize, len(got))
	}
}

func TestCurationUpdates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := openTestRepo(t)

	if _, err := repo.Upsert(ctx, makeTopic("hn-9", 10, 1)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := repo.SetStatus(ctx, "hn-9", "archived"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid status error, got %v", err)
	}
	if err := repo.SetStatus(ctx, "missing", "starred"); !errors.Is(err, domain.ErrTopicNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrTopicNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mustStatus(t, repo, "hn-9", "starred")
	if err := repo.SetDraft(ctx, "hn-9", "draft body"); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	if err := repo.SetFactCheck(ctx, "hn-9", true, "verified with filings"); err != nil {
		t.Fatalf("fact check: %v", err)
	}

	got, err := repo.GetByID(ctx, "hn-9")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusDrafted || got.Draft != "draft body" {
		t.Fatalf("draft not applied: %+v", got)
	}
	if !got.FactChecked || got.FactNotes != "verified with filings" {
		t.Fatalf("fact check not applied: %+v", got)
	}
	if err := repo.SetDraft(ctx, "missing", "x"); !errors.Is(err, domain.ErrTopicNotFound) {
		t.Fatalf("expected not found for draft, got %v", err)
	}
}

func TestStatsAndRunHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := openTestRepo(t)

	for _, id := range []string{"x1", "x2", "x3"} {
		if _, err := repo.Upsert(ctx, makeTopic(id, 10, 1)); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	mustStatus(t, repo, "x3", "starred")

	runs := []domain.ScanRun{
		{Source: domain.SourceHackerNews, ItemsFound: 3, ItemsNew: 3, Timestamp: testClock},
		{Source: domain.SourceCoinGecko, Error: "timeout", Timestamp: testClock.Add(time.Minute)},
		{Source: domain.SourceHackerNews, ItemsFound: 2, Error: "partial", Timestamp: testClock.Add(2 * time.Minute)},
	}
	for _, run := range runs {
		if err := repo.LogRun(ctx, run); err != nil {
			t.Fatalf("log run: %v", err)
		}
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 || stats.ByStatus[domain.StatusNew] != 2 || stats.ByStatus[domain.StatusStarred] != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.BySource[domain.SourceHackerNews] != 3 {
		t.Fatalf("unexpected per-source stats %+v", stats.BySource)
	}

	health, err := repo.LastRunPerSource(ctx)
	if err != nil {
		t.Fatalf("last run: %v", err)
	}
	if len(health) != 2 {
		t.Fatalf("expected 2 sources, got %+v", health)
	}
	byName := map[domain.Source]domain.SourceHealth{}
	for _, h := range health {
		byName[h.Source] = h
	}
	hn := byName[domain.SourceHackerNews]
	if !hn.LastScan.Equal(testClock.Add(2*time.Minute)) || hn.Errors != 1 {
		t.Fatalf("unexpected hn health %+v", hn)
	}
	if byName[domain.SourceCoinGecko].Errors != 1 {
		t.Fatalf("unexpected coingecko health %+v", byName[domain.SourceCoinGecko])
	}

	recent, err := repo.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(recent) != 2 || recent[0].Error != "partial" || recent[1].Source != domain.SourceCoinGecko {
		t.Fatalf("unexpected recent runs %+v", recent)
	}
	if recent[0].ID == "" {
		t.Fatal("expected generated run id")
	}
}

func TestEnsureSeedsInsertsOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := openTestRepo(t)

	seed := domain.Topic{ScoredTopic: makeTopic("seed-1", 20, 0), FactChecked: true, FactNotes: "checked"}
	seed.Source = domain.SourceSeed
	seed.Metrics = domain.NoMetrics{}

	added, err := repo.EnsureSeeds(ctx, []domain.Topic{seed})
	if err != nil || added != 1 {
		t.Fatalf("first seeding: added=%d err=%v", added, err)
	}
	added, err = repo.EnsureSeeds(ctx, []domain.Topic{seed})
	if err != nil || added != 0 {
		t.Fatalf("second seeding: added=%d err=%v", added, err)
	}

	got, err := repo.GetByID(ctx, "seed-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.FactChecked || got.FactNotes != "checked" || got.Status != domain.StatusNew {
		t.Fatalf("unexpected seed %+v", got)
	}
}

func TestUpsertRollsBackOnInsertFailure(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO topics").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	repo := NewSQLRepository(db, db, sq.Dollar)
	if _, err := repo.Upsert(context.Background(), makeTopic("hn-1", 10, 1)); err == nil {
		t.Fatal("expected insert error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLogRunPropagatesErrors(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO scan_log").
		WithArgs(sqlmock.AnyArg(), "cycle-1", "coingecko", 0, 0, "boom", sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	repo := NewSQLRepository(db, nil, sq.Dollar)
	err = repo.LogRun(context.Background(), domain.ScanRun{CycleID: "cycle-1", Source: domain.SourceCoinGecko, Error: "boom"})
	if err == nil {
		t.Fatal("expected log run error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func mustStatus(t *testing.T, repo *SQLRepository, id, status string) {
	t.Helper()
	if err := repo.SetStatus(context.Background(), id, status); err != nil {
		t.Fatalf("set status %s=%s: %v", id, status, err)
	}
}

func assertIDs(t *testing.T, topics []domain.Topic, want ...string) {
	t.Helper()
	if len(topics) != len(want) {
		t.Fatalf("expected %v, got %d topics", want, len(topics))
	}
	for i, topic := range topics {
		if topic.ID != want[i] {
			got := make([]string, len(topics))
			for j, tp := range topics {
				got[j] = tp.ID
			}
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
