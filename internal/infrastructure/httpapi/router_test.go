package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"TopicScanner/internal/domain"
	"TopicScanner/internal/infrastructure/storage"
)

type fakeScans struct {
	running atomic.Bool
	started atomic.Int32
}

func (f *fakeScans) TriggerAsync(context.Context) bool {
	if f.running.Load() {
		return false
	}
	f.started.Add(1)
	return true
}

func (f *fakeScans) Running() bool { return f.running.Load() }

type fakeDrafts struct {
	store *storage.SQLRepository
	err   error
}

func (f *fakeDrafts) Generate(ctx context.Context, id string) (domain.Topic, error) {
	if f.err != nil {
		return domain.Topic{}, f.err
	}
	if err := f.store.SetDraft(ctx, id, "generated"); err != nil {
		return domain.Topic{}, err
	}
	return f.store.GetByID(ctx, id)
}

func newTestServer(t *testing.T, scans *fakeScans, drafts *fakeDrafts) (*httptest.Server, *storage.SQLRepository) {
	t.Helper()

	repo, err := storage.Open(context.Background(), storage.DriverSQLite, filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	topics := []domain.ScoredTopic{
		{
			NormalizedTopic: domain.NormalizedTopic{
				ID: "hn-1", Title: "AI growth loops", Source: domain.SourceHackerNews,
				Niches: domain.NicheSet{domain.NicheAIMarketing}, ContentType: domain.ContentTools,
				Metrics: domain.DiscussionMetrics{Points: 12},
			},
			Scores: domain.Scores{Relevance: 20, Engagement: 10},
		},
		{
			NormalizedTopic: domain.NormalizedTopic{
				ID: "cg-btc", Title: "Bitcoin (BTC): +3.0% in 24h, rank #1", Source: domain.SourceCoinGecko,
				Niches: domain.NicheSet{domain.NicheCrypto, domain.NicheGTM}, ContentType: domain.ContentExpert,
				Metrics: domain.MarketMetrics{Rank: 1, PriceChange24h: 3},
			},
			Scores: domain.Scores{Relevance: 20, Engagement: 28, Freshness: 20},
		},
	}
	for _, topic := range topics {
		if _, err := repo.Upsert(context.Background(), topic); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	deps := Deps{Store: repo, Scans: scans}
	if drafts != nil {
		drafts.store = repo
		deps.Drafts = drafts
	}
	srv := httptest.NewServer(NewRouter(deps))
	t.Cleanup(srv.Close)
	return srv, repo
}

func TestListAndFilterTopics(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, &fakeScans{}, nil)

	var all []TopicView
	getJSON(t, srv.URL+"/api/topics", http.StatusOK, &all)
	if len(all) != 2 || all[0].ID != "cg-btc" {
		t.Fatalf("unexpected topics %+v", all)
	}

	var crypto []TopicView
	getJSON(t, srv.URL+"/api/topics?niche=Crypto+%2F+Web3", http.StatusOK, &crypto)
	if len(crypto) != 1 || crypto[0].ID != "cg-btc" {
		t.Fatalf("niche filter failed: %+v", crypto)
	}

	resp, err := http.Get(srv.URL + "/api/topics?source=reddit")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown source, got %d", resp.StatusCode)
	}
}

func TestTopicCuration(t *testing.T) {
	t.Parallel()
	srv, repo := newTestServer(t, &fakeScans{}, nil)

	if code := postJSON(t, srv.URL+"/api/topics/hn-1/status", `{"status":"starred"}`); code != http.StatusOK {
		t.Fatalf("status update returned %d", code)
	}
	if code := postJSON(t, srv.URL+"/api/topics/hn-1/status", `{"status":"archived"}`); code != http.StatusBadRequest {
		t.Fatalf("invalid status returned %d", code)
	}
	if code := postJSON(t, srv.URL+"/api/topics/nope/status", `{"status":"starred"}`); code != http.StatusNotFound {
		t.Fatalf("unknown topic returned %d", code)
	}
	if code := postJSON(t, srv.URL+"/api/topics/hn-1/factcheck", `{"checked":true,"notes":"ok"}`); code != http.StatusOK {
		t.Fatalf("fact check returned %d", code)
	}

	var topic TopicView
	getJSON(t, srv.URL+"/api/topics/hn-1", http.StatusOK, &topic)
	if topic.Status != "starred" || !topic.FactChecked {
		t.Fatalf("curation not applied: %+v", topic)
	}

	if code := postJSON(t, srv.URL+"/api/topics/hn-1/draft", `{"draft":"hand written"}`); code != http.StatusOK {
		t.Fatalf("draft save returned %d", code)
	}
	stored, err := repo.GetByID(context.Background(), "hn-1")
	if err != nil || stored.Status != domain.StatusDrafted {
		t.Fatalf("draft not stored: %+v %v", stored, err)
	}
}

func TestSaveDraftRequiresDraftField(t *testing.T) {
	t.Parallel()
	srv, repo := newTestServer(t, &fakeScans{}, nil)

	if code := postJSON(t, srv.URL+"/api/topics/hn-1/draft", `{"draft":"first take"}`); code != http.StatusOK {
		t.Fatalf("draft save returned %d", code)
	}
	if err := repo.SetStatus(context.Background(), "hn-1", "starred"); err != nil {
		t.Fatalf("star: %v", err)
	}

	if code := postJSON(t, srv.URL+"/api/topics/hn-1/draft", `{}`); code != http.StatusBadRequest {
		t.Fatalf("missing draft returned %d", code)
	}
	stored, err := repo.GetByID(context.Background(), "hn-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Draft != "first take" || stored.Status != domain.StatusStarred {
		t.Fatalf("rejected request still wrote: draft=%q status=%s", stored.Draft, stored.Status)
	}

	if code := postJSON(t, srv.URL+"/api/topics/hn-1/draft", `{"draft":""}`); code != http.StatusOK {
		t.Fatalf("explicit empty draft returned %d", code)
	}
}

func TestGenerateDraftEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &fakeScans{}, &fakeDrafts{})
	var body map[string]string
	resp, err := http.Post(srv.URL+"/api/topics/hn-1/generate", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || body["draft"] != "generated" {
		t.Fatalf("unexpected response %d %v", resp.StatusCode, body)
	}

	failing, _ := newTestServer(t, &fakeScans{}, &fakeDrafts{err: errors.Join(domain.ErrGenerationFailed, errors.New("no key"))})
	if code := postJSON(t, failing.URL+"/api/topics/hn-1/generate", ``); code != http.StatusBadGateway {
		t.Fatalf("generation failure returned %d", code)
	}
}

func TestTriggerScanIsCoalesced(t *testing.T) {
	t.Parallel()

	scans := &fakeScans{}
	srv, _ := newTestServer(t, scans, nil)

	var body map[string]any
	postJSONInto(t, srv.URL+"/api/scan", http.StatusAccepted, &body)
	if body["started"] != true || scans.started.Load() != 1 {
		t.Fatalf("scan not started: %v", body)
	}

	scans.running.Store(true)
	postJSONInto(t, srv.URL+"/api/scan", http.StatusAccepted, &body)
	if body["started"] != false || body["status"] != "already running" {
		t.Fatalf("expected coalesced answer, got %v", body)
	}

	var health map[string]any
	getJSON(t, srv.URL+"/healthz", http.StatusOK, &health)
	if health["scanning"] != true {
		t.Fatalf("unexpected health %v", health)
	}
}

func TestStatsAndMetricsEndpoints(t *testing.T) {
	t.Parallel()
	srv, repo := newTestServer(t, &fakeScans{}, nil)

	if err := repo.LogRun(context.Background(), domain.ScanRun{Source: domain.SourceCoinGecko, ItemsFound: 1, ItemsNew: 1}); err != nil {
		t.Fatalf("log run: %v", err)
	}

	var stats StatsView
	getJSON(t, srv.URL+"/api/stats", http.StatusOK, &stats)
	if stats.Total != 2 || stats.BySource["coingecko"] != 1 || len(stats.Sources) != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	var runs []RunView
	getJSON(t, srv.URL+"/api/scans?limit=5", http.StatusOK, &runs)
	if len(runs) != 1 || runs[0].Source != "coingecko" {
		t.Fatalf("unexpected runs %+v", runs)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(resp.Header.Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected metrics response %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("get %s: status %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func postJSON(t *testing.T, url, body string) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func postJSONInto(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("post %s: status %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}
