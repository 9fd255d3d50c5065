package httpapi

import (
	"time"

	"TopicScanner/internal/domain"
)

// TopicView is the JSON shape of a topic.
type TopicView struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Source        string    `json:"source"`
	Niches        []string  `json:"niches"`
	ContentType   string    `json:"content_type"`
	Score         int       `json:"score"`
	Relevance     int       `json:"relevance"`
	Engagement    int       `json:"engagement"`
	Freshness     int       `json:"freshness"`
	Virality      int       `json:"virality"`
	AgeHours      float64   `json:"age_hours"`
	Velocity      string    `json:"velocity,omitempty"`
	Hook          string    `json:"hook"`
	PostIdea      string    `json:"post_idea"`
	SourceURL     string    `json:"source_url"`
	SourceTitle   string    `json:"source_title"`
	DiscussionURL string    `json:"discussion_url,omitempty"`
	Metrics       any       `json:"metrics"`
	FactChecked   bool      `json:"fact_checked"`
	FactNotes     string    `json:"fact_notes"`
	Status        string    `json:"status"`
	Draft         string    `json:"draft,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewTopicView flattens a topic for the API.
func NewTopicView(t domain.Topic) TopicView {
	niches := t.Niches.Strings()
	return TopicView{
		ID:            t.ID,
		Title:         t.Title,
		Source:        string(t.Source),
		Niches:        niches,
		ContentType:   string(t.ContentType),
		Score:         t.Score(),
		Relevance:     t.Scores.Relevance,
		Engagement:    t.Scores.Engagement,
		Freshness:     t.Scores.Freshness,
		Virality:      t.Scores.Virality,
		AgeHours:      t.AgeHours,
		Velocity:      t.Velocity,
		Hook:          t.Hook,
		PostIdea:      t.PostIdea,
		SourceURL:     t.SourceURL,
		SourceTitle:   t.SourceTitle,
		DiscussionURL: t.DiscussionURL,
		Metrics:       t.Metrics,
		FactChecked:   t.FactChecked,
		FactNotes:     t.FactNotes,
		Status:        string(t.Status),
		Draft:         t.Draft,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// RunView is the JSON shape of a scan run.
type RunView struct {
	ID         string    `json:"id"`
	CycleID    string    `json:"cycle_id"`
	Source     string    `json:"source"`
	ItemsFound int       `json:"items_found"`
	ItemsNew   int       `json:"items_new"`
	Error      string    `json:"error,omitempty"`
	ScannedAt  time.Time `json:"scanned_at"`
}

// NewRunView converts a scan run.
func NewRunView(run domain.ScanRun) RunView {
	return RunView{
		ID:         run.ID,
		CycleID:    run.CycleID,
		Source:     string(run.Source),
		ItemsFound: run.ItemsFound,
		ItemsNew:   run.ItemsNew,
		Error:      run.Error,
		ScannedAt:  run.Timestamp,
	}
}

// StatsView combines topic counts with per-source scan health.
type StatsView struct {
	Total    int                `json:"total"`
	ByStatus map[string]int     `json:"by_status"`
	BySource map[string]int     `json:"by_source"`
	Sources  []SourceHealthView `json:"sources"`
}

// SourceHealthView is the latest scan of one source.
type SourceHealthView struct {
	Source   string    `json:"source"`
	LastScan time.Time `json:"last_scan"`
	Errors   int       `json:"errors"`
}

// NewStatsView converts repository aggregates.
func NewStatsView(stats domain.Stats, health []domain.SourceHealth) StatsView {
	view := StatsView{
		Total:    stats.Total,
		ByStatus: map[string]int{},
		BySource: map[string]int{},
		Sources:  make([]SourceHealthView, 0, len(health)),
	}
	for status, n := range stats.ByStatus {
		view.ByStatus[string(status)] = n
	}
	for source, n := range stats.BySource {
		view.BySource[string(source)] = n
	}
	for _, h := range health {
		view.Sources = append(view.Sources, SourceHealthView{
			Source:   string(h.Source),
			LastScan: h.LastScan,
			Errors:   h.Errors,
		})
	}
	return view
}
