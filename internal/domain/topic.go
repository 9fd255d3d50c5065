package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies the upstream provider a topic was harvested from.
type Source string

const (
	SourceHackerNews  Source = "hackernews"
	SourceCoinGecko   Source = "coingecko"
	SourceProductHunt Source = "producthunt"
	SourceSeed        Source = "seed"
)

// AllSources returns every known source in canonical order.
func AllSources() []Source {
	return []Source{SourceHackerNews, SourceCoinGecko, SourceProductHunt, SourceSeed}
}

// ParseSource validates a source name.
func ParseSource(value string) (Source, error) {
	for _, s := range AllSources() {
		if string(s) == value {
			return s, nil
		}
	}
	return "", invalid("source", value)
}

// ContentType is the editorial angle assigned once at ingestion.
type ContentType string

const (
	ContentExpert      ContentType = "expert"
	ContentEducational ContentType = "educational"
	ContentViral       ContentType = "viral"
	ContentTools       ContentType = "tools"
)

// ParseContentType validates a content type label.
func ParseContentType(value string) (ContentType, error) {
	switch ct := ContentType(value); ct {
	case ContentExpert, ContentEducational, ContentViral, ContentTools:
		return ct, nil
	}
	return "", invalid("content type", value)
}

// Status is the curation lifecycle state of a topic.
type Status string

const (
	StatusNew       Status = "new"
	StatusStarred   Status = "starred"
	StatusDrafted   Status = "drafted"
	StatusPublished Status = "published"
	StatusSkipped   Status = "skipped"
)

// AllStatuses returns the lifecycle states in display order.
func AllStatuses() []Status {
	return []Status{StatusNew, StatusStarred, StatusDrafted, StatusPublished, StatusSkipped}
}

// ParseStatus validates a status value coming from a curation call.
func ParseStatus(value string) (Status, error) {
	for _, s := range AllStatuses() {
		if string(s) == value {
			return s, nil
		}
	}
	return "", invalid("status", value)
}

// Locked reports whether re-ingestion must leave scan fields untouched.
func (s Status) Locked() bool {
	return s == StatusStarred || s == StatusPublished
}

// Niche is one of the fixed topical categories.
type Niche string

const (
	NicheAIMarketing Niche = "AI + Marketing"
	NicheCrypto      Niche = "Crypto / Web3"
	NicheGrowth      Niche = "Growth Marketing"
	NicheGTM         Niche = "GTM Strategy"
)

// AllNiches returns the fixed niche vocabulary in emission order.
func AllNiches() []Niche {
	return []Niche{NicheAIMarketing, NicheCrypto, NicheGrowth, NicheGTM}
}

// ParseNiche validates a niche label.
func ParseNiche(value string) (Niche, error) {
	for _, n := range AllNiches() {
		if string(n) == value {
			return n, nil
		}
	}
	return "", invalid("niche", value)
}

// NicheSet is an insertion-ordered set of niches.
type NicheSet []Niche

// NewNicheSet builds a set, dropping duplicates while keeping first-seen order.
func NewNicheSet(niches ...Niche) NicheSet {
	var set NicheSet
	for _, n := range niches {
		set = set.With(n)
	}
	return set
}

// Contains reports membership.
func (s NicheSet) Contains(n Niche) bool {
	for _, existing := range s {
		if existing == n {
			return true
		}
	}
	return false
}

// With returns a new set with n appended when absent.
func (s NicheSet) With(n Niche) NicheSet {
	if s.Contains(n) {
		return s
	}
	out := make(NicheSet, 0, len(s)+1)
	out = append(out, s...)
	return append(out, n)
}

// Prepend returns a new set with n moved to the front.
func (s NicheSet) Prepend(n Niche) NicheSet {
	out := NicheSet{n}
	for _, existing := range s {
		if existing != n {
			out = append(out, existing)
		}
	}
	return out
}

// Strings converts the set for serialization.
func (s NicheSet) Strings() []string {
	out := make([]string, len(s))
	for i, n := range s {
		out[i] = string(n)
	}
	return out
}

func (s NicheSet) String() string {
	return strings.Join(s.Strings(), ", ")
}

// NormalizedTopic is a candidate produced by a source adapter before scoring.
type NormalizedTopic struct {
	ID            string
	Title         string
	Source        Source
	Niches        NicheSet
	ContentType   ContentType
	AgeHours      float64
	Velocity      string
	Hook          string
	PostIdea      string
	SourceURL     string
	SourceTitle   string
	DiscussionURL string
	Metrics       Metrics
}

// Scores holds the four capped sub-scores.
type Scores struct {
	Relevance  int
	Engagement int
	Freshness  int
	Virality   int
}

// Total is the sum of the sub-scores.
func (s Scores) Total() int {
	return s.Relevance + s.Engagement + s.Freshness + s.Virality
}

// ScoredTopic is a normalized candidate with its computed scores.
type ScoredTopic struct {
	NormalizedTopic
	Scores Scores
}

// Score returns the total score.
func (t ScoredTopic) Score() int {
	return t.Scores.Total()
}

// Topic is the persisted entity, including curation state.
type Topic struct {
	ScoredTopic
	FactChecked bool
	FactNotes   string
	Status      Status
	Draft       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the fields required for persistence.
func (t ScoredTopic) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if _, err := ParseSource(string(t.Source)); err != nil {
		return err
	}
	if _, err := ParseContentType(string(t.ContentType)); err != nil {
		return err
	}
	return nil
}

// ScanRun is the append-only outcome record of one adapter execution.
type ScanRun struct {
	ID         string
	CycleID    string
	Source     Source
	ItemsFound int
	ItemsNew   int
	Error      string
	Timestamp  time.Time
}

// Failed reports whether the run recorded an error.
func (r ScanRun) Failed() bool {
	return r.Error != ""
}

// SourceHealth summarizes scan history for one source.
type SourceHealth struct {
	Source   Source
	LastScan time.Time
	Errors   int
}

// Stats aggregates topic counts.
type Stats struct {
	Total    int
	ByStatus map[Status]int
	BySource map[Source]int
}

// SortMode selects the ordering of a topic query.
type SortMode string

const (
	SortScore SortMode = "score"
	SortFresh SortMode = "fresh"
)

// TopicFilter narrows a worklist query; zero values mean "any".
type TopicFilter struct {
	Source      Source
	ContentType ContentType
	Niche       Niche
	Sort        SortMode
}

func invalid(field, value string) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf("unknown value %q", value)}
}
