// Package scoring computes the four capped sub-scores of a topic.
//
// Score = Relevance(0-40) + Engagement(0-30) + Freshness(0-20) + Virality(0-10)
package scoring

import (
	"math"
	"strings"

	"TopicScanner/internal/domain"
)

const (
	maxRelevance  = 40
	maxEngagement = 30
	maxVirality   = 10

	pointsPerNiche         = 10
	pointsPerStrongKeyword = 5

	defaultRank    = 9999
	defaultUpvotes = 50
	flatEngagement = 20
)

// Scorer is deterministic and side-effect free.
type Scorer struct {
	strong []string
}

// New builds a scorer around the strong-keyword list.
func New(strongKeywords []string) *Scorer {
	strong := make([]string, 0, len(strongKeywords))
	for _, kw := range strongKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			strong = append(strong, kw)
		}
	}
	return &Scorer{strong: strong}
}

// Score returns a new ScoredTopic; the input is not modified.
func (s *Scorer) Score(t domain.NormalizedTopic) domain.ScoredTopic {
	return domain.ScoredTopic{
		NormalizedTopic: t,
		Scores: domain.Scores{
			Relevance:  s.Relevance(t.Title, t.Niches),
			Engagement: Engagement(t.Metrics),
			Freshness:  Freshness(t.AgeHours),
			Virality:   Virality(t.Metrics),
		},
	}
}

// Relevance gives 10 per distinct niche and 5 per strong keyword found in the title.
func (s *Scorer) Relevance(title string, niches domain.NicheSet) int {
	score := len(domain.NewNicheSet(niches...)) * pointsPerNiche

	lower := strings.ToLower(title)
	for _, kw := range s.strong {
		if strings.Contains(lower, kw) {
			score += pointsPerStrongKeyword
		}
	}
	return min(maxRelevance, score)
}

// Engagement depends on the metric variant of the source.
func Engagement(m domain.Metrics) int {
	switch v := m.(type) {
	case domain.DiscussionMetrics:
		points := max(v.Points, 0)
		return min(maxEngagement, roundLog2(points, 3))
	case domain.MarketMetrics:
		rank := v.Rank
		if rank <= 0 {
			rank = defaultRank
		}
		switch {
		case rank <= 50:
			return 28
		case rank <= 100:
			return 22
		case rank <= 300:
			return 16
		default:
			return 10
		}
	case domain.LaunchMetrics:
		upvotes := v.Upvotes
		if upvotes <= 0 {
			upvotes = defaultUpvotes
		}
		return min(maxEngagement, roundLog2(upvotes, 3.5))
	default:
		return flatEngagement
	}
}

// Freshness buckets the age in hours; negative ages count as freshest.
func Freshness(ageHours float64) int {
	switch {
	case ageHours < 2:
		return 20
	case ageHours < 6:
		return 16
	case ageHours < 12:
		return 12
	case ageHours < 24:
		return 8
	default:
		return 4
	}
}

// Virality is a bonus for heavy discussion or large price moves.
func Virality(m domain.Metrics) int {
	bonus := 0
	switch v := m.(type) {
	case domain.DiscussionMetrics:
		if v.Comments > 50 {
			bonus += 3
		}
		if v.Comments > 200 {
			bonus += 4
		}
	case domain.MarketMetrics:
		pct := math.Abs(v.PriceChange24h)
		if pct > 20 {
			bonus += 5
		}
		if pct > 50 {
			bonus += 5
		}
	}
	return min(maxVirality, bonus)
}

func roundLog2(n int, factor float64) int {
	return int(math.Round(math.Log2(float64(n)+1) * factor))
}
