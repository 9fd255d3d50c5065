package sources

import (
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"TopicScanner/internal/classify"
	"TopicScanner/internal/scoring"
)

// Deps wires the collaborators shared by every adapter.
type Deps struct {
	Fetcher    *Fetcher
	Classifier *classify.Classifier
	Scorer     *scoring.Scorer
	Now        func() time.Time
	Logger     *slog.Logger
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) debug(msg string, args ...any) {
	if d.Logger != nil {
		d.Logger.Debug(msg, args...)
	}
}

// ageHours is rounded to one decimal before scoring.
func ageHours(now, published time.Time) float64 {
	return math.Round(now.Sub(published).Hours()*10) / 10
}

var slugExpr = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// slugify collapses non-alphanumeric runs to "-", lowercases and truncates to 40 chars.
func slugify(value string) string {
	slug := strings.ToLower(slugExpr.ReplaceAllString(value, "-"))
	if len(slug) > 40 {
		slug = slug[:40]
	}
	return slug
}

// snippetText flattens an HTML fragment into single-spaced text.
func snippetText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
