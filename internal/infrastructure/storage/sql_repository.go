package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"TopicScanner/internal/domain"
	"TopicScanner/internal/ports"
)

// PageSize caps every Query result.
const PageSize = 50

const defaultRecentRuns = 10

var topicColumns = []string{
	"id", "title", "source", "niches", "content_type",
	"relevance", "engagement", "freshness", "virality",
	"age_hours", "velocity", "hook", "post_idea",
	"source_url", "source_title", "discussion_url", "metrics",
	"fact_checked", "fact_notes", "status", "draft",
	"created_at", "updated_at",
}

var insertColumns = append(append([]string{}, topicColumns...), "score")

var lockedStatuses = []string{string(domain.StatusStarred), string(domain.StatusPublished)}

// SQLRepository persists topics and scan runs in SQLite or Postgres.
type SQLRepository struct {
	write *sql.DB
	read  *sql.DB
	sb    sq.StatementBuilderType
	now   func() time.Time
}

var _ ports.TopicStore = (*SQLRepository)(nil)

// NewSQLRepository wires already opened pools. write and read may be the same pool.
func NewSQLRepository(write, read *sql.DB, placeholder sq.PlaceholderFormat) *SQLRepository {
	if read == nil {
		read = write
	}
	return &SQLRepository{
		write: write,
		read:  read,
		sb:    sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:   time.Now,
	}
}

// Migrate creates tables and indexes when absent.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	if _, err := r.write.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases both pools.
func (r *SQLRepository) Close() error {
	err := r.write.Close()
	if r.read != r.write {
		err = errors.Join(err, r.read.Close())
	}
	return err
}

// Upsert inserts a new topic or refreshes the scan-owned fields of an existing
// one. Starred and published topics are left untouched; the lock check lives in
// the UPDATE statement so concurrent writers cannot act on a stale status.
func (r *SQLRepository) Upsert(ctx context.Context, topic domain.ScoredTopic) (bool, error) {
	if err := topic.Validate(); err != nil {
		return false, err
	}

	now := r.now().UnixMilli()
	insert, err := r.insertTopic(domain.Topic{ScoredTopic: topic, Status: domain.StatusNew}, now)
	if err != nil {
		return false, err
	}
	metrics, err := domain.EncodeMetrics(topic.Metrics)
	if err != nil {
		return false, err
	}

	tx, err := r.write.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, insert.query, insert.args...)
	if err != nil {
		return false, fmt.Errorf("insert topic %s: %w", topic.ID, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert topic %s: %w", topic.ID, err)
	}

	if inserted == 0 {
		query, args, err := r.sb.Update("topics").
			Set("relevance", topic.Scores.Relevance).
			Set("engagement", topic.Scores.Engagement).
			Set("freshness", topic.Scores.Freshness).
			Set("virality", topic.Scores.Virality).
			Set("score", topic.Score()).
			Set("age_hours", topic.AgeHours).
			Set("velocity", topic.Velocity).
			Set("hook", topic.Hook).
			Set("post_idea", topic.PostIdea).
			Set("metrics", string(metrics)).
			Set("updated_at", now).
			Where(sq.Eq{"id": topic.ID}).
			Where(sq.NotEq{"status": lockedStatuses}).
			ToSql()
		if err != nil {
			return false, fmt.Errorf("build refresh: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return false, fmt.Errorf("refresh topic %s: %w", topic.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit upsert: %w", err)
	}
	return inserted == 1, nil
}

// EnsureSeeds inserts curated topics whose ids are absent and reports how many were added.
func (r *SQLRepository) EnsureSeeds(ctx context.Context, seeds []domain.Topic) (int, error) {
	added := 0
	now := r.now().UnixMilli()
	for _, seed := range seeds {
		if err := seed.Validate(); err != nil {
			return added, fmt.Errorf("seed %q: %w", seed.ID, err)
		}
		if seed.Status == "" {
			seed.Status = domain.StatusNew
		}
		insert, err := r.insertTopic(seed, now)
		if err != nil {
			return added, err
		}
		res, err := r.write.ExecContext(ctx, insert.query, insert.args...)
		if err != nil {
			return added, fmt.Errorf("insert seed %s: %w", seed.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			added++
		}
	}
	return added, nil
}

type statement struct {
	query string
	args  []any
}

func (r *SQLRepository) insertTopic(t domain.Topic, now int64) (statement, error) {
	niches, err := json.Marshal(t.Niches.Strings())
	if err != nil {
		return statement{}, fmt.Errorf("encode niches: %w", err)
	}
	metrics, err := domain.EncodeMetrics(t.Metrics)
	if err != nil {
		return statement{}, err
	}

	query, args, err := r.sb.Insert("topics").
		Columns(insertColumns...).
		Values(
			t.ID, t.Title, string(t.Source), string(niches), string(t.ContentType),
			t.Scores.Relevance, t.Scores.Engagement, t.Scores.Freshness, t.Scores.Virality,
			t.AgeHours, t.Velocity, t.Hook, t.PostIdea,
			t.SourceURL, t.SourceTitle, t.DiscussionURL, string(metrics),
			t.FactChecked, t.FactNotes, string(t.Status), t.Draft,
			now, now, t.Score(),
		).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return statement{}, fmt.Errorf("build insert: %w", err)
	}
	return statement{query: query, args: args}, nil
}

// Query lists active topics, starred first, capped at PageSize.
func (r *SQLRepository) Query(ctx context.Context, filter domain.TopicFilter) ([]domain.Topic, error) {
	q := r.sb.Select(topicColumns...).
		From("topics").
		Where(sq.NotEq{"status": []string{string(domain.StatusPublished), string(domain.StatusSkipped)}})

	if filter.Source != "" {
		q = q.Where(sq.Eq{"source": string(filter.Source)})
	}
	if filter.ContentType != "" {
		q = q.Where(sq.Eq{"content_type": string(filter.ContentType)})
	}
	if filter.Niche != "" {
		quoted, err := json.Marshal(string(filter.Niche))
		if err != nil {
			return nil, fmt.Errorf("encode niche filter: %w", err)
		}
		q = q.Where(sq.Like{"niches": "%" + string(quoted) + "%"})
	}

	order := "score DESC"
	if filter.Sort == domain.SortFresh {
		order = "age_hours ASC"
	}
	q = q.OrderBy("CASE WHEN status = 'starred' THEN 0 ELSE 1 END", order, "id").Limit(PageSize)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}

	var topics []domain.Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		topics = append(topics, topic)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return topics, nil
}

// GetByID returns domain.ErrTopicNotFound for unknown ids.
func (r *SQLRepository) GetByID(ctx context.Context, id string) (domain.Topic, error) {
	query, args, err := r.sb.Select(topicColumns...).From("topics").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Topic{}, fmt.Errorf("build get: %w", err)
	}

	topic, err := scanTopic(r.read.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Topic{}, fmt.Errorf("%w: %s", domain.ErrTopicNotFound, id)
	}
	if err != nil {
		return domain.Topic{}, err
	}
	return topic, nil
}

// SetStatus accepts any transition but rejects unknown status values.
func (r *SQLRepository) SetStatus(ctx context.Context, id string, status string) error {
	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return err
	}
	return r.update(ctx, id, map[string]any{"status": string(parsed)})
}

// SetDraft stores the text and moves the topic to drafted.
func (r *SQLRepository) SetDraft(ctx context.Context, id string, draft string) error {
	return r.update(ctx, id, map[string]any{
		"draft":  draft,
		"status": string(domain.StatusDrafted),
	})
}

// SetFactCheck records the editor's verification notes.
func (r *SQLRepository) SetFactCheck(ctx context.Context, id string, checked bool, notes string) error {
	return r.update(ctx, id, map[string]any{
		"fact_checked": checked,
		"fact_notes":   notes,
	})
}

func (r *SQLRepository) update(ctx context.Context, id string, fields map[string]any) error {
	fields["updated_at"] = r.now().UnixMilli()
	query, args, err := r.sb.Update("topics").SetMap(fields).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.write.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update topic %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update topic %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTopicNotFound, id)
	}
	return nil
}

// LogRun appends one scan report.
func (r *SQLRepository) LogRun(ctx context.Context, run domain.ScanRun) error {
	if run.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate run id: %w", err)
		}
		run.ID = id.String()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = r.now()
	}

	query, args, err := r.sb.Insert("scan_log").
		Columns("id", "cycle_id", "source", "items_found", "items_new", "error", "scanned_at").
		Values(run.ID, run.CycleID, string(run.Source), run.ItemsFound, run.ItemsNew, run.Error, run.Timestamp.UnixMilli()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build log run: %w", err)
	}
	if _, err := r.write.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert scan log: %w", err)
	}
	return nil
}

// Stats aggregates topic counts by status and by source.
func (r *SQLRepository) Stats(ctx context.Context) (domain.Stats, error) {
	stats := domain.Stats{
		ByStatus: map[domain.Status]int{},
		BySource: map[domain.Source]int{},
	}

	byStatus, err := r.countBy(ctx, "status")
	if err != nil {
		return domain.Stats{}, err
	}
	for key, n := range byStatus {
		stats.ByStatus[domain.Status(key)] = n
		stats.Total += n
	}

	bySource, err := r.countBy(ctx, "source")
	if err != nil {
		return domain.Stats{}, err
	}
	for key, n := range bySource {
		stats.BySource[domain.Source(key)] = n
	}
	return stats, nil
}

func (r *SQLRepository) countBy(ctx context.Context, column string) (map[string]int, error) {
	query, args, err := r.sb.Select(column, "COUNT(*)").From("topics").GroupBy(column).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count by %s: %w", column, err)
	}
	rows, err := r.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count by %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	counts := map[string]int{}
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return counts, nil
}

// LastRunPerSource reports the latest scan time and the number of failed runs per source.
func (r *SQLRepository) LastRunPerSource(ctx context.Context) ([]domain.SourceHealth, error) {
	query, args, err := r.sb.
		Select("source", "MAX(scanned_at)", "SUM(CASE WHEN error <> '' THEN 1 ELSE 0 END)").
		From("scan_log").
		GroupBy("source").
		OrderBy("source").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build last run: %w", err)
	}
	rows, err := r.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("last run per source: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var health []domain.SourceHealth
	for rows.Next() {
		var (
			source string
			last   int64
			errs   int
		)
		if err := rows.Scan(&source, &last, &errs); err != nil {
			return nil, fmt.Errorf("scan source health: %w", err)
		}
		health = append(health, domain.SourceHealth{
			Source:   domain.Source(source),
			LastScan: time.UnixMilli(last).UTC(),
			Errors:   errs,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return health, nil
}

// RecentRuns returns the newest scan reports first.
func (r *SQLRepository) RecentRuns(ctx context.Context, limit int) ([]domain.ScanRun, error) {
	if limit <= 0 {
		limit = defaultRecentRuns
	}
	query, args, err := r.sb.
		Select("id", "cycle_id", "source", "items_found", "items_new", "error", "scanned_at").
		From("scan_log").
		OrderBy("scanned_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent runs: %w", err)
	}
	rows, err := r.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []domain.ScanRun
	for rows.Next() {
		var (
			run       domain.ScanRun
			source    string
			scannedAt int64
		)
		if err := rows.Scan(&run.ID, &run.CycleID, &source, &run.ItemsFound, &run.ItemsNew, &run.Error, &scannedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Source = domain.Source(source)
		run.Timestamp = time.UnixMilli(scannedAt).UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(row rowScanner) (domain.Topic, error) {
	var (
		t                    domain.Topic
		source, contentType  string
		niches, metrics      string
		status               string
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&t.ID, &t.Title, &source, &niches, &contentType,
		&t.Scores.Relevance, &t.Scores.Engagement, &t.Scores.Freshness, &t.Scores.Virality,
		&t.AgeHours, &t.Velocity, &t.Hook, &t.PostIdea,
		&t.SourceURL, &t.SourceTitle, &t.DiscussionURL, &metrics,
		&t.FactChecked, &t.FactNotes, &status, &t.Draft,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Topic{}, err
	}
	if err != nil {
		return domain.Topic{}, fmt.Errorf("scan topic: %w", err)
	}

	t.Source = domain.Source(source)
	t.ContentType = domain.ContentType(contentType)
	t.Status = domain.Status(status)
	t.CreatedAt = time.UnixMilli(createdAt).UTC()
	t.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	var names []string
	if err := json.Unmarshal([]byte(niches), &names); err != nil {
		return domain.Topic{}, fmt.Errorf("decode niches of %s: %w", t.ID, err)
	}
	for _, name := range names {
		t.Niches = t.Niches.With(domain.Niche(name))
	}

	t.Metrics, err = domain.DecodeMetrics(t.Source, []byte(metrics))
	if err != nil {
		return domain.Topic{}, err
	}
	return t, nil
}
