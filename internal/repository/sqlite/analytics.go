package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garnizeh/showcase/pkg/models"
)

// CreateEvent stores e, assigning an id and timestamp when missing.
func (r *SQLiteRepo) CreateEvent(ctx context.Context, e *models.AnalyticsEvent) error {
	if e == nil {
		return fmt.Errorf("analytics event is nil")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO analytics_events (id, event_type, page_path, referrer, session_id, user_agent, metadata, created_at) VALUES (?,?,?,?,?,?,?,?)`,
		e.ID, e.EventType, e.PagePath, e.Referrer, e.SessionID, e.UserAgent, rawOrNil(e.Metadata), ms(e.CreatedAt))
	return mapErr(err)
}

// Summarize aggregates events at or after since. top bounds the per-page
// breakdown.
func (r *SQLiteRepo) Summarize(ctx context.Context, since time.Time, top int) (*models.AnalyticsSummary, error) {
	if top <= 0 {
		top = 10
	}
	s := &models.AnalyticsSummary{Since: since.UTC(), ByType: []models.Count{}, TopPages: []models.Count{}}
	cutoff := ms(since)

	if err := r.conn.QueryRow(ctx, `SELECT COUNT(1), COUNT(DISTINCT NULLIF(session_id, '')) FROM analytics_events WHERE created_at >= ?`, cutoff).
		Scan(&s.TotalEvents, &s.UniqueSessions); err != nil {
		return nil, fmt.Errorf("summarize totals: %w", err)
	}

	var err error
	s.ByType, err = r.counts(ctx, `SELECT event_type, COUNT(1) AS n FROM analytics_events WHERE created_at >= ? GROUP BY event_type ORDER BY n DESC, event_type`, cutoff)
	if err != nil {
		return nil, err
	}
	s.TopPages, err = r.counts(ctx, `SELECT page_path, COUNT(1) AS n FROM analytics_events WHERE created_at >= ? AND event_type = 'page_view' GROUP BY page_path ORDER BY n DESC, page_path LIMIT ?`, cutoff, top)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SQLiteRepo) counts(ctx context.Context, q string, args ...any) ([]models.Count, error) {
	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	defer rows.Close()

	out := []models.Count{}
	for rows.Next() {
		var c models.Count
		if err := rows.Scan(&c.Label, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PruneEvents deletes events older than before and reports how many went.
func (r *SQLiteRepo) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.conn.Exec(ctx, `DELETE FROM analytics_events WHERE created_at < ?`, ms(before))
	if err != nil {
		return 0, fmt.Errorf("prune analytics events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.logger.Info("analytics events pruned", "count", n, "before", before.UTC())
	}
	return n, nil
}
