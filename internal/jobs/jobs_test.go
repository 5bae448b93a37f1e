package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	dbfs "github.com/garnizeh/showcase/db"
	"github.com/garnizeh/showcase/internal/db"
	"github.com/garnizeh/showcase/internal/jobs"
	"github.com/garnizeh/showcase/internal/repository/sqlite"
	"github.com/garnizeh/showcase/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setupDB(t *testing.T) *db.DB {
	t.Helper()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	d, err := db.New(ctx, dsn, slog.Default())
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	if err := db.Migrate(ctx, d, dbfs.Migrations, nil); err != nil {
		d.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestEnqueueAndProcess(t *testing.T) {
	ctx := context.Background()
	d := setupDB(t)
	repo := jobs.NewRepository(d)

	handled := make(chan string, 1)
	handlers := map[string]jobs.Handler{
		"test": func(ctx context.Context, j *jobs.Job) error {
			handled <- string(j.Payload)
			return nil
		},
	}
	pool := jobs.NewWorkerPool(repo, handlers, nil, 1).WithPollInterval(10 * time.Millisecond)
	pool.Start(ctx)
	defer pool.Stop()

	id, err := pool.Enqueue(ctx, "test", map[string]string{"foo": "bar"}, 10, 3)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case got := <-handled:
		if got != `{"foo":"bar"}` {
			t.Fatalf("unexpected payload %s", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("handler was not called")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, err := repo.Get(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if j != nil && j.Status == jobs.StatusDone {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %d never marked done", id)
}

func TestFailingJobMovesToDeadLetter(t *testing.T) {
	ctx := context.Background()
	d := setupDB(t)
	repo := jobs.NewRepository(d)

	var calls atomic.Int32
	handlers := map[string]jobs.Handler{
		"boom": func(ctx context.Context, j *jobs.Job) error {
			calls.Add(1)
			panic("kaboom")
		},
	}
	pool := jobs.NewWorkerPool(repo, handlers, nil, 2).WithPollInterval(10 * time.Millisecond)
	pool.Start(ctx)
	defer pool.Stop()

	if _, err := pool.Enqueue(ctx, "boom", nil, 0, 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := pool.Enqueue(ctx, "unknown", nil, 0, 3); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		counts, err := repo.Counts(ctx)
		if err != nil {
			t.Fatalf("counts: %v", err)
		}
		if counts["dead_letter"] == 2 {
			if calls.Load() != 1 {
				t.Fatalf("expected exactly one handler call, got %d", calls.Load())
			}
			var lastErr string
			if err := d.QueryRow(ctx, `SELECT last_error FROM dead_letter_jobs WHERE type = 'boom'`).Scan(&lastErr); err != nil {
				t.Fatalf("dead letter row: %v", err)
			}
			if !strings.Contains(lastErr, "kaboom") {
				t.Fatalf("expected panic recorded, got %q", lastErr)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("jobs never reached the dead letter table")
}

func TestFetchNext_ClaimsByPriority(t *testing.T) {
	ctx := context.Background()
	repo := jobs.NewRepository(setupDB(t))

	low := &jobs.Job{Type: "a", Priority: 50}
	high := &jobs.Job{Type: "b", Priority: 1}
	later := &jobs.Job{Type: "c", Priority: 1, ScheduledAt: time.Now().Add(time.Hour)}
	for _, j := range []*jobs.Job{low, high, later} {
		if _, err := repo.Enqueue(ctx, j); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	first, err := repo.FetchNext(ctx)
	if err != nil || first == nil || first.ID != high.ID {
		t.Fatalf("expected high priority job first, got %#v %v", first, err)
	}
	if first.Status != jobs.StatusRunning {
		t.Fatalf("fetched job should be claimed, status %q", first.Status)
	}
	second, _ := repo.FetchNext(ctx)
	if second == nil || second.ID != low.ID {
		t.Fatalf("expected low priority job second, got %#v", second)
	}
	none, err := repo.FetchNext(ctx)
	if err != nil || none != nil {
		t.Fatalf("future job must not be fetched: %#v %v", none, err)
	}

	n, err := repo.RequeueRunning(ctx)
	if err != nil || n != 2 {
		t.Fatalf("RequeueRunning: %d %v", n, err)
	}
}

func TestBackoffDuration(t *testing.T) {
	cases := map[int]time.Duration{
		0:  time.Second,
		1:  2 * time.Second,
		3:  8 * time.Second,
		9:  5 * time.Minute,
		64: 5 * time.Minute,
	}
	for attempt, want := range cases {
		if got := jobs.BackoffDuration(attempt); got != want {
			t.Fatalf("BackoffDuration(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestHandlers(t *testing.T) {
	ctx := context.Background()
	d := setupDB(t)
	store := sqlite.New(d, nil)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	h := &jobs.Handlers{
		Contacts:  store,
		Company:   store,
		Analytics: store,
		Jobs:      jobs.NewRepository(d),
		Retention: 30 * 24 * time.Hour,
		Now:       func() time.Time { return now },
	}
	if len(h.Map()) != 2 {
		t.Fatalf("expected two handlers")
	}

	c := &models.ContactSubmission{Reference: "r1", Name: "Ann", Email: "ann@example.com", Message: "hello there team", Status: models.ContactNew, Priority: models.PriorityNormal, CreatedAt: now, UpdatedAt: now}
	if _, err := store.CreateContact(ctx, c); err != nil {
		t.Fatalf("create contact: %v", err)
	}
	if err := h.ContactReceived(ctx, &jobs.Job{Payload: []byte(fmt.Sprintf(`{"contact_id":%d,"reference":"r1"}`, c.ID))}); err != nil {
		t.Fatalf("ContactReceived: %v", err)
	}
	if err := h.ContactReceived(ctx, &jobs.Job{Payload: []byte(`{"contact_id":999}`)}); err != nil {
		t.Fatalf("missing contact should be skipped, got %v", err)
	}
	if err := h.ContactReceived(ctx, &jobs.Job{Payload: []byte(`nope`)}); err == nil {
		t.Fatalf("expected decode error")
	}

	old := &models.AnalyticsEvent{EventType: "page_view", PagePath: "/", CreatedAt: now.Add(-60 * 24 * time.Hour)}
	fresh := &models.AnalyticsEvent{EventType: "page_view", PagePath: "/", CreatedAt: now.Add(-time.Hour)}
	for _, e := range []*models.AnalyticsEvent{old, fresh} {
		if err := store.CreateEvent(ctx, e); err != nil {
			t.Fatalf("create event: %v", err)
		}
	}
	if err := h.AnalyticsPrune(ctx, &jobs.Job{}); err != nil {
		t.Fatalf("AnalyticsPrune: %v", err)
	}
	s, err := store.Summarize(ctx, now.Add(-365*24*time.Hour), 10)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.TotalEvents != 1 {
		t.Fatalf("expected only the fresh event to survive, got %d", s.TotalEvents)
	}

	h.Retention = 0
	if err := h.AnalyticsPrune(ctx, &jobs.Job{}); err == nil || errors.Is(err, context.Canceled) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
