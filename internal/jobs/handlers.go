package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/garnizeh/showcase/pkg/repository"
)

// ContactPayload identifies a stored contact submission.
type ContactPayload struct {
	ContactID int64  `json:"contact_id"`
	Reference string `json:"reference"`
}

// Handlers builds the job handlers for the server's job types.
type Handlers struct {
	Contacts  repository.ContactRepo
	Company   repository.CompanyInfoRepo
	Analytics repository.AnalyticsRepo
	Jobs      *Repository
	Retention time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

// doneJobRetention bounds how long finished jobs stay in the queue table.
const doneJobRetention = 7 * 24 * time.Hour

// Map returns the handler table for NewWorkerPool.
func (h *Handlers) Map() map[string]Handler {
	return map[string]Handler{
		TypeContactReceived: h.ContactReceived,
		TypeAnalyticsPrune:  h.AnalyticsPrune,
	}
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *Handlers) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now().UTC()
}

// ContactReceived announces a new submission to the configured notification
// address. Submissions deleted before the job runs are skipped.
func (h *Handlers) ContactReceived(ctx context.Context, j *Job) error {
	var p ContactPayload
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return fmt.Errorf("decode contact payload: %w", err)
	}
	c, err := h.Contacts.GetContact(ctx, p.ContactID)
	if err != nil {
		return fmt.Errorf("load contact %d: %w", p.ContactID, err)
	}
	if c == nil {
		h.logger().Info("contact gone before notification", "contact_id", p.ContactID, "reference", p.Reference)
		return nil
	}

	to := ""
	if h.Company != nil {
		info, err := h.Company.GetCompanyInfo(ctx, "notification_email")
		if err != nil {
			return fmt.Errorf("load notification address: %w", err)
		}
		if info != nil {
			to = info.Value
		}
	}

	h.logger().Info("new contact submission",
		slog.String("notify", to),
		slog.Int64("contact_id", c.ID),
		slog.String("reference", c.Reference),
		slog.String("name", c.Name),
		slog.String("email", c.Email),
		slog.String("subject", c.Subject),
		slog.String("priority", c.Priority),
		slog.String("service_interest", c.ServiceInterest),
	)
	return nil
}

// AnalyticsPrune removes events older than the retention window and clears
// finished jobs.
func (h *Handlers) AnalyticsPrune(ctx context.Context, _ *Job) error {
	if h.Retention <= 0 {
		return fmt.Errorf("analytics retention not configured")
	}
	now := h.now()
	n, err := h.Analytics.PruneEvents(ctx, now.Add(-h.Retention))
	if err != nil {
		return err
	}
	var purged int64
	if h.Jobs != nil {
		if purged, err = h.Jobs.PurgeDone(ctx, now.Add(-doneJobRetention)); err != nil {
			return err
		}
	}
	h.logger().Info("analytics prune finished", "events_deleted", n, "jobs_purged", purged)
	return nil
}
