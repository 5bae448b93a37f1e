package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/garnizeh/showcase/internal/content"
	"github.com/garnizeh/showcase/internal/jobs"
	"github.com/garnizeh/showcase/internal/payload"
	"github.com/garnizeh/showcase/pkg/models"
	"github.com/garnizeh/showcase/pkg/repository"
)

// Enqueuer schedules background jobs. *jobs.WorkerPool satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, typ string, payload any, priority int, maxAttempts int) (int64, error)
}

// contactRequest holds the fields a visitor may set on a submission.
type contactRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Company         string `json:"company"`
	Subject         string `json:"subject"`
	Message         string `json:"message"`
	ServiceInterest string `json:"service_interest"`
	BudgetRange     string `json:"budget_range"`
	Source          string `json:"source"`
}

type contactReceipt struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// AdminLookup resolves assignees.
type AdminLookup interface {
	GetAdminUser(ctx context.Context, id int64) (*models.AdminUser, error)
}

type ContactHandler struct {
	store    repository.ContactRepo
	admins   AdminLookup
	payloads *payload.Loader
	jobs     Enqueuer
	now      func() time.Time
}

func NewContactHandler(store repository.ContactRepo, admins AdminLookup, payloads *payload.Loader, queue Enqueuer, now func() time.Time) *ContactHandler {
	if now == nil {
		now = time.Now
	}
	return &ContactHandler{store: store, admins: admins, payloads: payloads, jobs: queue, now: now}
}

// Submit stores a public contact form post and schedules the notification.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.payloads.Validate(r.Context(), payload.Contact, body); err != nil {
		writeError(w, r, err)
		return
	}
	var req contactRequest
	if err := decodeBytes(body, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c := &models.ContactSubmission{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Company:         req.Company,
		Subject:         req.Subject,
		Message:         req.Message,
		ServiceInterest: req.ServiceInterest,
		BudgetRange:     req.BudgetRange,
		Source:          req.Source,
		IPAddress:       clientIP(r),
		UserAgent:       truncateHeader(r.UserAgent()),
	}
	if err := content.PrepareContact(c, h.now().UTC()); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.store.CreateContact(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if h.jobs != nil {
		p := jobs.ContactPayload{ContactID: id, Reference: c.Reference}
		if _, err := h.jobs.Enqueue(r.Context(), jobs.TypeContactReceived, p, 10, 0); err != nil {
			logger.Error("enqueue contact notification",
				slog.Int64("contact_id", id),
				slog.Any("err", err),
			)
		}
	}
	logger.Info("contact received", slog.Int64("contact_id", id), slog.String("reference", c.Reference))
	writeJSON(w, contactReceipt{Reference: c.Reference, Status: c.Status}, http.StatusCreated)
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ve := &content.ValidationError{}
	limit := queryInt(q.Get("limit"), "limit", ve)
	offset := queryInt(q.Get("offset"), "offset", ve)
	if err := ve.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}
	f := repository.ListFilter{Limit: limit, Offset: offset}.Normalize()
	items, total, err := h.store.ListContacts(r.Context(),
		strings.TrimSpace(q.Get("status")),
		strings.TrimSpace(q.Get("priority")),
		f.Limit, f.Offset,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, page[models.ContactSubmission]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, http.StatusOK)
}

func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, c, http.StatusOK)
}

// UpdateWorkflow patches status, priority, assignment and notes. The
// submitted fields themselves never change.
func (h *ContactHandler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	c, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var wf models.ContactWorkflow
	if err := decodeJSON(w, r, &wf); err != nil {
		writeError(w, r, err)
		return
	}
	if wf.AssignedTo != nil && *wf.AssignedTo > 0 {
		admin, err := h.admins.GetAdminUser(r.Context(), *wf.AssignedTo)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if admin == nil {
			ve := &content.ValidationError{}
			ve.Add("assigned_to", "unknown admin user")
			writeError(w, r, ve)
			return
		}
	}
	if err := content.ApplyWorkflow(c, wf, h.now().UTC()); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.UpdateContactWorkflow(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("contact updated",
		slog.Int64("contact_id", c.ID),
		slog.String("status", c.Status),
		slog.Int64("by", actorID(r)),
	)
	writeJSON(w, c, http.StatusOK)
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteContact(r.Context(), c.ID); err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("contact deleted", slog.Int64("contact_id", c.ID), slog.Int64("by", actorID(r)))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContactHandler) load(r *http.Request) (*models.ContactSubmission, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	c, err := h.store.GetContact(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errNotFound
	}
	return c, nil
}

// truncateHeader bounds header values copied into storage.
func truncateHeader(s string) string {
	return content.Truncate(s, 500)
}
