package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/garnizeh/showcase/internal/auth"
	"github.com/garnizeh/showcase/internal/content"
	"github.com/garnizeh/showcase/pkg/models"
	"github.com/garnizeh/showcase/pkg/repository"
)

// UserHandler manages admin accounts.
type UserHandler struct {
	users repository.AdminUserRepo
	auth  *auth.Authenticator
	now   func() time.Time
}

func NewUserHandler(users repository.AdminUserRepo, a *auth.Authenticator, now func() time.Time) *UserHandler {
	if now == nil {
		now = time.Now
	}
	return &UserHandler{users: users, auth: a, now: now}
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=100"`
	Role     string `json:"role" validate:"oneof=super_admin admin editor"`
	Password string `json:"password" validate:"required"`
}

// updateUserRequest changes only the fields present in the body.
type updateUserRequest struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAdminUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]models.PublicAdminUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	writeJSON(w, page[models.PublicAdminUser]{Items: out, Total: int64(len(out)), Limit: len(out)}, http.StatusOK)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, u.Public(), http.StatusOK)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Email = auth.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Role == "" {
		req.Role = models.RoleEditor
	}
	if err := content.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.auth.NewUser(req.Email, req.Name, req.Role, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.users.CreateAdminUser(r.Context(), u); err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("admin user created",
		slog.Int64("user_id", u.ID),
		slog.String("role", u.Role),
		slog.Int64("by", actorID(r)),
	)
	writeJSON(w, u.Public(), http.StatusCreated)
}

// Update changes name, role, active flag or password. A role change resets
// the permissions to that role's defaults. Admins cannot demote or
// deactivate themselves.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	self := actorID(r) == u.ID
	ve := &content.ValidationError{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > 100 {
			ve.Add("name", "must be 1 to 100 characters")
		}
		u.Name = name
	}
	if req.Role != nil && *req.Role != u.Role {
		switch {
		case !auth.ValidRole(*req.Role):
			ve.Add("role", "must be one of super_admin admin editor")
		case self:
			ve.Add("role", "cannot change your own role")
		default:
			u.Role = *req.Role
			u.Permissions = auth.For(u.Role)
		}
	}
	if req.IsActive != nil {
		if self && !*req.IsActive {
			ve.Add("is_active", "cannot deactivate your own account")
		}
		u.IsActive = *req.IsActive
	}
	if err := ve.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Password != nil {
		if err := h.auth.Hasher().SetPassword(u, *req.Password); err != nil {
			writeError(w, r, err)
			return
		}
	}
	u.UpdatedAt = h.now().UTC()
	if err := h.users.UpdateAdminUser(r.Context(), u); err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("admin user updated", slog.Int64("user_id", u.ID), slog.Int64("by", actorID(r)))
	writeJSON(w, u.Public(), http.StatusOK)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if actorID(r) == u.ID {
		ve := &content.ValidationError{}
		ve.Add("id", "cannot delete your own account")
		writeError(w, r, ve)
		return
	}
	if err := h.users.DeleteAdminUser(r.Context(), u.ID); err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("admin user deleted", slog.Int64("user_id", u.ID), slog.Int64("by", actorID(r)))
	w.WriteHeader(http.StatusNoContent)
}

// Unlock clears the failed-attempt counter and any active lock.
func (h *UserHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	u, err := h.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.auth.Unlock(r.Context(), u.ID); err != nil {
		writeError(w, r, err)
		return
	}
	if u, err = h.users.GetAdminUser(r.Context(), u.ID); err != nil {
		writeError(w, r, err)
		return
	}
	if u == nil {
		writeError(w, r, errNotFound)
		return
	}
	logger.Info("admin user unlocked", slog.Int64("user_id", u.ID), slog.Int64("by", actorID(r)))
	writeJSON(w, u.Public(), http.StatusOK)
}

func (h *UserHandler) load(r *http.Request) (*models.AdminUser, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	u, err := h.users.GetAdminUser(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errNotFound
	}
	return u, nil
}
