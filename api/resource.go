package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/garnizeh/showcase/pkg/repository"
)

// resource holds the storage and preparation steps of one content type.
// The admin handlers below are shared by projects, blog posts, services and
// team members. defaults runs before a create body is decoded; protect
// copies server-owned fields from the stored entity onto the next one.
type resource[T any] struct {
	name     string
	create   func(context.Context, *T) (int64, error)
	get      func(context.Context, int64) (*T, error)
	update   func(context.Context, *T) error
	delete   func(context.Context, int64) error
	list     func(context.Context, repository.ListFilter) ([]T, int64, error)
	prepare  func(*T, time.Time) error
	defaults func(*T)
	protect  func(existing, next *T)
	now      func() time.Time
}

func (res *resource[T]) clock() time.Time {
	if res.now == nil {
		return time.Now().UTC()
	}
	return res.now().UTC()
}

func (res *resource[T]) List(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, total, err := res.list(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, page[T]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, http.StatusOK)
}

func (res *resource[T]) Get(w http.ResponseWriter, r *http.Request) {
	item, err := res.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, item, http.StatusOK)
}

func (res *resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	var item T
	if res.defaults != nil {
		res.defaults(&item)
	}
	if err := decodeJSON(w, r, &item); err != nil {
		writeError(w, r, err)
		return
	}
	var zero T
	res.protect(&zero, &item)
	if err := res.prepare(&item, res.clock()); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := res.create(r.Context(), &item)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info(res.name+" created", slog.Int64("id", id), slog.Int64("by", actorID(r)))
	writeJSON(w, item, http.StatusCreated)
}

// Update applies the request body on top of the stored entity, so omitted
// fields keep their values.
func (res *resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := res.load(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	next := *existing
	if err := decodeJSON(w, r, &next); err != nil {
		writeError(w, r, err)
		return
	}
	res.protect(existing, &next)
	if err := res.prepare(&next, res.clock()); err != nil {
		writeError(w, r, err)
		return
	}
	if err := res.update(r.Context(), &next); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, next, http.StatusOK)
}

func (res *resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := res.load(r); err != nil {
		writeError(w, r, err)
		return
	}
	if err := res.delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info(res.name+" deleted", slog.Int64("id", id), slog.Int64("by", actorID(r)))
	w.WriteHeader(http.StatusNoContent)
}

func (res *resource[T]) load(r *http.Request) (*T, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	item, err := res.get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errNotFound
	}
	return item, nil
}

func actorID(r *http.Request) int64 {
	if u, ok := UserFrom(r.Context()); ok {
		return u.ID
	}
	return 0
}
