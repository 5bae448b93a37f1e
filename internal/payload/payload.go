// Package payload checks untrusted request bodies against the JSON schemas
// embedded with the server before they are decoded into models.
package payload

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"

	"github.com/garnizeh/showcase/internal/content"
)

// Schema names shipped in db/schemas.
const (
	Contact        = "contact"
	AnalyticsEvent = "analytics_event"
	Login          = "login"
)

// Loader compiles and caches the schemas found under schemas/ in an fs.FS.
type Loader struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

func NewLoader(fsys fs.FS) (*Loader, error) {
	l := &Loader{cache: make(map[string]*jsonschema.Schema)}
	if err := l.Reload(fsys); err != nil {
		return nil, err
	}

	return l, nil
}

// Reload replaces the cache with every schemas/*.json file in fsys.
func (l *Loader) Reload(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, "schemas")
	if err != nil {
		return fmt.Errorf("read schemas: %w", err)
	}

	next := make(map[string]*jsonschema.Schema)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join("schemas", e.Name()))
		if err != nil {
			return fmt.Errorf("read schema %s: %w", e.Name(), err)
		}
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(b, rs); err != nil {
			return fmt.Errorf("compile schema %s: %w", e.Name(), err)
		}
		next[strings.TrimSuffix(e.Name(), ".json")] = rs
	}

	l.mu.Lock()
	l.cache = next
	l.mu.Unlock()
	return nil
}

func (l *Loader) Schema(name string) (*jsonschema.Schema, bool) {
	l.mu.RLock()
	s, ok := l.cache[name]
	l.mu.RUnlock()

	return s, ok
}

// Names lists the loaded schema names in order.
func (l *Loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.cache))
	for k := range l.cache {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks body against the named schema. Schema violations come back
// as a *content.ValidationError keyed by top-level property; malformed JSON
// is reported under "body".
func (l *Loader) Validate(ctx context.Context, name string, body []byte) error {
	s, ok := l.Schema(name)
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	if !json.Valid(body) {
		ve := &content.ValidationError{}
		ve.Add("body", "must be valid JSON")
		return ve
	}

	kerrs, err := s.ValidateBytes(ctx, body)
	if err != nil {
		return fmt.Errorf("validate %s: %w", name, err)
	}
	ve := &content.ValidationError{}
	for _, ke := range kerrs {
		ve.Add(field(ke), ke.Message)
	}
	return ve.OrNil()
}

// field maps a schema error to the offending top-level property. Missing
// required properties are reported at the parent path, so the property name
// is recovered from the quoted name in the message.
func field(ke jsonschema.KeyError) string {
	p := strings.TrimPrefix(ke.PropertyPath, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	if p != "" {
		return p
	}
	if strings.HasPrefix(ke.Message, `"`) {
		if end := strings.IndexByte(ke.Message[1:], '"'); end > 0 {
			return ke.Message[1 : end+1]
		}
	}
	return "body"
}
