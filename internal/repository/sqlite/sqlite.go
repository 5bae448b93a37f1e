package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/garnizeh/showcase/internal/db"
	"github.com/garnizeh/showcase/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.ProjectRepo = (*SQLiteRepo)(nil)
var _ repository.BlogPostRepo = (*SQLiteRepo)(nil)
var _ repository.ServiceRepo = (*SQLiteRepo)(nil)
var _ repository.TeamMemberRepo = (*SQLiteRepo)(nil)
var _ repository.AdminUserRepo = (*SQLiteRepo)(nil)
var _ repository.ContactRepo = (*SQLiteRepo)(nil)
var _ repository.CompanyInfoRepo = (*SQLiteRepo)(nil)
var _ repository.SEORepo = (*SQLiteRepo)(nil)
var _ repository.AnalyticsRepo = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

type scanner interface {
	Scan(dest ...any) error
}

// mapErr turns unique constraint failures into repository.ErrConflict.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var se *msqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")) {
			return fmt.Errorf("%w: %s", repository.ErrConflict, se.Error())
		}
	}
	return err
}

func ms(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func msPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return ms(*t)
}

func fromMS(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func fromNullMS(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMS(v.Int64)
	return &t
}

func encodeList(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// decodeList reads a JSON string array column. A corrupt value is an error
// rather than an empty list.
func decodeList(col, s string) ([]string, error) {
	out := []string{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", col, err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// where accumulates AND-ed conditions for list queries.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// filter applies the common ListFilter fields. searchCols are matched with
// LIKE; activeCol/featuredCol may be empty when the table lacks them.
func filter(f repository.ListFilter, hasStatus bool, featuredCol, activeCol string, searchCols ...string) *where {
	w := &where{}
	if hasStatus && f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Category != "" {
		w.add("category = ?", f.Category)
	}
	if featuredCol != "" && f.Featured != nil {
		w.add(featuredCol+" = ?", boolInt(*f.Featured))
	}
	if activeCol != "" && f.Active != nil {
		w.add(activeCol+" = ?", boolInt(*f.Active))
	}
	if q := strings.TrimSpace(f.Search); q != "" && len(searchCols) > 0 {
		like := "%" + escapeLike(q) + "%"
		parts := make([]string, len(searchCols))
		args := make([]any, len(searchCols))
		for i, c := range searchCols {
			parts[i] = c + ` LIKE ? ESCAPE '\'`
			args[i] = like
		}
		w.add("("+strings.Join(parts, " OR ")+")", args...)
	}
	return w
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (r *SQLiteRepo) count(ctx context.Context, table string, w *where) (int64, error) {
	var n int64
	if err := r.conn.QueryRow(ctx, "SELECT COUNT(1) FROM "+table+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
