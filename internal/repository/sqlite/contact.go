package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/showcase/pkg/models"
)

const contactCols = `id, reference, name, email, phone, company, subject, message, service_interest, budget_range, source, ip_address, user_agent, status, priority, assigned_to, notes, responded_at, created_at, updated_at`

func scanContact(s scanner) (*models.ContactSubmission, error) {
	var (
		c                    models.ContactSubmission
		assigned             sql.NullInt64
		responded            sql.NullInt64
		createdAt, updatedAt int64
	)
	err := s.Scan(&c.ID, &c.Reference, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Subject, &c.Message,
		&c.ServiceInterest, &c.BudgetRange, &c.Source, &c.IPAddress, &c.UserAgent, &c.Status, &c.Priority,
		&assigned, &c.Notes, &responded, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if assigned.Valid {
		id := assigned.Int64
		c.AssignedTo = &id
	}
	c.RespondedAt = fromNullMS(responded)
	c.CreatedAt = fromMS(createdAt)
	c.UpdatedAt = fromMS(updatedAt)
	return &c, nil
}

func (r *SQLiteRepo) CreateContact(ctx context.Context, c *models.ContactSubmission) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("contact submission is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO contact_submissions (reference, name, email, phone, company, subject, message, service_interest, budget_range, source, ip_address, user_agent, status, priority, assigned_to, notes, responded_at, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.Reference, c.Name, c.Email, c.Phone, c.Company, c.Subject, c.Message, c.ServiceInterest, c.BudgetRange,
		c.Source, c.IPAddress, c.UserAgent, c.Status, c.Priority, c.AssignedTo, c.Notes, msPtr(c.RespondedAt),
		ms(c.CreatedAt), ms(c.UpdatedAt))
	if err != nil {
		return 0, mapErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

func (r *SQLiteRepo) GetContact(ctx context.Context, id int64) (*models.ContactSubmission, error) {
	c, err := scanContact(r.conn.QueryRow(ctx, `SELECT `+contactCols+` FROM contact_submissions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// UpdateContactWorkflow persists only the workflow overlay; the submitted
// fields are immutable once stored.
func (r *SQLiteRepo) UpdateContactWorkflow(ctx context.Context, c *models.ContactSubmission) error {
	if c == nil {
		return fmt.Errorf("contact submission is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE contact_submissions SET status = ?, priority = ?, assigned_to = ?, notes = ?, responded_at = ?, updated_at = ? WHERE id = ?`,
		c.Status, c.Priority, c.AssignedTo, c.Notes, msPtr(c.RespondedAt), ms(c.UpdatedAt), c.ID)
	return err
}

func (r *SQLiteRepo) DeleteContact(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM contact_submissions WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListContacts(ctx context.Context, status, priority string, limit, offset int) ([]models.ContactSubmission, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	w := &where{}
	if status != "" {
		w.add("status = ?", status)
	}
	if priority != "" {
		w.add("priority = ?", priority)
	}

	total, err := r.count(ctx, "contact_submissions", w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+contactCols+` FROM contact_submissions`+w.String()+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(w.args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	out := []models.ContactSubmission{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}
