package models

import (
	"encoding/json"
	"time"
)

// Contact submission workflow states.
const (
	ContactNew        = "new"
	ContactInProgress = "in_progress"
	ContactResponded  = "responded"
	ContactClosed     = "closed"
	ContactSpam       = "spam"
)

// Contact submission priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ContactSubmission is created once by a public form post. Afterwards only
// the workflow overlay (status through responded_at) changes.
type ContactSubmission struct {
	ID              int64  `json:"id" db:"id"`
	Reference       string `json:"reference" db:"reference"`
	Name            string `json:"name" db:"name" validate:"required,max=100"`
	Email           string `json:"email" db:"email" validate:"required,email,max=255"`
	Phone           string `json:"phone,omitempty" db:"phone" validate:"max=30"`
	Company         string `json:"company,omitempty" db:"company" validate:"max=100"`
	Subject         string `json:"subject,omitempty" db:"subject" validate:"max=200"`
	Message         string `json:"message" db:"message" validate:"required,min=10,max=5000"`
	ServiceInterest string `json:"service_interest,omitempty" db:"service_interest" validate:"max=100"`
	BudgetRange     string `json:"budget_range,omitempty" db:"budget_range" validate:"max=50"`
	Source          string `json:"source,omitempty" db:"source" validate:"max=100"`
	IPAddress       string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent       string `json:"user_agent,omitempty" db:"user_agent"`

	Status      string     `json:"status" db:"status" validate:"oneof=new in_progress responded closed spam"`
	Priority    string     `json:"priority" db:"priority" validate:"oneof=low normal high urgent"`
	AssignedTo  *int64     `json:"assigned_to" db:"assigned_to"`
	Notes       string     `json:"notes,omitempty" db:"notes"`
	RespondedAt *time.Time `json:"responded_at" db:"responded_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ContactWorkflow is the mutable overlay of a ContactSubmission. Nil fields
// are left unchanged.
type ContactWorkflow struct {
	Status     *string `json:"status,omitempty"`
	Priority   *string `json:"priority,omitempty"`
	AssignedTo *int64  `json:"assigned_to,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// CompanyInfo value types.
const (
	InfoText    = "text"
	InfoJSON    = "json"
	InfoHTML    = "html"
	InfoNumber  = "number"
	InfoBoolean = "boolean"
	InfoURL     = "url"
	InfoEmail   = "email"
)

// CompanyInfo is one typed entry of the site settings store. Value is always
// text; Type says how to read it.
type CompanyInfo struct {
	ID          int64     `json:"id" db:"id"`
	Key         string    `json:"key" db:"key" validate:"required,max=100"`
	Value       string    `json:"value" db:"value"`
	Type        string    `json:"type" db:"type" validate:"oneof=text json html number boolean url email"`
	Description string    `json:"description,omitempty" db:"description"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// SEOMetadata is curated per-page search metadata keyed by path.
type SEOMetadata struct {
	ID             int64           `json:"id" db:"id"`
	PagePath       string          `json:"page_path" db:"page_path" validate:"required,startswith=/,max=255"`
	Title          string          `json:"title" db:"title" validate:"required,max=60"`
	Description    string          `json:"description" db:"description" validate:"max=160"`
	Keywords       string          `json:"keywords,omitempty" db:"keywords" validate:"max=255"`
	OGTitle        string          `json:"og_title,omitempty" db:"og_title" validate:"max=95"`
	OGDescription  string          `json:"og_description,omitempty" db:"og_description" validate:"max=200"`
	OGImage        string          `json:"og_image,omitempty" db:"og_image" validate:"omitempty,url"`
	CanonicalURL   string          `json:"canonical_url,omitempty" db:"canonical_url" validate:"omitempty,url"`
	Robots         string          `json:"robots,omitempty" db:"robots" validate:"max=100"`
	StructuredData json.RawMessage `json:"structured_data,omitempty" db:"structured_data"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// AnalyticsEvent is one client-reported interaction.
type AnalyticsEvent struct {
	ID        string          `json:"id" db:"id"`
	EventType string          `json:"event_type" db:"event_type"`
	PagePath  string          `json:"page_path" db:"page_path"`
	Referrer  string          `json:"referrer,omitempty" db:"referrer"`
	SessionID string          `json:"session_id" db:"session_id"`
	UserAgent string          `json:"user_agent,omitempty" db:"user_agent"`
	Metadata  json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Count is a labelled tally used by analytics summaries.
type Count struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// AnalyticsSummary aggregates events since a point in time.
type AnalyticsSummary struct {
	Since          time.Time `json:"since"`
	TotalEvents    int64     `json:"total_events"`
	UniqueSessions int64     `json:"unique_sessions"`
	ByType         []Count   `json:"by_type"`
	TopPages       []Count   `json:"top_pages"`
}
