package content

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garnizeh/showcase/pkg/models"
)

// PrepareContact normalises a new public submission and assigns its
// reference and initial workflow state.
func PrepareContact(c *models.ContactSubmission, now time.Time) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	c.Company = strings.TrimSpace(c.Company)
	c.Subject = strings.TrimSpace(c.Subject)
	c.Message = strings.TrimSpace(c.Message)
	if c.Reference == "" {
		c.Reference = uuid.NewString()
	}
	c.Status = models.ContactNew
	c.Priority = models.PriorityNormal
	c.AssignedTo = nil
	c.Notes = ""
	c.RespondedAt = nil
	stamp(&c.CreatedAt, &c.UpdatedAt, now)
	return Validate(c)
}

// ApplyWorkflow changes the overlay fields of c. responded_at is stamped
// the first time the submission enters the responded state.
func ApplyWorkflow(c *models.ContactSubmission, w models.ContactWorkflow, now time.Time) error {
	if w.Status != nil {
		c.Status = strings.TrimSpace(*w.Status)
	}
	if w.Priority != nil {
		c.Priority = strings.TrimSpace(*w.Priority)
	}
	if w.AssignedTo != nil {
		if *w.AssignedTo <= 0 {
			c.AssignedTo = nil
		} else {
			id := *w.AssignedTo
			c.AssignedTo = &id
		}
	}
	if w.Notes != nil {
		c.Notes = strings.TrimSpace(*w.Notes)
	}
	if c.Status == models.ContactResponded && c.RespondedAt == nil {
		t := now
		c.RespondedAt = &t
	}
	c.UpdatedAt = now
	return Validate(c)
}

// PrepareCompanyInfo validates an entry and checks that its value parses as
// its declared type.
func PrepareCompanyInfo(info *models.CompanyInfo, now time.Time) error {
	info.Key = strings.TrimSpace(info.Key)
	if info.Type == "" {
		info.Type = models.InfoText
	}
	if info.Type == models.InfoHTML {
		info.Value = SanitizeHTML(info.Value)
	}
	stamp(&info.CreatedAt, &info.UpdatedAt, now)
	if err := Validate(info); err != nil {
		return err
	}
	if _, err := Interpret(*info); err != nil {
		ve := &ValidationError{}
		ve.Add("value", err.Error())
		return ve
	}
	return nil
}

// Interpret decodes the text value of info according to its type: numbers
// become float64, booleans bool, json any decoded value, everything else a
// string.
func Interpret(info models.CompanyInfo) (any, error) {
	v := strings.TrimSpace(info.Value)
	switch info.Type {
	case models.InfoNumber:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", v)
		}
		return n, nil
	case models.InfoBoolean:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("not a boolean: %q", v)
		}
		return b, nil
	case models.InfoJSON:
		var out any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("not valid json: %w", err)
		}
		return out, nil
	case models.InfoURL:
		u, err := url.Parse(v)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("not an absolute url: %q", v)
		}
		return v, nil
	case models.InfoEmail:
		addr, err := mail.ParseAddress(v)
		if err != nil || addr.Address != v {
			return nil, fmt.Errorf("not an email address: %q", v)
		}
		return v, nil
	default:
		return info.Value, nil
	}
}

// PrepareSEOMetadata validates curated page metadata. Unlike content SEO
// fields nothing is truncated: an over-long title is an editing mistake.
func PrepareSEOMetadata(m *models.SEOMetadata, now time.Time) error {
	m.PagePath = strings.TrimSpace(m.PagePath)
	if len(m.PagePath) > 1 {
		m.PagePath = strings.TrimRight(m.PagePath, "/")
	}
	m.Title = strings.TrimSpace(m.Title)
	m.Description = strings.TrimSpace(m.Description)
	stamp(&m.CreatedAt, &m.UpdatedAt, now)
	err := Validate(m)
	if len(m.StructuredData) > 0 && !json.Valid(m.StructuredData) {
		ve, ok := err.(*ValidationError)
		if !ok {
			if err != nil {
				return err
			}
			ve = &ValidationError{}
		}
		ve.Add("structured_data", "must be valid JSON")
		return ve
	}
	return err
}
