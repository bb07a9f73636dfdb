package models

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultTitle is used for posts created without a title.
const DefaultTitle = "Untitled"

var validate = validator.New()

// Validator exposes the shared validator instance.
func Validator() *validator.Validate {
	return validate
}

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	return p.CheckTimestamps()
}

// CheckTimestamps enforces that scheduledTime is set only for scheduled posts
// and postedAt only for posted ones.
func (p *Post) CheckTimestamps() error {
	switch p.Status {
	case StatusDraft:
		if p.ScheduledTime != nil || p.PostedAt != nil {
			return errors.New("draft post cannot carry scheduledTime or postedAt")
		}
	case StatusScheduled:
		if p.ScheduledTime == nil {
			return errors.New("scheduled post requires scheduledTime")
		}
		if p.PostedAt != nil {
			return errors.New("scheduled post cannot carry postedAt")
		}
	case StatusPosted:
		if p.PostedAt == nil {
			return errors.New("posted post requires postedAt")
		}
		if p.ScheduledTime != nil {
			return errors.New("posted post cannot carry scheduledTime")
		}
	default:
		return errors.New("unknown status: " + string(p.Status))
	}
	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (p *Post) BeforeCreate(now time.Time) {
	if strings.TrimSpace(p.Title) == "" {
		p.Title = DefaultTitle
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	p.Version = 1
}

// Apply copies the non-nil patch fields onto the post. Status is never touched.
func (p *Post) Apply(patch PostPatch) {
	if patch.Title != nil {
		p.Title = *patch.Title
		if strings.TrimSpace(p.Title) == "" {
			p.Title = DefaultTitle
		}
	}
	if patch.Caption != nil {
		p.Caption = *patch.Caption
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Platform != nil {
		p.Platform = *patch.Platform
	}
}

// MarkScheduled moves the post to scheduled at t.
func (p *Post) MarkScheduled(t time.Time) {
	at := t.UTC()
	p.Status = StatusScheduled
	p.ScheduledTime = &at
	p.PostedAt = nil
}

// MarkPosted moves the post to posted at t.
func (p *Post) MarkPosted(t time.Time) {
	at := t.UTC()
	p.Status = StatusPosted
	p.PostedAt = &at
	p.ScheduledTime = nil
}

// Clone returns a deep copy of the post.
func (p *Post) Clone() *Post {
	c := *p
	if p.ScheduledTime != nil {
		t := *p.ScheduledTime
		c.ScheduledTime = &t
	}
	if p.PostedAt != nil {
		t := *p.PostedAt
		c.PostedAt = &t
	}
	return &c
}

// Contains reports whether the trimmed, case-insensitive needle occurs in the
// title, caption or platform.
func (p *Post) Contains(needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Caption), needle) ||
		strings.Contains(strings.ToLower(string(p.Platform)), needle)
}
