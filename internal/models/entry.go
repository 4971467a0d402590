package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/google/uuid"
)

// DateLayout is the calendar date format of DiaryEntry.Date.
const DateLayout = "2006-01-02"

// Flags is the independent important / needs-review / major-event marker set
// shared by entries and sections.
type Flags struct {
	IsImportant  bool `json:"isImportant"`
	NeedsReview  bool `json:"needsReview"`
	IsMajorEvent bool `json:"isMajorEvent"`
}

// Section is one headed block of an entry. It is owned by its entry.
type Section struct {
	ID      string `json:"id"`
	Heading string `json:"heading"`
	Content string `json:"content"`
	Flags   Flags  `json:"flags"`
}

// DiaryEntry is a dated journal entry. Section order is meaningful.
type DiaryEntry struct {
	ID         string    `json:"id"`
	Date       string    `json:"date"`
	Sections   []Section `json:"sections"`
	TemplateID string    `json:"templateId"`
	Flags      Flags     `json:"flags"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewEntry builds an empty entry for date with one section per template
// heading, in template order.
func NewEntry(tpl Template, date string, now time.Time) DiaryEntry {
	now = now.UTC()
	sections := make([]Section, 0, len(tpl.Sections))
	for _, s := range tpl.Sections {
		sections = append(sections, Section{ID: uuid.NewString(), Heading: s.Heading})
	}
	return DiaryEntry{
		ID:         uuid.NewString(),
		Date:       date,
		Sections:   sections,
		TemplateID: tpl.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch records a modification at now.
func (e *DiaryEntry) Touch(now time.Time) {
	e.UpdatedAt = now.UTC()
}

// Validate checks the identifier and the calendar date.
func (e DiaryEntry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: empty id", common.ErrInvalidEntry)
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", common.ErrInvalidEntry, e.Date)
	}
	return nil
}

// Clone returns a deep copy, so callers cannot mutate shared section slices.
func (e DiaryEntry) Clone() DiaryEntry {
	c := e
	if e.Sections != nil {
		c.Sections = append([]Section(nil), e.Sections...)
	}
	return c
}
