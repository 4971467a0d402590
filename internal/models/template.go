package models

import (
	"fmt"

	"github.com/dmitrijs2005/gophdiary/internal/common"
)

// DefaultTemplateID is the id of the built-in template.
const DefaultTemplateID = "default"

// TemplateSection is a heading that new entries copy into a Section.
type TemplateSection struct {
	Heading string `json:"heading"`
}

// Template describes the section layout of new entries. IsDefault marks the
// built-in template; the store does not enforce it.
type Template struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Sections  []TemplateSection `json:"sections"`
	IsDefault bool              `json:"isDefault,omitempty"`
}

// DefaultTemplate returns the built-in "Daily Entry" template.
func DefaultTemplate() Template {
	return Template{
		ID:   DefaultTemplateID,
		Name: "Daily Entry",
		Sections: []TemplateSection{
			{Heading: "Morning Thoughts"},
			{Heading: "Today's Goals"},
			{Heading: "Highlights"},
			{Heading: "Reflections"},
		},
		IsDefault: true,
	}
}

// NewTemplate builds a user template from headings.
func NewTemplate(id, name string, headings ...string) Template {
	sections := make([]TemplateSection, 0, len(headings))
	for _, h := range headings {
		sections = append(sections, TemplateSection{Heading: h})
	}
	return Template{ID: id, Name: name, Sections: sections}
}

func (t Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: empty id", common.ErrInvalidTemplate)
	}
	if t.Name == "" {
		return fmt.Errorf("%w: empty name", common.ErrInvalidTemplate)
	}
	return nil
}

// Headings lists the section headings in order.
func (t Template) Headings() []string {
	out := make([]string, len(t.Sections))
	for i, s := range t.Sections {
		out[i] = s.Heading
	}
	return out
}
