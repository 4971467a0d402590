package models

import "strings"

// Filter selects entries. Zero fields match everything; enabled flags must be
// set on the entry itself.
type Filter struct {
	Query       string
	TemplateID  string
	Important   bool
	NeedsReview bool
	MajorEvent  bool
}

// Matches reports whether e satisfies every criterion of f. The query is a
// case-insensitive substring match on any section heading or content.
func (f Filter) Matches(e DiaryEntry) bool {
	if f.TemplateID != "" && e.TemplateID != f.TemplateID {
		return false
	}
	if f.Important && !e.Flags.IsImportant {
		return false
	}
	if f.NeedsReview && !e.Flags.NeedsReview {
		return false
	}
	if f.MajorEvent && !e.Flags.IsMajorEvent {
		return false
	}
	if f.Query == "" {
		return true
	}

	q := strings.ToLower(f.Query)
	for _, s := range e.Sections {
		if strings.Contains(strings.ToLower(s.Content), q) || strings.Contains(strings.ToLower(s.Heading), q) {
			return true
		}
	}
	return false
}

// Apply returns the entries matching f, preserving order.
func (f Filter) Apply(entries []DiaryEntry) []DiaryEntry {
	out := make([]DiaryEntry, 0, len(entries))
	for _, e := range entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}
