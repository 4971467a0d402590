// Package models defines the diary data model: entries with ordered
// sections, templates, user settings and the search filter.
package models
