package models

import (
	"fmt"

	"github.com/dmitrijs2005/gophdiary/internal/common"
)

// Theme is the display theme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// UserSettings is the persisted singleton settings record. Key material is
// never part of it.
type UserSettings struct {
	Theme             Theme  `json:"theme"`
	DefaultTemplateID string `json:"defaultTemplateId"`
}

// DefaultSettings returns the settings used before anything was saved.
func DefaultSettings() UserSettings {
	return UserSettings{Theme: ThemeLight, DefaultTemplateID: DefaultTemplateID}
}

// Validate checks each field independently.
func (s UserSettings) Validate() error {
	if !s.Theme.Valid() {
		return fmt.Errorf("%w: theme %q", common.ErrInvalidSettings, s.Theme)
	}
	if s.DefaultTemplateID == "" {
		return fmt.Errorf("%w: empty default template id", common.ErrInvalidSettings)
	}
	return nil
}
