package models

import "errors"

// ErrUnknownIcon marks an icon outside the configured set.
var ErrUnknownIcon = errors.New("unknown icon")

// defaultIcons is the built-in interaction icon set.
var defaultIcons = []string{
	"call",
	"whatsapp",
	"email",
	"visit",
	"letter",
	"payment",
	"promise",
	"note",
}

// IconSet is the closed set of icons an organization allows on events.
// Organization-specific entries extend the built-in defaults; lookups
// happen at event construction so the rest of the model stays total.
type IconSet struct {
	icons map[string]bool
}

// NewIconSet builds an icon set from the defaults plus extra entries.
func NewIconSet(extra ...string) *IconSet {
	icons := make(map[string]bool, len(defaultIcons)+len(extra))
	for _, ic := range defaultIcons {
		icons[ic] = true
	}
	for _, ic := range extra {
		if ic != "" {
			icons[ic] = true
		}
	}
	return &IconSet{icons: icons}
}

// Contains reports whether the icon belongs to the set.
func (s *IconSet) Contains(icon string) bool {
	return s.icons[icon]
}

// Validate returns ErrUnknownIcon for icons outside the set.
func (s *IconSet) Validate(icon string) error {
	if !s.Contains(icon) {
		return ErrUnknownIcon
	}
	return nil
}
