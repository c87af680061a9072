package classify

import (
	"fmt"
	"strings"
)

// Category is the closed set of change categories
type Category string

const (
	Feature     Category = "Feature"
	Improvement Category = "Improvement"
	Breaking    Category = "Breaking"
	Change      Category = "Change"
	Bugfix      Category = "Bugfix"
)

// Categories lists every category in notification order, Bugfix last
var Categories = []Category{Breaking, Feature, Improvement, Change, Bugfix}

// Notify reports whether items of this category are worth a notification
func (c Category) Notify() bool {
	return c != Bugfix
}

// Title returns the section heading used when rendering the category
func (c Category) Title() string {
	switch c {
	case Breaking:
		return "Breaking Changes"
	case Feature:
		return "New Features"
	case Improvement:
		return "Improvements"
	case Change:
		return "Changes"
	case Bugfix:
		return "Bug Fixes"
	default:
		return string(c)
	}
}

// ParseCategory maps free text onto a Category. Case and surrounding
// whitespace are ignored; anything outside the closed set is an error.
func ParseCategory(s string) (Category, error) {
	trimmed := strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(trimmed, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}
