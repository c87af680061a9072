package classify

// ChangeItem is one validated change-note entry
type ChangeItem struct {
	OriginalText string   `json:"original" yaml:"original"`
	Category     Category `json:"category" yaml:"category"`
	Summary      string   `json:"summary" yaml:"summary"`
}

// Text returns the summary, or the original text when there is none
func (i ChangeItem) Text() string {
	if i.Summary != "" {
		return i.Summary
	}
	return i.OriginalText
}

// ClassifiedRelease is the validated classification of one release
type ClassifiedRelease struct {
	Version     string       `json:"version" yaml:"version"`
	URL         string       `json:"url,omitempty" yaml:"url,omitempty"`
	Items       []ChangeItem `json:"items" yaml:"items"`
	NotifyItems []ChangeItem `json:"notify_items" yaml:"notify_items"`
}

// BugfixOnly reports whether the release has items but none worth notifying
func (r ClassifiedRelease) BugfixOnly() bool {
	return len(r.Items) > 0 && len(r.NotifyItems) == 0
}

// Empty reports whether the release has no items at all
func (r ClassifiedRelease) Empty() bool {
	return len(r.Items) == 0
}

// ByCategory returns the notify items of one category, in order
func (r ClassifiedRelease) ByCategory(c Category) []ChangeItem {
	var out []ChangeItem
	for _, item := range r.NotifyItems {
		if item.Category == c {
			out = append(out, item)
		}
	}
	return out
}
