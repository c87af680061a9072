package notify

import (
	"context"
	"fmt"
	"io"
	"os"

	colour "github.com/fatih/color"
	"github.com/nickromney-org/release-radar/internal/classify"
)

var (
	bold   = colour.New(colour.Bold)
	red    = colour.New(colour.FgRed, colour.Bold)
	green  = colour.New(colour.FgGreen, colour.Bold)
	yellow = colour.New(colour.FgYellow)
	cyan   = colour.New(colour.FgCyan)
	grey   = colour.New(colour.FgHiBlack)
)

var categoryColours = map[classify.Category]*colour.Color{
	classify.Breaking:    red,
	classify.Feature:     green,
	classify.Improvement: cyan,
	classify.Change:      yellow,
}

// Console prints what would be sent instead of delivering it
type Console struct {
	w       io.Writer
	project string
}

// NewConsole writes to w (os.Stdout when nil)
func NewConsole(w io.Writer, project string) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w, project: project}
}

// Notify renders the release to the terminal
func (c *Console) Notify(_ context.Context, r classify.ClassifiedRelease) error {
	switch {
	case r.Empty():
		grey.Fprintf(c.w, "[%s] Release has no change notes, nothing to send.\n\n", r.Version)
		return nil
	case r.BugfixOnly():
		yellow.Fprintf(c.w, "[%s] Release found, but no new features, improvements, or breaking changes (bugfix only).\n", r.Version)
		grey.Fprintf(c.w, "  %d bugfix item(s) excluded\n\n", len(r.Items))
		return nil
	}

	bold.Fprintf(c.w, "=== %s %s ===\n", c.project, r.Version)

	for _, cat := range classify.Categories {
		if !cat.Notify() {
			continue
		}
		items := r.ByCategory(cat)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintln(c.w)
		categoryColours[cat].Fprintf(c.w, "[%s]\n", cat.Title())
		for _, item := range items {
			fmt.Fprintf(c.w, "  - %s\n", item.Text())
		}
	}

	if excluded := len(r.Items) - len(r.NotifyItems); excluded > 0 {
		grey.Fprintf(c.w, "\n  %d bugfix item(s) excluded\n", excluded)
	}
	if r.URL != "" {
		grey.Fprintf(c.w, "  %s\n", r.URL)
	}
	fmt.Fprintln(c.w)

	return nil
}
