package notify

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/nickromney-org/release-radar/internal/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mixedRelease() classify.ClassifiedRelease {
	items := []classify.ChangeItem{
		{Category: classify.Feature, Summary: "Adds /usage"},
		{Category: classify.Bugfix, Summary: "Fixes crash"},
		{Category: classify.Change, Summary: "Sonnet 4.5 leaves the CLI"},
		{Category: classify.Breaking, Summary: "Drops Node 16"},
		{Category: classify.Improvement, Summary: "Faster startup"},
	}
	var notify []classify.ChangeItem
	for _, i := range items {
		if i.Category.Notify() {
			notify = append(notify, i)
		}
	}
	return classify.ClassifiedRelease{Version: "2.1.45", URL: "https://github.com/anthropics/claude-code/releases/tag/v2.1.45", Items: items, NotifyItems: notify}
}

func TestBuildMessage_Sections(t *testing.T) {
	msg := BuildMessage("Claude Code", mixedRelease(), "")

	require.Len(t, msg.Blocks, 6)
	assert.Equal(t, "header", msg.Blocks[0].Type)
	assert.Equal(t, "Claude Code 2.1.45 - Release Radar", msg.Blocks[0].Text.Text)

	// Breaking, Feature, Improvement, Change
	assert.True(t, strings.HasPrefix(msg.Blocks[1].Text.Text, "*:warning: Breaking Changes*"))
	assert.True(t, strings.HasPrefix(msg.Blocks[2].Text.Text, "*:sparkles: New Features*"))
	assert.True(t, strings.HasPrefix(msg.Blocks[3].Text.Text, "*:arrow_up: Improvements*"))
	assert.True(t, strings.HasPrefix(msg.Blocks[4].Text.Text, "*:arrows_counterclockwise: Changes*"))

	assert.Equal(t, "context", msg.Blocks[5].Type)
	assert.Contains(t, msg.Blocks[5].Elements[0].Text, "releases/tag/v2.1.45|View full release notes")

	for _, b := range msg.Blocks {
		if b.Text != nil {
			assert.NotContains(t, b.Text.Text, "Fixes crash")
		}
	}
	assert.NotEmpty(t, msg.Text)
}

func TestBuildMessage_BugfixOnly(t *testing.T) {
	r := classify.ClassifiedRelease{
		Version: "2.1.44",
		Items:   []classify.ChangeItem{{Category: classify.Bugfix, OriginalText: "Fixed auth refresh errors"}},
	}
	url := "https://github.com/anthropics/claude-code/releases/tag/v2.1.44"

	msg := BuildMessage("Claude Code", r, url)

	assert.Empty(t, msg.Blocks)
	assert.Equal(t, "Claude Code 2.1.44 was released (bugfix only) <"+url+"|Release Notes>", msg.Text)
}

func TestBuildMessage_Empty(t *testing.T) {
	msg := BuildMessage("Claude Code", classify.ClassifiedRelease{Version: "2.1.40"}, "")
	assert.Equal(t, Message{}, msg)
}

func TestBuildMessage_SplitsLongSections(t *testing.T) {
	var items []classify.ChangeItem
	for i := 0; i < 120; i++ {
		items = append(items, classify.ChangeItem{
			Category: classify.Feature,
			Summary:  fmt.Sprintf("Feature number %03d with a reasonably long description of what it does", i),
		})
	}
	r := classify.ClassifiedRelease{Version: "2.1.47", Items: items, NotifyItems: items}

	msg := BuildMessage("Claude Code", r, "https://example.com")

	sections := 0
	total := 0
	for _, b := range msg.Blocks {
		if b.Type != "section" {
			continue
		}
		sections++
		assert.LessOrEqual(t, utf8.RuneCountInString(b.Text.Text), SectionLimit)
		assert.True(t, strings.HasPrefix(b.Text.Text, "*:sparkles: New Features*\n"))
		total += strings.Count(b.Text.Text, "  - Feature number")
	}
	assert.Greater(t, sections, 1)
	assert.Equal(t, 120, total)
}

func TestBuildMessage_TruncatesOversizedItem(t *testing.T) {
	huge := classify.ChangeItem{Category: classify.Change, Summary: strings.Repeat("é", 5000)}
	r := classify.ClassifiedRelease{Version: "1.0.0", Items: []classify.ChangeItem{huge}, NotifyItems: []classify.ChangeItem{huge}}

	msg := BuildMessage("Claude Code", r, "")

	require.Len(t, msg.Blocks, 2)
	assert.LessOrEqual(t, utf8.RuneCountInString(msg.Blocks[1].Text.Text), SectionLimit)
}
