package notify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nickromney-org/release-radar/internal/classify"
)

// SectionLimit is the largest text Slack accepts in one section block
const SectionLimit = 3000

// Text is a Slack text object
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Block is a Slack Block Kit block (header, section or context)
type Block struct {
	Type     string `json:"type"`
	Text     *Text  `json:"text,omitempty"`
	Elements []Text `json:"elements,omitempty"`
}

// Message is an incoming-webhook payload
type Message struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

var sectionHeadings = map[classify.Category]string{
	classify.Breaking:    "*:warning: Breaking Changes*",
	classify.Feature:     "*:sparkles: New Features*",
	classify.Improvement: "*:arrow_up: Improvements*",
	classify.Change:      "*:arrows_counterclockwise: Changes*",
}

// BuildMessage renders a classified release as a Slack message. Bugfix-only
// releases get the fixed one-line notice. Empty releases render nothing and
// return the zero Message.
func BuildMessage(project string, r classify.ClassifiedRelease, url string) Message {
	if url == "" {
		url = r.URL
	}

	switch {
	case r.Empty():
		return Message{}
	case r.BugfixOnly():
		return Message{Text: BugfixOnlyText(project, r.Version, url)}
	}

	blocks := []Block{{
		Type: "header",
		Text: &Text{Type: "plain_text", Text: fmt.Sprintf("%s %s - Release Radar", project, r.Version)},
	}}

	for _, c := range classify.Categories {
		if !c.Notify() {
			continue
		}
		items := r.ByCategory(c)
		if len(items) == 0 {
			continue
		}
		blocks = append(blocks, sectionBlocks(sectionHeadings[c], items)...)
	}

	if url != "" {
		blocks = append(blocks, Block{
			Type:     "context",
			Elements: []Text{{Type: "mrkdwn", Text: fmt.Sprintf("<%s|View full release notes>", url)}},
		})
	}

	return Message{
		Text:   fmt.Sprintf("%s %s - new features and improvements detected", project, r.Version),
		Blocks: blocks,
	}
}

// BugfixOnlyText is the fixed notice for releases with nothing but fixes
func BugfixOnlyText(project, ver, url string) string {
	return fmt.Sprintf("%s %s was released (bugfix only) <%s|Release Notes>", project, ver, url)
}

// sectionBlocks renders one category, splitting it into as many section
// blocks as needed to keep each under SectionLimit characters
func sectionBlocks(heading string, items []classify.ChangeItem) []Block {
	var blocks []Block
	var lines []string
	size := utf8.RuneCountInString(heading)
	maxLine := SectionLimit - size - 1

	flush := func() {
		if len(lines) == 0 {
			return
		}
		text := heading + "\n" + strings.Join(lines, "\n")
		blocks = append(blocks, Block{Type: "section", Text: &Text{Type: "mrkdwn", Text: text}})
		lines = nil
		size = utf8.RuneCountInString(heading)
	}

	for _, item := range items {
		line := truncate("  - "+item.Text(), maxLine)
		n := utf8.RuneCountInString(line) + 1
		if size+n > SectionLimit {
			flush()
		}
		lines = append(lines, line)
		size += n
	}
	flush()

	return blocks
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
