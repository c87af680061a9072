package oracle

import (
	"fmt"
	"strings"
	"text/template"
)

type promptData struct {
	Project string
	Version string
	Text    string
}

var systemTemplate = template.Must(template.New("system").Parse(systemPromptTemplate))

var userTemplate = template.Must(template.New("user").Parse(userPromptTemplate))

func renderSystemPrompt(project string) (string, error) {
	var sb strings.Builder
	if err := systemTemplate.Execute(&sb, promptData{Project: project}); err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	return sb.String(), nil
}

func renderUserPrompt(req Request) (string, error) {
	var sb strings.Builder
	if err := userTemplate.Execute(&sb, promptData{Version: req.Version, Text: req.Text}); err != nil {
		return "", fmt.Errorf("failed to render user prompt: %w", err)
	}
	return sb.String(), nil
}

const systemPromptTemplate = `You classify the release notes of {{.Project}} for a team that only wants to hear about changes that affect how they use it.

Split the release notes into individual change items. Every bullet point is one item. Classify each item into exactly one category:

- Feature: a new capability, command, option or integration that did not exist before.
- Improvement: an existing capability that became faster, clearer, more capable or easier to use.
- Breaking: a change that requires users to change their configuration, workflow or scripts.
- Change: a behaviour change, removal or deprecation that is not breaking, and any security fix.
- Bugfix: a correction of behaviour that was wrong. Nothing else.

Rules:
- Decide from what the item does, not from its first word. "Fixed" items that add behaviour are not Bugfix.
- Security fixes are always Change, never Bugfix, even when worded as a fix.
- Keep every item, including Bugfix items. Do not merge or drop items.
- Write the summary as one short sentence in plain English.
- Copy the item text verbatim into "original".

Answer with a single JSON object and nothing else:

{"items": [{"category": "Feature", "summary": "...", "original": "..."}]}

If the notes contain no change items, answer {"items": []}.`

const userPromptTemplate = `Version: {{.Version}}

Release notes:
{{.Text}}`
