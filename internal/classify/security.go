package classify

import (
	"regexp"
	"strings"
)

var (
	securityTerms = regexp.MustCompile(`(?i)\b(security|vulnerabilit(y|ies)|cve-\d{4}-\d+|exploit(able)?|injection|xss|csrf|ssrf|rce|privilege escalation|sandbox (escape|bypass)|path traversal|credential (leak|exposure)|secrets? (leak|exposure)|bypass(ed|es)?|unauthori[sz]ed|sensitive (data|information))\b`)
	fixTerms      = regexp.MustCompile(`(?i)\b(fix(ed|es)?|patch(ed|es)?|resolv(e|ed|es)|address(ed|es)?|mitigat(e|ed|es)|prevent(ed|s)?|harden(ed|s)?|clos(e|ed|es))\b`)
)

// isSecurityFix reports whether an item describes a security fix. A
// security term together with fix wording qualifies, as does a security
// term on an item already labelled Bugfix.
func isSecurityFix(item ChangeItem) bool {
	text := strings.Join([]string{item.OriginalText, item.Summary}, "\n")
	if !securityTerms.MatchString(text) {
		return false
	}
	return item.Category == Bugfix || fixTerms.MatchString(text)
}
