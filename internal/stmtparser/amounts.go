package stmtparser

import (
	"regexp"
	"strings"

	"bankstmt/statement-core/internal/amountutils"
)

// amountCandidateRe matches amount-shaped tokens, optionally parenthesised or
// signed. Word boundaries are enforced separately in hasAlnumNeighbor because
// RE2 has no lookaround.
var amountCandidateRe = regexp.MustCompile(`\(?-?\s*[$₱]?\s*[\d,]+(?:\.\d{2})?\)?`)

func isASCIIAlnum(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// hasAlnumNeighbor reports whether the span [start,end) touches a letter or
// digit, which would make the match a fragment of a larger token such as a
// reference number.
func hasAlnumNeighbor(s string, start, end int) bool {
	if start > 0 && isASCIIAlnum(s[start-1]) {
		return true
	}
	if end < len(s) && isASCIIAlnum(s[end]) {
		return true
	}
	return false
}

// trimLeadingSpace advances the span start past whitespace the regex absorbed
// via its leading \s*, so the boundary check looks at the character before the
// amount itself rather than before the gap.
func trimLeadingSpace(s string, start, end int) int {
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	return start
}

// extractLineAmounts pulls normalized amount strings out of raw line text.
// Bare one- and two-digit integers are skipped: they are almost always day
// numbers or cheque digits rather than money.
func extractLineAmounts(lineText string) []string {
	var out []string
	for _, loc := range amountCandidateRe.FindAllStringIndex(lineText, -1) {
		start := trimLeadingSpace(lineText, loc[0], loc[1])
		if hasAlnumNeighbor(lineText, start, loc[1]) {
			continue
		}
		token := strings.TrimSpace(lineText[start:loc[1]])
		if token == "" {
			continue
		}
		if !strings.Contains(token, ".") {
			plain := strings.Map(func(r rune) rune {
				if r >= '0' && r <= '9' {
					return r
				}
				return -1
			}, token)
			if len(plain) <= 2 {
				continue
			}
		}
		if norm := amountutils.NormalizeAmount(token); norm != nil {
			out = append(out, *norm)
		}
	}
	return out
}

// removeAmountSpans blanks out every amount-shaped token so that date and
// description extraction do not trip over money values embedded in the line.
func removeAmountSpans(lineText string) string {
	locs := amountCandidateRe.FindAllStringIndex(lineText, -1)
	if len(locs) == 0 {
		return lineText
	}
	var b strings.Builder
	prev := 0
	for _, loc := range locs {
		start := trimLeadingSpace(lineText, loc[0], loc[1])
		if hasAlnumNeighbor(lineText, start, loc[1]) {
			continue
		}
		b.WriteString(lineText[prev:start])
		b.WriteString(" ")
		prev = loc[1]
	}
	b.WriteString(lineText[prev:])
	return b.String()
}
