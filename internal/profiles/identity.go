package profiles

import (
	"regexp"
	"strings"

	"bankstmt/statement-core/internal/models"
)

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	numberCandidate = regexp.MustCompile(`[0-9Xx*\-]{6,50}`)
	hasDigitRe      = regexp.MustCompile(`[0-9]`)
	legalEntityRe   = regexp.MustCompile(`(?i)\b([A-Z][A-Z0-9 .,&'/-]{2,120}\b(?:CORPORATION|CORP\.?|INC\.?|CO\.?|COMPANY|LIMITED|LTD\.?))\b`)
)

// Fragments that signal the captured name ran past the holder name into the
// next labeled field on the same line.
var nameStopPhrases = []string{
	"account number",
	"acct no",
	"available balance",
	"statement period",
	"date from",
	"date to",
}

// Labels that signal a line (or its successor) carries the account number.
var numberLabelTokens = []string{"account", "acct", "a/c", "casa"}

// ExtractAccountIdentity extracts the account holder name and number from page
// text using the profile's capture-group patterns first, with the GENERIC
// patterns appended as fallback. Matched values are cleaned, truncated at
// known stop-phrases and length-checked before acceptance.
func (r *Registry) ExtractAccountIdentity(pageText string, profile BankProfile) models.AccountIdentity {
	generic := r.Generic()

	namePatterns := append(append([]string{}, profile.AccountNamePatterns...), generic.AccountNamePatterns...)
	numberPatterns := append(append([]string{}, profile.AccountNumberPatterns...), generic.AccountNumberPatterns...)

	lines := compactLines(pageText)
	clean := strings.Join(lines, "\n")
	compactAll := whitespaceRe.ReplaceAllString(clean, " ")

	name := firstPatternMatch(namePatterns, clean)
	if name == "" {
		name = firstPatternMatch(namePatterns, compactAll)
	}
	cleanName := normalizeNameCandidate(name)
	if cleanName == nil {
		cleanName = extractNameFromHeader(lines, compactAll)
	}

	number := firstPatternMatch(numberPatterns, clean)
	if number == "" {
		number = firstPatternMatch(numberPatterns, compactAll)
	}
	cleanNumber := normalizeNumberCandidate(number)
	if cleanNumber == nil {
		cleanNumber = findAccountNumberInLines(lines)
	}

	return models.AccountIdentity{AccountName: cleanName, AccountNumber: cleanNumber}
}

func compactLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		compact := strings.TrimSpace(whitespaceRe.ReplaceAllString(line, " "))
		if compact != "" {
			out = append(out, compact)
		}
	}
	return out
}

func firstPatternMatch(patterns []string, text string) string {
	for _, pattern := range patterns {
		re, err := CompilePattern(pattern)
		if err != nil {
			continue
		}
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value != "" {
			return value
		}
	}
	return ""
}

func normalizeNameCandidate(value string) *string {
	if value == "" {
		return nil
	}
	cleaned := strings.Trim(whitespaceRe.ReplaceAllString(value, " "), " -:|")
	low := strings.ToLower(cleaned)
	for _, token := range nameStopPhrases {
		if idx := strings.Index(low, token); idx > 0 {
			cleaned = strings.Trim(cleaned[:idx], " -:|")
			low = strings.ToLower(cleaned)
		}
	}
	if len(cleaned) < 3 || len(cleaned) > 90 {
		return nil
	}
	switch strings.ToLower(cleaned) {
	case "none", "null", "n/a", "na":
		return nil
	}
	return &cleaned
}

func normalizeNumberCandidate(value string) *string {
	if value == "" {
		return nil
	}
	cleaned := whitespaceRe.ReplaceAllString(value, "")
	cleaned = strings.ReplaceAll(cleaned, "*", "X")
	cleaned = strings.Trim(cleaned, " -:|")
	if len(cleaned) < 4 {
		return nil
	}
	if !hasDigitRe.MatchString(cleaned) {
		return nil
	}
	return &cleaned
}

// findAccountNumberInLines scans for number-like tokens on lines carrying an
// account label, checking the following line too since OCR often splits
// label and value.
func findAccountNumberInLines(lines []string) *string {
	for idx, line := range lines {
		low := strings.ToLower(line)
		labeled := false
		for _, token := range numberLabelTokens {
			if strings.Contains(low, token) {
				labeled = true
				break
			}
		}
		if !labeled {
			continue
		}
		candidates := numberCandidate.FindAllString(line, -1)
		if len(candidates) == 0 && idx+1 < len(lines) {
			candidates = numberCandidate.FindAllString(lines[idx+1], -1)
		}
		for _, cand := range candidates {
			if normalized := normalizeNumberCandidate(cand); normalized != nil {
				return normalized
			}
		}
	}
	return nil
}

// extractNameFromHeader recovers a holder name from the page header when no
// labeled name field exists: trim table-header markers and address starts,
// prefer legal-entity endings.
func extractNameFromHeader(lines []string, compactAll string) *string {
	header := ""
	if len(lines) > 0 {
		header = lines[0]
	}
	if header == "" {
		if len(compactAll) > 260 {
			header = compactAll[:260]
		} else {
			header = compactAll
		}
	}
	if header == "" {
		return nil
	}

	normalized := strings.TrimSpace(whitespaceRe.ReplaceAllString(header, " "))

	for _, token := range []string{
		" TRANSACTION DESCRIPTION",
		" DATE CHECK NO.",
		" DATE ",
		" ACCOUNT NO",
		" ACCOUNT NUMBER",
	} {
		if idx := strings.Index(strings.ToUpper(normalized), token); idx > 0 {
			normalized = strings.TrimSpace(normalized[:idx])
		}
	}

	for _, marker := range []string{
		" LOT ",
		" BLOCK ",
		" STREET ",
		" ST. ",
		" AVE ",
		" AVENUE ",
		" BARANGAY ",
		" BRGY ",
		" CITY ",
		" QUEZON CITY ",
		" MAKATI ",
		" MANILA ",
	} {
		if idx := strings.Index(strings.ToUpper(normalized), marker); idx > 0 {
			normalized = strings.TrimSpace(normalized[:idx])
			break
		}
	}

	if m := legalEntityRe.FindStringSubmatch(normalized); m != nil {
		normalized = strings.TrimSpace(m[1])
	}

	return normalizeNameCandidate(normalized)
}
