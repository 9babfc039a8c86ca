package analyzer

import (
	"regexp"
	"strings"

	"bankstmt/statement-core/internal/dateutils"
	"bankstmt/statement-core/internal/models"
	"bankstmt/statement-core/internal/profiles"
	"bankstmt/statement-core/internal/stmtparser"
)

var nonNameChars = regexp.MustCompile(`[^A-Za-z0-9]+`)

const maxProfileNameLen = 64

// bankMarkers is the closed list of substrings a proposal must mention,
// either in its name or its detection tokens, to count as bank-like.
var bankMarkers = []string{
	"bank",
	"unibank",
	"aub",
	"bdo",
	"bpi",
	"rcbc",
	"eastwest",
	"ewb",
	"unionbank",
	"chinabank",
	"maybank",
	"security bank",
	"metrobank",
	"ps bank",
	"pbcom",
	"sterling",
}

// QualityThresholds gates acceptance of a proposed profile: the profile must
// actually parse the sample pages this well before it is persisted.
type QualityThresholds struct {
	SamplePages     int
	MinRows         int
	MinDateRatio    float64
	MinBalanceRatio float64
}

// DefaultQualityThresholds returns the production gate.
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{SamplePages: 3, MinRows: 3, MinDateRatio: 0.8, MinBalanceRatio: 0.8}
}

// sanitizeProfileName collapses a raw proposal name to upper-snake ASCII,
// forcing the AUTO_ prefix so learned profiles are always distinguishable
// from the seeded ones.
func sanitizeProfileName(raw string) string {
	cleaned := nonNameChars.ReplaceAllString(strings.TrimSpace(raw), "_")
	cleaned = strings.ToUpper(strings.Trim(cleaned, "_"))
	if cleaned == "" {
		return ""
	}
	if !strings.HasPrefix(cleaned, "AUTO_") {
		cleaned = "AUTO_" + cleaned
	}
	if len(cleaned) > maxProfileNameLen {
		cleaned = cleaned[:maxProfileNameLen]
	}
	return cleaned
}

func isBankLike(rawName string, containsAny, containsAll []string) bool {
	parts := append([]string{rawName}, containsAny...)
	parts = append(parts, containsAll...)
	pool := strings.ToLower(strings.Join(parts, " "))
	for _, marker := range bankMarkers {
		if strings.Contains(pool, marker) {
			return true
		}
	}
	return false
}

// normalizeItems lowercases and trims string items, dropping empties.
func normalizeItems(values []string) []string {
	var out []string
	for _, v := range values {
		if text := strings.ToLower(strings.TrimSpace(v)); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func pickTokens(values, fallback []string) []string {
	if picked := normalizeItems(values); len(picked) > 0 {
		return picked
	}
	return append([]string(nil), fallback...)
}

// pickPatterns keeps only regex patterns that compile, wrapping group-less
// ones in parentheses the same way the registry does at load time.
func pickPatterns(values, fallback []string) []string {
	var picked []string
	for _, v := range values {
		text := strings.TrimSpace(v)
		if text == "" {
			continue
		}
		if _, err := profiles.CompilePattern(text); err != nil {
			continue
		}
		picked = append(picked, text)
	}
	if len(picked) > 0 {
		return picked
	}
	return append([]string(nil), fallback...)
}

// validateProposal turns a raw LLM proposal into a registry-ready profile and
// detection rule, or returns a stable rejection reason. The empirical quality
// gate parses the sample pages with the candidate profile before accepting.
func validateProposal(
	proposal *Proposal,
	registry *profiles.Registry,
	pages []models.PageLayout,
	thresholds QualityThresholds,
) (*profiles.BankProfile, *profiles.DetectionRule, string) {
	generic, ok := registry.Profile(profiles.GenericProfileName)
	if !ok {
		return nil, nil, "missing_generic_profile"
	}

	name := sanitizeProfileName(proposal.ProfileName)
	if name == "" {
		return nil, nil, "invalid_profile_name"
	}
	if _, exists := registry.Profile(name); exists {
		return nil, nil, "profile_already_exists"
	}

	containsAny := normalizeItems(proposal.DetectionContainsAny)
	containsAll := normalizeItems(proposal.DetectionContainsAll)
	if len(containsAny) == 0 && len(containsAll) == 0 {
		return nil, nil, "empty_detection_rule"
	}
	if !isBankLike(proposal.ProfileName, containsAny, containsAll) {
		return nil, nil, "profile_not_bank_like"
	}

	var dateOrder []string
	for _, v := range normalizeItems(proposal.DateOrder) {
		if dateutils.IsValidOrder(v) {
			dateOrder = append(dateOrder, v)
		}
	}
	if len(dateOrder) == 0 {
		dateOrder = append([]string(nil), generic.DateOrder...)
	}

	candidate := profiles.BankProfile{
		Name:                  name,
		DateTokens:            pickTokens(proposal.DateTokens, generic.DateTokens),
		DescriptionTokens:     pickTokens(proposal.DescriptionTokens, generic.DescriptionTokens),
		DebitTokens:           pickTokens(proposal.DebitTokens, generic.DebitTokens),
		CreditTokens:          pickTokens(proposal.CreditTokens, generic.CreditTokens),
		BalanceTokens:         pickTokens(proposal.BalanceTokens, generic.BalanceTokens),
		DateOrder:             dateOrder,
		NoiseTokens:           normalizeItems(proposal.NoiseTokens),
		OCRBackends:           append([]string(nil), generic.OCRBackends...),
		AccountNamePatterns:   pickPatterns(proposal.AccountNamePatterns, generic.AccountNamePatterns),
		AccountNumberPatterns: pickPatterns(proposal.AccountNumberPatterns, generic.AccountNumberPatterns),
	}

	rule := profiles.DetectionRule{Profile: name, ContainsAny: containsAny, ContainsAll: containsAll}
	for _, existing := range registry.Rules() {
		if stringSlicesEqual(existing.ContainsAny, containsAny) && stringSlicesEqual(existing.ContainsAll, containsAll) {
			return nil, nil, "duplicate_detection_rule"
		}
	}

	if reason := validateParseQuality(candidate, pages, thresholds); reason != "" {
		return nil, nil, reason
	}

	return &candidate, &rule, ""
}

// validateParseQuality parses up to thresholds.SamplePages pages with the
// candidate profile and checks transaction-row yield. An empty return means
// the gate passed.
func validateParseQuality(
	profile profiles.BankProfile,
	pages []models.PageLayout,
	thresholds QualityThresholds,
) string {
	samplePages := thresholds.SamplePages
	if samplePages < 1 {
		samplePages = 1
	}
	minRows := thresholds.MinRows
	if minRows < 1 {
		minRows = 1
	}

	checkedPages := 0
	totalRows := 0
	validDates := 0
	validBalances := 0
	for _, page := range pages {
		if len(page.Words) == 0 {
			continue
		}
		rows, _, _ := stmtparser.ParseWordsPage(page.Words, page.Width, page.Height, profile)
		var txRows []models.ParsedRow
		for _, row := range rows {
			if stmtparser.IsTransactionRow(row, profile) {
				txRows = append(txRows, row)
			}
		}
		checkedPages++
		for _, r := range txRows {
			totalRows++
			if r.Date != nil && strings.TrimSpace(*r.Date) != "" {
				validDates++
			}
			if r.Balance != nil && strings.TrimSpace(*r.Balance) != "" {
				validBalances++
			}
		}
		if checkedPages >= samplePages {
			break
		}
	}

	if totalRows < minRows {
		return "quality_rows_below_threshold"
	}
	if float64(validDates)/float64(totalRows) < thresholds.MinDateRatio {
		return "quality_date_ratio_below_threshold"
	}
	if float64(validBalances)/float64(totalRows) < thresholds.MinBalanceRatio {
		return "quality_balance_ratio_below_threshold"
	}
	return ""
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
