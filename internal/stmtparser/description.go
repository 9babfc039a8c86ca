package stmtparser

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"bankstmt/statement-core/internal/amountutils"
	"bankstmt/statement-core/internal/dateutils"
	"bankstmt/statement-core/internal/models"
	"bankstmt/statement-core/internal/profiles"
)

var multiSpaceRe = regexp.MustCompile(`\s+`)

const descriptionTrimCutset = " -:|,"

// extractDescriptionFromHeaderLine picks description words from the band
// between the left-most identity anchor and the left-most flow column. When
// the geometry is degenerate, or the band yields nothing usable, it falls
// back to token filtering and then to stripped line text.
func extractDescriptionFromHeaderLine(
	words []models.Word,
	lineText string,
	profile profiles.BankProfile,
	header *headerAnchors,
) *string {
	if len(words) == 0 {
		return extractDescriptionWithoutHeader(lineText, profile)
	}

	flowLeft := math.Min(header.debit, math.Min(header.credit, header.balance))
	leftAnchor := header.date
	if header.description != nil {
		leftAnchor = math.Min(header.date, *header.description)
	}
	if flowLeft <= leftAnchor {
		return extractDescriptionWithoutHeader(lineText, profile)
	}

	var picked []string
	for _, w := range words {
		cx := w.CenterX()
		if cx <= leftAnchor+2.0 || cx >= flowLeft-2.0 {
			continue
		}
		token := strings.TrimSpace(w.Text)
		if token == "" {
			continue
		}
		if amountutils.NormalizeAmount(token) != nil {
			continue
		}
		if dateutils.NormalizeDate(token, profile.DateOrder) != nil {
			continue
		}
		picked = append(picked, token)
	}

	if len(picked) > 0 {
		desc := strings.Trim(multiSpaceRe.ReplaceAllString(strings.Join(picked, " "), " "), descriptionTrimCutset)
		if desc != "" && !isNoise(desc, profile) {
			return &desc
		}
	}

	if fromWords := extractDescriptionFromWords(words, profile); fromWords != nil {
		return fromWords
	}

	return extractDescriptionWithoutHeader(lineText, profile)
}

// extractDescriptionWithoutHeader strips the date, any trailing clock time
// and every amount token from the raw line text, keeping what remains.
func extractDescriptionWithoutHeader(lineText string, profile profiles.BankProfile) *string {
	text := strings.TrimSpace(lineText)
	if text == "" {
		return nil
	}

	text = dateutils.StripFirstDate(text, profile.DateOrder)
	text = dateutils.StripClockSuffix(text)
	text = removeAmountSpans(text)
	text = strings.Trim(multiSpaceRe.ReplaceAllString(text, " "), descriptionTrimCutset)
	if text == "" || isNoise(text, profile) {
		return nil
	}
	return &text
}

// extractDescriptionFromWords keeps tokens that are neither header
// vocabulary, amounts nor dates, in left-to-right order.
func extractDescriptionFromWords(words []models.Word, profile profiles.BankProfile) *string {
	if len(words) == 0 {
		return nil
	}

	ignored := make(map[string]struct{})
	for _, group := range [][]string{
		profile.DateTokens,
		profile.DescriptionTokens,
		profile.DebitTokens,
		profile.CreditTokens,
		profile.BalanceTokens,
	} {
		for _, t := range group {
			ignored[strings.ToLower(t)] = struct{}{}
		}
	}

	ordered := make([]models.Word, len(words))
	copy(ordered, words)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].X1 < ordered[j].X1 })

	var parts []string
	for _, w := range ordered {
		token := strings.TrimSpace(w.Text)
		if token == "" {
			continue
		}
		if _, skip := ignored[strings.ToLower(token)]; skip {
			continue
		}
		if amountutils.NormalizeAmount(token) != nil {
			continue
		}
		if dateutils.NormalizeDate(token, profile.DateOrder) != nil {
			continue
		}
		parts = append(parts, token)
	}

	text := strings.Trim(multiSpaceRe.ReplaceAllString(strings.Join(parts, " "), " "), descriptionTrimCutset)
	if text == "" || isNoise(text, profile) {
		return nil
	}
	return &text
}
