package stmtparser

import (
	"strings"

	"bankstmt/statement-core/internal/models"
	"bankstmt/statement-core/internal/profiles"
)

// headerScanLimit bounds how deep into the page the header search goes; real
// statements put the column header well before line 80, and scanning further
// only picks up footer noise.
const headerScanLimit = 80

// headerAnchors holds the column x-centers taken from the header line. Date
// and balance come straight from matched tokens; debit and credit are
// interpolated when their headers were not found.
type headerAnchors struct {
	y           float64
	date        float64
	description *float64
	debit       float64
	credit      float64
	balance     float64
}

// findHeaderAnchors scans the first lines of the page for one containing a
// date token and a balance token plus at least one of debit/credit. Missing
// flow anchors are interpolated between the date and balance columns.
func findHeaderAnchors(lines []line, profile profiles.BankProfile) *headerAnchors {
	for i, ln := range lines {
		if i >= headerScanLimit {
			break
		}
		lower := strings.ToLower(ln.text())

		dateX := findTokenX(lower, ln.words, profile.DateTokens)
		balanceX := findTokenX(lower, ln.words, profile.BalanceTokens)
		if dateX == nil || balanceX == nil {
			continue
		}
		debitX := findTokenX(lower, ln.words, profile.DebitTokens)
		creditX := findTokenX(lower, ln.words, profile.CreditTokens)
		if debitX == nil && creditX == nil {
			continue
		}
		if debitX == nil {
			v := (*dateX + *balanceX) / 2.0
			debitX = &v
		}
		if creditX == nil {
			v := (*debitX + *balanceX) / 2.0
			creditX = &v
		}

		return &headerAnchors{
			y:           ln.cy,
			date:        *dateX,
			description: findTokenX(lower, ln.words, profile.DescriptionTokens),
			debit:       *debitX,
			credit:      *creditX,
			balance:     *balanceX,
		}
	}
	return nil
}

// findTokenX locates a header token within a line and returns the horizontal
// center of the matched word span. Multi-word tokens ("running balance") must
// match a consecutive run of words.
func findTokenX(lineText string, words []models.Word, tokens []string) *float64 {
	for _, token := range tokens {
		if token == "" || !strings.Contains(lineText, token) {
			continue
		}
		parts := strings.Fields(token)
		if len(parts) == 0 {
			continue
		}
		for i := 0; i+len(parts) <= len(words); i++ {
			span := words[i : i+len(parts)]
			joined := make([]string, len(span))
			for k, w := range span {
				joined[k] = strings.ToLower(w.Text)
			}
			if strings.Join(joined, " ") == token {
				x := (span[0].X1 + span[len(span)-1].X2) / 2.0
				return &x
			}
		}
	}
	return nil
}
