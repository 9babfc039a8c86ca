// Package amountutils converts noisy OCR and text-layer amount tokens into
// canonical fixed two-decimal strings.
package amountutils

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencyReplacer = strings.NewReplacer("₱", "", "PHP", "", "php", "", "—", "", "–", "")
	nonAmountChars   = regexp.MustCompile(`[^0-9.\-]`)
)

// NormalizeAmount strips currency symbols, thousands separators and
// parenthetical-negative notation, returning the value formatted with exactly
// two fraction digits. Returns nil for empty or symbol-only input.
//
//	"1,234.5" -> "1234.50"
//	"(50)"    -> "-50.00"
func NormalizeAmount(value string) *string {
	text := strings.TrimSpace(value)
	if text == "" {
		return nil
	}

	text = strings.TrimSpace(currencyReplacer.Replace(text))
	if text == "" || text == "-" || text == "--" {
		return nil
	}

	neg := false
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		neg = true
		text = strings.TrimSpace(text[1 : len(text)-1])
	}

	text = strings.ReplaceAll(text, " ", "")
	text = strings.ReplaceAll(text, ",", "")
	text = nonAmountChars.ReplaceAllString(text, "")
	if text == "" || text == "." || text == "-" {
		return nil
	}

	num, err := decimal.NewFromString(text)
	if err != nil {
		return nil
	}

	if neg && num.IsPositive() {
		num = num.Neg()
	}

	out := num.StringFixed(2)
	return &out
}
