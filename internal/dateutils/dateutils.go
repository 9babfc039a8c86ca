// Package dateutils normalizes noisy statement date tokens into ISO dates.
// Parsing is driven by an ordered list of date-order families (mdy, dmy, ymd)
// so bank profiles can express their preferred interpretation of ambiguous
// numeric dates.
package dateutils

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayoutISO is the canonical output layout for all normalized dates.
const DateLayoutISO = "2006-01-02"

// Orders lists the supported date-order families in default trial order.
var Orders = []string{"mdy", "dmy", "ymd"}

// IsValidOrder reports whether v names a supported date-order family.
func IsValidOrder(v string) bool {
	return v == "mdy" || v == "dmy" || v == "ymd"
}

var datePatterns = map[string][]*regexp.Regexp{
	"mdy": {
		regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`),
		regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{2,4})\b`),
	},
	"dmy": {
		regexp.MustCompile(`\b(\d{1,2})\s+([A-Za-z]{3})\s+(\d{2,4})\b`),
		regexp.MustCompile(`\b(\d{1,2})([A-Za-z]{3})(\d{2,4})\b`),
		regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{2,4})\b`),
	},
	"ymd": {
		regexp.MustCompile(`\b(\d{4})/(\d{1,2})/(\d{1,2})\b`),
		regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`),
	},
}

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// OCR confusion maps. Day and year positions expect digits, month positions
// expect letters, so the mappings differ per position ("B" is 3 in a day but
// 8 in a year, matching observed scanner output).
var ocrDayDigitMap = map[byte]byte{
	'O': '0', 'Q': '0', 'D': '0',
	'I': '1', 'L': '1',
	'Z': '2',
	'S': '5',
	'B': '3',
	'T': '7', 'Y': '7',
}

var ocrYearDigitMap = map[byte]byte{
	'O': '0', 'Q': '0', 'D': '0',
	'I': '1', 'L': '1',
	'Z': '2',
	'S': '5',
	'B': '8',
	'T': '7', 'Y': '7',
}

var ocrMonthCharMap = map[byte]byte{
	'0': 'O',
	'1': 'I',
	'2': 'Z',
	'5': 'S',
	'8': 'B',
	'6': 'G',
	'4': 'A',
	'7': 'T',
}

var (
	clockSuffixRe  = regexp.MustCompile(`,?\s+\d{1,2}:\d{2}(?::\d{2})?\s*[APMapm]{0,2}$`)
	oBetweenDigits = regexp.MustCompile(`(\d)[Oo](\d)`)
	bareMonthDayRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\b`)
	compactTokenRe = regexp.MustCompile(`[A-Za-z0-9]{6,10}`)
)

// NormalizeDate converts a noisy date token into an ISO YYYY-MM-DD string,
// trying each date-order family in the given order. Clock-time suffixes like
// ", 11:10 AM" are stripped first. On total failure it tries a bare MM/DD
// defaulting to the current year, then an OCR compacted-month recovery pass.
// Returns nil only when nothing matched.
func NormalizeDate(value string, order []string) *string {
	text := strings.TrimSpace(value)
	if text == "" {
		return nil
	}

	text = strings.TrimSpace(clockSuffixRe.ReplaceAllString(text, ""))
	for {
		fixed := oBetweenDigits.ReplaceAllString(text, "${1}0${2}")
		if fixed == text {
			break
		}
		text = fixed
	}

	for _, mode := range order {
		for _, pattern := range datePatterns[mode] {
			m := pattern.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			if iso := matchToDate(m[1:], mode); iso != nil {
				return iso
			}
		}
	}

	// OCR fallback: month/day without a year.
	if m := bareMonthDayRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if t, ok := makeDate(time.Now().Year(), month, day); ok {
			iso := t.Format(DateLayoutISO)
			return &iso
		}
	}

	return parseOCRCompactMonthDate(text)
}

// StripFirstDate removes the first date-shaped substring from text, trying
// the given date-order families first and then the remaining ones. Used to
// peel dates out of line text before treating the rest as a description.
func StripFirstDate(text string, order []string) string {
	searchOrder := make([]string, 0, len(Orders))
	searchOrder = append(searchOrder, order...)
	for _, mode := range Orders {
		if !containsString(order, mode) {
			searchOrder = append(searchOrder, mode)
		}
	}
	for _, mode := range searchOrder {
		for _, pattern := range datePatterns[mode] {
			if loc := pattern.FindStringIndex(text); loc != nil {
				return text[:loc[0]] + " " + text[loc[1]:]
			}
		}
	}
	return text
}

// StripClockSuffix removes a trailing clock time such as ", 11:10 AM".
func StripClockSuffix(text string) string {
	return clockSuffixRe.ReplaceAllString(text, "")
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func matchToDate(groups []string, mode string) *string {
	var year, month, day int
	switch mode {
	case "ymd":
		year, _ = strconv.Atoi(groups[0])
		month, _ = strconv.Atoi(groups[1])
		day, _ = strconv.Atoi(groups[2])
	case "mdy":
		month, _ = strconv.Atoi(groups[0])
		day, _ = strconv.Atoi(groups[1])
		year = normalizeYear(groups[2])
	case "dmy":
		day, _ = strconv.Atoi(groups[0])
		if isAlpha(groups[1]) {
			m, ok := months[strings.ToLower(strings.TrimSpace(groups[1]))[:3]]
			if !ok {
				return nil
			}
			month = m
		} else {
			month, _ = strconv.Atoi(groups[1])
		}
		year = normalizeYear(groups[2])
	default:
		return nil
	}

	t, ok := makeDate(year, month, day)
	if !ok {
		return nil
	}
	iso := t.Format(DateLayoutISO)
	return &iso
}

func normalizeYear(raw string) int {
	year, _ := strconv.Atoi(raw)
	if year < 100 {
		return 2000 + year
	}
	return year
}

// parseOCRCompactMonthDate recovers dates from OCR-merged tokens like
// "02MAY24" or "O2MAYZ4": scan 6-10 char alphanumeric tokens for an embedded
// 3-letter month after mapping digit/letter confusions, take the day from the
// preceding characters and the year from the following ones. A corrupted day
// with a readable month/year resolves to day 1 rather than failing the date.
func parseOCRCompactMonthDate(text string) *string {
	for _, token := range compactTokenRe.FindAllString(text, -1) {
		upper := strings.ToUpper(token)
		for i := 0; i+3 <= len(upper); i++ {
			monthKey := make([]byte, 3)
			for k := 0; k < 3; k++ {
				ch := upper[i+k]
				if mapped, ok := ocrMonthCharMap[ch]; ok {
					ch = mapped
				}
				monthKey[k] = ch
			}
			month, ok := months[strings.ToLower(string(monthKey))]
			if !ok {
				continue
			}

			dayRaw := upper[:i]
			yearRaw := upper[i+3:]
			if dayRaw == "" || yearRaw == "" {
				continue
			}

			dayDigits := mapDigits(dayRaw, ocrDayDigitMap)
			yearDigits := mapDigits(yearRaw, ocrYearDigitMap)
			if len(dayDigits) == 0 || len(yearDigits) < 2 {
				continue
			}

			if len(dayDigits) > 2 {
				dayDigits = dayDigits[len(dayDigits)-2:]
			}
			if len(yearDigits) > 4 {
				yearDigits = yearDigits[:4]
			}

			day, _ := strconv.Atoi(string(dayDigits))
			var year int
			if len(yearDigits) >= 4 {
				year, _ = strconv.Atoi(string(yearDigits[:4]))
			} else {
				year, _ = strconv.Atoi(string(yearDigits[:2]))
				year += 2000
			}

			if day >= 1 && day <= 31 {
				if t, valid := makeDate(year, month, day); valid {
					iso := t.Format(DateLayoutISO)
					return &iso
				}
				continue
			}
			if t, valid := makeDate(year, month, 1); valid {
				iso := t.Format(DateLayoutISO)
				return &iso
			}
		}
	}
	return nil
}

func mapDigits(raw string, confusion map[byte]byte) []byte {
	var out []byte
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if mapped, ok := confusion[ch]; ok {
			ch = mapped
		}
		if ch >= '0' && ch <= '9' {
			out = append(out, ch)
		}
	}
	return out
}

// makeDate validates calendar components; time.Date silently normalizes
// out-of-range values, so components are checked after construction.
func makeDate(year, month, day int) (time.Time, bool) {
	if year < 1 || year > 9999 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
