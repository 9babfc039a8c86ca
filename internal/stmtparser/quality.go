package stmtparser

import (
	"math"

	"bankstmt/statement-core/internal/models"
)

// EvaluateQuality scores a parsed row set. The pass bar is deliberately
// modest: at least three rows with dates and balances on 80% of them. Flow
// coverage is reported but never gates acceptance, since opening-balance and
// summary rows legitimately carry no debit or credit.
func EvaluateQuality(rows []models.ParsedRow) models.QualityReport {
	total := len(rows)
	if total == 0 {
		return models.QualityReport{Passes: false, Reasons: []string{"no_rows"}}
	}

	var dateOK, balanceOK, flowOK int
	for _, r := range rows {
		if r.Date != nil && *r.Date != "" {
			dateOK++
		}
		if r.Balance != nil && *r.Balance != "" {
			balanceOK++
		}
		if (r.Debit != nil && *r.Debit != "") || (r.Credit != nil && *r.Credit != "") {
			flowOK++
		}
	}

	dateRatio := float64(dateOK) / float64(total)
	balanceRatio := float64(balanceOK) / float64(total)
	flowRatio := float64(flowOK) / float64(total)

	var reasons []string
	if total < 3 {
		reasons = append(reasons, "few_rows")
	}
	if dateRatio < 0.8 {
		reasons = append(reasons, "low_date_ratio")
	}
	if balanceRatio < 0.8 {
		reasons = append(reasons, "low_balance_ratio")
	}

	return models.QualityReport{
		Rows:         total,
		DateRatio:    round3(dateRatio),
		BalanceRatio: round3(balanceRatio),
		FlowRatio:    round3(flowRatio),
		Passes:       len(reasons) == 0,
		Reasons:      reasons,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
