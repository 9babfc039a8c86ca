// Package pipeline drives a whole-statement parse: profile detection over
// page text, per-page parsing with generic fallback, transaction filtering
// with dense renumbering, quality scoring and identity extraction.
package pipeline

import (
	"fmt"

	"bankstmt/statement-core/internal/logging"
	"bankstmt/statement-core/internal/models"
	"bankstmt/statement-core/internal/profiles"
	"bankstmt/statement-core/internal/stmtparser"
)

// PageResult is the parse outcome for a single page. Row IDs here are
// statement-global, matching Result.Rows.
type PageResult struct {
	Page   int                     `json:"page"`
	Rows   []models.ParsedRow      `json:"rows"`
	Bounds []models.RowBounds      `json:"bounds"`
	Diag   models.ParseDiagnostics `json:"diagnostics"`
}

// Result is the outcome of processing one statement.
type Result struct {
	ProfileDetected string                 `json:"profile_detected"`
	Pages           []PageResult           `json:"pages"`
	Rows            []models.ParsedRow     `json:"rows"`
	Quality         models.QualityReport   `json:"quality"`
	Identity        models.AccountIdentity `json:"identity"`
}

// Processor runs statement parses against a profile registry.
type Processor struct {
	registry   *profiles.Registry
	thresholds stmtparser.FallbackThresholds
	log        logging.Logger
}

// NewProcessor builds a Processor.
func NewProcessor(registry *profiles.Registry, thresholds stmtparser.FallbackThresholds, log logging.Logger) *Processor {
	return &Processor{registry: registry, thresholds: thresholds, log: log}
}

// DetectProfile resolves the bank profile from the first page with text.
func (p *Processor) DetectProfile(pages []models.PageLayout) profiles.BankProfile {
	for _, page := range pages {
		if page.Text != "" {
			return p.registry.Detect(page.Text)
		}
	}
	return p.registry.Generic()
}

// ProcessStatement parses all pages and assembles the statement-level result.
// Non-transaction rows are dropped and the survivors renumbered densely from
// 001 across the whole statement, with bounds re-keyed to match.
func (p *Processor) ProcessStatement(pages []models.PageLayout) Result {
	detected := p.DetectProfile(pages)
	generic := p.registry.Generic()

	result := Result{ProfileDetected: detected.Name}
	for _, page := range pages {
		rows, bounds, diag := stmtparser.ParsePageWithThresholds(
			page.Words, page.Width, page.Height, detected, generic, p.thresholds,
		)

		filterProfile := detected
		if diag.ProfileSelected != "" {
			if selected, ok := p.registry.Profile(diag.ProfileSelected); ok {
				filterProfile = selected
			}
		}
		rows, bounds = stmtparser.FilterTransactionRows(rows, bounds, filterProfile)

		// Shift per-page IDs onto the statement-global sequence.
		idMap := make(map[string]string, len(rows))
		for i := range rows {
			newID := fmt.Sprintf("%03d", len(result.Rows)+i+1)
			idMap[rows[i].RowID] = newID
			rows[i].RowID = newID
		}
		for i := range bounds {
			if newID, ok := idMap[bounds[i].RowID]; ok {
				bounds[i].RowID = newID
			}
		}

		result.Rows = append(result.Rows, rows...)
		result.Pages = append(result.Pages, PageResult{
			Page:   page.Page,
			Rows:   rows,
			Bounds: bounds,
			Diag:   diag,
		})

		p.log.WithField(logging.FieldPage, page.Page).
			WithField(logging.FieldProfile, diag.ProfileSelected).
			WithField(logging.FieldRows, len(rows)).
			Debug("page parsed")
	}

	result.Quality = stmtparser.EvaluateQuality(result.Rows)
	for _, page := range pages {
		if page.Text != "" {
			result.Identity = p.registry.ExtractAccountIdentity(page.Text, detected)
			break
		}
	}
	return result
}
