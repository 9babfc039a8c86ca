// Package models defines the data types exchanged between the parsing core
// and the surrounding page-processing pipeline.
package models

// Word is the input primitive produced by a PDF text-layer extractor or an
// OCR engine. Coordinates are page pixels or page points; the only requirement
// is that they are consistent within a page. Words carry no column identity.
type Word struct {
	Text string  `json:"text"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
}

// CenterX returns the horizontal midpoint of the word box.
func (w Word) CenterX() float64 {
	return (w.X1 + w.X2) / 2.0
}

// CenterY returns the vertical midpoint of the word box.
func (w Word) CenterY() float64 {
	return (w.Y1 + w.Y2) / 2.0
}

// PageLayout is one page as delivered by the excluded extraction layer:
// the raw page text plus word-level geometry.
type PageLayout struct {
	Page   int     `json:"page"`
	Text   string  `json:"text"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Words  []Word  `json:"words"`
}

// ParsedRow is one extracted transaction row. Nil fields mean the value could
// not be resolved from the page. Debit, credit and balance are decimal strings
// with exactly two fraction digits; Date is ISO YYYY-MM-DD.
type ParsedRow struct {
	RowID       string  `json:"row_id"`
	Date        *string `json:"date"`
	Description *string `json:"description"`
	Debit       *string `json:"debit"`
	Credit      *string `json:"credit"`
	Balance     *string `json:"balance"`
}

// RowBounds is the union bounding box of all words contributing to a row,
// normalized to [0,1] against the page dimensions.
type RowBounds struct {
	RowID string  `json:"row_id"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
}

// BBox is a normalized [0,1] bounding box on a page.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// ParseDiagnostics describes how a page parse went. It is returned alongside
// rows and bounds so the pipeline can persist the parse decision trail.
type ParseDiagnostics struct {
	HeaderDetected  bool     `json:"header_detected"`
	HeaderY         *float64 `json:"header_y"`
	RowCandidates   int      `json:"row_candidates"`
	FallbackMode    string   `json:"fallback_mode,omitempty"`
	ProfileDetected string   `json:"profile_detected,omitempty"`
	ProfileSelected string   `json:"profile_selected,omitempty"`
	FallbackApplied bool     `json:"fallback_applied"`
	FallbackReason  string   `json:"fallback_reason,omitempty"`
}

// QualityReport summarizes row yield for a set of parsed rows.
type QualityReport struct {
	Rows         int      `json:"rows"`
	DateRatio    float64  `json:"date_ratio"`
	BalanceRatio float64  `json:"balance_ratio"`
	FlowRatio    float64  `json:"flow_ratio"`
	Passes       bool     `json:"passes"`
	Reasons      []string `json:"reasons"`
}

// AccountIdentity holds the extracted account holder name and number.
type AccountIdentity struct {
	AccountName   *string `json:"account_name"`
	AccountNumber *string `json:"account_number"`
}

// GuidedRow is an operator-supplied sample row used by the guided variant of
// the profile learner, typically produced by manual region-based OCR.
type GuidedRow struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Balance     string `json:"balance"`
}

// Learn result statuses. Every learner invocation resolves to exactly one.
const (
	LearnSkipped  = "skipped"
	LearnFailed   = "failed"
	LearnRejected = "rejected"
	LearnApplied  = "applied"
	LearnMatched  = "matched"
)

// LearnOutcome is the structured result of one auto-learn invocation.
// The learner never raises; every failure mode lands here as a reason code.
type LearnOutcome struct {
	Triggered   bool    `json:"triggered"`
	Result      string  `json:"result"`
	Reason      string  `json:"reason"`
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	ProfileName *string `json:"profile_name"`
}

// IdentityOutcome is the structured result of LLM-assisted account identity
// extraction, including the heuristic fallback path.
type IdentityOutcome struct {
	Provider      string  `json:"provider"`
	Model         string  `json:"model"`
	Result        string  `json:"result"`
	Reason        string  `json:"reason"`
	AccountName   *string `json:"account_name"`
	AccountNumber *string `json:"account_number"`
}

// StringPtr returns a pointer to s. Convenience for building nullable fields.
func StringPtr(s string) *string {
	return &s
}
