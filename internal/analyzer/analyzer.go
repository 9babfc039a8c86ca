package analyzer

import (
	"context"
	"errors"
	"strings"

	"bankstmt/statement-core/internal/logging"
	"bankstmt/statement-core/internal/models"
	"bankstmt/statement-core/internal/profiles"
)

const (
	snippetMaxChars = 7000
	guidedMaxRows   = 60
	guidedFieldMax  = 64
	guidedDescMax   = 180
)

// Learner orchestrates profile auto-learning: snippet building, LLM
// proposal, empirical validation and atomic registry apply. It never returns
// an error; every failure mode resolves to a LearnOutcome reason code.
type Learner struct {
	registry   *profiles.Registry
	proposer   ProfileProposer
	thresholds QualityThresholds
	log        logging.Logger
}

// NewLearner wires a learner against a registry and an LLM provider.
func NewLearner(registry *profiles.Registry, proposer ProfileProposer, thresholds QualityThresholds, log logging.Logger) *Learner {
	return &Learner{registry: registry, proposer: proposer, thresholds: thresholds, log: log}
}

// AnalyzeUnknownBankAndApply runs the full learn pipeline for a statement
// whose pages did not match any known profile. On success the new profile is
// already persisted and live in the registry.
func (l *Learner) AnalyzeUnknownBankAndApply(ctx context.Context, pages []models.PageLayout) models.LearnOutcome {
	outcome := l.newOutcome()

	snippets := buildSnippets(pages, l.thresholds.SamplePages)
	if len(snippets) == 0 {
		outcome.Result = models.LearnSkipped
		outcome.Reason = "no_text_snippets"
		return outcome
	}

	if name, matched := l.resolvesToKnownProfile(snippets); matched {
		outcome.Result = models.LearnMatched
		outcome.Reason = "existing_profile_matches"
		outcome.ProfileName = &name
		return outcome
	}

	proposal, err := l.proposer.ProposeProfile(ctx, snippets)
	if err != nil {
		outcome.Result = models.LearnFailed
		outcome.Reason = ReasonOf(err)
		l.log.WithError(err).Warn("profile proposal failed")
		return outcome
	}

	return l.validateAndApply(proposal, pages, outcome)
}

// AnalyzeUnknownBankGuided is the guided learn variant: operator-sampled
// rows accompany the snippets, and a non-bank-like proposal name is coerced
// into a bank layout name instead of being rejected outright.
func (l *Learner) AnalyzeUnknownBankGuided(ctx context.Context, pages []models.PageLayout, guided []models.GuidedRow) models.LearnOutcome {
	outcome := l.newOutcome()

	snippets := buildSnippets(pages, l.thresholds.SamplePages)
	guidedRows := clampGuidedRows(guided)
	if len(snippets) == 0 && len(guidedRows) == 0 {
		outcome.Result = models.LearnSkipped
		outcome.Reason = "no_text_snippets"
		return outcome
	}

	proposal, err := l.proposer.ProposeGuidedProfile(ctx, snippets, guidedRows)
	if err != nil {
		outcome.Result = models.LearnFailed
		outcome.Reason = ReasonOf(err)
		l.log.WithError(err).Warn("guided profile proposal failed")
		return outcome
	}

	if !isBankLike(proposal.ProfileName, normalizeItems(proposal.DetectionContainsAny), normalizeItems(proposal.DetectionContainsAll)) {
		coerced := strings.TrimSpace(proposal.ProfileName)
		switch {
		case coerced == "":
			coerced = "AUTO_GUIDED_BANK_LAYOUT"
		case !strings.Contains(strings.ToLower(coerced), "bank"):
			coerced = coerced + "_BANK"
		}
		proposal.ProfileName = coerced
	}

	return l.validateAndApply(proposal, pages, outcome)
}

// AnalyzeAccountIdentity extracts the account holder name and number from
// page text, preferring the LLM but always falling back to the registry's
// pattern heuristics when the provider is unavailable or returns junk.
func (l *Learner) AnalyzeAccountIdentity(ctx context.Context, pageText string) models.IdentityOutcome {
	outcome := models.IdentityOutcome{
		Provider: l.proposer.Provider(),
		Model:    l.proposer.Model(),
		Result:   models.LearnFailed,
		Reason:   "invalid_input",
	}

	text := strings.TrimSpace(pageText)
	if text == "" {
		return outcome
	}

	heuristic := l.registry.ExtractAccountIdentity(text, l.registry.Generic())

	reply, err := l.proposer.ExtractIdentity(ctx, text)
	if err != nil {
		outcome.Result = "fallback_heuristic"
		outcome.Reason = ReasonOf(err)
		outcome.AccountName = heuristic.AccountName
		outcome.AccountNumber = heuristic.AccountNumber
		return outcome
	}

	name := cleanIdentityValue(reply.AccountName)
	number := cleanIdentityValue(reply.AccountNumber)
	if name == nil {
		name = heuristic.AccountName
	}
	if number == nil {
		number = heuristic.AccountNumber
	}

	outcome.AccountName = name
	outcome.AccountNumber = number
	if name != nil || number != nil {
		outcome.Result = models.LearnApplied
		outcome.Reason = "identity_extracted"
	} else {
		outcome.Result = models.LearnFailed
		outcome.Reason = "identity_not_found"
	}
	return outcome
}

func (l *Learner) newOutcome() models.LearnOutcome {
	return models.LearnOutcome{
		Triggered: true,
		Result:    models.LearnFailed,
		Reason:    "analyzer_error",
		Provider:  l.proposer.Provider(),
		Model:     l.proposer.Model(),
	}
}

// resolvesToKnownProfile re-runs detection over the sampled snippets; when a
// non-generic profile already claims this statement there is nothing to
// learn.
func (l *Learner) resolvesToKnownProfile(snippets []Snippet) (string, bool) {
	for _, s := range snippets {
		profile := l.registry.Detect(s.Text)
		if profile.Name != profiles.GenericProfileName {
			return profile.Name, true
		}
	}
	return "", false
}

func (l *Learner) validateAndApply(proposal *Proposal, pages []models.PageLayout, outcome models.LearnOutcome) models.LearnOutcome {
	candidate, rule, reason := validateProposal(proposal, l.registry, pages, l.thresholds)
	if candidate == nil || rule == nil {
		outcome.Result = models.LearnRejected
		if reason == "" {
			outcome.Reason = "validation_failed"
		} else {
			outcome.Reason = "validation_failed_" + reason
		}
		return outcome
	}

	outcome.ProfileName = &candidate.Name
	if err := l.registry.Apply(*candidate, *rule); err != nil {
		outcome.Result = models.LearnFailed
		outcome.Reason = "apply_failed_" + applyReason(err)
		l.log.WithError(err).WithField(logging.FieldProfile, candidate.Name).Warn("profile apply failed")
		return outcome
	}

	outcome.Result = models.LearnApplied
	outcome.Reason = "profile_created"
	l.log.WithField(logging.FieldProfile, candidate.Name).Info("learned profile applied")
	return outcome
}

func applyReason(err error) string {
	var re *profiles.RegistryError
	if errors.As(err, &re) && re.Reason != "" {
		return re.Reason
	}
	return "apply_error"
}

// buildSnippets takes the first samplePages pages with non-empty text,
// truncated to the prompt budget.
func buildSnippets(pages []models.PageLayout, samplePages int) []Snippet {
	if samplePages < 1 {
		samplePages = 1
	}
	var snippets []Snippet
	for idx, page := range pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}
		if len(text) > snippetMaxChars {
			text = text[:snippetMaxChars]
		}
		snippets = append(snippets, Snippet{Page: idx + 1, Text: text})
		if len(snippets) >= samplePages {
			break
		}
	}
	return snippets
}

func clampGuidedRows(rows []models.GuidedRow) []models.GuidedRow {
	if len(rows) > guidedMaxRows {
		rows = rows[:guidedMaxRows]
	}
	out := make([]models.GuidedRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.GuidedRow{
			Date:        truncate(row.Date, guidedFieldMax),
			Description: truncate(row.Description, guidedDescMax),
			Debit:       truncate(row.Debit, guidedFieldMax),
			Credit:      truncate(row.Credit, guidedFieldMax),
			Balance:     truncate(row.Balance, guidedFieldMax),
		})
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func cleanIdentityValue(v *string) *string {
	if v == nil {
		return nil
	}
	text := strings.TrimSpace(*v)
	if text == "" {
		return nil
	}
	switch strings.ToLower(text) {
	case "none", "null", "n/a", "na":
		return nil
	}
	return &text
}
