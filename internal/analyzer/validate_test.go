package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeProfileName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Sample Rural Bank", "AUTO_SAMPLE_RURAL_BANK"},
		{"already prefixed", "AUTO_EWB_V2", "AUTO_EWB_V2"},
		{"punctuation collapses", "My-Bank (Ph), Inc.", "AUTO_MY_BANK_PH_INC"},
		{"leading trailing junk", "  __weird__  ", "AUTO_WEIRD"},
		{"empty", "   ", ""},
		{"symbols only", "!!!", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitizeProfileName(tc.in))
		})
	}
}

func TestSanitizeProfileNameLengthCap(t *testing.T) {
	got := sanitizeProfileName(strings.Repeat("A", 100))
	assert.Len(t, got, maxProfileNameLen)
	assert.True(t, strings.HasPrefix(got, "AUTO_"))
}

func TestIsBankLike(t *testing.T) {
	assert.True(t, isBankLike("Sample Rural Bank", nil, nil))
	assert.True(t, isBankLike("AUB Layout", nil, nil))
	assert.True(t, isBankLike("Layout", []string{"metrobank statement"}, nil))
	assert.True(t, isBankLike("Layout", nil, []string{"security bank"}))
	assert.False(t, isBankLike("Payroll Report", []string{"payroll register"}, nil))
	assert.False(t, isBankLike("", nil, nil))
}

func TestNormalizeItems(t *testing.T) {
	got := normalizeItems([]string{" Posting Date ", "", "  ", "BALANCE"})
	assert.Equal(t, []string{"posting date", "balance"}, got)
	assert.Nil(t, normalizeItems(nil))
}

func TestPickTokens(t *testing.T) {
	fallback := []string{"date", "book date"}
	assert.Equal(t, []string{"txn date"}, pickTokens([]string{" Txn Date "}, fallback))
	assert.Equal(t, fallback, pickTokens([]string{"  "}, fallback))
	assert.Equal(t, fallback, pickTokens(nil, fallback))
}

func TestPickPatterns(t *testing.T) {
	fallback := []string{`account\s*name\s*[:\-]?\s*(.{3,40})`}

	got := pickPatterns([]string{`acct\s*#\s*([0-9\-]{6,20})`, `([broken`}, fallback)
	require.Len(t, got, 1)
	assert.Equal(t, `acct\s*#\s*([0-9\-]{6,20})`, got[0])

	// Nothing compiles: keep the fallback patterns.
	assert.Equal(t, fallback, pickPatterns([]string{`([broken`}, fallback))
	assert.Equal(t, fallback, pickPatterns(nil, fallback))
}

func TestValidateProposalFillsDefaultsFromGeneric(t *testing.T) {
	registry := newLearnerRegistry(t)
	generic := registry.Generic()

	proposal := bankProposal()
	proposal.DateTokens = nil
	proposal.BalanceTokens = nil
	proposal.DateOrder = []string{"sideways", "dmy"}

	candidate, rule, reason := validateProposal(proposal, registry, samplePages(), DefaultQualityThresholds())
	require.Empty(t, reason)
	require.NotNil(t, candidate)
	require.NotNil(t, rule)

	assert.Equal(t, generic.DateTokens, candidate.DateTokens)
	assert.Equal(t, generic.BalanceTokens, candidate.BalanceTokens)
	// Unknown date orders are dropped, valid ones kept.
	assert.Equal(t, []string{"dmy"}, candidate.DateOrder)
	assert.Equal(t, generic.OCRBackends, candidate.OCRBackends)
	assert.Equal(t, "AUTO_SAMPLE_RURAL_BANK", rule.Profile)
	assert.Equal(t, []string{"sample rural bank"}, rule.ContainsAny)
}

func TestValidateProposalAllOrdersInvalidFallsBackToGeneric(t *testing.T) {
	registry := newLearnerRegistry(t)

	proposal := bankProposal()
	proposal.DateOrder = []string{"diagonal"}

	candidate, _, reason := validateProposal(proposal, registry, samplePages(), DefaultQualityThresholds())
	require.Empty(t, reason)
	require.NotNil(t, candidate)
	assert.Equal(t, registry.Generic().DateOrder, candidate.DateOrder)
}

func TestValidateParseQualityReasons(t *testing.T) {
	registry := newLearnerRegistry(t)
	thresholds := DefaultQualityThresholds()

	candidate, _, reason := validateProposal(bankProposal(), registry, samplePages(), thresholds)
	require.Empty(t, reason)

	t.Run("passes on good pages", func(t *testing.T) {
		assert.Empty(t, validateParseQuality(*candidate, samplePages(), thresholds))
	})

	t.Run("too few rows", func(t *testing.T) {
		pages := samplePages()
		pages[0].Words = pages[0].Words[:5] // one transaction line
		assert.Equal(t, "quality_rows_below_threshold", validateParseQuality(*candidate, pages, thresholds))
	})

	t.Run("no pages with words", func(t *testing.T) {
		assert.Equal(t, "quality_rows_below_threshold", validateParseQuality(*candidate, nil, thresholds))
	})
}

func TestDefaultQualityThresholds(t *testing.T) {
	thresholds := DefaultQualityThresholds()
	assert.Equal(t, 3, thresholds.SamplePages)
	assert.Equal(t, 3, thresholds.MinRows)
	assert.Equal(t, 0.8, thresholds.MinDateRatio)
	assert.Equal(t, 0.8, thresholds.MinBalanceRatio)
}
