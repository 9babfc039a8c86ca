package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankstmt/statement-core/internal/logging"
	"bankstmt/statement-core/internal/models"
	"bankstmt/statement-core/internal/profiles"
	"bankstmt/statement-core/internal/stmtparser"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	registry, err := profiles.NewRegistry(filepath.Join(t.TempDir(), "profiles.json"), &logging.MockLogger{})
	require.NoError(t, err)
	return NewProcessor(registry, stmtparser.DefaultFallbackThresholds(), &logging.MockLogger{})
}

func pageWord(text string, x1, x2, y float64) models.Word {
	return models.Word{Text: text, X1: x1, Y1: y, X2: x2, Y2: y + 10}
}

func txnLine(date, desc, amt, bal string, y float64) []models.Word {
	return []models.Word{
		pageWord(date, 30, 95, y),
		pageWord(desc, 120, 230, y),
		pageWord(amt, 300, 350, y),
		pageWord(bal, 480, 545, y),
	}
}

func statementPages() []models.PageLayout {
	page1 := append(
		txnLine("01/05/2024", "PAYMENT", "100.00", "1,000.00", 50),
		txnLine("01/06/2024", "PURCHASE", "50.00", "950.00", 80)...,
	)
	page2 := txnLine("01/07/2024", "REFUND", "25.00", "975.00", 50)

	return []models.PageLayout{
		{
			Page:   1,
			Text:   "CHINABANK Statement of Account\nACCOUNT NAME: JUAN DELA CRUZ\nACCOUNT NUMBER: 2000-1234-5678",
			Width:  612,
			Height: 792,
			Words:  page1,
		},
		{Page: 2, Text: "page two", Width: 612, Height: 792, Words: page2},
	}
}

func TestDetectProfile(t *testing.T) {
	p := newTestProcessor(t)

	profile := p.DetectProfile(statementPages())
	assert.Equal(t, "CHINABANK", profile.Name)

	// No page text at all: generic.
	profile = p.DetectProfile([]models.PageLayout{{Page: 1}})
	assert.Equal(t, profiles.GenericProfileName, profile.Name)

	// Detection uses the first page with text.
	profile = p.DetectProfile([]models.PageLayout{
		{Page: 1},
		{Page: 2, Text: "statement from maybank"},
	})
	assert.Equal(t, "MAYBANK", profile.Name)
}

func TestProcessStatement(t *testing.T) {
	p := newTestProcessor(t)

	result := p.ProcessStatement(statementPages())

	assert.Equal(t, "CHINABANK", result.ProfileDetected)
	require.Len(t, result.Pages, 2)
	require.Len(t, result.Rows, 3)

	// Row IDs run statement-global across pages.
	assert.Equal(t, "001", result.Rows[0].RowID)
	assert.Equal(t, "002", result.Rows[1].RowID)
	assert.Equal(t, "003", result.Rows[2].RowID)
	require.NotNil(t, result.Rows[2].Date)
	assert.Equal(t, "2024-01-07", *result.Rows[2].Date)

	// Page results carry the same global IDs, bounds re-keyed to match.
	require.Len(t, result.Pages[1].Rows, 1)
	assert.Equal(t, "003", result.Pages[1].Rows[0].RowID)
	require.Len(t, result.Pages[1].Bounds, 1)
	assert.Equal(t, "003", result.Pages[1].Bounds[0].RowID)

	assert.Equal(t, "CHINABANK", result.Pages[0].Diag.ProfileDetected)

	assert.Equal(t, 3, result.Quality.Rows)
	assert.InDelta(t, 1.0, result.Quality.DateRatio, 1e-9)

	require.NotNil(t, result.Identity.AccountName)
	assert.Equal(t, "JUAN DELA CRUZ", *result.Identity.AccountName)
	require.NotNil(t, result.Identity.AccountNumber)
	assert.Equal(t, "2000-1234-5678", *result.Identity.AccountNumber)
}

func TestProcessStatementEmpty(t *testing.T) {
	p := newTestProcessor(t)

	result := p.ProcessStatement(nil)
	assert.Equal(t, profiles.GenericProfileName, result.ProfileDetected)
	assert.Empty(t, result.Rows)
	assert.False(t, result.Quality.Passes)
	assert.Equal(t, []string{"no_rows"}, result.Quality.Reasons)
	assert.Nil(t, result.Identity.AccountName)
}
