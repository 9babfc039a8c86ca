package stmtparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankstmt/statement-core/internal/models"
)

func TestGroupWordsByLine(t *testing.T) {
	// Unordered input with slight vertical skew on the second line.
	words := []models.Word{
		word("Balance", 480, 540, 100),
		word("01/15/2024", 30, 95, 131),
		word("Date", 40, 70, 100),
		word("50.00", 300, 340, 129),
	}

	lines := groupWordsByLine(words)
	require.Len(t, lines, 2)

	assert.Equal(t, "Date Balance", lines[0].text())
	assert.InDelta(t, 105, lines[0].cy, 1e-9)

	// Skewed words merge into one line; the running average tracks center.
	assert.Equal(t, "01/15/2024 50.00", lines[1].text())
	assert.InDelta(t, 135, lines[1].cy, 1e-9)
}

func TestGroupWordsByLineEmpty(t *testing.T) {
	assert.Nil(t, groupWordsByLine(nil))
}

func TestLineBounds(t *testing.T) {
	words := []models.Word{
		word("01/15/2024", 30, 95, 130),
		word("1,200.00", 480, 545, 130),
	}

	rb := lineBounds(words, 612, 792)
	assert.InDelta(t, 30.0/612.0, rb.X1, 1e-9)
	assert.InDelta(t, 130.0/792.0, rb.Y1, 1e-9)
	assert.InDelta(t, 545.0/612.0, rb.X2, 1e-9)
	assert.InDelta(t, 140.0/792.0, rb.Y2, 1e-9)
}

func TestLineBoundsClamps(t *testing.T) {
	rb := lineBounds([]models.Word{word("EDGE", 500, 700, 130)}, 612, 792)
	assert.Equal(t, 1.0, rb.X2)
}

func TestIsNoise(t *testing.T) {
	profile := testProfile()
	assert.True(t, isNoise("", profile))
	assert.True(t, isNoise("   ", profile))
	assert.True(t, isNoise("BEGINNING BALANCE AS OF 01/01/2024", profile))
	assert.True(t, isNoise("Balance Brought Forward", profile))
	assert.False(t, isNoise("ATM WITHDRAWAL", profile))
}
