package stmtparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankstmt/statement-core/internal/models"
)

func TestParseRowsWithoutHeaderMergesSplitRows(t *testing.T) {
	// OCR split one transaction across two lines: the dated line has no
	// amounts, the continuation line has both.
	words := []models.Word{
		word("02/10/2024", 30, 95, 50),
		word("TRANSFER", 120, 190, 50),
		word("TO", 195, 215, 50),
		word("SAVINGS", 220, 280, 50),

		word("300.00", 300, 350, 70),
		word("2,500.00", 480, 545, 70),
	}

	rows, bounds := parseRowsWithoutHeader(groupWordsByLine(words), 612, 792, testProfile())
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "001", row.RowID)
	require.NotNil(t, row.Date)
	assert.Equal(t, "2024-02-10", *row.Date)
	require.NotNil(t, row.Description)
	assert.Equal(t, "TRANSFER TO SAVINGS", *row.Description)
	require.NotNil(t, row.Debit)
	assert.Equal(t, "300.00", *row.Debit)
	assert.Nil(t, row.Credit)
	require.NotNil(t, row.Balance)
	assert.Equal(t, "2500.00", *row.Balance)

	// Bounds cover the merged continuation line too.
	require.Len(t, bounds, 1)
	assert.InDelta(t, 30.0/612.0, bounds[0].X1, 1e-9)
	assert.InDelta(t, 50.0/792.0, bounds[0].Y1, 1e-9)
	assert.InDelta(t, 545.0/612.0, bounds[0].X2, 1e-9)
	assert.InDelta(t, 80.0/792.0, bounds[0].Y2, 1e-9)
}

func TestParseRowsWithoutHeaderClassifiesFlowByKeyword(t *testing.T) {
	words := []models.Word{
		word("03/01/2024", 30, 95, 50),
		word("CASH", 120, 160, 50),
		word("DEPOSIT", 165, 230, 50),
		word("400.00", 300, 350, 50),
		word("2,900.00", 480, 545, 50),
	}

	rows, _ := parseRowsWithoutHeader(groupWordsByLine(words), 612, 792, testProfile())
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Debit)
	require.NotNil(t, rows[0].Credit)
	assert.Equal(t, "400.00", *rows[0].Credit)
	require.NotNil(t, rows[0].Balance)
	assert.Equal(t, "2900.00", *rows[0].Balance)
}

func TestParseRowsWithoutHeaderClassifiesNegativeFlowAsDebit(t *testing.T) {
	words := []models.Word{
		word("03/02/2024", 30, 95, 50),
		word("DEPOSIT", 120, 180, 50),
		word("REVERSAL", 185, 260, 50),
		word("-400.00", 300, 350, 50),
		word("2,500.00", 480, 545, 50),
	}

	rows, _ := parseRowsWithoutHeader(groupWordsByLine(words), 612, 792, testProfile())
	require.Len(t, rows, 1)
	// The sign outranks the "deposit" keyword.
	require.NotNil(t, rows[0].Debit)
	assert.Equal(t, "-400.00", *rows[0].Debit)
	assert.Nil(t, rows[0].Credit)
}

func TestParseRowsWithoutHeaderStopsMergeAtNextDatedLine(t *testing.T) {
	words := []models.Word{
		// Dated line with no amounts at all: dropped rather than merged
		// into the following transaction.
		word("01-04-2024", 30, 95, 50),
		word("FEE", 120, 150, 50),

		word("02-04-2024", 30, 95, 80),
		word("INTEREST", 120, 190, 80),
		word("10.00", 300, 350, 80),
		word("2,910.00", 480, 545, 80),
	}

	profile := testProfile()
	profile.DateOrder = []string{"dmy"}

	rows, _ := parseRowsWithoutHeader(groupWordsByLine(words), 612, 792, profile)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Date)
	assert.Equal(t, "2024-04-02", *rows[0].Date)
	require.NotNil(t, rows[0].Debit)
	assert.Equal(t, "10.00", *rows[0].Debit)
	require.NotNil(t, rows[0].Balance)
	assert.Equal(t, "2910.00", *rows[0].Balance)
}

func TestParseRowsWithoutHeaderSkipsUndatedAndNoise(t *testing.T) {
	words := []models.Word{
		word("BEGINNING", 30, 110, 20),
		word("BALANCE", 120, 190, 20),

		word("TOTALS", 30, 90, 50),
		word("9,999.00", 480, 545, 50),
	}

	rows, bounds := parseRowsWithoutHeader(groupWordsByLine(words), 612, 792, testProfile())
	assert.Empty(t, rows)
	assert.Empty(t, bounds)
}
