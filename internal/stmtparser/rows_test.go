package stmtparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankstmt/statement-core/internal/models"
)

func TestIsTransactionRow(t *testing.T) {
	profile := testProfile()

	good := models.ParsedRow{
		Date:        models.StringPtr("2024-01-05"),
		Description: models.StringPtr("ATM WITHDRAWAL"),
		Balance:     models.StringPtr("1000.00"),
	}
	assert.True(t, IsTransactionRow(good, profile))

	noDate := good
	noDate.Date = nil
	assert.False(t, IsTransactionRow(noDate, profile))

	emptyDate := good
	emptyDate.Date = models.StringPtr("")
	assert.False(t, IsTransactionRow(emptyDate, profile))

	noBalance := good
	noBalance.Balance = nil
	assert.False(t, IsTransactionRow(noBalance, profile))

	noisy := good
	noisy.Description = models.StringPtr("Balance Brought Forward")
	assert.False(t, IsTransactionRow(noisy, profile))

	noDescription := good
	noDescription.Description = nil
	assert.True(t, IsTransactionRow(noDescription, profile))
}

func TestFilterTransactionRows(t *testing.T) {
	profile := testProfile()

	rows := []models.ParsedRow{
		{
			RowID:   "001",
			Date:    models.StringPtr("2024-01-05"),
			Balance: models.StringPtr("1000.00"),
		},
		{
			RowID: "002",
			Date:  models.StringPtr("2024-01-06"),
			// No balance: dropped.
		},
		{
			RowID:   "003",
			Date:    models.StringPtr("2024-01-07"),
			Balance: models.StringPtr("900.00"),
		},
	}
	bounds := []models.RowBounds{
		{RowID: "001", X1: 0.1, Y1: 0.1, X2: 0.9, Y2: 0.12},
		{RowID: "002", X1: 0.1, Y1: 0.2, X2: 0.9, Y2: 0.22},
		{RowID: "003", X1: 0.1, Y1: 0.3, X2: 0.9, Y2: 0.32},
	}

	outRows, outBounds := FilterTransactionRows(rows, bounds, profile)

	require.Len(t, outRows, 2)
	assert.Equal(t, "001", outRows[0].RowID)
	assert.Equal(t, "2024-01-05", *outRows[0].Date)
	// The survivor formerly numbered 003 is renumbered densely.
	assert.Equal(t, "002", outRows[1].RowID)
	assert.Equal(t, "2024-01-07", *outRows[1].Date)

	require.Len(t, outBounds, 2)
	assert.Equal(t, "001", outBounds[0].RowID)
	assert.InDelta(t, 0.1, outBounds[0].Y1, 1e-9)
	assert.Equal(t, "002", outBounds[1].RowID)
	assert.InDelta(t, 0.3, outBounds[1].Y1, 1e-9)
}

func TestFilterTransactionRowsEmpty(t *testing.T) {
	outRows, outBounds := FilterTransactionRows(nil, nil, testProfile())
	assert.Empty(t, outRows)
	assert.Empty(t, outBounds)
}
