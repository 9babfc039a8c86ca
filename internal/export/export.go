// Package export writes parsed transaction rows to CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"bankstmt/statement-core/internal/logging"
	"bankstmt/statement-core/internal/models"
)

// csvRow flattens a ParsedRow for CSV output; nil values become empty cells.
type csvRow struct {
	RowID       string `csv:"row_id"`
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Debit       string `csv:"debit"`
	Credit      string `csv:"credit"`
	Balance     string `csv:"balance"`
}

// WriteRowsCSV writes rows to the named CSV file, creating or truncating it.
func WriteRowsCSV(rows []models.ParsedRow, csvFile string, log logging.Logger) error {
	if rows == nil {
		return fmt.Errorf("cannot write nil rows to CSV")
	}

	file, err := os.Create(csvFile)
	if err != nil {
		log.WithError(err).Error("Failed to create CSV file")
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := WriteRows(rows, file); err != nil {
		log.WithError(err).Error("Failed to marshal rows to CSV")
		return err
	}

	log.WithField(logging.FieldPath, csvFile).
		WithField(logging.FieldCount, len(rows)).
		Info("Successfully wrote rows to CSV file")
	return nil
}

// WriteRows marshals rows as CSV onto w.
func WriteRows(rows []models.ParsedRow, w io.Writer) error {
	out := make([]csvRow, len(rows))
	for i, r := range rows {
		out[i] = csvRow{
			RowID:       r.RowID,
			Date:        deref(r.Date),
			Description: deref(r.Description),
			Debit:       deref(r.Debit),
			Credit:      deref(r.Credit),
			Balance:     deref(r.Balance),
		}
	}

	writer := csv.NewWriter(w)
	if err := gocsv.MarshalCSV(&out, gocsv.NewSafeCSVWriter(writer)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
