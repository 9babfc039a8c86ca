// Package common holds helpers shared by the CLI commands.
package common

import (
	"encoding/json"
	"fmt"
	"os"

	"bankstmt/statement-core/internal/models"
)

// statementFile is the wrapped input shape: {"pages": [...]}.
type statementFile struct {
	Pages []models.PageLayout `json:"pages"`
}

// LoadLayout reads page layouts from a JSON file. Both a bare page array and
// an object with a "pages" key are accepted. Pages missing a page number are
// numbered by position.
func LoadLayout(path string) ([]models.PageLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading layout file: %w", err)
	}

	var pages []models.PageLayout
	if err := json.Unmarshal(data, &pages); err != nil {
		var wrapped statementFile
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("error parsing layout file: %w", err)
		}
		pages = wrapped.Pages
	}

	for i := range pages {
		if pages[i].Page == 0 {
			pages[i].Page = i + 1
		}
	}
	return pages, nil
}

// WriteJSON marshals v with indentation to the named file, or to stdout when
// path is empty.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding output: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing output file: %w", err)
	}
	return nil
}
