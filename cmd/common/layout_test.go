package common

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempLayout(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadLayoutBareArray(t *testing.T) {
	path := writeTempLayout(t, `[
		{"page": 1, "text": "STATEMENT OF ACCOUNT", "width": 612, "height": 792,
		 "words": [{"text": "STATEMENT", "x1": 40, "y1": 30, "x2": 120, "y2": 42}]},
		{"page": 2, "text": "page two", "width": 612, "height": 792, "words": []}
	]`)

	pages, err := LoadLayout(path)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].Page)
	assert.Equal(t, "STATEMENT OF ACCOUNT", pages[0].Text)
	assert.Equal(t, 612.0, pages[0].Width)
	require.Len(t, pages[0].Words, 1)
	assert.Equal(t, "STATEMENT", pages[0].Words[0].Text)
	assert.Equal(t, 2, pages[1].Page)
}

func TestLoadLayoutWrappedObject(t *testing.T) {
	path := writeTempLayout(t, `{"pages": [
		{"page": 3, "text": "only page", "width": 595, "height": 842, "words": []}
	]}`)

	pages, err := LoadLayout(path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 3, pages[0].Page)
	assert.Equal(t, "only page", pages[0].Text)
}

func TestLoadLayoutNumbersPagesByPosition(t *testing.T) {
	path := writeTempLayout(t, `[
		{"text": "first", "width": 612, "height": 792},
		{"text": "second", "width": 612, "height": 792},
		{"page": 9, "text": "explicit", "width": 612, "height": 792}
	]`)

	pages, err := LoadLayout(path)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, 1, pages[0].Page)
	assert.Equal(t, 2, pages[1].Page)
	assert.Equal(t, 9, pages[2].Page)
}

func TestLoadLayoutMissingFile(t *testing.T) {
	pages, err := LoadLayout(filepath.Join(t.TempDir(), "nope.json"))
	assert.Nil(t, pages)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading layout file")
}

func TestLoadLayoutInvalidJSON(t *testing.T) {
	path := writeTempLayout(t, `{"pages": not json`)

	pages, err := LoadLayout(path)
	assert.Nil(t, pages)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error parsing layout file")
}

func TestWriteJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	err := WriteJSON(path, map[string]string{"status": "applied"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"status\": \"applied\"\n}\n", string(data))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "applied", decoded["status"])
}

func TestWriteJSONBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.json")

	err := WriteJSON(path, map[string]string{"status": "applied"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error writing output file")
}
