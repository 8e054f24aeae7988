// Package lastquery persists the most recent query and its result paths so
// follow-up commands can refer to results by number.
package lastquery

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aidanlsb/glance/internal/atomicfile"
	"github.com/aidanlsb/glance/internal/pattern"
)

// LastQuery stores the results of the most recent query.
type LastQuery struct {
	Query     string        `json:"query"`
	Timestamp time.Time     `json:"timestamp"`
	Results   []ResultEntry `json:"results"`
}

// ResultEntry is one result row.
type ResultEntry struct {
	Num  int    `json:"num"` // 1-indexed
	Path string `json:"path"`
}

var (
	ErrNoLastQuery      = errors.New("no last query available")
	ErrInvalidNumber    = errors.New("invalid result number")
	ErrNumberOutOfRange = errors.New("result number out of range")
)

// New numbers paths in order.
func New(query string, paths []string) *LastQuery {
	lq := &LastQuery{
		Query:     query,
		Timestamp: time.Now().UTC(),
		Results:   make([]ResultEntry, len(paths)),
	}
	for i, p := range paths {
		lq.Results[i] = ResultEntry{Num: i + 1, Path: p}
	}
	return lq
}

// Path returns the location of last-query.json for a library.
func Path(libraryPath string) string {
	return filepath.Join(libraryPath, pattern.DataDir, "last-query.json")
}

// Write saves the last query results to disk.
func Write(libraryPath string, lq *LastQuery) error {
	if err := os.MkdirAll(filepath.Join(libraryPath, pattern.DataDir), 0755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", pattern.DataDir, err)
	}
	if err := atomicfile.WriteJSON(Path(libraryPath), lq, 0644); err != nil {
		return fmt.Errorf("failed to write last query: %w", err)
	}
	return nil
}

// Read loads the last query results from disk.
// Returns ErrNoLastQuery if no last query file exists.
func Read(libraryPath string) (*LastQuery, error) {
	data, err := os.ReadFile(Path(libraryPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoLastQuery
		}
		return nil, fmt.Errorf("failed to read last query: %w", err)
	}

	var lq LastQuery
	if err := json.Unmarshal(data, &lq); err != nil {
		return nil, fmt.Errorf("failed to parse last query: %w", err)
	}
	return &lq, nil
}

// Paths returns the result paths in order.
func (lq *LastQuery) Paths() []string {
	out := make([]string, len(lq.Results))
	for i, r := range lq.Results {
		out[i] = r.Path
	}
	return out
}

// Select returns the entries named by selection arguments such as
// "2", "1,4" or "3-5". An open range "7-" runs to the last result.
func (lq *LastQuery) Select(args []string) ([]ResultEntry, error) {
	nums, err := parseSelection(args, len(lq.Results))
	if err != nil {
		return nil, err
	}
	out := make([]ResultEntry, len(nums))
	for i, n := range nums {
		out[i] = lq.Results[n-1]
	}
	return out, nil
}
