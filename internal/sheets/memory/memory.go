// Package memory is an in-process MonthExporter for tests and for running
// without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"portafoglio/internal/sheets"
)

// Store keeps exported rows per sheet name.
type Store struct {
	mu     sync.Mutex
	base   string
	sheets map[string][][]any
}

var _ sheets.MonthExporter = (*Store)(nil)

// New creates an empty store naming sheets after base.
func New(base string) *Store {
	return &Store{base: base, sheets: make(map[string][][]any)}
}

// ExportMonth appends the rows of e to the month's sheet.
func (s *Store) ExportMonth(_ context.Context, e sheets.Export) (string, error) {
	name := sheets.SheetName(s.base, e.Overview.Year, e.Overview.Month)
	rows := sheets.Rows(e)

	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.sheets[name]) + 1
	s.sheets[name] = append(s.sheets[name], rows...)
	return fmt.Sprintf("%s!A%d:E%d", name, start, start+len(rows)-1), nil
}

// Sheet returns a copy of the rows written to name.
func (s *Store) Sheet(name string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.sheets[name]...)
}
