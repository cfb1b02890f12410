package repository

import (
	"fmt"
	"slices"
	"sort"
)

// SortedColumns returns the keys of fields in lexical order after checking each one
// against allowed. Backends that render SQL use it to keep statements deterministic.
func SortedColumns(fields map[string]any, allowed []string) ([]string, error) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !slices.Contains(allowed, col) {
			return nil, fmt.Errorf("column %q is not writable", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}
