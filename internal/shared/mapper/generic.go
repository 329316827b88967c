// Package mapper converts slices between persistence models and domain
// entities.
package mapper

import "fmt"

// MapSlice applies mapFunc to each element. A nil input maps to nil.
func MapSlice[T any, R any](items []T, mapFunc func(T) R) []R {
	if items == nil {
		return nil
	}

	result := make([]R, 0, len(items))
	for _, item := range items {
		result = append(result, mapFunc(item))
	}
	return result
}

// MapRows reconstructs one entity per stored row. Nil rows are skipped and
// the first failure aborts with the offending row's id.
func MapRows[T any, R any](rows []*T, reconstruct func(*T) (*R, error), rowID func(*T) string) ([]*R, error) {
	entities := make([]*R, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		entity, err := reconstruct(row)
		if err != nil {
			return nil, fmt.Errorf("failed to reconstruct row %s: %w", rowID(row), err)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
