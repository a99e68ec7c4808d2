package entity

import "sort"

// SortByPosition orders rows ascending by position. Ties keep their input order.
func SortByPosition[T Positioned](rows []T) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].GetPosition() < rows[j].GetPosition()
	})
}
