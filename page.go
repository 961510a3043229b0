package gokeyset

import "slices"

// Page is a trimmed result set in the caller's declared ordering.
type Page[T any] struct {
	Items       []T
	HasNext     bool
	HasPrevious bool
}

// Assemble turns the rows fetched by a seek query into a Page.
//
// If the dataset returned more than size rows, the last one is the overfetch
// sentinel: it is dropped and the flag on the reading side is set (HasNext
// for forward reads, HasPrevious for backward ones). The flag on the other
// side is true only for anchored reads, as the caller came from somewhere.
//
// Backward reads come in reversed order, so the trimmed rows are reversed
// back. The input slice is not modified.
func Assemble[T any](rows []T, size int, backward, anchored bool) Page[T] {
	more := len(rows) > size
	if more {
		rows = rows[:size]
	}

	items := slices.Clone(rows)
	if items == nil {
		items = make([]T, 0)
	}

	if backward {
		slices.Reverse(items)

		return Page[T]{Items: items, HasNext: anchored, HasPrevious: more}
	}

	return Page[T]{Items: items, HasNext: more, HasPrevious: anchored}
}

// AssemblePage is Assemble for the rows of a query built by pager.
func AssemblePage[T any](pager *Pager, rows []T) Page[T] {
	return Assemble(rows, pager.GetLimit(), pager.IsBackward(), pager.IsAnchored())
}
