// Package gokeyset provides keyset (seek) pagination primitives for GORM and
// a Relay-style connection builder on top of them.
//
// Overview
//
// A page is addressed by the values of a row in a total order rather than by
// an offset, so concurrent inserts and deletes never make a reader skip or
// see a row twice:
//   - Orderings: multi-column ordering with explicit directions. It must end
//     with a unique column.
//   - Cursor, Codec: a row position encoded into an opaque URL-safe token,
//     with typed values and optional signing.
//   - Pager: builds the seek predicate, the (possibly reversed) ordering and
//     an overfetch-by-one limit.
//   - Assemble: trims the overfetch row, computes has-next/has-previous and
//     restores the declared order for backward reads.
//   - Paginate: validates first/after/last/before arguments, counts rows and
//     builds a Connection with one cursor per edge.
package gokeyset
