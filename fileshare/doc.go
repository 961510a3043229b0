// Package fileshare exposes files and their share links as keyset-paginated
// connections.
//
// Sort fields resolve to column lists through FileSortMap and ShareSortMap,
// filters become query scopes, and related rows of a page are attached by
// ShareLoader and FileLoader with one query each.
package fileshare
