package fileshare

import (
	"sort"
	"strings"

	"github.com/Alp4ka/gokeyset"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// _tieBreaker is the unique column that ends every ordering.
const _tieBreaker = "id"

type FileSortField string

const (
	FileSortFileName      FileSortField = "FILE_NAME"
	FileSortObjectName    FileSortField = "OBJECT_NAME"
	FileSortDownloadLimit FileSortField = "DOWNLOAD_LIMIT"
	FileSortDownloads     FileSortField = "DOWNLOADS"
	FileSortCreated       FileSortField = "CREATED"
	FileSortUpdated       FileSortField = "UPDATED"
)

type ShareSortField string

const (
	ShareSortCreated       ShareSortField = "CREATED"
	ShareSortUpdated       ShareSortField = "UPDATED"
	ShareSortExpiry        ShareSortField = "EXPIRY"
	ShareSortDownloadCount ShareSortField = "DOWNLOAD_COUNT"
	ShareSortDownloadLimit ShareSortField = "DOWNLOAD_LIMIT"
)

// SortMap maps a sort field to the columns it orders by, most significant
// first.
type SortMap[F ~string] map[F][]string

var FileSortMap = SortMap[FileSortField]{
	FileSortFileName:      {"file_name", "updated"},
	FileSortObjectName:    {"object_name", "updated"},
	FileSortDownloadLimit: {"download_limit", "updated"},
	FileSortDownloads:     {"download_count", "updated"},
	FileSortCreated:       {"created"},
	FileSortUpdated:       {"updated"},
}

var ShareSortMap = SortMap[ShareSortField]{
	ShareSortCreated:       {"created", "updated"},
	ShareSortUpdated:       {"updated", "created"},
	ShareSortExpiry:        {"expiry", "updated", "created"},
	ShareSortDownloadCount: {"download_count", "updated", "created"},
	ShareSortDownloadLimit: {"download_limit", "updated", "created"},
}

// Orderings resolves field into a total ordering: every column gets dir and
// the unique id column is appended.
func (m SortMap[F]) Orderings(field F, dir gokeyset.Direction) (gokeyset.Orderings, error) {
	columns, ok := m[field]
	if !ok {
		return nil, errors.Errorf("unknown sort field %q", field)
	}

	if !dir.Valid() {
		return nil, errors.Errorf("unknown sort direction %q", dir)
	}

	ord := lo.Map(columns, func(column string, _ int) gokeyset.OrderBy {
		return gokeyset.OrderBy{Column: column, Direction: dir}
	})

	return gokeyset.Orderings(ord).WithTieBreaker(_tieBreaker), nil
}

// Parse looks up a field by its case-insensitive name.
func (m SortMap[F]) Parse(name string) (F, error) {
	field := F(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := m[field]; !ok {
		names := m.names()
		return "", errors.Errorf("unknown sort field %q, did you mean %q? expected one of %s",
			name, gokeyset.ClosestAlias(string(field), names), strings.Join(names, ", "))
	}

	return field, nil
}

func (m SortMap[F]) names() []string {
	names := lo.Map(lo.Keys(map[F][]string(m)), func(f F, _ int) string { return string(f) })
	sort.Strings(names)
	return names
}

type SortInput[F ~string] struct {
	Field     F                  `json:"field"`
	Direction gokeyset.Direction `json:"direction"`
}

var (
	DefaultFileSort  = SortInput[FileSortField]{Field: FileSortCreated, Direction: gokeyset.DirectionASC}
	DefaultShareSort = SortInput[ShareSortField]{Field: ShareSortUpdated, Direction: gokeyset.DirectionDESC}
)

// ParseDirection accepts asc or desc in any case.
func ParseDirection(s string) (gokeyset.Direction, error) {
	dir := gokeyset.Direction(strings.ToUpper(strings.TrimSpace(s)))
	if !dir.Valid() {
		return "", errors.Errorf("unknown sort direction %q, expected asc or desc", s)
	}

	return dir, nil
}

func ParseFileSort(field, direction string) (SortInput[FileSortField], error) {
	return parseSort(FileSortMap, field, direction)
}

func ParseShareSort(field, direction string) (SortInput[ShareSortField], error) {
	return parseSort(ShareSortMap, field, direction)
}

func parseSort[F ~string](m SortMap[F], field, direction string) (SortInput[F], error) {
	f, err := m.Parse(field)
	if err != nil {
		return SortInput[F]{}, err
	}

	dir, err := ParseDirection(direction)
	if err != nil {
		return SortInput[F]{}, err
	}

	return SortInput[F]{Field: f, Direction: dir}, nil
}
