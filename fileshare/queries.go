package fileshare

import (
	"context"

	"github.com/Alp4ka/gokeyset"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("not found")

type FilesQuery struct {
	Filter *FileFilter
	// Sort falls back to DefaultFileSort when nil.
	Sort       *SortInput[FileSortField]
	WithShares bool
	Paging     gokeyset.PagingRequest
}

type SharesQuery struct {
	Filter *ShareFilter
	// Sort falls back to DefaultShareSort when nil.
	Sort     *SortInput[ShareSortField]
	WithFile bool
	Paging   gokeyset.PagingRequest
}

// Files reads one page of files. Paging rejections are returned as
// *gokeyset.PaginationError.
func Files(ctx context.Context, db *gorm.DB, q FilesQuery, opts ...gokeyset.Option) (*gokeyset.Connection[FileNode], error) {
	sort := DefaultFileSort
	if q.Sort != nil {
		sort = *q.Sort
	}

	ord, err := FileSortMap.Orderings(sort.Field, sort.Direction)
	if err != nil {
		return nil, err
	}

	base := applyScopes(db.Model(&File{}), q.Filter.Scopes())

	conn, err := gokeyset.Paginate(ctx, base, ord, fileGetters, NewFileNode, q.Paging, opts...)
	if err != nil {
		return nil, err
	}

	if q.WithShares {
		nodes := make([]*FileNode, 0, len(conn.Edges))
		for i := range conn.Edges {
			nodes = append(nodes, &conn.Edges[i].Node)
		}

		if err = (ShareLoader{}).Load(ctx, db, nodes); err != nil {
			return nil, err
		}
	}

	return conn, nil
}

// Shares reads one page of shares with their file ids resolved.
func Shares(ctx context.Context, db *gorm.DB, q SharesQuery, opts ...gokeyset.Option) (*gokeyset.Connection[ShareNode], error) {
	sort := DefaultShareSort
	if q.Sort != nil {
		sort = *q.Sort
	}

	ord, err := ShareSortMap.Orderings(sort.Field, sort.Direction)
	if err != nil {
		return nil, err
	}

	base := applyScopes(db.Model(&Share{}), q.Filter.Scopes())

	conn, err := gokeyset.Paginate(ctx, base, ord, shareGetters, NewShareNode, q.Paging, opts...)
	if err != nil {
		return nil, err
	}

	nodes := make([]*ShareNode, 0, len(conn.Edges))
	for i := range conn.Edges {
		nodes = append(nodes, &conn.Edges[i].Node)
	}

	if err = (FileLoader{Attach: q.WithFile}).Load(ctx, db, nodes); err != nil {
		return nil, err
	}

	return conn, nil
}

func FindFile(ctx context.Context, db *gorm.DB, id uuid.UUID) (*FileNode, error) {
	var f File
	err := db.WithContext(ctx).Where(clause.Eq{Column: clause.Column{Name: "uuid"}, Value: id}).Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "file %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "cannot find file")
	}

	node := NewFileNode(f)
	return &node, nil
}

// FindShare looks a share up by id, by key or by both. At least one of them
// must be given.
func FindShare(ctx context.Context, db *gorm.DB, id *uuid.UUID, key *string) (*ShareNode, error) {
	if id == nil && key == nil {
		return nil, errors.Wrap(ErrNotFound, "shares can only be looked up via id or key")
	}

	query := db.WithContext(ctx)
	if id != nil {
		query = equals("uuid", *id)(query)
	}
	if key != nil {
		query = equals("key", *key)(query)
	}

	var s Share
	err := query.Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(ErrNotFound, "share with given id and/or key")
	}
	if err != nil {
		return nil, errors.Wrap(err, "cannot find share")
	}

	node := NewShareNode(s)
	if err = (FileLoader{Attach: true}).Load(ctx, db, []*ShareNode{&node}); err != nil {
		return nil, err
	}

	return &node, nil
}
