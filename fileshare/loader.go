package fileshare

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// ShareLoader attaches shares to a page of files with a single IN query.
type ShareLoader struct {
	// Sort orders shares within each file. DefaultShareSort when zero.
	Sort SortInput[ShareSortField]
}

func (l ShareLoader) Load(ctx context.Context, db *gorm.DB, files []*FileNode) error {
	if len(files) == 0 {
		return nil
	}

	sort := l.Sort
	if sort.Field == "" {
		sort = DefaultShareSort
	}

	ord, err := ShareSortMap.Orderings(sort.Field, sort.Direction)
	if err != nil {
		return err
	}

	keys := lo.Uniq(lo.Map(files, func(f *FileNode, _ int) uint { return f.pk }))

	var shares []Share
	err = ord.Apply(db.WithContext(ctx).Where("file_id IN ?", keys)).Find(&shares).Error
	if err != nil {
		return errors.Wrap(err, "cannot load shares")
	}

	byFile := lo.GroupBy(shares, func(s Share) uint { return s.FileID })
	for _, f := range files {
		f.Shares = lo.Map(byFile[f.pk], func(s Share, _ int) ShareNode {
			node := NewShareNode(s)
			node.FileID = f.ID
			return node
		})
	}

	return nil
}

// FileLoader resolves the files of a page of shares with a single IN query.
// FileID is always set; File only when Attach is true.
type FileLoader struct {
	Attach bool
}

func (l FileLoader) Load(ctx context.Context, db *gorm.DB, shares []*ShareNode) error {
	if len(shares) == 0 {
		return nil
	}

	keys := lo.Uniq(lo.Map(shares, func(s *ShareNode, _ int) uint { return s.filePK }))

	var files []File
	if err := db.WithContext(ctx).Where("id IN ?", keys).Find(&files).Error; err != nil {
		return errors.Wrap(err, "cannot load files")
	}

	byPK := lo.KeyBy(files, func(f File) uint { return f.ID })
	for _, s := range shares {
		f, ok := byPK[s.filePK]
		if !ok {
			return errors.Errorf("share %s refers to missing file %d", s.ID, s.filePK)
		}

		s.FileID = f.UUID
		if l.Attach {
			node := NewFileNode(f)
			s.File = &node
		}
	}

	return nil
}
