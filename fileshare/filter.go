package fileshare

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope narrows a query. Scopes are applied in order and only ever add
// conditions.
type Scope func(*gorm.DB) *gorm.DB

// IntRange is inclusive on both ends.
type IntRange struct {
	Gte int `json:"gte"`
	Lte int `json:"lte"`
}

// TimeRange is inclusive on both ends.
type TimeRange struct {
	Gte time.Time `json:"gte"`
	Lte time.Time `json:"lte"`
}

type FileFilter struct {
	IDs           []uuid.UUID `json:"id,omitempty"`
	Names         []string    `json:"name,omitempty"`
	DownloadCount *IntRange   `json:"downloads,omitempty"`
	DownloadLimit *IntRange   `json:"downloadLimit,omitempty"`
	Created       *TimeRange  `json:"created,omitempty"`
	Updated       *TimeRange  `json:"updated,omitempty"`
	Active        *bool       `json:"active,omitempty"`
}

// Scopes returns one scope per set field. A nil filter matches everything.
func (f *FileFilter) Scopes() []Scope {
	if f == nil {
		return nil
	}

	var scopes []Scope
	if f.IDs != nil {
		scopes = append(scopes, in("uuid", f.IDs))
	}
	if f.Names != nil {
		scopes = append(scopes, in("file_name", f.Names))
	}
	if f.DownloadCount != nil {
		scopes = append(scopes, between("download_count", f.DownloadCount.Gte, f.DownloadCount.Lte))
	}
	if f.DownloadLimit != nil {
		scopes = append(scopes, between("download_limit", f.DownloadLimit.Gte, f.DownloadLimit.Lte))
	}
	if f.Created != nil {
		scopes = append(scopes, between("created", f.Created.Gte, f.Created.Lte))
	}
	if f.Updated != nil {
		scopes = append(scopes, between("updated", f.Updated.Gte, f.Updated.Lte))
	}
	if f.Active != nil {
		scopes = append(scopes, equals("active", *f.Active))
	}

	return scopes
}

type ShareFilter struct {
	IDs           []uuid.UUID `json:"id,omitempty"`
	FileIDs       []uuid.UUID `json:"fileId,omitempty"`
	Keys          []string    `json:"key,omitempty"`
	Created       *TimeRange  `json:"created,omitempty"`
	Updated       *TimeRange  `json:"updated,omitempty"`
	Expiry        *TimeRange  `json:"expiry,omitempty"`
	DownloadLimit *IntRange   `json:"downloadLimit,omitempty"`
	DownloadCount *IntRange   `json:"downloadCount,omitempty"`
}

func (f *ShareFilter) Scopes() []Scope {
	if f == nil {
		return nil
	}

	var scopes []Scope
	if f.IDs != nil {
		scopes = append(scopes, in("uuid", f.IDs))
	}
	if f.FileIDs != nil {
		scopes = append(scopes, shareOfFiles(f.FileIDs))
	}
	if f.Keys != nil {
		scopes = append(scopes, in("key", f.Keys))
	}
	if f.Created != nil {
		scopes = append(scopes, between("created", f.Created.Gte, f.Created.Lte))
	}
	if f.Updated != nil {
		scopes = append(scopes, between("updated", f.Updated.Gte, f.Updated.Lte))
	}
	if f.Expiry != nil {
		scopes = append(scopes, between("expiry", f.Expiry.Gte, f.Expiry.Lte))
	}
	if f.DownloadLimit != nil {
		scopes = append(scopes, between("download_limit", f.DownloadLimit.Gte, f.DownloadLimit.Lte))
	}
	if f.DownloadCount != nil {
		scopes = append(scopes, between("download_count", f.DownloadCount.Gte, f.DownloadCount.Lte))
	}

	return scopes
}

// applyScopes applies scopes immediately, so a later Count and Find see the
// same conditions.
func applyScopes(db *gorm.DB, scopes []Scope) *gorm.DB {
	for _, scope := range scopes {
		db = scope(db)
	}
	return db
}

func in[T any](column string, values []T) Scope {
	return func(db *gorm.DB) *gorm.DB {
		// An empty list renders IN (NULL) and matches nothing.
		return db.Where(clause.IN{Column: clause.Column{Name: column}, Values: lo.ToAnySlice(values)})
	}
}

func between[T any](column string, gte, lte T) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Expr{
			SQL:  "? BETWEEN ? AND ?",
			Vars: []any{clause.Column{Name: column}, gte, lte},
		})
	}
}

func equals(column string, value any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	}
}

func shareOfFiles(fileIDs []uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		files := in("uuid", fileIDs)(db.Session(&gorm.Session{NewDB: true}).Model(&File{}).Select("id"))

		return db.Where("file_id IN (?)", files)
	}
}
