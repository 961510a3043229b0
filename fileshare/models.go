package fileshare

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File is a stored object that can be shared through links.
type File struct {
	ID            uint      `gorm:"primaryKey"`
	UUID          uuid.UUID `gorm:"type:varchar(36);uniqueIndex;not null"`
	Created       time.Time `gorm:"autoCreateTime;index"`
	Updated       time.Time `gorm:"autoUpdateTime;index"`
	FileName      string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	ObjectName    string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Active        bool      `gorm:"not null"`
	DownloadCount int       `gorm:"not null;default:0"`
	DownloadLimit int       `gorm:"not null;default:0"`
	Shares        []Share
}

func (File) TableName() string { return "file" }

func (f *File) BeforeCreate(*gorm.DB) error {
	if f.UUID == uuid.Nil {
		f.UUID = uuid.New()
	}
	return nil
}

// Share is a download link to a File. Expiry is mandatory so that every
// sortable column holds a value.
type Share struct {
	ID            uint      `gorm:"primaryKey"`
	UUID          uuid.UUID `gorm:"type:varchar(36);uniqueIndex;not null"`
	Created       time.Time `gorm:"autoCreateTime;index"`
	Updated       time.Time `gorm:"autoUpdateTime;index"`
	FileID        uint      `gorm:"index;not null"`
	Key           string    `gorm:"type:varchar(64);index;not null"`
	Expiry        time.Time `gorm:"not null"`
	DownloadLimit int       `gorm:"not null;default:0"`
	DownloadCount int       `gorm:"not null;default:0"`
}

func (Share) TableName() string { return "share" }

func (s *Share) BeforeCreate(*gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	return nil
}

// Migrate creates or updates the file and share tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&File{}, &Share{})
}
