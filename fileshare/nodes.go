package fileshare

import (
	"time"

	"github.com/Alp4ka/gokeyset"
	"github.com/google/uuid"
)

// FileNode is the public view of a File. Shares is filled by ShareLoader.
type FileNode struct {
	ID            uuid.UUID   `json:"id"`
	Created       time.Time   `json:"created"`
	Updated       time.Time   `json:"updated"`
	Active        bool        `json:"active"`
	FileName      string      `json:"fileName"`
	ObjectName    string      `json:"objectName"`
	DownloadCount int         `json:"downloadCount"`
	DownloadLimit int         `json:"downloadLimit"`
	Shares        []ShareNode `json:"shares,omitempty"`

	pk uint
}

func NewFileNode(f File) FileNode {
	return FileNode{
		ID:            f.UUID,
		Created:       f.Created,
		Updated:       f.Updated,
		Active:        f.Active,
		FileName:      f.FileName,
		ObjectName:    f.ObjectName,
		DownloadCount: f.DownloadCount,
		DownloadLimit: f.DownloadLimit,
		pk:            f.ID,
	}
}

// ShareNode is the public view of a Share. FileID and File are filled by
// FileLoader.
type ShareNode struct {
	ID            uuid.UUID `json:"id"`
	FileID        uuid.UUID `json:"fileId"`
	Created       time.Time `json:"created"`
	Updated       time.Time `json:"updated"`
	Key           string    `json:"key"`
	Expiry        time.Time `json:"expiry"`
	DownloadLimit int       `json:"downloadLimit"`
	DownloadCount int       `json:"downloadCount"`
	File          *FileNode `json:"file,omitempty"`

	filePK uint
}

func NewShareNode(s Share) ShareNode {
	return ShareNode{
		ID:            s.UUID,
		Created:       s.Created,
		Updated:       s.Updated,
		Key:           s.Key,
		Expiry:        s.Expiry,
		DownloadLimit: s.DownloadLimit,
		DownloadCount: s.DownloadCount,
		filePK:        s.FileID,
	}
}

// Cursor getters per sortable column.
var (
	fileGetters = gokeyset.Getters[File]{
		"id":             func(f File) any { return f.ID },
		"created":        func(f File) any { return f.Created },
		"updated":        func(f File) any { return f.Updated },
		"file_name":      func(f File) any { return f.FileName },
		"object_name":    func(f File) any { return f.ObjectName },
		"download_limit": func(f File) any { return f.DownloadLimit },
		"download_count": func(f File) any { return f.DownloadCount },
	}

	shareGetters = gokeyset.Getters[Share]{
		"id":             func(s Share) any { return s.ID },
		"created":        func(s Share) any { return s.Created },
		"updated":        func(s Share) any { return s.Updated },
		"expiry":         func(s Share) any { return s.Expiry },
		"download_limit": func(s Share) any { return s.DownloadLimit },
		"download_count": func(s Share) any { return s.DownloadCount },
	}
)
