package model

import (
	"time"
)

// File is the metadata row for one uploaded asset.
// BlobKey always points at an object that exists in blob storage.
type File struct {
	ResourceID    string    `db:"resource_uuid" json:"resource_uuid"`
	ID            string    `db:"file_uuid" json:"file_uuid"`
	FileDirectory string    `db:"file_directory" json:"file_directory"`
	FileName      string    `db:"file_name" json:"file_name"`
	BlobKey       string    `db:"blob_key" json:"-"`
	ContentType   string    `db:"content_type" json:"content_type"`
	Size          int64     `db:"size" json:"size"`
	UploadedBy    string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
