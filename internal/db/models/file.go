package models

import "github.com/google/uuid"

// File is blob metadata. The ID doubles as the blob store key; the actual
// bytes live in the configured blob backend under "<id>.<extension>".
// Size is an estimate at insert time and is corrected once the download
// finishes.
type File struct {
	ID            uuid.UUID `db:"id" json:"id"`
	FileName      string    `db:"file_name" json:"fileName"`
	FileExtension string    `db:"file_extension" json:"fileExtension"`
	Size          int64     `db:"size" json:"size"`
}

// BlobKey returns the key under which the file's bytes are stored.
func (f *File) BlobKey() string {
	return f.ID.String() + "." + f.FileExtension
}
