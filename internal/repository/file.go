package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/packvault/packvault/internal/model"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

type FileRepository interface {
	Create(ctx context.Context, file *model.File) error
	ByID(ctx context.Context, resourceID, fileID string) (*model.File, error)
	Files(ctx context.Context, resourceID string) ([]*model.File, error)
	BlobKeyExists(ctx context.Context, blobKey string) (bool, error)
	Delete(ctx context.Context, resourceID, fileID string) (int64, error)
}

type fileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) *fileRepository {
	return &fileRepository{db: db}
}

const fileColumns = `file_uuid, resource_uuid, file_directory, file_name, blob_key, content_type, size, uploaded_by, created_at, updated_at`

func (r *fileRepository) Create(ctx context.Context, file *model.File) error {
	query := `INSERT INTO files (` + fileColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		file.ID,
		file.ResourceID,
		file.FileDirectory,
		file.FileName,
		file.BlobKey,
		file.ContentType,
		file.Size,
		file.UploadedBy,
		file.CreatedAt,
		file.UpdatedAt,
	)

	return err
}

func (r *fileRepository) ByID(ctx context.Context, resourceID, fileID string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT ` + fileColumns + ` FROM files WHERE resource_uuid = $1 AND file_uuid = $2`

	err := r.db.GetContext(ctx, file, query, resourceID, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	return file, nil
}

func (r *fileRepository) Files(ctx context.Context, resourceID string) ([]*model.File, error) {
	files := []*model.File{}
	query := `SELECT ` + fileColumns + ` FROM files WHERE resource_uuid = $1 ORDER BY created_at, file_uuid`

	err := r.db.SelectContext(ctx, &files, query, resourceID)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) BlobKeyExists(ctx context.Context, blobKey string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM files WHERE blob_key = $1`

	err := r.db.GetContext(ctx, &count, query, blobKey)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// Delete removes one file row and reports how many rows were affected
func (r *fileRepository) Delete(ctx context.Context, resourceID, fileID string) (int64, error) {
	query := `DELETE FROM files WHERE resource_uuid = $1 AND file_uuid = $2`
	res, err := r.db.ExecContext(ctx, query, resourceID, fileID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
