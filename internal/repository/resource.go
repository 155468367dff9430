package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/packvault/packvault/internal/model"
)

var (
	ErrResourceNotFound = errors.New("resource not found")
)

// ResourceRepository is the narrow view of the pack CRUD tables the upload path needs.
type ResourceRepository interface {
	ByID(ctx context.Context, id string) (*model.Resource, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type resourceRepository struct {
	db *sqlx.DB
}

func NewResourceRepository(db *sqlx.DB) *resourceRepository {
	return &resourceRepository{db: db}
}

func (r *resourceRepository) ByID(ctx context.Context, id string) (*model.Resource, error) {
	resource := &model.Resource{}
	query := `SELECT resource_uuid, pack_uuid, owner_uuid, type, name, created_at, updated_at
	          FROM resources WHERE resource_uuid = $1`

	err := r.db.GetContext(ctx, resource, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, err
	}

	return resource, nil
}

// Delete removes the resource row and reports how many rows were affected
func (r *resourceRepository) Delete(ctx context.Context, id string) (int64, error) {
	query := `DELETE FROM resources WHERE resource_uuid = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
