package repository

import (
	"context"

	"github.com/coinport/backoffice/internal/models"
	"github.com/coinport/backoffice/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	insertResourceQuery = `
						INSERT INTO resources (id, title, category, url)
						VALUES ($1, $2, $3, $4)
						RETURNING id, title, category, url, created_at
`
	selectResourcesQuery = `
						SELECT id, title, category, url, created_at
						FROM resources
						ORDER BY created_at DESC
`
	selectResourcesByCategoryQuery = `
						SELECT id, title, category, url, created_at
						FROM resources
						WHERE category = $1
						ORDER BY created_at DESC
`
	updateResourceQuery = `
						UPDATE resources SET title = $1, category = $2, url = $3
						WHERE id = $4
`
	deleteResourceQuery = `
						DELETE FROM resources WHERE id = $1
`
)

// ResourceRepository implements access to the resource library
type ResourceRepository struct {
	db *postgres.DB
}

// NewResourceRepository creates new ResourceRepository instance
func NewResourceRepository(db *postgres.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// CreateResource inserts new resource
func (rr *ResourceRepository) CreateResource(ctx context.Context, res *models.Resource) (*models.Resource, error) {
	err := rr.db.QueryRow(ctx, insertResourceQuery, res.ID, res.Title, res.Category, res.URL).
		Scan(&res.ID, &res.Title, &res.Category, &res.URL, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListResources returns resources, optionally filtered by category
func (rr *ResourceRepository) ListResources(ctx context.Context, category string) ([]models.Resource, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if category == "" {
		rows, err = rr.db.Query(ctx, selectResourcesQuery)
	} else {
		rows, err = rr.db.Query(ctx, selectResourcesByCategoryQuery, category)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		res := models.Resource{}
		if err := rows.Scan(&res.ID, &res.Title, &res.Category, &res.URL, &res.CreatedAt); err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return resources, nil
}

// UpdateResource updates resource fields
func (rr *ResourceRepository) UpdateResource(ctx context.Context, res *models.Resource) error {
	tag, err := rr.db.Exec(ctx, updateResourceQuery, res.Title, res.Category, res.URL, res.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrDataNotFound
	}
	return nil
}

// DeleteResource removes resource by id
func (rr *ResourceRepository) DeleteResource(ctx context.Context, id uuid.UUID) error {
	tag, err := rr.db.Exec(ctx, deleteResourceQuery, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrDataNotFound
	}
	return nil
}
