package service

import (
	"context"

	"github.com/coinport/backoffice/internal/models"
	"github.com/google/uuid"
)

// ResourceRepository is interface for interacting with the resource
// library
type ResourceRepository interface {
	// CreateResource inserts new resource
	CreateResource(ctx context.Context, res *models.Resource) (*models.Resource, error)
	// ListResources returns resources, optionally filtered by category
	ListResources(ctx context.Context, category string) ([]models.Resource, error)
	// UpdateResource updates resource fields
	UpdateResource(ctx context.Context, res *models.Resource) error
	// DeleteResource removes resource by id
	DeleteResource(ctx context.Context, id uuid.UUID) error
}

// ResourceService implements admin CRUD over the resource library
type ResourceService struct {
	repo ResourceRepository
}

// NewResourceService creates new ResourceService instance
func NewResourceService(repo ResourceRepository) *ResourceService {
	return &ResourceService{repo: repo}
}

// Create stores a new resource
func (rs *ResourceService) Create(ctx context.Context, res *models.Resource) (*models.Resource, error) {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	return rs.repo.CreateResource(ctx, res)
}

// List returns resources, optionally filtered by category
func (rs *ResourceService) List(ctx context.Context, category string) ([]models.Resource, error) {
	return rs.repo.ListResources(ctx, category)
}

// Update updates an existing resource
func (rs *ResourceService) Update(ctx context.Context, res *models.Resource) error {
	return rs.repo.UpdateResource(ctx, res)
}

// Delete removes a resource
func (rs *ResourceService) Delete(ctx context.Context, id uuid.UUID) error {
	return rs.repo.DeleteResource(ctx, id)
}
