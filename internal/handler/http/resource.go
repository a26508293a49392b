package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coinport/backoffice/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ResourceService interface {
	// Create stores a new resource
	Create(ctx context.Context, res *models.Resource) (*models.Resource, error)
	// List returns resources, optionally filtered by category
	List(ctx context.Context, category string) ([]models.Resource, error)
	// Update updates an existing resource
	Update(ctx context.Context, res *models.Resource) error
	// Delete removes a resource
	Delete(ctx context.Context, id uuid.UUID) error
}

// ResourceHandler represents HTTP handler for the resource library
type ResourceHandler struct {
	svc ResourceService
}

// NewResourceHandler creates new ResourceHandler instance
func NewResourceHandler(svc ResourceService) *ResourceHandler {
	return &ResourceHandler{svc: svc}
}

type resourceRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

type resourceResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
}

// CreateResource stores a new library resource
// 200 — resource created
// 400 — malformed request
// 500 — internal error
func (rh *ResourceHandler) CreateResource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if req.Title == "" || req.URL == "" {
			http.Error(w, "title and url are required", http.StatusBadRequest)
			return
		}

		res, err := rh.svc.Create(r.Context(), &models.Resource{
			Title:    req.Title,
			Category: req.Category,
			URL:      req.URL,
		})
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(toResourceResponse(*res)); err != nil {
			return
		}
	}
}

// ListResources returns library resources filtered by the category
// query parameter
// 200 — list returned
// 500 — internal error
func (rh *ResourceHandler) ListResources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resources, err := rh.svc.List(r.Context(), r.URL.Query().Get("category"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		var resp []resourceResponse
		for _, res := range resources {
			resp = append(resp, toResourceResponse(res))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			return
		}
	}
}

// UpdateResource updates an existing library resource
// 200 — updated
// 400 — malformed request
// 404 — resource not found
// 500 — internal error
func (rh *ResourceHandler) UpdateResource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "bad resource id", http.StatusBadRequest)
			return
		}

		var req resourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		err = rh.svc.Update(r.Context(), &models.Resource{
			ID:       id,
			Title:    req.Title,
			Category: req.Category,
			URL:      req.URL,
		})
		if err != nil {
			switch {
			case errors.Is(err, models.ErrDataNotFound):
				http.Error(w, "resource not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// DeleteResource removes a library resource
// 200 — removed
// 400 — malformed resource id
// 404 — resource not found
// 500 — internal error
func (rh *ResourceHandler) DeleteResource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "bad resource id", http.StatusBadRequest)
			return
		}

		if err := rh.svc.Delete(r.Context(), id); err != nil {
			switch {
			case errors.Is(err, models.ErrDataNotFound):
				http.Error(w, "resource not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func toResourceResponse(res models.Resource) resourceResponse {
	return resourceResponse{
		ID:        res.ID.String(),
		Title:     res.Title,
		Category:  res.Category,
		URL:       res.URL,
		CreatedAt: res.CreatedAt.Format(time.RFC3339),
	}
}
