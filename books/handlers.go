// HTTP handlers for the catalog endpoints.
package books

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/libtrack-go/apperror"
	"github.com/user/libtrack-go/auth"
)

// Handlers wraps the catalog Service to provide HTTP handlers.
type Handlers struct {
	service *Service
}

// NewHandlers creates new catalog Handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// bookIDParam parses the {id} URL parameter.
func bookIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, apperror.NewValidationError("invalid book id", err)
	}
	return id, nil
}

// HandleList handles GET /books: the full catalog with availability status.
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bks, err := h.service.List(r.Context())
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, bks)
	}
}

// HandleCreate handles POST /books/admin.
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if req.Name == "" || req.Author == "" {
			auth.WriteError(w, r, apperror.NewValidationError("name and author are required", nil))
			return
		}

		book, err := h.service.Create(r.Context(), req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusCreated, book)
	}
}

// HandleUpdate handles PUT /books/admin/{id}.
func (h *Handlers) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := bookIDParam(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		var req UpdateBookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		book, err := h.service.Update(r.Context(), id, req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, book)
	}
}

// HandleDelete handles DELETE /books/admin/{id}.
func (h *Handlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := bookIDParam(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		if err := h.service.Delete(r.Context(), id); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, map[string]string{"message": "book deleted successfully"})
	}
}
