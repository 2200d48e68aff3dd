// HTTP handlers for the user management endpoints.
package users

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/libtrack-go/apperror"
	"github.com/user/libtrack-go/auth"
)

// UserHandlers wraps the UserService to provide HTTP handlers.
type UserHandlers struct {
	service *UserService
}

// NewUserHandlers creates new UserHandlers.
func NewUserHandlers(service *UserService) *UserHandlers {
	return &UserHandlers{service: service}
}

// userIDParam parses the {id} URL parameter.
func userIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, apperror.NewValidationError("invalid user id", err)
	}
	return id, nil
}

// HandleList handles GET /users (admin).
func (h *UserHandlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.service.List(r.Context())
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, users)
	}
}

// HandleGet handles GET /users/{id} (admin).
func (h *UserHandlers) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := userIDParam(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		user, err := h.service.Get(r.Context(), id)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, user)
	}
}

// HandleUpdateBorrowingLimit handles PUT /users/{id}/borrowing-limit (admin).
func (h *UserHandlers) HandleUpdateBorrowingLimit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := userIDParam(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		var req UpdateBorrowingLimitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		user, err := h.service.UpdateBorrowingLimit(r.Context(), id, req.BorrowingLimit)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, user)
	}
}

// HandleDelete handles DELETE /users/{id} (admin).
func (h *UserHandlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := userIDParam(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		if err := h.service.Delete(r.Context(), id); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, map[string]string{"message": "user deleted successfully"})
	}
}

// HandleBorrowingSummary handles GET /users/me/borrowing.
func (h *UserHandlers) HandleBorrowingSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewUnauthorizedError("user id not found in context", nil))
			return
		}

		summary, err := h.service.BorrowingSummary(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, summary)
	}
}
