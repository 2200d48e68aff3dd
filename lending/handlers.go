// HTTP handlers for the borrow, return and borrowed-books endpoints. All of
// them act on behalf of the authenticated user taken from the request
// context, never on a user id supplied by the client.
package lending

import (
	"encoding/json"
	"net/http"

	"github.com/user/libtrack-go/apperror"
	"github.com/user/libtrack-go/auth"
)

// Handlers wraps the lending Service to provide HTTP handlers.
type Handlers struct {
	service *Service
}

// NewHandlers creates new lending Handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleBorrow handles POST /books/borrow.
func (h *Handlers) HandleBorrow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewUnauthorizedError("user id not found in context", nil))
			return
		}

		var req BorrowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if req.BookID == 0 {
			auth.WriteError(w, r, apperror.NewValidationError("bookId is required", nil))
			return
		}

		book, err := h.service.Borrow(r.Context(), userID, req.BookID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, book)
	}
}

// HandleReturn handles POST /books/return.
func (h *Handlers) HandleReturn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewUnauthorizedError("user id not found in context", nil))
			return
		}

		var req BorrowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if req.BookID == 0 {
			auth.WriteError(w, r, apperror.NewValidationError("bookId is required", nil))
			return
		}

		book, err := h.service.Return(r.Context(), userID, req.BookID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, book)
	}
}

// HandleBorrowedBooks handles GET /books/borrowed.
func (h *Handlers) HandleBorrowedBooks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewUnauthorizedError("user id not found in context", nil))
			return
		}

		bks, err := h.service.BorrowedBooks(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, bks)
	}
}
