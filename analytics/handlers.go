// HTTP handlers for the analytics endpoints.
package analytics

import (
	"net/http"

	"github.com/user/libtrack-go/auth"
)

// Defaults matching the reporting views the client renders.
const (
	defaultTopUsers   = 3
	defaultSeriesDays = 7
)

// Handlers wraps the analytics Service to provide HTTP handlers.
type Handlers struct {
	service *Service
}

// NewHandlers creates new analytics Handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleTopUsers handles GET /analytics/top-users.
func (h *Handlers) HandleTopUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		top, err := h.service.TopBorrowers(r.Context(), defaultTopUsers)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, top)
	}
}

// HandleDailyBorrows handles GET /analytics/daily-borrows.
func (h *Handlers) HandleDailyBorrows() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		series, err := h.service.DailyBorrowCounts(r.Context(), defaultSeriesDays)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, series)
	}
}
