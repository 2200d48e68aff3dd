// Package books implements the catalog: book records, their copy counters
// and the admin operations that maintain them. This file defines the request
// and response payloads for the catalog endpoints.
package books

// CreateBookRequest is the payload for POST /books/admin.
// TotalCopies defaults to 1 when omitted.
type CreateBookRequest struct {
	Name        string  `json:"name"`
	Author      string  `json:"author"`
	Price       float64 `json:"price"`
	TotalCopies int     `json:"totalCopies"`
}

// UpdateBookRequest is the payload for PUT /books/admin/{id}. All fields are
// optional; nil means "leave unchanged".
type UpdateBookRequest struct {
	Name        *string  `json:"name,omitempty"`
	Author      *string  `json:"author,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	TotalCopies *int     `json:"totalCopies,omitempty"`
}

// BookWithAvailability decorates a book with display-oriented availability
// fields for the catalog listing.
type BookWithAvailability struct {
	Book
	IsAvailable      bool   `json:"isAvailable"`
	AvailabilityText string `json:"availabilityText"`
}
