// Package users provides the admin-facing user management operations and
// the authenticated user's borrowing summary. This file defines its request
// and response payloads.
package users

// UpdateBorrowingLimitRequest is the payload for PUT /users/{id}/borrowing-limit.
type UpdateBorrowingLimitRequest struct {
	BorrowingLimit int `json:"borrowingLimit"`
}

// BorrowedBookSummary is the slim book view embedded in a borrowing summary.
type BorrowedBookSummary struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Author string  `json:"author"`
	Price  float64 `json:"price"`
}

// BorrowingSummary is returned by GET /users/me/borrowing: what the caller
// currently holds and how much headroom their limit leaves.
type BorrowingSummary struct {
	BorrowedBooks  []BorrowedBookSummary `json:"borrowedBooks"`
	BorrowingLimit int                   `json:"borrowingLimit"`
	BooksBorrowed  int                   `json:"booksBorrowed"`
	BooksRemaining int                   `json:"booksRemaining"`
}
