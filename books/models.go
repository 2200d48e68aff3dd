package books

import "time"

// BorrowedCopy is one currently-active loan of a book, as exposed in API
// responses. It is derived from the loans table, never stored on the book.
type BorrowedCopy struct {
	UserID       int       `json:"user"`
	BorrowedDate time.Time `json:"borrowedDate"`
}

// Book represents a title in the catalog. AvailableCopies counts copies on
// the shelf; BorrowedCopies lists the active loans. Outside of the admin
// total-copies clamp, availableCopies + len(borrowedCopies) == totalCopies.
type Book struct {
	ID              int            `json:"id"`
	Name            string         `json:"name"`
	Author          string         `json:"author"`
	Price           float64        `json:"price"`
	TotalCopies     int            `json:"totalCopies"`
	AvailableCopies int            `json:"availableCopies"`
	BorrowedCopies  []BorrowedCopy `json:"borrowedCopies"`
	CreatedAt       time.Time      `json:"createdAt"`
}
