package lending

// BorrowRequest is the payload for POST /books/borrow and POST /books/return.
type BorrowRequest struct {
	BookID int `json:"bookId"`
}
