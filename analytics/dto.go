// Package analytics derives reporting views from the loans table: the
// heaviest current borrowers and a daily borrow-count time series. This file
// defines its response payloads.
package analytics

// TopUser is one entry in the top-borrowers report.
type TopUser struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	BorrowedBooksCount int    `json:"borrowedBooksCount"`
}

// DailyBorrowCount is one day's entry in the borrow time series. Date is
// formatted YYYY-MM-DD.
type DailyBorrowCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
