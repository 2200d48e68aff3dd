// Package lending implements the borrow/return state transitions. The
// invariant checks live here as pure functions over a snapshot of the two
// records involved, so the precondition order and every conflict message can
// be tested without a database; the service applies them inside a
// transaction that holds locks on the same rows the snapshot came from.
package lending

import (
	"fmt"

	"github.com/user/libtrack-go/apperror"
)

// BorrowState is the snapshot of the (user, book) pair a borrow decision is
// made against.
type BorrowState struct {
	AvailableCopies int  // copies of the book on the shelf
	ActiveLoans     int  // loans the user currently holds, across all books
	BorrowingLimit  int  // the user's maximum simultaneous loans
	AlreadyBorrowed bool // whether the user already holds a copy of this book
}

// CheckBorrow evaluates the borrow preconditions in their fixed order:
// availability first, then the user's limit, then the duplicate-loan rule.
// The first violated precondition wins; nil means the borrow may proceed.
func CheckBorrow(st BorrowState) error {
	if st.AvailableCopies <= 0 {
		return apperror.NewConflictError("no copies of this book are available", nil)
	}
	if st.ActiveLoans >= st.BorrowingLimit {
		return apperror.NewConflictError(
			fmt.Sprintf("user cannot borrow more than %d books", st.BorrowingLimit), nil)
	}
	if st.AlreadyBorrowed {
		return apperror.NewConflictError("user has already borrowed this book", nil)
	}
	return nil
}

// CheckReturn evaluates the single return precondition: the user must
// currently hold a copy of the book.
func CheckReturn(hasLoan bool) error {
	if !hasLoan {
		return apperror.NewConflictError("user has not borrowed this book", nil)
	}
	return nil
}
