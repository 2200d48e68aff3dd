// Borrow/return transitions. Each operation runs inside one database
// transaction: the user and book rows are locked, the preconditions are
// evaluated against the locked state, and the counter update plus the loan
// row change commit or roll back together. Two concurrent borrows of the
// last copy therefore serialize on the book row, and the loans table's
// unique constraint rules out a duplicate loan even if a check were bypassed.
package lending

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/libtrack-go/apperror"
	"github.com/user/libtrack-go/books"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// Service applies borrow and return transitions.
type Service struct {
	db      *pgxpool.Pool
	catalog *books.Service
}

// NewService creates a new lending Service.
func NewService(db *pgxpool.Pool, catalog *books.Service) *Service {
	return &Service{db: db, catalog: catalog}
}

// Borrow lends one copy of the book to the user and returns the updated
// book. Preconditions, first failure wins: user exists, book exists, a copy
// is available, the user is under their borrowing limit, the user does not
// already hold this book.
func (s *Service) Borrow(ctx context.Context, userID, bookID int) (*books.Book, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	// Lock the user row; serializes concurrent borrows by the same user so
	// the limit check cannot be raced past.
	var borrowingLimit int
	err = tx.QueryRow(ctx, `SELECT borrowing_limit FROM users WHERE id = $1 FOR UPDATE`, userID).
		Scan(&borrowingLimit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}

	// Lock the book row; serializes concurrent borrows of the same book so
	// the last copy cannot be lent twice.
	var availableCopies int
	err = tx.QueryRow(ctx, `SELECT available_copies FROM books WHERE id = $1 FOR UPDATE`, bookID).
		Scan(&availableCopies)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("book not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get book", err)
	}

	var activeLoans int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM loans WHERE user_id = $1`, userID).
		Scan(&activeLoans)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to count loans", err)
	}

	var alreadyBorrowed bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM loans WHERE user_id = $1 AND book_id = $2)`, userID, bookID).
		Scan(&alreadyBorrowed)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to check existing loan", err)
	}

	if err := CheckBorrow(BorrowState{
		AvailableCopies: availableCopies,
		ActiveLoans:     activeLoans,
		BorrowingLimit:  borrowingLimit,
		AlreadyBorrowed: alreadyBorrowed,
	}); err != nil {
		return nil, err
	}

	// The guard repeats the availability condition so the decrement can
	// never push the counter below zero.
	tag, err := tx.Exec(ctx, `
		UPDATE books
		SET available_copies = available_copies - 1
		WHERE id = $1 AND available_copies > 0`, bookID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to update book availability", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NewConflictError("no copies of this book are available", nil)
	}

	_, err = tx.Exec(ctx, `INSERT INTO loans (user_id, book_id) VALUES ($1, $2)`, userID, bookID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, apperror.NewConflictError("user has already borrowed this book", nil)
		}
		return nil, apperror.NewDatabaseError("failed to record loan", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.NewDatabaseError("failed to commit borrow", err)
	}

	return s.catalog.GetWithCopies(ctx, bookID)
}

// Return gives back the user's copy of the book and returns the updated
// book. The loan entry is removed by (user, book) match; without a matching
// loan the operation fails.
func (s *Service) Return(ctx context.Context, userID, bookID int) (*books.Book, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}
	if !exists {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}

	var availableCopies int
	err = tx.QueryRow(ctx, `SELECT available_copies FROM books WHERE id = $1 FOR UPDATE`, bookID).
		Scan(&availableCopies)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("book not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get book", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM loans WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to remove loan", err)
	}
	if err := CheckReturn(tag.RowsAffected() > 0); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE books
		SET available_copies = available_copies + 1
		WHERE id = $1`, bookID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to update book availability", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.NewDatabaseError("failed to commit return", err)
	}

	return s.catalog.GetWithCopies(ctx, bookID)
}

// BorrowedBooks lists the books the user currently holds, each with its full
// set of active loans.
func (s *Service) BorrowedBooks(ctx context.Context, userID int) ([]*books.Book, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}
	if !exists {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}

	rows, err := s.db.Query(ctx, `
		SELECT b.id, b.name, b.author, b.price, b.total_copies, b.available_copies, b.created_at
		FROM books b
		JOIN loans l ON l.book_id = b.id
		WHERE l.user_id = $1
		ORDER BY l.borrowed_at, l.id`, userID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list borrowed books", err)
	}
	defer rows.Close()

	var bks []*books.Book
	for rows.Next() {
		var b books.Book
		if err := rows.Scan(&b.ID, &b.Name, &b.Author, &b.Price, &b.TotalCopies, &b.AvailableCopies, &b.CreatedAt); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan borrowed book", err)
		}
		bks = append(bks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to list borrowed books", err)
	}

	if err := s.catalog.LoadCopies(ctx, bks); err != nil {
		return nil, err
	}
	if bks == nil {
		bks = []*books.Book{}
	}
	return bks, nil
}
