// Business logic for user management: admin listing and lookup, the
// borrowing-limit mutation, deletion guarded by active loans, and the
// self-service borrowing summary.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/libtrack-go/apperror"
	"github.com/user/libtrack-go/auth"
)

// Borrowing limit bounds enforced on the admin mutation.
const (
	minBorrowingLimit = 1
	maxBorrowingLimit = 10
)

// UserService provides user management operations.
type UserService struct {
	db *pgxpool.Pool
}

// NewUserService creates a new UserService.
func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

// List returns all users. Password hashes are never selected.
func (s *UserService) List(ctx context.Context) ([]auth.User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, email, role, borrowing_limit, created_at
		FROM users
		ORDER BY id`)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list users", err)
	}
	defer rows.Close()

	users := []auth.User{}
	for rows.Next() {
		var u auth.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.BorrowingLimit, &u.CreatedAt); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to list users", err)
	}
	return users, nil
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id int) (*auth.User, error) {
	var u auth.User
	err := s.db.QueryRow(ctx, `
		SELECT id, name, email, role, borrowing_limit, created_at
		FROM users
		WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.BorrowingLimit, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}
	return &u, nil
}

// UpdateBorrowingLimit sets a user's borrowing limit. The new limit only
// constrains future borrows; a user already over the new limit keeps their
// existing loans and simply cannot borrow more.
func (s *UserService) UpdateBorrowingLimit(ctx context.Context, id, limit int) (*auth.User, error) {
	if limit < minBorrowingLimit || limit > maxBorrowingLimit {
		return nil, apperror.NewValidationError(
			fmt.Sprintf("borrowing limit must be between %d and %d", minBorrowingLimit, maxBorrowingLimit), nil)
	}

	var u auth.User
	err := s.db.QueryRow(ctx, `
		UPDATE users
		SET borrowing_limit = $1
		WHERE id = $2
		RETURNING id, name, email, role, borrowing_limit, created_at`, limit, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.BorrowingLimit, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to update borrowing limit", err)
	}
	return &u, nil
}

// Delete removes a user. A user holding any active loan cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id int) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return apperror.NewDatabaseError("failed to get user", err)
	}
	if !exists {
		return apperror.NewNotFoundError("user not found", nil)
	}

	var activeLoans int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM loans WHERE user_id = $1`, id).Scan(&activeLoans)
	if err != nil {
		return apperror.NewDatabaseError("failed to count loans", err)
	}
	if activeLoans > 0 {
		return apperror.NewConflictError("cannot delete user with borrowed books", nil)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return apperror.NewDatabaseError("failed to delete user", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.NewDatabaseError("failed to commit user deletion", err)
	}
	return nil
}

// BorrowingSummary returns the caller's borrowed books and remaining
// borrowing capacity.
func (s *UserService) BorrowingSummary(ctx context.Context, userID int) (*BorrowingSummary, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT b.id, b.name, b.author, b.price
		FROM books b
		JOIN loans l ON l.book_id = b.id
		WHERE l.user_id = $1
		ORDER BY l.borrowed_at, l.id`, userID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list borrowed books", err)
	}
	defer rows.Close()

	borrowed := []BorrowedBookSummary{}
	for rows.Next() {
		var b BorrowedBookSummary
		if err := rows.Scan(&b.ID, &b.Name, &b.Author, &b.Price); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan borrowed book", err)
		}
		borrowed = append(borrowed, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to list borrowed books", err)
	}

	return &BorrowingSummary{
		BorrowedBooks:  borrowed,
		BorrowingLimit: user.BorrowingLimit,
		BooksBorrowed:  len(borrowed),
		BooksRemaining: user.BorrowingLimit - len(borrowed),
	}, nil
}
