// Catalog business logic: listing, creation, partial update with the
// copy-count recompute, and deletion guarded by the no-active-loans rule.
package books

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/libtrack-go/apperror"
)

// Service provides catalog operations.
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new catalog Service.
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// RecomputeAvailable derives the new available-copy count when an admin
// changes a book's total. The number of copies currently on loan is
// preserved; if the new total is smaller than that, availability clamps to
// zero and the deficit resolves as loans are returned.
func RecomputeAvailable(newTotal, oldTotal, oldAvailable int) int {
	borrowed := oldTotal - oldAvailable
	available := newTotal - borrowed
	if available < 0 {
		return 0
	}
	return available
}

// AvailabilityText renders the human-readable availability shown in the
// catalog listing.
func AvailabilityText(available, total int) string {
	if available > 0 {
		return fmt.Sprintf("%d of %d available", available, total)
	}
	return "Not available"
}

// List returns all books with their active loans and availability status.
func (s *Service) List(ctx context.Context) ([]BookWithAvailability, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, author, price, total_copies, available_copies, created_at
		FROM books
		ORDER BY id`)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list books", err)
	}
	defer rows.Close()

	var bks []*Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Name, &b.Author, &b.Price, &b.TotalCopies, &b.AvailableCopies, &b.CreatedAt); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan book", err)
		}
		bks = append(bks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to list books", err)
	}

	if err := s.LoadCopies(ctx, bks); err != nil {
		return nil, err
	}

	result := make([]BookWithAvailability, 0, len(bks))
	for _, b := range bks {
		result = append(result, BookWithAvailability{
			Book:             *b,
			IsAvailable:      b.AvailableCopies > 0,
			AvailabilityText: AvailabilityText(b.AvailableCopies, b.TotalCopies),
		})
	}
	return result, nil
}

// GetWithCopies returns one book including its active loans.
func (s *Service) GetWithCopies(ctx context.Context, id int) (*Book, error) {
	var b Book
	err := s.db.QueryRow(ctx, `
		SELECT id, name, author, price, total_copies, available_copies, created_at
		FROM books
		WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Author, &b.Price, &b.TotalCopies, &b.AvailableCopies, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("book not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get book", err)
	}

	if err := s.LoadCopies(ctx, []*Book{&b}); err != nil {
		return nil, err
	}
	return &b, nil
}

// LoadCopies populates BorrowedCopies for the given books from the loans
// table, in borrow order. Books with no active loans get an empty slice so
// the JSON field is always an array.
func (s *Service) LoadCopies(ctx context.Context, bks []*Book) error {
	for _, b := range bks {
		b.BorrowedCopies = []BorrowedCopy{}
	}
	if len(bks) == 0 {
		return nil
	}

	ids := make([]int, 0, len(bks))
	byID := make(map[int]*Book, len(bks))
	for _, b := range bks {
		ids = append(ids, b.ID)
		byID[b.ID] = b
	}

	rows, err := s.db.Query(ctx, `
		SELECT book_id, user_id, borrowed_at
		FROM loans
		WHERE book_id = ANY($1)
		ORDER BY borrowed_at, id`, ids)
	if err != nil {
		return apperror.NewDatabaseError("failed to load borrowed copies", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID int
		var copy BorrowedCopy
		if err := rows.Scan(&bookID, &copy.UserID, &copy.BorrowedDate); err != nil {
			return apperror.NewDatabaseError("failed to scan borrowed copy", err)
		}
		if b, ok := byID[bookID]; ok {
			b.BorrowedCopies = append(b.BorrowedCopies, copy)
		}
	}
	if err := rows.Err(); err != nil {
		return apperror.NewDatabaseError("failed to load borrowed copies", err)
	}
	return nil
}

// Create adds a new book with all copies available.
func (s *Service) Create(ctx context.Context, req CreateBookRequest) (*Book, error) {
	totalCopies := req.TotalCopies
	if totalCopies == 0 {
		totalCopies = 1
	}
	if totalCopies < 1 {
		return nil, apperror.NewValidationError("totalCopies must be at least 1", nil)
	}
	if req.Price < 0 {
		return nil, apperror.NewValidationError("price must not be negative", nil)
	}

	b := Book{
		Name:            req.Name,
		Author:          req.Author,
		Price:           req.Price,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		BorrowedCopies:  []BorrowedCopy{},
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO books (name, author, price, total_copies, available_copies)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, created_at`,
		b.Name, b.Author, b.Price, b.TotalCopies).
		Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create book", err)
	}
	return &b, nil
}

// Update applies a partial update. When totalCopies changes, the available
// count is recomputed so the number of copies on loan is preserved. The
// book row is locked for the duration so a concurrent borrow cannot read
// counters mid-recompute.
func (s *Service) Update(ctx context.Context, id int, req UpdateBookRequest) (*Book, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var b Book
	err = tx.QueryRow(ctx, `
		SELECT id, name, author, price, total_copies, available_copies, created_at
		FROM books
		WHERE id = $1
		FOR UPDATE`, id).
		Scan(&b.ID, &b.Name, &b.Author, &b.Price, &b.TotalCopies, &b.AvailableCopies, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("book not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get book", err)
	}

	if req.Name != nil && *req.Name != "" {
		b.Name = *req.Name
	}
	if req.Author != nil && *req.Author != "" {
		b.Author = *req.Author
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, apperror.NewValidationError("price must not be negative", nil)
		}
		b.Price = *req.Price
	}
	if req.TotalCopies != nil {
		if *req.TotalCopies < 1 {
			return nil, apperror.NewValidationError("totalCopies must be at least 1", nil)
		}
		b.AvailableCopies = RecomputeAvailable(*req.TotalCopies, b.TotalCopies, b.AvailableCopies)
		b.TotalCopies = *req.TotalCopies
	}

	_, err = tx.Exec(ctx, `
		UPDATE books
		SET name = $1, author = $2, price = $3, total_copies = $4, available_copies = $5
		WHERE id = $6`,
		b.Name, b.Author, b.Price, b.TotalCopies, b.AvailableCopies, b.ID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to update book", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.NewDatabaseError("failed to commit book update", err)
	}

	return s.GetWithCopies(ctx, id)
}

// Delete removes a book from the catalog. A book with any copy on loan
// cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var totalCopies, availableCopies int
	err = tx.QueryRow(ctx, `
		SELECT total_copies, available_copies
		FROM books
		WHERE id = $1
		FOR UPDATE`, id).
		Scan(&totalCopies, &availableCopies)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewNotFoundError("book not found", nil)
		}
		return apperror.NewDatabaseError("failed to get book", err)
	}

	if availableCopies < totalCopies {
		return apperror.NewConflictError("cannot delete book that is currently borrowed", nil)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM books WHERE id = $1`, id); err != nil {
		return apperror.NewDatabaseError("failed to delete book", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.NewDatabaseError("failed to commit book deletion", err)
	}
	return nil
}
