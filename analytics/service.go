// Aggregation queries over the loans table. Both reports count active loans
// only: a returned book leaves the loans table and immediately drops out of
// the top-borrowers ranking, while the daily series keeps counting a borrow
// on the day it happened for as long as the loan is open.
package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/libtrack-go/apperror"
)

// Service provides the analytics aggregations.
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new analytics Service.
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// TopBorrowers returns up to `limit` users ordered by their number of active
// loans, most first. Ties break on ascending user id so the order is stable.
// Loans whose user no longer exists are excluded by the join.
func (s *Service) TopBorrowers(ctx context.Context, limit int) ([]TopUser, error) {
	rows, err := s.db.Query(ctx, `
		SELECT u.id, u.name, u.email, COUNT(*) AS borrow_count
		FROM loans l
		JOIN users u ON u.id = l.user_id
		GROUP BY u.id, u.name, u.email
		ORDER BY borrow_count DESC, u.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to query top borrowers", err)
	}
	defer rows.Close()

	top := []TopUser{}
	for rows.Next() {
		var t TopUser
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.BorrowedBooksCount); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan top borrower", err)
		}
		top = append(top, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to query top borrowers", err)
	}
	return top, nil
}

// DailyBorrowCounts returns the borrow counts for the last `days` calendar
// days ending today, oldest first, zero-filled.
func (s *Service) DailyBorrowCounts(ctx context.Context, days int) ([]DailyBorrowCount, error) {
	now := time.Now()

	rows, err := s.db.Query(ctx, `
		SELECT borrowed_at
		FROM loans
		WHERE borrowed_at >= $1`, SeriesStart(now, days))
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to query daily borrows", err)
	}
	defer rows.Close()

	var timestamps []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan borrow timestamp", err)
		}
		timestamps = append(timestamps, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to query daily borrows", err)
	}

	return BucketDailyCounts(timestamps, days, now), nil
}
