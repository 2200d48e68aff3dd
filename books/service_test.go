package books_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/libtrack-go/books"
)

func Test_RecomputeAvailable(t *testing.T) {
	tests := []struct {
		name          string
		newTotal      int
		oldTotal      int
		oldAvailable  int
		wantAvailable int
	}{
		{
			name:     "grow_total_adds_available",
			newTotal: 5, oldTotal: 3, oldAvailable: 1,
			wantAvailable: 3,
		},
		{
			name:     "shrink_total_keeps_borrowed",
			newTotal: 2, oldTotal: 3, oldAvailable: 2,
			wantAvailable: 1,
		},
		{
			name:     "shrink_below_borrowed_clamps_to_zero",
			newTotal: 1, oldTotal: 3, oldAvailable: 1,
			wantAvailable: 0,
		},
		{
			name:     "unchanged_total_keeps_available",
			newTotal: 3, oldTotal: 3, oldAvailable: 2,
			wantAvailable: 2,
		},
		{
			name:     "nothing_borrowed_tracks_total",
			newTotal: 7, oldTotal: 4, oldAvailable: 4,
			wantAvailable: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := books.RecomputeAvailable(tt.newTotal, tt.oldTotal, tt.oldAvailable)
			assert.Equal(t, tt.wantAvailable, got)
		})
	}
}

func Test_AvailabilityText(t *testing.T) {
	assert.Equal(t, "2 of 5 available", books.AvailabilityText(2, 5))
	assert.Equal(t, "1 of 1 available", books.AvailabilityText(1, 1))
	assert.Equal(t, "Not available", books.AvailabilityText(0, 3))
}

func Test_Book_JSONShape(t *testing.T) {
	book := books.Book{
		ID:              1,
		Name:            "The Go Programming Language",
		Author:          "Donovan & Kernighan",
		TotalCopies:     3,
		AvailableCopies: 2,
		BorrowedCopies:  []books.BorrowedCopy{},
		CreatedAt:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(book)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	// Keys are camelCase throughout.
	assert.Contains(t, fields, "totalCopies")
	assert.Contains(t, fields, "availableCopies")
	assert.Contains(t, fields, "createdAt")
	assert.NotContains(t, fields, "created_at")
}
