package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProgressUpdate carries the fields to change on a user's progress row.
// Nil fields are left untouched (partial update). Bookmarked true stamps
// bookmarked_date with now; false clears it. last_accessed is always
// refreshed.
type ProgressUpdate struct {
	LastPageRead    *int
	OverallProgress *float64
	Bookmarked      *bool
}

// UpsertProgress creates or updates the (user, capsule) progress row.
// Reading progress lives here, never on the capsule row itself.
func (s *Store) UpsertProgress(ctx context.Context, userID, capsuleID string, upd ProgressUpdate) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var existingID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM user_capsules WHERE user_id = ? AND capsule_id = ?`,
		userID, capsuleID).Scan(&existingID)

	switch {
	case err == nil:
		if upd.LastPageRead != nil {
			if _, err := s.db.ExecContext(ctx,
				`UPDATE user_capsules SET last_page_read = ? WHERE id = ?`,
				*upd.LastPageRead, existingID); err != nil {
				return fmt.Errorf("updating last_page_read: %w", err)
			}
		}
		if upd.OverallProgress != nil {
			if _, err := s.db.ExecContext(ctx,
				`UPDATE user_capsules SET overall_progress = ? WHERE id = ?`,
				*upd.OverallProgress, existingID); err != nil {
				return fmt.Errorf("updating overall_progress: %w", err)
			}
		}
		if upd.Bookmarked != nil {
			var stamp any
			if *upd.Bookmarked {
				stamp = now
			}
			if _, err := s.db.ExecContext(ctx,
				`UPDATE user_capsules SET bookmarked_date = ? WHERE id = ?`,
				stamp, existingID); err != nil {
				return fmt.Errorf("updating bookmark: %w", err)
			}
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE user_capsules SET last_accessed = ? WHERE id = ?`,
			now, existingID); err != nil {
			return fmt.Errorf("updating last_accessed: %w", err)
		}
		return nil

	case errors.Is(err, sql.ErrNoRows):
		var lastPage any
		if upd.LastPageRead != nil {
			lastPage = *upd.LastPageRead
		}
		var progress any
		if upd.OverallProgress != nil {
			progress = *upd.OverallProgress
		}
		var bookmarked any
		if upd.Bookmarked != nil && *upd.Bookmarked {
			bookmarked = now
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO user_capsules (id, user_id, capsule_id, last_page_read, overall_progress, bookmarked_date, last_accessed)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), userID, capsuleID, lastPage, progress, bookmarked, now); err != nil {
			return fmt.Errorf("inserting progress row: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("reading progress row: %w", err)
	}
}
