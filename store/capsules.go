package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gaurav-prasanna/codecapsule/core"
)

// InsertCapsule writes one capsule row and returns its fresh id.
// Repeated submissions of the same source URL create distinct capsules;
// there is no dedup at this layer.
func (s *Store) InsertCapsule(ctx context.Context, c core.NewCapsule) (string, error) {
	content, err := json.Marshal(c.Content)
	if err != nil {
		return "", fmt.Errorf("marshaling capsule content: %w", err)
	}

	id := uuid.NewString()
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO capsules (id, title, total_pages, content, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, c.Title, c.TotalPages, string(content), c.CreatedBy, createdAt.Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("inserting capsule: %w", err)
	}
	return id, nil
}

// GetCapsule returns a capsule by id, or ErrNotFound.
func (s *Store) GetCapsule(ctx context.Context, id string) (*Capsule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, total_pages, content, created_by, created_at
		 FROM capsules WHERE id = ?`, id)

	var c Capsule
	var content, createdAt string
	if err := row.Scan(&c.ID, &c.Title, &c.TotalPages, &content, &c.CreatedBy, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading capsule %s: %w", id, err)
	}
	if err := fillCapsule(&c, content, createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCapsuleWithProgress returns a capsule with its creator's name and,
// if userID is non-empty, that user's progress row merged in.
func (s *Store) GetCapsuleWithProgress(ctx context.Context, id, userID string) (*CapsuleWithProgress, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT c.id, c.title, c.total_pages, c.content, c.created_by, c.created_at,
		        COALESCE(u.name, ''),
		        uc.last_page_read, uc.overall_progress, uc.bookmarked_date, uc.last_accessed
		 FROM capsules c
		 LEFT JOIN users u ON c.created_by = u.id
		 LEFT JOIN user_capsules uc ON uc.capsule_id = c.id AND uc.user_id = ?
		 WHERE c.id = ?`, userID, id)

	out, err := scanCapsuleWithProgress(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading capsule %s: %w", id, err)
	}
	return out, nil
}

// ListPublic returns the community feed: newest capsules first with
// creator names, no per-user progress.
func (s *Store) ListPublic(ctx context.Context, limit, offset int) ([]CapsuleWithProgress, error) {
	return s.listWithProgress(ctx, "", limit, offset)
}

// ListPublicWithProgress is the community feed with the given user's
// progress joined onto each row.
func (s *Store) ListPublicWithProgress(ctx context.Context, userID string, limit, offset int) ([]CapsuleWithProgress, error) {
	return s.listWithProgress(ctx, userID, limit, offset)
}

func (s *Store) listWithProgress(ctx context.Context, userID string, limit, offset int) ([]CapsuleWithProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.title, c.total_pages, c.content, c.created_by, c.created_at,
		        COALESCE(u.name, ''),
		        uc.last_page_read, uc.overall_progress, uc.bookmarked_date, uc.last_accessed
		 FROM capsules c
		 LEFT JOIN users u ON c.created_by = u.id
		 LEFT JOIN user_capsules uc ON uc.capsule_id = c.id AND uc.user_id = ?
		 ORDER BY c.created_at DESC
		 LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing capsules: %w", err)
	}
	defer rows.Close()
	return collectCapsules(rows)
}

// ListByUser returns all capsules created by one user, newest first,
// with that user's own progress.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]CapsuleWithProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.title, c.total_pages, c.content, c.created_by, c.created_at,
		        COALESCE(u.name, ''),
		        uc.last_page_read, uc.overall_progress, uc.bookmarked_date, uc.last_accessed
		 FROM capsules c
		 LEFT JOIN users u ON c.created_by = u.id
		 LEFT JOIN user_capsules uc ON uc.capsule_id = c.id AND uc.user_id = ?
		 WHERE c.created_by = ?
		 ORDER BY c.created_at DESC`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing capsules for user: %w", err)
	}
	defer rows.Close()
	return collectCapsules(rows)
}

// ListBookmarked returns a user's bookmarked capsules, most recently
// bookmarked first.
func (s *Store) ListBookmarked(ctx context.Context, userID string, limit, offset int) ([]CapsuleWithProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.title, c.total_pages, c.content, c.created_by, c.created_at,
		        COALESCE(u.name, ''),
		        uc.last_page_read, uc.overall_progress, uc.bookmarked_date, uc.last_accessed
		 FROM capsules c
		 JOIN user_capsules uc ON uc.capsule_id = c.id AND uc.user_id = ?
		 LEFT JOIN users u ON c.created_by = u.id
		 WHERE uc.bookmarked_date IS NOT NULL
		 ORDER BY uc.bookmarked_date DESC
		 LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing bookmarked capsules: %w", err)
	}
	defer rows.Close()
	return collectCapsules(rows)
}

// ContinueLearning picks the capsule the user should resume: the most
// recently accessed one with any progress. ErrNotFound when none.
func (s *Store) ContinueLearning(ctx context.Context, userID string) (*CapsuleWithProgress, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT c.id, c.title, c.total_pages, c.content, c.created_by, c.created_at,
		        COALESCE(u.name, ''),
		        uc.last_page_read, uc.overall_progress, uc.bookmarked_date, uc.last_accessed
		 FROM capsules c
		 JOIN user_capsules uc ON uc.capsule_id = c.id AND uc.user_id = ?
		 LEFT JOIN users u ON c.created_by = u.id
		 WHERE uc.overall_progress > 0
		 ORDER BY uc.last_accessed DESC, c.created_at DESC
		 LIMIT 1`, userID)

	out, err := scanCapsuleWithProgress(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("picking continue-learning capsule: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCapsuleWithProgress(row rowScanner) (*CapsuleWithProgress, error) {
	var out CapsuleWithProgress
	var content, createdAt string
	var lastPage sql.NullInt64
	var progress sql.NullFloat64
	var bookmarked, accessed sql.NullString

	err := row.Scan(&out.ID, &out.Title, &out.TotalPages, &content, &out.CreatedBy, &createdAt,
		&out.CreatorName, &lastPage, &progress, &bookmarked, &accessed)
	if err != nil {
		return nil, err
	}
	if err := fillCapsule(&out.Capsule, content, createdAt); err != nil {
		return nil, err
	}
	if lastPage.Valid {
		v := int(lastPage.Int64)
		out.LastPageRead = &v
	}
	if progress.Valid {
		v := progress.Float64
		out.OverallProgress = &v
	}
	if t, ok := parseNullTime(bookmarked); ok {
		out.BookmarkedDate = &t
	}
	if t, ok := parseNullTime(accessed); ok {
		out.LastAccessed = &t
	}
	return &out, nil
}

func collectCapsules(rows *sql.Rows) ([]CapsuleWithProgress, error) {
	items := []CapsuleWithProgress{}
	for rows.Next() {
		item, err := scanCapsuleWithProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning capsule row: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func fillCapsule(c *Capsule, content, createdAt string) error {
	if err := json.Unmarshal([]byte(content), &c.Content); err != nil {
		return fmt.Errorf("decoding content for capsule %s: %w", c.ID, err)
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return fmt.Errorf("parsing created_at for capsule %s: %w", c.ID, err)
	}
	c.CreatedAt = t
	return nil
}

func parseNullTime(v sql.NullString) (time.Time, bool) {
	if !v.Valid {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
