package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
	"github.com/toeicprep/engine/internal/store"
)

// PostgresReviewStore implements the store.ReviewStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewStore creates a new PostgreSQL implementation of the
// ReviewStore interface. If logger is nil, a default logger will be used.
func NewPostgresReviewStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_store")),
	}
}

// Ensure PostgresReviewStore implements store.ReviewStore
var _ store.ReviewStore = (*PostgresReviewStore)(nil)

// UpsertBookmark implements store.ReviewStore.UpsertBookmark.
func (s *PostgresReviewStore) UpsertBookmark(ctx context.Context, bookmark *domain.Bookmark) (*domain.Bookmark, error) {
	query := `
		INSERT INTO bookmarks (id, user_id, item_type, item_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, item_type, item_id)
		DO UPDATE SET note = EXCLUDED.note
		RETURNING id, user_id, item_type, item_id, note, created_at
	`

	var stored domain.Bookmark
	var note sql.NullString
	err := s.db.QueryRowContext(ctx, query,
		bookmark.ID,
		bookmark.UserID,
		bookmark.ItemType,
		bookmark.ItemID,
		nullString(bookmark.Note),
		bookmark.CreatedAt,
	).Scan(&stored.ID, &stored.UserID, &stored.ItemType, &stored.ItemID, &note, &stored.CreatedAt)
	if err != nil {
		s.logger.Error("failed to upsert bookmark",
			slog.String("user_id", bookmark.UserID.String()),
			slog.String("item_id", bookmark.ItemID.String()),
			slog.String("error", err.Error()))
		return nil, unavailable("upsert bookmark", err)
	}
	stored.Note = note.String

	return &stored, nil
}

// DeleteBookmark implements store.ReviewStore.DeleteBookmark.
func (s *PostgresReviewStore) DeleteBookmark(
	ctx context.Context,
	userID uuid.UUID,
	itemType domain.ReviewItemType,
	itemID uuid.UUID,
) error {
	query := `
		DELETE FROM bookmarks
		WHERE user_id = $1 AND item_type = $2 AND item_id = $3
	`

	if _, err := s.db.ExecContext(ctx, query, userID, itemType, itemID); err != nil {
		s.logger.Error("failed to delete bookmark",
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()),
			slog.String("error", err.Error()))
		return unavailable("delete bookmark", err)
	}

	return nil
}

// GetBookmark implements store.ReviewStore.GetBookmark.
func (s *PostgresReviewStore) GetBookmark(
	ctx context.Context,
	userID uuid.UUID,
	itemType domain.ReviewItemType,
	itemID uuid.UUID,
) (*domain.Bookmark, error) {
	query := `
		SELECT id, user_id, item_type, item_id, note, created_at
		FROM bookmarks
		WHERE user_id = $1 AND item_type = $2 AND item_id = $3
	`

	var bookmark domain.Bookmark
	var note sql.NullString
	err := s.db.QueryRowContext(ctx, query, userID, itemType, itemID).Scan(
		&bookmark.ID, &bookmark.UserID, &bookmark.ItemType, &bookmark.ItemID, &note, &bookmark.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get bookmark", err)
	}
	bookmark.Note = note.String

	return &bookmark, nil
}

// ListBookmarks implements store.ReviewStore.ListBookmarks.
func (s *PostgresReviewStore) ListBookmarks(
	ctx context.Context,
	userID uuid.UUID,
	itemType domain.ReviewItemType,
) ([]*domain.Bookmark, error) {
	query := `
		SELECT id, user_id, item_type, item_id, note, created_at
		FROM bookmarks
		WHERE user_id = $1 AND ($2 = '' OR item_type = $2)
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, string(itemType))
	if err != nil {
		s.logger.Error("failed to list bookmarks",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, unavailable("list bookmarks", err)
	}
	defer func() { _ = rows.Close() }()

	var bookmarks []*domain.Bookmark
	for rows.Next() {
		var bookmark domain.Bookmark
		var note sql.NullString
		err := rows.Scan(
			&bookmark.ID, &bookmark.UserID, &bookmark.ItemType,
			&bookmark.ItemID, &note, &bookmark.CreatedAt,
		)
		if err != nil {
			return nil, unavailable("scan bookmark row", err)
		}
		bookmark.Note = note.String
		bookmarks = append(bookmarks, &bookmark)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate bookmark rows", err)
	}

	return bookmarks, nil
}

const scheduledColumns = `
	id, user_id, item_type, item_id, scheduled_date, priority, is_completed, completed_at, created_at
`

func scanScheduled(row interface{ Scan(...any) error }) (*domain.ScheduledReview, error) {
	var item domain.ScheduledReview
	var completedAt sql.NullTime
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.ItemType,
		&item.ItemID,
		&item.ScheduledDate,
		&item.Priority,
		&item.IsCompleted,
		&completedAt,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		item.CompletedAt = &t
	}
	return &item, nil
}

// UpsertScheduled implements store.ReviewStore.UpsertScheduled.
func (s *PostgresReviewStore) UpsertScheduled(ctx context.Context, item *domain.ScheduledReview) (*domain.ScheduledReview, error) {
	query := `
		INSERT INTO review_schedule (id, user_id, item_type, item_id, scheduled_date, priority, is_completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
		ON CONFLICT (user_id, item_type, item_id, scheduled_date)
		DO UPDATE SET priority = EXCLUDED.priority
		RETURNING ` + scheduledColumns

	stored, err := scanScheduled(s.db.QueryRowContext(ctx, query,
		item.ID,
		item.UserID,
		item.ItemType,
		item.ItemID,
		item.ScheduledDate,
		item.Priority,
		item.CreatedAt,
	))
	if err != nil {
		s.logger.Error("failed to upsert scheduled review",
			slog.String("user_id", item.UserID.String()),
			slog.String("item_id", item.ItemID.String()),
			slog.String("error", err.Error()))
		return nil, unavailable("upsert scheduled review", err)
	}

	return stored, nil
}

// ListDueScheduled implements store.ReviewStore.ListDueScheduled.
func (s *PostgresReviewStore) ListDueScheduled(
	ctx context.Context,
	userID uuid.UUID,
	dateKey string,
) ([]*domain.ScheduledReview, error) {
	query := `
		SELECT ` + scheduledColumns + `
		FROM review_schedule
		WHERE user_id = $1 AND scheduled_date <= $2 AND is_completed = FALSE
		ORDER BY priority DESC, scheduled_date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, dateKey)
	if err != nil {
		s.logger.Error("failed to list due scheduled reviews",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, unavailable("list due scheduled reviews", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*domain.ScheduledReview
	for rows.Next() {
		item, err := scanScheduled(rows)
		if err != nil {
			return nil, unavailable("scan scheduled review row", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate scheduled review rows", err)
	}

	return items, nil
}

// CompleteScheduled implements store.ReviewStore.CompleteScheduled.
func (s *PostgresReviewStore) CompleteScheduled(
	ctx context.Context,
	userID, scheduleID uuid.UUID,
	completedAt time.Time,
) error {
	query := `
		UPDATE review_schedule
		SET is_completed = TRUE, completed_at = $1
		WHERE id = $2 AND user_id = $3
	`

	result, err := s.db.ExecContext(ctx, query, completedAt, scheduleID, userID)
	if err != nil {
		s.logger.Error("failed to complete scheduled review",
			slog.String("schedule_id", scheduleID.String()),
			slog.String("error", err.Error()))
		return unavailable("complete scheduled review", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("complete scheduled review", err)
	}
	if rowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
