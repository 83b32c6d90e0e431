package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
	"github.com/toeicprep/engine/internal/store"
)

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the
// ProgressStore interface. If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

const progressColumns = `
	user_id, vocabulary_id, familiarity, correct_count, incorrect_count,
	last_reviewed_at, next_review_at, interval_days, created_at, updated_at
`

func scanProgress(row interface{ Scan(...any) error }) (*domain.VocabularyProgress, error) {
	var p domain.VocabularyProgress
	var lastReviewed sql.NullTime
	err := row.Scan(
		&p.UserID,
		&p.VocabularyID,
		&p.Familiarity,
		&p.CorrectCount,
		&p.IncorrectCount,
		&lastReviewed,
		&p.NextReviewAt,
		&p.IntervalDays,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastReviewed.Valid {
		p.LastReviewedAt = lastReviewed.Time
	}
	return &p, nil
}

// Get implements store.ProgressStore.Get.
func (s *PostgresProgressStore) Get(ctx context.Context, userID, vocabularyID uuid.UUID) (*domain.VocabularyProgress, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM vocabulary_progress
		WHERE user_id = $1 AND vocabulary_id = $2
	`, progressColumns)

	progress, err := scanProgress(s.db.QueryRowContext(ctx, query, userID, vocabularyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrProgressNotFound
	}
	if err != nil {
		s.logger.Error("failed to get vocabulary progress",
			slog.String("user_id", userID.String()),
			slog.String("vocabulary_id", vocabularyID.String()),
			slog.String("error", err.Error()))
		return nil, unavailable("get vocabulary progress", err)
	}

	return progress, nil
}

// Upsert implements store.ProgressStore.Upsert.
func (s *PostgresProgressStore) Upsert(ctx context.Context, progress *domain.VocabularyProgress) error {
	if err := progress.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO vocabulary_progress (
			user_id, vocabulary_id, familiarity, correct_count, incorrect_count,
			last_reviewed_at, next_review_at, interval_days, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, vocabulary_id)
		DO UPDATE SET
			familiarity = EXCLUDED.familiarity,
			correct_count = EXCLUDED.correct_count,
			incorrect_count = EXCLUDED.incorrect_count,
			last_reviewed_at = EXCLUDED.last_reviewed_at,
			next_review_at = EXCLUDED.next_review_at,
			interval_days = EXCLUDED.interval_days,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		progress.UserID,
		progress.VocabularyID,
		progress.Familiarity,
		progress.CorrectCount,
		progress.IncorrectCount,
		progress.LastReviewedAt,
		progress.NextReviewAt,
		progress.IntervalDays,
		progress.CreatedAt,
		progress.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to upsert vocabulary progress",
			slog.String("user_id", progress.UserID.String()),
			slog.String("vocabulary_id", progress.VocabularyID.String()),
			slog.String("error", err.Error()))
		return unavailable("upsert vocabulary progress", err)
	}

	return nil
}

// ListDue implements store.ProgressStore.ListDue.
func (s *PostgresProgressStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	before time.Time,
	limit int,
) ([]*domain.VocabularyProgress, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM vocabulary_progress
		WHERE user_id = $1 AND next_review_at <= $2
		ORDER BY next_review_at ASC
		LIMIT $3
	`, progressColumns)

	rows, err := s.db.QueryContext(ctx, query, userID, before, limit)
	if err != nil {
		s.logger.Error("failed to list due vocabulary progress",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, unavailable("list due vocabulary progress", err)
	}
	defer func() { _ = rows.Close() }()

	return collectProgress(rows)
}

// ListAll implements store.ProgressStore.ListAll.
func (s *PostgresProgressStore) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.VocabularyProgress, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM vocabulary_progress
		WHERE user_id = $1
	`, progressColumns)

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		s.logger.Error("failed to list vocabulary progress",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, unavailable("list vocabulary progress", err)
	}
	defer func() { _ = rows.Close() }()

	return collectProgress(rows)
}

func collectProgress(rows *sql.Rows) ([]*domain.VocabularyProgress, error) {
	var items []*domain.VocabularyProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, unavailable("scan vocabulary progress row", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate vocabulary progress rows", err)
	}
	return items, nil
}
