package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
	"github.com/toeicprep/engine/internal/store"
)

// counterColumns whitelists the counter column per action kind. The column
// name is interpolated into the increment statement, so it must never come
// from caller input directly.
var counterColumns = map[domain.ActionKind]string{
	domain.ActionReading:      "reading_count",
	domain.ActionGrammar:      "grammar_count",
	domain.ActionVocabulary:   "vocabulary_count",
	domain.ActionAIPassage:    "ai_passage_count",
	domain.ActionAIGrammar:    "ai_grammar_count",
	domain.ActionAIVocabulary: "ai_vocabulary_count",
}

// PostgresUsageStore implements the store.UsageStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUsageStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUsageStore creates a new PostgreSQL implementation of the
// UsageStore interface. If logger is nil, a default logger will be used.
func NewPostgresUsageStore(db store.DBTX, logger *slog.Logger) *PostgresUsageStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUsageStore{
		db:     db,
		logger: logger.With(slog.String("component", "usage_store")),
	}
}

// Ensure PostgresUsageStore implements store.UsageStore
var _ store.UsageStore = (*PostgresUsageStore)(nil)

// Get implements store.UsageStore.Get.
func (s *PostgresUsageStore) Get(ctx context.Context, userID uuid.UUID, periodKey string) (*domain.UsageCounter, error) {
	query := `
		SELECT user_id, period_key,
		       reading_count, grammar_count, vocabulary_count,
		       ai_passage_count, ai_grammar_count, ai_vocabulary_count,
		       created_at, updated_at
		FROM usage_counters
		WHERE user_id = $1 AND period_key = $2
	`

	var counter domain.UsageCounter
	err := s.db.QueryRowContext(ctx, query, userID, periodKey).Scan(
		&counter.UserID,
		&counter.PeriodKey,
		&counter.ReadingCount,
		&counter.GrammarCount,
		&counter.VocabularyCount,
		&counter.AIPassageCount,
		&counter.AIGrammarCount,
		&counter.AIVocabularyCount,
		&counter.CreatedAt,
		&counter.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUsageCounterNotFound
	}
	if err != nil {
		s.logger.Error("failed to get usage counter",
			slog.String("user_id", userID.String()),
			slog.String("period_key", periodKey),
			slog.String("error", err.Error()))
		return nil, unavailable("get usage counter", err)
	}

	return &counter, nil
}

// Increment implements store.UsageStore.Increment.
//
// The entire increment is one conditional-upsert statement so concurrent
// requests for the same (user, period, action) serialize on the row and
// never lose an update. The per-user primary key keeps different users from
// contending with each other.
func (s *PostgresUsageStore) Increment(
	ctx context.Context,
	userID uuid.UUID,
	periodKey string,
	action domain.ActionKind,
) (int, error) {
	column, ok := counterColumns[action]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidActionKind, action)
	}

	query := fmt.Sprintf(`
		INSERT INTO usage_counters (user_id, period_key, %[1]s, created_at, updated_at)
		VALUES ($1, $2, 1, NOW(), NOW())
		ON CONFLICT (user_id, period_key)
		DO UPDATE SET %[1]s = usage_counters.%[1]s + 1, updated_at = NOW()
		RETURNING %[1]s
	`, column)

	var newCount int
	if err := s.db.QueryRowContext(ctx, query, userID, periodKey).Scan(&newCount); err != nil {
		s.logger.Error("failed to increment usage counter",
			slog.String("user_id", userID.String()),
			slog.String("period_key", periodKey),
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
		return 0, unavailable("increment usage counter", err)
	}

	return newCount, nil
}
