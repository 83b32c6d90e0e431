package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
	"github.com/toeicprep/engine/internal/store"
)

// PostgresExamStore implements the store.ExamStore interface
// using a PostgreSQL database as the storage backend.
type PostgresExamStore struct {
	db     store.DBTX
	sqlDB  *sql.DB // retained across WithTx for RunInTransaction
	logger *slog.Logger
}

// NewPostgresExamStore creates a new PostgreSQL implementation of the
// ExamStore interface. It accepts the root database connection; transactional
// copies are derived with WithTx. If logger is nil, a default logger will be used.
func NewPostgresExamStore(db *sql.DB, logger *slog.Logger) *PostgresExamStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresExamStore{
		db:     db,
		sqlDB:  db,
		logger: logger.With(slog.String("component", "exam_store")),
	}
}

// Ensure PostgresExamStore implements store.ExamStore
var _ store.ExamStore = (*PostgresExamStore)(nil)

// WithTx implements store.ExamStore.WithTx.
func (s *PostgresExamStore) WithTx(tx *sql.Tx) store.ExamStore {
	return &PostgresExamStore{
		db:     tx,
		sqlDB:  s.sqlDB,
		logger: s.logger,
	}
}

// DB implements store.ExamStore.DB.
func (s *PostgresExamStore) DB() *sql.DB {
	return s.sqlDB
}

// CreateSession implements store.ExamStore.CreateSession.
// A unique-violation from the one-in-progress-per-user partial index maps to
// ErrActiveSessionExists so racing Start calls fail the same way the
// pre-check does.
func (s *PostgresExamStore) CreateSession(ctx context.Context, session *domain.ExamSession) error {
	query := `
		INSERT INTO exam_sessions (id, user_id, exam_type, status, time_limit_minutes, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.ExamType,
		session.Status,
		session.TimeLimitMinutes,
		session.StartedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrActiveSessionExists
		}
		s.logger.Error("failed to create exam session",
			slog.String("user_id", session.UserID.String()),
			slog.String("exam_type", string(session.ExamType)),
			slog.String("error", err.Error()))
		return unavailable("create exam session", err)
	}

	return nil
}

const sessionColumns = `
	id, user_id, exam_type, status, time_limit_minutes, started_at, completed_at
`

func scanSession(row interface{ Scan(...any) error }) (*domain.ExamSession, error) {
	var session domain.ExamSession
	var completedAt sql.NullTime
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.ExamType,
		&session.Status,
		&session.TimeLimitMinutes,
		&session.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}
	return &session, nil
}

// GetSession implements store.ExamStore.GetSession.
func (s *PostgresExamStore) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.ExamSession, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM exam_sessions
		WHERE id = $1 AND user_id = $2
	`, sessionColumns)

	session, err := scanSession(s.db.QueryRowContext(ctx, query, sessionID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSessionNotFound
	}
	if err != nil {
		s.logger.Error("failed to get exam session",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
		return nil, unavailable("get exam session", err)
	}

	return session, nil
}

// GetInProgressSession implements store.ExamStore.GetInProgressSession.
func (s *PostgresExamStore) GetInProgressSession(ctx context.Context, userID uuid.UUID) (*domain.ExamSession, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM exam_sessions
		WHERE user_id = $1 AND status = 'in_progress'
	`, sessionColumns)

	session, err := scanSession(s.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSessionNotFound
	}
	if err != nil {
		s.logger.Error("failed to get in-progress exam session",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, unavailable("get in-progress exam session", err)
	}

	return session, nil
}

// UpdateSessionStatus implements store.ExamStore.UpdateSessionStatus.
// Only in-progress rows match, so terminal states cannot be overwritten.
func (s *PostgresExamStore) UpdateSessionStatus(
	ctx context.Context,
	sessionID uuid.UUID,
	status domain.ExamStatus,
	completedAt time.Time,
) error {
	query := `
		UPDATE exam_sessions
		SET status = $1, completed_at = $2
		WHERE id = $3 AND status = 'in_progress'
	`

	result, err := s.db.ExecContext(ctx, query, status, completedAt, sessionID)
	if err != nil {
		s.logger.Error("failed to update exam session status",
			slog.String("session_id", sessionID.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return unavailable("update exam session status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("update exam session status", err)
	}
	if rowsAffected == 0 {
		return store.ErrSessionNotFound
	}

	return nil
}

// ListExpiredSessions implements store.ExamStore.ListExpiredSessions.
func (s *PostgresExamStore) ListExpiredSessions(ctx context.Context, before time.Time) ([]*domain.ExamSession, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM exam_sessions
		WHERE status = 'in_progress'
		  AND started_at + make_interval(mins => time_limit_minutes) <= $1
		ORDER BY started_at ASC
	`, sessionColumns)

	rows, err := s.db.QueryContext(ctx, query, before)
	if err != nil {
		s.logger.Error("failed to list expired exam sessions",
			slog.String("error", err.Error()))
		return nil, unavailable("list expired exam sessions", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*domain.ExamSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, unavailable("scan exam session row", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate exam session rows", err)
	}

	return sessions, nil
}

// CreateSlots implements store.ExamStore.CreateSlots.
// The batch goes in as one multi-row INSERT; run inside the Start
// transaction it is all-or-nothing.
func (s *PostgresExamStore) CreateSlots(ctx context.Context, slots []*domain.ExamSlot) error {
	if len(slots) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO exam_slots (id, session_id, part, item_kind, item_id, passage_id, order_index, is_ai_generated)
		VALUES `)

	args := make([]any, 0, len(slots)*8)
	for i, slot := range slots {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 8
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args,
			slot.ID, slot.SessionID, slot.Part, slot.ItemKind,
			slot.ItemID, slot.PassageID, slot.OrderIndex, slot.IsAIGenerated)
	}

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		s.logger.Error("failed to create exam slots",
			slog.String("session_id", slots[0].SessionID.String()),
			slog.Int("count", len(slots)),
			slog.String("error", err.Error()))
		return unavailable("create exam slots", err)
	}

	return nil
}

const slotColumns = `
	id, session_id, part, item_kind, item_id, passage_id, order_index, is_ai_generated
`

func scanSlot(row interface{ Scan(...any) error }) (*domain.ExamSlot, error) {
	var slot domain.ExamSlot
	var passageID uuid.NullUUID
	err := row.Scan(
		&slot.ID,
		&slot.SessionID,
		&slot.Part,
		&slot.ItemKind,
		&slot.ItemID,
		&passageID,
		&slot.OrderIndex,
		&slot.IsAIGenerated,
	)
	if err != nil {
		return nil, err
	}
	if passageID.Valid {
		id := passageID.UUID
		slot.PassageID = &id
	}
	return &slot, nil
}

// GetSlot implements store.ExamStore.GetSlot.
func (s *PostgresExamStore) GetSlot(ctx context.Context, sessionID, slotID uuid.UUID) (*domain.ExamSlot, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM exam_slots
		WHERE session_id = $1 AND id = $2
	`, slotColumns)

	slot, err := scanSlot(s.db.QueryRowContext(ctx, query, sessionID, slotID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSlotNotFound
	}
	if err != nil {
		s.logger.Error("failed to get exam slot",
			slog.String("session_id", sessionID.String()),
			slog.String("slot_id", slotID.String()),
			slog.String("error", err.Error()))
		return nil, unavailable("get exam slot", err)
	}

	return slot, nil
}

// ListSlots implements store.ExamStore.ListSlots.
func (s *PostgresExamStore) ListSlots(ctx context.Context, sessionID uuid.UUID) ([]*domain.ExamSlot, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM exam_slots
		WHERE session_id = $1
		ORDER BY order_index ASC
	`, slotColumns)

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		s.logger.Error("failed to list exam slots",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
		return nil, unavailable("list exam slots", err)
	}
	defer func() { _ = rows.Close() }()

	var slots []*domain.ExamSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, unavailable("scan exam slot row", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate exam slot rows", err)
	}

	return slots, nil
}

// UpsertAnswer implements store.ExamStore.UpsertAnswer.
func (s *PostgresExamStore) UpsertAnswer(ctx context.Context, answer *domain.ExamAnswer) error {
	query := `
		INSERT INTO exam_answers (session_id, slot_id, selected_answer, is_correct, time_spent_seconds, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, slot_id)
		DO UPDATE SET
			selected_answer = EXCLUDED.selected_answer,
			is_correct = EXCLUDED.is_correct,
			time_spent_seconds = EXCLUDED.time_spent_seconds,
			answered_at = EXCLUDED.answered_at
	`

	_, err := s.db.ExecContext(ctx, query,
		answer.SessionID,
		answer.SlotID,
		answer.SelectedAnswer,
		answer.IsCorrect,
		answer.TimeSpentSeconds,
		answer.AnsweredAt,
	)
	if err != nil {
		s.logger.Error("failed to upsert exam answer",
			slog.String("session_id", answer.SessionID.String()),
			slog.String("slot_id", answer.SlotID.String()),
			slog.String("error", err.Error()))
		return unavailable("upsert exam answer", err)
	}

	return nil
}

// ListAnswers implements store.ExamStore.ListAnswers.
func (s *PostgresExamStore) ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]*domain.ExamAnswer, error) {
	query := `
		SELECT session_id, slot_id, selected_answer, is_correct, time_spent_seconds, answered_at
		FROM exam_answers
		WHERE session_id = $1
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		s.logger.Error("failed to list exam answers",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
		return nil, unavailable("list exam answers", err)
	}
	defer func() { _ = rows.Close() }()

	var answers []*domain.ExamAnswer
	for rows.Next() {
		var a domain.ExamAnswer
		err := rows.Scan(
			&a.SessionID,
			&a.SlotID,
			&a.SelectedAnswer,
			&a.IsCorrect,
			&a.TimeSpentSeconds,
			&a.AnsweredAt,
		)
		if err != nil {
			return nil, unavailable("scan exam answer row", err)
		}
		answers = append(answers, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate exam answer rows", err)
	}

	return answers, nil
}

const resultColumns = `
	session_id, user_id, total_questions, correct_count,
	part5_total, part5_correct, part6_total, part6_correct, part7_total, part7_correct,
	total_time_seconds, estimated_score, created_at
`

func scanResult(row interface{ Scan(...any) error }) (*domain.ExamResult, error) {
	var r domain.ExamResult
	err := row.Scan(
		&r.SessionID,
		&r.UserID,
		&r.TotalQuestions,
		&r.CorrectCount,
		&r.Part5Total,
		&r.Part5Correct,
		&r.Part6Total,
		&r.Part6Correct,
		&r.Part7Total,
		&r.Part7Correct,
		&r.TotalTimeSeconds,
		&r.EstimatedScore,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateResult implements store.ExamStore.CreateResult.
// The session_id primary key guarantees at most one result per session.
func (s *PostgresExamStore) CreateResult(ctx context.Context, result *domain.ExamResult) error {
	query := `
		INSERT INTO exam_results (
			session_id, user_id, total_questions, correct_count,
			part5_total, part5_correct, part6_total, part6_correct, part7_total, part7_correct,
			total_time_seconds, estimated_score, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.db.ExecContext(ctx, query,
		result.SessionID,
		result.UserID,
		result.TotalQuestions,
		result.CorrectCount,
		result.Part5Total,
		result.Part5Correct,
		result.Part6Total,
		result.Part6Correct,
		result.Part7Total,
		result.Part7Correct,
		result.TotalTimeSeconds,
		result.EstimatedScore,
		result.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrResultExists
		}
		s.logger.Error("failed to create exam result",
			slog.String("session_id", result.SessionID.String()),
			slog.String("error", err.Error()))
		return unavailable("create exam result", err)
	}

	return nil
}

// GetResult implements store.ExamStore.GetResult.
func (s *PostgresExamStore) GetResult(ctx context.Context, userID, sessionID uuid.UUID) (*domain.ExamResult, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM exam_results
		WHERE session_id = $1 AND user_id = $2
	`, resultColumns)

	result, err := scanResult(s.db.QueryRowContext(ctx, query, sessionID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrResultNotFound
	}
	if err != nil {
		s.logger.Error("failed to get exam result",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
		return nil, unavailable("get exam result", err)
	}

	return result, nil
}

// ListResults implements store.ExamStore.ListResults.
func (s *PostgresExamStore) ListResults(ctx context.Context, userID uuid.UUID) ([]*domain.ExamResult, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM exam_results
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, resultColumns)

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		s.logger.Error("failed to list exam results",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, unavailable("list exam results", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*domain.ExamResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, unavailable("scan exam result row", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate exam result rows", err)
	}

	return results, nil
}
