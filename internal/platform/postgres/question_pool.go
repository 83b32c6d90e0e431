package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
	"github.com/toeicprep/engine/internal/service/exam"
	"github.com/toeicprep/engine/internal/store"
)

// PostgresQuestionPool implements the exam.QuestionPool interface over the
// grammar_questions, reading_passages, and reading_questions content tables.
// Candidate draws use random ordering in SQL; the final per-session shuffle
// stays in the engine.
type PostgresQuestionPool struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuestionPool creates a new PostgreSQL implementation of the
// QuestionPool interface. If logger is nil, a default logger will be used.
func NewPostgresQuestionPool(db store.DBTX, logger *slog.Logger) *PostgresQuestionPool {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuestionPool{
		db:     db,
		logger: logger.With(slog.String("component", "question_pool")),
	}
}

// Ensure PostgresQuestionPool implements exam.QuestionPool
var _ exam.QuestionPool = (*PostgresQuestionPool)(nil)

// SampleCandidates implements exam.QuestionPool.SampleCandidates.
func (p *PostgresQuestionPool) SampleCandidates(
	ctx context.Context,
	part domain.ExamPart,
	count int,
) ([]exam.PoolItem, error) {
	query := `
		SELECT id, correct_answer, is_ai_generated
		FROM grammar_questions
		WHERE part = $1
		ORDER BY random()
		LIMIT $2
	`

	rows, err := p.db.QueryContext(ctx, query, string(part), count)
	if err != nil {
		return nil, unavailable("sample grammar candidates", err)
	}
	defer rows.Close()

	var items []exam.PoolItem
	for rows.Next() {
		item := exam.PoolItem{Kind: domain.ItemGrammar}
		if err := rows.Scan(&item.ID, &item.CorrectLetter, &item.IsAIGenerated); err != nil {
			return nil, unavailable("scan grammar candidate", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate grammar candidates", err)
	}
	return items, nil
}

// SamplePassages implements exam.QuestionPool.SamplePassages.
func (p *PostgresQuestionPool) SamplePassages(ctx context.Context, count int) ([]exam.PoolPassage, error) {
	passageQuery := `
		SELECT id, is_ai_generated
		FROM reading_passages
		ORDER BY random()
		LIMIT $1
	`

	rows, err := p.db.QueryContext(ctx, passageQuery, count)
	if err != nil {
		return nil, unavailable("sample passages", err)
	}
	defer rows.Close()

	var passages []exam.PoolPassage
	index := make(map[uuid.UUID]int)
	ids := make([]uuid.UUID, 0, count)
	for rows.Next() {
		var passage exam.PoolPassage
		if err := rows.Scan(&passage.ID, &passage.IsAIGenerated); err != nil {
			return nil, unavailable("scan passage", err)
		}
		index[passage.ID] = len(passages)
		ids = append(ids, passage.ID)
		passages = append(passages, passage)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate passages", err)
	}
	if len(passages) == 0 {
		return passages, nil
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, passage_id, correct_index
		FROM reading_questions
		WHERE passage_id IN (`)
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "$%d", i+1)
		args[i] = id
	}
	sb.WriteString(`)
		ORDER BY passage_id, question_order
	`)

	qRows, err := p.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, unavailable("load passage questions", err)
	}
	defer qRows.Close()

	for qRows.Next() {
		var (
			item      exam.PoolItem
			passageID uuid.UUID
		)
		item.Kind = domain.ItemReading
		if err := qRows.Scan(&item.ID, &passageID, &item.CorrectIndex); err != nil {
			return nil, unavailable("scan passage question", err)
		}
		if i, ok := index[passageID]; ok {
			passages[i].Items = append(passages[i].Items, item)
		}
	}
	if err := qRows.Err(); err != nil {
		return nil, unavailable("iterate passage questions", err)
	}

	// A passage row without questions cannot fill slots; drop it rather
	// than handing the engine an empty passage.
	filled := passages[:0]
	for _, passage := range passages {
		if len(passage.Items) > 0 {
			filled = append(filled, passage)
		}
	}
	return filled, nil
}

// Item implements exam.QuestionPool.Item.
func (p *PostgresQuestionPool) Item(
	ctx context.Context,
	kind domain.ItemKind,
	id uuid.UUID,
) (*exam.PoolItem, error) {
	item := &exam.PoolItem{ID: id, Kind: kind}

	var err error
	switch kind {
	case domain.ItemGrammar:
		query := `SELECT correct_answer, is_ai_generated FROM grammar_questions WHERE id = $1`
		err = p.db.QueryRowContext(ctx, query, id).Scan(&item.CorrectLetter, &item.IsAIGenerated)
	case domain.ItemReading:
		query := `SELECT correct_index FROM reading_questions WHERE id = $1`
		err = p.db.QueryRowContext(ctx, query, id).Scan(&item.CorrectIndex)
	default:
		return nil, fmt.Errorf("%w: unknown item kind %q", store.ErrInvalidEntity, kind)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s item %s", store.ErrNotFound, kind, id)
	}
	if err != nil {
		return nil, unavailable("load question item", err)
	}
	return item, nil
}
