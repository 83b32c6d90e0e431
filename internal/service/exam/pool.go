package exam

import (
	"context"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
)

// PoolItem is one question drawn from the external item pool. The stored
// correct answer is encoded per item kind: grammar items carry the letter
// choice, reading items carry the 0-based choice index.
type PoolItem struct {
	ID            uuid.UUID
	Kind          domain.ItemKind
	CorrectLetter string // grammar items, "A".."D"
	CorrectIndex  int    // reading items, 0..3
	IsAIGenerated bool
}

// PoolPassage is a reading passage with its child questions. Passages are
// consumed whole at collection time: either all of a passage's questions
// enter the session or none do.
type PoolPassage struct {
	ID            uuid.UUID
	Items         []PoolItem
	IsAIGenerated bool
}

// QuestionPool supplies candidate questions for session collection and
// resolves slot references back to items at answer time. The engine treats
// the pool as opaque; how items are authored or stored is not its concern.
type QuestionPool interface {
	// SampleCandidates draws up to count grammar candidates for a part.
	// The returned order carries no meaning; the engine shuffles.
	SampleCandidates(ctx context.Context, part domain.ExamPart, count int) ([]PoolItem, error)

	// SamplePassages draws up to count reading passages with their
	// questions attached.
	SamplePassages(ctx context.Context, count int) ([]PoolPassage, error)

	// Item resolves one item by kind and id, for correctness checks.
	// Returns store.ErrNotFound semantics when the item is gone.
	Item(ctx context.Context, kind domain.ItemKind, id uuid.UUID) (*PoolItem, error)
}
