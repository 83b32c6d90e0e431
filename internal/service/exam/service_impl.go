package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
	"github.com/toeicprep/engine/internal/platform/clock"
	"github.com/toeicprep/engine/internal/platform/logger"
	"github.com/toeicprep/engine/internal/service/quota"
	"github.com/toeicprep/engine/internal/store"
)

// Collection tuning. Grammar parts draw candidates at twice the target so a
// thin pool still fills the session; the reading part draws a fixed batch of
// passages and consumes them whole.
const (
	candidateMultiplier = 2
	passageDrawCount    = 20
)

// Verify interface compliance at compile time
var _ Service = (*examServiceImpl)(nil)

// examServiceImpl implements the Service interface.
type examServiceImpl struct {
	sessions store.ExamStore
	pool     QuestionPool
	quotas   quota.Service
	clock    clock.Clock
	logger   *slog.Logger

	// rng feeds the collection shuffles. *rand.Rand is not safe for
	// concurrent use, so all draws go through shuffle().
	mu  sync.Mutex
	rng *rand.Rand
}

// NewService creates a new exam Service implementation. A nil rng gets a
// time-seeded source; tests inject a fixed seed for deterministic sampling.
func NewService(
	sessions store.ExamStore,
	pool QuestionPool,
	quotas quota.Service,
	clk clock.Clock,
	rng *rand.Rand,
	logger *slog.Logger,
) Service {
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if pool == nil {
		panic("pool cannot be nil")
	}
	if quotas == nil {
		panic("quotas cannot be nil")
	}
	if clk == nil {
		clk = clock.System()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &examServiceImpl{
		sessions: sessions,
		pool:     pool,
		quotas:   quotas,
		clock:    clk,
		rng:      rng,
		logger:   logger.With(slog.String("component", "exam_service")),
	}
}

// shuffle runs a Fisher-Yates shuffle over n elements under the rng lock.
func (s *examServiceImpl) shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}

// Start implements Service.Start.
func (s *examServiceImpl) Start(
	ctx context.Context,
	userID uuid.UUID,
	examType domain.ExamType,
) (*domain.ExamSession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	gate, err := s.quotas.CheckFeature(ctx, userID, domain.FeatureMockExam)
	if err != nil {
		return nil, unavailable("check feature", err)
	}
	if !gate.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrFeatureLocked, gate.Reason)
	}

	// Pre-check the single-active-session invariant. The partial unique
	// index backstops the race between two concurrent Starts.
	_, err = s.sessions.GetInProgressSession(ctx, userID)
	if err == nil {
		return nil, ErrSessionConflict
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, unavailable("check active session", err)
	}

	session, err := domain.NewExamSession(userID, examType, s.clock.Now())
	if err != nil {
		return nil, err
	}

	slots, err := s.collectSlots(ctx, session)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.sessions.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.sessions.WithTx(tx)
		if err := txStore.CreateSession(ctx, session); err != nil {
			return err
		}
		return txStore.CreateSlots(ctx, slots)
	})
	if errors.Is(err, store.ErrActiveSessionExists) {
		// Lost the race to a concurrent Start; same outcome as the pre-check.
		return nil, ErrSessionConflict
	}
	if err != nil {
		return nil, unavailable("persist session", err)
	}

	log.Info("assessment session started",
		slog.String("user_id", userID.String()),
		slog.String("session_id", session.ID.String()),
		slog.String("exam_type", string(examType)),
		slog.Int("slots", len(slots)))

	return session, nil
}

// collectSlots draws and orders the session's questions: part 5, then
// part 6, then part 7. Order within a part is the shuffle order.
func (s *examServiceImpl) collectSlots(
	ctx context.Context,
	session *domain.ExamSession,
) ([]*domain.ExamSlot, error) {
	cfg, err := domain.ConfigFor(session.ExamType)
	if err != nil {
		return nil, err
	}

	var slots []*domain.ExamSlot
	orderIndex := 0

	grammarParts := []struct {
		part  domain.ExamPart
		count int
	}{
		{domain.Part5, cfg.Part5Count},
		{domain.Part6, cfg.Part6Count},
	}
	for _, gp := range grammarParts {
		if gp.count == 0 {
			continue
		}
		candidates, err := s.pool.SampleCandidates(ctx, gp.part, gp.count*candidateMultiplier)
		if err != nil {
			return nil, unavailable("sample candidates", err)
		}
		s.shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		take := gp.count
		if len(candidates) < take {
			take = len(candidates)
		}
		for _, item := range candidates[:take] {
			slots = append(slots, &domain.ExamSlot{
				ID:            uuid.New(),
				SessionID:     session.ID,
				Part:          gp.part,
				ItemKind:      domain.ItemGrammar,
				ItemID:        item.ID,
				OrderIndex:    orderIndex,
				IsAIGenerated: item.IsAIGenerated,
			})
			orderIndex++
		}
	}

	if cfg.Part7Count > 0 {
		passages, err := s.pool.SamplePassages(ctx, passageDrawCount)
		if err != nil {
			return nil, unavailable("sample passages", err)
		}
		s.shuffle(len(passages), func(i, j int) {
			passages[i], passages[j] = passages[j], passages[i]
		})
		// Consume whole passages until the target is met. The realized
		// count may overshoot; a passage is never split from its questions.
		taken := 0
		for _, passage := range passages {
			if taken >= cfg.Part7Count {
				break
			}
			passageID := passage.ID
			for _, item := range passage.Items {
				slots = append(slots, &domain.ExamSlot{
					ID:            uuid.New(),
					SessionID:     session.ID,
					Part:          domain.Part7,
					ItemKind:      domain.ItemReading,
					ItemID:        item.ID,
					PassageID:     &passageID,
					OrderIndex:    orderIndex,
					IsAIGenerated: passage.IsAIGenerated,
				})
				orderIndex++
				taken++
			}
		}
	}

	return slots, nil
}

// inProgressOwned loads the session, verifies ownership, and requires it to
// be in progress and inside its time limit.
func (s *examServiceImpl) inProgressOwned(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.ExamSession, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.ExamInProgress {
		return nil, fmt.Errorf("%w: session is %s", ErrInvalidState, session.Status)
	}
	if session.Expired(s.clock.Now()) {
		return nil, fmt.Errorf("%w: time limit elapsed", ErrInvalidState)
	}
	return session, nil
}

// ownedSession loads the session scoped to its owner.
func (s *examServiceImpl) ownedSession(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.ExamSession, error) {
	session, err := s.sessions.GetSession(ctx, userID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, unavailable("load session", err)
	}
	return session, nil
}

// SubmitAnswer implements Service.SubmitAnswer.
func (s *examServiceImpl) SubmitAnswer(
	ctx context.Context,
	userID, sessionID, slotID uuid.UUID,
	choice string,
	timeSpentSeconds int,
) (SubmitResult, error) {
	choiceIndex, err := domain.AnswerChoiceIndex(choice)
	if err != nil {
		return SubmitResult{}, err
	}
	if timeSpentSeconds < 0 {
		timeSpentSeconds = 0
	}

	session, err := s.inProgressOwned(ctx, userID, sessionID)
	if err != nil {
		return SubmitResult{}, err
	}

	slot, err := s.sessions.GetSlot(ctx, session.ID, slotID)
	if errors.Is(err, store.ErrNotFound) {
		return SubmitResult{}, ErrSlotNotFound
	}
	if err != nil {
		return SubmitResult{}, unavailable("load slot", err)
	}

	item, err := s.pool.Item(ctx, slot.ItemKind, slot.ItemID)
	if errors.Is(err, store.ErrNotFound) {
		return SubmitResult{}, fmt.Errorf("%w: %s %s", ErrItemNotFound, slot.ItemKind, slot.ItemID)
	}
	if err != nil {
		return SubmitResult{}, unavailable("resolve item", err)
	}

	// Grammar answers are stored letter-coded, reading answers index-coded.
	var isCorrect bool
	switch slot.ItemKind {
	case domain.ItemGrammar:
		isCorrect = choice == item.CorrectLetter
	case domain.ItemReading:
		isCorrect = choiceIndex == item.CorrectIndex
	}

	answer := &domain.ExamAnswer{
		SessionID:        session.ID,
		SlotID:           slot.ID,
		SelectedAnswer:   choice,
		IsCorrect:        isCorrect,
		TimeSpentSeconds: timeSpentSeconds,
		AnsweredAt:       s.clock.Now(),
	}
	if err := s.sessions.UpsertAnswer(ctx, answer); err != nil {
		return SubmitResult{}, unavailable("save answer", err)
	}

	return SubmitResult{IsCorrect: isCorrect}, nil
}

// Complete implements Service.Complete.
func (s *examServiceImpl) Complete(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.ExamResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case domain.ExamCompleted:
		return nil, ErrAlreadyCompleted
	case domain.ExamAbandoned:
		return nil, fmt.Errorf("%w: session is abandoned", ErrInvalidState)
	}

	slots, err := s.sessions.ListSlots(ctx, session.ID)
	if err != nil {
		return nil, unavailable("list slots", err)
	}
	answers, err := s.sessions.ListAnswers(ctx, session.ID)
	if err != nil {
		return nil, unavailable("list answers", err)
	}

	now := s.clock.Now()
	result := aggregate(session, slots, answers, now)

	// Result write and status flip commit as a unit; on failure no result
	// exists and the session stays in progress, so a retry is safe.
	err = store.RunInTransaction(ctx, s.sessions.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.sessions.WithTx(tx)
		if err := txStore.CreateResult(ctx, result); err != nil {
			return err
		}
		return txStore.UpdateSessionStatus(ctx, session.ID, domain.ExamCompleted, now)
	})
	if errors.Is(err, store.ErrResultExists) {
		return nil, ErrAlreadyCompleted
	}
	if errors.Is(err, store.ErrNotFound) {
		// A concurrent Complete or Abandon flipped the status first.
		return nil, fmt.Errorf("%w: session left in_progress concurrently", ErrInvalidState)
	}
	if err != nil {
		return nil, unavailable("persist result", err)
	}

	log.Info("assessment session completed",
		slog.String("user_id", userID.String()),
		slog.String("session_id", session.ID.String()),
		slog.Int("correct", result.CorrectCount),
		slog.Int("total", result.TotalQuestions),
		slog.Int("estimated_score", result.EstimatedScore))

	return result, nil
}

// aggregate folds slots and answers into a result row. Unanswered slots
// count as incorrect and contribute zero time.
func aggregate(
	session *domain.ExamSession,
	slots []*domain.ExamSlot,
	answers []*domain.ExamAnswer,
	now time.Time,
) *domain.ExamResult {
	bySlot := make(map[uuid.UUID]*domain.ExamAnswer, len(answers))
	for _, a := range answers {
		bySlot[a.SlotID] = a
	}

	result := &domain.ExamResult{
		SessionID:      session.ID,
		UserID:         session.UserID,
		TotalQuestions: len(slots),
		CreatedAt:      now,
	}
	for _, slot := range slots {
		answer, answered := bySlot[slot.ID]
		correct := answered && answer.IsCorrect
		if correct {
			result.CorrectCount++
		}
		if answered {
			result.TotalTimeSeconds += answer.TimeSpentSeconds
		}
		switch slot.Part {
		case domain.Part5:
			result.Part5Total++
			if correct {
				result.Part5Correct++
			}
		case domain.Part6:
			result.Part6Total++
			if correct {
				result.Part6Correct++
			}
		case domain.Part7:
			result.Part7Total++
			if correct {
				result.Part7Correct++
			}
		}
	}
	result.EstimatedScore = domain.EstimatedScore(result.CorrectCount, result.TotalQuestions)
	return result
}

// Abandon implements Service.Abandon.
func (s *examServiceImpl) Abandon(ctx context.Context, userID, sessionID uuid.UUID) error {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if session.Status != domain.ExamInProgress {
		return fmt.Errorf("%w: session is %s", ErrInvalidState, session.Status)
	}

	err = s.sessions.UpdateSessionStatus(ctx, session.ID, domain.ExamAbandoned, s.clock.Now())
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: session left in_progress concurrently", ErrInvalidState)
	}
	if err != nil {
		return unavailable("abandon session", err)
	}
	return nil
}

// Session implements Service.Session.
func (s *examServiceImpl) Session(ctx context.Context, userID, sessionID uuid.UUID) (*domain.ExamSession, error) {
	return s.ownedSession(ctx, userID, sessionID)
}

// InProgressSession implements Service.InProgressSession.
func (s *examServiceImpl) InProgressSession(ctx context.Context, userID uuid.UUID) (*domain.ExamSession, error) {
	session, err := s.sessions.GetInProgressSession(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, unavailable("load active session", err)
	}
	return session, nil
}

// Slots implements Service.Slots.
func (s *examServiceImpl) Slots(ctx context.Context, userID, sessionID uuid.UUID) ([]*domain.ExamSlot, error) {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	slots, err := s.sessions.ListSlots(ctx, sessionID)
	if err != nil {
		return nil, unavailable("list slots", err)
	}
	return slots, nil
}

// Answers implements Service.Answers.
func (s *examServiceImpl) Answers(ctx context.Context, userID, sessionID uuid.UUID) ([]*domain.ExamAnswer, error) {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	answers, err := s.sessions.ListAnswers(ctx, sessionID)
	if err != nil {
		return nil, unavailable("list answers", err)
	}
	return answers, nil
}

// Result implements Service.Result.
func (s *examServiceImpl) Result(ctx context.Context, userID, sessionID uuid.UUID) (*domain.ExamResult, error) {
	result, err := s.sessions.GetResult(ctx, userID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, unavailable("load result", err)
	}
	return result, nil
}

// Results implements Service.Results.
func (s *examServiceImpl) Results(ctx context.Context, userID uuid.UUID) ([]*domain.ExamResult, error) {
	results, err := s.sessions.ListResults(ctx, userID)
	if err != nil {
		return nil, unavailable("list results", err)
	}
	return results, nil
}
