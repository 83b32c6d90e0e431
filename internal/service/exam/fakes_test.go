package exam

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/toeicprep/engine/internal/domain"
	"github.com/toeicprep/engine/internal/service/quota"
	"github.com/toeicprep/engine/internal/store"
)

// fakeQuota grants or denies the feature gate.
type fakeQuota struct {
	allowed bool
	err     error
}

func (f *fakeQuota) Check(_ context.Context, _ uuid.UUID, _ domain.ActionKind) (quota.CheckResult, error) {
	return quota.CheckResult{Allowed: true}, nil
}

func (f *fakeQuota) Increment(_ context.Context, _ uuid.UUID, _ domain.ActionKind) (quota.CheckResult, error) {
	return quota.CheckResult{Allowed: true}, nil
}

func (f *fakeQuota) CheckFeature(_ context.Context, _ uuid.UUID, _ domain.FeatureKind) (quota.FeatureCheckResult, error) {
	if f.err != nil {
		return quota.FeatureCheckResult{}, f.err
	}
	if !f.allowed {
		return quota.FeatureCheckResult{
			Allowed:         false,
			Reason:          "mock exams are a Pro plan feature",
			UpgradeRequired: true,
		}, nil
	}
	return quota.FeatureCheckResult{Allowed: true}, nil
}

func (f *fakeQuota) TodayUsage(_ context.Context, userID uuid.UUID) (*domain.UsageCounter, error) {
	return &domain.UsageCounter{UserID: userID}, nil
}

func (f *fakeQuota) Summary(_ context.Context, _ uuid.UUID) (*quota.Summary, error) {
	return &quota.Summary{}, nil
}

// fakeExamStore keeps sessions, slots, answers, and results in memory. The
// transactional surface is honored shallowly: WithTx returns the same store,
// and DB hands back a sqlmock connection that accepts begin/commit/rollback.
type fakeExamStore struct {
	mu       sync.Mutex
	db       *sql.DB
	sessions map[uuid.UUID]*domain.ExamSession
	slots    map[uuid.UUID][]*domain.ExamSlot
	answers  map[string]*domain.ExamAnswer
	results  map[uuid.UUID]*domain.ExamResult
}

func newFakeExamStore(t *testing.T) *fakeExamStore {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// The engine opens one transaction per Start or Complete; allow plenty,
	// resolving either way.
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 32; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	return &fakeExamStore{
		db:       db,
		sessions: make(map[uuid.UUID]*domain.ExamSession),
		slots:    make(map[uuid.UUID][]*domain.ExamSlot),
		answers:  make(map[string]*domain.ExamAnswer),
		results:  make(map[uuid.UUID]*domain.ExamResult),
	}
}

func answerKey(sessionID, slotID uuid.UUID) string {
	return fmt.Sprintf("%s|%s", sessionID, slotID)
}

func (f *fakeExamStore) CreateSession(_ context.Context, session *domain.ExamSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.sessions {
		if existing.UserID == session.UserID && existing.Status == domain.ExamInProgress {
			return store.ErrActiveSessionExists
		}
	}
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeExamStore) GetSession(_ context.Context, userID, sessionID uuid.UUID) (*domain.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, store.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeExamStore) GetInProgressSession(_ context.Context, userID uuid.UUID) (*domain.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, session := range f.sessions {
		if session.UserID == userID && session.Status == domain.ExamInProgress {
			copied := *session
			return &copied, nil
		}
	}
	return nil, store.ErrSessionNotFound
}

func (f *fakeExamStore) UpdateSessionStatus(_ context.Context, sessionID uuid.UUID, status domain.ExamStatus, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok || session.Status != domain.ExamInProgress {
		return store.ErrSessionNotFound
	}
	session.Status = status
	session.CompletedAt = &completedAt
	return nil
}

func (f *fakeExamStore) ListExpiredSessions(_ context.Context, before time.Time) ([]*domain.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var expired []*domain.ExamSession
	for _, session := range f.sessions {
		if session.Status == domain.ExamInProgress && session.Expired(before) {
			copied := *session
			expired = append(expired, &copied)
		}
	}
	return expired, nil
}

func (f *fakeExamStore) CreateSlots(_ context.Context, slots []*domain.ExamSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, slot := range slots {
		copied := *slot
		f.slots[slot.SessionID] = append(f.slots[slot.SessionID], &copied)
	}
	return nil
}

func (f *fakeExamStore) GetSlot(_ context.Context, sessionID, slotID uuid.UUID) (*domain.ExamSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, slot := range f.slots[sessionID] {
		if slot.ID == slotID {
			copied := *slot
			return &copied, nil
		}
	}
	return nil, store.ErrSlotNotFound
}

func (f *fakeExamStore) ListSlots(_ context.Context, sessionID uuid.UUID) ([]*domain.ExamSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slots := make([]*domain.ExamSlot, 0, len(f.slots[sessionID]))
	for _, slot := range f.slots[sessionID] {
		copied := *slot
		slots = append(slots, &copied)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].OrderIndex < slots[j].OrderIndex })
	return slots, nil
}

func (f *fakeExamStore) UpsertAnswer(_ context.Context, answer *domain.ExamAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *answer
	f.answers[answerKey(answer.SessionID, answer.SlotID)] = &copied
	return nil
}

func (f *fakeExamStore) ListAnswers(_ context.Context, sessionID uuid.UUID) ([]*domain.ExamAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var answers []*domain.ExamAnswer
	for _, answer := range f.answers {
		if answer.SessionID == sessionID {
			copied := *answer
			answers = append(answers, &copied)
		}
	}
	return answers, nil
}

func (f *fakeExamStore) CreateResult(_ context.Context, result *domain.ExamResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.results[result.SessionID]; ok {
		return store.ErrResultExists
	}
	copied := *result
	f.results[result.SessionID] = &copied
	return nil
}

func (f *fakeExamStore) GetResult(_ context.Context, userID, sessionID uuid.UUID) (*domain.ExamResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result, ok := f.results[sessionID]
	if !ok || result.UserID != userID {
		return nil, store.ErrResultNotFound
	}
	copied := *result
	return &copied, nil
}

func (f *fakeExamStore) ListResults(_ context.Context, userID uuid.UUID) ([]*domain.ExamResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var results []*domain.ExamResult
	for _, result := range f.results {
		if result.UserID == userID {
			copied := *result
			results = append(results, &copied)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CreatedAt.After(results[j].CreatedAt) })
	return results, nil
}

func (f *fakeExamStore) WithTx(_ *sql.Tx) store.ExamStore {
	return f
}

func (f *fakeExamStore) DB() *sql.DB {
	return f.db
}

func (f *fakeExamStore) answerCount(sessionID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, answer := range f.answers {
		if answer.SessionID == sessionID {
			n++
		}
	}
	return n
}

// fakePool generates a deterministic item inventory: plenty of grammar
// candidates per part and passages of three questions each. Grammar items
// are correct on "B", reading items on index 2 ("C").
type fakePool struct {
	mu       sync.Mutex
	grammar  map[domain.ExamPart][]PoolItem
	passages []PoolPassage
	items    map[uuid.UUID]PoolItem
}

const questionsPerPassage = 3

func newFakePool() *fakePool {
	p := &fakePool{
		grammar: make(map[domain.ExamPart][]PoolItem),
		items:   make(map[uuid.UUID]PoolItem),
	}
	for _, part := range []domain.ExamPart{domain.Part5, domain.Part6} {
		for i := 0; i < 80; i++ {
			item := PoolItem{
				ID:            deterministicUUID(string(part), i),
				Kind:          domain.ItemGrammar,
				CorrectLetter: "B",
			}
			p.grammar[part] = append(p.grammar[part], item)
			p.items[item.ID] = item
		}
	}
	for i := 0; i < 25; i++ {
		passage := PoolPassage{ID: deterministicUUID("passage", i)}
		for q := 0; q < questionsPerPassage; q++ {
			item := PoolItem{
				ID:           deterministicUUID(fmt.Sprintf("passage-%d", i), q),
				Kind:         domain.ItemReading,
				CorrectIndex: 2,
			}
			passage.Items = append(passage.Items, item)
			p.items[item.ID] = item
		}
		p.passages = append(p.passages, passage)
	}
	return p
}

// deterministicUUID derives a stable id from a label so two pools built the
// same way hold identical inventories.
func deterministicUUID(label string, n int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", label, n)))
}

func (p *fakePool) SampleCandidates(_ context.Context, part domain.ExamPart, count int) ([]PoolItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := p.grammar[part]
	if count > len(items) {
		count = len(items)
	}
	out := make([]PoolItem, count)
	copy(out, items[:count])
	return out, nil
}

func (p *fakePool) SamplePassages(_ context.Context, count int) ([]PoolPassage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if count > len(p.passages) {
		count = len(p.passages)
	}
	out := make([]PoolPassage, count)
	copy(out, p.passages[:count])
	return out, nil
}

func (p *fakePool) Item(_ context.Context, _ domain.ItemKind, id uuid.UUID) (*PoolItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	item, ok := p.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &item, nil
}
