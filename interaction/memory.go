package interaction

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/schemekit/core"
)

type pairKey struct {
	user   int64
	scheme int64
}

// MemoryStore 是内存实现，用于测试与单机开发。
type MemoryStore struct {
	policy Policy
	now    func() time.Time

	mu       sync.RWMutex
	rows     map[pairKey]*core.Interaction
	byUser   map[int64][]int64
	byScheme map[int64][]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		policy:   DefaultPolicy,
		now:      time.Now,
		rows:     make(map[pairKey]*core.Interaction),
		byUser:   make(map[int64][]int64),
		byScheme: make(map[int64][]int64),
	}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Record(ctx context.Context, userID, schemeID int64, kind core.EventKind) (core.Interaction, error) {
	rule, err := s.policy.Rule(kind)
	if err != nil {
		return core.Interaction{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.Interaction{}, err
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pairKey{userID, schemeID}
	row, ok := s.rows[k]
	if !ok {
		row = &core.Interaction{UserID: userID, SchemeID: schemeID, CreatedAt: now}
		s.rows[k] = row
		s.byUser[userID] = append(s.byUser[userID], schemeID)
		s.byScheme[schemeID] = append(s.byScheme[schemeID], userID)
	}
	row.Value = rule.Apply(row.Value)
	row.UpdatedAt = now
	return *row, nil
}

func (s *MemoryStore) InteractionsFor(_ context.Context, userID int64) ([]core.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schemes := s.byUser[userID]
	out := make([]core.Interaction, 0, len(schemes))
	for _, sid := range schemes {
		out = append(out, *s.rows[pairKey{userID, sid}])
	}
	sortByValue(out)
	return out, nil
}

func (s *MemoryStore) UsersFor(_ context.Context, schemeID int64) ([]core.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := s.byScheme[schemeID]
	out := make([]core.Interaction, 0, len(users))
	for _, uid := range users {
		out = append(out, *s.rows[pairKey{uid, schemeID}])
	}
	sortByValue(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ core.InteractionStore = (*MemoryStore)(nil)
