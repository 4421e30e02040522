package vatrate

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists tenant scoped VAT rates.
type Store interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]Rate, error)
	ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Rate, error)
	Create(ctx context.Context, rate Rate) (Rate, error)
}

// MemoryStore keeps rates in process. It backs tests and deployments without a database.
type MemoryStore struct {
	mu    sync.RWMutex
	rates map[uuid.UUID][]Rate
	now   func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rates: make(map[uuid.UUID][]Rate), now: time.Now}
}

// List returns the tenant's rates ordered by code.
func (s *MemoryStore) List(_ context.Context, tenantID uuid.UUID) ([]Rate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]Rate(nil), s.rates[tenantID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// ListByIDs returns the tenant's rates whose identifiers appear in ids. Unknown ids are skipped.
func (s *MemoryStore) ListByIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Rate, error) {
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rate, 0, len(ids))
	for _, r := range s.rates[tenantID] {
		if _, ok := want[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// Create stores rate, assigning an identifier when missing.
func (s *MemoryStore) Create(_ context.Context, rate Rate) (Rate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rates[rate.TenantID] {
		if existing.Code == rate.Code {
			return Rate{}, ErrDuplicateCode
		}
	}
	if rate.ID == uuid.Nil {
		rate.ID = uuid.New()
	}
	if rate.CreatedAt.IsZero() {
		rate.CreatedAt = s.now().UTC()
	}
	s.rates[rate.TenantID] = append(s.rates[rate.TenantID], rate)
	return rate, nil
}
