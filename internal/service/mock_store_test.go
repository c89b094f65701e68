package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/domain"
	"github.com/ToxicTeacherTTV/NoodleArmsComplete-sub006/internal/store"
	"github.com/google/uuid"
)

// mockClaimStore is an in-memory ClaimStore that enforces the same ACTIVE
// canonical-key uniqueness as the real partial index.
type mockClaimStore struct {
	mu     sync.Mutex
	claims map[uuid.UUID]*domain.Claim
}

func newMockClaimStore() *mockClaimStore {
	return &mockClaimStore{claims: make(map[uuid.UUID]*domain.Claim)}
}

func (m *mockClaimStore) Create(ctx context.Context, c *domain.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.Status == domain.StatusActive {
		for _, existing := range m.claims {
			if existing.OwnerID == c.OwnerID && existing.CanonicalKey == c.CanonicalKey && existing.Status == domain.StatusActive {
				return store.ErrConflict
			}
		}
	}

	c.ID = uuid.New()
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.SupportCount == 0 {
		c.SupportCount = 1
	}
	cp := *c
	m.claims[c.ID] = &cp
	return nil
}

func (m *mockClaimStore) GetByID(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*domain.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok || c.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockClaimStore) GetActiveByKey(ctx context.Context, ownerID uuid.UUID, key string) (*domain.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.claims {
		if c.OwnerID == ownerID && c.CanonicalKey == key && c.Status == domain.StatusActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockClaimStore) ListActivePage(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]domain.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []domain.Claim
	for _, c := range m.claims {
		if c.OwnerID == ownerID && c.Status == domain.StatusActive {
			all = append(all, *c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *mockClaimStore) ListByEventRef(ctx context.Context, ownerID uuid.UUID, eventRef string) ([]domain.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Claim
	for _, c := range m.claims {
		if c.OwnerID == ownerID && c.EventRef == eventRef && c.Status == domain.StatusActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockClaimStore) ListOwnerIDs(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, c := range m.claims {
		if !seen[c.OwnerID] {
			seen[c.OwnerID] = true
			out = append(out, c.OwnerID)
		}
	}
	return out, nil
}

func (m *mockClaimStore) UpdateConfidence(ctx context.Context, id uuid.UUID, confidence int) error {
	return m.update(id, func(c *domain.Claim) { c.Confidence = confidence })
}

func (m *mockClaimStore) UpdateImportance(ctx context.Context, id uuid.UUID, importance int) error {
	return m.update(id, func(c *domain.Claim) { c.Importance = importance })
}

func (m *mockClaimStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ClaimStatus, note string) error {
	return m.update(id, func(c *domain.Claim) {
		c.Status = status
		c.Note = note
	})
}

func (m *mockClaimStore) UpdateContent(ctx context.Context, id uuid.UUID, content, canonicalKey string) error {
	m.mu.Lock()
	target, ok := m.claims[id]
	if ok && target.Status == domain.StatusActive {
		for _, c := range m.claims {
			if c.ID != id && c.OwnerID == target.OwnerID && c.CanonicalKey == canonicalKey && c.Status == domain.StatusActive {
				m.mu.Unlock()
				return store.ErrConflict
			}
		}
	}
	m.mu.Unlock()
	return m.update(id, func(c *domain.Claim) {
		c.Content = content
		c.CanonicalKey = canonicalKey
	})
}

func (m *mockClaimStore) IncrementSupport(ctx context.Context, id uuid.UUID, confidence int) error {
	return m.update(id, func(c *domain.Claim) {
		c.SupportCount++
		c.Confidence = confidence
	})
}

func (m *mockClaimStore) IncrementRetrieval(ctx context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if c, ok := m.claims[id]; ok {
			c.RetrievalCount++
		}
	}
	return nil
}

func (m *mockClaimStore) Promote(ctx context.Context, id uuid.UUID) error {
	return m.update(id, func(c *domain.Claim) {
		c.IsProtected = true
		c.Confidence = domain.MaxConfidence
	})
}

func (m *mockClaimStore) UpdateQualityScore(ctx context.Context, id uuid.UUID, score float32) error {
	return m.update(id, func(c *domain.Claim) { c.QualityScore = score })
}

func (m *mockClaimStore) Purge(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok || c.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(m.claims, id)
	return nil
}

func (m *mockClaimStore) FindSimilar(ctx context.Context, ownerID uuid.UUID, embedding []float32, threshold float32, limit int) ([]domain.ClaimWithScore, error) {
	return nil, nil
}

func (m *mockClaimStore) update(id uuid.UUID, fn func(*domain.Claim)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(c)
	c.UpdatedAt = time.Now()
	return nil
}

var _ domain.ClaimStore = (*mockClaimStore)(nil)
