package partner

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Haleralex/vowdesk/internal/application/ports"
	"github.com/Haleralex/vowdesk/internal/domain/entities"
	"github.com/Haleralex/vowdesk/internal/domain/errors"
	"github.com/Haleralex/vowdesk/internal/domain/events"
)

// ============================================
// In-memory PartnerRepository
// ============================================

type memoryRepo struct {
	mu       sync.Mutex
	partners map[uuid.UUID]*entities.Partner

	// Ошибки для конкретных операций
	createErr error
	updateErr error
}

func newMemoryRepo(seed ...*entities.Partner) *memoryRepo {
	r := &memoryRepo{partners: make(map[uuid.UUID]*entities.Partner)}
	for _, p := range seed {
		r.partners[p.ID()] = p
	}
	return r
}

var _ ports.PartnerRepository = (*memoryRepo)(nil)

func (r *memoryRepo) Create(_ context.Context, p *entities.Partner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.partners {
		if existing.TenantID() == p.TenantID() && existing.ContactEmail() == p.ContactEmail() {
			return errors.AlreadyExists("partner with this contact email already exists")
		}
	}
	r.partners[p.ID()] = p
	return nil
}

func (r *memoryRepo) Update(_ context.Context, p *entities.Partner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	r.partners[p.ID()] = p
	return nil
}

func (r *memoryRepo) FindByID(_ context.Context, tenantID string, id uuid.UUID) (*entities.Partner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.partners[id]
	if !ok || p.TenantID() != tenantID {
		return nil, errors.NotFound("Partner", id.String())
	}
	return p, nil
}

func (r *memoryRepo) List(_ context.Context, f ports.PartnerFilter, offset, limit int) ([]*entities.Partner, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entities.Partner
	for _, p := range r.partners {
		if p.TenantID() != f.TenantID {
			continue
		}
		if f.Status != nil && p.Status() != *f.Status {
			continue
		}
		if f.Category != nil && p.Category() != *f.Category {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CompanyName() < matched[j].CompanyName() })

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	return matched[offset:min(offset+limit, total)], total, nil
}

func (r *memoryRepo) Delete(_ context.Context, tenantID string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.partners[id]
	if !ok || p.TenantID() != tenantID {
		return errors.NotFound("Partner", id.String())
	}
	delete(r.partners, id)
	return nil
}

// ============================================
// Mocks
// ============================================

type mockPublisher struct {
	published []events.DomainEvent
	PublishFn func(ctx context.Context, event events.DomainEvent) error
}

func (m *mockPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	if m.PublishFn != nil {
		if err := m.PublishFn(ctx, event); err != nil {
			return err
		}
	}
	m.published = append(m.published, event)
	return nil
}

func (m *mockPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, e := range batch {
		if err := m.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// mockUoW выполняет fn без транзакции и считает вызовы.
type mockUoW struct {
	calls     int
	ExecuteFn func(ctx context.Context, fn func(context.Context) error) error
}

func (m *mockUoW) Execute(ctx context.Context, fn func(context.Context) error) error {
	m.calls++
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, fn)
	}
	return fn(ctx)
}

func seedPartner(tenantID, name, email string, category entities.PartnerCategory, status entities.PartnerStatus) *entities.Partner {
	p, err := entities.NewPartner(tenantID, name, email, category, "")
	if err != nil {
		panic(err)
	}
	return entities.ReconstructPartner(p.ID(), p.TenantID(), p.CompanyName(), p.ContactEmail(),
		p.Category(), p.Website(), status, "", p.CreatedAt(), p.UpdatedAt(), nil, 0)
}
