package service

import (
	"context"
	"testing"
	"time"

	"dialer_backend/internal/leads/domain"
	"dialer_backend/internal/leads/repository"
	"dialer_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	leads   map[uuid.UUID]domain.Lead
	created int
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[uuid.UUID]domain.Lead)}
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateParams) (domain.Lead, error) {
	lead := domain.Lead{
		ID:            uuid.New(),
		TenantID:      params.TenantID,
		BusinessName:  params.BusinessName,
		ContactName:   params.ContactName,
		Phone:         params.Phone,
		PhoneMatchKey: params.PhoneMatchKey,
		Email:         params.Email,
		Score:         domain.ScoreCold,
		Status:        domain.StatusNew,
		CreatedAt:     time.Now(),
	}
	f.leads[lead.ID] = lead
	f.created++
	return lead, nil
}

func (f *fakeStore) GetByID(_ context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error) {
	lead, ok := f.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return domain.Lead{}, repository.ErrLeadNotFound
	}
	return lead, nil
}

func (f *fakeStore) FindByMatchKey(_ context.Context, tenantID uuid.UUID, matchKey string) (domain.Lead, error) {
	if matchKey == "" {
		return domain.Lead{}, repository.ErrLeadNotFound
	}
	var found *domain.Lead
	for _, lead := range f.leads {
		if lead.TenantID != tenantID || lead.PhoneMatchKey != matchKey {
			continue
		}
		if found == nil || lead.CreatedAt.Before(found.CreatedAt) {
			copied := lead
			found = &copied
		}
	}
	if found == nil {
		return domain.Lead{}, repository.ErrLeadNotFound
	}
	return *found, nil
}

func (f *fakeStore) List(_ context.Context, tenantID uuid.UUID, _ repository.ListFilter) ([]domain.Lead, error) {
	var result []domain.Lead
	for _, lead := range f.leads {
		if lead.TenantID == tenantID {
			result = append(result, lead)
		}
	}
	return result, nil
}

func (f *fakeStore) ApplyCallOutcome(_ context.Context, tenantID, leadID uuid.UUID, params repository.CallOutcomeParams) error {
	lead, ok := f.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return repository.ErrLeadNotFound
	}
	lead.Status = params.Status
	lead.Score = params.Score
	if lead.Notes == "" {
		lead.Notes = params.Note
	} else {
		lead.Notes = lead.Notes + "\n\n" + params.Note
	}
	at := params.LastContactedAt
	lead.LastContactedAt = &at
	f.leads[leadID] = lead
	return nil
}

func (f *fakeStore) SetStatus(_ context.Context, tenantID, leadID uuid.UUID, status string) error {
	lead, ok := f.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return repository.ErrLeadNotFound
	}
	lead.Status = status
	f.leads[leadID] = lead
	return nil
}

func (f *fakeStore) MarkContacted(_ context.Context, tenantID, leadID uuid.UUID, at time.Time) error {
	lead, ok := f.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return repository.ErrLeadNotFound
	}
	lead.LastContactedAt = &at
	f.leads[leadID] = lead
	return nil
}

func newTestService(store Store) *Service {
	return NewService(store, logger.New("development"))
}

func TestResolveOrCreateMatchesFormattedVariants(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()

	first, created, err := svc.ResolveOrCreate(context.Background(), tenantID, Identity{
		ContactName: "Jane Cooper",
		Phone:       "(415) 555-2671",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected first resolve to create a lead")
	}

	second, created, err := svc.ResolveOrCreate(context.Background(), tenantID, Identity{
		ContactName: "J. Cooper",
		Phone:       "+1 415-555-2671",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatal("expected second resolve to match the existing lead")
	}
	if second.ID != first.ID {
		t.Fatalf("expected lead %s, got %s", first.ID, second.ID)
	}
	if store.created != 1 {
		t.Fatalf("expected 1 created lead, got %d", store.created)
	}
}

func TestResolveOrCreateWithoutPhoneAlwaysCreates(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()

	_, created, err := svc.ResolveOrCreate(context.Background(), tenantID, Identity{BusinessName: "Acme Roofing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected create when no phone is present")
	}

	_, created, err = svc.ResolveOrCreate(context.Background(), tenantID, Identity{BusinessName: "Acme Roofing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected a second create rather than a guessed match")
	}
	if store.created != 2 {
		t.Fatalf("expected 2 created leads, got %d", store.created)
	}
}

func TestResolveOrCreateScopedToTenant(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	first, _, err := svc.ResolveOrCreate(context.Background(), uuid.New(), Identity{Phone: "555-123-4567"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, created, err := svc.ResolveOrCreate(context.Background(), uuid.New(), Identity{Phone: "555-123-4567"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected a new lead for the other tenant")
	}
	if second.ID == first.ID {
		t.Fatal("leads must not be shared across tenants")
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.List(context.Background(), uuid.New(), repository.ListFilter{Status: "bogus"})
	if err == nil {
		t.Fatal("expected validation error for unknown status")
	}
}
