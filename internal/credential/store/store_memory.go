package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"provenance/internal/credential"
	"provenance/pkg/platform/sentinel"
)

// InMemoryCollectionStore indexes collections by platform id and collection id.
type InMemoryCollectionStore struct {
	mu       sync.RWMutex
	byID     map[string]*credential.CollectionCredential
	byDomain map[string]string
}

func NewInMemoryCollectionStore() *InMemoryCollectionStore {
	return &InMemoryCollectionStore{
		byID:     make(map[string]*credential.CollectionCredential),
		byDomain: make(map[string]string),
	}
}

// Save inserts c, or refreshes the issuance fields of a known credential.
// The collection id of a saved credential never changes.
func (s *InMemoryCollectionStore) Save(_ context.Context, c *credential.CollectionCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.byDomain[c.CollectionID]; ok && owner != c.ID {
		return fmt.Errorf("collection %s: %w", c.CollectionID, sentinel.ErrAlreadyUsed)
	}
	if prev, ok := s.byID[c.ID]; ok {
		prev.Status, prev.Encoded, prev.QRCode, prev.UpdatedAt = c.Status, c.Encoded, c.QRCode, c.UpdatedAt
		return nil
	}
	cp := *c
	s.byID[c.ID] = &cp
	s.byDomain[c.CollectionID] = c.ID
	return nil
}

func (s *InMemoryCollectionStore) FindByCredentialID(_ context.Context, id string) (*credential.CollectionCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("collection credential %s: %w", id, sentinel.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryCollectionStore) FindByDomainID(ctx context.Context, collectionID string) (*credential.CollectionCredential, error) {
	s.mu.RLock()
	id, ok := s.byDomain[collectionID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("collection %s: %w", collectionID, sentinel.ErrNotFound)
	}
	return s.FindByCredentialID(ctx, id)
}

func (s *InMemoryCollectionStore) UpdateStatus(_ context.Context, id string, status credential.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("collection credential %s: %w", id, sentinel.ErrNotFound)
	}
	c.Status = nextStatus(c.Status, status)
	return nil
}

// InMemoryDeliveryStore indexes deliveries by platform id and delivery id.
type InMemoryDeliveryStore struct {
	mu       sync.RWMutex
	byID     map[string]*credential.DeliveryCredential
	byDomain map[string]string
}

func NewInMemoryDeliveryStore() *InMemoryDeliveryStore {
	return &InMemoryDeliveryStore{
		byID:     make(map[string]*credential.DeliveryCredential),
		byDomain: make(map[string]string),
	}
}

// Save inserts d, or refreshes the issuance fields of a known credential.
func (s *InMemoryDeliveryStore) Save(_ context.Context, d *credential.DeliveryCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.byDomain[d.DeliveryID]; ok && owner != d.ID {
		return fmt.Errorf("delivery %s: %w", d.DeliveryID, sentinel.ErrAlreadyUsed)
	}
	if prev, ok := s.byID[d.ID]; ok {
		prev.Status, prev.Encoded, prev.QRCode, prev.UpdatedAt = d.Status, d.Encoded, d.QRCode, d.UpdatedAt
		return nil
	}
	cp := *d
	s.byID[d.ID] = &cp
	s.byDomain[d.DeliveryID] = d.ID
	return nil
}

func (s *InMemoryDeliveryStore) FindByCredentialID(_ context.Context, id string) (*credential.DeliveryCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("delivery credential %s: %w", id, sentinel.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (s *InMemoryDeliveryStore) FindByDomainID(ctx context.Context, deliveryID string) (*credential.DeliveryCredential, error) {
	s.mu.RLock()
	id, ok := s.byDomain[deliveryID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("delivery %s: %w", deliveryID, sentinel.ErrNotFound)
	}
	return s.FindByCredentialID(ctx, id)
}

func (s *InMemoryDeliveryStore) UpdateStatus(_ context.Context, id string, status credential.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("delivery credential %s: %w", id, sentinel.ErrNotFound)
	}
	d.Status = nextStatus(d.Status, status)
	return nil
}

// InMemoryVerificationStore is an append-only verification log.
type InMemoryVerificationStore struct {
	mu      sync.RWMutex
	records map[string][]credential.VerificationRecord
}

func NewInMemoryVerificationStore() *InMemoryVerificationStore {
	return &InMemoryVerificationStore{records: make(map[string][]credential.VerificationRecord)}
}

func (s *InMemoryVerificationStore) Insert(_ context.Context, rec *credential.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.CredentialID] = append(s.records[rec.CredentialID], *rec)
	return nil
}

func (s *InMemoryVerificationStore) IsFirstVerification(_ context.Context, credentialID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[credentialID]) == 0, nil
}

// ListByCredentialID returns records newest first.
func (s *InMemoryVerificationStore) ListByCredentialID(_ context.Context, credentialID string) ([]*credential.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.records[credentialID]
	out := make([]*credential.VerificationRecord, 0, len(recs))
	for i := range recs {
		rec := recs[i]
		out = append(out, &rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VerifiedAt.After(out[j].VerifiedAt)
	})
	return out, nil
}
