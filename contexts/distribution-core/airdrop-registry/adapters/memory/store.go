package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"almoner/contexts/distribution-core/airdrop-registry/domain/entities"
	domainerrors "almoner/contexts/distribution-core/airdrop-registry/domain/errors"
	"almoner/contexts/distribution-core/airdrop-registry/ports"

	"github.com/google/uuid"
)

// Store is the in-memory backend: registry singleton, campaigns keyed by ID
// with insertion order preserved, idempotency records and the outbox. All
// multi-step operations run under one mutex, so the callback-style repository
// methods are atomic.
type Store struct {
	mu sync.RWMutex

	registry    *entities.Registry
	campaigns   map[string]entities.Campaign
	order       []string
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
}

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

func NewStore() *Store {
	return &Store{
		campaigns:   make(map[string]entities.Campaign),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) CreateRegistry(_ context.Context, registry entities.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry != nil {
		return domainerrors.ErrRegistryAlreadyInitialized
	}
	clone := registry
	clone.Operators = append([]string(nil), registry.Operators...)
	s.registry = &clone
	return nil
}

func (s *Store) GetRegistry(_ context.Context) (entities.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.registry == nil {
		return entities.Registry{}, domainerrors.ErrRegistryNotInitialized
	}
	return cloneRegistry(*s.registry), nil
}

func (s *Store) UpdateRegistry(_ context.Context, mutate func(*entities.Registry) error) (entities.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry == nil {
		return entities.Registry{}, domainerrors.ErrRegistryNotInitialized
	}
	working := cloneRegistry(*s.registry)
	if err := mutate(&working); err != nil {
		return entities.Registry{}, err
	}
	s.registry = &working
	return cloneRegistry(working), nil
}

func (s *Store) InsertCampaign(_ context.Context, campaign entities.Campaign, collect func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(campaign.CampaignID)
	if id == "" {
		return domainerrors.ErrInvalidRegistryInput
	}
	if _, exists := s.campaigns[id]; exists {
		return domainerrors.ErrCampaignAlreadyExists
	}
	if collect != nil {
		if err := collect(); err != nil {
			return err
		}
	}
	s.campaigns[id] = campaign.Clone()
	s.order = append(s.order, id)
	return nil
}

func (s *Store) GetCampaign(_ context.Context, campaignID string) (entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.campaigns[strings.TrimSpace(campaignID)]
	if !ok {
		return entities.Campaign{}, domainerrors.ErrCampaignNotFound
	}
	return item.Clone(), nil
}

func (s *Store) ListCampaigns(_ context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Campaign, 0, len(s.order))
	for _, id := range s.order {
		item, ok := s.campaigns[id]
		if !ok {
			continue
		}
		if filter.Creator != "" && item.Creator != filter.Creator {
			continue
		}
		if filter.Phase != "" && item.Phase(filter.Now) != filter.Phase {
			continue
		}
		items = append(items, item.Clone())
	}
	return items, nil
}

func (s *Store) MutateCampaign(
	_ context.Context,
	campaignID string,
	mutate func(*entities.Campaign) (bool, error),
) (entities.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(campaignID)
	item, ok := s.campaigns[id]
	if !ok {
		return entities.Campaign{}, domainerrors.ErrCampaignNotFound
	}
	working := item.Clone()
	remove, err := mutate(&working)
	if err != nil {
		return entities.Campaign{}, err
	}
	if remove {
		delete(s.campaigns, id)
		s.dropFromOrder(id)
	} else {
		s.campaigns[id] = working.Clone()
	}
	return working, nil
}

func (s *Store) dropFromOrder(campaignID string) {
	kept := s.order[:0]
	for _, id := range s.order {
		if id != campaignID {
			kept = append(kept, id)
		}
	}
	s.order = kept
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[strings.TrimSpace(key)]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, strings.TrimSpace(key))
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	if key == "" {
		return domainerrors.ErrInvalidRegistryInput
	}
	if existing, ok := s.idempotency[key]; ok {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		if !bytes.Equal(existing.ResponsePayload, record.ResponsePayload) {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		return nil
	}
	s.idempotency[key] = record
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return domainerrors.ErrInvalidRegistryInput
	}

	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.Message.Payload, payload) {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		return nil
	}

	s.outbox[outboxID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrCampaignNotFound
	}
	ts := publishedAt.UTC()
	row.Status = outboxStatusPublished
	row.PublishedAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneRegistry(registry entities.Registry) entities.Registry {
	clone := registry
	clone.Operators = append([]string(nil), registry.Operators...)
	return clone
}
