package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"strings"
	"time"

	"almoner/contexts/distribution-core/airdrop-registry/domain/entities"
	domainerrors "almoner/contexts/distribution-core/airdrop-registry/domain/errors"
	"almoner/contexts/distribution-core/airdrop-registry/ports"

	bolt "go.etcd.io/bbolt"
)

var (
	registryBucket    = []byte("registry")
	campaignsBucket   = []byte("campaigns")
	orderBucket       = []byte("campaign_order")
	orderIndexBucket  = []byte("campaign_order_index")
	idempotencyBucket = []byte("idempotency")
	outboxBucket      = []byte("outbox")
)

var registryKey = []byte("registry")

// Store is the embedded single-node backend. Campaign insertion order is kept
// in a sequence-keyed order bucket; every repository method is one bbolt
// transaction, so the callback-style operations are atomic.
type Store struct {
	db *bolt.DB
}

type campaignRecord struct {
	CampaignID     string        `json:"campaign_id"`
	Creator        string        `json:"creator"`
	Assets         []assetRecord `json:"assets"`
	StartingTime   time.Time     `json:"starting_time"`
	TotalAvailable uint64        `json:"total_available"`
	FeePaid        uint64        `json:"fee_paid"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type assetRecord struct {
	AssetAddress    string `json:"asset_address"`
	AvailableAmount uint64 `json:"available_amount"`
}

type registryRecord struct {
	Administrator  string    `json:"administrator"`
	FeePerAsset    uint64    `json:"fee_per_asset"`
	Operators      []string  `json:"operators"`
	AuthorityBump  byte      `json:"authority_bump"`
	CustodyAccount string    `json:"custody_account"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type idempotencyRecord struct {
	Key             string    `json:"key"`
	RequestHash     string    `json:"request_hash"`
	ResponsePayload []byte    `json:"response_payload"`
	ExpiresAt       time.Time `json:"expires_at"`
}

type outboxBoltRecord struct {
	OutboxID     string     `json:"outbox_id"`
	EventType    string     `json:"event_type"`
	PartitionKey string     `json:"partition_key"`
	Payload      []byte     `json:"payload"`
	CreatedAt    time.Time  `json:"created_at"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	Seq          uint64     `json:"seq"`
}

// Open opens (creating if needed) the database file and its buckets.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{
			registryBucket, campaignsBucket, orderBucket,
			orderIndexBucket, idempotencyBucket, outboxBucket,
		} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateRegistry(_ context.Context, registry entities.Registry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(registryBucket)
		if bucket.Get(registryKey) != nil {
			return domainerrors.ErrRegistryAlreadyInitialized
		}
		raw, err := json.Marshal(toRegistryRecord(registry))
		if err != nil {
			return err
		}
		return bucket.Put(registryKey, raw)
	})
}

func (s *Store) GetRegistry(_ context.Context) (entities.Registry, error) {
	var registry entities.Registry
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(registryBucket).Get(registryKey)
		if raw == nil {
			return domainerrors.ErrRegistryNotInitialized
		}
		loaded, err := decodeRegistry(raw)
		if err != nil {
			return err
		}
		registry = loaded
		return nil
	})
	return registry, err
}

func (s *Store) UpdateRegistry(_ context.Context, mutate func(*entities.Registry) error) (entities.Registry, error) {
	var registry entities.Registry
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(registryBucket)
		raw := bucket.Get(registryKey)
		if raw == nil {
			return domainerrors.ErrRegistryNotInitialized
		}
		working, err := decodeRegistry(raw)
		if err != nil {
			return err
		}
		if err := mutate(&working); err != nil {
			return err
		}
		updated, err := json.Marshal(toRegistryRecord(working))
		if err != nil {
			return err
		}
		if err := bucket.Put(registryKey, updated); err != nil {
			return err
		}
		registry = working
		return nil
	})
	return registry, err
}

func (s *Store) InsertCampaign(_ context.Context, campaign entities.Campaign, collect func() error) error {
	id := strings.TrimSpace(campaign.CampaignID)
	if id == "" {
		return domainerrors.ErrInvalidRegistryInput
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		campaigns := tx.Bucket(campaignsBucket)
		if campaigns.Get([]byte(id)) != nil {
			return domainerrors.ErrCampaignAlreadyExists
		}
		if collect != nil {
			if err := collect(); err != nil {
				return err
			}
		}
		raw, err := json.Marshal(toCampaignRecord(campaign))
		if err != nil {
			return err
		}
		if err := campaigns.Put([]byte(id), raw); err != nil {
			return err
		}

		order := tx.Bucket(orderBucket)
		seq, err := order.NextSequence()
		if err != nil {
			return err
		}
		seqKey := sequenceKey(seq)
		if err := order.Put(seqKey, []byte(id)); err != nil {
			return err
		}
		return tx.Bucket(orderIndexBucket).Put([]byte(id), seqKey)
	})
}

func (s *Store) GetCampaign(_ context.Context, campaignID string) (entities.Campaign, error) {
	var campaign entities.Campaign
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(campaignsBucket).Get([]byte(strings.TrimSpace(campaignID)))
		if raw == nil {
			return domainerrors.ErrCampaignNotFound
		}
		loaded, err := decodeCampaign(raw)
		if err != nil {
			return err
		}
		campaign = loaded
		return nil
	})
	return campaign, err
}

func (s *Store) ListCampaigns(_ context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	items := make([]entities.Campaign, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		campaigns := tx.Bucket(campaignsBucket)
		return tx.Bucket(orderBucket).ForEach(func(_, id []byte) error {
			raw := campaigns.Get(id)
			if raw == nil {
				return nil
			}
			item, err := decodeCampaign(raw)
			if err != nil {
				return err
			}
			if filter.Creator != "" && item.Creator != filter.Creator {
				return nil
			}
			if filter.Phase != "" && item.Phase(filter.Now) != filter.Phase {
				return nil
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) MutateCampaign(
	_ context.Context,
	campaignID string,
	mutate func(*entities.Campaign) (bool, error),
) (entities.Campaign, error) {
	id := strings.TrimSpace(campaignID)
	var campaign entities.Campaign
	err := s.db.Update(func(tx *bolt.Tx) error {
		campaigns := tx.Bucket(campaignsBucket)
		raw := campaigns.Get([]byte(id))
		if raw == nil {
			return domainerrors.ErrCampaignNotFound
		}
		working, err := decodeCampaign(raw)
		if err != nil {
			return err
		}
		remove, err := mutate(&working)
		if err != nil {
			return err
		}
		campaign = working
		if remove {
			if err := campaigns.Delete([]byte(id)); err != nil {
				return err
			}
			index := tx.Bucket(orderIndexBucket)
			if seqKey := index.Get([]byte(id)); seqKey != nil {
				if err := tx.Bucket(orderBucket).Delete(seqKey); err != nil {
					return err
				}
				return index.Delete([]byte(id))
			}
			return nil
		}
		updated, err := json.Marshal(toCampaignRecord(working))
		if err != nil {
			return err
		}
		return campaigns.Put([]byte(id), updated)
	})
	return campaign, err
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var record ports.IdempotencyRecord
	found := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(idempotencyBucket)
		raw := bucket.Get([]byte(strings.TrimSpace(key)))
		if raw == nil {
			return nil
		}
		var stored idempotencyRecord
		if err := json.Unmarshal(raw, &stored); err != nil {
			return err
		}
		if !stored.ExpiresAt.After(now.UTC()) {
			return bucket.Delete([]byte(strings.TrimSpace(key)))
		}
		record = ports.IdempotencyRecord{
			Key:             stored.Key,
			RequestHash:     stored.RequestHash,
			ResponsePayload: stored.ResponsePayload,
			ExpiresAt:       stored.ExpiresAt,
		}
		found = true
		return nil
	})
	if err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	return record, found, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	key := strings.TrimSpace(record.Key)
	if key == "" {
		return domainerrors.ErrInvalidRegistryInput
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(idempotencyBucket)
		if raw := bucket.Get([]byte(key)); raw != nil {
			var existing idempotencyRecord
			if err := json.Unmarshal(raw, &existing); err != nil {
				return err
			}
			if existing.RequestHash != record.RequestHash ||
				!bytes.Equal(existing.ResponsePayload, record.ResponsePayload) {
				return domainerrors.ErrIdempotencyKeyConflict
			}
			return nil
		}
		raw, err := json.Marshal(idempotencyRecord{
			Key:             key,
			RequestHash:     record.RequestHash,
			ResponsePayload: record.ResponsePayload,
			ExpiresAt:       record.ExpiresAt.UTC(),
		})
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), raw)
	})
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return domainerrors.ErrInvalidRegistryInput
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(outboxBucket)
		if raw := bucket.Get([]byte(outboxID)); raw != nil {
			var existing outboxBoltRecord
			if err := json.Unmarshal(raw, &existing); err != nil {
				return err
			}
			if !bytes.Equal(existing.Payload, payload) {
				return domainerrors.ErrIdempotencyKeyConflict
			}
			return nil
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		raw, err := json.Marshal(outboxBoltRecord{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
			Seq:          seq,
		})
		if err != nil {
			return err
		}
		return bucket.Put([]byte(outboxID), raw)
	})
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	pending := make([]outboxBoltRecord, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(outboxBucket).ForEach(func(_, raw []byte) error {
			var row outboxBoltRecord
			if err := json.Unmarshal(raw, &row); err != nil {
				return err
			}
			if row.PublishedAt == nil {
				pending = append(pending, row)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(pending); i++ {
		for j := i; j > 0 && pending[j].Seq < pending[j-1].Seq; j-- {
			pending[j], pending[j-1] = pending[j-1], pending[j]
		}
	}
	if len(pending) > limit {
		pending = pending[:limit]
	}
	items := make([]ports.OutboxMessage, 0, len(pending))
	for _, row := range pending {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(outboxBucket)
		raw := bucket.Get([]byte(strings.TrimSpace(outboxID)))
		if raw == nil {
			return domainerrors.ErrCampaignNotFound
		}
		var row outboxBoltRecord
		if err := json.Unmarshal(raw, &row); err != nil {
			return err
		}
		ts := publishedAt.UTC()
		row.PublishedAt = &ts
		updated, err := json.Marshal(row)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(strings.TrimSpace(outboxID)), updated)
	})
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func toRegistryRecord(registry entities.Registry) registryRecord {
	return registryRecord{
		Administrator:  registry.Administrator,
		FeePerAsset:    registry.FeePerAsset,
		Operators:      append([]string(nil), registry.Operators...),
		AuthorityBump:  registry.AuthorityBump,
		CustodyAccount: registry.CustodyAccount,
		CreatedAt:      registry.CreatedAt.UTC(),
		UpdatedAt:      registry.UpdatedAt.UTC(),
	}
}

func decodeRegistry(raw []byte) (entities.Registry, error) {
	var record registryRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return entities.Registry{}, err
	}
	return entities.Registry{
		Administrator:  record.Administrator,
		FeePerAsset:    record.FeePerAsset,
		Operators:      record.Operators,
		AuthorityBump:  record.AuthorityBump,
		CustodyAccount: record.CustodyAccount,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}, nil
}

func toCampaignRecord(campaign entities.Campaign) campaignRecord {
	assets := make([]assetRecord, 0, len(campaign.Assets))
	for _, asset := range campaign.Assets {
		assets = append(assets, assetRecord{
			AssetAddress:    asset.AssetAddress,
			AvailableAmount: asset.AvailableAmount,
		})
	}
	return campaignRecord{
		CampaignID:     campaign.CampaignID,
		Creator:        campaign.Creator,
		Assets:         assets,
		StartingTime:   campaign.StartingTime.UTC(),
		TotalAvailable: campaign.TotalAvailable,
		FeePaid:        campaign.FeePaid,
		CreatedAt:      campaign.CreatedAt.UTC(),
		UpdatedAt:      campaign.UpdatedAt.UTC(),
	}
}

func decodeCampaign(raw []byte) (entities.Campaign, error) {
	var record campaignRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return entities.Campaign{}, err
	}
	assets := make([]entities.Asset, 0, len(record.Assets))
	for _, asset := range record.Assets {
		assets = append(assets, entities.Asset{
			AssetAddress:    asset.AssetAddress,
			AvailableAmount: asset.AvailableAmount,
		})
	}
	return entities.Campaign{
		CampaignID:     record.CampaignID,
		Creator:        record.Creator,
		Assets:         assets,
		StartingTime:   record.StartingTime,
		TotalAvailable: record.TotalAvailable,
		FeePaid:        record.FeePaid,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}, nil
}
