package ports

import (
	"context"
	"time"

	"almoner/contexts/distribution-core/airdrop-registry/domain/entities"
	contractsv1 "almoner/contracts/gen/events/v1"
)

type RegistryRepository interface {
	// CreateRegistry persists the singleton; a second call fails with
	// ErrRegistryAlreadyInitialized.
	CreateRegistry(ctx context.Context, registry entities.Registry) error
	GetRegistry(ctx context.Context) (entities.Registry, error)
	// UpdateRegistry loads the singleton, runs mutate under the store's
	// exclusive lock and persists the result only when mutate returns nil.
	UpdateRegistry(ctx context.Context, mutate func(*entities.Registry) error) (entities.Registry, error)
}

type CampaignFilter struct {
	Creator string
	Phase   entities.CampaignPhase
	Now     time.Time
}

type CampaignRepository interface {
	// InsertCampaign atomically re-checks ID uniqueness, runs collect (the fee
	// payment) and stores the campaign. A collect failure aborts the insert.
	InsertCampaign(ctx context.Context, campaign entities.Campaign, collect func() error) error
	GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error)
	// ListCampaigns enumerates campaigns in insertion order.
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]entities.Campaign, error)
	// MutateCampaign loads the campaign for exclusive mutation and persists the
	// result when mutate returns nil. When mutate additionally reports remove,
	// the campaign is deleted in the same atomic step. The returned snapshot
	// reflects the post-mutation state even when removed.
	MutateCampaign(ctx context.Context, campaignID string, mutate func(*entities.Campaign) (remove bool, err error)) (entities.Campaign, error)
}

// NativeLedger moves native value (fee currency) between accounts. Transfers
// are atomic on the ledger side: they either settle in full or fail.
type NativeLedger interface {
	TransferNative(ctx context.Context, from string, to string, amount uint64) error
	// DrainNative moves the full balance of from to to and returns the amount.
	DrainNative(ctx context.Context, from string, to string) (uint64, error)
	NativeBalance(ctx context.Context, account string) (uint64, error)
}

// AssetLedger moves campaign assets out of creator holdings. Every transfer
// must carry a proof minted by the registry's transfer authority.
type AssetLedger interface {
	TransferAsset(ctx context.Context, proof string, assetAddress string, from string, to string, amount uint64) error
}

// TransferAuthority is the registry's delegated signing capability. Only the
// treasury package can construct one; handlers never see it.
type TransferAuthority interface {
	Account() string
	Bump() byte
	Proof(assetAddress string, from string, to string, amount uint64) string
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
