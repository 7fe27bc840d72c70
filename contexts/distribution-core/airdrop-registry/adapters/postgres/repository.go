package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"almoner/contexts/distribution-core/airdrop-registry/domain/entities"
	domainerrors "almoner/contexts/distribution-core/airdrop-registry/domain/errors"
	"almoner/contexts/distribution-core/airdrop-registry/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the gorm-backed store. The registry is a single fixed-key
// row; campaigns carry a bigserial seq used for insertion-order enumeration.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

const registryRowKey = "registry"

type registryModel struct {
	RegistryKey    string    `gorm:"column:registry_key;primaryKey"`
	Administrator  string    `gorm:"column:administrator"`
	FeePerAsset    int64     `gorm:"column:fee_per_asset"`
	Operators      []byte    `gorm:"column:operators;type:jsonb"`
	AuthorityBump  int16     `gorm:"column:authority_bump"`
	CustodyAccount string    `gorm:"column:custody_account"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (registryModel) TableName() string { return "airdrop_registry" }

type campaignModel struct {
	CampaignID     string    `gorm:"column:campaign_id;primaryKey"`
	Seq            int64     `gorm:"column:seq;autoIncrement"`
	Creator        string    `gorm:"column:creator;index"`
	Assets         []byte    `gorm:"column:assets;type:jsonb"`
	StartingTime   time.Time `gorm:"column:starting_time"`
	TotalAvailable int64     `gorm:"column:total_available"`
	FeePaid        int64     `gorm:"column:fee_paid"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (campaignModel) TableName() string { return "airdrop_campaigns" }

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at;index"`
}

func (idempotencyModel) TableName() string { return "airdrop_idempotency" }

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload;type:jsonb"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "airdrop_outbox" }

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// AutoMigrate creates or upgrades the schema.
func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&registryModel{},
		&campaignModel{},
		&idempotencyModel{},
		&outboxModel{},
	)
}

func (r *Repository) CreateRegistry(ctx context.Context, registry entities.Registry) error {
	model, err := toRegistryModel(registry)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainerrors.ErrRegistryAlreadyInitialized
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRegistryAlreadyInitialized
	}
	return nil
}

func (r *Repository) GetRegistry(ctx context.Context) (entities.Registry, error) {
	var model registryModel
	err := r.db.WithContext(ctx).
		Where("registry_key = ?", registryRowKey).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Registry{}, domainerrors.ErrRegistryNotInitialized
		}
		return entities.Registry{}, err
	}
	return fromRegistryModel(model)
}

func (r *Repository) UpdateRegistry(ctx context.Context, mutate func(*entities.Registry) error) (entities.Registry, error) {
	var registry entities.Registry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model registryModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("registry_key = ?", registryRowKey).
			First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrRegistryNotInitialized
			}
			return err
		}
		working, err := fromRegistryModel(model)
		if err != nil {
			return err
		}
		if err := mutate(&working); err != nil {
			return err
		}
		updated, err := toRegistryModel(working)
		if err != nil {
			return err
		}
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
		registry = working
		return nil
	})
	return registry, err
}

func (r *Repository) InsertCampaign(ctx context.Context, campaign entities.Campaign, collect func() error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&campaignModel{}).
			Where("campaign_id = ?", campaign.CampaignID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return domainerrors.ErrCampaignAlreadyExists
		}
		if collect != nil {
			if err := collect(); err != nil {
				return err
			}
		}
		model, err := toCampaignModel(campaign)
		if err != nil {
			return err
		}
		if err := tx.Create(&model).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrCampaignAlreadyExists
			}
			return err
		}
		return nil
	})
}

func (r *Repository) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	var model campaignModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Campaign{}, domainerrors.ErrCampaignNotFound
		}
		return entities.Campaign{}, err
	}
	return fromCampaignModel(model)
}

func (r *Repository) ListCampaigns(ctx context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	query := r.db.WithContext(ctx).Model(&campaignModel{}).Order("seq ASC")
	if filter.Creator != "" {
		query = query.Where("creator = ?", filter.Creator)
	}
	switch filter.Phase {
	case entities.CampaignPhasePending:
		query = query.Where("starting_time > ?", filter.Now.UTC())
	case entities.CampaignPhaseActive:
		query = query.Where("starting_time <= ?", filter.Now.UTC())
	}

	var models []campaignModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Campaign, 0, len(models))
	for _, model := range models {
		item, err := fromCampaignModel(model)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) MutateCampaign(
	ctx context.Context,
	campaignID string,
	mutate func(*entities.Campaign) (bool, error),
) (entities.Campaign, error) {
	var campaign entities.Campaign
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model campaignModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("campaign_id = ?", strings.TrimSpace(campaignID)).
			First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrCampaignNotFound
			}
			return err
		}
		working, err := fromCampaignModel(model)
		if err != nil {
			return err
		}
		remove, err := mutate(&working)
		if err != nil {
			return err
		}
		campaign = working
		if remove {
			return tx.Delete(&campaignModel{}, "campaign_id = ?", working.CampaignID).Error
		}
		updated, err := toCampaignModel(working)
		if err != nil {
			return err
		}
		updated.Seq = model.Seq
		return tx.Save(&updated).Error
	})
	return campaign, err
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var model idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", strings.TrimSpace(key), now.UTC()).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	return ports.IdempotencyRecord{
		Key:             model.Key,
		RequestHash:     model.RequestHash,
		ResponsePayload: model.ResponsePayload,
		ExpiresAt:       model.ExpiresAt,
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	key := strings.TrimSpace(record.Key)
	if key == "" {
		return domainerrors.ErrInvalidRegistryInput
	}
	model := idempotencyModel{
		Key:             key,
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		var existing idempotencyModel
		if err := r.db.WithContext(ctx).Where("key = ?", key).First(&existing).Error; err != nil {
			return err
		}
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyKeyConflict
		}
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return domainerrors.ErrInvalidRegistryInput
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	model := outboxModel{
		OutboxID:     outboxID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model)
	if result.Error != nil && !isUniqueViolation(result.Error) {
		return result.Error
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(models))
	for _, model := range models {
		items = append(items, ports.OutboxMessage{
			OutboxID:     model.OutboxID,
			EventType:    model.EventType,
			PartitionKey: model.PartitionKey,
			Payload:      model.Payload,
			CreatedAt:    model.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	ts := publishedAt.UTC()
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &ts,
		}).Error
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func toRegistryModel(registry entities.Registry) (registryModel, error) {
	operators, err := json.Marshal(registry.Operators)
	if err != nil {
		return registryModel{}, err
	}
	return registryModel{
		RegistryKey:    registryRowKey,
		Administrator:  registry.Administrator,
		FeePerAsset:    int64(registry.FeePerAsset),
		Operators:      operators,
		AuthorityBump:  int16(registry.AuthorityBump),
		CustodyAccount: registry.CustodyAccount,
		CreatedAt:      registry.CreatedAt.UTC(),
		UpdatedAt:      registry.UpdatedAt.UTC(),
	}, nil
}

func fromRegistryModel(model registryModel) (entities.Registry, error) {
	var operators []string
	if len(model.Operators) > 0 {
		if err := json.Unmarshal(model.Operators, &operators); err != nil {
			return entities.Registry{}, err
		}
	}
	return entities.Registry{
		Administrator:  model.Administrator,
		FeePerAsset:    uint64(model.FeePerAsset),
		Operators:      operators,
		AuthorityBump:  byte(model.AuthorityBump),
		CustodyAccount: model.CustodyAccount,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}, nil
}

type assetColumn struct {
	AssetAddress    string `json:"asset_address"`
	AvailableAmount uint64 `json:"available_amount"`
}

func toCampaignModel(campaign entities.Campaign) (campaignModel, error) {
	columns := make([]assetColumn, 0, len(campaign.Assets))
	for _, asset := range campaign.Assets {
		columns = append(columns, assetColumn{
			AssetAddress:    asset.AssetAddress,
			AvailableAmount: asset.AvailableAmount,
		})
	}
	assets, err := json.Marshal(columns)
	if err != nil {
		return campaignModel{}, err
	}
	return campaignModel{
		CampaignID:     campaign.CampaignID,
		Creator:        campaign.Creator,
		Assets:         assets,
		StartingTime:   campaign.StartingTime.UTC(),
		TotalAvailable: int64(campaign.TotalAvailable),
		FeePaid:        int64(campaign.FeePaid),
		CreatedAt:      campaign.CreatedAt.UTC(),
		UpdatedAt:      campaign.UpdatedAt.UTC(),
	}, nil
}

func fromCampaignModel(model campaignModel) (entities.Campaign, error) {
	var columns []assetColumn
	if len(model.Assets) > 0 {
		if err := json.Unmarshal(model.Assets, &columns); err != nil {
			return entities.Campaign{}, err
		}
	}
	assets := make([]entities.Asset, 0, len(columns))
	for _, column := range columns {
		assets = append(assets, entities.Asset{
			AssetAddress:    column.AssetAddress,
			AvailableAmount: column.AvailableAmount,
		})
	}
	return entities.Campaign{
		CampaignID:     model.CampaignID,
		Creator:        model.Creator,
		Assets:         assets,
		StartingTime:   model.StartingTime,
		TotalAvailable: uint64(model.TotalAvailable),
		FeePaid:        uint64(model.FeePaid),
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}, nil
}
