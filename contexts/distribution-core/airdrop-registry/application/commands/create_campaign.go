package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "almoner/contexts/distribution-core/airdrop-registry/application"
	"almoner/contexts/distribution-core/airdrop-registry/domain/entities"
	domainerrors "almoner/contexts/distribution-core/airdrop-registry/domain/errors"
	"almoner/contexts/distribution-core/airdrop-registry/ports"
)

type CreateCampaignCommand struct {
	Creator        string
	IdempotencyKey string
	CampaignID     string
	Assets         []entities.Asset
	StartingTime   time.Time
}

// CreateCampaignUseCase escrows a new campaign: the creator pays
// fee_per_asset x len(assets) into custody and the campaign is appended to
// the registry. Fee payment and insert happen in one atomic step; a failure
// of either leaves no trace.
type CreateCampaignUseCase struct {
	Registry       ports.RegistryRepository
	Campaigns      ports.CampaignRepository
	Ledger         ports.NativeLedger
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type CreateCampaignResult struct {
	Campaign entities.Campaign
	Replayed bool
}

type campaignReplayPayload struct {
	CampaignID     string           `json:"campaign_id"`
	Creator        string           `json:"creator"`
	Assets         []entities.Asset `json:"assets"`
	StartingTime   time.Time        `json:"starting_time"`
	TotalAvailable uint64           `json:"total_available"`
	FeePaid        uint64           `json:"fee_paid"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (uc CreateCampaignUseCase) Execute(ctx context.Context, cmd CreateCampaignCommand) (CreateCampaignResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	creator := strings.TrimSpace(cmd.Creator)
	campaignID := strings.TrimSpace(cmd.CampaignID)
	if creator == "" || campaignID == "" {
		return CreateCampaignResult{}, domainerrors.ErrInvalidRegistryInput
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CreateCampaignResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	now := uc.Clock.Now().UTC()
	requestHash := hashCreateCampaignCommand(creator, campaignID, cmd)
	if record, found, err := uc.Idempotency.GetRecord(ctx, cmd.IdempotencyKey, now); err != nil {
		return CreateCampaignResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return CreateCampaignResult{}, domainerrors.ErrIdempotencyKeyConflict
		}
		var payload campaignReplayPayload
		if err := json.Unmarshal(record.ResponsePayload, &payload); err != nil {
			return CreateCampaignResult{}, err
		}
		return CreateCampaignResult{Campaign: payload.toCampaign(), Replayed: true}, nil
	}

	registry, err := uc.Registry.GetRegistry(ctx)
	if err != nil {
		return CreateCampaignResult{}, err
	}

	// Uniqueness is reported before any other violation; the insert below
	// re-checks it atomically.
	if _, err := uc.Campaigns.GetCampaign(ctx, campaignID); err == nil {
		return CreateCampaignResult{}, domainerrors.ErrCampaignAlreadyExists
	} else if !errors.Is(err, domainerrors.ErrCampaignNotFound) {
		return CreateCampaignResult{}, err
	}
	if !entities.ValidStartingTime(cmd.StartingTime, now) {
		return CreateCampaignResult{}, domainerrors.ErrInvalidStartingTime
	}

	assets := entities.CloneAssets(cmd.Assets)
	fee := entities.FeeFor(registry.FeePerAsset, len(assets))
	campaign := entities.Campaign{
		CampaignID:     campaignID,
		Creator:        creator,
		Assets:         assets,
		StartingTime:   cmd.StartingTime.UTC(),
		TotalAvailable: entities.TotalAvailable(assets),
		FeePaid:        fee,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.Campaigns.InsertCampaign(ctx, campaign, func() error {
		if fee == 0 {
			return nil
		}
		return uc.Ledger.TransferNative(ctx, creator, registry.CustodyAccount, fee)
	}); err != nil {
		return CreateCampaignResult{}, err
	}

	payload := replayPayloadFor(campaign)
	serialized, err := json.Marshal(payload)
	if err != nil {
		return CreateCampaignResult{}, err
	}
	if err := uc.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             cmd.IdempotencyKey,
		RequestHash:     requestHash,
		ResponsePayload: serialized,
		ExpiresAt:       now.Add(uc.IdempotencyTTL),
	}); err != nil {
		return CreateCampaignResult{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return CreateCampaignResult{}, err
		}
		envelope, err := newRegistryEnvelope(
			eventID,
			"campaign.created",
			campaign.CampaignID,
			now,
			map[string]any{
				"campaign_id":   campaign.CampaignID,
				"creator":       campaign.Creator,
				"assets":        assetEventPayload(campaign.Assets),
				"starting_time": campaign.StartingTime.Unix(),
				"fee_paid":      campaign.FeePaid,
			},
		)
		if err != nil {
			return CreateCampaignResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return CreateCampaignResult{}, err
		}
	}

	logger.Info("campaign created",
		"event", "campaign_created",
		"module", "distribution-core/airdrop-registry",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"creator", campaign.Creator,
		"asset_count", len(campaign.Assets),
		"fee_paid", campaign.FeePaid,
	)
	return CreateCampaignResult{Campaign: campaign}, nil
}

func replayPayloadFor(campaign entities.Campaign) campaignReplayPayload {
	return campaignReplayPayload{
		CampaignID:     campaign.CampaignID,
		Creator:        campaign.Creator,
		Assets:         entities.CloneAssets(campaign.Assets),
		StartingTime:   campaign.StartingTime,
		TotalAvailable: campaign.TotalAvailable,
		FeePaid:        campaign.FeePaid,
		CreatedAt:      campaign.CreatedAt,
		UpdatedAt:      campaign.UpdatedAt,
	}
}

func (p campaignReplayPayload) toCampaign() entities.Campaign {
	return entities.Campaign{
		CampaignID:     p.CampaignID,
		Creator:        p.Creator,
		Assets:         entities.CloneAssets(p.Assets),
		StartingTime:   p.StartingTime,
		TotalAvailable: p.TotalAvailable,
		FeePaid:        p.FeePaid,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func hashCreateCampaignCommand(creator string, campaignID string, cmd CreateCampaignCommand) string {
	assets := make([]map[string]any, 0, len(cmd.Assets))
	for _, asset := range cmd.Assets {
		assets = append(assets, map[string]any{
			"asset_address":    strings.TrimSpace(asset.AssetAddress),
			"available_amount": asset.AvailableAmount,
		})
	}
	payload := map[string]any{
		"creator":       creator,
		"campaign_id":   campaignID,
		"assets":        assets,
		"starting_time": cmd.StartingTime.UTC().Format(time.RFC3339Nano),
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
