package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "almoner/contexts/distribution-core/airdrop-registry/application"
	"almoner/contexts/distribution-core/airdrop-registry/domain/entities"
	domainerrors "almoner/contexts/distribution-core/airdrop-registry/domain/errors"
	"almoner/contexts/distribution-core/airdrop-registry/ports"
)

type UpdateCampaignCommand struct {
	ActorID      string
	CampaignID   string
	Assets       []entities.Asset
	StartingTime time.Time
}

// UpdateCampaignUseCase rewrites a pending campaign in place. The fee
// transfer is one-directional: when the new asset list owes more than was
// already paid, the creator tops up the delta; when it owes less, nothing is
// refunded. The recorded fee_paid always reflects the new asset list.
type UpdateCampaignUseCase struct {
	Registry    ports.RegistryRepository
	Campaigns   ports.CampaignRepository
	Ledger      ports.NativeLedger
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

type UpdateCampaignResult struct {
	Campaign entities.Campaign
}

func (uc UpdateCampaignUseCase) Execute(ctx context.Context, cmd UpdateCampaignCommand) (UpdateCampaignResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	actor := strings.TrimSpace(cmd.ActorID)
	campaignID := strings.TrimSpace(cmd.CampaignID)
	if actor == "" || campaignID == "" {
		return UpdateCampaignResult{}, domainerrors.ErrInvalidRegistryInput
	}

	registry, err := uc.Registry.GetRegistry(ctx)
	if err != nil {
		return UpdateCampaignResult{}, err
	}

	now := uc.Clock.Now().UTC()
	var topUp uint64
	campaign, err := uc.Campaigns.MutateCampaign(ctx, campaignID, func(c *entities.Campaign) (bool, error) {
		if c.Creator != actor {
			return false, domainerrors.ErrNotCampaignCreator
		}
		if !c.CanUpdate(now) {
			return false, domainerrors.ErrUpdateNotAllowed
		}
		if !entities.ValidStartingTime(cmd.StartingTime, now) {
			return false, domainerrors.ErrInvalidStartingTime
		}

		assets := entities.CloneAssets(cmd.Assets)
		newFee := entities.FeeFor(registry.FeePerAsset, len(assets))
		if newFee > c.FeePaid {
			topUp = newFee - c.FeePaid
			if err := uc.Ledger.TransferNative(ctx, c.Creator, registry.CustodyAccount, topUp); err != nil {
				return false, err
			}
		}
		c.FeePaid = newFee

		c.Assets = assets
		c.StartingTime = cmd.StartingTime.UTC()
		c.TotalAvailable = entities.TotalAvailable(assets)
		c.UpdatedAt = now
		return false, nil
	})
	if err != nil {
		return UpdateCampaignResult{}, err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return UpdateCampaignResult{}, err
		}
		envelope, err := newRegistryEnvelope(
			eventID,
			"campaign.updated",
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
			return UpdateCampaignResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return UpdateCampaignResult{}, err
		}
	}

	logger.Info("campaign updated",
		"event", "campaign_updated",
		"module", "distribution-core/airdrop-registry",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"creator", campaign.Creator,
		"asset_count", len(campaign.Assets),
		"fee_top_up", topUp,
	)
	return UpdateCampaignResult{Campaign: campaign}, nil
}
