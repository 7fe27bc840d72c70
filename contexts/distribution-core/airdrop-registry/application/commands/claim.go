package commands

import (
	"context"
	"log/slog"
	"strings"

	application "almoner/contexts/distribution-core/airdrop-registry/application"
	"almoner/contexts/distribution-core/airdrop-registry/domain/entities"
	domainerrors "almoner/contexts/distribution-core/airdrop-registry/domain/errors"
	"almoner/contexts/distribution-core/airdrop-registry/ports"
)

type ClaimCommand struct {
	OperatorID   string
	CampaignID   string
	Creator      string
	AssetIndex   int
	AssetAddress string
	Recipient    string
}

// ClaimUseCase pays out one asset in full. The transfer is signed by the
// registry's authority, the asset slot drops to zero, total_available
// decreases by the transferred amount, and a campaign whose total reaches
// zero is removed in the same atomic step.
type ClaimUseCase struct {
	Registry  ports.RegistryRepository
	Campaigns ports.CampaignRepository
	Assets    ports.AssetLedger
	Authority ports.TransferAuthority
	Clock     ports.Clock
	// StrictReplayGuard rejects a claim against an already-drained slot
	// instead of performing a zero-amount transfer.
	StrictReplayGuard bool
	Logger            *slog.Logger
}

type ClaimResult struct {
	Campaign  entities.Campaign
	Amount    uint64
	Exhausted bool
}

func (uc ClaimUseCase) Execute(ctx context.Context, cmd ClaimCommand) (ClaimResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	operator := strings.TrimSpace(cmd.OperatorID)
	campaignID := strings.TrimSpace(cmd.CampaignID)
	creator := strings.TrimSpace(cmd.Creator)
	recipient := strings.TrimSpace(cmd.Recipient)
	assetAddress := strings.TrimSpace(cmd.AssetAddress)
	if campaignID == "" || creator == "" || recipient == "" || assetAddress == "" {
		return ClaimResult{}, domainerrors.ErrInvalidRegistryInput
	}

	registry, err := uc.Registry.GetRegistry(ctx)
	if err != nil {
		return ClaimResult{}, err
	}
	if !registry.IsOperator(operator) {
		return ClaimResult{}, domainerrors.ErrNotOperator
	}

	now := uc.Clock.Now().UTC()
	var amount uint64
	var exhausted bool
	campaign, err := uc.Campaigns.MutateCampaign(ctx, campaignID, func(c *entities.Campaign) (bool, error) {
		// Campaigns are addressed by (id, creator); a creator mismatch is
		// indistinguishable from a missing campaign.
		if c.Creator != creator {
			return false, domainerrors.ErrCampaignNotFound
		}
		if !c.Started(now) {
			return false, domainerrors.ErrCampaignNotStarted
		}
		asset, ok := c.AssetAt(cmd.AssetIndex)
		if !ok {
			return false, domainerrors.ErrInvalidAssetIndex
		}
		if asset.AssetAddress != assetAddress {
			return false, domainerrors.ErrAssetMismatch
		}
		if asset.AvailableAmount == 0 && uc.StrictReplayGuard {
			return false, domainerrors.ErrAssetAlreadyClaimed
		}

		amount = asset.AvailableAmount
		proof := uc.Authority.Proof(asset.AssetAddress, c.Creator, recipient, amount)
		if err := uc.Assets.TransferAsset(ctx, proof, asset.AssetAddress, c.Creator, recipient, amount); err != nil {
			return false, err
		}

		c.Assets[cmd.AssetIndex].AvailableAmount = 0
		c.TotalAvailable -= amount
		c.UpdatedAt = now
		exhausted = c.TotalAvailable == 0
		return exhausted, nil
	})
	if err != nil {
		return ClaimResult{}, err
	}

	logger.Info("asset claimed",
		"event", "asset_claimed",
		"module", "distribution-core/airdrop-registry",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"asset_index", cmd.AssetIndex,
		"asset_address", assetAddress,
		"recipient", recipient,
		"amount", amount,
		"campaign_exhausted", exhausted,
	)
	return ClaimResult{Campaign: campaign, Amount: amount, Exhausted: exhausted}, nil
}
