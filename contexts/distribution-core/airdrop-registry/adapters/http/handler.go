package http

import (
	"context"
	"time"

	"almoner/contexts/distribution-core/airdrop-registry/application/commands"
	"almoner/contexts/distribution-core/airdrop-registry/application/queries"
	"almoner/contexts/distribution-core/airdrop-registry/domain/entities"
	"almoner/contexts/distribution-core/airdrop-registry/ports"
	transporthttp "almoner/contexts/distribution-core/airdrop-registry/transport/http"
)

// Handler adapts transport DTOs to application use cases.
type Handler struct {
	Clock ports.Clock

	Initialize     commands.InitializeUseCase
	SetOperators   commands.SetOperatorsUseCase
	SetFeeRate     commands.SetFeeRateUseCase
	CreateCampaign commands.CreateCampaignUseCase
	UpdateCampaign commands.UpdateCampaignUseCase
	Claim          commands.ClaimUseCase
	WithdrawFees   commands.WithdrawFeesUseCase
	GetRegistry    queries.GetRegistryUseCase
	GetCampaign    queries.GetCampaignUseCase
	ListCampaigns  queries.ListCampaignsUseCase
}

func (h Handler) InitializeRegistryHandler(
	ctx context.Context,
	userID string,
	req transporthttp.InitializeRegistryRequest,
) (transporthttp.RegistryResponse, error) {
	registry, err := h.Initialize.Execute(ctx, commands.InitializeCommand{
		Deployer:    userID,
		FeePerAsset: req.FeePerAsset,
	})
	if err != nil {
		return transporthttp.RegistryResponse{}, err
	}
	return transporthttp.RegistryResponse{Registry: toRegistryDTO(registry)}, nil
}

func (h Handler) GetRegistryHandler(ctx context.Context) (transporthttp.RegistryResponse, error) {
	registry, err := h.GetRegistry.Execute(ctx)
	if err != nil {
		return transporthttp.RegistryResponse{}, err
	}
	return transporthttp.RegistryResponse{Registry: toRegistryDTO(registry)}, nil
}

func (h Handler) SetOperatorsHandler(
	ctx context.Context,
	userID string,
	req transporthttp.SetOperatorsRequest,
) (transporthttp.RegistryResponse, error) {
	registry, err := h.SetOperators.Execute(ctx, commands.SetOperatorsCommand{
		ActorID:   userID,
		Operators: req.Operators,
		Additions: req.Additions,
	})
	if err != nil {
		return transporthttp.RegistryResponse{}, err
	}
	return transporthttp.RegistryResponse{Registry: toRegistryDTO(registry)}, nil
}

func (h Handler) SetFeeRateHandler(
	ctx context.Context,
	userID string,
	req transporthttp.SetFeeRateRequest,
) (transporthttp.RegistryResponse, error) {
	registry, err := h.SetFeeRate.Execute(ctx, commands.SetFeeRateCommand{
		ActorID:     userID,
		FeePerAsset: req.FeePerAsset,
	})
	if err != nil {
		return transporthttp.RegistryResponse{}, err
	}
	return transporthttp.RegistryResponse{Registry: toRegistryDTO(registry)}, nil
}

func (h Handler) WithdrawFeesHandler(
	ctx context.Context,
	userID string,
	req transporthttp.WithdrawFeesRequest,
) (transporthttp.WithdrawFeesResponse, error) {
	result, err := h.WithdrawFees.Execute(ctx, commands.WithdrawFeesCommand{
		ActorID:   userID,
		Recipient: req.Recipient,
	})
	if err != nil {
		return transporthttp.WithdrawFeesResponse{}, err
	}
	return transporthttp.WithdrawFeesResponse{
		Recipient: result.Recipient,
		Amount:    result.Amount,
	}, nil
}

func (h Handler) CreateCampaignHandler(
	ctx context.Context,
	userID string,
	req transporthttp.CreateCampaignRequest,
	idempotencyKey string,
) (transporthttp.CreateCampaignResponse, error) {
	result, err := h.CreateCampaign.Execute(ctx, commands.CreateCampaignCommand{
		Creator:        userID,
		IdempotencyKey: idempotencyKey,
		CampaignID:     req.CampaignID,
		Assets:         fromAssetDTOs(req.Assets),
		StartingTime:   time.Unix(req.StartingTime, 0).UTC(),
	})
	if err != nil {
		return transporthttp.CreateCampaignResponse{}, err
	}
	return transporthttp.CreateCampaignResponse{
		Campaign: h.toCampaignDTO(result.Campaign),
		Replayed: result.Replayed,
	}, nil
}

func (h Handler) UpdateCampaignHandler(
	ctx context.Context,
	userID string,
	campaignID string,
	req transporthttp.UpdateCampaignRequest,
) (transporthttp.UpdateCampaignResponse, error) {
	result, err := h.UpdateCampaign.Execute(ctx, commands.UpdateCampaignCommand{
		ActorID:      userID,
		CampaignID:   campaignID,
		Assets:       fromAssetDTOs(req.Assets),
		StartingTime: time.Unix(req.StartingTime, 0).UTC(),
	})
	if err != nil {
		return transporthttp.UpdateCampaignResponse{}, err
	}
	return transporthttp.UpdateCampaignResponse{Campaign: h.toCampaignDTO(result.Campaign)}, nil
}

func (h Handler) ClaimHandler(
	ctx context.Context,
	userID string,
	campaignID string,
	req transporthttp.ClaimRequest,
) (transporthttp.ClaimResponse, error) {
	result, err := h.Claim.Execute(ctx, commands.ClaimCommand{
		OperatorID:   userID,
		CampaignID:   campaignID,
		Creator:      req.Creator,
		AssetIndex:   req.AssetIndex,
		AssetAddress: req.AssetAddress,
		Recipient:    req.Recipient,
	})
	if err != nil {
		return transporthttp.ClaimResponse{}, err
	}
	return transporthttp.ClaimResponse{
		CampaignID:     result.Campaign.CampaignID,
		AssetIndex:     req.AssetIndex,
		AssetAddress:   req.AssetAddress,
		Recipient:      req.Recipient,
		Amount:         result.Amount,
		TotalAvailable: result.Campaign.TotalAvailable,
		Exhausted:      result.Exhausted,
	}, nil
}

func (h Handler) GetCampaignHandler(ctx context.Context, campaignID string) (transporthttp.GetCampaignResponse, error) {
	campaign, err := h.GetCampaign.Execute(ctx, campaignID)
	if err != nil {
		return transporthttp.GetCampaignResponse{}, err
	}
	return transporthttp.GetCampaignResponse{Campaign: h.toCampaignDTO(campaign)}, nil
}

func (h Handler) ListCampaignsHandler(
	ctx context.Context,
	creator string,
	phase string,
) (transporthttp.ListCampaignsResponse, error) {
	items, err := h.ListCampaigns.Execute(ctx, queries.ListCampaignsQuery{
		Creator: creator,
		Phase:   phase,
	})
	if err != nil {
		return transporthttp.ListCampaignsResponse{}, err
	}
	dtos := make([]transporthttp.CampaignDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, h.toCampaignDTO(item))
	}
	return transporthttp.ListCampaignsResponse{Items: dtos}, nil
}

func (h Handler) toCampaignDTO(campaign entities.Campaign) transporthttp.CampaignDTO {
	assets := make([]transporthttp.AssetDTO, 0, len(campaign.Assets))
	for _, asset := range campaign.Assets {
		assets = append(assets, transporthttp.AssetDTO{
			AssetAddress:    asset.AssetAddress,
			AvailableAmount: asset.AvailableAmount,
		})
	}
	return transporthttp.CampaignDTO{
		CampaignID:     campaign.CampaignID,
		Creator:        campaign.Creator,
		Assets:         assets,
		StartingTime:   campaign.StartingTime.Unix(),
		TotalAvailable: campaign.TotalAvailable,
		FeePaid:        campaign.FeePaid,
		Phase:          string(campaign.Phase(h.Clock.Now().UTC())),
		CreatedAt:      campaign.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      campaign.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toRegistryDTO(registry entities.Registry) transporthttp.RegistryDTO {
	return transporthttp.RegistryDTO{
		Administrator:  registry.Administrator,
		FeePerAsset:    registry.FeePerAsset,
		Operators:      append([]string(nil), registry.Operators...),
		CustodyAccount: registry.CustodyAccount,
		CreatedAt:      registry.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      registry.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func fromAssetDTOs(items []transporthttp.AssetDTO) []entities.Asset {
	assets := make([]entities.Asset, 0, len(items))
	for _, item := range items {
		assets = append(assets, entities.Asset{
			AssetAddress:    item.AssetAddress,
			AvailableAmount: item.AvailableAmount,
		})
	}
	return assets
}
