package queries

import (
	"context"
	"log/slog"
	"strings"

	application "almoner/contexts/distribution-core/airdrop-registry/application"
	"almoner/contexts/distribution-core/airdrop-registry/domain/entities"
	domainerrors "almoner/contexts/distribution-core/airdrop-registry/domain/errors"
	"almoner/contexts/distribution-core/airdrop-registry/ports"
)

type GetRegistryUseCase struct {
	Registry ports.RegistryRepository
	Logger   *slog.Logger
}

func (uc GetRegistryUseCase) Execute(ctx context.Context) (entities.Registry, error) {
	return uc.Registry.GetRegistry(ctx)
}

type GetCampaignUseCase struct {
	Campaigns ports.CampaignRepository
	Logger    *slog.Logger
}

func (uc GetCampaignUseCase) Execute(ctx context.Context, campaignID string) (entities.Campaign, error) {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return entities.Campaign{}, domainerrors.ErrCampaignNotFound
	}
	return uc.Campaigns.GetCampaign(ctx, campaignID)
}

type ListCampaignsQuery struct {
	Creator string
	Phase   string
}

type ListCampaignsUseCase struct {
	Campaigns ports.CampaignRepository
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (uc ListCampaignsUseCase) Execute(ctx context.Context, query ListCampaignsQuery) ([]entities.Campaign, error) {
	logger := application.ResolveLogger(uc.Logger)

	filter := ports.CampaignFilter{
		Creator: strings.TrimSpace(query.Creator),
		Now:     uc.Clock.Now().UTC(),
	}
	switch entities.CampaignPhase(strings.TrimSpace(query.Phase)) {
	case "":
	case entities.CampaignPhasePending:
		filter.Phase = entities.CampaignPhasePending
	case entities.CampaignPhaseActive:
		filter.Phase = entities.CampaignPhaseActive
	default:
		return nil, domainerrors.ErrInvalidRegistryInput
	}

	items, err := uc.Campaigns.ListCampaigns(ctx, filter)
	if err != nil {
		return nil, err
	}

	logger.Debug("campaigns listed",
		"event", "campaigns_listed",
		"module", "distribution-core/airdrop-registry",
		"layer", "application",
		"count", len(items),
	)
	return items, nil
}
