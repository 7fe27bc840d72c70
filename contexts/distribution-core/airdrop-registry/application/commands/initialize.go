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

type InitializeCommand struct {
	Deployer    string
	FeePerAsset uint64
}

// InitializeUseCase creates the singleton registry record. The deployer
// becomes administrator and the sole initial operator; the custody account
// and authority bump come from the derived transfer authority.
type InitializeUseCase struct {
	Registry  ports.RegistryRepository
	Authority ports.TransferAuthority
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (uc InitializeUseCase) Execute(ctx context.Context, cmd InitializeCommand) (entities.Registry, error) {
	logger := application.ResolveLogger(uc.Logger)

	deployer := strings.TrimSpace(cmd.Deployer)
	if deployer == "" {
		return entities.Registry{}, domainerrors.ErrInvalidRegistryInput
	}

	now := uc.Clock.Now().UTC()
	registry := entities.Registry{
		Administrator:  deployer,
		FeePerAsset:    cmd.FeePerAsset,
		Operators:      []string{deployer},
		AuthorityBump:  uc.Authority.Bump(),
		CustodyAccount: uc.Authority.Account(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.Registry.CreateRegistry(ctx, registry); err != nil {
		return entities.Registry{}, err
	}

	logger.Info("registry initialized",
		"event", "registry_initialized",
		"module", "distribution-core/airdrop-registry",
		"layer", "application",
		"administrator", registry.Administrator,
		"fee_per_asset", registry.FeePerAsset,
	)
	return registry, nil
}
