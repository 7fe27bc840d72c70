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

type SetOperatorsCommand struct {
	ActorID   string
	Operators []string
	Additions []bool
}

// SetOperatorsUseCase applies a batch roster change: pairwise add/remove by
// position. The whole batch applies in one atomic registry update.
type SetOperatorsUseCase struct {
	Registry ports.RegistryRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (uc SetOperatorsUseCase) Execute(ctx context.Context, cmd SetOperatorsCommand) (entities.Registry, error) {
	logger := application.ResolveLogger(uc.Logger)

	if len(cmd.Operators) != len(cmd.Additions) {
		return entities.Registry{}, domainerrors.ErrLengthsMismatch
	}
	for _, identity := range cmd.Operators {
		if strings.TrimSpace(identity) == "" {
			return entities.Registry{}, domainerrors.ErrInvalidRegistryInput
		}
	}

	now := uc.Clock.Now().UTC()
	registry, err := uc.Registry.UpdateRegistry(ctx, func(r *entities.Registry) error {
		if !r.IsAdministrator(cmd.ActorID) {
			return domainerrors.ErrNotAdministrator
		}
		for i, identity := range cmd.Operators {
			r.ApplyRosterChange(identity, cmd.Additions[i])
		}
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return entities.Registry{}, err
	}

	logger.Info("operator roster updated",
		"event", "registry_operators_updated",
		"module", "distribution-core/airdrop-registry",
		"layer", "application",
		"actor_id", strings.TrimSpace(cmd.ActorID),
		"change_count", len(cmd.Operators),
		"roster_size", len(registry.Operators),
	)
	return registry, nil
}

type SetFeeRateCommand struct {
	ActorID     string
	FeePerAsset uint64
}

// SetFeeRateUseCase replaces the per-asset fee rate. Any operator may call
// it; campaigns already created keep the fee they paid.
type SetFeeRateUseCase struct {
	Registry ports.RegistryRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (uc SetFeeRateUseCase) Execute(ctx context.Context, cmd SetFeeRateCommand) (entities.Registry, error) {
	logger := application.ResolveLogger(uc.Logger)

	now := uc.Clock.Now().UTC()
	registry, err := uc.Registry.UpdateRegistry(ctx, func(r *entities.Registry) error {
		if !r.IsOperator(cmd.ActorID) {
			return domainerrors.ErrNotOperator
		}
		r.FeePerAsset = cmd.FeePerAsset
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return entities.Registry{}, err
	}

	logger.Info("fee rate updated",
		"event", "registry_fee_rate_updated",
		"module", "distribution-core/airdrop-registry",
		"layer", "application",
		"actor_id", strings.TrimSpace(cmd.ActorID),
		"fee_per_asset", registry.FeePerAsset,
	)
	return registry, nil
}
