package commands

import (
	"context"
	"log/slog"
	"strings"

	application "almoner/contexts/distribution-core/airdrop-registry/application"
	domainerrors "almoner/contexts/distribution-core/airdrop-registry/domain/errors"
	"almoner/contexts/distribution-core/airdrop-registry/ports"
)

type WithdrawFeesCommand struct {
	ActorID   string
	Recipient string
}

// WithdrawFeesUseCase drains the registry custody account in full into the
// recipient. Only the administrator may call it; a zero balance withdraws
// zero and succeeds.
type WithdrawFeesUseCase struct {
	Registry ports.RegistryRepository
	Ledger   ports.NativeLedger
	Logger   *slog.Logger
}

type WithdrawFeesResult struct {
	Amount    uint64
	Recipient string
}

func (uc WithdrawFeesUseCase) Execute(ctx context.Context, cmd WithdrawFeesCommand) (WithdrawFeesResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	recipient := strings.TrimSpace(cmd.Recipient)
	if recipient == "" {
		return WithdrawFeesResult{}, domainerrors.ErrInvalidRegistryInput
	}

	registry, err := uc.Registry.GetRegistry(ctx)
	if err != nil {
		return WithdrawFeesResult{}, err
	}
	if !registry.IsAdministrator(cmd.ActorID) {
		return WithdrawFeesResult{}, domainerrors.ErrNotAdministrator
	}

	amount, err := uc.Ledger.DrainNative(ctx, registry.CustodyAccount, recipient)
	if err != nil {
		return WithdrawFeesResult{}, err
	}

	logger.Info("custody fees withdrawn",
		"event", "registry_fees_withdrawn",
		"module", "distribution-core/airdrop-registry",
		"layer", "application",
		"recipient", recipient,
		"amount", amount,
	)
	return WithdrawFeesResult{Amount: amount, Recipient: recipient}, nil
}
