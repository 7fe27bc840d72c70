package airdropregistry

import (
	"log/slog"
	"time"

	httpadapter "almoner/contexts/distribution-core/airdrop-registry/adapters/http"
	"almoner/contexts/distribution-core/airdrop-registry/adapters/memory"
	"almoner/contexts/distribution-core/airdrop-registry/application/commands"
	"almoner/contexts/distribution-core/airdrop-registry/application/queries"
	"almoner/contexts/distribution-core/airdrop-registry/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
	Ledger  *memory.Ledger
}

type Dependencies struct {
	Registry          ports.RegistryRepository
	Campaigns         ports.CampaignRepository
	Idempotency       ports.IdempotencyStore
	Outbox            ports.OutboxWriter
	Native            ports.NativeLedger
	Assets            ports.AssetLedger
	Authority         ports.TransferAuthority
	Clock             ports.Clock
	IDGenerator       ports.IDGenerator
	IdempotencyTTL    time.Duration
	StrictReplayGuard bool
	Logger            *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Handler: httpadapter.Handler{
			Clock: deps.Clock,
			Initialize: commands.InitializeUseCase{
				Registry:  deps.Registry,
				Authority: deps.Authority,
				Clock:     deps.Clock,
				Logger:    deps.Logger,
			},
			SetOperators: commands.SetOperatorsUseCase{
				Registry: deps.Registry,
				Clock:    deps.Clock,
				Logger:   deps.Logger,
			},
			SetFeeRate: commands.SetFeeRateUseCase{
				Registry: deps.Registry,
				Clock:    deps.Clock,
				Logger:   deps.Logger,
			},
			CreateCampaign: commands.CreateCampaignUseCase{
				Registry:       deps.Registry,
				Campaigns:      deps.Campaigns,
				Ledger:         deps.Native,
				Idempotency:    deps.Idempotency,
				Outbox:         deps.Outbox,
				Clock:          deps.Clock,
				IDGenerator:    deps.IDGenerator,
				IdempotencyTTL: deps.IdempotencyTTL,
				Logger:         deps.Logger,
			},
			UpdateCampaign: commands.UpdateCampaignUseCase{
				Registry:    deps.Registry,
				Campaigns:   deps.Campaigns,
				Ledger:      deps.Native,
				Outbox:      deps.Outbox,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			Claim: commands.ClaimUseCase{
				Registry:          deps.Registry,
				Campaigns:         deps.Campaigns,
				Assets:            deps.Assets,
				Authority:         deps.Authority,
				Clock:             deps.Clock,
				StrictReplayGuard: deps.StrictReplayGuard,
				Logger:            deps.Logger,
			},
			WithdrawFees: commands.WithdrawFeesUseCase{
				Registry: deps.Registry,
				Ledger:   deps.Native,
				Logger:   deps.Logger,
			},
			GetRegistry: queries.GetRegistryUseCase{
				Registry: deps.Registry,
				Logger:   deps.Logger,
			},
			GetCampaign: queries.GetCampaignUseCase{
				Campaigns: deps.Campaigns,
				Logger:    deps.Logger,
			},
			ListCampaigns: queries.ListCampaignsUseCase{
				Campaigns: deps.Campaigns,
				Clock:     deps.Clock,
				Logger:    deps.Logger,
			},
		},
	}
}

// NewInMemoryModule wires the module against the in-memory store and ledger.
// The ledger verifies transfer proofs with the provided verify function,
// normally the authority's own Verify method.
func NewInMemoryModule(
	authority ports.TransferAuthority,
	verify memory.VerifyFunc,
	strictReplayGuard bool,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	ledger := memory.NewLedger(verify)
	module := NewModule(Dependencies{
		Registry:          store,
		Campaigns:         store,
		Idempotency:       store,
		Outbox:            store,
		Native:            ledger,
		Assets:            ledger,
		Authority:         authority,
		Clock:             store,
		IDGenerator:       store,
		IdempotencyTTL:    7 * 24 * time.Hour,
		StrictReplayGuard: strictReplayGuard,
		Logger:            logger,
	})
	module.Store = store
	module.Ledger = ledger
	return module
}
