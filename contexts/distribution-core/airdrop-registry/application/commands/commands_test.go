package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"almoner/contexts/distribution-core/airdrop-registry/adapters/memory"
	"almoner/contexts/distribution-core/airdrop-registry/domain/entities"
	domainerrors "almoner/contexts/distribution-core/airdrop-registry/domain/errors"
	"almoner/internal/platform/treasury"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type seqIDs struct {
	n int
}

func (g *seqIDs) NewID(_ context.Context) (string, error) {
	g.n++
	return fmt.Sprintf("id-%04d", g.n), nil
}

type fixture struct {
	store     *memory.Store
	ledger    *memory.Ledger
	authority *treasury.Authority
	clock     *testClock

	initialize     InitializeUseCase
	setOperators   SetOperatorsUseCase
	setFeeRate     SetFeeRateUseCase
	createCampaign CreateCampaignUseCase
	updateCampaign UpdateCampaignUseCase
	claim          ClaimUseCase
	withdrawFees   WithdrawFeesUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	authority := treasury.NewAuthority("test-registry", treasury.DefaultBump)
	ledger := memory.NewLedger(authority.Verify)
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	ids := &seqIDs{}

	return &fixture{
		store:     store,
		ledger:    ledger,
		authority: authority,
		clock:     clock,
		initialize: InitializeUseCase{
			Registry:  store,
			Authority: authority,
			Clock:     clock,
		},
		setOperators: SetOperatorsUseCase{Registry: store, Clock: clock},
		setFeeRate:   SetFeeRateUseCase{Registry: store, Clock: clock},
		createCampaign: CreateCampaignUseCase{
			Registry:       store,
			Campaigns:      store,
			Ledger:         ledger,
			Idempotency:    store,
			Outbox:         store,
			Clock:          clock,
			IDGenerator:    ids,
			IdempotencyTTL: time.Hour,
		},
		updateCampaign: UpdateCampaignUseCase{
			Registry:    store,
			Campaigns:   store,
			Ledger:      ledger,
			Outbox:      store,
			Clock:       clock,
			IDGenerator: ids,
		},
		claim: ClaimUseCase{
			Registry:          store,
			Campaigns:         store,
			Assets:            ledger,
			Authority:         authority,
			Clock:             clock,
			StrictReplayGuard: true,
		},
		withdrawFees: WithdrawFeesUseCase{Registry: store, Ledger: ledger},
	}
}

func (f *fixture) mustInitialize(t *testing.T, deployer string, feePerAsset uint64) entities.Registry {
	t.Helper()
	registry, err := f.initialize.Execute(context.Background(), InitializeCommand{
		Deployer:    deployer,
		FeePerAsset: feePerAsset,
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return registry
}

func (f *fixture) mustCreate(t *testing.T, creator string, campaignID string, assets []entities.Asset, startIn time.Duration) entities.Campaign {
	t.Helper()
	result, err := f.createCampaign.Execute(context.Background(), CreateCampaignCommand{
		Creator:        creator,
		IdempotencyKey: "key-" + campaignID,
		CampaignID:     campaignID,
		Assets:         assets,
		StartingTime:   f.clock.now.Add(startIn),
	})
	if err != nil {
		t.Fatalf("create campaign %s: %v", campaignID, err)
	}
	return result.Campaign
}

func TestInitializeRegistry(t *testing.T) {
	f := newFixture(t)

	registry := f.mustInitialize(t, "alice", 10)
	if registry.Administrator != "alice" {
		t.Fatalf("administrator = %q, want alice", registry.Administrator)
	}
	if len(registry.Operators) != 1 || registry.Operators[0] != "alice" {
		t.Fatalf("operators = %v, want [alice]", registry.Operators)
	}
	if registry.CustodyAccount != f.authority.Account() {
		t.Fatalf("custody account not derived from authority")
	}
	if registry.FeePerAsset != 10 {
		t.Fatalf("fee_per_asset = %d, want 10", registry.FeePerAsset)
	}

	_, err := f.initialize.Execute(context.Background(), InitializeCommand{Deployer: "bob"})
	if !errors.Is(err, domainerrors.ErrRegistryAlreadyInitialized) {
		t.Fatalf("second initialize err = %v, want ErrRegistryAlreadyInitialized", err)
	}
}

func TestInitializeRejectsEmptyDeployer(t *testing.T) {
	f := newFixture(t)
	_, err := f.initialize.Execute(context.Background(), InitializeCommand{Deployer: "   "})
	if !errors.Is(err, domainerrors.ErrInvalidRegistryInput) {
		t.Fatalf("err = %v, want ErrInvalidRegistryInput", err)
	}
}

func TestSetOperatorsRosterSemantics(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t, "alice", 0)
	ctx := context.Background()

	_, err := f.setOperators.Execute(ctx, SetOperatorsCommand{
		ActorID:   "alice",
		Operators: []string{"bob", "carol"},
		Additions: []bool{true},
	})
	if !errors.Is(err, domainerrors.ErrLengthsMismatch) {
		t.Fatalf("lengths mismatch err = %v", err)
	}

	_, err = f.setOperators.Execute(ctx, SetOperatorsCommand{
		ActorID:   "bob",
		Operators: []string{"bob"},
		Additions: []bool{true},
	})
	if !errors.Is(err, domainerrors.ErrNotAdministrator) {
		t.Fatalf("non-admin err = %v, want ErrNotAdministrator", err)
	}

	// Duplicate additions are kept verbatim.
	registry, err := f.setOperators.Execute(ctx, SetOperatorsCommand{
		ActorID:   "alice",
		Operators: []string{"bob", "bob", "carol"},
		Additions: []bool{true, true, true},
	})
	if err != nil {
		t.Fatalf("roster add: %v", err)
	}
	if len(registry.Operators) != 4 {
		t.Fatalf("roster = %v, want 4 entries with duplicate bob", registry.Operators)
	}

	// One removal deletes every occurrence.
	registry, err = f.setOperators.Execute(ctx, SetOperatorsCommand{
		ActorID:   "alice",
		Operators: []string{"bob"},
		Additions: []bool{false},
	})
	if err != nil {
		t.Fatalf("roster remove: %v", err)
	}
	for _, op := range registry.Operators {
		if op == "bob" {
			t.Fatalf("bob still on roster after removal: %v", registry.Operators)
		}
	}

	// The administrator may remove themselves; the roster may go empty.
	registry, err = f.setOperators.Execute(ctx, SetOperatorsCommand{
		ActorID:   "alice",
		Operators: []string{"alice", "carol"},
		Additions: []bool{false, false},
	})
	if err != nil {
		t.Fatalf("admin self-removal: %v", err)
	}
	if len(registry.Operators) != 0 {
		t.Fatalf("roster = %v, want empty", registry.Operators)
	}
	if registry.Administrator != "alice" {
		t.Fatalf("administrator changed on roster removal")
	}
}

func TestSetFeeRateRequiresOperator(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t, "alice", 5)
	ctx := context.Background()

	_, err := f.setFeeRate.Execute(ctx, SetFeeRateCommand{ActorID: "mallory", FeePerAsset: 1})
	if !errors.Is(err, domainerrors.ErrNotOperator) {
		t.Fatalf("err = %v, want ErrNotOperator", err)
	}

	registry, err := f.setFeeRate.Execute(ctx, SetFeeRateCommand{ActorID: "alice", FeePerAsset: 25})
	if err != nil {
		t.Fatalf("set fee rate: %v", err)
	}
	if registry.FeePerAsset != 25 {
		t.Fatalf("fee_per_asset = %d, want 25", registry.FeePerAsset)
	}

	// The administrator removed from the roster loses operator rights.
	if _, err := f.setOperators.Execute(ctx, SetOperatorsCommand{
		ActorID:   "alice",
		Operators: []string{"alice"},
		Additions: []bool{false},
	}); err != nil {
		t.Fatalf("remove admin from roster: %v", err)
	}
	_, err = f.setFeeRate.Execute(ctx, SetFeeRateCommand{ActorID: "alice", FeePerAsset: 1})
	if !errors.Is(err, domainerrors.ErrNotOperator) {
		t.Fatalf("err = %v, want ErrNotOperator for de-rostered admin", err)
	}
}

func TestCreateCampaignCollectsFee(t *testing.T) {
	f := newFixture(t)
	registry := f.mustInitialize(t, "alice", 10)
	f.ledger.CreditNative("carol", 100)

	campaign := f.mustCreate(t, "carol", "camp-1", []entities.Asset{
		{AssetAddress: "asset-a", AvailableAmount: 500},
		{AssetAddress: "asset-b", AvailableAmount: 0},
		{AssetAddress: "asset-c", AvailableAmount: 300},
	}, time.Hour)

	if campaign.FeePaid != 30 {
		t.Fatalf("fee_paid = %d, want 30", campaign.FeePaid)
	}
	if campaign.TotalAvailable != 800 {
		t.Fatalf("total_available = %d, want 800", campaign.TotalAvailable)
	}

	balance, _ := f.ledger.NativeBalance(context.Background(), "carol")
	if balance != 70 {
		t.Fatalf("creator balance = %d, want 70", balance)
	}
	custody, _ := f.ledger.NativeBalance(context.Background(), registry.CustodyAccount)
	if custody != 30 {
		t.Fatalf("custody balance = %d, want 30", custody)
	}
}

func TestCreateCampaignFailuresLeaveNoTrace(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t, "alice", 10)
	f.ledger.CreditNative("carol", 15)
	ctx := context.Background()

	// Fee is 20 but the creator holds 15: nothing is inserted and no fee moves.
	_, err := f.createCampaign.Execute(ctx, CreateCampaignCommand{
		Creator:        "carol",
		IdempotencyKey: "key-poor",
		CampaignID:     "camp-poor",
		Assets: []entities.Asset{
			{AssetAddress: "a", AvailableAmount: 1},
			{AssetAddress: "b", AvailableAmount: 1},
		},
		StartingTime: f.clock.now.Add(time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if _, err := f.store.GetCampaign(ctx, "camp-poor"); !errors.Is(err, domainerrors.ErrCampaignNotFound) {
		t.Fatalf("campaign persisted after failed fee collection")
	}
	balance, _ := f.ledger.NativeBalance(ctx, "carol")
	if balance != 15 {
		t.Fatalf("creator balance = %d, want untouched 15", balance)
	}

	// Starting time must be strictly in the future.
	_, err = f.createCampaign.Execute(ctx, CreateCampaignCommand{
		Creator:        "carol",
		IdempotencyKey: "key-past",
		CampaignID:     "camp-past",
		Assets:         []entities.Asset{{AssetAddress: "a", AvailableAmount: 1}},
		StartingTime:   f.clock.now,
	})
	if !errors.Is(err, domainerrors.ErrInvalidStartingTime) {
		t.Fatalf("err = %v, want ErrInvalidStartingTime", err)
	}
	balance, _ = f.ledger.NativeBalance(ctx, "carol")
	if balance != 15 {
		t.Fatalf("fee moved despite rejected starting time")
	}

	// Duplicate campaign IDs are reported ahead of other violations.
	f.mustCreate(t, "carol", "camp-dup", []entities.Asset{{AssetAddress: "a", AvailableAmount: 1}}, time.Hour)
	_, err = f.createCampaign.Execute(ctx, CreateCampaignCommand{
		Creator:        "carol",
		IdempotencyKey: "key-dup-2",
		CampaignID:     "camp-dup",
		Assets:         []entities.Asset{{AssetAddress: "a", AvailableAmount: 1}},
		StartingTime:   f.clock.now, // also invalid, uniqueness wins
	})
	if !errors.Is(err, domainerrors.ErrCampaignAlreadyExists) {
		t.Fatalf("err = %v, want ErrCampaignAlreadyExists", err)
	}
}

func TestCreateCampaignZeroFee(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t, "alice", 0)

	// No native balance needed when the rate is zero.
	campaign := f.mustCreate(t, "carol", "camp-free", []entities.Asset{
		{AssetAddress: "a", AvailableAmount: 100},
	}, time.Hour)
	if campaign.FeePaid != 0 {
		t.Fatalf("fee_paid = %d, want 0", campaign.FeePaid)
	}
}

func TestCreateCampaignIdempotentReplay(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t, "alice", 10)
	f.ledger.CreditNative("carol", 100)
	ctx := context.Background()

	cmd := CreateCampaignCommand{
		Creator:        "carol",
		IdempotencyKey: "key-1",
		CampaignID:     "camp-1",
		Assets:         []entities.Asset{{AssetAddress: "a", AvailableAmount: 10}},
		StartingTime:   f.clock.now.Add(time.Hour),
	}
	first, err := f.createCampaign.Execute(ctx, cmd)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	replay, err := f.createCampaign.Execute(ctx, cmd)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replay.Replayed {
		t.Fatalf("replay not flagged")
	}
	if replay.Campaign.CampaignID != first.Campaign.CampaignID {
		t.Fatalf("replay returned different campaign")
	}

	// Replays do not double-charge the fee.
	balance, _ := f.ledger.NativeBalance(ctx, "carol")
	if balance != 90 {
		t.Fatalf("creator balance = %d, want 90 after one fee", balance)
	}

	// Same key with a divergent payload is a conflict.
	cmd.Assets = []entities.Asset{{AssetAddress: "b", AvailableAmount: 10}}
	_, err = f.createCampaign.Execute(ctx, cmd)
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyConflict) {
		t.Fatalf("err = %v, want ErrIdempotencyKeyConflict", err)
	}

	// The key is required.
	cmd.IdempotencyKey = ""
	cmd.CampaignID = "camp-2"
	_, err = f.createCampaign.Execute(ctx, cmd)
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("err = %v, want ErrIdempotencyKeyRequired", err)
	}
}

func TestUpdateCampaignFeeTopUpIsOneDirectional(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t, "alice", 10)
	f.ledger.CreditNative("carol", 100)
	ctx := context.Background()

	f.mustCreate(t, "carol", "camp-1", []entities.Asset{
		{AssetAddress: "a", AvailableAmount: 10},
		{AssetAddress: "b", AvailableAmount: 20},
	}, time.Hour) // fee 20, balance 80

	// Growing to three assets owes 30; only the 10 delta is collected.
	result, err := f.updateCampaign.Execute(ctx, UpdateCampaignCommand{
		ActorID:    "carol",
		CampaignID: "camp-1",
		Assets: []entities.Asset{
			{AssetAddress: "a", AvailableAmount: 10},
			{AssetAddress: "b", AvailableAmount: 20},
			{AssetAddress: "c", AvailableAmount: 30},
		},
		StartingTime: f.clock.now.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("grow update: %v", err)
	}
	if result.Campaign.FeePaid != 30 {
		t.Fatalf("fee_paid = %d, want 30", result.Campaign.FeePaid)
	}
	balance, _ := f.ledger.NativeBalance(ctx, "carol")
	if balance != 70 {
		t.Fatalf("balance = %d, want 70 after 10 top-up", balance)
	}

	// Shrinking to one asset owes 10; nothing is refunded, but the recorded
	// fee follows the new asset list.
	result, err = f.updateCampaign.Execute(ctx, UpdateCampaignCommand{
		ActorID:      "carol",
		CampaignID:   "camp-1",
		Assets:       []entities.Asset{{AssetAddress: "a", AvailableAmount: 5}},
		StartingTime: f.clock.now.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("shrink update: %v", err)
	}
	if result.Campaign.FeePaid != 10 {
		t.Fatalf("fee_paid = %d, want 10 for one asset", result.Campaign.FeePaid)
	}
	if result.Campaign.TotalAvailable != 5 {
		t.Fatalf("total_available = %d, want 5", result.Campaign.TotalAvailable)
	}
	balance, _ = f.ledger.NativeBalance(ctx, "carol")
	if balance != 70 {
		t.Fatalf("balance = %d, want unchanged 70", balance)
	}

	// Growing back to two assets charges the delta against the recorded 10,
	// not against the 30 that was once paid.
	result, err = f.updateCampaign.Execute(ctx, UpdateCampaignCommand{
		ActorID:    "carol",
		CampaignID: "camp-1",
		Assets: []entities.Asset{
			{AssetAddress: "a", AvailableAmount: 5},
			{AssetAddress: "b", AvailableAmount: 5},
		},
		StartingTime: f.clock.now.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("regrow update: %v", err)
	}
	if result.Campaign.FeePaid != 20 {
		t.Fatalf("fee_paid = %d, want 20 for two assets", result.Campaign.FeePaid)
	}
	balance, _ = f.ledger.NativeBalance(ctx, "carol")
	if balance != 60 {
		t.Fatalf("balance = %d, want 60 after 10 regrow top-up", balance)
	}
}

func TestUpdateCampaignGuards(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t, "alice", 0)
	ctx := context.Background()

	f.mustCreate(t, "carol", "camp-1", []entities.Asset{{AssetAddress: "a", AvailableAmount: 1}}, time.Hour)

	_, err := f.updateCampaign.Execute(ctx, UpdateCampaignCommand{
		ActorID:      "mallory",
		CampaignID:   "camp-1",
		Assets:       []entities.Asset{{AssetAddress: "a", AvailableAmount: 1}},
		StartingTime: f.clock.now.Add(2 * time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrNotCampaignCreator) {
		t.Fatalf("err = %v, want ErrNotCampaignCreator", err)
	}

	_, err = f.updateCampaign.Execute(ctx, UpdateCampaignCommand{
		ActorID:      "carol",
		CampaignID:   "missing",
		Assets:       []entities.Asset{{AssetAddress: "a", AvailableAmount: 1}},
		StartingTime: f.clock.now.Add(2 * time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrCampaignNotFound) {
		t.Fatalf("err = %v, want ErrCampaignNotFound", err)
	}

	// New starting time must itself be in the future.
	_, err = f.updateCampaign.Execute(ctx, UpdateCampaignCommand{
		ActorID:      "carol",
		CampaignID:   "camp-1",
		Assets:       []entities.Asset{{AssetAddress: "a", AvailableAmount: 1}},
		StartingTime: f.clock.now.Add(-time.Minute),
	})
	if !errors.Is(err, domainerrors.ErrInvalidStartingTime) {
		t.Fatalf("err = %v, want ErrInvalidStartingTime", err)
	}

	// Once started, no update is possible regardless of the new time.
	f.clock.Advance(2 * time.Hour)
	_, err = f.updateCampaign.Execute(ctx, UpdateCampaignCommand{
		ActorID:      "carol",
		CampaignID:   "camp-1",
		Assets:       []entities.Asset{{AssetAddress: "a", AvailableAmount: 1}},
		StartingTime: f.clock.now.Add(time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrUpdateNotAllowed) {
		t.Fatalf("err = %v, want ErrUpdateNotAllowed", err)
	}
}

func TestClaimPaysOutAndPrunesExhaustedCampaign(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t, "alice", 0)
	ctx := context.Background()

	f.ledger.CreditAsset("asset-a", "carol", 500)
	f.ledger.CreditAsset("asset-b", "carol", 300)
	f.mustCreate(t, "carol", "camp-1", []entities.Asset{
		{AssetAddress: "asset-a", AvailableAmount: 500},
		{AssetAddress: "asset-b", AvailableAmount: 300},
	}, time.Hour)
	f.clock.Advance(time.Hour) // exactly at starting time: distribution allowed

	result, err := f.claim.Execute(ctx, ClaimCommand{
		OperatorID:   "alice",
		CampaignID:   "camp-1",
		Creator:      "carol",
		AssetIndex:   0,
		AssetAddress: "asset-a",
		Recipient:    "rcpt-1",
	})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if result.Amount != 500 {
		t.Fatalf("amount = %d, want full 500", result.Amount)
	}
	if result.Exhausted {
		t.Fatalf("campaign reported exhausted with asset-b remaining")
	}
	got, _ := f.ledger.AssetBalance(ctx, "asset-a", "rcpt-1")
	if got != 500 {
		t.Fatalf("recipient balance = %d, want 500", got)
	}
	remaining, err := f.store.GetCampaign(ctx, "camp-1")
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if remaining.TotalAvailable != 300 {
		t.Fatalf("total_available = %d, want 300", remaining.TotalAvailable)
	}
	if remaining.Assets[0].AvailableAmount != 0 {
		t.Fatalf("claimed slot not zeroed")
	}

	// Draining the last asset removes the campaign.
	result, err = f.claim.Execute(ctx, ClaimCommand{
		OperatorID:   "alice",
		CampaignID:   "camp-1",
		Creator:      "carol",
		AssetIndex:   1,
		AssetAddress: "asset-b",
		Recipient:    "rcpt-2",
	})
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if !result.Exhausted {
		t.Fatalf("exhaustion not reported")
	}
	if _, err := f.store.GetCampaign(ctx, "camp-1"); !errors.Is(err, domainerrors.ErrCampaignNotFound) {
		t.Fatalf("exhausted campaign still present: %v", err)
	}
}

func TestClaimGuards(t *testing.T) {
	f := newFixture(t)
	f.mustInitialize(t, "alice", 0)
	ctx := context.Background()

	f.ledger.CreditAsset("asset-a", "carol", 100)
	f.mustCreate(t, "carol", "camp-1", []entities.Asset{
		{AssetAddress: "asset-a", AvailableAmount: 100},
		{AssetAddress: "asset-b", AvailableAmount: 50},
	}, time.Hour)

	base := ClaimCommand{
		OperatorID:   "alice",
		CampaignID:   "camp-1",
		Creator:      "carol",
		AssetIndex:   0,
		AssetAddress: "asset-a",
		Recipient:    "rcpt",
	}

	cmd := base
	cmd.OperatorID = "mallory"
	if _, err := f.claim.Execute(ctx, cmd); !errors.Is(err, domainerrors.ErrNotOperator) {
		t.Fatalf("err = %v, want ErrNotOperator", err)
	}

	// Creator mismatch reads as a missing campaign.
	cmd = base
	cmd.Creator = "eve"
	if _, err := f.claim.Execute(ctx, cmd); !errors.Is(err, domainerrors.ErrCampaignNotFound) {
		t.Fatalf("err = %v, want ErrCampaignNotFound", err)
	}

	// Not started yet.
	if _, err := f.claim.Execute(ctx, base); !errors.Is(err, domainerrors.ErrCampaignNotStarted) {
		t.Fatalf("err = %v, want ErrCampaignNotStarted", err)
	}

	f.clock.Advance(2 * time.Hour)

	cmd = base
	cmd.AssetIndex = 5
	if _, err := f.claim.Execute(ctx, cmd); !errors.Is(err, domainerrors.ErrInvalidAssetIndex) {
		t.Fatalf("err = %v, want ErrInvalidAssetIndex", err)
	}

	cmd = base
	cmd.AssetAddress = "asset-b"
	if _, err := f.claim.Execute(ctx, cmd); !errors.Is(err, domainerrors.ErrAssetMismatch) {
		t.Fatalf("err = %v, want ErrAssetMismatch", err)
	}

	if _, err := f.claim.Execute(ctx, base); err != nil {
		t.Fatalf("claim: %v", err)
	}

	// Re-claiming the drained slot is rejected under the strict guard.
	if _, err := f.claim.Execute(ctx, base); !errors.Is(err, domainerrors.ErrAssetAlreadyClaimed) {
		t.Fatalf("err = %v, want ErrAssetAlreadyClaimed", err)
	}
}

func TestClaimDrainedSlotWithoutStrictGuard(t *testing.T) {
	f := newFixture(t)
	f.claim.StrictReplayGuard = false
	f.mustInitialize(t, "alice", 0)
	ctx := context.Background()

	f.ledger.CreditAsset("asset-a", "carol", 100)
	f.mustCreate(t, "carol", "camp-1", []entities.Asset{
		{AssetAddress: "asset-a", AvailableAmount: 100},
		{AssetAddress: "asset-b", AvailableAmount: 50},
	}, time.Hour)
	f.clock.Advance(2 * time.Hour)

	cmd := ClaimCommand{
		OperatorID:   "alice",
		CampaignID:   "camp-1",
		Creator:      "carol",
		AssetIndex:   0,
		AssetAddress: "asset-a",
		Recipient:    "rcpt",
	}
	if _, err := f.claim.Execute(ctx, cmd); err != nil {
		t.Fatalf("claim: %v", err)
	}

	// Without the guard the repeat claim settles as a zero-amount no-op.
	result, err := f.claim.Execute(ctx, cmd)
	if err != nil {
		t.Fatalf("repeat claim: %v", err)
	}
	if result.Amount != 0 {
		t.Fatalf("amount = %d, want 0", result.Amount)
	}
	got, _ := f.ledger.AssetBalance(ctx, "asset-a", "rcpt")
	if got != 100 {
		t.Fatalf("recipient balance = %d, want unchanged 100", got)
	}
}

func TestWithdrawFeesDrainsCustody(t *testing.T) {
	f := newFixture(t)
	registry := f.mustInitialize(t, "alice", 10)
	f.ledger.CreditNative("carol", 100)
	ctx := context.Background()

	f.mustCreate(t, "carol", "camp-1", []entities.Asset{
		{AssetAddress: "a", AvailableAmount: 1},
		{AssetAddress: "b", AvailableAmount: 1},
	}, time.Hour) // custody now holds 20

	_, err := f.withdrawFees.Execute(ctx, WithdrawFeesCommand{ActorID: "carol", Recipient: "alice-payout"})
	if !errors.Is(err, domainerrors.ErrNotAdministrator) {
		t.Fatalf("err = %v, want ErrNotAdministrator", err)
	}

	result, err := f.withdrawFees.Execute(ctx, WithdrawFeesCommand{ActorID: "alice", Recipient: "alice-payout"})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if result.Amount != 20 {
		t.Fatalf("amount = %d, want 20", result.Amount)
	}
	custody, _ := f.ledger.NativeBalance(ctx, registry.CustodyAccount)
	if custody != 0 {
		t.Fatalf("custody balance = %d, want 0", custody)
	}

	// A second withdrawal drains zero and still succeeds.
	result, err = f.withdrawFees.Execute(ctx, WithdrawFeesCommand{ActorID: "alice", Recipient: "alice-payout"})
	if err != nil {
		t.Fatalf("second withdraw: %v", err)
	}
	if result.Amount != 0 {
		t.Fatalf("amount = %d, want 0", result.Amount)
	}
}

func TestOperationsRequireInitializedRegistry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.createCampaign.Execute(ctx, CreateCampaignCommand{
		Creator:        "carol",
		IdempotencyKey: "key",
		CampaignID:     "camp",
		Assets:         []entities.Asset{{AssetAddress: "a", AvailableAmount: 1}},
		StartingTime:   f.clock.now.Add(time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrRegistryNotInitialized) {
		t.Fatalf("create err = %v, want ErrRegistryNotInitialized", err)
	}

	_, err = f.setFeeRate.Execute(ctx, SetFeeRateCommand{ActorID: "alice", FeePerAsset: 1})
	if !errors.Is(err, domainerrors.ErrRegistryNotInitialized) {
		t.Fatalf("set fee rate err = %v, want ErrRegistryNotInitialized", err)
	}
}
