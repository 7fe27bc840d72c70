package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"almoner/contexts/distribution-core/airdrop-registry/adapters/memory"
	"almoner/contexts/distribution-core/airdrop-registry/domain/entities"
	domainerrors "almoner/contexts/distribution-core/airdrop-registry/domain/errors"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func seedStore(t *testing.T) (*memory.Store, time.Time) {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := store.CreateRegistry(ctx, entities.Registry{
		Administrator: "alice",
		Operators:     []string{"alice"},
	}); err != nil {
		t.Fatalf("seed registry: %v", err)
	}
	campaigns := []entities.Campaign{
		{CampaignID: "c-pending", Creator: "carol", StartingTime: now.Add(time.Hour), TotalAvailable: 5},
		{CampaignID: "c-active", Creator: "carol", StartingTime: now.Add(-time.Hour), TotalAvailable: 5},
		{CampaignID: "c-other", Creator: "dave", StartingTime: now.Add(-time.Hour), TotalAvailable: 5},
	}
	for _, c := range campaigns {
		if err := store.InsertCampaign(ctx, c, nil); err != nil {
			t.Fatalf("seed campaign %s: %v", c.CampaignID, err)
		}
	}
	return store, now
}

func TestGetRegistry(t *testing.T) {
	store, _ := seedStore(t)
	uc := GetRegistryUseCase{Registry: store}

	registry, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("get registry: %v", err)
	}
	if registry.Administrator != "alice" {
		t.Fatalf("administrator = %q", registry.Administrator)
	}
}

func TestGetCampaign(t *testing.T) {
	store, _ := seedStore(t)
	uc := GetCampaignUseCase{Campaigns: store}
	ctx := context.Background()

	campaign, err := uc.Execute(ctx, "c-active")
	if err != nil || campaign.Creator != "carol" {
		t.Fatalf("get = %+v, %v", campaign, err)
	}
	if _, err := uc.Execute(ctx, "missing"); !errors.Is(err, domainerrors.ErrCampaignNotFound) {
		t.Fatalf("err = %v, want ErrCampaignNotFound", err)
	}
	if _, err := uc.Execute(ctx, "  "); !errors.Is(err, domainerrors.ErrCampaignNotFound) {
		t.Fatalf("blank id err = %v, want ErrCampaignNotFound", err)
	}
}

func TestListCampaignsFilters(t *testing.T) {
	store, now := seedStore(t)
	uc := ListCampaignsUseCase{Campaigns: store, Clock: fixedClock{now: now}}
	ctx := context.Background()

	items, err := uc.Execute(ctx, ListCampaignsQuery{})
	if err != nil || len(items) != 3 {
		t.Fatalf("all = %d items, %v", len(items), err)
	}

	items, err = uc.Execute(ctx, ListCampaignsQuery{Creator: "carol"})
	if err != nil || len(items) != 2 {
		t.Fatalf("creator filter = %d items, %v", len(items), err)
	}

	items, err = uc.Execute(ctx, ListCampaignsQuery{Phase: "pending"})
	if err != nil || len(items) != 1 || items[0].CampaignID != "c-pending" {
		t.Fatalf("phase filter = %v, %v", items, err)
	}

	items, err = uc.Execute(ctx, ListCampaignsQuery{Creator: "dave", Phase: "active"})
	if err != nil || len(items) != 1 || items[0].CampaignID != "c-other" {
		t.Fatalf("combined filter = %v, %v", items, err)
	}

	if _, err := uc.Execute(ctx, ListCampaignsQuery{Phase: "finished"}); !errors.Is(err, domainerrors.ErrInvalidRegistryInput) {
		t.Fatalf("unknown phase err = %v, want ErrInvalidRegistryInput", err)
	}
}
