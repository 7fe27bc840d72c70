package entities

import "time"

type CampaignPhase string

const (
	CampaignPhasePending CampaignPhase = "pending"
	CampaignPhaseActive  CampaignPhase = "active"
)

// Asset is one allotment inside a campaign: a value-type identity plus the
// remaining claimable amount. Claims address assets by positional index.
type Asset struct {
	AssetAddress    string
	AvailableAmount uint64
}

type Campaign struct {
	CampaignID     string
	Creator        string
	Assets         []Asset
	StartingTime   time.Time
	TotalAvailable uint64
	FeePaid        uint64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TotalAvailable sums the available amounts of assets. Zero-amount assets are
// accepted verbatim; they are legal but immediately dead.
func TotalAvailable(assets []Asset) uint64 {
	var total uint64
	for _, asset := range assets {
		total += asset.AvailableAmount
	}
	return total
}

// ValidStartingTime requires the starting time to be strictly in the future.
func ValidStartingTime(startingTime time.Time, now time.Time) bool {
	return startingTime.UTC().After(now.UTC())
}

// Started reports whether distribution is permitted (now >= starting time).
func (c Campaign) Started(now time.Time) bool {
	return !now.UTC().Before(c.StartingTime.UTC())
}

// CanUpdate requires the current time to be strictly before the campaign's
// current starting time. An already-started campaign can never be updated,
// regardless of the new time proposed.
func (c Campaign) CanUpdate(now time.Time) bool {
	return now.UTC().Before(c.StartingTime.UTC())
}

func (c Campaign) Phase(now time.Time) CampaignPhase {
	if c.Started(now) {
		return CampaignPhaseActive
	}
	return CampaignPhasePending
}

// AssetAt returns the asset at the positional index, reporting whether the
// index is within bounds.
func (c Campaign) AssetAt(index int) (Asset, bool) {
	if index < 0 || index >= len(c.Assets) {
		return Asset{}, false
	}
	return c.Assets[index], true
}

// CloneAssets returns an independent copy of the asset sequence.
func CloneAssets(assets []Asset) []Asset {
	if len(assets) == 0 {
		return []Asset{}
	}
	return append([]Asset(nil), assets...)
}

// Clone returns a deep copy safe to hand outside a store's lock.
func (c Campaign) Clone() Campaign {
	clone := c
	clone.Assets = CloneAssets(c.Assets)
	return clone
}
