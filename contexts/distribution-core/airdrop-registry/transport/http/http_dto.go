package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AssetDTO struct {
	AssetAddress    string `json:"asset_address"`
	AvailableAmount uint64 `json:"available_amount"`
}

type RegistryDTO struct {
	Administrator  string   `json:"administrator"`
	FeePerAsset    uint64   `json:"fee_per_asset"`
	Operators      []string `json:"operators"`
	CustodyAccount string   `json:"custody_account"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

type CampaignDTO struct {
	CampaignID     string     `json:"campaign_id"`
	Creator        string     `json:"creator"`
	Assets         []AssetDTO `json:"assets"`
	StartingTime   int64      `json:"starting_time"`
	TotalAvailable uint64     `json:"total_available"`
	FeePaid        uint64     `json:"fee_paid"`
	Phase          string     `json:"phase"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
}

type InitializeRegistryRequest struct {
	FeePerAsset uint64 `json:"fee_per_asset"`
}

type RegistryResponse struct {
	Registry RegistryDTO `json:"registry"`
}

type SetOperatorsRequest struct {
	Operators []string `json:"operators"`
	Additions []bool   `json:"additions"`
}

type SetFeeRateRequest struct {
	FeePerAsset uint64 `json:"fee_per_asset"`
}

type WithdrawFeesRequest struct {
	Recipient string `json:"recipient"`
}

type WithdrawFeesResponse struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

type CreateCampaignRequest struct {
	CampaignID   string     `json:"campaign_id"`
	Assets       []AssetDTO `json:"assets"`
	StartingTime int64      `json:"starting_time"`
}

type CreateCampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
	Replayed bool        `json:"replayed"`
}

type UpdateCampaignRequest struct {
	Assets       []AssetDTO `json:"assets"`
	StartingTime int64      `json:"starting_time"`
}

type UpdateCampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
}

type ClaimRequest struct {
	Creator      string `json:"creator"`
	AssetIndex   int    `json:"asset_index"`
	AssetAddress string `json:"asset_address"`
	Recipient    string `json:"recipient"`
}

type ClaimResponse struct {
	CampaignID     string `json:"campaign_id"`
	AssetIndex     int    `json:"asset_index"`
	AssetAddress   string `json:"asset_address"`
	Recipient      string `json:"recipient"`
	Amount         uint64 `json:"amount"`
	TotalAvailable uint64 `json:"total_available"`
	Exhausted      bool   `json:"exhausted"`
}

type GetCampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
}

type ListCampaignsResponse struct {
	Items []CampaignDTO `json:"items"`
}
