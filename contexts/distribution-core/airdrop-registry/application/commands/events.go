package commands

import (
	"encoding/json"
	"time"

	"almoner/contexts/distribution-core/airdrop-registry/domain/entities"
	"almoner/contexts/distribution-core/airdrop-registry/ports"
)

func newRegistryEnvelope(
	eventID string,
	eventType string,
	campaignID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "airdrop-registry",
		SchemaVersion:    1,
		PartitionKeyPath: "campaign_id",
		PartitionKey:     campaignID,
		Data:             raw,
	}, nil
}

func assetEventPayload(assets []entities.Asset) []map[string]any {
	items := make([]map[string]any, 0, len(assets))
	for _, asset := range assets {
		items = append(items, map[string]any{
			"asset_address":    asset.AssetAddress,
			"available_amount": asset.AvailableAmount,
		})
	}
	return items
}
