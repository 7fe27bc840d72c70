package config

import (
	"os"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	StoreBackend string
	PostgresDSN  string
	BoltPath     string
	KafkaBrokers []string

	AuthoritySeed string

	EnableClaimReplayGuard      bool
	EnableCampaignEventEmission bool
}

const (
	StoreBackendMemory   = "memory"
	StoreBackendBolt     = "bolt"
	StoreBackendPostgres = "postgres"
)

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "almoner"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	backend := strings.TrimSpace(strings.ToLower(os.Getenv("STORE_BACKEND")))
	switch backend {
	case StoreBackendMemory, StoreBackendBolt, StoreBackendPostgres:
	default:
		backend = StoreBackendMemory
	}

	boltPath := os.Getenv("BOLT_PATH")
	if boltPath == "" {
		boltPath = "almoner.db"
	}

	seed := os.Getenv("AUTHORITY_SEED")
	if seed == "" {
		seed = "airdrop-registry"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		StoreBackend: backend,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		BoltPath:     boltPath,
		KafkaBrokers: brokers,

		AuthoritySeed: seed,

		EnableClaimReplayGuard:      envBool("ENABLE_CLAIM_REPLAY_GUARD", true),
		EnableCampaignEventEmission: envBool("ENABLE_CAMPAIGN_EVENT_EMISSION", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
