package errors

import "errors"

var (
	ErrRegistryNotInitialized     = errors.New("airdrop registry is not initialized")
	ErrRegistryAlreadyInitialized = errors.New("airdrop registry is already initialized")
	ErrNotAdministrator           = errors.New("caller is not the registry administrator")
	ErrNotOperator                = errors.New("caller is not a registry operator")
	ErrNotCampaignCreator         = errors.New("caller is not the campaign creator")
	ErrLengthsMismatch            = errors.New("operator and flag lists must have equal length")
	ErrCampaignAlreadyExists      = errors.New("campaign already exists")
	ErrCampaignNotFound           = errors.New("campaign not found")
	ErrCampaignNotStarted         = errors.New("campaign has not started yet")
	ErrUpdateNotAllowed           = errors.New("campaign already started, update not allowed")
	ErrInvalidStartingTime        = errors.New("starting time must be strictly in the future")
	ErrInvalidAssetIndex          = errors.New("invalid asset index")
	ErrAssetMismatch              = errors.New("asset address mismatch")
	ErrAssetAlreadyClaimed        = errors.New("asset already claimed")
	ErrInsufficientBalance        = errors.New("insufficient balance")
	ErrUnauthorizedTransfer       = errors.New("transfer not authorized by registry authority")
	ErrInvalidRegistryInput       = errors.New("invalid registry input")
	ErrIdempotencyKeyRequired     = errors.New("idempotency key is required")
	ErrIdempotencyKeyConflict     = errors.New("idempotency key conflict")
)
