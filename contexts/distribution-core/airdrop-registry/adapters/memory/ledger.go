package memory

import (
	"context"
	"sync"

	domainerrors "almoner/contexts/distribution-core/airdrop-registry/domain/errors"
)

// VerifyFunc checks a transfer authorization proof. The treasury authority's
// Verify method satisfies it; the ledger itself never holds key material.
type VerifyFunc func(proof string, assetAddress string, from string, to string, amount uint64) bool

// Ledger is the in-process stand-in for the external settlement layer. It
// tracks native balances (fee currency) and per-asset holdings, and enforces
// that asset movements carry a valid authority proof.
type Ledger struct {
	mu       sync.Mutex
	native   map[string]uint64
	holdings map[string]map[string]uint64
	verify   VerifyFunc
}

func NewLedger(verify VerifyFunc) *Ledger {
	return &Ledger{
		native:   make(map[string]uint64),
		holdings: make(map[string]map[string]uint64),
		verify:   verify,
	}
}

// CreditNative seeds an account with native balance.
func (l *Ledger) CreditNative(account string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.native[account] += amount
}

// CreditAsset seeds a holder with asset balance.
func (l *Ledger) CreditAsset(assetAddress string, holder string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	holders, ok := l.holdings[assetAddress]
	if !ok {
		holders = make(map[string]uint64)
		l.holdings[assetAddress] = holders
	}
	holders[holder] += amount
}

func (l *Ledger) TransferNative(_ context.Context, from string, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.native[from] < amount {
		return domainerrors.ErrInsufficientBalance
	}
	l.native[from] -= amount
	l.native[to] += amount
	return nil
}

func (l *Ledger) DrainNative(_ context.Context, from string, to string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	amount := l.native[from]
	l.native[from] = 0
	l.native[to] += amount
	return amount, nil
}

func (l *Ledger) NativeBalance(_ context.Context, account string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.native[account], nil
}

func (l *Ledger) AssetBalance(_ context.Context, assetAddress string, holder string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holdings[assetAddress][holder], nil
}

func (l *Ledger) TransferAsset(_ context.Context, proof string, assetAddress string, from string, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.verify == nil || !l.verify(proof, assetAddress, from, to, amount) {
		return domainerrors.ErrUnauthorizedTransfer
	}
	holders, ok := l.holdings[assetAddress]
	if !ok {
		holders = make(map[string]uint64)
		l.holdings[assetAddress] = holders
	}
	if holders[from] < amount {
		return domainerrors.ErrInsufficientBalance
	}
	// Zero-amount transfers settle as no-ops, matching the native transfer
	// primitive.
	holders[from] -= amount
	holders[to] += amount
	return nil
}
