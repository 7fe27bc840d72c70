package treasury

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Package treasury derives the registry's delegated signing authority. The
// authority key is produced from a fixed seed plus a bump byte; holdings and
// the custody account are addressed by the derived account string, and asset
// transfers are authorized by an HMAC proof only this package can mint. No
// user holds a counterpart credential for the derived account.

const derivationPrefix = "airdrop_registry/authority/v1"

// DefaultBump is the first bump probed during derivation.
const DefaultBump byte = 255

type Authority struct {
	key     []byte
	bump    byte
	account string
}

// NewAuthority derives the authority for seed at the given bump.
func NewAuthority(seed string, bump byte) *Authority {
	material := sha256.Sum256(append([]byte(derivationPrefix+"/"+seed), bump))
	account := sha256.Sum256(append([]byte("account:"), material[:]...))
	return &Authority{
		key:     material[:],
		bump:    bump,
		account: hex.EncodeToString(account[:]),
	}
}

// Account is the custody account address controlled by the authority.
func (a *Authority) Account() string {
	return a.account
}

func (a *Authority) Bump() byte {
	return a.bump
}

// Proof mints the transfer authorization for a single asset movement. Proofs
// are deterministic over the full transfer tuple, so a proof for one transfer
// cannot be replayed for another.
func (a *Authority) Proof(assetAddress string, from string, to string, amount uint64) string {
	mac := hmac.New(sha256.New, a.key)
	mac.Write(transferMessage(assetAddress, from, to, amount))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether proof authorizes the given transfer.
func (a *Authority) Verify(proof string, assetAddress string, from string, to string, amount uint64) bool {
	want, err := hex.DecodeString(proof)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, a.key)
	mac.Write(transferMessage(assetAddress, from, to, amount))
	return hmac.Equal(want, mac.Sum(nil))
}

func transferMessage(assetAddress string, from string, to string, amount uint64) []byte {
	var amountBytes [8]byte
	binary.BigEndian.PutUint64(amountBytes[:], amount)

	msg := make([]byte, 0, len(assetAddress)+len(from)+len(to)+11)
	msg = append(msg, assetAddress...)
	msg = append(msg, 0)
	msg = append(msg, from...)
	msg = append(msg, 0)
	msg = append(msg, to...)
	msg = append(msg, 0)
	msg = append(msg, amountBytes[:]...)
	return msg
}
