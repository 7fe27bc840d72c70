package treasury

import "testing"

func TestAuthorityDerivationIsDeterministic(t *testing.T) {
	a := NewAuthority("registry-seed", DefaultBump)
	b := NewAuthority("registry-seed", DefaultBump)
	if a.Account() != b.Account() {
		t.Fatalf("same seed and bump must derive the same account")
	}

	other := NewAuthority("other-seed", DefaultBump)
	if other.Account() == a.Account() {
		t.Fatalf("different seeds must derive different accounts")
	}

	bumped := NewAuthority("registry-seed", DefaultBump-1)
	if bumped.Account() == a.Account() {
		t.Fatalf("different bumps must derive different accounts")
	}
}

func TestProofBindsFullTransferTuple(t *testing.T) {
	a := NewAuthority("registry-seed", DefaultBump)
	proof := a.Proof("asset-a", "carol", "rcpt", 500)

	if !a.Verify(proof, "asset-a", "carol", "rcpt", 500) {
		t.Fatalf("valid proof rejected")
	}
	if a.Verify(proof, "asset-b", "carol", "rcpt", 500) {
		t.Fatalf("proof accepted for a different asset")
	}
	if a.Verify(proof, "asset-a", "carol", "other", 500) {
		t.Fatalf("proof accepted for a different recipient")
	}
	if a.Verify(proof, "asset-a", "carol", "rcpt", 499) {
		t.Fatalf("proof accepted for a different amount")
	}
	if a.Verify("not-hex", "asset-a", "carol", "rcpt", 500) {
		t.Fatalf("malformed proof accepted")
	}

	stranger := NewAuthority("other-seed", DefaultBump)
	if a.Verify(stranger.Proof("asset-a", "carol", "rcpt", 500), "asset-a", "carol", "rcpt", 500) {
		t.Fatalf("foreign authority's proof accepted")
	}
}
