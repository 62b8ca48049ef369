package agent

import "testing"

func TestTurnToken_SupersedeCancelsPrevious(t *testing.T) {
	fx := newFixture(t, nil)
	s := fx.sess

	s.mu.Lock()
	tok1 := s.mintTurnLocked()
	s.mu.Unlock()
	if !tok1.Current() {
		t.Fatalf("freshly minted token must be current")
	}
	if tok1.Cancelled() {
		t.Fatalf("fresh token must not be cancelled")
	}

	s.mu.Lock()
	tok2 := s.mintTurnLocked()
	s.mu.Unlock()

	if !tok1.Cancelled() {
		t.Fatalf("minting must cancel the previous token")
	}
	if tok1.Current() {
		t.Fatalf("superseded token must not be current")
	}
	if !tok2.Current() {
		t.Fatalf("new token must be current")
	}
	select {
	case <-tok1.Context().Done():
	default:
		t.Fatalf("cancelled token's context must be done")
	}
}

func TestTurnToken_CancelIsIdempotent(t *testing.T) {
	fx := newFixture(t, nil)
	s := fx.sess

	s.mu.Lock()
	tok := s.mintTurnLocked()
	s.mu.Unlock()

	tok.Cancel()
	tok.Cancel()
	if !tok.Cancelled() {
		t.Fatalf("token must stay cancelled")
	}
	// a cancelled token that is still the session's latest is not current
	if tok.Current() {
		t.Fatalf("cancelled token must never be current")
	}
}
