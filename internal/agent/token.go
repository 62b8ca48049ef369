package agent

import "context"

// TurnToken identifies which in-flight turn is still allowed to produce
// observable effects (history appends, relay starts, detection updates).
// Tokens are minted per turn and superseded, never mutated; Cancel is
// idempotent. Downstream stages check Current before each observable effect.
type TurnToken struct {
	sess   *Session
	ctx    context.Context
	cancel context.CancelFunc
}

func newTurnToken(s *Session) *TurnToken {
	ctx, cancel := context.WithCancel(context.Background())
	return &TurnToken{sess: s, ctx: ctx, cancel: cancel}
}

// Context carries the token's cancellation to network calls so in-flight
// requests are aborted, not merely ignored.
func (t *TurnToken) Context() context.Context { return t.ctx }

// Cancel revokes the token. Idempotent.
func (t *TurnToken) Cancel() { t.cancel() }

// Cancelled reports whether the token has been revoked.
func (t *TurnToken) Cancelled() bool { return t.ctx.Err() != nil }

// Current reports whether this token still owns the session's turn.
func (t *TurnToken) Current() bool {
	if t.Cancelled() {
		return false
	}
	t.sess.mu.Lock()
	cur := t.sess.currentTurn == t
	t.sess.mu.Unlock()
	return cur
}
