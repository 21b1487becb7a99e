package service

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier checks a supplied plaintext against a stored hash.
type PasswordVerifier interface {
	Verify(plaintext, hash string) bool
}

// BcryptVerifier verifies passwords with bcrypt's constant-time comparison.
type BcryptVerifier struct{}

func (BcryptVerifier) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// PolicyEngine combines the lookup state, the bot verdict and the password
// rules into a single resolution outcome.
type PolicyEngine struct {
	passwords PasswordVerifier
}

// NewPolicyEngine builds a policy engine. A nil verifier defaults to bcrypt.
func NewPolicyEngine(passwords PasswordVerifier) *PolicyEngine {
	if passwords == nil {
		passwords = BcryptVerifier{}
	}
	return &PolicyEngine{passwords: passwords}
}

// Decide maps a lookup to what the HTTP layer should do. suppliedPassword is
// empty when none was sent; an empty submission is treated the same way
// (re-prompt, not an error).
//
// Bots bypass the password gate on valid links: preview crawlers must see the
// destination to render an unfurl. They still never consume anything; that
// asymmetry is enforced downstream, not here.
func (p *PolicyEngine) Decide(lookup Lookup, isBot bool, suppliedPassword string) Outcome {
	switch lookup.State {
	case LookupNotFound:
		return Outcome{Kind: OutcomePassThrough}
	case LookupDisabled:
		return Outcome{Kind: OutcomeError, Error: ErrorDisabled}
	case LookupExpired:
		return Outcome{Kind: OutcomeError, Error: ErrorExpired}
	case LookupUsedUp:
		return Outcome{Kind: OutcomeError, Error: ErrorUsedUp}
	}

	link := lookup.Link

	if isBot {
		return Outcome{Kind: OutcomeRedirect, Destination: link.OriginalURL}
	}

	if !link.IsPasswordProtected {
		return Outcome{Kind: OutcomeRedirect, Destination: link.OriginalURL}
	}

	if suppliedPassword == "" {
		return Outcome{Kind: OutcomePasswordRequired}
	}
	if !p.passwords.Verify(suppliedPassword, link.PasswordHash) {
		return Outcome{Kind: OutcomePasswordRequired, Retry: true}
	}

	return Outcome{Kind: OutcomeRedirect, Destination: link.OriginalURL}
}
