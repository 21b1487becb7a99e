package service

import "github.com/minli-dev/minli/internal/app/model"

// LookupState classifies a short code's lifecycle, independent of who asked.
type LookupState int

const (
	LookupNotFound LookupState = iota
	LookupDisabled
	LookupExpired
	LookupUsedUp
	LookupValid
)

// Lookup is the resolver's verdict for a short code. Link is set only for
// LookupValid.
type Lookup struct {
	State LookupState
	Link  *model.Link
}

// OutcomeKind enumerates what the HTTP layer should do with a request.
type OutcomeKind int

const (
	// OutcomePassThrough means the code is unknown; the request belongs to
	// the frontend router, not to us.
	OutcomePassThrough OutcomeKind = iota
	// OutcomeError is a terminal, link-specific error page.
	OutcomeError
	// OutcomePasswordRequired asks the visitor for the link password.
	OutcomePasswordRequired
	// OutcomeRedirect sends the visitor to the destination URL.
	OutcomeRedirect
)

// ErrorKind distinguishes the terminal error pages.
type ErrorKind int

const (
	ErrorDisabled ErrorKind = iota
	ErrorExpired
	ErrorUsedUp
)

// Outcome is the per-request resolution result consumed by the HTTP layer.
type Outcome struct {
	Kind        OutcomeKind
	Error       ErrorKind // set when Kind == OutcomeError
	Destination string    // set when Kind == OutcomeRedirect
	Retry       bool      // set on PasswordRequired after a failed attempt
}
