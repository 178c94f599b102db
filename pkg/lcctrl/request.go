package lcctrl

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest indicates a malformed transition request.
var ErrInvalidRequest = errors.New("invalid transition request")

// TransitionRequest describes one lifecycle transition.
type TransitionRequest struct {
	// Target is the requested state (5 bits).
	Target State

	// Token is written when RequireToken is set.
	Token *Token

	// RequireToken must be true exactly when Token is non-nil.
	RequireToken bool
}

// WithToken returns a request for target authorized by token.
func WithToken(target State, token Token) TransitionRequest {
	return TransitionRequest{Target: target, Token: &token, RequireToken: true}
}

// Tokenless returns a request for target without a token.
func Tokenless(target State) TransitionRequest {
	return TransitionRequest{Target: target}
}

// Validate checks the request invariants.
func (r TransitionRequest) Validate() error {
	if r.Target > MaxState {
		return fmt.Errorf("%w: target 0x%x exceeds 0x1f", ErrInvalidRequest, uint8(r.Target))
	}
	if r.RequireToken && r.Token == nil {
		return fmt.Errorf("%w: token required but missing", ErrInvalidRequest)
	}
	if !r.RequireToken && r.Token != nil {
		return fmt.Errorf("%w: token given but not required", ErrInvalidRequest)
	}
	return nil
}
