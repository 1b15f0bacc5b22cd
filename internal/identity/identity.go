// Package identity wraps the third-party identity provider behind a small
// domain boundary: credential login, registration, email-code confirmation,
// sign-out and session retrieval. Provider error taxonomy is classified once,
// at this boundary, into a closed code set.
package identity

import "context"

// NextStep tells the caller what the provider expects after an operation.
type NextStep string

const (
	// StepDone means the flow completed and a session is active.
	StepDone NextStep = "DONE"
	// StepConfirmSignUp means the provider demands an email confirmation code.
	StepConfirmSignUp NextStep = "CONFIRM_SIGN_UP"
	// StepBeyondScope marks provider steps this client deliberately does not
	// handle (MFA, password reset, custom challenges). Non-fatal for callers.
	StepBeyondScope NextStep = "BEYOND_SCOPE"
)

// ProviderUser is the provider-side view of an account. It lacks the
// application role; authorization always goes through the synced profile.
type ProviderUser struct {
	ID            string
	Email         string
	EmailVerified bool
}

// AuthResult is the tagged outcome of a login or registration attempt.
// User is set only when NextStep is StepDone after a sign-in.
type AuthResult struct {
	User     *ProviderUser
	NextStep NextStep
}

// SessionTokens holds the credentials of an active provider session.
// IDToken is preferred for backend sync: unlike the access token it carries
// the email claim the profile sync needs.
type SessionTokens struct {
	IDToken     string
	AccessToken string
}

// Token returns the credential to present to the backend.
func (t SessionTokens) Token() string {
	if t.IDToken != "" {
		return t.IDToken
	}
	return t.AccessToken
}

// SignInOutcome is the raw provider response to a credential sign-in.
type SignInOutcome struct {
	SignedIn bool
	NextStep NextStep
}

// SignUpOutcome is the raw provider response to a registration.
type SignUpOutcome struct {
	Complete bool
	NextStep NextStep
}

// Provider is the raw identity provider surface the adapter builds on.
// Implementations classify provider failures into *identity.Error.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (SignInOutcome, error)
	SignUp(ctx context.Context, email, password string) (SignUpOutcome, error)
	ConfirmSignUp(ctx context.Context, email, code string) (bool, error)
	SignOut(ctx context.Context) error
	// CurrentUser returns the active session's user and tokens.
	// forceRefresh requests freshly issued tokens; required after a
	// server-side role change, since cached tokens do not carry new claims.
	CurrentUser(ctx context.Context, forceRefresh bool) (ProviderUser, SessionTokens, error)
}
