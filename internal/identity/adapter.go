package identity

import (
	"context"

	"flora-shops.com/internal/obs"
)

// staleSessionRetries caps the self-healing sign-out-and-retry on a stale
// session. Exactly one retry: if the stale condition survives a sign-out,
// retrying further would loop forever.
const staleSessionRetries = 1

// Adapter translates raw provider outcomes into AuthResult and owns the
// recovery policy for stale sessions and dead tokens. It holds no state.
type Adapter struct {
	provider Provider
}

// NewAdapter wraps a raw provider.
func NewAdapter(p Provider) *Adapter {
	return &Adapter{provider: p}
}

// Login attempts a credential sign-in.
//
// A failure classified as stale session triggers a forced sign-out followed
// by exactly one retry; every other failure propagates unchanged.
func (a *Adapter) Login(ctx context.Context, email, password string) (AuthResult, error) {
	for attempt := 0; ; attempt++ {
		out, err := a.provider.SignIn(ctx, email, password)
		if err == nil {
			return signInResult(email, out), nil
		}

		if CodeOf(err) == CodeStaleSession && attempt < staleSessionRetries {
			obs.Log(map[string]any{
				"level": "warn",
				"msg":   "stale provider session detected, signing out and retrying",
			})
			if soErr := a.provider.SignOut(ctx); soErr != nil {
				obs.Error("stale session cleanup sign-out failed", soErr, nil)
			}
			continue
		}
		return AuthResult{}, err
	}
}

func signInResult(email string, out SignInOutcome) AuthResult {
	if out.SignedIn {
		return AuthResult{User: &ProviderUser{Email: email}, NextStep: StepDone}
	}
	if out.NextStep == StepConfirmSignUp {
		return AuthResult{NextStep: StepConfirmSignUp}
	}
	return AuthResult{NextStep: StepBeyondScope}
}

// Register delegates to provider sign-up.
func (a *Adapter) Register(ctx context.Context, email, password string) (AuthResult, error) {
	out, err := a.provider.SignUp(ctx, email, password)
	if err != nil {
		return AuthResult{}, err
	}
	if out.NextStep == StepConfirmSignUp {
		return AuthResult{NextStep: StepConfirmSignUp}, nil
	}
	return AuthResult{NextStep: StepDone}, nil
}

// VerifyCode submits an email confirmation code and reports whether the
// sign-up is now complete.
func (a *Adapter) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	return a.provider.ConfirmSignUp(ctx, email, code)
}

// Logout invokes provider sign-out unconditionally. Clearing local session
// state is the caller's responsibility.
func (a *Adapter) Logout(ctx context.Context) error {
	return a.provider.SignOut(ctx)
}

// CurrentUser reads the active provider session. It never returns an error:
// an expired token triggers a cleanup sign-out, and every failure degrades to
// "no user", since the caller has no recovery beyond treating the session as
// absent.
func (a *Adapter) CurrentUser(ctx context.Context, forceRefresh bool) (*ProviderUser, SessionTokens, bool) {
	user, tokens, err := a.provider.CurrentUser(ctx, forceRefresh)
	if err == nil {
		return &user, tokens, true
	}
	if err == ErrNoSession {
		return nil, SessionTokens{}, false
	}
	if CodeOf(err) == CodeNotAuthorized {
		// Dead token: sign out now so the next page load starts clean.
		if soErr := a.provider.SignOut(ctx); soErr != nil {
			obs.Error("sign-out after dead token failed", soErr, nil)
		}
	} else {
		obs.Error("provider session fetch failed", err, nil)
	}
	return nil, SessionTokens{}, false
}
