// Package cognito implements identity.Provider against a Cognito-style
// user-pool HTTP API. Requests are JSON posts dispatched by an X-Amz-Target
// action header; provider error types are classified here, once, into the
// closed identity code set.
package cognito

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"flora-shops.com/internal/identity"
)

const (
	actionInitiateAuth  = "AWSCognitoIdentityProviderService.InitiateAuth"
	actionSignUp        = "AWSCognitoIdentityProviderService.SignUp"
	actionConfirmSignUp = "AWSCognitoIdentityProviderService.ConfirmSignUp"
	actionGlobalSignOut = "AWSCognitoIdentityProviderService.GlobalSignOut"
	actionGetUser       = "AWSCognitoIdentityProviderService.GetUser"
)

// Client is a thin provider client with sensible defaults.
type Client struct {
	endpoint string
	clientID string
	httpc    *http.Client

	// The provider session is device-local: one refresh token per client,
	// mirroring how the hosted SDK keeps its session in local storage.
	mu           sync.Mutex
	accessToken  string
	idToken      string
	refreshToken string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpc = h
		}
	}
}

// New creates a provider client for the given user-pool endpoint and app
// client id.
func New(endpoint, clientID string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		clientID: clientID,
		httpc:    &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire shapes ------------------------------------------------------------

type initiateAuthRequest struct {
	AuthFlow       string            `json:"AuthFlow"`
	ClientID       string            `json:"ClientId"`
	AuthParameters map[string]string `json:"AuthParameters"`
}

type authenticationResult struct {
	AccessToken  string `json:"AccessToken"`
	IDToken      string `json:"IdToken"`
	RefreshToken string `json:"RefreshToken"`
	ExpiresIn    int    `json:"ExpiresIn"`
}

type initiateAuthResponse struct {
	AuthenticationResult *authenticationResult `json:"AuthenticationResult"`
	ChallengeName        string                `json:"ChallengeName"`
}

type signUpRequest struct {
	ClientID       string          `json:"ClientId"`
	Username       string          `json:"Username"`
	Password       string          `json:"Password"`
	UserAttributes []userAttribute `json:"UserAttributes"`
}

type userAttribute struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type signUpResponse struct {
	UserConfirmed bool   `json:"UserConfirmed"`
	UserSub       string `json:"UserSub"`
}

type confirmSignUpRequest struct {
	ClientID         string `json:"ClientId"`
	Username         string `json:"Username"`
	ConfirmationCode string `json:"ConfirmationCode"`
}

type globalSignOutRequest struct {
	AccessToken string `json:"AccessToken"`
}

type getUserRequest struct {
	AccessToken string `json:"AccessToken"`
}

type getUserResponse struct {
	Username       string          `json:"Username"`
	UserAttributes []userAttribute `json:"UserAttributes"`
}

type apiError struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

// Provider surface --------------------------------------------------------

// SignIn runs the USER_PASSWORD_AUTH flow.
func (c *Client) SignIn(ctx context.Context, email, password string) (identity.SignInOutcome, error) {
	var resp initiateAuthResponse
	err := c.call(ctx, actionInitiateAuth, initiateAuthRequest{
		AuthFlow: "USER_PASSWORD_AUTH",
		ClientID: c.clientID,
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	}, &resp)
	if err != nil {
		return identity.SignInOutcome{}, err
	}

	if ar := resp.AuthenticationResult; ar != nil {
		c.mu.Lock()
		c.accessToken = ar.AccessToken
		c.idToken = ar.IDToken
		if ar.RefreshToken != "" {
			c.refreshToken = ar.RefreshToken
		}
		c.mu.Unlock()
		return identity.SignInOutcome{SignedIn: true, NextStep: identity.StepDone}, nil
	}

	switch resp.ChallengeName {
	case "CONFIRM_SIGN_UP":
		return identity.SignInOutcome{NextStep: identity.StepConfirmSignUp}, nil
	default:
		return identity.SignInOutcome{NextStep: identity.StepBeyondScope}, nil
	}
}

// SignUp registers a new account with the email attribute attached.
func (c *Client) SignUp(ctx context.Context, email, password string) (identity.SignUpOutcome, error) {
	var resp signUpResponse
	err := c.call(ctx, actionSignUp, signUpRequest{
		ClientID: c.clientID,
		Username: email,
		Password: password,
		UserAttributes: []userAttribute{
			{Name: "email", Value: email},
		},
	}, &resp)
	if err != nil {
		return identity.SignUpOutcome{}, err
	}
	if resp.UserConfirmed {
		return identity.SignUpOutcome{Complete: true, NextStep: identity.StepDone}, nil
	}
	return identity.SignUpOutcome{NextStep: identity.StepConfirmSignUp}, nil
}

// ConfirmSignUp submits an email confirmation code.
func (c *Client) ConfirmSignUp(ctx context.Context, email, code string) (bool, error) {
	err := c.call(ctx, actionConfirmSignUp, confirmSignUpRequest{
		ClientID:         c.clientID,
		Username:         email,
		ConfirmationCode: code,
	}, &struct{}{})
	if err != nil {
		return false, err
	}
	return true, nil
}

// SignOut revokes the session server-side and drops the local tokens.
// Local tokens are dropped even when the revoke call fails: a sign-out must
// leave this client unauthenticated.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.accessToken
	c.accessToken = ""
	c.idToken = ""
	c.refreshToken = ""
	c.mu.Unlock()

	if token == "" {
		return nil
	}
	return c.call(ctx, actionGlobalSignOut, globalSignOutRequest{AccessToken: token}, &struct{}{})
}

// CurrentUser reads the active session. With forceRefresh, the refresh token
// is exchanged for freshly issued tokens first.
func (c *Client) CurrentUser(ctx context.Context, forceRefresh bool) (identity.ProviderUser, identity.SessionTokens, error) {
	c.mu.Lock()
	access, id, refresh := c.accessToken, c.idToken, c.refreshToken
	c.mu.Unlock()

	if forceRefresh && refresh != "" {
		var resp initiateAuthResponse
		err := c.call(ctx, actionInitiateAuth, initiateAuthRequest{
			AuthFlow: "REFRESH_TOKEN_AUTH",
			ClientID: c.clientID,
			AuthParameters: map[string]string{
				"REFRESH_TOKEN": refresh,
			},
		}, &resp)
		if err != nil {
			return identity.ProviderUser{}, identity.SessionTokens{}, err
		}
		if ar := resp.AuthenticationResult; ar != nil {
			access, id = ar.AccessToken, ar.IDToken
			c.mu.Lock()
			c.accessToken = access
			c.idToken = id
			c.mu.Unlock()
		}
	}

	if access == "" {
		return identity.ProviderUser{}, identity.SessionTokens{}, identity.ErrNoSession
	}

	var resp getUserResponse
	if err := c.call(ctx, actionGetUser, getUserRequest{AccessToken: access}, &resp); err != nil {
		return identity.ProviderUser{}, identity.SessionTokens{}, err
	}

	user := identity.ProviderUser{ID: resp.Username}
	for _, attr := range resp.UserAttributes {
		switch attr.Name {
		case "email":
			user.Email = attr.Value
		case "email_verified":
			user.EmailVerified = attr.Value == "true"
		case "sub":
			user.ID = attr.Value
		}
	}
	tokens := identity.SessionTokens{IDToken: id, AccessToken: access}
	return user, tokens, nil
}

// Helpers -----------------------------------------------------------------

func (c *Client) call(ctx context.Context, action string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("cognito: encode %s: %w", action, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("cognito: build %s: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/x-amz-json-1.1")
	req.Header.Set("X-Amz-Target", action)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("cognito: %s: %w", action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("cognito: read %s response: %w", action, err)
	}

	if resp.StatusCode >= 400 {
		return classify(resp.StatusCode, data)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("cognito: decode %s response: %w", action, err)
	}
	return nil
}

// classify maps the provider's __type error strings onto the closed code set.
func classify(status int, data []byte) error {
	var e apiError
	_ = json.Unmarshal(data, &e)
	msg := e.Message
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch typeName(e.Type) {
	case "UserAlreadyAuthenticatedException":
		return identity.NewError(identity.CodeStaleSession, msg)
	case "NotAuthorizedException":
		if strings.Contains(msg, "Incorrect username or password") {
			return identity.NewError(identity.CodeInvalidCredentials, msg)
		}
		return identity.NewError(identity.CodeNotAuthorized, msg)
	case "UserNotConfirmedException":
		return identity.NewError(identity.CodeUserNotConfirmed, msg)
	case "CodeMismatchException", "ExpiredCodeException":
		return identity.NewError(identity.CodeCodeMismatch, msg)
	case "UsernameExistsException":
		return identity.NewError(identity.CodeUserExists, msg)
	}

	// The original client also matched on free-text messages as a fallback.
	if strings.Contains(msg, "already a signed in user") {
		return identity.NewError(identity.CodeStaleSession, msg)
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return identity.NewError(identity.CodeNotAuthorized, msg)
	}
	return identity.NewError(identity.CodeUnknown, msg)
}

// typeName strips the service prefix from "com.amazon...#SomeException".
func typeName(t string) string {
	if i := strings.LastIndex(t, "#"); i >= 0 {
		return t[i+1:]
	}
	return t
}
