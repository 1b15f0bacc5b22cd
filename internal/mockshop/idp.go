package mockshop

import (
	"encoding/json"
	"net/http"
	"strings"
)

// The identity endpoint speaks the Cognito user-pool dialect the client's
// provider adapter understands: JSON posts dispatched on X-Amz-Target.

const confirmationCode = "123456" // printed to the log in lieu of an email

type idpError struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

func writeIDPError(w http.ResponseWriter, status int, typ, msg string) {
	w.Header().Set("Content-Type", "application/x-amz-json-1.1")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(idpError{Type: typ, Message: msg})
}

// IDP dispatches a provider action.
func (a *API) IDP(w http.ResponseWriter, r *http.Request) {
	action := r.Header.Get("X-Amz-Target")
	action = action[strings.LastIndex(action, ".")+1:]

	switch action {
	case "InitiateAuth":
		a.idpInitiateAuth(w, r)
	case "SignUp":
		a.idpSignUp(w, r)
	case "ConfirmSignUp":
		a.idpConfirmSignUp(w, r)
	case "GlobalSignOut":
		writeJSON(w, http.StatusOK, map[string]any{})
	case "GetUser":
		a.idpGetUser(w, r)
	default:
		writeIDPError(w, http.StatusBadRequest, "UnknownOperationException", "unknown action "+action)
	}
}

func (a *API) idpInitiateAuth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AuthFlow       string            `json:"AuthFlow"`
		AuthParameters map[string]string `json:"AuthParameters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeIDPError(w, http.StatusBadRequest, "InvalidParameterException", "malformed request")
		return
	}

	switch req.AuthFlow {
	case "USER_PASSWORD_AUTH":
		a.idpPasswordAuth(w, req.AuthParameters["USERNAME"], req.AuthParameters["PASSWORD"])
	case "REFRESH_TOKEN_AUTH":
		a.idpRefreshAuth(w, req.AuthParameters["REFRESH_TOKEN"])
	default:
		writeIDPError(w, http.StatusBadRequest, "InvalidParameterException", "unsupported auth flow "+req.AuthFlow)
	}
}

func (a *API) idpPasswordAuth(w http.ResponseWriter, email, password string) {
	u, ok := a.store.FindUser(email)
	if !ok || u.Password != password {
		writeIDPError(w, http.StatusBadRequest, "NotAuthorizedException", "Incorrect username or password.")
		return
	}
	if !u.Confirmed {
		writeJSON(w, http.StatusOK, map[string]any{"ChallengeName": "CONFIRM_SIGN_UP"})
		return
	}
	a.idpIssueTokens(w, u)
}

// idpRefreshAuth exchanges a refresh token for fresh tokens. The stub's
// refresh token is the bare user id, enough to observe that a forced
// refresh picks up role changes.
func (a *API) idpRefreshAuth(w http.ResponseWriter, refresh string) {
	u, ok := a.store.FindUserByID(refresh)
	if !ok {
		writeIDPError(w, http.StatusBadRequest, "NotAuthorizedException", "Invalid refresh token.")
		return
	}
	a.idpIssueTokens(w, u)
}

func (a *API) idpIssueTokens(w http.ResponseWriter, u *User) {
	token, err := a.tokens.Issue(u)
	if err != nil {
		writeIDPError(w, http.StatusInternalServerError, "InternalErrorException", "token issuance failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"AuthenticationResult": map[string]any{
			"AccessToken":  token,
			"IdToken":      token,
			"RefreshToken": u.ID,
			"ExpiresIn":    3600,
		},
	})
}

func (a *API) idpSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"Username"`
		Password string `json:"Password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeIDPError(w, http.StatusBadRequest, "InvalidParameterException", "malformed request")
		return
	}
	u, err := a.store.CreateUser(req.Username, req.Password, confirmationCode)
	if err != nil {
		writeIDPError(w, http.StatusBadRequest, "UsernameExistsException", "An account with the given email already exists.")
		return
	}
	// No email delivery here; the code goes to the server log.
	a.logCode(u.Email)
	writeJSON(w, http.StatusOK, map[string]any{
		"UserConfirmed": false,
		"UserSub":       u.ID,
	})
}

func (a *API) idpConfirmSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username         string `json:"Username"`
		ConfirmationCode string `json:"ConfirmationCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeIDPError(w, http.StatusBadRequest, "InvalidParameterException", "malformed request")
		return
	}
	switch err := a.store.Confirm(req.Username, req.ConfirmationCode); err {
	case nil:
		writeJSON(w, http.StatusOK, map[string]any{})
	case errCodeMismatch:
		writeIDPError(w, http.StatusBadRequest, "CodeMismatchException", "Invalid verification code provided, please try again.")
	default:
		writeIDPError(w, http.StatusBadRequest, "UserNotFoundException", "User does not exist.")
	}
}

func (a *API) idpGetUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken string `json:"AccessToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeIDPError(w, http.StatusBadRequest, "InvalidParameterException", "malformed request")
		return
	}
	claims, err := a.tokens.Verify(req.AccessToken)
	if err != nil {
		writeIDPError(w, http.StatusBadRequest, "NotAuthorizedException", "Access Token has expired")
		return
	}
	u, ok := a.store.FindUserByID(claims.Subject)
	if !ok {
		writeIDPError(w, http.StatusBadRequest, "UserNotFoundException", "User does not exist.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"Username": u.ID,
		"UserAttributes": []map[string]string{
			{"Name": "sub", "Value": u.ID},
			{"Name": "email", "Value": u.Email},
			{"Name": "email_verified", "Value": "true"},
		},
	})
}
