package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"fooddonation/internal/domain"
)

// SessionStore persists the credential issued at login.
type SessionStore interface {
	Token(ctx context.Context) (string, bool, error)
	Email(ctx context.Context) (string, bool, error)
	Save(ctx context.Context, cred domain.Credential) error
	Clear(ctx context.Context) error
}

// Auth covers login, registration, password change and logout.
type Auth struct {
	api     API
	session SessionStore
}

// NewAuth binds the auth operations to a client and session store.
func NewAuth(api API, session SessionStore) *Auth {
	return &Auth{api: api, session: session}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Login exchanges email and password for a bearer token and stores it.
func (a *Auth) Login(ctx context.Context, email, password string) (*domain.Credential, error) {
	email = strings.TrimSpace(email)
	if err := requireFields(msgFillAllFields,
		field{"email", email},
		field{"password", password},
	); err != nil {
		return nil, err
	}
	resp, err := a.api.RequestJSON(ctx, http.MethodPost, pathLogin, loginRequest{Email: email, Password: password}, false)
	if err != nil {
		return nil, err
	}
	var out loginResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	token := strings.TrimSpace(out.Token)
	if token == "" {
		if msg := firstNonEmpty(out.Error, out.Message); msg != "" {
			return nil, &domain.ServerError{StatusCode: resp.StatusCode, Message: msg}
		}
		return nil, &domain.DecodeError{Err: errors.New("response has no token")}
	}
	cred := &domain.Credential{Token: token, Email: email}
	if err := a.session.Save(ctx, *cred); err != nil {
		return nil, err
	}
	return cred, nil
}

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Register creates an account. It does not sign the user in.
func (a *Auth) Register(ctx context.Context, reg domain.Registration) (string, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Phone = strings.TrimSpace(reg.Phone)
	reg.Address = strings.TrimSpace(reg.Address)
	if err := requireFields(msgFillAllFields,
		field{"name", reg.Name},
		field{"email", reg.Email},
		field{"password", reg.Password},
		field{"phone", reg.Phone},
		field{"address", reg.Address},
	); err != nil {
		return "", err
	}
	resp, err := a.api.RequestJSON(ctx, http.MethodPost, pathRegister, reg, false)
	if err != nil {
		return "", err
	}
	var out messageResponse
	if len(resp.Body) > 0 {
		if err := resp.Decode(&out); err != nil {
			return "", err
		}
	}
	return firstNonEmpty(out.Message, "Registration successful!"), nil
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword rejects a mismatched confirmation locally.
func (a *Auth) ChangePassword(ctx context.Context, current, next, confirm string) (string, error) {
	if err := requireFields(msgFillAllFields+".",
		field{"currentPassword", current},
		field{"newPassword", next},
		field{"confirmPassword", confirm},
	); err != nil {
		return "", err
	}
	if next != confirm {
		return "", domain.Invalid("confirmPassword", "New passwords do not match.")
	}
	resp, err := a.api.RequestJSON(ctx, http.MethodPost, pathChangePassword, changePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	}, true)
	if err != nil {
		return "", err
	}
	var out messageResponse
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	if out.Message == "" {
		if out.Error != "" {
			return "", &domain.ServerError{StatusCode: resp.StatusCode, Message: out.Error}
		}
		return "", &domain.DecodeError{Err: errors.New("response has neither message nor error")}
	}
	return out.Message, nil
}

// Logout forgets the stored token and email.
func (a *Auth) Logout(ctx context.Context) error {
	return a.session.Clear(ctx)
}

// SignedIn reports whether a token is stored.
func (a *Auth) SignedIn(ctx context.Context) (bool, error) {
	_, ok, err := a.session.Token(ctx)
	return ok, err
}

// CurrentEmail returns the email stored at login, if any.
func (a *Auth) CurrentEmail(ctx context.Context) (string, error) {
	email, _, err := a.session.Email(ctx)
	return email, err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
