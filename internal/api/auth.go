package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/httpclient"
	"github.com/and161185/ecotour/internal/model"
	"github.com/and161185/ecotour/internal/validate"
)

// Credentials is the login request.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Nom      string `json:"nom" validate:"required"`
	Prenom   string `json:"prenom,omitempty"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Type     string `json:"type,omitempty"`
}

// AuthResponse is returned by login and registration. Registration may omit the token.
type AuthResponse struct {
	Token string            `json:"token,omitempty"`
	User  *model.UserRecord `json:"user"`
}

func (r *AuthResponse) Validate() error {
	if r.User == nil {
		return errors.New("auth: missing user")
	}
	return r.User.Validate()
}

// Ack carries the optional message of an account operation.
type Ack struct {
	Message string `json:"message,omitempty"`
}

// Auth is the account client. It never touches local session state.
type Auth struct {
	c *httpclient.Client
}

// Login exchanges credentials for a token and user record.
func (a *Auth) Login(ctx context.Context, cr Credentials) (*AuthResponse, error) {
	if err := validate.Struct(&cr); err != nil {
		return nil, err
	}
	var out AuthResponse
	if err := a.c.Post(ctx, "/auth/login", &cr, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &errs.RequestError{
			Method: http.MethodPost, Path: "/auth/login", Status: http.StatusOK,
			Err: errors.New("missing token"),
		}
	}
	return &out, nil
}

// Register creates an account. The token is present only when the backend
// signs the new user in.
func (a *Auth) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if req.Type != "" && !model.UserTouriste.Is(req.Type) && !model.UserGuide.Is(req.Type) {
		return nil, errs.NewValidation("type", "oneof")
	}
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	var out AuthResponse
	if err := a.c.Post(ctx, "/auth/register", &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the current token on the backend.
func (a *Auth) Logout(ctx context.Context) error {
	return a.c.Do(ctx, http.MethodPost, "/auth/logout", nil, nil, httpclient.RequireAuth())
}

// UpdateProfile pushes u and returns the record the backend acknowledged,
// or u itself when the backend answers without one.
func (a *Auth) UpdateProfile(ctx context.Context, u *model.UserRecord) (*model.UserRecord, error) {
	if u == nil {
		return nil, errs.NewValidation("user", "required")
	}
	if err := u.Validate(); err != nil {
		return nil, errs.NewValidation("user", err.Error())
	}
	var out struct {
		User *model.UserRecord `json:"user"`
	}
	if err := a.c.Put(ctx, "/auth/profile", u, &out, httpclient.RequireAuth()); err != nil {
		return nil, err
	}
	if out.User != nil && out.User.Validate() == nil {
		return out.User, nil
	}
	cp := *u
	return &cp, nil
}

// ChangePasswordRequest changes the password of the signed-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
}

// ResetPasswordRequest completes a forgotten-password flow.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

func (a *Auth) ack(ctx context.Context, path string, body any, opts ...httpclient.Option) (string, error) {
	var out Ack
	if err := a.c.Post(ctx, path, body, &out, opts...); err != nil {
		return "", err
	}
	return out.Message, nil
}

// ChangePassword returns the backend confirmation message, if any.
func (a *Auth) ChangePassword(ctx context.Context, req ChangePasswordRequest) (string, error) {
	if err := validate.Struct(&req); err != nil {
		return "", err
	}
	return a.ack(ctx, "/auth/change-password", &req, httpclient.RequireAuth())
}

// ForgotPassword asks the backend to mail a reset link.
func (a *Auth) ForgotPassword(ctx context.Context, email string) (string, error) {
	req := struct {
		Email string `json:"email" validate:"required,email"`
	}{email}
	if err := validate.Struct(&req); err != nil {
		return "", err
	}
	return a.ack(ctx, "/auth/forgot-password", &req)
}

// ResetPassword sets a new password using the token from a reset email.
func (a *Auth) ResetPassword(ctx context.Context, req ResetPasswordRequest) (string, error) {
	if err := validate.Struct(&req); err != nil {
		return "", err
	}
	return a.ack(ctx, "/auth/reset-password", &req)
}

// VerifyEmail confirms an address with the token from the verification email.
func (a *Auth) VerifyEmail(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errs.NewValidation("token", "required")
	}
	return a.ack(ctx, "/auth/verify-email", map[string]string{"token": token})
}

// ResendVerification asks the backend to mail a new verification link.
func (a *Auth) ResendVerification(ctx context.Context, email string) (string, error) {
	req := struct {
		Email string `json:"email" validate:"required,email"`
	}{email}
	if err := validate.Struct(&req); err != nil {
		return "", err
	}
	return a.ack(ctx, "/auth/resend-verification", &req)
}
