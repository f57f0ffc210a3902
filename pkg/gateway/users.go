package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// Register creates the account; the API answers by sending an OTP to the phone.
func (c *Client) Register(ctx context.Context, input models.RegisterInput) error {
	if err := models.Validate(input); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodPost, path: "/users", body: input}, nil)
}

// VerifyPhone exchanges the OTP for a token and stores it for the session.
func (c *Client) VerifyPhone(ctx context.Context, input models.VerifyPhoneInput) (*models.AuthResult, error) {
	if err := models.Validate(input); err != nil {
		return nil, err
	}
	var out models.AuthResult
	if err := c.do(ctx, request{method: http.MethodPost, path: "/users/verify-phone", body: input}, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &RequestError{Status: http.StatusBadGateway, Message: "verification succeeded without a token"}
	}
	if err := c.tokens.SetToken(ctx, out.Token); err != nil {
		return nil, fmt.Errorf("store session token: %w", err)
	}
	return &out, nil
}

func (c *Client) ResendOTP(ctx context.Context, input models.ResendOTPInput) error {
	if err := models.Validate(input); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodPost, path: "/users/resend-otp", body: input}, nil)
}

func (c *Client) CheckUserExists(ctx context.Context, phone string) (bool, error) {
	var out models.ExistsResult
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/users/check-exists",
		query:  url.Values{"phone": {phone}},
	}, &out)
	return out.Exists, err
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/profile", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	if err := models.Validate(update); err != nil {
		return nil, err
	}
	var out models.User
	if err := c.do(ctx, request{method: http.MethodPut, path: "/users/profile", body: update, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout forgets the session token. The API keeps no server-side session to end.
func (c *Client) Logout(ctx context.Context) error {
	return c.tokens.ClearToken(ctx)
}
