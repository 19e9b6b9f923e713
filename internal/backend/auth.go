package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	Token       string `json:"token"`
}

// Login exchanges form-encoded credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/login", "", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &resp)
	if err != nil {
		return "", err
	}
	token := resp.AccessToken
	if token == "" {
		token = resp.Token
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func (c *Client) Register(ctx context.Context, reg Registration) (string, error) {
	var msg string
	err := c.sendJSON(ctx, http.MethodPost, "/auth/register", "", reg, &msg)
	return msg, err
}

func (c *Client) VerifyAccount(ctx context.Context, email, otp string) error {
	return c.sendJSON(ctx, http.MethodPost, "/auth/verify-account", "", map[string]string{
		"email": email,
		"otp":   otp,
	}, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.sendJSON(ctx, http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	return c.sendJSON(ctx, http.MethodPost, "/auth/reset-password", "", map[string]string{
		"email":       email,
		"otp":         otp,
		"newPassword": newPassword,
	}, nil)
}
