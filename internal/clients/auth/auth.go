// Package auth is the client for the auth collaborator. The orchestration
// service only consumes token validation; registration, login and profile
// belong to the front-end's direct conversation with the auth service.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bookingFlow/internal/orchestrator"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type validateResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id"`
}

// Validate checks the token against the auth service and returns the user id
// it belongs to. When the service omits the user id, it is recovered from the
// token's claims; the signature was already verified remotely, so the claims
// are parsed without re-verification.
func (c *Client) Validate(ctx context.Context, token string) (string, error) {
	const op = "clients.auth.Validate"

	endpoint := fmt.Sprintf("%s/validate?token=%s", c.baseURL, url.QueryEscape(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, orchestrator.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%s: token rejected", op)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: %w: unexpected status %d", op, orchestrator.ErrTransient, resp.StatusCode)
	}

	var body validateResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%s: failed to decode response: %w", op, err)
	}

	if !body.Valid {
		return "", fmt.Errorf("%s: token is not valid", op)
	}

	if body.UserID != "" {
		return body.UserID, nil
	}

	return userIDFromClaims(op, token)
}

func userIDFromClaims(op, token string) (string, error) {
	claims := jwt.MapClaims{}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%s: failed to parse token claims: %w", op, err)
	}

	if id, ok := claims["user_id"].(string); ok && id != "" {
		return id, nil
	}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}

	return "", fmt.Errorf("%s: token carries no user identity", op)
}
