// Package authclient talks to the external authentication service.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/invibe/internal/model"
)

// DefaultMessage is shown when the service gives no reason for a failure.
const DefaultMessage = "Failed to login"

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// LoginError carries the service's failure message unchanged.
type LoginError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *LoginError) Error() string {
	return e.Message
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Client calls the auth service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Login exchanges credentials for an access token and the user's identity.
// Any failure is returned as a *LoginError whose message is fit to show.
func (c *Client) Login(ctx context.Context, email, password string) (*model.LoginResult, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth.login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &LoginError{Message: DefaultMessage, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		msg := er.Message
		if msg == "" {
			msg = DefaultMessage
		}
		return nil, &LoginError{
			StatusCode: resp.StatusCode,
			Message:    msg,
			Err:        fmt.Errorf("auth service returned status %d", resp.StatusCode),
		}
	}

	var result model.LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &LoginError{StatusCode: resp.StatusCode, Message: DefaultMessage, Err: fmt.Errorf("decode response: %w", err)}
	}
	if result.AccessToken == "" {
		return nil, &LoginError{StatusCode: resp.StatusCode, Message: DefaultMessage, Err: errors.New("response has no access token")}
	}
	return &result, nil
}
