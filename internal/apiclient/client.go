// Package apiclient talks to the remote restaurant API. The bearer token is
// forwarded as-is and never inspected.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"dashboard/internal/domain"
	"dashboard/internal/domain/models"
	"dashboard/internal/utils"
)

const maxBodyBytes = 8 << 20

// Client wraps HTTP client for API communication
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Metrics    *Metrics
}

// NewClient creates a new API client. A zero timeout leaves requests
// bounded only by their context.
func NewClient(baseURL string, timeout time.Duration, metrics *Metrics) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Metrics:    metrics,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string       `json:"token"`
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

// Login exchanges credentials for a token and the user record.
func (c *Client) Login(ctx context.Context, email, password string) (string, models.User, error) {
	var resp loginResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", "", nil, loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return "", models.User{}, err
	}
	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}
	if token == "" || resp.User == nil {
		return "", models.User{}, domain.InternalError{Msg: "login response is missing token or user"}
	}
	return token, *resp.User, nil
}

func (c *Client) ListUsers(ctx context.Context, token string, params url.Values) ([]models.User, error) {
	var out []models.User
	err := c.list(ctx, "users", token, "/users", params, &out)
	return out, err
}

func (c *Client) ListRestaurants(ctx context.Context, token string, params url.Values) ([]models.Restaurant, error) {
	var out []models.Restaurant
	err := c.list(ctx, "restaurants", token, "/restaurants", params, &out)
	return out, err
}

func (c *Client) ListOrders(ctx context.Context, token string, params url.Values) ([]models.Order, error) {
	var out []models.Order
	err := c.list(ctx, "orders", token, "/orders", params, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, token string, in models.UserInput) (models.User, error) {
	var out models.User
	err := c.do(ctx, "users", http.MethodPost, "/users", token, nil, in, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, token string, id int64, in models.UserInput) (models.User, error) {
	var out models.User
	err := c.do(ctx, "users", http.MethodPut, "/users/"+strconv.FormatInt(id, 10), token, nil, in, &out)
	return out, err
}

func (c *Client) CreateRestaurant(ctx context.Context, token string, in models.RestaurantInput) (models.Restaurant, error) {
	var out models.Restaurant
	err := c.do(ctx, "restaurants", http.MethodPost, "/restaurants", token, nil, in, &out)
	return out, err
}

func (c *Client) UpdateRestaurant(ctx context.Context, token string, id int64, in models.RestaurantInput) (models.Restaurant, error) {
	var out models.Restaurant
	err := c.do(ctx, "restaurants", http.MethodPut, "/restaurants/"+strconv.FormatInt(id, 10), token, nil, in, &out)
	return out, err
}

// list accepts either a bare JSON array or an envelope {"data": [...]}.
func (c *Client) list(ctx context.Context, resource, token, path string, params url.Values, dst any) error {
	var raw json.RawMessage
	if err := c.do(ctx, resource, http.MethodGet, path, token, params, nil, &raw); err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return fmt.Errorf("decode %s envelope: %w", resource, err)
		}
		trimmed = env.Data
	}
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return fmt.Errorf("decode %s: %w", resource, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, resource, method, path, token string, params url.Values, body, dst any) error {
	start := time.Now()
	outcome := "error"
	defer func() {
		c.Metrics.observe(resource, outcome, time.Since(start).Seconds())
	}()

	target := c.BaseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s request failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = strconv.Itoa(resp.StatusCode)
		utils.L().Debug("upstream error",
			zap.String("resource", resource),
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
		)
		upstream := &domain.UpstreamError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       string(respBody),
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return domain.UnauthenticatedError{Msg: "the restaurant API rejected the credentials", Err: upstream}
		case http.StatusConflict:
			return domain.ConflictError{Resource: resource, Msg: conflictMessage(respBody), Err: upstream}
		}
		return upstream
	}

	outcome = "ok"
	if dst == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, dst); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// conflictMessage pulls a readable reason out of a 409 body.
func conflictMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
