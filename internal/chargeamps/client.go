package chargeamps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"chargeampsd/internal/models"
)

const DefaultBaseURL = "https://eapi.charge.space"

// Client talks to the Chargeamps cloud API. Tokens are acquired lazily on
// the first call and refreshed once on a 401.
type Client struct {
	BaseURL string
	Email   string
	APIKey  string
	HTTP    *http.Client

	password string

	mu           sync.Mutex
	token        string
	refreshToken string
}

func New(baseURL, email, password, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:  baseURL,
		Email:    email,
		APIKey:   apiKey,
		password: password,
		HTTP:     &http.Client{Timeout: 15 * time.Second},
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Login authenticates against the cloud API and stores the session tokens.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

func (c *Client) loginLocked(ctx context.Context) error {
	body, _ := json.Marshal(loginReq{Email: c.Email, Password: c.password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v5/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apiKey", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login failed: status %d: %s", resp.StatusCode, b)
	}
	var tr tokenResp
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return err
	}
	c.token = tr.Token
	c.refreshToken = tr.RefreshToken
	return nil
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		if err := c.loginLocked(ctx); err != nil {
			return "", err
		}
	}
	return c.token, nil
}

// relogin drops the cached token and authenticates again. Used after a 401.
func (c *Client) relogin(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.refreshToken = ""
	if err := c.loginLocked(ctx); err != nil {
		return "", err
	}
	return c.token, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return err
		}
	}

	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if token, err = c.relogin(ctx); err != nil {
			return err
		}
		if resp, err = c.send(ctx, method, path, token, body); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, b)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path, token string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("apiKey", c.APIKey)
	req.Header.Set("Authorization", "Bearer "+token)
	return c.HTTP.Do(req)
}

// GetChargePoints returns all charge points owned by the account.
func (c *Client) GetChargePoints(ctx context.Context) ([]models.ChargePoint, error) {
	var out []models.ChargePoint
	if err := c.doJSON(ctx, http.MethodGet, "/api/v5/chargepoints/owned", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetChargePointStatus(ctx context.Context, id string) (*models.ChargePointStatus, error) {
	var out models.ChargePointStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/v5/chargepoints/"+id+"/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetConnectorSettings(ctx context.Context, id string, connectorID int) (*models.ConnectorSettings, error) {
	var out models.ConnectorSettings
	path := fmt.Sprintf("/api/v5/chargepoints/%s/connectors/%d/settings", id, connectorID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetConnectorSettings(ctx context.Context, settings models.ConnectorSettings) error {
	path := fmt.Sprintf("/api/v5/chargepoints/%s/connectors/%d/settings", settings.ChargePointID, settings.ConnectorID)
	return c.doJSON(ctx, http.MethodPut, path, settings, nil)
}
