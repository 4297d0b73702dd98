package mpesa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	sandboxBaseURL = "https://sandbox.safaricom.co.ke"
	prodBaseURL    = "https://api.safaricom.co.ke"

	oauthEndpoint = "/oauth/v1/generate?grant_type=client_credentials"
)

// Client is the Daraja API transport. It only carries encoded request
// descriptors; retry and backoff are the caller's concern.
type Client struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	HTTPClient     *http.Client
	UseSandbox     bool
}

// NewClient creates a new Daraja API client.
func NewClient(consumerKey, consumerSecret string, useSandbox bool) *Client {
	baseURL := prodBaseURL
	if useSandbox {
		baseURL = sandboxBaseURL
	}

	return &Client{
		BaseURL:        baseURL,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		HTTPClient:     &http.Client{Timeout: 30 * time.Second},
		UseSandbox:     useSandbox,
	}
}

// TokenResponse represents the OAuth token response. Daraja reports the
// expiry as a string of seconds.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// GetToken gets an OAuth access token via the client-credentials grant.
func (c *Client) GetToken() (*TokenResponse, error) {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+oauthEndpoint, nil)
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(c.ConsumerKey, c.ConsumerSecret)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get token: %s, status: %d", string(body), resp.StatusCode)
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}

// Send executes an encoded request descriptor against the API and returns
// the decoded response body.
func (c *Client) Send(desc *RequestDescriptor) (map[string]interface{}, error) {
	token, err := c.GetToken()
	if err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(desc.Body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(desc.Method, c.BaseURL+desc.Path, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request to %s failed: %s, status: %d", desc.Path, string(body), resp.StatusCode)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}

	return response, nil
}
