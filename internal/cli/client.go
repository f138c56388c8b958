package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/information-sharing-networks/oms-authenticator/internal/api"
)

// ServiceError is a non-2xx response from oms-authenticator.
type ServiceError struct {
	StatusCode int
	Errors     []string
}

func (e *ServiceError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, strings.Join(e.Errors, "; "))
}

// Client calls the token API of oms-authenticator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SessionToken requests a session token. requestID may be empty.
func (c *Client) SessionToken(ctx context.Context, provider, ownerID, subjectID, requestID string) (*api.TokenResponse, error) {
	q := url.Values{}
	q.Set("omsid", ownerID)
	q.Set("connectionid", subjectID)
	if requestID != "" {
		q.Set("requestid", requestID)
	}
	var resp api.TokenResponse
	if err := c.do(ctx, http.MethodGet, c.providerURL(provider, "/oms/token", q), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CachedSessionToken looks up a cached session token without acquiring one.
func (c *Client) CachedSessionToken(ctx context.Context, provider, ownerID, subjectID string) (*api.TokenResponse, error) {
	q := url.Values{}
	q.Set("omsid", ownerID)
	q.Set("connectionid", subjectID)
	var resp api.TokenResponse
	if err := c.do(ctx, http.MethodGet, c.providerURL(provider, "/oms/token/cached", q), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AuthorityToken requests an authority token. requestID may be empty.
func (c *Client) AuthorityToken(ctx context.Context, provider, requestID string) (*api.TokenResponse, error) {
	q := url.Values{}
	if requestID != "" {
		q.Set("requestid", requestID)
	}
	var resp api.TokenResponse
	if err := c.do(ctx, http.MethodGet, c.providerURL(provider, "/true/token", q), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sign requests a signature of payloadBase64 with the provider certificate.
func (c *Client) Sign(ctx context.Context, provider, payloadBase64 string) (*api.SignatureResponse, error) {
	body, err := json.Marshal(api.SignatureRequest{PayloadBase64: &payloadBase64})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	var resp api.SignatureResponse
	if err := c.do(ctx, http.MethodPost, c.providerURL(provider, "/signature", nil), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) providerURL(provider, path string, q url.Values) string {
	u := c.baseURL + "/api/v2/" + url.PathEscape(provider) + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, target string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		svcErr := &ServiceError{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil {
			svcErr.Errors = errResp.Errors
		}
		return svcErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, target, err)
	}
	return nil
}
