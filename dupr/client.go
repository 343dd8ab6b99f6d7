// Package dupr is a thin HTTP client for the DUPR rating provider. The
// provider has no Go SDK, so requests are built by hand against its JSON API.
package dupr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// searchTimeout bounds match-search calls so a slow provider cannot hang
// verification.
const searchTimeout = 10 * time.Second

// UpstreamError preserves the provider's status code and raw body so the
// caller can log and report exactly what the provider said.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("rating provider returned %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL      string
	clientKey    string
	clientSecret string
	httpClient   *http.Client
	logger       *slog.Logger

	// Best-effort token cache. A miss or expiry just triggers a fresh
	// exchange; correctness never depends on a cached value surviving.
	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(baseURL, clientKey, clientSecret string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:      baseURL,
		clientKey:    clientKey,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
}

func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"clientKey":    c.clientKey,
		"clientSecret": c.clientSecret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/v1/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tok.Result.AccessToken == "" {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	c.token = tok.Result.AccessToken
	expiresIn := tok.Result.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	// Renew a minute early so a token never expires mid-request.
	c.tokenExpiry = time.Now().Add(time.Duration(expiresIn-60) * time.Second)

	return c.token, nil
}

// do sends an authenticated request and returns the raw response body.
// Non-2xx responses become UpstreamError with the body preserved.
func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(encoded)
	}

	token, err := c.getToken(ctx)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("provider request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("provider call failed",
			"method", method, "path", path,
			"status", resp.StatusCode, "body", string(raw))
		return resp.StatusCode, raw, &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp.StatusCode, raw, nil
}

func (c *Client) CreateMatch(ctx context.Context, match MatchPayload) (*MatchResult, error) {
	_, raw, err := c.do(ctx, http.MethodPost, "/match/v1/create", match)
	if err != nil {
		return nil, err
	}
	var resp createMatchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse create response: %w", err)
	}
	return &resp.Result, nil
}

func (c *Client) UpdateMatch(ctx context.Context, matchID string, match MatchPayload) error {
	_, _, err := c.do(ctx, http.MethodPost, "/match/v1/update/"+matchID, match)
	return err
}

func (c *Client) DeleteMatch(ctx context.Context, matchID string) error {
	_, _, err := c.do(ctx, http.MethodDelete, "/match/v1/delete/"+matchID, nil)
	return err
}

// BatchCreate submits all matches in one call. The status code and raw body
// are returned even on failure so the caller can log the attempt durably.
func (c *Client) BatchCreate(ctx context.Context, matches []MatchPayload) (int, []byte, []MatchResult, error) {
	status, raw, err := c.do(ctx, http.MethodPost, "/match/v1/batch",
		map[string]any{"matches": matches})
	if err != nil {
		return status, raw, nil, err
	}
	var resp batchCreateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return status, raw, nil, fmt.Errorf("failed to parse batch response: %w", err)
	}
	return status, raw, resp.Result.Matches, nil
}

// SearchClubMatches queries the club match search over a date window.
func (c *Client) SearchClubMatches(ctx context.Context, clubID string, from, to time.Time) ([]RemoteMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	_, raw, err := c.do(ctx, http.MethodPost, "/club/v1/match/search", map[string]any{
		"clubId":    clubID,
		"startDate": from.Format("2006-01-02"),
		"endDate":   to.Format("2006-01-02"),
		"limit":     200,
		"offset":    0,
	})
	if err != nil {
		return nil, err
	}
	var resp searchMatchesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return resp.Result.Hits, nil
}

// GetUserClubs returns the clubs a provider user belongs to, with roles.
func (c *Client) GetUserClubs(ctx context.Context, duprID string) ([]ClubMembership, error) {
	_, raw, err := c.do(ctx, http.MethodGet, "/user/v1/"+duprID+"/clubs", nil)
	if err != nil {
		return nil, err
	}
	var resp userClubsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse clubs response: %w", err)
	}
	return resp.Result, nil
}
