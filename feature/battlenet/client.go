package battlenet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Character sub-resources fetched for an enhanced profile.
const (
	ResourceProfile        = ""
	ResourceEquipment      = "equipment"
	ResourceMythicKeystone = "mythic-keystone-profile"
	ResourceProfessions    = "professions"
)

// TokenResponse is the credential exchange payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Client performs raw calls against the upstream API.
type Client struct {
	httpClient   *http.Client
	tokenURL     string
	apiBaseURL   string
	locale       string
	clientID     string
	clientSecret string
}

// NewClient creates a client. A nil httpClient gets one bounded by cfg.TimeoutSeconds.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.TimeoutSeconds
		if timeout <= 0 {
			timeout = 30
		}
		httpClient = &http.Client{Timeout: time.Duration(timeout) * time.Second}
	}
	return &Client{
		httpClient:   httpClient,
		tokenURL:     cfg.TokenURL,
		apiBaseURL:   cfg.APIBaseURL,
		locale:       cfg.Locale,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}
}

// ExchangeToken performs the client-credentials grant.
func (c *Client) ExchangeToken(ctx context.Context) (TokenResponse, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req, "token")
	if err != nil {
		return TokenResponse{}, err
	}

	var tok TokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return TokenResponse{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return TokenResponse{}, fmt.Errorf("token response carried no access token")
	}
	return tok, nil
}

// GetGuild fetches the guild summary document.
func (c *Client) GetGuild(ctx context.Context, token, region, realmSlug, guildSlug string) ([]byte, error) {
	path := fmt.Sprintf("/data/wow/guild/%s/%s", url.PathEscape(realmSlug), url.PathEscape(guildSlug))
	return c.get(ctx, token, region, path)
}

// GetGuildRoster fetches the guild roster document.
func (c *Client) GetGuildRoster(ctx context.Context, token, region, realmSlug, guildSlug string) ([]byte, error) {
	path := fmt.Sprintf("/data/wow/guild/%s/%s/roster", url.PathEscape(realmSlug), url.PathEscape(guildSlug))
	return c.get(ctx, token, region, path)
}

// GetCharacter fetches a character profile or one of its sub-resources.
func (c *Client) GetCharacter(ctx context.Context, token, region, realmSlug, name, resource string) ([]byte, error) {
	path := fmt.Sprintf("/profile/wow/character/%s/%s", url.PathEscape(realmSlug), url.PathEscape(name))
	if resource != ResourceProfile {
		path += "/" + resource
	}
	return c.get(ctx, token, region, path)
}

func (c *Client) get(ctx context.Context, token, region, path string) ([]byte, error) {
	base := c.apiBaseURL
	if strings.Contains(base, "%s") {
		base = fmt.Sprintf(base, region)
	}

	q := url.Values{}
	q.Set("namespace", "profile-"+region)
	if c.locale != "" {
		q.Set("locale", c.locale)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	return c.do(req, path)
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, op)
	}
	return body, nil
}
