package osu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/soban-bot/soban/pkg/config"
	"github.com/soban-bot/soban/pkg/logger"
)

// ErrNotFound is returned when the API answers 404, typically for an unknown
// user or beatmap.
var ErrNotFound = errors.New("osu: not found")

// API is the subset of the osu! v2 API the commands use.
type API interface {
	User(ctx context.Context, user UserID) (*User, error)
	RecentScores(ctx context.Context, user UserID, opts RecentOptions) ([]Score, error)
	BeatmapAttributes(ctx context.Context, beatmapID uint32, mods Mods) (*DifficultyAttributes, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ API = (*Client)(nil)

// NewClient returns a client authenticated with the client credentials
// grant. ctx is used for token refreshes and should outlive the client.
func NewClient(ctx context.Context, cfg config.OsuConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	cc := &clientcredentials.Config{
		ClientID:     strconv.FormatUint(cfg.ClientID, 10),
		ClientSecret: cfg.ClientSecret,
		TokenURL:     base + "/oauth/token",
		Scopes:       []string{"public"},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	httpClient := cc.Client(ctx)
	httpClient.Timeout = 30 * time.Second

	logger.DebugCF("osu", "Creating osu! API client", map[string]any{
		"base_url":   base,
		"client_id":  cfg.ClientID,
		"has_secret": cfg.ClientSecret != "",
	})

	return &Client{baseURL: base, httpClient: httpClient}
}

func (c *Client) User(ctx context.Context, user UserID) (*User, error) {
	path := "/users/" + url.PathEscape(user.String()) + "/osu"
	query := url.Values{}
	if user.IsName() {
		query.Set("key", "username")
	} else {
		query.Set("key", "id")
	}

	var u User
	if err := c.do(ctx, http.MethodGet, path, query, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// RecentScores lists a user's latest plays in osu! standard. The scores
// endpoint only takes numeric ids, so names are resolved first.
func (c *Client) RecentScores(ctx context.Context, user UserID, opts RecentOptions) ([]Score, error) {
	if user.IsName() {
		u, err := c.User(ctx, user)
		if err != nil {
			return nil, err
		}
		user = UserID{ID: u.ID}
	}

	limit := opts.Limit
	if limit == 0 {
		limit = 1
	}
	query := url.Values{}
	query.Set("mode", "osu")
	query.Set("include_fails", boolParam(opts.IncludeFails))
	query.Set("offset", strconv.FormatUint(uint64(opts.Offset), 10))
	query.Set("limit", strconv.FormatUint(uint64(limit), 10))

	var scores []Score
	path := "/users/" + user.String() + "/scores/recent"
	if err := c.do(ctx, http.MethodGet, path, query, nil, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

func (c *Client) BeatmapAttributes(ctx context.Context, beatmapID uint32, mods Mods) (*DifficultyAttributes, error) {
	body := struct {
		Mods    []string `json:"mods"`
		Ruleset string   `json:"ruleset"`
	}{Mods: mods, Ruleset: "osu"}
	if body.Mods == nil {
		body.Mods = []string{}
	}

	var resp struct {
		Attributes DifficultyAttributes `json:"attributes"`
	}
	path := "/beatmaps/" + strconv.FormatUint(uint64(beatmapID), 10) + "/attributes"
	if err := c.do(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Attributes, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + "/api/v2" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.DebugCF("osu", "Sending API request", map[string]any{
		"method": method,
		"path":   path,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		logger.WarnCF("osu", "API error", map[string]any{
			"path":        path,
			"status_code": resp.StatusCode,
			"response":    truncate(string(data), 200),
		})
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(data), 200))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
