package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	gojira "github.com/andygrunwald/go-jira"
	"github.com/rs/zerolog/log"
)

// Issue is one raw work item as delivered by the tracker, together with
// the field-id to display-name map requested through expand=names.
// Changelog is set only when the changelog was fetched separately; one
// embedded through expand=changelog stays in Payload.
type Issue struct {
	Key       string
	Payload   Payload
	Changelog Payload
	Names     map[string]string
}

// Client is the interface for fetching raw work items from Jira.
type Client interface {
	GetIssue(ctx context.Context, key string) (*Issue, error)
	SearchIssues(ctx context.Context, jql string, maxResults int) ([]Issue, error)
}

// Config holds the authentication and connection settings for Jira.
type Config struct {
	BaseURL string

	// Bearer / personal access token. Takes precedence over basic auth.
	Token string

	// Basic auth (Jira Cloud email + API token)
	User     string
	APIToken string

	// Performance Settings
	RequestDelay time.Duration
	PageSize     int
}

const (
	defaultPageSize = 50
	issueExpand     = "changelog,names"
)

type restClient struct {
	cfg Config
	api *gojira.Client

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient creates a new Jira client based on the provided configuration.
func NewClient(cfg Config) (Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("jira base URL is not configured")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}

	var httpClient *http.Client
	switch {
	case cfg.Token != "":
		httpClient = (&gojira.BearerAuthTransport{Token: cfg.Token}).Client()
	case cfg.User != "":
		httpClient = (&gojira.BasicAuthTransport{Username: cfg.User, Password: cfg.APIToken}).Client()
	default:
		httpClient = &http.Client{}
	}
	httpClient.Timeout = 90 * time.Second

	api, err := gojira.NewClient(httpClient, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}
	return &restClient{cfg: cfg, api: api}, nil
}

// GetIssue fetches a single issue with its changelog and field names.
func (c *restClient) GetIssue(ctx context.Context, key string) (*Issue, error) {
	endpoint := fmt.Sprintf("rest/api/2/issue/%s?expand=%s", url.PathEscape(key), issueExpand)

	var body Payload
	if err := c.get(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("failed to fetch issue %s: %w", key, err)
	}

	issue := toIssue(body, namesOf(body))
	return &issue, nil
}

// SearchIssues runs a JQL query and pages through the results until
// maxResults issues are collected or the result set is exhausted.
func (c *restClient) SearchIssues(ctx context.Context, jql string, maxResults int) ([]Issue, error) {
	var issues []Issue
	startAt := 0

	for {
		pageSize := c.cfg.PageSize
		if maxResults > 0 && maxResults-len(issues) < pageSize {
			pageSize = maxResults - len(issues)
		}

		q := url.Values{}
		q.Set("jql", jql)
		q.Set("startAt", strconv.Itoa(startAt))
		q.Set("maxResults", strconv.Itoa(pageSize))
		q.Set("expand", issueExpand)

		var body Payload
		if err := c.get(ctx, "rest/api/2/search?"+q.Encode(), &body); err != nil {
			return nil, fmt.Errorf("jql search failed: %w", err)
		}

		names := namesOf(body)
		page := body.Maps("issues")
		for _, raw := range page {
			issues = append(issues, toIssue(raw, names))
		}

		total, _ := body.Int64("total")
		log.Debug().
			Str("jql", jql).
			Int("startAt", startAt).
			Int("page", len(page)).
			Int64("total", total).
			Msg("Fetched search page")

		startAt += len(page)
		if len(page) == 0 || int64(startAt) >= total || (maxResults > 0 && len(issues) >= maxResults) {
			break
		}
	}

	return issues, nil
}

func (c *restClient) get(ctx context.Context, endpoint string, v any) error {
	c.throttle()

	req, err := c.api.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.api.Do(req, v)
	if err != nil {
		return gojira.NewJiraError(resp, err)
	}
	log.Debug().Str("endpoint", endpoint).Dur("took", time.Since(start)).Msg("Jira request complete")
	return nil
}

// throttle enforces the configured minimum delay between requests.
func (c *restClient) throttle() {
	if c.cfg.RequestDelay <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if wait := c.cfg.RequestDelay - time.Since(c.lastRequest); wait > 0 {
		log.Trace().Dur("wait", wait).Msg("Throttling Jira request")
		time.Sleep(wait)
	}
	c.lastRequest = time.Now()
}

func toIssue(raw Payload, names map[string]string) Issue {
	return Issue{
		Key:     raw.String("key"),
		Payload: raw,
		Names:   names,
	}
}

func namesOf(body Payload) map[string]string {
	raw := body.Map("names")
	if len(raw) == 0 {
		return nil
	}
	names := make(map[string]string, len(raw))
	for id := range raw {
		if name := raw.String(id); name != "" {
			names[id] = name
		}
	}
	return names
}
