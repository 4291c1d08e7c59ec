// Package github talks to the GitHub REST API and keeps board projects
// synchronized with their linked repositories.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// Issue is a GitHub issue (or pull request) as returned by the API.
type Issue struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
	Assignee  *struct {
		Login string `json:"login"`
	} `json:"assignee"`
	Labels []struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	} `json:"labels"`
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request"`
}

// IsPullRequest reports whether the issue is actually a pull request.
func (i Issue) IsPullRequest() bool {
	return i.PullRequest != nil
}

// IssuePayload is the outbound representation for issue create/edit.
type IssuePayload struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	State    string   `json:"state,omitempty"`
	Assignee *string  `json:"assignee"`
	Labels   []string `json:"labels"`
}

// Collaborator is a repository collaborator.
type Collaborator struct {
	Login string `json:"login"`
}

// RepoLabel is a label defined on a repository.
type RepoLabel struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// UserProfile carries the fields of a user lookup we care about.
type UserProfile struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// Client is a minimal GitHub REST API client.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a client. An empty token sends unauthenticated requests.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithBaseURL is used by tests to point at a stub server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) (http.Header, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github API returned status %d: %s", resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("parse github response: %w", err)
		}
	}
	return resp.Header, nil
}

// CreateIssue opens a new issue on the repository.
func (c *Client) CreateIssue(ctx context.Context, owner, repo string, payload IssuePayload) (*Issue, error) {
	var issue Issue
	path := fmt.Sprintf("/repos/%s/%s/issues", owner, repo)
	// State is not accepted on create.
	payload.State = ""
	if _, err := c.do(ctx, http.MethodPost, path, payload, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// EditIssue updates an existing issue.
func (c *Client) EditIssue(ctx context.Context, owner, repo string, number int, payload IssuePayload) (*Issue, error) {
	var issue Issue
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number)
	if _, err := c.do(ctx, http.MethodPatch, path, payload, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// ListCollaborators returns all collaborators of the repository.
func (c *Client) ListCollaborators(ctx context.Context, owner, repo string) ([]Collaborator, error) {
	var collaborators []Collaborator
	path := fmt.Sprintf("/repos/%s/%s/collaborators?per_page=100", owner, repo)
	if _, err := c.do(ctx, http.MethodGet, path, nil, &collaborators); err != nil {
		return nil, err
	}
	return collaborators, nil
}

// ListLabels returns all labels defined on the repository.
func (c *Client) ListLabels(ctx context.Context, owner, repo string) ([]RepoLabel, error) {
	var labels []RepoLabel
	path := fmt.Sprintf("/repos/%s/%s/labels?per_page=100", owner, repo)
	if _, err := c.do(ctx, http.MethodGet, path, nil, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// ListIssuesPage fetches one page of issues (state=all) and returns the
// next page number parsed from the Link header, or 0 on the last page.
func (c *Client) ListIssuesPage(ctx context.Context, owner, repo string, page int) ([]Issue, int, error) {
	var issues []Issue
	path := fmt.Sprintf("/repos/%s/%s/issues?state=all&per_page=100&page=%d", owner, repo, page)
	header, err := c.do(ctx, http.MethodGet, path, nil, &issues)
	if err != nil {
		return nil, 0, err
	}
	return issues, NextPage(header.Get("Link")), nil
}

// ListAllIssues follows pagination until no rel="next" link remains and
// returns every non-pull-request issue, preserving per-page order.
func (c *Client) ListAllIssues(ctx context.Context, owner, repo string) ([]Issue, error) {
	var all []Issue
	page := 1
	for page > 0 {
		issues, next, err := c.ListIssuesPage(ctx, owner, repo, page)
		if err != nil {
			return nil, err
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			all = append(all, issue)
		}
		page = next
	}
	return all, nil
}

// CreateHook registers a webhook for issue and member events.
func (c *Client) CreateHook(ctx context.Context, owner, repo, hookURL string) error {
	payload := map[string]interface{}{
		"name": "web",
		"config": map[string]string{
			"url":          hookURL,
			"content_type": "json",
		},
		"events": []string{"issues", "member"},
		"active": true,
	}
	path := fmt.Sprintf("/repos/%s/%s/hooks", owner, repo)
	_, err := c.do(ctx, http.MethodPost, path, payload, nil)
	return err
}

// GetUser looks up a user profile.
func (c *Client) GetUser(ctx context.Context, username string) (*UserProfile, error) {
	var profile UserProfile
	if _, err := c.do(ctx, http.MethodGet, "/users/"+username, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FetchImage downloads binary content and returns it with its content type.
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	return raw, resp.Header.Get("Content-Type"), nil
}

var nextLinkRegex = regexp.MustCompile(`<[^>]*?[?&]page=(\d+)[^>]*?>;\s*rel="next"`)

// NextPage parses the next page number out of a Link response header.
// It returns 0 when the header carries no rel="next" relation.
func NextPage(linkHeader string) int {
	if linkHeader == "" {
		return 0
	}
	for _, part := range strings.Split(linkHeader, ",") {
		m := nextLinkRegex.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		page, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return page
	}
	return 0
}
