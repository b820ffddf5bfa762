// Package issues files user bug reports and feature requests as GitHub
// issues through the REST API.
package issues

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://api.github.com"
	screenshotBranch = "bug-report-screenshots"
	baseBranch       = "main"

	screenshotFailedNote = "_Note: Screenshot upload failed, but report was successfully created._"
)

// ErrNotConfigured is returned when no API token is set.
var ErrNotConfigured = errors.New("GitHub integration not configured. Please contact support.")

// APIError is a non-2xx response from GitHub.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("github %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

type Client struct {
	token      string
	owner      string
	repo       string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		cl.baseURL = strings.TrimRight(u, "/")
	}
}

func WithClock(now func() time.Time) Option {
	return func(cl *Client) {
		cl.now = now
	}
}

func NewClient(token, owner, repo string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		token:      token,
		owner:      owner,
		repo:       repo,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the API token is set.
func (c *Client) Configured() bool {
	return c.token != ""
}

type createIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

type issueResponse struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// Create files the report as an issue. A screenshot is committed to a side
// branch and linked from a comment; if that fails the issue still stands and
// gets a note comment instead.
func (c *Client) Create(ctx context.Context, r *Report) (*Result, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	title := r.Title()
	var issue issueResponse
	err := c.do(ctx, http.MethodPost, c.repoPath("issues"), createIssueRequest{
		Title:  title,
		Body:   r.Body(),
		Labels: r.Labels(),
	}, &issue)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	c.logger.Info("created issue", "number", issue.Number, "title", title)

	if data := r.screenshotData(); data != "" {
		if err := c.attachScreenshot(ctx, issue.Number, data); err != nil {
			c.logger.Error("upload screenshot", "issue", issue.Number, "error", err)
			if err := c.comment(ctx, issue.Number, screenshotFailedNote); err != nil {
				c.logger.Error("comment screenshot failure", "issue", issue.Number, "error", err)
			}
		} else {
			c.logger.Info("uploaded screenshot", "issue", issue.Number)
		}
	}

	return &Result{Success: true, IssueNumber: issue.Number, URL: issue.HTMLURL}, nil
}

func (c *Client) attachScreenshot(ctx context.Context, number int, data string) error {
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return fmt.Errorf("decode screenshot: %w", err)
	}
	if err := c.ensureBranch(ctx, screenshotBranch); err != nil {
		return err
	}

	stamp := strings.NewReplacer(":", "-", ".", "-").
		Replace(c.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	path := fmt.Sprintf("screenshots/bug-report-%d-%s.png", number, stamp)

	err := c.do(ctx, http.MethodPut, c.repoPath("contents/"+path), map[string]string{
		"message": fmt.Sprintf("Add screenshot for issue #%d", number),
		"content": data,
		"branch":  screenshotBranch,
	}, nil)
	if err != nil {
		return fmt.Errorf("upload screenshot: %w", err)
	}

	rawURL := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", c.owner, c.repo, screenshotBranch, path)
	return c.comment(ctx, number, fmt.Sprintf("**Screenshot**:\n\n![Screenshot](%s)", rawURL))
}

type refResponse struct {
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

// ensureBranch creates branch from the base branch when it does not exist.
func (c *Client) ensureBranch(ctx context.Context, branch string) error {
	err := c.do(ctx, http.MethodGet, c.repoPath("git/ref/heads/"+branch), nil, nil)
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		return fmt.Errorf("get branch %s: %w", branch, err)
	}

	var base refResponse
	if err := c.do(ctx, http.MethodGet, c.repoPath("git/ref/heads/"+baseBranch), nil, &base); err != nil {
		return fmt.Errorf("get branch %s: %w", baseBranch, err)
	}
	err = c.do(ctx, http.MethodPost, c.repoPath("git/refs"), map[string]string{
		"ref": "refs/heads/" + branch,
		"sha": base.Object.SHA,
	}, nil)
	if err != nil {
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	return nil
}

func (c *Client) comment(ctx context.Context, number int, body string) error {
	err := c.do(ctx, http.MethodPost, c.repoPath(fmt.Sprintf("issues/%d/comments", number)), map[string]string{
		"body": body,
	}, nil)
	if err != nil {
		return fmt.Errorf("comment on issue %d: %w", number, err)
	}
	return nil
}

func (c *Client) repoPath(p string) string {
	return fmt.Sprintf("/repos/%s/%s/%s", url.PathEscape(c.owner), url.PathEscape(c.repo), p)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var msg struct {
			Message string `json:"message"`
		}
		json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&msg)
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: msg.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
