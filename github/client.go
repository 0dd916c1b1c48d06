// Package github is a small client for the GitHub REST Contents API.
// It covers the calls racepub needs: read a file, create or update a file,
// and list a directory.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com"
	// APIVersion is sent as X-GitHub-Api-Version on every request.
	APIVersion = "2022-11-28"

	defaultUserAgent = "racepub"
	maxErrorBody     = 4 << 10
)

// ErrNotFound is returned when the requested path does not exist on the ref.
var ErrNotFound = errors.New("github: not found")

// StatusError reports a non-2xx response. Body holds the response text as
// GitHub sent it (truncated to a few KB).
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GitHub %s %s: %d - %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// File is the subset of a GitHub content object racepub reads.
type File struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	Encoding string `json:"encoding,omitempty"`
	Content  string `json:"content,omitempty"`
}

// Decode returns the file content. GitHub wraps base64 content at 60
// columns, so line breaks are stripped before decoding.
func (f *File) Decode() ([]byte, error) {
	if f.Encoding != "" && f.Encoding != "base64" {
		return nil, fmt.Errorf("github: unsupported encoding %q for %s", f.Encoding, f.Path)
	}
	raw := strings.NewReplacer("\n", "", "\r", "").Replace(f.Content)
	return base64.StdEncoding.DecodeString(raw)
}

// PutRequest is the body of a create-or-update call. Content must already be
// base64 encoded. SHA must be empty for a create and equal to the current
// blob sha for an update.
type PutRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type putResponse struct {
	Content *File `json:"content"`
}

// Client talks to the Contents API of a single repository.
type Client struct {
	baseURL   string
	owner     string
	repo      string
	token     string
	userAgent string
	http      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (GitHub Enterprise, tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithUserAgent sets the User-Agent header. GitHub rejects requests without one.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a Client for owner/repo authenticated with token.
func NewClient(owner, repo, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		owner:     owner,
		repo:      repo,
		token:     token,
		userAgent: defaultUserAgent,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetFile fetches the file at path on ref. It returns ErrNotFound on 404.
func (c *Client) GetFile(ctx context.Context, path, ref string) (*File, error) {
	var f File
	if err := c.do(ctx, http.MethodGet, path, ref, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// PutFile creates or updates the file at path and returns the new content
// object as reported by GitHub.
func (c *Client) PutFile(ctx context.Context, path string, req PutRequest) (*File, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var res putResponse
	if err := c.do(ctx, http.MethodPut, path, "", body, &res); err != nil {
		return nil, err
	}
	if res.Content == nil {
		return &File{Path: path}, nil
	}
	return res.Content, nil
}

// ListDir lists the entries of the directory at path on ref. Entries do not
// carry content; use GetFile for that.
func (c *Client) ListDir(ctx context.Context, path, ref string) ([]File, error) {
	var entries []File
	if err := c.do(ctx, http.MethodGet, path, ref, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) contentsURL(path, ref string) string {
	u := c.baseURL + "/repos/" + url.PathEscape(c.owner) + "/" + url.PathEscape(c.repo) +
		"/contents/" + escapePath(path)
	if ref != "" {
		u += "?" + url.Values{"ref": {ref}}.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, path, ref string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.contentsURL(path, ref), rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", APIVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if method == http.MethodGet && resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(text)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("github: decode %s %s: %w", method, path, err)
	}
	return nil
}

// escapePath escapes each segment of a repository path, keeping the slashes.
func escapePath(p string) string {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
