package azure

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	apiVersion = "6.0"

	contentTypeJSONPatch = "application/json-patch+json"
	contentTypeBinary    = "application/octet-stream"
)

// Logger receives the informational lines the client emits around each request.
// *log.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

// Client talks to the work item tracking endpoints of one Azure DevOps organization.
// It holds no mutable state after construction and may be shared across goroutines.
type Client struct {
	baseURL    string
	token      string
	authHeader string
	http       *http.Client
	fs         afero.Fs
	logger     Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFs sets the filesystem screenshots are read from.
func WithFs(fs afero.Fs) Option {
	return func(c *Client) {
		if fs != nil {
			c.fs = fs
		}
	}
}

// NewClient performs no validation; a bad URL or token surfaces on the first request.
func NewClient(organizationURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(organizationURL, "/"),
		token:      token,
		authHeader: "Basic " + EncodeToken(token),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		fs:     afero.NewOsFs(),
		logger: log.New(os.Stderr, "", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EncodeToken encodes a personal access token as basic credentials with an empty username.
func EncodeToken(token string) string {
	return base64.StdEncoding.EncodeToString([]byte(":" + token))
}

func (c *Client) AuthHeader() string {
	return c.authHeader
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) buildURL(project, path string) string {
	return fmt.Sprintf("%s/%s/_apis/%s", c.baseURL, project, path)
}

// TestConnection lists at most one project to check the URL and token.
func (c *Client) TestConnection(ctx context.Context) error {
	url := fmt.Sprintf("%s/_apis/projects?api-version=%s&$top=1", c.baseURL, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	c.applyAuth(req)
	_, err = c.do(req, nil)
	return err
}

func (c *Client) applyAuth(req *http.Request) {
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")
}

// do sends req and decodes a successful body into v when v is non-nil.
// The returned status is 0 when no response was received.
func (c *Client) do(req *http.Request, v any) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &HTTPError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if v == nil || len(data) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return resp.StatusCode, fmt.Errorf("parse response: %w", err)
	}
	return resp.StatusCode, nil
}
