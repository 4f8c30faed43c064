package curseforge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"cfmods/catalog"
	"cfmods/config"
)

// Client talks to the catalog mirror and the per-file detail endpoint.
type Client struct {
	CatalogURL string
	DetailURL  string
	UserAgent  string
	HTTPClient *http.Client
}

// NewClient creates a client from the loaded configuration. A zero
// HTTPTimeout means requests never time out on their own.
func NewClient(cfg config.Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("USERAGENT is not configured")
	}
	if cfg.CatalogURL == "" || cfg.DetailURL == "" {
		return nil, fmt.Errorf("catalog and detail endpoints must be configured")
	}

	return &Client{
		CatalogURL: cfg.CatalogURL,
		DetailURL:  cfg.DetailURL,
		UserAgent:  cfg.UserAgent,
		HTTPClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, fullURL string, isBinary bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	if isBinary {
		req.Header.Set("Accept", "application/octet-stream")
		// Transparent gzip would drop Content-Length.
		req.Header.Set("Accept-Encoding", "identity")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	return req, nil
}

// makeRequest runs a JSON request and decodes the body into target.
func (c *Client) makeRequest(ctx context.Context, method, fullURL string, target interface{}) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, fullURL, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp, NewAPIError(resp.StatusCode, fullURL, string(bodyBytes))
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return resp, fmt.Errorf("failed to decode json response: %w", err)
		}
	}
	return resp, nil
}

// ProbeCatalog issues a GET for the catalog and hands back the response with
// its body unread, whatever the status. The caller must close the body.
func (c *Client) ProbeCatalog(ctx context.Context) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.CatalogURL, false)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll catalog: %w", err)
	}
	return resp, nil
}

// FileDetailURL builds {base}/{modId}/file/{fileId}.
func (c *Client) FileDetailURL(modID, fileID int) string {
	return c.DetailURL + "/" + strconv.Itoa(modID) + "/file/" + strconv.Itoa(fileID)
}

// GetFileDetail fetches download URL and dependencies for one file.
func (c *Client) GetFileDetail(ctx context.Context, modID, fileID int) (catalog.FileDetail, error) {
	var detail catalog.FileDetail
	if _, err := c.makeRequest(ctx, http.MethodGet, c.FileDetailURL(modID, fileID), &detail); err != nil {
		return catalog.FileDetail{}, fmt.Errorf("failed to get file detail %d/%d: %w", modID, fileID, err)
	}
	if err := detail.Validate(); err != nil {
		return catalog.FileDetail{}, fmt.Errorf("file detail %d/%d: %w", modID, fileID, err)
	}
	return detail, nil
}

// Open starts a binary download. The status is not checked; the caller
// owns the response body.
func (c *Client) Open(ctx context.Context, downloadURL string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, downloadURL, true)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to start download from %s: %w", downloadURL, err)
	}
	return resp, nil
}
