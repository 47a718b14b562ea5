// Package client talks to the ClipVault HTTP API on behalf of the operator
// CLI. Connection failures are retried; HTTP error answers are not.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/dmitrijs2005/clipvault/internal/common"
)

type Identity struct {
	OwnerID     string
	DisplayName string
	Roles       []string
}

type File struct {
	Name      string    `json:"name"`
	Folder    string    `json:"folder"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Usage struct {
	Count int `json:"count"`
	Limit int `json:"limit"`
}

type Report struct {
	Resumed  int `json:"resumed"`
	Expired  int `json:"expired"`
	Orphans  int `json:"orphans"`
	Dangling int `json:"dangling"`
	Failed   int `json:"failed"`
}

type UploadRequest struct {
	OwnerID   string `json:"owner_id,omitempty"`
	SourceURL string `json:"source_url"`
	Name      string `json:"name"`
	Folder    string `json:"folder,omitempty"`
}

type Client struct {
	base string
	id   Identity
	http *retryablehttp.Client
}

func New(baseURL string, id Identity, timeout time.Duration, retryMax int) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	rc.CheckRetry = retryConnectionErrors
	rc.HTTPClient.Timeout = timeout
	return &Client{base: strings.TrimRight(baseURL, "/"), id: id, http: rc}
}

// retryConnectionErrors retries only when no response arrived. Server
// answers, including 5xx, are returned to the caller as they are.
func retryConnectionErrors(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil {
		return false, nil
	}
	return err != nil, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) Upload(ctx context.Context, req UploadRequest) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/uploads", req, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) List(ctx context.Context, ownerID string) ([]File, error) {
	var out struct {
		Files []File `json:"files"`
	}
	if err := c.do(ctx, http.MethodGet, ownerPath(ownerID, "files"), nil, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

func (c *Client) Delete(ctx context.Context, ownerID, name string) error {
	return c.do(ctx, http.MethodDelete, ownerPath(ownerID, "files")+"/"+url.PathEscape(name), nil, nil)
}

func (c *Client) Usage(ctx context.Context, ownerID string) (Usage, error) {
	var out Usage
	err := c.do(ctx, http.MethodGet, ownerPath(ownerID, "usage"), nil, &out)
	return out, err
}

func (c *Client) SetQuota(ctx context.Context, ownerID string, limit uint) error {
	body := map[string]uint{"limit": limit}
	return c.do(ctx, http.MethodPut, adminOwnerPath(ownerID, "quota"), body, nil)
}

func (c *Client) SetFolder(ctx context.Context, ownerID, folder string) error {
	body := map[string]string{"folder": folder}
	return c.do(ctx, http.MethodPut, adminOwnerPath(ownerID, "folder"), body, nil)
}

func (c *Client) Reconcile(ctx context.Context) (Report, error) {
	var out Report
	err := c.do(ctx, http.MethodPost, "/api/v1/admin/reconcile", nil, &out)
	return out, err
}

func ownerPath(ownerID, tail string) string {
	return "/api/v1/owners/" + url.PathEscape(ownerID) + "/" + tail
}

func adminOwnerPath(ownerID, tail string) string {
	return "/api/v1/admin/owners/" + url.PathEscape(ownerID) + "/" + tail
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(common.OwnerIDHeaderName, c.id.OwnerID)
	req.Header.Set(common.OwnerNameHeaderName, c.id.DisplayName)
	req.Header.Set(common.OwnerRolesHeaderName, strings.Join(c.id.Roles, ","))

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Category: http.StatusText(resp.StatusCode)}
		var eb struct {
			Error     string `json:"error"`
			Message   string `json:"message"`
			Retryable bool   `json:"retryable"`
		}
		if json.NewDecoder(resp.Body).Decode(&eb) == nil && eb.Error != "" {
			apiErr.Category, apiErr.Message, apiErr.Retryable = eb.Error, eb.Message, eb.Retryable
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// OwnerID is the identity the client acts as.
func (c *Client) OwnerID() string {
	return c.id.OwnerID
}
