// Package storage is a thin client for the signed-URL object storage
// provider. Staging and published media live in two buckets behind the
// same REST surface; the service key authorizes every server-side call.
package storage

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
)

var (
	// ErrEmptyObject reports a download that returned no bytes. An
	// empty staging artifact is never valid input to the pipeline.
	ErrEmptyObject = errors.New("storage: object is empty")

	// ErrObjectExists reports an upload refused because the path is
	// already taken. Publishes never overwrite.
	ErrObjectExists = errors.New("storage: object already exists")

	// ErrNotFound reports a missing object.
	ErrNotFound = errors.New("storage: object not found")
)

type Client struct {
	baseURL    string
	serviceKey string
	projectRef string
	http       *http.Client
}

// NewClient builds a client for one storage project. baseURL is the
// project's REST root; projectRef is handed to browsers performing
// resumable uploads against the same project.
func NewClient(baseURL, serviceKey, projectRef string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		serviceKey: serviceKey,
		projectRef: projectRef,
		http: &http.Client{
			// Staged videos run tens of megabytes; leave headroom.
			Timeout: 2 * time.Minute,
		},
	}
}

// ProjectRef returns the project reference for client-side uploads.
func (c *Client) ProjectRef() string {
	return c.projectRef
}

// SignedUpload is the handshake result a browser needs to upload one
// object directly to the provider.
type SignedUpload struct {
	Bucket     string `json:"bucket"`
	Path       string `json:"path"`
	Token      string `json:"token"`
	ProjectRef string `json:"projectRef"`
}

// SignUpload asks the provider for a one-time upload token for a path.
// The path must not already exist.
func (c *Client) SignUpload(ctx context.Context, bucket, path string) (*SignedUpload, error) {
	endpoint := c.baseURL + "/object/upload/sign/" + bucket + "/" + escapePath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: sign upload %s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, bucket, path); err != nil {
		return nil, err
	}

	var signed struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return nil, fmt.Errorf("storage: sign upload %s/%s: decode: %w", bucket, path, err)
	}

	token, err := tokenFromSignedURL(signed.URL)
	if err != nil {
		return nil, fmt.Errorf("storage: sign upload %s/%s: %w", bucket, path, err)
	}

	return &SignedUpload{
		Bucket:     bucket,
		Path:       path,
		Token:      token,
		ProjectRef: c.projectRef,
	}, nil
}

// Download fetches an object's bytes. Empty objects are an error.
func (c *Client) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	endpoint := c.baseURL + "/object/" + bucket + "/" + escapePath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: download %s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, bucket, path); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("storage: download %s/%s: read body: %w", bucket, path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("storage: download %s/%s: %w", bucket, path, ErrEmptyObject)
	}
	return data, nil
}

// Upload writes an object. Existing objects are never overwritten; a
// taken path fails with ErrObjectExists.
func (c *Client) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	endpoint := c.baseURL + "/object/" + bucket + "/" + escapePath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("x-upsert", "false")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("storage: upload %s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	return checkStatus(resp, bucket, path)
}

// Remove deletes objects. The provider treats missing paths as
// deleted; callers treat any error here as best-effort.
func (c *Client) Remove(ctx context.Context, bucket string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	body, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/object/" + bucket
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("storage: remove %s: %w", bucket, err)
	}
	defer resp.Body.Close()

	return checkStatus(resp, bucket, strings.Join(paths, ","))
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
}

func checkStatus(resp *http.Response, bucket, path string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("storage: %s/%s: %w", bucket, path, ErrNotFound)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("storage: %s/%s: %w", bucket, path, ErrObjectExists)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
		return fmt.Errorf("storage: %s/%s: unexpected status %d: %s",
			bucket, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// escapePath escapes each path segment but keeps the separators.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// ProjectRefFromURL derives a project reference from a storage URL,
// the first label of its hostname. Returns "" when the URL does not
// parse or has no host.
func ProjectRefFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := u.Hostname()
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}

// tokenFromSignedURL pulls the token query parameter out of the signed
// upload URL the provider returns.
func tokenFromSignedURL(signed string) (string, error) {
	u, err := url.Parse(signed)
	if err != nil {
		return "", fmt.Errorf("parse signed url: %w", err)
	}
	token := u.Query().Get("token")
	if token == "" {
		return "", errors.New("signed url carries no token")
	}
	return token, nil
}
