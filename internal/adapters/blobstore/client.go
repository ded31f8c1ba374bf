package blobstore

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

	"golang.org/x/time/rate"

	"inmobiliaria/internal/adapters/observability"
)

const (
	service = "storage"

	// MaxObjectSize is applied to the bucket when it is created.
	MaxObjectSize = 10 << 20
)

var allowedMimeTypes = []string{"image/jpeg", "image/png", "image/webp"}

var (
	ErrNotFound     = errors.New("storage: not found")
	ErrUnauthorized = errors.New("storage: unauthorized")
	ErrForbidden    = errors.New("storage: forbidden")
)

// StatusError carries an unexpected response from the storage API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("storage: bad status %d: %s", e.Code, e.Body)
}

// Client talks to a Supabase-compatible storage REST API. Requests are rate
// limited client side and never retried.
type Client struct {
	base   string
	bucket string
	key    string
	hc     *http.Client
	rl     *rate.Limiter
}

func New(base, key, bucket string, rps int, timeout time.Duration) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("storage URL is required")
	}
	if key == "" {
		return nil, fmt.Errorf("storage key is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	if rps <= 0 {
		rps = 10
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		bucket: bucket,
		key:    key,
		hc:     &http.Client{Timeout: timeout},
		rl:     rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// PublicURL is the unauthenticated download URL of an object in a public bucket.
func (c *Client) PublicURL(path string) string {
	return c.base + "/storage/v1/object/public/" + c.bucket + "/" + escapePath(path)
}

// Put uploads body under path and returns its public URL. Existing objects
// are not overwritten.
func (c *Client) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) (string, error) {
	u := c.base + "/storage/v1/object/" + c.bucket + "/" + escapePath(path)
	resp, err := c.do(ctx, "put_object", http.MethodPost, u, body, func(r *http.Request) {
		r.Header.Set("Content-Type", contentType)
		r.Header.Set("x-upsert", "false")
		r.Header.Set("Cache-Control", "max-age=3600")
		if size > 0 {
			r.ContentLength = size
		}
	})
	if err != nil {
		return "", err
	}
	drain(resp)
	return c.PublicURL(path), nil
}

// Delete removes the object at path. A missing object counts as deleted.
func (c *Client) Delete(ctx context.Context, path string) error {
	payload, _ := json.Marshal(map[string][]string{"prefixes": {path}})
	u := c.base + "/storage/v1/object/" + c.bucket
	resp, err := c.do(ctx, "delete_object", http.MethodDelete, u, bytes.NewReader(payload), jsonBody)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// EnsureBucket creates the public bucket when it does not exist yet.
func (c *Client) EnsureBucket(ctx context.Context) error {
	resp, err := c.do(ctx, "get_bucket", http.MethodGet, c.base+"/storage/v1/bucket/"+c.bucket, nil, nil)
	if err == nil {
		drain(resp)
		return nil
	}
	if !isMissingBucket(err) {
		return err
	}

	payload, _ := json.Marshal(map[string]any{
		"id":                 c.bucket,
		"name":               c.bucket,
		"public":             true,
		"file_size_limit":    MaxObjectSize,
		"allowed_mime_types": allowedMimeTypes,
	})
	resp, err = c.do(ctx, "create_bucket", http.MethodPost, c.base+"/storage/v1/bucket", bytes.NewReader(payload), jsonBody)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusConflict {
		return nil // created concurrently
	}
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// do performs one rate-limited request. Non-2xx responses become errors and
// their bodies are closed; on success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, endpoint, method, target string, body io.Reader, prepare func(*http.Request)) (*http.Response, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("apikey", c.key)
	req.Header.Set("User-Agent", "inmobiliaria/1.0")
	if prepare != nil {
		prepare(req)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp, nil
	case resp.StatusCode == http.StatusNotFound:
		drain(resp)
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		drain(resp)
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		drain(resp)
		return nil, ErrForbidden
	default:
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
}

// isMissingBucket also accepts the 400 "Bucket not found" body some storage
// versions send instead of a 404.
func isMissingBucket(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(se.Body), "not found")
}

func jsonBody(r *http.Request) { r.Header.Set("Content-Type", "application/json") }

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func escapePath(p string) string {
	segs := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
