// Package upscale talks to the remote image-upscaling service.
//
// The service contract is deliberately narrow: upload an image and get a
// job id, poll the job until it succeeds or fails, then download the
// result from the URL the job reports.
package upscale

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"grid-splitter/internal/config"
)

// ErrDisabled is returned when no upscaler is configured.
var ErrDisabled = errors.New("upscaling is not configured")

const (
	maxRetries      = 3
	initialDelay    = 1 * time.Second
	requestTimeout  = 60 * time.Second
	maxResultBytes  = 256 << 20
	maxErrorSnippet = 512
)

type JobID string

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusSucceeded  JobStatus = "succeeded"
	StatusFailed     JobStatus = "failed"
)

// Job is the service's view of one upscale request.
type Job struct {
	ID        JobID     `json:"id"`
	Status    JobStatus `json:"status"`
	OutputURL string    `json:"output_url,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Done reports whether the job reached a final state.
func (j Job) Done() bool {
	return j.Status == StatusSucceeded || j.Status == StatusFailed
}

// Client is the upscaler as seen by the upscale worker.
type Client interface {
	Submit(ctx context.Context, name string, data []byte) (JobID, error)
	Status(ctx context.Context, id JobID) (Job, error)
	Fetch(ctx context.Context, job Job) ([]byte, error)
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upscale API returned status %d", e.Code)
	}
	return fmt.Sprintf("upscale API returned status %d: %s", e.Code, e.Body)
}

// Retryable reports whether repeating the request may succeed.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

type HTTPClient struct {
	baseURL    *url.URL
	apiKey     string
	scale      int
	httpClient *http.Client
	retryDelay time.Duration
}

type Option func(*HTTPClient)

func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.httpClient = c }
}

func WithRetryDelay(d time.Duration) Option {
	return func(h *HTTPClient) { h.retryDelay = d }
}

// NewHTTPClient returns ErrDisabled when the configuration lacks a URL or key.
func NewHTTPClient(cfg config.Upscale, opts ...Option) (*HTTPClient, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	base, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upscale API URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid upscale API URL %q: scheme must be http or https", cfg.APIURL)
	}

	scale := cfg.Scale
	if scale <= 0 {
		scale = config.DefaultUpscaleScale
	}

	c := &HTTPClient{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		scale:      scale,
		httpClient: &http.Client{Timeout: requestTimeout},
		retryDelay: initialDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Submit uploads one image as multipart form data.
func (c *HTTPClient) Submit(ctx context.Context, name string, data []byte) (JobID, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("scale", strconv.Itoa(c.scale)); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	fw, err := mw.CreateFormFile("image", name)
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	payload := body.Bytes()
	resp, err := c.do(ctx, func() (*http.Request, error) {
		req, err := newJSONRequest(ctx, http.MethodPost, c.endpoint("upscale"), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return "", err
	}

	job, err := decodeJob(resp)
	if err != nil {
		return "", err
	}
	if job.ID == "" {
		return "", errors.New("upscale API returned no job id")
	}
	return job.ID, nil
}

// Status fetches the current state of a job.
func (c *HTTPClient) Status(ctx context.Context, id JobID) (Job, error) {
	resp, err := c.do(ctx, func() (*http.Request, error) {
		return newJSONRequest(ctx, http.MethodGet, c.endpoint("upscale", string(id)), nil)
	})
	if err != nil {
		return Job{}, err
	}

	job, err := decodeJob(resp)
	if err != nil {
		return Job{}, err
	}
	if job.ID == "" {
		job.ID = id
	}
	return job, nil
}

// Fetch downloads the result of a succeeded job. Relative output URLs are
// resolved against the API base.
func (c *HTTPClient) Fetch(ctx context.Context, job Job) ([]byte, error) {
	if job.Status != StatusSucceeded {
		return nil, fmt.Errorf("job %s is %s, not %s", job.ID, job.Status, StatusSucceeded)
	}
	if job.OutputURL == "" {
		return nil, fmt.Errorf("job %s has no output URL", job.ID)
	}

	ref, err := url.Parse(job.OutputURL)
	if err != nil {
		return nil, fmt.Errorf("invalid output URL: %w", err)
	}
	target := c.baseURL.ResolveReference(ref).String()

	resp, err := c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResultBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}
	if len(data) > maxResultBytes {
		return nil, fmt.Errorf("result exceeds %d bytes", maxResultBytes)
	}
	return data, nil
}

func (c *HTTPClient) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return strings.TrimRight(c.baseURL.String(), "/") + "/" + strings.Join(escaped, "/")
}

// do sends a request built by build, retrying transport errors and
// retryable statuses with a growing delay.
func (c *HTTPClient) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(c.retryDelay) * (1.5 * float64(attempt)))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if c.sameHost(req.URL) {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("API request failed: %w", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSnippet))
		resp.Body.Close()
		statusErr := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
		if !statusErr.Retryable() {
			return nil, statusErr
		}
		lastErr = statusErr
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

// newJSONRequest builds a request for an endpoint that answers with a job.
func newJSONRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *HTTPClient) sameHost(u *url.URL) bool {
	return strings.EqualFold(u.Host, c.baseURL.Host)
}

func decodeJob(resp *http.Response) (Job, error) {
	defer resp.Body.Close()

	var job Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return Job{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return job, nil
}
