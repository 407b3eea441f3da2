// Package imaging is the HTTP client of the image-processing service.
package imaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pscheid92/valo/internal/domain"
	"github.com/pscheid92/valo/internal/platform/correlation"
	"github.com/pscheid92/valo/internal/platform/retry"
	"github.com/sony/gobreaker"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultRemoveBgTimeout = 120 * time.Second
	maxErrorBody           = 4 << 10
)

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("image service returned status %d", e.Code)
}

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	RemoveBgTimeout time.Duration
	SaveRetry       retry.Policy
	HTTPClient      *http.Client // nil means a default client
	OnStateChange   func(from, to gobreaker.State)
}

// Client implements domain.ImageProcessor over HTTP/JSON. All calls share
// one circuit breaker so an unreachable service fails fast.
type Client struct {
	baseURL         string
	http            *http.Client
	breaker         *gobreaker.CircuitBreaker
	timeout         time.Duration
	removeBgTimeout time.Duration
	saveRetry       retry.Policy
}

var _ domain.ImageProcessor = (*Client)(nil)

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	removeBgTimeout := cfg.RemoveBgTimeout
	if removeBgTimeout <= 0 {
		removeBgTimeout = defaultRemoveBgTimeout
	}
	saveRetry := cfg.SaveRetry
	if saveRetry.MaxAttempts == 0 {
		saveRetry = retry.Policy{MaxAttempts: 3, InitialBackoff: 200 * time.Millisecond, MaxBackoff: 2 * time.Second}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "image-service",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(from, to)
			}
		},
	})

	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		http:            httpClient,
		breaker:         breaker,
		timeout:         timeout,
		removeBgTimeout: removeBgTimeout,
		saveRetry:       saveRetry,
	}
}

// State exposes the breaker state for health checks.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

type processParams struct {
	Brightness int  `json:"brightness"`
	Sharpness  int  `json:"sharpness"`
	Denoise    int  `json:"denoise"`
	Red        int  `json:"red"`
	Green      int  `json:"green"`
	Blue       int  `json:"blue"`
	Mono       bool `json:"mono"`
}

type cropParams struct {
	Crop cropBox `json:"crop"`
}

type cropBox struct {
	Enabled bool    `json:"enabled"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
}

type imageRequest struct {
	Image  domain.ImageRef `json:"image"`
	Params any             `json:"params"`
}

type imageResponse struct {
	Image domain.ImageRef `json:"image"`
}

type saveRequest struct {
	Image domain.ImageRef `json:"image"`
	Path  string          `json:"path"`
}

type saveResponse struct {
	OK      bool   `json:"ok"`
	SavedTo string `json:"saved_to"`
}

// Process renders image with the adjustment parameters. The preset label is
// not part of the wire format.
func (c *Client) Process(ctx context.Context, image domain.ImageRef, params domain.Parameters) (domain.ImageRef, error) {
	body := imageRequest{Image: image, Params: processParams{
		Brightness: params.Brightness,
		Sharpness:  params.Sharpness,
		Denoise:    params.Denoise,
		Red:        params.Red,
		Green:      params.Green,
		Blue:       params.Blue,
		Mono:       params.Mono,
	}}
	return c.image(ctx, "process", "/process", body, c.timeout)
}

func (c *Client) Crop(ctx context.Context, image domain.ImageRef, rect domain.CropRect) (domain.ImageRef, error) {
	body := imageRequest{Image: image, Params: cropParams{Crop: cropBox{
		Enabled: true,
		X:       rect.X,
		Y:       rect.Y,
		W:       rect.W,
		H:       rect.H,
	}}}
	return c.image(ctx, "crop", "/crop", body, c.timeout)
}

func (c *Client) RemoveBackground(ctx context.Context, image domain.ImageRef) (domain.ImageRef, error) {
	body := imageRequest{Image: image, Params: struct{}{}}
	return c.image(ctx, "remove-bg", "/remove-bg", body, c.removeBgTimeout)
}

// Save persists the final image. Transient failures are retried.
func (c *Client) Save(ctx context.Context, image domain.ImageRef, path string) (domain.SaveReceipt, error) {
	return retry.Do(ctx, c.saveRetry, classify, func(ctx context.Context) (domain.SaveReceipt, error) {
		var resp saveResponse
		if err := c.call(ctx, "save", "/save", saveRequest{Image: image, Path: path}, &resp, c.timeout); err != nil {
			return domain.SaveReceipt{}, err
		}
		if !resp.OK {
			return domain.SaveReceipt{}, &domain.NetworkError{Op: "save", Err: errors.New("image service did not confirm the save")}
		}
		savedTo := resp.SavedTo
		if savedTo == "" {
			savedTo = path
		}
		return domain.SaveReceipt{Path: savedTo}, nil
	})
}

func (c *Client) image(ctx context.Context, op, path string, body any, timeout time.Duration) (domain.ImageRef, error) {
	var resp imageResponse
	if err := c.call(ctx, op, path, body, &resp, timeout); err != nil {
		return "", err
	}
	if resp.Image.Empty() {
		return "", &domain.NetworkError{Op: op, Err: errors.New("image service returned no image")}
	}
	return resp.Image, nil
}

// call posts body as JSON and decodes the answer into out. Every failure
// except a cancelled ctx is returned as *domain.NetworkError.
func (c *Client) call(ctx context.Context, op, path string, body, out any, timeout time.Duration) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.do(ctx, path, body, out, timeout)
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	return &domain.NetworkError{Op: op, Err: err}
}

func (c *Client) do(ctx context.Context, path string, body, out any, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id, ok := correlation.ID(ctx); ok {
		req.Header.Set(correlation.Header, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Detail: readDetail(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readDetail extracts the service's {"detail": ...} message, falling back to
// the raw body text.
func readDetail(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != nil {
		if s, ok := body.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(body.Detail); err == nil {
			return string(b)
		}
	}
	return strings.TrimSpace(string(raw))
}

// countsAsSuccess keeps caller cancellations and request errors from
// tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code < 500
	}
	return false
}

func classify(err error) retry.Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, gobreaker.ErrOpenState) {
		return retry.Stop
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == http.StatusTooManyRequests:
			return retry.After
		case statusErr.Code < 500:
			return retry.Stop
		}
	}
	return retry.Retry
}
