package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mltrain/trainwatch/pkg/models"
)

// Sentinel errors for orchestrator fetch failures. Every error returned by
// HTTPClient wraps ErrFetchFailed plus exactly one of the specific kinds.
var (
	ErrFetchFailed = errors.New("orchestrator fetch failed")
	ErrUnreachable = errors.New("orchestrator unreachable")
	ErrTimeout     = errors.New("orchestrator request timeout")
	ErrBadStatus   = errors.New("orchestrator returned non-success status")
	ErrMalformed   = errors.New("orchestrator returned malformed body")
)

const apiPrefix = "/api/v1"

// Client is the read-only view of the orchestrator's HTTP API.
type Client interface {
	ListJobs(ctx context.Context, opts ListOptions) ([]models.JobSummary, error)
	GetJob(ctx context.Context, jobID string) (*models.JobDetail, error)
	GetMetrics(ctx context.Context, jobID string) (models.MetricsSnapshot, error)
	Ready(ctx context.Context) error
}

// ListOptions filters GET /jobs. Zero values leave the server defaults.
type ListOptions struct {
	Limit  int
	Status models.JobStatus
}

// HTTPClient implements Client over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client for the orchestrator at baseURL.
// A zero timeout means requests are bounded only by their context.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) ListJobs(ctx context.Context, opts ListOptions) ([]models.JobSummary, error) {
	params := url.Values{}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Status != "" {
		params.Set("status", string(opts.Status))
	}

	u := c.baseURL + apiPrefix + "/jobs"
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var resp jobsResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if resp.Jobs == nil {
		return []models.JobSummary{}, nil
	}
	return resp.Jobs, nil
}

func (c *HTTPClient) GetJob(ctx context.Context, jobID string) (*models.JobDetail, error) {
	u := fmt.Sprintf("%s%s/jobs/%s", c.baseURL, apiPrefix, url.PathEscape(jobID))

	var detail models.JobDetail
	if err := c.getJSON(ctx, u, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *HTTPClient) GetMetrics(ctx context.Context, jobID string) (models.MetricsSnapshot, error) {
	u := fmt.Sprintf("%s%s/jobs/%s/metrics", c.baseURL, apiPrefix, url.PathEscape(jobID))

	var resp metricsResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if resp.Metrics == nil {
		return models.MetricsSnapshot{}, nil
	}
	return resp.Metrics, nil
}

// Ready checks that the orchestrator answers the jobs listing.
func (c *HTTPClient) Ready(ctx context.Context) error {
	u := c.baseURL + apiPrefix + "/jobs?limit=1"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %w: status %d", ErrFetchFailed, ErrBadStatus, resp.StatusCode)
	}
	return nil
}

// getJSON issues a GET and decodes a 2xx body into v. The body of a failed
// response is never parsed.
func (c *HTTPClient) getJSON(ctx context.Context, u string, v any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %w: status %d", ErrFetchFailed, ErrBadStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return classifyError(err)
		}
		return fmt.Errorf("%w: %w: %v", ErrFetchFailed, ErrMalformed, err)
	}
	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w: %v", ErrFetchFailed, ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w: %v", ErrFetchFailed, ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w: %v", ErrFetchFailed, ErrUnreachable, err)
}

// --- orchestrator response types ---

type jobsResponse struct {
	Jobs []models.JobSummary `json:"jobs"`
}

type metricsResponse struct {
	JobID   string                 `json:"job_id"`
	Metrics models.MetricsSnapshot `json:"metrics"`
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
