package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/thedigitalgifter/gifter/internal/logger"
)

const (
	CodeRetryAfter = "retry-after"
	CodeNoContent  = "no-content"
	CodeUnknown    = "unknown"
)

const (
	StatusPending = "pending"
	StatusReady   = "ready"
	StatusFailed  = "failed"
)

type Error struct {
	Code string

	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("code: %s, retry_after: %d, error: %v", e.Code, e.RetryAfter, e.Err)
}

func NewError(code string, retryAfter int, err error) *Error {
	return &Error{
		Code:       code,
		RetryAfter: time.Duration(retryAfter) * time.Second,
		Err:        err,
	}
}

// JobResult is the render provider's view of one generation job
type JobResult struct {
	JobID     string  `json:"job_id"`
	Status    string  `json:"status"`
	ResultURL *string `json:"result_url,omitempty"`
	Failure   *string `json:"failure,omitempty"`
}

// Client polls the render provider for generation results.
type Client struct {
	ProviderAddr string

	client *http.Client
	logger logger.Logger
}

func NewClient(addr string, l logger.Logger) *Client {
	return &Client{
		ProviderAddr: addr,
		client:       &http.Client{},
		logger:       l,
	}
}

func (c *Client) GetJobResult(ctx context.Context, jobID string) (JobResult, error) {
	var result JobResult

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ProviderAddr+"/api/jobs/"+jobID, nil)
	if err != nil {
		return result, NewError(CodeUnknown, 0, fmt.Errorf("failed to create request: %w", err))
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return result, NewError(CodeUnknown, 0, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		return c.processSuccess(resp)
	case http.StatusTooManyRequests:
		return c.processTooManyRequests(resp)
	case http.StatusNoContent:
		return result, NewError(CodeNoContent, 0, fmt.Errorf("no content for job %s", jobID))
	default:
		c.logger.Warn("Failed to get job result", "status_code", resp.StatusCode, "job_id", jobID)
		return result, NewError(CodeUnknown, 0, fmt.Errorf("unknown status code %d for job %s", resp.StatusCode, jobID))
	}
}

func (c *Client) processSuccess(resp *http.Response) (JobResult, error) {
	var r JobResult
	err := json.NewDecoder(resp.Body).Decode(&r)
	if err != nil {
		c.logger.Warn("Failed to decode response", "error", err)
		return r, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("Provider response", "job_id", r.JobID, "status", r.Status)
	return r, nil
}

func (c *Client) processTooManyRequests(resp *http.Response) (JobResult, error) {
	header := resp.Header.Get("Retry-After")
	retryAfter, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil {
		retryAfter = 60 // default to 60 seconds if parsing fails
	}

	c.logger.Warn("Render provider throttled", "retry_after", retryAfter)
	return JobResult{}, NewError(CodeRetryAfter, retryAfter, fmt.Errorf("retry after %d seconds", retryAfter))
}
