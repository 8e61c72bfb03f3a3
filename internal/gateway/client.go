package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chairside/pmsflow/internal/common"
	"github.com/chairside/pmsflow/internal/model"
	"github.com/chairside/pmsflow/internal/service"
	"github.com/chairside/pmsflow/internal/wire"
)

// Config holds gateway connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: gateway base URL is required", common.ErrMissingConfig)
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("%w: gateway base URL must be http(s)", common.ErrInvalidConfig)
	}
	return nil
}

// Client implements the Gateway interface over HTTP/JSON.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	retryOpts  service.RetryOptions
}

// NewClient creates a gateway client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		logger:     slog.Default().With("component", "gateway"),
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     15 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// GetLatestKeyData fetches the domain's months, sources, and latest-job stats.
func (c *Client) GetLatestKeyData(ctx context.Context, domain string) (*KeyData, error) {
	var payload keyDataPayload
	query := url.Values{"domain": {domain}}
	if err := c.getWithRetry(ctx, "/api/pms/key-data", query, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch key data: %w", err)
	}

	data := &KeyData{
		Stats:   payload.Stats,
		Sources: payload.Sources,
	}

	var err error
	if len(payload.Months) > 0 {
		if data.Months, err = wire.Normalize(payload.Months); err != nil {
			return nil, fmt.Errorf("failed to parse key data months: %w", err)
		}
	}
	if len(payload.LatestJobRaw) > 0 {
		if data.LatestJobRaw, err = wire.Normalize(payload.LatestJobRaw); err != nil {
			return nil, fmt.Errorf("failed to parse latest job payload: %w", err)
		}
	}

	return data, nil
}

// GetActiveJobs lists in-flight ingestion jobs for the domain.
func (c *Client) GetActiveJobs(ctx context.Context, domain string) ([]model.Job, error) {
	var payload activeJobsPayload
	query := url.Values{"domain": {domain}}
	if err := c.getWithRetry(ctx, "/api/pms/jobs/active", query, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch active jobs: %w", err)
	}
	return payload.Jobs, nil
}

// GetAutomationStatus fetches the automation status for one job.
func (c *Client) GetAutomationStatus(ctx context.Context, jobID string) (model.AutomationStatus, error) {
	var payload automationStatusPayload
	path := "/api/pms/jobs/" + url.PathEscape(jobID) + "/automation-status"
	if err := c.getWithRetry(ctx, path, nil, &payload); err != nil {
		return model.AutomationStatus{}, fmt.Errorf("failed to fetch automation status: %w", err)
	}
	return payload.AutomationStatus, nil
}

// UpdateJobResponse saves edited month data back onto a job.
func (c *Client) UpdateJobResponse(ctx context.Context, jobID string, months []wire.MonthEntryForm) error {
	serialized, err := json.Marshal(months)
	if err != nil {
		return fmt.Errorf("failed to serialize months: %w", err)
	}

	path := "/api/pms/jobs/" + url.PathEscape(jobID) + "/response"
	if err := c.do(ctx, http.MethodPut, path, nil, updateResponseRequest{Response: string(serialized)}, nil); err != nil {
		return fmt.Errorf("failed to save job response: %w", err)
	}

	c.logger.Info("Saved job response", "job_id", jobID, "months", len(months))
	return nil
}

// UpdateClientApproval sets the client approval flag on a job.
func (c *Client) UpdateClientApproval(ctx context.Context, jobID string, approved bool) error {
	path := "/api/pms/jobs/" + url.PathEscape(jobID) + "/client-approval"
	if err := c.do(ctx, http.MethodPut, path, nil, clientApprovalRequest{Approved: approved}, nil); err != nil {
		return fmt.Errorf("failed to update client approval: %w", err)
	}

	c.logger.Info("Updated client approval", "job_id", jobID, "approved", approved)
	return nil
}

// SubmitManualData submits manually entered months, bypassing the approval
// workflow.
func (c *Client) SubmitManualData(ctx context.Context, domain string, months []wire.MonthEntryForm, locationID string) error {
	body := manualSubmitRequest{
		Domain:     domain,
		Months:     months,
		LocationID: locationID,
	}
	if err := c.do(ctx, http.MethodPost, "/api/pms/manual", nil, body, nil); err != nil {
		return fmt.Errorf("failed to submit manual data: %w", err)
	}

	c.logger.Info("Submitted manual PMS data", "domain", domain, "months", len(months))
	return nil
}

// UploadPMSFile uploads a PMS export for ingestion.
func (c *Client) UploadPMSFile(ctx context.Context, domain, pmsType, filename string, file io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("domain", domain); err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := writer.WriteField("pmsType", pmsType); err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to read upload file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pms/upload", &buf)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	if err := c.send(req, nil); err != nil {
		return fmt.Errorf("failed to upload PMS file: %w", err)
	}

	c.logger.Info("Uploaded PMS file", "domain", domain, "pms_type", pmsType, "file", filename)
	return nil
}

// getWithRetry wraps idempotent GETs in the standard retry policy.
func (c *Client) getWithRetry(ctx context.Context, path string, query url.Values, out any) error {
	return common.WithRetry(ctx, func() error {
		return c.do(ctx, http.MethodGet, path, query, nil, out)
	}, c.retryOpts)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	return c.send(req, out)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("%w: %v", common.ErrGatewayUnavailable, err), Retryable: true}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return common.ErrRateLimit
	case resp.StatusCode >= 500:
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: server returned %d", common.ErrGatewayUnavailable, resp.StatusCode),
			Retryable: true,
		}
	case resp.StatusCode >= 400:
		return c.errorFromBody(resp, fmt.Sprintf("request rejected with status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		message := env.Error
		if message == "" {
			message = common.GenericUserMessage
		}
		return common.NewUserError(message, nil)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

func (c *Client) errorFromBody(resp *http.Response, fallback string) error {
	raw, err := io.ReadAll(resp.Body)
	if err == nil {
		var env envelope
		if jsonErr := json.Unmarshal(raw, &env); jsonErr == nil && env.Error != "" {
			return common.NewUserError(env.Error, nil)
		}
	}
	return common.NewUserError(common.GenericUserMessage, fmt.Errorf("%s", fallback))
}
