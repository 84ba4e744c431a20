package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Trigger abstracts the job-triggering backend consumed by the merge engine.
type Trigger interface {
	// Trigger starts one run of the configured pipeline job. It returns true
	// when the job was found and started, false with a nil error when no job
	// matched, and false with an error on transport or API failure.
	Trigger(ctx context.Context) (bool, error)
}

// Config holds the jobs-API connection settings.
type Config struct {
	BaseURL string
	Token   string
	JobName string
	Timeout time.Duration
}

// Client triggers data-quality pipeline runs through the warehouse jobs API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	jobName    string
	logger     *zap.Logger
}

// NewClient constructs a jobs-API client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		jobName:    cfg.JobName,
		logger:     logger,
	}
}

type job struct {
	JobID    int64 `json:"job_id"`
	Settings struct {
		Name string `json:"name"`
	} `json:"settings"`
}

type listJobsResponse struct {
	Jobs []job `json:"jobs"`
}

// Trigger looks up the configured job by name and starts a run. The run is
// fire-and-forget: no handle to await completion is returned.
func (c *Client) Trigger(ctx context.Context) (bool, error) {
	jobs, err := c.listJobs(ctx)
	if err != nil {
		return false, err
	}

	var target *job
	for i := range jobs {
		if strings.Contains(jobs[i].Settings.Name, c.jobName) {
			target = &jobs[i]
			break
		}
	}
	if target == nil {
		c.logger.Warn("pipeline job not found", zap.String("job_name", c.jobName))
		return false, nil
	}

	if err := c.runNow(ctx, target.JobID); err != nil {
		return false, err
	}
	c.logger.Info("pipeline triggered", zap.String("job_name", c.jobName), zap.Int64("job_id", target.JobID))
	return true, nil
}

func (c *Client) listJobs(ctx context.Context) ([]job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/2.1/jobs/list", nil)
	if err != nil {
		return nil, fmt.Errorf("build jobs list request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list jobs: unexpected status %d", resp.StatusCode)
	}

	var payload listJobsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode jobs list: %w", err)
	}
	return payload.Jobs, nil
}

func (c *Client) runNow(ctx context.Context, jobID int64) error {
	body, err := json.Marshal(map[string]int64{"job_id": jobID})
	if err != nil {
		return fmt.Errorf("encode run-now payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/2.1/jobs/run-now", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build run-now request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("run job %d: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("run job %d: unexpected status %d", jobID, resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
