// Package remote implements the extraction and scoring contracts against a
// separately deployed HTTP analysis service.
package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/okian/cvranker/internal/adapters/ai"
	"github.com/okian/cvranker/internal/domain/model"
	"github.com/okian/cvranker/internal/domain/scoring"
)

const defaultTimeout = 90 * time.Second

// Client talks to the remote analysis service. It implements both
// ai.Extractor and ai.Scorer.
type Client struct {
	http *resty.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithRetries enables retrying transient failures.
func WithRetries(n int) Option {
	return func(c *Client) {
		c.http.SetRetryCount(n)
	}
}

// New creates a Client against the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout).
			SetHeader("Content-Type", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type extractJobRequest struct {
	Description string `json:"description"`
}

type extractCVRequest struct {
	Text string `json:"text"`
}

type scoreRequest struct {
	Job *model.JobRequirements  `json:"job"`
	CV  *model.CandidateProfile `json:"cv"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ExtractJob extracts structured requirements from a job description.
func (c *Client) ExtractJob(ctx context.Context, description string) (*model.JobRequirements, error) {
	var out model.JobRequirements
	if err := c.post(ctx, "/v1/extract/job", extractJobRequest{Description: description}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExtractCV extracts a candidate profile from raw CV text.
func (c *Client) ExtractCV(ctx context.Context, text string) (*model.CandidateProfile, error) {
	var out model.CandidateProfile
	if err := c.post(ctx, "/v1/extract/cv", extractCVRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScoreMatch requests per-dimension subscores and enforces the range policy
// before returning them.
func (c *Client) ScoreMatch(ctx context.Context, job *model.JobRequirements, cv *model.CandidateProfile) (model.Subscores, error) {
	if job == nil {
		return model.Subscores{}, fmt.Errorf("%w: job requirements not extracted", ai.ErrProvider)
	}
	if cv == nil {
		return model.Subscores{}, fmt.Errorf("%w: candidate profile not extracted", ai.ErrProvider)
	}

	var out model.Subscores
	if err := c.post(ctx, "/v1/score", scoreRequest{Job: job, CV: cv}, &out); err != nil {
		return model.Subscores{}, err
	}
	if err := scoring.ValidateSubscores(out); err != nil {
		return model.Subscores{}, fmt.Errorf("%w: %w", ai.ErrProvider, err)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var errBody errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(out).
		SetError(&errBody).
		Post(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ai.ErrProvider, path, err)
	}
	if resp.IsError() {
		if errBody.Error != "" {
			return fmt.Errorf("%w: %s: %s (%s)", ai.ErrProvider, path, errBody.Error, resp.Status())
		}
		return fmt.Errorf("%w: %s: %s", ai.ErrProvider, path, resp.Status())
	}
	return nil
}
