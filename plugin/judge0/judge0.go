// Package judge0 provides a client for a self-hosted Judge0 CE instance,
// which runs untrusted code in a sandbox and reports per-run status, output,
// and resource usage.
package judge0

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// Judge0 language IDs for the supported languages.
const (
	LanguagePythonID     = 71 // Python 3
	LanguageJavaScriptID = 63 // JavaScript (Node.js)
)

// Judge0 status IDs. Anything above StatusAccepted is a failure of some kind.
const (
	StatusInQueue             = 1
	StatusProcessing          = 2
	StatusAccepted            = 3
	StatusWrongAnswer         = 4
	StatusTimeLimitExceeded   = 5
	StatusCompilationError    = 6
	StatusRuntimeErrorSIGSEGV = 7
	StatusRuntimeErrorOther   = 11
	StatusRuntimeErrorNZEC    = 12
	StatusInternalError       = 13
)

// LanguageID maps a language name onto its Judge0 language ID.
func LanguageID(language string) (int, bool) {
	switch language {
	case "python":
		return LanguagePythonID, true
	case "javascript":
		return LanguageJavaScriptID, true
	}
	return 0, false
}

// Config holds the Judge0 client configuration.
type Config struct {
	// BaseURL is the URL of the Judge0 instance (e.g. http://localhost:2358).
	BaseURL string
	// AuthToken is the X-Auth-Token header value, empty for open instances.
	AuthToken string
	// Timeout is the HTTP timeout for individual requests.
	Timeout time.Duration
	// PollInterval is how often a pending submission is re-fetched.
	PollInterval time.Duration
	// MaxWait bounds the total time spent waiting for one submission.
	MaxWait time.Duration
	// MaxConcurrent bounds in-flight executions against the instance.
	MaxConcurrent int64
}

// DefaultConfig returns the default Judge0 configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "http://localhost:2358",
		Timeout:       15 * time.Second,
		PollInterval:  500 * time.Millisecond,
		MaxWait:       30 * time.Second,
		MaxConcurrent: 4,
	}
}

// ConfigFromEnv creates a Judge0 config from environment variables. The base
// URL comes from the server profile, not from here.
func ConfigFromEnv() *Config {
	config := DefaultConfig()

	if token := os.Getenv("ACODEADAY_JUDGE0_AUTH_TOKEN"); token != "" {
		config.AuthToken = token
	}
	if timeout := os.Getenv("ACODEADAY_JUDGE0_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Timeout = d
		}
	}

	return config
}

// Client talks to one Judge0 instance.
type Client struct {
	config     *Config
	httpClient *http.Client
	sem        *semaphore.Weighted
}

// NewClient creates a new Judge0 client.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultConfig().MaxConcurrent
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		sem: semaphore.NewWeighted(config.MaxConcurrent),
	}
}

// Status is the Judge0 submission status.
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Result is the outcome of one sandboxed run.
type Result struct {
	Token         string
	Status        Status
	Stdout        string
	Stderr        string
	CompileOutput string
	Message       string
	// TimeSec is the wall time in seconds as reported by Judge0.
	TimeSec string
	// MemoryKb is the peak memory in kilobytes.
	MemoryKb int
}

// Accepted reports whether the run completed normally.
func (r *Result) Accepted() bool {
	return r.Status.ID == StatusAccepted
}

// CompileError reports whether the run failed to compile.
func (r *Result) CompileError() bool {
	return r.Status.ID == StatusCompilationError
}

// RuntimeError reports whether the run crashed, was killed, or hit a limit.
func (r *Result) RuntimeError() bool {
	switch r.Status.ID {
	case StatusTimeLimitExceeded, StatusRuntimeErrorSIGSEGV,
		StatusRuntimeErrorOther, StatusRuntimeErrorNZEC, StatusInternalError:
		return true
	}
	// Statuses 7-10 are signal-specific runtime errors.
	return r.Status.ID >= 7 && r.Status.ID <= 10
}

type submissionRequest struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin,omitempty"`
}

type submissionResponse struct {
	Token         string  `json:"token"`
	Status        *Status `json:"status"`
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Message       *string `json:"message"`
	Time          *string `json:"time"`
	Memory        *int    `json:"memory"`
}

// Execute runs source code in the sandbox and waits for the result. All
// payloads travel base64-encoded so arbitrary bytes survive the transport.
func (c *Client) Execute(ctx context.Context, sourceCode string, languageID int, stdin string) (*Result, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "waiting for execution slot")
	}
	defer c.sem.Release(1)

	token, err := c.createSubmission(ctx, sourceCode, languageID, stdin)
	if err != nil {
		return nil, err
	}
	return c.waitForSubmission(ctx, token)
}

func (c *Client) createSubmission(ctx context.Context, sourceCode string, languageID int, stdin string) (string, error) {
	body, err := json.Marshal(submissionRequest{
		SourceCode: base64.StdEncoding.EncodeToString([]byte(sourceCode)),
		LanguageID: languageID,
		Stdin:      base64.StdEncoding.EncodeToString([]byte(stdin)),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal submission")
	}

	endpoint := fmt.Sprintf("%s/submissions?base64_encoded=true&wait=false", c.config.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.AuthToken != "" {
		req.Header.Set("X-Auth-Token", c.config.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to reach judge")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", errors.Errorf("judge rejected submission: status %d: %s", resp.StatusCode, string(payload))
	}

	var created submissionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", errors.Wrap(err, "failed to decode submission response")
	}
	if created.Token == "" {
		return "", errors.New("judge returned no submission token")
	}
	return created.Token, nil
}

func (c *Client) waitForSubmission(ctx context.Context, token string) (*Result, error) {
	deadline := time.Now().Add(c.config.MaxWait)
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		result, err := c.getSubmission(ctx, token)
		if err != nil {
			return nil, err
		}
		if result.Status.ID != StatusInQueue && result.Status.ID != StatusProcessing {
			return result, nil
		}
		if time.Now().After(deadline) {
			return nil, errors.Errorf("timed out waiting for submission %s", token)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) getSubmission(ctx context.Context, token string) (*Result, error) {
	endpoint := fmt.Sprintf(
		"%s/submissions/%s?base64_encoded=true&fields=status,stdout,stderr,compile_output,message,time,memory",
		c.config.BaseURL, url.PathEscape(token),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	if c.config.AuthToken != "" {
		req.Header.Set("X-Auth-Token", c.config.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reach judge")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errors.Errorf("judge returned status %d: %s", resp.StatusCode, string(payload))
	}

	var sub submissionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return nil, errors.Wrap(err, "failed to decode submission")
	}

	result := &Result{Token: token}
	if sub.Status != nil {
		result.Status = *sub.Status
	}
	result.Stdout = decodeBase64(sub.Stdout)
	result.Stderr = decodeBase64(sub.Stderr)
	result.CompileOutput = decodeBase64(sub.CompileOutput)
	result.Message = decodeBase64(sub.Message)
	if sub.Time != nil {
		result.TimeSec = *sub.Time
	}
	if sub.Memory != nil {
		result.MemoryKb = *sub.Memory
	}
	return result, nil
}

func decodeBase64(value *string) string {
	if value == nil {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(*value)
	if err != nil {
		// Some instances return plain text despite base64_encoded=true.
		return *value
	}
	return string(decoded)
}

// Healthy pings the instance's about endpoint.
func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/about", nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if c.config.AuthToken != "" {
		req.Header.Set("X-Auth-Token", c.config.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to reach judge")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("judge returned status %d", resp.StatusCode)
	}
	return nil
}
