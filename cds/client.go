// Package cds retrieves data products from the Copernicus
// Climate Data Store through its retrieve API.
package cds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/meteocima/bmi-era5/fsutil"
	"github.com/sirupsen/logrus"
)

// ErrSizeMismatch is returned when a downloaded result
// is shorter or longer than announced by the archive.
var ErrSizeMismatch = errors.New("cds: downloaded size does not match the announced size")

// Job states reported by the archive.
const (
	StatusAccepted   = "accepted"
	StatusRunning    = "running"
	StatusSuccessful = "successful"
	StatusFailed     = "failed"
	StatusRejected   = "rejected"
	StatusDismissed  = "dismissed"
)

// APIError is a failure reported by the archive, either as an HTTP
// error reply or as a failed job.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
	URL        string
}

func (e *APIError) Error() string {
	msg := e.Title
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("cds: %s (%d %s)", msg, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("cds: %s (%s)", msg, e.URL)
}

// Client submits retrieval requests and downloads their results.
type Client struct {
	Credentials Credentials
	HTTPClient  *http.Client
	Log         logrus.FieldLogger
	Metrics     *Metrics

	// PollInterval is the first delay between two job status
	// requests; delays then grow up to MaxPollInterval.
	PollInterval    time.Duration
	MaxPollInterval time.Duration

	// KeepJob disables deletion of the job once its result is downloaded.
	KeepJob bool

	UserAgent string
}

// NewClient returns a Client using creds, with default polling
// intervals and the standard logger.
func NewClient(creds Credentials) *Client {
	return &Client{
		Credentials:     creds,
		HTTPClient:      http.DefaultClient,
		Log:             logrus.StandardLogger(),
		PollInterval:    time.Second,
		MaxPollInterval: 2 * time.Minute,
		UserAgent:       "bmi-era5-go",
	}
}

type jobStatus struct {
	JobID  string `json:"jobID"`
	Status string `json:"status"`
}

type jobResults struct {
	Asset struct {
		Value struct {
			Href string `json:"href"`
			Size int64  `json:"file:size"`
			Type string `json:"type"`
		} `json:"value"`
	} `json:"asset"`
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type pendingError struct {
	status string
}

func (e *pendingError) Error() string {
	return "job " + e.status
}

// Retrieve submits a request for product, waits for the archive to
// complete it and downloads the result to target. The call blocks
// until the file is in place, ctx is done, or the archive reports a failure.
// No step is retried: every failure is returned to the caller.
func (c *Client) Retrieve(ctx context.Context, product string, request Request, target string) (err error) {
	start := time.Now()
	defer func() {
		c.Metrics.observe(product, time.Since(start).Seconds(), err)
	}()

	log := c.log().WithFields(logrus.Fields{
		"product": product,
		"target":  target,
	})

	job, err := c.submit(ctx, product, request)
	if err != nil {
		return fmt.Errorf("cds: submitting request for `%s`: %w", product, err)
	}
	log = log.WithField("job", job.JobID)
	log.Info("request submitted")

	if err = c.wait(ctx, job, log); err != nil {
		return fmt.Errorf("cds: waiting for job `%s`: %w", job.JobID, err)
	}

	var res jobResults
	if err = c.do(ctx, http.MethodGet, c.endpoint("jobs", job.JobID, "results"), nil, &res); err != nil {
		return fmt.Errorf("cds: reading results of job `%s`: %w", job.JobID, err)
	}

	log.WithField("size", res.Asset.Value.Size).Info("downloading result")
	if err = c.download(ctx, res.Asset.Value.Href, res.Asset.Value.Size, target); err != nil {
		return fmt.Errorf("cds: downloading result of job `%s`: %w", job.JobID, err)
	}
	log.Info("download completed")

	if !c.KeepJob {
		if derr := c.do(ctx, http.MethodDelete, c.endpoint("jobs", job.JobID), nil, nil); derr != nil {
			log.WithError(derr).Warn("cannot delete job")
		}
	}
	return nil
}

func (c *Client) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) baseURL() string {
	base := c.Credentials.URL
	if base == "" {
		base = DefaultURL
	}
	return strings.TrimRight(base, "/")
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL() + "/retrieve/v1/" + strings.Join(escaped, "/")
}

func (c *Client) submit(ctx context.Context, product string, request Request) (*jobStatus, error) {
	body := map[string]interface{}{"inputs": request}
	var job jobStatus
	err := c.do(ctx, http.MethodPost, c.endpoint("processes", product, "execution"), body, &job)
	if err != nil {
		return nil, err
	}
	if job.JobID == "" {
		return nil, errors.New("archive reply carries no job id")
	}
	return &job, nil
}

func (c *Client) wait(ctx context.Context, job *jobStatus, log logrus.FieldLogger) error {
	if job.Status == StatusSuccessful {
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.PollInterval
	b.MaxInterval = c.MaxPollInterval
	b.Multiplier = 1.5
	b.MaxElapsedTime = 0

	status := job.Status
	check := func() error {
		var st jobStatus
		if err := c.do(ctx, http.MethodGet, c.endpoint("jobs", job.JobID), nil, &st); err != nil {
			return backoff.Permanent(err)
		}
		if st.Status != status {
			log.WithField("status", st.Status).Info("job status changed")
			status = st.Status
		}
		switch st.Status {
		case StatusSuccessful:
			return nil
		case StatusFailed, StatusRejected, StatusDismissed:
			return backoff.Permanent(c.jobFailure(ctx, job.JobID, st.Status))
		default:
			return &pendingError{status: st.Status}
		}
	}

	return backoff.RetryNotify(check, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		log.WithField("next", next).Debug(err.Error())
	})
}

// jobFailure asks the archive why the job failed: the results
// endpoint of a failed job answers with a problem document.
func (c *Client) jobFailure(ctx context.Context, id, status string) error {
	err := c.do(ctx, http.MethodGet, c.endpoint("jobs", id, "results"), nil, nil)
	if err != nil {
		return err
	}
	return &APIError{Title: "job " + status, URL: c.endpoint("jobs", id)}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		content, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(content)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("PRIVATE-TOKEN", c.Credentials.Key)
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return readAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding reply of `%s`: %w", endpoint, err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL.String(),
	}
	content, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var p problem
	if json.Unmarshal(content, &p) == nil && (p.Title != "" || p.Detail != "") {
		apiErr.Title = p.Title
		apiErr.Detail = p.Detail
	} else {
		apiErr.Detail = strings.TrimSpace(string(content))
	}
	return apiErr
}

// download streams href into a temporary file beside target
// and renames it to target when complete.
func (c *Client) download(ctx context.Context, href string, size int64, target string) error {
	base, err := url.Parse(c.baseURL() + "/")
	if err != nil {
		return err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return err
	}
	assetURL := base.ResolveReference(ref).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return readAPIError(resp)
	}

	dest := fsutil.Path(filepath.ToSlash(target))
	tr := fsutil.Transaction{Root: dest.Dir()}
	tr.MkDir(".")
	f := tr.CreateTemp("." + dest.Base() + ".*.part")
	if tr.Err != nil {
		return tr.Err
	}
	staged := fsutil.Path(filepath.ToSlash(f.Name()))

	n, err := io.Copy(f, resp.Body)
	c.Metrics.addBytes(n)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && size > 0 && n != size {
		err = fmt.Errorf("%w: got %d bytes, expected %d", ErrSizeMismatch, n, size)
	}
	if err != nil {
		tr.RmFile(staged)
		return err
	}

	tr.Rename(staged, fsutil.Path(dest.Base()))
	return tr.Err
}
