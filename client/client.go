// Package client talks to the recording server's REST API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"recpanel/apperror"
	"recpanel/logger"
	"recpanel/metrics"
	"recpanel/models"
)

const RequestIDHeader = "X-Request-ID"

type Options struct {
	Timeout time.Duration
	Logger  *logger.Logger
}

type Client struct {
	base   string
	http   *http.Client
	logger *logger.Logger
}

// Download is an open recording body; callers must close it.
type Download struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

func New(base string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: timeout},
		logger: opts.Logger,
	}
}

// Status fetches the recorder's current recording state.
func (c *Client) Status(ctx context.Context) (models.Status, error) {
	var s models.Status
	err := c.getJSON(ctx, "status", "/status", nil, &s)
	return s, err
}

// Start asks the recorder to begin recording, splitting output every
// splitDuration units (minutes on the reference server).
func (c *Client) Start(ctx context.Context, splitDuration int) (models.CommandResult, error) {
	var res models.CommandResult
	q := url.Values{"split_duration": []string{strconv.Itoa(splitDuration)}}
	err := c.getJSON(ctx, "start", "/start", q, &res)
	return res, err
}

func (c *Client) Stop(ctx context.Context) (models.CommandResult, error) {
	var res models.CommandResult
	err := c.getJSON(ctx, "stop", "/stop", nil, &res)
	return res, err
}

// List returns the recording names in server order.
func (c *Client) List(ctx context.Context) ([]string, error) {
	var l models.VideoList
	if err := c.getJSON(ctx, "list", "/list", nil, &l); err != nil {
		return nil, err
	}
	return l.Videos, nil
}

// DownloadPath is the recorder-relative path of a recording.
func DownloadPath(name string) string {
	return "/download/" + url.PathEscape(name)
}

func (c *Client) DownloadURL(name string) string {
	return c.base + DownloadPath(name)
}

// Download opens a recording for streaming. The client timeout does not
// apply to the body, only ctx does.
func (c *Client) Download(ctx context.Context, name string) (*Download, error) {
	started := time.Now()
	req, err := c.newRequest(ctx, DownloadPath(name), nil)
	if err != nil {
		return nil, err
	}

	streaming := &http.Client{Transport: c.http.Transport}
	res, err := streaming.Do(req)
	if err != nil {
		err = apperror.Unreachable.Wrap(err)
		metrics.ObserveRequest("download", err, time.Since(started))
		return nil, err
	}

	if res.StatusCode == http.StatusNotFound {
		_ = res.Body.Close()
		metrics.ObserveRequest("download", apperror.NotFound, time.Since(started))
		return nil, apperror.NotFound
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer func() { _ = res.Body.Close() }()
		err = statusError(res)
		metrics.ObserveRequest("download", err, time.Since(started))
		return nil, err
	}

	metrics.ObserveRequest("download", nil, time.Since(started))

	return &Download{
		Body:          res.Body,
		ContentType:   res.Header.Get("Content-Type"),
		ContentLength: res.ContentLength,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, path string, query url.Values) (*http.Request, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, apperror.InvalidRequest.Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) (err error) {
	started := time.Now()
	req, err := c.newRequest(ctx, path, query)
	if err != nil {
		return err
	}

	defer func() {
		metrics.ObserveRequest(endpoint, err, time.Since(started))
		if err != nil && c.logger != nil {
			c.logger.LogDebug("recorder request failed", "endpoint", endpoint, "request_id", req.Header.Get(RequestIDHeader), "error", err.Error())
		}
	}()

	res, err := c.http.Do(req)
	if err != nil {
		return apperror.Unreachable.Wrap(err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return statusError(res)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return apperror.BadResponse.Wrap(err)
	}
	return nil
}

// statusError turns a non-2xx response into an error, preferring the
// server's own {success:false, message} explanation when it sent one.
func statusError(res *http.Response) error {
	httpErr := fmt.Errorf("HTTP error! status: %d", res.StatusCode)

	body, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	var cr models.CommandResult
	if err := json.Unmarshal(body, &cr); err == nil && cr.Message != "" {
		return apperror.Rejected.SetMessage(cr.Message).Wrap(errors.Join(httpErr, errors.New(cr.Message)))
	}

	return apperror.BadStatus.SetMessage(httpErr.Error()).Wrap(httpErr)
}
