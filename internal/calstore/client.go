package calstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/radioepoka/showcaster/internal/apperr"
	"github.com/radioepoka/showcaster/internal/model"
	"github.com/radioepoka/showcaster/pkg/ical"
)

const (
	maxRetries     = 3
	baseDelay      = time.Second
	attemptTimeout = 10 * time.Second
)

// Config points the client at one calendar collection.
type Config struct {
	BaseURL  string
	Username string
	Password string
}

// Client is a minimal CalDAV client for a single calendar. All calls retry
// transient failures (network errors and 5xx) with exponential delays; 4xx
// responses are final.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	logger   zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, apperr.Validation("calendar base URL is required")
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{},
		logger:   logger.With().Str("component", "calstore").Logger(),
	}, nil
}

// do issues one request with retries. It returns the final status code and
// body; transport failure after retry exhaustion comes back as a Calendar
// error.
func (c *Client) do(ctx context.Context, method, path string, header http.Header, body []byte) (int, []byte, error) {
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; ; attempt++ {
		status, data, err := c.attempt(ctx, method, url, header, body)
		if err == nil && status < 500 {
			return status, data, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("server returned %d", status)
		}

		if ctx.Err() != nil {
			return 0, nil, apperr.Wrap(apperr.KindCalendar, ctx.Err(), "%s %s", method, url)
		}
		if attempt == maxRetries {
			return 0, nil, apperr.Wrap(apperr.KindCalendar, lastErr, "%s %s failed after %d attempts", method, url, attempt+1)
		}

		delay := baseDelay << attempt
		c.logger.Warn().
			Str("method", method).
			Str("url", url).
			Dur("delay", delay).
			Err(lastErr).
			Msg("calendar request failed, retrying")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, nil, apperr.Wrap(apperr.KindCalendar, ctx.Err(), "%s %s", method, url)
		}
	}
}

func (c *Client) attempt(ctx context.Context, method, url string, header http.Header, body []byte) (int, []byte, error) {
	actx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(actx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.SetBasicAuth(c.username, c.password)
	for key, values := range header {
		req.Header[key] = values
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

func eventPath(uid string) string { return "/" + uid + ".ics" }

// GetCalendar fetches the whole collection as one VCALENDAR.
func (c *Client) GetCalendar(ctx context.Context) ([]model.CalEvent, error) {
	header := http.Header{"Accept": []string{"text/calendar"}}
	status, data, err := c.do(ctx, http.MethodGet, "/", header, nil)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, apperr.New(apperr.KindCalendar, "get calendar: status %d", status)
	}
	return ical.DecodeAll(data)
}

// GetEvent fetches one VEVENT by UID. A 404 maps to NotFound.
func (c *Client) GetEvent(ctx context.Context, uid string) (*model.CalEvent, error) {
	header := http.Header{"Accept": []string{"text/calendar"}}
	status, data, err := c.do(ctx, http.MethodGet, eventPath(uid), header, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, apperr.NotFound("calendar event %s not found", uid)
	}
	if status >= 300 {
		return nil, apperr.New(apperr.KindCalendar, "get event %s: status %d", uid, status)
	}
	return ical.Decode(data)
}

// PutEvent writes ev under its UID, replacing any previous VEVENT.
func (c *Client) PutEvent(ctx context.Context, ev model.CalEvent) error {
	body, err := ical.Encode(ev)
	if err != nil {
		return err
	}
	header := http.Header{"Content-Type": []string{"text/calendar; charset=utf-8"}}
	status, _, err := c.do(ctx, http.MethodPut, eventPath(ev.ID), header, body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return apperr.New(apperr.KindCalendar, "put event %s: status %d", ev.ID, status)
	}
	return nil
}

// DeleteEvent removes the VEVENT stored under uid. A 404 maps to NotFound
// so callers can treat repeated deletes as settled.
func (c *Client) DeleteEvent(ctx context.Context, uid string) error {
	status, _, err := c.do(ctx, http.MethodDelete, eventPath(uid), nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return apperr.NotFound("calendar event %s not found", uid)
	}
	if status >= 300 {
		return apperr.New(apperr.KindCalendar, "delete event %s: status %d", uid, status)
	}
	return nil
}

// Query runs a REPORT and returns the matching events.
func (c *Client) Query(ctx context.Context, q Query) ([]model.CalEvent, error) {
	body, err := BuildReport(q)
	if err != nil {
		return nil, err
	}
	header := http.Header{
		"Content-Type": []string{`application/xml; charset="utf-8"`},
		"Depth":        []string{"1"},
	}
	status, data, err := c.do(ctx, "REPORT", "/", header, body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, apperr.New(apperr.KindCalendar, "calendar query: status %d", status)
	}
	return ParseMultistatus(data)
}
