package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"linkshelf/internal/domain"
)

const (
	fetchPath = "/fetch-bookmark"
	savePath  = "/save-bookmark"
	pingPath  = "/"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 8 << 20

	opList = "list bookmarks"
	opSave = "save bookmark"
	opPing = "ping"
)

var _ Service = (*HTTPClient)(nil)

// HTTPClient implements Service against the bookmark service's JSON API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        logrus.FieldLogger
}

// NewHTTPClient creates a client for the service rooted at baseURL.
// Every request is bounded by timeout; reaching it yields an ErrUnreachable error.
func NewHTTPClient(baseURL string, timeout time.Duration, logger logrus.FieldLogger) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse service url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("service url %q must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("service url %q has no host", baseURL)
	}
	if timeout <= 0 {
		return nil, errors.New("request timeout must be positive")
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	return &HTTPClient{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: logger.WithField("component", "bookmark_service"),
	}, nil
}

type listResponse struct {
	Bookmarks []struct {
		Data []domain.Bookmark `json:"data"`
	} `json:"bookmarks"`
	Error string `json:"error"`
}

type saveRequest struct {
	URL string `json:"url"`
}

type saveResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// ListBookmarks calls GET /fetch-bookmark and returns bookmarks[0].data.
// A body without that path is an empty list.
func (c *HTTPClient) ListBookmarks(ctx context.Context) ([]domain.Bookmark, error) {
	status, body, err := c.do(ctx, opList, http.MethodGet, fetchPath, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, unreachable(opList, fmt.Errorf("status %d", status))
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, decodeFailure(opList, err)
	}
	// The service answers 200 with an "error" key when its own storage fails.
	if resp.Error != "" {
		return nil, unreachable(opList, errors.New(resp.Error))
	}

	if len(resp.Bookmarks) == 0 || resp.Bookmarks[0].Data == nil {
		return []domain.Bookmark{}, nil
	}
	return resp.Bookmarks[0].Data, nil
}

// SaveBookmark calls POST /save-bookmark.
// HTTP 400 and 422 are validation failures and come back as Rejected, any other
// non-2xx status is ErrUnreachable. A 2xx body with status != 1 is Rejected.
func (c *HTTPClient) SaveBookmark(ctx context.Context, bookmarkURL string) (domain.SaveOutcome, error) {
	payload, err := json.Marshal(saveRequest{URL: bookmarkURL})
	if err != nil {
		return domain.SaveOutcome{}, decodeFailure(opSave, err)
	}

	status, body, err := c.do(ctx, opSave, http.MethodPost, savePath, payload)
	if err != nil {
		return domain.SaveOutcome{}, err
	}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		var resp saveResponse
		reason := fmt.Sprintf("validation failed (status %d)", status)
		if json.Unmarshal(body, &resp) == nil && resp.Error != "" {
			reason = resp.Error
		}
		return domain.SaveOutcome{Outcome: domain.Rejected, Reason: reason}, nil
	case !isSuccess(status):
		return domain.SaveOutcome{}, unreachable(opSave, fmt.Errorf("status %d", status))
	}

	var resp saveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.SaveOutcome{}, decodeFailure(opSave, err)
	}
	if resp.Status != 1 {
		return domain.SaveOutcome{Outcome: domain.Rejected, Reason: resp.Error}, nil
	}
	return domain.SaveOutcome{Outcome: domain.Accepted}, nil
}

// Ping calls the service root.
func (c *HTTPClient) Ping(ctx context.Context) error {
	status, _, err := c.do(ctx, opPing, http.MethodGet, pingPath, nil)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return unreachable(opPing, fmt.Errorf("status %d", status))
	}
	return nil
}

// do performs one request and returns the status code and body.
// Transport failures, including timeouts, are reported as ErrUnreachable.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, payload []byte) (int, []byte, error) {
	requestID := uuid.NewString()
	log := c.log.WithFields(logrus.Fields{
		"op":         op,
		"request_id": requestID,
	})

	endpoint := c.baseURL.JoinPath(path).String()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, unreachable(op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("Bookmark service request failed")
		return 0, nil, unreachable(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.WithError(err).Warn("Failed to read bookmark service response")
		return 0, nil, unreachable(op, fmt.Errorf("read response: %w", err))
	}

	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("Bookmark service responded")
	return resp.StatusCode, data, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
