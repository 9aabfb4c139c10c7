// Package backend is the REST client for the album ranking backend. It
// serves as the session's Matchup Fetcher, Vote Submitter and Exclusion
// Manager.
package backend

import (
	"bytes"
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
	"github.com/okian/vinylo/internal/domain/model"
	"github.com/okian/vinylo/pkg/logger"
	"github.com/xeipuuv/gojsonschema"
)

// Defaults.
const (
	DefaultBaseURL = "http://localhost:8000/api"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client talks to the backend of record. It is safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	userAgent string
	log       logger.Logger
	newID     func() string
}

// New creates a client for baseURL, e.g. "http://localhost:8000/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", baseURL)
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{},
		timeout:   defaultTimeout,
		userAgent: DefaultUserAgent,
		log:       logger.Get().Named("backend"),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := *c.http
	hc.Transport = &Transport{Base: c.http.Transport, UserAgent: c.userAgent}
	hc.Timeout = c.timeout
	c.http = &hc
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchMatchup returns the next pair for user. The zero Matchup means the
// backend has fewer than two eligible albums.
func (c *Client) FetchMatchup(ctx context.Context, user model.UserContext) (model.Matchup, error) {
	var albums []Album
	err := c.do(ctx, "matchup", http.MethodGet, "/matchup/"+url.PathEscape(user.Username), sourceQuery(user), nil, matchupSchema, &albums)

	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(se.Detail), "not enough") {
		return model.Matchup{}, nil
	}
	if err != nil {
		return model.Matchup{}, err
	}
	if len(albums) < 2 {
		return model.Matchup{}, nil
	}

	m, err := model.NewMatchup(c.newID(), albums[0].Item(), albums[1].Item())
	if err != nil {
		return model.Matchup{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return m, nil
}

// SubmitVote records a decision and returns the new ratings by position.
func (c *Client) SubmitVote(ctx context.Context, d model.VoteDecision) (model.Scores, error) {
	if !d.Winner.Valid() {
		return model.Scores{}, fmt.Errorf("%w: %d", model.ErrInvalidPosition, int(d.Winner))
	}
	req := VoteRequest{Album1ID: d.FirstID, Album2ID: d.SecondID, Winner: d.Winner.Wire()}

	var resp VoteResponse
	if err := c.do(ctx, "vote", http.MethodPost, "/vote", nil, req, voteSchema, &resp); err != nil {
		return model.Scores{}, err
	}
	return model.Scores{First: resp.NewScores.Album1, Second: resp.NewScores.Album2}, nil
}

// Ignore removes an album from future pairings.
func (c *Client) Ignore(ctx context.Context, itemID int64) error {
	return c.ack(ctx, "ignore", itemID)
}

// Unignore returns an album to the pairing pool.
func (c *Client) Unignore(ctx context.Context, itemID int64) error {
	return c.ack(ctx, "unignore", itemID)
}

// ListIgnored returns the albums user has ignored.
func (c *Client) ListIgnored(ctx context.Context, user model.UserContext) ([]model.Item, error) {
	var albums []Album
	if err := c.do(ctx, "ignored", http.MethodGet, "/ignored/"+url.PathEscape(user.Username), sourceQuery(user), nil, albumListSchema, &albums); err != nil {
		return nil, err
	}
	items := make([]model.Item, 0, len(albums))
	for _, a := range albums {
		items = append(items, a.Item())
	}
	return items, nil
}

func (c *Client) ack(ctx context.Context, endpoint string, itemID int64) error {
	var resp Ack
	path := "/" + endpoint + "/" + strconv.FormatInt(itemID, 10)
	if err := c.do(ctx, endpoint, http.MethodPost, path, nil, nil, ackSchema, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &StatusError{Endpoint: endpoint, StatusCode: http.StatusOK, Detail: "backend reported failure"}
	}
	return nil
}

// do sends one request, validates the answer against schema and decodes it
// into out. No request is retried.
func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, in any, schema *gojsonschema.Schema, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(withEndpoint(ctx, endpoint), method, target, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "backend request failed", logger.String("endpoint", endpoint), logger.Error(err))
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, endpoint, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Debug(ctx, "failed to close response body", logger.Error(cerr))
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", ErrUnavailable, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Detail: errorDetail(raw)}
		c.log.Debug(ctx, "backend returned error status",
			logger.String("endpoint", endpoint),
			logger.Int("status", resp.StatusCode),
			logger.String("detail", se.Detail))
		return se
	}

	if err := validateBody(schema, raw); err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, endpoint, err)
	}
	return nil
}

func errorDetail(raw []byte) string {
	var eb ErrorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		if eb.Detail != "" {
			return eb.Detail
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
