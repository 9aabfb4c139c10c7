package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/okian/vinylo/internal/domain/model"
)

// Stats returns the eligible albums of user's pool, best first.
func (c *Client) Stats(ctx context.Context, user model.UserContext) ([]model.Item, error) {
	var albums []Album
	if err := c.do(ctx, "stats", http.MethodGet, "/stats/"+url.PathEscape(user.Username), sourceQuery(user), nil, albumListSchema, &albums); err != nil {
		return nil, err
	}
	items := make([]model.Item, 0, len(albums))
	for _, a := range albums {
		items = append(items, a.Item())
	}
	return items, nil
}

// Init asks the backend to import user's collection when it has none yet.
func (c *Client) Init(ctx context.Context, user model.UserContext) (string, error) {
	var resp Message
	if err := c.do(ctx, "init", http.MethodPost, "/init/"+url.PathEscape(user.Username), sourceQuery(user), nil, messageSchema, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Reset deletes user's pool and returns the number of removed albums.
func (c *Client) Reset(ctx context.Context, user model.UserContext) (int, error) {
	var resp ResetResponse
	if err := c.do(ctx, "reset", http.MethodDelete, "/reset/"+url.PathEscape(user.Username), sourceQuery(user), nil, resetSchema, &resp); err != nil {
		return 0, err
	}
	return resp.DeletedCount, nil
}

// Threshold returns the playcount floor for user's pool.
func (c *Client) Threshold(ctx context.Context, user model.UserContext) (int, error) {
	var resp Settings
	if err := c.do(ctx, "settings", http.MethodGet, "/settings/"+url.PathEscape(user.Username), sourceQuery(user), nil, settingsSchema, &resp); err != nil {
		return 0, err
	}
	return resp.ScrobbleThreshold, nil
}

// SetThreshold changes the playcount floor for user's pool.
func (c *Client) SetThreshold(ctx context.Context, user model.UserContext, threshold int) (int, error) {
	if threshold < 0 {
		return 0, fmt.Errorf("threshold must be >= 0, got %d", threshold)
	}
	var resp Settings
	body := SettingsUpdate{ScrobbleThreshold: threshold}
	if err := c.do(ctx, "settings", http.MethodPost, "/settings/"+url.PathEscape(user.Username), sourceQuery(user), body, settingsSchema, &resp); err != nil {
		return 0, err
	}
	return resp.ScrobbleThreshold, nil
}

func sourceQuery(user model.UserContext) url.Values {
	return url.Values{"source": {string(user.Source)}}
}
