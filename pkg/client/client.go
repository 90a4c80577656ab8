// Package client is the Go counterpart of the admin frontend's API layer: it
// holds the persisted session, attaches the bearer token and admin identity
// headers to every request, and drops the session when the server answers 401.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var ErrNotAuthenticated = errors.New("not authenticated")

type Client struct {
	http   *resty.Client
	store  SessionStore
	logger *zap.Logger
}

func New(baseURL string, store SessionStore, logger *zap.Logger) *Client {
	c := &Client{store: store, logger: logger}

	c.http = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")

	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		sess, err := c.store.Load()
		if err != nil || sess == nil {
			return nil
		}
		req.SetHeader("Authorization", "Bearer "+sess.Token)
		// Propagate admin identity for activity logs.
		if sess.User.Name != "" {
			req.SetHeader("X-Admin-Name", sess.User.Name)
		} else if sess.User.Email != "" {
			req.SetHeader("X-Admin-Name", sess.User.Email)
		}
		if sess.User.ID != "" {
			req.SetHeader("X-Admin-Id", sess.User.ID)
		}
		return nil
	})

	// A 401 from anything but the auth endpoints means the session is dead.
	c.http.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		if resp.StatusCode() != http.StatusUnauthorized {
			return nil
		}
		path := resp.Request.RawRequest.URL.Path
		if strings.Contains(path, "/auth/login") || strings.Contains(path, "/auth/logout") {
			return nil
		}
		if err := c.store.Clear(); err != nil {
			c.logger.Warn("failed to clear session", zap.Error(err))
		}
		return nil
	})

	return c
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out Session
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		Post("/api/auth/login")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("login failed: %s", resp.Status())
	}
	if err := c.store.Save(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me validates the session against the backend and refreshes the cached
// profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	sess, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotAuthenticated
	}

	var out User
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/api/auth/me")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, ErrNotAuthenticated
	}
	if resp.IsError() {
		return nil, fmt.Errorf("session validation failed: %s", resp.Status())
	}

	sess.User = out
	if err := c.store.Save(sess); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the token server-side best-effort and always clears the
// local session.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.http.R().SetContext(ctx).Post("/api/auth/logout"); err != nil {
		c.logger.Warn("logout request failed", zap.Error(err))
	}
	return c.store.Clear()
}

func (c *Client) IsAuthenticated() bool {
	sess, err := c.store.Load()
	return err == nil && sess != nil
}

func (c *Client) CurrentUser() (*User, error) {
	sess, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	return &sess.User, nil
}

// Landing returns the role-appropriate view for an authenticated admin.
func Landing(role string) string {
	if role == "super_admin" {
		return "/superadmin"
	}
	return "/maps"
}
