package couchauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Session represents an authentication session, as reported by the server.
type Session struct {
	// Name is the name of the authenticated user, or "" for an anonymous
	// session.
	Name string
	// Roles is a list of roles the user belongs to.
	Roles []string
	// AuthenticationMethod is the authentication method that was used for this
	// session.
	AuthenticationMethod string
	// AuthenticationDB is the user database against which authentication was
	// performed.
	AuthenticationDB string
	// AuthenticationHandlers is a list of authentication handlers configured on
	// the server.
	AuthenticationHandlers []string
	// RawResponse is the raw JSON response sent by the server.
	RawResponse json.RawMessage
}

type sessionResponse struct {
	Info struct {
		AuthenticationDB       string   `json:"authentication_db"`
		AuthenticationHandlers []string `json:"authentication_handlers"`
		Authenticated          string   `json:"authenticated"`
	} `json:"info"`
	UserCtx struct {
		Name  string   `json:"name"`
		Roles []string `json:"roles"`
	} `json:"userCtx"`
}

// Login starts a server session for username. When the server reports
// success, the credentials are cached on the handle, so that later requests
// authenticate as username, unless opts.DisableBasicAuth is set. The session
// cookie the server sets is kept by the client's cookie jar. The decoded
// response body is returned.
func (c *Client) Login(ctx context.Context, username, password string, opts *Options) (map[string]interface{}, error) {
	opts = normalizeOptions(opts)
	if err := c.requireHTTP(); err != nil {
		return nil, err
	}
	if err := requireValue(username, msgNoUsername); err != nil {
		return nil, err
	}
	if err := requireValue(password, msgNoPassword); err != nil {
		return nil, err
	}
	sessURL, err := sessionURL(c.db)
	if err != nil {
		return nil, err
	}
	body := map[string]string{"name": username, "password": password}
	var result map[string]interface{}
	if err := c.do(ctx, http.MethodPost, sessURL, body, opts, &result); err != nil {
		return nil, err
	}
	if ok, _ := result["ok"].(bool); ok && !opts.DisableBasicAuth {
		c.db.SetCredentials(&Credentials{Username: username, Password: password})
	}
	return result, nil
}

// Logout ends the server session. A 401 response means there was no session
// to end and is not an error. On success the handle's cached credentials are
// cleared and the local session cookie is dropped. The decoded response body
// is returned; it is nil after a 401.
func (c *Client) Logout(ctx context.Context, opts *Options) (map[string]interface{}, error) {
	sessURL, err := sessionURL(c.db)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := c.do(ctx, http.MethodDelete, sessURL, nil, opts, &result); err != nil {
		if StatusCode(err) != http.StatusUnauthorized {
			return nil, err
		}
		result = nil
	}
	if c.db.Credentials() != nil {
		c.db.SetCredentials(nil)
	}
	if u, err := url.Parse(sessURL); err == nil {
		c.http.ExpireSessionCookie(u)
	}
	return result, nil
}

// GetSession returns the server's view of the current session. It changes no
// state.
func (c *Client) GetSession(ctx context.Context, opts *Options) (*Session, error) {
	sessURL, err := sessionURL(c.db)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, sessURL, nil, opts, &raw); err != nil {
		return nil, err
	}
	var result sessionResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errors.Wrap(err, "couchauth: decode session")
	}
	return &Session{
		Name:                   result.UserCtx.Name,
		Roles:                  result.UserCtx.Roles,
		AuthenticationMethod:   result.Info.Authenticated,
		AuthenticationDB:       result.Info.AuthenticationDB,
		AuthenticationHandlers: result.Info.AuthenticationHandlers,
		RawResponse:            raw,
	}, nil
}

// SessionCookie returns the session cookie the client currently holds for
// the server, or nil. It is set by Login and dropped by Logout; this package
// never refreshes it.
func (c *Client) SessionCookie() *http.Cookie {
	sessURL, err := sessionURL(c.db)
	if err != nil {
		return nil
	}
	u, err := url.Parse(sessURL)
	if err != nil {
		return nil
	}
	return c.http.SessionCookie(u)
}
