package couchauth

import (
	"context"
	"fmt"
	"net/http"

	kivik "github.com/go-kivik/kivik/v4"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/pkg/errors"

	"github.com/go-kivik/couchauth/chttp"
)

// Client performs authentication and user administration against the
// server hosting a database handle.
type Client struct {
	db   DB
	http *chttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the *http.Client used for requests. A cookie jar is
// added if it has none.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		agents := client.http.UserAgents
		client.http = chttp.New(c)
		client.http.UserAgents = agents
	}
}

// WithUserAgent appends a product token to the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(client *Client) {
		client.http.UserAgents = append(client.http.UserAgents, ua)
	}
}

// New returns a Client operating on behalf of db.
func New(db DB, opts ...Option) (*Client, error) {
	if db == nil {
		return nil, &kivik.Error{Status: http.StatusBadRequest, Err: errors.New("couchauth: db required")}
	}
	c := &Client{db: db, http: chttp.New(nil)}
	for _, opt := range opts {
		opt(c)
	}
	c.http.UserAgents = append(c.http.UserAgents, fmt.Sprintf("couchauth/%s", Version))
	return c, nil
}

// DB returns the handle the client operates on.
func (c *Client) DB() DB {
	return c.db
}

// do issues a single request with the handle's auth header and body as
// defaults, overridden by opts.HTTP, and decodes a successful response into
// result. It never retries.
func (c *Client) do(ctx context.Context, method, url string, body interface{}, opts *Options, result interface{}) error {
	defaults := &chttp.Options{
		Header: authHeader(c.db),
		JSON:   body,
	}
	_, err := c.http.DoJSON(ctx, method, url, chttp.MergeOptions(defaults, opts.http()), result)
	return err
}

// requireHTTP fails unless the handle speaks http or https.
func (c *Client) requireHTTP() error {
	return precondition(c.db.Type(),
		validation.Required.Error(msgHTTPOnly),
		validation.In("http", "https").Error(msgHTTPOnly),
	)
}

func requireValue(value, msg string) error {
	return precondition(value, validation.Required.Error(msg))
}

func precondition(value interface{}, rules ...validation.Rule) error {
	if err := validation.Validate(value, rules...); err != nil {
		return &AuthError{Message: err.Error()}
	}
	return nil
}
