// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

// Package chttp provides a minimal HTTP transport for talking to a CouchDB
// server: JSON request encoding, cookie handling, and normalization of error
// responses.
package chttp

import (
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	kivik "github.com/go-kivik/kivik/v4"
	"github.com/pkg/errors"
)

const typeJSON = "application/json"

// Client represents a client connection. It embeds an *http.Client.
type Client struct {
	// UserAgents is appended to set the User-Agent header. Typically it should
	// contain pairs of product name and version.
	UserAgents []string

	*http.Client
}

// New returns a Client wrapping c. If c is nil, a new *http.Client is used.
// A cookie jar is installed when c has none, so that a session cookie set by
// the server is sent with every subsequent request.
func New(c *http.Client) *Client {
	if c == nil {
		c = &http.Client{}
	}
	setCookieJar(c)
	return &Client{Client: c}
}

// DoJSON combines DoReq() and ResponseError(), and, if there are no errors,
// decodes the response body into i. i may be nil, in which case the body is
// discarded.
func (c *Client) DoJSON(ctx context.Context, method, path string, opts *Options, i interface{}) (*http.Response, error) {
	res, err := c.DoError(ctx, method, path, opts)
	if err != nil {
		return res, err
	}
	defer func() { _ = res.Body.Close() }()
	if i == nil {
		_, _ = io.Copy(ioutil.Discard, res.Body)
		return res, nil
	}
	if err := json.NewDecoder(res.Body).Decode(i); err != nil && err != io.EOF {
		return res, &kivik.Error{Status: http.StatusBadGateway, Err: errors.Wrap(err, "chttp: decode response")}
	}
	return res, nil
}

// DoError is the same as DoReq(), followed by checking the response for
// error status codes.
func (c *Client) DoError(ctx context.Context, method, path string, opts *Options) (*http.Response, error) {
	res, err := c.DoReq(ctx, method, path, opts)
	if err != nil {
		return res, err
	}
	return res, ResponseError(res)
}

// DoReq does an HTTP request. An error is returned only if there was an
// error processing the request. In particular, an error status code, such as
// 400 or 500, does _not_ cause an error to be returned. Transport failures are
// returned as reported by the underlying *http.Client.
func (c *Client) DoReq(ctx context.Context, method, path string, opts *Options) (*http.Response, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Method != "" {
		method = opts.Method
	}
	if opts.URL != "" {
		path = opts.URL
	}
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	req, err := c.NewRequest(ctx, method, path, opts)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, err
	}
	trace := ContextClientTrace(ctx)
	if trace != nil {
		trace.httpRequest(req)
		trace.httpRequestBody(req)
	}
	res, err := c.Do(req)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return res, err
	}
	if cancel != nil {
		res.Body = &cancelBody{ReadCloser: res.Body, cancel: cancel}
	}
	if trace != nil {
		trace.httpResponse(res)
		trace.httpResponseBody(res)
	}
	return res, nil
}

// NewRequest returns a new *http.Request to the absolute URL path, with
// headers and body populated from opts.
func (c *Client) NewRequest(ctx context.Context, method, path string, opts *Options) (*http.Request, error) {
	if opts == nil {
		opts = &Options{}
	}
	body := opts.Body
	if opts.JSON != nil {
		var err error
		body, err = EncodeBody(opts.JSON)
		if err != nil {
			return nil, err
		}
	}
	u, err := url.Parse(path)
	if err != nil {
		return nil, &kivik.Error{Status: http.StatusBadRequest, Err: errors.Wrap(err, "chttp: invalid URL")}
	}
	if len(opts.Query) > 0 {
		q := u.Query()
		for key, values := range opts.Query {
			for _, value := range values {
				q.Add(key, value)
			}
		}
		u.RawQuery = q.Encode()
	}
	var reqBody io.Reader
	if body != nil {
		reqBody = body
	}
	req, err := http.NewRequest(method, u.String(), reqBody)
	if err != nil {
		return nil, &kivik.Error{Status: http.StatusBadRequest, Err: errors.Wrap(err, "chttp: invalid request")}
	}
	req = req.WithContext(ctx)
	c.setHeaders(req, opts)
	return req, nil
}

func (c *Client) setHeaders(req *http.Request, opts *Options) {
	accept := typeJSON
	contentType := typeJSON
	if opts.Accept != "" {
		accept = opts.Accept
	}
	if opts.ContentType != "" {
		contentType = opts.ContentType
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Content-Type", contentType)
	if len(c.UserAgents) > 0 {
		req.Header.Set("User-Agent", strings.Join(c.UserAgents, " "))
	}
	for key, values := range opts.Header {
		req.Header.Del(key)
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
}

// cancelBody releases the request's timeout context once the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}
