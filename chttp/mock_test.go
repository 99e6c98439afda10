package chttp

import (
	"errors"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
)

type customTransport func(*http.Request) (*http.Response, error)

var _ http.RoundTripper = customTransport(nil)

func (c customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return c(req)
}

func newCustomClient(fn func(*http.Request) (*http.Response, error)) *Client {
	return New(&http.Client{
		Transport: customTransport(fn),
	})
}

func newTestClient(resp *http.Response, err error) *Client {
	return newCustomClient(func(req *http.Request) (*http.Response, error) {
		if resp != nil {
			resp.Request = req
		}
		return resp, err
	})
}

func Body(str string) io.ReadCloser {
	return ioutil.NopCloser(strings.NewReader(str))
}

type errReader struct {
	io.Reader
	err error
}

func (r *errReader) Read(p []byte) (int, error) {
	c, err := r.Reader.Read(p)
	if err == io.EOF {
		err = r.err
	}
	return c, err
}

type errCloser struct {
	io.Reader
	err error
}

func (r *errCloser) Close() error {
	return r.err
}

var errNetwork = errors.New("net error")
